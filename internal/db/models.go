package db

import (
	"gorm.io/datatypes"
)

// The models below describe the relations the analytics queries read.
// They are written by the ingestion pipeline; Migrate exists for tests
// and local development.

type Area struct {
	ID     int64  `gorm:"column:area_id;primaryKey;autoIncrement:false"`
	NameEn string `gorm:"column:area_name_en;not null;index"`
}

func (Area) TableName() string { return "dim_area" }

type Project struct {
	Number int64  `gorm:"column:project_number;primaryKey;autoIncrement:false"`
	NameEn string `gorm:"column:project_name_en"`
}

func (Project) TableName() string { return "dim_project" }

type PropertyType struct {
	ID   int64  `gorm:"column:property_type_id;primaryKey;autoIncrement:false"`
	Name string `gorm:"column:property_type"`
}

func (PropertyType) TableName() string { return "dim_property_type" }

type PropertySubType struct {
	ID   int64  `gorm:"column:property_sub_type_id;primaryKey;autoIncrement:false"`
	Name string `gorm:"column:property_sub_type"`
}

func (PropertySubType) TableName() string { return "dim_property_sub_type" }

type TransGroup struct {
	ID     int64  `gorm:"column:trans_group_id;primaryKey;autoIncrement:false"`
	NameEn string `gorm:"column:trans_group_en"`
}

func (TransGroup) TableName() string { return "dim_trans_group" }

type Usage struct {
	ID     int64  `gorm:"column:property_usage_id;primaryKey;autoIncrement:false"`
	NameEn string `gorm:"column:property_usage_en"`
}

func (Usage) TableName() string { return "dim_usage" }

type RegType struct {
	ID     int64  `gorm:"column:reg_type_id;primaryKey;autoIncrement:false"`
	NameEn string `gorm:"column:reg_type_en"`
}

func (RegType) TableName() string { return "dim_reg_type" }

// Transaction is one registered sale, immutable once ingested.
type Transaction struct {
	ID                int64          `gorm:"column:transaction_id;primaryKey"`
	InstanceDate      datatypes.Date `gorm:"column:instance_date;not null;index"`
	AreaID            int64          `gorm:"column:area_id;not null;index"`
	ProjectNumber     *int64         `gorm:"column:project_number;index"`
	PropertyTypeID    *int64         `gorm:"column:property_type_id"`
	PropertySubTypeID *int64         `gorm:"column:property_sub_type_id"`
	TransGroupID      *int64         `gorm:"column:trans_group_id"`
	RegTypeID         *int64         `gorm:"column:reg_type_id"`
	PropertyUsageID   *int64         `gorm:"column:property_usage_id"`
	ActualWorth       *float64       `gorm:"column:actual_worth;type:numeric"`
	MeterSalePrice    *float64       `gorm:"column:meter_sale_price;type:numeric"`
	NumRoomsEn        *string        `gorm:"column:num_rooms_en"`
}

func (Transaction) TableName() string { return "transactions" }

// RentContract is one registered (Ejari) rental contract.
type RentContract struct {
	ID                     int64          `gorm:"column:contract_id;primaryKey"`
	ContractStartDate      datatypes.Date `gorm:"column:contract_start_date;not null;index"`
	AreaID                 int64          `gorm:"column:area_id;not null;index"`
	ProjectNumber          *int64         `gorm:"column:project_number;index"`
	PropertyTypeID         *int64         `gorm:"column:property_type_id"`
	PropertySubTypeID      *int64         `gorm:"column:property_sub_type_id"`
	EjariPropertySubTypeEn *string        `gorm:"column:ejari_property_sub_type_en"`
	AnnualAmount           *float64       `gorm:"column:annual_amount;type:numeric"`
	ActualArea             *float64       `gorm:"column:actual_area;type:numeric"`
}

func (RentContract) TableName() string { return "rents" }
