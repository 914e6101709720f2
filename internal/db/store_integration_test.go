//go:build integration

package db

import (
	"context"
	"fmt"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"propinsight/internal/config"
	"propinsight/internal/market"
)

func skipIfNoDocker(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if exec.CommandContext(ctx, "docker", "info").Run() != nil {
		t.Skip("Skipping test: Docker not available")
	}
}

func startPostgres(t *testing.T) *gorm.DB {
	t.Helper()
	skipIfNoDocker(t)
	ctx := context.Background()

	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "analyst",
				"POSTGRES_PASSWORD": "analyst",
				"POSTGRES_DB":       "dld",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(90 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := c.Terminate(context.Background()); err != nil {
			t.Logf("Warning: failed to terminate container: %v", err)
		}
	})

	host, err := c.Host(ctx)
	require.NoError(t, err)
	port, err := c.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)

	db, err := Connect(&config.Config{
		DatabaseURL:     fmt.Sprintf("postgres://analyst:analyst@%s:%s/dld?sslmode=disable", host, port.Port()),
		MaxOpenConns:    4,
		MaxIdleConns:    2,
		ConnMaxLifetime: time.Minute,
		AutoMigrate:     true,
	})
	require.NoError(t, err)
	return db
}

// Dimension ids used by the fixtures.
const (
	typeUnit  int64 = 1
	typeVilla int64 = 2
	subFlat   int64 = 1
	subVilla  int64 = 2
	subShop   int64 = 3
	grpSales  int64 = 1
	grpGift   int64 = 2
	useRes    int64 = 1
	regReady  int64 = 1

	downtown int64 = 1
	marina   int64 = 2
)

type fixture struct {
	t      *testing.T
	db     *gorm.DB
	nextID int64
}

func newFixture(t *testing.T, db *gorm.DB) *fixture {
	t.Helper()
	require.NoError(t, db.Exec(`TRUNCATE transactions, rents, dim_area, dim_project, dim_property_type,
		dim_property_sub_type, dim_trans_group, dim_usage, dim_reg_type`).Error)

	dims := []any{
		&[]Area{{ID: downtown, NameEn: "Downtown Dubai"}, {ID: marina, NameEn: "Dubai Marina"}},
		&[]PropertyType{{ID: typeUnit, Name: "Unit"}, {ID: typeVilla, Name: "Villa"}},
		&[]PropertySubType{{ID: subFlat, Name: "Flat"}, {ID: subVilla, Name: "Villa"}, {ID: subShop, Name: "Shop"}},
		&[]TransGroup{{ID: grpSales, NameEn: "Sales"}, {ID: grpGift, NameEn: "Gift"}},
		&[]Usage{{ID: useRes, NameEn: "Residential"}},
		&[]RegType{{ID: regReady, NameEn: "Existing Properties"}},
	}
	for _, d := range dims {
		require.NoError(t, db.Create(d).Error)
	}
	return &fixture{t: t, db: db}
}

func (f *fixture) project(number int64, name string) {
	require.NoError(f.t, f.db.Create(&Project{Number: number, NameEn: name}).Error)
}

func ptr[T any](v T) *T { return &v }

func day(s string) datatypes.Date {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		panic(err)
	}
	return datatypes.Date(t)
}

type saleOpt func(*Transaction)

func withGroup(id int64) saleOpt { return func(t *Transaction) { t.TransGroupID = &id } }
func withRooms(r string) saleOpt { return func(t *Transaction) { t.NumRoomsEn = &r } }
func withMeter(v float64) saleOpt {
	return func(t *Transaction) { t.MeterSalePrice = &v }
}

func (f *fixture) sale(area, project, typ, sub int64, date string, worth float64, opts ...saleOpt) {
	f.nextID++
	tx := Transaction{
		ID:                f.nextID,
		InstanceDate:      day(date),
		AreaID:            area,
		ProjectNumber:     &project,
		PropertyTypeID:    &typ,
		PropertySubTypeID: &sub,
		TransGroupID:      ptr(grpSales),
		RegTypeID:         ptr(regReady),
		PropertyUsageID:   ptr(useRes),
		ActualWorth:       &worth,
		MeterSalePrice:    ptr(worth / 100),
	}
	for _, o := range opts {
		o(&tx)
	}
	require.NoError(f.t, f.db.Create(&tx).Error)
}

func (f *fixture) rent(area, project, typ, sub int64, date, ejari string, annual float64) {
	f.nextID++
	require.NoError(f.t, f.db.Create(&RentContract{
		ID:                     f.nextID,
		ContractStartDate:      day(date),
		AreaID:                 area,
		ProjectNumber:          &project,
		PropertyTypeID:         &typ,
		PropertySubTypeID:      &sub,
		EjariPropertySubTypeEn: &ejari,
		AnnualAmount:           &annual,
		ActualArea:             ptr(100.0),
	}).Error)
}

func newTestStore(db *gorm.DB) *Store {
	s := NewStore(db)
	s.now = func() time.Time { return time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC) }
	return s
}

func TestStoreIntegration(t *testing.T) {
	db := startPostgres(t)
	ctx := context.Background()

	t.Run("top projects filtered by area and year", func(t *testing.T) {
		f := newFixture(t, db)
		for n, name := range map[int64]string{1: "P1", 2: "P2", 3: "P3", 4: "P4"} {
			f.project(n, name)
		}
		f.sale(downtown, 1, typeUnit, subFlat, "2024-02-01", 2_000_000)
		f.sale(downtown, 2, typeUnit, subFlat, "2023-05-01", 1_500_000)
		f.sale(downtown, 3, typeVilla, subVilla, "2024-03-01", 4_000_000)
		f.sale(marina, 4, typeUnit, subFlat, "2024-03-01", 9_000_000)

		rows, err := Collect(newTestStore(db).TopProjects(ctx, ProjectFilter{
			Search:       "downtown",
			Year:         ptr(2024),
			TransferType: "Sales",
		}))
		require.NoError(t, err)
		require.Len(t, rows, 2)

		assert.Equal(t, int64(1), rows[0].ID)
		assert.Equal(t, "Apartment", rows[0].Type)
		assert.Equal(t, 1, rows[0].Rank)
		assert.InDelta(t, 2_000_000, *rows[0].SalesVolume, 0.01)

		assert.Equal(t, int64(3), rows[1].ID)
		assert.Equal(t, "Villa", rows[1].Type)
		assert.Equal(t, 1, rows[1].Rank)
	})

	t.Run("ranking keeps ten rows per category with id tie-break", func(t *testing.T) {
		f := newFixture(t, db)
		for n := int64(1); n <= 12; n++ {
			f.project(n, fmt.Sprintf("Tower %d", n))
			f.sale(downtown, n, typeUnit, subFlat, "2024-01-10", float64(n)*100_000)
		}
		f.project(13, "Tower 13")
		f.sale(downtown, 13, typeUnit, subFlat, "2024-01-10", 1_200_000)

		rows, err := Collect(newTestStore(db).TopProjects(ctx, ProjectFilter{}))
		require.NoError(t, err)
		require.Len(t, rows, RankLimit)
		assert.Equal(t, int64(12), rows[0].ID)
		assert.Equal(t, int64(13), rows[1].ID)
		for i, r := range rows {
			assert.Equal(t, i+1, r.Rank)
		}
	})

	t.Run("property type filter and excluded categories", func(t *testing.T) {
		f := newFixture(t, db)
		f.project(1, "Flats")
		f.project(2, "Villas")
		f.project(3, "Shops")
		f.sale(downtown, 1, typeUnit, subFlat, "2024-01-10", 1_000_000)
		f.sale(downtown, 2, typeVilla, subVilla, "2024-01-10", 3_000_000)
		f.sale(downtown, 3, typeUnit, subShop, "2024-01-10", 500_000)
		f.sale(downtown, 3, typeVilla+10, subShop, "2024-01-10", 700_000)

		store := newTestStore(db)
		rows, err := Collect(store.TopProjects(ctx, ProjectFilter{PropertyTypes: []market.Category{market.Villa}}))
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, "Villa", rows[0].Type)

		rows, err = Collect(store.TopProjects(ctx, ProjectFilter{}))
		require.NoError(t, err)
		types := make([]string, 0, len(rows))
		for _, r := range rows {
			types = append(types, r.Type)
		}
		assert.Equal(t, []string{"Apartment", "Shop", "Villa"}, types)
	})

	t.Run("rental yield is null for a zero sale value and ranks last", func(t *testing.T) {
		f := newFixture(t, db)
		f.project(5, "Zero")
		f.project(6, "Six")
		f.sale(downtown, 5, typeUnit, subFlat, "2024-01-10", 0)
		f.rent(downtown, 5, typeUnit, subFlat, "2024-02-01", "1 bed room+hall", 100_000)
		f.sale(downtown, 6, typeUnit, subFlat, "2024-01-10", 1_000_000)
		f.rent(downtown, 6, typeUnit, subFlat, "2024-02-01", "1 bed room+hall", 60_000)

		rows, err := Collect(newTestStore(db).TopRentalYieldProjects(ctx, ProjectFilter{}))
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, int64(6), rows[0].ID)
		assert.InDelta(t, 6.0, *rows[0].YieldPercentage, 0.001)
		assert.Equal(t, int64(5), rows[1].ID)
		assert.Nil(t, rows[1].YieldPercentage)
	})

	t.Run("rent to price ratio joins matching months and bedrooms", func(t *testing.T) {
		f := newFixture(t, db)
		f.project(1, "P1")
		f.sale(downtown, 1, typeUnit, subFlat, "2024-03-05", 1_200_000, withRooms("2 B/R"))
		f.rent(downtown, 1, typeUnit, subFlat, "2024-03-20", "2 bed rooms+hall", 100_000)
		f.rent(downtown, 1, typeUnit, subFlat, "2024-03-21", "Studio", 40_000)
		f.sale(downtown, 1, typeUnit, subFlat, "2024-04-05", 900_000, withRooms("1 B/R"))

		rows, err := Collect(newTestStore(db).RentToPriceRatio(ctx, RatioQuery{
			AreaName: "downtown dubai",
			Years:    1,
		}))
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, "2024-03", rows[0].MonthLabel)
		assert.Equal(t, "apartment", rows[0].PropertyType)
		assert.Equal(t, "2BR", rows[0].BedroomLabel)
		assert.InDelta(t, 12.0, *rows[0].PriceToRentRatio, 0.001)
	})

	t.Run("investment metrics", func(t *testing.T) {
		f := newFixture(t, db)
		f.project(1, "P1")
		f.sale(downtown, 1, typeUnit, subFlat, "2023-05-10", 900_000, withMeter(1000))
		f.sale(downtown, 1, typeUnit, subFlat, "2024-05-10", 1_000_000, withMeter(1100))
		f.sale(downtown, 1, typeUnit, subFlat, "2024-05-11", 5_000_000, withMeter(9000), withGroup(grpGift))
		f.rent(downtown, 1, typeUnit, subFlat, "2024-06-01", "1 bed room+hall", 60_000)

		m, err := newTestStore(db).InvestmentMetrics(ctx, "Downtown Dubai", market.ResidentialApartment)
		require.NoError(t, err)
		require.NotNil(t, m.AvgPrice)
		assert.InDelta(t, 1100, *m.AvgPrice, 0.001)
		require.NotNil(t, m.YoYChange)
		assert.InDelta(t, 0.1, *m.YoYChange, 0.0001)
		assert.Nil(t, m.Volatility)
		assert.Equal(t, int64(1), m.TxnVolume)
		require.NotNil(t, m.Yield)
		assert.InDelta(t, 0.06, *m.Yield, 0.0001)
		require.NotNil(t, m.TimeOnMarket)
		assert.InDelta(t, 22, *m.TimeOnMarket, 0.01)
	})

	t.Run("area overview view", func(t *testing.T) {
		f := newFixture(t, db)
		f.project(1, "P1")
		f.project(2, "P2")
		f.sale(downtown, 1, typeUnit, subFlat, "2024-01-10", 1_000_000)
		f.sale(downtown, 2, typeVilla, subVilla, "2024-01-10", 2_000_000)
		require.NoError(t, EnsureAreaOverviewView(ctx, db))
		require.NoError(t, refreshOverview(ctx, db))

		store := newTestStore(db)
		ov, err := store.AreaOverview(ctx, "downtown-dubai")
		require.NoError(t, err)
		assert.Equal(t, "Downtown Dubai", ov.AreaNameEn)
		assert.Equal(t, int64(2), ov.TrackedProjects)

		ov, err = store.AreaOverview(ctx, "Atlantis")
		require.NoError(t, err)
		assert.Equal(t, AreaOverview{}, ov)
	})

	t.Run("area listings page and search", func(t *testing.T) {
		f := newFixture(t, db)
		f.project(1, "P1")
		f.sale(downtown, 1, typeUnit, subFlat, "2024-01-10", 1_000_000)
		f.sale(downtown, 1, typeUnit, subFlat, "2023-01-10", 800_000)
		f.rent(downtown, 1, typeUnit, subFlat, "2024-02-01", "1 bed room+hall", 60_000)
		f.sale(marina, 1, typeVilla, subVilla, "2024-01-10", 3_000_000)

		store := newTestStore(db)
		totals, err := Collect(store.AreaTransactionTotals(ctx, PageQuery{Limit: 10}))
		require.NoError(t, err)
		require.Len(t, totals, 2)
		assert.Equal(t, "Downtown Dubai", totals[0].AreaName)
		assert.Equal(t, int64(2), totals[0].ApartmentTotalTransactions)
		assert.Equal(t, int64(1), totals[0].ApartmentCurrentYearTransactions)
		assert.InDelta(t, 1_800_000, *totals[0].ApartmentTotalValue, 0.01)

		paged, err := Collect(store.AreaTransactionTotals(ctx, PageQuery{Offset: 1, Limit: 10}))
		require.NoError(t, err)
		require.Len(t, paged, 1)
		assert.Equal(t, "Dubai Marina", paged[0].AreaName)

		growth, err := Collect(store.AreaPriceGrowthVacancy(ctx, PageQuery{Limit: 10, Search: "down"}))
		require.NoError(t, err)
		require.Len(t, growth, 1)
		require.NotNil(t, growth[0].ApartmentPriceGrowth)
		assert.InDelta(t, 25.0, *growth[0].ApartmentPriceGrowth, 0.001)
		require.NotNil(t, growth[0].ApartmentVacancyRisk)
		assert.InDelta(t, 0.5, *growth[0].ApartmentVacancyRisk, 0.001)
		assert.Nil(t, growth[0].VillaVacancyRisk)
	})
	t.Run("rental yield uses rents of the filtered year only", func(t *testing.T) {
		f := newFixture(t, db)
		f.project(7, "Seven")
		f.sale(downtown, 7, typeUnit, subFlat, "2020-03-01", 1_000_000)
		f.rent(downtown, 7, typeUnit, subFlat, "2020-05-01", "1 bed room+hall", 50_000)
		f.rent(downtown, 7, typeUnit, subFlat, "2024-02-01", "1 bed room+hall", 150_000)

		store := newTestStore(db)
		rows, err := Collect(store.TopRentalYieldProjects(ctx, ProjectFilter{Year: ptr(2020)}))
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, int64(1), rows[0].RentCount)
		assert.InDelta(t, 5.0, *rows[0].YieldPercentage, 0.001)

		rows, err = Collect(store.TopRentalYieldProjects(ctx, ProjectFilter{}))
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, int64(2), rows[0].RentCount)
		assert.InDelta(t, 10.0, *rows[0].YieldPercentage, 0.001)

		rows, err = Collect(store.TopRentalYieldProjects(ctx, ProjectFilter{Year: ptr(2022)}))
		require.NoError(t, err)
		assert.Empty(t, rows)
	})

	t.Run("quarterly price change", func(t *testing.T) {
		f := newFixture(t, db)
		f.project(1, "P1")
		// 1076.39 AED per square metre is 100 AED per square foot.
		f.sale(downtown, 1, typeUnit, subFlat, "2020-02-01", 1, withMeter(5000))
		f.sale(downtown, 1, typeUnit, subFlat, "2023-02-01", 1, withMeter(1076.39))
		f.sale(downtown, 1, typeUnit, subFlat, "2023-05-01", 1, withMeter(1291.668))
		f.sale(downtown, 1, typeUnit, subFlat, "2023-11-01", 1, withMeter(1076.39))
		f.sale(downtown, 1, typeUnit, subFlat, "2024-01-15", 1, withMeter(0))
		f.sale(downtown, 1, typeUnit, subFlat, "2024-04-15", 1, withMeter(1076.39))
		f.sale(downtown, 1, typeUnit, subFlat, "2024-04-16", 1, withMeter(9999), withGroup(grpGift))
		f.sale(marina, 1, typeUnit, subFlat, "2023-05-01", 1, withMeter(5000))

		rows, err := Collect(newTestStore(db).QuarterlyPriceChanges(ctx, "downtown dubai", 3))
		require.NoError(t, err)

		type quarter struct {
			label  string
			avg    float64
			change *float64
		}
		want := []quarter{
			{"2023-Q1", 100, nil},
			{"2023-Q2", 120, ptr(20.0)},
			{"2023-Q4", 100, nil},
			{"2024-Q1", 0, ptr(-100.0)},
			{"2024-Q2", 100, nil},
		}
		require.Len(t, rows, len(want))
		for i, w := range want {
			assert.Equal(t, "Downtown Dubai", rows[i].AreaNameEn)
			assert.Equal(t, w.label, rows[i].YearQuarter)
			require.NotNil(t, rows[i].AvgPriceSqft, w.label)
			assert.InDelta(t, w.avg, *rows[i].AvgPriceSqft, 0.001, w.label)
			if w.change == nil {
				assert.Nil(t, rows[i].PriceChangePct, w.label)
			} else {
				require.NotNil(t, rows[i].PriceChangePct, w.label)
				assert.InDelta(t, *w.change, *rows[i].PriceChangePct, 0.001, w.label)
			}
		}
	})

	t.Run("bedroom prices", func(t *testing.T) {
		f := newFixture(t, db)
		f.project(1, "P1")
		f.sale(downtown, 1, typeUnit, subFlat, "2024-02-01", 1_000_000, withRooms("1 B/R"))
		f.sale(downtown, 1, typeUnit, subFlat, "2024-03-01", 1_200_000, withRooms("1 B/R"))
		f.sale(downtown, 1, typeUnit, subFlat, "2024-03-02", 9_000_000, withRooms("1 B/R"), withGroup(grpGift))
		f.sale(downtown, 1, typeUnit, subFlat, "2024-03-03", 500_000, withRooms("Studio"))
		f.sale(downtown, 1, typeVilla, subVilla, "2024-04-10", 3_000_000, withRooms("2 B/R"))
		f.sale(downtown, 1, typeUnit, subFlat, "2021-04-10", 700_000, withRooms("1 B/R"))

		rows, err := Collect(newTestStore(db).BedroomPrices(ctx, "Downtown Dubai", 2))
		require.NoError(t, err)
		require.Len(t, rows, 2)

		assert.Equal(t, "Apartment", rows[0].PropertyCategory)
		assert.Equal(t, 1, rows[0].RoomNum)
		assert.Equal(t, "1BR", rows[0].BedroomLabel)
		assert.Equal(t, "2024-Q1", rows[0].YearQuarter)
		assert.Equal(t, int64(2), rows[0].TransactionCount)
		assert.InDelta(t, 1_100_000, *rows[0].AvgPrice, 0.01)

		assert.Equal(t, "Villa", rows[1].PropertyCategory)
		assert.Equal(t, "2BR", rows[1].BedroomLabel)
		assert.Equal(t, "2024-Q2", rows[1].YearQuarter)
	})

	t.Run("rental yield by room", func(t *testing.T) {
		f := newFixture(t, db)
		f.project(1, "Flats")
		f.project(2, "Villas")
		f.sale(downtown, 1, typeUnit, subFlat, "2023-02-03", 1_000_000, withRooms("2 B/R"))
		f.rent(downtown, 1, typeUnit, subFlat, "2023-02-10", "2 bed rooms+hall", 50_000)
		f.sale(downtown, 1, typeUnit, subFlat, "2023-08-03", 1_000_000, withRooms("2 B/R"))
		f.rent(downtown, 1, typeUnit, subFlat, "2023-08-10", "2 bed rooms+hall", 70_000)
		f.sale(downtown, 1, typeUnit, subFlat, "2024-01-03", 800_000, withRooms("1 B/R"))
		f.rent(downtown, 1, typeUnit, subFlat, "2024-01-10", "1 bed room+hall", 48_000)
		f.sale(downtown, 2, typeVilla, subVilla, "2024-03-03", 4_000_000, withRooms("4 B/R"))
		f.rent(downtown, 2, typeVilla, subVilla, "2024-03-10", "4 bed rooms+hall", 200_000)
		// Unknown room counts on both sides never pair.
		f.sale(downtown, 1, typeUnit, subFlat, "2024-01-04", 600_000)
		f.rent(downtown, 1, typeUnit, subFlat, "2024-01-11", "Studio", 30_000)
		// Before FromYear.
		f.sale(downtown, 1, typeUnit, subFlat, "2021-02-03", 500_000, withRooms("2 B/R"))
		f.rent(downtown, 1, typeUnit, subFlat, "2021-02-10", "2 bed rooms+hall", 50_000)

		store := newTestStore(db)
		from := ptr(2023)

		yearly, err := Collect(store.RentalYieldByRoom(ctx, YieldQuery{Area: "downtown dubai", FromYear: from, Granularity: market.Yearly}))
		require.NoError(t, err)
		require.Len(t, yearly, 3)
		assert.Equal(t, "2023", yearly[0].Period)
		assert.Equal(t, "Apartment", yearly[0].PropertyCategory)
		assert.Equal(t, 2, *yearly[0].RoomNum)
		assert.Equal(t, "2BR", yearly[0].BedroomLabel)
		assert.Equal(t, int64(2), yearly[0].MatchedMonths)
		assert.InDelta(t, 6.0, *yearly[0].RentalYieldPercent, 0.001)
		assert.Nil(t, yearly[0].Quarter)
		assert.Equal(t, "2024", yearly[1].Period)
		assert.Equal(t, 1, *yearly[1].RoomNum)
		assert.InDelta(t, 6.0, *yearly[1].RentalYieldPercent, 0.001)
		assert.Equal(t, "Villa", yearly[2].PropertyCategory)
		assert.InDelta(t, 5.0, *yearly[2].RentalYieldPercent, 0.001)

		villas, err := Collect(store.RentalYieldByRoom(ctx, YieldQuery{
			Area:        "downtown dubai",
			FromYear:    from,
			Categories:  []market.Category{market.Villa},
			Granularity: market.Quarterly,
		}))
		require.NoError(t, err)
		require.Len(t, villas, 1)
		assert.Equal(t, "2024-Q1", villas[0].Period)
		require.NotNil(t, villas[0].Quarter)
		assert.Equal(t, 1, *villas[0].Quarter)
		assert.Nil(t, villas[0].Month)

		monthly, err := Collect(store.RentalYieldByRoom(ctx, YieldQuery{
			Area:        "downtown dubai",
			FromYear:    from,
			Room:        ptr(2),
			Categories:  []market.Category{market.Apartment},
			Granularity: market.Monthly,
		}))
		require.NoError(t, err)
		require.Len(t, monthly, 2)
		assert.Equal(t, "2023-02", monthly[0].Period)
		assert.Equal(t, 2, *monthly[0].Month)
		assert.InDelta(t, 5.0, *monthly[0].RentalYieldPercent, 0.001)
		assert.Equal(t, "2023-08", monthly[1].Period)
		assert.InDelta(t, 7.0, *monthly[1].RentalYieldPercent, 0.001)

		// Without FromYear the window starts three years back.
		window, err := Collect(store.RentalYieldByRoom(ctx, YieldQuery{Area: "downtown dubai", Granularity: market.Yearly}))
		require.NoError(t, err)
		require.Len(t, window, 4)
		assert.Equal(t, "2021", window[0].Period)
		assert.InDelta(t, 10.0, *window[0].RentalYieldPercent, 0.001)
	})

	t.Run("area price and yield listings", func(t *testing.T) {
		f := newFixture(t, db)
		f.project(1, "P1")
		f.sale(downtown, 1, typeUnit, subFlat, "2024-01-10", 1_000_000, withMeter(10_000))
		f.sale(downtown, 1, typeUnit, subFlat, "2023-01-10", 800_000, withMeter(8_000))
		f.rent(downtown, 1, typeUnit, subFlat, "2024-02-01", "1 bed room+hall", 60_000)
		f.rent(downtown, 1, typeUnit, subFlat, "2023-02-01", "1 bed room+hall", 40_000)
		f.sale(marina, 1, typeVilla, subVilla, "2024-01-10", 3_000_000, withMeter(20_000))

		store := newTestStore(db)
		areas, err := Collect(store.Areas(ctx, PageQuery{Limit: 10}))
		require.NoError(t, err)
		require.Len(t, areas, 2)
		assert.Equal(t, "Downtown Dubai", areas[0].AreaName)
		assert.InDelta(t, 10_000, *areas[0].ApartmentCurrentSalePrice, 0.01)
		assert.InDelta(t, 600, *areas[0].ApartmentCurrentRentPrice, 0.01)
		assert.Nil(t, areas[0].VillaCurrentSalePrice)
		assert.Equal(t, "Dubai Marina", areas[1].AreaName)
		assert.InDelta(t, 20_000, *areas[1].VillaCurrentSalePrice, 0.01)
		assert.Nil(t, areas[1].VillaCurrentRentPrice)

		first, err := Collect(store.Areas(ctx, PageQuery{Limit: 1}))
		require.NoError(t, err)
		require.Len(t, first, 1)
		assert.Equal(t, "Downtown Dubai", first[0].AreaName)

		found, err := Collect(store.Areas(ctx, PageQuery{Limit: 10, Search: "MARINA"}))
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, marina, found[0].AreaID)

		yields, err := Collect(store.AreaRentalYields(ctx, PageQuery{Limit: 5}))
		require.NoError(t, err)
		require.Len(t, yields, 1)
		assert.Equal(t, "Downtown Dubai", yields[0].AreaName)
		assert.InDelta(t, 6.0, *yields[0].ApartmentCurrentYield, 0.001)
		assert.InDelta(t, 5.0, *yields[0].ApartmentLastYield, 0.001)
		require.NotNil(t, yields[0].ApartmentYieldGrowthPct)
		assert.InDelta(t, 20.0, *yields[0].ApartmentYieldGrowthPct, 0.001)
		assert.Nil(t, yields[0].VillaCurrentYield)
		assert.Nil(t, yields[0].VillaYieldGrowthPct)
	})
}
