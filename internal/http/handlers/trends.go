package handlers

import (
	"github.com/valyala/fasthttp"

	"propinsight/internal/config"
	dbpkg "propinsight/internal/db"
	"propinsight/internal/market"
	"propinsight/internal/validation"
)

type trendParams struct {
	AreaName  string `query:"areaName" validate:"max=200"`
	DateRange string `query:"dateRange" validate:"required,daterange"`
}

func parseTrend(ctx *fasthttp.RequestCtx) (area string, years int, err error) {
	p := trendParams{AreaName: arg(ctx, "areaName"), DateRange: arg(ctx, "dateRange")}
	if err := validation.Struct(&p); err != nil {
		return "", 0, err
	}
	years, err = market.ParseDateRange(p.DateRange, market.MaxTrendRangeYears)
	if err != nil {
		return "", 0, err
	}
	return market.NormalizeAreaName(p.AreaName), years, nil
}

// PriceChangePerSqft serves GET /api/get-villa-apartment-price-change-per-sqft.
func PriceChangePerSqft(store Store, cfg *config.Config) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		area, years, err := parseTrend(ctx)
		if err != nil {
			fail(ctx, "price_change_per_sqft", err)
			return
		}
		qctx, cancel := queryContext(ctx, cfg.QueryTimeout)
		defer cancel()
		writeRows(ctx, "price_change_per_sqft", store.QuarterlyPriceChanges(qctx, area, years))
	}
}

// PricePerBedroom serves GET /api/get-villa-apartment-price-each-bed-room-number.
func PricePerBedroom(store Store, cfg *config.Config) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		area, years, err := parseTrend(ctx)
		if err != nil {
			fail(ctx, "price_per_bedroom", err)
			return
		}
		qctx, cancel := queryContext(ctx, cfg.QueryTimeout)
		defer cancel()
		writeRows(ctx, "price_per_bedroom", store.BedroomPrices(qctx, area, years))
	}
}

type yieldParams struct {
	Area         string `query:"area" validate:"required,max=200"`
	Year         string `query:"year" validate:"omitempty,yearorall"`
	RoomNum      string `query:"room_num" validate:"max=50"`
	PropertyType string `query:"property_type" validate:"omitempty,oneof=both all apartment apartments flat villa villas"`
	Granularity  string `query:"granularity" validate:"omitempty,oneof=monthly quarterly yearly"`
}

func (p yieldParams) query() (dbpkg.YieldQuery, error) {
	if err := validation.Struct(&p); err != nil {
		return dbpkg.YieldQuery{}, err
	}
	var (
		q   = dbpkg.YieldQuery{Area: market.NormalizeAreaName(p.Area)}
		err error
	)
	if q.FromYear, err = market.ParseYear("year", p.Year); err != nil {
		return q, err
	}
	if q.Room, err = market.ParseRoomCount("room_num", p.RoomNum); err != nil {
		return q, err
	}
	t, ok, err := market.ParseResidentialType("property_type", p.PropertyType)
	if err != nil {
		return q, err
	}
	if ok {
		q.Categories = []market.Category{t.Category()}
	}
	if q.Granularity, err = market.ParseGranularity(p.Granularity); err != nil {
		return q, err
	}
	return q, nil
}

// RentalYield serves GET /api/get-rental-yield.
func RentalYield(store Store, cfg *config.Config) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		q, err := yieldParams{
			Area:         arg(ctx, "area"),
			Year:         arg(ctx, "year"),
			RoomNum:      arg(ctx, "room_num"),
			PropertyType: lower(arg(ctx, "property_type")),
			Granularity:  lower(arg(ctx, "granularity")),
		}.query()
		if err != nil {
			fail(ctx, "rental_yield", err)
			return
		}
		qctx, cancel := queryContext(ctx, cfg.QueryTimeout)
		defer cancel()
		rows, err := dbpkg.Collect(store.RentalYieldByRoom(qctx, q))
		if err != nil {
			fail(ctx, "rental_yield", err)
			return
		}
		jsonResponse(ctx, map[string]any{"success": true, "data": rows})
	}
}
