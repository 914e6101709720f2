package handlers

import (
	"context"
	"iter"

	"github.com/valyala/fasthttp"

	"propinsight/internal/config"
	dbpkg "propinsight/internal/db"
)

func areaListing[T any](store Store, cfg *config.Config, op string, defaultLimit int,
	list func(Store, context.Context, dbpkg.PageQuery) iter.Seq2[T, error]) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		page, err := parsePage(ctx, defaultLimit)
		if err != nil {
			fail(ctx, op, err)
			return
		}
		qctx, cancel := queryContext(ctx, cfg.QueryTimeout)
		defer cancel()
		writeRows(ctx, op, list(store, qctx, page))
	}
}

// Areas serves GET /api/areas.
func Areas(store Store, cfg *config.Config) fasthttp.RequestHandler {
	return areaListing(store, cfg, "areas", 10, Store.Areas)
}

// AreasRentalYield serves GET /api/areas-rental-yield.
func AreasRentalYield(store Store, cfg *config.Config) fasthttp.RequestHandler {
	return areaListing(store, cfg, "areas_rental_yield", 5, Store.AreaRentalYields)
}

// AreasPriceGrowthVacancy serves GET /api/areas-price-growth-vacancy-risk.
func AreasPriceGrowthVacancy(store Store, cfg *config.Config) fasthttp.RequestHandler {
	return areaListing(store, cfg, "areas_price_growth_vacancy", 5, Store.AreaPriceGrowthVacancy)
}

// AreasTransactionTotals serves GET /api/areas-transactions-total-value.
func AreasTransactionTotals(store Store, cfg *config.Config) fasthttp.RequestHandler {
	return areaListing(store, cfg, "areas_transaction_totals", 5, Store.AreaTransactionTotals)
}

// AreaOverview serves GET /api/get-area-overview. An unknown area is not
// an error; it yields the zero overview.
func AreaOverview(store Store, cfg *config.Config) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		qctx, cancel := queryContext(ctx, cfg.QueryTimeout)
		defer cancel()
		ov, err := store.AreaOverview(qctx, arg(ctx, "search"))
		if err != nil {
			fail(ctx, "area_overview", err)
			return
		}
		jsonResponse(ctx, ov)
	}
}
