package handlers

import (
	"github.com/valyala/fasthttp"

	"propinsight/internal/config"
	dbpkg "propinsight/internal/db"
	"propinsight/internal/market"
	"propinsight/internal/validation"
)

type projectParams struct {
	Search        string `query:"search" validate:"max=200"`
	Year          string `query:"year" validate:"omitempty,yearorall"`
	RegType       string `query:"regType" validate:"max=100"`
	TransferType  string `query:"transferType" validate:"max=100"`
	PropertyUsage string `query:"propertyUsage" validate:"max=100"`
	PropertyTypes string `query:"propertyTypes" validate:"omitempty,categorylist"`
}

func (p projectParams) filter() (dbpkg.ProjectFilter, error) {
	if err := validation.Struct(&p); err != nil {
		return dbpkg.ProjectFilter{}, err
	}
	year, err := market.ParseYear("year", p.Year)
	if err != nil {
		return dbpkg.ProjectFilter{}, err
	}
	types, err := market.ParseCategoryList(p.PropertyTypes)
	if err != nil {
		return dbpkg.ProjectFilter{}, err
	}
	return dbpkg.ProjectFilter{
		Search:        p.Search,
		Year:          year,
		RegType:       p.RegType,
		TransferType:  p.TransferType,
		PropertyUsage: p.PropertyUsage,
		PropertyTypes: types,
	}, nil
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// TopProjects serves GET /api/get-top-projects. transferType defaults to
// Sales; the other filters default to all.
func TopProjects(store Store, cfg *config.Config) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		f, err := projectParams{
			Search:        arg(ctx, "search"),
			Year:          arg(ctx, "year"),
			RegType:       arg(ctx, "regType"),
			TransferType:  orDefault(arg(ctx, "transferType"), "Sales"),
			PropertyUsage: arg(ctx, "propertyUsage"),
			PropertyTypes: arg(ctx, "propertyTypes"),
		}.filter()
		if err != nil {
			fail(ctx, "top_projects", err)
			return
		}
		qctx, cancel := queryContext(ctx, cfg.QueryTimeout)
		defer cancel()
		writeRows(ctx, "top_projects", store.TopProjects(qctx, f))
	}
}

// TopRentProjects serves GET /api/get-top-rent-projects.
func TopRentProjects(store Store, cfg *config.Config) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		f, err := projectParams{
			Search:        arg(ctx, "search"),
			Year:          arg(ctx, "year"),
			PropertyUsage: arg(ctx, "propertyUsage"),
			PropertyTypes: arg(ctx, "propertyTypes"),
		}.filter()
		if err != nil {
			fail(ctx, "top_rent_projects", err)
			return
		}
		qctx, cancel := queryContext(ctx, cfg.QueryTimeout)
		defer cancel()
		writeRows(ctx, "top_rent_projects", store.TopRentalYieldProjects(qctx, f))
	}
}
