package handlers

import (
	"context"
	"errors"
	"iter"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/valyala/fasthttp"

	dbpkg "propinsight/internal/db"
	httpctx "propinsight/internal/http/ctx"
	"propinsight/internal/insight"
	"propinsight/internal/logging"
	"propinsight/internal/market"
	"propinsight/internal/validation"
)

// Store is the read side of the analytics database the handlers use.
type Store interface {
	TopProjects(ctx context.Context, f dbpkg.ProjectFilter) iter.Seq2[dbpkg.TopProject, error]
	TopRentalYieldProjects(ctx context.Context, f dbpkg.ProjectFilter) iter.Seq2[dbpkg.RentalYieldProject, error]
	Areas(ctx context.Context, p dbpkg.PageQuery) iter.Seq2[dbpkg.AreaPrice, error]
	AreaRentalYields(ctx context.Context, p dbpkg.PageQuery) iter.Seq2[dbpkg.AreaRentalYield, error]
	AreaPriceGrowthVacancy(ctx context.Context, p dbpkg.PageQuery) iter.Seq2[dbpkg.AreaGrowthRisk, error]
	AreaTransactionTotals(ctx context.Context, p dbpkg.PageQuery) iter.Seq2[dbpkg.AreaTransactionTotal, error]
	AreaOverview(ctx context.Context, name string) (dbpkg.AreaOverview, error)
	RentToPriceRatio(ctx context.Context, q dbpkg.RatioQuery) iter.Seq2[dbpkg.RentToPriceRow, error]
	QuarterlyPriceChanges(ctx context.Context, areaName string, years int) iter.Seq2[dbpkg.QuarterlyPriceChange, error]
	BedroomPrices(ctx context.Context, areaName string, years int) iter.Seq2[dbpkg.BedroomPrice, error]
	RentalYieldByRoom(ctx context.Context, q dbpkg.YieldQuery) iter.Seq2[dbpkg.RoomYield, error]
	InvestmentMetrics(ctx context.Context, areaName string, t market.ResidentialType) (market.InvestmentMetrics, error)
}

// InsightClient asks the AI service for narratives and scores.
type InsightClient interface {
	Generate(ctx context.Context, req insight.Request) (*insight.Response, error)
}

const (
	dbErrorMessage = "Database error"
	maxPageLimit   = 100
)

func jsonResponse(ctx *fasthttp.RequestCtx, data any) {
	body, err := json.Marshal(data)
	if err != nil {
		logging.Ctx(httpctx.Context(ctx)).Error().Err(err).Msg("encode response")
		errResponse(ctx, fasthttp.StatusInternalServerError, "failed to encode response")
		return
	}
	ctx.SetContentType("application/json")
	ctx.SetBody(body)
}

func errResponse(ctx *fasthttp.RequestCtx, code int, msg string) {
	body, _ := json.Marshal(map[string]string{"error": msg})
	ctx.SetStatusCode(code)
	ctx.SetContentType("application/json")
	ctx.SetBody(body)
}

// isInputError reports whether err was caused by request parameters.
func isInputError(err error) bool {
	var verr *validation.RequestValidationError
	return market.IsValidationError(err) || errors.As(err, &verr)
}

// fail writes the error envelope for err: 400 with the message for
// input errors, otherwise a logged 500.
func fail(ctx *fasthttp.RequestCtx, op string, err error) {
	if isInputError(err) {
		errResponse(ctx, fasthttp.StatusBadRequest, err.Error())
		return
	}
	logging.Ctx(httpctx.Context(ctx)).Error().Err(err).Str("op", op).Msg("query failed")
	errResponse(ctx, fasthttp.StatusInternalServerError, dbErrorMessage)
}

// queryContext bounds the database work of one request.
func queryContext(ctx *fasthttp.RequestCtx, timeout time.Duration) (context.Context, context.CancelFunc) {
	parent := httpctx.Context(ctx)
	if timeout <= 0 {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, timeout)
}

// writeRows drains rows into a JSON array.
func writeRows[T any](ctx *fasthttp.RequestCtx, op string, rows iter.Seq2[T, error]) {
	out, err := dbpkg.Collect(rows)
	if err != nil {
		fail(ctx, op, err)
		return
	}
	jsonResponse(ctx, out)
}

func arg(ctx *fasthttp.RequestCtx, name string) string {
	return strings.TrimSpace(string(ctx.QueryArgs().Peek(name)))
}

type pageParams struct {
	Offset string `query:"offset" validate:"omitempty,number"`
	Limit  string `query:"limit" validate:"omitempty,number"`
	Search string `query:"search" validate:"max=200"`
}

// parsePage reads offset, limit and search. limit defaults to def and is
// clamped to maxPageLimit.
func parsePage(ctx *fasthttp.RequestCtx, def int) (dbpkg.PageQuery, error) {
	p := pageParams{Offset: arg(ctx, "offset"), Limit: arg(ctx, "limit"), Search: arg(ctx, "search")}
	if err := validation.Struct(&p); err != nil {
		return dbpkg.PageQuery{}, err
	}
	q := dbpkg.PageQuery{Limit: def, Search: p.Search}
	if p.Offset != "" {
		n, err := strconv.Atoi(p.Offset)
		if err != nil {
			return q, &market.ValidationError{Field: "offset", Message: "out of range"}
		}
		q.Offset = n
	}
	if p.Limit != "" {
		n, err := strconv.Atoi(p.Limit)
		if err != nil || n < 1 {
			return q, &market.ValidationError{Field: "limit", Message: "must be at least 1"}
		}
		q.Limit = min(n, maxPageLimit)
	}
	return q, nil
}

func lower(s string) string {
	return strings.ToLower(s)
}
