package handlers

import (
	"errors"

	"github.com/valyala/fasthttp"

	"propinsight/internal/config"
	dbpkg "propinsight/internal/db"
	httpctx "propinsight/internal/http/ctx"
	"propinsight/internal/insight"
	"propinsight/internal/logging"
	"propinsight/internal/market"
	"propinsight/internal/validation"
)

const aiUnavailableMessage = "upstream AI service unavailable"

type ratioParams struct {
	AreaName     string `query:"areaName" validate:"max=200"`
	DateRange    string `query:"dateRange" validate:"omitempty,daterange"`
	PropertyType string `query:"propertyType" validate:"max=50"`
	Bedrooms     string `query:"bedrooms" validate:"max=10"`
	DetailLevel  string `query:"detail_level" validate:"omitempty,oneof=short medium long detailed"`
}

func (p ratioParams) query() (dbpkg.RatioQuery, error) {
	if err := validation.Struct(&p); err != nil {
		return dbpkg.RatioQuery{}, err
	}
	q := dbpkg.RatioQuery{AreaName: market.NormalizeAreaName(p.AreaName)}
	var err error
	if q.Years, err = market.ParseDateRange(orDefault(p.DateRange, "5y"), market.MaxRatioRangeYears); err != nil {
		return q, err
	}
	if q.PropertyType, _, err = market.ParseResidentialType("propertyType", p.PropertyType); err != nil {
		return q, err
	}
	if q.Bedrooms, err = market.ParseBedrooms(p.Bedrooms); err != nil {
		return q, err
	}
	return q, nil
}

type ratioResponse struct {
	ChartData []dbpkg.RentToPriceRow `json:"chartData"`
	Summary   *market.RatioSummary   `json:"summary"`
	AIInsight *string                `json:"aiInsight"`
	AIError   string                 `json:"aiError,omitempty"`
}

// RentToPriceRatio serves GET /api/get-rent-to-price-ratio: the monthly
// series, its per group summary and an AI narrative of the summary. The
// data is returned even when the AI service fails.
func RentToPriceRatio(store Store, ai InsightClient, cfg *config.Config) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		p := ratioParams{
			AreaName:     arg(ctx, "areaName"),
			DateRange:    lower(arg(ctx, "dateRange")),
			PropertyType: arg(ctx, "propertyType"),
			Bedrooms:     arg(ctx, "bedrooms"),
			DetailLevel:  lower(orDefault(arg(ctx, "detail_level"), "short")),
		}
		q, err := p.query()
		if err != nil {
			fail(ctx, "rent_to_price_ratio", err)
			return
		}

		qctx, cancel := queryContext(ctx, cfg.QueryTimeout)
		defer cancel()
		rows, err := dbpkg.Collect(store.RentToPriceRatio(qctx, q))
		if err != nil {
			fail(ctx, "rent_to_price_ratio", err)
			return
		}

		points := make([]market.RatioPoint, len(rows))
		for i, r := range rows {
			points[i] = r.Point()
		}
		resp := ratioResponse{ChartData: rows, Summary: market.SummarizeRentToPriceRatio(points)}

		if resp.Summary != nil {
			answer, err := ai.Generate(httpctx.Context(ctx), insight.Request{
				ChartType: "rent_to_price_ratio",
				Context: map[string]any{
					"areaName":     orDefault(q.AreaName, "all"),
					"dateRange":    p.DateRange,
					"propertyType": orDefault(string(q.PropertyType), "all"),
					"bedrooms":     orDefault(p.Bedrooms, "all"),
				},
				DataSummary: resp.Summary,
				DetailLevel: p.DetailLevel,
				Mode:        "insight",
			})
			switch {
			case err != nil:
				logAIFailure(ctx, "rent_to_price_ratio", err)
				resp.AIError = aiUnavailableMessage
			default:
				resp.AIInsight = answer.Text()
			}
		}
		jsonResponse(ctx, resp)
	}
}

func logAIFailure(ctx *fasthttp.RequestCtx, op string, err error) {
	log := logging.Ctx(httpctx.Context(ctx))
	if errors.Is(err, insight.ErrUnavailable) {
		log.Warn().Err(err).Str("op", op).Msg("ai insight unavailable")
		return
	}
	log.Error().Err(err).Str("op", op).Msg("ai insight failed")
}
