package handlers

import (
	"github.com/valyala/fasthttp"

	"propinsight/internal/config"
	httpctx "propinsight/internal/http/ctx"
	"propinsight/internal/insight"
	"propinsight/internal/market"
	"propinsight/internal/validation"
)

type investmentParams struct {
	AreaName     string `query:"areaName" validate:"required,max=200"`
	PropertyType string `query:"propertyType" validate:"required,max=50"`
}

type investmentResponse struct {
	Metrics         market.InvestmentMetrics `json:"metrics"`
	InvestmentScore market.InvestmentScore   `json:"investmentScore"`
	AIError         string                   `json:"aiError,omitempty"`
}

// InvestmentScore serves GET /api/investment-score. The metrics are
// scored by the AI service; when it is unavailable the local scorer
// answers instead and aiError says so.
func InvestmentScore(store Store, ai InsightClient, cfg *config.Config) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		p := investmentParams{AreaName: arg(ctx, "areaName"), PropertyType: arg(ctx, "propertyType")}
		if err := validation.Struct(&p); err != nil {
			fail(ctx, "investment_score", err)
			return
		}
		t, ok, err := market.ParseResidentialType("propertyType", p.PropertyType)
		if err == nil && !ok {
			err = &market.ValidationError{Field: "propertyType", Message: "must be apartment or villa"}
		}
		if err != nil {
			fail(ctx, "investment_score", err)
			return
		}
		area := market.NormalizeAreaName(p.AreaName)

		qctx, cancel := queryContext(ctx, cfg.QueryTimeout)
		defer cancel()
		metrics, err := store.InvestmentMetrics(qctx, area, t)
		if err != nil {
			fail(ctx, "investment_score", err)
			return
		}

		resp := investmentResponse{Metrics: metrics}
		answer, err := ai.Generate(httpctx.Context(ctx), insight.Request{
			ChartType: "investment_score",
			Context:   map[string]any{"areaName": area, "propertyType": string(t)},
			Metrics:   metrics,
			Mode:      "investment_score",
		})
		score, scored := answer.InvestmentScore()
		switch {
		case err != nil:
			logAIFailure(ctx, "investment_score", err)
			resp.AIError = aiUnavailableMessage
			score = market.ScoreInvestment(metrics, market.DefaultScoreWeights)
		case !scored:
			resp.AIError = aiUnavailableMessage
			score = market.ScoreInvestment(metrics, market.DefaultScoreWeights)
		}
		resp.InvestmentScore = score
		jsonResponse(ctx, resp)
	}
}
