package market

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// ScoreWeights weight each normalised signal. They need not sum to one.
type ScoreWeights struct {
	Yield                float64
	YoYChange            float64
	Volatility           float64
	TxnVolume            float64
	TimeOnMarket         float64
	SupplyPipeline       float64
	DeveloperReliability float64
}

// DefaultScoreWeights are the weights of the AI scoring service.
var DefaultScoreWeights = ScoreWeights{
	Yield:                0.25,
	YoYChange:            0.20,
	Volatility:           0.15,
	TxnVolume:            0.15,
	TimeOnMarket:         0.10,
	SupplyPipeline:       0.10,
	DeveloperReliability: 0.05,
}

// ScoreDriver is one signal's share of the final score.
type ScoreDriver struct {
	Driver       string  `json:"driver"`
	Contribution float64 `json:"contribution"`
}

// ScoreExplanation mirrors the explanation object of the AI service.
type ScoreExplanation struct {
	Summary string   `json:"summary"`
	Bullets []string `json:"bullets"`
}

// InvestmentScore is a 0..100 score with a Buy/Hold/Sell label.
type InvestmentScore struct {
	Score         int              `json:"score"`
	Label         string           `json:"label"`
	Drivers       []ScoreDriver    `json:"drivers"`
	AIExplanation ScoreExplanation `json:"ai_explanation"`
	Source        string           `json:"source"`
}

// ScoreLabel maps a 0..100 score to Buy (>=70), Hold (>=40) or Sell.
func ScoreLabel(score int) string {
	switch {
	case score >= 70:
		return "Buy"
	case score >= 40:
		return "Hold"
	default:
		return "Sell"
	}
}

// clamp01 maps v from [lo, hi] onto [0, 1]. Missing values score 0.5.
func clamp01(v *float64, lo, hi float64) float64 {
	if v == nil || hi <= lo {
		return 0.5
	}
	return math.Max(0, math.Min(1, (*v-lo)/(hi-lo)))
}

// ScoreInvestment computes the score locally with the same weights and
// normalisation ranges the AI service uses. Volatility is normalised as
// a coefficient of variation (0..25% of the average price). Lower is
// better for volatility, time on market and supply.
func ScoreInvestment(m InvestmentMetrics, w ScoreWeights) InvestmentScore {
	var cv *float64
	if m.Volatility != nil {
		cv = SafeRatio(m.Volatility, m.AvgPrice)
	}
	txn := float64(m.TxnVolume)

	contributions := []ScoreDriver{
		{"yield", w.Yield * clamp01(m.Yield, 0.01, 0.10)},
		{"yoy_change", w.YoYChange * clamp01(m.YoYChange, -0.20, 0.50)},
		{"volatility", w.Volatility * (1 - clamp01(cv, 0, 0.25))},
		{"txn_volume", w.TxnVolume * clamp01(&txn, 0, 2000)},
		{"time_on_market", w.TimeOnMarket * (1 - clamp01(m.TimeOnMarket, 0, 180))},
		{"supply_pipeline_count", w.SupplyPipeline * (1 - clamp01(m.SupplyPipelineCount, 0, 5000))},
		{"developer_reliability", w.DeveloperReliability * clamp01(m.DeveloperReliability, 0, 1)},
	}

	var raw, total float64
	for _, c := range contributions {
		raw += c.Contribution
	}
	for _, v := range []float64{w.Yield, w.YoYChange, w.Volatility, w.TxnVolume, w.TimeOnMarket, w.SupplyPipeline, w.DeveloperReliability} {
		total += v
	}
	if total <= 0 {
		total = 1
	}

	// Round(6) first so float noise such as 42.49999999 still lands on 43.
	score := int(decimal.NewFromFloat(raw / total * 100).Round(6).Round(0).IntPart())
	label := ScoreLabel(score)

	sort.SliceStable(contributions, func(i, j int) bool {
		return contributions[i].Contribution > contributions[j].Contribution
	})
	top := contributions[:3]
	drivers := make([]ScoreDriver, 0, len(top))
	names := make([]string, 0, len(top))
	bullets := make([]string, 0, len(top))
	for _, c := range top {
		share := *Round(c.Contribution/total, 3)
		drivers = append(drivers, ScoreDriver{Driver: c.Driver, Contribution: share})
		names = append(names, c.Driver)
		bullets = append(bullets, fmt.Sprintf("%s: contribution %.3f", c.Driver, share))
	}

	return InvestmentScore{
		Score:   score,
		Label:   label,
		Drivers: drivers,
		AIExplanation: ScoreExplanation{
			Summary: fmt.Sprintf("Score %d (%s), top drivers: %s.", score, label, strings.Join(names, ", ")),
			Bullets: bullets,
		},
		Source: "local",
	}
}
