package insight

import (
	"math"

	"propinsight/internal/market"
)

// InvestmentScore converts an investment_score answer into the score
// shape the API returns. It reports false when the answer has no score.
func (r *Response) InvestmentScore() (market.InvestmentScore, bool) {
	if r == nil || r.Score == nil {
		return market.InvestmentScore{}, false
	}
	score := int(math.Round(*r.Score))
	out := market.InvestmentScore{
		Score:   score,
		Label:   market.ScoreLabel(score),
		Drivers: r.Drivers,
		Source:  "ai",
	}
	if r.Label != nil && *r.Label != "" {
		out.Label = *r.Label
	}
	if out.Drivers == nil {
		out.Drivers = []market.ScoreDriver{}
	}
	if r.AIExplanation != nil {
		out.AIExplanation = *r.AIExplanation
	}
	return out, true
}

// Text returns the first narrative field the answer carries.
func (r *Response) Text() *string {
	if r == nil {
		return nil
	}
	for _, s := range []*string{r.Insight, r.AINarrative, r.SnapshotReason} {
		if s != nil {
			return s
		}
	}
	return nil
}
