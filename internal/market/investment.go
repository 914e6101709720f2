package market

import (
	"math"
	"time"
)

// MonthlyPrice is one month of sale prices for an area and category.
type MonthlyPrice struct {
	Month      time.Time
	PriceSum   float64
	PriceCount int64
	TxnCount   int64
}

// YieldInputs are the trailing 12-month averages used for gross yield.
type YieldInputs struct {
	AvgAnnualRent *float64
	AvgSaleWorth  *float64
}

// InvestmentMetrics are the raw signals behind an investment score. Yield
// and YoYChange are fractions (0.06 is 6%). TimeOnMarket is a day count
// derived from the gap between sales and the next rent contracts of the
// same project; it is a rough proxy, not a listing duration.
type InvestmentMetrics struct {
	AvgPrice             *float64 `json:"avg_price"`
	YoYChange            *float64 `json:"yoy_change"`
	Volatility           *float64 `json:"volatility"`
	TxnVolume            int64    `json:"txn_volume"`
	Yield                *float64 `json:"yield"`
	TimeOnMarket         *float64 `json:"time_on_market"`
	SupplyPipelineCount  *float64 `json:"supply_pipeline_count"`
	DeveloperReliability *float64 `json:"developer_reliability"`
}

// ComposeInvestmentMetrics derives the investment signals from a monthly
// price series. The trailing window is the 12 months ending with the
// month of asOf; the prior window is the 12 months before that. Months
// after asOf are ignored. Every ratio is null-safe.
func ComposeInvestmentMetrics(series []MonthlyPrice, y YieldInputs, timeOnMarket *float64, asOf time.Time) InvestmentMetrics {
	current := MonthStart(asOf)
	trailingStart := current.AddDate(0, -11, 0)
	priorStart := current.AddDate(0, -23, 0)

	var (
		m                    InvestmentMetrics
		curSum, priorSum     float64
		curCount, priorCount int64
		monthlyAvgs          []float64
	)
	for _, p := range series {
		month := MonthStart(p.Month)
		switch {
		case month.After(current) || month.Before(priorStart):
			continue
		case !month.Before(trailingStart):
			curSum += p.PriceSum
			curCount += p.PriceCount
			m.TxnVolume += p.TxnCount
			if p.PriceCount > 0 {
				monthlyAvgs = append(monthlyAvgs, p.PriceSum/float64(p.PriceCount))
			}
		default:
			priorSum += p.PriceSum
			priorCount += p.PriceCount
		}
	}

	avg := mean(curSum, curCount)
	prior := mean(priorSum, priorCount)
	m.AvgPrice = RoundPtr(avg, 2)
	if avg != nil && prior != nil {
		diff := *avg - *prior
		m.YoYChange = RoundPtr(SafeRatio(&diff, prior), 4)
	}
	m.Volatility = RoundPtr(sampleStdDev(monthlyAvgs), 2)
	m.Yield = RoundPtr(SafeRatio(y.AvgAnnualRent, y.AvgSaleWorth), 4)
	m.TimeOnMarket = RoundPtr(timeOnMarket, 1)
	return m
}

func mean(sum float64, n int64) *float64 {
	if n == 0 {
		return nil
	}
	v := sum / float64(n)
	return &v
}

// sampleStdDev returns nil for fewer than two values.
func sampleStdDev(values []float64) *float64 {
	if len(values) < 2 {
		return nil
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	mu := sum / float64(len(values))
	var ss float64
	for _, v := range values {
		ss += (v - mu) * (v - mu)
	}
	sd := math.Sqrt(ss / float64(len(values)-1))
	return &sd
}
