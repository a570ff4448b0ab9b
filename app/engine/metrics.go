package engine

import (
	"math"

	"github.com/jumpei00/levertrade/app/models"
)

const (
	daysPerYear  = 365.25
	daysPerMonth = 30.44
)

// CAGR annualizes totalReturn(%) over days calendar days, result is in %.
// Zero or negative days give 0
func CAGR(totalReturn, days float64) float64 {
	if days <= 0 {
		return 0
	}
	growth := 1 + totalReturn/100
	if growth <= 0 {
		return -100
	}
	return (math.Pow(growth, daysPerYear/days) - 1) * 100
}

// MaxDrawdown is the largest peak to trough fall of cumulative returns(%),
// as positive percentage of the peak equity. The starting capital (0%) is the first peak
func MaxDrawdown(cumulative []float64) float64 {
	maxDD := 0.0
	peak := 1.0
	for _, pct := range cumulative {
		equity := 1 + pct/100
		if equity > peak {
			peak = equity
		}
		if peak <= 0 {
			continue
		}
		if dd := (peak - equity) / peak * 100; dd > maxDD {
			maxDD = dd
		}
	}
	return maxDD
}

func elapsedDays(curve []models.EquityPoint) float64 {
	if len(curve) < 2 {
		return 0
	}
	return float64(curve[0].Date.DaysUntil(curve[len(curve)-1].Date))
}

func benchmarkStats(series []float64, days float64) models.BenchmarkStats {
	if len(series) == 0 {
		return models.BenchmarkStats{}
	}
	total := series[len(series)-1]
	return models.BenchmarkStats{
		TotalReturn: total,
		CAGR:        CAGR(total, days),
		MaxDrawdown: MaxDrawdown(series),
	}
}

// ComputeMetrics calculates summary of curve and trades
func ComputeMetrics(curve []models.EquityPoint, trades []models.Trade, initialCapital float64) models.Metrics {
	var m models.Metrics
	if len(curve) == 0 || initialCapital <= 0 {
		return m
	}

	days := elapsedDays(curve)
	strategy := make([]float64, len(curve))
	base := make([]float64, len(curve))
	leveraged := make([]float64, 0, len(curve))
	var leveragedDays float64
	var leveragedFirst models.Date
	for i, p := range curve {
		strategy[i] = p.Strategy
		base[i] = p.Base
		if p.Leveraged != nil {
			if len(leveraged) == 0 {
				leveragedFirst = p.Date
			}
			leveraged = append(leveraged, *p.Leveraged)
			leveragedDays = float64(leveragedFirst.DaysUntil(p.Date))
		}
	}

	m.TotalReturn = strategy[len(strategy)-1]
	m.CAGR = CAGR(m.TotalReturn, days)
	m.MaxDrawdown = MaxDrawdown(strategy)
	m.Benchmarks.Base = benchmarkStats(base, days)
	m.Benchmarks.Leveraged = benchmarkStats(leveraged, leveragedDays)

	m.TradeCount = len(trades)
	if days > 0 {
		m.AvgTradesDaily = float64(len(trades)) / days
		m.AvgTradesMonthly = m.AvgTradesDaily * daysPerMonth
		m.AvgTradesAnnually = m.AvgTradesDaily * daysPerYear
	}

	if len(trades) > 0 {
		var sizeSum float64
		for _, t := range trades {
			if t.ReturnPct > 0 {
				m.WinRate.Wins++
			} else {
				m.WinRate.Losses++
			}
			sizeSum += t.PositionSizePct
		}
		m.WinRate.Percent = float64(m.WinRate.Wins) / float64(len(trades)) * 100
		m.AvgPositionSize = sizeSum / float64(len(trades))
	}
	return m
}
