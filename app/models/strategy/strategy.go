package strategy

import (
	"math"

	"github.com/jumpei00/levertrade/app/models"
	"github.com/markcheno/go-talib"
)

// tradingDaysPerYear annualizes daily volatility
const tradingDaysPerYear = 252

// Momentum is trend following strategy on the base index.
// It holds no state besides Params, so Decide is safe for concurrent use
type Momentum struct {
	params Params
}

// New is constructor of Momentum
func New(params Params) *Momentum {
	return &Momentum{params: params}
}

// Lookback is number of prior days Decide needs in window
func (m *Momentum) Lookback() int {
	n := m.params.TrendLength
	if m.params.SlowLength > n {
		n = m.params.SlowLength
	}
	if m.params.VolatilityProtected && m.params.VolLookback+1 > n {
		n = m.params.VolLookback + 1
	}
	return n
}

func closes(day models.SimulationDay, window []models.SimulationDay) []float64 {
	cl := make([]float64, 0, len(window)+1)
	for _, d := range window {
		cl = append(cl, d.Base.Close)
	}
	return append(cl, day.Base.Close)
}

func last(v []float64) float64 {
	return v[len(v)-1]
}

// Decide returns target for the next fill, using base closes of window and day
func (m *Momentum) Decide(day models.SimulationDay, window []models.SimulationDay, account models.AccountView) models.Decision {
	p := m.params
	cl := closes(day, window)
	if len(cl) < p.TrendLength || len(cl) < p.SlowLength {
		return models.Flat
	}

	price := last(cl)
	trend := last(talib.Sma(cl, p.TrendLength))
	fast := last(talib.Ema(cl, p.FastLength))
	slow := last(talib.Ema(cl, p.SlowLength))
	upper := trend * (1 + p.BandPct/100)
	lower := trend * (1 - p.BandPct/100)

	var decision models.Decision
	switch {
	case price > upper && fast > slow:
		decision = models.Decision{Target: models.RoleLong, AllocationPct: p.LongAllocationPct}
	case price < lower && fast < slow:
		if !p.ShortEnabled {
			return models.Flat
		}
		decision = models.Decision{Target: models.RoleShort, AllocationPct: p.ShortAllocationPct}
	case price >= lower && price <= upper:
		decision = account.Holding()
	case price > upper:
		decision = models.Decision{Target: models.RoleBase, AllocationPct: p.BaseAllocationPct}
	default:
		return models.Flat
	}

	if p.VolatilityProtected {
		decision = m.protect(decision, cl)
	}
	if decision.AllocationPct <= 0 {
		return models.Flat
	}
	return decision
}

// protect goes to cash or cuts leveraged allocation when realized volatility is high
func (m *Momentum) protect(decision models.Decision, cl []float64) models.Decision {
	p := m.params
	vol, ok := annualizedVolatility(cl, p.VolLookback)
	if !ok {
		return decision
	}
	if vol >= p.VolExitPct {
		return models.Flat
	}
	leveraged := decision.Target == models.RoleLong || decision.Target == models.RoleShort
	if vol >= p.VolReducePct && leveraged && decision.AllocationPct > p.ReducedAllocationPct {
		decision.AllocationPct = p.ReducedAllocationPct
	}
	return decision
}

// annualizedVolatility is stdev of daily log returns over period, in percent
func annualizedVolatility(cl []float64, period int) (float64, bool) {
	if len(cl) < period+1 {
		return 0, false
	}
	tail := cl[len(cl)-period-1:]
	returns := make([]float64, period)
	for i := 1; i < len(tail); i++ {
		returns[i-1] = math.Log(tail[i] / tail[i-1])
	}
	sd := last(talib.StdDev(returns, period, 1))
	return sd * math.Sqrt(tradingDaysPerYear) * 100, true
}
