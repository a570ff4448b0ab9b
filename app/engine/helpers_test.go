package engine_test

import (
	"time"

	"github.com/jumpei00/levertrade/app/engine"
	"github.com/jumpei00/levertrade/app/models"
)

var day0 = models.NewDate(2020, time.January, 1)

func day(i int) models.Date {
	return day0.AddDays(i)
}

func bar(i int, close float64) models.Bar {
	return models.Bar{Date: day(i), Open: close, High: close, Low: close, Close: close, Volume: 1000}
}

// series builds consecutive daily bars, close(i) gives close of day i
func series(n int, close func(i int) float64) []models.Bar {
	bars := make([]models.Bar, n)
	for i := range bars {
		bars[i] = bar(i, close(i))
	}
	return bars
}

func constant(v float64) func(int) float64 {
	return func(int) float64 { return v }
}

func rising(i int) float64 {
	return 100 + float64(i)*0.5
}

func falling(i int) float64 {
	return 300 - float64(i)*0.5
}

// simDays aligns base, long and short with forward fill
func simDays(base, long, short []models.Bar) []models.SimulationDay {
	a, err := engine.NewAligner(engine.Series{
		Instruments: models.DefaultInstruments(),
		Base:        base,
		Long:        long,
		Short:       short,
	}, models.Date{}, models.Date{}, engine.GapForwardFill)
	if err != nil {
		panic(err)
	}
	return a.Days()
}

// scripted returns decision registered for the day, otherwise keeps holding
type scripted struct {
	decisions map[models.Date]models.Decision
	lookback  int
	calls     int
}

func (s *scripted) Decide(d models.SimulationDay, window []models.SimulationDay, account models.AccountView) models.Decision {
	s.calls++
	if dec, ok := s.decisions[d.Date]; ok {
		return dec
	}
	return account.Holding()
}

func (s *scripted) Lookback() int {
	return s.lookback
}

func provider(base, long, short []models.Bar) engine.StaticProvider {
	in := models.DefaultInstruments()
	return engine.StaticProvider{in.Base: base, in.Long: long, in.Short: short}
}
