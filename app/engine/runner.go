package engine

import (
	"context"
	"fmt"
	"sync"

	"github.com/jumpei00/levertrade/app/models"
)

// Strategy decides target position from the close of day and prior days.
// Runner fills the decision at the close of the following day.
// Implementations must be pure, Runner calls Decide at most once per day
type Strategy interface {
	Decide(day models.SimulationDay, window []models.SimulationDay, account models.AccountView) models.Decision
	Lookback() int
}

// State is lifecycle of a Runner
type State int

// Runner states
const (
	StateIdle State = iota
	StateRunning
	StateComplete
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateComplete:
		return "complete"
	case StateFailed:
		return "failed"
	default:
		return "idle"
	}
}

// RunnerConfig is settings of one run.
// Days before DisplayFrom only warm up indicators, zero DisplayFrom means the first day.
// From is the requested start echoed in the result, zero means the first day
type RunnerConfig struct {
	Broker      BrokerConfig
	From        models.Date
	DisplayFrom models.Date
	Name        string
}

// Runner steps day by day through aligned days
type Runner struct {
	days     []models.SimulationDay
	strategy Strategy
	cfg      RunnerConfig

	mu    sync.Mutex
	state State
}

// NewRunner is constructor of Runner
func NewRunner(days []models.SimulationDay, strategy Strategy, cfg RunnerConfig) *Runner {
	return &Runner{days: days, strategy: strategy, cfg: cfg}
}

// State returns current state
func (r *Runner) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

func (r *Runner) setState(s State) {
	r.mu.Lock()
	r.state = s
	r.mu.Unlock()
}

// benchmark is buy-and-hold return of one instrument from its baseline close
type benchmark struct {
	baseline float64
	last     *float64
}

func (bm *benchmark) update(bar *models.Bar) *float64 {
	if bar != nil && !bar.Filled && bm.baseline == 0 {
		bm.baseline = bar.Close
	}
	if bar != nil && bm.baseline > 0 {
		v := (bar.Close/bm.baseline - 1) * 100
		bm.last = &v
	}
	return bm.last
}

// firstOnOrAfter is index of the first day not before date
func (r *Runner) firstOnOrAfter(date models.Date) (int, error) {
	for i, d := range r.days {
		if !d.Date.Before(date) {
			return i, nil
		}
	}
	return 0, &models.DataGapError{Symbol: r.cfg.Broker.Instruments.Base, From: date}
}

// Run simulates all days and returns the result, it can be called once
func (r *Runner) Run(ctx context.Context) (*models.Result, error) {
	r.mu.Lock()
	if r.state != StateIdle {
		r.mu.Unlock()
		return nil, fmt.Errorf("runner is %v", r.state)
	}
	r.state = StateRunning
	r.mu.Unlock()

	res, err := r.run(ctx)
	if err != nil {
		r.setState(StateFailed)
		return nil, err
	}
	r.setState(StateComplete)
	return res, nil
}

func (r *Runner) run(ctx context.Context) (*models.Result, error) {
	if len(r.days) == 0 {
		return nil, &models.DataGapError{Symbol: r.cfg.Broker.Instruments.Base, From: r.cfg.DisplayFrom}
	}
	start, err := r.firstOnOrAfter(r.cfg.DisplayFrom)
	if err != nil {
		return nil, err
	}
	from, err := r.firstOnOrAfter(r.cfg.From)
	if err != nil || from > start {
		from = start
	}

	broker := NewBroker(r.cfg.Broker)
	initial := r.cfg.Broker.InitialCapital
	if initial <= 0 {
		return nil, &models.InvariantError{Reason: fmt.Sprintf("initial capital %.2f", initial)}
	}

	base := &benchmark{}
	leveraged := &benchmark{}
	curve := make([]models.EquityPoint, 0, len(r.days)-start)
	lastIdx := len(r.days) - 1

	// the last warm-up day decides what the first displayed day fills
	var pending *models.Decision
	if start > 0 && start < lastIdx {
		d := r.decide(start-1, broker.Account())
		pending = &d
	}

	for i := start; i <= lastIdx; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		day := r.days[i]
		if i > 0 && !day.Date.After(r.days[i-1].Date) {
			return nil, &models.InvariantError{Date: day.Date, Reason: fmt.Sprintf("day not after %v", r.days[i-1].Date)}
		}

		if pending, err = r.step(broker, i, pending); err != nil {
			return nil, err
		}

		equity, err := broker.Equity(day)
		if err != nil {
			return nil, err
		}
		curve = append(curve, models.EquityPoint{
			Date:      day.Date,
			Strategy:  (equity/initial - 1) * 100,
			Base:      *base.update(day.Bar(models.RoleBase)),
			Leveraged: leveraged.update(day.Long),
		})
	}

	if !broker.Flat() {
		return nil, &models.InvariantError{Date: r.days[lastIdx].Date, Reason: "position open after liquidation"}
	}

	trades := broker.Trades()
	return &models.Result{
		Strategy:       r.cfg.Name,
		Instruments:    r.cfg.Broker.Instruments,
		From:           r.days[from].Date,
		DisplayFrom:    r.days[start].Date,
		To:             r.days[lastIdx].Date,
		InitialCapital: initial,
		Metrics:        ComputeMetrics(curve, trades, initial),
		EquityCurve:    curve,
		Trades:         trades,
	}, nil
}

// step fills the decision of the previous day at the close of day i,
// then decides for the next day. The last day always liquidates
func (r *Runner) step(broker *Broker, i int, pending *models.Decision) (*models.Decision, error) {
	day := r.days[i]
	if i == len(r.days)-1 {
		return nil, broker.Liquidate(day)
	}
	if pending != nil {
		if err := broker.Submit(*pending, day); err != nil {
			return nil, err
		}
	}
	d := r.decide(i, broker.Account())
	return &d, nil
}

func (r *Runner) decide(i int, account models.AccountView) models.Decision {
	from := i - r.strategy.Lookback()
	if from < 0 {
		from = 0
	}
	return r.strategy.Decide(r.days[i], r.days[from:i], account)
}
