package engine

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/jumpei00/levertrade/app/models"
	"github.com/jumpei00/levertrade/app/models/strategy"
)

// Config is settings shared by every backtest of a Service
type Config struct {
	Instruments    models.Instruments
	InitialCapital float64
	FeeBps         float64
	SlippageBps    float64
	GapPolicy      GapPolicy
}

// DefaultConfig is QQQ/TQQQ/SQQQ, 10000 capital, no costs, forward fill
func DefaultConfig() Config {
	return Config{
		Instruments:    models.DefaultInstruments(),
		InitialCapital: 10000,
		GapPolicy:      GapForwardFill,
	}
}

// Service loads market data from Provider and runs backtests on it.
// It keeps no state between runs, so it can serve concurrent requests
type Service struct {
	provider Provider
	cfg      Config
	logger   logrus.FieldLogger
}

// NewService is constructor of Service
func NewService(provider Provider, cfg Config, logger logrus.FieldLogger) *Service {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Service{provider: provider, cfg: cfg, logger: logger}
}

// WarmupDays converts lookback trading days to calendar days, with room for holidays
func WarmupDays(lookback int) int {
	if lookback <= 0 {
		return 0
	}
	return int(math.Ceil(float64(lookback)*daysPerYear/252)) + 10
}

func newStrategy(v strategy.Variant) (*strategy.Momentum, error) {
	params, err := strategy.ParamsFor(v)
	if err != nil {
		return nil, err
	}
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("%v params: %w", v, err)
	}
	return strategy.New(params), nil
}

// load fetches the three series, including warm-up days before the display start
func (s *Service) load(ctx context.Context, req Request, lookback int) (*Aligner, error) {
	from := req.From
	if display := req.displayStart(); !display.IsZero() {
		warm := display.AddDays(-WarmupDays(lookback))
		if from.IsZero() || warm.Before(from) {
			from = warm
		}
	}

	in := s.cfg.Instruments
	series := Series{Instruments: in}
	var err error
	if series.Base, err = s.provider.Bars(ctx, in.Base, from, req.To); err != nil {
		return nil, fmt.Errorf("load %s: %w", in.Base, err)
	}
	if len(series.Base) == 0 {
		return nil, &models.DataGapError{Symbol: in.Base, From: from, To: req.To}
	}
	if series.Long, err = s.provider.Bars(ctx, in.Long, from, req.To); err != nil {
		return nil, fmt.Errorf("load %s: %w", in.Long, err)
	}
	if series.Short, err = s.provider.Bars(ctx, in.Short, from, req.To); err != nil {
		return nil, fmt.Errorf("load %s: %w", in.Short, err)
	}
	return NewAligner(series, from, req.To, s.cfg.GapPolicy)
}

func (s *Service) runnerConfig(v strategy.Variant, req Request) RunnerConfig {
	return RunnerConfig{
		Broker: BrokerConfig{
			InitialCapital: s.cfg.InitialCapital,
			FeeBps:         s.cfg.FeeBps,
			SlippageBps:    s.cfg.SlippageBps,
			Instruments:    s.cfg.Instruments,
		},
		From:        req.From,
		DisplayFrom: req.displayStart(),
		Name:        v.String(),
	}
}

// Run executes one backtest
func (s *Service) Run(ctx context.Context, req Request) (*models.Result, error) {
	results, err := s.Compare(ctx, req, []strategy.Variant{req.Variant})
	if err != nil {
		return nil, err
	}
	return results[req.Variant.String()], nil
}

// Compare runs variants on the same data concurrently, result is keyed by variant name
func (s *Service) Compare(ctx context.Context, req Request, variants []strategy.Variant) (map[string]*models.Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if len(variants) == 0 {
		variants = strategy.Variants()
	}

	strategies := make([]*strategy.Momentum, len(variants))
	lookback := 0
	for i, v := range variants {
		st, err := newStrategy(v)
		if err != nil {
			return nil, err
		}
		strategies[i] = st
		if st.Lookback() > lookback {
			lookback = st.Lookback()
		}
	}

	runID := uuid.NewString()
	logger := s.logger.WithFields(logrus.Fields{
		"run":         runID,
		"from":        req.From,
		"to":          req.To,
		"displayFrom": req.DisplayFrom,
		"variants":    len(variants),
	})
	started := time.Now()
	logger.Info("backtest start")

	aligner, err := s.load(ctx, req, lookback)
	if err != nil {
		logger.Warnf("backtest data error: %v", err)
		return nil, err
	}

	results := make([]*models.Result, len(variants))
	g, gctx := errgroup.WithContext(ctx)
	for i := range variants {
		i := i
		g.Go(func() error {
			runner := NewRunner(aligner.Days(), strategies[i], s.runnerConfig(variants[i], req))
			res, err := runner.Run(gctx)
			if err != nil && len(variants) > 1 {
				return fmt.Errorf("%v: %w", variants[i], err)
			}
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		logger.Warnf("backtest error: %v", err)
		return nil, err
	}

	out := make(map[string]*models.Result, len(variants))
	for i, v := range variants {
		out[v.String()] = results[i]
		logger.WithFields(logrus.Fields{
			"strategy":    v.String(),
			"days":        len(results[i].EquityCurve),
			"trades":      results[i].Metrics.TradeCount,
			"totalReturn": math.Round(results[i].Metrics.TotalReturn*100) / 100,
		}).Info("backtest end")
	}
	logger.Debugf("backtest took %v", time.Since(started))
	return out, nil
}

// DataRange returns first and last aligned date of full history
func (s *Service) DataRange(ctx context.Context) (first, last models.Date, err error) {
	aligner, err := s.load(ctx, Request{}, 0)
	if err != nil {
		return models.Date{}, models.Date{}, err
	}
	first, last = aligner.Range()
	return first, last, nil
}
