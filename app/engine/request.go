package engine

import (
	"fmt"
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"github.com/jumpei00/levertrade/app/models"
	"github.com/jumpei00/levertrade/app/models/strategy"
)

// Request is one backtest request.
// Zero From/To means full history, zero DisplayFrom means From
type Request struct {
	From        models.Date
	To          models.Date
	DisplayFrom models.Date
	Variant     strategy.Variant
}

func parseDay(field, s string) (models.Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return models.Date{}, nil
	}
	t, err := dateparse.ParseIn(s, time.UTC)
	if err != nil {
		return models.Date{}, fmt.Errorf("%w: %s %q", models.ErrInvalidRequest, field, s)
	}
	return models.DateOf(t), nil
}

// NewRequest parses dates and strategy name of a request
func NewRequest(from, to, displayFrom, strategyName string) (Request, error) {
	var (
		req Request
		err error
	)
	if req.From, err = parseDay("from", from); err != nil {
		return Request{}, err
	}
	if req.To, err = parseDay("to", to); err != nil {
		return Request{}, err
	}
	if req.DisplayFrom, err = parseDay("displayFrom", displayFrom); err != nil {
		return Request{}, err
	}
	if req.Variant, err = strategy.ParseVariant(strategyName); err != nil {
		return Request{}, err
	}
	return req, req.Validate()
}

// Validate checks order of dates
func (r Request) Validate() error {
	if !r.From.IsZero() && !r.To.IsZero() && r.From.After(r.To) {
		return fmt.Errorf("%w: from %v after to %v", models.ErrInvalidRequest, r.From, r.To)
	}
	if r.DisplayFrom.IsZero() {
		return nil
	}
	if !r.From.IsZero() && r.DisplayFrom.Before(r.From) {
		return fmt.Errorf("%w: displayFrom %v before from %v", models.ErrInvalidRequest, r.DisplayFrom, r.From)
	}
	if !r.To.IsZero() && r.DisplayFrom.After(r.To) {
		return fmt.Errorf("%w: displayFrom %v after to %v", models.ErrInvalidRequest, r.DisplayFrom, r.To)
	}
	return nil
}

// displayStart is first day to report
func (r Request) displayStart() models.Date {
	if !r.DisplayFrom.IsZero() {
		return r.DisplayFrom
	}
	return r.From
}
