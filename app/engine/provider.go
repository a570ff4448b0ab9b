package engine

import (
	"context"
	"sort"

	"github.com/jumpei00/levertrade/app/models"
)

// Provider is source of daily bars, zero from/to is unbounded
type Provider interface {
	Bars(ctx context.Context, symbol string, from, to models.Date) ([]models.Bar, error)
}

// StaticProvider serves bars held in memory, keyed by symbol
type StaticProvider map[string][]models.Bar

// Bars returns copy of bars of symbol in [from, to], ascending
func (sp StaticProvider) Bars(ctx context.Context, symbol string, from, to models.Date) ([]models.Bar, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	bars := []models.Bar{}
	for _, b := range sp[symbol] {
		if !from.IsZero() && b.Date.Before(from) {
			continue
		}
		if !to.IsZero() && b.Date.After(to) {
			continue
		}
		bars = append(bars, b)
	}
	sort.SliceStable(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })
	return bars, nil
}
