package engine

import (
	"fmt"
	"strings"

	"github.com/google/btree"

	"github.com/jumpei00/levertrade/app/models"
)

// GapPolicy decides what happens to a day where a secondary instrument has no bar
type GapPolicy int

const (
	// GapForwardFill keeps every base day, missing secondaries carry their last bar forward
	GapForwardFill GapPolicy = iota
	// GapIntersect keeps only days where all three instruments have a bar
	GapIntersect
)

func (g GapPolicy) String() string {
	if g == GapIntersect {
		return "intersect"
	}
	return "forward-fill"
}

// ParseGapPolicy reads policy name used in config.ini
func ParseGapPolicy(s string) (GapPolicy, error) {
	switch strings.TrimSpace(strings.ToLower(s)) {
	case "", "forward-fill", "ffill":
		return GapForwardFill, nil
	case "intersect", "intersection":
		return GapIntersect, nil
	}
	return GapForwardFill, fmt.Errorf("unknown gap policy %q", s)
}

// Series is raw daily bars of the three instruments
type Series struct {
	Instruments models.Instruments

	Base  []models.Bar
	Long  []models.Bar
	Short []models.Bar
}

const treeDegree = 16

func lessBar(a, b models.Bar) bool {
	return a.Date.Before(b.Date)
}

// barTree indexes bars by date, later duplicates replace earlier ones
func barTree(bars []models.Bar, role string) (*btree.BTreeG[models.Bar], error) {
	tree := btree.NewG[models.Bar](treeDegree, lessBar)
	for _, b := range bars {
		if b.Date.IsZero() || b.Close <= 0 {
			return nil, fmt.Errorf("%w: %s bar %v close %.4f", models.ErrBadBar, role, b.Date, b.Close)
		}
		b.Date = models.DateOf(b.Date.Time)
		b.Filled = false
		tree.ReplaceOrInsert(b)
	}
	return tree, nil
}

// lookup returns the bar of date, or under forward fill the latest earlier one
func lookup(tree *btree.BTreeG[models.Bar], date models.Date, policy GapPolicy) *models.Bar {
	if b, ok := tree.Get(models.Bar{Date: date}); ok {
		return &b
	}
	if policy != GapForwardFill {
		return nil
	}
	var found *models.Bar
	tree.DescendLessOrEqual(models.Bar{Date: date}, func(b models.Bar) bool {
		b.Date = date
		b.Filled = true
		found = &b
		return false
	})
	return found
}

// Aligner merges base, long and short series into one simulation timeline
type Aligner struct {
	days   []models.SimulationDay
	policy GapPolicy
}

// NewAligner aligns series to base trading days in [from, to], zero from/to is unbounded.
// It fails with DataGapError when no base bar (or, when intersecting, no common day) is left
func NewAligner(series Series, from, to models.Date, policy GapPolicy) (*Aligner, error) {
	base, err := barTree(series.Base, "base")
	if err != nil {
		return nil, err
	}
	long, err := barTree(series.Long, "long")
	if err != nil {
		return nil, err
	}
	short, err := barTree(series.Short, "short")
	if err != nil {
		return nil, err
	}

	days := make([]models.SimulationDay, 0, base.Len())
	base.Ascend(func(b models.Bar) bool {
		if !from.IsZero() && b.Date.Before(from) {
			return true
		}
		if !to.IsZero() && b.Date.After(to) {
			return false
		}
		day := models.SimulationDay{
			Date:  b.Date,
			Base:  b,
			Long:  lookup(long, b.Date, policy),
			Short: lookup(short, b.Date, policy),
		}
		if policy == GapIntersect && (day.Long == nil || day.Short == nil) {
			return true
		}
		days = append(days, day)
		return true
	})

	if len(days) == 0 {
		return nil, &models.DataGapError{Symbol: series.Instruments.Base, From: from, To: to}
	}
	return &Aligner{days: days, policy: policy}, nil
}

// Days returns aligned days ascending, callers must not modify them
func (a *Aligner) Days() []models.SimulationDay {
	return a.days
}

// Len is number of aligned days
func (a *Aligner) Len() int {
	return len(a.days)
}

// Policy returns gap policy used
func (a *Aligner) Policy() GapPolicy {
	return a.policy
}

// Range returns first and last aligned date
func (a *Aligner) Range() (first, last models.Date) {
	return a.days[0].Date, a.days[len(a.days)-1].Date
}
