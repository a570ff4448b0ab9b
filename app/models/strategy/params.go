package strategy

import (
	"fmt"
	"strings"

	"github.com/jumpei00/levertrade/app/models"
)

// Variant identifies a named parameter set
type Variant int

const (
	// Current is the canonical trend following rule set
	Current Variant = iota
	// ProposedVolatilityProtected adds volatility based de-risking to Current
	ProposedVolatilityProtected
)

var variantNames = map[Variant]string{
	Current:                     "current",
	ProposedVolatilityProtected: "proposed-volatility-protected",
}

func (v Variant) String() string {
	if name, ok := variantNames[v]; ok {
		return name
	}
	return fmt.Sprintf("variant(%d)", int(v))
}

// Variants returns all variants in declaration order
func Variants() []Variant {
	return []Variant{Current, ProposedVolatilityProtected}
}

// ParseVariant looks up variant by name, "" is Current
func ParseVariant(name string) (Variant, error) {
	name = strings.TrimSpace(strings.ToLower(name))
	if name == "" {
		return Current, nil
	}
	for v, n := range variantNames {
		if n == name {
			return v, nil
		}
	}
	return Current, fmt.Errorf("%w: %q", models.ErrUnknownStrategy, name)
}

// Params is configuration of Momentum strategy.
// Lengths are counted in trading days, percentages are 0-100
type Params struct {
	TrendLength int     `json:"trend_length"`
	FastLength  int     `json:"fast_length"`
	SlowLength  int     `json:"slow_length"`
	BandPct     float64 `json:"band_pct"`

	LongAllocationPct  float64 `json:"long_allocation_pct"`
	ShortAllocationPct float64 `json:"short_allocation_pct"`
	BaseAllocationPct  float64 `json:"base_allocation_pct"`
	ShortEnabled       bool    `json:"short_enabled"`

	VolatilityProtected  bool    `json:"volatility_protected"`
	VolLookback          int     `json:"vol_lookback"`
	VolReducePct         float64 `json:"vol_reduce_pct"`
	VolExitPct           float64 `json:"vol_exit_pct"`
	ReducedAllocationPct float64 `json:"reduced_allocation_pct"`
}

// DefaultParams returns canonical parameter set
func DefaultParams() Params {
	return Params{
		TrendLength:        200,
		FastLength:         20,
		SlowLength:         50,
		BandPct:            2,
		LongAllocationPct:  100,
		ShortAllocationPct: 100,
		BaseAllocationPct:  100,
		ShortEnabled:       true,
		VolLookback:        20,
	}
}

// ProposedParams returns volatility protected parameter set
func ProposedParams() Params {
	p := DefaultParams()
	p.VolatilityProtected = true
	p.VolLookback = 20
	p.VolReducePct = 25
	p.VolExitPct = 40
	p.ReducedAllocationPct = 50
	return p
}

// ParamsFor returns parameter set of variant
func ParamsFor(v Variant) (Params, error) {
	switch v {
	case Current:
		return DefaultParams(), nil
	case ProposedVolatilityProtected:
		return ProposedParams(), nil
	}
	return Params{}, fmt.Errorf("%w: %v", models.ErrUnknownStrategy, v)
}

func validPct(v float64) bool {
	return v >= 0 && v <= 100
}

// Validate checks lengths and percentages
func (p Params) Validate() error {
	if p.TrendLength < 2 || p.FastLength < 2 || p.SlowLength < 2 {
		return fmt.Errorf("moving average lengths must be >= 2: %d/%d/%d", p.TrendLength, p.FastLength, p.SlowLength)
	}
	if p.FastLength >= p.SlowLength {
		return fmt.Errorf("fast length %d must be less than slow length %d", p.FastLength, p.SlowLength)
	}
	if p.BandPct < 0 || p.BandPct >= 100 {
		return fmt.Errorf("band %.2f out of range", p.BandPct)
	}
	for _, v := range []float64{p.LongAllocationPct, p.ShortAllocationPct, p.BaseAllocationPct, p.ReducedAllocationPct} {
		if !validPct(v) {
			return fmt.Errorf("allocation %.2f out of range", v)
		}
	}
	if p.VolatilityProtected {
		if p.VolLookback < 2 {
			return fmt.Errorf("volatility lookback %d must be >= 2", p.VolLookback)
		}
		if p.VolReducePct <= 0 || p.VolExitPct < p.VolReducePct {
			return fmt.Errorf("volatility thresholds %.2f/%.2f invalid", p.VolReducePct, p.VolExitPct)
		}
	}
	return nil
}
