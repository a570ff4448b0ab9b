package models

import (
	"encoding/json"
	"fmt"
	"time"
)

const dateFormat = "2006-01-02"

// Date is calendar day in UTC, it never has time component
type Date struct {
	time.Time
}

// NewDate returns Date for year, month, day
func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day.
// The calendar day is taken in t's own location, then moved to UTC
func DateOf(t time.Time) Date {
	if t.IsZero() {
		return Date{}
	}
	return NewDate(t.Year(), t.Month(), t.Day())
}

// DateFromUnixMilli converts unixtime(msec) used by candle table to Date
func DateFromUnixMilli(ms int64) Date {
	return DateOf(time.UnixMilli(ms).UTC())
}

// ParseDate parses "2006-01-02"
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateFormat, s)
	if err != nil {
		return Date{}, err
	}
	return Date{t}, nil
}

// UnixMilli returns unixtime(msec) of the day start
func (d Date) UnixMilli() int64 {
	return d.Time.UnixMilli()
}

// Before reports whether d is before o
func (d Date) Before(o Date) bool { return d.Time.Before(o.Time) }

// After reports whether d is after o
func (d Date) After(o Date) bool { return d.Time.After(o.Time) }

// Equal reports whether d and o are same day
func (d Date) Equal(o Date) bool { return d.Time.Equal(o.Time) }

// DaysUntil returns calendar days from d to o
func (d Date) DaysUntil(o Date) int {
	return int(o.Time.Sub(d.Time).Hours() / 24)
}

// AddDays returns d moved by n calendar days
func (d Date) AddDays(n int) Date {
	return Date{d.Time.AddDate(0, 0, n)}
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(dateFormat)
}

// MarshalJSON writes Date as "2006-01-02"
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

// UnmarshalJSON reads Date from "2006-01-02"
func (d *Date) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return fmt.Errorf("date %q: %w", s, err)
	}
	*d = parsed
	return nil
}

// Bar is one instrument's daily data.
// Filled is true when the aligner carried the bar forward from an earlier day
type Bar struct {
	Date   Date    `json:"date"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume float64 `json:"volume"`
	Filled bool    `json:"filled,omitempty"`
}

// Role says which of the three configured instruments is meant
type Role int

const (
	// RoleNone is flat (cash)
	RoleNone Role = iota
	// RoleBase is the base index ETF
	RoleBase
	// RoleLong is the 3x long ETF
	RoleLong
	// RoleShort is the 3x inverse ETF
	RoleShort
)

func (r Role) String() string {
	switch r {
	case RoleBase:
		return "base"
	case RoleLong:
		return "long"
	case RoleShort:
		return "short"
	default:
		return "none"
	}
}

// Instruments has ticker symbol for each role
type Instruments struct {
	Base  string `json:"base"`
	Long  string `json:"long"`
	Short string `json:"short"`
}

// DefaultInstruments is QQQ and its 3x counterparts
func DefaultInstruments() Instruments {
	return Instruments{Base: "QQQ", Long: "TQQQ", Short: "SQQQ"}
}

// Symbol returns ticker symbol for role, "" for RoleNone
func (in Instruments) Symbol(r Role) string {
	switch r {
	case RoleBase:
		return in.Base
	case RoleLong:
		return in.Long
	case RoleShort:
		return in.Short
	}
	return ""
}

// SimulationDay is aligned unit the runner consumes.
// Long and Short are nil when the instrument has no data for the day
type SimulationDay struct {
	Date  Date
	Base  Bar
	Long  *Bar
	Short *Bar
}

// Bar returns bar for role, or nil
func (sd SimulationDay) Bar(r Role) *Bar {
	switch r {
	case RoleBase:
		b := sd.Base
		return &b
	case RoleLong:
		return sd.Long
	case RoleShort:
		return sd.Short
	}
	return nil
}

// Decision is target of the strategy for the next fill
type Decision struct {
	Target        Role
	AllocationPct float64
}

// Flat is decision to hold cash
var Flat = Decision{Target: RoleNone}

// AccountView is read-only snapshot of the broker account
type AccountView struct {
	Role          Role
	Symbol        string
	AllocationPct float64
	Cash          float64
	Equity        float64
}

// Holding returns current position as decision, used for "keep as it is"
func (av AccountView) Holding() Decision {
	if av.Role == RoleNone {
		return Flat
	}
	return Decision{Target: av.Role, AllocationPct: av.AllocationPct}
}
