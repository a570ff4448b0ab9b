package models

import (
	"errors"
	"fmt"
)

// errors surfaced to caller, each message is stable
var (
	ErrInvalidRequest  = errors.New("invalid date range")
	ErrUnknownStrategy = errors.New("unknown strategy")
	ErrNoData          = errors.New("no data available for primary instrument")
	ErrBadBar          = errors.New("invalid price bar")
	ErrInvariant       = errors.New("internal invariant violation")
)

// DataGapError means the base instrument has no bar in the window
type DataGapError struct {
	Symbol string
	From   Date
	To     Date
}

func (e *DataGapError) Error() string {
	return fmt.Sprintf("%v: %s in [%v, %v]", ErrNoData, e.Symbol, e.From, e.To)
}

// Is matches ErrNoData
func (e *DataGapError) Is(target error) bool {
	return target == ErrNoData
}

// InsufficientEquityError is raised when account equity is not positive
type InsufficientEquityError struct {
	Date   Date
	Equity float64
}

func (e *InsufficientEquityError) Error() string {
	return fmt.Sprintf("%v: equity %.4f on %v", ErrInvariant, e.Equity, e.Date)
}

// Is matches ErrInvariant
func (e *InsufficientEquityError) Is(target error) bool {
	return target == ErrInvariant
}

// InvariantError is any other broken engine assertion
type InvariantError struct {
	Date   Date
	Reason string
}

func (e *InvariantError) Error() string {
	if e.Date.IsZero() {
		return fmt.Sprintf("%v: %s", ErrInvariant, e.Reason)
	}
	return fmt.Sprintf("%v: %s on %v", ErrInvariant, e.Reason, e.Date)
}

// Is matches ErrInvariant
func (e *InvariantError) Is(target error) bool {
	return target == ErrInvariant
}
