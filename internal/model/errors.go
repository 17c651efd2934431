package model

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Sentinels for errors.Is checks against the typed errors below.
var (
	ErrInsufficientData  = errors.New("insufficient data")
	ErrIncompleteProfile = errors.New("incomplete profile")
	ErrDivisionByZero    = errors.New("division by zero")
	ErrInvalidHorizon    = errors.New("invalid horizon")
)

// InsufficientDataError reports a series too short to fit.
type InsufficientDataError struct {
	Points int
	Need   int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data: have %d points, need at least %d", e.Points, e.Need)
}

func (e *InsufficientDataError) Is(target error) bool { return target == ErrInsufficientData }

// IncompleteProfileError reports a counterparty that cannot be scored.
type IncompleteProfileError struct {
	Name   string
	Field  string
	Reason string
}

func (e *IncompleteProfileError) Error() string {
	return fmt.Sprintf("incomplete profile %q: %s %s", e.Name, e.Field, e.Reason)
}

func (e *IncompleteProfileError) Is(target error) bool { return target == ErrIncompleteProfile }

// DivisionByZeroError reports a budget category with a zero plan.
type DivisionByZeroError struct {
	Category string
}

func (e *DivisionByZeroError) Error() string {
	return fmt.Sprintf("category %q: planned amount is zero", e.Category)
}

func (e *DivisionByZeroError) Is(target error) bool { return target == ErrDivisionByZero }

// InvalidHorizonError reports a non-positive projection horizon.
type InvalidHorizonError struct {
	Horizon int
}

func (e *InvalidHorizonError) Error() string {
	return fmt.Sprintf("invalid horizon %d: must be positive", e.Horizon)
}

func (e *InvalidHorizonError) Is(target error) bool { return target == ErrInvalidHorizon }

// ItemFailure records one batch item that could not be processed.
type ItemFailure struct {
	Item string
	Err  error
}

func (f ItemFailure) Error() string {
	return fmt.Sprintf("%s: %v", f.Item, f.Err)
}

// MarshalJSON renders the error as a string.
func (f ItemFailure) MarshalJSON() ([]byte, error) {
	msg := ""
	if f.Err != nil {
		msg = f.Err.Error()
	}
	return json.Marshal(struct {
		Item  string `json:"item"`
		Error string `json:"error"`
	}{f.Item, msg})
}
