// Package clock supplies the as-of time to report runs.
//
// Engine code never calls time.Now directly; commands build a Real clock,
// tests and --as-of use Fixed.
package clock

import (
	"fmt"
	"time"
)

// Clock provides the current time.
type Clock interface {
	Now() time.Time
}

// Real returns the system time.
type Real struct{}

func (Real) Now() time.Time { return time.Now() }

// Fixed always returns T.
type Fixed struct {
	T time.Time
}

func (c Fixed) Now() time.Time { return c.T }

// Parse builds a Fixed clock from a YYYY-MM-DD or RFC 3339 string.
// An empty string yields fallback.
func Parse(s string, fallback Clock) (Clock, error) {
	if s == "" {
		return fallback, nil
	}
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return Fixed{T: t}, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, fmt.Errorf("parsing as-of %q: want YYYY-MM-DD or RFC 3339", s)
	}
	return Fixed{T: t}, nil
}
