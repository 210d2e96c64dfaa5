// Package clock lets code that checks expiry take time as a dependency.
// Production wiring uses New; tests drive a Manual clock.
package clock

import "time"

type Clocker interface {
	Now() time.Time
}

// TimeClocker reads the system clock.
type TimeClocker struct{}

func New() *TimeClocker {
	return &TimeClocker{}
}

func (*TimeClocker) Now() time.Time {
	return time.Now()
}

var (
	_ Clocker = (*TimeClocker)(nil)
	_ Clocker = (*Manual)(nil)
)
