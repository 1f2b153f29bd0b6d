package core

import "time"

// Metrics records ledger operation outcomes
type Metrics interface {
	ObserveOperation(operation, outcome string, duration time.Duration)
	ObserveReplay(operation string)
	ObservePayoutTransition(status string)
	SetPayoutsInFlight(count int)
}

// NoopMetrics discards every observation
type NoopMetrics struct{}

func (NoopMetrics) ObserveOperation(string, string, time.Duration) {}
func (NoopMetrics) ObserveReplay(string)                           {}
func (NoopMetrics) ObservePayoutTransition(string)                 {}
func (NoopMetrics) SetPayoutsInFlight(int)                         {}
