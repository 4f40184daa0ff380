package domain

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// clock is a package-level time source so tests can freeze time via SetClock.
var clock = clockwork.NewRealClock()

// SetClock swaps the time source used for output names and manifests.
// Pass nil to reset to real time.
func SetClock(c clockwork.Clock) {
	if c == nil {
		clock = clockwork.NewRealClock()
		return
	}
	clock = c
}

// Now returns the current time from the package clock.
func Now() time.Time { return clock.Now() }

// DefaultOutputName is the Parquet file name used when none is configured,
// e.g. "2024-03-01 14_05 compiled_to.parquet".
func DefaultOutputName() string {
	return clock.Now().Format("2006-01-02 15_04") + " compiled_to.parquet"
}
