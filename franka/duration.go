package franka

import "time"

// Duration counts whole milliseconds of robot time. This is the tick
// resolution a real controller reports in its telemetry, so the bridge
// converts simulation time to it before publishing a state.
type Duration uint64

// NewDuration truncates a wall-clock duration to robot time.
func NewDuration(d time.Duration) Duration {
	return Duration(d.Milliseconds())
}

// ToSec returns the duration in seconds.
func (d Duration) ToSec() float64 {
	return float64(d) / 1e3
}

// ToMSec returns the duration in whole milliseconds.
func (d Duration) ToMSec() uint64 {
	return uint64(d)
}
