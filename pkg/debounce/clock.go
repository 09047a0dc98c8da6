package debounce

import "time"

// Clock provides the time source and timer factory used by the cache.
//
// Production code uses SystemClock. Tests inject a ManualClock so that
// retries scheduled for the end of a cooldown window can be fired
// deterministically.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// AfterFunc calls f in its own goroutine (or synchronously, for fake
	// clocks) once d has elapsed. The returned Timer can cancel the call.
	AfterFunc(d time.Duration, f func()) Timer
}

// Timer is a handle to a scheduled function call.
type Timer interface {
	// Stop prevents the call from firing. It reports whether the call was
	// stopped before it fired.
	Stop() bool
}

// SystemClock is a Clock backed by the time package.
type SystemClock struct{}

// Now returns the current system time.
func (SystemClock) Now() time.Time {
	return time.Now()
}

// AfterFunc wraps time.AfterFunc.
func (SystemClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
