package controller

import "time"

const (
	// Samples accumulated per calibration attempt.
	calibrationSampleCount = 16
	// Delay between the trigger chord and the first counted sample, so
	// the triggering motion itself does not contaminate the window.
	calibrationSettleDelay = 2 * time.Second
)

// calibrationWindow accumulates raw sensor samples after a trigger and
// derives a new zero-rate reference from them. The previous reference
// stays active until a new one is successfully installed, so decoding
// never gaps during recalibration.
type calibrationWindow[S any, C any] struct {
	cal      *C
	derive   func([]S) (C, bool)
	settle   time.Duration
	capacity int

	armed    bool
	deadline time.Time
	samples  []S
}

func newCalibrationWindow[S any, C any](seed *C, derive func([]S) (C, bool), settle time.Duration, capacity int) *calibrationWindow[S, C] {
	return &calibrationWindow[S, C]{
		cal:      seed,
		derive:   derive,
		settle:   settle,
		capacity: capacity,
		samples:  make([]S, 0, capacity),
	}
}

// Arm schedules a calibration attempt after the settle delay. Valid in
// any state, so a user can re-calibrate while a reference is active.
func (w *calibrationWindow[S, C]) Arm() {
	w.armed = true
	w.deadline = time.Now().Add(w.settle)
	w.samples = w.samples[:0]
}

// Calibration returns the active reference, if any.
func (w *calibrationWindow[S, C]) Calibration() (C, bool) {
	if w.cal == nil {
		var zero C
		return zero, false
	}
	return *w.cal, true
}

// Push feeds one raw sample. Samples are dropped unless armed and past
// the settle deadline. When the window fills, exactly one derivation is
// attempted and the buffer is cleared regardless of the outcome; a fresh
// trigger is needed to retry after a failure. Reports whether a
// derivation was attempted.
func (w *calibrationWindow[S, C]) Push(s S) bool {
	if !w.armed || time.Now().Before(w.deadline) {
		return false
	}
	w.samples = append(w.samples, s)
	if len(w.samples) < w.capacity {
		return false
	}
	if cal, ok := w.derive(w.samples); ok {
		w.cal = &cal
	}
	w.samples = w.samples[:0]
	w.armed = false
	return true
}
