package scalar

import "math"

// MaxSmoothing is the largest accepted smoothing weight.  A weight of 1 would
// freeze the output at the first sample.
const MaxSmoothing = 0.99

// ClampSmoothing maps any weight into [0, MaxSmoothing] and quantises it to
// the two decimals the shareable query carries.  NaN maps to 0.
func ClampSmoothing(weight float64) float64 {
	switch {
	case math.IsNaN(weight), weight <= 0:
		return 0
	case weight > MaxSmoothing:
		return MaxSmoothing
	}
	return math.Round(weight*100) / 100
}

// Smooth applies an exponential moving average seeded by the first sample:
//
//	out[0] = values[0]
//	out[i] = out[i-1]*w + values[i]*(1-w)
//
// weight is clamped with ClampSmoothing.  A zero weight or an empty input
// returns values unchanged.  NaN samples are emitted as NaN and leave the
// running average untouched; the filter is seeded by the first non-NaN
// sample.
func Smooth(values []float64, weight float64) []float64 {
	w := ClampSmoothing(weight)
	if w == 0 || len(values) == 0 {
		return values
	}
	out := make([]float64, len(values))
	ema := NewEMA(w)
	for i, v := range values {
		out[i] = ema.Push(v)
	}
	return out
}

// EMA is the streaming form of Smooth.  It has no lookahead, so it can run
// incrementally as new samples arrive.
type EMA struct {
	weight float64
	value  float64
	seeded bool
}

// NewEMA returns an EMA with the given (clamped) weight.
func NewEMA(weight float64) *EMA {
	return &EMA{weight: ClampSmoothing(weight)}
}

// Push feeds one sample and returns the filtered value for it.
func (e *EMA) Push(v float64) float64 {
	if math.IsNaN(v) {
		return math.NaN()
	}
	if !e.seeded {
		e.value = v
		e.seeded = true
		return v
	}
	e.value = e.value*e.weight + v*(1-e.weight)
	return e.value
}

// Value returns the current average, or NaN before the first sample.
func (e *EMA) Value() float64 {
	if !e.seeded {
		return math.NaN()
	}
	return e.value
}

// Reset clears the running average.
func (e *EMA) Reset() {
	e.value = 0
	e.seeded = false
}
