package reduce

import "math"

// Sum accumulates float64 addends.
type Sum interface {
	Add(x float64)
	// Merge adds the running total of o.
	Merge(o Sum)
	Value() float64
	Clear()
}

// Summation creates a Sum expected to receive about expected addends.
type Summation func(expected int) Sum

var (
	// Naive adds with a plain running total.
	Naive Summation = func(int) Sum { return &naiveSum{} }

	// Kahan uses Neumaier's compensated summation.
	Kahan Summation = func(int) Sum { return &kahanSum{} }
)

// DefaultAdaptiveThreshold is the addend count above which Adaptive switches to
// compensated summation.
const DefaultAdaptiveThreshold = 1 << 12

// Adaptive returns a strategy that uses naive summation for small expected
// counts and compensated summation otherwise.
// If threshold <= 0, DefaultAdaptiveThreshold is used.
func Adaptive(threshold int) Summation {
	if threshold <= 0 {
		threshold = DefaultAdaptiveThreshold
	}
	return func(expected int) Sum {
		if expected < threshold {
			return &naiveSum{}
		}
		return &kahanSum{}
	}
}

type naiveSum struct {
	sum float64
}

func (s *naiveSum) Add(x float64) { s.sum += x }
func (s *naiveSum) Merge(o Sum) { s.sum += o.Value() }
func (s *naiveSum) Value() float64 { return s.sum }
func (s *naiveSum) Clear() { s.sum = 0 }

type kahanSum struct {
	sum  float64
	comp float64
}

func (s *kahanSum) Add(x float64) {
	t := s.sum + x
	if math.Abs(s.sum) >= math.Abs(x) {
		s.comp += (s.sum - t) + x
	} else {
		s.comp += (x - t) + s.sum
	}
	s.sum = t
}

func (s *kahanSum) Merge(o Sum) {
	if k, ok := o.(*kahanSum); ok {
		s.Add(k.sum)
		s.Add(k.comp)
		return
	}
	s.Add(o.Value())
}

func (s *kahanSum) Value() float64 { return s.sum + s.comp }

func (s *kahanSum) Clear() {
	s.sum = 0
	s.comp = 0
}
