package windowing

import (
	"fmt"
	"math"
	"strings"
)

// Window is a fixed-size tapering function applied to analysis frames
type Window interface {
	Apply(signal []float64) []float64
	ApplyInPlace(signal []float64) error
	GetCoefficients() []float64
	GetSize() int
}

// Window kinds accepted by New
const (
	KindHann        = "hann"
	KindHamming     = "hamming"
	KindBlackman    = "blackman"
	KindRectangular = "rectangular"
)

// New returns a periodic analysis window of the given kind
func New(kind string, size int) (Window, error) {
	if size <= 0 {
		return nil, fmt.Errorf("window size must be positive, got %d", size)
	}

	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "", KindHann:
		return NewPeriodicHann(size), nil
	case KindHamming:
		return NewHamming(size), nil
	case KindBlackman:
		return NewBlackman(size), nil
	case KindRectangular, "boxcar", "none":
		return NewRectangular(size), nil
	default:
		return nil, fmt.Errorf("unknown window %q", kind)
	}
}

// CosineSum is a periodic window of the form
//
//	w[n] = a0 - a1*cos(2πn/N) + a2*cos(4πn/N) - ...
type CosineSum struct {
	kind         string
	terms        []float64
	coefficients []float64
}

// NewHamming creates a periodic Hamming window
func NewHamming(size int) *CosineSum {
	return newCosineSum(KindHamming, size, 0.54, 0.46)
}

// NewBlackman creates a periodic Blackman window
func NewBlackman(size int) *CosineSum {
	return newCosineSum(KindBlackman, size, 0.42, 0.5, 0.08)
}

// NewRectangular creates a window that leaves frames unchanged
func NewRectangular(size int) *CosineSum {
	return newCosineSum(KindRectangular, size, 1)
}

func newCosineSum(kind string, size int, terms ...float64) *CosineSum {
	w := &CosineSum{kind: kind, terms: terms}
	if size <= 0 {
		return w
	}

	w.coefficients = make([]float64, size)
	for n := range size {
		v := 0.0
		sign := 1.0
		for k, a := range terms {
			v += sign * a * math.Cos(2*math.Pi*float64(k*n)/float64(size))
			sign = -sign
		}
		w.coefficients[n] = v
	}
	return w
}

// Apply applies the window to a signal (creates new array)
func (w *CosineSum) Apply(signal []float64) []float64 {
	if len(signal) != len(w.coefficients) {
		return nil
	}

	windowed := make([]float64, len(signal))
	for i, c := range w.coefficients {
		windowed[i] = signal[i] * c
	}
	return windowed
}

// ApplyInPlace applies the window to a signal in-place
func (w *CosineSum) ApplyInPlace(signal []float64) error {
	if len(signal) != len(w.coefficients) {
		return fmt.Errorf("signal length (%d) doesn't match window size (%d)", len(signal), len(w.coefficients))
	}

	for i, c := range w.coefficients {
		signal[i] *= c
	}
	return nil
}

// GetCoefficients returns a copy of the window coefficients
func (w *CosineSum) GetCoefficients() []float64 {
	coeffs := make([]float64, len(w.coefficients))
	copy(coeffs, w.coefficients)
	return coeffs
}

// GetSize returns the window size
func (w *CosineSum) GetSize() int {
	return len(w.coefficients)
}

// GetType returns the window kind
func (w *CosineSum) GetType() string {
	return w.kind
}

var (
	_ Window = (*Hann)(nil)
	_ Window = (*CosineSum)(nil)
)
