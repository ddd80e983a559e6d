package features

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidLength is returned when a slice cannot be turned into a Vector.
var ErrInvalidLength = errors.New("invalid feature vector length")

// Vector is the fixed-length feature vector for one analysis window
type Vector [VectorLength]float64

// FromSlice copies values into a Vector, rejecting any other length.
func FromSlice(values []float64) (Vector, error) {
	var v Vector
	if len(values) != VectorLength {
		return v, fmt.Errorf("%w: got %d, want %d", ErrInvalidLength, len(values), VectorLength)
	}
	copy(v[:], values)
	return v, nil
}

// Values returns the vector as a slice. The slice is a copy.
func (v Vector) Values() []float64 {
	out := make([]float64, VectorLength)
	copy(out, v[:])
	return out
}

// Spectral returns centroid, rolloff and contrast statistics.
func (v *Vector) Spectral() []float64 { return v[SpectralStart:SpectralEnd] }

// Rhythm returns the global tempo in BPM.
func (v *Vector) Rhythm() float64 { return v[RhythmIndex] }

// MFCC returns the MFCC means followed by their variances.
func (v *Vector) MFCC() []float64 { return v[MFCCStart:MFCCEnd] }

// Chroma returns the mean chroma energy per pitch class, C first.
func (v *Vector) Chroma() []float64 { return v[ChromaStart:ChromaEnd] }

// ZeroCrossing returns the ZCR mean and variance.
func (v *Vector) ZeroCrossing() (mean, variance float64) {
	return v[OffsetZCR], v[OffsetZCR+1]
}

// Tempo is an alias for Rhythm
func (v *Vector) Tempo() float64 { return v.Rhythm() }

// FirstNonFinite reports the index of the first NaN or infinite value, or -1.
func (v *Vector) FirstNonFinite() int {
	for i, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return i
		}
	}
	return -1
}
