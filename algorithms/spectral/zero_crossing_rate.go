package spectral

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// zcrThreshold treats samples this close to zero as exactly zero
const zcrThreshold = 1e-10

// ZeroCrossingRate computes the fraction of adjacent sample pairs whose sign
// differs, per frame. Zero counts as positive.
type ZeroCrossingRate struct {
	frameSize int
	hopSize   int
	center    bool
}

// NewZeroCrossingRate creates a calculator with 2048-sample frames, 512 hop, centered
func NewZeroCrossingRate() *ZeroCrossingRate {
	return NewZeroCrossingRateWithParams(2048, 512, true)
}

// NewZeroCrossingRateWithParams creates calculator with custom parameters.
// With center set the signal is edge-padded by frameSize/2 so frame t is
// centered on sample t*hopSize.
func NewZeroCrossingRateWithParams(frameSize, hopSize int, center bool) *ZeroCrossingRate {
	return &ZeroCrossingRate{
		frameSize: frameSize,
		hopSize:   hopSize,
		center:    center,
	}
}

// Compute returns the number of sign changes in frame divided by its length
func (zcr *ZeroCrossingRate) Compute(frame []float64) float64 {
	if len(frame) < 2 {
		return 0.0
	}

	crossings := 0
	prev := math.Signbit(clipSmall(frame[0]))
	for _, v := range frame[1:] {
		cur := math.Signbit(clipSmall(v))
		if cur != prev {
			crossings++
		}
		prev = cur
	}

	return float64(crossings) / float64(len(frame))
}

func clipSmall(v float64) float64 {
	if math.Abs(v) <= zcrThreshold {
		return 0
	}
	return v
}

// ComputeFrames calculates ZCR for overlapping frames of a signal
func (zcr *ZeroCrossingRate) ComputeFrames(signal []float64) []float64 {
	if len(signal) == 0 || zcr.frameSize <= 0 || zcr.hopSize <= 0 {
		return []float64{}
	}

	if zcr.center {
		signal = edgePad(signal, zcr.frameSize/2)
	}

	numFrames := FrameCount(len(signal), zcr.frameSize, zcr.hopSize)
	zcrValues := make([]float64, numFrames)

	for i := range numFrames {
		start := i * zcr.hopSize
		zcrValues[i] = zcr.Compute(signal[start : start+zcr.frameSize])
	}

	return zcrValues
}

// edgePad repeats the first and last samples pad times on either side
func edgePad(signal []float64, pad int) []float64 {
	padded := make([]float64, len(signal)+2*pad)
	first, last := signal[0], signal[len(signal)-1]
	for i := range pad {
		padded[i] = first
		padded[len(padded)-1-i] = last
	}
	copy(padded[pad:], signal)
	return padded
}

// ComputeStatistics returns mean and population variance of per-frame ZCR values
func (zcr *ZeroCrossingRate) ComputeStatistics(zcrValues []float64) (mean, variance float64) {
	if len(zcrValues) == 0 {
		return 0, 0
	}

	return stat.PopMeanVariance(zcrValues, nil)
}
