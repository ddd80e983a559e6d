package temporal

import (
	"math"

	"github.com/RyanBlaney/sonido-genre/algorithms/spectral"
	"github.com/RyanBlaney/sonido-genre/algorithms/windowing"
)

// TempoEstimation picks a single global tempo from an onset envelope.
//
// The envelope is cut into windows of ACSize seconds (one per frame,
// centered), each window is autocorrelated and peak-normalized, and the
// autocorrelations are averaged. Each lag is then scored by
// log(1 + 1e6*ac) plus a log-normal prior around StartBPM, and the best lag
// is converted to BPM.
type TempoEstimation struct {
	StartBPM float64 // prior center, default 120
	StdBPM   float64 // prior width in octaves, default 1
	MaxTempo float64 // lags faster than this are excluded, default 320
	ACSize   float64 // autocorrelation window in seconds, default 8

	fft *spectral.FFT
}

// NewTempoEstimation creates a tempo estimator with default prior
func NewTempoEstimation() *TempoEstimation {
	return &TempoEstimation{
		StartBPM: 120,
		StdBPM:   1,
		MaxTempo: 320,
		ACSize:   8,
		fft:      spectral.NewFFT(),
	}
}

// EstimateTempo returns the tempo in BPM for an onset envelope sampled every
// hopSize samples. An envelope with no onset energy has tempo 0.
func (te *TempoEstimation) EstimateTempo(envelope []float64, sampleRate, hopSize int) float64 {
	if len(envelope) == 0 || sampleRate <= 0 || hopSize <= 0 || !hasEnergy(envelope) {
		return 0
	}

	winLength := int(math.Floor(te.ACSize * float64(sampleRate) / float64(hopSize)))
	if winLength < 2 {
		return 0
	}

	tg := te.meanTempogram(envelope, winLength)

	bestLag := -1
	bestScore := math.Inf(-1)
	for lag := 1; lag < len(tg); lag++ {
		bpm := lagToBPM(lag, sampleRate, hopSize)
		if bpm >= te.MaxTempo {
			continue
		}
		z := (math.Log2(bpm) - math.Log2(te.StartBPM)) / te.StdBPM
		score := math.Log1p(1e6*tg[lag]) - 0.5*z*z
		if score > bestScore {
			bestScore = score
			bestLag = lag
		}
	}

	if bestLag < 0 {
		return 0
	}
	return lagToBPM(bestLag, sampleRate, hopSize)
}

// meanTempogram averages the peak-normalized windowed autocorrelation over all frames
func (te *TempoEstimation) meanTempogram(envelope []float64, winLength int) []float64 {
	half := winLength / 2
	padded := linearRampPad(envelope, half)
	coeffs := windowing.NewPeriodicHann(winLength).GetCoefficients()

	mean := make([]float64, winLength)
	frame := make([]float64, winLength)

	n := len(envelope)
	for t := range n {
		if t+winLength > len(padded) {
			break
		}
		for i, w := range coeffs {
			frame[i] = padded[t+i] * w
		}

		ac := te.fft.Autocorrelate(frame, winLength)

		peak := 0.0
		for _, v := range ac {
			peak = math.Max(peak, math.Abs(v))
		}
		if peak == 0 {
			continue
		}
		for lag, v := range ac {
			mean[lag] += v / peak
		}
	}

	for lag := range mean {
		mean[lag] /= float64(n)
	}
	return mean
}

// linearRampPad pads pad samples on each side, ramping linearly from 0 to the edge value
func linearRampPad(x []float64, pad int) []float64 {
	out := make([]float64, len(x)+2*pad)
	copy(out[pad:], x)
	if pad == 0 {
		return out
	}
	first, last := x[0], x[len(x)-1]
	for j := range pad {
		out[j] = first * float64(j) / float64(pad)
		out[len(out)-1-j] = last * float64(j) / float64(pad)
	}
	return out
}

func lagToBPM(lag, sampleRate, hopSize int) float64 {
	return 60.0 * float64(sampleRate) / (float64(hopSize) * float64(lag))
}

func hasEnergy(x []float64) bool {
	for _, v := range x {
		if v != 0 {
			return true
		}
	}
	return false
}
