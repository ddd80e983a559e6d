package spectral

import (
	"fmt"
	"math"
)

// Slaney mel scale constants: linear below 1 kHz, logarithmic above.
const (
	slaneyFSp       = 200.0 / 3
	slaneyMinLogHz  = 1000.0
	slaneyMinLogMel = slaneyMinLogHz / slaneyFSp
)

var slaneyLogStep = math.Log(6.4) / 27.0

// MelScale converts between Hz and mel and builds triangular filter banks.
// HTK selects the 2595*log10(1+f/700) formula; the default is the Slaney
// (Auditory Toolbox) scale.
type MelScale struct {
	HTK bool
}

// NewMelScale creates a Slaney mel scale converter
func NewMelScale() *MelScale {
	return &MelScale{}
}

// HzToMel converts frequency in Hz to mel scale
func (ms *MelScale) HzToMel(hz float64) float64 {
	if ms.HTK {
		return 2595.0 * math.Log10(1.0+hz/700.0)
	}

	if hz >= slaneyMinLogHz {
		return slaneyMinLogMel + math.Log(hz/slaneyMinLogHz)/slaneyLogStep
	}
	return hz / slaneyFSp
}

// MelToHz converts mel scale to frequency in Hz
func (ms *MelScale) MelToHz(mel float64) float64 {
	if ms.HTK {
		return 700.0 * (math.Pow(10.0, mel/2595.0) - 1.0)
	}

	if mel >= slaneyMinLogMel {
		return slaneyMinLogHz * math.Exp(slaneyLogStep*(mel-slaneyMinLogMel))
	}
	return slaneyFSp * mel
}

// MelFrequencies returns n points evenly spaced on the mel axis between fmin and fmax, in Hz.
func (ms *MelScale) MelFrequencies(n int, fmin, fmax float64) []float64 {
	lo, hi := ms.HzToMel(fmin), ms.HzToMel(fmax)
	out := make([]float64, n)
	if n == 1 {
		out[0] = ms.MelToHz(lo)
		return out
	}
	for i := range n {
		out[i] = ms.MelToHz(lo + (hi-lo)*float64(i)/float64(n-1))
	}
	return out
}

// MelFilterBank is a numMels x (fftSize/2+1) weight matrix
type MelFilterBank struct {
	Weights    [][]float64
	CenterFreq []float64 // Hz, one per band
	FMin       float64
	FMax       float64
}

// NewMelFilterBank builds area normalized triangular filters over the FFT bin
// frequencies. fmax <= 0 means Nyquist.
func (ms *MelScale) NewMelFilterBank(numMels, fftSize, sampleRate int, fmin, fmax float64) (*MelFilterBank, error) {
	if numMels <= 0 || fftSize <= 0 || sampleRate <= 0 {
		return nil, fmt.Errorf("invalid mel filter bank parameters: mels=%d fft=%d sr=%d", numMels, fftSize, sampleRate)
	}

	nyquist := float64(sampleRate) / 2
	if fmax <= 0 || fmax > nyquist {
		fmax = nyquist
	}
	if fmin < 0 || fmin >= fmax {
		return nil, fmt.Errorf("invalid mel frequency range [%.1f, %.1f]", fmin, fmax)
	}

	fftFreqs := BinFrequencies(fftSize, sampleRate)
	melF := ms.MelFrequencies(numMels+2, fmin, fmax)

	weights := make([][]float64, numMels)
	for i := range numMels {
		weights[i] = make([]float64, len(fftFreqs))

		lowerWidth := melF[i+1] - melF[i]
		upperWidth := melF[i+2] - melF[i+1]
		enorm := 2.0 / (melF[i+2] - melF[i])

		for k, f := range fftFreqs {
			lower := (f - melF[i]) / lowerWidth
			upper := (melF[i+2] - f) / upperWidth
			if w := math.Min(lower, upper); w > 0 {
				weights[i][k] = w * enorm
			}
		}
	}

	return &MelFilterBank{
		Weights:    weights,
		CenterFreq: melF[1 : numMels+1],
		FMin:       fmin,
		FMax:       fmax,
	}, nil
}

// Apply projects a power spectrum onto the mel bands
func (fb *MelFilterBank) Apply(powerSpectrum []float64) []float64 {
	melSpectrum := make([]float64, len(fb.Weights))

	for i, filter := range fb.Weights {
		sum := 0.0
		for j := 0; j < len(filter) && j < len(powerSpectrum); j++ {
			sum += powerSpectrum[j] * filter[j]
		}
		melSpectrum[i] = sum
	}

	return melSpectrum
}

// ApplyFrames projects every frame of a Time x Frequency power spectrogram
func (fb *MelFilterBank) ApplyFrames(power [][]float64) [][]float64 {
	out := make([][]float64, len(power))
	for t, frame := range power {
		out[t] = fb.Apply(frame)
	}
	return out
}
