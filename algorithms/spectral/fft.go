package spectral

import (
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

// FFT provides Fast Fourier Transform functionality backed by mjibson/go-dsp
type FFT struct{}

// NewFFT creates a new FFT calculator
func NewFFT() *FFT {
	return &FFT{}
}

// Compute computes the full complex spectrum of a real signal.
// go-dsp handles any length, power of two or not.
func (f *FFT) Compute(x []float64) []complex128 {
	if len(x) == 0 {
		return []complex128{}
	}

	return fft.FFTReal(x)
}

// Magnitude returns |X[k]| for the non-negative frequency bins 0..N/2.
func (f *FFT) Magnitude(x []float64) []float64 {
	if len(x) == 0 {
		return []float64{}
	}

	spectrum := f.Compute(x)
	bins := len(x)/2 + 1
	mags := make([]float64, bins)
	for i := range bins {
		mags[i] = cmplx.Abs(spectrum[i])
	}
	return mags
}

// Autocorrelate returns the first maxLag lags of the (unnormalized) linear
// autocorrelation of x, computed through the power spectrum.
func (f *FFT) Autocorrelate(x []float64, maxLag int) []float64 {
	if len(x) == 0 || maxLag <= 0 {
		return []float64{}
	}
	maxLag = min(maxLag, len(x))

	n := 1
	for n < 2*len(x)-1 {
		n <<= 1
	}

	padded := make([]float64, n)
	copy(padded, x)

	spectrum := fft.FFTReal(padded)
	for i, c := range spectrum {
		spectrum[i] = complex(real(c)*real(c)+imag(c)*imag(c), 0)
	}

	inv := fft.IFFT(spectrum)
	ac := make([]float64, maxLag)
	for i := range maxLag {
		ac[i] = real(inv[i])
	}
	return ac
}

// BinFrequencies returns the center frequency of each of the n/2+1 bins for an n-point FFT.
func BinFrequencies(n, sampleRate int) []float64 {
	if n <= 0 {
		return nil
	}
	bins := n/2 + 1
	freqs := make([]float64, bins)
	for i := range bins {
		freqs[i] = float64(i) * float64(sampleRate) / float64(n)
	}
	return freqs
}
