package spectral

// DefaultRollPercent is the share of spectral magnitude below the rolloff frequency.
const DefaultRollPercent = 0.85

// SpectralRolloff computes the frequency below which a fixed share of the
// spectral magnitude lies
type SpectralRolloff struct {
	rollPercent float64
	freqBins    []float64
}

// NewSpectralRolloff creates a rolloff calculator for fftSize-point spectra.
// rollPercent outside (0, 1) falls back to DefaultRollPercent.
func NewSpectralRolloff(sampleRate, fftSize int, rollPercent float64) *SpectralRolloff {
	if rollPercent <= 0 || rollPercent >= 1 {
		rollPercent = DefaultRollPercent
	}
	return &SpectralRolloff{
		rollPercent: rollPercent,
		freqBins:    BinFrequencies(fftSize, sampleRate),
	}
}

// Compute returns the lowest bin frequency at which the cumulative magnitude
// reaches rollPercent of the total. A silent frame rolls off at 0 Hz.
func (sr *SpectralRolloff) Compute(spectrum []float64) float64 {
	n := min(len(spectrum), len(sr.freqBins))
	if n == 0 {
		return 0
	}

	total := 0.0
	for _, mag := range spectrum[:n] {
		total += mag
	}

	target := sr.rollPercent * total
	cumulative := 0.0

	for i, mag := range spectrum[:n] {
		cumulative += mag
		if cumulative >= target {
			return sr.freqBins[i]
		}
	}

	return sr.freqBins[n-1]
}

// ComputeFrames processes a Time x Frequency magnitude spectrogram
func (sr *SpectralRolloff) ComputeFrames(spectrogram [][]float64) []float64 {
	rolloffs := make([]float64, len(spectrogram))

	for t, spectrum := range spectrogram {
		rolloffs[t] = sr.Compute(spectrum)
	}

	return rolloffs
}
