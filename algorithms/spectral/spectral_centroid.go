package spectral

// SpectralCentroid computes the spectral centroid (center of mass) of a spectrum
type SpectralCentroid struct {
	sampleRate int
	fftSize    int
	freqBins   []float64
}

// NewSpectralCentroid creates a new spectral centroid calculator for fftSize-point spectra
func NewSpectralCentroid(sampleRate, fftSize int) *SpectralCentroid {
	return &SpectralCentroid{
		sampleRate: sampleRate,
		fftSize:    fftSize,
		freqBins:   BinFrequencies(fftSize, sampleRate),
	}
}

// Compute calculates the magnitude weighted mean frequency in Hz of one frame.
// A frame with no energy has a centroid of 0.
func (sc *SpectralCentroid) Compute(spectrum []float64) float64 {
	numerator := 0.0
	denominator := 0.0

	for i := 0; i < len(spectrum) && i < len(sc.freqBins); i++ {
		numerator += sc.freqBins[i] * spectrum[i]
		denominator += spectrum[i]
	}

	if denominator == 0 {
		return 0
	}

	return numerator / denominator
}

// ComputeFrames processes a Time x Frequency magnitude spectrogram
func (sc *SpectralCentroid) ComputeFrames(spectrogram [][]float64) []float64 {
	centroids := make([]float64, len(spectrogram))

	for t, spectrum := range spectrogram {
		centroids[t] = sc.Compute(spectrum)
	}

	return centroids
}
