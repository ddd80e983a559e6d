package spectral

// SpectralFlux measures frame to frame spectral change
type SpectralFlux struct {
	lag int
}

// NewSpectralFlux creates a flux calculator comparing each frame with the one lag frames earlier
func NewSpectralFlux(lag int) *SpectralFlux {
	if lag < 1 {
		lag = 1
	}
	return &SpectralFlux{lag: lag}
}

// Lag returns the comparison distance in frames
func (sf *SpectralFlux) Lag() int {
	return sf.lag
}

// MeanRectified returns, for each frame t >= lag, the mean over bins of
// max(0, S[t][f] - S[t-lag][f]). Intended for decibel spectrograms, where a
// rise in level of any band counts as onset energy.
func (sf *SpectralFlux) MeanRectified(spectrogram [][]float64) []float64 {
	if len(spectrogram) <= sf.lag {
		return []float64{}
	}

	flux := make([]float64, len(spectrogram)-sf.lag)

	for t := sf.lag; t < len(spectrogram); t++ {
		cur, prev := spectrogram[t], spectrogram[t-sf.lag]
		if len(cur) == 0 {
			continue
		}
		sum := 0.0
		for f := range cur {
			if diff := cur[f] - prev[f]; diff > 0 {
				sum += diff
			}
		}
		flux[t-sf.lag] = sum / float64(len(cur))
	}

	return flux
}
