package temporal

import (
	"github.com/RyanBlaney/sonido-genre/algorithms/spectral"
)

// OnsetDetection derives an onset strength envelope from a mel spectrogram
type OnsetDetection struct {
	spectralFlux *spectral.SpectralFlux
	db           spectral.DBParams
}

// NewOnsetDetection creates an onset detector comparing adjacent frames
func NewOnsetDetection() *OnsetDetection {
	return &OnsetDetection{
		spectralFlux: spectral.NewSpectralFlux(1),
		db:           spectral.DefaultDBParams(),
	}
}

// OnsetStrength converts a Time x Mel power spectrogram to decibels and
// returns the mean rectified spectral flux per frame. The envelope is shifted
// so that onset frame t lines up with spectrogram frame t of a centered STFT
// of size fftSize, and has exactly as many frames as the input.
func (od *OnsetDetection) OnsetStrength(melPower [][]float64, fftSize, hopSize int) []float64 {
	if len(melPower) == 0 {
		return []float64{}
	}

	melDB := spectral.NewPowerSpectrum().ToDB(melPower, od.db)
	flux := od.spectralFlux.MeanRectified(melDB)

	pad := od.spectralFlux.Lag()
	if hopSize > 0 {
		pad += fftSize / (2 * hopSize)
	}

	envelope := make([]float64, len(melPower))
	for i, v := range flux {
		if i+pad >= len(envelope) {
			break
		}
		envelope[i+pad] = v
	}

	return envelope
}
