package spectral

import (
	"math"
)

// DefaultAmin is the power floor applied before taking logarithms.
const DefaultAmin = 1e-10

// PowerSpectrum provides power spectrum and decibel conversion
type PowerSpectrum struct{}

// NewPowerSpectrum creates a new power spectrum calculator
func NewPowerSpectrum() *PowerSpectrum {
	return &PowerSpectrum{}
}

// Compute computes the power spectrum from a magnitude spectrum
func (ps *PowerSpectrum) Compute(magnitudeSpectrum []float64) []float64 {
	if len(magnitudeSpectrum) == 0 {
		return []float64{}
	}

	power := make([]float64, len(magnitudeSpectrum))
	for i, mag := range magnitudeSpectrum {
		power[i] = mag * mag
	}

	return power
}

// ComputeFromSTFT computes the power spectrogram from an STFT result
func (ps *PowerSpectrum) ComputeFromSTFT(stftResult *STFTResult) [][]float64 {
	power := make([][]float64, stftResult.TimeFrames)

	for t := range stftResult.TimeFrames {
		power[t] = ps.Compute(stftResult.Magnitude[t])
	}

	return power
}

// DBParams controls power to decibel conversion
type DBParams struct {
	Ref   float64 // reference power mapped to 0 dB; <= 0 means "peak of the input"
	Amin  float64 // floor applied to both input and reference
	TopDB float64 // output clipped to max(output) - TopDB; <= 0 disables clipping
}

// DefaultDBParams references 1.0 with an 80 dB dynamic range.
func DefaultDBParams() DBParams {
	return DBParams{Ref: 1.0, Amin: DefaultAmin, TopDB: 80}
}

// PeakDBParams references the loudest cell of the input.
func PeakDBParams() DBParams {
	return DBParams{Ref: 0, Amin: DefaultAmin, TopDB: 80}
}

// ToDB converts a power spectrogram into decibels:
//
//	10*log10(max(amin, S)) - 10*log10(max(amin, ref))
//
// clipped from below at max - TopDB. A silent input maps to a constant matrix.
func (ps *PowerSpectrum) ToDB(power [][]float64, params DBParams) [][]float64 {
	amin := params.Amin
	if amin <= 0 {
		amin = DefaultAmin
	}

	ref := params.Ref
	if ref <= 0 {
		ref = MaxValue(power)
	}
	refDB := 10 * math.Log10(math.Max(amin, ref))

	out := make([][]float64, len(power))
	peak := math.Inf(-1)
	for t, row := range power {
		out[t] = make([]float64, len(row))
		for f, p := range row {
			v := 10*math.Log10(math.Max(amin, p)) - refDB
			out[t][f] = v
			peak = math.Max(peak, v)
		}
	}

	if params.TopDB > 0 {
		floor := peak - params.TopDB
		for _, row := range out {
			for f, v := range row {
				if v < floor {
					row[f] = floor
				}
			}
		}
	}

	return out
}

// MaxValue returns the largest entry in a matrix, 0 for an empty one.
func MaxValue(m [][]float64) float64 {
	peak := 0.0
	for _, row := range m {
		for _, v := range row {
			if v > peak {
				peak = v
			}
		}
	}
	return peak
}

// Transpose turns a Time x Frequency matrix into Frequency x Time.
func Transpose(m [][]float64) [][]float64 {
	if len(m) == 0 {
		return [][]float64{}
	}
	cols := len(m[0])
	out := make([][]float64, cols)
	for c := range cols {
		out[c] = make([]float64, len(m))
		for r, row := range m {
			out[c][r] = row[c]
		}
	}
	return out
}
