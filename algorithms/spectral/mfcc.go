package spectral

import (
	"fmt"
	"math"
)

// MFCC computes Mel-Frequency Cepstral Coefficients from a mel power
// spectrogram: decibel conversion over the whole matrix, then an orthonormal
// DCT-II per frame.
type MFCC struct {
	numCoefficients int
	numMels         int
	useLiftering    bool
	lifterCoeff     float64
	db              DBParams

	dctMatrix [][]float64
}

// MFCCParams contains parameters for MFCC computation
type MFCCParams struct {
	NumCoefficients int      `json:"num_coefficients"` // default 13
	NumMels         int      `json:"num_mels"`         // mel bands in the input, default 128
	UseLiftering    bool     `json:"use_liftering"`    // sinusoidal liftering, off by default
	LifterCoeff     float64  `json:"lifter_coeff"`     // default 22
	DB              DBParams `json:"-"`                // default DefaultDBParams()
}

// NewMFCC creates an MFCC computer with default parameters
func NewMFCC(numCoefficients, numMels int) *MFCC {
	return NewMFCCWithParams(MFCCParams{
		NumCoefficients: numCoefficients,
		NumMels:         numMels,
	})
}

// NewMFCCWithParams creates an MFCC computer with custom parameters
func NewMFCCWithParams(params MFCCParams) *MFCC {
	if params.NumCoefficients <= 0 {
		params.NumCoefficients = 13
	}
	if params.NumMels <= 0 {
		params.NumMels = 128
	}
	if params.LifterCoeff <= 0 {
		params.LifterCoeff = 22.0
	}
	if params.DB == (DBParams{}) {
		params.DB = DefaultDBParams()
	}

	m := &MFCC{
		numCoefficients: params.NumCoefficients,
		numMels:         params.NumMels,
		useLiftering:    params.UseLiftering,
		lifterCoeff:     params.LifterCoeff,
		db:              params.DB,
	}
	m.createDCTMatrix()
	return m
}

// ComputeFrames converts a Time x Mel power spectrogram into Time x Coefficient MFCCs
func (m *MFCC) ComputeFrames(melPower [][]float64) ([][]float64, error) {
	if len(melPower) == 0 {
		return nil, fmt.Errorf("empty mel spectrogram")
	}

	logMel := NewPowerSpectrum().ToDB(melPower, m.db)

	frames := make([][]float64, len(logMel))
	for t, frame := range logMel {
		if len(frame) != m.numMels {
			return nil, fmt.Errorf("frame %d has %d mel bands, expected %d", t, len(frame), m.numMels)
		}
		coeffs := m.applyDCT(frame)
		if m.useLiftering {
			coeffs = m.applyLiftering(coeffs)
		}
		frames[t] = coeffs
	}

	return frames, nil
}

// createDCTMatrix creates the orthonormal DCT-II matrix
func (m *MFCC) createDCTMatrix() {
	n := float64(m.numMels)
	m.dctMatrix = make([][]float64, m.numCoefficients)

	for k := range m.numCoefficients {
		m.dctMatrix[k] = make([]float64, m.numMels)

		scale := math.Sqrt(2.0 / n)
		if k == 0 {
			scale = math.Sqrt(1.0 / n)
		}

		for j := range m.numMels {
			m.dctMatrix[k][j] = scale * math.Cos(math.Pi*float64(k)*(float64(j)+0.5)/n)
		}
	}
}

func (m *MFCC) applyDCT(logMel []float64) []float64 {
	coeffs := make([]float64, m.numCoefficients)

	for k, basis := range m.dctMatrix {
		sum := 0.0
		for j, v := range logMel {
			sum += v * basis[j]
		}
		coeffs[k] = sum
	}

	return coeffs
}

// applyLiftering applies sinusoidal liftering; C0 is left untouched
func (m *MFCC) applyLiftering(coeffs []float64) []float64 {
	liftered := make([]float64, len(coeffs))

	for i, c := range coeffs {
		if i == 0 {
			liftered[i] = c
			continue
		}
		lifter := 1.0 + (m.lifterCoeff/2.0)*math.Sin(math.Pi*float64(i)/m.lifterCoeff)
		liftered[i] = c * lifter
	}

	return liftered
}

// GetDCTMatrix returns the DCT matrix
func (m *MFCC) GetDCTMatrix() [][]float64 {
	return m.dctMatrix
}

// GetParams returns the current MFCC parameters
func (m *MFCC) GetParams() MFCCParams {
	return MFCCParams{
		NumCoefficients: m.numCoefficients,
		NumMels:         m.numMels,
		UseLiftering:    m.useLiftering,
		LifterCoeff:     m.lifterCoeff,
		DB:              m.db,
	}
}
