package chroma

import (
	"math"
)

// NumChroma is the number of pitch classes, C through B
const NumChroma = 12

// ChromaSTFT folds a power spectrogram into 12 pitch classes.
//
// Every FFT bin contributes to the pitch classes near its fractional
// semitone position through a Gaussian bump, and bins far from the octave
// centered on C5 are attenuated. Each frame is finally scaled so its
// strongest pitch class is 1.
type ChromaSTFT struct {
	sampleRate int
	fftSize    int
	tuning     float64 // deviation from A440 in fractions of a semitone
	weights    [][]float64
}

// Params for the chroma filter bank
type Params struct {
	Tuning       float64 // fractions of a bin, 0 = A4 at 440 Hz
	CenterOctave float64 // default 5
	OctaveWidth  float64 // Gaussian width in octaves, default 2; negative disables octave weighting
}

// NewChromaSTFT creates a chroma calculator for fftSize-point power spectra
func NewChromaSTFT(sampleRate, fftSize int, params Params) *ChromaSTFT {
	if params.CenterOctave == 0 {
		params.CenterOctave = 5
	}
	if params.OctaveWidth == 0 {
		params.OctaveWidth = 2
	}

	cs := &ChromaSTFT{
		sampleRate: sampleRate,
		fftSize:    fftSize,
		tuning:     params.Tuning,
	}
	cs.weights = filterBank(sampleRate, fftSize, params)
	return cs
}

// NewChromaSTFTDefault creates a chroma calculator with A4 = 440 Hz
func NewChromaSTFTDefault(sampleRate, fftSize int) *ChromaSTFT {
	return NewChromaSTFT(sampleRate, fftSize, Params{})
}

// filterBank builds the NumChroma x (fftSize/2+1) weight matrix
func filterBank(sampleRate, fftSize int, params Params) [][]float64 {
	n := float64(NumChroma)
	a440 := 440.0 * math.Pow(2, params.Tuning/n)

	// fractional pitch class position of every bin, bin 0 extrapolated 1.5 octaves down
	frqbins := make([]float64, fftSize)
	for i := 1; i < fftSize; i++ {
		f := float64(i) * float64(sampleRate) / float64(fftSize)
		frqbins[i] = n * math.Log2(f/(a440/16))
	}
	frqbins[0] = frqbins[1] - 1.5*n

	binWidth := make([]float64, fftSize)
	for i := range fftSize - 1 {
		binWidth[i] = math.Max(frqbins[i+1]-frqbins[i], 1)
	}
	binWidth[fftSize-1] = 1

	half := math.Round(n / 2)
	wts := make([][]float64, NumChroma)
	for c := range NumChroma {
		wts[c] = make([]float64, fftSize)
		for i, fb := range frqbins {
			d := floorMod(fb-float64(c)+half+10*n, n) - half
			x := 2 * d / binWidth[i]
			wts[c][i] = math.Exp(-0.5 * x * x)
		}
	}

	// unit L2 norm per frequency column
	for i := range fftSize {
		norm := 0.0
		for c := range NumChroma {
			norm += wts[c][i] * wts[c][i]
		}
		norm = math.Sqrt(norm)
		if norm > 0 {
			for c := range NumChroma {
				wts[c][i] /= norm
			}
		}
	}

	if params.OctaveWidth > 0 {
		for i, fb := range frqbins {
			z := (fb/n - params.CenterOctave) / params.OctaveWidth
			g := math.Exp(-0.5 * z * z)
			for c := range NumChroma {
				wts[c][i] *= g
			}
		}
	}

	// rows are built relative to A; rotate so row 0 is C
	shift := 3 * (NumChroma / 12)
	rolled := make([][]float64, NumChroma)
	bins := fftSize/2 + 1
	for c := range NumChroma {
		rolled[c] = wts[(c+shift)%NumChroma][:bins]
	}
	return rolled
}

func floorMod(a, b float64) float64 {
	m := math.Mod(a, b)
	if m < 0 {
		m += b
	}
	return m
}

// ComputeFrame projects one power spectrum onto the pitch classes, unnormalized
func (cs *ChromaSTFT) ComputeFrame(power []float64) []float64 {
	frame := make([]float64, NumChroma)
	for c, row := range cs.weights {
		sum := 0.0
		for i := 0; i < len(row) && i < len(power); i++ {
			sum += row[i] * power[i]
		}
		frame[c] = sum
	}
	return frame
}

// ComputeFrames converts a Time x Frequency power spectrogram into a Time x 12
// chromagram with every frame max-normalized. Silent frames stay zero.
func (cs *ChromaSTFT) ComputeFrames(power [][]float64) [][]float64 {
	chromagram := make([][]float64, len(power))
	for t, spectrum := range power {
		frame := cs.ComputeFrame(spectrum)
		normalizeMax(frame)
		chromagram[t] = frame
	}
	return chromagram
}

func normalizeMax(frame []float64) {
	peak := 0.0
	for _, v := range frame {
		peak = math.Max(peak, math.Abs(v))
	}
	if peak < math.SmallestNonzeroFloat64*1e10 {
		return
	}
	for i := range frame {
		frame[i] /= peak
	}
}

// GetChromaLabels returns the chroma bin labels
func (cs *ChromaSTFT) GetChromaLabels() []string {
	return []string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}
}

// GetDominantChroma finds the strongest pitch class of each frame
func (cs *ChromaSTFT) GetDominantChroma(chromagram [][]float64) []int {
	dominant := make([]int, len(chromagram))

	for t, frame := range chromagram {
		maxEnergy := 0.0
		maxBin := 0

		for bin, energy := range frame {
			if energy > maxEnergy {
				maxEnergy = energy
				maxBin = bin
			}
		}

		dominant[t] = maxBin
	}

	return dominant
}

// GetTuning returns the tuning deviation in fractions of a semitone
func (cs *ChromaSTFT) GetTuning() float64 {
	return cs.tuning
}
