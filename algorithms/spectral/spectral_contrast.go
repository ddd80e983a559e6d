package spectral

import (
	"fmt"
	"math"
	"slices"
)

// SpectralContrast measures, per octave band, the decibel difference between
// the spectral peaks and valleys. Bands start at fmin and double numBands
// times; the last band absorbs everything up to Nyquist, giving numBands+1
// values per frame.
type SpectralContrast struct {
	numBands int
	fmin     float64
	quantile float64
	bands    []contrastBand
}

type contrastBand struct {
	start, end int // bin range [start, end)
}

// SpectralContrastParams configures the band layout
type SpectralContrastParams struct {
	NumBands int     // default 6
	FMin     float64 // lower edge of the first octave, default 200 Hz
	Quantile float64 // share of bins averaged as peak / valley, default 0.02
}

// NewSpectralContrast creates a contrast calculator for fftSize-point spectra
func NewSpectralContrast(sampleRate, fftSize int, params SpectralContrastParams) (*SpectralContrast, error) {
	if params.NumBands <= 0 {
		params.NumBands = 6
	}
	if params.FMin <= 0 {
		params.FMin = 200
	}
	if params.Quantile <= 0 || params.Quantile >= 1 {
		params.Quantile = 0.02
	}

	nyquist := float64(sampleRate) / 2
	if params.FMin*math.Pow(2, float64(params.NumBands-1)) >= nyquist {
		return nil, fmt.Errorf("spectral contrast: %d bands from %.0f Hz exceed Nyquist %.0f Hz", params.NumBands, params.FMin, nyquist)
	}

	sc := &SpectralContrast{
		numBands: params.NumBands,
		fmin:     params.FMin,
		quantile: params.Quantile,
	}
	sc.initializeBands(BinFrequencies(fftSize, sampleRate))
	return sc, nil
}

// initializeBands maps octave edges [0, fmin, 2fmin, ...] to bin ranges.
// Every band after the first also takes the bin just below its lower edge and
// every band but the last drops its top bin, so the bands tile the spectrum.
func (sc *SpectralContrast) initializeBands(freqs []float64) {
	edges := make([]float64, sc.numBands+2)
	for i := 1; i < len(edges); i++ {
		edges[i] = sc.fmin * math.Pow(2, float64(i-1))
	}

	sc.bands = make([]contrastBand, sc.numBands+1)
	for k := range sc.bands {
		lo, hi := edges[k], edges[k+1]

		first, last := -1, -1
		for i, f := range freqs {
			if f >= lo && f <= hi {
				if first < 0 {
					first = i
				}
				last = i
			}
		}
		if first < 0 {
			sc.bands[k] = contrastBand{}
			continue
		}

		start, end := first, last+1
		if k > 0 && start > 0 {
			start--
		}
		if k == sc.numBands {
			end = len(freqs)
		} else if end-start > 1 {
			end--
		}
		sc.bands[k] = contrastBand{start: start, end: end}
	}
}

// peakValley returns the mean of the top and bottom quantile of a band
func (sc *SpectralContrast) peakValley(spectrum []float64, band contrastBand, selectedBins int) (peak, valley float64) {
	if band.end <= band.start || band.end > len(spectrum) {
		return 0, 0
	}

	sorted := slices.Clone(spectrum[band.start:band.end])
	slices.Sort(sorted)

	idx := int(math.RoundToEven(sc.quantile * float64(selectedBins)))
	idx = max(1, min(idx, len(sorted)))

	for _, v := range sorted[:idx] {
		valley += v
	}
	for _, v := range sorted[len(sorted)-idx:] {
		peak += v
	}
	return peak / float64(idx), valley / float64(idx)
}

// ComputeFrames computes contrast for every frame of a Time x Frequency
// magnitude spectrogram. Peaks and valleys are converted to decibels over the
// whole matrix (reference 1.0, 80 dB range) before subtraction.
func (sc *SpectralContrast) ComputeFrames(spectrogram [][]float64) [][]float64 {
	peaks := make([][]float64, len(spectrogram))
	valleys := make([][]float64, len(spectrogram))

	for t, spectrum := range spectrogram {
		peaks[t] = make([]float64, len(sc.bands))
		valleys[t] = make([]float64, len(sc.bands))
		for k, band := range sc.bands {
			// quantile count is taken over the band before the top bin is dropped
			selected := band.end - band.start
			if k < sc.numBands {
				selected++
			}
			peaks[t][k], valleys[t][k] = sc.peakValley(spectrum, band, selected)
		}
	}

	ps := NewPowerSpectrum()
	peakDB := ps.ToDB(peaks, DefaultDBParams())
	valleyDB := ps.ToDB(valleys, DefaultDBParams())

	contrast := make([][]float64, len(spectrogram))
	for t := range contrast {
		contrast[t] = make([]float64, len(sc.bands))
		for k := range sc.bands {
			contrast[t][k] = peakDB[t][k] - valleyDB[t][k]
		}
	}
	return contrast
}

// NumValues is the number of contrast values per frame (bands + 1)
func (sc *SpectralContrast) NumValues() int {
	return len(sc.bands)
}

// BandRanges returns the [start, end) bin range of each band
func (sc *SpectralContrast) BandRanges() [][2]int {
	out := make([][2]int, len(sc.bands))
	for i, b := range sc.bands {
		out[i] = [2]int{b.start, b.end}
	}
	return out
}
