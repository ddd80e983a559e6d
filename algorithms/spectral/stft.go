package spectral

import (
	"fmt"
	"math/cmplx"
	"runtime"
	"sync"
)

// STFT provides Short-Time Fourier Transform functionality
type STFT struct {
	fft *FFT
}

// STFTParams controls framing of the STFT
type STFTParams struct {
	WindowSize int    // FFT size in samples
	HopSize    int    // samples between frame starts
	SampleRate int    // Hz
	Center     bool   // zero-pad WindowSize/2 on both sides so frame t is centered on t*HopSize
	Window     Window // applied to each frame before the FFT; nil means rectangular
}

// STFTResult holds the magnitude spectrogram
type STFTResult struct {
	Magnitude      [][]float64 `json:"magnitude"`       // Time x Frequency magnitude matrix
	TimeFrames     int         `json:"time_frames"`     // Number of time frames
	FreqBins       int         `json:"freq_bins"`       // Number of frequency bins
	SampleRate     int         `json:"sample_rate"`     // Sample rate
	WindowSize     int         `json:"window_size"`     // FFT window size
	HopSize        int         `json:"hop_size"`        // Hop size between frames
	FreqResolution float64     `json:"freq_resolution"` // Frequency resolution (Hz/bin)
	TimeResolution float64     `json:"time_resolution"` // Time resolution (seconds/frame)
}

// Window interface for windowing functions
type Window interface {
	ApplyInPlace(signal []float64) error
}

// NewSTFT creates a new STFT calculator
func NewSTFT() *STFT {
	return &STFT{
		fft: NewFFT(),
	}
}

// Compute computes the magnitude STFT. Frames are spread over a worker pool;
// every frame writes only its own row, so the output does not depend on
// scheduling.
func (s *STFT) Compute(signal []float64, params STFTParams) (*STFTResult, error) {
	if len(signal) == 0 {
		return nil, fmt.Errorf("empty signal")
	}

	windowSize, hopSize := params.WindowSize, params.HopSize
	if windowSize <= 0 {
		return nil, fmt.Errorf("window size must be positive")
	}

	if hopSize <= 0 {
		return nil, fmt.Errorf("hop size must be positive")
	}

	if params.Center {
		signal = CenterPad(signal, windowSize/2)
	}

	numFrames := FrameCount(len(signal), windowSize, hopSize)
	if numFrames <= 0 {
		return nil, fmt.Errorf("signal too short for given window size and hop size")
	}

	freqBins := windowSize/2 + 1

	magnitude := make([][]float64, numFrames)
	for i := range numFrames {
		magnitude[i] = make([]float64, freqBins)
	}

	numWorkers := s.getOptimalWorkerCount(numFrames)

	jobs := make(chan int, numFrames)
	errs := make(chan error, numWorkers)

	var wg sync.WaitGroup

	for range numWorkers {
		wg.Add(1)
		go func() {
			defer wg.Done()

			// Reuse frame buffer for this worker
			frameBuffer := make([]float64, windowSize)

			for frameIdx := range jobs {
				start := frameIdx * hopSize
				copy(frameBuffer, signal[start:start+windowSize])

				if params.Window != nil {
					if err := params.Window.ApplyInPlace(frameBuffer); err != nil {
						errs <- fmt.Errorf("frame %d: %w", frameIdx, err)
						return
					}
				}

				fftResult := s.fft.Compute(frameBuffer)
				row := magnitude[frameIdx]
				for i := range freqBins {
					row[i] = cmplx.Abs(fftResult[i])
				}
			}
		}()
	}

	for frameIdx := range numFrames {
		jobs <- frameIdx
	}
	close(jobs)

	wg.Wait()
	close(errs)

	if err := <-errs; err != nil {
		return nil, err
	}

	return &STFTResult{
		Magnitude:      magnitude,
		TimeFrames:     numFrames,
		FreqBins:       freqBins,
		SampleRate:     params.SampleRate,
		WindowSize:     windowSize,
		HopSize:        hopSize,
		FreqResolution: float64(params.SampleRate) / float64(windowSize),
		TimeResolution: float64(hopSize) / float64(params.SampleRate),
	}, nil
}

// Power returns the squared magnitude spectrogram.
func (r *STFTResult) Power() [][]float64 {
	return NewPowerSpectrum().ComputeFromSTFT(r)
}

// FrameTimes returns the time in seconds at the center of each frame
// (assuming centered framing).
func (r *STFTResult) FrameTimes() []float64 {
	times := make([]float64, r.TimeFrames)
	for i := range times {
		times[i] = float64(i) * r.TimeResolution
	}
	return times
}

// CenterPad zero-pads pad samples on each side of signal.
func CenterPad(signal []float64, pad int) []float64 {
	padded := make([]float64, len(signal)+2*pad)
	copy(padded[pad:], signal)
	return padded
}

// FrameCount is the number of full frames of frameSize that fit into n samples at hop.
func FrameCount(n, frameSize, hop int) int {
	if n < frameSize || hop <= 0 {
		return 0
	}
	return (n-frameSize)/hop + 1
}

// getOptimalWorkerCount determines the optimal number of workers based on workload
func (s *STFT) getOptimalWorkerCount(numFrames int) int {
	numCPU := runtime.NumCPU()

	// For small workloads, don't over-parallelize
	if numFrames < 100 {
		return max(1, min(numCPU/2, numFrames))
	}

	// For medium workloads, use most CPUs
	if numFrames < 1000 {
		return min(numCPU, 8)
	}

	return numCPU
}
