package spectrogram

import (
	"bytes"
	"errors"
	"fmt"
	"image/color"
	"math"
	"time"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/RyanBlaney/sonido-genre/algorithms/spectral"
	"github.com/RyanBlaney/sonido-genre/algorithms/windowing"
	"github.com/RyanBlaney/sonido-genre/logging"
	"github.com/RyanBlaney/sonido-genre/transcode"
)

// ErrRender wraps every failure to produce the spectrogram image.
var ErrRender = errors.New("spectrogram rendering failed")

// RenderConfig describes the image. It is built once and never mutated by
// the renderer, so one config can serve concurrent renders.
type RenderConfig struct {
	NumMels int     `json:"num_mels"`
	FMax    float64 `json:"fmax"` // Hz, <= 0 means Nyquist
	FFTSize int     `json:"fft_size"`
	HopSize int     `json:"hop_size"`
	Window  string  `json:"window"` // hann, hamming, blackman or rectangular

	WidthInches  float64 `json:"width_inches"`
	HeightInches float64 `json:"height_inches"`
	DPI          int     `json:"dpi"`

	Title         string  `json:"title"`
	ColorBarLabel string  `json:"colorbar_format"` // printf verb for the legend ticks
	DynamicRange  float64 `json:"dynamic_range"`   // dB below peak shown by the color scale
}

// DefaultRenderConfig returns a 10x4 inch, 128 band rendering up to 8 kHz
func DefaultRenderConfig() RenderConfig {
	return RenderConfig{
		NumMels:       128,
		FMax:          8000,
		FFTSize:       2048,
		HopSize:       512,
		Window:        windowing.KindHann,
		WidthInches:   10,
		HeightInches:  4,
		DPI:           100,
		Title:         "Mel-frequency spectrogram",
		ColorBarLabel: "%+2.0f dB",
		DynamicRange:  80,
	}
}

// Validate checks the config for values the plotting backend cannot draw
func (c RenderConfig) Validate() error {
	if c.NumMels <= 0 {
		return fmt.Errorf("num mels must be positive, got %d", c.NumMels)
	}
	if c.FFTSize < 2 || c.HopSize <= 0 {
		return fmt.Errorf("invalid framing: fft=%d hop=%d", c.FFTSize, c.HopSize)
	}
	if _, err := windowing.New(c.Window, c.FFTSize); err != nil {
		return err
	}
	if c.WidthInches <= 0 || c.HeightInches <= 0 || c.DPI <= 0 {
		return fmt.Errorf("invalid image size %.1fx%.1f in at %d dpi", c.WidthInches, c.HeightInches, c.DPI)
	}
	if c.DynamicRange <= 0 {
		return fmt.Errorf("dynamic range must be positive, got %f", c.DynamicRange)
	}
	return nil
}

// Renderer draws mel spectrograms as PNG images
type Renderer struct {
	config RenderConfig
	logger logging.Logger
}

// NewRenderer creates a renderer. Zero-valued fields of cfg fall back to
// DefaultRenderConfig.
func NewRenderer(cfg RenderConfig) *Renderer {
	def := DefaultRenderConfig()
	if cfg.NumMels <= 0 {
		cfg.NumMels = def.NumMels
	}
	if cfg.FFTSize <= 0 {
		cfg.FFTSize = def.FFTSize
	}
	if cfg.HopSize <= 0 {
		cfg.HopSize = def.HopSize
	}
	if cfg.WidthInches <= 0 {
		cfg.WidthInches = def.WidthInches
	}
	if cfg.HeightInches <= 0 {
		cfg.HeightInches = def.HeightInches
	}
	if cfg.DPI <= 0 {
		cfg.DPI = def.DPI
	}
	if cfg.ColorBarLabel == "" {
		cfg.ColorBarLabel = def.ColorBarLabel
	}
	if cfg.DynamicRange <= 0 {
		cfg.DynamicRange = def.DynamicRange
	}

	return &Renderer{
		config: cfg,
		logger: logging.WithFields(logging.Fields{
			"component": "spectrogram_renderer",
		}),
	}
}

// Config returns the renderer configuration
func (r *Renderer) Config() RenderConfig {
	return r.config
}

// Render computes the mel spectrogram of audio and returns it as PNG bytes
func (r *Renderer) Render(audio *transcode.AudioData) (img []byte, err error) {
	logger := r.logger.WithFields(logging.Fields{
		"function": "Render",
	})
	start := time.Now()

	// the plotting backend reports some failures by panicking
	defer func() {
		if rec := recover(); rec != nil {
			img = nil
			err = fmt.Errorf("%w: %v", ErrRender, rec)
			logger.Error(err, "Plotting backend panicked")
		}
	}()

	if err := r.config.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRender, err)
	}

	mel, err := ComputeMel(audio, r.config)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRender, err)
	}

	img, err = r.draw(mel)
	if err != nil {
		logger.Error(err, "Failed to draw spectrogram")
		return nil, fmt.Errorf("%w: %w", ErrRender, err)
	}

	logger.Debug("Spectrogram rendered", logging.Fields{
		"frames":  mel.Frames(),
		"bytes":   len(img),
		"elapsed": time.Since(start).String(),
	})
	return img, nil
}

func (r *Renderer) draw(mel *MelSpectrogram) ([]byte, error) {
	cfg := r.config

	cmap := moreland.ExtendedBlackBody()
	cmap.SetMin(-cfg.DynamicRange)
	cmap.SetMax(0)
	pal := cmap.Palette(256)

	hm := plotter.NewHeatMap(&melGrid{mel: mel, scale: spectral.NewMelScale()}, pal)
	hm.Min, hm.Max = -cfg.DynamicRange, 0
	hm.Underflow = pal.Colors()[0]
	hm.Rasterized = mel.Frames() > 1 && mel.Bands() > 1

	p := plot.New()
	p.Title.Text = cfg.Title
	p.X.Label.Text = "Time"
	p.Y.Label.Text = "Hz"
	p.Y.Tick.Marker = hzTicks{scale: spectral.NewMelScale()}
	p.Add(hm)

	legend := plot.New()
	legend.HideX()
	legend.Y.Tick.Marker = dbTicks{format: cfg.ColorBarLabel}
	legend.Add(&plotter.ColorBar{ColorMap: cmap, Vertical: true})

	width := vg.Length(cfg.WidthInches) * vg.Inch
	height := vg.Length(cfg.HeightInches) * vg.Inch
	barWidth := width / 8
	titleRow := vg.Length(0.35) * vg.Inch

	c := vgimg.NewWith(
		vgimg.UseWH(width, height),
		vgimg.UseDPI(cfg.DPI),
		vgimg.UseBackgroundColor(color.White),
	)
	dc := draw.New(c)

	p.Draw(draw.Crop(dc, 0, -barWidth, 0, 0))
	// leave the title row free so the legend lines up with the heat map
	legend.Draw(draw.Crop(dc, width-barWidth, 0, 0, -titleRow))

	var buf bytes.Buffer
	if _, err := (vgimg.PngCanvas{Canvas: c}).WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// melGrid exposes a mel spectrogram to the heat map. Columns are frames,
// rows are mel bands placed on the mel axis.
type melGrid struct {
	mel   *MelSpectrogram
	scale *spectral.MelScale
}

func (g *melGrid) Dims() (c, r int) { return g.mel.Frames(), g.mel.Bands() }

func (g *melGrid) Z(c, r int) float64 { return g.mel.DB[c][r] }

func (g *melGrid) X(c int) float64 { return g.mel.FrameTime(c) }

func (g *melGrid) Y(r int) float64 { return g.scale.HzToMel(g.mel.CenterFreqs[r]) }

var _ plotter.GridXYZ = (*melGrid)(nil)

// hzTicks labels a mel-valued axis at octave frequencies
type hzTicks struct {
	scale *spectral.MelScale
}

func (t hzTicks) Ticks(min, max float64) []plot.Tick {
	var ticks []plot.Tick
	for _, hz := range []float64{0, 64, 128, 256, 512, 1024, 2048, 4096, 8192, 16384} {
		v := t.scale.HzToMel(hz)
		if v < min || v > max {
			continue
		}
		ticks = append(ticks, plot.Tick{Value: v, Label: fmt.Sprintf("%.0f", hz)})
	}
	return ticks
}

// dbTicks labels the color bar every 10 dB, with text every 20 dB
type dbTicks struct {
	format string
}

func (t dbTicks) Ticks(min, max float64) []plot.Tick {
	var ticks []plot.Tick
	for v := math.Ceil(min/10) * 10; v <= max; v += 10 {
		tick := plot.Tick{Value: v}
		if math.Mod(v, 20) == 0 {
			tick.Label = fmt.Sprintf(t.format, v)
		}
		ticks = append(ticks, tick)
	}
	return ticks
}

var (
	_ plot.Ticker = hzTicks{}
	_ plot.Ticker = dbTicks{}
)
