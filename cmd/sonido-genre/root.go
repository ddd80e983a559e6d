package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/RyanBlaney/sonido-genre/classifier"
	"github.com/RyanBlaney/sonido-genre/configs"
	"github.com/RyanBlaney/sonido-genre/features"
	"github.com/RyanBlaney/sonido-genre/logging"
	"github.com/RyanBlaney/sonido-genre/pipeline"
	"github.com/RyanBlaney/sonido-genre/spectrogram"
	"github.com/RyanBlaney/sonido-genre/transcode"
)

// app carries the state shared by all commands of one invocation
type app struct {
	stdout io.Writer
	stderr io.Writer

	v          *viper.Viper
	configFile string
	config     *configs.Config
	logger     logging.Logger

	// decoder replaces the ffmpeg decoder when set
	decoder features.Decoder
}

func newApp(stdout, stderr io.Writer) *app {
	return &app{
		stdout: stdout,
		stderr: stderr,
		v:      viper.New(),
	}
}

func newRootCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sonido-genre <audio_file>",
		Short: "Heuristic music genre analysis",
		Long: `Analyze one audio file and print a genre verdict as JSON.

The first 30 seconds are decoded to 22.05 kHz mono, summarized into spectral,
rhythmic, timbral, harmonic and noisiness features, and scored against ten
genres with fixed rules. The result includes a base64 PNG mel spectrogram.

Scores come from hand-tuned rules, not a trained model.`,
		Args:          exactlyOneFile,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.initialize()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.analyze(cmd, args[0])
		},
	}

	// help and usage never go to stdout, which only carries results
	cmd.SetOut(a.stderr)
	cmd.SetErr(a.stderr)
	// the positional argument is always a file, so no default subcommand may claim it
	cmd.CompletionOptions.DisableDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Use: "__help", Hidden: true})
	cmd.SetFlagErrorFunc(func(c *cobra.Command, err error) error {
		return fmt.Errorf("%w: %w", pipeline.ErrInvalidArguments, err)
	})

	flags := cmd.PersistentFlags()
	flags.StringVar(&a.configFile, "config", "",
		"config file (default is ./sonido-genre.yaml or $HOME/.config/sonido-genre/sonido-genre.yaml)")
	flags.BoolP("verbose", "v", false, "verbose output (debug logging)")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.StringP("output", "o", "json", "output format (json, yaml, table)")
	flags.Uint64("seed", 0, "seed for score noise (0 seeds from the clock)")
	flags.Duration("max-duration", 30*time.Second, "length of audio analyzed")
	flags.Int("sample-rate", 22050, "analysis sample rate in Hz")

	_ = bindFlags(a.v, flags, map[string]string{
		"verbose":      "verbose",
		"log-level":    "log_level",
		"output":       "output_format",
		"seed":         "scorer.seed",
		"max-duration": "audio.max_duration",
		"sample-rate":  "audio.sample_rate",
	})

	cmd.AddCommand(newServeCommand(a))
	return cmd
}

// bindFlags binds each named flag to its viper key
func bindFlags(v *viper.Viper, flags *pflag.FlagSet, keys map[string]string) error {
	var lastErr error
	flags.VisitAll(func(f *pflag.Flag) {
		key, ok := keys[f.Name]
		if !ok {
			return
		}
		if err := v.BindPFlag(key, f); err != nil {
			lastErr = err
		}
	})
	return lastErr
}

func exactlyOneFile(cmd *cobra.Command, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: got %d", pipeline.ErrInvalidArguments, len(args))
	}
	return nil
}

// initialize loads configuration and sets up logging after flags are parsed
func (a *app) initialize() error {
	configs.InitViper(a.v, a.configFile)
	if err := configs.ReadConfigFile(a.v, a.configFile != ""); err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	config, err := configs.Load(a.v)
	if err != nil {
		return err
	}
	if err := config.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	a.config = config

	logger := logging.NewWriterLogger(a.stderr, false)
	if a.stderr == io.Writer(os.Stderr) {
		logger = logging.NewDefaultLogger()
	}
	logger.SetLevel(config.Level())
	logging.SetGlobalLogger(logger)
	a.logger = logger.WithFields(logging.Fields{"component": "cli"})

	if used := a.v.ConfigFileUsed(); used != "" {
		a.logger.Debug("Using config file", logging.Fields{"path": used})
	}
	return nil
}

// newAnalyzer wires the pipeline from the loaded configuration
func (a *app) newAnalyzer() *pipeline.Analyzer {
	decoder := a.decoder
	if decoder == nil {
		decoder = transcode.NewDecoder(a.config.DecoderConfig())
	}

	return pipeline.NewAnalyzer(
		features.NewExtractor(a.config.FeatureConfig(), decoder),
		spectrogram.NewRenderer(a.config.RenderConfig()),
		classifier.NewScorer(a.config.NoiseSource()),
		a.logger,
	)
}

func (a *app) analyze(cmd *cobra.Command, path string) error {
	result, err := a.newAnalyzer().Analyze(cmd.Context(), path)
	if err != nil {
		return err
	}
	return writeResult(a.stdout, a.config.OutputFormat, result)
}
