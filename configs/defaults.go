package configs

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Application name, used for the config file name and environment prefix
const (
	AppName   = "sonido-genre"
	EnvPrefix = "SONIDO_GENRE"
)

// SetDefaults sets default configuration values for all components. Values
// from the config file, environment and bound flags take precedence.
func SetDefaults(v *viper.Viper) {
	// Application defaults
	v.SetDefault("log_level", "info")
	v.SetDefault("verbose", false)
	v.SetDefault("output_format", "json")

	// Decoder defaults
	v.SetDefault("audio.sample_rate", 22050)
	v.SetDefault("audio.max_duration", 30*time.Second)
	v.SetDefault("audio.resample_quality", "high")
	v.SetDefault("audio.timeout", 60*time.Second)

	// Feature extraction defaults
	v.SetDefault("features.fft_size", 2048)
	v.SetDefault("features.hop_size", 512)
	v.SetDefault("features.mel_bins", 128)
	v.SetDefault("features.roll_percent", 0.85)
	v.SetDefault("features.tuning", 0.0)

	// Spectrogram defaults
	v.SetDefault("spectrogram.mel_bins", 128)
	v.SetDefault("spectrogram.fmax", 8000.0)
	v.SetDefault("spectrogram.window", "hann")
	v.SetDefault("spectrogram.width", 10.0)
	v.SetDefault("spectrogram.height", 4.0)
	v.SetDefault("spectrogram.dpi", 100)
	v.SetDefault("spectrogram.title", "Mel-frequency spectrogram")

	// Scorer defaults
	v.SetDefault("scorer.noise_stddev", 0.05)
	v.SetDefault("scorer.seed", 0)

	// Server defaults
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.max_upload_bytes", 10<<20)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 2*time.Minute)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.temp_dir", os.TempDir())
}

// InitViper points v at the config file and the environment. An explicit
// configFile takes precedence over the search path.
func InitViper(v *viper.Viper, configFile string) {
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", AppName))
		}
		v.SetConfigName(AppName)
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()
}

// ReadConfigFile reads the config file if one is present. A missing file is
// not an error unless it was named explicitly.
func ReadConfigFile(v *viper.Viper, explicit bool) error {
	err := v.ReadInConfig()
	if err == nil {
		return nil
	}
	var notFound viper.ConfigFileNotFoundError
	if !explicit && errors.As(err, &notFound) {
		return nil
	}
	return err
}
