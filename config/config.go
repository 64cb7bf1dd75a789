package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/maastricht-university/fold-predict/errkind"
)

type Service struct {
	URL            string `mapstructure:"url" yaml:"url"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
	Encoding       string `mapstructure:"encoding" yaml:"encoding"`
}
type Services struct {
	Classifier Service `mapstructure:"classifier" yaml:"classifier"`
}

// Audio parameterises the WAV to log-mel transform.
type Audio struct {
	SampleRate int     `mapstructure:"sample_rate" yaml:"sample_rate"`
	NMels      int     `mapstructure:"n_mels" yaml:"n_mels"`
	NFFT       int     `mapstructure:"n_fft" yaml:"n_fft"`
	WinLength  int     `mapstructure:"win_length" yaml:"win_length"`
	HopLength  int     `mapstructure:"hop_length" yaml:"hop_length"`
	FMin       float64 `mapstructure:"fmin" yaml:"fmin"`
	FMax       float64 `mapstructure:"fmax" yaml:"fmax"`
	TopDB      float64 `mapstructure:"top_db" yaml:"top_db"`
}

// Inference controls the sliding window and the checkpoint lookup.
type Inference struct {
	CropSize      int    `mapstructure:"crop_size" yaml:"crop_size"`
	BatchSize     int    `mapstructure:"batch_size" yaml:"batch_size"`
	Device        string `mapstructure:"device" yaml:"device"`
	CheckpointExt string `mapstructure:"checkpoint_ext" yaml:"checkpoint_ext"`
}

type Paths struct {
	Experiments      string `mapstructure:"experiments" yaml:"experiments"`
	Predictions      string `mapstructure:"predictions" yaml:"predictions"`
	TestDir          string `mapstructure:"test_dir" yaml:"test_dir"`
	SampleSubmission string `mapstructure:"sample_submission" yaml:"sample_submission"`
}

type Pipeline struct {
	Name      string `mapstructure:"name" yaml:"name"`
	Version   string `mapstructure:"version" yaml:"version"`
	LogLvl    string `mapstructure:"log_level" yaml:"log_level"`
	LogFormat string `mapstructure:"log_format" yaml:"log_format"`
	// Kernel switches the blended output to submission.csv in the working
	// directory and skips the validation hook.
	Kernel bool `mapstructure:"kernel" yaml:"kernel"`
}

type Metrics struct {
	Textfile string `mapstructure:"textfile" yaml:"textfile"`
}

type Root struct {
	Pipeline  Pipeline  `mapstructure:"pipeline" yaml:"pipeline"`
	Paths     Paths     `mapstructure:"paths" yaml:"paths"`
	Folds     []int     `mapstructure:"folds" yaml:"folds"`
	Classes   []string  `mapstructure:"classes" yaml:"classes"`
	Audio     Audio     `mapstructure:"audio" yaml:"audio"`
	Inference Inference `mapstructure:"inference" yaml:"inference"`
	Services  Services  `mapstructure:"services" yaml:"services"`
	Metrics   Metrics   `mapstructure:"metrics" yaml:"metrics"`
}

// Load finds config.yaml for the CONFIG_ENV environment (default "dev"),
// applies PREDICT_* environment overrides and validates the result.
func Load() (*Root, error) {
	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	v := newViper()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(filepath.Join("config", env))
	v.AddConfigPath(filepath.Join("src", "shared"))
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil, errkind.Configuration("no config.yaml for environment %q", env)
		}
		return nil, errkind.Configuration("read config: %v", err)
	}
	return decode(v)
}

// LoadFile reads an explicit config file instead of searching for one.
func LoadFile(path string) (*Root, error) {
	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, errkind.Configuration("read config %s: %v", path, err)
	}
	return decode(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("PREDICT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

func decode(v *viper.Viper) (*Root, error) {
	var cfg Root
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errkind.Configuration("decode config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func DurSeconds(n int) time.Duration { return time.Duration(n) * time.Second }
