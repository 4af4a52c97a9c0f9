package config

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	Features FeaturesConfig `mapstructure:"features"`
	Batch    BatchConfig    `mapstructure:"batch"`
	Paths    PathsConfig    `mapstructure:"paths"`
	LogLevel string         `mapstructure:"log_level"`
}

type FeaturesConfig struct {
	NumCep      int     `mapstructure:"num_cep"`
	MelBands    int     `mapstructure:"mel_bands"`
	FrameMS     float64 `mapstructure:"frame_ms"`
	HopMS       float64 `mapstructure:"hop_ms"`
	PreEmphasis float64 `mapstructure:"pre_emphasis"`
}

type BatchConfig struct {
	Size int `mapstructure:"size"`
}

type PathsConfig struct {
	OutputDir string `mapstructure:"output_dir"`
}

type LoadOptions struct {
	Cmd        flagBinder
	ConfigFile string
	Defaults   Config
}

type flagBinder interface {
	Flags() *pflag.FlagSet
}

func DefaultConfig() Config {
	return Config{
		Features: FeaturesConfig{
			NumCep:      13,
			MelBands:    26,
			FrameMS:     25,
			HopMS:       10,
			PreEmphasis: 0.97,
		},
		Batch: BatchConfig{
			Size: 16,
		},
		Paths: PathsConfig{
			OutputDir: "batches",
		},
		LogLevel: "info",
	}
}

func RegisterFlags(fs *pflag.FlagSet, defaults Config) {
	fs.Int("features-num-cep", defaults.Features.NumCep, "Number of cepstral coefficients per frame")
	fs.Int("features-mel-bands", defaults.Features.MelBands, "Number of mel filterbank bands")
	fs.Float64("features-frame-ms", defaults.Features.FrameMS, "Analysis frame length in milliseconds")
	fs.Float64("features-hop-ms", defaults.Features.HopMS, "Frame hop in milliseconds")
	fs.Float64("features-pre-emphasis", defaults.Features.PreEmphasis, "Pre-emphasis filter coefficient")
	fs.Int("batch-size", defaults.Batch.Size, "Examples per converted batch")
	fs.String("paths-output-dir", defaults.Paths.OutputDir, "Directory for converted batch files")
	fs.String("out-dir", defaults.Paths.OutputDir, "Directory for converted batch files (alias for --paths-output-dir)")
	fs.String("log-level", defaults.LogLevel, "Log level (debug|info|warn|error)")
}

func Load(opts LoadOptions) (Config, error) {
	v := viper.New()

	setDefaults(v, opts.Defaults)
	if opts.Cmd != nil {
		if err := bindFlags(v, opts.Cmd.Flags()); err != nil {
			return Config{}, fmt.Errorf("bind flags: %w", err)
		}
	}

	v.SetEnvPrefix("CTCPREP")
	replacer := strings.NewReplacer("-", "_", ".", "_", "__", "_")
	v.SetEnvKeyReplacer(replacer)
	v.AutomaticEnv()

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	} else {
		v.SetConfigName("ctcprep")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper, c Config) {
	v.SetDefault("features.num_cep", c.Features.NumCep)
	v.SetDefault("features.mel_bands", c.Features.MelBands)
	v.SetDefault("features.frame_ms", c.Features.FrameMS)
	v.SetDefault("features.hop_ms", c.Features.HopMS)
	v.SetDefault("features.pre_emphasis", c.Features.PreEmphasis)
	v.SetDefault("batch.size", c.Batch.Size)
	v.SetDefault("paths.output_dir", c.Paths.OutputDir)
	v.SetDefault("log_level", c.LogLevel)
}

// flagKeys maps config keys to the flags that override them. Keys are bound
// one by one instead of aliased so that values from the config file still
// apply when a flag is left at its default.
var flagKeys = map[string]string{
	"features.num_cep":      "features-num-cep",
	"features.mel_bands":    "features-mel-bands",
	"features.frame_ms":     "features-frame-ms",
	"features.hop_ms":       "features-hop-ms",
	"features.pre_emphasis": "features-pre-emphasis",
	"batch.size":            "batch-size",
	"paths.output_dir":      "paths-output-dir",
	"log_level":             "log-level",
}

func bindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	for key, name := range flagKeys {
		f := fs.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return err
		}
	}

	// --out-dir wins over --paths-output-dir only when set explicitly.
	if f := fs.Lookup("out-dir"); f != nil && f.Changed {
		if err := v.BindPFlag("paths.output_dir", f); err != nil {
			return err
		}
	}

	return nil
}
