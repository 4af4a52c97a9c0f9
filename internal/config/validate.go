package config

import (
	"fmt"

	"github.com/superhg2012/asr-e2e/internal/features"
	"github.com/superhg2012/asr-e2e/internal/logging"
)

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if c.Batch.Size < 1 {
		return fmt.Errorf("invalid batch size %d (expected >= 1)", c.Batch.Size)
	}
	if c.Paths.OutputDir == "" {
		return fmt.Errorf("output dir is required")
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if _, err := features.NewExtractor(c.Features.Extractor()); err != nil {
		return err
	}
	return nil
}

// Extractor converts the features section into an MFCC extractor config.
func (f FeaturesConfig) Extractor() features.ExtractorConfig {
	cfg := features.DefaultExtractorConfig()
	cfg.NumCep = f.NumCep
	cfg.MelBands = f.MelBands
	cfg.FrameMS = f.FrameMS
	cfg.HopMS = f.HopMS
	cfg.PreEmphasis = f.PreEmphasis
	return cfg
}
