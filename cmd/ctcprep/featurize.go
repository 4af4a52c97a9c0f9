package main

import (
	"fmt"
	"log/slog"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/superhg2012/asr-e2e/internal/audio"
	"github.com/superhg2012/asr-e2e/internal/features"
)

func newFeaturizeCmd() *cobra.Command {
	var (
		wavPath string
		outPath string
	)

	cmd := &cobra.Command{
		Use:   "featurize",
		Short: "Compute MFCC features for a WAV file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}
			if wavPath == "" {
				return fmt.Errorf("--wav is required")
			}
			if outPath == "" {
				return fmt.Errorf("--out is required")
			}

			ex, err := features.NewExtractor(cfg.Features.Extractor())
			if err != nil {
				return err
			}

			clip, err := audio.ReadWAV(wavPath)
			if err != nil {
				return err
			}

			m, err := ex.Extract(clip)
			if err != nil {
				return fmt.Errorf("extract %s: %w", wavPath, err)
			}

			meta := map[string]string{
				"source":      wavPath,
				"sample_rate": strconv.Itoa(clip.SampleRate),
				"num_cep":     strconv.Itoa(m.Coeffs()),
			}
			if err := features.Save(outPath, m, meta); err != nil {
				return err
			}

			slog.Info("featurized",
				"wav", wavPath,
				"out", outPath,
				"duration_s", clip.Duration(),
				"frames", m.Frames(),
				"num_cep", m.Coeffs(),
			)

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s: %d frames x %d coefficients\n", outPath, m.Frames(), m.Coeffs())
			return err
		},
	}

	cmd.Flags().StringVar(&wavPath, "wav", "", "Input WAV file")
	cmd.Flags().StringVar(&outPath, "out", "", "Output feature file (.safetensors)")

	return cmd
}
