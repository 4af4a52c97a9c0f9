package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/superhg2012/asr-e2e/internal/ctc"
	"github.com/superhg2012/asr-e2e/internal/dataset"
	"github.com/superhg2012/asr-e2e/internal/logging"
	"github.com/superhg2012/asr-e2e/internal/model"
)

func newPrepareCmd() *cobra.Command {
	var manifest string

	cmd := &cobra.Command{
		Use:   "prepare",
		Short: "Convert a manifest of feature files and transcripts into CTC batches",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}
			if manifest == "" {
				return fmt.Errorf("--manifest is required")
			}

			items, err := dataset.LoadManifest(manifest)
			if err != nil {
				return err
			}

			batches, err := dataset.Batches(items, cfg.Batch.Size)
			if err != nil {
				return err
			}

			if err := os.MkdirAll(cfg.Paths.OutputDir, 0o755); err != nil {
				return fmt.Errorf("create output dir: %w", err)
			}

			runID := uuid.NewString()
			logger := logging.WithRun(slog.Default(), runID)
			h := ctc.NewHandler(ctc.WithLogger(logger))

			labels := 0
			for i, batch := range batches {
				b, err := h.HandleBatch(cmd.Context(), batch)
				if err != nil {
					return fmt.Errorf("batch %d: %w", i, err)
				}

				if err := b.Params(model.ModeTrain).Validate(); err != nil {
					return fmt.Errorf("batch %d: %w", i, err)
				}

				path := filepath.Join(cfg.Paths.OutputDir, fmt.Sprintf("batch-%05d.safetensors", i))
				meta := map[string]string{
					"run_id":   runID,
					"batch":    strconv.Itoa(i),
					"manifest": manifest,
				}
				if err := ctc.Export(path, b, meta); err != nil {
					return fmt.Errorf("batch %d: %w", i, err)
				}

				labels += b.Targets.Len()
				logger.Debug("wrote batch", "path", path, "size", b.Size(), "max_seq_length", b.MaxSeqLength())
			}

			logger.Info("prepared batches",
				"manifest", manifest,
				"examples", len(items),
				"batches", len(batches),
				"labels", labels,
				"output_dir", cfg.Paths.OutputDir,
			)

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "run %s: wrote %d batches (%d examples) to %s\n",
				runID, len(batches), len(items), cfg.Paths.OutputDir)
			return err
		},
	}

	cmd.Flags().StringVar(&manifest, "manifest", "", "Manifest file (.tsv, .txt, .yaml or .yml)")

	return cmd
}
