package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/superhg2012/asr-e2e/internal/dataset"
	"github.com/superhg2012/asr-e2e/internal/doctor"
)

func newDoctorCmd() *cobra.Command {
	var manifest string

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check a manifest and the output directory before preparing batches",
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

			out := cmd.OutOrStdout()
			res := doctor.Run(doctor.Config{
				Items:     items,
				OutputDir: cfg.Paths.OutputDir,
			}, out)

			if res.Failed() {
				return fmt.Errorf("doctor: %d check(s) failed", len(res.Failures()))
			}

			_, err = fmt.Fprintf(out, "%d items, %d frames: ok\n", res.Checked(), res.Frames())
			return err
		},
	}

	cmd.Flags().StringVar(&manifest, "manifest", "", "Manifest file (.tsv, .txt, .yaml or .yml)")

	return cmd
}
