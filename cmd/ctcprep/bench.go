package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
	"github.com/superhg2012/asr-e2e/internal/bench"
	"github.com/superhg2012/asr-e2e/internal/ctc"
	"github.com/superhg2012/asr-e2e/internal/dataset"
)

func newBenchCmd() *cobra.Command {
	var (
		manifest     string
		runs         int
		format       string
		rtfThreshold float64
	)

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Benchmark batch conversion throughput and realtime factor",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			if manifest == "" {
				return fmt.Errorf("--manifest is required for bench")
			}
			if runs < 1 {
				return fmt.Errorf("--runs must be at least 1")
			}
			if format != "table" && format != "json" {
				return fmt.Errorf("--format must be 'table' or 'json'")
			}

			items, err := dataset.LoadManifest(manifest)
			if err != nil {
				return err
			}

			batches, err := dataset.Batches(items, cfg.Batch.Size)
			if err != nil {
				return err
			}

			results, err := runBench(cmd.Context(), batches, runs, cfg.Features.HopMS)
			if err != nil {
				return err
			}

			stats := bench.ComputeStats(bench.Durations(results))

			out := cmd.OutOrStdout()
			switch format {
			case "json":
				if err := bench.FormatJSON(results, stats, out); err != nil {
					return err
				}
			default:
				bench.FormatTable(results, stats, out)
			}

			return bench.CheckRTFThreshold(bench.MeanRTF(results), rtfThreshold)
		},
	}

	cmd.Flags().StringVar(&manifest, "manifest", "", "Manifest file to convert on each run (required)")
	cmd.Flags().IntVar(&runs, "runs", 5, "Number of conversion runs")
	cmd.Flags().StringVar(&format, "format", "table", "Output format: table|json")
	cmd.Flags().Float64Var(&rtfThreshold, "rtf-threshold", 0, "Exit non-zero if mean RTF exceeds this value (0 = disabled)")

	return cmd
}

// runBench converts every batch runs times without writing output files.
func runBench(ctx context.Context, batches [][]dataset.Item, runs int, hopMS float64) ([]bench.RunResult, error) {
	h := ctc.NewHandler(ctc.WithLogger(slog.New(slog.DiscardHandler)))
	results := make([]bench.RunResult, 0, runs)

	for i := range runs {
		var examples, frames int

		start := time.Now()
		for j, batch := range batches {
			b, err := h.HandleBatch(ctx, batch)
			if err != nil {
				return nil, fmt.Errorf("run %d batch %d failed: %w", i+1, j, err)
			}

			examples += b.Size()
			for _, n := range b.SeqLengths {
				frames += int(n)
			}
		}
		dur := time.Since(start)

		audioDur := bench.FramesDuration(frames, hopMS)
		results = append(results, bench.RunResult{
			Index:         i,
			Cold:          i == 0,
			Duration:      dur,
			Examples:      examples,
			Frames:        frames,
			AudioDuration: audioDur,
			RTF:           bench.CalcRTF(dur, audioDur),
		})
	}

	return results, nil
}
