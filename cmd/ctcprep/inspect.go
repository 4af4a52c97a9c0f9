package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/superhg2012/asr-e2e/internal/features"
	"gonum.org/v1/gonum/floats"
)

func newInspectCmd() *cobra.Command {
	var (
		featPath string
		plotPath string
	)

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Print shape and statistics of a feature file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if featPath == "" {
				return fmt.Errorf("--features is required")
			}

			m, err := features.Load(featPath)
			if err != nil {
				return err
			}

			st := features.Measure(m)
			vals := widen(m.Tensor().RawData())

			out := cmd.OutOrStdout()
			if _, err := fmt.Fprintf(out, "frames: %d\nnum_cep: %d\nmean: %.6f\nstd: %.6f\nmin: %.6f\nmax: %.6f\n",
				m.Frames(), m.Coeffs(), st.Mean, st.Std, floats.Min(vals), floats.Max(vals)); err != nil {
				return err
			}

			if plotPath == "" {
				return nil
			}

			if err := savePlot(plotPath, featPath, m); err != nil {
				return err
			}

			_, err = fmt.Fprintf(out, "plot: %s\n", plotPath)
			return err
		},
	}

	cmd.Flags().StringVar(&featPath, "features", "", "Feature file (.safetensors)")
	cmd.Flags().StringVar(&plotPath, "plot", "", "Optional heat-map image (.png, .svg or .pdf)")

	return cmd
}

func widen(in []float32) []float64 {
	out := make([]float64, len(in))
	for i, v := range in {
		out[i] = float64(v)
	}
	return out
}
