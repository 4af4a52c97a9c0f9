package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/superhg2012/asr-e2e/internal/alphabet"
)

func newAlphabetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "alphabet",
		Short: "Print the label table",
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			_, _ = fmt.Fprintln(w, "ID\tTOKEN")
			for id := int32(0); id < alphabet.NumClasses; id++ {
				_, _ = fmt.Fprintf(w, "%d\t%s\n", id, alphabet.Token(id))
			}
			return w.Flush()
		},
	}
}
