package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/superhg2012/asr-e2e/internal/alphabet"
	"github.com/superhg2012/asr-e2e/internal/text"
)

func newEncodeCmd() *cobra.Command {
	var transcript string

	cmd := &cobra.Command{
		Use:   "encode",
		Short: "Normalize a transcript and print its label ids",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if transcript == "" {
				return fmt.Errorf("--text is required")
			}

			normalized, err := text.NormalizeTranscript(transcript)
			if err != nil {
				return err
			}

			ids, err := alphabet.Encode(normalized)
			if err != nil {
				return err
			}

			parts := make([]string, len(ids))
			for i, id := range ids {
				parts[i] = fmt.Sprint(id)
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "text: %s\nwords: %d\nlabels: %s\n",
				normalized, len(text.Words(normalized)), strings.Join(parts, " "))
			return err
		},
	}

	cmd.Flags().StringVar(&transcript, "text", "", "Transcript to encode")

	return cmd
}
