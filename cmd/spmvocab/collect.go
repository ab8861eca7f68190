package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/go-spm-vocab/internal/corpus"
	"github.com/example/go-spm-vocab/internal/pipeline"
	"github.com/example/go-spm-vocab/internal/text"
)

func newCollectCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "collect",
		Short: "Write the normalized training corpus to a file without training",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			if err := cfg.ValidateCollect(); err != nil {
				return err
			}

			if output == "" {
				return errors.New("--output is required")
			}

			files, err := corpus.ResolveInputs(cfg.Input.Paths)
			if err != nil {
				return err
			}

			if len(files) == 0 {
				return pipeline.ErrNoInputs
			}

			normalize, err := text.NewNormalizer(cfg.Input.Normalization)
			if err != nil {
				return err
			}

			fh, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("create output: %w", err)
			}

			collector := corpus.Collector{
				Format:        corpus.Format(cfg.Input.Format),
				JSONLKey:      cfg.Input.JSONLKey,
				ParquetColumn: cfg.Input.ParquetColumn,
				Normalize:     normalize,
			}

			stats, err := collector.Collect(files, fh)
			if closeErr := fh.Close(); err == nil && closeErr != nil {
				err = fmt.Errorf("close output: %w", closeErr)
			}

			if err != nil {
				_ = os.Remove(output)
				return err
			}

			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "Found %d input file(s)\n", len(files))
			_, _ = fmt.Fprintf(out, "Collected %d lines of text\n", stats.Lines)
			_, _ = fmt.Fprintf(out, "Corpus written to: %s\n", output)

			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Destination file for the collected corpus")

	return cmd
}
