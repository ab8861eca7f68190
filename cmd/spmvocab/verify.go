package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/go-spm-vocab/internal/model"
	"github.com/example/go-spm-vocab/internal/vocab"
)

func newVerifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Print the vocabulary report of an existing {model-prefix}.model",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			if err := cfg.ValidateVerify(); err != nil {
				return err
			}

			special, err := vocab.LoadSpecialTokens(cfg.Trainer.SpecialTokens)
			if err != nil {
				return err
			}

			report, err := model.Inspect(cfg.Output.ModelPrefix+".model", special)
			if err != nil {
				return fmt.Errorf("model verify failed: %w", err)
			}

			return model.WriteReport(cmd.OutOrStdout(), report)
		},
	}
}
