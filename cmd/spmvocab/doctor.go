package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/go-spm-vocab/internal/corpus"
	"github.com/example/go-spm-vocab/internal/doctor"
	"github.com/example/go-spm-vocab/internal/model"
	"github.com/example/go-spm-vocab/internal/trainer"
)

func newDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check that spm_train and the configured paths are usable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			spm := trainer.SPMTrain{Bin: cfg.Trainer.SPMTrainPath}

			dcfg := doctor.Config{
				TrainerVersion: func() (string, error) {
					if err := spm.ValidateTooling(); err != nil {
						return "", err
					}
					return spm.Version(cmd.Context())
				},
				ByteFallback:      cfg.Trainer.UseByteFallback(),
				SpecialTokensPath: cfg.Trainer.SpecialTokens,
				ModelPrefix:       cfg.Output.ModelPrefix,
			}
			if cfg.Input.Paths != "" {
				dcfg.ResolveInputs = func() ([]string, error) {
					return corpus.ResolveInputs(cfg.Input.Paths)
				}
			}

			out := cmd.OutOrStdout()
			result := doctor.Run(dcfg, out)

			// An existing model at the prefix must still decode.
			if cfg.Output.ModelPrefix != "" {
				modelPath := cfg.Output.ModelPrefix + ".model"
				if _, statErr := os.Stat(modelPath); statErr == nil {
					if _, err := model.Inspect(modelPath, nil); err != nil {
						result.AddFailure(fmt.Sprintf("model verify: %v", err))
						_, _ = fmt.Fprintf(out, "%s model verify: %v\n", doctor.FailMark, err)
					} else {
						_, _ = fmt.Fprintf(out, "%s model verify: %s\n", doctor.PassMark, modelPath)
					}
				}
			}

			if result.Failed() {
				for _, f := range result.Failures() {
					// #nosec G705 -- Writes plain diagnostic text to stderr for CLI output, not HTML rendering.
					fmt.Fprintf(os.Stderr, "FAIL: %s\n", f)
				}

				return errors.New("doctor checks failed")
			}

			_, _ = fmt.Fprintln(out, "doctor checks passed")

			return nil
		},
	}
}
