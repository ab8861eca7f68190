package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/example/go-spm-vocab/internal/pipeline"
	"github.com/example/go-spm-vocab/internal/trainer"
)

func newTrainCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "train",
		Short: "Collect the corpus, run spm_train and verify the model",
		Args:  cobra.NoArgs,
		RunE:  runTrain,
	}
}

func runTrain(cmd *cobra.Command, _ []string) error {
	cfg, err := requireConfig()
	if err != nil {
		return err
	}

	if err := cfg.ValidateTrain(); err != nil {
		return err
	}

	spm := trainer.SPMTrain{
		Bin:    cfg.Trainer.SPMTrainPath,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}

	_, err = pipeline.Run(cmd.Context(), pipeline.Options{
		Config:  cfg,
		Trainer: spm,
		Stdout:  cmd.OutOrStdout(),
	})

	return err
}
