// Package pipeline runs one vocabulary training job end to end: special
// tokens, budget, corpus collection, trainer invocation and verification.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/example/go-spm-vocab/internal/config"
	"github.com/example/go-spm-vocab/internal/corpus"
	"github.com/example/go-spm-vocab/internal/model"
	"github.com/example/go-spm-vocab/internal/text"
	"github.com/example/go-spm-vocab/internal/tokenizer"
	"github.com/example/go-spm-vocab/internal/trainer"
	"github.com/example/go-spm-vocab/internal/vocab"
)

// ErrNoInputs is returned when the input list resolves to no files.
var ErrNoInputs = errors.New("no input files found")

// maxSampleRunes bounds the sample line encoded during verification.
const maxSampleRunes = 80

// Options configures a Run.
type Options struct {
	Config  config.Config
	Trainer trainer.Trainer
	// Stdout receives the progress report. Defaults to os.Stdout.
	Stdout io.Writer
}

// Result describes a successful run.
type Result struct {
	RunID       string
	SPVocabSize int
	Files       []string
	Lines       int
	Report      model.Report
}

// Run executes the training pipeline. The scratch corpus is removed and the
// prefix lock released on every return path.
func Run(ctx context.Context, opts Options) (Result, error) {
	cfg := opts.Config
	out := opts.Stdout
	if out == nil {
		out = os.Stdout
	}

	if opts.Trainer == nil {
		return Result{}, errors.New("pipeline: trainer must not be nil")
	}

	res := Result{RunID: uuid.NewString()}
	log := slog.With("run_id", res.RunID)

	special, err := vocab.LoadSpecialTokens(cfg.Trainer.SpecialTokens)
	if err != nil {
		return res, err
	}

	if dups := vocab.Duplicates(special); len(dups) > 0 {
		log.Warn("duplicate special tokens", "tokens", dups)
	}

	res.SPVocabSize, err = vocab.Budget(cfg.Trainer.VocabSize, special)
	if err != nil {
		return res, err
	}

	fmt.Fprintf(out, "Target total vocab size: %d\n", cfg.Trainer.VocabSize)
	fmt.Fprintf(out, "  - Special tokens: %d\n", len(special))
	fmt.Fprintf(out, "  = SentencePiece vocab size: %d\n", res.SPVocabSize)
	if len(special) > 0 {
		fmt.Fprintf(out, "  Special tokens: %q\n", special)
	}

	res.Files, err = corpus.ResolveInputs(cfg.Input.Paths)
	if err != nil {
		return res, err
	}

	if len(res.Files) == 0 {
		return res, ErrNoInputs
	}

	fmt.Fprintf(out, "Found %d input file(s)\n", len(res.Files))

	if v, ok := opts.Trainer.(trainer.ToolingValidator); ok {
		if err := v.ValidateTooling(); err != nil {
			return res, err
		}
	}

	lock, err := trainer.LockPrefix(cfg.Output.ModelPrefix)
	if err != nil {
		return res, err
	}
	defer func() {
		if relErr := lock.Release(); relErr != nil {
			log.Warn("release prefix lock", "error", relErr)
		}
	}()

	scratch, err := corpus.NewScratch(cfg.Input.ScratchDir)
	if err != nil {
		return res, err
	}
	defer func() {
		if rmErr := scratch.Remove(); rmErr != nil {
			log.Warn("remove scratch corpus", "path", scratch.Path(), "error", rmErr)
		}
	}()

	normalize, err := text.NewNormalizer(cfg.Input.Normalization)
	if err != nil {
		return res, err
	}

	collector := corpus.Collector{
		Format:        corpus.Format(cfg.Input.Format),
		JSONLKey:      cfg.Input.JSONLKey,
		ParquetColumn: cfg.Input.ParquetColumn,
		Normalize:     normalize,
	}

	start := time.Now()
	stats, err := collector.Collect(res.Files, scratch)
	res.Lines = stats.Lines
	if err != nil && !errors.Is(err, corpus.ErrNoText) {
		return res, err
	}

	log.Debug("stage done", "stage", "collect", "duration", time.Since(start), "lines", stats.Lines)
	fmt.Fprintf(out, "Collected %d lines of text\n", stats.Lines)

	if err != nil {
		return res, err
	}

	if err := scratch.Close(); err != nil {
		return res, err
	}

	topts := trainerOptions(cfg, scratch.Path(), res.SPVocabSize, special)

	fmt.Fprintln(out, "\nBuilding SentencePiece vocabulary...")
	fmt.Fprintf(out, "  Model type: %s\n", topts.ModelType)
	fmt.Fprintf(out, "  SentencePiece vocab size: %d\n", topts.VocabSize)
	fmt.Fprintf(out, "  Character coverage: %g\n", topts.CharacterCoverage)
	fmt.Fprintf(out, "  Byte fallback: %t\n", topts.ByteFallback)

	start = time.Now()
	if err := opts.Trainer.Train(ctx, topts); err != nil {
		return res, err
	}

	log.Debug("stage done", "stage", "train", "duration", time.Since(start))

	fmt.Fprintln(out, "\nModel saved to:")
	fmt.Fprintf(out, "  %s\n", topts.ModelPath())
	fmt.Fprintf(out, "  %s\n", topts.VocabPath())

	res.Report, err = model.Inspect(topts.ModelPath(), special)
	if err != nil {
		return res, fmt.Errorf("verify model: %w", err)
	}

	attachSample(&res.Report, stats.Sample, log)

	if err := model.WriteReport(out, res.Report); err != nil {
		return res, fmt.Errorf("write report: %w", err)
	}

	log.Info("training complete", "model", topts.ModelPath(), "vocab_size", res.Report.VocabSize)

	return res, nil
}

func trainerOptions(cfg config.Config, input string, spVocab int, special []string) trainer.Options {
	return trainer.Options{
		Input:                     input,
		ModelPrefix:               cfg.Output.ModelPrefix,
		VocabSize:                 spVocab,
		ModelType:                 cfg.Trainer.ModelType,
		CharacterCoverage:         cfg.Trainer.CharacterCoverage,
		ByteFallback:              cfg.Trainer.UseByteFallback(),
		NumThreads:                cfg.Trainer.NumThreads,
		SeedSentencepieceSize:     cfg.Trainer.SeedSentencepieceSize,
		InputSentenceSize:         cfg.Trainer.InputSentenceSize,
		ShuffleInputSentence:      cfg.Trainer.ShuffleInputSentence,
		TrainExtremelyLargeCorpus: cfg.Trainer.TrainExtremelyLargeCorpus,
		UserDefinedSymbols:        special,
	}
}

// attachSample encodes a prefix of the first corpus line with the trained
// model. Failures are logged, not returned.
func attachSample(r *model.Report, sample string, log *slog.Logger) {
	if sample == "" {
		return
	}

	if runes := []rune(sample); len(runes) > maxSampleRunes {
		sample = string(runes[:maxSampleRunes])
	}

	tok, err := tokenizer.Load(r.Path)
	if err != nil {
		log.Warn("sample encode skipped", "error", err)
		return
	}

	ids, err := tok.Encode(sample)
	if err != nil {
		log.Warn("sample encode failed", "error", err)
		return
	}

	r.SampleText = sample
	r.SampleIDs = ids
}
