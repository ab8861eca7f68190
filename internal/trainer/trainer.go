// Package trainer drives the external SentencePiece trainer. All vocabulary
// induction happens in that process; this package only builds its parameter
// set and runs it.
package trainer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"
)

// Options is the parameter set passed to the trainer.
type Options struct {
	Input                     string
	ModelPrefix               string
	VocabSize                 int
	ModelType                 string
	CharacterCoverage         float64
	ByteFallback              bool
	NumThreads                int
	SeedSentencepieceSize     int
	InputSentenceSize         int // 0 = all sentences
	ShuffleInputSentence      bool
	TrainExtremelyLargeCorpus bool
	UserDefinedSymbols        []string
}

// Args renders o as spm_train command line flags. Optional settings are
// only included when set.
func (o Options) Args() []string {
	args := []string{
		"--input=" + o.Input,
		"--model_prefix=" + o.ModelPrefix,
		"--vocab_size=" + strconv.Itoa(o.VocabSize),
		"--model_type=" + o.ModelType,
		"--character_coverage=" + strconv.FormatFloat(o.CharacterCoverage, 'g', -1, 64),
		"--byte_fallback=" + strconv.FormatBool(o.ByteFallback),
		"--num_threads=" + strconv.Itoa(o.NumThreads),
		"--seed_sentencepiece_size=" + strconv.Itoa(o.SeedSentencepieceSize),
	}

	if o.InputSentenceSize > 0 {
		args = append(args, "--input_sentence_size="+strconv.Itoa(o.InputSentenceSize))
	}
	if o.ShuffleInputSentence {
		args = append(args, "--shuffle_input_sentence=true")
	}
	if o.TrainExtremelyLargeCorpus {
		args = append(args, "--train_extremely_large_corpus=true")
	}
	if len(o.UserDefinedSymbols) > 0 {
		args = append(args, "--user_defined_symbols="+strings.Join(o.UserDefinedSymbols, ","))
	}

	return args
}

// ModelPath is the model artifact the trainer writes for o.
func (o Options) ModelPath() string { return o.ModelPrefix + ".model" }

// VocabPath is the vocabulary listing the trainer writes for o.
func (o Options) VocabPath() string { return o.ModelPrefix + ".vocab" }

// Trainer produces {prefix}.model and {prefix}.vocab from a corpus file.
type Trainer interface {
	Train(ctx context.Context, opts Options) error
}

// ToolingValidator is implemented by trainers that can check their external
// tooling before a run does any work.
type ToolingValidator interface {
	ValidateTooling() error
}

// SPMTrain runs the spm_train executable.
type SPMTrain struct {
	// Bin is the executable name or path; "spm_train" when empty.
	Bin    string
	Stdout io.Writer
	Stderr io.Writer
}

func (t SPMTrain) bin() string {
	if t.Bin == "" {
		return "spm_train"
	}
	return t.Bin
}

// ValidateTooling checks that the trainer executable can be found.
func (t SPMTrain) ValidateTooling() error {
	if _, err := exec.LookPath(t.bin()); err != nil {
		return fmt.Errorf("sentencepiece trainer %q not found: %w", t.bin(), err)
	}
	return nil
}

// Version runs `spm_train --version` and returns its trimmed output.
func (t SPMTrain) Version(ctx context.Context) (string, error) {
	out, err := exec.CommandContext(ctx, t.bin(), "--version").CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("%s --version failed: %w", t.bin(), err)
	}

	return strings.TrimSpace(string(out)), nil
}

func (t SPMTrain) Train(ctx context.Context, opts Options) error {
	if opts.Input == "" {
		return errors.New("trainer input file is required")
	}
	if opts.ModelPrefix == "" {
		return errors.New("model prefix is required")
	}
	if err := t.ValidateTooling(); err != nil {
		return err
	}

	stdout, stderr := t.Stdout, t.Stderr
	if stdout == nil {
		stdout = io.Discard
	}
	if stderr == nil {
		stderr = os.Stderr
	}

	// #nosec G204 -- The trainer binary is operator-configured and arguments are passed without a shell.
	cmd := exec.CommandContext(ctx, t.bin(), opts.Args()...)
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("run %s: %w", t.bin(), err)
	}

	if _, err := os.Stat(opts.ModelPath()); err != nil {
		return fmt.Errorf("trainer finished without writing model: %w", err)
	}

	return nil
}
