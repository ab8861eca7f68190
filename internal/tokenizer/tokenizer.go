// Package tokenizer opens a freshly trained SentencePiece model for a smoke
// encode. BPE models are encoded by replaying their merges; every other
// model type goes through the Viterbi unigram encoder.
package tokenizer

import (
	"errors"
	"log/slog"

	"github.com/example/go-spm-vocab/internal/model"
)

var (
	// ErrEmptyPath is returned when a tokenizer is loaded from an empty path.
	ErrEmptyPath = errors.New("tokenizer model path must not be empty")
	// ErrNotBPE is returned by NewBPETokenizer for non-BPE models.
	ErrNotBPE = errors.New("model is not a BPE model")
)

// Tokenizer encodes text into SentencePiece token IDs.
type Tokenizer interface {
	// Encode tokenizes text and returns SentencePiece token IDs.
	Encode(text string) ([]int64, error)
}

// Load opens modelPath with the encoder matching its model type.
func Load(modelPath string) (Tokenizer, error) {
	if modelPath == "" {
		return nil, ErrEmptyPath
	}

	m, err := model.Load(modelPath)
	if err != nil {
		return nil, err
	}

	if m.IsBPE() {
		return newBPETokenizer(m)
	}

	slog.Debug("using unigram encoder", "path", modelPath)

	return NewUnigramTokenizer(modelPath)
}
