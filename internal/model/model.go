// Package model reads a trained SentencePiece model back and reports what
// ended up in its vocabulary.
package model

import (
	"errors"
	"fmt"
	"os"

	gosp "github.com/vikesh-raj/go-sentencepiece-encoder/sentencepiece"
	"google.golang.org/protobuf/proto"
)

// ErrEmptyPath is returned when Load is called with an empty path.
var ErrEmptyPath = errors.New("model path must not be empty")

// Names of the built-in control pieces the trainer reserves by default.
const (
	PieceBOS = "<s>"
	PieceEOS = "</s>"
	PiecePad = "<pad>"
)

// Model is a decoded SentencePiece model proto with a piece lookup index.
type Model struct {
	pieces    []*gosp.ModelProto_SentencePiece
	index     map[string]int
	unkID     int
	modelType gosp.TrainerSpec_ModelType
}

// Load decodes the model file at path.
func Load(path string) (*Model, error) {
	if path == "" {
		return nil, ErrEmptyPath
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model: %w", err)
	}

	var mp gosp.ModelProto
	if err := proto.Unmarshal(data, &mp); err != nil {
		return nil, fmt.Errorf("unmarshal sentencepiece model %q: %w", path, err)
	}

	m := &Model{
		pieces:    mp.GetPieces(),
		index:     make(map[string]int, len(mp.GetPieces())),
		unkID:     -1,
		modelType: mp.GetTrainerSpec().GetModelType(),
	}

	for i, p := range m.pieces {
		if _, dup := m.index[p.GetPiece()]; !dup {
			m.index[p.GetPiece()] = i
		}

		if m.unkID < 0 && p.GetType() == gosp.ModelProto_SentencePiece_UNKNOWN {
			m.unkID = i
		}
	}

	return m, nil
}

// PieceCount is the total vocabulary size, special tokens included.
func (m *Model) PieceCount() int { return len(m.pieces) }

// UnknownID is the id of the unknown piece, or -1 if the model has none.
func (m *Model) UnknownID() int { return m.unkID }

// PieceToID returns the id of piece by exact match, or UnknownID when the
// piece is not in the vocabulary.
func (m *Model) PieceToID(piece string) int {
	if id, ok := m.index[piece]; ok {
		return id
	}

	return m.unkID
}

// IsBPE reports whether the trainer spec stored in the model says BPE.
// Models without a trainer spec read as unigram.
func (m *Model) IsBPE() bool { return m.modelType == gosp.TrainerSpec_BPE }

// Lookup returns the id of piece by exact match.
func (m *Model) Lookup(piece string) (int, bool) {
	id, ok := m.index[piece]
	return id, ok
}

// Score returns the score of the piece with the given id.
func (m *Model) Score(id int) float32 { return m.pieces[id].GetScore() }

// Mergeable reports whether id names a piece a BPE merge may produce.
func (m *Model) Mergeable(id int) bool {
	switch m.pieces[id].GetType() {
	case gosp.ModelProto_SentencePiece_NORMAL, gosp.ModelProto_SentencePiece_USER_DEFINED:
		return true
	default:
		return false
	}
}

// UserDefined returns the user-defined pieces in id order.
func (m *Model) UserDefined() []string {
	var out []string
	for _, p := range m.pieces {
		if p.GetType() == gosp.ModelProto_SentencePiece_USER_DEFINED {
			out = append(out, p.GetPiece())
		}
	}

	return out
}

// ByteID returns the id of the byte fallback piece for b, if the model has one.
func (m *Model) ByteID(b byte) (int, bool) {
	id, ok := m.index[fmt.Sprintf("<0x%02X>", b)]
	if !ok || m.pieces[id].GetType() != gosp.ModelProto_SentencePiece_BYTE {
		return 0, false
	}

	return id, true
}

// controlID returns the id of a CONTROL piece, or -1 if it is absent.
func (m *Model) controlID(piece string) int {
	id, ok := m.index[piece]
	if !ok || m.pieces[id].GetType() != gosp.ModelProto_SentencePiece_CONTROL {
		return -1
	}

	return id
}

// TypeCounts returns how many pieces the model holds per piece type.
func (m *Model) TypeCounts() map[string]int {
	counts := make(map[string]int)
	for _, p := range m.pieces {
		counts[p.GetType().String()]++
	}

	return counts
}
