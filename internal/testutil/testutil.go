// Package testutil provides shared helpers for tests: skip helpers for
// external tooling and synthetic SentencePiece model fixtures.
//
// Typical usage:
//
//	func TestRealTraining(t *testing.T) {
//	    bin := testutil.RequireSPMTrain(t)
//	    ...
//	}
package testutil

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	gosp "github.com/vikesh-raj/go-sentencepiece-encoder/sentencepiece"
	"google.golang.org/protobuf/proto"
)

// RequireSPMTrain skips the test if the spm_train binary is not found in
// PATH or at the path given by SPMVOCAB_TRAINER_SPM_TRAIN_PATH. It returns
// the resolved executable.
func RequireSPMTrain(tb testing.TB) string {
	tb.Helper()

	exe := os.Getenv("SPMVOCAB_TRAINER_SPM_TRAIN_PATH")
	if exe == "" {
		exe = "spm_train"
	}

	path, err := exec.LookPath(exe)
	if err != nil {
		tb.Skipf("spm_train not available (%q not in PATH); set SPMVOCAB_TRAINER_SPM_TRAIN_PATH to override", exe)
	}

	return path
}

// Piece describes one vocabulary entry of a fixture model.
type Piece struct {
	Text  string
	Type  gosp.ModelProto_SentencePiece_Type
	Score float32
}

// DefaultPieces returns the reserved pieces the trainer emits by default:
// <unk>, <s>, </s>, followed by the given user-defined symbols.
func DefaultPieces(userDefined ...string) []Piece {
	pieces := []Piece{
		{Text: "<unk>", Type: gosp.ModelProto_SentencePiece_UNKNOWN},
		{Text: "<s>", Type: gosp.ModelProto_SentencePiece_CONTROL},
		{Text: "</s>", Type: gosp.ModelProto_SentencePiece_CONTROL},
	}

	for _, s := range userDefined {
		pieces = append(pieces, Piece{Text: s, Type: gosp.ModelProto_SentencePiece_USER_DEFINED})
	}

	return pieces
}

// NormalPieces returns NORMAL pieces with descending scores.
func NormalPieces(texts ...string) []Piece {
	pieces := make([]Piece, 0, len(texts))
	for i, s := range texts {
		pieces = append(pieces, Piece{Text: s, Type: gosp.ModelProto_SentencePiece_NORMAL, Score: -float32(i + 1)})
	}

	return pieces
}

// WriteModel serializes pieces as a SentencePiece model proto at path. The
// proto carries no trainer spec, so readers treat it as a unigram model.
func WriteModel(tb testing.TB, path string, pieces []Piece) {
	tb.Helper()

	writeModel(tb, path, &gosp.ModelProto{Pieces: protoPieces(pieces)})
}

// WriteModelOfType is WriteModel with a trainer spec naming modelType.
func WriteModelOfType(tb testing.TB, path string, modelType gosp.TrainerSpec_ModelType, pieces []Piece) {
	tb.Helper()

	writeModel(tb, path, &gosp.ModelProto{
		Pieces:      protoPieces(pieces),
		TrainerSpec: &gosp.TrainerSpec{ModelType: modelType.Enum()},
	})
}

func protoPieces(pieces []Piece) []*gosp.ModelProto_SentencePiece {
	out := make([]*gosp.ModelProto_SentencePiece, 0, len(pieces))
	for _, p := range pieces {
		out = append(out, &gosp.ModelProto_SentencePiece{
			Piece: proto.String(p.Text),
			Score: proto.Float32(p.Score),
			Type:  p.Type.Enum(),
		})
	}

	return out
}

func writeModel(tb testing.TB, path string, mp *gosp.ModelProto) {
	tb.Helper()

	data, err := proto.Marshal(mp)
	if err != nil {
		tb.Fatalf("marshal fixture model: %v", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		tb.Fatalf("create fixture dir: %v", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		tb.Fatalf("write fixture model: %v", err)
	}
}
