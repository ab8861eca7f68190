package model

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/example/go-spm-vocab/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gosp "github.com/vikesh-raj/go-sentencepiece-encoder/sentencepiece"
)

func fixtureModel(t *testing.T, pieces []testutil.Piece) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "tok.model")
	testutil.WriteModel(t, path, pieces)

	return path
}

func TestLoad_EmptyPath(t *testing.T) {
	_, err := Load("")
	require.True(t, errors.Is(err, ErrEmptyPath))
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.model"))
	require.Error(t, err)
}

func TestLoad_Garbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.model")
	require.NoError(t, os.WriteFile(path, []byte{0xff, 0xff, 0xff, 0xff}, 0o644))

	_, err := Load(path)
	require.Error(t, err)
}

func TestInspect(t *testing.T) {
	pieces := append(testutil.DefaultPieces("<sys>", "<usr>"), testutil.NormalPieces("▁a", "b", "c")...)
	path := fixtureModel(t, pieces)

	r, err := Inspect(path, []string{"<sys>", "<usr>", "<missing>"})
	require.NoError(t, err)

	assert.Equal(t, path, r.Path)
	assert.Equal(t, 8, r.VocabSize)
	assert.Equal(t, 0, r.UnkID)
	assert.Equal(t, 1, r.BosID)
	assert.Equal(t, 2, r.EosID)
	assert.Equal(t, -1, r.PadID)
	assert.Equal(t, []TokenID{{"<sys>", 3}, {"<usr>", 4}, {"<missing>", 0}}, r.Special)
	assert.Equal(t, map[string]int{"UNKNOWN": 1, "CONTROL": 2, "USER_DEFINED": 2, "NORMAL": 3}, r.TypeCounts)
}

func TestInspect_PadAndNonControlNames(t *testing.T) {
	pieces := []testutil.Piece{
		{Text: "<pad>", Type: gosp.ModelProto_SentencePiece_CONTROL},
		{Text: "<unk>", Type: gosp.ModelProto_SentencePiece_UNKNOWN},
		{Text: "<s>", Type: gosp.ModelProto_SentencePiece_NORMAL},
	}
	path := fixtureModel(t, pieces)

	r, err := Inspect(path, nil)
	require.NoError(t, err)

	assert.Equal(t, 0, r.PadID)
	assert.Equal(t, 1, r.UnkID)
	assert.Equal(t, -1, r.BosID, "a NORMAL piece named <s> is not the BOS control piece")
	assert.Equal(t, -1, r.EosID)
	assert.Empty(t, r.Special)
}

func TestModel_Lookups(t *testing.T) {
	m, err := Load(fixtureModel(t, append(testutil.DefaultPieces(), testutil.NormalPieces("x")...)))
	require.NoError(t, err)

	assert.Equal(t, 4, m.PieceCount())
	assert.Equal(t, 3, m.PieceToID("x"))
	assert.Equal(t, m.UnknownID(), m.PieceToID("y"))
	assert.False(t, m.IsBPE())

	id, ok := m.Lookup("<s>")
	assert.True(t, ok)
	assert.Equal(t, 1, id)
	assert.False(t, m.Mergeable(id))
	assert.True(t, m.Mergeable(3))
	assert.Equal(t, float32(-1), m.Score(3))

	_, ok = m.ByteID('x')
	assert.False(t, ok)
}

func TestModel_BPEAndBytePieces(t *testing.T) {
	pieces := append(testutil.DefaultPieces("<sys>"),
		testutil.Piece{Text: "<0x41>", Type: gosp.ModelProto_SentencePiece_BYTE},
		testutil.Piece{Text: "<0x42>", Type: gosp.ModelProto_SentencePiece_NORMAL},
	)

	path := filepath.Join(t.TempDir(), "bpe.model")
	testutil.WriteModelOfType(t, path, gosp.TrainerSpec_BPE, pieces)

	m, err := Load(path)
	require.NoError(t, err)

	assert.True(t, m.IsBPE())
	assert.Equal(t, []string{"<sys>"}, m.UserDefined())

	id, ok := m.ByteID('A')
	assert.True(t, ok)
	assert.Equal(t, 4, id)

	_, ok = m.ByteID('B')
	assert.False(t, ok, "a NORMAL piece spelled like a byte is not a byte piece")
}

func TestWriteReport(t *testing.T) {
	r := Report{
		VocabSize:  1000,
		UnkID:      0,
		BosID:      1,
		EosID:      2,
		PadID:      -1,
		Special:    []TokenID{{"<sys>", 3}, {"<usr>", 4}},
		TypeCounts: map[string]int{"NORMAL": 995, "UNKNOWN": 1},
		SampleText: "hello",
		SampleIDs:  []int64{7, 8},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteReport(&buf, r))

	out := buf.String()
	assert.Contains(t, out, "Model verification:")
	assert.Contains(t, out, "Total vocab size: 1000")
	assert.Contains(t, out, "(includes 2 special tokens)")
	assert.Contains(t, out, "Piece types: NORMAL=995, UNKNOWN=1")
	assert.Contains(t, out, "UNK ID: 0")
	assert.Contains(t, out, "BOS ID: 1")
	assert.Contains(t, out, "EOS ID: 2")
	assert.Contains(t, out, "PAD ID: -1")
	assert.Contains(t, out, "<sys>: 3")
	assert.Contains(t, out, "<usr>: 4")
	assert.Contains(t, out, `"hello" -> [7 8]`)
}

func TestWriteReport_NoSpecialTokens(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteReport(&buf, Report{VocabSize: 10, PadID: -1}))

	assert.NotContains(t, buf.String(), "User-defined special token IDs")
	assert.NotContains(t, buf.String(), "Sample encoding")
}
