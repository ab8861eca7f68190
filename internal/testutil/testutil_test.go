package testutil_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/example/go-spm-vocab/internal/testutil"
	gosp "github.com/vikesh-raj/go-sentencepiece-encoder/sentencepiece"
	"google.golang.org/protobuf/proto"
)

func TestWriteModel_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "m", "fixture.model")
	pieces := append(testutil.DefaultPieces("<sys>"), testutil.NormalPieces("a", "b")...)

	testutil.WriteModel(t, path, pieces)

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}

	var mp gosp.ModelProto
	if err := proto.Unmarshal(data, &mp); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	if len(mp.GetPieces()) != 6 {
		t.Fatalf("pieces = %d; want 6", len(mp.GetPieces()))
	}

	if got := mp.GetPieces()[3]; got.GetPiece() != "<sys>" || got.GetType() != gosp.ModelProto_SentencePiece_USER_DEFINED {
		t.Errorf("piece[3] = %q/%v; want <sys>/USER_DEFINED", got.GetPiece(), got.GetType())
	}
}

func TestWriteModelOfType_SetsTrainerSpec(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bpe.model")

	testutil.WriteModelOfType(t, path, gosp.TrainerSpec_BPE, testutil.DefaultPieces())

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}

	var mp gosp.ModelProto
	if err := proto.Unmarshal(data, &mp); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	if got := mp.GetTrainerSpec().GetModelType(); got != gosp.TrainerSpec_BPE {
		t.Errorf("model type = %v; want BPE", got)
	}
}

func TestRequireSPMTrain_SkipsWhenAbsent(t *testing.T) {
	t.Setenv("SPMVOCAB_TRAINER_SPM_TRAIN_PATH", "/nonexistent/spm_train")

	skipped := true

	t.Run("inner", func(t *testing.T) {
		testutil.RequireSPMTrain(t)

		skipped = false
	})

	if !skipped {
		t.Error("RequireSPMTrain did not skip for a missing binary")
	}
}
