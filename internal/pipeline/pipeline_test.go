package pipeline

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/go-spm-vocab/internal/config"
	"github.com/example/go-spm-vocab/internal/corpus"
	"github.com/example/go-spm-vocab/internal/testutil"
	"github.com/example/go-spm-vocab/internal/trainer"
	"github.com/example/go-spm-vocab/internal/vocab"
)

// fakeTrainer records the options it was called with and writes a fixture
// model containing the requested user-defined symbols.
type fakeTrainer struct {
	t      *testing.T
	calls  int
	opts   trainer.Options
	corpus string
	err    error
}

func (f *fakeTrainer) Train(_ context.Context, opts trainer.Options) error {
	f.calls++
	f.opts = opts

	data, err := os.ReadFile(opts.Input)
	require.NoError(f.t, err)
	f.corpus = string(data)

	if f.err != nil {
		return f.err
	}

	pieces := append(testutil.DefaultPieces(opts.UserDefinedSymbols...), testutil.NormalPieces("\u2581hello", "\u2581world")...)
	testutil.WriteModel(f.t, opts.ModelPath(), pieces)

	return os.WriteFile(opts.VocabPath(), []byte("<unk>\t0\n"), 0o644)
}

type fixture struct {
	cfg     config.Config
	scratch string
	special string
}

func newFixture(t *testing.T) fixture {
	t.Helper()

	dir := t.TempDir()
	inputs := filepath.Join(dir, "data")
	require.NoError(t, os.MkdirAll(inputs, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(inputs, "a.txt"), []byte("hello world\n\n  second line  \n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(inputs, "b.jsonl"), []byte(`{"text":"from jsonl"}`+"\nnot json\n"), 0o644))

	special := filepath.Join(dir, "special.txt")
	require.NoError(t, os.WriteFile(special, []byte("<sys>\n\n<usr>\n"), 0o644))

	scratch := filepath.Join(dir, "scratch")
	require.NoError(t, os.MkdirAll(scratch, 0o755))

	cfg := config.DefaultConfig()
	cfg.Input.Paths = inputs
	cfg.Input.ScratchDir = scratch
	cfg.Output.ModelPrefix = filepath.Join(dir, "out", "tok")
	cfg.Trainer.SpecialTokens = special
	cfg.Trainer.VocabSize = 1000

	return fixture{cfg: cfg, scratch: scratch, special: special}
}

func assertScratchEmpty(t *testing.T, dir string) {
	t.Helper()

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "scratch corpus left behind")
}

func TestRun_Success(t *testing.T) {
	fx := newFixture(t)
	ft := &fakeTrainer{t: t}

	var out bytes.Buffer

	res, err := Run(context.Background(), Options{Config: fx.cfg, Trainer: ft, Stdout: &out})
	require.NoError(t, err)

	assert.Equal(t, 1, ft.calls)
	assert.Equal(t, 998, ft.opts.VocabSize)
	assert.Equal(t, 998, res.SPVocabSize)
	assert.Equal(t, []string{"<sys>", "<usr>"}, ft.opts.UserDefinedSymbols)
	assert.True(t, ft.opts.ByteFallback)
	assert.Equal(t, "bpe", ft.opts.ModelType)
	assert.Equal(t, "hello world\nsecond line\nfrom jsonl\n", ft.corpus)

	assert.Equal(t, 3, res.Lines)
	assert.Len(t, res.Files, 2)
	assert.NotEmpty(t, res.RunID)

	assert.Equal(t, 5, res.Report.VocabSize)
	assert.Equal(t, 0, res.Report.UnkID)
	assert.Equal(t, 1, res.Report.BosID)
	assert.Equal(t, 2, res.Report.EosID)
	assert.Equal(t, -1, res.Report.PadID)
	require.Len(t, res.Report.Special, 2)
	assert.Equal(t, 3, res.Report.Special[0].ID)
	assert.Equal(t, 4, res.Report.Special[1].ID)

	text := out.String()
	for _, want := range []string{
		"Target total vocab size: 1000",
		"  - Special tokens: 2",
		"  = SentencePiece vocab size: 998",
		"Found 2 input file(s)",
		"Collected 3 lines of text",
		"Building SentencePiece vocabulary...",
		"Model saved to:",
		fx.cfg.Output.ModelPrefix + ".model",
		"Total vocab size: 5",
	} {
		assert.Contains(t, text, want)
	}

	assertScratchEmpty(t, fx.scratch)
	assert.NoFileExists(t, fx.cfg.Output.ModelPrefix+".lock")
}

func TestRun_NoByteFallbackWins(t *testing.T) {
	fx := newFixture(t)
	fx.cfg.Trainer.NoByteFallback = true
	ft := &fakeTrainer{t: t}

	_, err := Run(context.Background(), Options{Config: fx.cfg, Trainer: ft, Stdout: &bytes.Buffer{}})
	require.NoError(t, err)
	assert.False(t, ft.opts.ByteFallback)
}

func TestRun_BudgetInfeasible(t *testing.T) {
	fx := newFixture(t)
	fx.cfg.Trainer.VocabSize = 2
	ft := &fakeTrainer{t: t}

	_, err := Run(context.Background(), Options{Config: fx.cfg, Trainer: ft, Stdout: &bytes.Buffer{}})

	var budgetErr *vocab.BudgetError
	require.ErrorAs(t, err, &budgetErr)
	assert.Equal(t, 0, budgetErr.Remaining())
	assert.Zero(t, ft.calls)
	assertScratchEmpty(t, fx.scratch)
}

func TestRun_NoInputs(t *testing.T) {
	fx := newFixture(t)
	fx.cfg.Input.Paths = filepath.Join(t.TempDir(), "missing")
	ft := &fakeTrainer{t: t}

	_, err := Run(context.Background(), Options{Config: fx.cfg, Trainer: ft, Stdout: &bytes.Buffer{}})
	require.ErrorIs(t, err, ErrNoInputs)
	assert.Zero(t, ft.calls)
}

func TestRun_NoText(t *testing.T) {
	fx := newFixture(t)
	empty := filepath.Join(t.TempDir(), "empty.txt")
	require.NoError(t, os.WriteFile(empty, []byte("\n   \n"), 0o644))
	fx.cfg.Input.Paths = empty
	ft := &fakeTrainer{t: t}

	var out bytes.Buffer

	_, err := Run(context.Background(), Options{Config: fx.cfg, Trainer: ft, Stdout: &out})
	require.ErrorIs(t, err, corpus.ErrNoText)
	assert.Contains(t, out.String(), "Collected 0 lines of text")
	assert.Zero(t, ft.calls)
	assertScratchEmpty(t, fx.scratch)
}

// missingTooling is a trainer whose executable cannot be found.
type missingTooling struct {
	fakeTrainer
	checked int
}

func (m *missingTooling) ValidateTooling() error {
	m.checked++
	return errTrainerMissing
}

var errTrainerMissing = errors.New("spm_train not found")

func TestRun_BudgetCheckedBeforeTooling(t *testing.T) {
	fx := newFixture(t)
	fx.cfg.Trainer.VocabSize = 1
	mt := &missingTooling{fakeTrainer: fakeTrainer{t: t}}

	_, err := Run(context.Background(), Options{Config: fx.cfg, Trainer: mt, Stdout: &bytes.Buffer{}})

	var budgetErr *vocab.BudgetError
	require.ErrorAs(t, err, &budgetErr)
	assert.Zero(t, mt.checked)
}

func TestRun_ToolingCheckedBeforeCollect(t *testing.T) {
	fx := newFixture(t)
	mt := &missingTooling{fakeTrainer: fakeTrainer{t: t}}

	var out bytes.Buffer

	_, err := Run(context.Background(), Options{Config: fx.cfg, Trainer: mt, Stdout: &out})
	require.ErrorIs(t, err, errTrainerMissing)
	assert.Equal(t, 1, mt.checked)
	assert.Zero(t, mt.calls)
	assert.NotContains(t, out.String(), "Collected")
	assert.NoFileExists(t, fx.cfg.Output.ModelPrefix+".lock")
}

func TestRun_TrainerFailureCleansUp(t *testing.T) {
	fx := newFixture(t)
	boom := errors.New("trainer exploded")
	ft := &fakeTrainer{t: t, err: boom}

	_, err := Run(context.Background(), Options{Config: fx.cfg, Trainer: ft, Stdout: &bytes.Buffer{}})
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 1, ft.calls)
	assertScratchEmpty(t, fx.scratch)
	assert.NoFileExists(t, fx.cfg.Output.ModelPrefix+".lock")
}

func TestRun_PrefixLocked(t *testing.T) {
	fx := newFixture(t)

	held, err := trainer.LockPrefix(fx.cfg.Output.ModelPrefix)
	require.NoError(t, err)
	t.Cleanup(func() { _ = held.Release() })

	ft := &fakeTrainer{t: t}

	_, err = Run(context.Background(), Options{Config: fx.cfg, Trainer: ft, Stdout: &bytes.Buffer{}})
	require.ErrorIs(t, err, trainer.ErrPrefixLocked)
	assert.Zero(t, ft.calls)
}

func TestRun_NilTrainer(t *testing.T) {
	fx := newFixture(t)

	_, err := Run(context.Background(), Options{Config: fx.cfg})
	require.Error(t, err)
}
