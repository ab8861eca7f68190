package vocab

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "special.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	return path
}

func TestLoadSpecialTokens_EmptyPath(t *testing.T) {
	tokens, err := LoadSpecialTokens("")
	require.NoError(t, err)
	assert.Empty(t, tokens)
}

func TestLoadSpecialTokens_TrimsAndSkipsBlank(t *testing.T) {
	path := writeFile(t, "<sys>\n\n  <usr>  \r\n\t\n<bot>")

	tokens, err := LoadSpecialTokens(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"<sys>", "<usr>", "<bot>"}, tokens)
}

func TestLoadSpecialTokens_CarriageReturns(t *testing.T) {
	tokens, err := LoadSpecialTokens(writeFile(t, "<a>\r<b>\r\n\x1c<c>\x1f\r"))
	require.NoError(t, err)
	assert.Equal(t, []string{"<a>", "<b>", "<c>"}, tokens)
}

func TestLoadSpecialTokens_KeepsDuplicates(t *testing.T) {
	path := writeFile(t, "<a>\n<b>\n<a>\n")

	tokens, err := LoadSpecialTokens(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"<a>", "<b>", "<a>"}, tokens)
	assert.Equal(t, []string{"<a>"}, Duplicates(tokens))
}

func TestLoadSpecialTokens_MissingFile(t *testing.T) {
	_, err := LoadSpecialTokens(filepath.Join(t.TempDir(), "missing.txt"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestBudget(t *testing.T) {
	sp, err := Budget(1000, []string{"<sys>", "<usr>"})
	require.NoError(t, err)
	assert.Equal(t, 998, sp)

	sp, err = Budget(65536, nil)
	require.NoError(t, err)
	assert.Equal(t, 65536, sp)
}

func TestBudget_Infeasible(t *testing.T) {
	tests := []struct {
		name    string
		total   int
		special []string
	}{
		{"equal", 2, []string{"<a>", "<b>"}},
		{"smaller", 1, []string{"<a>", "<b>"}},
		{"zero total", 0, nil},
		{"negative total", -5, []string{"<a>"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Budget(tt.total, tt.special)
			require.Error(t, err)

			var be *BudgetError
			require.ErrorAs(t, err, &be)
			assert.Equal(t, tt.total, be.Total)
			assert.Equal(t, len(tt.special), be.Special)
			assert.LessOrEqual(t, be.Remaining(), 0)
			assert.Contains(t, err.Error(), "is too small")
		})
	}
}

func TestDuplicates_None(t *testing.T) {
	assert.Empty(t, Duplicates([]string{"<a>", "<b>"}))
}
