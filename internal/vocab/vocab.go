// Package vocab loads user-defined special tokens and works out how much of
// the total vocabulary target is left for the SentencePiece trainer.
package vocab

import (
	"fmt"
	"os"

	"github.com/example/go-spm-vocab/internal/text"
)

// BudgetError reports a vocabulary target too small to hold the special tokens.
type BudgetError struct {
	Total   int
	Special int
}

// Remaining is the (non-positive) trainer vocabulary that would result.
func (e *BudgetError) Remaining() int { return e.Total - e.Special }

func (e *BudgetError) Error() string {
	return fmt.Sprintf(
		"vocab_size (%d) is too small.\n  - Special tokens: %d\n  Resulting SentencePiece vocab would be: %d",
		e.Total, e.Special, e.Remaining(),
	)
}

// Budget returns the vocabulary size handed to the trainer: the total target
// minus one slot per special token. Duplicates in special are counted as-is.
func Budget(total int, special []string) (int, error) {
	sp := total - len(special)
	if sp <= 0 {
		return 0, &BudgetError{Total: total, Special: len(special)}
	}

	return sp, nil
}

// LoadSpecialTokens reads one token per line from path. Lines are trimmed and
// blank lines dropped; order is preserved. An empty path yields no tokens.
func LoadSpecialTokens(path string) ([]string, error) {
	if path == "" {
		return []string{}, nil
	}

	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open special tokens file: %w", err)
	}
	defer fh.Close()

	tokens := []string{}

	err = text.EachLine(fh, func(line string) error {
		if token := text.Trim(line); token != "" {
			tokens = append(tokens, token)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("read special tokens file %q: %w", path, err)
	}

	return tokens, nil
}

// Duplicates returns each token that occurs more than once, in order of its
// second occurrence.
func Duplicates(tokens []string) []string {
	seen := make(map[string]int, len(tokens))

	var dups []string

	for _, tok := range tokens {
		seen[tok]++
		if seen[tok] == 2 {
			dups = append(dups, tok)
		}
	}

	return dups
}
