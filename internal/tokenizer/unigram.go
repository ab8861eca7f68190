package tokenizer

import (
	"fmt"

	gosp "github.com/vikesh-raj/go-sentencepiece-encoder/sentencepiece"
)

// UnigramTokenizer encodes with the Viterbi search over piece scores. It
// accepts any model proto, so it serves unigram, char and word models.
type UnigramTokenizer struct {
	sp gosp.Sentencepiece
}

func NewUnigramTokenizer(modelPath string) (*UnigramTokenizer, error) {
	if modelPath == "" {
		return nil, ErrEmptyPath
	}

	sp, err := gosp.NewSentencepieceFromFile(modelPath, false)
	if err != nil {
		return nil, fmt.Errorf("load unigram model %q: %w", modelPath, err)
	}

	return &UnigramTokenizer{sp: sp}, nil
}

func (t *UnigramTokenizer) Encode(text string) ([]int64, error) {
	if text == "" {
		return []int64{}, nil
	}

	ids := t.sp.TokenizeToIDs(text)

	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		out = append(out, int64(id))
	}

	return out, nil
}
