package tokenizer

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/example/go-spm-vocab/internal/model"
)

// sep is the whitespace marker the trainer substitutes for spaces.
const sep = '\u2581'

// BPETokenizer applies a BPE model's merges greedily by piece score, the
// highest-scoring adjacent pair first and the leftmost pair on ties.
// User-defined pieces are matched whole and never merged. Symbols missing
// from the vocabulary fall back to byte pieces, then to the unknown id.
type BPETokenizer struct {
	m           *model.Model
	userDefined []string
}

// NewBPETokenizer loads a BPE SentencePiece model from the given path.
// Models of any other type are rejected.
func NewBPETokenizer(modelPath string) (*BPETokenizer, error) {
	if modelPath == "" {
		return nil, ErrEmptyPath
	}

	m, err := model.Load(modelPath)
	if err != nil {
		return nil, err
	}

	return newBPETokenizer(m)
}

func newBPETokenizer(m *model.Model) (*BPETokenizer, error) {
	if !m.IsBPE() {
		return nil, ErrNotBPE
	}

	return &BPETokenizer{m: m, userDefined: m.UserDefined()}, nil
}

type symbol struct {
	text   string
	frozen bool
}

// Encode tokenizes text and returns SentencePiece token IDs as int64.
func (t *BPETokenizer) Encode(text string) ([]int64, error) {
	if text == "" {
		return []int64{}, nil
	}

	syms := t.split(prepare(text))

	for {
		best, bestScore := -1, float32(0)

		for i := 0; i+1 < len(syms); i++ {
			if syms[i].frozen || syms[i+1].frozen {
				continue
			}

			id, ok := t.m.Lookup(syms[i].text + syms[i+1].text)
			if !ok || !t.m.Mergeable(id) {
				continue
			}

			if score := t.m.Score(id); best < 0 || score > bestScore {
				best, bestScore = i, score
			}
		}

		if best < 0 {
			break
		}

		syms[best].text += syms[best+1].text
		syms = append(syms[:best+1], syms[best+2:]...)
	}

	ids := make([]int64, 0, len(syms))
	for _, s := range syms {
		ids = t.appendIDs(ids, s.text)
	}

	return ids, nil
}

// prepare maps whitespace to the separator and adds the leading separator.
func prepare(text string) string {
	text = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return sep
		}
		return r
	}, text)

	if r, _ := utf8.DecodeRuneInString(text); r != sep {
		text = string(sep) + text
	}

	return text
}

// split cuts text into single runes, keeping user-defined pieces whole.
func (t *BPETokenizer) split(text string) []symbol {
	var syms []symbol

	for text != "" {
		if ud := t.matchUserDefined(text); ud != "" {
			syms = append(syms, symbol{text: ud, frozen: true})
			text = text[len(ud):]

			continue
		}

		_, size := utf8.DecodeRuneInString(text)
		syms = append(syms, symbol{text: text[:size]})
		text = text[size:]
	}

	return syms
}

// matchUserDefined returns the longest user-defined piece prefixing text.
func (t *BPETokenizer) matchUserDefined(text string) string {
	best := ""
	for _, ud := range t.userDefined {
		if len(ud) > len(best) && strings.HasPrefix(text, ud) {
			best = ud
		}
	}

	return best
}

func (t *BPETokenizer) appendIDs(ids []int64, piece string) []int64 {
	if id, ok := t.m.Lookup(piece); ok && t.m.Mergeable(id) {
		return append(ids, int64(id))
	}

	byteIDs := make([]int64, 0, len(piece))
	for i := 0; i < len(piece); i++ {
		id, ok := t.m.ByteID(piece[i])
		if !ok {
			return append(ids, int64(t.m.UnknownID()))
		}
		byteIDs = append(byteIDs, int64(id))
	}

	return append(ids, byteIDs...)
}
