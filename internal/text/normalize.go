// Package text holds the line-level cleanup applied to every corpus line
// before it reaches the trainer.
package text

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalizer turns one extracted string into a corpus line. ok is false when
// nothing is left after cleanup.
type Normalizer func(s string) (line string, ok bool)

// NewNormalizer returns a Normalizer that trims surrounding whitespace and,
// for "nfc" or "nfkc", applies that Unicode normalization form.
func NewNormalizer(form string) (Normalizer, error) {
	var f *norm.Form

	switch strings.ToLower(form) {
	case "", "none":
	case "nfc":
		nfc := norm.NFC
		f = &nfc
	case "nfkc":
		nfkc := norm.NFKC
		f = &nfkc
	default:
		return nil, fmt.Errorf("unsupported normalization form %q", form)
	}

	return func(s string) (string, bool) {
		s = Trim(s)
		if f != nil && s != "" {
			s = Trim(f.String(s))
		}

		return s, s != ""
	}, nil
}

// NewUTF8Reader decodes r as UTF-8, dropping a leading byte order mark.
// Invalid byte sequences decode to U+FFFD.
func NewUTF8Reader(r io.Reader) io.Reader {
	return transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
}
