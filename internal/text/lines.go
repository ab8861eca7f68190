package text

import (
	"bufio"
	"errors"
	"io"
	"strings"
	"unicode"
)

// EachLine calls fn for every line of r with its terminator removed. "\n",
// "\r\n" and a lone "\r" all end a line. Lines may be of any length.
func EachLine(r io.Reader, fn func(line string) error) error {
	br := bufio.NewReader(r)

	for {
		chunk, err := br.ReadString('\n')
		if chunk != "" {
			chunk = strings.TrimSuffix(chunk, "\n")
			chunk = strings.TrimSuffix(chunk, "\r")

			for _, line := range strings.Split(chunk, "\r") {
				if ferr := fn(line); ferr != nil {
					return ferr
				}
			}
		}

		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}

			return err
		}
	}
}

// IsSpace reports whether r is whitespace. On top of unicode.IsSpace it
// counts the information separators U+001C..U+001F.
func IsSpace(r rune) bool {
	return unicode.IsSpace(r) || (r >= 0x1c && r <= 0x1f)
}

// Trim removes leading and trailing IsSpace runes.
func Trim(s string) string {
	return strings.TrimFunc(s, IsSpace)
}
