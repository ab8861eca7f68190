package corpus

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/example/go-spm-vocab/internal/text"
)

// EmitFunc receives each extracted, trimmed, non-empty string.
type EmitFunc func(s string) error

func emitTrimmed(s string, emit EmitFunc) error {
	if s = text.Trim(s); s != "" {
		return emit(s)
	}

	return nil
}

// ReadText emits the non-blank lines of r in order.
func ReadText(r io.Reader, emit EmitFunc) error {
	return text.EachLine(r, func(line string) error {
		return emitTrimmed(line, emit)
	})
}

// ReadJSONL emits the text held under key in each JSON object line of r.
//
// A string value is emitted directly. A list value is treated as a sequence
// of turns: every string-valued entry of every object element is emitted in
// document order. Lines that are not valid JSON objects are skipped.
func ReadJSONL(r io.Reader, key string, emit EmitFunc) error {
	return text.EachLine(r, func(line string) error {
		line = text.Trim(line)
		if line == "" {
			return nil
		}

		record, ok := decodeRecord(line)
		if !ok {
			return nil
		}

		raw, ok := record[key]
		if !ok {
			return nil
		}

		return emitValue(raw, emit)
	})
}

func emitValue(raw json.RawMessage, emit EmitFunc) error {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return emitTrimmed(s, emit)
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil
	}

	for _, item := range items {
		for _, v := range objectStrings(item) {
			if err := emitTrimmed(v, emit); err != nil {
				return err
			}
		}
	}

	return nil
}

// decodeRecord parses one JSONL line as an object. Bare NaN, Infinity and
// -Infinity literals are accepted and read as null.
func decodeRecord(line string) (map[string]json.RawMessage, bool) {
	var record map[string]json.RawMessage
	if err := json.Unmarshal([]byte(line), &record); err == nil {
		return record, true
	}

	fixed, changed := nullNonFinite([]byte(line))
	if !changed {
		return nil, false
	}

	if err := json.Unmarshal(fixed, &record); err != nil {
		return nil, false
	}

	return record, true
}

var nonFinite = [][]byte{[]byte("-Infinity"), []byte("Infinity"), []byte("NaN")}

// nullNonFinite replaces non-finite number literals outside strings with null.
func nullNonFinite(b []byte) ([]byte, bool) {
	out := make([]byte, 0, len(b))
	inString, escaped, changed := false, false, false

	for i := 0; i < len(b); i++ {
		c := b[i]

		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}

			out = append(out, c)

			continue
		}

		if c == '"' {
			inString = true
			out = append(out, c)

			continue
		}

		matched := false
		for _, lit := range nonFinite {
			if bytes.HasPrefix(b[i:], lit) {
				out = append(out, "null"...)
				i += len(lit) - 1
				matched, changed = true, true

				break
			}
		}

		if !matched {
			out = append(out, c)
		}
	}

	return out, changed
}

// objectStrings returns the string values of a JSON object in key order, or
// nil when raw is not an object. A repeated key keeps its first position and
// its last value.
func objectStrings(raw json.RawMessage) []string {
	dec := json.NewDecoder(bytes.NewReader(raw))

	tok, err := dec.Token()
	if err != nil {
		return nil
	}

	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil
	}

	var (
		keys   []string
		values = make(map[string]json.RawMessage)
	)

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil
		}

		key, _ := keyTok.(string)

		var v json.RawMessage
		if err := dec.Decode(&v); err != nil {
			return nil
		}

		if _, seen := values[key]; !seen {
			keys = append(keys, key)
		}
		values[key] = v
	}

	var out []string

	for _, key := range keys {
		v := values[key]

		var s string
		if bytes.HasPrefix(v, []byte(`"`)) && json.Unmarshal(v, &s) == nil {
			out = append(out, s)
		}
	}

	return out
}
