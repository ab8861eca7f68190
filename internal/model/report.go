package model

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// TokenID pairs a user-defined token with the id the model assigned it.
type TokenID struct {
	Token string
	ID    int
}

// Report describes the vocabulary of a trained model.
type Report struct {
	Path       string
	VocabSize  int
	UnkID      int
	BosID      int
	EosID      int
	PadID      int
	Special    []TokenID
	TypeCounts map[string]int

	// SampleText and SampleIDs hold an optional smoke encoding.
	SampleText string
	SampleIDs  []int64
}

// Inspect loads the model at path and reports its size, reserved ids and
// the id of every special token. A token missing from the vocabulary
// reports the unknown id.
func Inspect(path string, special []string) (Report, error) {
	m, err := Load(path)
	if err != nil {
		return Report{}, err
	}

	return m.Report(path, special), nil
}

// Report builds the vocabulary report for m.
func (m *Model) Report(path string, special []string) Report {
	r := Report{
		Path:       path,
		VocabSize:  m.PieceCount(),
		UnkID:      m.UnknownID(),
		BosID:      m.controlID(PieceBOS),
		EosID:      m.controlID(PieceEOS),
		PadID:      m.controlID(PiecePad),
		Special:    make([]TokenID, 0, len(special)),
		TypeCounts: m.TypeCounts(),
	}

	for _, tok := range special {
		r.Special = append(r.Special, TokenID{Token: tok, ID: m.PieceToID(tok)})
	}

	return r
}

// WriteReport prints r in the layout used at the end of a training run.
// Headings are styled when w is a terminal.
func WriteReport(w io.Writer, r Report) error {
	heading := lipgloss.NewRenderer(w).NewStyle().Bold(true)

	var b strings.Builder

	fmt.Fprintf(&b, "\n%s\n", heading.Render("Model verification:"))
	fmt.Fprintf(&b, "  Total vocab size: %d\n", r.VocabSize)
	fmt.Fprintf(&b, "  (includes %d special tokens)\n", len(r.Special))

	if len(r.TypeCounts) > 0 {
		types := make([]string, 0, len(r.TypeCounts))
		for name := range r.TypeCounts {
			types = append(types, name)
		}
		slices.Sort(types)

		parts := make([]string, 0, len(types))
		for _, name := range types {
			parts = append(parts, fmt.Sprintf("%s=%d", name, r.TypeCounts[name]))
		}

		fmt.Fprintf(&b, "  Piece types: %s\n", strings.Join(parts, ", "))
	}

	fmt.Fprintf(&b, "\n%s\n", heading.Render("Built-in special token IDs:"))
	fmt.Fprintf(&b, "  UNK ID: %d\n", r.UnkID)
	fmt.Fprintf(&b, "  BOS ID: %d\n", r.BosID)
	fmt.Fprintf(&b, "  EOS ID: %d\n", r.EosID)
	fmt.Fprintf(&b, "  PAD ID: %d\n", r.PadID)

	if len(r.Special) > 0 {
		fmt.Fprintf(&b, "\n%s\n", heading.Render("User-defined special token IDs:"))
		for _, s := range r.Special {
			fmt.Fprintf(&b, "  %s: %d\n", s.Token, s.ID)
		}
	}

	if r.SampleText != "" {
		fmt.Fprintf(&b, "\n%s\n", heading.Render("Sample encoding:"))
		fmt.Fprintf(&b, "  %q -> %v\n", r.SampleText, r.SampleIDs)
	}

	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	return nil
}
