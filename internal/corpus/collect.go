package corpus

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/example/go-spm-vocab/internal/text"
)

// ErrNoText is returned when no input file produced a single line.
var ErrNoText = errors.New("no text found in input files")

// Collector extracts text from input files into one corpus stream.
type Collector struct {
	// Format is the configured input format; FormatAuto detects per file.
	Format Format
	// JSONLKey names the field holding the text in JSONL records.
	JSONLKey string
	// ParquetColumn names the string column read from parquet files.
	ParquetColumn string
	// Normalize cleans each extracted string. Nil means trim only.
	Normalize text.Normalizer
}

// Stats summarizes one Collect call.
type Stats struct {
	Files int
	Lines int
	// Sample is the first line written, kept for smoke checks.
	Sample string
}

// Collect writes every extracted string from files, in order, to w as its own
// line. It returns ErrNoText together with the stats when nothing was written.
func (c Collector) Collect(files []string, w io.Writer) (Stats, error) {
	normalize := c.Normalize
	if normalize == nil {
		var err error
		if normalize, err = text.NewNormalizer("none"); err != nil {
			return Stats{}, err
		}
	}

	bw := bufio.NewWriter(w)

	var stats Stats

	emit := func(s string) error {
		line, ok := normalize(s)
		if !ok {
			return nil
		}

		if stats.Lines == 0 {
			stats.Sample = line
		}

		if _, err := bw.WriteString(line); err != nil {
			return err
		}

		if err := bw.WriteByte('\n'); err != nil {
			return err
		}

		stats.Lines++

		return nil
	}

	for _, path := range files {
		format := DetectFormat(path, c.Format)
		slog.Info("processing", "path", path, "format", string(format))

		before := stats.Lines
		if err := c.extract(path, format, emit); err != nil {
			return stats, err
		}

		stats.Files++
		slog.Debug("file collected", "path", path, "lines", stats.Lines-before)
	}

	if err := bw.Flush(); err != nil {
		return stats, fmt.Errorf("flush corpus: %w", err)
	}

	if stats.Lines == 0 {
		return stats, ErrNoText
	}

	return stats, nil
}

func (c Collector) extract(path string, format Format, emit EmitFunc) error {
	if format == FormatParquet {
		return ReadParquet(path, c.ParquetColumn, emit)
	}

	fh, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	defer fh.Close()

	r := text.NewUTF8Reader(fh)

	switch format {
	case FormatJSONL:
		err = ReadJSONL(r, c.JSONLKey, emit)
	default:
		err = ReadText(r, emit)
	}

	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	return nil
}
