package corpus

import (
	"path/filepath"
	"strings"
)

// Format identifies how text is extracted from an input file.
type Format string

const (
	FormatAuto    Format = "auto"
	FormatTXT     Format = "txt"
	FormatJSONL   Format = "jsonl"
	FormatParquet Format = "parquet"
)

// DetectFormat returns configured verbatim unless it is "auto" (or empty),
// in which case the format follows the file extension: .jsonl and .parquet
// map to their readers and everything else is read as plain text.
func DetectFormat(path string, configured Format) Format {
	if configured != FormatAuto && configured != "" {
		return configured
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".jsonl":
		return FormatJSONL
	case ".parquet":
		return FormatParquet
	default:
		return FormatTXT
	}
}
