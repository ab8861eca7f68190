package corpus

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/example/go-spm-vocab/internal/text"
)

// dirExtensions are the file suffixes picked up when walking a directory.
var dirExtensions = []string{".txt", ".jsonl"}

// ResolveInputs expands a comma-separated list of files and directories into
// a sorted, duplicate-free list of file paths. Directories are walked
// recursively for .txt and .jsonl files. Entries that are neither a file nor
// a directory are logged and skipped.
func ResolveInputs(list string) ([]string, error) {
	var files []string

	for _, entry := range strings.Split(list, ",") {
		entry = text.Trim(entry)
		if entry == "" {
			continue
		}

		info, err := os.Stat(entry)
		if err != nil {
			slog.Warn("path not found", "path", entry)
			continue
		}

		switch {
		case info.Mode().IsRegular():
			files = append(files, filepath.Clean(entry))
		case info.IsDir():
			found, err := walkDir(entry)
			if err != nil {
				return nil, err
			}

			files = append(files, found...)
		default:
			slog.Warn("path not found", "path", entry)
		}
	}

	slices.Sort(files)

	return slices.Compact(files), nil
}

func walkDir(root string) ([]string, error) {
	var files []string

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			return nil
		}

		for _, ext := range dirExtensions {
			if strings.HasSuffix(d.Name(), ext) {
				files = append(files, path)
				break
			}
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}

	return files, nil
}
