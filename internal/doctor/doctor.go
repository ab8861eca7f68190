// Package doctor provides environment preflight checks for spmvocab.
package doctor

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// PassMark and FailMark are the prefix symbols printed for each check result.
const (
	PassMark = "✓"
	FailMark = "✗"
)

// minByteFallbackVersion is the first trainer release with --byte_fallback.
var minByteFallbackVersion = [3]int{0, 1, 91}

// VersionFunc returns a version string or an error if the component is unavailable.
type VersionFunc func() (string, error)

// Config holds injectable dependencies for each doctor check.
type Config struct {
	// TrainerVersion returns the output of `spm_train --version`.
	TrainerVersion VersionFunc
	// ByteFallback requires a trainer version that supports --byte_fallback.
	ByteFallback bool
	// SpecialTokensPath is checked for readability when non-empty.
	SpecialTokensPath string
	// ResolveInputs expands the configured inputs; nil skips the check.
	ResolveInputs func() ([]string, error)
	// ModelPrefix's directory must be creatable and writable when non-empty.
	ModelPrefix string
}

// Result collects the outcome of all checks.
type Result struct {
	failures []string
}

// Failed returns true if any check failed.
func (r *Result) Failed() bool { return len(r.failures) > 0 }

// Failures returns the list of failure messages.
func (r *Result) Failures() []string { return append([]string(nil), r.failures...) }

// AddFailure appends an external failure message to the result.
func (r *Result) AddFailure(msg string) { r.failures = append(r.failures, msg) }

func (r *Result) fail(msg string) { r.failures = append(r.failures, msg) }

// Run executes all configured checks and writes human-readable output to w.
// Each check line is prefixed with PassMark or FailMark.
func Run(cfg Config, w io.Writer) Result {
	var res Result

	// ---- spm_train binary -------------------------------------------------
	ver, err := cfg.TrainerVersion()
	if err != nil {
		res.fail(fmt.Sprintf("spm_train binary: %v", err))
		fmt.Fprintf(w, "%s spm_train binary: not found (%v)\n", FailMark, err)
	} else if verErr := checkTrainerVersion(ver, cfg.ByteFallback); verErr != nil {
		res.fail(fmt.Sprintf("spm_train version: %v", verErr))
		fmt.Fprintf(w, "%s spm_train version %s: %v\n", FailMark, ver, verErr)
	} else {
		fmt.Fprintf(w, "%s spm_train binary: %s\n", PassMark, ver)
	}

	// ---- special tokens ---------------------------------------------------
	if cfg.SpecialTokensPath != "" {
		if fh, err := os.Open(cfg.SpecialTokensPath); err != nil {
			res.fail(fmt.Sprintf("special tokens file %q: %v", cfg.SpecialTokensPath, err))
			fmt.Fprintf(w, "%s special tokens file %s: not readable\n", FailMark, cfg.SpecialTokensPath)
		} else {
			_ = fh.Close()
			fmt.Fprintf(w, "%s special tokens file: %s\n", PassMark, cfg.SpecialTokensPath)
		}
	}

	// ---- inputs -----------------------------------------------------------
	if cfg.ResolveInputs != nil {
		files, err := cfg.ResolveInputs()
		switch {
		case err != nil:
			res.fail(fmt.Sprintf("inputs: %v", err))
			fmt.Fprintf(w, "%s inputs: %v\n", FailMark, err)
		case len(files) == 0:
			res.fail("inputs: no input files found")
			fmt.Fprintf(w, "%s inputs: no input files found\n", FailMark)
		default:
			fmt.Fprintf(w, "%s inputs: %d file(s)\n", PassMark, len(files))
		}
	}

	// ---- output directory -------------------------------------------------
	if cfg.ModelPrefix != "" {
		dir := filepath.Dir(cfg.ModelPrefix)
		if err := checkWritableDir(dir); err != nil {
			res.fail(fmt.Sprintf("output directory %q: %v", dir, err))
			fmt.Fprintf(w, "%s output directory %s: %v\n", FailMark, dir, err)
		} else {
			fmt.Fprintf(w, "%s output directory: %s\n", PassMark, dir)
		}
	}

	return res
}

// checkWritableDir creates dir if needed and checks it with a temp file.
func checkWritableDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	f, err := os.CreateTemp(dir, ".spmvocab-doctor-*")
	if err != nil {
		return err
	}

	name := f.Name()
	_ = f.Close()

	return os.Remove(name)
}

// checkTrainerVersion returns an error if ver cannot be parsed or, when
// byteFallback is set, predates byte fallback support.
// ver is expected to look like "sentencepiece 0.2.0".
func checkTrainerVersion(ver string, byteFallback bool) error {
	v, err := parseVersion(ver)
	if err != nil {
		return fmt.Errorf("cannot parse %q: %w", ver, err)
	}

	if byteFallback && less(v, minByteFallbackVersion) {
		return fmt.Errorf("byte fallback requires sentencepiece >= %d.%d.%d, got %d.%d.%d",
			minByteFallbackVersion[0], minByteFallbackVersion[1], minByteFallbackVersion[2], v[0], v[1], v[2])
	}

	return nil
}

func parseVersion(ver string) ([3]int, error) {
	var out [3]int

	fields := strings.Fields(ver)
	if len(fields) == 0 {
		return out, fmt.Errorf("unexpected version format %q", ver)
	}

	raw := strings.TrimPrefix(fields[len(fields)-1], "v")

	parts := strings.SplitN(raw, ".", 3)
	if len(parts) < 2 {
		return out, fmt.Errorf("unexpected version format %q", ver)
	}

	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return out, fmt.Errorf("bad version component %q in %q: %w", p, ver, err)
		}
		out[i] = n
	}

	return out, nil
}

func less(a, b [3]int) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}
