package corpus

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// Scratch is the temporary corpus file handed to the trainer. It is owned by
// a single run and must be removed with Remove on every exit path.
type Scratch struct {
	f    *os.File
	path string
}

// NewScratch creates an empty scratch file in dir (the OS temp dir if empty).
func NewScratch(dir string) (*Scratch, error) {
	f, err := os.CreateTemp(dir, "spmvocab-corpus-*.txt")
	if err != nil {
		return nil, fmt.Errorf("create scratch corpus: %w", err)
	}

	return &Scratch{f: f, path: f.Name()}, nil
}

func (s *Scratch) Path() string { return s.path }

// Write appends to the scratch file.
func (s *Scratch) Write(p []byte) (int, error) {
	if s.f == nil {
		return 0, fs.ErrClosed
	}

	return s.f.Write(p)
}

// Close flushes the file to disk so another process can read it.
func (s *Scratch) Close() error {
	if s.f == nil {
		return nil
	}

	err := s.f.Close()
	s.f = nil

	if err != nil {
		return fmt.Errorf("close scratch corpus: %w", err)
	}

	return nil
}

// Remove closes and deletes the scratch file. It is safe to call repeatedly.
func (s *Scratch) Remove() error {
	closeErr := s.Close()

	err := os.Remove(s.path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove scratch corpus: %w", err)
	}

	return closeErr
}
