// Package textio provides helpers for line-oriented text files, with
// transparent gzip decompression keyed by the .gz file suffix.
package textio

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// maxLineBytes bounds a single scanned line. High-order model files can
// carry lines far beyond the default bufio limit.
const maxLineBytes = 1024 * 1024

// Open opens path for reading. Files ending in .gz are decompressed
// transparently; callers never need to know whether a path is compressed.
func Open(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	if !strings.HasSuffix(path, ".gz") {
		return f, nil
	}
	zr, err := gzip.NewReader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("open gzip %s: %w", path, err)
	}
	return &gzipReadCloser{zr: zr, f: f}, nil
}

type gzipReadCloser struct {
	zr *gzip.Reader
	f  *os.File
}

func (g *gzipReadCloser) Read(p []byte) (int, error) {
	return g.zr.Read(p)
}

func (g *gzipReadCloser) Close() error {
	if err := g.zr.Close(); err != nil {
		g.f.Close()
		return err
	}
	return g.f.Close()
}

// NewScanner wraps r with a line scanner sized for long model lines.
func NewScanner(r io.Reader) *bufio.Scanner {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	return scanner
}

// CheckFile verifies that path names an existing regular file, with
// distinct errors for a directory and for a missing path.
func CheckFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("path %q is a directory, not a file", path)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("path %q is not a regular file", path)
	}
	return nil
}

// Create creates or truncates path for writing, making parent
// directories as needed.
func Create(path string) (*os.File, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	return os.Create(path)
}

// ReadLines returns the lines of a text file, each stripped of
// surrounding whitespace.
func ReadLines(path string) ([]string, error) {
	if err := CheckFile(path); err != nil {
		return nil, err
	}
	f, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	scanner := NewScanner(f)
	for scanner.Scan() {
		lines = append(lines, strings.TrimSpace(scanner.Text()))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return lines, nil
}

// ReadSet returns the stripped, non-empty lines of a text file as a set.
func ReadSet(path string) (map[string]bool, error) {
	lines, err := ReadLines(path)
	if err != nil {
		return nil, err
	}
	set := make(map[string]bool, len(lines))
	for _, line := range lines {
		if line != "" {
			set[line] = true
		}
	}
	return set, nil
}

// WriteLines writes lines to path, one per line, creating parent
// directories as needed.
func WriteLines(path string, lines []string) error {
	f, err := Create(path)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	for _, line := range lines {
		w.WriteString(line)
		w.WriteByte('\n')
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
