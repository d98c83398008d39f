// Package document extracts plain text from knowledge base source files.
package document

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported document format")
	ErrRead              = errors.New("document read error")
)

type extractor func(path string) ([]string, error)

var extractors = map[string]extractor{
	".docx": readDocx,
	".txt":  readLines,
	".md":   readLines,
}

// Extensions returns the supported file extensions, sorted.
func Extensions() []string {
	exts := make([]string, 0, len(extractors))
	for ext := range extractors {
		exts = append(exts, ext)
	}

	slices.Sort(exts)
	return exts
}

// Supported reports whether the file extension of path has a loader.
func Supported(path string) bool {
	_, ok := extractors[strings.ToLower(filepath.Ext(path))]
	return ok
}

// Load returns the non-empty text blocks of the document at path, trimmed
// and joined by a single newline in document order.
func Load(path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))

	extract, ok := extractors[ext]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Base(path))
	}

	blocks, err := extract(path)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %s", ErrRead, filepath.Base(path), err.Error())
	}

	texts := make([]string, 0, len(blocks))
	for _, block := range blocks {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}

		texts = append(texts, block)
	}

	return strings.Join(texts, "\n"), nil
}
