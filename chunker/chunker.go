// Package chunker splits document text into retrieval-sized passages.
package chunker

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

const (
	StrategySemantic = "semantic"
	StrategyFixed    = "fixed"
)

const (
	DefaultChunkSize    = 800
	DefaultChunkOverlap = 100
)

var (
	ErrUnsupportedStrategy = errors.New("unsupported chunking strategy")
	ErrInvalidWindow       = errors.New("chunk overlap must be positive and smaller than chunk size")
)

type Config struct {
	Strategy string `yaml:"strategy"`
	Size     int    `yaml:"size"`
	Overlap  int    `yaml:"overlap"`
}

// Chunker splits the full text of one document into ordered, non-empty
// passages. Output is deterministic for a given input.
type Chunker interface {
	// Name identifies the strategy and its parameters.
	Name() string

	Chunk(text string) []string
}

func New(cfg Config) (Chunker, error) {
	switch cfg.Strategy {
	case "", StrategySemantic:
		return NewSemantic(), nil

	case StrategyFixed:
		size := cfg.Size
		if size == 0 {
			size = DefaultChunkSize
		}

		// An unset overlap keeps the default ratio of 1/8 of the size.
		overlap := cfg.Overlap
		if overlap == 0 {
			overlap = size * DefaultChunkOverlap / DefaultChunkSize
		}

		c, err := NewFixedWindow(size, overlap)
		if err != nil {
			return nil, fmt.Errorf("%w: size %d, overlap %d", err, size, overlap)
		}

		return c, nil

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedStrategy, cfg.Strategy)
	}
}

var (
	excessBreaks   = regexp.MustCompile(`\n{3,}`)
	paragraphBreak = regexp.MustCompile(`\n\s*\n`)
)

// Semantic splits on paragraph boundaries, never inside a paragraph.
type Semantic struct{}

func NewSemantic() *Semantic {
	return &Semantic{}
}

func (*Semantic) Name() string {
	return StrategySemantic
}

func (*Semantic) Chunk(text string) []string {
	text = excessBreaks.ReplaceAllString(strings.TrimSpace(text), "\n\n")

	var chunks []string
	for _, segment := range paragraphBreak.Split(text, -1) {
		segment = strings.TrimSpace(segment)
		if segment == "" {
			continue
		}

		chunks = append(chunks, segment)
	}

	return chunks
}

// FixedWindow walks the text with a window of size characters advancing by
// size-overlap. It may split mid-word.
type FixedWindow struct {
	size    int
	overlap int
}

func NewFixedWindow(size, overlap int) (*FixedWindow, error) {
	if size <= 0 || overlap <= 0 || overlap >= size {
		return nil, ErrInvalidWindow
	}

	return &FixedWindow{size, overlap}, nil
}

func (c *FixedWindow) Name() string {
	return fmt.Sprintf("%s-%d-%d", StrategyFixed, c.size, c.overlap)
}

// Chunk counts characters as runes so multibyte text is never cut inside a
// code point. Windows keep their inner whitespace, which keeps the overlap
// between consecutive windows exact; whitespace-only windows are dropped.
func (c *FixedWindow) Chunk(text string) []string {
	runes := []rune(strings.TrimSpace(text))
	if len(runes) == 0 {
		return nil
	}

	step := c.size - c.overlap

	var chunks []string
	for start := 0; start < len(runes); start += step {
		end := start + c.size
		if end > len(runes) {
			end = len(runes)
		}

		window := string(runes[start:end])
		if strings.TrimSpace(window) != "" {
			chunks = append(chunks, window)
		}

		if end == len(runes) {
			break
		}
	}

	return chunks
}
