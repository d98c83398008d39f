// Package corpus turns a directory of source documents into chunk records.
package corpus

import (
	"errors"
	"strings"
)

var (
	ErrEmptyChunk  = errors.New("chunk content is empty")
	ErrEmptyCorpus = errors.New("no indexable content found")
)

// Record is one retrievable passage of a source document. Records are
// immutable once built and replaced wholesale on rebuild.
type Record struct {
	Content       string `json:"content"`
	SourceID      string `json:"source_id"`
	SequenceIndex int    `json:"sequence_index"`
}

func NewRecord(content, sourceID string, sequenceIndex int) (Record, error) {
	if strings.TrimSpace(content) == "" {
		return Record{}, ErrEmptyChunk
	}

	return Record{
		Content:       content,
		SourceID:      sourceID,
		SequenceIndex: sequenceIndex,
	}, nil
}
