package ragdesk

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/flarexio/ragdesk/chunker"
	"github.com/flarexio/ragdesk/corpus"
	"github.com/flarexio/ragdesk/document"
	"github.com/flarexio/ragdesk/llm"
	"github.com/flarexio/ragdesk/vector"
)

var (
	ErrUnsupportedFormat     = document.ErrUnsupportedFormat
	ErrRead                  = document.ErrRead
	ErrEmptyChunk            = corpus.ErrEmptyChunk
	ErrEmptyCorpus           = corpus.ErrEmptyCorpus
	ErrInvalidWindow         = chunker.ErrInvalidWindow
	ErrProviderNotConfigured = llm.ErrProviderNotConfigured
	ErrIndexBuild            = errors.New("index build failed")
	ErrEmptyQuery            = errors.New("query is empty")
	ErrInvalidChunkDocument  = errors.New("invalid chunk document")
)

const (
	DefaultCollection = "dell_kb"
	DefaultTopK       = 4
)

// NoResultsText explains an answer that was not generated because nothing
// matched the query.
const NoResultsText = "No relevant documents found for this query."

type Config struct {
	Corpus  CorpusConfig   `yaml:"corpus"`
	Chunker chunker.Config `yaml:"chunker"`
	Vector  vector.Config  `yaml:"vector"`
	LLM     llm.Config     `yaml:"llm"`
	TopK    int            `yaml:"topK"`
}

type CorpusConfig struct {
	Dir string `json:"dir" yaml:"dir"`

	// RefreshInterval enables a periodic check that rebuilds the index when
	// the documents change. Zero disables it.
	RefreshInterval Duration `json:"refreshInterval" yaml:"refreshInterval"`
}

type Duration time.Duration

func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

func (d Duration) MarshalJSON() ([]byte, error) {
	str := d.Duration().String()
	return json.Marshal(str)
}

func (d *Duration) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}

	duration, err := time.ParseDuration(str)
	if err != nil {
		return err
	}

	*d = Duration(duration)
	return nil
}

func (d Duration) MarshalYAML() (any, error) {
	return d.Duration().String(), nil
}

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var str string
	if err := value.Decode(&str); err != nil {
		return err
	}

	duration, err := time.ParseDuration(str)
	if err != nil {
		return err
	}

	*d = Duration(duration)
	return nil
}

type (
	ChunkRecord = corpus.Record
	Answer      = llm.Answer
)

// ScoredChunk is a retrieved chunk with its cosine similarity to the query.
type ScoredChunk struct {
	ChunkRecord
	Score float32 `json:"score"`
}

// RetrievalResult holds the chunks matched for one query, most similar
// first.
type RetrievalResult struct {
	Query  string        `json:"query"`
	Chunks []ScoredChunk `json:"chunks"`
}

// Empty reports the "no results" state.
func (r RetrievalResult) Empty() bool {
	return len(r.Chunks) == 0
}

func (r RetrievalResult) Contents() []string {
	contents := make([]string, len(r.Chunks))
	for i, chunk := range r.Chunks {
		contents[i] = chunk.Content
	}

	return contents
}

type QueryResponse struct {
	Retrieved RetrievalResult `json:"retrieved"`
	Answer    Answer          `json:"answer"`
}

// NoResults reports whether the answer was skipped because nothing was
// retrieved, as opposed to generation having failed.
func (r QueryResponse) NoResults() bool {
	return r.Retrieved.Empty()
}

type Stats struct {
	Ready       bool      `json:"ready"`
	Collection  string    `json:"collection,omitempty"`
	Fingerprint string    `json:"fingerprint,omitempty"`
	Chunks      int       `json:"chunks"`
	BuiltAt     time.Time `json:"built_at,omitempty"`
}

const (
	metadataSource = "source"
	metadataChunk  = "chunk"
)

// RecordToDocument converts the record at position i of a build input into
// a vector document with id i.
func RecordToDocument(record ChunkRecord, i int) vector.Document {
	return vector.Document{
		ID:      strconv.Itoa(i),
		Content: record.Content,
		Metadata: map[string]string{
			metadataSource: record.SourceID,
			metadataChunk:  strconv.Itoa(record.SequenceIndex),
		},
	}
}

func DocumentToScoredChunk(doc vector.Document) (ScoredChunk, error) {
	source, ok := doc.Metadata[metadataSource]
	if !ok {
		return ScoredChunk{}, fmt.Errorf("%w: %s: missing %s", ErrInvalidChunkDocument, doc.ID, metadataSource)
	}

	seq, err := strconv.Atoi(doc.Metadata[metadataChunk])
	if err != nil {
		return ScoredChunk{}, fmt.Errorf("%w: %s: %s", ErrInvalidChunkDocument, doc.ID, err.Error())
	}

	return ScoredChunk{
		ChunkRecord: ChunkRecord{
			Content:       doc.Content,
			SourceID:      source,
			SequenceIndex: seq,
		},
		Score: doc.Similarity,
	}, nil
}
