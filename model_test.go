package ragdesk

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"gopkg.in/yaml.v3"

	"github.com/flarexio/ragdesk/chunker"
	"github.com/flarexio/ragdesk/vector"
)

func TestConfigYAMLUnmarshal(t *testing.T) {
	assert := assert.New(t)

	input := `corpus:
  dir: /var/lib/ragdesk/documents
  refreshInterval: 5m
chunker:
  strategy: fixed
  size: 800
  overlap: 100
vector:
  persistent: true
  path: /var/lib/ragdesk/db
  collection: dell_kb
  embedding:
    provider: ollama
    model: all-minilm
    base_url: http://localhost:11434/api
llm:
  timeout: 30s
  primary:
    name: groq
    base_url: https://api.groq.com/openai/v1
    model: llama-3.3-70b-versatile
    temperature: 0.3
    api_key_env: GROQ_API_KEY
  secondary:
    name: gemini
    model: gemini-2.5-pro
    api_key_env: GEMINI_API_KEY
topK: 6`

	var cfg Config
	if err := yaml.Unmarshal([]byte(input), &cfg); err != nil {
		assert.Fail(err.Error())
		return
	}

	assert.Equal("/var/lib/ragdesk/documents", cfg.Corpus.Dir)
	assert.Equal(5*time.Minute, cfg.Corpus.RefreshInterval.Duration())
	assert.Equal(chunker.Config{Strategy: chunker.StrategyFixed, Size: 800, Overlap: 100}, cfg.Chunker)
	assert.Equal(vector.EmbeddingConfig{
		Provider: "ollama",
		Model:    "all-minilm",
		BaseURL:  "http://localhost:11434/api",
	}, cfg.Vector.Embedding)
	assert.True(cfg.Vector.Persistent)
	assert.Equal(30*time.Second, cfg.LLM.Timeout)
	assert.Equal("llama-3.3-70b-versatile", cfg.LLM.Primary.Model)
	if assert.NotNil(cfg.LLM.Primary.Temperature) {
		assert.InDelta(0.3, *cfg.LLM.Primary.Temperature, 1e-6)
	}
	assert.Nil(cfg.LLM.Secondary.Temperature)
	assert.Equal("GEMINI_API_KEY", cfg.LLM.Secondary.APIKeyEnv)
	assert.Equal(6, cfg.TopK)
}

func TestCorpusConfigJSON(t *testing.T) {
	assert := assert.New(t)

	input := `{"dir": "docs", "refreshInterval": "90s"}`

	var cfg CorpusConfig
	if err := json.Unmarshal([]byte(input), &cfg); err != nil {
		assert.Fail(err.Error())
		return
	}

	assert.Equal("docs", cfg.Dir)
	assert.Equal(90*time.Second, cfg.RefreshInterval.Duration())

	bs, err := json.Marshal(cfg)
	if err != nil {
		assert.Fail(err.Error())
		return
	}

	assert.JSONEq(`{"dir": "docs", "refreshInterval": "1m30s"}`, string(bs))

	bs, err = yaml.Marshal(cfg)
	if err != nil {
		assert.Fail(err.Error())
		return
	}

	assert.Contains(string(bs), "refreshInterval: 1m30s")

	err = json.Unmarshal([]byte(`{"refreshInterval": "soon"}`), &cfg)
	assert.Error(err)
}

func TestRecordDocumentConversion(t *testing.T) {
	assert := assert.New(t)

	record := ChunkRecord{
		Content:       "Restart the router.",
		SourceID:      "wifi.docx",
		SequenceIndex: 3,
	}

	doc := RecordToDocument(record, 7)
	assert.Equal("7", doc.ID)
	assert.Equal(map[string]string{"source": "wifi.docx", "chunk": "3"}, doc.Metadata)

	doc.Similarity = 0.75

	chunk, err := DocumentToScoredChunk(doc)
	if err != nil {
		assert.Fail(err.Error())
		return
	}

	assert.Equal(record, chunk.ChunkRecord)
	assert.InDelta(0.75, chunk.Score, 1e-6)

	_, err = DocumentToScoredChunk(vector.Document{ID: "1", Metadata: map[string]string{"source": "a"}})
	assert.ErrorIs(err, ErrInvalidChunkDocument)
}

func TestRetrievalResult(t *testing.T) {
	assert := assert.New(t)

	var result RetrievalResult
	assert.True(result.Empty())
	assert.Empty(result.Contents())

	result.Chunks = []ScoredChunk{
		{ChunkRecord: ChunkRecord{Content: "first"}},
		{ChunkRecord: ChunkRecord{Content: "second"}},
	}

	assert.False(result.Empty())
	assert.Equal([]string{"first", "second"}, result.Contents())
	assert.False(QueryResponse{Retrieved: result}.NoResults())
}
