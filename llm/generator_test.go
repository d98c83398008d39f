package llm

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

type stubProvider struct {
	name   string
	text   string
	err    error
	hang   bool
	prompt string
	calls  int
}

func (p *stubProvider) Name() string  { return p.name }
func (p *stubProvider) Model() string { return p.name + "-model" }

func (p *stubProvider) Complete(ctx context.Context, prompt string) (string, error) {
	p.calls++
	p.prompt = prompt

	if p.hang {
		<-ctx.Done()
		return "", ctx.Err()
	}

	return p.text, p.err
}

func TestGeneratePrimary(t *testing.T) {
	assert := assert.New(t)

	primary := &stubProvider{name: "groq", text: "  Restart the router.\n"}
	secondary := &stubProvider{name: "gemini", text: "unused"}

	g := NewGenerator(primary, secondary)

	before := testutil.ToFloat64(AnswersTotal.WithLabelValues(string(SourcePrimary)))

	answer := g.Generate(context.Background(), "wifi drops", []string{"chunk one", "chunk two"})

	assert.Equal("Restart the router.", answer.Text)
	assert.Equal(SourcePrimary, answer.Source)
	assert.Equal("groq", answer.Provider)
	assert.True(answer.Available())
	assert.Empty(answer.Reasons)
	assert.Equal(0, secondary.calls)
	assert.Contains(primary.prompt, "chunk one\n\nchunk two")
	assert.Contains(primary.prompt, "Question: wifi drops")

	after := testutil.ToFloat64(AnswersTotal.WithLabelValues(string(SourcePrimary)))
	assert.Equal(before+1, after)
}

func TestGenerateFallsBackToSecondary(t *testing.T) {
	assert := assert.New(t)

	primary := &stubProvider{name: "groq", err: errors.New("rate limited")}
	secondary := &stubProvider{name: "gemini", text: "Update the BIOS."}

	g := NewGenerator(primary, secondary)

	answer := g.Generate(context.Background(), "battery", []string{"ctx"})

	assert.Equal("Update the BIOS.", answer.Text)
	assert.Equal(SourceSecondary, answer.Source)
	assert.Equal("gemini", answer.Provider)
	assert.Equal(1, primary.calls)
	assert.Equal(1, secondary.calls)
	assert.Equal(primary.prompt, secondary.prompt)
}

func TestGenerateEmptyCompletionFallsBack(t *testing.T) {
	assert := assert.New(t)

	primary := &stubProvider{name: "groq", text: " \n\t "}
	secondary := &stubProvider{name: "gemini", text: "ok"}

	g := NewGenerator(primary, secondary)

	answer := g.Generate(context.Background(), "q", nil)

	assert.Equal(SourceSecondary, answer.Source)
	assert.Equal("ok", answer.Text)
}

func TestGenerateUnavailable(t *testing.T) {
	assert := assert.New(t)

	primary := &stubProvider{name: "groq", err: errors.New("401 unauthorized")}
	secondary := &stubProvider{name: "gemini", text: ""}

	g := NewGenerator(primary, secondary)

	answer := g.Generate(context.Background(), "q", []string{"ctx"})

	assert.Equal(UnavailableText, answer.Text)
	assert.Equal(SourceUnavailable, answer.Source)
	assert.False(answer.Available())
	assert.Len(answer.Reasons, 2)
	assert.Contains(answer.Reasons[0], "401 unauthorized")
	assert.Contains(answer.Reasons[1], ErrEmptyCompletion.Error())
}

func TestGenerateNoProviders(t *testing.T) {
	assert := assert.New(t)

	g := NewGenerator(nil, nil)

	answer := g.Generate(context.Background(), "q", []string{"ctx"})

	assert.Equal(UnavailableText, answer.Text)
	assert.Equal(SourceUnavailable, answer.Source)
	assert.Equal([]string{
		"primary provider not configured",
		"secondary provider not configured",
	}, answer.Reasons)
}

func TestGenerateSecondaryOnly(t *testing.T) {
	assert := assert.New(t)

	secondary := &stubProvider{name: "gemini", text: "fine"}

	g := NewGenerator(nil, secondary)

	answer := g.Generate(context.Background(), "q", nil)

	assert.Equal(SourceSecondary, answer.Source)
	assert.Equal("fine", answer.Text)
}

func TestGenerateTimeout(t *testing.T) {
	assert := assert.New(t)

	primary := &stubProvider{name: "groq", hang: true}
	secondary := &stubProvider{name: "gemini", text: "from secondary"}

	g := NewGenerator(primary, secondary, WithTimeout(50*time.Millisecond))

	start := time.Now()
	answer := g.Generate(context.Background(), "q", nil)

	assert.Less(time.Since(start), 5*time.Second)
	assert.Equal(SourceSecondary, answer.Source)
	assert.Len(answer.Reasons, 0)

	g = NewGenerator(primary, &stubProvider{name: "gemini", hang: true}, WithTimeout(50*time.Millisecond))

	answer = g.Generate(context.Background(), "q", nil)

	assert.Equal(SourceUnavailable, answer.Source)
	if assert.Len(answer.Reasons, 2) {
		assert.True(strings.HasSuffix(answer.Reasons[0], context.DeadlineExceeded.Error()))
	}
}

func TestBuildPrompt(t *testing.T) {
	assert := assert.New(t)

	prompt := BuildPrompt("", "why?", []string{"a", "b"})
	assert.True(strings.HasPrefix(prompt, "You are a technical support assistant."))
	assert.Contains(prompt, "Context:\na\n\nb\n")
	assert.Contains(prompt, "Question: why?")

	prompt = BuildPrompt("{question} | {context}", "q", []string{"x"})
	assert.Equal("q | x", prompt)

	g := NewGenerator(nil, nil, WithPromptTemplate("[{context}]"))
	assert.Equal("[]", BuildPrompt(g.template, "q", nil))
}
