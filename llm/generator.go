package llm

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"
)

const DefaultTimeout = 60 * time.Second

// State is a step of one generation.
type State int

const (
	StateNotStarted State = iota
	StateTryPrimary
	StateTrySecondary
	StateDone
)

func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "not_started"
	case StateTryPrimary:
		return "try_primary"
	case StateTrySecondary:
		return "try_secondary"
	case StateDone:
		return "done"
	default:
		return "unknown"
	}
}

type Option func(*Generator)

// WithTimeout bounds every provider attempt.
func WithTimeout(timeout time.Duration) Option {
	return func(g *Generator) {
		if timeout > 0 {
			g.timeout = timeout
		}
	}
}

func WithPromptTemplate(template string) Option {
	return func(g *Generator) {
		if template != "" {
			g.template = template
		}
	}
}

// Generator answers a query from retrieved chunks. It holds no state across
// calls.
type Generator struct {
	primary   Provider
	secondary Provider
	timeout   time.Duration
	template  string
	log       *zap.Logger
}

// NewGenerator creates a generator; a nil provider is treated as not
// configured.
func NewGenerator(primary, secondary Provider, opts ...Option) *Generator {
	g := &Generator{
		primary:   primary,
		secondary: secondary,
		timeout:   DefaultTimeout,
		template:  DefaultPromptTemplate,
		log: zap.L().With(
			zap.String("service", "generator"),
		),
	}

	for _, opt := range opts {
		opt(g)
	}

	return g
}

// Generate never fails: when no provider produces a completion the answer
// is tagged unavailable and explains why.
func (g *Generator) Generate(ctx context.Context, query string, chunks []string) Answer {
	log := g.log.With(
		zap.String("action", "generate"),
		zap.Int("chunks", len(chunks)),
	)

	prompt := BuildPrompt(g.template, query, chunks)

	var (
		state   = StateNotStarted
		answer  Answer
		reasons []string
	)

	for state != StateDone {
		log.Debug("state", zap.Stringer("state", state))

		switch state {
		case StateNotStarted:
			state = StateTryPrimary

		case StateTryPrimary:
			if g.primary == nil {
				reasons = append(reasons, "primary provider not configured")
				state = StateTrySecondary
				continue
			}

			text, err := g.attempt(ctx, g.primary, prompt)
			if err != nil {
				log.Error(err.Error(), zap.String("provider", g.primary.Name()))

				reasons = append(reasons, g.primary.Name()+": "+err.Error())
				state = StateTrySecondary
				continue
			}

			answer = Answer{Text: text, Source: SourcePrimary, Provider: g.primary.Name()}
			state = StateDone

		case StateTrySecondary:
			if g.secondary == nil {
				reasons = append(reasons, "secondary provider not configured")
				answer = Answer{Text: UnavailableText, Source: SourceUnavailable, Reasons: reasons}
				state = StateDone
				continue
			}

			text, err := g.attempt(ctx, g.secondary, prompt)
			if err != nil {
				log.Error(err.Error(), zap.String("provider", g.secondary.Name()))

				reasons = append(reasons, g.secondary.Name()+": "+err.Error())
				answer = Answer{Text: UnavailableText, Source: SourceUnavailable, Reasons: reasons}
				state = StateDone
				continue
			}

			answer = Answer{Text: text, Source: SourceSecondary, Provider: g.secondary.Name()}
			state = StateDone
		}
	}

	AnswersTotal.WithLabelValues(string(answer.Source)).Inc()

	log.Info("answer generated",
		zap.String("source", string(answer.Source)),
		zap.String("provider", answer.Provider),
	)

	return answer
}

// attempt runs one bounded completion. A hanging provider is abandoned when
// the timeout elapses, even if its client ignores the context.
func (g *Generator) attempt(ctx context.Context, p Provider, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	type completion struct {
		text string
		err  error
	}

	done := make(chan completion, 1)
	start := time.Now()

	go func() {
		text, err := p.Complete(ctx, prompt)
		done <- completion{text, err}
	}()

	var result completion
	select {
	case result = <-done:
	case <-ctx.Done():
		result = completion{err: ctx.Err()}
	}

	ProviderLatency.WithLabelValues(p.Name(), p.Model()).Observe(time.Since(start).Seconds())

	if result.err == nil {
		result.text = strings.TrimSpace(result.text)
		if result.text == "" {
			result.err = ErrEmptyCompletion
		}
	}

	status := "ok"
	if result.err != nil {
		status = "error"
	}

	ProviderRequestsTotal.WithLabelValues(p.Name(), p.Model(), status).Inc()

	return result.text, result.err
}
