package llm

import "strings"

const DefaultPromptTemplate = `You are a technical support assistant.
Use the following documentation to answer the question.

Context:
{context}

Question: {question}

Answer clearly and helpfully.`

// BuildPrompt places the chunks, in the given order and separated by a
// blank line, and the query into template.
func BuildPrompt(template, query string, chunks []string) string {
	if template == "" {
		template = DefaultPromptTemplate
	}

	r := strings.NewReplacer(
		"{context}", strings.Join(chunks, "\n\n"),
		"{question}", query,
	)

	return r.Replace(template)
}
