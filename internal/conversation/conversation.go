package conversation

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"document-gpt/internal/models"
)

// Turn is one (query, response) pair in a conversation. The most recent
// turn may have an empty response while it is being answered.
type Turn struct {
	Query    string `json:"query"`
	Response string `json:"response"`
}

// Passage is a retrieved document chunk.
type Passage struct {
	Content  string
	Metadata map[string]string
}

// Retriever performs a similarity search against the vector index.
type Retriever interface {
	Search(ctx context.Context, query string, k int) ([]Passage, error)
}

// Generator produces text from a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Engine orchestrates one conversational turn: condense the follow-up
// question, retrieve context, assemble the prompt and generate a reply.
type Engine struct {
	gen       Generator
	retriever Retriever
	topK      int
}

func NewEngine(gen Generator, retriever Retriever, topK int) *Engine {
	return &Engine{gen: gen, retriever: retriever, topK: topK}
}

// FormatContext concatenates retrieved passages, trimmed and separated
// by blank lines.
func FormatContext(passages []Passage) string {
	var b strings.Builder
	for _, p := range passages {
		b.WriteString("\n")
		b.WriteString(strings.TrimSpace(p.Content))
		b.WriteString("\n")
	}
	return b.String()
}

// FormatHistory renders all turns but the last as a HUMAN:/AI:
// transcript. The last turn is the one currently being answered.
func FormatHistory(turns []Turn) string {
	if len(turns) == 0 {
		return ""
	}
	return FormatTurns(turns[:len(turns)-1])
}

// FormatTurns renders every given turn as a HUMAN:/AI: transcript.
func FormatTurns(turns []Turn) string {
	var b strings.Builder
	for _, t := range turns {
		fmt.Fprintf(&b, "HUMAN: %s\nAI: %s\n", t.Query, t.Response)
	}
	return b.String()
}

// Condense rewrites a follow-up question into a standalone one using the
// prior turns. With one or fewer turns there is nothing to condense and
// the query is returned unchanged.
func (e *Engine) Condense(ctx context.Context, query string, turns []Turn) (string, error) {
	if len(turns) <= 1 {
		return query, nil
	}
	prompt := fmt.Sprintf(models.CondensePromptTemplate, FormatHistory(turns), query)
	response, err := e.gen.Generate(ctx, prompt)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(response), nil
}

// Converse answers the pending last turn in place. Any failure in the
// pipeline is logged and replaced by the fixed error message; callers
// never see an error.
func (e *Engine) Converse(ctx context.Context, turns []Turn) []Turn {
	if len(turns) == 0 {
		return turns
	}
	last := len(turns) - 1
	reply, err := e.answer(ctx, turns[last].Query, turns, FormatHistory(turns))
	if err != nil {
		log.Error().Err(err).Msg("conversation turn failed")
		turns[last].Response = models.ErrorMessage
		return turns
	}
	turns[last].Response = reply
	return turns
}

// ConverseBackend runs the same pipeline over a caller-chosen slice of
// completed prior turns and returns the reply text. On failure it
// returns the fixed error message.
func (e *Engine) ConverseBackend(ctx context.Context, prior []Turn, query string) string {
	reply, err := e.answer(ctx, query, prior, FormatTurns(prior))
	if err != nil {
		log.Error().Err(err).Msg("backend conversation failed")
		return models.ErrorMessage
	}
	return reply
}

func (e *Engine) answer(ctx context.Context, query string, condenseTurns []Turn, transcript string) (string, error) {
	condensed, err := e.Condense(ctx, query, condenseTurns)
	if err != nil {
		return "", fmt.Errorf("condensing query: %w", err)
	}

	passages, err := e.retriever.Search(ctx, condensed, e.topK)
	if err != nil {
		return "", fmt.Errorf("searching index: %w", err)
	}

	// the prompt carries the original question; the condensed one is
	// only used for retrieval
	prompt := fmt.Sprintf(models.AnswerPromptTemplate, FormatContext(passages), transcript, query)
	response, err := e.gen.Generate(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("generating response: %w", err)
	}
	return strings.TrimSpace(response), nil
}
