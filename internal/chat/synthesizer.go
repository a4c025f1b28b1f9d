package chat

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/csexpert/csexpert/internal/conversation"
	"github.com/csexpert/csexpert/internal/docstore"
	"github.com/csexpert/csexpert/internal/llm"
	"github.com/csexpert/csexpert/internal/router"
)

// SynthesisError wraps a language model failure. Callers present the
// apology fallback instead of a fabricated answer.
type SynthesisError struct {
	Err error
}

func (e *SynthesisError) Error() string {
	return fmt.Sprintf("answer synthesis failed: %v", e.Err)
}

func (e *SynthesisError) Unwrap() error { return e.Err }

// SynthesizerConfig tunes prompt construction and generation.
type SynthesizerConfig struct {
	Model         string
	MaxTokens     int
	Temperature   float64
	Timeout       time.Duration
	HistoryWindow int
}

// Synthesis is a grounded answer with its supporting references.
type Synthesis struct {
	Answer     string
	Citations  []conversation.Citation
	TopCourses []string
}

// Synthesizer turns retrieved documents plus a question into a grounded
// answer via the configured language model.
type Synthesizer struct {
	provider llm.Provider
	cfg      SynthesizerConfig
}

// NewSynthesizer creates a Synthesizer. Zero config fields fall back to
// tuned defaults.
func NewSynthesizer(provider llm.Provider, cfg SynthesizerConfig) *Synthesizer {
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 1000
	}
	if cfg.Temperature <= 0 {
		cfg.Temperature = 0.1
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.HistoryWindow <= 0 {
		cfg.HistoryWindow = 6
	}
	return &Synthesizer{provider: provider, cfg: cfg}
}

// Answer generates a grounded answer from the retrieved documents. Only
// documents whose code appears in the generated text are cited; top courses
// are the distinct codes in order of first mention.
func (s *Synthesizer) Answer(ctx context.Context, question string, docs []docstore.Document, history []conversation.Turn) (*Synthesis, error) {
	messages := []llm.Message{
		{Role: llm.RoleSystem, Content: systemPrompt},
	}
	for _, t := range conversation.RecentWindow(history, s.cfg.HistoryWindow) {
		role := llm.RoleUser
		if t.Sender == conversation.SenderAssistant {
			role = llm.RoleAssistant
		}
		messages = append(messages, llm.Message{Role: role, Content: t.Content})
	}
	messages = append(messages, llm.Message{Role: llm.RoleUser, Content: buildUserPrompt(question, docs)})

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	resp, err := s.provider.Complete(ctx, llm.CompletionRequest{
		Model:       s.cfg.Model,
		Messages:    messages,
		MaxTokens:   s.cfg.MaxTokens,
		Temperature: s.cfg.Temperature,
	})
	if err != nil {
		return nil, &SynthesisError{Err: err}
	}
	answer := strings.TrimSpace(resp.Content)
	if answer == "" {
		return nil, &SynthesisError{Err: fmt.Errorf("%s returned an empty completion", s.provider.Name())}
	}
	if cost := llm.EstimateCost(s.cfg.Model, resp.InputTokens, resp.OutputTokens); cost > 0 {
		log.Printf("chat: %d input / %d output tokens, estimated $%.4f", resp.InputTokens, resp.OutputTokens, cost)
	}

	return &Synthesis{
		Answer:     answer,
		Citations:  extractCitations(answer, docs),
		TopCourses: topCourses(answer, docs),
	}, nil
}

// buildUserPrompt embeds the retrieved documents as the grounding context
// for the question.
func buildUserPrompt(question string, docs []docstore.Document) string {
	var b strings.Builder
	b.WriteString("Context from the course database:\n\n")
	for i, d := range docs {
		fmt.Fprintf(&b, "--- Document %d (%s) ---\n", i+1, d.Metadata.DocType)
		b.WriteString(d.Text)
		b.WriteString("\n\n")
	}
	b.WriteString("Student question: ")
	b.WriteString(question)
	return b.String()
}

// extractCitations keeps only documents the answer actually mentions, in
// retrieval order, deduplicated.
func extractCitations(answer string, docs []docstore.Document) []conversation.Citation {
	upper := strings.ToUpper(answer)
	seen := make(map[string]bool, len(docs))
	var citations []conversation.Citation
	for _, d := range docs {
		code := d.Metadata.CourseCode
		if code == "" {
			code = d.Metadata.ProgramCode
		}
		if code == "" || !strings.Contains(upper, strings.ToUpper(code)) {
			continue
		}
		c := conversation.FromDocument(d)
		key := c.CourseCode + "|" + c.SectionName + "|" + c.DocType
		if seen[key] {
			continue
		}
		seen[key] = true
		citations = append(citations, c)
	}
	return citations
}

// topCourses lists the distinct course codes the answer mentions, in order
// of first mention, restricted to codes backed by a retrieved document.
func topCourses(answer string, docs []docstore.Document) []string {
	retrieved := make(map[string]bool, len(docs))
	for _, d := range docs {
		if d.Metadata.CourseCode != "" {
			retrieved[strings.ToUpper(d.Metadata.CourseCode)] = true
		}
	}
	var codes []string
	for _, code := range router.ExtractCourseCodes(answer) {
		if retrieved[code] {
			codes = append(codes, code)
		}
	}
	return codes
}
