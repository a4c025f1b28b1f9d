// Package chat wires routing, retrieval, caching, and answer synthesis into
// the question-answering pipeline.
package chat

import (
	"context"
	"log"
	"strings"

	"github.com/csexpert/csexpert/internal/cache"
	"github.com/csexpert/csexpert/internal/conversation"
	"github.com/csexpert/csexpert/internal/retriever"
	"github.com/csexpert/csexpert/internal/router"
)

// Request is one question plus its caller-owned conversation state.
type Request struct {
	Message string
	History []conversation.Turn
}

// Response is a synthesized or cached answer with its provenance.
type Response struct {
	Answer       string                  `json:"answer"`
	ContentType  string                  `json:"content_type"`
	Sources      []conversation.Citation `json:"sources"`
	TopCourses   []string                `json:"top_courses,omitempty"`
	NumRetrieved int                     `json:"num_documents_retrieved"`
	Cached       bool                    `json:"cached"`
	Confidence   float64                 `json:"confidence"`
}

// Service answers questions over the indexed course corpus.
type Service struct {
	router    *router.Router
	retriever *retriever.Retriever
	cache     *cache.Cache
	synth     *Synthesizer

	// onSynthesis, when set, is called once per language model invocation.
	onSynthesis func()
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithSynthesisHook registers a callback invoked before each language model
// call. Used to observe cache effectiveness.
func WithSynthesisHook(fn func()) ServiceOption {
	return func(s *Service) { s.onSynthesis = fn }
}

// NewService assembles the pipeline. The cache may be nil, which disables
// response caching.
func NewService(rt *router.Router, re *retriever.Retriever, c *cache.Cache, synth *Synthesizer, opts ...ServiceOption) *Service {
	s := &Service{router: rt, retriever: re, cache: c, synth: synth}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ask runs the pipeline for one question: classify, retrieve, check the
// cache, synthesize, store. Failed syntheses and unavailable stores surface
// as errors and are never cached.
func (s *Service) Ask(ctx context.Context, req Request) (*Response, error) {
	question := strings.TrimSpace(req.Message)
	intent := s.router.Route(question, req.History)

	docs, err := s.retriever.Retrieve(ctx, question, intent, req.History)
	if err != nil {
		return nil, err
	}

	key := cache.Key(question, intent.Filters, req.History)
	if s.cache != nil {
		if e, ok := s.cache.Get(key); ok {
			return &Response{
				Answer:       e.Answer,
				ContentType:  e.ContentType,
				Sources:      e.Citations,
				TopCourses:   e.TopCourses,
				NumRetrieved: e.NumRetrieved,
				Cached:       true,
				Confidence:   intent.Confidence,
			}, nil
		}
	}

	if s.onSynthesis != nil {
		s.onSynthesis()
	}
	syn, err := s.synth.Answer(ctx, question, docs, req.History)
	if err != nil {
		return nil, err
	}

	resp := &Response{
		Answer:       syn.Answer,
		ContentType:  string(intent.ContentType),
		Sources:      syn.Citations,
		TopCourses:   syn.TopCourses,
		NumRetrieved: len(docs),
		Confidence:   intent.Confidence,
	}

	if s.cache != nil && ctx.Err() == nil {
		ids := make([]string, len(docs))
		for i, d := range docs {
			ids[i] = d.ID
		}
		s.cache.Put(key, cache.Entry{
			Answer:       resp.Answer,
			ContentType:  resp.ContentType,
			Citations:    resp.Sources,
			TopCourses:   resp.TopCourses,
			DocumentIDs:  ids,
			NumRetrieved: resp.NumRetrieved,
		})
	} else if s.cache != nil {
		log.Printf("chat: skipping cache store, context done: %v", ctx.Err())
	}

	return resp, nil
}
