// Package retriever implements multi-query retrieval: several semantically
// varied queries are issued against the document store and their results
// merged, to maximize recall for a single user question.
package retriever

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/csexpert/csexpert/internal/conversation"
	"github.com/csexpert/csexpert/internal/docstore"
	"github.com/csexpert/csexpert/internal/router"
)

// Options tunes variant generation and result bounding.
type Options struct {
	// PerVariantK is how many documents each query variant requests.
	PerVariantK int
	// MaxContextDocuments caps the merged result, bounding prompt size.
	MaxContextDocuments int
	// MaxVariants caps the number of generated query variants.
	MaxVariants int
	// FollowUpMaxWords is the question length at or under which a question
	// with non-empty history is treated as a follow-up.
	FollowUpMaxWords int
}

// DefaultOptions mirror the tuned production settings.
func DefaultOptions() Options {
	return Options{
		PerVariantK:         20,
		MaxContextDocuments: 15,
		MaxVariants:         6,
		FollowUpMaxWords:    6,
	}
}

// Retriever fans a question out across query variants against a store.
type Retriever struct {
	store docstore.Store
	opts  Options
}

// New creates a Retriever. Zero option fields fall back to defaults.
func New(store docstore.Store, opts Options) *Retriever {
	def := DefaultOptions()
	if opts.PerVariantK <= 0 {
		opts.PerVariantK = def.PerVariantK
	}
	if opts.MaxContextDocuments <= 0 {
		opts.MaxContextDocuments = def.MaxContextDocuments
	}
	if opts.MaxVariants <= 0 {
		opts.MaxVariants = def.MaxVariants
	}
	if opts.FollowUpMaxWords <= 0 {
		opts.FollowUpMaxWords = def.FollowUpMaxWords
	}
	return &Retriever{store: store, opts: opts}
}

// Retrieve issues every generated variant against the store with the
// intent's filters applied, merges results by document ID keeping the
// maximum score, and truncates to the configured context size.
//
// A store that is not ready fails the whole retrieval with
// docstore.ErrStoreUnavailable; other per-variant failures are logged and
// the remaining variants still run.
func (r *Retriever) Retrieve(ctx context.Context, question string, intent router.Intent, history []conversation.Turn) ([]docstore.Document, error) {
	variants := r.Variants(question, intent, history)
	filter := buildFilter(intent)

	type merged struct {
		doc   docstore.Document
		score float32
		seq   int
	}
	byID := make(map[string]*merged)
	seq := 0

	collect := func(results []docstore.Result) {
		for _, res := range results {
			if m, ok := byID[res.Document.ID]; ok {
				if res.Score > m.score {
					m.score = res.Score
				}
				continue
			}
			byID[res.Document.ID] = &merged{doc: res.Document, score: res.Score, seq: seq}
			seq++
		}
	}

	// Direct code lookups first, so exact-course documents take the top
	// positions on score ties.
	for _, code := range intent.CourseCodes {
		code := code
		results, err := r.store.Search(ctx, question, r.opts.PerVariantK, &docstore.Filter{CourseCode: &code})
		if err != nil {
			if errors.Is(err, docstore.ErrStoreUnavailable) {
				return nil, err
			}
			log.Printf("retriever: code lookup %q failed: %v", code, err)
			continue
		}
		collect(results)
	}

	for _, v := range variants {
		results, err := r.store.Search(ctx, v, r.opts.PerVariantK, filter)
		if err != nil {
			if errors.Is(err, docstore.ErrStoreUnavailable) {
				return nil, err
			}
			log.Printf("retriever: variant %q failed: %v", v, err)
			continue
		}
		collect(results)
	}

	all := make([]*merged, 0, len(byID))
	for _, m := range byID {
		all = append(all, m)
	}
	sort.SliceStable(all, func(i, j int) bool {
		if all[i].score != all[j].score {
			return all[i].score > all[j].score
		}
		return all[i].seq < all[j].seq
	})

	n := min(len(all), r.opts.MaxContextDocuments)
	docs := make([]docstore.Document, n)
	for i := 0; i < n; i++ {
		docs[i] = all[i].doc
	}
	return docs, nil
}

// Variants generates the query phrasings for a question: the raw question,
// bare-code variants, section-specific combinations, and a follow-up
// variant carrying the most recently discussed code from history.
func (r *Retriever) Variants(question string, intent router.Intent, history []conversation.Turn) []string {
	var variants []string
	variants = append(variants, question)

	// The follow-up variant goes right after the raw question so the
	// variant cap never drops it.
	if len(history) > 0 && r.isFollowUp(question, intent) {
		if code := conversation.LastMentionedCode(history); code != "" {
			variants = append(variants, fmt.Sprintf("%s %s", code, question))
		}
	}

	for _, code := range intent.CourseCodes {
		variants = append(variants,
			code,
			"course "+code,
			code+" course information",
		)
	}
	if intent.Filters.ProgramCode != "" {
		variants = append(variants,
			intent.Filters.ProgramCode+" program",
			"program "+intent.Filters.ProgramCode+" overview",
		)
	}

	for _, section := range DetectSections(question) {
		readable := strings.ReplaceAll(section, "_", " ")
		if len(intent.CourseCodes) > 0 {
			code := intent.CourseCodes[0]
			variants = append(variants, code+" "+readable, readable+" "+code)
		} else {
			variants = append(variants, readable)
		}
	}

	return dedupe(variants, r.opts.MaxVariants)
}

// followUpCues are leading words that suggest the question leans on context
// from earlier turns.
var followUpCues = []string{
	"it", "its", "that", "this", "those", "these", "they", "them",
	"and", "what about", "how about", "also",
}

// isFollowUp applies the configurable follow-up policy: a short question,
// or one starting with a pronoun or ellipsis cue. Questions that already
// name a course or program stand on their own.
func (r *Retriever) isFollowUp(question string, intent router.Intent) bool {
	if len(intent.CourseCodes) > 0 || intent.Filters.ProgramCode != "" {
		return false
	}
	words := strings.Fields(strings.ToLower(question))
	if len(words) == 0 {
		return false
	}
	if len(words) <= r.opts.FollowUpMaxWords {
		return true
	}
	lead := strings.Join(words[:min(2, len(words))], " ")
	for _, cue := range followUpCues {
		if words[0] == cue || lead == cue {
			return true
		}
	}
	return false
}

func buildFilter(intent router.Intent) *docstore.Filter {
	f := &docstore.Filter{}
	used := false

	if intent.ContentType != router.ContentBoth {
		content := string(intent.ContentType)
		f.Content = &content
		used = true
	}
	if intent.ContentType == router.ContentProgram && intent.Filters.ProgramCode != "" {
		f.ProgramCode = &intent.Filters.ProgramCode
		used = true
	}
	if intent.Filters.Department != "" {
		f.Department = &intent.Filters.Department
		used = true
	}
	if intent.Filters.Term != "" {
		f.Term = &intent.Filters.Term
		used = true
	}
	if intent.Filters.Cycle != "" {
		f.Cycle = &intent.Filters.Cycle
		used = true
	}
	if intent.Filters.HasTuition {
		t := true
		f.HasTuition = &t
		used = true
	}

	if !used {
		return nil
	}
	return f
}

func dedupe(variants []string, limit int) []string {
	seen := make(map[string]bool, len(variants))
	out := make([]string, 0, len(variants))
	for _, v := range variants {
		v = strings.TrimSpace(v)
		key := strings.ToLower(v)
		if v == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, v)
		if len(out) == limit {
			break
		}
	}
	return out
}
