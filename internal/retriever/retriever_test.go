package retriever

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/csexpert/csexpert/internal/conversation"
	"github.com/csexpert/csexpert/internal/docstore"
	"github.com/csexpert/csexpert/internal/router"
)

// fakeStore serves canned results per query and records the searches made.
type fakeStore struct {
	results map[string][]docstore.Result
	queries []string
	filters []*docstore.Filter
	err     error
}

func (f *fakeStore) Index(ctx context.Context, docs []docstore.Document) error { return nil }
func (f *fakeStore) Reload(ctx context.Context) error                          { return nil }
func (f *fakeStore) Count() int                                                { return len(f.results) }

func (f *fakeStore) Search(ctx context.Context, query string, k int, filter *docstore.Filter) ([]docstore.Result, error) {
	f.queries = append(f.queries, query)
	f.filters = append(f.filters, filter)
	if f.err != nil {
		return nil, f.err
	}
	return f.results[query], nil
}

func doc(id string, score float32) docstore.Result {
	return docstore.Result{
		Document: docstore.Document{ID: id, Text: "text for " + id},
		Score:    score,
	}
}

func TestRetrieveMergeKeepsMaxScore(t *testing.T) {
	// Document "a" appears under two variants with different scores; the
	// merge must keep the higher one.
	store := &fakeStore{results: map[string][]docstore.Result{
		"what is DIT005 about": {doc("a", 0.6), doc("b", 0.5)},
		"DIT005":               {doc("a", 0.8)},
	}}
	r := New(store, Options{})

	intent := router.Intent{ContentType: router.ContentCourse, CourseCodes: []string{"DIT005"}}
	docs, err := r.Retrieve(context.Background(), "what is DIT005 about", intent, nil)
	if err != nil {
		t.Fatalf("Retrieve failed: %v", err)
	}

	if len(docs) < 2 {
		t.Fatalf("got %d docs, want at least 2", len(docs))
	}
	if docs[0].ID != "a" {
		t.Errorf("top doc = %s, want a (merged max score 0.8)", docs[0].ID)
	}
}

func TestRetrieveDedupesAndTruncates(t *testing.T) {
	// Three variants each return 20 overlapping documents; the merged set
	// must be deduplicated and truncated to the configured cap.
	results := make(map[string][]docstore.Result)
	for v := 0; v < 3; v++ {
		var rs []docstore.Result
		for i := 0; i < 20; i++ {
			rs = append(rs, doc(fmt.Sprintf("doc%d", (v*10+i)%30), float32(30-i)/30))
		}
		key := []string{"big question about databases and programming", "DIT005", "course DIT005"}[v]
		results[key] = rs
	}
	store := &fakeStore{results: results}
	r := New(store, Options{MaxContextDocuments: 10, PerVariantK: 20})

	intent := router.Intent{ContentType: router.ContentCourse, CourseCodes: []string{"DIT005"}}
	docs, err := r.Retrieve(context.Background(), "big question about databases and programming", intent, nil)
	if err != nil {
		t.Fatalf("Retrieve failed: %v", err)
	}

	if len(docs) > 10 {
		t.Fatalf("got %d docs, want at most 10", len(docs))
	}
	seen := make(map[string]bool)
	for _, d := range docs {
		if seen[d.ID] {
			t.Errorf("duplicate document %s", d.ID)
		}
		seen[d.ID] = true
	}
}

func TestRetrieveStoreUnavailable(t *testing.T) {
	store := &fakeStore{err: docstore.ErrStoreUnavailable}
	r := New(store, Options{})

	_, err := r.Retrieve(context.Background(), "anything", router.Intent{ContentType: router.ContentBoth}, nil)
	if !errors.Is(err, docstore.ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
}

func TestRetrieveOtherErrorsSkipVariant(t *testing.T) {
	store := &fakeStore{err: errors.New("transient")}
	r := New(store, Options{})

	docs, err := r.Retrieve(context.Background(), "anything", router.Intent{ContentType: router.ContentBoth}, nil)
	if err != nil {
		t.Fatalf("per-variant errors must not fail retrieval: %v", err)
	}
	if len(docs) != 0 {
		t.Errorf("got %d docs, want 0", len(docs))
	}
}

func TestVariantsForCourseCode(t *testing.T) {
	r := New(&fakeStore{}, Options{})
	intent := router.Intent{ContentType: router.ContentCourse, CourseCodes: []string{"DIT199"}}

	variants := r.Variants("what are the prerequisites for DIT199", intent, nil)
	if variants[0] != "what are the prerequisites for DIT199" {
		t.Errorf("first variant must be the raw question, got %q", variants[0])
	}
	joined := strings.Join(variants, "|")
	if !strings.Contains(joined, "DIT199") {
		t.Errorf("variants missing code: %v", variants)
	}
	if len(variants) > 6 {
		t.Errorf("got %d variants, want at most 6", len(variants))
	}
}

func TestVariantsFollowUpUsesHistory(t *testing.T) {
	r := New(&fakeStore{}, Options{})
	history := []conversation.Turn{
		{Sender: conversation.SenderUser, Content: "tell me about DIT199"},
		{
			Sender:     conversation.SenderAssistant,
			Content:    "DIT199 is Advanced Databases...",
			TopCourses: []string{"DIT199"},
		},
	}

	intent := router.Intent{ContentType: router.ContentBoth}
	variants := r.Variants("what about its prerequisites?", intent, history)

	found := false
	for _, v := range variants {
		if strings.Contains(v, "DIT199") {
			found = true
		}
	}
	if !found {
		t.Errorf("follow-up variants must reference the last discussed course, got %v", variants)
	}
}

func TestVariantsNotFollowUpWhenCodePresent(t *testing.T) {
	r := New(&fakeStore{}, Options{})
	history := []conversation.Turn{
		{Sender: conversation.SenderAssistant, Content: "...", TopCourses: []string{"DIT199"}},
	}

	intent := router.Intent{ContentType: router.ContentCourse, CourseCodes: []string{"TIA102"}}
	variants := r.Variants("what about TIA102?", intent, history)

	for _, v := range variants {
		if strings.Contains(v, "DIT199") {
			t.Errorf("question naming a course must not inherit history code: %v", variants)
		}
	}
}

func TestVariantsDeduplicated(t *testing.T) {
	r := New(&fakeStore{}, Options{})
	intent := router.Intent{ContentType: router.ContentCourse, CourseCodes: []string{"DIT199"}}

	variants := r.Variants("DIT199", intent, nil)
	seen := make(map[string]bool)
	for _, v := range variants {
		key := strings.ToLower(v)
		if seen[key] {
			t.Errorf("duplicate variant %q", v)
		}
		seen[key] = true
	}
}

func TestBuildFilterProgramOnly(t *testing.T) {
	intent := router.Intent{
		ContentType: router.ContentProgram,
		Filters:     router.Filters{ProgramCode: "N2COS"},
	}
	f := buildFilter(intent)
	if f == nil || f.Content == nil || *f.Content != "program" {
		t.Fatalf("filter content = %+v, want program", f)
	}
	if f.ProgramCode == nil || *f.ProgramCode != "N2COS" {
		t.Errorf("program code filter not set")
	}
}

func TestBuildFilterBothIsNil(t *testing.T) {
	if f := buildFilter(router.Intent{ContentType: router.ContentBoth}); f != nil {
		t.Errorf("unconstrained intent should produce nil filter, got %+v", f)
	}
}

func TestDetectSections(t *testing.T) {
	sections := DetectSections("what are the prerequisites and the assessment form?")
	joined := strings.Join(sections, ",")
	if !strings.Contains(joined, "prerequisites") {
		t.Errorf("missing prerequisites in %v", sections)
	}
	if !strings.Contains(joined, "assessment") {
		t.Errorf("missing assessment in %v", sections)
	}
}
