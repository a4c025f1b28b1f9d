package docstore

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"testing"
)

// mockEmbedder returns deterministic embeddings based on text content, so
// tests are reproducible without a real embedding API.
type mockEmbedder struct {
	dims int
}

func newMockEmbedder(dims int) *mockEmbedder {
	return &mockEmbedder{dims: dims}
}

func (m *mockEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	results := make([][]float32, len(texts))
	for i, text := range texts {
		results[i] = m.deterministicVector(text)
	}
	return results, nil
}

func (m *mockEmbedder) Dimensions() int { return m.dims }
func (m *mockEmbedder) Name() string    { return "mock" }

// deterministicVector produces a normalized vector from text. Similar texts
// produce similar vectors because shared characters contribute to the same
// positions.
func (m *mockEmbedder) deterministicVector(text string) []float32 {
	vec := make([]float32, m.dims)
	for i, ch := range text {
		idx := (int(ch) + i) % m.dims
		vec[idx] += 1.0
	}
	var norm float64
	for _, v := range vec {
		norm += float64(v * v)
	}
	norm = math.Sqrt(norm)
	if norm > 0 {
		for i := range vec {
			vec[i] = float32(float64(vec[i]) / norm)
		}
	}
	return vec
}

func testDocs() []Document {
	return []Document{
		{
			ID:   "course:DIT005",
			Text: "DIT005 Software Engineering Principles. Covers requirements, design, and testing.",
			Metadata: Metadata{
				DocType:    DocTypeCourseOverview,
				CourseCode: "DIT005",
				Department: "Department of Computer Science and Engineering",
				Credits:    "7.5",
				Cycle:      "Second cycle",
			},
		},
		{
			ID:   "section:DIT005:course_content",
			Text: "The course treats version control, code review, and continuous integration.",
			Metadata: Metadata{
				DocType:     DocTypeCourseSection,
				CourseCode:  "DIT005",
				SectionName: "Course content",
				SectionType: "course_content",
			},
		},
		{
			ID:   "course:TIA102",
			Text: "TIA102 Information Technology Fundamentals. An introduction to IT systems.",
			Metadata: Metadata{
				DocType:    DocTypeCourseOverview,
				CourseCode: "TIA102",
				Department: "Department of Applied Information Technology",
				Credits:    "15",
				Cycle:      "First cycle",
			},
		},
		{
			ID:   "program:N2COS",
			Text: "N2COS Computer Science Master's Programme. Two years, 120 credits.",
			Metadata: Metadata{
				DocType:     DocTypeProgramOverview,
				ProgramCode: "N2COS",
				ProgramName: "Computer Science Master's Programme",
			},
		},
	}
}

func newTestStore(t *testing.T, opts ...Option) *ChromemStore {
	t.Helper()
	store, err := NewChromemStore(newMockEmbedder(64), opts...)
	if err != nil {
		t.Fatalf("NewChromemStore failed: %v", err)
	}
	return store
}

func TestSearchBeforeIndex(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Search(context.Background(), "anything", 5, nil)
	if !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
}

func TestIndexAndSearch(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	if err := store.Index(ctx, testDocs()); err != nil {
		t.Fatalf("Index failed: %v", err)
	}
	if got := store.Count(); got != 4 {
		t.Fatalf("Count = %d, want 4", got)
	}

	results, err := store.Search(ctx, "DIT005 Software Engineering Principles. Covers requirements, design, and testing.", 4, nil)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) == 0 {
		t.Fatal("expected results")
	}
	if results[0].Document.ID != "course:DIT005" {
		t.Errorf("top result = %s, want course:DIT005", results[0].Document.ID)
	}
	for i := 1; i < len(results); i++ {
		if results[i].Score > results[i-1].Score {
			t.Errorf("results not sorted by score at %d", i)
		}
	}
}

func TestIndexIdempotent(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	docs := testDocs()

	if err := store.Index(ctx, docs); err != nil {
		t.Fatalf("first Index failed: %v", err)
	}
	first, err := store.Search(ctx, "software engineering", 4, nil)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}

	if err := store.Index(ctx, docs); err != nil {
		t.Fatalf("second Index failed: %v", err)
	}
	if got := store.Count(); got != len(docs) {
		t.Fatalf("Count after re-index = %d, want %d", got, len(docs))
	}
	second, err := store.Search(ctx, "software engineering", 4, nil)
	if err != nil {
		t.Fatalf("Search after re-index failed: %v", err)
	}

	if len(first) != len(second) {
		t.Fatalf("result count changed: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].Document.ID != second[i].Document.ID {
			t.Errorf("result %d changed: %s vs %s", i, first[i].Document.ID, second[i].Document.ID)
		}
		if first[i].Score != second[i].Score {
			t.Errorf("score %d changed: %v vs %v", i, first[i].Score, second[i].Score)
		}
	}
}

func TestSearchWithCourseCodeFilter(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	if err := store.Index(ctx, testDocs()); err != nil {
		t.Fatalf("Index failed: %v", err)
	}

	code := "DIT005"
	results, err := store.Search(ctx, "course", 10, &Filter{CourseCode: &code})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	for _, r := range results {
		if r.Document.Metadata.CourseCode != "DIT005" {
			t.Errorf("filter leaked document %s", r.Document.ID)
		}
	}
}

func TestSearchWithContentFilter(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	if err := store.Index(ctx, testDocs()); err != nil {
		t.Fatalf("Index failed: %v", err)
	}

	content := "program"
	results, err := store.Search(ctx, "master programme", 10, &Filter{Content: &content})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	if results[0].Document.ID != "program:N2COS" {
		t.Errorf("got %s, want program:N2COS", results[0].Document.ID)
	}
}

func TestSimilarityThreshold(t *testing.T) {
	ctx := context.Background()
	// A threshold of 1.01 is above any achievable cosine similarity, so
	// everything gets filtered.
	store := newTestStore(t, WithSimilarityThreshold(1.01))
	if err := store.Index(ctx, testDocs()); err != nil {
		t.Fatalf("Index failed: %v", err)
	}

	results, err := store.Search(ctx, "software engineering", 4, nil)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("expected all results below threshold, got %d", len(results))
	}
}

func TestKLargerThanCollection(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	if err := store.Index(ctx, testDocs()); err != nil {
		t.Fatalf("Index failed: %v", err)
	}

	results, err := store.Search(ctx, "course", 50, nil)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) > 4 {
		t.Errorf("got %d results from a 4-document index", len(results))
	}
}

func TestPersistAndReload(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "index.gob.gz")

	store := newTestStore(t, WithPersistPath(path))
	if err := store.Index(ctx, testDocs()); err != nil {
		t.Fatalf("Index failed: %v", err)
	}

	reloaded := newTestStore(t, WithPersistPath(path))
	if err := reloaded.Reload(ctx); err != nil {
		t.Fatalf("Reload failed: %v", err)
	}
	if got := reloaded.Count(); got != 4 {
		t.Fatalf("Count after reload = %d, want 4", got)
	}

	results, err := reloaded.Search(ctx, "software engineering", 2, nil)
	if err != nil {
		t.Fatalf("Search after reload failed: %v", err)
	}
	if len(results) == 0 {
		t.Fatal("expected results after reload")
	}
}

func TestIndexProgress(t *testing.T) {
	ctx := context.Background()
	var calls int
	var lastDone, lastTotal int
	store := newTestStore(t, WithProgress(func(done, total int) {
		calls++
		lastDone, lastTotal = done, total
	}))

	if err := store.Index(ctx, testDocs()); err != nil {
		t.Fatalf("Index failed: %v", err)
	}
	if calls == 0 {
		t.Fatal("progress callback never invoked")
	}
	if lastDone != 4 || lastTotal != 4 {
		t.Errorf("final progress = (%d, %d), want (4, 4)", lastDone, lastTotal)
	}
}
