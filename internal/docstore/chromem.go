package docstore

import (
	"context"
	"fmt"
	"sort"
	"sync"

	chromem "github.com/philippgille/chromem-go"

	"github.com/csexpert/csexpert/internal/embeddings"
)

const collectionName = "courses_programs"

// ChromemStore implements Store using chromem-go. Searches take a read lock;
// Index and Reload take the write lock, so a search during a rebuild either
// waits or sees the previous index, never a partially written one.
type ChromemStore struct {
	mu          sync.RWMutex
	db          *chromem.DB
	collection  *chromem.Collection
	embedFunc   chromem.EmbeddingFunc
	persistPath string
	threshold   float32
	progress    func(done, total int)
	ready       bool
}

// Option configures a ChromemStore.
type Option func(*ChromemStore)

// WithPersistPath sets the file the index is exported to after a rebuild
// and imported from on Reload.
func WithPersistPath(path string) Option {
	return func(s *ChromemStore) { s.persistPath = path }
}

// WithSimilarityThreshold drops search results scoring below min.
func WithSimilarityThreshold(min float32) Option {
	return func(s *ChromemStore) { s.threshold = min }
}

// WithProgress reports indexing progress as (embedded, total) after each
// batch of documents.
func WithProgress(fn func(done, total int)) Option {
	return func(s *ChromemStore) { s.progress = fn }
}

// NewChromemStore creates an empty ChromemStore. The index is unavailable
// until Index or Reload succeeds.
func NewChromemStore(embedder embeddings.Embedder, opts ...Option) (*ChromemStore, error) {
	db := chromem.NewDB()
	ef := embeddings.ToChromemFunc(embedder)

	col, err := db.GetOrCreateCollection(collectionName, nil, ef)
	if err != nil {
		return nil, fmt.Errorf("create collection: %w", err)
	}

	s := &ChromemStore{
		db:         db,
		collection: col,
		embedFunc:  ef,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *ChromemStore) Index(ctx context.Context, docs []Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Full replace: drop the old collection and rebuild from scratch.
	if err := s.db.DeleteCollection(collectionName); err != nil {
		return fmt.Errorf("delete collection: %w", err)
	}
	col, err := s.db.GetOrCreateCollection(collectionName, nil, s.embedFunc)
	if err != nil {
		return fmt.Errorf("recreate collection: %w", err)
	}
	s.collection = col

	if len(docs) > 0 {
		chromDocs := make([]chromem.Document, len(docs))
		for i, doc := range docs {
			chromDocs[i] = chromem.Document{
				ID:       doc.ID,
				Content:  doc.Text,
				Metadata: metadataToMap(doc.Metadata),
			}
		}
		// Batches keep progress reporting granular; concurrency 1 keeps
		// insertion order stable for tie-breaking.
		const batchSize = 20
		for start := 0; start < len(chromDocs); start += batchSize {
			end := min(start+batchSize, len(chromDocs))
			if err := col.AddDocuments(ctx, chromDocs[start:end], 1); err != nil {
				return fmt.Errorf("add documents: %w", err)
			}
			if s.progress != nil {
				s.progress(end, len(chromDocs))
			}
		}
	}

	if s.persistPath != "" {
		if err := s.db.ExportToFile(s.persistPath, true, ""); err != nil {
			return fmt.Errorf("persist index: %w", err)
		}
	}

	s.ready = true
	return nil
}

func (s *ChromemStore) Search(ctx context.Context, query string, k int, filter *Filter) ([]Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.ready {
		return nil, ErrStoreUnavailable
	}
	if k <= 0 {
		k = 10
	}

	// chromem-go requires nResults <= collection size.
	count := s.collection.Count()
	if count == 0 {
		return nil, nil
	}
	if k > count {
		k = count
	}

	results, err := s.collection.Query(ctx, query, k, buildWhereClause(filter), nil)
	if err != nil {
		return nil, fmt.Errorf("chromem query: %w", err)
	}

	out := make([]Result, 0, len(results))
	for _, r := range results {
		if r.Similarity < s.threshold {
			continue
		}
		out = append(out, Result{
			Document: Document{
				ID:       r.ID,
				Text:     r.Content,
				Metadata: mapToMetadata(r.Metadata),
			},
			Score: r.Similarity,
		})
	}

	// chromem returns results sorted by similarity; the stable sort keeps
	// equal-score documents in their retrieval order.
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out, nil
}

func (s *ChromemStore) Reload(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.persistPath == "" {
		return fmt.Errorf("no persist path configured")
	}
	if err := s.db.ImportFromFile(s.persistPath, ""); err != nil {
		return fmt.Errorf("import index: %w", err)
	}

	col := s.db.GetCollection(collectionName, s.embedFunc)
	if col == nil {
		return fmt.Errorf("collection %q not found after import", collectionName)
	}
	s.collection = col
	s.ready = true
	return nil
}

func (s *ChromemStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.ready {
		return 0
	}
	return s.collection.Count()
}

// metadataToMap converts Metadata to the flat map[string]string chromem
// filters on. Empty fields are omitted so they never match a filter.
func metadataToMap(m Metadata) map[string]string {
	md := make(map[string]string, 12)
	set := func(k, v string) {
		if v != "" {
			md[k] = v
		}
	}
	set("doc_type", string(m.DocType))
	if m.DocType != "" {
		if m.DocType.IsCourse() {
			md["content"] = "course"
		} else {
			md["content"] = "program"
		}
	}
	set("course_code", m.CourseCode)
	set("course_title", m.CourseTitle)
	set("program_code", m.ProgramCode)
	set("program_name", m.ProgramName)
	set("section_name", m.SectionName)
	set("section_type", m.SectionType)
	set("department", m.Department)
	set("credits", m.Credits)
	set("cycle", m.Cycle)
	set("language", m.Language)
	set("study_form", m.StudyForm)
	set("term", m.Term)
	set("source", m.Source)
	if m.HasTuition {
		md["has_tuition"] = "true"
	}
	return md
}

func mapToMetadata(md map[string]string) Metadata {
	return Metadata{
		DocType:     DocType(md["doc_type"]),
		CourseCode:  md["course_code"],
		CourseTitle: md["course_title"],
		ProgramCode: md["program_code"],
		ProgramName: md["program_name"],
		SectionName: md["section_name"],
		SectionType: md["section_type"],
		Department:  md["department"],
		Credits:     md["credits"],
		Cycle:       md["cycle"],
		Language:    md["language"],
		StudyForm:   md["study_form"],
		Term:        md["term"],
		HasTuition:  md["has_tuition"] == "true",
		Source:      md["source"],
	}
}

// buildWhereClause converts a Filter to a chromem where clause.
func buildWhereClause(filter *Filter) map[string]string {
	if filter == nil {
		return nil
	}

	where := make(map[string]string)
	if filter.Content != nil {
		where["content"] = *filter.Content
	}
	if filter.DocType != nil {
		where["doc_type"] = string(*filter.DocType)
	}
	if filter.CourseCode != nil {
		where["course_code"] = *filter.CourseCode
	}
	if filter.ProgramCode != nil {
		where["program_code"] = *filter.ProgramCode
	}
	if filter.Department != nil {
		where["department"] = *filter.Department
	}
	if filter.Term != nil {
		where["term"] = *filter.Term
	}
	if filter.Cycle != nil {
		where["cycle"] = *filter.Cycle
	}
	if filter.HasTuition != nil && *filter.HasTuition {
		where["has_tuition"] = "true"
	}

	if len(where) == 0 {
		return nil
	}
	return where
}
