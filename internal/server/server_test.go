package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/csexpert/csexpert/internal/cache"
	"github.com/csexpert/csexpert/internal/chat"
	"github.com/csexpert/csexpert/internal/docstore"
	"github.com/csexpert/csexpert/internal/llm"
	"github.com/csexpert/csexpert/internal/loader"
	"github.com/csexpert/csexpert/internal/relational"
	"github.com/csexpert/csexpert/internal/retriever"
	"github.com/csexpert/csexpert/internal/router"
)

type fixedStore struct {
	results []docstore.Result
	err     error
}

func (f *fixedStore) Index(ctx context.Context, docs []docstore.Document) error { return nil }
func (f *fixedStore) Reload(ctx context.Context) error                          { return nil }
func (f *fixedStore) Count() int                                                { return len(f.results) }

func (f *fixedStore) Search(ctx context.Context, query string, k int, filter *docstore.Filter) ([]docstore.Result, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.results, nil
}

type scriptedProvider struct {
	content string
	err     error
}

func (p *scriptedProvider) Name() string { return "scripted" }

func (p *scriptedProvider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	if p.err != nil {
		return nil, p.err
	}
	return &llm.CompletionResponse{Content: p.content}, nil
}

func testCatalog(t *testing.T) *relational.DB {
	t.Helper()
	db, err := relational.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	stmts := []string{
		`INSERT INTO courses (id, course_code, course_title, department, credits, cycle, is_current, is_replaced)
		 VALUES (1, 'DIT199', 'Advanced Databases', 'Department of Computer Science and Engineering', 7.5, 'Second cycle', 1, 0)`,
		`INSERT INTO programs (id, program_code, program_name, credits) VALUES (1, 'N2COS', 'CS Master', 120)`,
		`INSERT INTO course_program_mapping (course_id, program_id) VALUES (1, 1)`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	return db
}

func testServer(t *testing.T, store docstore.Store, provider llm.Provider) *Server {
	t.Helper()
	c, err := cache.New(10, time.Hour)
	if err != nil {
		t.Fatalf("cache.New: %v", err)
	}
	svc := chat.NewService(
		router.New(nil),
		retriever.New(store, retriever.Options{}),
		c,
		chat.NewSynthesizer(provider, chat.SynthesizerConfig{Model: "test"}),
	)
	db := testCatalog(t)
	return New(Config{Port: 0}, svc, store, db, loader.New(db))
}

func dit199Store() *fixedStore {
	return &fixedStore{results: []docstore.Result{
		{
			Document: docstore.Document{
				ID:   "course:DIT199",
				Text: "Course: DIT199 - Advanced Databases\nCredits: 7.5 HP",
				Metadata: docstore.Metadata{
					DocType:     docstore.DocTypeCourseOverview,
					CourseCode:  "DIT199",
					CourseTitle: "Advanced Databases",
				},
			},
			Score: 0.9,
		},
	}}
}

func TestHealthCheck(t *testing.T) {
	srv := testServer(t, dit199Store(), &scriptedProvider{content: "ok"})

	req := httptest.NewRequest("GET", "/healthz", nil)
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestChatEndpoint(t *testing.T) {
	srv := testServer(t, dit199Store(), &scriptedProvider{content: "DIT199 is worth 7.5 credits."})

	body := strings.NewReader(`{"message": "How many credits is DIT199?"}`)
	req := httptest.NewRequest("POST", "/chat", body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp chatResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !resp.Success {
		t.Error("expected success")
	}
	if !strings.Contains(resp.Answer, "7.5") {
		t.Errorf("answer = %q", resp.Answer)
	}
	if resp.SessionID == "" {
		t.Error("expected a session ID")
	}
	if len(resp.Sources) == 0 || resp.Sources[0].CourseCode != "DIT199" {
		t.Errorf("sources = %+v", resp.Sources)
	}
}

func TestChatEmptyMessage(t *testing.T) {
	srv := testServer(t, dit199Store(), &scriptedProvider{content: "x"})

	req := httptest.NewRequest("POST", "/chat", strings.NewReader(`{"message": "   "}`))
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestChatStoreUnavailable(t *testing.T) {
	srv := testServer(t, &fixedStore{err: docstore.ErrStoreUnavailable}, &scriptedProvider{content: "x"})

	req := httptest.NewRequest("POST", "/chat", strings.NewReader(`{"message": "anything"}`))
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", w.Code)
	}
}

func TestChatSynthesisFailureReturnsApology(t *testing.T) {
	srv := testServer(t, dit199Store(), &scriptedProvider{err: context.DeadlineExceeded})

	req := httptest.NewRequest("POST", "/chat", strings.NewReader(`{"message": "credits for DIT199?"}`))
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp chatResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Success {
		t.Error("expected success=false")
	}
	if resp.Answer != chat.FallbackAnswer() {
		t.Errorf("answer = %q, want the apology fallback", resp.Answer)
	}
}

func TestChatSessionContinuity(t *testing.T) {
	srv := testServer(t, dit199Store(), &scriptedProvider{content: "DIT199 is Advanced Databases."})

	req := httptest.NewRequest("POST", "/chat", strings.NewReader(`{"message": "tell me about DIT199"}`))
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	var first chatResponse
	if err := json.Unmarshal(w.Body.Bytes(), &first); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	body := `{"message": "what about its prerequisites?", "session_id": "` + first.SessionID + `"}`
	req = httptest.NewRequest("POST", "/chat", strings.NewReader(body))
	w = httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	var second chatResponse
	if err := json.Unmarshal(w.Body.Bytes(), &second); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if second.SessionID != first.SessionID {
		t.Errorf("session not continued: %q vs %q", second.SessionID, first.SessionID)
	}
}

func TestCoursesEndpoint(t *testing.T) {
	srv := testServer(t, dit199Store(), &scriptedProvider{content: "x"})

	req := httptest.NewRequest("GET", "/courses", nil)
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "DIT199") {
		t.Errorf("courses response missing DIT199: %s", w.Body.String())
	}
}

func TestStatusEndpoint(t *testing.T) {
	srv := testServer(t, dit199Store(), &scriptedProvider{content: "x"})

	req := httptest.NewRequest("GET", "/system/status", nil)
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var status statusResponse
	if err := json.Unmarshal(w.Body.Bytes(), &status); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !status.Ready {
		t.Error("expected ready with a populated store")
	}
	if status.CurrentCourses != 1 {
		t.Errorf("current courses = %d, want 1", status.CurrentCourses)
	}
}

func TestRateLimit(t *testing.T) {
	l := newClientLimiter(2)
	now := time.Unix(1700000000, 0)
	l.now = func() time.Time { return now }

	if !l.allow("1.2.3.4") || !l.allow("1.2.3.4") {
		t.Fatal("first two requests must pass")
	}
	if l.allow("1.2.3.4") {
		t.Fatal("third request within the window must be rejected")
	}
	// Other clients are unaffected.
	if !l.allow("5.6.7.8") {
		t.Fatal("separate client must have its own budget")
	}
	// A new window resets the budget.
	now = now.Add(time.Minute)
	if !l.allow("1.2.3.4") {
		t.Fatal("request in a fresh window must pass")
	}
}
