package server

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/csexpert/csexpert/internal/chat"
	"github.com/csexpert/csexpert/internal/conversation"
	"github.com/csexpert/csexpert/internal/docstore"
)

// chatRequest is the POST /chat body.
type chatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id,omitempty"`
}

// chatResponse is the POST /chat reply. Answer and provenance come from the
// pipeline; SessionID lets the client continue the conversation.
type chatResponse struct {
	Answer       string                  `json:"answer"`
	ContentType  string                  `json:"content_type,omitempty"`
	Sources      []conversation.Citation `json:"sources"`
	TopCourses   []string                `json:"top_courses,omitempty"`
	NumRetrieved int                     `json:"num_documents_retrieved"`
	Cached       bool                    `json:"cached"`
	SessionID    string                  `json:"session_id"`
	Success      bool                    `json:"success"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		http.Error(w, "message must not be empty", http.StatusBadRequest)
		return
	}

	sess := s.sessions.getOrCreate(req.SessionID)
	history := sess.turns()

	resp, err := s.chat.Ask(r.Context(), chat.Request{Message: req.Message, History: history})
	if err != nil {
		s.writeChatError(w, sess, req.Message, err)
		return
	}

	sess.append(
		conversation.Turn{Sender: conversation.SenderUser, Content: req.Message},
		conversation.Turn{
			Sender:     conversation.SenderAssistant,
			Content:    resp.Answer,
			Sources:    resp.Sources,
			TopCourses: resp.TopCourses,
		},
	)

	writeJSON(w, http.StatusOK, chatResponse{
		Answer:       resp.Answer,
		ContentType:  resp.ContentType,
		Sources:      orEmptyCitations(resp.Sources),
		TopCourses:   resp.TopCourses,
		NumRetrieved: resp.NumRetrieved,
		Cached:       resp.Cached,
		SessionID:    sess.id,
		Success:      true,
	})
}

// writeChatError maps pipeline failures to responses. A synthesis failure
// keeps the session alive and returns the apology with a 200, so clients can
// simply display the answer field.
func (s *Server) writeChatError(w http.ResponseWriter, sess *session, message string, err error) {
	var synErr *chat.SynthesisError
	switch {
	case errors.Is(err, docstore.ErrStoreUnavailable):
		writeJSON(w, http.StatusServiceUnavailable, chatResponse{
			Answer:    chat.NotReadyAnswer(),
			Sources:   []conversation.Citation{},
			SessionID: sess.id,
		})
	case errors.As(err, &synErr):
		log.Printf("server: synthesis failed: %v", err)
		sess.append(
			conversation.Turn{Sender: conversation.SenderUser, Content: message},
			conversation.Turn{Sender: conversation.SenderAssistant, Content: chat.FallbackAnswer()},
		)
		writeJSON(w, http.StatusOK, chatResponse{
			Answer:    chat.FallbackAnswer(),
			Sources:   []conversation.Citation{},
			SessionID: sess.id,
		})
	default:
		log.Printf("server: chat failed: %v", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

type statusResponse struct {
	Ready            bool   `json:"ready"`
	IndexedDocuments int    `json:"indexed_documents"`
	CurrentCourses   int    `json:"current_courses"`
	Programs         int    `json:"programs"`
	Reloading        bool   `json:"reloading"`
	UptimeSeconds    int64  `json:"uptime_seconds"`
	Error            string `json:"error,omitempty"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := statusResponse{
		IndexedDocuments: s.store.Count(),
		Reloading:        s.reloading.Load(),
		UptimeSeconds:    int64(time.Since(s.startedAt).Seconds()),
	}
	resp.Ready = resp.IndexedDocuments > 0

	stats, err := s.db.Statistics(r.Context())
	if err != nil {
		resp.Error = err.Error()
	} else {
		resp.CurrentCourses = stats.CurrentCourses
		resp.Programs = stats.Programs
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleReload rebuilds the vector index from the relational catalog in the
// background. Only one rebuild runs at a time.
func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	if !s.reloading.CompareAndSwap(false, true) {
		writeJSON(w, http.StatusConflict, map[string]string{"status": "reload already in progress"})
		return
	}

	// The rebuild outlives the request, so it runs on its own context.
	go func() {
		defer s.reloading.Store(false)
		ctx := context.Background()
		docs, err := s.loader.LoadAll(ctx)
		if err != nil {
			log.Printf("server: reload: loading documents: %v", err)
			return
		}
		if err := s.store.Index(ctx, docs); err != nil {
			log.Printf("server: reload: indexing: %v", err)
			return
		}
		log.Printf("server: reload complete, %d documents indexed", len(docs))
	}()

	writeJSON(w, http.StatusAccepted, map[string]string{"status": "reload started"})
}

func (s *Server) handleCourses(w http.ResponseWriter, r *http.Request) {
	courses, err := s.db.CurrentCourses(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, courses)
}

func (s *Server) handleCoursesWithTuition(w http.ResponseWriter, r *http.Request) {
	details, err := s.db.CurrentDetails(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	withFee := details[:0:0]
	for _, d := range details {
		if d.TuitionFee.Valid {
			withFee = append(withFee, d)
		}
	}
	writeJSON(w, http.StatusOK, withFee)
}

func (s *Server) handleCoursesByProgram(w http.ResponseWriter, r *http.Request) {
	code := strings.ToUpper(chi.URLParam(r, "code"))
	mapped, err := s.db.ProgramCourses(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	var courses []relationalProgramCourse
	for _, pc := range mapped {
		if pc.ProgramCode == code {
			courses = append(courses, relationalProgramCourse{
				CourseCode:  pc.CourseCode,
				CourseTitle: pc.CourseTitle,
				Credits:     pc.Credits,
				Cycle:       pc.Cycle,
				Term:        pc.Term,
			})
		}
	}
	if courses == nil {
		http.Error(w, "unknown program code", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, courses)
}

type relationalProgramCourse struct {
	CourseCode  string  `json:"course_code"`
	CourseTitle string  `json:"course_title"`
	Credits     float64 `json:"credits"`
	Cycle       string  `json:"cycle"`
	Term        string  `json:"term,omitempty"`
}

func (s *Server) handlePrograms(w http.ResponseWriter, r *http.Request) {
	programs, err := s.db.Programs(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, programs)
}

func (s *Server) handleDepartments(w http.ResponseWriter, r *http.Request) {
	depts, err := s.db.Departments(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, depts)
}

// searchResult is one semantic search hit.
type searchResult struct {
	ID       string  `json:"id"`
	Text     string  `json:"text"`
	Score    float32 `json:"score"`
	DocType  string  `json:"doc_type"`
	Code     string  `json:"code,omitempty"`
	Title    string  `json:"title,omitempty"`
	Section  string  `json:"section,omitempty"`
}

// handleSearch runs a raw semantic search against the index, mainly for
// debugging retrieval quality.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := strings.TrimSpace(q.Get("q"))
	if query == "" {
		http.Error(w, "q parameter is required", http.StatusBadRequest)
		return
	}
	k := 10
	if v := q.Get("k"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			k = n
		}
	}

	filter := &docstore.Filter{}
	if v := q.Get("content_type"); v == "course" || v == "program" {
		filter.Content = &v
	}
	if v := strings.ToUpper(q.Get("course_code")); v != "" {
		filter.CourseCode = &v
	}
	if v := strings.ToUpper(q.Get("program")); v != "" {
		filter.ProgramCode = &v
	}
	if v := q.Get("department"); v != "" {
		filter.Department = &v
	}

	results, err := s.store.Search(r.Context(), query, k, filter)
	if err != nil {
		if errors.Is(err, docstore.ErrStoreUnavailable) {
			http.Error(w, "index not available", http.StatusServiceUnavailable)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	out := make([]searchResult, 0, len(results))
	for _, res := range results {
		code := res.Document.Metadata.CourseCode
		title := res.Document.Metadata.CourseTitle
		if code == "" {
			code = res.Document.Metadata.ProgramCode
			title = res.Document.Metadata.ProgramName
		}
		out = append(out, searchResult{
			ID:      res.Document.ID,
			Text:    res.Document.Text,
			Score:   res.Score,
			DocType: string(res.Document.Metadata.DocType),
			Code:    code,
			Title:   title,
			Section: res.Document.Metadata.SectionName,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func orEmptyCitations(c []conversation.Citation) []conversation.Citation {
	if c == nil {
		return []conversation.Citation{}
	}
	return c
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
