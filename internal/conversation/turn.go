// Package conversation defines the caller-owned chat history types the
// pipeline reads. Nothing here is persisted by the core.
package conversation

import "github.com/csexpert/csexpert/internal/docstore"

// Sender identifies who produced a turn.
type Sender string

const (
	SenderUser      Sender = "user"
	SenderAssistant Sender = "assistant"
)

// Citation is a user-facing reference to a retrieved document backing part
// of an answer.
type Citation struct {
	CourseCode  string `json:"course_code"`
	CourseTitle string `json:"course_title"`
	SectionName string `json:"section"`
	DocType     string `json:"doc_type"`
}

// FromDocument derives a citation from a retrieved document.
func FromDocument(d docstore.Document) Citation {
	code := d.Metadata.CourseCode
	title := d.Metadata.CourseTitle
	if code == "" {
		code = d.Metadata.ProgramCode
		title = d.Metadata.ProgramName
	}
	return Citation{
		CourseCode:  code,
		CourseTitle: title,
		SectionName: d.Metadata.SectionName,
		DocType:     string(d.Metadata.DocType),
	}
}

// Turn is one exchange in a conversation. Sources and TopCourses are set on
// assistant turns only.
type Turn struct {
	Sender     Sender     `json:"sender"`
	Content    string     `json:"content"`
	Sources    []Citation `json:"sources,omitempty"`
	TopCourses []string   `json:"top_courses,omitempty"`
}

// RecentWindow returns at most n of the latest turns, oldest first.
func RecentWindow(turns []Turn, n int) []Turn {
	if n <= 0 || len(turns) <= n {
		return turns
	}
	return turns[len(turns)-n:]
}

// LastMentionedCode returns the most recently discussed course or program
// code in the history, preferring assistant top-course annotations and
// falling back to cited sources. Empty when the history carries none.
func LastMentionedCode(turns []Turn) string {
	for i := len(turns) - 1; i >= 0; i-- {
		t := turns[i]
		if t.Sender != SenderAssistant {
			continue
		}
		if len(t.TopCourses) > 0 {
			return t.TopCourses[0]
		}
		for _, src := range t.Sources {
			if src.CourseCode != "" {
				return src.CourseCode
			}
		}
	}
	return ""
}
