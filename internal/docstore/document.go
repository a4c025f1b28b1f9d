package docstore

// DocType categorizes the kind of document stored in the vector index.
type DocType string

const (
	DocTypeCourseOverview    DocType = "course_overview"
	DocTypeCourseSection     DocType = "course_section"
	DocTypeCourseDetails     DocType = "course_details"
	DocTypeProgramOverview   DocType = "program_overview"
	DocTypeProgramCourseList DocType = "program_course_list"
)

// Document is a unit of retrievable text derived from course or program data.
type Document struct {
	ID       string
	Text     string
	Metadata Metadata
}

// Metadata holds the flat, exact-match-filterable attributes of a document.
// Every field serializes to a scalar string so the store can filter on it.
type Metadata struct {
	DocType     DocType
	CourseCode  string
	CourseTitle string
	ProgramCode string
	ProgramName string
	SectionName string
	SectionType string
	Department  string
	Credits     string
	Cycle       string
	Language    string
	StudyForm   string
	Term        string
	HasTuition  bool
	Source      string
}

// Result pairs a document with its similarity score. Higher is more relevant.
type Result struct {
	Document Document
	Score    float32
}

// Filter narrows search results by exact metadata match. A nil field means
// no restriction on that key.
type Filter struct {
	// Content restricts to the coarse category "course" or "program".
	Content     *string
	DocType     *DocType
	CourseCode  *string
	ProgramCode *string
	Department  *string
	Term        *string
	Cycle       *string
	HasTuition  *bool
}

// IsCourse reports whether the document describes a course rather than a program.
func (t DocType) IsCourse() bool {
	switch t {
	case DocTypeCourseOverview, DocTypeCourseSection, DocTypeCourseDetails:
		return true
	}
	return false
}
