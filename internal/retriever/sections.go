package retriever

import "strings"

// sectionKeywords maps syllabus section types to the words students use
// when asking about them.
var sectionKeywords = map[string][]string{
	"assessment":        {"assessment", "exam", "grade", "grading", "evaluation", "test"},
	"prerequisites":     {"prerequisite", "prerequisites", "requirement", "entry requirement"},
	"learning_outcomes": {"learning outcome", "objective", "goal", "learning goal"},
	"course_content":    {"content", "about", "topic", "cover", "material", "syllabus"},
	"form_of_teaching":  {"teaching", "lecture", "seminar", "format", "delivery"},
	"entry_requirements": {"entry", "admission", "eligibility", "qualify"},
}

// sectionOrder fixes iteration order so variant generation is deterministic.
var sectionOrder = []string{
	"assessment", "prerequisites", "learning_outcomes",
	"course_content", "form_of_teaching", "entry_requirements",
}

// DetectSections returns the section types whose keywords appear in the
// question, in a fixed order.
func DetectSections(question string) []string {
	lower := strings.ToLower(question)
	var sections []string
	for _, section := range sectionOrder {
		for _, kw := range sectionKeywords[section] {
			if strings.Contains(lower, kw) {
				sections = append(sections, section)
				break
			}
		}
	}
	return sections
}
