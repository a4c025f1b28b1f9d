// Package router classifies an incoming question into a content-type intent
// and extracts structured filters from free text. Classification never
// fails; uncertain questions degrade to the broadest search.
package router

import (
	"regexp"
	"strings"

	"github.com/csexpert/csexpert/internal/conversation"
)

// ContentType is the coarse category used to decide retrieval strategy.
type ContentType string

const (
	ContentCourse  ContentType = "course"
	ContentProgram ContentType = "program"
	ContentBoth    ContentType = "both"
)

// Filters holds the structured filters extracted from a question.
type Filters struct {
	ProgramCode string
	Department  string
	Term        string
	Cycle       string
	HasTuition  bool
}

// Intent describes how to route a question. Confidence is advisory only.
type Intent struct {
	ContentType ContentType
	CourseCodes []string
	Filters     Filters
	Confidence  float64
}

// courseCodePattern matches university course codes: 2-4 letters then 3 digits.
var courseCodePattern = regexp.MustCompile(`\b([A-Za-z]{2,4}[0-9]{3})\b`)

// termPattern matches term expressions such as "autumn 2025" or "Spring 2026".
var termPattern = regexp.MustCompile(`(?i)\b(autumn|spring|summer|fall)\s+(20[0-9]{2})\b`)

var tuitionWords = []string{"tuition", "fee", "fees", "cost", "costs", "price"}

// cycleWords maps level phrasing to canonical cycle names.
var cycleWords = map[string]string{
	"bachelor":     "First cycle",
	"first cycle":  "First cycle",
	"master":       "Second cycle",
	"second cycle": "Second cycle",
	"phd":          "Third cycle",
	"doctoral":     "Third cycle",
	"third cycle":  "Third cycle",
}

// Router classifies questions using a course-code pattern and a program
// alias table.
type Router struct {
	aliases *AliasTable
}

// New creates a Router with the given alias table. A nil table falls back
// to the built-in default aliases.
func New(aliases *AliasTable) *Router {
	if aliases == nil {
		aliases = DefaultAliases()
	}
	return &Router{aliases: aliases}
}

// Route classifies the question. It never returns an error: when neither a
// course nor a program signal is present the intent degrades to ContentBoth
// with zero confidence.
func (r *Router) Route(question string, history []conversation.Turn) Intent {
	_ = history // reserved: history does not currently influence classification

	intent := Intent{ContentType: ContentBoth}

	codes := ExtractCourseCodes(question)
	intent.CourseCodes = codes
	hasCourse := len(codes) > 0

	programCode, programMatched := r.aliases.Match(question)
	if programMatched {
		intent.Filters.ProgramCode = programCode
	}

	switch {
	case hasCourse && programMatched:
		intent.ContentType = ContentBoth
		intent.Confidence = 0.8
	case hasCourse:
		intent.ContentType = ContentCourse
		intent.Confidence = 0.9
	case programMatched:
		intent.ContentType = ContentProgram
		intent.Confidence = 0.9
	default:
		intent.ContentType = ContentBoth
		intent.Confidence = 0
	}

	// Auxiliary filters are detected independently of the content type.
	lower := strings.ToLower(question)

	if m := termPattern.FindStringSubmatch(question); m != nil {
		season := strings.ToLower(m[1])
		if season == "fall" {
			season = "autumn"
		}
		intent.Filters.Term = strings.ToUpper(season[:1]) + season[1:] + " " + m[2]
	}

	for _, w := range tuitionWords {
		if containsWord(lower, w) {
			intent.Filters.HasTuition = true
			break
		}
	}

	for phrase, cycle := range cycleWords {
		if strings.Contains(lower, phrase) {
			intent.Filters.Cycle = cycle
			break
		}
	}

	if dept := r.aliases.MatchDepartment(question); dept != "" {
		intent.Filters.Department = dept
	}

	return intent
}

// ExtractCourseCodes returns the distinct course codes mentioned in the
// text, uppercased, in order of first appearance.
func ExtractCourseCodes(text string) []string {
	matches := courseCodePattern.FindAllString(text, -1)
	if len(matches) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(matches))
	var codes []string
	for _, m := range matches {
		code := strings.ToUpper(m)
		if !seen[code] {
			seen[code] = true
			codes = append(codes, code)
		}
	}
	return codes
}

// containsWord reports whether the lowercased text contains w as a whole word.
func containsWord(lower, w string) bool {
	idx := 0
	for {
		i := strings.Index(lower[idx:], w)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(w)
		beforeOK := start == 0 || !isLetter(lower[start-1])
		afterOK := end == len(lower) || !isLetter(lower[end])
		if beforeOK && afterOK {
			return true
		}
		idx = start + 1
	}
}

func isLetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}
