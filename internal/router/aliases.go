package router

import (
	"sort"
	"strings"
)

// AliasTable maps program name phrases and abbreviations to program codes,
// and department phrases to canonical department names. Matching is
// case-insensitive and whitespace-tolerant.
type AliasTable struct {
	// programs maps a normalized phrase to a program code. Longer phrases
	// are tried first so "software engineering master" wins over "software".
	programs map[string]string
	ordered  []string

	departments map[string]string
	deptOrdered []string
}

// NewAliasTable builds a table from phrase->code and phrase->department maps.
func NewAliasTable(programs map[string]string, departments map[string]string) *AliasTable {
	t := &AliasTable{
		programs:    make(map[string]string, len(programs)),
		departments: make(map[string]string, len(departments)),
	}
	for phrase, code := range programs {
		norm := normalize(phrase)
		t.programs[norm] = strings.ToUpper(code)
		t.ordered = append(t.ordered, norm)
	}
	for phrase, dept := range departments {
		norm := normalize(phrase)
		t.departments[norm] = dept
		t.deptOrdered = append(t.deptOrdered, norm)
	}
	longestFirst(t.ordered)
	longestFirst(t.deptOrdered)
	return t
}

// DefaultAliases covers the department's degree programs: full names,
// common shorthand, and the 5-character program codes themselves.
func DefaultAliases() *AliasTable {
	return NewAliasTable(map[string]string{
		"computer science master":                             "N2COS",
		"computer science master's programme":                 "N2COS",
		"master in computer science":                          "N2COS",
		"master's in computer science":                        "N2COS",
		"n2cos":                                               "N2COS",
		"software engineering and management master":          "N2SOF",
		"software engineering master":                         "N2SOF",
		"n2sof":                                               "N2SOF",
		"software engineering and management bachelor":        "N1SOF",
		"software engineering bachelor":                       "N1SOF",
		"n1sof":                                               "N1SOF",
		"game design and technology master":                   "N2GDT",
		"game design technology master":                       "N2GDT",
		"game design master":                                  "N2GDT",
		"n2gdt":                                               "N2GDT",
		"applied data science master":                         "N2ADS",
		"applied data science":                                "N2ADS",
		"n2ads":                                               "N2ADS",
	}, map[string]string{
		"computer science and engineering": "Department of Computer Science and Engineering",
		"applied information technology":   "Department of Applied Information Technology",
	})
}

// AddPrograms extends the table with extra phrases per program code, e.g.
// from configuration. Existing phrases are overwritten.
func (t *AliasTable) AddPrograms(aliases map[string][]string) {
	for code, phrases := range aliases {
		for _, phrase := range phrases {
			norm := normalize(phrase)
			if norm == "" {
				continue
			}
			if _, exists := t.programs[norm]; !exists {
				t.ordered = append(t.ordered, norm)
			}
			t.programs[norm] = strings.ToUpper(code)
		}
	}
	longestFirst(t.ordered)
}

// Match returns the program code referenced by the question, if any.
func (t *AliasTable) Match(question string) (code string, ok bool) {
	norm := normalize(question)
	for _, phrase := range t.ordered {
		if strings.Contains(norm, phrase) {
			return t.programs[phrase], true
		}
	}
	return "", false
}

// MatchDepartment returns the canonical department name referenced by the
// question, or empty.
func (t *AliasTable) MatchDepartment(question string) string {
	norm := normalize(question)
	for _, phrase := range t.deptOrdered {
		if strings.Contains(norm, phrase) {
			return t.departments[phrase]
		}
	}
	return ""
}

// normalize folds case and collapses runs of whitespace to single spaces.
func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

func longestFirst(phrases []string) {
	sort.SliceStable(phrases, func(i, j int) bool {
		return len(phrases[i]) > len(phrases[j])
	})
}
