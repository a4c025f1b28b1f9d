// Package loader converts relational course and program records into
// discrete retrievable documents for the vector index.
package loader

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/csexpert/csexpert/internal/docstore"
	"github.com/csexpert/csexpert/internal/relational"
)

// LoadError means the relational source was unreachable or fundamentally
// malformed. Per-row problems are logged and skipped instead.
type LoadError struct {
	Op  string
	Err error
}

func (e *LoadError) Error() string { return fmt.Sprintf("loading %s: %v", e.Op, e.Err) }
func (e *LoadError) Unwrap() error { return e.Err }

// Loader produces the full document set from the course catalog.
type Loader struct {
	db *relational.DB
}

// New creates a Loader reading from the given catalog.
func New(db *relational.DB) *Loader {
	return &Loader{db: db}
}

// LoadAll reads all current courses and all programs and emits one document
// per overview, per stored section, per details row, and per program.
func (l *Loader) LoadAll(ctx context.Context) ([]docstore.Document, error) {
	var docs []docstore.Document

	courseDocs, err := l.loadCourseOverviews(ctx)
	if err != nil {
		return nil, &LoadError{Op: "course overviews", Err: err}
	}
	docs = append(docs, courseDocs...)

	sectionDocs, err := l.loadSections(ctx)
	if err != nil {
		return nil, &LoadError{Op: "course sections", Err: err}
	}
	docs = append(docs, sectionDocs...)

	detailDocs, err := l.loadDetails(ctx)
	if err != nil {
		return nil, &LoadError{Op: "course details", Err: err}
	}
	docs = append(docs, detailDocs...)

	programDocs, err := l.loadPrograms(ctx)
	if err != nil {
		return nil, &LoadError{Op: "programs", Err: err}
	}
	docs = append(docs, programDocs...)

	listDocs, err := l.loadProgramCourseLists(ctx)
	if err != nil {
		return nil, &LoadError{Op: "program course lists", Err: err}
	}
	docs = append(docs, listDocs...)

	log.Printf("loader: built %d documents", len(docs))
	return docs, nil
}

func (l *Loader) loadCourseOverviews(ctx context.Context) ([]docstore.Document, error) {
	courses, err := l.db.CurrentCourses(ctx)
	if err != nil {
		return nil, err
	}

	docs := make([]docstore.Document, 0, len(courses))
	for _, c := range courses {
		if c.CourseCode == "" || c.CourseTitle == "" {
			log.Printf("loader: skipping course id=%d with missing code or title", c.ID)
			continue
		}

		var b strings.Builder
		fmt.Fprintf(&b, "Course: %s - %s\n", c.CourseCode, c.CourseTitle)
		fmt.Fprintf(&b, "Department: %s\n", c.Department)
		fmt.Fprintf(&b, "Credits: %s HP\n", formatCredits(c.Credits))
		fmt.Fprintf(&b, "Cycle: %s\n", c.Cycle)
		writeLine(&b, "Swedish Title", c.SwedishTitle)
		writeLine(&b, "Language of Instruction", c.Language)
		writeLine(&b, "Study Form", c.StudyForm)
		writeLine(&b, "Term", c.Term)
		writeLine(&b, "Field of Education", c.FieldOfEducation)
		writeLine(&b, "Main Field of Study", c.MainFieldOfStudy)
		writeLine(&b, "Specialization", c.Specialization)
		writeLine(&b, "Part of Programs", c.ProgramCodes)
		writeLine(&b, "Program Names", c.ProgramNames)

		docs = append(docs, docstore.Document{
			ID:   "course:" + c.CourseCode,
			Text: strings.TrimRight(b.String(), "\n"),
			Metadata: docstore.Metadata{
				DocType:     docstore.DocTypeCourseOverview,
				CourseCode:  c.CourseCode,
				CourseTitle: c.CourseTitle,
				Department:  c.Department,
				Credits:     formatCredits(c.Credits),
				Cycle:       c.Cycle,
				Language:    c.Language,
				StudyForm:   c.StudyForm,
				Term:        c.Term,
				Source:      "database:courses:" + c.CourseCode,
			},
		})
	}
	return docs, nil
}

func (l *Loader) loadSections(ctx context.Context) ([]docstore.Document, error) {
	sections, err := l.db.CurrentSections(ctx)
	if err != nil {
		return nil, err
	}

	var docs []docstore.Document
	for _, s := range sections {
		if strings.TrimSpace(s.SectionContent) == "" {
			continue
		}
		sectionType := normalizeSectionType(s.SectionName)

		text := fmt.Sprintf("Course: %s - %s\nSection: %s\n\n%s",
			s.CourseCode, s.CourseTitle, s.SectionName, s.SectionContent)

		docs = append(docs, docstore.Document{
			ID:   fmt.Sprintf("section:%s:%s", s.CourseCode, sectionType),
			Text: text,
			Metadata: docstore.Metadata{
				DocType:     docstore.DocTypeCourseSection,
				CourseCode:  s.CourseCode,
				CourseTitle: s.CourseTitle,
				SectionName: s.SectionName,
				SectionType: sectionType,
				Department:  s.Department,
				Credits:     formatCredits(s.Credits),
				Cycle:       s.Cycle,
				Source:      fmt.Sprintf("database:sections:%s:%s", s.CourseCode, sectionType),
			},
		})
	}
	return docs, nil
}

func (l *Loader) loadDetails(ctx context.Context) ([]docstore.Document, error) {
	details, err := l.db.CurrentDetails(ctx)
	if err != nil {
		return nil, err
	}

	var docs []docstore.Document
	for _, dt := range details {
		hasTuition := dt.TuitionFee.Valid
		hasDuration := dt.Duration.Valid && dt.Duration.String != ""
		hasApplication := (dt.ApplicationPeriod.Valid && dt.ApplicationPeriod.String != "") ||
			(dt.ApplicationCode.Valid && dt.ApplicationCode.String != "")
		if !hasTuition && !hasDuration && !hasApplication {
			continue
		}

		var b strings.Builder
		fmt.Fprintf(&b, "Course: %s - %s\n", dt.CourseCode, dt.CourseTitle)
		b.WriteString("Application and Practical Information:\n")
		if hasTuition {
			fmt.Fprintf(&b, "Tuition Fee: %s SEK\n", formatCredits(dt.TuitionFee.Float64))
		}
		if hasDuration {
			fmt.Fprintf(&b, "Duration: %s\n", dt.Duration.String)
		}
		if dt.ApplicationPeriod.Valid && dt.ApplicationPeriod.String != "" {
			fmt.Fprintf(&b, "Application Period: %s\n", dt.ApplicationPeriod.String)
		}
		if dt.ApplicationCode.Valid && dt.ApplicationCode.String != "" {
			fmt.Fprintf(&b, "Application Code: %s\n", dt.ApplicationCode.String)
		}
		writeLine(&b, "Study Form", dt.StudyForm)
		writeLine(&b, "Term", dt.Term)

		docs = append(docs, docstore.Document{
			ID:   "details:" + dt.CourseCode,
			Text: strings.TrimRight(b.String(), "\n"),
			Metadata: docstore.Metadata{
				DocType:     docstore.DocTypeCourseDetails,
				CourseCode:  dt.CourseCode,
				CourseTitle: dt.CourseTitle,
				Department:  dt.Department,
				Credits:     formatCredits(dt.Credits),
				Cycle:       dt.Cycle,
				StudyForm:   dt.StudyForm,
				Term:        dt.Term,
				HasTuition:  hasTuition,
				Source:      "database:details:" + dt.CourseCode,
			},
		})
	}
	return docs, nil
}

func (l *Loader) loadPrograms(ctx context.Context) ([]docstore.Document, error) {
	programs, err := l.db.Programs(ctx)
	if err != nil {
		return nil, err
	}

	docs := make([]docstore.Document, 0, len(programs))
	for _, p := range programs {
		if p.ProgramCode == "" {
			log.Printf("loader: skipping program id=%d with empty code", p.ID)
			continue
		}

		var b strings.Builder
		fmt.Fprintf(&b, "Program: %s (%s)\n", p.ProgramName, p.ProgramCode)
		fmt.Fprintf(&b, "Program Code: %s\n", p.ProgramCode)
		fmt.Fprintf(&b, "Program Name: %s\n", p.ProgramName)
		if p.Credits > 0 {
			fmt.Fprintf(&b, "Credits: %s HP\n", formatCredits(p.Credits))
		}
		writeLine(&b, "Main Field of Study", p.MainFieldOfStudy)
		if p.Purpose != "" {
			fmt.Fprintf(&b, "\nPurpose:\n%s\n", p.Purpose)
		}
		if p.EntryRequirements != "" {
			fmt.Fprintf(&b, "\nEntry Requirements:\n%s\n", p.EntryRequirements)
		}

		docs = append(docs, docstore.Document{
			ID:   "program:" + p.ProgramCode,
			Text: strings.TrimRight(b.String(), "\n"),
			Metadata: docstore.Metadata{
				DocType:     docstore.DocTypeProgramOverview,
				ProgramCode: p.ProgramCode,
				ProgramName: p.ProgramName,
				Credits:     formatCredits(p.Credits),
				Source:      "programs:" + p.ProgramCode,
			},
		})
	}
	return docs, nil
}

func (l *Loader) loadProgramCourseLists(ctx context.Context) ([]docstore.Document, error) {
	rows, err := l.db.ProgramCourses(ctx)
	if err != nil {
		return nil, err
	}

	// Group rows by program, preserving query order.
	var order []string
	byProgram := make(map[string][]relational.ProgramCourse)
	for _, r := range rows {
		if _, ok := byProgram[r.ProgramCode]; !ok {
			order = append(order, r.ProgramCode)
		}
		byProgram[r.ProgramCode] = append(byProgram[r.ProgramCode], r)
	}

	var docs []docstore.Document
	for _, code := range order {
		courses := byProgram[code]
		name := courses[0].ProgramName

		var b strings.Builder
		fmt.Fprintf(&b, "Complete Course List for %s (%s)\n", name, code)
		fmt.Fprintf(&b, "Total Courses Available: %d\n\nCOURSE LIST:\n\n", len(courses))

		cycles := []struct{ label, match string }{
			{"SECOND CYCLE (MASTER'S LEVEL) COURSES", "Second cycle"},
			{"FIRST CYCLE (BACHELOR'S LEVEL) COURSES", "First cycle"},
			{"THIRD CYCLE (PHD LEVEL) COURSES", "Third cycle"},
		}
		var totalCredits float64
		for _, cy := range cycles {
			var lines []string
			for _, c := range courses {
				if c.Cycle != cy.match {
					continue
				}
				line := fmt.Sprintf("- %s: %s (%s HP)", c.CourseCode, c.CourseTitle, formatCredits(c.Credits))
				if c.Department != "" {
					line += " - " + c.Department
				}
				if c.Term != "" {
					line += " - " + c.Term
				}
				lines = append(lines, line)
			}
			if len(lines) > 0 {
				fmt.Fprintf(&b, "=== %s ===\n%s\n\n", cy.label, strings.Join(lines, "\n"))
			}
		}
		for _, c := range courses {
			totalCredits += c.Credits
		}
		fmt.Fprintf(&b, "SUMMARY:\n- Total Courses: %d\n- Total Credits Available: %s HP",
			len(courses), formatCredits(totalCredits))

		docs = append(docs, docstore.Document{
			ID:   "program_courses:" + code,
			Text: b.String(),
			Metadata: docstore.Metadata{
				DocType:     docstore.DocTypeProgramCourseList,
				ProgramCode: code,
				ProgramName: name,
				Source:      "database:program_courses:" + code,
			},
		})
	}
	return docs, nil
}

// Statistics reports document-set counts without touching the index.
type Statistics struct {
	Total  int
	ByType map[docstore.DocType]int
}

// Statistics loads the catalog and counts the documents it would produce.
func (l *Loader) Statistics(ctx context.Context) (Statistics, error) {
	docs, err := l.LoadAll(ctx)
	if err != nil {
		return Statistics{}, err
	}
	stats := Statistics{Total: len(docs), ByType: make(map[docstore.DocType]int)}
	for _, d := range docs {
		stats.ByType[d.Metadata.DocType]++
	}
	return stats, nil
}

func writeLine(b *strings.Builder, label, value string) {
	if value != "" {
		fmt.Fprintf(b, "%s: %s\n", label, value)
	}
}

func normalizeSectionType(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = strings.ReplaceAll(s, " ", "_")
	return strings.ReplaceAll(s, "/", "_")
}

// formatCredits renders 7.5 as "7.5" and 15.0 as "15".
func formatCredits(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
