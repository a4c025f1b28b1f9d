package relational

import (
	"context"
	"database/sql"
	"fmt"
)

// Course is one current course row with its language display name and the
// aggregated codes/names of the programs it belongs to.
type Course struct {
	ID               int64
	CourseCode       string
	CourseTitle      string
	SwedishTitle     string
	Department       string
	Credits          float64
	Cycle            string
	Language         string
	StudyForm        string
	Term             string
	FieldOfEducation string
	MainFieldOfStudy string
	Specialization   string
	ProgramCodes     string
	ProgramNames     string
}

// Section is one stored content section of a course.
type Section struct {
	CourseID       int64
	CourseCode     string
	CourseTitle    string
	Department     string
	Credits        float64
	Cycle          string
	SectionName    string
	SectionContent string
	ProgramCodes   string
}

// Details carries the administrative data of a course, when any exists.
type Details struct {
	CourseID          int64
	CourseCode        string
	CourseTitle       string
	Department        string
	Credits           float64
	Cycle             string
	TuitionFee        sql.NullFloat64
	Duration          sql.NullString
	ApplicationPeriod sql.NullString
	ApplicationCode   sql.NullString
	StudyForm         string
	Term              string
	ProgramCodes      string
}

// Program is one degree program row.
type Program struct {
	ID                int64
	ProgramCode       string
	ProgramName       string
	Credits           float64
	MainFieldOfStudy  string
	Purpose           string
	EntryRequirements string
}

// ProgramCourse is one course mapped into a program, for course-list documents.
type ProgramCourse struct {
	ProgramCode string
	ProgramName string
	CourseCode  string
	CourseTitle string
	Credits     float64
	Cycle       string
	Department  string
	Term        string
}

// currentFilter keeps only courses that have not been superseded.
const currentFilter = "c.is_current = 1 AND c.is_replaced = 0"

// CurrentCourses returns all current, non-replaced courses.
func (d *DB) CurrentCourses(ctx context.Context) ([]Course, error) {
	query := `
	SELECT
	    c.id, c.course_code, c.course_title,
	    COALESCE(c.swedish_title, ''), COALESCE(c.department, ''),
	    COALESCE(c.credits, 0), COALESCE(c.cycle, ''),
	    COALESCE(ls.display_name, ''),
	    COALESCE(c.study_form, ''), COALESCE(c.term, ''),
	    COALESCE(c.field_of_education, ''), COALESCE(c.main_field_of_study, ''),
	    COALESCE(c.specialization, ''),
	    COALESCE(GROUP_CONCAT(DISTINCT p.program_code), ''),
	    COALESCE(GROUP_CONCAT(DISTINCT p.program_name), '')
	FROM courses c
	LEFT JOIN language_standards ls ON c.language_of_instruction_id = ls.id
	LEFT JOIN course_program_mapping cpm ON c.id = cpm.course_id
	LEFT JOIN programs p ON cpm.program_id = p.id
	WHERE ` + currentFilter + `
	GROUP BY c.id
	ORDER BY c.course_code`

	rows, err := d.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying current courses: %w", err)
	}
	defer rows.Close()

	var courses []Course
	for rows.Next() {
		var c Course
		if err := rows.Scan(
			&c.ID, &c.CourseCode, &c.CourseTitle, &c.SwedishTitle, &c.Department,
			&c.Credits, &c.Cycle, &c.Language, &c.StudyForm, &c.Term,
			&c.FieldOfEducation, &c.MainFieldOfStudy, &c.Specialization,
			&c.ProgramCodes, &c.ProgramNames,
		); err != nil {
			return nil, fmt.Errorf("scanning course: %w", err)
		}
		courses = append(courses, c)
	}
	return courses, rows.Err()
}

// CurrentSections returns every stored section of every current course.
func (d *DB) CurrentSections(ctx context.Context) ([]Section, error) {
	query := `
	SELECT
	    cs.course_id, c.course_code, c.course_title,
	    COALESCE(c.department, ''), COALESCE(c.credits, 0), COALESCE(c.cycle, ''),
	    cs.section_name, COALESCE(cs.section_content, ''),
	    COALESCE(GROUP_CONCAT(DISTINCT p.program_code), '')
	FROM course_sections cs
	JOIN courses c ON cs.course_id = c.id
	LEFT JOIN course_program_mapping cpm ON c.id = cpm.course_id
	LEFT JOIN programs p ON cpm.program_id = p.id
	WHERE ` + currentFilter + `
	GROUP BY cs.id
	ORDER BY c.course_code, cs.id`

	rows, err := d.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying course sections: %w", err)
	}
	defer rows.Close()

	var sections []Section
	for rows.Next() {
		var s Section
		if err := rows.Scan(
			&s.CourseID, &s.CourseCode, &s.CourseTitle, &s.Department,
			&s.Credits, &s.Cycle, &s.SectionName, &s.SectionContent, &s.ProgramCodes,
		); err != nil {
			return nil, fmt.Errorf("scanning section: %w", err)
		}
		sections = append(sections, s)
	}
	return sections, rows.Err()
}

// CurrentDetails returns the administrative rows of current courses.
func (d *DB) CurrentDetails(ctx context.Context) ([]Details, error) {
	query := `
	SELECT
	    cd.course_id, c.course_code, c.course_title,
	    COALESCE(c.department, ''), COALESCE(c.credits, 0), COALESCE(c.cycle, ''),
	    cd.tuition_fee, cd.duration, cd.application_period, cd.application_code,
	    COALESCE(cd.study_form, ''), COALESCE(cd.term, ''),
	    COALESCE(GROUP_CONCAT(p.program_code), '')
	FROM course_details cd
	JOIN courses c ON cd.course_id = c.id
	LEFT JOIN course_program_mapping cpm ON c.id = cpm.course_id
	LEFT JOIN programs p ON cpm.program_id = p.id
	WHERE ` + currentFilter + `
	GROUP BY cd.course_id
	ORDER BY c.course_code`

	rows, err := d.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying course details: %w", err)
	}
	defer rows.Close()

	var details []Details
	for rows.Next() {
		var dt Details
		if err := rows.Scan(
			&dt.CourseID, &dt.CourseCode, &dt.CourseTitle, &dt.Department,
			&dt.Credits, &dt.Cycle, &dt.TuitionFee, &dt.Duration,
			&dt.ApplicationPeriod, &dt.ApplicationCode, &dt.StudyForm, &dt.Term,
			&dt.ProgramCodes,
		); err != nil {
			return nil, fmt.Errorf("scanning details: %w", err)
		}
		details = append(details, dt)
	}
	return details, rows.Err()
}

// Programs returns all degree programs.
func (d *DB) Programs(ctx context.Context) ([]Program, error) {
	query := `
	SELECT id, program_code, program_name, COALESCE(credits, 0),
	    COALESCE(main_field_of_study, ''), COALESCE(purpose, ''),
	    COALESCE(entry_requirements, '')
	FROM programs
	ORDER BY program_code`

	rows, err := d.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying programs: %w", err)
	}
	defer rows.Close()

	var programs []Program
	for rows.Next() {
		var p Program
		if err := rows.Scan(
			&p.ID, &p.ProgramCode, &p.ProgramName, &p.Credits,
			&p.MainFieldOfStudy, &p.Purpose, &p.EntryRequirements,
		); err != nil {
			return nil, fmt.Errorf("scanning program: %w", err)
		}
		programs = append(programs, p)
	}
	return programs, rows.Err()
}

// ProgramCourses returns every (program, current course) pair, ordered so
// course-list documents group naturally by program and cycle.
func (d *DB) ProgramCourses(ctx context.Context) ([]ProgramCourse, error) {
	query := `
	SELECT
	    p.program_code, p.program_name, c.course_code, c.course_title,
	    COALESCE(c.credits, 0), COALESCE(c.cycle, ''),
	    COALESCE(c.department, ''), COALESCE(c.term, '')
	FROM programs p
	JOIN course_program_mapping cpm ON p.id = cpm.program_id
	JOIN courses c ON cpm.course_id = c.id
	WHERE ` + currentFilter + `
	ORDER BY p.program_code, c.cycle DESC, c.course_code`

	rows, err := d.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying program courses: %w", err)
	}
	defer rows.Close()

	var pcs []ProgramCourse
	for rows.Next() {
		var pc ProgramCourse
		if err := rows.Scan(
			&pc.ProgramCode, &pc.ProgramName, &pc.CourseCode, &pc.CourseTitle,
			&pc.Credits, &pc.Cycle, &pc.Department, &pc.Term,
		); err != nil {
			return nil, fmt.Errorf("scanning program course: %w", err)
		}
		pcs = append(pcs, pc)
	}
	return pcs, rows.Err()
}

// Departments returns the distinct departments of current courses.
func (d *DB) Departments(ctx context.Context) ([]string, error) {
	query := `
	SELECT DISTINCT c.department FROM courses c
	WHERE ` + currentFilter + ` AND c.department IS NOT NULL AND c.department != ''
	ORDER BY c.department`

	rows, err := d.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying departments: %w", err)
	}
	defer rows.Close()

	var depts []string
	for rows.Next() {
		var dep string
		if err := rows.Scan(&dep); err != nil {
			return nil, fmt.Errorf("scanning department: %w", err)
		}
		depts = append(depts, dep)
	}
	return depts, rows.Err()
}

// Stats summarizes the catalog contents.
type Stats struct {
	CurrentCourses     int
	ReplacedCourses    int
	TotalSections      int
	CoursesWithTuition int
	Programs           int
}

// Statistics returns read-only catalog counts.
func (d *DB) Statistics(ctx context.Context) (Stats, error) {
	var s Stats
	counts := []struct {
		query string
		dest  *int
	}{
		{"SELECT COUNT(*) FROM courses c WHERE " + currentFilter, &s.CurrentCourses},
		{"SELECT COUNT(*) FROM courses WHERE is_replaced = 1", &s.ReplacedCourses},
		{`SELECT COUNT(*) FROM course_sections cs
		  JOIN courses c ON cs.course_id = c.id WHERE ` + currentFilter, &s.TotalSections},
		{`SELECT COUNT(DISTINCT c.id) FROM courses c
		  JOIN course_details cd ON c.id = cd.course_id
		  WHERE ` + currentFilter + ` AND cd.tuition_fee IS NOT NULL`, &s.CoursesWithTuition},
		{"SELECT COUNT(*) FROM programs", &s.Programs},
	}
	for _, c := range counts {
		if err := d.QueryRowContext(ctx, c.query).Scan(c.dest); err != nil {
			return Stats{}, fmt.Errorf("counting: %w", err)
		}
	}
	return s, nil
}
