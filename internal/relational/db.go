package relational

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// DB wraps the course catalog database. The chatbot core only reads from it;
// writes happen in the scraper pipeline that owns the schema.
type DB struct {
	*sql.DB
	path string
}

// Open opens the SQLite catalog at the given path, creating the file and
// schema if they do not exist yet.
func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	sqlDB, err := sql.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	d := &DB{DB: sqlDB, path: path}
	if err := d.migrate(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return d, nil
}

// OpenMemory creates an in-memory catalog, useful for testing.
func OpenMemory() (*DB, error) {
	sqlDB, err := sql.Open("sqlite", ":memory:?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening in-memory database: %w", err)
	}

	d := &DB{DB: sqlDB, path: ":memory:"}
	if err := d.migrate(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return d, nil
}

func (d *DB) migrate() error {
	_, err := d.Exec(schema)
	return err
}

// schema mirrors the subset of the scraper-owned catalog this service reads.
const schema = `
CREATE TABLE IF NOT EXISTS language_standards (
    id INTEGER PRIMARY KEY,
    code TEXT NOT NULL UNIQUE,
    display_name TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS courses (
    id INTEGER PRIMARY KEY,
    course_code TEXT NOT NULL,
    course_title TEXT NOT NULL,
    swedish_title TEXT,
    department TEXT,
    credits REAL,
    cycle TEXT,
    language_of_instruction_id INTEGER REFERENCES language_standards(id),
    study_form TEXT,
    term TEXT,
    field_of_education TEXT,
    main_field_of_study TEXT,
    specialization TEXT,
    is_current INTEGER NOT NULL DEFAULT 1,
    is_replaced INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_courses_code ON courses(course_code);
CREATE INDEX IF NOT EXISTS idx_courses_current ON courses(is_current, is_replaced);

CREATE TABLE IF NOT EXISTS course_sections (
    id INTEGER PRIMARY KEY,
    course_id INTEGER NOT NULL REFERENCES courses(id),
    section_name TEXT NOT NULL,
    section_content TEXT,
    character_count INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_sections_course ON course_sections(course_id);

CREATE TABLE IF NOT EXISTS course_details (
    course_id INTEGER PRIMARY KEY REFERENCES courses(id),
    tuition_fee REAL,
    duration TEXT,
    application_period TEXT,
    application_code TEXT,
    study_form TEXT,
    term TEXT
);

CREATE TABLE IF NOT EXISTS programs (
    id INTEGER PRIMARY KEY,
    program_code TEXT NOT NULL UNIQUE,
    program_name TEXT NOT NULL,
    credits REAL,
    main_field_of_study TEXT,
    purpose TEXT,
    entry_requirements TEXT
);

CREATE TABLE IF NOT EXISTS course_program_mapping (
    course_id INTEGER NOT NULL REFERENCES courses(id),
    program_id INTEGER NOT NULL REFERENCES programs(id),
    PRIMARY KEY (course_id, program_id)
);
`
