package router

import (
	"reflect"
	"testing"
)

func TestRouteCourseCode(t *testing.T) {
	r := New(nil)

	intent := r.Route("What are the prerequisites for DIT199?", nil)
	if intent.ContentType != ContentCourse {
		t.Errorf("content type = %s, want course", intent.ContentType)
	}
	if !reflect.DeepEqual(intent.CourseCodes, []string{"DIT199"}) {
		t.Errorf("course codes = %v", intent.CourseCodes)
	}
	if intent.Confidence < 0.9 {
		t.Errorf("confidence = %v, want >= 0.9", intent.Confidence)
	}
}

func TestRouteLowercaseCode(t *testing.T) {
	r := New(nil)
	intent := r.Route("tell me about dit005", nil)
	if intent.ContentType != ContentCourse {
		t.Errorf("content type = %s, want course", intent.ContentType)
	}
	if !reflect.DeepEqual(intent.CourseCodes, []string{"DIT005"}) {
		t.Errorf("course codes = %v, want [DIT005]", intent.CourseCodes)
	}
}

func TestRouteProgramAlias(t *testing.T) {
	r := New(nil)
	intent := r.Route("Tell me about the computer science master", nil)
	if intent.ContentType != ContentProgram {
		t.Errorf("content type = %s, want program", intent.ContentType)
	}
	if intent.Filters.ProgramCode != "N2COS" {
		t.Errorf("program code = %q, want N2COS", intent.Filters.ProgramCode)
	}
}

func TestRouteCourseAndProgram(t *testing.T) {
	r := New(nil)
	intent := r.Route("Is DIT199 part of the applied data science master?", nil)
	if intent.ContentType != ContentBoth {
		t.Errorf("content type = %s, want both", intent.ContentType)
	}
	if intent.Filters.ProgramCode != "N2ADS" {
		t.Errorf("program code = %q, want N2ADS", intent.Filters.ProgramCode)
	}
}

func TestRouteNoSignal(t *testing.T) {
	r := New(nil)
	intent := r.Route("what should I study?", nil)
	if intent.ContentType != ContentBoth {
		t.Errorf("content type = %s, want both", intent.ContentType)
	}
	if intent.Confidence != 0 {
		t.Errorf("confidence = %v, want 0", intent.Confidence)
	}
}

func TestRouteTuitionFilter(t *testing.T) {
	r := New(nil)
	intent := r.Route("Which courses have a tuition fee?", nil)
	if !intent.Filters.HasTuition {
		t.Error("expected tuition filter")
	}

	// "fee" inside another word must not trigger.
	intent = r.Route("coffee courses", nil)
	if intent.Filters.HasTuition {
		t.Error("substring must not trigger tuition filter")
	}
}

func TestRouteTermFilter(t *testing.T) {
	r := New(nil)

	intent := r.Route("courses in autumn 2025", nil)
	if intent.Filters.Term != "Autumn 2025" {
		t.Errorf("term = %q, want Autumn 2025", intent.Filters.Term)
	}

	// American phrasing canonicalizes.
	intent = r.Route("courses in Fall 2025", nil)
	if intent.Filters.Term != "Autumn 2025" {
		t.Errorf("term = %q, want Autumn 2025", intent.Filters.Term)
	}
}

func TestRouteCycleFilter(t *testing.T) {
	r := New(nil)
	intent := r.Route("bachelor courses about programming", nil)
	if intent.Filters.Cycle != "First cycle" {
		t.Errorf("cycle = %q, want First cycle", intent.Filters.Cycle)
	}
}

func TestExtractCourseCodes(t *testing.T) {
	tests := []struct {
		text string
		want []string
	}{
		{"DIT005 and TIA102", []string{"DIT005", "TIA102"}},
		{"dit005, DIT005 again", []string{"DIT005"}},
		{"no codes here", nil},
		{"AB12 is too short, ABCDE123 too long", nil},
		{"MSG900 works", []string{"MSG900"}},
	}
	for _, tt := range tests {
		got := ExtractCourseCodes(tt.text)
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("ExtractCourseCodes(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}

func TestAliasLongestMatchWins(t *testing.T) {
	table := NewAliasTable(map[string]string{
		"software":                    "WRONG",
		"software engineering master": "N2SOF",
	}, nil)

	code, ok := table.Match("I want the software engineering master")
	if !ok || code != "N2SOF" {
		t.Errorf("got %q (%v), want N2SOF", code, ok)
	}
}

func TestAddPrograms(t *testing.T) {
	table := DefaultAliases()
	table.AddPrograms(map[string][]string{
		"N2COS": {"cs masters"},
	})

	code, ok := table.Match("is the cs masters right for me?")
	if !ok || code != "N2COS" {
		t.Errorf("got %q (%v), want N2COS", code, ok)
	}
}

func TestMatchDepartment(t *testing.T) {
	r := New(nil)
	intent := r.Route("courses at computer science and engineering", nil)
	if intent.Filters.Department != "Department of Computer Science and Engineering" {
		t.Errorf("department = %q", intent.Filters.Department)
	}
}
