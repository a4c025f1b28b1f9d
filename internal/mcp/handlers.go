package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/csexpert/csexpert/internal/chat"
	"github.com/csexpert/csexpert/internal/docstore"
)

// handleSearchCourses performs semantic search over the catalog index.
func (s *Server) handleSearchCourses(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: query"), nil
	}

	limit := request.GetInt("limit", 10)
	if limit <= 0 {
		limit = 10
	}

	var filter *docstore.Filter
	if ct := request.GetString("content_type", ""); ct == "course" || ct == "program" {
		filter = &docstore.Filter{Content: &ct}
	}

	results, err := s.store.Search(ctx, query, limit, filter)
	if err != nil {
		if errors.Is(err, docstore.ErrStoreUnavailable) {
			return mcp.NewToolResultError("The catalog is not indexed yet. Run `csexpert index` first."), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}

	if len(results) == 0 {
		return mcp.NewToolResultText("No matching courses or programs found."), nil
	}

	return mcp.NewToolResultText(formatSearchResults(results)), nil
}

// handleGetCourse assembles the complete record for one course code from the
// relational catalog.
func (s *Server) handleGetCourse(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	code, err := request.RequireString("course_code")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: course_code"), nil
	}
	code = strings.ToUpper(strings.TrimSpace(code))

	courses, err := s.db.CurrentCourses(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("reading catalog: %v", err)), nil
	}

	var sb strings.Builder
	found := false
	for _, c := range courses {
		if c.CourseCode != code {
			continue
		}
		found = true
		fmt.Fprintf(&sb, "%s: %s\n", c.CourseCode, c.CourseTitle)
		fmt.Fprintf(&sb, "Department: %s\n", c.Department)
		fmt.Fprintf(&sb, "Credits: %g\n", c.Credits)
		fmt.Fprintf(&sb, "Cycle: %s\n", c.Cycle)
		if c.Term != "" {
			fmt.Fprintf(&sb, "Term: %s\n", c.Term)
		}
		if c.ProgramCodes != "" {
			fmt.Fprintf(&sb, "Programs: %s\n", c.ProgramCodes)
		}
		break
	}
	if !found {
		return mcp.NewToolResultError(fmt.Sprintf("no current course with code %s", code)), nil
	}

	sections, err := s.db.CurrentSections(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("reading sections: %v", err)), nil
	}
	for _, sec := range sections {
		if sec.CourseCode != code {
			continue
		}
		fmt.Fprintf(&sb, "\n## %s\n%s\n", sec.SectionName, sec.SectionContent)
	}

	details, err := s.db.CurrentDetails(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("reading details: %v", err)), nil
	}
	for _, d := range details {
		if d.CourseCode != code {
			continue
		}
		sb.WriteString("\n## Administrative details\n")
		if d.TuitionFee.Valid {
			fmt.Fprintf(&sb, "Tuition fee: %.0f SEK\n", d.TuitionFee.Float64)
		}
		if d.Duration.Valid {
			fmt.Fprintf(&sb, "Duration: %s\n", d.Duration.String)
		}
		if d.ApplicationPeriod.Valid {
			fmt.Fprintf(&sb, "Application period: %s\n", d.ApplicationPeriod.String)
		}
		break
	}

	return mcp.NewToolResultText(sb.String()), nil
}

// handleListPrograms lists the degree programs.
func (s *Server) handleListPrograms(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	programs, err := s.db.Programs(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("reading programs: %v", err)), nil
	}
	if len(programs) == 0 {
		return mcp.NewToolResultText("No programs in the catalog."), nil
	}

	var sb strings.Builder
	for _, p := range programs {
		fmt.Fprintf(&sb, "%s: %s (%g credits", p.ProgramCode, p.ProgramName, p.Credits)
		if p.MainFieldOfStudy != "" {
			fmt.Fprintf(&sb, ", %s", p.MainFieldOfStudy)
		}
		sb.WriteString(")\n")
	}
	return mcp.NewToolResultText(sb.String()), nil
}

// handleAsk routes a question through the full answering pipeline.
func (s *Server) handleAsk(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	question, err := request.RequireString("question")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: question"), nil
	}

	resp, err := s.chat.Ask(ctx, chat.Request{Message: question})
	if err != nil {
		if errors.Is(err, docstore.ErrStoreUnavailable) {
			return mcp.NewToolResultError("The catalog is not indexed yet. Run `csexpert index` first."), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("answering failed: %v", err)), nil
	}

	var sb strings.Builder
	sb.WriteString(resp.Answer)
	if len(resp.TopCourses) > 0 {
		sb.WriteString("\n\nCourses discussed: ")
		sb.WriteString(strings.Join(resp.TopCourses, ", "))
	}
	return mcp.NewToolResultText(sb.String()), nil
}

// formatSearchResults renders hits in a text format optimized for AI agent
// consumption.
func formatSearchResults(results []docstore.Result) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Found %d result(s):\n", len(results))

	for i, r := range results {
		fmt.Fprintf(&sb, "\n--- Result %d ---\n", i+1)

		code := r.Document.Metadata.CourseCode
		title := r.Document.Metadata.CourseTitle
		if code == "" {
			code = r.Document.Metadata.ProgramCode
			title = r.Document.Metadata.ProgramName
		}
		if code != "" {
			fmt.Fprintf(&sb, "Code: %s\n", code)
		}
		if title != "" {
			fmt.Fprintf(&sb, "Title: %s\n", title)
		}
		fmt.Fprintf(&sb, "Type: %s\n", r.Document.Metadata.DocType)
		if r.Document.Metadata.SectionName != "" {
			fmt.Fprintf(&sb, "Section: %s\n", r.Document.Metadata.SectionName)
		}
		fmt.Fprintf(&sb, "Similarity: %.1f%%\n", r.Score*100)

		sb.WriteString("\n")
		sb.WriteString(r.Document.Text)
		sb.WriteString("\n")
	}

	return sb.String()
}
