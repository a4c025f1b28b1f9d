package mcp

import "github.com/mark3labs/mcp-go/mcp"

// searchCoursesTool defines the search_courses MCP tool.
var searchCoursesTool = mcp.NewTool("search_courses",
	mcp.WithDescription("Search courses and programs semantically. Returns the most relevant catalog documents with similarity scores."),
	mcp.WithString("query",
		mcp.Required(),
		mcp.Description("Natural language search query"),
	),
	mcp.WithNumber("limit",
		mcp.Description("Maximum number of results to return (default 10)"),
	),
	mcp.WithString("content_type",
		mcp.Description("Restrict results to courses or programs"),
		mcp.Enum("course", "program"),
	),
)

// getCourseTool defines the get_course MCP tool.
var getCourseTool = mcp.NewTool("get_course",
	mcp.WithDescription("Get the full catalog record for a course: overview, content sections, and administrative details."),
	mcp.WithString("course_code",
		mcp.Required(),
		mcp.Description("Official course code, e.g. DIT005"),
	),
)

// listProgramsTool defines the list_programs MCP tool.
var listProgramsTool = mcp.NewTool("list_programs",
	mcp.WithDescription("List all degree programs with their codes, credits, and main fields of study."),
)

// askTool defines the ask MCP tool.
var askTool = mcp.NewTool("ask",
	mcp.WithDescription("Ask the student counselor assistant a question about courses or programs. Returns a grounded answer with cited course codes."),
	mcp.WithString("question",
		mcp.Required(),
		mcp.Description("The question to answer"),
	),
)
