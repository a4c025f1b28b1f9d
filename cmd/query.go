package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/csexpert/csexpert/internal/docstore"
)

var queryCmd = &cobra.Command{
	Use:   "query [question]",
	Short: "Semantically search the indexed catalog",
	Long:  `Searches the vector index with a natural language query and prints the most similar course and program documents. Useful for inspecting retrieval quality.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runQuery,
}

func init() {
	queryCmd.Flags().Int("limit", 10, "maximum number of results")
	queryCmd.Flags().String("content-type", "", "filter by content type: course, program")
	queryCmd.Flags().String("course", "", "filter by course code")
	queryCmd.Flags().Bool("json", false, "output results as JSON")
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	queryText := args[0]

	limit, _ := cmd.Flags().GetInt("limit")
	contentType, _ := cmd.Flags().GetString("content-type")
	courseCode, _ := cmd.Flags().GetString("course")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	embedder, err := newEmbedder(cfg)
	if err != nil {
		return fmt.Errorf("creating embedder: %w", err)
	}
	store, err := newStore(cfg, embedder)
	if err != nil {
		return fmt.Errorf("creating vector store: %w", err)
	}

	ctx := cmd.Context()
	if err := store.Reload(ctx); err != nil {
		return fmt.Errorf("loading index from %s: %w\nRun `csexpert index` first", cfg.IndexPath, err)
	}

	filter := &docstore.Filter{}
	if contentType == "course" || contentType == "program" {
		filter.Content = &contentType
	}
	if courseCode != "" {
		code := strings.ToUpper(courseCode)
		filter.CourseCode = &code
	}

	results, err := store.Search(ctx, queryText, limit, filter)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if len(results) == 0 {
		fmt.Println("No results found.")
		return nil
	}

	if jsonOutput {
		return printQueryResultsJSON(results)
	}
	printQueryResultsTable(results)
	return nil
}

type queryResultJSON struct {
	Rank       int     `json:"rank"`
	Similarity float64 `json:"similarity"`
	Code       string  `json:"code,omitempty"`
	Title      string  `json:"title,omitempty"`
	DocType    string  `json:"doc_type"`
	Section    string  `json:"section,omitempty"`
	Summary    string  `json:"summary"`
}

func printQueryResultsJSON(results []docstore.Result) error {
	var out []queryResultJSON
	for i, r := range results {
		code, title := documentCodeTitle(r.Document)
		out = append(out, queryResultJSON{
			Rank:       i + 1,
			Similarity: float64(r.Score),
			Code:       code,
			Title:      title,
			DocType:    string(r.Document.Metadata.DocType),
			Section:    r.Document.Metadata.SectionName,
			Summary:    truncate(r.Document.Text, 200),
		})
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func printQueryResultsTable(results []docstore.Result) {
	fmt.Printf("Found %d results:\n\n", len(results))
	for i, r := range results {
		code, title := documentCodeTitle(r.Document)
		heading := code
		if title != "" {
			heading = fmt.Sprintf("%s %s", code, title)
		}

		fmt.Printf("  %d. [%.1f%%] %s\n", i+1, r.Score*100, heading)
		fmt.Printf("     Type: %s", r.Document.Metadata.DocType)
		if r.Document.Metadata.SectionName != "" {
			fmt.Printf("  Section: %s", r.Document.Metadata.SectionName)
		}
		fmt.Printf("\n     %s\n\n", truncate(r.Document.Text, 120))
	}
}

func documentCodeTitle(d docstore.Document) (code, title string) {
	code = d.Metadata.CourseCode
	title = d.Metadata.CourseTitle
	if code == "" {
		code = d.Metadata.ProgramCode
		title = d.Metadata.ProgramName
	}
	return code, title
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
