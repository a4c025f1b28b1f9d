package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/csexpert/csexpert/internal/loader"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show catalog and index statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		db, err := openCatalog(cfg)
		if err != nil {
			return err
		}
		defer db.Close()

		ctx := cmd.Context()

		stats, err := db.Statistics(ctx)
		if err != nil {
			return fmt.Errorf("reading catalog statistics: %w", err)
		}

		fmt.Printf("Catalog (%s):\n", cfg.DatabasePath)
		fmt.Printf("  Current courses:      %d\n", stats.CurrentCourses)
		fmt.Printf("  Replaced courses:     %d\n", stats.ReplacedCourses)
		fmt.Printf("  Content sections:     %d\n", stats.TotalSections)
		fmt.Printf("  Courses with tuition: %d\n", stats.CoursesWithTuition)
		fmt.Printf("  Programs:             %d\n", stats.Programs)

		docStats, err := loader.New(db).Statistics(ctx)
		if err != nil {
			return fmt.Errorf("computing document statistics: %w", err)
		}
		fmt.Printf("\nRetrieval documents: %d total\n", docStats.Total)
		for docType, n := range docStats.ByType {
			fmt.Printf("  %-20s %d\n", docType, n)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
