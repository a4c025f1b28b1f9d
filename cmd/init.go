package cmd

import (
	"github.com/spf13/cobra"

	"github.com/csexpert/csexpert/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize csexpert configuration with an interactive wizard",
	Long:  `Runs an interactive wizard to configure csexpert and writes a csexpert.yml file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := config.RunWizard()
		return err
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
