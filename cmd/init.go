package cmd

import (
	"github.com/spf13/cobra"

	"github.com/CATrainer/revu-sub000/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize revu configuration with an interactive wizard",
	Long:  `Runs an interactive wizard to configure the AI provider, data directory, and server port, and generates a .revu.yml file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := config.RunWizard()
		return err
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
