package cmd

import (
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "revu",
	Short: "Interaction management and rule automation for creators",
	Long: `Revu ingests comments, DMs, and mentions from connected platforms and
runs them through user-defined automation rules: keyword and sentiment
matching, AI-judged natural-language conditions, auto-responses with a
human approval queue, and a full execution audit log.`,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", ".revu.yml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
