package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/CATrainer/revu-sub000/internal/config"
	"github.com/CATrainer/revu-sub000/internal/db"
	"github.com/CATrainer/revu-sub000/internal/rules"
)

var ruleFile string

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Inspect and validate automation rules",
}

var rulesCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Check a rule definition for conflicts against the active rule set",
	Long:  `Reads a rule definition from a JSON file, validates its logic expression, and reports overlaps, priority suggestions, and feedback-loop risks against the rules already active in the database. Nothing is persisted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if ruleFile == "" {
			return fmt.Errorf("a rule file is required (-f rule.json)")
		}

		data, err := os.ReadFile(ruleFile)
		if err != nil {
			return fmt.Errorf("reading rule file: %w", err)
		}
		var rule rules.Rule
		if err := json.Unmarshal(data, &rule); err != nil {
			return fmt.Errorf("parsing rule file: %w", err)
		}

		cfg, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		database, err := db.Open(filepath.Join(cfg.DataDir, "revu.db"))
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer database.Close()

		existing, err := rules.NewStore(database).ListActive(context.Background(), rule.ScopeID)
		if err != nil {
			return fmt.Errorf("loading active rules: %w", err)
		}

		report := rules.FindConflicts(rule, existing)
		out, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return fmt.Errorf("encoding report: %w", err)
		}
		fmt.Println(string(out))

		if !report.OK {
			os.Exit(1)
		}
		return nil
	},
}

func init() {
	rulesCheckCmd.Flags().StringVarP(&ruleFile, "file", "f", "", "path to the rule definition JSON")
	rulesCmd.AddCommand(rulesCheckCmd)
	rootCmd.AddCommand(rulesCmd)
}
