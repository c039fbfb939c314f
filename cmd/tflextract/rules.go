package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dgallion1/tflextract/internal/classify"
	"github.com/dgallion1/tflextract/internal/config"
)

// NewRulesCmd creates the rules command.
func NewRulesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rules",
		Short: "Print the effective classification rules",
		Long: `Print the rules in effect as YAML, after merging the rules file with the
built-in defaults. The rules are compiled first, so an invalid pattern is
reported here. Redirect the output to tflextract.yaml to start a rules file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rules, path, err := loadRules(cmd)
			if err != nil {
				return err
			}
			if _, err := classify.New(rules); err != nil {
				return err
			}

			data, err := config.MarshalRules(rules)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if path == "" {
				fmt.Fprintln(out, "# built-in rules")
			} else {
				fmt.Fprintf(out, "# rules from %s\n", path)
			}
			_, err = out.Write(data)
			return err
		},
	}
}
