package main

import (
	"fmt"
	"os"
	"privacy_rules/internal/domain"
	"privacy_rules/internal/repository/yamlfile"
	"privacy_rules/pkg/validator"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "privacyrules",
		Short: "Edit and apply data privacy rules",
		RunE: func(cmd *cobra.Command, args []string) error {
			_ = cmd.Help()
			return fmt.Errorf("no command specified")
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a YAML config file")

	rootCmd.AddCommand(newServeCmd(&configPath))
	rootCmd.AddCommand(newCheckCmd())
	rootCmd.AddCommand(newOptionsCmd())
	return rootCmd
}

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check FILE",
		Short: "Validate a YAML rules file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", args[0], err)
			}
			doc, err := yamlfile.Decode(data)
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}

			out := cmd.OutOrStdout()
			invalid := 0
			for _, rule := range doc.Rules {
				missing := validator.ValidateRule(rule)
				for _, field := range missing {
					fmt.Fprintf(out, "rule %d: %s: %s\n", rule.ID, field, validator.MsgFieldRequired)
					invalid++
				}
				if len(missing) == 0 {
					fmt.Fprintf(out, "rule %d: %s %s from %q\n", rule.ID, rule.Action.Label(), rule.Data.Label(), rule.From)
				}
			}

			if invalid > 0 {
				return fmt.Errorf("%d field error(s) in %s", invalid, args[0])
			}
			fmt.Fprintf(out, "%d rule(s) ok\n", len(doc.Rules))
			return nil
		},
	}
}

func newOptionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "options",
		Short: "List the available actions and data categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ACTIONS")
			for _, o := range domain.ActionOptions() {
				fmt.Fprintf(w, "  %s\t%s\n", o.Value, o.Label)
			}
			fmt.Fprintln(w, "DATA")
			for _, o := range domain.DataOptions() {
				fmt.Fprintf(w, "  %s\t%s\n", o.Value, o.Label)
			}
			return w.Flush()
		},
	}
}
