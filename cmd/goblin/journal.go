package main

import (
	"fmt"
	"strings"

	"github.com/dd0wney/goblin/pkg/audit"
	"github.com/spf13/cobra"
)

var exportFormat string

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Inspect an edit journal written with audit_file",
}

var auditVerifyCmd = &cobra.Command{
	Use:   "verify <file>",
	Short: "Check the hash chain of a journal file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := audit.Verify(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render(fmt.Sprintf("✅ %d entries, chain intact", n)))
		return nil
	},
}

var auditExportCmd = &cobra.Command{
	Use:   "export <file>",
	Short: "Print a verified journal file as json, jsonl or csv",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := audit.ParseFormat(exportFormat)
		if err != nil {
			return err
		}
		events, err := audit.ReadFile(args[0])
		if err != nil {
			return err
		}
		return audit.Export(cmd.OutOrStdout(), events, format)
	},
}

var auditSummaryCmd = &cobra.Command{
	Use:   "summary <file>",
	Short: "Count the edits in a verified journal file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		events, err := audit.ReadFile(args[0])
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), renderSummary(audit.Summarize(events)))
		return nil
	},
}

func init() {
	auditExportCmd.Flags().StringVarP(&exportFormat, "format", "f", string(audit.FormatJSON), "Output format (json, jsonl, csv)")
	auditCmd.AddCommand(auditVerifyCmd, auditExportCmd, auditSummaryCmd)
}

func renderSummary(s audit.Summary) string {
	var b strings.Builder
	fmt.Fprintln(&b, titleStyle.Render(fmt.Sprintf("%d journaled edit(s)", s.Total)))
	if s.Total == 0 {
		return b.String()
	}
	for _, action := range []audit.Action{
		audit.ActionPerform, audit.ActionUndo, audit.ActionRedo, audit.ActionConfirmed, audit.ActionDeclined,
	} {
		if n := s.ByAction[action]; n > 0 {
			fmt.Fprintf(&b, "  %-10s %d\n", action, n)
		}
	}
	for _, h := range s.Hierarchies() {
		fmt.Fprintf(&b, "  %-10s %d edit(s)\n", h, s.ByHierarchy[h])
	}
	fmt.Fprintf(&b, "  from %s to %s\n", s.First.Format("2006-01-02 15:04:05"), s.Last.Format("2006-01-02 15:04:05"))
	return b.String()
}
