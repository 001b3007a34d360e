package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/reconcile-cli/internal/reconcile"
)

var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Report the best export row for every CRM record",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		if err := cfg.Validate("crm"); err != nil {
			return err
		}
		src, err := initSource()
		if err != nil {
			return err
		}
		n, err := initNormalizer()
		if err != nil {
			return err
		}
		rows, err := loadRows(ctx, n)
		if err != nil {
			return err
		}

		report, err := reconcile.MatchReport(ctx, src, rows, reconcileOptions())
		if err != nil {
			return err
		}
		if flagJSON {
			return writeJSON(os.Stdout, report)
		}
		formatReport(os.Stdout, report)
		return nil
	},
}

var syncCSVCmd = &cobra.Command{
	Use:   "sync-csv",
	Short: "Back-fill CRM fields from matched export rows",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		if err := cfg.Validate("crm"); err != nil {
			return err
		}
		src, err := initSource()
		if err != nil {
			return err
		}
		n, err := initNormalizer()
		if err != nil {
			return err
		}
		rows, err := loadRows(ctx, n)
		if err != nil {
			return err
		}
		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		if st != nil {
			defer st.Close() //nolint:errcheck
		}

		summary, err := newRunner(src, st).SyncCSV(ctx, rows, cfg.Source.Mapping)
		if err != nil {
			return eris.Wrap(err, "sync-csv")
		}
		return printSummary(summary)
	},
}

var syncCommentsCmd = &cobra.Command{
	Use:   "sync-comments",
	Short: "Back-fill contact fields from record comments",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		if err := cfg.Validate("crm"); err != nil {
			return err
		}
		src, err := initSource()
		if err != nil {
			return err
		}
		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		if st != nil {
			defer st.Close() //nolint:errcheck
		}

		summary, err := newRunner(src, st).SyncComments(ctx, nil)
		if err != nil {
			return eris.Wrap(err, "sync-comments")
		}
		return printSummary(summary)
	},
}

var (
	typeFrom string
	typeTo   string
)

var taskTypesCmd = &cobra.Command{
	Use:   "task-types",
	Short: "Reclassify records typed as tasks to accounts",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		if err := cfg.Validate("crm"); err != nil {
			return err
		}
		src, err := initSource()
		if err != nil {
			return err
		}
		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		if st != nil {
			defer st.Close() //nolint:errcheck
		}

		summary, err := newRunner(src, st).TaskTypes(ctx, typeFrom, typeTo)
		if err != nil {
			return eris.Wrap(err, "task-types")
		}
		return printSummary(summary)
	},
}

var (
	listHeuristic bool
	listField     string
	listValue     string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List CRM records in a status, optionally filtered",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		if err := cfg.Validate("crm"); err != nil {
			return err
		}
		src, err := initSource()
		if err != nil {
			return err
		}

		res, err := reconcile.List(ctx, src, reconcile.ListOptions{
			Status:    cfg.CRM.Status,
			Field:     listField,
			Value:     listValue,
			Heuristic: listHeuristic,
		})
		if err != nil {
			return err
		}
		if flagJSON {
			return writeJSON(os.Stdout, res)
		}
		formatList(os.Stdout, res)
		return nil
	},
}

var fieldsCmd = &cobra.Command{
	Use:   "fields [term]",
	Short: "Dump CRM field definitions, or search field and option names",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if err := cfg.Validate("crm"); err != nil {
			return err
		}
		src, err := initSource()
		if err != nil {
			return err
		}
		fields, err := reconcile.Fields(ctx, src)
		if err != nil {
			return err
		}

		if len(args) == 0 {
			if flagJSON {
				return writeJSON(os.Stdout, fields)
			}
			formatFields(os.Stdout, fields)
			return nil
		}
		hits := reconcile.FieldSearch(fields, args[0])
		if flagJSON {
			return writeJSON(os.Stdout, hits)
		}
		formatFieldHits(os.Stdout, args[0], hits)
		return nil
	},
}

func printSummary(s *reconcile.Summary) error {
	if flagJSON {
		return writeJSON(os.Stdout, s)
	}
	formatSummary(os.Stdout, s)
	return nil
}

func init() {
	taskTypesCmd.Flags().StringVar(&typeFrom, "from", "task", "type name to replace")
	taskTypesCmd.Flags().StringVar(&typeTo, "to", "account", "type name to write")

	listCmd.Flags().BoolVar(&listHeuristic, "heuristic", false, "keep records whose fields, tags or name mention brewing")
	listCmd.Flags().StringVar(&listField, "field", "", "field name to filter on (with --value)")
	listCmd.Flags().StringVar(&listValue, "value", "", "value the field must contain (with --field)")

	rootCmd.AddCommand(matchCmd, syncCSVCmd, syncCommentsCmd, taskTypesCmd, listCmd, fieldsCmd)
}
