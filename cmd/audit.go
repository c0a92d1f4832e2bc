package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/clerk-dev/clerk/internal/audit"
	"github.com/clerk-dev/clerk/internal/ui"
	"github.com/clerk-dev/clerk/internal/workflows"
	"github.com/spf13/cobra"
)

var (
	auditEntityType string
	auditOperation  string
	auditSince      string
	auditUntil      string
	auditLimit      int
	auditOffset     int
	auditJSONOutput bool
)

func init() {
	auditCmd.Flags().StringVar(&auditEntityType, "entity-type", "", "only show project, environment or variable entries")
	auditCmd.Flags().StringVar(&auditOperation, "operation", "", "only show create, update, delete or copy entries")
	auditCmd.Flags().StringVar(&auditSince, "since", "", "only entries on or after this date (YYYY-MM-DD)")
	auditCmd.Flags().StringVar(&auditUntil, "until", "", "only entries on or before this date (YYYY-MM-DD)")
	auditCmd.Flags().IntVarP(&auditLimit, "number", "n", 50, "maximum number of entries")
	auditCmd.Flags().IntVar(&auditOffset, "offset", 0, "skip this many entries")
	auditCmd.Flags().BoolVar(&auditJSONOutput, "json", false, "output in JSON format")
}

func resetAuditCommandState() {
	auditEntityType = ""
	auditOperation = ""
	auditSince = ""
	auditUntil = ""
	auditLimit = 50
	auditOffset = 0
	auditJSONOutput = false
}

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Show the audit log",
	Long: `Shows who-did-what entries for projects, environments and variables,
newest first. Entries never contain variable values.

Examples:
  clerk audit --entity-type variable -n 20
  clerk audit --operation delete --since 2024-01-01`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting audit command")

		return withVault(cmd, func(ctx context.Context, vs *vaultSession) error {
			entries, err := workflows.AuditLog(ctx, vs.Handle, workflows.AuditOptions{
				EntityType: auditEntityType,
				Operation:  auditOperation,
				Since:      auditSince,
				Until:      auditUntil,
				Limit:      auditLimit,
				Offset:     auditOffset,
			})
			vs.done()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if auditJSONOutput {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(entries)
			}

			if len(entries) == 0 {
				fmt.Fprintln(out, "No audit entries found")
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			for _, e := range entries {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
					ui.Muted.Sprint(e.Time().Local().Format(ui.TimeLayout)),
					operationLabel(e.Operation), e.EntityType, e.Name())
			}
			return w.Flush()
		})
	},
}

func operationLabel(op string) string {
	switch op {
	case audit.OpCreate, audit.OpCopy:
		return ui.Success.Sprint(op)
	case audit.OpDelete:
		return ui.Error.Sprint(op)
	default:
		return ui.Warning.Sprint(op)
	}
}
