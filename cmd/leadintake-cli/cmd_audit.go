package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/persistorai/leadintake/client"
)

type auditFlags struct {
	entityType string
	entityID   string
	action     string
	since      time.Duration
	limit      int
	offset     int
	all        bool
}

func (f *auditFlags) options(now time.Time) *client.AuditQueryOptions {
	opts := &client.AuditQueryOptions{
		EntityType: f.entityType,
		EntityID:   f.entityID,
		Action:     f.action,
		Limit:      f.limit,
		Offset:     f.offset,
	}
	if f.since > 0 {
		opts.Since = now.Add(-f.since)
	}
	return opts
}

func auditRows(entries []client.AuditEntry) [][]string {
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{
			strconv.FormatInt(e.ID, 10),
			e.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			e.Action,
			e.EntityType,
			e.EntityID,
			e.Actor,
		})
	}
	return rows
}

func newAuditCmd() *cobra.Command {
	var f auditFlags

	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Show who logged in, changed, imported or exported buyers",
		Long: `Show the audit log newest first. The log keeps deleted buyers' names
after their history is gone. Use --all to follow every page.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := f.options(time.Now())

			var (
				entries []client.AuditEntry
				hasMore bool
			)

			if f.all {
				err := apiClient.Audit.Walk(cmd.Context(), opts, func(e client.AuditEntry) error {
					entries = append(entries, e)
					return nil
				})
				if err != nil {
					fatal("audit query", err)
				}
			} else {
				page, err := apiClient.Audit.Query(cmd.Context(), opts)
				if err != nil {
					fatal("audit query", err)
				}
				entries, hasMore = page.Entries, page.HasMore
			}

			if flagFmt == "table" {
				formatTable([]string{"ID", "AT", "ACTION", "ENTITY", "ENTITY_ID", "ACTOR"}, auditRows(entries))
				if hasMore {
					fmt.Fprintln(os.Stderr, "More entries available; use --offset or --all")
				}
				return nil
			}

			output(entries, strconv.Itoa(len(entries)))
			return nil
		},
	}

	fs := cmd.Flags()
	fs.StringVar(&f.entityType, "entity-type", "", "Filter by entity type (buyer, user, audit_log)")
	fs.StringVar(&f.entityID, "entity", "", "Filter by entity ID")
	fs.StringVar(&f.action, "action", "", "Filter by action, e.g. buyer.delete")
	fs.DurationVar(&f.since, "since", 0, "Only entries newer than this, e.g. 24h")
	fs.IntVar(&f.limit, "limit", 0, "Entries per page (server default 50)")
	fs.IntVar(&f.offset, "offset", 0, "Entries to skip")
	fs.BoolVar(&f.all, "all", false, "Fetch every page")

	cmd.AddCommand(auditPurgeCmd())
	return cmd
}

func auditPurgeCmd() *cobra.Command {
	var retentionDays int

	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Delete audit entries older than the retention period",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if retentionDays < 1 {
				return fmt.Errorf("--retention-days must be at least 1")
			}

			res, err := apiClient.Audit.Purge(cmd.Context(), retentionDays)
			if err != nil {
				fatal("audit purge", err)
			}

			fmt.Fprintf(os.Stderr, "Deleted %d entries older than %d days\n", res.Deleted, res.RetentionDays)
			output(res, strconv.Itoa(res.Deleted))
			return nil
		},
	}
	cmd.Flags().IntVar(&retentionDays, "retention-days", 90, "Delete entries older than N days")
	return cmd
}
