package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/DavidStojani/pdf-management-sub000/internal/config"
	"github.com/DavidStojani/pdf-management-sub000/internal/docstore"
	"github.com/DavidStojani/pdf-management-sub000/internal/document"
)

func newListCommand(cmdCtx *commandContext) *cobra.Command {
	var statusFlags []string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List documents in the pipeline",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			statuses, err := parseStatusFlags(statusFlags)
			if err != nil {
				return err
			}

			return cmdCtx.withStore(func(cfg *config.Config, store *docstore.Store) error {
				docs, err := store.List(cmd.Context(), statuses...)
				if err != nil {
					return err
				}
				if len(docs) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No documents found.")
					return nil
				}

				rows := make([][]string, 0, len(docs))
				for _, doc := range docs {
					rows = append(rows, []string{
						strconv.FormatInt(doc.ID, 10),
						doc.DisplayName(),
						doc.Owner,
						string(doc.Status),
						formatRetrySummary(doc),
						doc.UploadedAt.Local().Format("2006-01-02 15:04"),
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"ID", "Document", "Owner", "Status", "Retries", "Uploaded"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft, alignLeft},
				))
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVarP(&statusFlags, "status", "s", nil, "Filter by status (repeatable)")
	return cmd
}

func parseStatusFlags(values []string) ([]document.Status, error) {
	statuses := make([]document.Status, 0, len(values))
	for _, value := range values {
		status, ok := document.ParseStatus(value)
		if !ok {
			return nil, fmt.Errorf("unknown status %q (valid: %s)", value, statusNames())
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}

func statusNames() string {
	all := document.AllStatuses()
	names := make([]string, 0, len(all))
	for _, status := range all {
		names = append(names, string(status))
	}
	return strings.Join(names, ", ")
}

func formatRetrySummary(doc *document.Document) string {
	stage, ok := document.StageForStatus(doc.Status)
	if !ok || !doc.Status.IsError() {
		return "-"
	}
	retry := doc.Retry(stage)
	if retry.NextRetryAt == nil {
		return fmt.Sprintf("%d", retry.Count)
	}
	return fmt.Sprintf("%d (next %s)", retry.Count, retry.NextRetryAt.Local().Format("15:04"))
}
