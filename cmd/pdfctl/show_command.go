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

func newShowCommand(cmdCtx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one document with its stage retry details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid document id %q", args[0])
			}

			return cmdCtx.withStore(func(cfg *config.Config, store *docstore.Store) error {
				doc, err := store.GetByID(cmd.Context(), id)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Document #%d\n", doc.ID)
				fmt.Fprintf(out, "  Filename:  %s\n", doc.Filename)
				fmt.Fprintf(out, "  Owner:     %s\n", doc.Owner)
				fmt.Fprintf(out, "  Status:    %s\n", doc.Status)
				if doc.Title != "" {
					fmt.Fprintf(out, "  Title:     %s\n", doc.Title)
				}
				if doc.DateOnDocument != nil {
					fmt.Fprintf(out, "  Dated:     %s\n", doc.DateOnDocument.Format("2006-01-02"))
				}
				if len(doc.Tags) > 0 {
					fmt.Fprintf(out, "  Tags:      %s\n", strings.Join(doc.Tags, ", "))
				}
				if doc.FailedEnrichment {
					fmt.Fprintln(out, "  Flagged:   enrichment degraded, metadata needs review")
				}
				fmt.Fprintf(out, "  Uploaded:  %s\n", doc.UploadedAt.Local().Format("2006-01-02 15:04:05"))
				fmt.Fprintf(out, "  Updated:   %s\n", doc.UpdatedAt.Local().Format("2006-01-02 15:04:05"))

				rows := make([][]string, 0, 3)
				for _, stage := range document.Stages() {
					retry := doc.Retry(stage)
					next := "-"
					if retry.NextRetryAt != nil {
						next = retry.NextRetryAt.Local().Format("2006-01-02 15:04:05")
					}
					lastError := retry.LastError
					if lastError == "" {
						lastError = "-"
					}
					rows = append(rows, []string{
						string(stage),
						strconv.Itoa(retry.Count),
						next,
						lastError,
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Stage", "Attempts", "Next Retry", "Last Error"},
					rows,
					[]columnAlignment{alignLeft, alignRight, alignLeft, alignLeft},
				))
				return nil
			})
		},
	}
}
