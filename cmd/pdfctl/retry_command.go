package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/DavidStojani/pdf-management-sub000/internal/config"
	"github.com/DavidStojani/pdf-management-sub000/internal/docstore"
	"github.com/DavidStojani/pdf-management-sub000/internal/document"
)

func newRetryCommand(cmdCtx *commandContext) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "retry [id...]",
		Short: "Re-arm failed documents so the next sweep picks them up",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !all && len(args) == 0 {
				return fmt.Errorf("provide document ids or --all")
			}

			return cmdCtx.withStore(func(cfg *config.Config, store *docstore.Store) error {
				ctx := cmd.Context()

				var targets []*document.Document
				if all {
					docs, err := store.List(ctx,
						document.StatusOCRError,
						document.StatusEnrichmentError,
						document.StatusIndexingError,
					)
					if err != nil {
						return err
					}
					targets = docs
				} else {
					for _, arg := range args {
						id, err := strconv.ParseInt(arg, 10, 64)
						if err != nil {
							return fmt.Errorf("invalid document id %q", arg)
						}
						doc, err := store.GetByID(ctx, id)
						if err != nil {
							return err
						}
						targets = append(targets, doc)
					}
				}

				retried := 0
				for _, doc := range targets {
					stage, ok := document.StageForStatus(doc.Status)
					if !ok || !doc.Status.IsError() {
						fmt.Fprintf(cmd.OutOrStdout(), "Skipping #%d: status %s is not retryable\n", doc.ID, doc.Status)
						continue
					}
					if err := store.RequeueStageRetry(ctx, doc.ID, stage); err != nil {
						return fmt.Errorf("requeue retry for #%d: %w", doc.ID, err)
					}
					retried++
					fmt.Fprintf(cmd.OutOrStdout(), "Requeued %s retry for #%d (%s)\n", stage, doc.ID, doc.DisplayName())
				}
				if retried > 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "The daemon's next recovery sweep will re-dispatch them.")
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Retry every document parked in an error status")
	return cmd
}
