package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/DavidStojani/pdf-management-sub000/internal/bus"
	"github.com/DavidStojani/pdf-management-sub000/internal/config"
	"github.com/DavidStojani/pdf-management-sub000/internal/docstore"
	"github.com/DavidStojani/pdf-management-sub000/internal/ingest"
	"github.com/DavidStojani/pdf-management-sub000/internal/logging"
)

// noopPublisher satisfies ingest.Publisher for direct store access. The CLI
// has no running worker pools; the daemon's recovery sweep dispatches
// uploaded documents it finds waiting.
type noopPublisher struct{}

func (noopPublisher) Publish(ctx context.Context, event bus.Event) error {
	return nil
}

func newAddCommand(cmdCtx *commandContext) *cobra.Command {
	var owner string

	cmd := &cobra.Command{
		Use:   "add <path>",
		Short: "Add a PDF document to the processing pipeline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			absPath, err := filepath.Abs(args[0])
			if err != nil {
				return fmt.Errorf("resolve path: %w", err)
			}
			info, err := os.Stat(absPath)
			if err != nil {
				if errors.Is(err, os.ErrNotExist) {
					return fmt.Errorf("file does not exist: %s", absPath)
				}
				return fmt.Errorf("inspect file: %w", err)
			}
			if info.IsDir() {
				return fmt.Errorf("%s is a directory", absPath)
			}

			content, err := os.ReadFile(absPath)
			if err != nil {
				return fmt.Errorf("read file: %w", err)
			}

			return cmdCtx.withStore(func(cfg *config.Config, store *docstore.Store) error {
				svc := ingest.NewService(store, noopPublisher{}, logging.NewNop())
				doc, err := svc.Add(cmd.Context(), absPath, owner, content)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Accepted document #%d (%s)\n", doc.ID, doc.Filename)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&owner, "owner", "o", "", "Owner of the document")
	_ = cmd.MarkFlagRequired("owner")
	return cmd
}
