package docstore

import (
	"context"
	"fmt"
	"time"

	"github.com/DavidStojani/pdf-management-sub000/internal/document"
)

// FindRetryable returns documents parked in the stage's error status whose
// retry budget is not exhausted and whose backoff window has elapsed. Results
// are ordered by upload time so older documents are retried first.
func (s *Store) FindRetryable(ctx context.Context, stage document.Stage, now time.Time, limit int) ([]*document.Document, error) {
	prefix, err := stageColumnPrefix(stage)
	if err != nil {
		return nil, err
	}

	query := `SELECT ` + documentColumns + ` FROM documents
        WHERE status = ?
          AND ` + prefix + `_retry_count < ?
          AND (` + prefix + `_next_retry_at IS NULL OR ` + prefix + `_next_retry_at <= ?)
        ORDER BY uploaded_at
        LIMIT ?`

	rows, err := s.db.QueryContext(
		ctx,
		query,
		stage.ErrorStatus(),
		s.policy.MaxAttempts,
		now.UTC().Format(time.RFC3339Nano),
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("find retryable %s documents: %w", stage, err)
	}
	defer rows.Close()

	var docs []*document.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// FindAwaitingDispatch returns documents sitting in a stage entry status
// with no worker on them. Uploaded documents are returned immediately so
// publisher-less ingest (the CLI) gets picked up on the next sweep; the
// downstream entry statuses get the stale cutoff, since their events are
// normally published in-process and are only missing after a crash between
// the database commit and the publish.
func (s *Store) FindAwaitingDispatch(ctx context.Context, cutoff time.Time, limit int) ([]*document.Document, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+documentColumns+` FROM documents
            WHERE (status = ?
               OR (status IN (?, ?) AND updated_at <= ?))
            ORDER BY uploaded_at
            LIMIT ?`,
		document.StatusUploaded,
		document.StatusOCRCompleted,
		document.StatusEnrichmentCompleted,
		cutoff.UTC().Format(time.RFC3339Nano),
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("find awaiting documents: %w", err)
	}
	defer rows.Close()

	var docs []*document.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// FindStaleInProgress returns documents that have sat in an in-progress
// status since before the cutoff. These are assumed to belong to a worker
// that died mid-stage.
func (s *Store) FindStaleInProgress(ctx context.Context, cutoff time.Time, limit int) ([]*document.Document, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+documentColumns+` FROM documents
            WHERE status IN (?, ?, ?)
              AND updated_at <= ?
            ORDER BY uploaded_at
            LIMIT ?`,
		document.StatusOCRInProgress,
		document.StatusEnrichmentInProgress,
		document.StatusIndexingInProgress,
		cutoff.UTC().Format(time.RFC3339Nano),
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("find stale in-progress documents: %w", err)
	}
	defer rows.Close()

	var docs []*document.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}
