package docstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/DavidStojani/pdf-management-sub000/internal/document"
	"github.com/DavidStojani/pdf-management-sub000/internal/services"
)

// GetStatus reads the current status of a document.
func (s *Store) GetStatus(ctx context.Context, id int64) (document.Status, error) {
	var status string
	err := s.db.QueryRowContext(ctx, `SELECT status FROM documents WHERE id = ?`, id).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get status: %w", err)
	}
	return document.Status(status), nil
}

// UpdateStatus unconditionally moves a document to the given status.
func (s *Store) UpdateStatus(ctx context.Context, id int64, status document.Status) error {
	res, err := s.execWithRetry(
		ctx,
		`UPDATE documents SET status = ?, updated_at = ? WHERE id = ?`,
		status,
		nowString(),
		id,
	)
	if err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateStatusIfCurrent performs an optimistic transition: the status is set
// to next only when the stored status still equals expected. It returns true
// when the transition was applied, false when another delivery already moved
// the document past expected.
func (s *Store) UpdateStatusIfCurrent(ctx context.Context, id int64, expected, next document.Status) (bool, error) {
	res, err := s.execWithRetry(
		ctx,
		`UPDATE documents SET status = ?, updated_at = ? WHERE id = ? AND status = ?`,
		next,
		nowString(),
		id,
		expected,
	)
	if err != nil {
		return false, fmt.Errorf("conditional status update: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if affected > 0 {
		return true, nil
	}

	// Distinguish a lost race from a missing document.
	if _, err := s.GetStatus(ctx, id); err != nil {
		return false, err
	}
	return false, nil
}

// MarkStageFailure records a failed attempt for the stage: the status moves
// to the stage's error status, the retry counter increments, the next retry
// time is computed from the policy, and the error message is stored. A
// failure in the enrichment stage also sets the failed_enrichment flag.
func (s *Store) MarkStageFailure(ctx context.Context, id int64, stage document.Stage, cause error) error {
	prefix, err := stageColumnPrefix(stage)
	if err != nil {
		return err
	}

	reason := ""
	if cause != nil {
		reason = cause.Error()
	}
	message := services.SanitizeErrorMessage(reason)
	now := time.Now().UTC()

	return s.withTx(ctx, func(tx *sql.Tx) error {
		var retryCount int
		row := tx.QueryRowContext(ctx, `SELECT `+prefix+`_retry_count FROM documents WHERE id = ?`, id)
		if err := row.Scan(&retryCount); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return fmt.Errorf("read retry count: %w", err)
		}

		retryCount++
		nextRetryAt := s.policy.NextRetryAt(now, retryCount)

		query := `UPDATE documents SET
            status = ?,
            ` + prefix + `_retry_count = ?,
            ` + prefix + `_next_retry_at = ?,
            ` + prefix + `_last_error = ?,
            updated_at = ?`
		args := []any{
			stage.ErrorStatus(),
			retryCount,
			nextRetryAt.UTC().Format(time.RFC3339Nano),
			message,
			now.Format(time.RFC3339Nano),
		}
		if stage == document.StageEnrichment {
			query += `, failed_enrichment = 1`
		}
		query += ` WHERE id = ?`
		args = append(args, id)

		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("mark %s failure: %w", stage, err)
		}
		return nil
	})
}

// RequeueStageRetry re-arms a parked document for the operator: the retry
// count drops back to one attempt and the backoff window is collapsed to
// now, so the next recovery sweep dispatches it. The error status and last
// error stay in place until a worker claims the document.
func (s *Store) RequeueStageRetry(ctx context.Context, id int64, stage document.Stage) error {
	prefix, err := stageColumnPrefix(stage)
	if err != nil {
		return err
	}

	res, err := s.execWithRetry(ctx, `UPDATE documents SET
        `+prefix+`_retry_count = 1,
        `+prefix+`_next_retry_at = ?,
        updated_at = ?
        WHERE id = ? AND status = ?`,
		nowString(), nowString(), id, stage.ErrorStatus())
	if err != nil {
		return fmt.Errorf("requeue %s retry: %w", stage, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// ResetStageRetry clears the stage's retry bookkeeping. Resetting the
// enrichment stage also clears the failed_enrichment flag.
func (s *Store) ResetStageRetry(ctx context.Context, id int64, stage document.Stage) error {
	prefix, err := stageColumnPrefix(stage)
	if err != nil {
		return err
	}

	query := `UPDATE documents SET
        ` + prefix + `_retry_count = 0,
        ` + prefix + `_next_retry_at = NULL,
        ` + prefix + `_last_error = NULL,
        updated_at = ?`
	if stage == document.StageEnrichment {
		query += `, failed_enrichment = 0`
	}
	query += ` WHERE id = ?`

	res, err := s.execWithRetry(ctx, query, nowString(), id)
	if err != nil {
		return fmt.Errorf("reset %s retry: %w", stage, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// CompleteOCR stores the extracted page texts, moves the document to
// ocr_completed, and clears the OCR retry bookkeeping, all in one
// transaction.
func (s *Store) CompleteOCR(ctx context.Context, id int64, pageTexts []string) error {
	now := nowString()
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM pages WHERE document_id = ?`, id); err != nil {
			return fmt.Errorf("clear pages: %w", err)
		}
		for i, text := range pageTexts {
			if _, err := tx.ExecContext(
				ctx,
				`INSERT INTO pages (document_id, page_number, page_text) VALUES (?, ?, ?)`,
				id,
				i+1,
				text,
			); err != nil {
				return fmt.Errorf("insert page %d: %w", i+1, err)
			}
		}

		res, err := tx.ExecContext(
			ctx,
			`UPDATE documents SET
                status = ?,
                ocr_retry_count = 0,
                ocr_next_retry_at = NULL,
                ocr_last_error = NULL,
                updated_at = ?
            WHERE id = ?`,
			document.StatusOCRCompleted,
			now,
			id,
		)
		if err != nil {
			return fmt.Errorf("complete ocr: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// CompleteEnrichment stores the enrichment result, moves the document to
// enrichment_completed, and clears the enrichment retry bookkeeping. When
// degraded is true (the provider fell back to placeholder metadata) the
// failed_enrichment flag is kept set so the document surfaces in reviews.
func (s *Store) CompleteEnrichment(ctx context.Context, id int64, title string, dateOnDocument time.Time, tags []string, degraded bool) error {
	tagsJSON, err := json.Marshal(tags)
	if err != nil {
		return fmt.Errorf("encode tags: %w", err)
	}

	flag := 0
	if degraded {
		flag = 1
	}

	res, err := s.execWithRetry(
		ctx,
		`UPDATE documents SET
            title = ?,
            date_on_document = ?,
            tags_json = ?,
            failed_enrichment = ?,
            status = ?,
            enrichment_retry_count = 0,
            enrichment_next_retry_at = NULL,
            enrichment_last_error = NULL,
            updated_at = ?
        WHERE id = ?`,
		title,
		dateOnDocument.Format(dateOnlyLayout),
		string(tagsJSON),
		flag,
		document.StatusEnrichmentCompleted,
		nowString(),
		id,
	)
	if err != nil {
		return fmt.Errorf("complete enrichment: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// CompleteIndexing moves the document to its terminal status and clears the
// indexing retry bookkeeping.
func (s *Store) CompleteIndexing(ctx context.Context, id int64) error {
	res, err := s.execWithRetry(
		ctx,
		`UPDATE documents SET
            status = ?,
            indexing_retry_count = 0,
            indexing_next_retry_at = NULL,
            indexing_last_error = NULL,
            updated_at = ?
        WHERE id = ?`,
		document.StatusIndexingCompleted,
		nowString(),
		id,
	)
	if err != nil {
		return fmt.Errorf("complete indexing: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func stageColumnPrefix(stage document.Stage) (string, error) {
	switch stage {
	case document.StageOCR:
		return "ocr", nil
	case document.StageEnrichment:
		return "enrichment", nil
	case document.StageIndexing:
		return "indexing", nil
	default:
		return "", fmt.Errorf("unknown stage %q", stage)
	}
}

func nowString() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}
