package docstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/DavidStojani/pdf-management-sub000/internal/config"
	"github.com/DavidStojani/pdf-management-sub000/internal/document"
	"github.com/DavidStojani/pdf-management-sub000/internal/retrypolicy"
)

// ErrNotFound is returned when an operation references a document that does
// not exist.
var ErrNotFound = errors.New("document not found")

// Store manages document persistence backed by SQLite. It owns the status
// field and the per-stage retry bookkeeping; stage processors go through its
// status operations rather than writing rows themselves.
type Store struct {
	db     *sql.DB
	path   string
	policy retrypolicy.Policy
}

// Open initializes or connects to the document database.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := cfg.DatabasePath()
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	policy := retrypolicy.Policy{
		Base:        time.Duration(cfg.Recovery.BackoffBaseMinutes) * time.Minute,
		Max:         time.Duration(cfg.Recovery.BackoffMaxMinutes) * time.Minute,
		MaxAttempts: cfg.Recovery.MaxAttempts,
	}

	store := &Store{db: db, path: dbPath, policy: policy}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the on-disk location of the database.
func (s *Store) Path() string {
	return s.path
}

// Policy returns the retry policy the store applies to stage failures.
func (s *Store) Policy() retrypolicy.Policy {
	return s.policy
}

// Create inserts a new document at the start of the pipeline.
func (s *Store) Create(ctx context.Context, filename, contentType, owner string, pdfContent []byte) (*document.Document, error) {
	now := time.Now().UTC()
	timestamp := now.Format(time.RFC3339Nano)

	res, err := s.execWithRetry(
		ctx,
		`INSERT INTO documents (
            filename, content_type, owner, pdf_content, status, uploaded_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		filename,
		nullableString(contentType),
		owner,
		pdfContent,
		document.StatusUploaded,
		timestamp,
		timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert document: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	return s.GetByID(ctx, id)
}

// GetByID fetches a document by identifier. The PDF payload is not loaded;
// use PDFContent for that.
func (s *Store) GetByID(ctx context.Context, id int64) (*document.Document, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+documentColumns+` FROM documents WHERE id = ?`, id)
	doc, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}
	return doc, nil
}

// PDFContent returns the stored PDF bytes for a document.
func (s *Store) PDFContent(ctx context.Context, id int64) ([]byte, error) {
	var content []byte
	err := s.db.QueryRowContext(ctx, `SELECT pdf_content FROM documents WHERE id = ?`, id).Scan(&content)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get pdf content: %w", err)
	}
	return content, nil
}

// PageTexts returns the extracted page texts in page order.
func (s *Store) PageTexts(ctx context.Context, id int64) ([]string, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT page_text FROM pages WHERE document_id = ? ORDER BY page_number`,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("query pages: %w", err)
	}
	defer rows.Close()

	var texts []string
	for rows.Next() {
		var text sql.NullString
		if err := rows.Scan(&text); err != nil {
			return nil, err
		}
		texts = append(texts, text.String)
	}
	return texts, rows.Err()
}

// List returns documents filtered by status set (or all documents when no
// status is provided), ordered by upload time.
func (s *Store) List(ctx context.Context, statuses ...document.Status) ([]*document.Document, error) {
	var (
		rows *sql.Rows
		err  error
	)

	baseQuery := `SELECT ` + documentColumns + ` FROM documents`
	orderClause := ` ORDER BY uploaded_at`

	if len(statuses) == 0 {
		rows, err = s.db.QueryContext(ctx, baseQuery+orderClause)
	} else {
		placeholders := makePlaceholders(len(statuses))
		args := make([]any, len(statuses))
		for i, status := range statuses {
			args[i] = status
		}
		query := baseQuery + ` WHERE status IN (` + placeholders + `)` + orderClause
		rows, err = s.db.QueryContext(ctx, query, args...)
	}
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
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

// Stats returns a count of documents grouped by status.
func (s *Store) Stats(ctx context.Context) (map[document.Status]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM documents GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("document stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[document.Status]int)
	for rows.Next() {
		var status document.Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats[status] = count
	}
	return stats, rows.Err()
}

const documentColumns = "id, filename, content_type, owner, title, date_on_document, tags_json, failed_enrichment, status, uploaded_at, updated_at, " +
	"ocr_retry_count, ocr_next_retry_at, ocr_last_error, " +
	"enrichment_retry_count, enrichment_next_retry_at, enrichment_last_error, " +
	"indexing_retry_count, indexing_next_retry_at, indexing_last_error"

func scanDocument(scanner interface{ Scan(dest ...any) error }) (*document.Document, error) {
	var (
		id               int64
		filename         string
		contentType      sql.NullString
		owner            string
		title            sql.NullString
		dateOnDocument   sql.NullString
		tagsJSON         sql.NullString
		failedEnrichment sql.NullInt64
		statusStr        string
		uploadedRaw      sql.NullString
		updatedRaw       sql.NullString
		retryRaw         [3]retryColumns
	)

	if err := scanner.Scan(
		&id,
		&filename,
		&contentType,
		&owner,
		&title,
		&dateOnDocument,
		&tagsJSON,
		&failedEnrichment,
		&statusStr,
		&uploadedRaw,
		&updatedRaw,
		&retryRaw[0].count, &retryRaw[0].nextRetryAt, &retryRaw[0].lastError,
		&retryRaw[1].count, &retryRaw[1].nextRetryAt, &retryRaw[1].lastError,
		&retryRaw[2].count, &retryRaw[2].nextRetryAt, &retryRaw[2].lastError,
	); err != nil {
		return nil, err
	}

	doc := &document.Document{
		ID:               id,
		Filename:         filename,
		ContentType:      contentType.String,
		Owner:            owner,
		Title:            title.String,
		FailedEnrichment: failedEnrichment.Valid && failedEnrichment.Int64 != 0,
		Status:           document.Status(statusStr),
		OCRRetry:         retryRaw[0].toState(),
		EnrichmentRetry:  retryRaw[1].toState(),
		IndexingRetry:    retryRaw[2].toState(),
	}

	if tagsJSON.Valid && tagsJSON.String != "" {
		if err := json.Unmarshal([]byte(tagsJSON.String), &doc.Tags); err != nil {
			return nil, fmt.Errorf("decode tags for document %d: %w", id, err)
		}
	}
	if dateOnDocument.Valid && dateOnDocument.String != "" {
		if parsed, err := time.Parse(dateOnlyLayout, dateOnDocument.String); err == nil {
			doc.DateOnDocument = &parsed
		}
	}
	if uploaded, err := parseTimeString(uploadedRaw.String); err == nil {
		doc.UploadedAt = uploaded
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		doc.UpdatedAt = updated
	}
	return doc, nil
}

type retryColumns struct {
	count       sql.NullInt64
	nextRetryAt sql.NullString
	lastError   sql.NullString
}

func (r retryColumns) toState() document.RetryState {
	state := document.RetryState{
		Count:     int(r.count.Int64),
		LastError: r.lastError.String,
	}
	if r.nextRetryAt.Valid {
		if at, err := parseTimeString(r.nextRetryAt.String); err == nil {
			state.NextRetryAt = &at
		}
	}
	return state
}

const dateOnlyLayout = "2006-01-02"

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}
