package document

import (
	"strings"
	"time"
)

// Status represents the lifecycle of a document in the processing pipeline.
type Status string

const (
	StatusUploaded             Status = "uploaded"
	StatusOCRInProgress        Status = "ocr_in_progress"
	StatusOCRCompleted         Status = "ocr_completed"
	StatusOCRError             Status = "ocr_error"
	StatusEnrichmentInProgress Status = "enrichment_in_progress"
	StatusEnrichmentCompleted  Status = "enrichment_completed"
	StatusEnrichmentError      Status = "enrichment_error"
	StatusIndexingInProgress   Status = "indexing_in_progress"
	StatusIndexingCompleted    Status = "indexing_completed"
	StatusIndexingError        Status = "indexing_error"
)

var allStatuses = []Status{
	StatusUploaded,
	StatusOCRInProgress,
	StatusOCRCompleted,
	StatusOCRError,
	StatusEnrichmentInProgress,
	StatusEnrichmentCompleted,
	StatusEnrichmentError,
	StatusIndexingInProgress,
	StatusIndexingCompleted,
	StatusIndexingError,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// IsInProgress reports whether a status reflects an in-flight stage.
func (s Status) IsInProgress() bool {
	switch s {
	case StatusOCRInProgress, StatusEnrichmentInProgress, StatusIndexingInProgress:
		return true
	default:
		return false
	}
}

// IsError reports whether a status is a stage error state.
func (s Status) IsError() bool {
	switch s {
	case StatusOCRError, StatusEnrichmentError, StatusIndexingError:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether the happy-path pipeline has finished.
func (s Status) IsTerminal() bool {
	return s == StatusIndexingCompleted
}

// RetryState holds the failure bookkeeping for one stage of one document.
// NextRetryAt is nil and LastError empty whenever the stage is not awaiting retry.
type RetryState struct {
	Count       int
	NextRetryAt *time.Time
	LastError   string
}

// Document is the aggregate root of the processing pipeline. Status is mutated
// only through the store's status operations, never by stage code directly.
type Document struct {
	ID               int64
	Filename         string
	ContentType      string
	Owner            string
	Title            string
	DateOnDocument   *time.Time
	Tags             []string
	FailedEnrichment bool
	Status           Status
	UploadedAt       time.Time
	UpdatedAt        time.Time

	OCRRetry        RetryState
	EnrichmentRetry RetryState
	IndexingRetry   RetryState
}

// Retry returns the retry bookkeeping for the given stage.
func (d *Document) Retry(stage Stage) RetryState {
	switch stage {
	case StageOCR:
		return d.OCRRetry
	case StageEnrichment:
		return d.EnrichmentRetry
	case StageIndexing:
		return d.IndexingRetry
	default:
		return RetryState{}
	}
}

// DisplayName returns the enriched title when present, else the upload filename.
func (d *Document) DisplayName() string {
	if strings.TrimSpace(d.Title) != "" {
		return d.Title
	}
	return d.Filename
}
