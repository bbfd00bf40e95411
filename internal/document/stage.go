package document

import "strings"

// Stage identifies one unit of pipeline work with its own status sub-states.
type Stage string

const (
	StageOCR        Stage = "ocr"
	StageEnrichment Stage = "enrichment"
	StageIndexing   Stage = "indexing"
)

// Stages returns the pipeline stages in processing order.
func Stages() []Stage {
	return []Stage{StageOCR, StageEnrichment, StageIndexing}
}

// ParseStage converts a string into a known Stage.
func ParseStage(value string) (Stage, bool) {
	switch Stage(strings.ToLower(strings.TrimSpace(value))) {
	case StageOCR:
		return StageOCR, true
	case StageEnrichment:
		return StageEnrichment, true
	case StageIndexing:
		return StageIndexing, true
	default:
		return "", false
	}
}

// EntryStatus is the status a document must hold for the stage to begin a
// first attempt. Re-entry from the stage's own error status is the only other
// permitted entry path.
func (s Stage) EntryStatus() Status {
	switch s {
	case StageOCR:
		return StatusUploaded
	case StageEnrichment:
		return StatusOCRCompleted
	case StageIndexing:
		return StatusEnrichmentCompleted
	default:
		return ""
	}
}

// InProgressStatus returns the stage's in-flight status.
func (s Stage) InProgressStatus() Status {
	switch s {
	case StageOCR:
		return StatusOCRInProgress
	case StageEnrichment:
		return StatusEnrichmentInProgress
	case StageIndexing:
		return StatusIndexingInProgress
	default:
		return ""
	}
}

// CompletedStatus returns the stage's success status.
func (s Stage) CompletedStatus() Status {
	switch s {
	case StageOCR:
		return StatusOCRCompleted
	case StageEnrichment:
		return StatusEnrichmentCompleted
	case StageIndexing:
		return StatusIndexingCompleted
	default:
		return ""
	}
}

// ErrorStatus returns the stage's failure status.
func (s Stage) ErrorStatus() Status {
	switch s {
	case StageOCR:
		return StatusOCRError
	case StageEnrichment:
		return StatusEnrichmentError
	case StageIndexing:
		return StatusIndexingError
	default:
		return ""
	}
}

// Next returns the stage that follows s, or false after indexing.
func (s Stage) Next() (Stage, bool) {
	switch s {
	case StageOCR:
		return StageEnrichment, true
	case StageEnrichment:
		return StageIndexing, true
	default:
		return "", false
	}
}

// StageAwaiting maps a status to the stage that should process the document
// next: uploaded documents await OCR, and a completed stage's status awaits
// the stage that follows it. Error, in-progress, and terminal statuses await
// no new stage.
func StageAwaiting(status Status) (Stage, bool) {
	switch status {
	case StatusUploaded:
		return StageOCR, true
	case StatusOCRCompleted:
		return StageEnrichment, true
	case StatusEnrichmentCompleted:
		return StageIndexing, true
	default:
		return "", false
	}
}

// StageForStatus maps a stage-owned status back to its stage. The uploaded
// status belongs to no stage.
func StageForStatus(status Status) (Stage, bool) {
	switch status {
	case StatusOCRInProgress, StatusOCRCompleted, StatusOCRError:
		return StageOCR, true
	case StatusEnrichmentInProgress, StatusEnrichmentCompleted, StatusEnrichmentError:
		return StageEnrichment, true
	case StatusIndexingInProgress, StatusIndexingCompleted, StatusIndexingError:
		return StageIndexing, true
	default:
		return "", false
	}
}
