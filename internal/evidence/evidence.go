// Package evidence implements the evidence artifact domain for Cairn.
// It provides types, data access, and business logic for evidence
// upload, metadata management, blob storage integration, and the
// classification write-back from completed review sessions.
package evidence

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Evidence lifecycle states. An artifact moves from uploaded to
// in_review when a session starts, and to classified when the terminal
// review stage is approved.
const (
	StatusUploaded   = "uploaded"
	StatusInReview   = "in_review"
	StatusClassified = "classified"
)

// Evidence represents an uploaded compliance artifact with its metadata,
// blob storage reference, and (once reviewed) decided classification.
type Evidence struct {
	ID             uuid.UUID       `json:"id"`
	Filename       string          `json:"filename"`
	ContentType    string          `json:"content_type"`
	SizeBytes      int64           `json:"size_bytes"`
	PageCount      *int            `json:"page_count"`
	Source         string          `json:"source"`
	StorageKey     string          `json:"storage_key"`
	Status         string          `json:"status"`
	Classification json.RawMessage `json:"classification,omitempty"`
	ClassifiedAt   *time.Time      `json:"classified_at,omitempty"`
	UploadedAt     time.Time       `json:"uploaded_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// CreateCommand carries the data needed to upload and register a new
// evidence artifact. Data holds the raw file bytes. PageCount is
// optional and extracted by the caller for PDFs; nil values are stored
// as NULL.
type CreateCommand struct {
	Data        []byte
	Filename    string
	ContentType string
	Source      string
	PageCount   *int
}
