// Package controls implements the regulatory control catalog for Cairn.
// It provides types, data access, and HTTP handlers for the controls a
// piece of evidence may be mapped to, along with the specification
// corpus that drives candidate scoring.
package controls

import (
	"time"

	"github.com/google/uuid"
)

// Control represents one regulatory control in the catalog. Code is the
// human-readable identifier (e.g. "CTRL-PASS-001"); Position fixes the
// catalog order used for deterministic tie-breaking.
type Control struct {
	ID        uuid.UUID `json:"id"`
	Code      string    `json:"code"`
	Label     string    `json:"label"`
	Position  int       `json:"position"`
	CreatedAt time.Time `json:"created_at"`
}

// SpecEntry is one control specification row joined with its control.
// Specification is the free-text description matched against evidence.
type SpecEntry struct {
	ID            uuid.UUID `json:"id"`
	ControlID     uuid.UUID `json:"control_id"`
	Code          string    `json:"code"`
	Label         string    `json:"label"`
	Position      int       `json:"position"`
	Specification string    `json:"specification"`
}

// CreateCommand carries the data needed to register a control with an
// optional specification text.
type CreateCommand struct {
	Code          string `json:"code"`
	Label         string `json:"label"`
	Specification string `json:"specification"`
}
