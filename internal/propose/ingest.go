package propose

import "github.com/cairnhq/cairn/internal/stages"

// MaxIngestBytes caps the amount of evidence text carried through a
// review session. Longer texts are truncated and flagged.
const MaxIngestBytes = 200_000

// Ingest normalizes the raw evidence text for review. Truncation is
// byte-based; Length reports the retained length.
func Ingest(in stages.IngestInput) stages.IngestProposal {
	text := in.Text
	source := in.Source
	if source == "" {
		source = "unknown"
	}

	truncated := false
	if len(text) > MaxIngestBytes {
		text = text[:MaxIngestBytes]
		truncated = true
	}

	return stages.IngestProposal{
		Text:      text,
		Source:    source,
		Truncated: truncated,
		Length:    len(text),
	}
}
