package workflow

import (
	"log/slog"

	"github.com/cairnhq/cairn/internal/hitl"
	"github.com/cairnhq/cairn/internal/propose"
)

// Runtime bundles the dependencies that workflow nodes require.
// It is constructed by higher-level composition code from Infrastructure
// and Domain systems. Assistant may be nil; the selection node then
// falls back to the top-ranked heuristic candidate.
type Runtime struct {
	Engine    hitl.System
	Assistant *propose.Assistant
	Assist    bool
	Logger    *slog.Logger
}

func (rt *Runtime) assistUsable() bool {
	return rt.Assist && rt.Assistant != nil
}
