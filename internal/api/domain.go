package api

import (
	"github.com/cairnhq/cairn/internal/controls"
	"github.com/cairnhq/cairn/internal/evidence"
	"github.com/cairnhq/cairn/internal/hitl"
	"github.com/cairnhq/cairn/internal/ledger"
	"github.com/cairnhq/cairn/internal/prompts"
	"github.com/cairnhq/cairn/internal/propose"
	"github.com/cairnhq/cairn/internal/sessions"
	"github.com/cairnhq/cairn/internal/workflow"
)

// Domain holds all domain systems that comprise the API.
type Domain struct {
	Controls controls.System
	Evidence evidence.System
	Prompts  prompts.System
	Review   hitl.System
	Workflow *workflow.Runtime
}

// NewDomain creates all domain systems from the API runtime. The review
// engine composes sessions, the decision ledger, and the proposal
// generator; the workflow runtime drives the same engine unattended.
func NewDomain(runtime *Runtime) *Domain {
	db := runtime.Database.Connection()

	controlsSystem := controls.New(db, runtime.Logger, runtime.Pagination)

	evidenceSystem := evidence.New(
		db,
		runtime.Storage,
		runtime.Logger,
		runtime.Pagination,
	)

	promptsSystem := prompts.New(db, runtime.Logger, runtime.Pagination)

	sessionsSystem := sessions.New(db, runtime.Logger, runtime.Pagination)
	ledgerSystem := ledger.New(db, runtime.Logger)

	var assistant *propose.Assistant
	if runtime.Review.Assist {
		assistant = propose.NewAssistant(
			runtime.Agent,
			promptsSystem,
			runtime.Review.AssistTimeoutDuration(),
			runtime.Logger,
		)
	}

	generator := propose.New(controlsSystem, assistant, runtime.Logger)

	engine := hitl.New(
		sessionsSystem,
		ledgerSystem,
		generator,
		evidenceSystem,
		runtime.Logger,
		runtime.Pagination,
	)

	wf := &workflow.Runtime{
		Engine:    engine,
		Assistant: assistant,
		Assist:    runtime.Review.Assist,
		Logger:    runtime.Logger,
	}

	return &Domain{
		Controls: controlsSystem,
		Evidence: evidenceSystem,
		Prompts:  promptsSystem,
		Review:   engine,
		Workflow: wf,
	}
}
