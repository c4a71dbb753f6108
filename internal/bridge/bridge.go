// Package bridge exposes the review engine over a line-oriented process
// boundary: JSON on stdin, JSON on stdout, one subcommand per
// invocation. Callers in other runtimes drive the engine through it
// without linking against the HTTP surface.
package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"

	"github.com/cairnhq/cairn/internal/hitl"
	"github.com/cairnhq/cairn/internal/merge"
	"github.com/cairnhq/cairn/internal/sessions"
	"github.com/cairnhq/cairn/internal/stages"
)

// Exit codes: 0 success, 1 domain error, 2 usage or malformed input.
const (
	ExitOK     = 0
	ExitDomain = 1
	ExitUsage  = 2
)

// Usage is printed on the error envelope for unknown subcommands.
const Usage = "expected subcommand: start|run-stage|apply-edits|summarize"

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type errorEnvelope struct {
	Error errorBody `json:"error"`
}

type startRequest struct {
	SessionID  *uuid.UUID `json:"session_id,omitempty"`
	EvidenceID *uuid.UUID `json:"evidence_id,omitempty"`
}

type runStageRequest struct {
	SessionID uuid.UUID       `json:"session_id"`
	Stage     string          `json:"stage"`
	Payload   json.RawMessage `json:"payload"`
}

type applyEditsRequest struct {
	SessionID   uuid.UUID        `json:"session_id"`
	Stage       string           `json:"stage"`
	ModelOutput json.RawMessage  `json:"model_output"`
	HumanInput  merge.HumanInput `json:"human_input"`
}

type summarizeRequest struct {
	SessionID uuid.UUID `json:"session_id"`
}

// Dispatch routes one subcommand invocation to the engine, translating
// between the JSON wire contract and the engine's typed operations.
// It returns the process exit code and writes exactly one JSON document
// to out.
func Dispatch(ctx context.Context, sys hitl.System, args []string, in io.Reader, out io.Writer) int {
	if len(args) < 1 {
		return writeError(out, ExitUsage, "usage", Usage, nil)
	}

	body, err := io.ReadAll(in)
	if err != nil {
		return writeError(out, ExitUsage, "read_failed", err.Error(), nil)
	}

	switch args[0] {
	case "start":
		return cmdStart(ctx, sys, body, out)
	case "run-stage":
		return cmdRunStage(ctx, sys, body, out)
	case "apply-edits":
		return cmdApplyEdits(ctx, sys, body, out)
	case "summarize":
		return cmdSummarize(ctx, sys, body, out)
	default:
		return writeError(out, ExitUsage, "unknown_subcommand",
			fmt.Sprintf("unknown subcommand: %s", args[0]), nil)
	}
}

// cmdStart creates a session, or resumes an existing one when a
// session_id is supplied.
func cmdStart(ctx context.Context, sys hitl.System, body []byte, out io.Writer) int {
	var req startRequest
	if code := decode(body, &req, out); code != ExitOK {
		return code
	}

	var (
		s   *sessions.Session
		err error
	)
	if req.SessionID != nil {
		s, err = sys.Find(ctx, *req.SessionID)
	} else {
		s, err = sys.Start(ctx, sessions.StartCommand{EvidenceID: req.EvidenceID})
	}
	if err != nil {
		return domainError(out, err)
	}

	return writeOK(out, map[string]any{"session": s})
}

func cmdRunStage(ctx context.Context, sys hitl.System, body []byte, out io.Writer) int {
	var req runStageRequest
	if code := decode(body, &req, out); code != ExitOK {
		return code
	}

	stage, err := stages.Parse(req.Stage)
	if err != nil {
		return domainError(out, err)
	}

	result, err := sys.RunStage(ctx, req.SessionID, stage, req.Payload)
	if err != nil {
		return domainError(out, err)
	}

	return writeOK(out, result)
}

func cmdApplyEdits(ctx context.Context, sys hitl.System, body []byte, out io.Writer) int {
	var req applyEditsRequest
	if code := decode(body, &req, out); code != ExitOK {
		return code
	}

	stage, err := stages.Parse(req.Stage)
	if err != nil {
		return domainError(out, err)
	}

	d, err := sys.ApplyEdits(ctx, hitl.ApplyCommand{
		SessionID: req.SessionID,
		Stage:     stage,
		Proposal:  req.ModelOutput,
		Human:     req.HumanInput,
	})
	if err != nil {
		return domainError(out, err)
	}

	return writeOK(out, map[string]any{
		"stage":          stage,
		"decided_output": d.DecidedOutput,
		"session":        d.Session,
		"replayed":       d.Replayed,
	})
}

func cmdSummarize(ctx context.Context, sys hitl.System, body []byte, out io.Writer) int {
	var req summarizeRequest
	if code := decode(body, &req, out); code != ExitOK {
		return code
	}

	summary, err := sys.Summarize(ctx, req.SessionID)
	if err != nil {
		return domainError(out, err)
	}

	return writeOK(out, map[string]any{"summary": summary})
}

func decode(body []byte, req any, out io.Writer) int {
	if len(body) == 0 {
		return ExitOK
	}
	if err := json.Unmarshal(body, req); err != nil {
		return writeError(out, ExitUsage, "invalid_json", err.Error(), nil)
	}
	return ExitOK
}

// domainError translates engine errors into the envelope, attaching the
// missing-field list for incomplete decisions.
func domainError(out io.Writer, err error) int {
	var details any
	var incomplete *merge.IncompleteDecisionError
	if errors.As(err, &incomplete) {
		details = map[string]any{"missing": incomplete.Missing}
	}
	return writeError(out, ExitDomain, hitl.ErrorCode(err), err.Error(), details)
}

func writeOK(out io.Writer, payload any) int {
	if err := json.NewEncoder(out).Encode(payload); err != nil {
		return ExitDomain
	}
	return ExitOK
}

func writeError(out io.Writer, code int, errCode, message string, details any) int {
	_ = json.NewEncoder(out).Encode(errorEnvelope{
		Error: errorBody{
			Code:    errCode,
			Message: message,
			Details: details,
		},
	})
	return code
}
