package bridge_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/cairnhq/cairn/internal/bridge"
	"github.com/cairnhq/cairn/internal/hitl"
	"github.com/cairnhq/cairn/internal/merge"
	"github.com/cairnhq/cairn/internal/propose"
	"github.com/cairnhq/cairn/internal/sessions"
	"github.com/cairnhq/cairn/internal/stages"
	"github.com/cairnhq/cairn/pkg/pagination"
)

// fakeSystem scripts engine responses for bridge dispatch tests.
type fakeSystem struct {
	session *sessions.Session
	result  *propose.Result
	err     error
}

func (f *fakeSystem) Handler() *hitl.Handler { return nil }

func (f *fakeSystem) Start(ctx context.Context, cmd sessions.StartCommand) (*sessions.Session, error) {
	return f.session, f.err
}

func (f *fakeSystem) Find(ctx context.Context, id uuid.UUID) (*sessions.Session, error) {
	return f.session, f.err
}

func (f *fakeSystem) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters sessions.Filters,
) (*pagination.PageResult[sessions.Session], error) {
	return nil, f.err
}

func (f *fakeSystem) RunStage(ctx context.Context, id uuid.UUID, stage stages.Stage, input json.RawMessage) (*propose.Result, error) {
	return f.result, f.err
}

func (f *fakeSystem) ApplyEdits(ctx context.Context, cmd hitl.ApplyCommand) (*hitl.Decision, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &hitl.Decision{
		Session:       f.session,
		DecidedOutput: json.RawMessage(`{"text":"decided"}`),
	}, nil
}

func (f *fakeSystem) Summarize(ctx context.Context, id uuid.UUID) (*hitl.Summary, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &hitl.Summary{Session: f.session}, nil
}

func activeSession() *sessions.Session {
	return &sessions.Session{
		ID:           uuid.New(),
		CurrentStage: stages.StageIngestText,
		Status:       sessions.StatusActive,
	}
}

func dispatch(t *testing.T, sys hitl.System, args []string, stdin string) (int, map[string]any) {
	t.Helper()

	var out bytes.Buffer
	code := bridge.Dispatch(context.Background(), sys, args, strings.NewReader(stdin), &out)

	var payload map[string]any
	if err := json.Unmarshal(out.Bytes(), &payload); err != nil {
		t.Fatalf("output is not a JSON document: %v\n%s", err, out.String())
	}
	return code, payload
}

func errorCode(t *testing.T, payload map[string]any) string {
	t.Helper()
	envelope, ok := payload["error"].(map[string]any)
	if !ok {
		t.Fatalf("payload has no error envelope: %v", payload)
	}
	code, _ := envelope["code"].(string)
	return code
}

func TestDispatchUsage(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		stdin    string
		wantCode int
		wantErr  string
	}{
		{"missing subcommand", nil, "", bridge.ExitUsage, "usage"},
		{"unknown subcommand", []string{"bogus"}, "", bridge.ExitUsage, "unknown_subcommand"},
		{"malformed json", []string{"start"}, "{not json", bridge.ExitUsage, "invalid_json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, payload := dispatch(t, &fakeSystem{session: activeSession()}, tt.args, tt.stdin)
			if code != tt.wantCode {
				t.Errorf("exit code: got %d, want %d", code, tt.wantCode)
			}
			if got := errorCode(t, payload); got != tt.wantErr {
				t.Errorf("error code: got %q, want %q", got, tt.wantErr)
			}
		})
	}
}

func TestDispatchStart(t *testing.T) {
	s := activeSession()
	code, payload := dispatch(t, &fakeSystem{session: s}, []string{"start"}, "{}")

	if code != bridge.ExitOK {
		t.Fatalf("exit code: got %d", code)
	}

	session, ok := payload["session"].(map[string]any)
	if !ok {
		t.Fatalf("payload missing session: %v", payload)
	}
	if session["current_stage"] != "ingest_text" {
		t.Errorf("current_stage: got %v", session["current_stage"])
	}
	if session["status"] != "active" {
		t.Errorf("status: got %v", session["status"])
	}
}

func TestDispatchRunStage(t *testing.T) {
	sys := &fakeSystem{
		session: activeSession(),
		result: &propose.Result{
			Stage:    stages.StageIngestText,
			Proposal: json.RawMessage(`{"text":"hello","source":"ocr","truncated":false,"length":5}`),
			Meta:     propose.Meta{ElapsedMS: 3},
		},
	}

	body := fmt.Sprintf(`{"session_id":%q,"stage":"ingest_text","payload":{"text":"hello","source":"ocr"}}`,
		sys.session.ID)
	code, payload := dispatch(t, sys, []string{"run-stage"}, body)

	if code != bridge.ExitOK {
		t.Fatalf("exit code: got %d, payload %v", code, payload)
	}
	if payload["stage"] != "ingest_text" {
		t.Errorf("stage: got %v", payload["stage"])
	}
	if _, ok := payload["model_output"].(map[string]any); !ok {
		t.Errorf("model_output missing: %v", payload)
	}
	if _, ok := payload["meta"].(map[string]any); !ok {
		t.Errorf("meta missing: %v", payload)
	}
}

func TestDispatchRunStageInvalidStage(t *testing.T) {
	sys := &fakeSystem{session: activeSession()}

	body := fmt.Sprintf(`{"session_id":%q,"stage":"bogus"}`, sys.session.ID)
	code, payload := dispatch(t, sys, []string{"run-stage"}, body)

	if code != bridge.ExitDomain {
		t.Errorf("exit code: got %d, want %d", code, bridge.ExitDomain)
	}
	if got := errorCode(t, payload); got != "invalid_stage" {
		t.Errorf("error code: got %q, want invalid_stage", got)
	}
}

func TestDispatchApplyEdits(t *testing.T) {
	t.Run("success returns decided output", func(t *testing.T) {
		sys := &fakeSystem{session: activeSession()}

		body := fmt.Sprintf(
			`{"session_id":%q,"stage":"ingest_text","model_output":{"text":"hello"},"human_input":{"approved":true}}`,
			sys.session.ID)
		code, payload := dispatch(t, sys, []string{"apply-edits"}, body)

		if code != bridge.ExitOK {
			t.Fatalf("exit code: got %d, payload %v", code, payload)
		}
		if _, ok := payload["decided_output"].(map[string]any); !ok {
			t.Errorf("decided_output missing: %v", payload)
		}
	})

	t.Run("stale stage maps to domain error", func(t *testing.T) {
		sys := &fakeSystem{session: activeSession(), err: sessions.ErrStaleStage}

		body := fmt.Sprintf(
			`{"session_id":%q,"stage":"ingest_text","model_output":{},"human_input":{"approved":true}}`,
			sys.session.ID)
		code, payload := dispatch(t, sys, []string{"apply-edits"}, body)

		if code != bridge.ExitDomain {
			t.Errorf("exit code: got %d, want %d", code, bridge.ExitDomain)
		}
		if got := errorCode(t, payload); got != "stale_stage" {
			t.Errorf("error code: got %q, want stale_stage", got)
		}
	})

	t.Run("incomplete decision carries missing fields", func(t *testing.T) {
		sys := &fakeSystem{
			session: activeSession(),
			err: &merge.IncompleteDecisionError{
				Stage:   stages.StageIngestText,
				Missing: []string{"text"},
			},
		}

		body := fmt.Sprintf(
			`{"session_id":%q,"stage":"ingest_text","model_output":{},"human_input":{"approved":true}}`,
			sys.session.ID)
		code, payload := dispatch(t, sys, []string{"apply-edits"}, body)

		if code != bridge.ExitDomain {
			t.Errorf("exit code: got %d", code)
		}
		if got := errorCode(t, payload); got != "incomplete_decision" {
			t.Errorf("error code: got %q", got)
		}

		envelope := payload["error"].(map[string]any)
		details, ok := envelope["details"].(map[string]any)
		if !ok {
			t.Fatalf("details missing: %v", envelope)
		}
		missing, _ := details["missing"].([]any)
		if len(missing) != 1 || missing[0] != "text" {
			t.Errorf("missing: got %v", missing)
		}
	})
}

func TestDispatchSummarize(t *testing.T) {
	sys := &fakeSystem{session: activeSession()}

	body := fmt.Sprintf(`{"session_id":%q}`, sys.session.ID)
	code, payload := dispatch(t, sys, []string{"summarize"}, body)

	if code != bridge.ExitOK {
		t.Fatalf("exit code: got %d", code)
	}
	if _, ok := payload["summary"].(map[string]any); !ok {
		t.Errorf("summary missing: %v", payload)
	}
}
