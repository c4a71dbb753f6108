package propose

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/JaimeStill/go-agents/pkg/agent"
	gaconfig "github.com/JaimeStill/go-agents/pkg/config"

	"github.com/cairnhq/cairn/internal/prompts"
	"github.com/cairnhq/cairn/internal/stages"
	"github.com/cairnhq/cairn/pkg/formatting"
)

// DefaultAssistTimeout bounds a single assistant call.
const DefaultAssistTimeout = 30 * time.Second

// PromptSource serves tunable instructions and immutable output
// specifications for assistant calls. Implemented by the prompts system.
type PromptSource interface {
	Instructions(ctx context.Context, stage prompts.Stage) (string, error)
	Spec(ctx context.Context, stage prompts.Stage) (string, error)
}

// Assistant refines stage proposals with an LLM. Every call is bounded
// by the configured timeout; callers treat failures as advisory and fall
// back to the heuristic path.
type Assistant struct {
	agent   gaconfig.AgentConfig
	prompts PromptSource
	timeout time.Duration
	logger  *slog.Logger
}

// NewAssistant creates an Assistant. A non-positive timeout falls back
// to DefaultAssistTimeout.
func NewAssistant(
	cfg gaconfig.AgentConfig,
	ps PromptSource,
	timeout time.Duration,
	logger *slog.Logger,
) *Assistant {
	if timeout <= 0 {
		timeout = DefaultAssistTimeout
	}
	return &Assistant{
		agent:   cfg,
		prompts: ps,
		timeout: timeout,
		logger:  logger.With("system", "assist"),
	}
}

// Model returns the configured model name for proposal metadata.
func (a *Assistant) Model() string {
	if a.agent.Client == nil || a.agent.Client.Provider == nil || a.agent.Client.Provider.Model == nil {
		return ""
	}
	return a.agent.Client.Provider.Model.Name
}

// Describe asks the model for a neutral action summary of the evidence text.
func (a *Assistant) Describe(ctx context.Context, text string) (*stages.DescribeProposal, error) {
	prompt, err := a.compose(ctx, prompts.StageDescribe, "Evidence text:\n\n"+text)
	if err != nil {
		return nil, err
	}

	parsed, err := chat[stages.DescribeProposal](ctx, a, prompt)
	if err != nil {
		return nil, err
	}

	// Model output is still bound to the summary length contract.
	parsed.ActionsSummary = summarize(parsed.ActionsSummary, MaxSummaryWords)
	return parsed, nil
}

type assignResponse struct {
	Selection *stages.Candidate `json:"selection"`
	Rationale string            `json:"rationale"`
}

// Assign asks the model to pick the best control candidate for the
// evidence text from a ranked suggestion list.
func (a *Assistant) Assign(
	ctx context.Context,
	text string,
	cands []stages.Candidate,
) (*stages.Candidate, error) {
	var sb strings.Builder
	sb.WriteString("Candidate controls:\n")
	for _, c := range cands {
		fmt.Fprintf(&sb, "- %s (%s): %s\n", c.ID, c.Label, c.Rationale)
	}
	sb.WriteString("\nEvidence text:\n\n")
	sb.WriteString(text)

	prompt, err := a.compose(ctx, prompts.StageAssign, sb.String())
	if err != nil {
		return nil, err
	}

	parsed, err := chat[assignResponse](ctx, a, prompt)
	if err != nil {
		return nil, err
	}
	if parsed.Selection == nil {
		return nil, fmt.Errorf("%w: no selection in response", ErrAssistUnavailable)
	}
	if parsed.Rationale != "" {
		parsed.Selection.Rationale = parsed.Rationale
	}
	return parsed.Selection, nil
}

func (a *Assistant) compose(ctx context.Context, stage prompts.Stage, body string) (string, error) {
	instructions, err := a.prompts.Instructions(ctx, stage)
	if err != nil {
		return "", fmt.Errorf("load instructions for %s: %w", stage, err)
	}

	spec, err := a.prompts.Spec(ctx, stage)
	if err != nil {
		return "", fmt.Errorf("load spec for %s: %w", stage, err)
	}

	return instructions + "\n\n" + spec + "\n\n" + body, nil
}

func chat[T any](ctx context.Context, a *Assistant, prompt string) (*T, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	ag, err := agent.New(&a.agent)
	if err != nil {
		return nil, fmt.Errorf("%w: create agent: %w", ErrAssistUnavailable, err)
	}

	resp, err := ag.Chat(ctx, prompt)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w after %s", ErrAssistTimeout, a.timeout)
		}
		return nil, fmt.Errorf("%w: %w", ErrAssistUnavailable, err)
	}

	parsed, err := formatting.Parse[T](resp.Content())
	if err != nil {
		return nil, fmt.Errorf("%w: parse response: %w", ErrAssistUnavailable, err)
	}
	return &parsed, nil
}
