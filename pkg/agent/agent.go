// Package agent runs the perceive-decide-act loop: capture the page,
// render it for the model, parse the model's operations, execute them, and
// feed the results back until the model declares the task done.
package agent

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/entrhq/surf/pkg/browser"
	"github.com/entrhq/surf/pkg/dom"
	"github.com/entrhq/surf/pkg/executor"
	"github.com/entrhq/surf/pkg/llm"
	"github.com/entrhq/surf/pkg/llm/tokenizer"
	"github.com/entrhq/surf/pkg/logging"
	"github.com/entrhq/surf/pkg/types"
)

const (
	// DefaultMaxSteps bounds the loop; each step is one model round trip.
	DefaultMaxSteps = 25

	// DefaultTokenBudget caps the conversation sent per step. Old turns
	// are dropped oldest-first once the budget is exceeded.
	DefaultTokenBudget = 96000
)

// Environment is the slice of a browser session the agent perceives
// through. *browser.Session satisfies it.
type Environment interface {
	CaptureSnapshot(ctx context.Context) (*dom.Snapshot, error)
	CaptureOutline(ctx context.Context) (string, error)
	CapturePageState(ctx context.Context) (browser.PageState, error)
	Screenshot(ctx context.Context) ([]byte, error)
	Tabs() []browser.TabInfo
}

// Executor is the action dispatch surface the agent drives.
// *executor.Controller satisfies it.
type Executor interface {
	SetSnapshot(s *dom.Snapshot)
	ExecuteBatch(ctx context.Context, descs []executor.ActionDescriptor) []executor.ActionResult
}

// Agent drives one task to completion against one browser session.
type Agent struct {
	provider    llm.Provider
	env         Environment
	exec        Executor
	tok         *tokenizer.Tokenizer
	logger      *logging.Logger
	maxSteps    int
	tokenBudget int
	screenshots bool

	history []*types.Message
}

// AgentOption configures an Agent.
type AgentOption func(*Agent)

// WithMaxSteps bounds the number of model round trips.
func WithMaxSteps(n int) AgentOption {
	return func(a *Agent) { a.maxSteps = n }
}

// WithTokenBudget caps the prompt size per step.
func WithTokenBudget(n int) AgentOption {
	return func(a *Agent) { a.tokenBudget = n }
}

// WithScreenshots attaches a page screenshot to each turn so
// vision-capable models see the rendered page.
func WithScreenshots(enabled bool) AgentOption {
	return func(a *Agent) { a.screenshots = enabled }
}

// WithLogger directs agent diagnostics to the given logger.
func WithLogger(l *logging.Logger) AgentOption {
	return func(a *Agent) { a.logger = l }
}

// New creates an agent. The tokenizer is optional equipment: when its
// encoding cannot be loaded the agent falls back to a character-count
// approximation.
func New(provider llm.Provider, env Environment, exec Executor, opts ...AgentOption) *Agent {
	a := &Agent{
		provider:    provider,
		env:         env,
		exec:        exec,
		logger:      logging.Discard(),
		maxSteps:    DefaultMaxSteps,
		tokenBudget: DefaultTokenBudget,
	}
	if tok, err := tokenizer.New(); err == nil {
		a.tok = tok
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Run executes the task and returns the model's completion summary.
func (a *Agent) Run(ctx context.Context, task string) (string, error) {
	a.history = nil

	for step := 1; step <= a.maxSteps; step++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		stateMsg, err := a.perceive(ctx, task)
		if err != nil {
			return "", fmt.Errorf("step %d: %w", step, err)
		}

		reply, err := a.provider.Complete(ctx, a.conversation(stateMsg))
		if err != nil {
			return "", fmt.Errorf("step %d: completing: %w", step, err)
		}
		a.logger.Debugf("step %d reply: %s", step, reply.Content)

		descs, parseErr := executor.ParseOperations(reply.Content)
		if parseErr != nil {
			a.remember(stateMsg, reply, fmt.Sprintf("Could not parse your reply: %v. %s", parseErr, continuationPrompt))
			continue
		}
		if len(descs) == 0 {
			a.remember(stateMsg, reply, continuationPrompt)
			continue
		}

		results := a.exec.ExecuteBatch(ctx, descs)
		for i, res := range results {
			a.logger.Infof("step %d op %d (%s): success=%t %s", step, i+1, descs[i].Action, res.Success, res.Message)
			if res.Done {
				return res.Message, nil
			}
		}

		a.remember(stateMsg, reply, feedback(descs, results))
	}

	return "", fmt.Errorf("task not completed within %d steps", a.maxSteps)
}

// perceive captures the page and renders it into the turn's user message.
func (a *Agent) perceive(ctx context.Context, task string) (*types.Message, error) {
	snapshot, snapErr := a.env.CaptureSnapshot(ctx)
	if snapErr != nil {
		a.logger.Warnf("snapshot unavailable, degrading to page outline: %v", snapErr)
	}
	a.exec.SetSnapshot(snapshot)

	pageState, err := a.env.CapturePageState(ctx)
	if err != nil {
		return nil, fmt.Errorf("capturing page state: %w", err)
	}

	state := BrowserState{
		Snapshot: snapshot,
		Page:     pageState,
		Tabs:     a.env.Tabs(),
	}
	summary := FormatBrowserState(state)
	if snapErr != nil {
		outline, outlineErr := a.env.CaptureOutline(ctx)
		if outlineErr != nil {
			return nil, fmt.Errorf("capturing snapshot: %w", snapErr)
		}
		summary += "\nStructural analysis failed on this page. Coarse outline (no element numbers; refer to elements by their visible text):\n" + outline
	}
	content := fmt.Sprintf("Task: %s\n\n%s", task, summary)

	if a.screenshots {
		if shot, err := a.env.Screenshot(ctx); err == nil && len(shot) > 0 {
			return types.NewUserMessageWithImage(content, base64.StdEncoding.EncodeToString(shot)), nil
		}
	}
	return types.NewUserMessage(content), nil
}

// conversation assembles the system prompt, the trimmed history, and the
// current state message.
func (a *Agent) conversation(stateMsg *types.Message) []*types.Message {
	a.trimHistory(stateMsg)

	messages := make([]*types.Message, 0, len(a.history)+2)
	messages = append(messages, types.NewSystemMessage(systemPrompt))
	messages = append(messages, a.history...)
	messages = append(messages, stateMsg)
	return messages
}

// trimHistory drops the oldest turns until the conversation fits the
// budget. The current state message is always kept.
func (a *Agent) trimHistory(stateMsg *types.Message) {
	for len(a.history) > 1 {
		total := a.countTokens(systemPrompt) + a.countMessages(a.history) + a.countMessages([]*types.Message{stateMsg})
		if total <= a.tokenBudget {
			return
		}
		drop := 2
		if drop > len(a.history) {
			drop = len(a.history)
		}
		a.history = a.history[drop:]
		a.logger.Debugf("history over budget, dropped %d oldest messages", drop)
	}
}

func (a *Agent) countTokens(text string) int {
	if a.tok != nil {
		return a.tok.CountTokens(text)
	}
	return len(text) / 4
}

func (a *Agent) countMessages(messages []*types.Message) int {
	if a.tok != nil {
		return a.tok.CountMessagesTokens(messages)
	}
	total := 0
	for _, m := range messages {
		total += len(m.Content)/4 + 4
	}
	return total
}

// remember appends the turn to history. The state message is stored
// without its screenshot; old images bloat every later prompt.
func (a *Agent) remember(stateMsg *types.Message, reply *types.Message, outcome string) {
	a.history = append(a.history,
		types.NewUserMessage(stateMsg.Content),
		types.NewAssistantMessage(reply.Content),
		types.NewUserMessage(outcome),
	)
}

// feedback renders execution results for the model's next turn.
func feedback(descs []executor.ActionDescriptor, results []executor.ActionResult) string {
	var b strings.Builder
	b.WriteString("Execution results:\n")
	for i, res := range results {
		status := "ok"
		if !res.Success {
			status = "failed"
			if res.Category != "" {
				status = fmt.Sprintf("failed (%s)", res.Category)
			}
		}
		fmt.Fprintf(&b, "%d. %s: %s - %s\n", i+1, descs[i].Action, status, res.Message)
		if res.PageChanged {
			fmt.Fprintf(&b, "   the page changed to %s; element numbers have been reassigned\n", res.NewPageURL)
		}
	}
	if len(results) < len(descs) {
		fmt.Fprintf(&b, "%d remaining operation(s) were not executed.\n", len(descs)-len(results))
	}
	b.WriteString("Continue with the task.")
	return b.String()
}
