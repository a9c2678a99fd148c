package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"
)

type Agent struct {
	client     Completer
	dispatcher *Dispatcher
	timeout    time.Duration
	logger     *slog.Logger
}

type AgentOption func(*Agent)

func WithTimeout(d time.Duration) AgentOption {
	return func(a *Agent) { a.timeout = d }
}

func WithAgentLogger(l *slog.Logger) AgentOption {
	return func(a *Agent) { a.logger = l }
}

func NewAgent(client Completer, dispatcher *Dispatcher, opts ...AgentOption) *Agent {
	a := &Agent{
		client:     client,
		dispatcher: dispatcher,
		timeout:    defaultTimeout,
		logger:     discardLogger(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// SystemPrompt describes the agent's contract and the project it works in.
func SystemPrompt(p Project) string {
	var sb strings.Builder
	sb.WriteString("You are a helpful assistant.\n")
	sb.WriteString("You can perform various tasks, including file operations, memory management, and web searches.\n")
	sb.WriteString("Reply with a single JSON document that follows the response schema. Each response carries exactly one action.\n")
	sb.WriteString("Results of your action and tools become available after you respond, not before.\n")
	sb.WriteString("Plan your tasks step by step. Ask the user for input only when needed, as the action of the response.\n")
	sb.WriteString("If steps depend on other steps or information, use the memory tools to store and retrieve steps, progress and future actions.\n\n")
	sb.WriteString("File paths are relative to the current directory of the project.\n")
	sb.WriteString("Current directory: " + p.Cwd + "\n")
	return sb.String()
}

// StepResult is everything one round trip produced. Project is the project
// to hand to the next step.
type StepResult struct {
	Raw      string
	Response AgentResponse
	Tools    []ActionResult
	Action   ActionResult
	Project  Project
}

// Step sends msgs, parses the structured reply, runs its tools and then its
// action.
func (a *Agent) Step(ctx context.Context, p Project, msgs []ChatMessage) (StepResult, error) {
	raw, err := a.complete(ctx, msgs)
	if err != nil {
		return StepResult{Project: p}, err
	}

	resp, err := ParseAgentResponse(raw)
	if err != nil {
		a.logger.Warn("Backend reply does not match the response schema", "error", err)
		return StepResult{Raw: raw, Project: p}, fmt.Errorf("parsing agent response: %w", err)
	}

	res := StepResult{Raw: raw, Response: resp}
	res.Tools = a.dispatcher.RunTools(ctx, resp.Tools, p)
	res.Action = a.dispatcher.Execute(ctx, resp.Actions, p)
	res.Project = res.Action.Project
	a.logger.Info("Step finished", "action", res.Action.Action, "success", res.Action.IsSuccess, "tools", len(res.Tools))
	return res, nil
}

// complete bounds the chat call by the agent's timeout. Expiry is reported
// as ErrTimeout, never as an ApiCall error.
func (a *Agent) complete(ctx context.Context, msgs []ChatMessage) (string, error) {
	tctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	start := time.Now()
	raw, err := a.client.ChatCompletion(tctx, msgs, CallOptions{Schema: AgentResponseSchema()})
	if err != nil {
		if errors.Is(tctx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			a.logger.Warn("Chat completion timed out", "timeout", a.timeout)
			return "", ErrTimeout
		}
		return "", err
	}
	a.logger.Debug("Chat completion done", "elapsed", time.Since(start))
	return raw, nil
}

// FollowUp extends a conversation with the assistant's reply and a user turn
// reporting what its action and tools produced.
func FollowUp(msgs []ChatMessage, res StepResult) []ChatMessage {
	var sb strings.Builder
	for _, r := range append(slices.Clone(res.Tools), res.Action) {
		status := "success"
		if r.IsError {
			status = "error"
		}
		fmt.Fprintf(&sb, "[%s] %s\n%s\n\n", status, r.Action, r.Result)
	}
	out := append([]ChatMessage(nil), msgs...)
	return append(out, AssistantMessage(res.Raw), UserMessage(strings.TrimSpace(sb.String())))
}
