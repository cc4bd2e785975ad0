// Package session continues provider-held conversations one user message at a
// time, offering a caller-supplied tool set on each turn.
//
// A Session never stores the conversation handle. Send takes the handle from
// the previous turn and returns the next one; an empty handle starts a new
// conversation.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/petasbytes/go-mincore/internal/provider"
	"github.com/petasbytes/go-mincore/internal/runner"
	"github.com/petasbytes/go-mincore/internal/telemetry"
	"github.com/petasbytes/go-mincore/tools"
)

const DefaultSystemPrompt = "You are a helpful assistant."

// Session is safe for sequential use. Concurrent Sends must not share one.
type Session struct {
	client       provider.Client
	model        string
	systemPrompt string
	maxRounds    int
	cache        *tools.Cache
	runner       *runner.Runner
	logger       *slog.Logger
}

func New(client provider.Client, opts ...Option) (*Session, error) {
	if client == nil {
		return nil, ErrNilClient
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.model == "" {
		o.model = provider.DefaultModel
	}

	r := runner.New(client, o.model)
	r.Logger = o.logger
	return &Session{
		client:       client,
		model:        o.model,
		systemPrompt: o.systemPrompt,
		maxRounds:    o.maxRounds,
		cache:        tools.NewCache(o.cacheSize),
		runner:       r,
		logger:       o.logger,
	}, nil
}

// Model returns the model the session targets.
func (s *Session) Model() string { return s.model }

// Bootstrap creates a conversation holding only the system prompt and returns its handle.
func (s *Session) Bootstrap(ctx context.Context) (string, error) {
	s.logger.Info("bootstrapping conversation")
	resp, err := s.createTurn(ctx, "bootstrap", provider.TurnRequest{
		Model: s.model,
		Input: []provider.InputItem{provider.Message{Role: provider.RoleSystem, Content: s.systemPrompt}},
	})
	if err != nil {
		return "", fmt.Errorf("bootstrap: %w", err)
	}
	return resp.ID, nil
}

// Send submits message on the conversation identified by handle, resolves any
// function calls with set, and returns the new handle and the final text.
// maxRounds <= 0 uses the session default.
func (s *Session) Send(ctx context.Context, message, handle string, set *tools.Set, maxRounds int) (string, string, error) {
	if maxRounds <= 0 {
		maxRounds = s.maxRounds
	}
	ctx, turnID := telemetry.EnsureTurnID(ctx)
	start := time.Now()
	telemetry.Emit("turn_start", map[string]any{
		"turn_id":    turnID,
		"model":      s.model,
		"new":        handle == "",
		"tools":      set.Len(),
		"max_rounds": maxRounds,
	})
	telemetry.EmitUserFeatures(ctx, message)

	newHandle, text, err := s.send(ctx, message, handle, set, maxRounds)

	fields := map[string]any{
		"turn_id":     turnID,
		"duration_ms": time.Since(start).Milliseconds(),
		"text_bytes":  len(text),
		"error":       nil,
	}
	if err != nil {
		fields["error"] = "provider error"
	}
	telemetry.Emit("turn_end", fields)
	return newHandle, text, err
}

func (s *Session) send(ctx context.Context, message, handle string, set *tools.Set, maxRounds int) (string, string, error) {
	if handle == "" {
		h, err := s.Bootstrap(ctx)
		if err != nil {
			return "", "", err
		}
		handle = h
	}

	var schemas []tools.Schema
	if set.Len() > 0 {
		cached := s.cache.Contains(set)
		schemas = s.cache.Schemas(set)
		for _, sc := range schemas {
			s.logger.Debug("function schema", "name", sc.Name, "parameters", sc.Names(), "cached", cached)
		}
	}

	s.logger.Info("sending user message", "functions", len(schemas))
	resp, err := s.createTurn(ctx, "message", provider.TurnRequest{
		Model:      s.model,
		PreviousID: handle,
		Input:      []provider.InputItem{provider.Message{Role: provider.RoleUser, Content: message}},
		Tools:      schemas,
	})
	if err != nil {
		return "", "", fmt.Errorf("send: %w", err)
	}

	last, err := s.runner.Dispatch(ctx, resp, set.Registry(), maxRounds)
	if err != nil {
		return "", "", err
	}
	return last.ID, last.Text, nil
}

func (s *Session) createTurn(ctx context.Context, kind string, req provider.TurnRequest) (*provider.Response, error) {
	turnID, _ := telemetry.TurnIDFromContext(ctx)
	start := time.Now()
	resp, err := s.client.CreateTurn(ctx, req)
	if err == nil && resp == nil {
		err = errNoResponse
	}
	telemetry.Emit("provider_call", map[string]any{
		"turn_id":     turnID,
		"kind":        kind,
		"items":       len(req.Input),
		"tools":       len(req.Tools),
		"duration_ms": time.Since(start).Milliseconds(),
		"ok":          err == nil,
	})
	return resp, err
}
