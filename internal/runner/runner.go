package runner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"time"

	"github.com/tidwall/sjson"

	"github.com/petasbytes/go-mincore/internal/provider"
	"github.com/petasbytes/go-mincore/internal/telemetry"
	"github.com/petasbytes/go-mincore/tools"
)

// DefaultMaxRounds bounds Dispatch when the caller passes a non-positive limit.
const DefaultMaxRounds = 5

// CallResult is the serialized outcome of one PendingCall.
type CallResult struct {
	CallID string
	Output string
}

type Runner struct {
	Client provider.Client
	Model  string
	Logger *slog.Logger
}

func New(client provider.Client, model string) *Runner {
	return &Runner{Client: client, Model: model, Logger: slog.Default()}
}

func (r *Runner) logger() *slog.Logger {
	if r.Logger == nil {
		return slog.Default()
	}
	return r.Logger
}

// Dispatch executes the calls requested by resp and feeds the results back,
// for at most maxRounds submissions. It returns the last response seen.
// maxRounds <= 0 means DefaultMaxRounds; the loop cannot be switched off.
func (r *Runner) Dispatch(ctx context.Context, resp *provider.Response, registry *tools.Registry, maxRounds int) (*provider.Response, error) {
	if maxRounds <= 0 {
		maxRounds = DefaultMaxRounds
	}
	log := r.logger()
	turnID, _ := telemetry.TurnIDFromContext(ctx)

	current := resp
	for round := 1; round <= maxRounds; round++ {
		calls := ExtractCalls(current)
		if len(calls) == 0 {
			log.Debug("no function calls in response, stopping", "round", round)
			return current, nil
		}

		input := make([]provider.InputItem, 0, len(calls))
		for _, call := range calls {
			res := r.Execute(ctx, registry, call)
			input = append(input, provider.CallOutput{CallID: res.CallID, Output: res.Output})
		}

		start := time.Now()
		next, err := r.Client.CreateTurn(ctx, provider.TurnRequest{
			Model:      r.Model,
			PreviousID: current.ID,
			Input:      input,
		})
		if err == nil && next == nil {
			err = errors.New("provider returned no response")
		}
		telemetry.Emit("provider_call", map[string]any{
			"turn_id":     turnID,
			"kind":        "call_results",
			"round":       round,
			"items":       len(input),
			"duration_ms": time.Since(start).Milliseconds(),
			"ok":          err == nil,
		})
		if err != nil {
			return nil, fmt.Errorf("dispatch round %d: %w", round, err)
		}
		current = next
	}

	if pending := len(ExtractCalls(current)); pending > 0 {
		log.Debug("round limit reached with calls pending", "max_rounds", maxRounds, "pending", pending)
	}
	return current, nil
}

// Execute runs one call against registry. Failures are returned as an
// {"error": ...} payload; Execute itself never fails.
func (r *Runner) Execute(ctx context.Context, registry *tools.Registry, call PendingCall) CallResult {
	log := r.logger()
	turnID, _ := telemetry.TurnIDFromContext(ctx)

	// Helper to emit a tool_exec event
	emit := func(start time.Time, outputSize int, errStr string) {
		fields := map[string]any{
			"tool_name":   call.Name,
			"duration_ms": time.Since(start).Milliseconds(),
			"input_size":  argsSize(call.Args),
			"output_size": outputSize,
			"turn_id":     turnID,
			"error":       nil,
		}
		if errStr != "" {
			fields["error"] = errStr
		}
		telemetry.Emit("tool_exec", fields)
	}

	start := time.Now()
	def, ok := registry.Lookup(call.Name)
	if !ok {
		log.Error("function execution failed", "function", call.Name, "error", "unknown function")
		emit(start, 0, "unknown function")
		return CallResult{CallID: call.ID, Output: errorPayload("Unknown function: " + call.Name)}
	}

	log.Info("executing function", "function", call.Name)
	log.Debug("function arguments", "function", call.Name, "args", call.Args)

	result, err := invoke(ctx, def, call.Args)
	if err != nil {
		log.Error("function execution failed", "function", call.Name, "error", err)
		// Telemetry gets a generic string; the model gets the message.
		emit(start, 0, "tool error")
		return CallResult{CallID: call.ID, Output: errorPayload(err.Error())}
	}

	out := Serialize(result)
	log.Debug("function executed", "function", call.Name, "result", out)
	emit(start, len(out), "")
	return CallResult{CallID: call.ID, Output: out}
}

func invoke(ctx context.Context, def tools.ToolDefinition, args map[string]any) (result any, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%v", p)
		}
	}()
	if def.Function == nil {
		return nil, fmt.Errorf("function %s has no implementation", def.Name)
	}
	if args == nil {
		args = map[string]any{}
	}
	return def.Function(ctx, args)
}

// Serialize renders a tool result for the model: maps, slices and structs as
// JSON, strings verbatim, everything else in its %v form. A nil result is
// sent as "null".
func Serialize(v any) string {
	if v == nil {
		return "null"
	}
	if s, ok := v.(string); ok {
		return s
	}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer && !rv.IsNil() {
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Map, reflect.Slice, reflect.Array, reflect.Struct:
		if b, err := json.Marshal(v); err == nil {
			return string(b)
		}
	}
	return fmt.Sprintf("%v", v)
}

func errorPayload(msg string) string {
	out, err := sjson.Set(`{}`, "error", msg)
	if err != nil {
		return `{"error":"internal error"}`
	}
	return out
}

func argsSize(args map[string]any) int {
	if len(args) == 0 {
		return 0
	}
	b, err := json.Marshal(args)
	if err != nil {
		return 0
	}
	return len(b)
}
