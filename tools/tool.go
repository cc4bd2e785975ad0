package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/invopop/jsonschema"
)

// Handler executes a tool with the argument mapping produced by the model.
// The result may be any JSON-compatible value or a scalar.
type Handler func(ctx context.Context, args map[string]any) (any, error)

// ToolDefinition is a caller-supplied function the model may request to invoke.
type ToolDefinition struct {
	Name        string
	Description string
	// Input describes the call arguments, normally a struct type. Nil means no parameters.
	Input    reflect.Type
	Function Handler
}

var errNoInput = errors.New("tool has no input type")

// New wraps a typed function as a ToolDefinition. The argument mapping is
// decoded into T before fn runs. Unknown arguments, missing required ones and
// type mismatches are reported as tool errors and fn is not called.
// Required means the same as in the derived schema: no omitempty in the json tag.
func New[T any](name, description string, fn func(ctx context.Context, in T) (any, error)) ToolDefinition {
	input := reflect.TypeOf((*T)(nil)).Elem()
	required := requiredArgs(input)
	return ToolDefinition{
		Name:        name,
		Description: description,
		Input:       input,
		Function: func(ctx context.Context, args map[string]any) (any, error) {
			var in T
			if err := decodeArgs(args, &in); err != nil {
				return nil, fmt.Errorf("invalid arguments for %s: %w", name, err)
			}
			var missing []string
			for _, arg := range required {
				if _, ok := args[arg]; !ok {
					missing = append(missing, arg)
				}
			}
			if len(missing) > 0 {
				return nil, fmt.Errorf("invalid arguments for %s: missing required argument(s): %s", name, strings.Join(missing, ", "))
			}
			return fn(ctx, in)
		},
	}
}

func decodeArgs(args map[string]any, dst any) error {
	if len(args) == 0 {
		return nil
	}
	b, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("encode arguments: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// requiredArgs lists the required top-level properties of t's schema.
// Types that cannot be reflected require nothing.
func requiredArgs(t reflect.Type) []string {
	js, err := GenerateSchema(t)
	if err != nil || js == nil {
		return nil
	}
	return append([]string(nil), js.Required...)
}

// GenerateSchema reflects a JSON Schema from an argument struct type.
// Types the reflector cannot describe (funcs, channels, ...) are reported as errors.
func GenerateSchema(t reflect.Type) (s *jsonschema.Schema, err error) {
	if t == nil {
		return nil, errNoInput
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("input type %s is not a struct", t)
	}
	// Inlined definitions never terminate on self-referential types.
	if recursive(t, map[reflect.Type]bool{}) {
		return nil, fmt.Errorf("input type %s is recursive", t)
	}

	// The reflector panics on unsupported kinds.
	defer func() {
		if r := recover(); r != nil {
			s, err = nil, fmt.Errorf("reflect %s: %v", t, r)
		}
	}()

	reflector := jsonschema.Reflector{
		Anonymous:                 true,
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	return reflector.ReflectFromType(t), nil
}

func recursive(t reflect.Type, path map[reflect.Type]bool) bool {
	switch t.Kind() {
	case reflect.Pointer, reflect.Slice, reflect.Array, reflect.Map:
		return recursive(t.Elem(), path)
	case reflect.Struct:
		if path[t] {
			return true
		}
		path[t] = true
		defer delete(path, t)
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			if !f.IsExported() && !f.Anonymous {
				continue
			}
			if recursive(f.Type, path) {
				return true
			}
		}
	}
	return false
}
