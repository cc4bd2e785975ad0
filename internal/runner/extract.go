package runner

import (
	"github.com/tidwall/gjson"

	"github.com/petasbytes/go-mincore/internal/provider"
)

// PendingCall is a model-requested function invocation.
type PendingCall struct {
	// ID is provider-assigned; empty when the item carried none.
	ID   string
	Name string
	Args map[string]any
}

// Item is the tolerant view of one output item: a Call or Other.
type Item interface {
	isItem()
}

// Call is an output item that requests a function invocation.
type Call struct {
	PendingCall
}

// Other is any output item that is not a call, including malformed ones.
type Other struct {
	Type string
}

func (Call) isItem()  {}
func (Other) isItem() {}

// ParseItem classifies the raw JSON of an output item. It never fails: anything
// that does not look like a call is Other, and unusable arguments become {}.
func ParseItem(raw string) Item {
	if !gjson.Valid(raw) {
		return Other{}
	}
	item := gjson.Parse(raw)
	if !item.IsObject() {
		return Other{}
	}

	name := item.Get("name")
	args := item.Get("arguments")
	if name.Type != gjson.String || name.Str == "" || !args.Exists() || args.Type == gjson.Null {
		return Other{Type: item.Get("type").String()}
	}

	return Call{PendingCall{
		ID:   callID(item),
		Name: name.Str,
		Args: parseArgs(args),
	}}
}

// ExtractCalls returns the calls in resp in output order.
func ExtractCalls(resp *provider.Response) []PendingCall {
	if resp == nil {
		return nil
	}
	var calls []PendingCall
	for _, raw := range resp.Items {
		if c, ok := ParseItem(raw).(Call); ok {
			calls = append(calls, c.PendingCall)
		}
	}
	return calls
}

func callID(item gjson.Result) string {
	for _, key := range []string{"call_id", "id"} {
		if v := item.Get(key); v.Exists() && v.Type != gjson.Null && v.String() != "" {
			return v.String()
		}
	}
	return ""
}

// parseArgs accepts a JSON-encoded object string or an object.
func parseArgs(args gjson.Result) map[string]any {
	if args.Type == gjson.String {
		if !gjson.Valid(args.Str) {
			return map[string]any{}
		}
		args = gjson.Parse(args.Str)
	}
	if !args.IsObject() {
		return map[string]any{}
	}
	if m, ok := args.Value().(map[string]any); ok {
		return m
	}
	return map[string]any{}
}
