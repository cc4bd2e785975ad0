package tools

import (
	"crypto/sha256"
	"encoding/hex"
	"reflect"
	"strconv"
	"strings"
)

// Set is an immutable, ordered set of tool definitions offered for a turn.
// Reuse the same Set across turns so its registry is built once.
type Set struct {
	defs        []ToolDefinition
	fingerprint string
	registry    *Registry
}

// NewSet copies defs into a new Set.
func NewSet(defs ...ToolDefinition) *Set {
	cp := make([]ToolDefinition, len(defs))
	copy(cp, defs)
	return &Set{
		defs:        cp,
		fingerprint: fingerprint(cp),
		registry:    NewRegistry(cp),
	}
}

// Len returns the number of definitions; a nil Set is empty.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.defs)
}

// Definitions returns a copy of the definitions in declaration order.
func (s *Set) Definitions() []ToolDefinition {
	if s == nil {
		return nil
	}
	cp := make([]ToolDefinition, len(s.defs))
	copy(cp, s.defs)
	return cp
}

// Fingerprint identifies the schema-relevant content of the set: ordered
// names, descriptions and argument types. It is stable across processes.
func (s *Set) Fingerprint() string {
	if s == nil {
		return fingerprint(nil)
	}
	return s.fingerprint
}

// Registry returns the name -> definition lookup for the set.
func (s *Set) Registry() *Registry {
	if s == nil {
		return NewRegistry(nil)
	}
	return s.registry
}

func fingerprint(defs []ToolDefinition) string {
	h := sha256.New()
	for _, d := range defs {
		h.Write([]byte(d.Name))
		h.Write([]byte{0})
		h.Write([]byte(d.Description))
		h.Write([]byte{0})
		h.Write([]byte(typeKey(d.Input)))
		h.Write([]byte{0x1e})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// typeKey describes t by structure: field names, tags and element types,
// recursively. Distinct local types that share a name still differ here.
func typeKey(t reflect.Type) string {
	if t == nil {
		return "-"
	}
	var b strings.Builder
	writeTypeKey(&b, t, map[reflect.Type]bool{})
	return b.String()
}

func writeTypeKey(b *strings.Builder, t reflect.Type, seen map[reflect.Type]bool) {
	if t.Name() != "" {
		b.WriteString(t.PkgPath())
		b.WriteByte('.')
		b.WriteString(t.Name())
		if seen[t] {
			// Recursive type; the name alone closes the cycle.
			return
		}
		seen[t] = true
		defer delete(seen, t)
	}
	switch t.Kind() {
	case reflect.Pointer:
		b.WriteByte('*')
		writeTypeKey(b, t.Elem(), seen)
	case reflect.Slice:
		b.WriteString("[]")
		writeTypeKey(b, t.Elem(), seen)
	case reflect.Array:
		b.WriteString("[" + strconv.Itoa(t.Len()) + "]")
		writeTypeKey(b, t.Elem(), seen)
	case reflect.Map:
		b.WriteString("map[")
		writeTypeKey(b, t.Key(), seen)
		b.WriteByte(']')
		writeTypeKey(b, t.Elem(), seen)
	case reflect.Struct:
		b.WriteString("struct{")
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			if f.Anonymous {
				b.WriteString("embed ")
			}
			b.WriteString(f.Name)
			b.WriteByte(' ')
			writeTypeKey(b, f.Type, seen)
			b.WriteString(strconv.Quote(string(f.Tag)))
			b.WriteByte(';')
		}
		b.WriteByte('}')
	default:
		b.WriteString(t.Kind().String())
	}
}

// Registry maps a tool name to its definition.
// Duplicate names are not rejected: the last definition registered wins.
type Registry struct {
	byName map[string]ToolDefinition
	names  []string
}

// NewRegistry builds a registry from defs.
func NewRegistry(defs []ToolDefinition) *Registry {
	r := &Registry{byName: make(map[string]ToolDefinition, len(defs))}
	for _, d := range defs {
		if _, seen := r.byName[d.Name]; !seen {
			r.names = append(r.names, d.Name)
		}
		r.byName[d.Name] = d
	}
	return r
}

// Lookup returns the definition registered under name.
func (r *Registry) Lookup(name string) (ToolDefinition, bool) {
	if r == nil {
		return ToolDefinition{}, false
	}
	d, ok := r.byName[name]
	return d, ok
}

// Names lists registered names in first-registration order.
func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	return append([]string(nil), r.names...)
}

// Len returns the number of distinct names.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.byName)
}
