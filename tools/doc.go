// Package tools defines tool contracts and the schema side of function calling.
//
// Includes:
//   - ToolDefinition: name, description, argument type, handler.
//   - New[T](): wrap a typed Go function as a ToolDefinition.
//   - DeriveSchemas: declarative schemas (ordered, typed parameters) from definitions.
//   - Set / Registry: an immutable tool set and its name -> handler lookup.
//   - Cache: bounded recency cache of derived schemas keyed by set fingerprint.
//   - Example tools: get_color, get_number.
package tools
