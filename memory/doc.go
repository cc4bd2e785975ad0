// Package memory persists the CLI's conversation handle between runs.
//
// Persistence model:
//   - Only the opaque handle, the model it belongs to and a timestamp are stored.
//   - Conversation content stays with the provider and is never written locally.
package memory
