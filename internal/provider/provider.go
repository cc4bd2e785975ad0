// Package provider defines the model-provider contract used by the agent core
// and its OpenAI Responses implementation.
package provider

import (
	"context"

	"github.com/petasbytes/go-mincore/tools"
)

type Role string

const (
	RoleSystem Role = "system"
	RoleUser   Role = "user"
)

// InputItem is one entry of a turn's input: a Message or a CallOutput.
type InputItem interface {
	isInputItem()
}

// Message is a role-tagged text input.
type Message struct {
	Role    Role
	Content string
}

// CallOutput returns the result of a function call to the model.
type CallOutput struct {
	CallID string
	Output string
}

func (Message) isInputItem()    {}
func (CallOutput) isInputItem() {}

// TurnRequest describes one provider round trip.
type TurnRequest struct {
	Model string
	// PreviousID continues a server-held conversation; empty starts a new one.
	PreviousID string
	Input      []InputItem
	// Tools offered for this turn; nil offers none.
	Tools []tools.Schema
}

// Response is a read-only view of a provider turn.
type Response struct {
	// ID is the conversation handle for the next turn.
	ID   string
	Text string
	// Items holds the raw JSON of each output item, in order.
	Items []string
}

// Client creates conversation turns.
type Client interface {
	CreateTurn(ctx context.Context, req TurnRequest) (*Response, error)
}
