package session_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/petasbytes/go-mincore/internal/provider"
	"github.com/petasbytes/go-mincore/internal/session"
	"github.com/petasbytes/go-mincore/internal/telemetry"
	"github.com/petasbytes/go-mincore/tools"
)

// scriptedClient returns responses produced by reply, numbering them resp_1, resp_2, ...
type scriptedClient struct {
	requests []provider.TurnRequest
	reply    func(n int, req provider.TurnRequest) (*provider.Response, error)
}

func (c *scriptedClient) CreateTurn(_ context.Context, req provider.TurnRequest) (*provider.Response, error) {
	c.requests = append(c.requests, req)
	n := len(c.requests)
	if c.reply != nil {
		return c.reply(n, req)
	}
	return &provider.Response{ID: fmt.Sprintf("resp_%d", n), Text: fmt.Sprintf("text %d", n)}, nil
}

func newSession(t *testing.T, c provider.Client, opts ...session.Option) *session.Session {
	t.Helper()
	s, err := session.New(c, opts...)
	require.NoError(t, err)
	return s
}

func TestNew_NilClient(t *testing.T) {
	_, err := session.New(nil)
	assert.ErrorIs(t, err, session.ErrNilClient)
}

func TestNew_DefaultModel(t *testing.T) {
	s := newSession(t, &scriptedClient{})
	assert.Equal(t, provider.DefaultModel, s.Model())

	s = newSession(t, &scriptedClient{}, session.WithModel("gpt-x"))
	assert.Equal(t, "gpt-x", s.Model())
}

func TestSend_NewConversation_BootstrapsFirst(t *testing.T) {
	client := &scriptedClient{}
	s := newSession(t, client, session.WithSystemPrompt("You are Baz."))

	handle, text, err := s.Send(context.Background(), "hello", "", tools.Default(), 0)
	require.NoError(t, err)
	assert.Equal(t, "resp_2", handle)
	assert.Equal(t, "text 2", text)

	require.Len(t, client.requests, 2)

	boot := client.requests[0]
	assert.Empty(t, boot.PreviousID)
	assert.Nil(t, boot.Tools, "bootstrap offers no tools")
	assert.Equal(t, []provider.InputItem{provider.Message{Role: provider.RoleSystem, Content: "You are Baz."}}, boot.Input)

	msg := client.requests[1]
	assert.Equal(t, "resp_1", msg.PreviousID)
	assert.Equal(t, []provider.InputItem{provider.Message{Role: provider.RoleUser, Content: "hello"}}, msg.Input)
	require.Len(t, msg.Tools, 2)
	assert.Equal(t, "get_color", msg.Tools[0].Name)
	assert.Equal(t, "get_number", msg.Tools[1].Name)
}

func TestSend_ExistingHandle_SkipsBootstrap(t *testing.T) {
	client := &scriptedClient{}
	s := newSession(t, client)

	handle, _, err := s.Send(context.Background(), "again", "resp_prev", nil, 0)
	require.NoError(t, err)
	assert.Equal(t, "resp_1", handle)

	require.Len(t, client.requests, 1)
	assert.Equal(t, "resp_prev", client.requests[0].PreviousID)
	assert.Nil(t, client.requests[0].Tools, "no tools offered without a tool set")
}

func TestSend_DefaultSystemPrompt(t *testing.T) {
	client := &scriptedClient{}
	s := newSession(t, client)

	_, _, err := s.Send(context.Background(), "hi", "", nil, 0)
	require.NoError(t, err)
	assert.Equal(t, provider.Message{Role: provider.RoleSystem, Content: session.DefaultSystemPrompt}, client.requests[0].Input[0])
}

func TestSend_ResolvesCalls(t *testing.T) {
	client := &scriptedClient{reply: func(n int, req provider.TurnRequest) (*provider.Response, error) {
		switch n {
		case 1:
			return &provider.Response{ID: "resp_1", Items: []string{
				`{"type":"reasoning","id":"rs_1"}`,
				`{"type":"function_call","id":"fc_1","call_id":"call_1","name":"get_color","arguments":"{}"}`,
			}}, nil
		default:
			return &provider.Response{ID: "resp_2", Text: "Your color is ready."}, nil
		}
	}}
	s := newSession(t, client)

	handle, text, err := s.Send(context.Background(), "pick a color", "resp_0", tools.Default(), 3)
	require.NoError(t, err)
	assert.Equal(t, "resp_2", handle)
	assert.Equal(t, "Your color is ready.", text)

	require.Len(t, client.requests, 2)
	follow := client.requests[1]
	assert.Equal(t, "resp_1", follow.PreviousID)
	require.Len(t, follow.Input, 1)
	out, ok := follow.Input[0].(provider.CallOutput)
	require.True(t, ok)
	assert.Equal(t, "call_1", out.CallID)
	assert.NotEmpty(t, out.Output)
}

func TestSend_MaxRoundsFromOption(t *testing.T) {
	client := &scriptedClient{reply: func(n int, req provider.TurnRequest) (*provider.Response, error) {
		return &provider.Response{
			ID:    fmt.Sprintf("resp_%d", n),
			Items: []string{fmt.Sprintf(`{"call_id":"c%d","name":"get_number","arguments":"{}"}`, n)},
		}, nil
	}}
	s := newSession(t, client, session.WithMaxRounds(2))

	_, _, err := s.Send(context.Background(), "loop", "resp_0", tools.Default(), 0)
	require.NoError(t, err)
	// One user turn plus at most two rounds of call results.
	assert.Len(t, client.requests, 3)
}

func TestSend_BootstrapErrorPropagates(t *testing.T) {
	boom := errors.New("unauthorized")
	client := &scriptedClient{reply: func(int, provider.TurnRequest) (*provider.Response, error) { return nil, boom }}
	s := newSession(t, client)

	handle, text, err := s.Send(context.Background(), "hi", "", nil, 0)
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, handle)
	assert.Empty(t, text)
	assert.Len(t, client.requests, 1)
}

func TestSend_MessageErrorPropagates(t *testing.T) {
	boom := errors.New("rate limited")
	client := &scriptedClient{reply: func(n int, req provider.TurnRequest) (*provider.Response, error) {
		return nil, boom
	}}
	s := newSession(t, client)

	handle, _, err := s.Send(context.Background(), "hi", "resp_keep", nil, 0)
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, handle, "no handle is returned on failure")
}

func TestSend_NilResponseIsAnError(t *testing.T) {
	client := &scriptedClient{reply: func(int, provider.TurnRequest) (*provider.Response, error) { return nil, nil }}
	s := newSession(t, client)

	_, _, err := s.Send(context.Background(), "hi", "resp_1", nil, 0)
	assert.Error(t, err)
}

func TestSend_ReusesCachedSchemas(t *testing.T) {
	client := &scriptedClient{}
	s := newSession(t, client)
	set := tools.Default()

	_, _, err := s.Send(context.Background(), "one", "resp_0", set, 0)
	require.NoError(t, err)
	_, _, err = s.Send(context.Background(), "two", "resp_1", set, 0)
	require.NoError(t, err)

	require.Len(t, client.requests, 2)
	first, second := client.requests[0].Tools, client.requests[1].Tools
	require.NotEmpty(t, first)
	assert.Equal(t, first, second)
	assert.Same(t, &first[0], &second[0], "schemas should come from the cache")
}

func TestSend_LogsSchemaResolution(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	s := newSession(t, &scriptedClient{}, session.WithLogger(logger))
	set := tools.NewSet(tools.RandomNumberDefinition)

	_, _, err := s.Send(context.Background(), "one", "resp_0", set, 0)
	require.NoError(t, err)
	first := buf.String()
	assert.Contains(t, first, "name=get_number")
	assert.Contains(t, first, "cached=false")

	buf.Reset()
	_, _, err = s.Send(context.Background(), "two", "resp_1", set, 0)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "cached=true")
}

func TestBootstrap(t *testing.T) {
	client := &scriptedClient{}
	s := newSession(t, client)

	handle, err := s.Bootstrap(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "resp_1", handle)
}

func TestSend_Telemetry(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("AGT_OBSERVE_JSON", "1")
	t.Setenv("AGT_ARTIFACTS_DIR", dir)

	s := newSession(t, &scriptedClient{})
	ctx := telemetry.WithTurnID(context.Background(), "turn-abc")
	_, _, err := s.Send(ctx, "a secret message", "", nil, 0)
	require.NoError(t, err)

	b, err := os.ReadFile(filepath.Join(dir, telemetry.EventsFile))
	require.NoError(t, err)
	out := string(b)
	for _, ev := range []string{`"event":"turn_start"`, `"event":"user_features"`, `"event":"provider_call"`, `"event":"turn_end"`} {
		assert.Contains(t, out, ev)
	}
	assert.Equal(t, strings.Count(out, "\n"), strings.Count(out, `"turn_id":"turn-abc"`))
	assert.NotContains(t, out, "a secret message")
}
