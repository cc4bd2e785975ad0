package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/petasbytes/go-mincore/memory"
	"github.com/petasbytes/go-mincore/tools"
)

type sent struct {
	message, handle string
}

type fakeSender struct {
	calls []sent
	fail  map[string]bool
}

func (f *fakeSender) Send(_ context.Context, message, handle string, _ *tools.Set, _ int) (string, string, error) {
	f.calls = append(f.calls, sent{message, handle})
	if f.fail[message] {
		return "", "", errors.New("provider unavailable")
	}
	return handle + "+", "echo: " + message, nil
}

func TestChat_CarriesHandle(t *testing.T) {
	fake := &fakeSender{}
	var out, errOut bytes.Buffer
	var saved []string
	c := &chat{
		session: fake,
		tools:   tools.Default(),
		in:      strings.NewReader("hello\n\nagain\n"),
		out:     &out,
		errOut:  &errOut,
		onTurn:  func(h string) { saved = append(saved, h) },
	}

	require.NoError(t, c.loop(context.Background()))

	assert.Equal(t, []sent{{"hello", ""}, {"again", "+"}}, fake.calls)
	assert.Equal(t, []string{"+", "++"}, saved)
	assert.Contains(t, out.String(), ">>> Agent: echo: hello")
	assert.Contains(t, out.String(), ">>> Agent: echo: again")
	assert.Empty(t, errOut.String())
}

func TestChat_ErrorKeepsPreviousHandle(t *testing.T) {
	fake := &fakeSender{fail: map[string]bool{"boom": true}}
	var out, errOut bytes.Buffer
	c := &chat{
		session: fake,
		in:      strings.NewReader("one\nboom\ntwo\n"),
		out:     &out,
		errOut:  &errOut,
		handle:  "resp_0",
	}

	require.NoError(t, c.loop(context.Background()))

	require.Len(t, fake.calls, 3)
	assert.Equal(t, "resp_0+", fake.calls[1].handle)
	assert.Equal(t, "resp_0+", fake.calls[2].handle, "failed turn does not advance the handle")
	assert.Contains(t, errOut.String(), "provider unavailable")
}

func TestChat_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var out bytes.Buffer
	c := &chat{session: &fakeSender{}, in: strings.NewReader(""), out: &out, errOut: &out}

	// Either the closed input or the cancelled context ends the loop; neither is an error.
	assert.NoError(t, c.loop(ctx))
}

func TestRootCmd_Flags(t *testing.T) {
	cmd := newRootCmd()
	for _, name := range []string{"config", "env-file", "model", "max-rounds", "resume", "new", "verbose"} {
		assert.NotNil(t, cmd.Flags().Lookup(name), name)
	}
}

func TestRun_MissingAPIKey(t *testing.T) {
	for _, k := range []string{"AGT_OPENAI_API_KEY", "OPENAI_API_KEY", "BAZ_OPENAI_API_KEY"} {
		t.Setenv(k, "")
	}
	dir := t.TempDir()
	err := run(context.Background(), &flags{
		configPath: dir + "/missing.yaml",
		envFile:    dir + "/missing.env",
	})
	assert.ErrorContains(t, err, "API key")
}

func TestRootCmd_ResumeAndNewConflict(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetArgs([]string{"--resume", "--new"})
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "none of the others")
}

func TestRestoreHandle(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	saved := memory.State{Handle: "resp_9", Model: "gpt-5-nano"}

	tests := []struct {
		name      string
		f         flags
		state     *memory.State
		model     string
		want      string
		wantSaved bool
	}{
		{"resume same model", flags{resume: true}, &saved, "gpt-5-nano", "resp_9", true},
		{"resume other model", flags{resume: true}, &saved, "gpt-5", "", true},
		{"resume unrecorded model", flags{resume: true}, &memory.State{Handle: "resp_3"}, "gpt-5", "resp_3", true},
		{"resume without file", flags{resume: true}, nil, "gpt-5-nano", "", false},
		{"new discards", flags{fresh: true}, &saved, "gpt-5-nano", "", false},
		{"default ignores file", flags{}, &saved, "gpt-5-nano", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "session.json")
			if tt.state != nil {
				require.NoError(t, memory.Save(path, *tt.state))
			}

			got, err := restoreHandle(&tt.f, path, tt.model, logger)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)

			st, err := memory.Load(path)
			require.NoError(t, err)
			assert.Equal(t, tt.wantSaved, !st.Empty())
		})
	}
}
