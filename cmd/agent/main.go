package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/petasbytes/go-mincore/internal/config"
	"github.com/petasbytes/go-mincore/internal/provider"
	"github.com/petasbytes/go-mincore/internal/session"
	"github.com/petasbytes/go-mincore/internal/telemetry"
	"github.com/petasbytes/go-mincore/memory"
	"github.com/petasbytes/go-mincore/tools"
)

const systemPrompt = `You are a helpful assistant named Baz.
You have two tools to return a random color or return a random number.
You can only discuss the color and number tools, or make polite conversation.`

type flags struct {
	configPath string
	envFile    string
	model      string
	maxRounds  int
	resume     bool
	fresh      bool
	verbose    bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	f := &flags{}
	cmd := &cobra.Command{
		Use:           "agent",
		Short:         "Chat with Baz, a minimal function-calling agent",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			err := run(cmd.Context(), f)
			if err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), "error:", err)
			}
			return err
		},
	}
	cmd.Flags().StringVar(&f.configPath, "config", "agent.yaml", "path to the YAML config file")
	cmd.Flags().StringVar(&f.envFile, "env-file", ".env", "dotenv file loaded before the config")
	cmd.Flags().StringVar(&f.model, "model", "", "model override")
	cmd.Flags().IntVar(&f.maxRounds, "max-rounds", 0, "function-calling rounds per message (0 uses the config)")
	cmd.Flags().BoolVar(&f.resume, "resume", false, "continue the conversation saved in the session file")
	cmd.Flags().BoolVar(&f.fresh, "new", false, "discard the saved session before starting")
	cmd.MarkFlagsMutuallyExclusive("resume", "new")
	cmd.Flags().BoolVarP(&f.verbose, "verbose", "v", false, "debug logging")
	return cmd
}

func run(ctx context.Context, f *flags) error {
	if err := godotenv.Load(f.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", f.envFile, err)
	}

	cfg, err := config.Load(f.configPath)
	if err != nil {
		return err
	}
	if cfg.OpenAI.APIKey == "" {
		cfg.OpenAI.APIKey = os.Getenv("BAZ_OPENAI_API_KEY")
	}
	if f.model != "" {
		cfg.Agent.Model = f.model
	}
	if f.maxRounds > 0 {
		cfg.Agent.MaxRounds = f.maxRounds
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	level := slog.LevelInfo
	if f.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	telemetry.SetObserve(cfg.Telemetry.Observe)
	telemetry.SetArtifactsDir(cfg.Telemetry.ArtifactsDir)

	client, err := provider.NewOpenAI(provider.Options{
		APIKey:            cfg.OpenAI.APIKey,
		BaseURL:           cfg.OpenAI.BaseURL,
		RequestsPerSecond: cfg.OpenAI.RequestsPerSecond,
	})
	if err != nil {
		return err
	}

	prompt := systemPrompt
	if cfg.Agent.SystemPrompt != "" {
		prompt = cfg.Agent.SystemPrompt
	}
	sess, err := session.New(client,
		session.WithModel(cfg.Agent.Model),
		session.WithSystemPrompt(prompt),
		session.WithMaxRounds(cfg.Agent.MaxRounds),
		session.WithLogger(logger),
	)
	if err != nil {
		return err
	}

	handle, err := restoreHandle(f, cfg.SessionFile, sess.Model(), logger)
	if err != nil {
		return err
	}

	// Set up graceful shutdown on Ctrl-C (SIGINT) / SIGTERM
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	c := &chat{
		session: sess,
		tools:   tools.Default(),
		in:      os.Stdin,
		out:     os.Stdout,
		errOut:  os.Stderr,
		handle:  handle,
		onTurn: func(h string) {
			if err := memory.Save(cfg.SessionFile, memory.State{Handle: h, Model: sess.Model()}); err != nil {
				fmt.Fprintf(os.Stderr, "warning: failed to save session: %v\n", err)
			}
		},
	}
	return c.loop(ctx)
}

// restoreHandle picks the conversation to continue: none with --new (the
// saved session is discarded), the saved one with --resume when it was
// recorded for the same model.
func restoreHandle(f *flags, path, model string, logger *slog.Logger) (string, error) {
	switch {
	case f.fresh:
		if err := memory.Clear(path); err != nil {
			return "", fmt.Errorf("clear session: %w", err)
		}
	case f.resume:
		st, err := memory.Load(path)
		if err != nil {
			logger.Warn("failed to load session", "path", path, "error", err)
			return "", nil
		}
		if st.Empty() {
			logger.Info("no saved session, starting a new conversation")
			return "", nil
		}
		if st.Model == "" || st.Model == model {
			return st.Handle, nil
		}
		logger.Info("saved session belongs to another model", "saved", st.Model, "model", model)
	}
	return "", nil
}
