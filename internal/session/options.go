package session

import (
	"log/slog"

	"github.com/petasbytes/go-mincore/internal/runner"
	"github.com/petasbytes/go-mincore/tools"
)

// Option configures a Session.
type Option func(*options)

type options struct {
	model        string
	systemPrompt string
	logger       *slog.Logger
	cacheSize    int
	maxRounds    int
}

func defaultOptions() options {
	return options{
		systemPrompt: DefaultSystemPrompt,
		logger:       slog.Default(),
		cacheSize:    tools.DefaultCacheSize,
		maxRounds:    runner.DefaultMaxRounds,
	}
}

// WithModel selects the model. Empty keeps the provider default.
func WithModel(model string) Option {
	return func(o *options) {
		if model != "" {
			o.model = model
		}
	}
}

// WithSystemPrompt sets the text submitted when a conversation is created.
func WithSystemPrompt(prompt string) Option {
	return func(o *options) { o.systemPrompt = prompt }
}

func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithCacheSize bounds the number of distinct tool sets whose schemas are kept.
func WithCacheSize(n int) Option {
	return func(o *options) { o.cacheSize = n }
}

// WithMaxRounds sets the round limit Send uses when called with maxRounds <= 0.
func WithMaxRounds(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxRounds = n
		}
	}
}
