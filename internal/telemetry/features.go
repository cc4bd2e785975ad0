package telemetry

import (
	"context"
	"unicode"
)

// TextFeatures are size measurements of a piece of text.
type TextFeatures struct {
	Bytes int `json:"bytes"`
	Runes int `json:"runes"`
	Words int `json:"words"`
	Lines int `json:"lines"`
}

// MeasureText counts bytes, runes, whitespace-separated words and lines.
// Empty text has zero lines; otherwise lines is 1 + the number of '\n'.
func MeasureText(s string) TextFeatures {
	f := TextFeatures{Bytes: len(s)}
	inWord := false
	for _, r := range s {
		f.Runes++
		if r == '\n' {
			f.Lines++
		}
		if unicode.IsSpace(r) {
			inWord = false
			continue
		}
		if !inWord {
			f.Words++
			inWord = true
		}
	}
	if s != "" {
		f.Lines++
	}
	return f
}

// EmitUserFeatures records the size of a user message under the turn in ctx.
func EmitUserFeatures(ctx context.Context, text string) {
	if !ObserveEnabled() {
		return
	}
	turnID, _ := TurnIDFromContext(ctx)
	Emit("user_features", map[string]any{
		"turn_id": turnID,
		"user":    MeasureText(text),
	})
}
