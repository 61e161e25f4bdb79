package narrative

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nyashahama/realyou-backend/internal/scoring"
)

// fallbackNarrator wraps two Narrator implementations. It calls the primary
// first; if that returns an error it logs the failure and tries the secondary.
type fallbackNarrator struct {
	primary   Narrator
	secondary Narrator
	logger    *slog.Logger
}

// NewFallbackNarrator returns a Narrator that calls primary and, on failure,
// falls back to secondary. Either argument may be nil. If primary is nil it
// goes straight to secondary; if secondary is nil and primary fails, the
// primary error is returned.
func NewFallbackNarrator(primary, secondary Narrator, logger *slog.Logger) Narrator {
	return &fallbackNarrator{
		primary:   primary,
		secondary: secondary,
		logger:    logger,
	}
}

func (f *fallbackNarrator) Narrate(ctx context.Context, res scoring.Result) (Narrative, error) {
	if f.primary != nil {
		n, err := f.primary.Narrate(ctx, res)
		if err == nil && !n.Empty() {
			return n, nil
		}
		if err == nil {
			err = fmt.Errorf("narrative: primary returned no content")
		}
		f.logger.Warn("narrative: primary narrator failed, trying secondary",
			"error", err,
			"type_code", res.TypeCode,
		)
		if f.secondary == nil {
			return Narrative{}, fmt.Errorf("narrative: primary failed and no secondary configured: %w", err)
		}
	}
	if f.secondary == nil {
		return Narrative{}, fmt.Errorf("narrative: no narrator configured")
	}
	return f.secondary.Narrate(ctx, res)
}

// Chain composes narrators in priority order and always ends with the
// template, so the returned Narrator never fails. Nil entries are skipped.
func Chain(logger *slog.Logger, narrators ...Narrator) Narrator {
	var out Narrator = NewTemplateNarrator()
	for i := len(narrators) - 1; i >= 0; i-- {
		if narrators[i] == nil {
			continue
		}
		out = NewFallbackNarrator(narrators[i], out, logger)
	}
	return out
}
