package ringba

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// Strategy is one rung of an ordered fallback ladder: a named attempt at
// resolving something on an unstable DOM. The provider's front end is a
// dynamically rendered SPA with no stable structure, so every lookup that
// matters is a ladder, not a single selector.
type Strategy struct {
	Name string
	Run  func(ctx context.Context) error
}

// tryStrategies attempts each strategy in order and returns the name of the
// first that succeeds. Exhaustion returns the attempted names and the last
// error.
func tryStrategies(ctx context.Context, log zerolog.Logger, what string, strategies []Strategy) (string, []string, error) {
	var attempted []string
	var lastErr error

	for _, s := range strategies {
		if err := ctx.Err(); err != nil {
			return "", attempted, err
		}
		attempted = append(attempted, s.Name)
		if err := s.Run(ctx); err != nil {
			log.Debug().Str("strategy", s.Name).Err(err).Msgf("%s strategy failed", what)
			lastErr = err
			continue
		}
		log.Info().Str("strategy", s.Name).Msgf("resolved %s", what)
		return s.Name, attempted, nil
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("no strategies configured")
	}
	return "", attempted, fmt.Errorf("all %s strategies exhausted: %w", what, lastErr)
}
