// Package narrative produces the blueprint narrative for an order via an
// ordered list of completion providers. Each provider gets at most two
// sequential tries with no backoff; the first success wins and carries the
// full prior-attempt log with it.
package narrative

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"routineforge/internal/llm"
)

// triesPerProvider bounds sequential attempts against one provider.
const triesPerProvider = 2

// Provider pairs a completion client with a stable identifier for the
// attempt log.
type Provider struct {
	ID     string
	Client llm.Client
}

// Attempt records one provider call.
type Attempt struct {
	Provider   string    `json:"provider"`
	OK         bool      `json:"ok"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Error      string    `json:"error,omitempty"`
}

// AllFailedError is the terminal error raised when every provider
// exhausts its tries. It carries the complete attempt log.
type AllFailedError struct {
	Attempts []Attempt
}

func (e *AllFailedError) Error() string {
	last := ""
	if n := len(e.Attempts); n > 0 {
		last = e.Attempts[n-1].Error
	}
	return fmt.Sprintf("all narrative providers failed after %d attempts: %s", len(e.Attempts), last)
}

// GeneratorConfig holds construction parameters for a Generator.
type GeneratorConfig struct {
	Providers []Provider
	Logger    *zap.Logger
	Clock     func() time.Time
}

// Generator runs the ordered provider fallback.
type Generator struct {
	providers []Provider
	logger    *zap.Logger
	clock     func() time.Time
}

// NewGenerator creates a Generator.
func NewGenerator(cfg GeneratorConfig) *Generator {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Generator{providers: cfg.Providers, logger: logger, clock: clock}
}

// Generate tries each provider in order, up to two times each, returning
// the first successful narrative together with the attempt log. When every
// provider exhausts, it returns an *AllFailedError carrying the full log.
func (g *Generator) Generate(ctx context.Context, prompt string) (string, []Attempt, error) {
	var attempts []Attempt

	for _, p := range g.providers {
		for try := 1; try <= triesPerProvider; try++ {
			attempt := Attempt{Provider: p.ID, StartedAt: g.clock()}
			text, err := p.Client.Complete(ctx, prompt)
			attempt.FinishedAt = g.clock()

			if err == nil && text != "" {
				attempt.OK = true
				attempts = append(attempts, attempt)
				g.logger.Info("narrative generated",
					zap.String("provider", p.ID),
					zap.Int("attempts", len(attempts)))
				return text, attempts, nil
			}

			if err == nil {
				err = fmt.Errorf("empty narrative")
			}
			attempt.Error = err.Error()
			attempts = append(attempts, attempt)
			g.logger.Warn("narrative attempt failed",
				zap.String("provider", p.ID),
				zap.Int("try", try),
				zap.Error(err))
		}
	}

	return "", attempts, &AllFailedError{Attempts: attempts}
}
