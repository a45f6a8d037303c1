package bundle

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"routineforge/internal/audience"
	"routineforge/internal/catalog"
	"routineforge/internal/intake"
)

// ResolverConfig holds construction parameters for a Resolver.
type ResolverConfig struct {
	Store     *catalog.Store
	Generator Generator // optional; nil means generation is unavailable
	Logger    *zap.Logger
}

// Resolver chooses and personalizes the icon bundle for one order.
type Resolver struct {
	store     *catalog.Store
	generator Generator
	logger    *zap.Logger
}

// NewResolver creates a Resolver.
func NewResolver(cfg ResolverConfig) *Resolver {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{store: cfg.Store, generator: cfg.Generator, logger: logger}
}

// Resolve produces the bundle plan for an order. It never returns an empty
// request list: when personalization filtering empties a stored or
// generated bundle, the deterministic fallback is substituted.
func (r *Resolver) Resolve(ctx context.Context, it *intake.Intake, actx audience.Context) Plan {
	decision := r.decide(ctx, it, actx)

	requests := personalizeIcons(decision.Template, actx)
	if len(requests) == 0 && decision.Source != SourceFallback {
		r.logger.Info("personalization emptied bundle, substituting fallback",
			zap.String("bundle", decision.Template.Name),
			zap.String("source", string(decision.Source)))
		decision = Decision{
			Source:   SourceFallback,
			Template: buildFallback(it.Tier, actx),
			Score:    fallbackScore,
		}
		requests = personalizeIcons(decision.Template, actx)
	}

	plan := Plan{
		Bundle:   decision.Template,
		Source:   decision.Source,
		Score:    decision.Score,
		Format:   actx.PreferredFormat,
		Requests: requests,
		Tasks:    helperTasks(actx.PreferredFormat),
	}

	r.logger.Info("bundle plan resolved",
		zap.String("order_id", it.OrderID),
		zap.String("bundle", plan.Bundle.Name),
		zap.String("source", string(plan.Source)),
		zap.Int("score", plan.Score),
		zap.Int("icons", len(plan.Requests)))
	return plan
}

// decide runs the stored/generated/fallback choice as a single decision
// function returning a tagged variant.
func (r *Resolver) decide(ctx context.Context, it *intake.Intake, actx audience.Context) Decision {
	if t, score, ok := r.bestStored(actx); ok {
		return Decision{Source: SourceStored, Template: t, Score: score}
	}

	if t, ok := r.generate(ctx, it, actx); ok {
		return Decision{Source: SourceGenerated, Template: t, Score: generatedScore}
	}

	return Decision{
		Source:   SourceFallback,
		Template: buildFallback(it.Tier, actx),
		Score:    fallbackScore,
	}
}

// bestStored scores the merged catalog and applies the minimum-score and
// meaningfulness gates. Ties keep the first-encountered template; the
// merged catalog lists static templates before runtime ones.
func (r *Resolver) bestStored(actx audience.Context) (catalog.Template, int, bool) {
	templates, err := r.store.Templates()
	if err != nil {
		r.logger.Warn("runtime catalog unavailable, matching static only", zap.Error(err))
		templates = r.store.Static()
	}

	var (
		best      catalog.Template
		bestMatch matchInfo
		found     bool
	)
	for _, t := range templates {
		m := scoreTemplate(t, actx)
		if !found || m.score > bestMatch.score {
			best, bestMatch, found = t, m, true
		}
	}

	if !found || bestMatch.score < minStoredScore || !meaningfulMatch(bestMatch, actx) {
		return catalog.Template{}, 0, false
	}
	return best, bestMatch.score, true
}

// generate calls the structured-bundle generator. Every failure is
// swallowed; resolution proceeds as if generation were unavailable.
// Successful results are persisted into the runtime catalog best-effort.
func (r *Resolver) generate(ctx context.Context, it *intake.Intake, actx audience.Context) (catalog.Template, bool) {
	if r.generator == nil {
		return catalog.Template{}, false
	}

	req := GenRequest{
		Cohort:      actx.Cohort,
		StyleLevel:  string(actx.StyleLevel),
		Format:      actx.PreferredFormat,
		PersonaTags: actx.PersonaTags,
		Keywords:    actx.Keywords,
		Category:    actx.PreferredCategory,
	}

	t, err := r.generator.Generate(ctx, req)
	if err != nil {
		r.logger.Warn("bundle generation unavailable", zap.Error(err))
		return catalog.Template{}, false
	}

	if err := r.store.AddGenerated(t); err != nil {
		r.logger.Warn("failed to catalog generated bundle", zap.Error(err))
	}
	return t, true
}

// helperTasks always includes the generic sort/tag task plus one
// format-specific layout task.
func helperTasks(format string) []HelperTask {
	tasks := []HelperTask{
		{Name: "sort-icons", Description: "Tag and sort the personalized icons."},
	}
	if isCuttableFormat(format) {
		tasks = append(tasks, HelperTask{
			Name:        "cut-sheet",
			Description: "Lay out a cut sheet for the cutting machine.",
		})
	} else {
		tasks = append(tasks, HelperTask{
			Name:        "printable-sheet",
			Description: "Lay out printable sheets for the bundle.",
		})
	}
	return tasks
}

func isCuttableFormat(format string) bool {
	format = strings.ToLower(format)
	return strings.Contains(format, "cut") || strings.Contains(format, "cricut")
}
