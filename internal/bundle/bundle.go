// Package bundle resolves the icon bundle for one order: it scores stored
// catalog templates against the personalization context, falls through to
// AI synthesis when nothing meaningful matches, and finally to a
// deterministic baseline bundle. Every item in the chosen bundle is then
// personalized for the primary audience. The returned plan's request list
// is never empty.
package bundle

import (
	"routineforge/internal/catalog"
)

// Source tags where the resolved bundle came from.
type Source string

const (
	SourceStored    Source = "stored"
	SourceGenerated Source = "generated"
	SourceFallback  Source = "fallback"
)

// Synthetic scores for non-stored decisions.
const (
	generatedScore = 10
	fallbackScore  = 5
)

// minStoredScore is the floor below which a stored match is abandoned.
const minStoredScore = 4

// IconRequest is one personalized icon to materialize.
type IconRequest struct {
	Slug        string   `json:"slug"`
	Label       string   `json:"label"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	SizeInches  float64  `json:"size_inches"`
	Tone        string   `json:"tone,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

// HelperTask is a downstream production task attached to the plan.
type HelperTask struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Plan is the resolved, personalized bundle for one order.
type Plan struct {
	Bundle   catalog.Template `json:"bundle"`
	Source   Source           `json:"source"`
	Score    int              `json:"score"`
	Format   string           `json:"format"`
	Requests []IconRequest    `json:"requests"`
	Tasks    []HelperTask     `json:"tasks"`
}

// Decision is the tagged outcome of the stored/generated/fallback choice,
// kept as a single value so scoring, gating, and fallback substitution stay
// in one reviewable place.
type Decision struct {
	Source   Source
	Template catalog.Template
	Score    int
}
