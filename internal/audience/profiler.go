package audience

import (
	"strconv"
	"strings"

	"go.uber.org/zap"

	"routineforge/internal/intake"
)

// PersonaOverrides maps persona tags to forced cohorts. Configurable so the
// forcing rules stay data, not code.
type PersonaOverrides map[string]intake.Cohort

// DefaultPersonaOverrides returns the stock tag-forcing table.
func DefaultPersonaOverrides() PersonaOverrides {
	return PersonaOverrides{
		"toddler":       intake.CohortChild,
		"preschool":     intake.CohortChild,
		"elder-support": intake.CohortElder,
		"grandparent":   intake.CohortElder,
	}
}

// sensitivityTags couple NeedsRepetition and EmphasizeCategories: any one of
// these turns both on.
var sensitivityTags = []string{"adhd", "neurodivergent", "sensitivity", "sensory"}

// ProfilerConfig holds construction parameters for a Profiler.
type ProfilerConfig struct {
	Overrides PersonaOverrides
	// Versions carries per-person profile version counters from prior
	// records. Missing entries default to 1.
	Versions map[string]int
	Logger   *zap.Logger
}

// Profiler derives audience profiles from intakes.
type Profiler struct {
	overrides PersonaOverrides
	versions  map[string]int
	logger    *zap.Logger
}

// NewProfiler creates a Profiler. Nil config fields get defaults.
func NewProfiler(cfg ProfilerConfig) *Profiler {
	overrides := cfg.Overrides
	if overrides == nil {
		overrides = DefaultPersonaOverrides()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Profiler{overrides: overrides, versions: cfg.Versions, logger: logger}
}

// Profiles derives ordered audience profiles plus the flattened
// personalization context. At least one profile always exists; profiles[0]
// is the primary.
func (p *Profiler) Profiles(it *intake.Intake) ([]Profile, Context) {
	names := collectNames(it)
	tags := collectPersonaTags(it)
	focus := collectFocusTerms(it)

	profiles := make([]Profile, 0, len(names))
	for _, name := range names {
		profiles = append(profiles, p.buildProfile(it, name, tags, focus))
	}

	ctx := p.flatten(it, profiles[0], tags, focus)
	p.logger.Debug("audience profiled",
		zap.Int("profiles", len(profiles)),
		zap.String("primary", profiles[0].Name),
		zap.String("style", string(profiles[0].StyleLevel)))
	return profiles, ctx
}

// collectNames gathers candidate audience names in priority order:
// customer first name, child name, household members, free-text name list,
// prior-record name. Falls back to a single "Primary" placeholder.
func collectNames(it *intake.Intake) []string {
	var names []string
	seen := make(map[string]bool)
	add := func(raw string) {
		name := strings.TrimSpace(raw)
		if name == "" {
			return
		}
		key := strings.ToLower(name)
		if seen[key] {
			return
		}
		seen[key] = true
		names = append(names, name)
	}

	add(it.Customer.FirstName)
	add(it.Pref("child_name", "kid_name"))
	for _, m := range splitList(it.Pref("household_members", "members")) {
		add(m)
	}
	for _, m := range splitList(it.Pref("names", "name_list")) {
		add(m)
	}
	add(it.Pref("previous_name"))

	if len(names) == 0 {
		names = []string{"Primary"}
	}
	return names
}

func collectPersonaTags(it *intake.Intake) []string {
	var tags []string
	seen := make(map[string]bool)
	for _, raw := range splitList(it.Pref("persona_tags", "persona", "tags")) {
		tag := strings.ToLower(strings.TrimSpace(raw))
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		tags = append(tags, tag)
	}
	return tags
}

func collectFocusTerms(it *intake.Intake) []string {
	var terms []string
	for _, key := range []string{"focus", "goals", "notes", "household_type"} {
		if v := it.Pref(key); v != "" {
			terms = append(terms, strings.ToLower(v))
		}
	}
	return terms
}

func (p *Profiler) buildProfile(it *intake.Intake, name string, tags, focus []string) Profile {
	cohort := p.resolveCohort(it.Cohort, tags, focus)
	style := resolveStyle(it, cohort)

	prof := Profile{
		Name:           name,
		Cohort:         cohort,
		StyleLevel:     style,
		SimplifyText:   style == StyleKidFriendly || style == StyleElderAccessible || style == StyleNeuroSupport,
		HighContrast:   style == StyleElderAccessible,
		IconSizeInches: resolveIconSize(it, style),
		Version:        1,
	}

	if hasSensitivityTag(tags) {
		// Coupled on purpose: either signal enables both behaviors.
		prof.NeedsRepetition = true
		prof.EmphasizeCategories = true
	}

	if v, ok := p.versions[strings.ToLower(name)]; ok && v > 0 {
		prof.Version = v
	}
	return prof
}

// resolveCohort layers persona-tag forcing over the intake cohort, then a
// keyword scan of the focus terms. Elder wins when both child and elder
// keywords fire.
func (p *Profiler) resolveCohort(base intake.Cohort, tags, focus []string) intake.Cohort {
	cohort := base
	for _, tag := range tags {
		if forced, ok := p.overrides[tag]; ok {
			cohort = forced
		}
	}

	childHit, elderHit := false, false
	for _, term := range focus {
		if strings.Contains(term, "kid") || strings.Contains(term, "child") {
			childHit = true
		}
		if strings.Contains(term, "elder") || strings.Contains(term, "grand") {
			elderHit = true
		}
	}
	switch {
	case elderHit:
		return intake.CohortElder
	case childHit:
		return intake.CohortChild
	}
	return cohort
}

func resolveStyle(it *intake.Intake, cohort intake.Cohort) StyleLevel {
	if raw := it.Pref("style_level", "style"); raw != "" {
		if s, ok := parseStyle(raw); ok {
			return s
		}
	}
	switch cohort {
	case intake.CohortChild:
		return StyleKidFriendly
	case intake.CohortElder:
		return StyleElderAccessible
	}
	return StyleStandard
}

func parseStyle(raw string) (StyleLevel, bool) {
	switch StyleLevel(strings.ToLower(strings.TrimSpace(raw))) {
	case StyleStandard:
		return StyleStandard, true
	case StyleKidFriendly:
		return StyleKidFriendly, true
	case StyleElderAccessible:
		return StyleElderAccessible, true
	case StyleNeuroSupport:
		return StyleNeuroSupport, true
	}
	return "", false
}

func resolveIconSize(it *intake.Intake, style StyleLevel) float64 {
	if raw := it.Pref("icon_size", "icon_size_inches"); raw != "" {
		if size, err := strconv.ParseFloat(raw, 64); err == nil && size > 0 {
			return size
		}
	}
	switch style {
	case StyleKidFriendly, StyleElderAccessible:
		return iconSizeLarge
	case StyleNeuroSupport:
		return iconSizeNeuro
	}
	return iconSizeStandard
}

func hasSensitivityTag(tags []string) bool {
	for _, tag := range tags {
		for _, s := range sensitivityTags {
			if strings.Contains(tag, s) {
				return true
			}
		}
	}
	return false
}

// flatten projects the primary profile plus order-level hints onto the
// shared context.
func (p *Profiler) flatten(it *intake.Intake, primary Profile, tags, focus []string) Context {
	family := it.Pref("family_name")
	if family == "" {
		family = it.Customer.LastName
	}

	format := formatForFulfillment(it.Fulfillment)
	if raw := it.Pref("preferred_format"); raw != "" {
		format = strings.ToLower(raw)
	}

	return Context{
		Name:                primary.Name,
		FamilyName:          family,
		Cohort:              primary.Cohort,
		StyleLevel:          primary.StyleLevel,
		IconSizeInches:      primary.IconSizeInches,
		SimplifyText:        primary.SimplifyText,
		HighContrast:        primary.HighContrast,
		NeedsRepetition:     primary.NeedsRepetition,
		EmphasizeCategories: primary.EmphasizeCategories,
		PreferredCategory:   it.Pref("category", "preferred_category"),
		PreferredFormat:     format,
		Keywords:            tokenize(focus),
		PersonaTags:         tags,
	}
}

func formatForFulfillment(f intake.FulfillmentType) string {
	switch f {
	case intake.FulfillmentCricutReady:
		return "cut-file"
	case intake.FulfillmentPhysical:
		return "magnet"
	}
	return "printable"
}

var stopWords = map[string]bool{
	"and": true, "the": true, "with": true, "for": true, "our": true,
	"plus": true, "a": true, "an": true, "of": true, "to": true,
}

// tokenize lowercases focus phrases and splits them into keyword tokens.
func tokenize(phrases []string) []string {
	var tokens []string
	seen := make(map[string]bool)
	for _, phrase := range phrases {
		fields := strings.FieldsFunc(strings.ToLower(phrase), func(r rune) bool {
			return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9')
		})
		for _, f := range fields {
			if len(f) < 3 || stopWords[f] || seen[f] {
				continue
			}
			seen[f] = true
			tokens = append(tokens, f)
		}
	}
	return tokens
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ';' || r == '\n'
	})
	var out []string
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
