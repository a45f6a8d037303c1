package bundle

import (
	"regexp"
	"strings"

	"routineforge/internal/audience"
	"routineforge/internal/catalog"
	"routineforge/internal/intake"
)

// Representative ages used when filtering icons by declared age range.
var cohortAges = map[intake.Cohort]int{
	intake.CohortChild: 8,
	intake.CohortTeen:  15,
	intake.CohortAdult: 35,
	intake.CohortElder: 70,
}

var (
	personTokens = regexp.MustCompile(`(?i)\b(child|kid|toddler)\b`)
	familyTokens = regexp.MustCompile(`(?i)\b(family|household)\b`)
)

// personalizeIcons applies the per-icon personalization pass and the age
// filter. Icons whose declared age range excludes the resolved cohort are
// dropped, which can empty the result; the resolver's backstop handles
// that case.
func personalizeIcons(t catalog.Template, ctx audience.Context) []IconRequest {
	age, ok := cohortAges[ctx.Cohort]
	if !ok {
		age = cohortAges[intake.CohortAdult]
	}

	var requests []IconRequest
	for _, icon := range t.Icons {
		if icon.MinAge > 0 && age < icon.MinAge {
			continue
		}
		if icon.MaxAge > 0 && age > icon.MaxAge {
			continue
		}
		requests = append(requests, personalizeIcon(icon, ctx))
	}
	return requests
}

func personalizeIcon(icon catalog.IconDef, ctx audience.Context) IconRequest {
	label := substitute(icon.Label, ctx)
	desc := substitute(icon.Description, ctx)

	if ctx.SimplifyText {
		label = firstWords(label, 2)
		desc = firstSentence(desc, 16)
	}
	if ctx.HighContrast {
		desc = appendNote(desc, "High-contrast print.")
	}
	if ctx.EmphasizeCategories && icon.Category != "" {
		desc = "[" + titleCase(icon.Category) + "] " + desc
	}
	if ctx.NeedsRepetition {
		desc = appendNote(desc, "Same order, every time.")
	}

	tone := icon.Tone
	switch ctx.StyleLevel {
	case audience.StyleKidFriendly:
		tone = "bright"
	case audience.StyleElderAccessible:
		if tone == "bright" {
			tone = "soft"
		}
	}

	tags := make([]string, 0, len(icon.Tags)+1)
	tags = append(tags, icon.Tags...)
	tags = append(tags, string(ctx.StyleLevel))

	return IconRequest{
		Slug:        icon.Slug,
		Label:       label,
		Description: desc,
		Category:    icon.Category,
		SizeInches:  ctx.IconSizeInches,
		Tone:        tone,
		Tags:        tags,
	}
}

// substitute runs label-template placeholders first, then replaces generic
// person/family tokens with real names when known.
func substitute(s string, ctx audience.Context) string {
	name := ctx.Name
	if name == "Primary" {
		name = ""
	}
	family := ctx.FamilyName

	if name != "" {
		s = strings.ReplaceAll(s, "{name}", name)
		s = personTokens.ReplaceAllString(s, name)
	}
	if family != "" {
		s = strings.ReplaceAll(s, "{family}", family)
		s = familyTokens.ReplaceAllString(s, family)
	}
	return s
}

func firstWords(s string, n int) string {
	words := strings.Fields(s)
	if len(words) <= n {
		return s
	}
	return strings.Join(words[:n], " ")
}

// firstSentence caps text at its first sentence, at most maxWords words.
func firstSentence(s string, maxWords int) string {
	if idx := strings.IndexAny(s, ".!?"); idx >= 0 {
		s = s[:idx+1]
	}
	words := strings.Fields(s)
	if len(words) > maxWords {
		s = strings.Join(words[:maxWords], " ")
	}
	return s
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func appendNote(s, note string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return note
	}
	if !strings.HasSuffix(s, ".") && !strings.HasSuffix(s, "!") && !strings.HasSuffix(s, "?") {
		s += "."
	}
	return s + " " + note
}
