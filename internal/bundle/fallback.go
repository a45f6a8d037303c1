package bundle

import (
	"routineforge/internal/audience"
	"routineforge/internal/catalog"
	"routineforge/internal/intake"
)

// baselineIcons is the fixed icon set every fallback bundle starts from.
// Four icons minimum, unbounded age ranges, so the fallback survives every
// personalization filter.
var baselineIcons = []catalog.IconDef{
	{Slug: "wake-up", Label: "Wake Up", Description: "Start the day at the same time.", Category: "morning"},
	{Slug: "meal-time", Label: "Meal Time", Description: "Sit down together for the next meal.", Category: "meals"},
	{Slug: "tidy-up", Label: "Tidy Up", Description: "Ten minutes of putting things back.", Category: "chores"},
	{Slug: "wind-down", Label: "Wind Down", Description: "Quiet activity before bed.", Category: "bedtime"},
}

var fullTierIcons = []catalog.IconDef{
	{Slug: "outside-time", Label: "Outside Time", Description: "Fresh air, whatever the weather.", Category: "movement"},
	{Slug: "connect", Label: "Connect", Description: "A few minutes of one-on-one time.", Category: "connection"},
}

// keywordIcons adds a hinted icon when the matching keyword appears in the
// context.
var keywordIcons = map[string]catalog.IconDef{
	"laundry": {Slug: "laundry-run", Label: "Laundry Run", Description: "Move the laundry along one step.", Category: "chores"},
	"morning": {Slug: "morning-start", Label: "Morning Start", Description: "Run the morning list top to bottom.", Category: "morning"},
	"school":  {Slug: "school-prep", Label: "School Prep", Description: "Pack the bag and check the list.", Category: "learning"},
}

// buildFallback deterministically builds the baseline bundle, parameterized
// only by tier and a couple of keyword hints. This is the correctness
// backstop: it always yields at least four icons.
func buildFallback(tier intake.Tier, ctx audience.Context) catalog.Template {
	icons := make([]catalog.IconDef, len(baselineIcons))
	copy(icons, baselineIcons)

	if tier == intake.TierFull {
		icons = append(icons, fullTierIcons...)
	}

	for _, kw := range []string{"laundry", "morning", "school"} {
		if containsFold(ctx.Keywords, kw) {
			icons = append(icons, keywordIcons[kw])
		}
	}

	return catalog.Template{
		ID:             "fallback-baseline",
		Name:           "Baseline Routine",
		Category:       "routine",
		StyleLevel:     ctx.StyleLevel,
		IconSizeInches: ctx.IconSizeInches,
		Icons:          icons,
	}
}
