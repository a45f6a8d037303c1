package bundle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"routineforge/internal/audience"
	"routineforge/internal/catalog"
	"routineforge/internal/intake"
)

func TestPersonalizeIcons_AgeFilter(t *testing.T) {
	tmpl := catalog.Template{
		Icons: []catalog.IconDef{
			{Slug: "bath-time", Label: "Bath Time", MaxAge: 12},
			{Slug: "brush-teeth", Label: "Brush Teeth"},
			{Slug: "morning-meds", Label: "Morning Medication", MinAge: 50},
		},
	}

	t.Run("child keeps capped icons, drops elder ones", func(t *testing.T) {
		reqs := personalizeIcons(tmpl, audience.Context{Cohort: intake.CohortChild})
		slugs := requestSlugs(reqs)
		assert.Equal(t, []string{"bath-time", "brush-teeth"}, slugs)
	})

	t.Run("adult drops both bounded icons", func(t *testing.T) {
		reqs := personalizeIcons(tmpl, audience.Context{Cohort: intake.CohortAdult})
		assert.Equal(t, []string{"brush-teeth"}, requestSlugs(reqs))
	})

	t.Run("elder keeps medication icons", func(t *testing.T) {
		reqs := personalizeIcons(tmpl, audience.Context{Cohort: intake.CohortElder})
		assert.Equal(t, []string{"brush-teeth", "morning-meds"}, requestSlugs(reqs))
	})

	t.Run("unknown cohort filters as adult", func(t *testing.T) {
		reqs := personalizeIcons(tmpl, audience.Context{})
		assert.Equal(t, []string{"brush-teeth"}, requestSlugs(reqs))
	})
}

func TestPersonalizeIcons_CanEmptyResult(t *testing.T) {
	tmpl := catalog.Template{
		Icons: []catalog.IconDef{
			{Slug: "bath-time", Label: "Bath Time", MaxAge: 12},
			{Slug: "story-time", Label: "Story Time", MaxAge: 12},
		},
	}
	reqs := personalizeIcons(tmpl, audience.Context{Cohort: intake.CohortElder})
	assert.Empty(t, reqs)
}

func TestSubstitute_NameAndFamilyTokens(t *testing.T) {
	ctx := audience.Context{Name: "Leo", FamilyName: "Garcia"}

	assert.Equal(t, "Leo Brushes Teeth", substitute("Kid Brushes Teeth", ctx))
	assert.Equal(t, "Garcia Hamper Drop", substitute("Family Hamper Drop", ctx))
	assert.Equal(t, "Leo Time", substitute("{name} Time", ctx))
	assert.Equal(t, "Garcia Dinner", substitute("{family} Dinner", ctx))
}

func TestSubstitute_PlaceholderPrimarySkipsNameSubstitution(t *testing.T) {
	ctx := audience.Context{Name: "Primary", FamilyName: "Garcia"}
	assert.Equal(t, "Kid Brushes Teeth", substitute("Kid Brushes Teeth", ctx))
	assert.Equal(t, "Garcia Movie Night", substitute("Family Movie Night", ctx))
}

func TestPersonalizeIcon_SimplifyText(t *testing.T) {
	icon := catalog.IconDef{
		Slug:        "morning-basket",
		Label:       "Morning Basket Gathering Time",
		Description: "Gather on the couch for read-alouds. Then move on to quiet work at the table.",
	}
	req := personalizeIcon(icon, audience.Context{SimplifyText: true})

	assert.Equal(t, "Morning Basket", req.Label)
	assert.Equal(t, "Gather on the couch for read-alouds.", req.Description)
}

func TestPersonalizeIcon_NoteStacking(t *testing.T) {
	icon := catalog.IconDef{
		Slug:        "tidy-up",
		Label:       "Tidy Up",
		Description: "Put things back",
		Category:    "chores",
	}
	ctx := audience.Context{
		HighContrast:        true,
		EmphasizeCategories: true,
		NeedsRepetition:     true,
	}
	req := personalizeIcon(icon, ctx)

	assert.Equal(t, "[Chores] Put things back. High-contrast print. Same order, every time.", req.Description)
}

func TestPersonalizeIcon_ToneCoercion(t *testing.T) {
	t.Run("kid-friendly forces bright", func(t *testing.T) {
		req := personalizeIcon(
			catalog.IconDef{Slug: "x", Label: "X", Tone: "soft"},
			audience.Context{StyleLevel: audience.StyleKidFriendly},
		)
		assert.Equal(t, "bright", req.Tone)
	})

	t.Run("elder-accessible softens bright", func(t *testing.T) {
		req := personalizeIcon(
			catalog.IconDef{Slug: "x", Label: "X", Tone: "bright"},
			audience.Context{StyleLevel: audience.StyleElderAccessible},
		)
		assert.Equal(t, "soft", req.Tone)
	})

	t.Run("elder-accessible keeps non-bright tones", func(t *testing.T) {
		req := personalizeIcon(
			catalog.IconDef{Slug: "x", Label: "X", Tone: "neutral"},
			audience.Context{StyleLevel: audience.StyleElderAccessible},
		)
		assert.Equal(t, "neutral", req.Tone)
	})
}

func TestPersonalizeIcon_SizeAndStyleTag(t *testing.T) {
	req := personalizeIcon(
		catalog.IconDef{Slug: "x", Label: "X", Tags: []string{"core"}},
		audience.Context{StyleLevel: audience.StyleKidFriendly, IconSizeInches: 1.25},
	)
	require.InDelta(t, 1.25, req.SizeInches, 0.001)
	assert.Equal(t, []string{"core", "kid-friendly"}, req.Tags)
}

func requestSlugs(reqs []IconRequest) []string {
	var slugs []string
	for _, r := range reqs {
		slugs = append(slugs, r.Slug)
	}
	return slugs
}
