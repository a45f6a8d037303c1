package audience

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"routineforge/internal/intake"
)

func baseIntake() *intake.Intake {
	return &intake.Intake{
		OrderID: "ord-1",
		Tier:    intake.TierLite,
		Customer: intake.Customer{
			Email:     "maria@example.com",
			FirstName: "Maria",
			LastName:  "Garcia",
		},
		Cohort:      intake.CohortAdult,
		Fulfillment: intake.FulfillmentDigital,
		Preferences: map[string]string{},
	}
}

func TestProfiles_AlwaysAtLeastOne(t *testing.T) {
	p := NewProfiler(ProfilerConfig{})

	it := baseIntake()
	it.Customer.FirstName = ""
	profiles, ctx := p.Profiles(it)

	require.Len(t, profiles, 1)
	assert.Equal(t, "Primary", profiles[0].Name)
	assert.Equal(t, "Primary", ctx.Name)
}

func TestProfiles_NamePriorityAndDedup(t *testing.T) {
	p := NewProfiler(ProfilerConfig{})

	it := baseIntake()
	it.Preferences["child_name"] = "Leo"
	it.Preferences["household_members"] = "Maria, Leo, Nana"

	profiles, ctx := p.Profiles(it)
	var names []string
	for _, prof := range profiles {
		names = append(names, prof.Name)
	}
	assert.Equal(t, []string{"Maria", "Leo", "Nana"}, names)
	assert.Equal(t, "Maria", ctx.Name, "customer first name stays primary")
}

func TestResolveCohort_PersonaOverrides(t *testing.T) {
	p := NewProfiler(ProfilerConfig{})

	it := baseIntake()
	it.Preferences["persona_tags"] = "toddler"
	profiles, _ := p.Profiles(it)
	assert.Equal(t, intake.CohortChild, profiles[0].Cohort)
}

func TestResolveCohort_CustomOverrides(t *testing.T) {
	p := NewProfiler(ProfilerConfig{
		Overrides: PersonaOverrides{"caregiver": intake.CohortElder},
	})

	it := baseIntake()
	it.Preferences["persona_tags"] = "caregiver"
	profiles, _ := p.Profiles(it)
	assert.Equal(t, intake.CohortElder, profiles[0].Cohort)
}

func TestResolveCohort_ElderWinsOverChildKeywords(t *testing.T) {
	p := NewProfiler(ProfilerConfig{})

	it := baseIntake()
	it.Preferences["notes"] = "routines for the kids and grandma"
	profiles, _ := p.Profiles(it)
	assert.Equal(t, intake.CohortElder, profiles[0].Cohort)
}

func TestStyleDefaults(t *testing.T) {
	tests := []struct {
		cohort intake.Cohort
		style  StyleLevel
		size   float64
	}{
		{intake.CohortChild, StyleKidFriendly, iconSizeLarge},
		{intake.CohortElder, StyleElderAccessible, iconSizeLarge},
		{intake.CohortAdult, StyleStandard, iconSizeStandard},
		{intake.CohortTeen, StyleStandard, iconSizeStandard},
	}
	p := NewProfiler(ProfilerConfig{})
	for _, tt := range tests {
		t.Run(string(tt.cohort), func(t *testing.T) {
			it := baseIntake()
			it.Cohort = tt.cohort
			profiles, _ := p.Profiles(it)
			assert.Equal(t, tt.style, profiles[0].StyleLevel)
			assert.InDelta(t, tt.size, profiles[0].IconSizeInches, 0.001)
		})
	}
}

func TestExplicitStyleOutranksCohortDefault(t *testing.T) {
	p := NewProfiler(ProfilerConfig{})

	it := baseIntake()
	it.Cohort = intake.CohortChild
	it.Preferences["style_level"] = "neurodivergent-support"

	profiles, _ := p.Profiles(it)
	assert.Equal(t, StyleNeuroSupport, profiles[0].StyleLevel)
	assert.InDelta(t, iconSizeNeuro, profiles[0].IconSizeInches, 0.001)
}

func TestSensitivityTagsCoupleRepetitionAndEmphasis(t *testing.T) {
	p := NewProfiler(ProfilerConfig{})

	for _, tag := range []string{"adhd", "neurodivergent", "sensory-seeking"} {
		t.Run(tag, func(t *testing.T) {
			it := baseIntake()
			it.Preferences["persona_tags"] = tag
			profiles, ctx := p.Profiles(it)

			assert.True(t, profiles[0].NeedsRepetition)
			assert.True(t, profiles[0].EmphasizeCategories)
			assert.True(t, ctx.NeedsRepetition)
			assert.True(t, ctx.EmphasizeCategories)
		})
	}

	t.Run("no tag leaves both off", func(t *testing.T) {
		profiles, _ := p.Profiles(baseIntake())
		assert.False(t, profiles[0].NeedsRepetition)
		assert.False(t, profiles[0].EmphasizeCategories)
	})
}

func TestProfileVersionsFromPriorRecords(t *testing.T) {
	p := NewProfiler(ProfilerConfig{Versions: map[string]int{"maria": 3}})

	profiles, _ := p.Profiles(baseIntake())
	assert.Equal(t, 3, profiles[0].Version)
}

func TestFlatten_FormatMapping(t *testing.T) {
	tests := []struct {
		fulfillment intake.FulfillmentType
		want        string
	}{
		{intake.FulfillmentDigital, "printable"},
		{intake.FulfillmentPhysical, "magnet"},
		{intake.FulfillmentCricutReady, "cut-file"},
	}
	p := NewProfiler(ProfilerConfig{})
	for _, tt := range tests {
		t.Run(string(tt.fulfillment), func(t *testing.T) {
			it := baseIntake()
			it.Fulfillment = tt.fulfillment
			_, ctx := p.Profiles(it)
			assert.Equal(t, tt.want, ctx.PreferredFormat)
		})
	}
}

func TestFlatten_PreferredFormatOverride(t *testing.T) {
	p := NewProfiler(ProfilerConfig{})
	it := baseIntake()
	it.Preferences["preferred_format"] = "Magnet"
	_, ctx := p.Profiles(it)
	assert.Equal(t, "magnet", ctx.PreferredFormat)
}

func TestFlatten_FamilyNameFallsBackToLastName(t *testing.T) {
	p := NewProfiler(ProfilerConfig{})
	_, ctx := p.Profiles(baseIntake())
	assert.Equal(t, "Garcia", ctx.FamilyName)

	it := baseIntake()
	it.Preferences["family_name"] = "Nguyen"
	_, ctx = p.Profiles(it)
	assert.Equal(t, "Nguyen", ctx.FamilyName)
}

func TestTokenize(t *testing.T) {
	tokens := tokenize([]string{"Morning routine for the kids", "play & basket time"})
	assert.Equal(t, []string{"morning", "routine", "kids", "play", "basket", "time"}, tokens)
}
