package bundle

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"routineforge/internal/audience"
	"routineforge/internal/catalog"
)

func TestScoreTemplate_Additive(t *testing.T) {
	tmpl := catalog.Template{
		Category:       "family-routine",
		PersonaTags:    []string{"family", "homeschool"},
		Keywords:       []string{"morning", "play", "basket"},
		StyleLevel:     audience.StyleStandard,
		IconSizeInches: 0.95,
		Formats:        []string{"printable"},
	}
	ctx := audience.Context{
		PreferredCategory: "family-routine",
		PreferredFormat:   "printable",
		PersonaTags:       []string{"family"},
		Keywords:          []string{"morning", "play"},
		StyleLevel:        audience.StyleStandard,
		IconSizeInches:    0.95,
	}

	m := scoreTemplate(tmpl, ctx)
	// category 6 + format 1 + one tag 2 + two keywords 2 + style 2 + size 2
	assert.Equal(t, 15, m.score)
	assert.Equal(t, 1, m.tagHits)
	assert.Equal(t, 2, m.keywordHits)
	assert.True(t, m.styleMatched)
	assert.True(t, m.formatMatched)
	assert.True(t, m.sizeAligned)
}

func TestScoreTemplate_Penalties(t *testing.T) {
	tmpl := catalog.Template{
		StyleLevel:     audience.StyleKidFriendly,
		IconSizeInches: 1.25,
	}
	ctx := audience.Context{
		StyleLevel:     audience.StyleStandard,
		IconSizeInches: 0.8,
	}

	m := scoreTemplate(tmpl, ctx)
	// style mismatch -1, size diff 0.45 -1
	assert.Equal(t, -2, m.score)
	assert.False(t, m.styleMatched)
	assert.False(t, m.sizeAligned)
}

func TestScoreTemplate_FormatPointNeedsDeclaredFormats(t *testing.T) {
	ctx := audience.Context{PreferredFormat: "printable"}

	// No declared formats: supports everything but earns no point.
	m := scoreTemplate(catalog.Template{}, ctx)
	assert.Equal(t, 0, m.score)
	assert.False(t, m.formatMatched)

	m = scoreTemplate(catalog.Template{Formats: []string{"printable"}}, ctx)
	assert.Equal(t, 1, m.score)
	assert.True(t, m.formatMatched)
}

func TestScoreTemplate_SizeBands(t *testing.T) {
	tests := []struct {
		name    string
		size    float64
		score   int
		aligned bool
	}{
		{"exact", 1.0, 2, true},
		{"near", 1.1, 1, true},
		{"neutral", 1.25, 0, false},
		{"far", 1.4, -1, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := scoreTemplate(
				catalog.Template{IconSizeInches: tt.size},
				audience.Context{IconSizeInches: 1.0},
			)
			assert.Equal(t, tt.score, m.score)
			assert.Equal(t, tt.aligned, m.sizeAligned)
		})
	}
}

func TestScoreTemplate_RepetitionBonus(t *testing.T) {
	tmpl := catalog.Template{StyleLevel: audience.StyleNeuroSupport}
	ctx := audience.Context{
		StyleLevel:      audience.StyleNeuroSupport,
		NeedsRepetition: true,
	}
	m := scoreTemplate(tmpl, ctx)
	// style 2 + repetition 1
	assert.Equal(t, 3, m.score)
}

func TestMeaningfulMatch_GateAsymmetry(t *testing.T) {
	styleOnly := matchInfo{styleMatched: true, formatMatched: true, sizeAligned: true}

	t.Run("tag or keyword hit always passes", func(t *testing.T) {
		assert.True(t, meaningfulMatch(matchInfo{tagHits: 1}, audience.Context{StyleLevel: audience.StyleStandard}))
		assert.True(t, meaningfulMatch(matchInfo{keywordHits: 1}, audience.Context{StyleLevel: audience.StyleStandard}))
	})

	t.Run("style-only match rejected for standard context", func(t *testing.T) {
		assert.False(t, meaningfulMatch(styleOnly, audience.Context{StyleLevel: audience.StyleStandard}))
	})

	t.Run("style-only match accepted for non-standard context", func(t *testing.T) {
		assert.True(t, meaningfulMatch(styleOnly, audience.Context{StyleLevel: audience.StyleKidFriendly}))
		assert.True(t, meaningfulMatch(styleOnly, audience.Context{StyleLevel: audience.StyleElderAccessible}))
	})

	t.Run("partial ambient alignment never passes", func(t *testing.T) {
		assert.False(t, meaningfulMatch(
			matchInfo{styleMatched: true, formatMatched: true},
			audience.Context{StyleLevel: audience.StyleKidFriendly},
		))
	})
}
