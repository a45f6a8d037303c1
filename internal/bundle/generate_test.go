package bundle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"routineforge/internal/audience"
)

func TestParseGeneratedTemplate_PlainJSON(t *testing.T) {
	resp := `{"name":"Garden Morning","category":"garden","icons":[{"slug":"water-plants","label":"Water Plants","description":"Water everything in the greenhouse."}]}`

	tmpl, err := parseGeneratedTemplate(resp, GenRequest{})
	require.NoError(t, err)
	assert.Equal(t, "Garden Morning", tmpl.Name)
	assert.Len(t, tmpl.Icons, 1)
	assert.True(t, len(tmpl.ID) > 4 && tmpl.ID[:4] == "gen-")
}

func TestParseGeneratedTemplate_FencedJSON(t *testing.T) {
	resp := "```json\n{\"name\":\"Garden Morning\",\"icons\":[{\"label\":\"Water Plants\"}]}\n```"

	tmpl, err := parseGeneratedTemplate(resp, GenRequest{})
	require.NoError(t, err)
	assert.Equal(t, "Garden Morning", tmpl.Name)
}

func TestParseGeneratedTemplate_BackfillsFromRequest(t *testing.T) {
	resp := `{"name":"Garden Morning","icons":[{"label":"Water the Plants!"}]}`
	req := GenRequest{
		Category:   "garden",
		StyleLevel: "kid-friendly",
		Format:     "printable",
	}

	tmpl, err := parseGeneratedTemplate(resp, req)
	require.NoError(t, err)
	assert.Equal(t, "garden", tmpl.Category)
	assert.Equal(t, audience.StyleKidFriendly, tmpl.StyleLevel)
	assert.Equal(t, []string{"printable"}, tmpl.Formats)
	assert.Equal(t, "water-the-plants", tmpl.Icons[0].Slug)
}

func TestParseGeneratedTemplate_Rejections(t *testing.T) {
	tests := []struct {
		name string
		resp string
	}{
		{"prose", "Sure! Here is a bundle for you."},
		{"empty name", `{"icons":[{"label":"X"}]}`},
		{"no icons", `{"name":"Empty"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseGeneratedTemplate(tt.resp, GenRequest{})
			assert.Error(t, err)
		})
	}
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "water-the-plants", slugify("Water the Plants!"))
	assert.Equal(t, "brush-teeth-2x", slugify("  Brush Teeth (2x)  "))
	assert.Equal(t, "", slugify("!!!"))
}
