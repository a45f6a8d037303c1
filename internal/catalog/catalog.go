// Package catalog holds the bundle-template catalog: a static set parsed
// from YAML plus a runtime set persisted to SQLite as the generator
// synthesizes new bundles. The store is explicitly constructed and passed
// down so tests can inject isolated instances.
package catalog

import (
	"strings"

	"routineforge/internal/audience"
)

// IconDef is one icon definition inside a template.
type IconDef struct {
	Slug        string   `yaml:"slug" json:"slug"`
	Label       string   `yaml:"label" json:"label"`
	Description string   `yaml:"description" json:"description"`
	Category    string   `yaml:"category" json:"category"`
	Tags        []string `yaml:"tags,omitempty" json:"tags,omitempty"`
	Tone        string   `yaml:"tone,omitempty" json:"tone,omitempty"`
	// MinAge/MaxAge bound the audience; zero means unbounded.
	MinAge int `yaml:"min_age,omitempty" json:"min_age,omitempty"`
	MaxAge int `yaml:"max_age,omitempty" json:"max_age,omitempty"`
}

// Template is a named, categorized collection of icon definitions available
// for matching.
type Template struct {
	ID             string              `yaml:"id" json:"id"`
	Name           string              `yaml:"name" json:"name"`
	Category       string              `yaml:"category" json:"category"`
	PersonaTags    []string            `yaml:"persona_tags,omitempty" json:"persona_tags,omitempty"`
	Keywords       []string            `yaml:"keywords,omitempty" json:"keywords,omitempty"`
	StyleLevel     audience.StyleLevel `yaml:"style_level,omitempty" json:"style_level,omitempty"`
	IconSizeInches float64             `yaml:"icon_size_inches,omitempty" json:"icon_size_inches,omitempty"`
	Formats        []string            `yaml:"formats,omitempty" json:"formats,omitempty"`
	Icons          []IconDef           `yaml:"icons" json:"icons"`
}

// SupportsFormat reports whether the template declares the given output
// format. Templates with no declared formats support everything.
func (t Template) SupportsFormat(format string) bool {
	if len(t.Formats) == 0 {
		return true
	}
	for _, f := range t.Formats {
		if strings.EqualFold(f, format) {
			return true
		}
	}
	return false
}

// key returns the identity used for de-duplication: id when present,
// else lowercased name.
func (t Template) key() string {
	if t.ID != "" {
		return "id:" + t.ID
	}
	return "name:" + strings.ToLower(t.Name)
}

func trimLower(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
