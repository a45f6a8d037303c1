// Package audience derives per-person personalization profiles from a
// normalized Order Intake. The first profile is the primary audience and its
// settings flatten onto the shared personalization context used by the
// bundle resolver.
package audience

import (
	"routineforge/internal/intake"
)

// StyleLevel controls simplification, contrast and sizing defaults.
type StyleLevel string

const (
	StyleStandard        StyleLevel = "standard"
	StyleKidFriendly     StyleLevel = "kid-friendly"
	StyleElderAccessible StyleLevel = "elder-accessible"
	StyleNeuroSupport    StyleLevel = "neurodivergent-support"
)

// Icon size defaults per style level, in inches.
const (
	iconSizeStandard = 0.95
	iconSizeLarge    = 1.25
	iconSizeNeuro    = 1.1
)

// Profile holds personalization settings for one person.
type Profile struct {
	Name                string        `json:"name"`
	Cohort              intake.Cohort `json:"cohort"`
	StyleLevel          StyleLevel    `json:"style_level"`
	IconSizeInches      float64       `json:"icon_size_inches"`
	SimplifyText        bool          `json:"simplify_text"`
	HighContrast        bool          `json:"high_contrast"`
	NeedsRepetition     bool          `json:"needs_repetition"`
	EmphasizeCategories bool          `json:"emphasize_categories"`
	Version             int           `json:"version"`
}

// Context is the primary profile flattened together with order-level
// matching hints. Everything downstream of the profiler reads this.
type Context struct {
	Name                string
	FamilyName          string
	Cohort              intake.Cohort
	StyleLevel          StyleLevel
	IconSizeInches      float64
	SimplifyText        bool
	HighContrast        bool
	NeedsRepetition     bool
	EmphasizeCategories bool

	PreferredCategory string
	PreferredFormat   string
	Keywords          []string
	PersonaTags       []string
}
