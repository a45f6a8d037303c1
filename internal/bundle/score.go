package bundle

import (
	"math"
	"strings"

	"routineforge/internal/audience"
	"routineforge/internal/catalog"
)

// matchInfo carries the additive score plus the facts the meaningfulness
// gate needs.
type matchInfo struct {
	score        int
	tagHits      int
	keywordHits  int
	styleMatched bool
	formatMatched bool
	sizeAligned  bool
}

// scoreTemplate applies the additive scoring table for one candidate.
func scoreTemplate(t catalog.Template, ctx audience.Context) matchInfo {
	var m matchInfo

	if ctx.PreferredCategory != "" && strings.EqualFold(t.Category, ctx.PreferredCategory) {
		m.score += 6
	}

	if ctx.PreferredFormat != "" && len(t.Formats) > 0 && t.SupportsFormat(ctx.PreferredFormat) {
		m.score++
		m.formatMatched = true
	}

	for _, tag := range t.PersonaTags {
		if containsFold(ctx.PersonaTags, tag) {
			m.score += 2
			m.tagHits++
		}
	}

	for _, kw := range t.Keywords {
		if containsFold(ctx.Keywords, kw) {
			m.score++
			m.keywordHits++
		}
	}

	if t.StyleLevel != "" {
		if t.StyleLevel == ctx.StyleLevel {
			m.score += 2
			m.styleMatched = true
		} else {
			m.score--
		}
	}

	if t.IconSizeInches > 0 && ctx.IconSizeInches > 0 {
		diff := math.Abs(t.IconSizeInches - ctx.IconSizeInches)
		switch {
		case diff < 0.05:
			m.score += 2
			m.sizeAligned = true
		case diff < 0.15:
			m.score++
			m.sizeAligned = true
		case diff > 0.3:
			m.score--
		}
	}

	if ctx.NeedsRepetition && t.StyleLevel == audience.StyleNeuroSupport {
		m.score++
	}

	return m
}

// meaningfulMatch applies the meaningfulness gate. A style/format/size-only
// match is rejected only when the context style is standard; non-standard
// contexts are exempt from that rejection. The asymmetry is deliberate and
// preserved as-is.
func meaningfulMatch(m matchInfo, ctx audience.Context) bool {
	if m.tagHits > 0 || m.keywordHits > 0 {
		return true
	}
	return m.styleMatched && m.formatMatched && m.sizeAligned && ctx.StyleLevel != audience.StyleStandard
}

func containsFold(haystack []string, needle string) bool {
	for _, h := range haystack {
		if strings.EqualFold(h, needle) {
			return true
		}
	}
	return false
}
