package bundle

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"routineforge/internal/audience"
	"routineforge/internal/catalog"
	"routineforge/internal/intake"
	"routineforge/internal/llm"
)

// GenRequest is the compact summary handed to the structured-bundle
// generator.
type GenRequest struct {
	Cohort      intake.Cohort `json:"cohort"`
	StyleLevel  string        `json:"style_level"`
	Format      string        `json:"format"`
	PersonaTags []string      `json:"persona_tags,omitempty"`
	Keywords    []string      `json:"keywords,omitempty"`
	Category    string        `json:"category,omitempty"`
}

// Generator synthesizes a bundle template for contexts the stored catalog
// cannot serve. Implementations are best-effort; any failure is treated as
// "generator unavailable".
type Generator interface {
	Generate(ctx context.Context, req GenRequest) (catalog.Template, error)
}

const generatorSystemPrompt = `You design icon bundles for personalized visual routine charts.
Respond with ONLY a JSON object, no prose, matching:
{
  "name": "short bundle name",
  "category": "one-word category",
  "persona_tags": ["tag"],
  "keywords": ["keyword"],
  "icons": [
    {"slug": "kebab-slug", "label": "2-4 word label", "description": "one sentence", "category": "one word"}
  ]
}
Produce 4 to 8 icons appropriate for the audience described.`

// LLMGenerator implements Generator on top of a completion client.
type LLMGenerator struct {
	client llm.Client
}

// NewLLMGenerator creates an LLM-backed bundle generator.
func NewLLMGenerator(client llm.Client) *LLMGenerator {
	return &LLMGenerator{client: client}
}

// Generate asks the model for a structured bundle and parses the reply.
func (g *LLMGenerator) Generate(ctx context.Context, req GenRequest) (catalog.Template, error) {
	if g.client == nil {
		return catalog.Template{}, fmt.Errorf("no generation client configured")
	}

	summary, err := json.Marshal(req)
	if err != nil {
		return catalog.Template{}, fmt.Errorf("failed to encode summary: %w", err)
	}

	resp, err := g.client.CompleteWithSystem(ctx, generatorSystemPrompt,
		fmt.Sprintf("Design a bundle for this audience:\n%s", summary))
	if err != nil {
		return catalog.Template{}, fmt.Errorf("generation call failed: %w", err)
	}

	return parseGeneratedTemplate(resp, req)
}

// parseGeneratedTemplate strips markdown fences and decodes the reply into
// a catalog template, rejecting empty or malformed results.
func parseGeneratedTemplate(resp string, req GenRequest) (catalog.Template, error) {
	resp = strings.TrimSpace(resp)
	resp = strings.TrimPrefix(resp, "```json")
	resp = strings.TrimPrefix(resp, "```")
	resp = strings.TrimSuffix(resp, "```")
	resp = strings.TrimSpace(resp)

	var t catalog.Template
	if err := json.Unmarshal([]byte(resp), &t); err != nil {
		return catalog.Template{}, fmt.Errorf("failed to parse generated bundle: %w", err)
	}
	if t.Name == "" || len(t.Icons) == 0 {
		return catalog.Template{}, fmt.Errorf("generated bundle is empty")
	}

	if t.ID == "" {
		t.ID = "gen-" + uuid.NewString()
	}
	if t.Category == "" {
		t.Category = req.Category
	}
	if t.StyleLevel == "" {
		t.StyleLevel = audience.StyleLevel(req.StyleLevel)
	}
	if len(t.Formats) == 0 && req.Format != "" {
		t.Formats = []string{req.Format}
	}
	for i := range t.Icons {
		if t.Icons[i].Slug == "" {
			t.Icons[i].Slug = slugify(t.Icons[i].Label)
		}
	}
	return t, nil
}

func slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	lastDash := true
	for _, r := range s {
		switch {
		case 'a' <= r && r <= 'z' || '0' <= r && r <= '9':
			b.WriteRune(r)
			lastDash = false
		case !lastDash:
			b.WriteByte('-')
			lastDash = true
		}
	}
	return strings.Trim(b.String(), "-")
}
