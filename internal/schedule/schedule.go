// Package schedule materializes the tier-dependent schedule kit: a subset
// of daily/weekly/monthly views rendered into the order workspace.
package schedule

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"routineforge/internal/bundle"
	"routineforge/internal/intake"
	"routineforge/internal/workspace"
)

// View is one schedule rendition.
type View string

const (
	ViewDaily   View = "daily"
	ViewWeekly  View = "weekly"
	ViewMonthly View = "monthly"
)

// Kit is the produced schedule artifact set.
type Kit struct {
	Views     []View          `json:"views"`
	Artifacts []workspace.Ref `json:"artifacts"`
}

// ViewsForTier returns the schedule views a tier is entitled to.
func ViewsForTier(tier intake.Tier) []View {
	switch tier {
	case intake.TierMini:
		return []View{ViewDaily}
	case intake.TierFull:
		return []View{ViewDaily, ViewWeekly, ViewMonthly}
	default:
		return []View{ViewDaily, ViewWeekly}
	}
}

// Builder renders schedule kits into a workspace store.
type Builder struct {
	store  workspace.Store
	logger *zap.Logger
}

// NewBuilder creates a Builder.
func NewBuilder(store workspace.Store, logger *zap.Logger) *Builder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Builder{store: store, logger: logger}
}

// Build renders one artifact per entitled view under the order folder.
func (b *Builder) Build(ctx context.Context, folderID string, it *intake.Intake, plan bundle.Plan) (Kit, error) {
	views := ViewsForTier(it.Tier)
	kit := Kit{Views: views}

	for _, view := range views {
		body := renderView(view, it, plan)
		name := fmt.Sprintf("%s-schedule.md", view)
		ref, err := b.store.CreateFile(ctx, folderID, name, "text/markdown", []byte(body))
		if err != nil {
			return Kit{}, fmt.Errorf("failed to materialize %s schedule: %w", view, err)
		}
		kit.Artifacts = append(kit.Artifacts, ref)
	}

	b.logger.Info("schedule kit built",
		zap.String("order_id", it.OrderID),
		zap.Int("views", len(views)))
	return kit, nil
}

func renderView(view View, it *intake.Intake, plan bundle.Plan) string {
	var sb strings.Builder
	title := strings.ToUpper(string(view)[:1]) + string(view)[1:]
	fmt.Fprintf(&sb, "# %s Schedule - %s\n\n", title, plan.Bundle.Name)
	fmt.Fprintf(&sb, "Tier: %s | Format: %s\n\n", it.Tier, plan.Format)

	switch view {
	case ViewWeekly:
		sb.WriteString("| Step | Mon | Tue | Wed | Thu | Fri | Sat | Sun |\n")
		sb.WriteString("|---|---|---|---|---|---|---|---|\n")
		for _, req := range plan.Requests {
			fmt.Fprintf(&sb, "| %s | | | | | | | |\n", req.Label)
		}
	case ViewMonthly:
		sb.WriteString("Rotate the weekly rhythm; check off each completed week.\n\n")
		for i, req := range plan.Requests {
			fmt.Fprintf(&sb, "%d. %s - %s\n", i+1, req.Label, req.Description)
		}
	default:
		for _, req := range plan.Requests {
			fmt.Fprintf(&sb, "- [ ] %s - %s\n", req.Label, req.Description)
		}
	}
	return sb.String()
}
