// Package orchestrator sequences one order through the whole pipeline:
// workspace setup, narrative, bundle and icon materialization, schedule
// kit, delivery, record persistence. Retry is whole-pipeline only, two
// attempts total, relying on idempotent find-or-create semantics at the
// collaborator boundaries instead of per-step retry.
package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"routineforge/internal/audience"
	"routineforge/internal/bundle"
	"routineforge/internal/delivery"
	"routineforge/internal/intake"
	"routineforge/internal/narrative"
	"routineforge/internal/records"
	"routineforge/internal/schedule"
	"routineforge/internal/workspace"
)

// maxAttempts bounds the whole-pipeline retry loop.
const maxAttempts = 2

// State is the orchestrator's position in the two-attempt machine.
type State string

const (
	StateFirstAttempt State = "first_attempt"
	StateRetryAttempt State = "retry_attempt"
	StateSuccess      State = "success"
	StateFailure      State = "failure"
)

// Result statuses surfaced to the caller. End customers never see these;
// they see delivered artifacts or a follow-up request.
const (
	StatusTriggered = "triggered"
	StatusSkipped   = "skipped"
	StatusFailed    = "failed"
)

// Result is the structured outcome relayed to the ingress layer.
type Result struct {
	Status   string          `json:"status"`
	Reason   string          `json:"reason,omitempty"`
	Attempts int             `json:"attempts"`
	Record   *records.Record `json:"record,omitempty"`
}

// IntakeSource yields the order intake and can re-derive it on retry.
// Returning (nil, nil) means the event is not a fulfillment trigger.
type IntakeSource interface {
	Normalize(ctx context.Context) (*intake.Intake, error)
}

// NarrativeGenerator produces the blueprint narrative.
type NarrativeGenerator interface {
	Generate(ctx context.Context, prompt string) (string, []narrative.Attempt, error)
}

// PlanResolver resolves the personalized bundle plan.
type PlanResolver interface {
	Resolve(ctx context.Context, it *intake.Intake, actx audience.Context) bundle.Plan
}

// KitBuilder materializes the schedule kit.
type KitBuilder interface {
	Build(ctx context.Context, folderID string, it *intake.Intake, plan bundle.Plan) (schedule.Kit, error)
}

// Deliverer dispatches artifact links to the customer.
type Deliverer interface {
	Dispatch(ctx context.Context, contact delivery.Contact, links []string) []delivery.Receipt
}

// RecordSink persists records, outcomes, and activity rows.
type RecordSink interface {
	SaveRecord(rec *records.Record) error
	SaveOutcome(o records.Outcome) error
	AppendActivity(orderID, event, detail string)
}

// OperatorNotifier alerts operators after a run is abandoned. Best-effort.
type OperatorNotifier interface {
	NotifyOperators(ctx context.Context, message string) error
}

// Config holds construction parameters for an Orchestrator.
type Config struct {
	Profiler  *audience.Profiler
	Narrative NarrativeGenerator
	Resolver  PlanResolver
	Workspace workspace.Store
	Schedule  KitBuilder
	Delivery  Deliverer
	Records   RecordSink
	Operators OperatorNotifier // optional
	Logger    *zap.Logger
	Clock     func() time.Time
}

// Orchestrator runs the fulfillment pipeline.
type Orchestrator struct {
	profiler  *audience.Profiler
	narrative NarrativeGenerator
	resolver  PlanResolver
	store     workspace.Store
	schedule  KitBuilder
	delivery  Deliverer
	records   RecordSink
	operators OperatorNotifier
	logger    *zap.Logger
	clock     func() time.Time
}

// New creates an Orchestrator.
func New(cfg Config) *Orchestrator {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	profiler := cfg.Profiler
	if profiler == nil {
		profiler = audience.NewProfiler(audience.ProfilerConfig{})
	}
	return &Orchestrator{
		profiler:  profiler,
		narrative: cfg.Narrative,
		resolver:  cfg.Resolver,
		store:     cfg.Workspace,
		schedule:  cfg.Schedule,
		delivery:  cfg.Delivery,
		records:   cfg.Records,
		operators: cfg.Operators,
		logger:    logger,
		clock:     clock,
	}
}

// Fulfill runs one event through the pipeline. Normalization errors from
// the source propagate; everything after enters the two-attempt loop. On
// exhaustion a failure summary is persisted, operators are notified, and
// the last error is re-raised alongside the failed result.
func (o *Orchestrator) Fulfill(ctx context.Context, src IntakeSource) (Result, error) {
	it, err := src.Normalize(ctx)
	if err != nil {
		return Result{Status: StatusFailed, Reason: "intake normalization failed"}, err
	}
	if it == nil {
		return Result{Status: StatusSkipped, Reason: "event is not a fulfillment trigger"}, nil
	}
	if it.Fulfillment == "" {
		it.Fulfillment = intake.FulfillmentDigital
	}

	state := StateFirstAttempt
	attemptsRun := 0
	var lastErr error

	for attemptsRun < maxAttempts {
		attemptsRun++
		o.logger.Info("fulfillment attempt starting",
			zap.String("order_id", it.OrderID),
			zap.String("state", string(state)))

		rec, err := o.attempt(ctx, it)
		if err == nil {
			o.finishSuccess(rec)
			return Result{Status: StatusTriggered, Attempts: attemptsRun, Record: rec}, nil
		}

		lastErr = err
		o.logger.Warn("fulfillment attempt failed",
			zap.String("order_id", it.OrderID),
			zap.String("state", string(state)),
			zap.Error(err))

		if state == StateFirstAttempt {
			state = StateRetryAttempt
			it = o.renormalize(ctx, src, it)
			continue
		}
		break
	}

	o.finishFailure(ctx, it, lastErr)
	return Result{Status: StatusFailed, Reason: lastErr.Error(), Attempts: attemptsRun}, lastErr
}

// renormalize re-derives the intake before the retry in case the first
// read was stale or incomplete. The original order identity is kept so
// both attempts stay correlated.
func (o *Orchestrator) renormalize(ctx context.Context, src IntakeSource, prev *intake.Intake) *intake.Intake {
	fresh, err := src.Normalize(ctx)
	if err != nil || fresh == nil {
		o.logger.Warn("re-normalization failed, retrying with previous intake", zap.Error(err))
		return prev
	}
	fresh.OrderID = prev.OrderID
	if fresh.Fulfillment == "" {
		fresh.Fulfillment = intake.FulfillmentDigital
	}
	return fresh
}

// attempt runs the pipeline once, in order: workspace, narrative, bundle
// and icons, schedule kit, delivery. Narrative always completes before
// materialization begins so failures attribute cleanly.
func (o *Orchestrator) attempt(ctx context.Context, it *intake.Intake) (*records.Record, error) {
	folder, err := o.store.EnsureFolder(ctx, "", workspace.Identity(it.Customer.Email, o.clock()))
	if err != nil {
		return nil, fmt.Errorf("workspace setup failed: %w", err)
	}

	_, actx := o.profiler.Profiles(it)

	text, attempts, err := o.narrative.Generate(ctx, narrativePrompt(it, actx))
	o.records.AppendActivity(it.OrderID, "narrative", fmt.Sprintf("attempts=%d", len(attempts)))
	if err != nil {
		return nil, fmt.Errorf("narrative generation failed: %w", err)
	}

	docRef, err := o.store.CreateDocument(ctx, folder.ID, "Routine Blueprint", text)
	if err != nil {
		return nil, fmt.Errorf("blueprint document failed: %w", err)
	}

	plan := o.resolver.Resolve(ctx, it, actx)
	iconRefs, err := o.materializeIcons(ctx, folder.ID, plan)
	if err != nil {
		return nil, fmt.Errorf("icon materialization failed: %w", err)
	}

	kit, err := o.schedule.Build(ctx, folder.ID, it, plan)
	if err != nil {
		return nil, fmt.Errorf("schedule kit failed: %w", err)
	}

	links := collectLinks(docRef, iconRefs, kit)
	receipts := o.delivery.Dispatch(ctx, delivery.Contact{
		Handle: it.Customer.Handle,
		Email:  it.Customer.Email,
		Name:   it.Customer.FirstName,
	}, links)

	return &records.Record{
		OrderID:   it.OrderID,
		Intake:    it,
		Narrative: text,
		Plan:      plan,
		Kit:       kit,
		Receipts:  receipts,
		Links:     links,
		CreatedAt: o.clock(),
	}, nil
}

// materializeIcons writes one asset per icon request under the order's
// icons folder.
func (o *Orchestrator) materializeIcons(ctx context.Context, folderID string, plan bundle.Plan) ([]workspace.Ref, error) {
	iconsFolder, err := o.store.EnsureFolder(ctx, folderID, "icons")
	if err != nil {
		return nil, err
	}

	refs := make([]workspace.Ref, 0, len(plan.Requests))
	for _, req := range plan.Requests {
		data, err := json.MarshalIndent(req, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to encode icon %s: %w", req.Slug, err)
		}
		ref, err := o.store.CreateFile(ctx, iconsFolder.ID, req.Slug+".json", "application/json", data)
		if err != nil {
			return nil, fmt.Errorf("failed to write icon %s: %w", req.Slug, err)
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

// finishSuccess persists the record and the success summary. Both are
// bookkeeping: failures downgrade to warnings, never unwind a finished
// pipeline.
func (o *Orchestrator) finishSuccess(rec *records.Record) {
	if err := o.records.SaveRecord(rec); err != nil {
		o.logger.Warn("record persistence failed", zap.Error(err))
	}
	if err := o.records.SaveOutcome(records.Outcome{
		OrderID: rec.OrderID,
		Status:  "success",
		Links:   rec.Links,
	}); err != nil {
		o.logger.Warn("outcome persistence failed", zap.Error(err))
	}
	o.logger.Info("fulfillment succeeded",
		zap.String("order_id", rec.OrderID),
		zap.Int("links", len(rec.Links)))
}

// finishFailure persists the failure summary and alerts operators, both
// best-effort.
func (o *Orchestrator) finishFailure(ctx context.Context, it *intake.Intake, cause error) {
	if err := o.records.SaveOutcome(records.Outcome{
		OrderID: it.OrderID,
		Status:  "error",
		Detail:  cause.Error(),
	}); err != nil {
		o.logger.Warn("failure summary persistence failed", zap.Error(err))
	}
	if o.operators != nil {
		msg := fmt.Sprintf("fulfillment abandoned for order %s: %v", it.OrderID, cause)
		if err := o.operators.NotifyOperators(ctx, msg); err != nil {
			o.logger.Warn("operator notification failed", zap.Error(err))
		}
	}
	o.logger.Error("fulfillment abandoned",
		zap.String("order_id", it.OrderID),
		zap.Error(cause))
}

func collectLinks(doc workspace.Ref, icons []workspace.Ref, kit schedule.Kit) []string {
	links := []string{doc.URL}
	for _, r := range icons {
		links = append(links, r.URL)
	}
	for _, r := range kit.Artifacts {
		links = append(links, r.URL)
	}
	return links
}

func narrativePrompt(it *intake.Intake, actx audience.Context) string {
	depth := "a concise"
	switch it.Tier {
	case intake.TierFull:
		depth = "a detailed, multi-section"
	case intake.TierMini:
		depth = "a brief"
	}
	return fmt.Sprintf(
		"Write %s routine blueprint for %s (cohort: %s, style: %s). Focus areas: %v. Fulfillment: %s.",
		depth, displayName(actx), actx.Cohort, actx.StyleLevel, actx.Keywords, it.Fulfillment)
}

func displayName(actx audience.Context) string {
	if actx.Name != "" && actx.Name != "Primary" {
		return actx.Name
	}
	return "the household"
}
