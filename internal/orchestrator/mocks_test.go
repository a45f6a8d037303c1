package orchestrator

import (
	"context"
	"fmt"

	"routineforge/internal/audience"
	"routineforge/internal/bundle"
	"routineforge/internal/catalog"
	"routineforge/internal/delivery"
	"routineforge/internal/intake"
	"routineforge/internal/narrative"
	"routineforge/internal/records"
	"routineforge/internal/schedule"
	"routineforge/internal/workspace"
)

// --- MockSource ---

// MockSource implements IntakeSource with scripted per-call intakes.
type MockSource struct {
	calls   int
	Intakes []*intake.Intake
	Errs    []error
}

func (m *MockSource) Normalize(ctx context.Context) (*intake.Intake, error) {
	i := m.calls
	m.calls++
	var it *intake.Intake
	var err error
	if i < len(m.Intakes) {
		it = m.Intakes[i]
	} else if len(m.Intakes) > 0 {
		it = m.Intakes[len(m.Intakes)-1]
	}
	if i < len(m.Errs) {
		err = m.Errs[i]
	}
	return it, err
}

// --- MockNarrative ---

type MockNarrative struct {
	calls int
	Text  string
	Errs  []error
}

func (m *MockNarrative) Generate(ctx context.Context, prompt string) (string, []narrative.Attempt, error) {
	i := m.calls
	m.calls++
	attempts := []narrative.Attempt{{Provider: "mock", OK: true}}
	if i < len(m.Errs) && m.Errs[i] != nil {
		return "", []narrative.Attempt{{Provider: "mock", Error: m.Errs[i].Error()}}, m.Errs[i]
	}
	return m.Text, attempts, nil
}

// --- MockResolver ---

type MockResolver struct {
	calls int
	Plan  bundle.Plan
}

func (m *MockResolver) Resolve(ctx context.Context, it *intake.Intake, actx audience.Context) bundle.Plan {
	m.calls++
	return m.Plan
}

// --- MockWorkspace ---

// MockWorkspace implements workspace.Store, tracking created objects.
type MockWorkspace struct {
	Folders   []string
	Files     []string
	FolderErr error
	FileErr   error
	DocErr    error
}

func (m *MockWorkspace) EnsureFolder(ctx context.Context, parentID, name string) (workspace.Ref, error) {
	if m.FolderErr != nil {
		return workspace.Ref{}, m.FolderErr
	}
	id := name
	if parentID != "" {
		id = parentID + "/" + name
	}
	m.Folders = append(m.Folders, id)
	return workspace.Ref{ID: id, URL: "mock://" + id}, nil
}

func (m *MockWorkspace) CreateDocument(ctx context.Context, parentID, title, body string) (workspace.Ref, error) {
	if m.DocErr != nil {
		return workspace.Ref{}, m.DocErr
	}
	id := parentID + "/" + title
	m.Files = append(m.Files, id)
	return workspace.Ref{ID: id, URL: "mock://" + id}, nil
}

func (m *MockWorkspace) ExportDocument(ctx context.Context, id, format string) ([]byte, error) {
	return nil, fmt.Errorf("not supported")
}

func (m *MockWorkspace) CreateFile(ctx context.Context, parentID, name, mime string, data []byte) (workspace.Ref, error) {
	if m.FileErr != nil {
		return workspace.Ref{}, m.FileErr
	}
	id := parentID + "/" + name
	m.Files = append(m.Files, id)
	return workspace.Ref{ID: id, URL: "mock://" + id}, nil
}

func (m *MockWorkspace) CopyFile(ctx context.Context, id, newName, parentID string) (workspace.Ref, error) {
	return m.CreateFile(ctx, parentID, newName, "", nil)
}

func (m *MockWorkspace) List(ctx context.Context, parentID, query string) ([]workspace.Ref, error) {
	return nil, nil
}

// --- MockSchedule ---

type MockSchedule struct {
	calls int
	Kit   schedule.Kit
	Err   error
}

func (m *MockSchedule) Build(ctx context.Context, folderID string, it *intake.Intake, plan bundle.Plan) (schedule.Kit, error) {
	m.calls++
	if m.Err != nil {
		return schedule.Kit{}, m.Err
	}
	return m.Kit, nil
}

// --- MockDelivery ---

type MockDelivery struct {
	calls    int
	contact  delivery.Contact
	links    []string
	Receipts []delivery.Receipt
}

func (m *MockDelivery) Dispatch(ctx context.Context, contact delivery.Contact, links []string) []delivery.Receipt {
	m.calls++
	m.contact = contact
	m.links = links
	return m.Receipts
}

// --- MockRecords ---

type MockRecords struct {
	Saved      []*records.Record
	Outcomes   []records.Outcome
	Activity   []string
	SaveErr    error
	OutcomeErr error
}

func (m *MockRecords) SaveRecord(rec *records.Record) error {
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.Saved = append(m.Saved, rec)
	return nil
}

func (m *MockRecords) SaveOutcome(o records.Outcome) error {
	if m.OutcomeErr != nil {
		return m.OutcomeErr
	}
	m.Outcomes = append(m.Outcomes, o)
	return nil
}

func (m *MockRecords) AppendActivity(orderID, event, detail string) {
	m.Activity = append(m.Activity, event)
}

// --- MockOperators ---

type MockOperators struct {
	calls    int
	messages []string
	Err      error
}

func (m *MockOperators) NotifyOperators(ctx context.Context, message string) error {
	m.calls++
	m.messages = append(m.messages, message)
	return m.Err
}

// --- helpers ---

func testPlan() bundle.Plan {
	return bundle.Plan{
		Bundle: catalog.Template{ID: "tmpl-1", Name: "Baseline Routine"},
		Source: bundle.SourceStored,
		Score:  8,
		Format: "printable",
		Requests: []bundle.IconRequest{
			{Slug: "wake-up", Label: "Wake Up"},
			{Slug: "meal-time", Label: "Meal Time"},
		},
	}
}

func testIntake() *intake.Intake {
	return &intake.Intake{
		OrderID:     "ord-1",
		Tier:        intake.TierLite,
		Fulfillment: intake.FulfillmentDigital,
		Cohort:      intake.CohortAdult,
		Customer: intake.Customer{
			Email:     "maria@example.com",
			FirstName: "Maria",
			Handle:    "@maria",
		},
		Preferences: map[string]string{},
	}
}
