package records

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"routineforge/internal/bundle"
	"routineforge/internal/intake"
)

func newMemStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(StoreConfig{DatabasePath: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleRecord(orderID string) *Record {
	return &Record{
		OrderID:   orderID,
		Intake:    &intake.Intake{OrderID: orderID, Tier: intake.TierLite},
		Narrative: "A calm start to the day.",
		Plan: bundle.Plan{
			Source: bundle.SourceFallback,
			Score:  5,
			Requests: []bundle.IconRequest{
				{Slug: "wake-up", Label: "Wake Up"},
			},
		},
		Links: []string{"file:///kits/doc.md"},
	}
}

func TestSaveRecord_RoundTrip(t *testing.T) {
	// Fixed UTC clock so timestamps survive the JSON round trip exactly.
	s, err := NewStore(StoreConfig{
		DatabasePath: ":memory:",
		Clock:        func() time.Time { return time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC) },
	})
	require.NoError(t, err)
	defer s.Close()

	rec := sampleRecord("ord-1")
	require.NoError(t, s.SaveRecord(rec))
	assert.NotEmpty(t, rec.ID)
	assert.False(t, rec.CreatedAt.IsZero())

	loaded, err := s.GetRecord("ord-1")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	if diff := cmp.Diff(rec, loaded); diff != "" {
		t.Errorf("record changed across persistence (-saved +loaded):\n%s", diff)
	}
}

func TestSaveRecord_WriteOnce(t *testing.T) {
	s := newMemStore(t)

	require.NoError(t, s.SaveRecord(sampleRecord("ord-1")))
	err := s.SaveRecord(sampleRecord("ord-1"))
	assert.Error(t, err, "a second record for the same order is rejected")
}

func TestGetRecord_Missing(t *testing.T) {
	s := newMemStore(t)
	rec, err := s.GetRecord("nope")
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestSaveOutcome_History(t *testing.T) {
	s := newMemStore(t)

	require.NoError(t, s.SaveOutcome(Outcome{OrderID: "ord-1", Status: "error", Detail: "first attempt failed"}))
	require.NoError(t, s.SaveOutcome(Outcome{OrderID: "ord-1", Status: "success", Links: []string{"file:///kits/doc.md"}}))

	outcomes, err := s.Outcomes("ord-1")
	require.NoError(t, err)
	require.Len(t, outcomes, 2)
	assert.Equal(t, "error", outcomes[0].Status)
	assert.Equal(t, "success", outcomes[1].Status)
	assert.Equal(t, []string{"file:///kits/doc.md"}, outcomes[1].Links)
	assert.False(t, outcomes[0].CreatedAt.IsZero())
}

func TestAppendActivity_Ordered(t *testing.T) {
	s := newMemStore(t)

	s.AppendActivity("ord-1", "narrative", "attempts=1")
	s.AppendActivity("ord-1", "delivery", "receipts=1")
	s.AppendActivity("ord-2", "narrative", "attempts=3")

	events, err := s.Activity("ord-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"narrative", "delivery"}, events)
}

func TestAppendActivity_SwallowsFailure(t *testing.T) {
	s := newMemStore(t)
	require.NoError(t, s.Close())

	// Closed database: append must not panic or surface the error.
	s.AppendActivity("ord-1", "narrative", "attempts=1")
}

func TestSaveRecord_KeepsProvidedTimestamps(t *testing.T) {
	s := newMemStore(t)

	at := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)
	rec := sampleRecord("ord-1")
	rec.CreatedAt = at
	require.NoError(t, s.SaveRecord(rec))

	loaded, err := s.GetRecord("ord-1")
	require.NoError(t, err)
	assert.True(t, loaded.CreatedAt.Equal(at))
}
