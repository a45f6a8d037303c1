package bundle

import (
	"context"

	"routineforge/internal/catalog"
)

// --- MockGenerator ---

// MockGenerator implements Generator for testing.
type MockGenerator struct {
	calls    int
	lastReq  GenRequest
	Template catalog.Template
	Err      error
}

func (m *MockGenerator) Generate(ctx context.Context, req GenRequest) (catalog.Template, error) {
	m.calls++
	m.lastReq = req
	if m.Err != nil {
		return catalog.Template{}, m.Err
	}
	return m.Template, nil
}
