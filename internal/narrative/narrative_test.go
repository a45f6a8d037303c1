package narrative

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockClient implements llm.Client with scripted responses.
type mockClient struct {
	calls     int
	responses []string
	errs      []error
}

func (m *mockClient) Complete(ctx context.Context, prompt string) (string, error) {
	i := m.calls
	m.calls++
	var resp string
	var err error
	if i < len(m.responses) {
		resp = m.responses[i]
	}
	if i < len(m.errs) {
		err = m.errs[i]
	}
	return resp, err
}

func (m *mockClient) CompleteWithSystem(ctx context.Context, system, prompt string) (string, error) {
	return m.Complete(ctx, prompt)
}

func TestGenerate_FirstProviderSucceeds(t *testing.T) {
	primary := &mockClient{responses: []string{"A gentle morning narrative."}}
	backup := &mockClient{responses: []string{"unused"}}

	g := NewGenerator(GeneratorConfig{Providers: []Provider{
		{ID: "anthropic", Client: primary},
		{ID: "openai", Client: backup},
	}})

	text, attempts, err := g.Generate(context.Background(), "write it")
	require.NoError(t, err)
	assert.Equal(t, "A gentle morning narrative.", text)
	require.Len(t, attempts, 1)
	assert.Equal(t, "anthropic", attempts[0].Provider)
	assert.True(t, attempts[0].OK)
	assert.Equal(t, 0, backup.calls, "fallback never touched on success")
}

func TestGenerate_SecondTrySameProvider(t *testing.T) {
	primary := &mockClient{
		responses: []string{"", "Recovered on retry."},
		errs:      []error{fmt.Errorf("rate limited"), nil},
	}
	g := NewGenerator(GeneratorConfig{Providers: []Provider{{ID: "anthropic", Client: primary}}})

	text, attempts, err := g.Generate(context.Background(), "write it")
	require.NoError(t, err)
	assert.Equal(t, "Recovered on retry.", text)
	require.Len(t, attempts, 2)
	assert.False(t, attempts[0].OK)
	assert.True(t, attempts[1].OK)
}

func TestGenerate_FallsThroughProviders(t *testing.T) {
	primary := &mockClient{errs: []error{fmt.Errorf("down"), fmt.Errorf("down")}}
	backup := &mockClient{responses: []string{"Backup narrative."}}

	g := NewGenerator(GeneratorConfig{Providers: []Provider{
		{ID: "anthropic", Client: primary},
		{ID: "gemini", Client: backup},
	}})

	text, attempts, err := g.Generate(context.Background(), "write it")
	require.NoError(t, err)
	assert.Equal(t, "Backup narrative.", text)
	require.Len(t, attempts, 3)
	assert.Equal(t, 2, primary.calls, "two tries against the first provider")
	assert.Equal(t, "gemini", attempts[2].Provider)
	assert.True(t, attempts[2].OK)
}

func TestGenerate_EmptyTextCountsAsFailure(t *testing.T) {
	primary := &mockClient{responses: []string{"", ""}}
	g := NewGenerator(GeneratorConfig{Providers: []Provider{{ID: "anthropic", Client: primary}}})

	_, attempts, err := g.Generate(context.Background(), "write it")
	require.Error(t, err)
	require.Len(t, attempts, 2)
	assert.Equal(t, "empty narrative", attempts[0].Error)
}

func TestGenerate_AllProvidersExhausted(t *testing.T) {
	a := &mockClient{errs: []error{fmt.Errorf("down"), fmt.Errorf("down")}}
	b := &mockClient{errs: []error{fmt.Errorf("quota"), fmt.Errorf("quota")}}

	g := NewGenerator(GeneratorConfig{Providers: []Provider{
		{ID: "anthropic", Client: a},
		{ID: "openai", Client: b},
	}})

	text, attempts, err := g.Generate(context.Background(), "write it")
	assert.Empty(t, text)
	require.Len(t, attempts, 4)

	var allFailed *AllFailedError
	require.ErrorAs(t, err, &allFailed)
	assert.Len(t, allFailed.Attempts, 4)
	assert.Contains(t, allFailed.Error(), "quota")

	for _, att := range attempts {
		assert.False(t, att.OK)
		assert.NotEmpty(t, att.Error)
	}
}

func TestGenerate_NoProviders(t *testing.T) {
	g := NewGenerator(GeneratorConfig{})
	_, attempts, err := g.Generate(context.Background(), "write it")
	assert.Error(t, err)
	assert.Empty(t, attempts)
}
