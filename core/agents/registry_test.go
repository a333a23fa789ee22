package agents

import (
	"context"
	"errors"
	"testing"

	"github.com/koscakluka/ema-desk/core/backend"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	agents    backend.AgentsResponse
	keys      map[string]string
	keysCalls int
	configs   map[string]map[string]any
	gotKeys   []string
}

func (f *fakeSource) Agents(context.Context) (backend.AgentsResponse, error) {
	return f.agents, nil
}

func (f *fakeSource) AgentKeys(context.Context) (map[string]string, error) {
	f.keysCalls++
	return f.keys, nil
}

func (f *fakeSource) Config(_ context.Context, agentID, accessKey string) (map[string]any, error) {
	f.gotKeys = append(f.gotKeys, accessKey)
	tree, ok := f.configs[agentID]
	if !ok {
		return nil, &backend.APIError{Endpoint: "/api/get_config", Message: "agent not found"}
	}
	return tree, nil
}

func TestListSortsAgentsAndFillsIDs(t *testing.T) {
	source := &fakeSource{agents: backend.AgentsResponse{
		Agents: map[string]backend.Agent{
			"translator": {Name: "Translator"},
			"nutria":     {ID: "nutria", Name: "Nutria"},
		},
		Default: "nutria",
	}}

	agents, def, err := NewRegistry(source).List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "nutria", def)
	require.Len(t, agents, 2)
	assert.Equal(t, "nutria", agents[0].ID)
	assert.Equal(t, "translator", agents[1].ID)
}

func TestLoadUsesAccessKeyAndOverrides(t *testing.T) {
	source := &fakeSource{
		keys: map[string]string{"nutria": "secret"},
		configs: map[string]map[string]any{
			"nutria": {"en": map[string]any{"errors": map[string]any{"generic": "Backend error"}}},
		},
	}
	registry := NewRegistry(source, WithOverrides(map[string]map[string]any{
		"*":      {"en": map[string]any{"title": "Local"}},
		"nutria": {"en": map[string]any{"errors": map[string]any{"generic": "Local error"}}},
	}))

	catalog, err := registry.Load(context.Background(), "nutria")
	require.NoError(t, err)
	assert.Equal(t, "Local error", catalog.T("en", "errors.generic", ""))
	assert.Equal(t, "Local", catalog.T("en", "title", ""))

	_, err = registry.Load(context.Background(), "nutria")
	require.NoError(t, err)
	assert.Equal(t, 1, source.keysCalls)
	assert.Equal(t, []string{"secret", "secret"}, source.gotKeys)
}

func TestLoadReportsBackendError(t *testing.T) {
	source := &fakeSource{keys: map[string]string{}}
	_, err := NewRegistry(source).Load(context.Background(), "unknown")

	var apiErr *backend.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "agent not found", apiErr.Message)
}

func TestPresetAccessKeysSkipFetch(t *testing.T) {
	source := &fakeSource{configs: map[string]map[string]any{"nutria": {}}}
	registry := NewRegistry(source, WithAccessKeys(map[string]string{"nutria": "k"}))

	_, err := registry.Load(context.Background(), "nutria")
	require.NoError(t, err)
	assert.Zero(t, source.keysCalls)
	assert.Equal(t, []string{"k"}, source.gotKeys)
}
