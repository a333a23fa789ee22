// Package agents lists the backend's agents and loads their configuration
// catalogs.
package agents

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/koscakluka/ema-desk/core/backend"
)

type source interface {
	Agents(ctx context.Context) (backend.AgentsResponse, error)
	AgentKeys(ctx context.Context) (map[string]string, error)
	Config(ctx context.Context, agentID, accessKey string) (map[string]any, error)
}

type Registry struct {
	source source

	mu   sync.Mutex
	keys map[string]string
	// overrides are layered over every catalog loaded from the backend,
	// keyed by agent id. The "*" entry applies to all agents.
	overrides map[string]map[string]any
}

type RegistryOption func(*Registry)

// WithAccessKeys supplies access keys up front so they are not fetched.
func WithAccessKeys(keys map[string]string) RegistryOption {
	return func(r *Registry) {
		if len(keys) == 0 {
			return
		}
		r.keys = make(map[string]string, len(keys))
		for id, key := range keys {
			r.keys[id] = key
		}
	}
}

// WithOverrides registers local configuration overrides.
func WithOverrides(overrides map[string]map[string]any) RegistryOption {
	return func(r *Registry) {
		r.overrides = overrides
	}
}

func NewRegistry(source source, opts ...RegistryOption) *Registry {
	r := &Registry{source: source}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// List returns the public agent descriptions sorted by id together with the
// backend's default agent.
func (r *Registry) List(ctx context.Context) ([]backend.Agent, string, error) {
	resp, err := r.source.Agents(ctx)
	if err != nil {
		return nil, "", err
	}
	agents := make([]backend.Agent, 0, len(resp.Agents))
	for id, agent := range resp.Agents {
		if agent.ID == "" {
			agent.ID = id
		}
		agents = append(agents, agent)
	}
	slices.SortFunc(agents, func(a, b backend.Agent) int {
		return strings.Compare(a.ID, b.ID)
	})
	return agents, resp.Default, nil
}

// Keys returns the agent access keys, fetching them once.
func (r *Registry) Keys(ctx context.Context) (map[string]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.keys == nil {
		keys, err := r.source.AgentKeys(ctx)
		if err != nil {
			return nil, err
		}
		r.keys = keys
	}
	return r.keys, nil
}

// Load fetches the configuration catalog of an agent and layers the local
// overrides over it.
func (r *Registry) Load(ctx context.Context, agentID string) (*Catalog, error) {
	accessKey := ""
	if agentID != "common" {
		keys, err := r.Keys(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to get access key for %q: %w", agentID, err)
		}
		accessKey = keys[agentID]
	}

	tree, err := r.source.Config(ctx, agentID, accessKey)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog for %q: %w", agentID, err)
	}

	catalog := NewCatalog(tree)
	if override, ok := r.overrides["*"]; ok {
		catalog = catalog.Merge(override)
	}
	if override, ok := r.overrides[agentID]; ok {
		catalog = catalog.Merge(override)
	}
	return catalog, nil
}
