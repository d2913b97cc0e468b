package eventbus

import (
	"sync"
)

// Registry maps deployment ids to their event buses. It is created once
// at process start and handed to the components that need it; there is
// no package-level instance.
type Registry struct {
	mu    sync.Mutex
	buses map[string]*Bus
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{buses: make(map[string]*Bus)}
}

// Get returns the bus for a deployment if one exists in this process
func (r *Registry) Get(deploymentID string) (*Bus, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.buses[deploymentID]
	return b, ok
}

// GetOrCreate returns the bus for a deployment, creating it with the
// given starting sequence when absent. The start sequence only applies
// on creation; an existing bus keeps its own numbering.
func (r *Registry) GetOrCreate(deploymentID string, startSeq int64) *Bus {
	r.mu.Lock()
	defer r.mu.Unlock()
	if b, ok := r.buses[deploymentID]; ok {
		return b
	}
	b := NewBus(startSeq)
	r.buses[deploymentID] = b
	return b
}

// Remove drops a sealed bus from the registry. Viewers already attached
// keep draining their channels; new attachments fall back to persisted logs.
func (r *Registry) Remove(deploymentID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.buses, deploymentID)
}
