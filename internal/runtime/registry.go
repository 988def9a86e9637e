package runtime

import (
	"strings"
	"sync"
)

// Registry maps a device host key to its shared Data instance. Consumers
// hold only the host key; the registry keeps the single owning reference
// for the lifetime of the device configuration.
type Registry struct {
	mu      sync.RWMutex
	devices map[string]*Data
}

func NewRegistry() *Registry {
	return &Registry{devices: map[string]*Data{}}
}

func normalizeHost(host string) string {
	return strings.ToLower(strings.TrimSpace(host))
}

// Obtain returns the Data for host, creating it on first use.
func (r *Registry) Obtain(host string) *Data {
	key := normalizeHost(host)

	r.mu.RLock()
	data, ok := r.devices[key]
	r.mu.RUnlock()
	if ok {
		return data
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if data, ok := r.devices[key]; ok {
		return data
	}
	data = NewData()
	r.devices[key] = data
	return data
}

// Lookup returns the Data for host without creating it.
func (r *Registry) Lookup(host string) (*Data, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	data, ok := r.devices[normalizeHost(host)]
	return data, ok
}

// Remove drops the Data for host when its configuration is unloaded.
func (r *Registry) Remove(host string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.devices, normalizeHost(host))
}
