package providers

import (
	"sort"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/northernpowerhouse/teamarr/internal/logging"
)

var regLog = logging.NewLogger("provider-registry")

// Registry holds the set of configured providers, ranked by priority.
// initialize must be called once with shared Dependencies before first use;
// Register is idempotent (re-registering a name overwrites, logged).
type Registry struct {
	mu        sync.RWMutex
	configs   map[string]ProviderConfig
	instances map[string]Provider
	deps      Dependencies
	ready     bool
}

// NewRegistry constructs an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		configs:   make(map[string]ProviderConfig),
		instances: make(map[string]Provider),
	}
}

// Register adds or replaces a provider configuration. If the registry is
// already initialized, the provider instance is constructed immediately;
// otherwise construction is deferred to Initialize.
func (r *Registry) Register(cfg ProviderConfig) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.configs[cfg.Name]; exists {
		regLog.WithField("provider", cfg.Name).Info("overwriting existing provider registration")
	}
	r.configs[cfg.Name] = cfg

	if r.ready {
		r.instances[cfg.Name] = cfg.Factory(r.deps)
	}
}

// Initialize injects shared dependencies and constructs every registered
// provider's instance. Must be called before GetAll/GetForLeague return
// usable instances.
func (r *Registry) Initialize(deps Dependencies) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.deps = deps
	r.ready = true
	for name, cfg := range r.configs {
		r.instances[name] = cfg.Factory(deps)
	}
}

// GetAll returns enabled providers in ascending priority order.
func (r *Registry) GetAll() []Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()

	type ranked struct {
		cfg ProviderConfig
		p   Provider
	}
	var all []ranked
	for name, cfg := range r.configs {
		if !cfg.Enabled {
			continue
		}
		p, ok := r.instances[name]
		if !ok {
			continue
		}
		all = append(all, ranked{cfg: cfg, p: p})
	}
	sort.Slice(all, func(i, j int) bool { return all[i].cfg.Priority < all[j].cfg.Priority })

	out := make([]Provider, 0, len(all))
	for _, a := range all {
		out = append(out, a.p)
	}
	return out
}

// GetForLeague returns the first enabled provider (in priority order) that
// supports league, or nil.
func (r *Registry) GetForLeague(league string) Provider {
	for _, p := range r.GetAll() {
		if p.SupportsLeague(league) {
			return p
		}
	}
	return nil
}

// IsProviderPremium reports whether the named provider is registered as
// premium.
func (r *Registry) IsProviderPremium(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cfg, ok := r.configs[name]
	return ok && cfg.Premium
}

// Stats returns ordered provider names for diagnostics.
func (r *Registry) Stats() []logrus.Fields {
	var out []logrus.Fields
	for _, p := range r.GetAll() {
		out = append(out, logrus.Fields{"name": p.Name()})
	}
	return out
}
