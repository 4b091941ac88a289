package scrape

import (
	"fmt"
	"sort"
	"sync"
)

// Factory builds a Source from site configuration.
type Factory func(cfg SiteConfig) (Source, error)

// SiteConfig carries the per-site knobs every adapter binds at startup.
type SiteConfig struct {
	BaseURL           string
	ListingPaths      []string
	DetailPathPattern string
	UserAgent         string
	TimeoutSeconds    int
	EraBaseYear       int
}

var (
	registryMu sync.RWMutex
	registry   = map[string]Factory{}
)

// Register installs a named source factory. Adapters register themselves
// from init; the active one is selected by configuration at startup.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, dup := registry[name]; dup {
		panic(fmt.Sprintf("scrape: source %q registered twice", name))
	}
	registry[name] = factory
}

// New builds the source registered under name.
func New(name string, cfg SiteConfig) (Source, error) {
	registryMu.RLock()
	factory, ok := registry[name]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown site %q (known: %v)", name, Names())
	}
	return factory(cfg)
}

// Names lists the registered sources, sorted.
func Names() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
