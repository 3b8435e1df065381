package webhook

import (
	"context"
	"regexp"
	"sort"
	"strings"
	"sync"

	pkgLog "claude-session-hub/pkg/log"
)

// Registry holds webhook providers and their event handlers. Registration
// normally happens once at process start-up, but late registration is legal:
// all access goes through a read-write lock.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
	handlers  map[string][]Handler
	l         pkgLog.Logger
}

// ProviderInfo is a registry summary entry for the health endpoint.
type ProviderInfo struct {
	Name         string `json:"name"`
	HandlerCount int    `json:"handler_count"`
}

// NewRegistry creates an empty registry.
func NewRegistry(l pkgLog.Logger) *Registry {
	return &Registry{
		providers: make(map[string]Provider),
		handlers:  make(map[string][]Handler),
		l:         l,
	}
}

// RegisterProvider upserts a provider keyed by its lowercased name.
// Re-registration overwrites the previous provider and is logged, not
// rejected.
func (r *Registry) RegisterProvider(p Provider) {
	key := strings.ToLower(p.Name())

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.providers[key]; exists {
		r.l.Warnf(context.Background(), "Provider %q re-registered, overwriting", key)
	}
	r.providers[key] = p
}

// RegisterHandler appends a handler for the provider and re-sorts the full
// list by descending priority. The sort is stable so ties preserve insertion
// order.
func (r *Registry) RegisterHandler(providerName string, h Handler) {
	key := strings.ToLower(providerName)

	r.mu.Lock()
	defer r.mu.Unlock()

	list := append(r.handlers[key], h)
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].Priority() > list[j].Priority()
	})
	r.handlers[key] = list
}

// GetProvider resolves a provider by case-insensitive name.
func (r *Registry) GetProvider(name string) (Provider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.providers[strings.ToLower(name)]
	return p, ok
}

// GetHandlers returns the handlers whose pattern matches the event, in
// priority order. The result is never nil and is safe for the caller to
// iterate while registration continues.
func (r *Registry) GetHandlers(providerName, event string) []Handler {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := make([]Handler, 0)
	for _, h := range r.handlers[strings.ToLower(providerName)] {
		if patternMatches(h.EventPattern(), event) {
			matched = append(matched, h)
		}
	}
	return matched
}

// Providers summarizes registered providers and their handler counts.
func (r *Registry) Providers() []ProviderInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	infos := make([]ProviderInfo, 0, len(r.providers))
	for name := range r.providers {
		infos = append(infos, ProviderInfo{
			Name:         name,
			HandlerCount: len(r.handlers[name]),
		})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos
}

// Clear resets all registry state. Testing only.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.providers = make(map[string]Provider)
	r.handlers = make(map[string][]Handler)
}

// patternMatches evaluates the three pattern forms in order: exact equality,
// "*" suffix as a prefix match, then regular expression tested against the
// event. Invalid regular expressions simply never match.
func patternMatches(pattern, event string) bool {
	if pattern == event {
		return true
	}
	if strings.HasSuffix(pattern, "*") {
		return strings.HasPrefix(event, strings.TrimSuffix(pattern, "*"))
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return false
	}
	return re.MatchString(event)
}
