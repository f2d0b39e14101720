// SPDX-License-Identifier: MPL-2.0

package resource

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"bastion/pkg/respath"
)

var (
	// ErrNotFound is the sentinel error wrapped by NotFoundError.
	ErrNotFound = errors.New("resource not found")

	// ErrUnknownPack is the sentinel error wrapped by UnknownPackError.
	ErrUnknownPack = errors.New("unknown pack")
)

type (
	// NotFoundError reports a lookup that no active pack could serve.
	NotFoundError struct {
		Path respath.Path
	}

	// UnknownPackError reports a pack id that no provider supplies.
	UnknownPackError struct {
		ID string
	}

	// ReloadEvent describes one reload to subscribed hooks. Err is nil on
	// pre-reload events and carries the outcome on post-reload events.
	ReloadEvent struct {
		// JobID uniquely identifies the reload in logs and hooks.
		JobID string
		// Active is the pack stack the reload applies, lowest priority
		// first.
		Active []string
		// Err is the reload outcome (post-reload only).
		Err error
		// Duration is how long the index rebuild took (post-reload only).
		Duration time.Duration
	}

	// Hook observes reloads. Hooks run on the reloading goroutine, so they
	// must not call Reload themselves.
	Hook func(ReloadEvent)

	// Manager resolves resources through a prioritized stack of packs.
	//
	// The active stack is staged: Activate, Deactivate and SetActive only
	// change what the NEXT Reload applies. Lookups keep serving the index
	// built by the last completed reload.
	Manager struct {
		logger    *log.Logger
		metrics   *metrics
		providers []PackProvider

		stagedMu sync.Mutex
		staged   []string

		mu        sync.RWMutex
		available map[string]Pack
		active    []string
		index     map[respath.Path][]Pack

		reloadMu sync.Mutex

		hookMu    sync.Mutex
		preHooks  []Hook
		postHooks []Hook
	}

	// Option configures a Manager.
	Option func(*Manager)
)

// Error implements the error interface for NotFoundError.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("resource %s not found in any active pack", e.Path)
}

// Unwrap returns ErrNotFound for errors.Is() compatibility.
func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// Error implements the error interface for UnknownPackError.
func (e *UnknownPackError) Error() string {
	return fmt.Sprintf("pack %q is not available", e.ID)
}

// Unwrap returns ErrUnknownPack for errors.Is() compatibility.
func (e *UnknownPackError) Unwrap() error { return ErrUnknownPack }

// WithLogger sets the manager's logger.
func WithLogger(logger *log.Logger) Option {
	return func(m *Manager) { m.logger = logger }
}

// WithProvider adds pack providers. Providers are queried on every reload.
func WithProvider(providers ...PackProvider) Option {
	return func(m *Manager) { m.providers = append(m.providers, providers...) }
}

// WithMetrics registers the manager's Prometheus collectors with reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(m *Manager) {
		if err := m.metrics.register(reg); err != nil {
			m.logger.Warn("failed to register metrics", "error", err)
		}
	}
}

// NewManager creates a Manager with no active packs. Call Activate or
// SetActive followed by Reload to serve resources.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		logger:    log.NewWithOptions(os.Stderr, log.Options{Prefix: "resources"}),
		metrics:   newMetrics(),
		available: make(map[string]Pack),
		index:     make(map[respath.Path][]Pack),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// AddProvider adds a pack provider after construction.
func (m *Manager) AddProvider(p PackProvider) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.providers = append(m.providers, p)
}

// Available returns the ids of all packs known as of the last refresh,
// sorted.
func (m *Manager) Available() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.available))
	for id := range m.available {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Active returns the effective pack stack, lowest priority first.
func (m *Manager) Active() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, len(m.active))
	copy(out, m.active)
	return out
}

// Staged returns the pack stack the next Reload will apply.
func (m *Manager) Staged() []string {
	m.stagedMu.Lock()
	defer m.stagedMu.Unlock()
	out := make([]string, len(m.staged))
	copy(out, m.staged)
	return out
}

// Activate stages a pack at the top of the stack (highest priority). The
// change takes effect on the next Reload. The pack must be supplied by a
// provider.
func (m *Manager) Activate(id string) error {
	if _, err := m.lookupAvailable(id); err != nil {
		return err
	}

	m.stagedMu.Lock()
	defer m.stagedMu.Unlock()
	for i, staged := range m.staged {
		if staged == id {
			// Re-activating moves the pack to the top.
			m.staged = append(m.staged[:i], m.staged[i+1:]...)
			break
		}
	}
	m.staged = append(m.staged, id)
	return nil
}

// Deactivate removes a pack from the staged stack. The change takes
// effect on the next Reload. It reports whether the pack was staged.
func (m *Manager) Deactivate(id string) bool {
	m.stagedMu.Lock()
	defer m.stagedMu.Unlock()
	for i, staged := range m.staged {
		if staged == id {
			m.staged = append(m.staged[:i], m.staged[i+1:]...)
			return true
		}
	}
	return false
}

// SetActive replaces the staged stack wholesale, lowest priority first.
// The change takes effect on the next Reload.
func (m *Manager) SetActive(ids ...string) error {
	for _, id := range ids {
		if _, err := m.lookupAvailable(id); err != nil {
			return err
		}
	}
	m.stagedMu.Lock()
	defer m.stagedMu.Unlock()
	m.staged = append([]string(nil), ids...)
	return nil
}

// lookupAvailable finds a pack by id, refreshing from providers when the
// id is not yet known.
func (m *Manager) lookupAvailable(id string) (Pack, error) {
	m.mu.RLock()
	p, ok := m.available[id]
	m.mu.RUnlock()
	if ok {
		return p, nil
	}

	if err := m.refreshAvailable(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	if p, ok := m.available[id]; ok {
		return p, nil
	}
	return nil, &UnknownPackError{ID: id}
}

// refreshAvailable re-queries every provider and replaces the available
// set. Duplicate pack ids across providers are an error.
func (m *Manager) refreshAvailable() error {
	m.mu.RLock()
	providers := make([]PackProvider, len(m.providers))
	copy(providers, m.providers)
	m.mu.RUnlock()

	merged := make(map[string]Pack)
	for _, provider := range providers {
		packs, err := provider.Packs()
		if err != nil {
			return fmt.Errorf("pack provider failed: %w", err)
		}
		for id, p := range packs {
			if _, dup := merged[id]; dup {
				return fmt.Errorf("pack id %q supplied by more than one provider", id)
			}
			merged[id] = p
		}
	}

	m.mu.Lock()
	m.available = merged
	m.mu.Unlock()
	return nil
}

// Resource returns the topmost (highest priority) entry for the path.
func (m *Manager) Resource(p respath.Path) (*Resource, error) {
	m.mu.RLock()
	packs := m.index[p]
	var top Pack
	if len(packs) > 0 {
		top = packs[len(packs)-1]
	}
	m.mu.RUnlock()

	if top == nil {
		m.metrics.lookupMisses.Inc()
		return nil, &NotFoundError{Path: p}
	}
	m.metrics.lookupHits.Inc()
	return NewResource(p, top), nil
}

// Resources returns every overlay entry for the path, lowest priority
// first. The result is empty when no active pack provides the path.
func (m *Manager) Resources(p respath.Path) []*Resource {
	m.mu.RLock()
	packs := m.index[p]
	out := make([]*Resource, len(packs))
	for i, pack := range packs {
		out[i] = NewResource(p, pack)
	}
	m.mu.RUnlock()

	if len(out) == 0 {
		m.metrics.lookupMisses.Inc()
	} else {
		m.metrics.lookupHits.Inc()
	}
	return out
}

// Find returns the topmost entry for every indexed path whose qualified
// string form matches the doublestar glob pattern (e.g. "core:blocks/**").
// Results are sorted by path.
func (m *Manager) Find(pattern string) ([]*Resource, error) {
	if _, err := doublestar.Match(pattern, ""); err != nil {
		return nil, fmt.Errorf("invalid glob pattern %q: %w", pattern, err)
	}

	m.mu.RLock()
	var matched []*Resource
	for p, packs := range m.index {
		ok, err := doublestar.Match(pattern, p.String())
		if err != nil || !ok {
			continue
		}
		matched = append(matched, NewResource(p, packs[len(packs)-1]))
	}
	m.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].Path().Compare(matched[j].Path()) < 0
	})
	return matched, nil
}

// OnPreReload subscribes a hook that runs before each reload rebuilds the
// index.
func (m *Manager) OnPreReload(h Hook) {
	m.hookMu.Lock()
	defer m.hookMu.Unlock()
	m.preHooks = append(m.preHooks, h)
}

// OnPostReload subscribes a hook that runs after each reload, successful
// or not.
func (m *Manager) OnPostReload(h Hook) {
	m.hookMu.Lock()
	defer m.hookMu.Unlock()
	m.postHooks = append(m.postHooks, h)
}

func (m *Manager) fireHooks(hooks []Hook, ev ReloadEvent) {
	for _, h := range hooks {
		h(ev)
	}
}

// Reload applies the staged pack stack: providers are re-queried, the
// resource index is rebuilt, and the new view is swapped in atomically.
// Concurrent lookups keep seeing the previous index until the swap.
// Reloads are serialized.
func (m *Manager) Reload(ctx context.Context) error {
	m.reloadMu.Lock()
	defer m.reloadMu.Unlock()

	jobID := uuid.NewString()
	staged := m.Staged()

	m.hookMu.Lock()
	pre := append([]Hook(nil), m.preHooks...)
	post := append([]Hook(nil), m.postHooks...)
	m.hookMu.Unlock()

	m.logger.Info("reload started", "job", jobID, "packs", staged)
	m.fireHooks(pre, ReloadEvent{JobID: jobID, Active: staged})

	start := time.Now()
	err := m.rebuild(ctx, staged)
	elapsed := time.Since(start)

	m.metrics.reloads.Inc()
	m.metrics.reloadTime.Observe(elapsed.Seconds())
	if err != nil {
		m.metrics.reloadErrors.Inc()
		m.logger.Error("reload failed", "job", jobID, "error", err, "duration", elapsed)
	} else {
		m.metrics.activePacks.Set(float64(len(staged)))
		m.logger.Info("reload finished", "job", jobID, "packs", len(staged), "duration", elapsed)
	}

	m.fireHooks(post, ReloadEvent{JobID: jobID, Active: staged, Err: err, Duration: elapsed})
	return err
}

// ReloadAsync runs Reload on its own goroutine and delivers the outcome on
// the returned channel.
func (m *Manager) ReloadAsync(ctx context.Context) <-chan error {
	done := make(chan error, 1)
	go func() {
		done <- m.Reload(ctx)
	}()
	return done
}

// rebuild builds a fresh index for the staged stack and swaps it in.
func (m *Manager) rebuild(ctx context.Context, staged []string) error {
	if err := m.refreshAvailable(); err != nil {
		return err
	}

	m.mu.RLock()
	stack := make([]Pack, 0, len(staged))
	var missing []string
	for _, id := range staged {
		p, ok := m.available[id]
		if !ok {
			missing = append(missing, id)
			continue
		}
		stack = append(stack, p)
	}
	m.mu.RUnlock()

	if len(missing) > 0 {
		errs := make([]error, len(missing))
		for i, id := range missing {
			errs[i] = &UnknownPackError{ID: id}
		}
		return errors.Join(errs...)
	}

	index := make(map[respath.Path][]Pack)
	for _, pack := range stack {
		if err := ctx.Err(); err != nil {
			return err
		}
		namespaces, err := pack.Namespaces()
		if err != nil {
			return err
		}
		for _, ns := range namespaces {
			paths, err := pack.List(ns)
			if err != nil {
				return err
			}
			for _, p := range paths {
				index[p] = append(index[p], pack)
			}
		}
	}

	m.mu.Lock()
	m.active = append([]string(nil), staged...)
	m.index = index
	m.mu.Unlock()
	return nil
}

// Close closes every available pack. The manager must not be used
// afterwards.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var errs []error
	for id, p := range m.available {
		if err := p.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close pack %q: %w", id, err))
		}
	}
	m.available = make(map[string]Pack)
	m.index = make(map[respath.Path][]Pack)
	m.active = nil
	return errors.Join(errs...)
}
