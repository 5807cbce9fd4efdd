// Package aggregator fans a query out to every enabled price provider and
// collects their answers.
package aggregator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/tcgwatch/pricewatch/pricewatch/config"
	"github.com/tcgwatch/pricewatch/pricewatch/database/repositories"
	"github.com/tcgwatch/pricewatch/pricewatch/providers"
	"github.com/tcgwatch/pricewatch/pricewatch/ratelimit"
)

type providerState struct {
	provider   providers.Provider
	enabled    bool
	delay      time.Duration
	fromSource bool
	lastRun    time.Time
}

// ProviderStatus is a read-only snapshot of one registered provider.
type ProviderStatus struct {
	Name    string     `json:"name"`
	Enabled bool       `json:"enabled"`
	DelayMs int64      `json:"delayMs"`
	LastRun *time.Time `json:"lastRun,omitempty"`
}

// Manager is the provider registry. One Manager is built at start-up and
// shared by every request; it is safe for concurrent use.
type Manager struct {
	mu     sync.RWMutex
	states map[string]*providerState

	sources     repositories.SourceRepository
	limiter     *ratelimit.Limiter
	priceSlots  *semaphore.Weighted
	callTimeout time.Duration
}

func NewManager(sources repositories.SourceRepository, limiter *ratelimit.Limiter) *Manager {
	if limiter == nil {
		limiter = ratelimit.New()
	}
	return &Manager{
		states:      make(map[string]*providerState),
		sources:     sources,
		limiter:     limiter,
		priceSlots:  semaphore.NewWeighted(config.MaxConcurrentPrices),
		callTimeout: config.ProviderCallTimeout,
	}
}

// LoadProviders (re)builds the registry from the active source rows. Sources
// with no adapter are logged and skipped. Providers loaded earlier whose
// source is no longer active are dropped; providers added with Register are
// kept.
func (m *Manager) LoadProviders(ctx context.Context) error {
	sources, err := m.sources.GetActive(ctx)
	if err != nil {
		return fmt.Errorf("failed to load active sources: %w", err)
	}

	loaded := make(map[string]*providerState, len(sources))
	for _, source := range sources {
		cfg := providers.NewConfig(source.IsActive, source.RateLimitMs, source.BaseURL, source.Config)
		p, err := providers.New(source.Name, cfg)
		if err != nil {
			slog.Warn("Skipping source without a usable adapter",
				slog.String("type", "sys"),
				slog.String("provider", source.Name),
				slog.Any("error", err))
			continue
		}
		loaded[p.Name()] = &providerState{
			provider:   p,
			enabled:    cfg.Enabled,
			delay:      cfg.RateLimit,
			fromSource: true,
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for name, state := range m.states {
		if state.fromSource {
			if _, ok := loaded[name]; !ok {
				delete(m.states, name)
			}
		}
	}
	for name, state := range loaded {
		if prev, ok := m.states[name]; ok {
			state.lastRun = prev.lastRun
		}
		m.states[name] = state
	}

	slog.Debug("Providers loaded",
		slog.String("type", "sys"),
		slog.Int("count", len(loaded)))
	return nil
}

// Register adds p, replacing any provider with the same name.
func (m *Manager) Register(p providers.Provider, cfg providers.Config) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[p.Name()] = &providerState{
		provider: p,
		enabled:  cfg.Enabled,
		delay:    cfg.RateLimit,
	}
}

func (m *Manager) Unregister(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.states, name)
}

// ActiveProvider returns the named provider if it is registered and enabled.
func (m *Manager) ActiveProvider(name string) (providers.Provider, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	state, ok := m.states[name]
	if !ok || !state.enabled {
		return nil, false
	}
	return state.provider, true
}

// ActiveProviders returns the enabled providers ordered by name.
func (m *Manager) ActiveProviders() []providers.Provider {
	m.mu.RLock()
	defer m.mu.RUnlock()

	active := make([]providers.Provider, 0, len(m.states))
	for _, state := range m.states {
		if state.enabled {
			active = append(active, state.provider)
		}
	}
	sort.Slice(active, func(i, j int) bool { return active[i].Name() < active[j].Name() })
	return active
}

// Status lists every registered provider, enabled or not.
func (m *Manager) Status() []ProviderStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]ProviderStatus, 0, len(m.states))
	for name, state := range m.states {
		status := ProviderStatus{
			Name:    name,
			Enabled: state.enabled,
			DelayMs: state.delay.Milliseconds(),
		}
		if !state.lastRun.IsZero() {
			lastRun := state.lastRun
			status.LastRun = &lastRun
		}
		out = append(out, status)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// SearchAllSources asks every enabled provider for candidates. The result
// has an entry for each provider searched; a provider that fails or times
// out contributes an empty slice and never affects the others.
func (m *Manager) SearchAllSources(ctx context.Context, query string) map[string][]providers.CandidateMatch {
	active := m.ActiveProviders()
	results := make(map[string][]providers.CandidateMatch, len(active))
	var mu sync.Mutex

	var g errgroup.Group
	g.SetLimit(config.MaxConcurrentSources)

	for _, p := range active {
		g.Go(func() error {
			matches, err := m.search(ctx, p, query)
			if err != nil {
				logProviderError("Provider search failed", p.Name(), err)
				matches = []providers.CandidateMatch{}
			}

			mu.Lock()
			results[p.Name()] = matches
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func (m *Manager) search(ctx context.Context, p providers.Provider, query string) ([]providers.CandidateMatch, error) {
	callCtx, cancel := context.WithTimeout(ctx, m.callTimeout)
	defer cancel()

	if err := m.limiter.Wait(callCtx, p.Name(), m.delay(p.Name())); err != nil {
		return nil, err
	}
	m.touch(p.Name())

	matches, err := p.SearchCard(callCtx, query)
	if err != nil {
		return nil, err
	}
	if matches == nil {
		matches = []providers.CandidateMatch{}
	}
	return matches, nil
}

// GetAllPrices searches every enabled provider and fetches quotes for up to
// the first few candidates of each. Failed lookups are dropped; the result
// has an entry, possibly empty, for each provider searched.
func (m *Manager) GetAllPrices(ctx context.Context, query string) map[string][]providers.Quote {
	found := m.SearchAllSources(ctx, query)
	results := make(map[string][]providers.Quote, len(found))
	var mu sync.Mutex

	var g errgroup.Group
	g.SetLimit(config.MaxConcurrentSources)

	for name, matches := range found {
		p, ok := m.ActiveProvider(name)
		if !ok || len(matches) == 0 {
			results[name] = []providers.Quote{}
			continue
		}
		if len(matches) > config.MaxPriceMatches {
			matches = matches[:config.MaxPriceMatches]
		}

		g.Go(func() error {
			quotes := m.prices(ctx, p, matches)
			mu.Lock()
			results[name] = quotes
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func (m *Manager) prices(ctx context.Context, p providers.Provider, matches []providers.CandidateMatch) []providers.Quote {
	if err := m.limiter.Wait(ctx, p.Name(), m.delay(p.Name())); err != nil {
		logProviderError("Provider price lookup cancelled", p.Name(), err)
		return []providers.Quote{}
	}
	m.touch(p.Name())

	quotes := make([]*providers.Quote, len(matches))
	var wg sync.WaitGroup
	for i, match := range matches {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := m.priceSlots.Acquire(ctx, 1); err != nil {
				return
			}
			defer m.priceSlots.Release(1)

			callCtx, cancel := context.WithTimeout(ctx, m.callTimeout)
			defer cancel()

			quote, err := p.GetPrice(callCtx, match.ID)
			if err != nil {
				logProviderError("Provider price lookup failed", p.Name(), err, slog.String("candidate", match.ID))
				return
			}
			quotes[i] = quote
		}()
	}
	wg.Wait()

	out := make([]providers.Quote, 0, len(quotes))
	for _, q := range quotes {
		if q != nil {
			out = append(out, *q)
		}
	}
	return out
}

// Enable turns a registered provider on and marks its source active.
func (m *Manager) Enable(ctx context.Context, name string) error {
	return m.setEnabled(ctx, name, true)
}

// Disable turns a registered provider off and marks its source inactive.
func (m *Manager) Disable(ctx context.Context, name string) error {
	return m.setEnabled(ctx, name, false)
}

func (m *Manager) setEnabled(ctx context.Context, name string, enabled bool) error {
	if err := m.sources.SetActive(ctx, name, enabled); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if state, ok := m.states[name]; ok {
		state.enabled = enabled
	}
	return nil
}

func (m *Manager) delay(name string) time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if state, ok := m.states[name]; ok {
		return state.delay
	}
	return 0
}

func (m *Manager) touch(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if state, ok := m.states[name]; ok {
		state.lastRun = time.Now()
	}
}

func logProviderError(msg, name string, err error, attrs ...any) {
	level := slog.LevelWarn
	if errors.Is(err, context.Canceled) {
		level = slog.LevelDebug
	}
	base := []any{
		slog.String("type", "error"),
		slog.String("provider", name),
		slog.Any("error", err),
	}
	slog.Log(context.Background(), level, msg, append(base, attrs...)...)
}
