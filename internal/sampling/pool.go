package sampling

import (
	"context"
	"log/slog"
	"sync"

	"github.com/DeusData/cypher-builder/internal/connection"
	"github.com/DeusData/cypher-builder/internal/metrics"
)

// Dialer opens a Runner for a connection.
type Dialer func(ctx context.Context, c connection.Connection) (Runner, error)

// DialNeo4j is the default Dialer.
func DialNeo4j(ctx context.Context, c connection.Connection) (Runner, error) {
	return Open(ctx, c)
}

type closer interface {
	Close(ctx context.Context) error
}

type poolEntry struct {
	runner  Runner
	sampler *Sampler
}

// Pool keeps one Runner and one Sampler per connection key, so the
// breaker state survives between calls.
type Pool struct {
	Dial    Dialer
	opts    Options
	metrics *metrics.Collector

	mu      sync.Mutex
	entries map[string]*poolEntry
}

// NewPool creates a pool that dials with DialNeo4j.
func NewPool(opts Options, m *metrics.Collector) *Pool {
	return &Pool{Dial: DialNeo4j, opts: opts, metrics: m, entries: make(map[string]*poolEntry)}
}

// Get returns the runner and sampler for c, dialing on first use.
func (p *Pool) Get(ctx context.Context, c connection.Connection) (Runner, *Sampler, error) {
	key := c.Key()
	p.mu.Lock()
	defer p.mu.Unlock()
	if e, ok := p.entries[key]; ok {
		return e.runner, e.sampler, nil
	}
	r, err := p.Dial(ctx, c)
	if err != nil {
		return nil, nil, err
	}
	s := NewSampler(r, p.opts)
	s.Metrics = p.metrics
	s.Progress = func(step int, msg string) {
		slog.Info("sampling.progress", "connection", key, "step", step, "msg", msg)
	}
	p.entries[key] = &poolEntry{runner: r, sampler: s}
	slog.Info("sampling.dial", "connection", key)
	return r, s, nil
}

// Forget closes and drops the runner for key.
func (p *Pool) Forget(ctx context.Context, key string) {
	p.mu.Lock()
	e, ok := p.entries[key]
	delete(p.entries, key)
	p.mu.Unlock()
	if ok {
		closeRunner(ctx, key, e.runner)
	}
}

// Close closes every runner.
func (p *Pool) Close(ctx context.Context) {
	p.mu.Lock()
	entries := p.entries
	p.entries = make(map[string]*poolEntry)
	p.mu.Unlock()
	for key, e := range entries {
		closeRunner(ctx, key, e.runner)
	}
}

func closeRunner(ctx context.Context, key string, r Runner) {
	c, ok := r.(closer)
	if !ok {
		return
	}
	if err := c.Close(ctx); err != nil {
		slog.Warn("sampling.close", "connection", key, "err", err)
	}
}
