// Package session manages the running contexts of many concurrent players:
// one state tree per session, with optional snapshot persistence so a
// session can resume after a server restart.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/aretw0/canopy/internal/logging"
	"github.com/aretw0/canopy/pkg/domain"
	"github.com/aretw0/canopy/pkg/observability"
	"github.com/aretw0/canopy/pkg/ports"
	"github.com/aretw0/canopy/pkg/statetree"
)

// session pairs a live tree with its own lock. Tree operations are
// single-threaded by contract; the lock serializes callers per session.
type session struct {
	mu       sync.Mutex
	tree     *statetree.Tree
	treeName string
}

// Manager creates, drives, and persists sessions.
type Manager struct {
	loader    ports.DescriptionLoader
	factory   statetree.Factory
	store     ports.SnapshotStore
	resolvers *statetree.Resolvers
	hooks     domain.LifecycleHooks
	metrics   *observability.Metrics
	logger    *slog.Logger

	mu       sync.Mutex
	sessions map[string]*session
}

// Option configures the Manager.
type Option func(*Manager)

// WithStore enables snapshot persistence.
func WithStore(store ports.SnapshotStore) Option {
	return func(m *Manager) {
		m.store = store
	}
}

// WithResolvers sets the parameter resolver registry for new trees.
func WithResolvers(r *statetree.Resolvers) Option {
	return func(m *Manager) {
		m.resolvers = r
	}
}

// WithHooks registers lifecycle hooks installed on every new tree.
func WithHooks(hooks domain.LifecycleHooks) Option {
	return func(m *Manager) {
		m.hooks = hooks
	}
}

// WithMetrics enables Prometheus instrumentation.
func WithMetrics(metrics *observability.Metrics) Option {
	return func(m *Manager) {
		m.metrics = metrics
	}
}

// WithLogger configures a logger for deferred errors.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager creates a session manager over a description loader and a
// system factory.
func NewManager(loader ports.DescriptionLoader, factory statetree.Factory, opts ...Option) *Manager {
	m := &Manager{
		loader:   loader,
		factory:  factory,
		logger:   logging.NewNop(),
		sessions: make(map[string]*session),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// buildTree constructs and initializes a tree. A non-empty initialState
// overwrites the pending default transition before Init commits, so the
// init commit enters initialState directly and the default leaf's systems
// never activate.
func (m *Manager) buildTree(treeName, initialState string) (*statetree.Tree, error) {
	desc, err := m.loader.Load(treeName)
	if err != nil {
		return nil, err
	}

	var treeOpts []statetree.Option
	if m.resolvers != nil {
		treeOpts = append(treeOpts, statetree.WithResolvers(m.resolvers))
	}
	treeOpts = append(treeOpts, statetree.WithHooks(m.mergedHooks()), statetree.WithLogger(m.logger))

	tree, err := statetree.New(m.factory, desc, treeOpts...)
	if err != nil {
		return nil, err
	}
	if initialState != "" {
		if err := tree.RequestTransition(initialState); err != nil {
			return nil, err
		}
	}
	if err := tree.Init(statetree.NewInitContext()); err != nil {
		return nil, err
	}
	return tree, nil
}

// mergedHooks chains the caller's hooks with the metrics hooks.
func (m *Manager) mergedHooks() domain.LifecycleHooks {
	hooks := m.hooks
	if m.metrics == nil {
		return hooks
	}
	metricHooks := m.metrics.Hooks()
	user := hooks.OnTransition
	hooks.OnTransition = func(e *domain.TransitionEvent) {
		metricHooks.OnTransition(e)
		if user != nil {
			user(e)
		}
	}
	return hooks
}

// Create builds a new session for the named tree, initializes it, and
// persists the first snapshot. It returns the session ID.
func (m *Manager) Create(ctx context.Context, treeName string) (string, *domain.Snapshot, error) {
	tree, err := m.buildTree(treeName, "")
	if err != nil {
		return "", nil, err
	}

	id := uuid.NewString()
	s := &session{tree: tree, treeName: treeName}

	m.mu.Lock()
	m.sessions[id] = s
	m.mu.Unlock()

	if m.metrics != nil {
		m.metrics.SessionOpened()
	}

	snap := snapshotOf(s)
	m.persist(ctx, id, snap)
	return id, snap, nil
}

// Resume rebuilds a session from its persisted snapshot under the same ID.
// The rebuilt tree enters the persisted leaf directly; the description's
// default state does not activate in between.
func (m *Manager) Resume(ctx context.Context, sessionID string) (*domain.Snapshot, error) {
	if m.store == nil {
		return nil, fmt.Errorf("resume %q: no snapshot store configured", sessionID)
	}
	snap, err := m.store.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	tree, err := m.buildTree(snap.Tree, snap.ActiveState)
	if err != nil {
		return nil, err
	}

	s := &session{tree: tree, treeName: snap.Tree}
	m.mu.Lock()
	m.sessions[sessionID] = s
	m.mu.Unlock()

	if m.metrics != nil {
		m.metrics.SessionOpened()
	}
	return snapshotOf(s), nil
}

// Get returns the current snapshot of a live session.
func (m *Manager) Get(sessionID string) (*domain.Snapshot, error) {
	s, err := m.lookup(sessionID)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return snapshotOf(s), nil
}

// Advance drives one frame of the session's tree.
func (m *Manager) Advance(ctx context.Context, sessionID string, delta time.Duration) (*domain.Snapshot, error) {
	s, err := m.lookup(sessionID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	if err := s.tree.Update(statetree.NewUpdateContext(delta)); err != nil {
		return nil, err
	}
	if m.metrics != nil {
		m.metrics.ObserveUpdate(time.Since(start))
	}

	snap := snapshotOf(s)
	m.persist(ctx, sessionID, snap)
	return snap, nil
}

// RequestTransition applies an out-of-band transition request. The manager
// is the host's cooperative step for external callers, so the request is
// committed here rather than waiting for the next Advance.
func (m *Manager) RequestTransition(ctx context.Context, sessionID, state string) (*domain.Snapshot, error) {
	s, err := m.lookup(sessionID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.tree.RequestTransition(state); err != nil {
		return nil, err
	}
	if err := s.tree.Commit(); err != nil {
		return nil, err
	}

	snap := snapshotOf(s)
	m.persist(ctx, sessionID, snap)
	return snap, nil
}

// End tears the session down and deletes its snapshot.
func (m *Manager) End(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	s, ok := m.sessions[sessionID]
	delete(m.sessions, sessionID)
	m.mu.Unlock()

	if !ok {
		return domain.ErrSessionNotFound
	}

	s.mu.Lock()
	s.tree.Teardown()
	s.mu.Unlock()

	if m.metrics != nil {
		m.metrics.SessionClosed()
	}
	if m.store != nil {
		if err := m.store.Delete(ctx, sessionID); err != nil {
			m.logger.Warn("failed to delete session snapshot", "session", sessionID, "err", err)
		}
	}
	return nil
}

// List returns the IDs of live sessions.
func (m *Manager) List() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	return ids
}

func (m *Manager) lookup(sessionID string) (*session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[sessionID]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return s, nil
}

// persist saves a snapshot, logging instead of failing: persistence is
// best-effort and must not break a running session.
func (m *Manager) persist(ctx context.Context, sessionID string, snap *domain.Snapshot) {
	if m.store == nil {
		return
	}
	if err := m.store.Save(ctx, sessionID, snap); err != nil {
		m.logger.Warn("failed to persist session snapshot", "session", sessionID, "err", err)
	}
}

func snapshotOf(s *session) *domain.Snapshot {
	snap := &domain.Snapshot{
		Tree:      s.treeName,
		UpdatedAt: time.Now().UTC(),
	}
	if active := s.tree.Active(); active != nil {
		snap.ActiveState = active.Name()
	}
	return snap
}
