package canopy

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/canopy/internal/logging"
	"github.com/aretw0/canopy/pkg/domain"
	"github.com/aretw0/canopy/pkg/eventbus"
	"github.com/aretw0/canopy/pkg/ports"
	"github.com/aretw0/canopy/pkg/statetree"
)

// Event names published on the engine's bus (when one is configured).
const (
	EventStateEnter = "canopy.state.enter"
	EventStateExit  = "canopy.state.exit"
	EventTransition = "canopy.transition"
)

// Engine is the high-level entry point for the Canopy library. It wraps
// the state tree core and provides a simplified API for consumers.
type Engine struct {
	tree        *statetree.Tree
	factory     statetree.Factory
	loader      ports.DescriptionLoader
	treeName    string
	description *domain.TreeDescription
	resolvers   *statetree.Resolvers
	hooks       domain.LifecycleHooks
	bus         *eventbus.Bus
	logger      *slog.Logger
	initialized bool
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithFactory sets the system factory. Required.
func WithFactory(factory statetree.Factory) Option {
	return func(e *Engine) {
		e.factory = factory
	}
}

// WithDescription supplies the tree description directly.
func WithDescription(desc *domain.TreeDescription) Option {
	return func(e *Engine) {
		e.description = desc
	}
}

// WithLoader supplies a loader and the name of the tree to load.
// Ignored when WithDescription is also given.
func WithLoader(loader ports.DescriptionLoader, treeName string) Option {
	return func(e *Engine) {
		e.loader = loader
		e.treeName = treeName
	}
}

// WithResolvers sets the parameter resolver registry.
func WithResolvers(r *statetree.Resolvers) Option {
	return func(e *Engine) {
		e.resolvers = r
	}
}

// WithHooks registers observability hooks.
func WithHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithEventBus publishes lifecycle events on the given bus under the
// Event* names in addition to invoking any configured hooks.
func WithEventBus(bus *eventbus.Bus) Option {
	return func(e *Engine) {
		e.bus = bus
	}
}

// WithLogger sets the engine logger. Defaults to a no-op logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// New builds an Engine and its underlying tree. The tree's default
// transition stays pending until Init is called.
func New(opts ...Option) (*Engine, error) {
	e := &Engine{logger: logging.NewNop()}
	for _, opt := range opts {
		opt(e)
	}

	if e.factory == nil {
		return nil, fmt.Errorf("%w: a system factory is required", domain.ErrConfiguration)
	}
	if e.description == nil {
		if e.loader == nil {
			return nil, fmt.Errorf("%w: a description or a loader is required", domain.ErrConfiguration)
		}
		desc, err := e.loader.Load(e.treeName)
		if err != nil {
			return nil, err
		}
		e.description = desc
	}

	treeOpts := []statetree.Option{
		statetree.WithHooks(e.buildHooks()),
		statetree.WithLogger(e.logger),
	}
	if e.resolvers != nil {
		treeOpts = append(treeOpts, statetree.WithResolvers(e.resolvers))
	}

	tree, err := statetree.New(e.factory, e.description, treeOpts...)
	if err != nil {
		return nil, err
	}
	e.tree = tree
	return e, nil
}

// buildHooks chains the user hooks with event-bus publication.
func (e *Engine) buildHooks() domain.LifecycleHooks {
	user := e.hooks
	if e.bus == nil {
		return user
	}
	return domain.LifecycleHooks{
		OnStateEnter: func(ev *domain.StateEvent) {
			e.bus.Publish(EventStateEnter, ev)
			if user.OnStateEnter != nil {
				user.OnStateEnter(ev)
			}
		},
		OnStateExit: func(ev *domain.StateEvent) {
			e.bus.Publish(EventStateExit, ev)
			if user.OnStateExit != nil {
				user.OnStateExit(ev)
			}
		},
		OnTransition: func(ev *domain.TransitionEvent) {
			e.bus.Publish(EventTransition, ev)
			if user.OnTransition != nil {
				user.OnTransition(ev)
			}
		},
	}
}

// Init runs the one-time initialization pass and commits the default
// transition. Calling it twice is an error.
func (e *Engine) Init() error {
	if e.initialized {
		return fmt.Errorf("%w: engine already initialized", domain.ErrConfiguration)
	}
	if err := e.tree.Init(statetree.NewInitContext()); err != nil {
		return err
	}
	e.initialized = true
	return nil
}

// Initialized reports whether Init has completed.
func (e *Engine) Initialized() bool { return e.initialized }

// Update drives one frame with the given elapsed time.
func (e *Engine) Update(delta time.Duration) error {
	return e.tree.Update(statetree.NewUpdateContext(delta))
}

// Request records a deferred transition to the named leaf. It is applied
// at the next commit point (Update or Commit).
func (e *Engine) Request(name string) error {
	return e.tree.RequestTransition(name)
}

// Commit applies any pending transition immediately.
func (e *Engine) Commit() error {
	return e.tree.Commit()
}

// Active returns the name of the active leaf, or "" before the first commit.
func (e *Engine) Active() string {
	if node := e.tree.Active(); node != nil {
		return node.Name()
	}
	return ""
}

// ActivePath returns the active branch names, leaf first.
func (e *Engine) ActivePath() []string {
	return e.tree.ActivePath()
}

// Tree exposes the underlying state tree for advanced integrations.
func (e *Engine) Tree() *statetree.Tree { return e.tree }

// Description returns the tree description the engine was built from.
func (e *Engine) Description() *domain.TreeDescription { return e.description }

// Teardown destroys the tree. The engine must not be used afterwards.
func (e *Engine) Teardown() {
	e.tree.Teardown()
}
