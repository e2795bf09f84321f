// Package systems ships the built-in system types used by the CLI, the
// examples, and as reference implementations of the system contract.
package systems

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/aretw0/canopy/pkg/eventbus"
	"github.com/aretw0/canopy/pkg/registry"
	"github.com/aretw0/canopy/pkg/statetree"
)

// Built-in type names.
const (
	TypeLogger   = "logger"
	TypeCounter  = "counter"
	TypeSwitcher = "switcher"
)

// Event published by counters on every update when configured.
const EventCounterTick = "counter.tick"

// Register adds the built-in system types to the registry. The logger and
// bus are shared by every instance created afterwards; pass nil for either
// to disable that facility.
func Register(reg *registry.Registry, logger *slog.Logger, bus *eventbus.Bus) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	reg.Register(TypeLogger, func() statetree.System {
		return &Logger{logger: logger}
	})
	reg.Register(TypeCounter, func() statetree.System {
		return &Counter{bus: bus}
	})
	reg.Register(TypeSwitcher, func() statetree.System {
		return &Switcher{}
	},
		statetree.ParamSpec{Name: "target", Resolver: statetree.ResolverState},
		statetree.ParamSpec{Name: "counter", Resolver: statetree.ResolverSystem},
	)
}

// Logger logs its lifecycle, tagging entries with the owning state.
// Options: {"label": string}.
type Logger struct {
	logger *slog.Logger
	label  string
	state  string
}

type loggerOptions struct {
	Label string `mapstructure:"label"`
}

func (l *Logger) Init(ctx *statetree.InitContext) error {
	var opts loggerOptions
	if err := registry.DecodeOptions(ctx.Options(), &opts); err != nil {
		return err
	}
	l.label = opts.Label
	l.state = ctx.Node().Name()
	return nil
}

func (l *Logger) Shutdown() {}

func (l *Logger) Activate() {
	l.logger.Info("state active", "state", l.state, "label", l.label)
}

func (l *Logger) Deactivate() {
	l.logger.Info("state inactive", "state", l.state, "label", l.label)
}

func (l *Logger) Update(ctx *statetree.UpdateContext) {
	l.logger.Debug("state update", "state", l.state, "delta", ctx.Delta)
}

// Counter counts frames while its state is active and optionally publishes
// each tick on the event bus. Options: {"event": string}.
type Counter struct {
	bus    *eventbus.Bus
	event  string
	state  string
	active bool
	count  int
}

type counterOptions struct {
	Event string `mapstructure:"event"`
}

// CounterTick is the payload published on every counted frame.
type CounterTick struct {
	State string
	Count int
	Delta time.Duration
}

func (c *Counter) Init(ctx *statetree.InitContext) error {
	var opts counterOptions
	if err := registry.DecodeOptions(ctx.Options(), &opts); err != nil {
		return err
	}
	c.event = opts.Event
	c.state = ctx.Node().Name()
	return nil
}

func (c *Counter) Shutdown()   {}
func (c *Counter) Activate()   { c.active = true }
func (c *Counter) Deactivate() { c.active = false }

func (c *Counter) Update(ctx *statetree.UpdateContext) {
	c.count++
	if c.bus != nil && c.event != "" {
		c.bus.Publish(c.event, CounterTick{State: c.state, Count: c.count, Delta: ctx.Delta})
	}
}

// Count returns the number of frames counted so far.
func (c *Counter) Count() int { return c.count }

// Switcher requests a transition to its target leaf after a configured
// number of frames. Params: target (state ref), counter (optional system
// ref, validated to be a Counter). Options: {"after": int}.
type Switcher struct {
	target  *statetree.TransitionHandle
	counter *Counter
	after   int
	seen    int
}

type switcherOptions struct {
	After int `mapstructure:"after"`
}

func (s *Switcher) SetParam(name string, value any) error {
	switch name {
	case "target":
		handle, ok := value.(*statetree.TransitionHandle)
		if !ok {
			return fmt.Errorf("target: expected transition handle, got %T", value)
		}
		s.target = handle
	case "counter":
		counter, ok := value.(*Counter)
		if !ok {
			return fmt.Errorf("counter: expected counter system, got %T", value)
		}
		s.counter = counter
	default:
		return fmt.Errorf("unknown parameter %q", name)
	}
	return nil
}

func (s *Switcher) Init(ctx *statetree.InitContext) error {
	var opts switcherOptions
	if err := registry.DecodeOptions(ctx.Options(), &opts); err != nil {
		return err
	}
	s.after = opts.After
	if s.after <= 0 {
		s.after = 1
	}
	if s.target == nil {
		return fmt.Errorf("switcher in state %q has no target", ctx.Node().Name())
	}
	return nil
}

func (s *Switcher) Shutdown()   {}
func (s *Switcher) Activate()   { s.seen = 0 }
func (s *Switcher) Deactivate() {}

func (s *Switcher) Update(ctx *statetree.UpdateContext) {
	s.seen++
	if s.seen >= s.after {
		// Errors here mean the target vanished; the resolver validated it
		// at init, so a failed request is a programming error upstream.
		_ = s.target.Apply()
	}
}
