package statetree

import "github.com/aretw0/canopy/pkg/domain"

// System is the lifecycle contract every logic unit attached to a state
// implements. Init runs once during tree initialization, Shutdown once at
// teardown. Activate and Deactivate run every time the owning state joins
// or leaves the active branch.
type System interface {
	Init(ctx *InitContext) error
	Shutdown()
	Activate()
	Deactivate()
}

// Updater is implemented by systems that want the per-frame callback.
type Updater interface {
	Update(ctx *UpdateContext)
}

// PostUpdater is implemented by systems that want a second pass after every
// system on the active branch has updated.
type PostUpdater interface {
	PostUpdate(ctx *UpdateContext)
}

// PostActivator is implemented by systems that need to wire up against
// peers after the whole new branch has activated.
type PostActivator interface {
	PostActivate()
}

// ParamReceiver is implemented by systems whose type declares a parameter
// schema. Resolved values are assigned through it before Init runs.
type ParamReceiver interface {
	SetParam(name string, value any) error
}

// ParamSpec declares one injectable parameter of a system type.
type ParamSpec struct {
	// Name is the key looked up in the instance's declared params and
	// passed to ParamReceiver.SetParam.
	Name string

	// Resolver is the tag of the ParamResolver that turns the declared
	// value into a live one (see ResolverSystem, ResolverState).
	Resolver string

	// Default is assigned when the instance declares no value. A nil
	// default means the parameter is simply skipped.
	Default any
}

// Factory produces system instances and exposes their parameter schemas.
// registry.Registry is the standard implementation.
type Factory interface {
	// Create returns a fresh instance of the named type, or an error
	// wrapping domain.ErrUnknownType.
	Create(typeName string) (System, error)

	// Schema returns the parameter schema declared for the named type.
	// The second return is false when the type declares none.
	Schema(typeName string) ([]ParamSpec, bool)
}

// attachment binds a live system instance to its declaration. Optional
// capabilities are resolved here, once, instead of per call.
type attachment struct {
	name     string
	typeName string
	instance System
	params   map[string]any
	options  map[string]any

	update       func(*UpdateContext)
	postUpdate   func(*UpdateContext)
	postActivate func()
	setParam     func(string, any) error
}

func newAttachment(desc domain.SystemDescription, instance System) *attachment {
	att := &attachment{
		name:     desc.InstanceName(),
		typeName: desc.Type,
		instance: instance,
		params:   desc.Params,
		options:  desc.Options,
	}
	if u, ok := instance.(Updater); ok {
		att.update = u.Update
	}
	if pu, ok := instance.(PostUpdater); ok {
		att.postUpdate = pu.PostUpdate
	}
	if pa, ok := instance.(PostActivator); ok {
		att.postActivate = pa.PostActivate
	}
	if pr, ok := instance.(ParamReceiver); ok {
		att.setParam = pr.SetParam
	}
	return att
}
