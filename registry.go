package focusx

import "time"

// Callbacks is the capability table of one entity. A nil slot is a no-op.
type Callbacks struct {
	OnFocusGained    func(f *Focusable)
	OnFocusLost      func(f *Focusable)
	OnFocusSustained func(f *Focusable)
	OnActivate       func(f *Focusable)
	OnGesture        func(f *Focusable, g Gesture)
	OnButton         func(f *Focusable, b ButtonEvent)
	// OnStep runs once per processed frame before focus is updated.
	OnStep func(f *Focusable)
}

// Focusable is the registry's record of one entity.
type Focusable struct {
	Handle Handle
	Name   string
	// ShowInteractiveCursor makes the cursor hook report true while this entity has focus.
	ShowInteractiveCursor bool
	// Visible entities receive clicks, gestures and buttons sent to the focused set.
	// Hidden entities keep their focus state but are skipped by those dispatches.
	Visible bool

	callbacks  Callbacks
	state      StateID
	dwell      int
	lastHit    Hit
	registered bool
}

// HasFocus reports whether the entity is in the Focused state.
func (f *Focusable) HasFocus() bool {
	return f.state == Focused
}

// State returns the entity's current chart state.
func (f *Focusable) State() StateID {
	return f.state
}

// Dwell is the number of consecutive frames the entity has been hit.
func (f *Focusable) Dwell() int {
	return f.dwell
}

// LastHit is the hit metadata from the most recent frame the entity was picked.
func (f *Focusable) LastHit() Hit {
	return f.lastHit
}

// Registered reports whether the entity is still in its registry.
func (f *Focusable) Registered() bool {
	return f.registered
}

// Registry is the set of focusable entities a Dispatcher serves.
// It is not safe for concurrent use.
type Registry struct {
	byHandle map[Handle]*Focusable
	order    []*Focusable
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{byHandle: make(map[Handle]*Focusable)}
}

// Register adds h with the given callbacks, starting Unfocused.
// Registering a known handle replaces its name and callbacks and keeps its focus state.
func (r *Registry) Register(h Handle, name string, cb Callbacks) *Focusable {
	if f, ok := r.byHandle[h]; ok {
		f.Name = name
		f.callbacks = cb
		return f
	}
	f := &Focusable{
		Handle:                h,
		Name:                  name,
		ShowInteractiveCursor: true,
		Visible:               true,
		callbacks:             cb,
		state:                 Unfocused,
		registered:            true,
	}
	r.byHandle[h] = f
	r.order = append(r.order, f)
	return f
}

// Unregister removes h. No callback fires, even if h had focus.
// Returns false if h was not registered.
func (r *Registry) Unregister(h Handle) bool {
	f, ok := r.byHandle[h]
	if !ok {
		return false
	}
	delete(r.byHandle, h)
	f.registered = false
	for i, e := range r.order {
		if e == f {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true
}

// Lookup returns the entity registered under h.
func (r *Registry) Lookup(h Handle) (*Focusable, bool) {
	f, ok := r.byHandle[h]
	return f, ok
}

// Len returns the number of registered entities.
func (r *Registry) Len() int {
	return len(r.order)
}

// Entities returns the registered entities in registration order.
// The slice is a copy; registry changes do not affect it.
func (r *Registry) Entities() []*Focusable {
	out := make([]*Focusable, len(r.order))
	copy(out, r.order)
	return out
}

// Focused returns the entities that currently hold focus, in registration order.
func (r *Registry) Focused() []*Focusable {
	var out []*Focusable
	for _, f := range r.order {
		if f.HasFocus() {
			out = append(out, f)
		}
	}
	return out
}

// EntitySnapshot is the serializable state of one entity.
type EntitySnapshot struct {
	Handle  Handle `json:"handle" yaml:"handle"`
	Name    string `json:"name" yaml:"name"`
	Focused bool   `json:"focused" yaml:"focused"`
	Dwell   int    `json:"dwell" yaml:"dwell"`
}

// Snapshot is the serializable state of a dispatcher and its registry.
type Snapshot struct {
	ID        string           `json:"id" yaml:"id"`
	Frame     uint64           `json:"frame" yaml:"frame"`
	Threshold int              `json:"threshold" yaml:"threshold"`
	Entities  []EntitySnapshot `json:"entities" yaml:"entities"`
	Timestamp time.Time        `json:"timestamp" yaml:"timestamp"`
}

// Snapshot captures every registered entity in registration order.
func (r *Registry) Snapshot() []EntitySnapshot {
	out := make([]EntitySnapshot, 0, len(r.order))
	for _, f := range r.order {
		out = append(out, EntitySnapshot{
			Handle:  f.Handle,
			Name:    f.Name,
			Focused: f.HasFocus(),
			Dwell:   f.dwell,
		})
	}
	return out
}
