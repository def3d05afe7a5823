package testutil

import (
	"context"

	"github.com/comalice/focusx"
	"github.com/comalice/focusx/realtime"
)

// DispatcherAdapter provides a common interface for driving a Dispatcher
// directly and through the tick-based runtime.
// This allows running the same scenario on both and comparing the callbacks.
type DispatcherAdapter interface {
	Register(h focusx.Handle, name string, cb focusx.Callbacks)
	Unregister(h focusx.Handle)
	// Frame runs one frame: picks, then the queued input.
	Frame(picks focusx.PickResult)
	Activate(h focusx.Handle)
	ActivateFocused()
	Gesture(g focusx.Gesture)
	Dispatcher() *focusx.Dispatcher
}

// DirectAdapter calls the Dispatcher on the caller's goroutine. Registry
// changes apply immediately; input is held until after the next frame's picks,
// matching the runtime's ordering.
type DirectAdapter struct {
	d       *focusx.Dispatcher
	pending []func()
}

// NewDirectAdapter creates an adapter over a fresh dispatcher.
func NewDirectAdapter(opts ...focusx.Option) *DirectAdapter {
	return &DirectAdapter{d: focusx.NewDispatcher(focusx.NewRegistry(), opts...)}
}

func (a *DirectAdapter) Register(h focusx.Handle, name string, cb focusx.Callbacks) {
	a.d.Registry().Register(h, name, cb)
}

func (a *DirectAdapter) Unregister(h focusx.Handle) {
	a.d.Registry().Unregister(h)
}

func (a *DirectAdapter) Frame(picks focusx.PickResult) {
	a.d.ProcessFrame(picks)
	for _, fn := range a.pending {
		fn()
	}
	a.pending = a.pending[:0]
}

func (a *DirectAdapter) Activate(h focusx.Handle) {
	a.pending = append(a.pending, func() { a.d.DispatchActivation(h) })
}

func (a *DirectAdapter) ActivateFocused() {
	a.pending = append(a.pending, func() { a.d.ActivateFocused() })
}

func (a *DirectAdapter) Gesture(g focusx.Gesture) {
	a.pending = append(a.pending, func() { a.d.DispatchGesture(g) })
}

func (a *DirectAdapter) Dispatcher() *focusx.Dispatcher {
	return a.d
}

// TickBasedAdapter queues everything as runtime commands and runs one Step per frame.
type TickBasedAdapter struct {
	d   *focusx.Dispatcher
	rt  *realtime.Runtime
	src *realtime.StaticPickSource
}

// NewTickBasedAdapter creates an adapter over a fresh dispatcher and runtime.
func NewTickBasedAdapter(opts ...focusx.Option) *TickBasedAdapter {
	d := focusx.NewDispatcher(focusx.NewRegistry(), opts...)
	src := &realtime.StaticPickSource{}
	return &TickBasedAdapter{
		d:   d,
		rt:  realtime.NewRuntime(d, src, realtime.Config{}),
		src: src,
	}
}

// Register takes effect at the start of the next Frame, before its picks.
func (a *TickBasedAdapter) Register(h focusx.Handle, name string, cb focusx.Callbacks) {
	_ = a.rt.Register(h, name, cb, nil)
}

func (a *TickBasedAdapter) Unregister(h focusx.Handle) {
	_ = a.rt.Unregister(h)
}

func (a *TickBasedAdapter) Frame(picks focusx.PickResult) {
	a.src.Set(picks)
	a.rt.Step(context.Background())
}

func (a *TickBasedAdapter) Activate(h focusx.Handle) {
	_ = a.rt.Activate(h)
}

func (a *TickBasedAdapter) ActivateFocused() {
	_ = a.rt.ActivateFocused()
}

func (a *TickBasedAdapter) Gesture(g focusx.Gesture) {
	_ = a.rt.Gesture(g)
}

func (a *TickBasedAdapter) Dispatcher() *focusx.Dispatcher {
	return a.d
}
