// Package script binds Lua functions to focus callbacks.
//
// A script defines any of these globals:
//
//	on_focus_gained(name)
//	on_focus_lost(name)
//	on_focus_sustained(name, dwell)
//	on_activate(name)
//	on_gesture(name, direction)
//	on_button(name, button, phase)
//
// and may call focusx.log(msg) or read focusx.frame.
//
// gopher-lua's LState is not goroutine-safe: a Behavior must only be used from
// the goroutine that drives the Dispatcher.
package script

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	lua "github.com/yuin/gopher-lua"

	"github.com/comalice/focusx"
)

var ErrClosed = errors.New("script closed")

const (
	fnGained    = "on_focus_gained"
	fnLost      = "on_focus_lost"
	fnSustained = "on_focus_sustained"
	fnActivate  = "on_activate"
	fnGesture   = "on_gesture"
	fnButton    = "on_button"
)

// Behavior is a loaded script.
type Behavior struct {
	L      *lua.LState
	log    *slog.Logger
	name   string
	errs   int
	closed bool
}

// Option configures a Behavior.
type Option func(*Behavior)

// WithLogger sets the logger used for focusx.log and for script errors.
func WithLogger(l *slog.Logger) Option {
	return func(b *Behavior) {
		b.log = l
	}
}

// WithName labels log lines, usually with the script's file name.
func WithName(name string) Option {
	return func(b *Behavior) {
		b.name = name
	}
}

// Load compiles and runs src once so it can define its handlers.
func Load(src string, opts ...Option) (*Behavior, error) {
	b := &Behavior{log: slog.Default(), name: "script"}
	for _, opt := range opts {
		opt(b)
	}

	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	// Only the libraries a handler needs; no io, os or package.
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)
	b.L = L
	b.installAPI()

	if err := b.protect(func() error { return L.DoString(src) }); err != nil {
		L.Close()
		return nil, fmt.Errorf("load %s: %w", b.name, err)
	}
	return b, nil
}

// LoadFile reads and loads a script file.
func LoadFile(path string, opts ...Option) (*Behavior, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}
	return Load(string(src), append([]Option{WithName(path)}, opts...)...)
}

// installAPI exposes the focusx table to scripts.
func (b *Behavior) installAPI() {
	mod := b.L.NewTable()
	b.L.SetField(mod, "log", b.L.NewFunction(func(L *lua.LState) int {
		b.log.Info(L.CheckString(1), "script", b.name)
		return 0
	}))
	b.L.SetField(mod, "frame", lua.LNumber(0))
	b.L.SetGlobal("focusx", mod)
}

// SetFrame updates focusx.frame as seen by the script.
func (b *Behavior) SetFrame(frame uint64) {
	if b.closed {
		return
	}
	if mod, ok := b.L.GetGlobal("focusx").(*lua.LTable); ok {
		b.L.SetField(mod, "frame", lua.LNumber(frame))
	}
}

// Has reports whether the script defines the global function fn.
func (b *Behavior) Has(fn string) bool {
	if b.closed {
		return false
	}
	return b.L.GetGlobal(fn).Type() == lua.LTFunction
}

// Errors returns how many handler calls have failed.
func (b *Behavior) Errors() int {
	return b.errs
}

// Callbacks binds the script's handlers for the entity called name. Slots whose
// handler the script does not define stay nil.
func (b *Behavior) Callbacks(name string) focusx.Callbacks {
	var cb focusx.Callbacks
	arg := lua.LString(name)

	if b.Has(fnGained) {
		cb.OnFocusGained = func(*focusx.Focusable) { b.call(fnGained, arg) }
	}
	if b.Has(fnLost) {
		cb.OnFocusLost = func(*focusx.Focusable) { b.call(fnLost, arg) }
	}
	if b.Has(fnSustained) {
		cb.OnFocusSustained = func(f *focusx.Focusable) { b.call(fnSustained, arg, lua.LNumber(f.Dwell())) }
	}
	if b.Has(fnActivate) {
		cb.OnActivate = func(*focusx.Focusable) { b.call(fnActivate, arg) }
	}
	if b.Has(fnGesture) {
		cb.OnGesture = func(_ *focusx.Focusable, g focusx.Gesture) {
			b.call(fnGesture, arg, lua.LString(g.String()))
		}
	}
	if b.Has(fnButton) {
		cb.OnButton = func(_ *focusx.Focusable, e focusx.ButtonEvent) {
			b.call(fnButton, arg, lua.LString(e.Button.String()), lua.LString(e.Phase.String()))
		}
	}
	return cb
}

// call runs a handler. Failures are logged and counted, never returned.
func (b *Behavior) call(fn string, args ...lua.LValue) {
	if b.closed {
		return
	}
	err := b.protect(func() error {
		return b.L.CallByParam(lua.P{
			Fn:      b.L.GetGlobal(fn),
			NRet:    0,
			Protect: true,
		}, args...)
	})
	if err != nil {
		b.errs++
		b.log.Warn("script handler failed", "script", b.name, "handler", fn, "err", err)
	}
}

func (b *Behavior) protect(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("lua panic: %v", r)
		}
	}()
	return fn()
}

// Close releases the Lua state. Callbacks bound earlier become no-ops.
func (b *Behavior) Close() error {
	if b.closed {
		return ErrClosed
	}
	b.closed = true
	b.L.Close()
	return nil
}
