package focusx

import (
	"log/slog"
	"time"
)

// LogCallbacks wraps every non-nil slot of cb with a debug record around the call.
// Nil slots stay nil, so wrapping does not change which callbacks exist.
func LogCallbacks(l *slog.Logger, cb Callbacks) Callbacks {
	if l == nil {
		l = slog.Default()
	}
	wrap := func(name string, fn func(*Focusable)) func(*Focusable) {
		if fn == nil {
			return nil
		}
		return func(f *Focusable) {
			start := time.Now()
			fn(f)
			l.Debug("callback", "slot", name, "entity", f.Name, "took", time.Since(start))
		}
	}

	out := Callbacks{
		OnFocusGained:    wrap("gained", cb.OnFocusGained),
		OnFocusLost:      wrap("lost", cb.OnFocusLost),
		OnFocusSustained: wrap("sustained", cb.OnFocusSustained),
		OnActivate:       wrap("activate", cb.OnActivate),
		OnStep:           wrap("step", cb.OnStep),
	}
	if cb.OnGesture != nil {
		out.OnGesture = func(f *Focusable, g Gesture) {
			cb.OnGesture(f, g)
			l.Debug("callback", "slot", "gesture", "entity", f.Name, "gesture", g.String())
		}
	}
	if cb.OnButton != nil {
		out.OnButton = func(f *Focusable, b ButtonEvent) {
			cb.OnButton(f, b)
			l.Debug("callback", "slot", "button", "entity", f.Name, "button", b.Button.String(), "phase", b.Phase.String())
		}
	}
	return out
}

// Merge combines callback tables. For each slot, every non-nil function runs in argument order.
func Merge(cbs ...Callbacks) Callbacks {
	var out Callbacks
	for _, cb := range cbs {
		out.OnFocusGained = chain(out.OnFocusGained, cb.OnFocusGained)
		out.OnFocusLost = chain(out.OnFocusLost, cb.OnFocusLost)
		out.OnFocusSustained = chain(out.OnFocusSustained, cb.OnFocusSustained)
		out.OnActivate = chain(out.OnActivate, cb.OnActivate)
		out.OnStep = chain(out.OnStep, cb.OnStep)
		if a, b := out.OnGesture, cb.OnGesture; b != nil {
			if a == nil {
				out.OnGesture = b
			} else {
				out.OnGesture = func(f *Focusable, g Gesture) { a(f, g); b(f, g) }
			}
		}
		if a, b := out.OnButton, cb.OnButton; b != nil {
			if a == nil {
				out.OnButton = b
			} else {
				out.OnButton = func(f *Focusable, e ButtonEvent) { a(f, e); b(f, e) }
			}
		}
	}
	return out
}

func chain(a, b func(*Focusable)) func(*Focusable) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(f *Focusable) {
		a(f)
		b(f)
	}
}
