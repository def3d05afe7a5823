package focusx

import "log/slog"

// Option applies configuration to a Dispatcher via the functional options pattern.
type Option func(*Dispatcher)

// DefaultDwellThreshold requires a hit on two consecutive frames before focus.
const DefaultDwellThreshold = 1

// WithDwellThreshold sets how many consecutive hit frames must be exceeded before
// focus is gained. Negative values are treated as 0.
func WithDwellThreshold(n int) Option {
	return func(d *Dispatcher) {
		if n < 0 {
			n = 0
		}
		d.threshold = n
	}
}

// WithLogger configures the logger for transition records.
func WithLogger(l *slog.Logger) Option {
	return func(d *Dispatcher) {
		if l != nil {
			d.log = l
		}
	}
}

// WithPublisher forwards every emitted FocusEvent to p.
func WithPublisher(p Publisher) Option {
	return func(d *Dispatcher) {
		d.publisher = p
	}
}

// WithCursor registers a hook called whenever the interactive-cursor state changes.
// The state is true while any focused entity has ShowInteractiveCursor set.
func WithCursor(fn func(interactive bool)) Option {
	return func(d *Dispatcher) {
		d.cursor = fn
	}
}

// WithMissHandler registers the handler ActivateFocused calls when nothing has focus.
func WithMissHandler(fn func()) Option {
	return func(d *Dispatcher) {
		d.onMiss = fn
	}
}
