package trace

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/comalice/focusx"
)

// Options customizes a replay.
type Options struct {
	Logger *slog.Logger
	// Publisher also receives every event, after the replay records it.
	Publisher focusx.Publisher
	// Callbacks supplies per-entity callbacks, e.g. from a script.
	Callbacks func(name string) focusx.Callbacks
	// Threshold is the dwell threshold for traces that do not set one.
	// Nil means focusx.DefaultDwellThreshold.
	Threshold *int
	// SnapshotID names the final snapshot; defaults to "replay".
	SnapshotID string
	// OnFrame, if set, runs before each frame with the frame's number.
	OnFrame func(frame uint64)
}

// Result is everything a replay produced.
type Result struct {
	Events   []focusx.FocusEvent
	Snapshot focusx.Snapshot
	// Cursor lists every interactive-cursor toggle in order.
	Cursor []bool
	Frames int
	// Dispatcher is the dispatcher the trace ran on, in its final state.
	Dispatcher *focusx.Dispatcher
}

// Count returns how many events of kind were recorded.
func (r *Result) Count(kind focusx.EventKind) int {
	n := 0
	for _, ev := range r.Events {
		if ev.Kind == kind {
			n++
		}
	}
	return n
}

type recorder struct {
	events []focusx.FocusEvent
	next   focusx.Publisher
}

func (r *recorder) Publish(ev focusx.FocusEvent) error {
	r.events = append(r.events, ev)
	if r.next != nil {
		return r.next.Publish(ev)
	}
	return nil
}

// listening gives every traced entity the input slots, so activations, gestures
// and buttons are recorded even without user callbacks.
var listening = focusx.Callbacks{
	OnActivate: func(*focusx.Focusable) {},
	OnGesture:  func(*focusx.Focusable, focusx.Gesture) {},
	OnButton:   func(*focusx.Focusable, focusx.ButtonEvent) {},
}

// Replay runs tr through a fresh registry and dispatcher. Handles are derived
// from entity names, so two replays of the same trace are identical apart from
// the snapshot timestamp.
func Replay(ctx context.Context, tr *Trace, opts Options) (*Result, error) {
	if err := tr.Validate(); err != nil {
		return nil, err
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.SnapshotID == "" {
		opts.SnapshotID = "replay"
	}

	res := &Result{}
	rec := &recorder{next: opts.Publisher}
	dopts := []focusx.Option{
		focusx.WithLogger(opts.Logger),
		focusx.WithPublisher(rec),
		focusx.WithCursor(func(on bool) { res.Cursor = append(res.Cursor, on) }),
	}
	switch {
	case tr.Threshold != nil:
		dopts = append(dopts, focusx.WithDwellThreshold(*tr.Threshold))
	case opts.Threshold != nil:
		dopts = append(dopts, focusx.WithDwellThreshold(*opts.Threshold))
	}
	d := focusx.NewDispatcher(focusx.NewRegistry(), dopts...)

	register := func(name string) {
		cb := listening
		if opts.Callbacks != nil {
			cb = focusx.Merge(listening, opts.Callbacks(name))
		}
		f := d.Registry().Register(focusx.HandleFor(name), name, cb)
		if e, ok := tr.Entity(name); ok && e.Cursor != nil {
			f.ShowInteractiveCursor = *e.Cursor
		}
	}
	for _, e := range tr.Entities {
		register(e.Name)
	}

	for i, f := range tr.Frames {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("replay frame %d: %w", i, err)
		}

		if opts.OnFrame != nil {
			opts.OnFrame(d.Frame() + 1)
		}

		for _, n := range f.Unregister {
			d.Registry().Unregister(focusx.HandleFor(n))
		}
		for _, n := range f.Register {
			register(n)
		}

		picks := make(focusx.PickResult, 0, len(f.Picks))
		for j, n := range f.Picks {
			picks = append(picks, focusx.Pick{
				Handle: focusx.HandleFor(n),
				Hit:    focusx.Hit{Distance: float32(j + 1)},
			})
		}
		d.ProcessFrame(picks)

		for _, n := range f.Activate {
			d.DispatchActivation(focusx.HandleFor(n))
		}
		if f.Click {
			d.ActivateFocused()
		}
		if f.Gesture != "" {
			g, _ := focusx.ParseGesture(f.Gesture)
			d.DispatchGesture(g)
		}
		if f.Button != nil {
			b, _ := f.Button.event()
			d.DispatchButton(b)
		}
		res.Frames++
	}

	res.Events = rec.events
	res.Dispatcher = d
	res.Snapshot = d.Snapshot(opts.SnapshotID)
	opts.Logger.Debug("replay finished", "frames", res.Frames, "events", len(res.Events))
	return res, nil
}
