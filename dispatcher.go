package focusx

import (
	"log/slog"
	"time"
)

// Dispatcher translates pick results into focus callbacks for one Registry.
// All methods must be called from the same goroutine.
type Dispatcher struct {
	reg       *Registry
	chart     *Chart
	threshold int
	frame     uint64

	log       *slog.Logger
	publisher Publisher
	cursor    func(bool)
	cursorOn  bool
	onMiss    func()
}

// NewDispatcher creates a Dispatcher serving reg.
func NewDispatcher(reg *Registry, opts ...Option) *Dispatcher {
	if reg == nil {
		reg = NewRegistry()
	}
	d := &Dispatcher{
		reg:       reg,
		threshold: DefaultDwellThreshold,
		log:       slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.chart = d.buildChart()
	return d
}

// buildChart wires the focus chart's actions to this dispatcher.
func (d *Dispatcher) buildChart() *Chart {
	unfocused := &State{ID: Unfocused}
	focused := &State{ID: Focused}

	dwellReached := func(f *Focusable, _ *Event) bool {
		return f.dwell > d.threshold
	}
	unfocused.On(EventHit, focused, dwellReached, nil)

	focused.On(EventHit, nil, nil, func(f *Focusable, evt *Event, _, _ StateID) {
		d.emit(KindSustained, f, f.callbacks.OnFocusSustained)
	})
	focused.On(EventMiss, unfocused, nil, func(f *Focusable, evt *Event, _, _ StateID) {
		d.emit(KindLost, f, f.callbacks.OnFocusLost)
	})

	focused.OnEntry(func(f *Focusable, evt *Event, _, _ StateID) {
		d.emit(KindGained, f, f.callbacks.OnFocusGained)
	})

	c, err := NewChart(unfocused, focused)
	if err != nil {
		panic("focusx: invalid focus chart: " + err.Error())
	}
	return c
}

// Registry returns the registry this dispatcher serves.
func (d *Dispatcher) Registry() *Registry {
	return d.reg
}

// Threshold returns the dwell threshold.
func (d *Dispatcher) Threshold() int {
	return d.threshold
}

// Frame returns the number of frames processed so far.
func (d *Dispatcher) Frame() uint64 {
	return d.frame
}

// Chart exposes the focus chart, mainly for visualization.
func (d *Dispatcher) Chart() *Chart {
	return d.chart
}

// ProcessFrame applies one frame of pick results.
//
// Entities absent from picks lose focus immediately and have their dwell reset.
// Entities present have their dwell incremented and gain focus once it exceeds
// the threshold; entities that already have focus get OnFocusSustained.
// Picked handles that are not registered are ignored.
func (d *Dispatcher) ProcessFrame(picks PickResult) {
	d.frame++
	hits := picks.index()
	entities := d.reg.Entities()

	for _, f := range entities {
		if f.registered && f.callbacks.OnStep != nil {
			f.callbacks.OnStep(f)
		}
	}

	// Losses first so a hand-off between two entities reports lost before gained.
	for _, f := range entities {
		if !f.registered {
			continue
		}
		if _, ok := hits[f.Handle]; ok {
			continue
		}
		f.dwell = 0
		d.chart.Send(f, &Event{ID: EventMiss})
	}

	for _, f := range entities {
		if !f.registered {
			continue
		}
		hit, ok := hits[f.Handle]
		if !ok {
			continue
		}
		f.dwell++
		f.lastHit = hit
		d.chart.Send(f, &Event{ID: EventHit, Hit: hit})
	}

	d.updateCursor()
}

// DispatchActivation runs h's OnActivate if h is registered and currently focused.
// It reports whether a callback ran.
func (d *Dispatcher) DispatchActivation(h Handle) bool {
	f, ok := d.reg.Lookup(h)
	if !ok || !f.HasFocus() || f.callbacks.OnActivate == nil {
		return false
	}
	d.emit(KindActivated, f, f.callbacks.OnActivate)
	return true
}

// ActivateFocused activates every visible focused entity. If none exists the
// miss handler runs instead. It returns the number of entities activated.
func (d *Dispatcher) ActivateFocused() int {
	targets := d.visibleFocused()
	if len(targets) == 0 {
		d.log.Debug("activation missed", "frame", d.frame)
		d.publish(FocusEvent{Kind: KindMiss, Frame: d.frame})
		if d.onMiss != nil {
			d.onMiss()
		}
		return 0
	}
	n := 0
	for _, f := range targets {
		if d.DispatchActivation(f.Handle) {
			n++
		}
	}
	return n
}

// DispatchGesture delivers g to every visible focused entity and returns how many received it.
func (d *Dispatcher) DispatchGesture(g Gesture) int {
	n := 0
	for _, f := range d.visibleFocused() {
		if !f.registered || f.callbacks.OnGesture == nil {
			continue
		}
		f.callbacks.OnGesture(f, g)
		d.publish(FocusEvent{Kind: KindGesture, Frame: d.frame, Handle: f.Handle, Name: f.Name, Hit: f.lastHit, Gesture: g})
		n++
	}
	return n
}

// DispatchButton delivers b to every visible focused entity and returns how many received it.
func (d *Dispatcher) DispatchButton(b ButtonEvent) int {
	n := 0
	for _, f := range d.visibleFocused() {
		if !f.registered || f.callbacks.OnButton == nil {
			continue
		}
		f.callbacks.OnButton(f, b)
		d.publish(FocusEvent{Kind: KindButton, Frame: d.frame, Handle: f.Handle, Name: f.Name, Hit: f.lastHit, Button: b})
		n++
	}
	return n
}

func (d *Dispatcher) visibleFocused() []*Focusable {
	var out []*Focusable
	for _, f := range d.reg.Focused() {
		if f.Visible {
			out = append(out, f)
		}
	}
	return out
}

// Snapshot captures the dispatcher and registry state.
func (d *Dispatcher) Snapshot(id string) Snapshot {
	return Snapshot{
		ID:        id,
		Frame:     d.frame,
		Threshold: d.threshold,
		Entities:  d.reg.Snapshot(),
		Timestamp: time.Now(),
	}
}

// emit runs cb (if any) and publishes the event.
func (d *Dispatcher) emit(kind EventKind, f *Focusable, cb func(*Focusable)) {
	d.log.Debug("focus event", "kind", string(kind), "entity", f.Name, "frame", d.frame, "dwell", f.dwell)
	if cb != nil {
		cb(f)
	}
	d.publish(FocusEvent{Kind: kind, Frame: d.frame, Handle: f.Handle, Name: f.Name, Hit: f.lastHit})
}

func (d *Dispatcher) publish(ev FocusEvent) {
	if d.publisher == nil {
		return
	}
	if err := d.publisher.Publish(ev); err != nil {
		d.log.Debug("publish focus event", "kind", string(ev.Kind), "err", err)
	}
}

func (d *Dispatcher) updateCursor() {
	on := false
	for _, f := range d.reg.Focused() {
		if f.ShowInteractiveCursor {
			on = true
			break
		}
	}
	if on == d.cursorOn {
		return
	}
	d.cursorOn = on
	if d.cursor != nil {
		d.cursor(on)
	}
}
