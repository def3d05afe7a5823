package focusx

import (
	"errors"
	"fmt"
	"sort"
)

type StateID int
type EventID int

const (
	Unfocused StateID = iota
	Focused
)

func (s StateID) String() string {
	switch s {
	case Unfocused:
		return "unfocused"
	case Focused:
		return "focused"
	}
	return fmt.Sprintf("StateID(%d)", int(s))
}

const (
	EventHit EventID = iota + 1
	EventMiss
)

func (e EventID) String() string {
	switch e {
	case EventHit:
		return "hit"
	case EventMiss:
		return "miss"
	}
	return fmt.Sprintf("EventID(%d)", int(e))
}

// Event drives one entity's chart. Hit is zero for EventMiss.
type Event struct {
	ID  EventID
	Hit Hit
}

type Action func(f *Focusable, evt *Event, from StateID, to StateID)
type Guard func(f *Focusable, evt *Event) bool

// ---

type State struct {
	ID          StateID
	Transitions []*Transition
	EntryAction Action
	ExitAction  Action
}

type Transition struct {
	Event  EventID
	Source *State
	Target *State // nil --> internal transition
	Guard  Guard  // nil --> always taken
	Action Action // nil --> do nothing
}

// Chart is the shared transition table. Entities only carry their current StateID.
type Chart struct {
	states  map[StateID]*State
	initial StateID
}

//
// Public API
//

func (s *State) OnEntry(action Action) {
	s.EntryAction = action
}

func (s *State) OnExit(action Action) {
	s.ExitAction = action
}

func (s *State) On(e EventID, target *State, guard Guard, action Action) {
	s.Transitions = append(s.Transitions, &Transition{
		Event:  e,
		Source: s,
		Target: target,
		Guard:  guard,
		Action: action,
	})
}

// NewChart validates states and builds the lookup table. The first state is initial.
func NewChart(states ...*State) (*Chart, error) {
	if len(states) == 0 {
		return nil, errors.New("no states provided")
	}
	c := &Chart{
		states:  map[StateID]*State{},
		initial: states[0].ID,
	}
	for _, s := range states {
		if s == nil {
			return nil, errors.New("nil state")
		}
		if _, exists := c.states[s.ID]; exists {
			return nil, fmt.Errorf("duplicate state ID %v", s.ID)
		}
		c.states[s.ID] = s
	}

	for _, s := range states {
		for _, t := range s.Transitions {
			if t == nil {
				continue
			}
			if t.Source == nil {
				t.Source = s
			}
			if t.Target != nil {
				if _, ok := c.states[t.Target.ID]; !ok {
					return nil, fmt.Errorf("state %v: transition on %v targets unknown state %v", s.ID, t.Event, t.Target.ID)
				}
			}
		}
	}
	return c, nil
}

// States returns the chart's states ordered by ID.
func (c *Chart) States() []*State {
	out := make([]*State, 0, len(c.states))
	for _, s := range c.states {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Initial returns the state new entities start in.
func (c *Chart) Initial() StateID {
	return c.initial
}

// Send feeds evt to f's chart and updates f's current state.
// Events with no matching transition are ignored.
func (c *Chart) Send(f *Focusable, evt *Event) {
	cur, ok := c.states[f.state]
	if !ok {
		return
	}
	t := pickTransition(cur, evt)
	if t == nil {
		return
	}
	f.state = t.doTransition(f, evt)
}

//
// Helper Functions (internal API)
//

// pickTransition grabs the first transition for the event in document order.
func pickTransition(s *State, evt *Event) *Transition {
	for _, t := range s.Transitions {
		if t == nil {
			continue
		}
		if t.Event != evt.ID {
			continue
		}
		return t
	}
	return nil
}

func (s *State) enterState(f *Focusable, evt *Event, from StateID, to StateID) {
	if s.EntryAction != nil {
		s.EntryAction(f, evt, from, to)
	}
}

func (s *State) exitState(f *Focusable, evt *Event, from StateID, to StateID) {
	if s.ExitAction != nil {
		s.ExitAction(f, evt, from, to)
	}
}

func (t *Transition) evaluateGuard(f *Focusable, evt *Event) bool {
	if t.Guard != nil {
		return t.Guard(f, evt)
	}
	return true
}

func (t *Transition) evaluateAction(f *Focusable, evt *Event, from StateID, to StateID) {
	if t.Action != nil {
		t.Action(f, evt, from, to)
	}
}

// doTransition runs guard, exit, action and entry and returns the resulting state.
// Exit actions observe the source state; the transition action and entry
// actions observe the target state.
func (t *Transition) doTransition(f *Focusable, evt *Event) StateID {
	if !t.evaluateGuard(f, evt) {
		return t.Source.ID
	}

	// Internal transition: action only, no exit/entry.
	if t.Target == nil {
		t.evaluateAction(f, evt, t.Source.ID, t.Source.ID)
		return t.Source.ID
	}

	t.Source.exitState(f, evt, t.Source.ID, t.Target.ID)
	f.state = t.Target.ID
	t.evaluateAction(f, evt, t.Source.ID, t.Target.ID)
	t.Target.enterState(f, evt, t.Source.ID, t.Target.ID)
	return t.Target.ID
}
