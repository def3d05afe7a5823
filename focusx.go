// Package focusx turns per-frame pick results into focus transitions.
//
// A host engine performs a ray-based hit test every frame and hands the hit
// entities to a Dispatcher as a PickResult. The Dispatcher keeps a two-state
// chart (Unfocused, Focused) per registered entity and fires the entity's
// callbacks when focus is gained, lost or sustained. Focus is only confirmed
// after an entity has been hit on more consecutive frames than the dwell
// threshold, which suppresses flicker from unstable pick results. Focus is
// dropped on the first frame the entity is not hit.
//
// # Example Usage
//
//	reg := focusx.NewRegistry()
//	button := focusx.NewHandle()
//	reg.Register(button, "play", focusx.Callbacks{
//		OnFocusGained: func(f *focusx.Focusable) { highlight(f.Name) },
//		OnFocusLost:   func(f *focusx.Focusable) { unhighlight(f.Name) },
//		OnActivate:    func(f *focusx.Focusable) { play() },
//	})
//
//	d := focusx.NewDispatcher(reg)
//	for frame := range frames {
//		d.ProcessFrame(frame.Picks)
//		if frame.Tapped {
//			d.DispatchActivation(button)
//		}
//	}
//
// # Threading
//
// Dispatcher and Registry are not synchronized. Call them from one goroutine,
// normally the engine's update thread. Hosts whose input arrives on other
// goroutines should use the realtime package, which queues commands and
// applies them at tick boundaries.
package focusx

import (
	"fmt"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
)

// Handle identifies an entity. Two handles are the same entity iff they are equal.
type Handle uuid.UUID

// NilHandle is the zero handle. It is never returned by NewHandle.
var NilHandle Handle

// handleSpace namespaces name-derived handles.
var handleSpace = uuid.MustParse("6f1c2a52-8d0e-4b59-9c1b-0f6d3e7a9b41")

// NewHandle returns a fresh random handle.
func NewHandle() Handle {
	return Handle(uuid.New())
}

// HandleFor derives a stable handle from a name. The same name always yields
// the same handle, which keeps recorded traces replayable.
func HandleFor(name string) Handle {
	return Handle(uuid.NewSHA1(handleSpace, []byte(name)))
}

func (h Handle) String() string {
	return uuid.UUID(h).String()
}

// MarshalText implements encoding.TextMarshaler.
func (h Handle) MarshalText() ([]byte, error) {
	return uuid.UUID(h).MarshalText()
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (h *Handle) UnmarshalText(data []byte) error {
	return (*uuid.UUID)(h).UnmarshalText(data)
}

// Hit is the metadata the picker attaches to a hit. The dispatcher stores it
// on the entity and forwards it to callbacks but never interprets it.
type Hit struct {
	Origin    mgl32.Vec3 `json:"origin" yaml:"origin"`
	Direction mgl32.Vec3 `json:"direction" yaml:"direction"`
	Point     mgl32.Vec3 `json:"point" yaml:"point"`
	Distance  float32    `json:"distance" yaml:"distance"`
}

// Pick is one hit entity in a frame.
type Pick struct {
	Handle Handle
	Hit    Hit
}

// PickResult is the unordered set of entities hit in one frame.
type PickResult []Pick

// Dedup collapses repeated handles. The first occurrence of a handle wins.
func (p PickResult) Dedup() PickResult {
	if len(p) < 2 {
		return p
	}
	seen := make(map[Handle]struct{}, len(p))
	out := make(PickResult, 0, len(p))
	for _, pk := range p {
		if _, dup := seen[pk.Handle]; dup {
			continue
		}
		seen[pk.Handle] = struct{}{}
		out = append(out, pk)
	}
	return out
}

// index maps each picked handle to its hit after Dedup.
func (p PickResult) index() map[Handle]Hit {
	picks := p.Dedup()
	idx := make(map[Handle]Hit, len(picks))
	for _, pk := range picks {
		idx[pk.Handle] = pk.Hit
	}
	return idx
}

// Picks builds a PickResult with empty hit metadata.
func Picks(handles ...Handle) PickResult {
	out := make(PickResult, len(handles))
	for i, h := range handles {
		out[i] = Pick{Handle: h}
	}
	return out
}

// Gesture is a touchpad swipe direction.
type Gesture int

const (
	SwipeNone Gesture = iota
	SwipeForward
	SwipeBackward
	SwipeUp
	SwipeDown
)

var gestureNames = [...]string{"none", "forward", "backward", "up", "down"}

func (g Gesture) String() string {
	if g < 0 || int(g) >= len(gestureNames) {
		return fmt.Sprintf("Gesture(%d)", int(g))
	}
	return gestureNames[g]
}

// ParseGesture is the inverse of Gesture.String.
func ParseGesture(s string) (Gesture, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range gestureNames {
		if s == name {
			return Gesture(i), nil
		}
	}
	return SwipeNone, fmt.Errorf("unknown gesture %q", s)
}

// Button identifies a touchpad or gamepad button.
type Button int

const (
	ButtonTouchpad Button = iota
	ButtonA
	ButtonB
	ButtonX
	ButtonY
)

var buttonNames = [...]string{"touchpad", "a", "b", "x", "y"}

func (b Button) String() string {
	if b < 0 || int(b) >= len(buttonNames) {
		return fmt.Sprintf("Button(%d)", int(b))
	}
	return buttonNames[b]
}

// ParseButton is the inverse of Button.String.
func ParseButton(s string) (Button, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range buttonNames {
		if s == name {
			return Button(i), nil
		}
	}
	return ButtonTouchpad, fmt.Errorf("unknown button %q", s)
}

// ButtonPhase is the edge or level a ButtonEvent reports.
type ButtonPhase int

const (
	ButtonDown ButtonPhase = iota
	ButtonUp
	ButtonPressed
	ButtonLongPressed
)

var phaseNames = [...]string{"down", "up", "pressed", "long_pressed"}

func (p ButtonPhase) String() string {
	if p < 0 || int(p) >= len(phaseNames) {
		return fmt.Sprintf("ButtonPhase(%d)", int(p))
	}
	return phaseNames[p]
}

// ParseButtonPhase is the inverse of ButtonPhase.String.
func ParseButtonPhase(s string) (ButtonPhase, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range phaseNames {
		if s == name {
			return ButtonPhase(i), nil
		}
	}
	return ButtonDown, fmt.Errorf("unknown button phase %q", s)
}

// ButtonEvent is a button edge delivered to focused entities.
type ButtonEvent struct {
	Button Button
	Phase  ButtonPhase
}

// EventKind names a published focus event.
type EventKind string

const (
	KindGained    EventKind = "gained"
	KindLost      EventKind = "lost"
	KindSustained EventKind = "sustained"
	KindActivated EventKind = "activated"
	KindGesture   EventKind = "gesture"
	KindButton    EventKind = "button"
	KindMiss      EventKind = "miss"
)

// FocusEvent records one callback dispatch. Handle and Name are empty for KindMiss.
type FocusEvent struct {
	Kind    EventKind   `json:"kind" yaml:"kind"`
	Frame   uint64      `json:"frame" yaml:"frame"`
	Handle  Handle      `json:"handle" yaml:"handle"`
	Name    string      `json:"name,omitempty" yaml:"name,omitempty"`
	Hit     Hit         `json:"hit" yaml:"hit"`
	Gesture Gesture     `json:"gesture,omitempty" yaml:"gesture,omitempty"`
	Button  ButtonEvent `json:"button,omitempty" yaml:"button,omitempty"`
}

// Publisher receives every FocusEvent the dispatcher emits.
type Publisher interface {
	Publish(ev FocusEvent) error
}
