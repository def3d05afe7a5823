// Package trace records scripted pick sequences and replays them through a
// Dispatcher.
package trace

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/comalice/focusx"
)

var (
	ErrUnknownEntity = errors.New("unknown entity")
	ErrInvalid       = errors.New("invalid trace")
)

// Trace is a recorded session: the entities in play and what the picker saw
// each frame.
type Trace struct {
	// Threshold overrides the dwell threshold; nil means the default.
	Threshold *int     `yaml:"threshold,omitempty"`
	Entities  []Entity `yaml:"entities"`
	Frames    []Frame  `yaml:"frames"`
}

// Entity declares one focusable. Cursor defaults to true.
type Entity struct {
	Name   string `yaml:"name"`
	Cursor *bool  `yaml:"cursor,omitempty"`
}

// Frame is one tick. Registry changes apply before the picks; activations,
// clicks, gestures and buttons apply after.
type Frame struct {
	Picks      []string    `yaml:"picks,flow"`
	Register   []string    `yaml:"register,omitempty,flow"`
	Unregister []string    `yaml:"unregister,omitempty,flow"`
	Activate   []string    `yaml:"activate,omitempty,flow"`
	Click      bool        `yaml:"click,omitempty"`
	Gesture    string      `yaml:"gesture,omitempty"`
	Button     *ButtonSpec `yaml:"button,omitempty"`
}

// ButtonSpec names a button edge, e.g. {button: a, phase: down}.
type ButtonSpec struct {
	Button string `yaml:"button"`
	Phase  string `yaml:"phase"`
}

// Load reads and validates a trace file.
func Load(path string) (*Trace, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read trace %s: %w", path, err)
	}
	tr, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return tr, nil
}

// Parse decodes and validates a YAML trace. Unknown fields are rejected.
func Parse(data []byte) (*Trace, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var tr Trace
	if err := dec.Decode(&tr); err != nil {
		return nil, fmt.Errorf("yaml decode: %w", err)
	}
	if err := tr.Validate(); err != nil {
		return nil, err
	}
	return &tr, nil
}

// Save writes tr as YAML.
func (tr *Trace) Save(path string) error {
	data, err := yaml.Marshal(tr)
	if err != nil {
		return fmt.Errorf("yaml marshal: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// Validate checks entity names, frame references and input names.
func (tr *Trace) Validate() error {
	if tr.Threshold != nil && *tr.Threshold < 0 {
		return fmt.Errorf("%w: threshold must be >= 0, got %d", ErrInvalid, *tr.Threshold)
	}

	known := make(map[string]bool, len(tr.Entities))
	for i, e := range tr.Entities {
		if e.Name == "" {
			return fmt.Errorf("%w: entity %d has no name", ErrInvalid, i)
		}
		if known[e.Name] {
			return fmt.Errorf("%w: duplicate entity %q", ErrInvalid, e.Name)
		}
		known[e.Name] = true
	}

	for i, f := range tr.Frames {
		for _, names := range [][]string{f.Picks, f.Register, f.Unregister, f.Activate} {
			for _, n := range names {
				if !known[n] {
					return fmt.Errorf("frame %d: %w %q", i, ErrUnknownEntity, n)
				}
			}
		}
		if f.Gesture != "" {
			if _, err := focusx.ParseGesture(f.Gesture); err != nil {
				return fmt.Errorf("%w: frame %d: %v", ErrInvalid, i, err)
			}
		}
		if f.Button != nil {
			if _, err := f.Button.event(); err != nil {
				return fmt.Errorf("%w: frame %d: %v", ErrInvalid, i, err)
			}
		}
	}
	return nil
}

// Entity returns the declaration for name.
func (tr *Trace) Entity(name string) (Entity, bool) {
	for _, e := range tr.Entities {
		if e.Name == name {
			return e, true
		}
	}
	return Entity{}, false
}

func (b ButtonSpec) event() (focusx.ButtonEvent, error) {
	btn, err := focusx.ParseButton(b.Button)
	if err != nil {
		return focusx.ButtonEvent{}, err
	}
	phase, err := focusx.ParseButtonPhase(b.Phase)
	if err != nil {
		return focusx.ButtonEvent{}, err
	}
	return focusx.ButtonEvent{Button: btn, Phase: phase}, nil
}
