package realtime

import (
	"fmt"
	"sort"

	"github.com/comalice/focusx"
)

// CommandKind selects what a Command does when applied.
type CommandKind int

const (
	CmdRegister CommandKind = iota + 1
	CmdUnregister
	CmdActivate
	CmdActivateFocused
	CmdGesture
	CmdButton
)

func (k CommandKind) String() string {
	switch k {
	case CmdRegister:
		return "register"
	case CmdUnregister:
		return "unregister"
	case CmdActivate:
		return "activate"
	case CmdActivateFocused:
		return "activate_focused"
	case CmdGesture:
		return "gesture"
	case CmdButton:
		return "button"
	}
	return fmt.Sprintf("CommandKind(%d)", int(k))
}

// isInput reports whether the command runs after the focus update.
func (k CommandKind) isInput() bool {
	return k == CmdActivate || k == CmdActivateFocused || k == CmdGesture || k == CmdButton
}

// Command is a host request applied on the tick goroutine.
type Command struct {
	Kind      CommandKind
	Handle    focusx.Handle
	Name      string
	Callbacks focusx.Callbacks
	Gesture   focusx.Gesture
	Button    focusx.ButtonEvent
	// Configure runs right after a CmdRegister, on the tick goroutine.
	Configure func(*focusx.Focusable)
}

// CommandWithMeta adds sequencing metadata for deterministic ordering
type CommandWithMeta struct {
	Command     Command
	SequenceNum uint64
	Priority    int
}

// sortCommands orders commands deterministically.
// Stable sort preserves insertion order for equal priorities.
func sortCommands(cmds []CommandWithMeta) {
	sort.SliceStable(cmds, func(i, j int) bool {
		// Primary: higher priority first
		if cmds[i].Priority != cmds[j].Priority {
			return cmds[i].Priority > cmds[j].Priority
		}
		// Secondary: earlier sequence number first (FIFO)
		return cmds[i].SequenceNum < cmds[j].SequenceNum
	})
}
