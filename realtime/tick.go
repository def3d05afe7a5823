package realtime

import "context"

// processTick processes one complete tick
func (rt *Runtime) processTick(ctx context.Context) {
	// Phase 1: Collect commands atomically
	cmds := rt.collectCommands()

	// Phase 2: Sort for deterministic order
	sortCommands(cmds)

	// Phase 3: Registry changes become visible to this frame
	rt.applyCommands(cmds, false)

	// Phase 4: Focus update
	rt.d.ProcessFrame(rt.src.Pick(ctx))

	// Phase 5: Input against the focus state of this frame
	rt.applyCommands(cmds, true)

	if rt.afterTick != nil {
		rt.afterTick(rt.d)
	}
}

// collectCommands atomically retrieves and clears the command batch
func (rt *Runtime) collectCommands() []CommandWithMeta {
	rt.batchMu.Lock()
	defer rt.batchMu.Unlock()

	cmds := rt.batch
	rt.batch = make([]CommandWithMeta, 0, cap(rt.batch))

	return cmds
}

// applyCommands applies either the registry commands or the input commands.
func (rt *Runtime) applyCommands(cmds []CommandWithMeta, input bool) {
	reg := rt.d.Registry()
	for _, meta := range cmds {
		cmd := meta.Command
		if cmd.Kind.isInput() != input {
			continue
		}
		switch cmd.Kind {
		case CmdRegister:
			f := reg.Register(cmd.Handle, cmd.Name, cmd.Callbacks)
			if cmd.Configure != nil {
				cmd.Configure(f)
			}
		case CmdUnregister:
			reg.Unregister(cmd.Handle)
		case CmdActivate:
			rt.d.DispatchActivation(cmd.Handle)
		case CmdActivateFocused:
			rt.d.ActivateFocused()
		case CmdGesture:
			rt.d.DispatchGesture(cmd.Gesture)
		case CmdButton:
			rt.d.DispatchButton(cmd.Button)
		default:
			rt.log.Warn("unknown command", "kind", cmd.Kind.String(), "seq", meta.SequenceNum)
		}
	}
}
