// Package realtime runs a focusx.Dispatcher on a fixed tick.
//
// The dispatcher and its registry are single-threaded. Hosts whose input
// arrives on other goroutines (OS input threads, network controllers, a
// terminal event poller) queue commands on the Runtime instead of touching
// the dispatcher directly. Every tick the Runtime:
//  1. Collects queued commands atomically
//  2. Orders them by priority, then by sequence number (FIFO)
//  3. Applies registry changes (register, unregister)
//  4. Asks the PickSource for this frame's picks and calls ProcessFrame
//  5. Applies input commands (activation, gestures, buttons)
//
// Input is applied after the focus update so a click lands on whatever has
// focus in the frame it was delivered.
//
// # Example Usage
//
//	src := realtime.NewChannelPickSource(1)
//	rt := realtime.NewRuntime(dispatcher, src, realtime.Config{
//		TickRate: 16667 * time.Microsecond, // 60 FPS
//	})
//	rt.Start(ctx)
//	defer rt.Stop()
//
//	src.Push(picker.Pick(gazeRay))
//	rt.ActivateFocused()
//
// # Determinism
//
// Given the same commands and the same picks per tick, a Runtime produces
// the same callbacks in the same order. Step runs a single tick synchronously
// and is what tests and replays use.
package realtime
