package realtime

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/comalice/focusx"
)

type calls struct {
	mu   sync.Mutex
	list []string
}

func (c *calls) add(s string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.list = append(c.list, s)
}

func (c *calls) snapshot() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.list...)
}

func (c *calls) callbacks(name string) focusx.Callbacks {
	return focusx.Callbacks{
		OnFocusGained: func(*focusx.Focusable) { c.add("gained:" + name) },
		OnFocusLost:   func(*focusx.Focusable) { c.add("lost:" + name) },
		OnActivate:    func(*focusx.Focusable) { c.add("activate:" + name) },
		OnGesture:     func(_ *focusx.Focusable, g focusx.Gesture) { c.add("gesture:" + name + ":" + g.String()) },
	}
}

// TestRuntimeCreation tests basic runtime creation and defaults
func TestRuntimeCreation(t *testing.T) {
	d := focusx.NewDispatcher(focusx.NewRegistry())
	rt := NewRuntime(d, nil, Config{})

	if rt == nil {
		t.Fatal("Runtime is nil")
	}
	if rt.tickRate != 16667*time.Microsecond {
		t.Errorf("Expected default tick rate, got %v", rt.tickRate)
	}
	if cap(rt.batch) != 1000 {
		t.Errorf("Expected default queue capacity 1000, got %d", cap(rt.batch))
	}
	if err := rt.Stop(); err != nil {
		t.Errorf("Stop before Start should be a no-op, got %v", err)
	}
}

// TestStepRegistersThenPicks tests that a register queued before a tick is
// visible to that tick's focus update.
func TestStepRegistersThenPicks(t *testing.T) {
	c := &calls{}
	h := focusx.NewHandle()
	src := &StaticPickSource{}
	src.Set(focusx.Picks(h))

	d := focusx.NewDispatcher(focusx.NewRegistry())
	rt := NewRuntime(d, src, Config{})
	ctx := context.Background()

	if err := rt.Register(h, "A", c.callbacks("A"), nil); err != nil {
		t.Fatalf("Failed to queue register: %v", err)
	}
	rt.Step(ctx)
	f, ok := d.Registry().Lookup(h)
	if !ok {
		t.Fatal("Expected entity registered after first tick")
	}
	if f.Dwell() != 1 {
		t.Errorf("Expected dwell 1 after first tick, got %d", f.Dwell())
	}

	rt.Step(ctx)
	if got := c.snapshot(); len(got) != 1 || got[0] != "gained:A" {
		t.Errorf("Expected [gained:A], got %v", got)
	}
	if rt.TickNumber() != 2 {
		t.Errorf("Expected 2 ticks, got %d", rt.TickNumber())
	}
}

// TestActivationAfterFocusUpdate tests that input commands see the current frame's focus.
func TestActivationAfterFocusUpdate(t *testing.T) {
	c := &calls{}
	h := focusx.NewHandle()
	src := &StaticPickSource{}
	src.Set(focusx.Picks(h))

	d := focusx.NewDispatcher(focusx.NewRegistry())
	rt := NewRuntime(d, src, Config{})
	ctx := context.Background()
	rt.Register(h, "A", c.callbacks("A"), nil)
	rt.Step(ctx)

	// Focus is gained in this tick; the click queued before it must still land.
	rt.ActivateFocused()
	rt.Gesture(focusx.SwipeUp)
	rt.Step(ctx)

	want := []string{"gained:A", "activate:A", "gesture:A:up"}
	got := c.snapshot()
	if len(got) != len(want) {
		t.Fatalf("Expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Call %d: expected %s, got %s", i, want[i], got[i])
		}
	}
}

// TestUnregisterWithStalePicks tests that picks for an unregistered handle are harmless.
func TestUnregisterWithStalePicks(t *testing.T) {
	c := &calls{}
	h := focusx.NewHandle()
	src := &StaticPickSource{}
	src.Set(focusx.Picks(h))

	d := focusx.NewDispatcher(focusx.NewRegistry())
	rt := NewRuntime(d, src, Config{})
	ctx := context.Background()
	rt.Register(h, "A", c.callbacks("A"), nil)
	rt.Step(ctx)
	rt.Step(ctx)

	rt.Unregister(h)
	rt.Activate(h)
	rt.Step(ctx)
	rt.Step(ctx)

	if got := c.snapshot(); len(got) != 1 || got[0] != "gained:A" {
		t.Errorf("Expected only [gained:A], got %v", got)
	}
}

// TestConfigureRunsOnRegister tests the Configure hook.
func TestConfigureRunsOnRegister(t *testing.T) {
	h := focusx.NewHandle()
	d := focusx.NewDispatcher(focusx.NewRegistry())
	rt := NewRuntime(d, nil, Config{})
	rt.Register(h, "A", focusx.Callbacks{}, func(f *focusx.Focusable) {
		f.ShowInteractiveCursor = false
	})
	rt.Step(context.Background())
	f, _ := d.Registry().Lookup(h)
	if f.ShowInteractiveCursor {
		t.Error("Expected Configure to disable the interactive cursor")
	}
}

// TestCommandBatching tests that commands are bounded per tick
func TestCommandBatching(t *testing.T) {
	d := focusx.NewDispatcher(focusx.NewRegistry())
	rt := NewRuntime(d, nil, Config{MaxCommandsPerTick: 5})

	for i := 0; i < 5; i++ {
		if err := rt.Register(focusx.NewHandle(), "e", focusx.Callbacks{}, nil); err != nil {
			t.Errorf("Failed to send command %d: %v", i, err)
		}
	}

	if err := rt.ActivateFocused(); !errors.Is(err, ErrQueueFull) {
		t.Errorf("Expected ErrQueueFull, got %v", err)
	}

	rt.Step(context.Background())

	if rt.Pending() != 0 {
		t.Errorf("Expected empty queue after tick, got %d", rt.Pending())
	}
	if err := rt.ActivateFocused(); err != nil {
		t.Errorf("Failed to send command after queue cleared: %v", err)
	}
	if d.Registry().Len() != 5 {
		t.Errorf("Expected 5 registered entities, got %d", d.Registry().Len())
	}
}

// TestCommandSorting tests the command sorting logic
func TestCommandSorting(t *testing.T) {
	cmds := []CommandWithMeta{
		{Command: Command{Name: "1"}, SequenceNum: 3, Priority: 0},
		{Command: Command{Name: "2"}, SequenceNum: 1, Priority: 0},
		{Command: Command{Name: "3"}, SequenceNum: 2, Priority: 10}, // High priority
		{Command: Command{Name: "4"}, SequenceNum: 4, Priority: 0},
		{Command: Command{Name: "5"}, SequenceNum: 5, Priority: 5}, // Medium priority
	}

	sortCommands(cmds)

	// Expected order: Priority 10 (seq 2), Priority 5 (seq 5), Priority 0 (seq 1, 3, 4)
	expectedOrder := []string{"3", "5", "2", "1", "4"}

	for i, cmd := range cmds {
		if cmd.Command.Name != expectedOrder[i] {
			t.Errorf("Command at position %d: expected %s, got %s", i, expectedOrder[i], cmd.Command.Name)
		}
	}
}

// TestPanicRecovered tests that a panicking callback does not kill the runtime.
func TestPanicRecovered(t *testing.T) {
	h := focusx.NewHandle()
	src := &StaticPickSource{}
	src.Set(focusx.Picks(h))
	d := focusx.NewDispatcher(focusx.NewRegistry(), focusx.WithDwellThreshold(0))
	rt := NewRuntime(d, src, Config{})
	rt.Register(h, "A", focusx.Callbacks{
		OnFocusGained: func(*focusx.Focusable) { panic("boom") },
	}, nil)

	rt.Step(context.Background())
	rt.Step(context.Background())
	if rt.TickNumber() != 2 {
		t.Errorf("Expected ticks to keep counting after a panic, got %d", rt.TickNumber())
	}
}

// TestTickLoopRuns tests that the background loop advances ticks and applies commands.
func TestTickLoopRuns(t *testing.T) {
	c := &calls{}
	h := focusx.NewHandle()
	src := NewChannelPickSource(1)
	src.Push(focusx.Picks(h))

	d := focusx.NewDispatcher(focusx.NewRegistry())
	rt := NewRuntime(d, src, Config{TickRate: 5 * time.Millisecond})
	rt.Register(h, "A", c.callbacks("A"), nil)

	ctx := context.Background()
	if err := rt.Start(ctx); err != nil {
		t.Fatalf("Failed to start runtime: %v", err)
	}
	if err := rt.Start(ctx); !errors.Is(err, ErrAlreadyStarted) {
		t.Errorf("Expected ErrAlreadyStarted, got %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for rt.TickNumber() < 3 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if err := rt.Stop(); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}

	if rt.TickNumber() < 3 {
		t.Fatalf("Expected at least 3 ticks, got %d", rt.TickNumber())
	}
	got := c.snapshot()
	if len(got) == 0 || got[0] != "gained:A" {
		t.Errorf("Expected focus gained from repeated channel picks, got %v", got)
	}
}

// TestChannelPickSourceKeepsLatest tests latest-wins semantics and reuse of the last frame.
func TestChannelPickSourceKeepsLatest(t *testing.T) {
	a, b := focusx.NewHandle(), focusx.NewHandle()
	src := NewChannelPickSource(1)
	ctx := context.Background()

	if got := src.Pick(ctx); got != nil {
		t.Errorf("Expected nil before any push, got %v", got)
	}
	src.Push(focusx.Picks(a))
	src.Push(focusx.Picks(b))
	got := src.Pick(ctx)
	if len(got) != 1 || got[0].Handle != b {
		t.Errorf("Expected latest push to win, got %v", got)
	}
	again := src.Pick(ctx)
	if len(again) != 1 || again[0].Handle != b {
		t.Errorf("Expected last result reused, got %v", again)
	}
}

// TestConcurrentSend tests that commands from many goroutines are all applied.
func TestConcurrentSend(t *testing.T) {
	d := focusx.NewDispatcher(focusx.NewRegistry())
	rt := NewRuntime(d, nil, Config{})

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				rt.Register(focusx.NewHandle(), "e", focusx.Callbacks{}, nil)
			}
		}()
	}
	wg.Wait()
	rt.Step(context.Background())

	if d.Registry().Len() != 100 {
		t.Errorf("Expected 100 entities, got %d", d.Registry().Len())
	}
}

// TestStartStopConcurrent tests that Stop racing Start never sees a half-started runtime.
func TestStartStopConcurrent(t *testing.T) {
	for i := 0; i < 50; i++ {
		d := focusx.NewDispatcher(focusx.NewRegistry())
		rt := NewRuntime(d, nil, Config{TickRate: time.Millisecond})

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			if err := rt.Start(context.Background()); err != nil {
				t.Errorf("Start failed: %v", err)
			}
		}()
		go func() {
			defer wg.Done()
			if err := rt.Stop(); err != nil {
				t.Errorf("Stop failed: %v", err)
			}
		}()
		wg.Wait()

		if err := rt.Stop(); err != nil {
			t.Errorf("Final Stop failed: %v", err)
		}
		select {
		case <-rt.Done():
		case <-time.After(time.Second):
			t.Fatal("tick loop did not exit")
		}
	}
}
