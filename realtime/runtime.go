package realtime

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/comalice/focusx"
)

var (
	ErrQueueFull      = errors.New("command queue full")
	ErrAlreadyStarted = errors.New("runtime already started")
)

// Runtime drives a Dispatcher at a fixed tick rate and serializes host
// commands onto the tick goroutine.
type Runtime struct {
	d   *focusx.Dispatcher
	src PickSource
	log *slog.Logger

	afterTick func(d *focusx.Dispatcher)

	tickRate time.Duration
	ticker   *time.Ticker
	tickNum  uint64
	tickMu   sync.Mutex // held for the duration of one tick

	// Command batching
	batch       []CommandWithMeta
	batchMu     sync.Mutex
	sequenceNum uint64

	// Control
	tickCtx    context.Context
	tickCancel context.CancelFunc
	stopped    chan struct{}
	started    bool
}

// Config configures the runtime.
type Config struct {
	TickRate           time.Duration // Fixed tick rate (e.g., 16.67ms for 60 FPS)
	MaxCommandsPerTick int           // Command queue capacity (default: 1000)
	Logger             *slog.Logger
	// AfterTick runs on the tick goroutine once a tick's commands are applied.
	AfterTick func(d *focusx.Dispatcher)
}

// NewRuntime creates a runtime for d. A nil src yields empty picks every tick.
func NewRuntime(d *focusx.Dispatcher, src PickSource, cfg Config) *Runtime {
	if cfg.MaxCommandsPerTick <= 0 {
		cfg.MaxCommandsPerTick = 1000
	}
	if cfg.TickRate <= 0 {
		cfg.TickRate = 16667 * time.Microsecond // Default 60 FPS
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if src == nil {
		src = PickSourceFunc(func(context.Context) focusx.PickResult { return nil })
	}

	return &Runtime{
		d:         d,
		src:       src,
		log:       cfg.Logger,
		afterTick: cfg.AfterTick,
		tickRate:  cfg.TickRate,
		batch:     make([]CommandWithMeta, 0, cfg.MaxCommandsPerTick),
		stopped:   make(chan struct{}),
	}
}

// Start begins tick-based execution.
func (rt *Runtime) Start(ctx context.Context) error {
	rt.batchMu.Lock()
	if rt.started {
		rt.batchMu.Unlock()
		return ErrAlreadyStarted
	}
	rt.started = true
	// Stop may run as soon as the lock is released.
	rt.tickCtx, rt.tickCancel = context.WithCancel(ctx)
	rt.ticker = time.NewTicker(rt.tickRate)
	rt.batchMu.Unlock()

	go rt.tickLoop()

	return nil
}

// Stop halts the tick loop and waits for the current tick to finish.
// Stopping a runtime that was never started is a no-op.
func (rt *Runtime) Stop() error {
	rt.batchMu.Lock()
	started := rt.started
	cancel, ticker := rt.tickCancel, rt.ticker
	rt.batchMu.Unlock()
	if !started {
		return nil
	}

	cancel()
	ticker.Stop()

	<-rt.stopped
	return nil
}

// Done is closed once the tick loop has exited.
func (rt *Runtime) Done() <-chan struct{} {
	return rt.stopped
}

// tickLoop is the main tick execution loop
func (rt *Runtime) tickLoop() {
	defer close(rt.stopped)

	for {
		select {
		case <-rt.tickCtx.Done():
			return
		case <-rt.ticker.C:
			rt.Step(rt.tickCtx)
		}
	}
}

// Step runs exactly one tick on the calling goroutine. A panic inside the tick
// is recovered and logged; the tick still counts.
func (rt *Runtime) Step(ctx context.Context) {
	rt.tickMu.Lock()
	defer rt.tickMu.Unlock()

	func() {
		defer func() {
			if r := recover(); r != nil {
				rt.log.Warn("recovered panic in tick", "tick", rt.TickNumber()+1, "panic", r)
			}
		}()
		rt.processTick(ctx)
	}()

	rt.batchMu.Lock()
	rt.tickNum++
	rt.batchMu.Unlock()
}

// Send queues a command for the next tick (thread-safe).
func (rt *Runtime) Send(cmd Command) error {
	return rt.SendWithPriority(cmd, 0)
}

// SendWithPriority queues a command; higher priorities are applied first within a tick.
func (rt *Runtime) SendWithPriority(cmd Command, priority int) error {
	rt.batchMu.Lock()
	defer rt.batchMu.Unlock()

	if len(rt.batch) >= cap(rt.batch) {
		return ErrQueueFull
	}

	rt.batch = append(rt.batch, CommandWithMeta{
		Command:     cmd,
		SequenceNum: rt.sequenceNum,
		Priority:    priority,
	})
	rt.sequenceNum++

	return nil
}

// Register queues registration of h. configure, if non-nil, runs on the tick
// goroutine after the entity is registered.
func (rt *Runtime) Register(h focusx.Handle, name string, cb focusx.Callbacks, configure func(*focusx.Focusable)) error {
	return rt.Send(Command{Kind: CmdRegister, Handle: h, Name: name, Callbacks: cb, Configure: configure})
}

// Unregister queues removal of h.
func (rt *Runtime) Unregister(h focusx.Handle) error {
	return rt.Send(Command{Kind: CmdUnregister, Handle: h})
}

// Activate queues a DispatchActivation for h.
func (rt *Runtime) Activate(h focusx.Handle) error {
	return rt.Send(Command{Kind: CmdActivate, Handle: h})
}

// ActivateFocused queues a click on whatever has focus at the next tick.
func (rt *Runtime) ActivateFocused() error {
	return rt.Send(Command{Kind: CmdActivateFocused})
}

// Gesture queues a gesture for the focused entities.
func (rt *Runtime) Gesture(g focusx.Gesture) error {
	return rt.Send(Command{Kind: CmdGesture, Gesture: g})
}

// Button queues a button event for the focused entities.
func (rt *Runtime) Button(b focusx.ButtonEvent) error {
	return rt.Send(Command{Kind: CmdButton, Button: b})
}

// TickNumber returns the number of completed ticks.
func (rt *Runtime) TickNumber() uint64 {
	rt.batchMu.Lock()
	defer rt.batchMu.Unlock()
	return rt.tickNum
}

// Pending returns the number of queued commands.
func (rt *Runtime) Pending() int {
	rt.batchMu.Lock()
	defer rt.batchMu.Unlock()
	return len(rt.batch)
}
