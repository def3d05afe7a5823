// Package tui is an interactive terminal demo: the mouse stands in for the
// gaze ray, clicks activate, and arrow keys send touchpad gestures.
package tui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/gdamore/tcell/v2"
	"golang.org/x/sync/errgroup"

	"github.com/comalice/focusx"
	"github.com/comalice/focusx/internal/config"
	"github.com/comalice/focusx/internal/production"
	"github.com/comalice/focusx/internal/scene"
	"github.com/comalice/focusx/internal/script"
	"github.com/comalice/focusx/realtime"
)

const recentEvents = 6

var errQuit = errors.New("quit")

// quitSignal is posted to wake the input loop when the context ends.
type quitSignal struct{}

// Options configures a Demo.
type Options struct {
	Config config.Config
	Logger *slog.Logger
	// Behavior, if set, supplies Lua callbacks for every panel.
	Behavior *script.Behavior
}

// view is what the tick goroutine publishes for drawing.
type view struct {
	focused  map[string]int // name -> dwell
	dwell    map[string]int
	cursorOn bool
	recent   []string
	frame    uint64
	misses   int
}

// Demo owns the screen, the scene and the runtime driving the dispatcher.
type Demo struct {
	screen tcell.Screen
	scene  *scene.Scene
	cam    scene.Camera
	cfg    config.Config
	log    *slog.Logger

	d   *focusx.Dispatcher
	rt  *realtime.Runtime
	src *realtime.ChannelPickSource

	mouseX, mouseY int
	buttons        tcell.ButtonMask

	mu   sync.Mutex
	view view
}

// New builds a demo over sc. The screen is initialized by Run.
func New(screen tcell.Screen, sc *scene.Scene, opts Options) *Demo {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	m := &Demo{
		screen: screen,
		scene:  sc,
		cam:    scene.DefaultCamera(),
		cfg:    opts.Config,
		log:    opts.Logger,
		src:    realtime.NewChannelPickSource(1),
		view:   view{focused: map[string]int{}, dwell: map[string]int{}},
	}

	dopts := []focusx.Option{
		focusx.WithDwellThreshold(opts.Config.Focus.DwellThreshold),
		focusx.WithLogger(m.log),
		focusx.WithPublisher(production.MultiPublisher{m, production.NewLogPublisher(m.log)}),
		focusx.WithMissHandler(func() { m.log.Debug("click on empty space") }),
	}
	if opts.Config.Demo.ShowCursor {
		dopts = append(dopts, focusx.WithCursor(m.setCursor))
	}
	m.d = focusx.NewDispatcher(focusx.NewRegistry(), dopts...)

	sc.Register(m.d.Registry(), func(name string) focusx.Callbacks {
		var cb focusx.Callbacks
		if opts.Behavior != nil {
			cb = opts.Behavior.Callbacks(name)
		}
		return focusx.LogCallbacks(m.log, focusx.Merge(cb, focusx.Callbacks{
			OnActivate: func(*focusx.Focusable) {},
			OnGesture:  func(*focusx.Focusable, focusx.Gesture) {},
			OnButton:   func(*focusx.Focusable, focusx.ButtonEvent) {},
		}))
	})

	m.rt = realtime.NewRuntime(m.d, m.src, realtime.Config{
		TickRate:           opts.Config.Runtime.TickRate,
		MaxCommandsPerTick: opts.Config.Runtime.MaxCommandsPerTick,
		Logger:             m.log,
		AfterTick: func(d *focusx.Dispatcher) {
			if opts.Behavior != nil {
				opts.Behavior.SetFrame(d.Frame())
			}
			m.capture(d)
		},
	})
	return m
}

// Dispatcher exposes the dispatcher driven by the demo.
func (m *Demo) Dispatcher() *focusx.Dispatcher {
	return m.d
}

// Run initializes the screen and blocks until the user quits or ctx ends.
func (m *Demo) Run(ctx context.Context) error {
	if err := m.screen.Init(); err != nil {
		return fmt.Errorf("init screen: %w", err)
	}
	defer m.screen.Fini()
	m.screen.EnableMouse()
	m.screen.HideCursor()
	m.draw()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		for {
			ev := m.screen.PollEvent()
			if ev == nil {
				return nil
			}
			if !m.handle(ev) {
				return errQuit
			}
		}
	})

	g.Go(func() error {
		defer func() { _ = m.screen.PostEvent(tcell.NewEventInterrupt(quitSignal{})) }()
		if err := m.rt.Start(gctx); err != nil {
			return err
		}
		<-gctx.Done()
		return m.rt.Stop()
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errQuit) {
		return err
	}
	return nil
}

// handle applies one terminal event. It returns false when the demo should quit.
func (m *Demo) handle(ev tcell.Event) bool {
	switch e := ev.(type) {
	case *tcell.EventInterrupt:
		if _, ok := e.Data().(quitSignal); ok {
			return false
		}
		m.draw()

	case *tcell.EventResize:
		m.screen.Sync()
		m.gaze()
		m.draw()

	case *tcell.EventMouse:
		m.mouseX, m.mouseY = e.Position()
		m.gaze()
		pressed := e.Buttons() &^ m.buttons
		released := m.buttons &^ e.Buttons()
		m.buttons = e.Buttons()
		if pressed&tcell.Button1 != 0 {
			m.send(m.rt.ActivateFocused())
		}
		if pressed&tcell.Button2 != 0 {
			m.send(m.rt.Button(focusx.ButtonEvent{Button: focusx.ButtonB, Phase: focusx.ButtonDown}))
		}
		if released&tcell.Button2 != 0 {
			m.send(m.rt.Button(focusx.ButtonEvent{Button: focusx.ButtonB, Phase: focusx.ButtonUp}))
		}
		m.draw()

	case *tcell.EventKey:
		switch e.Key() {
		case tcell.KeyEscape, tcell.KeyCtrlC:
			return false
		case tcell.KeyEnter:
			m.send(m.rt.ActivateFocused())
		case tcell.KeyUp:
			m.send(m.rt.Gesture(focusx.SwipeUp))
		case tcell.KeyDown:
			m.send(m.rt.Gesture(focusx.SwipeDown))
		case tcell.KeyLeft:
			m.send(m.rt.Gesture(focusx.SwipeBackward))
		case tcell.KeyRight:
			m.send(m.rt.Gesture(focusx.SwipeForward))
		case tcell.KeyRune:
			switch r := e.Rune(); r {
			case 'q':
				return false
			case ' ':
				m.send(m.rt.ActivateFocused())
			case 'a', 'b', 'x', 'y':
				b, _ := focusx.ParseButton(string(r))
				m.send(m.rt.Button(focusx.ButtonEvent{Button: b, Phase: focusx.ButtonPressed}))
			}
		}
	}
	return true
}

// gaze casts a ray through the mouse cell and feeds the nearest hit to the runtime.
func (m *Demo) gaze() {
	w, h := m.screen.Size()
	origin, dir := m.cam.Ray(m.mouseX, m.mouseY, w, h-1)
	m.src.Push(m.scene.Nearest(origin, dir))
}

func (m *Demo) send(err error) {
	if err != nil {
		m.log.Warn("dropped input", "err", err)
	}
}

// Publish records events for the on-screen log. It runs on the tick goroutine.
func (m *Demo) Publish(ev focusx.FocusEvent) error {
	if ev.Kind == focusx.KindSustained {
		return nil
	}
	line := fmt.Sprintf("%5d %-9s %s", ev.Frame, ev.Kind, ev.Name)
	switch ev.Kind {
	case focusx.KindGesture:
		line += " " + ev.Gesture.String()
	case focusx.KindButton:
		line += fmt.Sprintf(" %s %s", ev.Button.Button, ev.Button.Phase)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if ev.Kind == focusx.KindMiss {
		m.view.misses++
	}
	m.view.recent = append(m.view.recent, line)
	if len(m.view.recent) > recentEvents {
		m.view.recent = m.view.recent[len(m.view.recent)-recentEvents:]
	}
	return nil
}

func (m *Demo) setCursor(on bool) {
	m.mu.Lock()
	m.view.cursorOn = on
	m.mu.Unlock()
}

// capture copies dispatcher state for drawing and wakes the input loop.
func (m *Demo) capture(d *focusx.Dispatcher) {
	focused := map[string]int{}
	dwell := map[string]int{}
	for _, f := range d.Registry().Entities() {
		dwell[f.Name] = f.Dwell()
		if f.HasFocus() {
			focused[f.Name] = f.Dwell()
		}
	}

	m.mu.Lock()
	m.view.focused = focused
	m.view.dwell = dwell
	m.view.frame = d.Frame()
	m.mu.Unlock()

	_ = m.screen.PostEvent(tcell.NewEventInterrupt(nil))
}

func (m *Demo) snapshot() view {
	m.mu.Lock()
	defer m.mu.Unlock()
	v := m.view
	v.recent = append([]string(nil), m.view.recent...)
	return v
}
