package production

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/comalice/focusx"
)

// ErrPublisherClosed is returned by Publish after Close.
var ErrPublisherClosed = errors.New("publisher closed")

// ChannelPublisher forwards focus events to a Go channel.
// Non-blocking publish with drop on backpressure.
type ChannelPublisher struct {
	mu      sync.Mutex
	ch      chan<- focusx.FocusEvent
	closed  bool
	dropped uint64
}

// NewChannelPublisher creates a ChannelPublisher with the given output channel.
func NewChannelPublisher(ch chan<- focusx.FocusEvent) *ChannelPublisher {
	return &ChannelPublisher{ch: ch}
}

func (p *ChannelPublisher) Publish(ev focusx.FocusEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrPublisherClosed
	}
	select {
	case p.ch <- ev:
	default:
		p.dropped++ // Non-blocking drop
	}
	return nil
}

// Dropped returns how many events were discarded because the channel was full.
func (p *ChannelPublisher) Dropped() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.dropped
}

func (p *ChannelPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	close(p.ch)
	return nil
}

// LogPublisher writes every focus event to a slog logger at info level.
type LogPublisher struct {
	log *slog.Logger
}

func NewLogPublisher(l *slog.Logger) *LogPublisher {
	if l == nil {
		l = slog.Default()
	}
	return &LogPublisher{log: l}
}

func (p *LogPublisher) Publish(ev focusx.FocusEvent) error {
	attrs := []any{"kind", string(ev.Kind), "frame", ev.Frame}
	if ev.Name != "" {
		attrs = append(attrs, "entity", ev.Name)
	}
	switch ev.Kind {
	case focusx.KindGesture:
		attrs = append(attrs, "gesture", ev.Gesture.String())
	case focusx.KindButton:
		attrs = append(attrs, "button", ev.Button.Button.String(), "phase", ev.Button.Phase.String())
	}
	p.log.Info("focus", attrs...)
	return nil
}

// MultiPublisher fans an event out to several publishers. Every publisher is
// called; the joined error of the failures is returned.
type MultiPublisher []focusx.Publisher

func (m MultiPublisher) Publish(ev focusx.FocusEvent) error {
	var errs []error
	for _, p := range m {
		if p == nil {
			continue
		}
		if err := p.Publish(ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
