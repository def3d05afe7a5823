package realtime

import (
	"context"
	"sync"

	"github.com/comalice/focusx"
)

// PickSource supplies the picks for one frame. It is called on the tick goroutine.
type PickSource interface {
	Pick(ctx context.Context) focusx.PickResult
}

// PickSourceFunc adapts a function to PickSource.
type PickSourceFunc func(ctx context.Context) focusx.PickResult

func (f PickSourceFunc) Pick(ctx context.Context) focusx.PickResult {
	return f(ctx)
}

// ChannelPickSource is a PickSource fed from another goroutine.
// Each tick uses the most recently pushed result; if nothing new arrived the
// previous result is reused, since a still gaze keeps hitting the same entity.
type ChannelPickSource struct {
	ch   chan focusx.PickResult
	last focusx.PickResult
}

// NewChannelPickSource creates a ChannelPickSource with the given buffer.
func NewChannelPickSource(buffer int) *ChannelPickSource {
	if buffer < 1 {
		buffer = 1
	}
	return &ChannelPickSource{ch: make(chan focusx.PickResult, buffer)}
}

// Push offers a new frame of picks. When the buffer is full the oldest pending
// result is dropped.
func (s *ChannelPickSource) Push(p focusx.PickResult) {
	for {
		select {
		case s.ch <- p:
			return
		default:
		}
		select {
		case <-s.ch:
		default:
		}
	}
}

func (s *ChannelPickSource) Pick(ctx context.Context) focusx.PickResult {
	for {
		select {
		case p := <-s.ch:
			s.last = p
		default:
			return s.last
		}
	}
}

// StaticPickSource returns the same picks every tick until Set changes them.
type StaticPickSource struct {
	mu    sync.Mutex
	picks focusx.PickResult
}

// Set replaces the picks returned from the next tick on.
func (s *StaticPickSource) Set(p focusx.PickResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.picks = p
}

func (s *StaticPickSource) Pick(ctx context.Context) focusx.PickResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.picks
}
