package trace

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comalice/focusx"
)

func kinds(evs []focusx.FocusEvent) []string {
	out := make([]string, 0, len(evs))
	for _, ev := range evs {
		s := string(ev.Kind)
		if ev.Name != "" {
			s += ":" + ev.Name
		}
		out = append(out, s)
	}
	return out
}

func TestLoadTestdata(t *testing.T) {
	tr, err := Load(filepath.Join("testdata", "dwell.yaml"))
	require.NoError(t, err)
	require.NotNil(t, tr.Threshold)
	assert.Equal(t, 1, *tr.Threshold)
	assert.Len(t, tr.Entities, 2)
	assert.Len(t, tr.Frames, 7)
	assert.Equal(t, &ButtonSpec{Button: "a", Phase: "down"}, tr.Frames[5].Button)
}

func TestReplayTestdata(t *testing.T) {
	tr, err := Load(filepath.Join("testdata", "dwell.yaml"))
	require.NoError(t, err)

	res, err := Replay(context.Background(), tr, Options{})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"gained:A",    // frame 2: dwell 2 > 1
		"activated:A", // frame 2: activation after focus
		"sustained:A", // frame 3
		"gesture:A",   // frame 3: B is not focused yet
		"lost:A",      // frame 4
		"miss",        // frame 4: click with nothing focused
		"gained:B",    // frame 6
		"button:B",    // frame 6
	}, kinds(res.Events))

	// B has cursor: false, so only A toggles the cursor.
	assert.Equal(t, []bool{true, false}, res.Cursor)
	assert.Equal(t, 7, res.Frames)
	assert.Equal(t, uint64(7), res.Snapshot.Frame)
	assert.Equal(t, "replay", res.Snapshot.ID)

	// B was unregistered in the last frame.
	require.Len(t, res.Snapshot.Entities, 1)
	assert.Equal(t, "A", res.Snapshot.Entities[0].Name)
	assert.False(t, res.Snapshot.Entities[0].Focused)
	assert.Equal(t, 2, res.Count(focusx.KindGained))
	assert.Equal(t, 1, res.Count(focusx.KindLost))
}

func TestReplayIsDeterministic(t *testing.T) {
	tr, err := Load(filepath.Join("testdata", "dwell.yaml"))
	require.NoError(t, err)

	a, err := Replay(context.Background(), tr, Options{})
	require.NoError(t, err)
	b, err := Replay(context.Background(), tr, Options{})
	require.NoError(t, err)
	assert.Equal(t, a.Events, b.Events)
	assert.Equal(t, a.Snapshot.Entities, b.Snapshot.Entities)
}

func TestReplayEventFields(t *testing.T) {
	tr, err := Parse([]byte(`
threshold: 0
entities: [{name: A}]
frames:
  - picks: [A]
`))
	require.NoError(t, err)
	res, err := Replay(context.Background(), tr, Options{})
	require.NoError(t, err)

	require.Len(t, res.Events, 1)
	ev := res.Events[0]
	assert.Equal(t, focusx.KindGained, ev.Kind)
	assert.Equal(t, uint64(1), ev.Frame)
	assert.Equal(t, focusx.HandleFor("A"), ev.Handle)
	assert.Equal(t, float32(1), ev.Hit.Distance)
}

func TestReplayDefaultThreshold(t *testing.T) {
	tr, err := Parse([]byte(`
entities: [{name: A}]
frames:
  - picks: [A]
  - picks: [A]
`))
	require.NoError(t, err)
	res, err := Replay(context.Background(), tr, Options{})
	require.NoError(t, err)
	assert.Equal(t, focusx.DefaultDwellThreshold, res.Snapshot.Threshold)
	assert.Equal(t, []string{"gained:A"}, kinds(res.Events))
}

func TestReplayOptionsThreshold(t *testing.T) {
	src := []byte(`
entities: [{name: A}]
frames:
  - picks: [A]
  - picks: [A]
  - picks: [A]
`)
	tr, err := Parse(src)
	require.NoError(t, err)
	three := 3
	res, err := Replay(context.Background(), tr, Options{Threshold: &three})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Snapshot.Threshold)
	assert.Empty(t, kinds(res.Events))

	zero := 0
	tr.Threshold = &zero
	res, err = Replay(context.Background(), tr, Options{Threshold: &three})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Snapshot.Threshold, "the trace's own threshold wins")
	assert.Equal(t, 0, res.Dispatcher.Threshold())
	assert.Equal(t, []string{"gained:A", "sustained:A", "sustained:A"}, kinds(res.Events))
}

func TestReplayUnregisterAndRegister(t *testing.T) {
	tr, err := Parse([]byte(`
threshold: 0
entities: [{name: A}]
frames:
  - picks: [A]
  - picks: [A]
    unregister: [A]
  - picks: [A]
    register: [A]
`))
	require.NoError(t, err)
	res, err := Replay(context.Background(), tr, Options{})
	require.NoError(t, err)

	// Unregistering drops the entity silently; stale picks are ignored.
	// Registering again starts a fresh entity that gains focus on its first hit.
	assert.Equal(t, []string{"gained:A", "gained:A"}, kinds(res.Events))
}

func TestReplayCallbacksAndPublisher(t *testing.T) {
	tr, err := Load(filepath.Join("testdata", "dwell.yaml"))
	require.NoError(t, err)

	var gained []string
	var published int
	opts := Options{
		Callbacks: func(name string) focusx.Callbacks {
			return focusx.Callbacks{OnFocusGained: func(f *focusx.Focusable) { gained = append(gained, f.Name) }}
		},
		Publisher:  publisherFunc(func(focusx.FocusEvent) error { published++; return nil }),
		SnapshotID: "session-1",
	}
	res, err := Replay(context.Background(), tr, opts)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, gained)
	assert.Equal(t, len(res.Events), published)
	assert.Equal(t, "session-1", res.Snapshot.ID)
}

type publisherFunc func(focusx.FocusEvent) error

func (f publisherFunc) Publish(ev focusx.FocusEvent) error { return f(ev) }

func TestReplayCancelled(t *testing.T) {
	tr, err := Load(filepath.Join("testdata", "dwell.yaml"))
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = Replay(ctx, tr, Options{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want error
	}{
		{"unknown pick", "entities: [{name: A}]\nframes: [{picks: [B]}]\n", ErrUnknownEntity},
		{"unknown activate", "entities: [{name: A}]\nframes: [{picks: [], activate: [Z]}]\n", ErrUnknownEntity},
		{"duplicate entity", "entities: [{name: A}, {name: A}]\n", ErrInvalid},
		{"unnamed entity", "entities: [{cursor: true}]\n", ErrInvalid},
		{"negative threshold", "threshold: -1\n", ErrInvalid},
		{"bad gesture", "entities: [{name: A}]\nframes: [{picks: [A], gesture: sideways}]\n", ErrInvalid},
		{"bad button", "entities: [{name: A}]\nframes: [{picks: [A], button: {button: z, phase: down}}]\n", ErrInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.src))
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestParseRejectsUnknownFields(t *testing.T) {
	_, err := Parse([]byte("entities: [{name: A, colour: red}]\n"))
	assert.Error(t, err)
}

func TestSaveThenLoad(t *testing.T) {
	one := 1
	cursor := false
	tr := &Trace{
		Threshold: &one,
		Entities:  []Entity{{Name: "A"}, {Name: "B", Cursor: &cursor}},
		Frames: []Frame{
			{Picks: []string{"A"}},
			{Picks: []string{"A", "B"}, Activate: []string{"A"}, Gesture: "up"},
			{Picks: []string{}, Click: true, Button: &ButtonSpec{Button: "x", Phase: "long_pressed"}},
		},
	}
	path := filepath.Join(t.TempDir(), "out.yaml")
	require.NoError(t, tr.Save(path))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, tr.Threshold, got.Threshold)
	assert.Equal(t, tr.Entities, got.Entities)
	require.Len(t, got.Frames, 3)
	assert.Equal(t, tr.Frames[1], got.Frames[1])
	assert.True(t, got.Frames[2].Click)
	assert.Empty(t, got.Frames[2].Picks)
}

func TestReplayOnFrame(t *testing.T) {
	tr, err := Load(filepath.Join("testdata", "dwell.yaml"))
	require.NoError(t, err)

	var frames []uint64
	_, err = Replay(context.Background(), tr, Options{OnFrame: func(f uint64) { frames = append(frames, f) }})
	require.NoError(t, err)
	assert.Equal(t, []uint64{1, 2, 3, 4, 5, 6, 7}, frames)
}
