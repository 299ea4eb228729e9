package playback

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/akademi/akademi/internal/domain"
)

// fakePlayer is a scriptable Player for driving the tracker.
type fakePlayer struct {
	ready       bool
	state       PlayerState
	stateErr    error
	currentTime float64
	timeErr     error
	duration    float64
	durationErr error
}

func (p *fakePlayer) Ready() bool                   { return p.ready }
func (p *fakePlayer) State() (PlayerState, error)   { return p.state, p.stateErr }
func (p *fakePlayer) CurrentTime() (float64, error) { return p.currentTime, p.timeErr }
func (p *fakePlayer) Duration() (float64, error)    { return p.duration, p.durationErr }

// fakeProgress records tracker writes in memory.
type fakeProgress struct {
	positions map[int]float64
	completed map[int]bool
	saves     int
	completes int
}

func newFakeProgress() *fakeProgress {
	return &fakeProgress{
		positions: make(map[int]float64),
		completed: make(map[int]bool),
	}
}

func (f *fakeProgress) ResumePosition(courseID, videoID int) float64 {
	if f.completed[videoID] {
		return 0
	}
	return f.positions[videoID]
}

func (f *fakeProgress) SetVideoProgress(courseID, videoID int, currentTime float64) {
	f.positions[videoID] = currentTime
	f.saves++
}

func (f *fakeProgress) MarkVideoComplete(courseID, videoID int) {
	f.completed[videoID] = true
	f.completes++
}

func (f *fakeProgress) IsVideoComplete(courseID, videoID int) bool {
	return f.completed[videoID]
}

func testVideos() []domain.Video {
	return []domain.Video{
		{ID: 101, Duration: 300, SequenceOrder: 1},
		{ID: 102, Duration: 120, SequenceOrder: 2},
		{ID: 103, Duration: 600, SequenceOrder: 3},
	}
}

func TestTracker_TickPersistsProgress(t *testing.T) {
	player := &fakePlayer{ready: true, state: PlayerStatePlaying, currentTime: 42, duration: 300}
	store := newFakeProgress()

	var gotVideoID int
	var gotPercent int
	cb := Callbacks{
		OnProgress: func(videoID int, currentTime, duration float64, percent int) {
			gotVideoID = videoID
			gotPercent = percent
		},
	}

	tr := NewTracker(1, testVideos(), player, store, cb, Config{}, nil)
	tr.Activate(0)
	tr.Tick(time.Now())

	require.Equal(t, StateTracking, tr.State())
	require.Equal(t, 42.0, store.positions[101])
	require.Equal(t, 101, gotVideoID)
	require.Equal(t, 14, gotPercent)
}

func TestTracker_CompletionLatchesOnce(t *testing.T) {
	player := &fakePlayer{ready: true, state: PlayerStatePlaying, currentTime: 280, duration: 300}
	store := newFakeProgress()

	var completions int
	cb := Callbacks{OnComplete: func(int) { completions++ }}

	tr := NewTracker(1, testVideos(), player, store, cb, Config{}, nil)
	tr.Activate(0)

	now := time.Now()
	tr.Tick(now)
	require.Equal(t, StateCompleted, tr.State())
	require.Equal(t, 1, completions)

	// Percent fluctuating around the threshold must not re-fire.
	player.currentTime = 265
	tr.Tick(now.Add(time.Second))
	player.currentTime = 285
	tr.Tick(now.Add(2 * time.Second))

	require.Equal(t, 1, completions)
	require.Equal(t, 1, store.completes)
}

func TestTracker_ActivateCancelsPreviousSession(t *testing.T) {
	player := &fakePlayer{ready: true, state: PlayerStatePlaying, currentTime: 10, duration: 300}
	store := newFakeProgress()

	tr := NewTracker(1, testVideos(), player, store, Callbacks{}, Config{}, nil)
	tr.Activate(0)
	tr.Tick(time.Now())
	require.Equal(t, 10.0, store.positions[101])

	tr.Activate(1)
	player.currentTime = 55
	player.duration = 120
	tr.Tick(time.Now())

	// The old video's position is untouched after the switch.
	require.Equal(t, 10.0, store.positions[101])
	require.Equal(t, 55.0, store.positions[102])
	require.Equal(t, 1, tr.ActiveIndex())
}

func TestTracker_AutoAdvanceAfterDelay(t *testing.T) {
	player := &fakePlayer{ready: true, state: PlayerStatePlaying, currentTime: 299.5, duration: 300}
	store := newFakeProgress()

	var advancedTo int
	advanced := false
	cb := Callbacks{OnAdvance: func(next int) { advancedTo = next; advanced = true }}

	cfg := Config{AdvanceDelay: 1500 * time.Millisecond}
	tr := NewTracker(1, testVideos(), player, store, cb, cfg, nil)
	tr.Activate(0)

	now := time.Now()
	tr.Tick(now)
	require.False(t, advanced)

	// Before the delay elapses nothing fires.
	tr.Tick(now.Add(time.Second))
	require.False(t, advanced)

	tr.Tick(now.Add(2 * time.Second))
	require.True(t, advanced)
	require.Equal(t, 1, advancedTo)
}

func TestTracker_ReplayNeverAutoAdvances(t *testing.T) {
	player := &fakePlayer{ready: true, state: PlayerStatePlaying, currentTime: 299.9, duration: 300}
	store := newFakeProgress()
	store.completed[101] = true

	advanced := false
	cb := Callbacks{OnAdvance: func(int) { advanced = true }}

	tr := NewTracker(1, testVideos(), player, store, cb, Config{}, nil)
	tr.Activate(0)
	require.Equal(t, 0.0, tr.StartPosition())

	now := time.Now()
	tr.Tick(now)
	tr.Tick(now.Add(5 * time.Second))
	tr.Ended(now.Add(6 * time.Second))
	tr.Tick(now.Add(10 * time.Second))

	require.False(t, advanced)
}

func TestTracker_LastVideoDoesNotAdvance(t *testing.T) {
	player := &fakePlayer{ready: true, state: PlayerStatePlaying, currentTime: 599.5, duration: 600}
	store := newFakeProgress()

	advanced := false
	cb := Callbacks{OnAdvance: func(int) { advanced = true }}

	tr := NewTracker(1, testVideos(), player, store, cb, Config{}, nil)
	tr.Activate(2)

	now := time.Now()
	tr.Tick(now)
	tr.Tick(now.Add(5 * time.Second))

	require.False(t, advanced)
	require.Equal(t, StateCompleted, tr.State())
}

func TestTracker_EndedCompletesWithoutDuration(t *testing.T) {
	player := &fakePlayer{ready: true, state: PlayerStateEnded}
	store := newFakeProgress()

	var completed int
	cb := Callbacks{OnComplete: func(videoID int) { completed = videoID }}

	tr := NewTracker(1, testVideos(), player, store, cb, Config{}, nil)
	tr.Activate(0)
	tr.Tick(time.Now())

	require.Equal(t, 101, completed)
	require.True(t, store.completed[101])
	require.Equal(t, StateCompleted, tr.State())
}

func TestTracker_HiddenSuspendsTicking(t *testing.T) {
	player := &fakePlayer{ready: true, state: PlayerStatePlaying, currentTime: 10, duration: 300}
	store := newFakeProgress()

	tr := NewTracker(1, testVideos(), player, store, Callbacks{}, Config{}, nil)
	tr.Activate(0)
	tr.SetVisible(false)

	tr.Tick(time.Now())
	require.Zero(t, store.saves)

	tr.SetVisible(true)
	tr.Tick(time.Now())
	require.Equal(t, 1, store.saves)
}

func TestTracker_PendingAdvanceFiresWhileHidden(t *testing.T) {
	player := &fakePlayer{ready: true, state: PlayerStatePlaying, currentTime: 299.5, duration: 300}
	store := newFakeProgress()

	advanced := false
	cb := Callbacks{OnAdvance: func(int) { advanced = true }}

	tr := NewTracker(1, testVideos(), player, store, cb, Config{}, nil)
	tr.Activate(0)

	now := time.Now()
	tr.Tick(now)
	tr.SetVisible(false)
	tr.Tick(now.Add(2 * time.Second))

	require.True(t, advanced)
}

func TestTracker_FailingPlayerIsNoOp(t *testing.T) {
	player := &fakePlayer{ready: false}
	store := newFakeProgress()

	tr := NewTracker(1, testVideos(), player, store, Callbacks{}, Config{}, nil)
	tr.Activate(0)
	tr.Tick(time.Now())
	require.Zero(t, store.saves)

	player.ready = true
	player.stateErr = errFake
	tr.Tick(time.Now())
	require.Zero(t, store.saves)

	player.stateErr = nil
	player.state = PlayerStatePlaying
	player.timeErr = errFake
	tr.Tick(time.Now())
	require.Zero(t, store.saves)
}

func TestTracker_PausedState(t *testing.T) {
	player := &fakePlayer{ready: true, state: PlayerStatePlaying, currentTime: 10, duration: 300}
	store := newFakeProgress()

	tr := NewTracker(1, testVideos(), player, store, Callbacks{}, Config{}, nil)
	tr.Activate(0)
	tr.Tick(time.Now())
	require.Equal(t, StateTracking, tr.State())

	player.state = PlayerStatePaused
	tr.Tick(time.Now())
	require.Equal(t, StatePaused, tr.State())

	player.state = PlayerStatePlaying
	tr.Tick(time.Now())
	require.Equal(t, StateTracking, tr.State())
}

func TestTracker_ZeroDurationFallsBackToMetadata(t *testing.T) {
	player := &fakePlayer{ready: true, state: PlayerStatePlaying, currentTime: 150, duration: 0}
	store := newFakeProgress()

	var gotPercent int
	cb := Callbacks{OnProgress: func(_ int, _, _ float64, percent int) { gotPercent = percent }}

	tr := NewTracker(1, testVideos(), player, store, cb, Config{}, nil)
	tr.Activate(0) // metadata duration 300
	tr.Tick(time.Now())

	require.Equal(t, 50, gotPercent)
}

func TestTracker_IndeterminateDurationSkipsMath(t *testing.T) {
	videos := []domain.Video{{ID: 201, Duration: 0}}
	player := &fakePlayer{ready: true, state: PlayerStatePlaying, currentTime: 150, duration: 0}
	store := newFakeProgress()

	tr := NewTracker(1, videos, player, store, Callbacks{}, Config{}, nil)
	tr.Activate(0)
	tr.Tick(time.Now())

	require.Zero(t, store.saves)
	require.Zero(t, store.completes)
}

func TestClampPercent(t *testing.T) {
	require.Equal(t, 100, clampPercent(310, 300))
	require.Equal(t, 0, clampPercent(-5, 300))
	require.Equal(t, 50, clampPercent(150, 300))
}

var errFake = errTest("fake player failure")

type errTest string

func (e errTest) Error() string { return string(e) }
