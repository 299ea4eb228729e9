package playback

import (
	"log/slog"
	"math"
	"time"

	"github.com/akademi/akademi/internal/domain"
)

// Defaults for the tracking discipline. The completion threshold is
// deliberately configurable; 90 is the product default.
const (
	DefaultCompletionPercent = 90
	DefaultAdvanceDelay      = 1500 * time.Millisecond

	// endTolerance treats positions within this many seconds of the
	// duration as end-of-video (player clocks drift below the duration).
	endTolerance = 1.0
)

// State is the tracker's lifecycle state for the active video.
type State int

const (
	StateIdle State = iota
	StateTracking
	StatePaused
	StateCompleted
)

// String returns a human-readable representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateTracking:
		return "tracking"
	case StatePaused:
		return "paused"
	case StateCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

// ProgressStore is the consumer-defined slice of the progress service the
// tracker needs.
type ProgressStore interface {
	ResumePosition(courseID, videoID int) float64
	SetVideoProgress(courseID, videoID int, currentTime float64)
	MarkVideoComplete(courseID, videoID int)
	IsVideoComplete(courseID, videoID int) bool
}

// Callbacks are invoked from inside the event handlers; they run on the
// driving event loop and must not block.
type Callbacks struct {
	OnProgress func(videoID int, currentTime, duration float64, percent int)
	OnComplete func(videoID int)
	OnAdvance  func(nextIndex int)
}

// Config tunes the tracker.
type Config struct {
	CompletionPercent int           // percent watched that counts as done
	AdvanceDelay      time.Duration // pause before auto-advancing
}

// session is the transient per-activation state. It is recreated on every
// video switch and never persisted.
type session struct {
	videoID             int
	startPosition       float64
	lastTick            time.Time
	completedFired      bool // at-most-once completion latch
	previouslyCompleted bool // completed in an earlier session: no auto-advance
	advanceScheduled    bool
	advanceAt           time.Time
}

// Tracker is the per-course playback progress state machine. It is driven
// by a small set of named events (Activate, Tick, SetVisible, Ended) from
// a single event loop; handlers are synchronous and complete atomically,
// so the tracker itself carries no locking.
type Tracker struct {
	courseID int
	videos   []domain.Video
	player   Player
	store    ProgressStore
	cb       Callbacks
	cfg      Config
	logger   *slog.Logger

	state       State
	activeIndex int
	sess        *session
	visible     bool
}

// NewTracker creates a tracker for a course's video list. No session
// exists until the first Activate.
func NewTracker(courseID int, videos []domain.Video, player Player, store ProgressStore, cb Callbacks, cfg Config, logger *slog.Logger) *Tracker {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.CompletionPercent <= 0 || cfg.CompletionPercent > 100 {
		cfg.CompletionPercent = DefaultCompletionPercent
	}
	if cfg.AdvanceDelay <= 0 {
		cfg.AdvanceDelay = DefaultAdvanceDelay
	}
	return &Tracker{
		courseID:    courseID,
		videos:      videos,
		player:      player,
		store:       store,
		cb:          cb,
		cfg:         cfg,
		logger:      logger,
		state:       StateIdle,
		activeIndex: -1,
		visible:     true,
	}
}

// State returns the tracker's current state.
func (t *Tracker) State() State { return t.state }

// ActiveIndex returns the index of the active video, -1 when idle.
func (t *Tracker) ActiveIndex() int { return t.activeIndex }

// StartPosition returns the offset the active video should start from.
func (t *Tracker) StartPosition() float64 {
	if t.sess == nil {
		return 0
	}
	return t.sess.startPosition
}

// Activate switches tracking to the video at index. The previous session
// is destroyed synchronously before the new one initializes, so no tick
// for the old video can fire afterwards.
func (t *Tracker) Activate(index int) {
	t.sess = nil // cancel-on-switch, before anything else
	t.state = StateIdle
	t.activeIndex = -1

	if index < 0 || index >= len(t.videos) {
		return
	}

	video := t.videos[index]
	t.activeIndex = index
	t.sess = &session{
		videoID:             video.ID,
		startPosition:       t.store.ResumePosition(t.courseID, video.ID),
		previouslyCompleted: t.store.IsVideoComplete(t.courseID, video.ID),
	}
	t.state = StateTracking

	t.logger.Debug("video activated",
		"courseID", t.courseID,
		"videoID", video.ID,
		"index", index,
		"startPosition", t.sess.startPosition,
		"replay", t.sess.previouslyCompleted)
}

// Deactivate destroys the current session (component unmount).
func (t *Tracker) Deactivate() {
	t.sess = nil
	t.state = StateIdle
	t.activeIndex = -1
}

// SetVisible records document visibility. While hidden, ticks skip their
// work (suspend, not cancel); position is untouched so tracking resumes
// exactly where it left off.
func (t *Tracker) SetVisible(visible bool) {
	t.visible = visible
}

// Tick advances the state machine by one polling interval. Every call
// into the player is guarded: a player that is missing, not ready, or
// failing turns the tick into a no-op.
func (t *Tracker) Tick(now time.Time) {
	if t.sess == nil {
		return
	}

	// A pending auto-advance fires regardless of player health.
	if t.sess.advanceScheduled {
		if !now.Before(t.sess.advanceAt) {
			t.fireAdvance()
		}
		return
	}

	if !t.visible {
		return // suspended while backgrounded
	}

	if t.player == nil || !t.player.Ready() {
		return
	}

	state, err := t.player.State()
	if err != nil {
		return
	}
	switch state {
	case PlayerStateEnded:
		t.Ended(now)
		return
	case PlayerStatePlaying:
		if t.state == StatePaused {
			t.state = StateTracking
		}
	default:
		if t.state == StateTracking {
			t.state = StatePaused
		}
		return
	}

	currentTime, err := t.player.CurrentTime()
	if err != nil || math.IsNaN(currentTime) {
		return
	}

	duration, err := t.player.Duration()
	if err != nil || math.IsNaN(duration) {
		return
	}
	if duration <= 0 {
		duration = float64(t.videos[t.activeIndex].Duration)
	}
	if duration <= 0 {
		return // indeterminate: no percent or completion math
	}

	t.sess.lastTick = now
	percent := clampPercent(currentTime, duration)

	t.store.SetVideoProgress(t.courseID, t.sess.videoID, currentTime)
	if t.cb.OnProgress != nil {
		t.cb.OnProgress(t.sess.videoID, currentTime, duration, percent)
	}

	if percent >= t.cfg.CompletionPercent {
		t.complete()
	}

	if currentTime >= duration-endTolerance {
		t.scheduleAdvance(now)
	}
}

// Ended handles the player's explicit end-of-video signal. It is
// authoritative: completion latches regardless of the last computed
// percent, even when the duration was never known.
func (t *Tracker) Ended(now time.Time) {
	if t.sess == nil {
		return
	}
	t.complete()
	t.scheduleAdvance(now)
}

// complete latches completion at most once per activation.
func (t *Tracker) complete() {
	if t.sess.completedFired {
		return
	}
	t.sess.completedFired = true
	t.state = StateCompleted

	t.store.MarkVideoComplete(t.courseID, t.sess.videoID)
	if t.cb.OnComplete != nil {
		t.cb.OnComplete(t.sess.videoID)
	}

	t.logger.Debug("video completed", "courseID", t.courseID, "videoID", t.sess.videoID)
}

// scheduleAdvance arms the auto-advance timer. Skipped when the video was
// already completed in a prior session (replay must not skip ahead) or
// when there is no next video.
func (t *Tracker) scheduleAdvance(now time.Time) {
	if t.sess.advanceScheduled || t.sess.previouslyCompleted {
		return
	}
	if t.activeIndex >= len(t.videos)-1 {
		return
	}
	t.sess.advanceScheduled = true
	t.sess.advanceAt = now.Add(t.cfg.AdvanceDelay)
}

func (t *Tracker) fireAdvance() {
	next := t.activeIndex + 1
	t.sess.advanceScheduled = false
	if t.cb.OnAdvance != nil {
		t.cb.OnAdvance(next)
	}
}

// clampPercent computes watched percent clamped to [0,100]; a position
// slightly past the duration (clock drift) never reports over 100.
func clampPercent(currentTime, duration float64) int {
	percent := int(math.Round(currentTime / duration * 100))
	if percent > 100 {
		percent = 100
	}
	if percent < 0 {
		percent = 0
	}
	return percent
}
