package playback

// PlayerState mirrors the embedded player's coarse playback state.
type PlayerState int

const (
	PlayerStateUnknown PlayerState = iota
	PlayerStatePlaying
	PlayerStatePaused
	PlayerStateEnded
)

// Player is the narrow capability surface of the external video player.
// Implementations wrap a third party that may not be running yet, may lack
// a capability, or may die mid-session; the tracker treats every error as
// "nothing happened this tick".
type Player interface {
	// Ready reports whether the player can currently answer queries.
	Ready() bool

	// State returns the current playback state.
	State() (PlayerState, error)

	// CurrentTime returns the playback position in seconds.
	CurrentTime() (float64, error)

	// Duration returns the total duration in seconds. Zero means unknown.
	Duration() (float64, error)
}
