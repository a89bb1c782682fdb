package player

// Command is the envelope posted to the embedded player's window. The shape
// matches what the preview iframes accept over postMessage: a command name, a
// monotonically increasing message id, free-form params and a target hint.
type Command struct {
	Command   string         `json:"command"`
	MessageId int            `json:"messageId"`
	Params    map[string]any `json:"params,omitempty"`
	Target    string         `json:"target,omitempty"`
}

// CommandSender delivers commands to the embed hosting this adapter's slot.
// Implementations must be safe for concurrent use.
type CommandSender interface {
	SendCommand(cmd Command) error
}

const (
	commandLoad  = "load"
	commandPlay  = "playVideo"
	commandPause = "pauseVideo"
	commandSeek  = "seekTo"

	drivePlayerTarget = "drive-player"
)

// PlaybackState mirrors the iframe player state codes shared by the YouTube
// and Drive embeds: -1 unstarted, 0 ended, 1 playing, 2 paused, 3 buffering.
type PlaybackState int

const (
	StateUnstarted PlaybackState = -1
	StateEnded     PlaybackState = 0
	StatePlaying   PlaybackState = 1
	StatePaused    PlaybackState = 2
	StateBuffering PlaybackState = 3
)

// EventKind names the inbound backend signals an adapter reacts to.
type EventKind string

const (
	// EventLoaded fires when the embed finished loading (iframe load event or
	// the backend's onReady callback).
	EventLoaded EventKind = "loaded"
	// EventStateChange carries a PlaybackState transition.
	EventStateChange EventKind = "state_change"
	// EventTimeReport carries an authoritative time (and optionally duration)
	// report. Only time-reporting backends emit it.
	EventTimeReport EventKind = "time_report"
	// EventVisibility carries the 50%-in-viewport intersection flag.
	EventVisibility EventKind = "visibility"
)

// Event is one named backend signal delivered to an adapter.
type Event struct {
	Kind     EventKind
	State    PlaybackState
	Time     float64
	Duration float64
	Visible  bool
}
