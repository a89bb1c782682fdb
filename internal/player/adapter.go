package player

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/videowall/server/internal/domain"
)

var (
	ErrClosed         = errors.New("player closed")
	ErrUnknownBackend = errors.New("video has no playable backend reference")
)

// Capabilities describes what a backend can actually do. Embedded players are
// uneven: only the YouTube iframe API exposes real seeking and time reports,
// the Drive preview iframe exposes neither.
type Capabilities struct {
	CanSeek           bool
	CanReportTime     bool
	CanReportDuration bool
}

// Adapter is the uniform transport-control contract over one embedded player.
// Callers never see backend differences; the sync coordinator only consults
// Capabilities, never the concrete type.
//
// Transport methods return true when the command was handed to the transport.
// A failed command is logged inside the adapter and reported as false; it is
// never surfaced as an error to the caller, because embedded iframes give no
// reliable confirmation channel anyway.
type Adapter interface {
	Play() bool
	Pause() bool
	// SeekTo clamps negative targets to zero.
	SeekTo(seconds float64) bool

	// CurrentTime is the last known time in seconds. For backends that cannot
	// report time this is a locally tracked estimate, not ground truth.
	CurrentTime() float64
	// Duration returns 0 when the backend cannot report it.
	Duration() float64
	// NoteTime records an externally derived time estimate (heartbeat ticks,
	// inbound time reports).
	NoteTime(seconds float64)

	Ready() bool
	Visible() bool
	Label() string
	Capabilities() Capabilities

	// WaitReady blocks until the player first becomes ready, the context is
	// done, or the adapter is closed.
	WaitReady(ctx context.Context) error

	// HandleEvent feeds one named backend event into the adapter state machine.
	HandleEvent(ev Event)

	// Close releases timers and marks the adapter dead. Idempotent.
	Close()
}

// New picks the backend variant from the video record: a YouTube video id
// mounts the iframe-API variant, a Drive file id mounts the preview-iframe
// variant.
func New(video domain.Video, sender CommandSender, logger *slog.Logger) (Adapter, error) {
	switch {
	case video.IsYouTube():
		return newYouTubeAdapter(video, sender, logger), nil
	case video.IsDrive():
		return newDriveAdapter(video, sender, logger), nil
	}

	return nil, fmt.Errorf("%w: id %d", ErrUnknownBackend, video.Id)
}
