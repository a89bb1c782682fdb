package player

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/videowall/server/internal/domain"
)

const (
	// driveLoadSettleDelay stands in for a readiness signal the preview embed
	// never reliably sends after the initial mount.
	driveLoadSettleDelay = 1500 * time.Millisecond
	// driveSeekSettleDelay is the readiness gap after a seek-by-reload.
	driveSeekSettleDelay = time.Second
)

// driveAdapter drives a Drive preview iframe. The preview embed is opaque: it
// cannot seek, cannot report time or duration, and only accepts best-effort
// postMessage commands. Seeking is emulated by rebuilding the preview URL with
// a start parameter and reloading the frame, and the current time is a locally
// tracked estimate, not ground truth. That approximation is inherent to the
// backend, not something this adapter can fix.
type driveAdapter struct {
	video  domain.Video
	sender CommandSender
	logger *slog.Logger

	loadSettleDelay time.Duration
	seekSettleDelay time.Duration

	mu            sync.Mutex
	ready         bool
	visible       bool
	lastKnownTime float64
	msgId         int
	closed        bool
	settleTimer   *time.Timer

	readyCh   chan struct{}
	readyOnce sync.Once
	done      chan struct{}
	closeOnce sync.Once
}

func newDriveAdapter(video domain.Video, sender CommandSender, logger *slog.Logger) *driveAdapter {
	a := &driveAdapter{
		video:           video,
		sender:          sender,
		logger:          logger.With("player", video.Title, "backend", "drive"),
		loadSettleDelay: driveLoadSettleDelay,
		seekSettleDelay: driveSeekSettleDelay,
		readyCh:         make(chan struct{}),
		done:            make(chan struct{}),
	}

	a.send(Command{
		Command: commandLoad,
		Params: map[string]any{
			"url": DrivePreviewURL(video.DriveFileId, 0),
		},
		Target: drivePlayerTarget,
	})

	a.mu.Lock()
	a.settleTimer = time.AfterFunc(a.loadSettleDelay, a.markReady)
	a.mu.Unlock()

	return a
}

func (a *driveAdapter) send(cmd Command) bool {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return false
	}
	a.msgId++
	cmd.MessageId = a.msgId
	a.mu.Unlock()

	if err := a.sender.SendCommand(cmd); err != nil {
		a.logger.Info("failed to send player command", "command", cmd.Command, "error", err)
		return false
	}

	return true
}

func (a *driveAdapter) Play() bool {
	return a.send(Command{Command: commandPlay, Target: drivePlayerTarget})
}

func (a *driveAdapter) Pause() bool {
	return a.send(Command{Command: commandPause, Target: drivePlayerTarget})
}

// SeekTo reloads the preview frame at the floored target second. The reload
// drops readiness until the settle timer restores it.
func (a *driveAdapter) SeekTo(seconds float64) bool {
	if seconds < 0 {
		seconds = 0
	}

	ok := a.send(Command{
		Command: commandLoad,
		Params: map[string]any{
			"url": DrivePreviewURL(a.video.DriveFileId, seconds),
		},
		Target: drivePlayerTarget,
	})
	if !ok {
		return false
	}

	a.mu.Lock()
	a.lastKnownTime = seconds
	a.ready = false
	if a.settleTimer != nil {
		a.settleTimer.Stop()
	}
	a.settleTimer = time.AfterFunc(a.seekSettleDelay, a.markReady)
	a.mu.Unlock()

	return true
}

func (a *driveAdapter) CurrentTime() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastKnownTime
}

func (a *driveAdapter) Duration() float64 {
	return 0
}

func (a *driveAdapter) NoteTime(seconds float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.lastKnownTime = seconds
}

func (a *driveAdapter) Ready() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.ready
}

func (a *driveAdapter) Visible() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.visible
}

func (a *driveAdapter) Label() string {
	return a.video.Title
}

func (a *driveAdapter) Capabilities() Capabilities {
	return Capabilities{}
}

func (a *driveAdapter) WaitReady(ctx context.Context) error {
	select {
	case <-a.readyCh:
		return nil
	case <-a.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (a *driveAdapter) HandleEvent(ev Event) {
	switch ev.Kind {
	case EventLoaded:
		a.markReady()
	case EventVisibility:
		a.mu.Lock()
		a.visible = ev.Visible
		a.mu.Unlock()
	case EventTimeReport:
		// The preview embed has no time channel; accept stray reports as
		// estimate updates.
		a.NoteTime(ev.Time)
	}
}

func (a *driveAdapter) markReady() {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return
	}
	a.ready = true
	if a.settleTimer != nil {
		a.settleTimer.Stop()
		a.settleTimer = nil
	}
	a.mu.Unlock()

	a.readyOnce.Do(func() { close(a.readyCh) })
}

func (a *driveAdapter) Close() {
	a.closeOnce.Do(func() {
		a.mu.Lock()
		a.closed = true
		a.ready = false
		if a.settleTimer != nil {
			a.settleTimer.Stop()
			a.settleTimer = nil
		}
		a.mu.Unlock()

		close(a.done)
	})
}
