package player

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/videowall/server/internal/domain"
)

// youtubeReadyGrace bounds how long the adapter waits for the iframe API
// onReady callback before declaring itself ready anyway.
const youtubeReadyGrace = 10 * time.Second

// youtubeAdapter drives a YouTube iframe-API player. The only backend with
// real seeking and authoritative time reports.
type youtubeAdapter struct {
	video  domain.Video
	sender CommandSender
	logger *slog.Logger

	mu            sync.Mutex
	ready         bool
	visible       bool
	playing       bool
	lastKnownTime float64
	duration      float64
	msgId         int
	closed        bool
	graceTimer    *time.Timer

	readyCh   chan struct{}
	readyOnce sync.Once
	done      chan struct{}
	closeOnce sync.Once
}

func newYouTubeAdapter(video domain.Video, sender CommandSender, logger *slog.Logger) *youtubeAdapter {
	a := &youtubeAdapter{
		video:   video,
		sender:  sender,
		logger:  logger.With("player", video.Title, "backend", "youtube"),
		readyCh: make(chan struct{}),
		done:    make(chan struct{}),
	}

	a.send(Command{
		Command: commandLoad,
		Params: map[string]any{
			"url": YouTubeEmbedURL(video.VideoId, DefaultEmbedOptions()),
		},
	})

	a.mu.Lock()
	a.graceTimer = time.AfterFunc(youtubeReadyGrace, a.markReady)
	a.mu.Unlock()

	return a
}

// send hands a command to the transport. Failures are logged and swallowed;
// an undeliverable command simply has no effect on the embed.
func (a *youtubeAdapter) send(cmd Command) bool {
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

func (a *youtubeAdapter) Play() bool {
	return a.send(Command{Command: commandPlay})
}

func (a *youtubeAdapter) Pause() bool {
	return a.send(Command{Command: commandPause})
}

func (a *youtubeAdapter) SeekTo(seconds float64) bool {
	if seconds < 0 {
		seconds = 0
	}

	ok := a.send(Command{
		Command: commandSeek,
		Params: map[string]any{
			"seconds":        seconds,
			"allowSeekAhead": true,
		},
	})
	if ok {
		a.mu.Lock()
		a.lastKnownTime = seconds
		a.mu.Unlock()
	}

	return ok
}

func (a *youtubeAdapter) CurrentTime() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastKnownTime
}

func (a *youtubeAdapter) Duration() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.duration
}

func (a *youtubeAdapter) NoteTime(seconds float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.lastKnownTime = seconds
}

func (a *youtubeAdapter) Ready() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.ready
}

func (a *youtubeAdapter) Visible() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.visible
}

func (a *youtubeAdapter) Label() string {
	return a.video.Title
}

func (a *youtubeAdapter) Capabilities() Capabilities {
	return Capabilities{CanSeek: true, CanReportTime: true, CanReportDuration: true}
}

func (a *youtubeAdapter) WaitReady(ctx context.Context) error {
	select {
	case <-a.readyCh:
		return nil
	case <-a.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (a *youtubeAdapter) HandleEvent(ev Event) {
	switch ev.Kind {
	case EventLoaded:
		a.markReady()
	case EventStateChange:
		a.mu.Lock()
		a.playing = ev.State == StatePlaying
		a.mu.Unlock()
	case EventTimeReport:
		a.mu.Lock()
		a.lastKnownTime = ev.Time
		if ev.Duration > 0 {
			a.duration = ev.Duration
		}
		a.mu.Unlock()
	case EventVisibility:
		a.mu.Lock()
		a.visible = ev.Visible
		a.mu.Unlock()
	}
}

func (a *youtubeAdapter) markReady() {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return
	}
	a.ready = true
	if a.graceTimer != nil {
		a.graceTimer.Stop()
		a.graceTimer = nil
	}
	a.mu.Unlock()

	a.readyOnce.Do(func() { close(a.readyCh) })
}

func (a *youtubeAdapter) Close() {
	a.closeOnce.Do(func() {
		a.mu.Lock()
		a.closed = true
		a.ready = false
		if a.graceTimer != nil {
			a.graceTimer.Stop()
			a.graceTimer = nil
		}
		a.mu.Unlock()

		close(a.done)
	})
}
