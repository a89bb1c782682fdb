package syncer

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/videowall/server/internal/domain"
	"github.com/videowall/server/internal/player"
	"github.com/videowall/server/internal/registry"
)

type fakePlayer struct {
	mu      sync.Mutex
	label   string
	ready   bool
	visible bool
	time    float64
	caps    player.Capabilities

	plays  int
	pauses int
	seeks  []float64
}

func (f *fakePlayer) Play() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.plays++
	return true
}

func (f *fakePlayer) Pause() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pauses++
	return true
}

func (f *fakePlayer) SeekTo(seconds float64) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seeks = append(f.seeks, seconds)
	f.time = seconds
	return true
}

func (f *fakePlayer) CurrentTime() float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.time
}

func (f *fakePlayer) NoteTime(seconds float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.time = seconds
}

func (f *fakePlayer) Ready() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ready
}

func (f *fakePlayer) Visible() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.visible
}

func (f *fakePlayer) Duration() float64                 { return 0 }
func (f *fakePlayer) Label() string                     { return f.label }
func (f *fakePlayer) Capabilities() player.Capabilities { return f.caps }
func (f *fakePlayer) HandleEvent(player.Event)          {}
func (f *fakePlayer) WaitReady(context.Context) error   { return nil }
func (f *fakePlayer) Close()                            {}

func (f *fakePlayer) Seeks() []float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]float64, len(f.seeks))
	copy(out, f.seeks)
	return out
}

func (f *fakePlayer) Plays() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.plays
}

func (f *fakePlayer) Pauses() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pauses
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type harness struct {
	reg     *registry.Registry
	coord   *Coordinator
	players map[int]*fakePlayer
}

func newHarness(t *testing.T, slots int, cfg Config) *harness {
	t.Helper()

	h := &harness{players: map[int]*fakePlayer{}}
	var mu sync.Mutex
	factory := func(slotIndex int, video domain.Video) (player.Adapter, error) {
		p := &fakePlayer{
			label:   video.Title,
			ready:   true,
			visible: true,
			caps:    player.Capabilities{CanSeek: true, CanReportTime: true, CanReportDuration: true},
		}
		mu.Lock()
		h.players[slotIndex] = p
		mu.Unlock()
		return p, nil
	}

	h.reg = registry.New(slots, factory, testLogger())
	h.coord = New(h.reg, cfg, testLogger())
	h.reg.OnChange(h.coord.Revalidate)
	t.Cleanup(func() {
		h.coord.Close()
		h.reg.Close()
	})

	return h
}

func (h *harness) assign(t *testing.T, slots ...int) {
	t.Helper()
	for _, i := range slots {
		require.NoError(t, h.reg.Assign(i, domain.Video{VideoId: "v", Title: "video"}))
	}
}

func TestCoordinator_LeaderReassignment(t *testing.T) {
	h := newHarness(t, 4, DefaultConfig())
	h.assign(t, 0, 1, 3)

	require.NoError(t, h.coord.SetLeader(0))
	assert.Equal(t, 0, h.coord.Leader())

	// removing the leader promotes the first occupied slot
	require.NoError(t, h.reg.Remove(0))
	assert.Equal(t, 1, h.coord.Leader())

	require.NoError(t, h.reg.Remove(1))
	assert.Equal(t, 3, h.coord.Leader())

	require.NoError(t, h.reg.Remove(3))
	assert.Equal(t, -1, h.coord.Leader())
}

func TestCoordinator_SetLeaderEmptySlot(t *testing.T) {
	h := newHarness(t, 4, DefaultConfig())
	h.assign(t, 0)
	require.NoError(t, h.coord.SetLeader(0))

	assert.ErrorIs(t, h.coord.SetLeader(2), ErrLeaderUnavailable)
	assert.Equal(t, 0, h.coord.Leader())
}

func TestCoordinator_OfferLeaderTimeDamping(t *testing.T) {
	h := newHarness(t, 2, DefaultConfig())
	h.assign(t, 0)
	require.NoError(t, h.coord.SetLeader(0))

	assert.True(t, h.coord.OfferLeaderTime(10))
	assert.Equal(t, 10.0, h.coord.SyncTime())

	// within the damping threshold: discarded
	assert.False(t, h.coord.OfferLeaderTime(10.5))
	assert.Equal(t, 10.0, h.coord.SyncTime())

	assert.True(t, h.coord.OfferLeaderTime(12))
	assert.Equal(t, 12.0, h.coord.SyncTime())
}

func TestCoordinator_DriftCorrection(t *testing.T) {
	h := newHarness(t, 2, DefaultConfig())
	h.assign(t, 0, 1)
	require.NoError(t, h.coord.SetLeader(0))

	follower := h.players[1]
	follower.NoteTime(9)

	// drift of 1.5s is inside the tolerance, no seek
	h.coord.OfferLeaderTime(10.5)
	assert.Empty(t, follower.Seeks())

	// 4s past the clock triggers a corrective seek
	h.coord.OfferLeaderTime(13)
	require.Len(t, follower.Seeks(), 1)
	assert.Equal(t, 13.0, follower.Seeks()[0])
}

func TestCoordinator_DriftSkipsUnreadyFollowers(t *testing.T) {
	h := newHarness(t, 2, DefaultConfig())
	h.assign(t, 0, 1)
	require.NoError(t, h.coord.SetLeader(0))

	follower := h.players[1]
	follower.mu.Lock()
	follower.ready = false
	follower.time = 0
	follower.mu.Unlock()

	h.coord.OfferLeaderTime(30)
	assert.Empty(t, follower.Seeks())
}

func TestCoordinator_PlayPauseAll(t *testing.T) {
	h := newHarness(t, 4, DefaultConfig())
	h.assign(t, 0, 1, 2)
	require.NoError(t, h.coord.SetLeader(0))

	h.players[2].mu.Lock()
	h.players[2].ready = false
	h.players[2].mu.Unlock()

	got := h.coord.PlayAll()
	assert.Equal(t, 2, got.Count)
	assert.True(t, h.coord.Playing())
	assert.Equal(t, 1, h.players[0].Plays())
	assert.Equal(t, 0, h.players[2].Plays())

	got = h.coord.PauseAll()
	assert.Equal(t, 3, got.Count)
	assert.False(t, h.coord.Playing())

	// pausing an already paused wall stays consistent
	got = h.coord.PauseAll()
	assert.Equal(t, 3, got.Count)
	assert.False(t, h.coord.Playing())
	assert.Equal(t, 2, h.players[0].Pauses())
}

func TestCoordinator_ResetAll(t *testing.T) {
	h := newHarness(t, 2, DefaultConfig())
	h.assign(t, 0, 1)
	require.NoError(t, h.coord.SetLeader(0))

	h.coord.OfferLeaderTime(42)
	h.coord.PlayAll()

	got := h.coord.ResetAll()
	assert.Equal(t, 2, got.Count)
	assert.False(t, h.coord.Playing())
	assert.Equal(t, 0.0, h.coord.SyncTime())
	assert.Equal(t, 0.0, h.players[1].CurrentTime())
}

func TestCoordinator_FrameMath(t *testing.T) {
	h := newHarness(t, 2, DefaultConfig())
	h.assign(t, 0, 1)
	require.NoError(t, h.coord.SetLeader(0))

	// frame 90 at 30fps lands on second 3
	target, err := h.coord.JumpToFrame(90)
	require.NoError(t, err)
	assert.Equal(t, 3.0, target)
	assert.Equal(t, 3.0, h.coord.SyncTime())
	assert.Equal(t, 3.0, h.players[1].CurrentTime())

	target, err = h.coord.StepFrame(true)
	require.NoError(t, err)
	assert.InDelta(t, 3.0+1.0/30, target, 1e-9)
	assert.False(t, h.coord.Playing())

	target, err = h.coord.StepFrame(false)
	require.NoError(t, err)
	assert.InDelta(t, 3.0, target, 1e-9)
}

func TestCoordinator_StepFramePreservesOffsets(t *testing.T) {
	h := newHarness(t, 2, DefaultConfig())
	h.assign(t, 0, 1)
	require.NoError(t, h.coord.SetLeader(0))

	h.players[0].NoteTime(3)
	h.players[1].NoteTime(10)

	// each player steps from its own position, the clock follows the leader
	target, err := h.coord.StepFrame(true)
	require.NoError(t, err)
	assert.InDelta(t, 3.0+1.0/30, target, 1e-9)
	assert.InDelta(t, 3.0+1.0/30, h.coord.SyncTime(), 1e-9)
	assert.InDelta(t, 10.0+1.0/30, h.players[1].CurrentTime(), 1e-9)

	target, err = h.coord.StepFrame(false)
	require.NoError(t, err)
	assert.InDelta(t, 3.0, target, 1e-9)
	assert.InDelta(t, 10.0, h.players[1].CurrentTime(), 1e-9)
}

func TestCoordinator_StepFrameClampsAtZero(t *testing.T) {
	h := newHarness(t, 1, DefaultConfig())
	h.assign(t, 0)
	require.NoError(t, h.coord.SetLeader(0))

	target, err := h.coord.StepFrame(false)
	require.NoError(t, err)
	assert.Equal(t, 0.0, target)
}

func TestCoordinator_JumpToFrameNegative(t *testing.T) {
	h := newHarness(t, 1, DefaultConfig())
	h.assign(t, 0)

	_, err := h.coord.JumpToFrame(-1)
	assert.Error(t, err)
}

func TestCoordinator_StepFrameNoLeader(t *testing.T) {
	h := newHarness(t, 2, DefaultConfig())

	_, err := h.coord.StepFrame(true)
	assert.ErrorIs(t, err, ErrNoLeader)
}

func TestCoordinator_SyncAllToLeader(t *testing.T) {
	h := newHarness(t, 3, DefaultConfig())
	h.assign(t, 0, 1, 2)
	require.NoError(t, h.coord.SetLeader(1))

	h.players[1].NoteTime(75)

	got, err := h.coord.SyncAllToLeader()
	require.NoError(t, err)
	assert.Equal(t, 2, got.Count)
	assert.Contains(t, got.Message, "01:15")
	assert.Equal(t, 75.0, h.players[0].CurrentTime())
	assert.Equal(t, 75.0, h.players[2].CurrentTime())
	// the leader itself is not re-seeked
	assert.Empty(t, h.players[1].Seeks())
}

func TestCoordinator_SyncAllToLeaderUnready(t *testing.T) {
	h := newHarness(t, 2, DefaultConfig())
	h.assign(t, 0)
	require.NoError(t, h.coord.SetLeader(0))

	h.players[0].mu.Lock()
	h.players[0].ready = false
	h.players[0].mu.Unlock()

	_, err := h.coord.SyncAllToLeader()
	assert.ErrorIs(t, err, ErrLeaderUnavailable)
}

func TestCoordinator_SyncAllToTime(t *testing.T) {
	h := newHarness(t, 2, DefaultConfig())
	h.assign(t, 0, 1)

	got := h.coord.SyncAllToTime(3725)
	assert.Equal(t, 2, got.Count)
	assert.Contains(t, got.Message, "01:02:05")
	assert.Equal(t, 3725.0, h.coord.SyncTime())
}

func TestCoordinator_HeartbeatAdvancesEstimatingLeader(t *testing.T) {
	cfg := DefaultConfig()
	cfg.HeartbeatInterval = 10 * time.Millisecond
	cfg.UpdateThreshold = 0.001

	h := newHarness(t, 1, cfg)
	h.assign(t, 0)
	require.NoError(t, h.coord.SetLeader(0))

	leader := h.players[0]
	leader.mu.Lock()
	leader.caps = player.Capabilities{}
	leader.mu.Unlock()

	h.coord.PlayAll()

	// each tick bumps the local estimate by one interval
	assert.Eventually(t, func() bool {
		return leader.CurrentTime() >= 3*cfg.HeartbeatInterval.Seconds()
	}, time.Second, 2*time.Millisecond)

	h.coord.PauseAll()
	settled := leader.CurrentTime()
	time.Sleep(5 * cfg.HeartbeatInterval)
	assert.Equal(t, settled, leader.CurrentTime())
}

func TestCoordinator_HeartbeatStopsWhenLeaderHidden(t *testing.T) {
	cfg := DefaultConfig()
	cfg.HeartbeatInterval = 10 * time.Millisecond
	cfg.UpdateThreshold = 0.001

	h := newHarness(t, 1, cfg)
	h.assign(t, 0)
	require.NoError(t, h.coord.SetLeader(0))

	leader := h.players[0]
	leader.mu.Lock()
	leader.caps = player.Capabilities{}
	leader.visible = false
	leader.mu.Unlock()

	h.coord.PlayAll()

	time.Sleep(5 * cfg.HeartbeatInterval)
	assert.Equal(t, 0.0, leader.CurrentTime())
}
