package syncer

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/videowall/server/internal/registry"
	"github.com/videowall/server/pkg/timefmt"
)

var (
	ErrLeaderUnavailable = errors.New("leader player unavailable")
	ErrNoLeader          = errors.New("no leader assigned")
)

const noLeader = -1

type Config struct {
	// HeartbeatInterval is the cadence of leader time sampling while playback
	// is synchronized.
	HeartbeatInterval time.Duration
	// UpdateThreshold damps the shared clock: leader samples closer than this
	// to the current sync time are discarded.
	UpdateThreshold float64
	// DriftTolerance is the maximum follower deviation, in seconds, tolerated
	// before a corrective seek.
	DriftTolerance float64
	// FrameRate converts between frame numbers and seconds for stepping.
	FrameRate float64
}

func DefaultConfig() Config {
	return Config{
		HeartbeatInterval: time.Second,
		UpdateThreshold:   1.5,
		DriftTolerance:    2,
		FrameRate:         30,
	}
}

// Summary is the outcome of a fan-out operation: how many players the command
// reached and a human-readable status line.
type Summary struct {
	Count   int
	Message string
}

// Coordinator owns the leader designation and the shared playback clock. One
// slot is the leader; its reported time feeds the sync clock, and followers
// that drift past the tolerance are snapped back with a corrective seek.
type Coordinator struct {
	reg    *registry.Registry
	cfg    Config
	logger *slog.Logger

	mu        sync.Mutex
	leader    int
	syncTime  float64
	isPlaying bool
	closed    bool

	heartbeatStop chan struct{}
	heartbeatWG   sync.WaitGroup
}

func New(reg *registry.Registry, cfg Config, logger *slog.Logger) *Coordinator {
	if cfg.HeartbeatInterval <= 0 {
		cfg.HeartbeatInterval = time.Second
	}
	if cfg.FrameRate <= 0 {
		cfg.FrameRate = 30
	}

	return &Coordinator{
		reg:    reg,
		cfg:    cfg,
		logger: logger,
		leader: noLeader,
	}
}

// Leader returns the leader slot index, or -1 when none is assigned.
func (c *Coordinator) Leader() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.leader
}

func (c *Coordinator) SyncTime() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.syncTime
}

func (c *Coordinator) Playing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.isPlaying
}

// SetLeader designates a slot as the sync source. Pointing at an empty slot
// leaves the current leader in place.
func (c *Coordinator) SetLeader(slotIndex int) error {
	if !c.reg.Occupied(slotIndex) {
		return fmt.Errorf("%w: slot %d is empty", ErrLeaderUnavailable, slotIndex)
	}

	c.mu.Lock()
	c.leader = slotIndex
	c.mu.Unlock()

	c.logger.Debug("leader changed", "slot", slotIndex)
	c.Refresh()
	return nil
}

// Revalidate repairs the leader designation after a slot mutation. A leader
// whose slot emptied or fell off the grid is replaced by the first occupied
// slot, or cleared when the wall is empty.
func (c *Coordinator) Revalidate() {
	c.mu.Lock()
	if c.leader != noLeader && c.reg.Occupied(c.leader) {
		c.mu.Unlock()
		c.Refresh()
		return
	}

	if first, ok := c.reg.FirstOccupied(); ok {
		c.leader = first
		c.mu.Unlock()
		c.logger.Debug("leader reassigned", "slot", first)
		c.Refresh()
		return
	}

	c.leader = noLeader
	c.syncTime = 0
	c.isPlaying = false
	c.mu.Unlock()

	c.Refresh()
}

// Refresh reconciles the heartbeat goroutine with the current sync state.
// Safe to call from player event paths and slot change hooks.
func (c *Coordinator) Refresh() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reconcileHeartbeatLocked()
}

func (c *Coordinator) syncActiveLocked() bool {
	if c.closed || !c.isPlaying || c.leader == noLeader {
		return false
	}

	adapter := c.reg.Adapter(c.leader)
	return adapter != nil && adapter.Ready() && adapter.Visible()
}

func (c *Coordinator) reconcileHeartbeatLocked() {
	active := c.syncActiveLocked()

	if active && c.heartbeatStop == nil {
		stop := make(chan struct{})
		c.heartbeatStop = stop
		c.heartbeatWG.Add(1)
		go c.heartbeat(stop)
		return
	}

	if !active && c.heartbeatStop != nil {
		close(c.heartbeatStop)
		c.heartbeatStop = nil
	}
}

func (c *Coordinator) heartbeat(stop chan struct{}) {
	defer c.heartbeatWG.Done()

	ticker := time.NewTicker(c.cfg.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			c.tick()
		}
	}
}

// tick samples the leader clock. Backends without a real time channel get
// their local estimate advanced by one interval instead, which is the best
// available stand-in for wall-clock playback progress.
func (c *Coordinator) tick() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.syncActiveLocked() {
		c.reconcileHeartbeatLocked()
		return
	}

	adapter := c.reg.Adapter(c.leader)
	if adapter == nil {
		return
	}

	t := adapter.CurrentTime()
	if !adapter.Capabilities().CanReportTime {
		t += c.cfg.HeartbeatInterval.Seconds()
		adapter.NoteTime(t)
	}

	c.offerLeaderTimeLocked(t)
}

// OfferLeaderTime feeds an externally observed leader time sample into the
// shared clock, subject to the damping threshold.
func (c *Coordinator) OfferLeaderTime(seconds float64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.offerLeaderTimeLocked(seconds)
}

func (c *Coordinator) offerLeaderTimeLocked(seconds float64) bool {
	if math.Abs(seconds-c.syncTime) <= c.cfg.UpdateThreshold {
		return false
	}

	c.syncTime = seconds
	c.correctFollowersLocked()
	return true
}

// correctFollowersLocked seeks any ready follower whose local time has drifted
// past the tolerance away from the sync clock.
func (c *Coordinator) correctFollowersLocked() {
	for i := 0; i < c.reg.Len(); i++ {
		if i == c.leader {
			continue
		}

		adapter := c.reg.Adapter(i)
		if adapter == nil || !adapter.Ready() {
			continue
		}

		drift := math.Abs(adapter.CurrentTime() - c.syncTime)
		if drift > c.cfg.DriftTolerance {
			c.logger.Debug("correcting follower drift",
				"slot", i, "drift", drift, "target", c.syncTime)
			adapter.SeekTo(c.syncTime)
		}
	}
}

// PlayAll dispatches play to every ready player and marks the wall as
// playing.
func (c *Coordinator) PlayAll() Summary {
	count := 0
	for i := 0; i < c.reg.Len(); i++ {
		adapter := c.reg.Adapter(i)
		if adapter == nil || !adapter.Ready() {
			continue
		}
		if adapter.Play() {
			count++
		}
	}

	c.mu.Lock()
	c.isPlaying = true
	c.reconcileHeartbeatLocked()
	c.mu.Unlock()

	return Summary{
		Count:   count,
		Message: fmt.Sprintf("playing %d player(s)", count),
	}
}

// PauseAll dispatches pause to every mounted player. Pausing an already
// paused wall is harmless.
func (c *Coordinator) PauseAll() Summary {
	count := 0
	for i := 0; i < c.reg.Len(); i++ {
		adapter := c.reg.Adapter(i)
		if adapter == nil {
			continue
		}
		if adapter.Pause() {
			count++
		}
	}

	c.mu.Lock()
	c.isPlaying = false
	c.reconcileHeartbeatLocked()
	c.mu.Unlock()

	return Summary{
		Count:   count,
		Message: fmt.Sprintf("paused %d player(s)", count),
	}
}

// ResetAll pauses the wall and rewinds every player and the sync clock to
// zero.
func (c *Coordinator) ResetAll() Summary {
	count := 0
	for i := 0; i < c.reg.Len(); i++ {
		adapter := c.reg.Adapter(i)
		if adapter == nil {
			continue
		}
		adapter.Pause()
		if adapter.SeekTo(0) {
			count++
		}
	}

	c.mu.Lock()
	c.isPlaying = false
	c.syncTime = 0
	c.reconcileHeartbeatLocked()
	c.mu.Unlock()

	return Summary{
		Count:   count,
		Message: fmt.Sprintf("reset %d player(s) to %s", count, timefmt.Format(0)),
	}
}

// StepFrame pauses the wall and nudges every ready player one frame from its
// own current position, so offsets between slots survive the step. The sync
// clock follows the leader; its new time is returned.
func (c *Coordinator) StepFrame(forward bool) (float64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.leader == noLeader {
		return 0, ErrNoLeader
	}
	leader := c.reg.Adapter(c.leader)
	if leader == nil {
		return 0, ErrLeaderUnavailable
	}

	step := 1 / c.cfg.FrameRate
	if !forward {
		step = -step
	}

	leaderTarget := leader.CurrentTime() + step
	if leaderTarget < 0 {
		leaderTarget = 0
	}

	c.isPlaying = false
	for i := 0; i < c.reg.Len(); i++ {
		adapter := c.reg.Adapter(i)
		if adapter == nil || !adapter.Ready() {
			continue
		}

		target := adapter.CurrentTime() + step
		if target < 0 {
			target = 0
		}
		adapter.Pause()
		adapter.SeekTo(target)
	}

	c.syncTime = leaderTarget
	c.reconcileHeartbeatLocked()

	return leaderTarget, nil
}

// JumpToFrame pauses the wall and positions every player at the given frame
// number. Frame n maps to second n divided by the frame rate.
func (c *Coordinator) JumpToFrame(frame int) (float64, error) {
	if frame < 0 {
		return 0, fmt.Errorf("frame number must be non-negative, got %d", frame)
	}

	target := float64(frame) / c.cfg.FrameRate

	c.mu.Lock()
	c.isPlaying = false
	c.syncTime = target
	c.seekEveryoneLocked(target)
	c.reconcileHeartbeatLocked()
	c.mu.Unlock()

	return target, nil
}

// SyncAllToLeader snaps every follower to the leader's current time.
func (c *Coordinator) SyncAllToLeader() (Summary, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.leader == noLeader {
		return Summary{}, ErrNoLeader
	}
	adapter := c.reg.Adapter(c.leader)
	if adapter == nil || !adapter.Ready() {
		return Summary{}, ErrLeaderUnavailable
	}

	target := adapter.CurrentTime()
	c.syncTime = target

	count := 0
	for i := 0; i < c.reg.Len(); i++ {
		if i == c.leader {
			continue
		}
		follower := c.reg.Adapter(i)
		if follower == nil || !follower.Ready() {
			continue
		}
		follower.Pause()
		if follower.SeekTo(target) {
			count++
		}
	}

	return Summary{
		Count:   count,
		Message: fmt.Sprintf("synced %d player(s) to %s", count, timefmt.Format(target)),
	}, nil
}

// SyncAllToTime pauses the wall and seeks every ready player to an absolute
// time.
func (c *Coordinator) SyncAllToTime(seconds float64) Summary {
	if seconds < 0 {
		seconds = 0
	}

	c.mu.Lock()
	c.isPlaying = false
	c.syncTime = seconds
	count := c.seekEveryoneLocked(seconds)
	c.reconcileHeartbeatLocked()
	c.mu.Unlock()

	return Summary{
		Count:   count,
		Message: fmt.Sprintf("synced %d player(s) to %s", count, timefmt.Format(seconds)),
	}
}

func (c *Coordinator) seekEveryoneLocked(seconds float64) int {
	count := 0
	for i := 0; i < c.reg.Len(); i++ {
		adapter := c.reg.Adapter(i)
		if adapter == nil || !adapter.Ready() {
			continue
		}
		adapter.Pause()
		if adapter.SeekTo(seconds) {
			count++
		}
	}
	return count
}

// Close stops the heartbeat and rejects further sync activity.
func (c *Coordinator) Close() {
	c.mu.Lock()
	c.closed = true
	if c.heartbeatStop != nil {
		close(c.heartbeatStop)
		c.heartbeatStop = nil
	}
	c.mu.Unlock()

	c.heartbeatWG.Wait()
}
