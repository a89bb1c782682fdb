package registry

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/videowall/server/internal/domain"
	"github.com/videowall/server/internal/player"
)

var ErrSlotOutOfRange = errors.New("slot index out of range")

// AdapterFactory mounts a player for a slot assignment.
type AdapterFactory func(slotIndex int, video domain.Video) (player.Adapter, error)

// Registry holds the ordered fixed-size array of slot assignments and the
// live player adapter per occupied slot. Adapters are owned here: assignment
// tears down the previous adapter before mounting the next one, removal and
// truncation destroy them, Close destroys them all.
type Registry struct {
	factory  AdapterFactory
	logger   *slog.Logger
	onChange func()

	mu       sync.Mutex
	slots    []*domain.Video
	adapters []player.Adapter
}

func New(slotCount int, factory AdapterFactory, logger *slog.Logger) *Registry {
	return &Registry{
		factory:  factory,
		logger:   logger,
		slots:    make([]*domain.Video, slotCount),
		adapters: make([]player.Adapter, slotCount),
	}
}

// OnChange registers a hook invoked after every slot mutation, outside the
// registry lock. Used by the sync coordinator to revalidate the leader.
func (r *Registry) OnChange(f func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onChange = f
}

func (r *Registry) notifyChange() {
	r.mu.Lock()
	f := r.onChange
	r.mu.Unlock()

	if f != nil {
		f()
	}
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.slots)
}

func (r *Registry) Video(slotIndex int) *domain.Video {
	r.mu.Lock()
	defer r.mu.Unlock()
	if slotIndex < 0 || slotIndex >= len(r.slots) {
		return nil
	}
	return r.slots[slotIndex]
}

func (r *Registry) Occupied(slotIndex int) bool {
	return r.Video(slotIndex) != nil
}

func (r *Registry) Adapter(slotIndex int) player.Adapter {
	r.mu.Lock()
	defer r.mu.Unlock()
	if slotIndex < 0 || slotIndex >= len(r.adapters) {
		return nil
	}
	return r.adapters[slotIndex]
}

// Slots returns a snapshot of the assignment array.
func (r *Registry) Slots() []*domain.Video {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.Video, len(r.slots))
	copy(out, r.slots)
	return out
}

func (r *Registry) FirstOccupied() (int, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, v := range r.slots {
		if v != nil {
			return i, true
		}
	}
	return 0, false
}

// Assign puts video into the slot and mounts its player. Any previous player
// in the slot is destroyed first so no orphaned embed survives the swap.
func (r *Registry) Assign(slotIndex int, video domain.Video) error {
	r.mu.Lock()
	if slotIndex < 0 || slotIndex >= len(r.slots) {
		r.mu.Unlock()
		return fmt.Errorf("%w: %d", ErrSlotOutOfRange, slotIndex)
	}

	if prev := r.adapters[slotIndex]; prev != nil {
		prev.Close()
		r.adapters[slotIndex] = nil
	}

	adapter, err := r.factory(slotIndex, video)
	if err != nil {
		r.slots[slotIndex] = nil
		r.mu.Unlock()
		r.notifyChange()
		return fmt.Errorf("failed to mount player: %w", err)
	}

	v := video
	r.slots[slotIndex] = &v
	r.adapters[slotIndex] = adapter
	r.mu.Unlock()

	r.logger.Debug("slot assigned", "slot", slotIndex, "title", video.Title)
	r.notifyChange()
	return nil
}

// Remove clears the slot and destroys its player. Removing an empty slot is a
// no-op.
func (r *Registry) Remove(slotIndex int) error {
	r.mu.Lock()
	if slotIndex < 0 || slotIndex >= len(r.slots) {
		r.mu.Unlock()
		return fmt.Errorf("%w: %d", ErrSlotOutOfRange, slotIndex)
	}

	if adapter := r.adapters[slotIndex]; adapter != nil {
		adapter.Close()
		r.adapters[slotIndex] = nil
	}
	cleared := r.slots[slotIndex] != nil
	r.slots[slotIndex] = nil
	r.mu.Unlock()

	if cleared {
		r.logger.Debug("slot cleared", "slot", slotIndex)
		r.notifyChange()
	}
	return nil
}

// Resize truncates or pads the slot array to newSlotCount. Assignments beyond
// the new count are dropped and their players destroyed; still-valid indices
// keep their assignments.
func (r *Registry) Resize(newSlotCount int) {
	if newSlotCount < 0 {
		newSlotCount = 0
	}

	r.mu.Lock()
	for i := newSlotCount; i < len(r.adapters); i++ {
		if r.adapters[i] != nil {
			r.adapters[i].Close()
		}
	}

	slots := make([]*domain.Video, newSlotCount)
	adapters := make([]player.Adapter, newSlotCount)
	copy(slots, r.slots)
	copy(adapters, r.adapters)
	r.slots = slots
	r.adapters = adapters
	r.mu.Unlock()

	r.notifyChange()
}

// Close destroys every mounted player.
func (r *Registry) Close() {
	r.mu.Lock()
	for i, adapter := range r.adapters {
		if adapter != nil {
			adapter.Close()
			r.adapters[i] = nil
		}
		r.slots[i] = nil
	}
	r.mu.Unlock()

	r.notifyChange()
}
