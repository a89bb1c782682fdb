package wall

import (
	"context"
	"time"

	"github.com/videowall/server/internal/catalog"
)

type SelectPresetParams struct {
	WallId string
	Preset string
}

type SelectPresetResponse struct {
	Assigned int      `json:"assigned"`
	Titles   []string `json:"titles"`
}

// SelectPreset fills the wall with a preset's videos in playback order, as
// many as the current layout holds; slots past the fill keep whatever they
// held. The wall is marked loading until every mounted player reports ready
// or the readiness window runs out, whichever comes first.
func (s *service) SelectPreset(ctx context.Context, params *SelectPresetParams) (SelectPresetResponse, error) {
	w, err := s.getWall(params.WallId)
	if err != nil {
		return SelectPresetResponse{}, err
	}

	videos, err := s.loadCatalog(ctx)
	if err != nil {
		return SelectPresetResponse{}, err
	}

	selected := catalog.SelectPreset(videos, params.Preset)
	if len(selected) == 0 {
		return SelectPresetResponse{}, ErrPresetEmpty
	}

	slotCount := w.reg.Len()
	if len(selected) > slotCount {
		selected = selected[:slotCount]
	}

	w.coord.PauseAll()

	titles := make([]string, 0, len(selected))
	for i, video := range selected {
		if err := w.reg.Assign(i, video); err != nil {
			return SelectPresetResponse{}, err
		}
		titles = append(titles, video.Title)
	}

	w.mu.Lock()
	w.loading = true
	w.batchEpoch++
	epoch := w.batchEpoch
	w.mu.Unlock()

	go s.awaitBatchReady(w, epoch, len(selected))

	s.logger.Info("preset selected",
		"wall", params.WallId, "preset", params.Preset, "assigned", len(selected))

	return SelectPresetResponse{Assigned: len(selected), Titles: titles}, nil
}

// awaitBatchReady blocks until every player of the batch is ready, bounded by
// the readiness window, then releases the loading gate. A newer batch
// supersedes this one via the epoch counter.
func (s *service) awaitBatchReady(w *wallState, epoch int, count int) {
	ctx, cancel := context.WithTimeout(context.Background(), s.readyTimeout)
	defer cancel()

	start := time.Now()
	for i := 0; i < count; i++ {
		adapter := w.reg.Adapter(i)
		if adapter == nil {
			continue
		}
		if err := adapter.WaitReady(ctx); err != nil {
			s.logger.Warn("player not ready before the window closed",
				"wall", w.id, "slot", i, "error", err)
		}
	}

	w.mu.Lock()
	if w.batchEpoch != epoch {
		w.mu.Unlock()
		return
	}
	w.loading = false
	w.mu.Unlock()

	w.coord.Refresh()
	s.logger.Info("preset batch settled",
		"wall", w.id, "players", count, "took", time.Since(start))
}
