package wall

import (
	"context"
	"fmt"

	"github.com/videowall/server/internal/domain"
	"github.com/videowall/server/internal/registry"
	"github.com/videowall/server/internal/syncer"
)

const wallIdLength = 8

type CreateWallParams struct {
	Layout string
}

type CreateWallResponse struct {
	WallId    string
	SlotCount int
}

func (s *service) CreateWall(ctx context.Context, params *CreateWallParams) (CreateWallResponse, error) {
	layout, err := domain.ParseLayout(params.Layout)
	if err != nil {
		return CreateWallResponse{}, fmt.Errorf("%w: %s", ErrInvalidLayout, params.Layout)
	}

	wallId := s.generator.GenerateRandomString(wallIdLength)

	w := &wallState{
		id:     wallId,
		layout: layout,
	}
	w.reg = registry.New(layout.SlotCount(), s.adapterFactory(wallId), s.logger)
	w.coord = syncer.New(w.reg, s.syncCfg, s.logger.With("wall", wallId))
	w.reg.OnChange(w.coord.Revalidate)

	s.mu.Lock()
	s.walls[wallId] = w
	s.mu.Unlock()

	s.logger.Info("wall created", "wall", wallId, "layout", layout)

	return CreateWallResponse{WallId: wallId, SlotCount: layout.SlotCount()}, nil
}

func (s *service) RemoveWall(ctx context.Context, wallId string) error {
	s.mu.Lock()
	w, ok := s.walls[wallId]
	delete(s.walls, wallId)
	s.mu.Unlock()

	if !ok {
		return ErrWallNotFound
	}

	w.coord.Close()
	w.reg.Close()
	s.logger.Info("wall removed", "wall", wallId)
	return nil
}

func (s *service) GetWall(ctx context.Context, wallId string) (WallView, error) {
	w, err := s.getWall(wallId)
	if err != nil {
		return WallView{}, err
	}

	return s.wallView(w), nil
}

func (s *service) wallView(w *wallState) WallView {
	w.mu.Lock()
	layout := w.layout
	loading := w.loading
	w.mu.Unlock()

	leader := w.coord.Leader()
	slots := make([]SlotView, w.reg.Len())
	for i := range slots {
		slots[i] = SlotView{
			Index:  i,
			Video:  w.reg.Video(i),
			Leader: i == leader,
		}
		if adapter := w.reg.Adapter(i); adapter != nil {
			slots[i].Ready = adapter.Ready()
			slots[i].Visible = adapter.Visible()
		}
	}

	return WallView{
		WallId:    w.id,
		Layout:    string(layout),
		Slots:     slots,
		Leader:    leader,
		SyncTime:  w.coord.SyncTime(),
		IsPlaying: w.coord.Playing(),
		IsLoading: loading,
	}
}

type AssignSlotParams struct {
	WallId    string
	SlotIndex int
	VideoId   int
}

func (s *service) AssignSlot(ctx context.Context, params *AssignSlotParams) (WallView, error) {
	w, err := s.getWall(params.WallId)
	if err != nil {
		return WallView{}, err
	}

	video, err := s.findVideo(ctx, params.VideoId)
	if err != nil {
		return WallView{}, err
	}

	if err := w.reg.Assign(params.SlotIndex, video); err != nil {
		return WallView{}, fmt.Errorf("failed to assign slot: %w", err)
	}

	return s.wallView(w), nil
}

type RemoveSlotParams struct {
	WallId    string
	SlotIndex int
}

func (s *service) RemoveSlot(ctx context.Context, params *RemoveSlotParams) (WallView, error) {
	w, err := s.getWall(params.WallId)
	if err != nil {
		return WallView{}, err
	}

	if err := w.reg.Remove(params.SlotIndex); err != nil {
		return WallView{}, fmt.Errorf("failed to clear slot: %w", err)
	}

	return s.wallView(w), nil
}

type ChangeLayoutParams struct {
	WallId string
	Layout string
}

// ChangeLayout resizes the wall grid. Slots beyond the new grid are dropped,
// the rest keep their assignments.
func (s *service) ChangeLayout(ctx context.Context, params *ChangeLayoutParams) (WallView, error) {
	w, err := s.getWall(params.WallId)
	if err != nil {
		return WallView{}, err
	}

	layout, err := domain.ParseLayout(params.Layout)
	if err != nil {
		return WallView{}, fmt.Errorf("%w: %s", ErrInvalidLayout, params.Layout)
	}

	w.mu.Lock()
	w.layout = layout
	w.mu.Unlock()
	w.reg.Resize(layout.SlotCount())

	return s.wallView(w), nil
}

type SetLeaderParams struct {
	WallId    string
	SlotIndex int
}

func (s *service) SetLeader(ctx context.Context, params *SetLeaderParams) (WallView, error) {
	w, err := s.getWall(params.WallId)
	if err != nil {
		return WallView{}, err
	}

	if err := w.coord.SetLeader(params.SlotIndex); err != nil {
		return WallView{}, err
	}

	return s.wallView(w), nil
}
