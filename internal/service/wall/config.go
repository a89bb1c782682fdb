package wall

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/videowall/server/internal/domain"
	"github.com/videowall/server/internal/repository/viewconfig"
)

type SaveConfigParams struct {
	WallId string
	Name   string
}

// SaveConfig snapshots the wall's layout and slot assignments under a new
// config id.
func (s *service) SaveConfig(ctx context.Context, params *SaveConfigParams) (domain.ViewConfig, error) {
	w, err := s.getWall(params.WallId)
	if err != nil {
		return domain.ViewConfig{}, err
	}

	w.mu.Lock()
	layout := w.layout
	w.mu.Unlock()

	slots := make([]*int, w.reg.Len())
	for i := range slots {
		if video := w.reg.Video(i); video != nil {
			id := video.Id
			slots[i] = &id
		}
	}

	cfg := domain.ViewConfig{
		Id:       uuid.NewString(),
		Name:     params.Name,
		ViewMode: layout,
		Slots:    slots,
	}

	record, err := viewconfig.FromDomain(cfg)
	if err != nil {
		return domain.ViewConfig{}, err
	}
	if err := s.viewConfigRepo.Save(ctx, record); err != nil {
		return domain.ViewConfig{}, err
	}

	s.logger.Info("view config saved", "config", cfg.Id, "name", cfg.Name)
	return cfg, nil
}

type LoadConfigParams struct {
	WallId   string
	ConfigId string
}

// LoadConfig applies a saved arrangement to the wall: resize to the stored
// layout, then mount the stored catalog videos slot by slot. Slots whose
// video has left the catalog come up empty.
func (s *service) LoadConfig(ctx context.Context, params *LoadConfigParams) (WallView, error) {
	w, err := s.getWall(params.WallId)
	if err != nil {
		return WallView{}, err
	}

	record, err := s.viewConfigRepo.Get(ctx, params.ConfigId)
	if err != nil {
		return WallView{}, err
	}
	cfg, err := record.ToDomain()
	if err != nil {
		return WallView{}, err
	}

	layout, err := domain.ParseLayout(string(cfg.ViewMode))
	if err != nil {
		return WallView{}, fmt.Errorf("%w: %s", ErrInvalidLayout, cfg.ViewMode)
	}

	w.coord.PauseAll()

	w.mu.Lock()
	w.layout = layout
	w.mu.Unlock()
	w.reg.Resize(layout.SlotCount())

	for i := 0; i < w.reg.Len(); i++ {
		var videoId *int
		if i < len(cfg.Slots) {
			videoId = cfg.Slots[i]
		}

		if videoId == nil {
			if err := w.reg.Remove(i); err != nil {
				return WallView{}, err
			}
			continue
		}

		video, err := s.findVideo(ctx, *videoId)
		if err != nil {
			s.logger.Warn("saved slot references a video missing from the catalog",
				"config", params.ConfigId, "slot", i, "video_id", *videoId)
			if err := w.reg.Remove(i); err != nil {
				return WallView{}, err
			}
			continue
		}

		if err := w.reg.Assign(i, video); err != nil {
			return WallView{}, err
		}
	}

	s.logger.Info("view config loaded", "wall", params.WallId, "config", params.ConfigId)
	return s.wallView(w), nil
}

func (s *service) DeleteConfig(ctx context.Context, configId string) error {
	if err := s.viewConfigRepo.Delete(ctx, configId); err != nil {
		return err
	}

	s.logger.Info("view config deleted", "config", configId)
	return nil
}

func (s *service) ListConfigs(ctx context.Context) ([]domain.ViewConfig, error) {
	records, err := s.viewConfigRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	configs := make([]domain.ViewConfig, 0, len(records))
	for _, record := range records {
		cfg, err := record.ToDomain()
		if err != nil {
			return nil, err
		}
		configs = append(configs, cfg)
	}

	return configs, nil
}
