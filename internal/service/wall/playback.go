package wall

import (
	"context"
	"fmt"

	"github.com/videowall/server/pkg/timefmt"
)

// PlayAll starts synchronized playback. While a preset batch is still
// loading the request is rejected so half-mounted players do not start out
// of step.
func (s *service) PlayAll(ctx context.Context, wallId string) (PlaybackView, error) {
	w, err := s.getWall(wallId)
	if err != nil {
		return PlaybackView{}, err
	}

	w.mu.Lock()
	loading := w.loading
	w.mu.Unlock()
	if loading {
		return PlaybackView{}, ErrBatchLoading
	}

	got := w.coord.PlayAll()
	return PlaybackView{
		Count:    got.Count,
		Message:  got.Message,
		SyncTime: w.coord.SyncTime(),
	}, nil
}

func (s *service) PauseAll(ctx context.Context, wallId string) (PlaybackView, error) {
	w, err := s.getWall(wallId)
	if err != nil {
		return PlaybackView{}, err
	}

	got := w.coord.PauseAll()
	return PlaybackView{
		Count:    got.Count,
		Message:  got.Message,
		SyncTime: w.coord.SyncTime(),
	}, nil
}

func (s *service) ResetAll(ctx context.Context, wallId string) (PlaybackView, error) {
	w, err := s.getWall(wallId)
	if err != nil {
		return PlaybackView{}, err
	}

	got := w.coord.ResetAll()
	return PlaybackView{
		Count:    got.Count,
		Message:  got.Message,
		SyncTime: 0,
	}, nil
}

type StepFrameParams struct {
	WallId  string
	Forward bool
}

func (s *service) StepFrame(ctx context.Context, params *StepFrameParams) (PlaybackView, error) {
	w, err := s.getWall(params.WallId)
	if err != nil {
		return PlaybackView{}, err
	}

	target, err := w.coord.StepFrame(params.Forward)
	if err != nil {
		return PlaybackView{}, err
	}

	return PlaybackView{
		Count:    w.reg.Len(),
		Message:  fmt.Sprintf("stepped to %s", timefmt.Format(target)),
		SyncTime: target,
	}, nil
}

type JumpToFrameParams struct {
	WallId string
	Frame  int
}

func (s *service) JumpToFrame(ctx context.Context, params *JumpToFrameParams) (PlaybackView, error) {
	w, err := s.getWall(params.WallId)
	if err != nil {
		return PlaybackView{}, err
	}

	target, err := w.coord.JumpToFrame(params.Frame)
	if err != nil {
		return PlaybackView{}, err
	}

	return PlaybackView{
		Count:    w.reg.Len(),
		Message:  fmt.Sprintf("jumped to %s", timefmt.Format(target)),
		SyncTime: target,
	}, nil
}

func (s *service) SyncToLeader(ctx context.Context, wallId string) (PlaybackView, error) {
	w, err := s.getWall(wallId)
	if err != nil {
		return PlaybackView{}, err
	}

	got, err := w.coord.SyncAllToLeader()
	if err != nil {
		return PlaybackView{}, err
	}

	return PlaybackView{
		Count:    got.Count,
		Message:  got.Message,
		SyncTime: w.coord.SyncTime(),
	}, nil
}

type SyncToTimeParams struct {
	WallId  string
	Seconds float64
}

func (s *service) SyncToTime(ctx context.Context, params *SyncToTimeParams) (PlaybackView, error) {
	w, err := s.getWall(params.WallId)
	if err != nil {
		return PlaybackView{}, err
	}

	got := w.coord.SyncAllToTime(params.Seconds)
	return PlaybackView{
		Count:    got.Count,
		Message:  got.Message,
		SyncTime: w.coord.SyncTime(),
	}, nil
}
