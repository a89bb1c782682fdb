package wall

import (
	"context"

	"github.com/videowall/server/internal/player"
)

type PlayerEventParams struct {
	WallId    string
	SlotIndex int
	Event     player.Event
}

// HandlePlayerEvent forwards an inbound backend signal to the slot's adapter
// and lets the coordinator react. Leader time reports also feed the shared
// clock.
func (s *service) HandlePlayerEvent(ctx context.Context, params *PlayerEventParams) error {
	w, err := s.getWall(params.WallId)
	if err != nil {
		return err
	}

	adapter := w.reg.Adapter(params.SlotIndex)
	if adapter == nil {
		// events for unmounted slots race slot removal; drop them
		return nil
	}

	adapter.HandleEvent(params.Event)

	if params.Event.Kind == player.EventTimeReport && params.SlotIndex == w.coord.Leader() {
		w.coord.OfferLeaderTime(params.Event.Time)
	}

	w.coord.Refresh()
	return nil
}
