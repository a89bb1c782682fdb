package wall

import "github.com/videowall/server/internal/domain"

type SlotView struct {
	Index   int           `json:"index"`
	Video   *domain.Video `json:"video"`
	Ready   bool          `json:"is_ready"`
	Visible bool          `json:"is_visible"`
	Leader  bool          `json:"is_leader"`
}

type WallView struct {
	WallId    string     `json:"wall_id"`
	Layout    string     `json:"layout"`
	Slots     []SlotView `json:"slots"`
	Leader    int        `json:"leader"`
	SyncTime  float64    `json:"sync_time"`
	IsPlaying bool       `json:"is_playing"`
	IsLoading bool       `json:"is_loading"`
}

type PlaybackView struct {
	Count    int     `json:"count"`
	Message  string  `json:"message"`
	SyncTime float64 `json:"sync_time"`
}
