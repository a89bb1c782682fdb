package controller

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/videowall/server/internal/domain"
	"github.com/videowall/server/internal/service/wall"
	"github.com/videowall/server/pkg/validator"
)

type iWallService interface {
	CreateWall(context.Context, *wall.CreateWallParams) (wall.CreateWallResponse, error)
	RemoveWall(ctx context.Context, wallId string) error
	GetWall(ctx context.Context, wallId string) (wall.WallView, error)
	AssignSlot(context.Context, *wall.AssignSlotParams) (wall.WallView, error)
	RemoveSlot(context.Context, *wall.RemoveSlotParams) (wall.WallView, error)
	ChangeLayout(context.Context, *wall.ChangeLayoutParams) (wall.WallView, error)
	SetLeader(context.Context, *wall.SetLeaderParams) (wall.WallView, error)
	SelectPreset(context.Context, *wall.SelectPresetParams) (wall.SelectPresetResponse, error)
	PlayAll(ctx context.Context, wallId string) (wall.PlaybackView, error)
	PauseAll(ctx context.Context, wallId string) (wall.PlaybackView, error)
	ResetAll(ctx context.Context, wallId string) (wall.PlaybackView, error)
	StepFrame(context.Context, *wall.StepFrameParams) (wall.PlaybackView, error)
	JumpToFrame(context.Context, *wall.JumpToFrameParams) (wall.PlaybackView, error)
	SyncToLeader(ctx context.Context, wallId string) (wall.PlaybackView, error)
	SyncToTime(context.Context, *wall.SyncToTimeParams) (wall.PlaybackView, error)
	SaveConfig(context.Context, *wall.SaveConfigParams) (domain.ViewConfig, error)
	LoadConfig(context.Context, *wall.LoadConfigParams) (wall.WallView, error)
	DeleteConfig(ctx context.Context, configId string) error
	ListConfigs(ctx context.Context) ([]domain.ViewConfig, error)
	HandlePlayerEvent(context.Context, *wall.PlayerEventParams) error
	Catalog(ctx context.Context) ([]domain.Video, error)
	ReloadCatalog(ctx context.Context) ([]domain.Video, error)
	Presets(ctx context.Context) ([]string, error)
}

type controller struct {
	wallService iWallService
	upgrader    websocket.Upgrader
	validate    *validator.Validator
	conns       *Dispatcher
	logger      *slog.Logger
}

func NewController(wallService iWallService, dispatcher *Dispatcher, logger *slog.Logger) *controller {
	return &controller{
		wallService: wallService,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		validate: validator.NewValidator(),
		conns:    dispatcher,
		logger:   logger,
	}
}

func (c controller) generateTimeBasedId() string {
	return fmt.Sprintf("%d", time.Now().UnixMicro())
}
