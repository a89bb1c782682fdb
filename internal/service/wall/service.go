package wall

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/videowall/server/internal/catalog"
	"github.com/videowall/server/internal/domain"
	"github.com/videowall/server/internal/player"
	"github.com/videowall/server/internal/registry"
	"github.com/videowall/server/internal/repository/viewconfig"
	"github.com/videowall/server/internal/syncer"
	"github.com/videowall/server/pkg/randstr"
)

var (
	ErrWallNotFound  = errors.New("wall not found")
	ErrVideoNotFound = errors.New("video not found in catalog")
	ErrInvalidLayout = errors.New("invalid layout")
	ErrBatchLoading  = errors.New("players are still loading")
	ErrPresetEmpty   = errors.New("preset has no videos")
)

const defaultReadyTimeout = 10 * time.Second

type iViewConfigRepo interface {
	Save(ctx context.Context, cfg viewconfig.Config) error
	Get(ctx context.Context, configId string) (viewconfig.Config, error)
	List(ctx context.Context) ([]viewconfig.Config, error)
	Delete(ctx context.Context, configId string) error
}

type iCatalogLoader interface {
	Load(ctx context.Context) ([]domain.Video, error)
}

// iCommandDispatcher routes a player command to the browser page hosting a
// wall's embeds.
type iCommandDispatcher interface {
	DispatchCommand(wallId string, slotIndex int, cmd player.Command) error
}

type iGenerator interface {
	GenerateRandomString(length int) string
}

// wallState bundles the per-wall runtime: the slot registry, the sync
// coordinator and the preset loading batch.
type wallState struct {
	id    string
	reg   *registry.Registry
	coord *syncer.Coordinator

	mu         sync.Mutex
	layout     domain.Layout
	loading    bool
	batchEpoch int
}

type service struct {
	viewConfigRepo iViewConfigRepo
	catalogLoader  iCatalogLoader
	dispatcher     iCommandDispatcher
	generator      iGenerator
	syncCfg        syncer.Config
	readyTimeout   time.Duration
	logger         *slog.Logger

	mu    sync.Mutex
	walls map[string]*wallState

	catalogMu sync.Mutex
	catalog   []domain.Video
}

func NewService(
	viewConfigRepo iViewConfigRepo,
	catalogLoader iCatalogLoader,
	dispatcher iCommandDispatcher,
	syncCfg syncer.Config,
	logger *slog.Logger,
) *service {
	s := service{
		viewConfigRepo: viewConfigRepo,
		catalogLoader:  catalogLoader,
		dispatcher:     dispatcher,
		syncCfg:        syncCfg,
		readyTimeout:   defaultReadyTimeout,
		logger:         logger,
		walls:          map[string]*wallState{},
	}

	letterBytes := []byte("abcdefghijklmnopqrstuvwxyz0123456789")
	s.generator = randstr.New(letterBytes)

	return &s
}

func (s *service) getWall(wallId string) (*wallState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.walls[wallId]
	if !ok {
		return nil, ErrWallNotFound
	}
	return w, nil
}

// slotSender adapts the dispatcher to the per-slot transport the player
// adapters expect.
type slotSender struct {
	dispatcher iCommandDispatcher
	wallId     string
	slotIndex  int
}

func (s slotSender) SendCommand(cmd player.Command) error {
	return s.dispatcher.DispatchCommand(s.wallId, s.slotIndex, cmd)
}

func (s *service) adapterFactory(wallId string) registry.AdapterFactory {
	return func(slotIndex int, video domain.Video) (player.Adapter, error) {
		sender := slotSender{dispatcher: s.dispatcher, wallId: wallId, slotIndex: slotIndex}
		return player.New(video, sender, s.logger.With("wall", wallId, "slot", slotIndex))
	}
}

// loadCatalog returns the cached catalog, fetching it on first use.
func (s *service) loadCatalog(ctx context.Context) ([]domain.Video, error) {
	s.catalogMu.Lock()
	defer s.catalogMu.Unlock()

	if s.catalog != nil {
		return s.catalog, nil
	}

	videos, err := s.catalogLoader.Load(ctx)
	if err != nil {
		return nil, err
	}

	s.catalog = videos
	return videos, nil
}

func (s *service) Catalog(ctx context.Context) ([]domain.Video, error) {
	return s.loadCatalog(ctx)
}

// ReloadCatalog drops the cache and refetches.
func (s *service) ReloadCatalog(ctx context.Context) ([]domain.Video, error) {
	s.catalogMu.Lock()
	s.catalog = nil
	s.catalogMu.Unlock()

	return s.loadCatalog(ctx)
}

func (s *service) Presets(ctx context.Context) ([]string, error) {
	videos, err := s.loadCatalog(ctx)
	if err != nil {
		return nil, err
	}

	return catalog.Prefixes(videos), nil
}

func (s *service) findVideo(ctx context.Context, videoId int) (domain.Video, error) {
	videos, err := s.loadCatalog(ctx)
	if err != nil {
		return domain.Video{}, err
	}

	for _, v := range videos {
		if v.Id == videoId {
			return v, nil
		}
	}

	return domain.Video{}, ErrVideoNotFound
}

// Close tears down every wall.
func (s *service) Close() {
	s.mu.Lock()
	walls := s.walls
	s.walls = map[string]*wallState{}
	s.mu.Unlock()

	for _, w := range walls {
		w.coord.Close()
		w.reg.Close()
	}
}
