package wall

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/videowall/server/internal/domain"
	"github.com/videowall/server/internal/player"
	"github.com/videowall/server/internal/repository/viewconfig"
	"github.com/videowall/server/internal/syncer"
)

type fakeDispatcher struct {
	mu       sync.Mutex
	commands []dispatched
}

type dispatched struct {
	wallId    string
	slotIndex int
	cmd       player.Command
}

func (f *fakeDispatcher) DispatchCommand(wallId string, slotIndex int, cmd player.Command) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.commands = append(f.commands, dispatched{wallId: wallId, slotIndex: slotIndex, cmd: cmd})
	return nil
}

func (f *fakeDispatcher) count(command string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, d := range f.commands {
		if d.cmd.Command == command {
			n++
		}
	}
	return n
}

type fakeLoader struct {
	videos []domain.Video
}

func (f *fakeLoader) Load(ctx context.Context) ([]domain.Video, error) {
	return f.videos, nil
}

type memConfigRepo struct {
	mu      sync.Mutex
	configs map[string]viewconfig.Config
	order   []string
}

func newMemConfigRepo() *memConfigRepo {
	return &memConfigRepo{configs: map[string]viewconfig.Config{}}
}

func (m *memConfigRepo) Save(ctx context.Context, cfg viewconfig.Config) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.configs[cfg.Id]; !ok {
		m.order = append(m.order, cfg.Id)
	}
	m.configs[cfg.Id] = cfg
	return nil
}

func (m *memConfigRepo) Get(ctx context.Context, configId string) (viewconfig.Config, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cfg, ok := m.configs[configId]
	if !ok {
		return viewconfig.Config{}, viewconfig.ErrNotFound
	}
	return cfg, nil
}

func (m *memConfigRepo) List(ctx context.Context) ([]viewconfig.Config, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]viewconfig.Config, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.configs[id])
	}
	return out, nil
}

func (m *memConfigRepo) Delete(ctx context.Context, configId string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.configs[configId]; !ok {
		return viewconfig.ErrNotFound
	}
	delete(m.configs, configId)
	for i, id := range m.order {
		if id == configId {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}

func testCatalog() []domain.Video {
	return []domain.Video{
		{Id: 1, VideoId: "yt1", Title: "hw_01"},
		{Id: 2, VideoId: "yt2", Title: "hw_02"},
		{Id: 3, DriveFileId: "drv3", Title: "hw_adult"},
		{Id: 4, VideoId: "yt4", Title: "gw_01"},
		{Id: 5, VideoId: "yt5", Title: "gw_adult"},
	}
}

func newTestService(t *testing.T) (*service, *fakeDispatcher) {
	t.Helper()

	dispatcher := &fakeDispatcher{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s := NewService(newMemConfigRepo(), &fakeLoader{videos: testCatalog()}, dispatcher, syncer.DefaultConfig(), logger)
	t.Cleanup(s.Close)

	return s, dispatcher
}

func createWall(t *testing.T, s *service, layout string) string {
	t.Helper()

	resp, err := s.CreateWall(context.Background(), &CreateWallParams{Layout: layout})
	require.NoError(t, err)
	return resp.WallId
}

func markReady(t *testing.T, s *service, wallId string, slots ...int) {
	t.Helper()

	for _, i := range slots {
		err := s.HandlePlayerEvent(context.Background(), &PlayerEventParams{
			WallId:    wallId,
			SlotIndex: i,
			Event:     player.Event{Kind: player.EventLoaded},
		})
		require.NoError(t, err)
	}
}

func TestService_CreateWall(t *testing.T) {
	s, _ := newTestService(t)

	resp, err := s.CreateWall(context.Background(), &CreateWallParams{Layout: "2x3"})
	require.NoError(t, err)
	assert.Len(t, resp.WallId, wallIdLength)
	assert.Equal(t, 6, resp.SlotCount)

	_, err = s.CreateWall(context.Background(), &CreateWallParams{Layout: "9x9"})
	assert.ErrorIs(t, err, ErrInvalidLayout)
}

func TestService_AssignAndRemoveSlot(t *testing.T) {
	s, dispatcher := newTestService(t)
	wallId := createWall(t, s, "2x2")

	view, err := s.AssignSlot(context.Background(), &AssignSlotParams{WallId: wallId, SlotIndex: 1, VideoId: 1})
	require.NoError(t, err)
	require.NotNil(t, view.Slots[1].Video)
	assert.Equal(t, "hw_01", view.Slots[1].Video.Title)
	// first assignment becomes the leader
	assert.Equal(t, 1, view.Leader)
	// the mount dispatched a load command to the page
	assert.Equal(t, 1, dispatcher.count("load"))

	view, err = s.RemoveSlot(context.Background(), &RemoveSlotParams{WallId: wallId, SlotIndex: 1})
	require.NoError(t, err)
	assert.Nil(t, view.Slots[1].Video)
	assert.Equal(t, -1, view.Leader)

	_, err = s.AssignSlot(context.Background(), &AssignSlotParams{WallId: wallId, SlotIndex: 0, VideoId: 99})
	assert.ErrorIs(t, err, ErrVideoNotFound)

	_, err = s.AssignSlot(context.Background(), &AssignSlotParams{WallId: "nope", SlotIndex: 0, VideoId: 1})
	assert.ErrorIs(t, err, ErrWallNotFound)
}

func TestService_ChangeLayout(t *testing.T) {
	s, _ := newTestService(t)
	wallId := createWall(t, s, "2x2")

	_, err := s.AssignSlot(context.Background(), &AssignSlotParams{WallId: wallId, SlotIndex: 3, VideoId: 1})
	require.NoError(t, err)
	_, err = s.AssignSlot(context.Background(), &AssignSlotParams{WallId: wallId, SlotIndex: 0, VideoId: 2})
	require.NoError(t, err)

	view, err := s.ChangeLayout(context.Background(), &ChangeLayoutParams{WallId: wallId, Layout: "1x2"})
	require.NoError(t, err)
	assert.Equal(t, "1x2", view.Layout)
	require.Len(t, view.Slots, 2)
	require.NotNil(t, view.Slots[0].Video)
	assert.Equal(t, "hw_02", view.Slots[0].Video.Title)
}

func TestService_SelectPresetFillsSlotsInOrder(t *testing.T) {
	s, _ := newTestService(t)
	wallId := createWall(t, s, "2x2")

	resp, err := s.SelectPreset(context.Background(), &SelectPresetParams{WallId: wallId, Preset: "hw"})
	require.NoError(t, err)
	assert.Equal(t, 3, resp.Assigned)
	assert.Equal(t, []string{"hw_adult", "hw_01", "hw_02"}, resp.Titles)

	view, err := s.GetWall(context.Background(), wallId)
	require.NoError(t, err)
	assert.Equal(t, "hw_adult", view.Slots[0].Video.Title)
	assert.Equal(t, "hw_01", view.Slots[1].Video.Title)
	assert.Equal(t, "hw_02", view.Slots[2].Video.Title)
	assert.Nil(t, view.Slots[3].Video)
}

func TestService_SelectPresetKeepsSlotsBeyondFill(t *testing.T) {
	s, _ := newTestService(t)
	wallId := createWall(t, s, "2x2")

	_, err := s.AssignSlot(context.Background(), &AssignSlotParams{WallId: wallId, SlotIndex: 3, VideoId: 4})
	require.NoError(t, err)

	// the hw preset holds three videos, slot 3 is past the fill
	resp, err := s.SelectPreset(context.Background(), &SelectPresetParams{WallId: wallId, Preset: "hw"})
	require.NoError(t, err)
	assert.Equal(t, 3, resp.Assigned)

	view, err := s.GetWall(context.Background(), wallId)
	require.NoError(t, err)
	require.NotNil(t, view.Slots[3].Video)
	assert.Equal(t, "gw_01", view.Slots[3].Video.Title)
}

func TestService_PlayGatedWhileBatchLoading(t *testing.T) {
	s, _ := newTestService(t)
	wallId := createWall(t, s, "1x2")

	_, err := s.SelectPreset(context.Background(), &SelectPresetParams{WallId: wallId, Preset: "gw"})
	require.NoError(t, err)

	_, err = s.PlayAll(context.Background(), wallId)
	assert.ErrorIs(t, err, ErrBatchLoading)

	markReady(t, s, wallId, 0, 1)

	assert.Eventually(t, func() bool {
		_, err := s.PlayAll(context.Background(), wallId)
		return err == nil
	}, 2*time.Second, 10*time.Millisecond)
}

func TestService_PlayCountsReadyPlayers(t *testing.T) {
	s, dispatcher := newTestService(t)
	wallId := createWall(t, s, "2x2")

	for slot, videoId := range map[int]int{0: 1, 1: 2} {
		_, err := s.AssignSlot(context.Background(), &AssignSlotParams{WallId: wallId, SlotIndex: slot, VideoId: videoId})
		require.NoError(t, err)
	}
	markReady(t, s, wallId, 0)

	got, err := s.PlayAll(context.Background(), wallId)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Count)
	assert.Equal(t, 1, dispatcher.count("playVideo"))

	got, err = s.PauseAll(context.Background(), wallId)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Count)
}

func TestService_LeaderTimeDrivesSyncClock(t *testing.T) {
	s, _ := newTestService(t)
	wallId := createWall(t, s, "1x2")

	_, err := s.AssignSlot(context.Background(), &AssignSlotParams{WallId: wallId, SlotIndex: 0, VideoId: 1})
	require.NoError(t, err)
	markReady(t, s, wallId, 0)

	err = s.HandlePlayerEvent(context.Background(), &PlayerEventParams{
		WallId:    wallId,
		SlotIndex: 0,
		Event:     player.Event{Kind: player.EventTimeReport, Time: 42},
	})
	require.NoError(t, err)

	view, err := s.GetWall(context.Background(), wallId)
	require.NoError(t, err)
	assert.Equal(t, 42.0, view.SyncTime)
}

func TestService_SaveAndLoadConfig(t *testing.T) {
	s, _ := newTestService(t)
	wallId := createWall(t, s, "2x2")

	_, err := s.AssignSlot(context.Background(), &AssignSlotParams{WallId: wallId, SlotIndex: 0, VideoId: 1})
	require.NoError(t, err)
	_, err = s.AssignSlot(context.Background(), &AssignSlotParams{WallId: wallId, SlotIndex: 2, VideoId: 3})
	require.NoError(t, err)

	saved, err := s.SaveConfig(context.Background(), &SaveConfigParams{WallId: wallId, Name: "demo"})
	require.NoError(t, err)
	assert.NotEmpty(t, saved.Id)
	assert.Equal(t, domain.Layout2x2, saved.ViewMode)

	// disturb the wall, then restore
	_, err = s.ChangeLayout(context.Background(), &ChangeLayoutParams{WallId: wallId, Layout: "1x1"})
	require.NoError(t, err)

	view, err := s.LoadConfig(context.Background(), &LoadConfigParams{WallId: wallId, ConfigId: saved.Id})
	require.NoError(t, err)
	assert.Equal(t, "2x2", view.Layout)
	require.NotNil(t, view.Slots[0].Video)
	assert.Equal(t, "hw_01", view.Slots[0].Video.Title)
	assert.Nil(t, view.Slots[1].Video)
	require.NotNil(t, view.Slots[2].Video)
	assert.Equal(t, "hw_adult", view.Slots[2].Video.Title)

	configs, err := s.ListConfigs(context.Background())
	require.NoError(t, err)
	require.Len(t, configs, 1)

	require.NoError(t, s.DeleteConfig(context.Background(), saved.Id))
	configs, err = s.ListConfigs(context.Background())
	require.NoError(t, err)
	assert.Empty(t, configs)
}

func TestService_CatalogAndPresets(t *testing.T) {
	s, _ := newTestService(t)

	videos, err := s.Catalog(context.Background())
	require.NoError(t, err)
	assert.Len(t, videos, 5)

	presets, err := s.Presets(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"gw", "hw"}, presets)
}
