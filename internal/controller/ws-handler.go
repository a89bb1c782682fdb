package controller

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/videowall/server/internal/player"
	"github.com/videowall/server/internal/service/wall"
	"github.com/videowall/server/pkg/validator"
)

type Output struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

func (c controller) sendToWall(wallId string, output *Output) error {
	wc, err := c.conns.get(wallId)
	if err != nil {
		return err
	}

	return wc.writeJSON(output)
}

// connectWall upgrades the page connection and serves its message loop until
// the page goes away.
func (c controller) connectWall(w http.ResponseWriter, r *http.Request) {
	wallId := chi.URLParam(r, "wall-id")

	view, err := c.wallService.GetWall(r.Context(), wallId)
	if err != nil {
		if errors.Is(err, wall.ErrWallNotFound) {
			c.respondError(w, r, http.StatusNotFound, "wall not found")
			return
		}
		c.logger.WarnContext(r.Context(), "failed to get wall", "error", err)
		c.respondError(w, r, http.StatusInternalServerError, "failed to get wall")
		return
	}

	conn, err := c.upgrader.Upgrade(w, r, nil)
	if err != nil {
		c.logger.WarnContext(r.Context(), "failed to upgrade to websocket", "error", err)
		return
	}

	wc := c.conns.add(wallId, conn)
	defer c.conns.remove(wallId, conn)

	if err := wc.writeJSON(&Output{Type: "WALL_STATE", Payload: view}); err != nil {
		c.logger.WarnContext(r.Context(), "failed to write wall state", "error", err)
		conn.Close()
		return
	}

	ctx := context.WithValue(r.Context(), wallIdCtxKey, wallId)
	if err := c.getWSRouter().ServeConn(ctx, conn); err != nil {
		c.logger.InfoContext(r.Context(), "page connection closed", "wall", wallId, "error", err)
	}
}

// decodeInput unmarshals and validates a message payload.
func decodeInput[T any](v *validator.Validator, payload json.RawMessage) (T, error) {
	var input T
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &input); err != nil {
			return input, fmt.Errorf("failed to decode payload: %w", err)
		}
	}

	if validationErrors, ok := v.Validate(input); !ok {
		return input, fmt.Errorf("invalid payload: %v", validationErrors)
	}

	return input, nil
}

// broadcastWallState pushes the wall's current state to its page after a
// mutation.
func (c controller) broadcastWallState(ctx context.Context) error {
	wallId := c.getWallIdFromCtx(ctx)

	view, err := c.wallService.GetWall(ctx, wallId)
	if err != nil {
		return fmt.Errorf("failed to get wall: %w", err)
	}

	return c.sendToWall(wallId, &Output{Type: "WALL_UPDATED", Payload: view})
}

func (c controller) broadcastPlayback(ctx context.Context, got wall.PlaybackView) error {
	return c.sendToWall(c.getWallIdFromCtx(ctx), &Output{Type: "PLAYBACK_UPDATED", Payload: got})
}

func (c controller) handleAlive(_ context.Context, _ *websocket.Conn, _ json.RawMessage) error {
	return nil
}

type AssignSlotInput struct {
	SlotIndex int `json:"slot_index" validate:"gte=0"`
	VideoId   int `json:"video_id" validate:"required"`
}

func (c controller) handleAssignSlot(ctx context.Context, conn *websocket.Conn, payload json.RawMessage) error {
	input, err := decodeInput[AssignSlotInput](c.validate, payload)
	if err != nil {
		return err
	}

	if _, err := c.wallService.AssignSlot(ctx, &wall.AssignSlotParams{
		WallId:    c.getWallIdFromCtx(ctx),
		SlotIndex: input.SlotIndex,
		VideoId:   input.VideoId,
	}); err != nil {
		return fmt.Errorf("failed to assign slot: %w", err)
	}

	return c.broadcastWallState(ctx)
}

type RemoveSlotInput struct {
	SlotIndex int `json:"slot_index" validate:"gte=0"`
}

func (c controller) handleRemoveSlot(ctx context.Context, conn *websocket.Conn, payload json.RawMessage) error {
	input, err := decodeInput[RemoveSlotInput](c.validate, payload)
	if err != nil {
		return err
	}

	if _, err := c.wallService.RemoveSlot(ctx, &wall.RemoveSlotParams{
		WallId:    c.getWallIdFromCtx(ctx),
		SlotIndex: input.SlotIndex,
	}); err != nil {
		return fmt.Errorf("failed to clear slot: %w", err)
	}

	return c.broadcastWallState(ctx)
}

type ChangeLayoutInput struct {
	Layout string `json:"layout" validate:"required,oneof=1x1 1x2 2x2 2x3"`
}

func (c controller) handleChangeLayout(ctx context.Context, conn *websocket.Conn, payload json.RawMessage) error {
	input, err := decodeInput[ChangeLayoutInput](c.validate, payload)
	if err != nil {
		return err
	}

	if _, err := c.wallService.ChangeLayout(ctx, &wall.ChangeLayoutParams{
		WallId: c.getWallIdFromCtx(ctx),
		Layout: input.Layout,
	}); err != nil {
		return fmt.Errorf("failed to change layout: %w", err)
	}

	return c.broadcastWallState(ctx)
}

type SetLeaderInput struct {
	SlotIndex int `json:"slot_index" validate:"gte=0"`
}

func (c controller) handleSetLeader(ctx context.Context, conn *websocket.Conn, payload json.RawMessage) error {
	input, err := decodeInput[SetLeaderInput](c.validate, payload)
	if err != nil {
		return err
	}

	if _, err := c.wallService.SetLeader(ctx, &wall.SetLeaderParams{
		WallId:    c.getWallIdFromCtx(ctx),
		SlotIndex: input.SlotIndex,
	}); err != nil {
		return fmt.Errorf("failed to set leader: %w", err)
	}

	return c.broadcastWallState(ctx)
}

type SelectPresetInput struct {
	Preset string `json:"preset" validate:"required"`
}

func (c controller) handleSelectPreset(ctx context.Context, conn *websocket.Conn, payload json.RawMessage) error {
	input, err := decodeInput[SelectPresetInput](c.validate, payload)
	if err != nil {
		return err
	}

	resp, err := c.wallService.SelectPreset(ctx, &wall.SelectPresetParams{
		WallId: c.getWallIdFromCtx(ctx),
		Preset: input.Preset,
	})
	if err != nil {
		return fmt.Errorf("failed to select preset: %w", err)
	}

	if err := c.sendToWall(c.getWallIdFromCtx(ctx), &Output{Type: "PRESET_SELECTED", Payload: resp}); err != nil {
		return err
	}

	return c.broadcastWallState(ctx)
}

func (c controller) handlePlayAll(ctx context.Context, conn *websocket.Conn, _ json.RawMessage) error {
	got, err := c.wallService.PlayAll(ctx, c.getWallIdFromCtx(ctx))
	if err != nil {
		if errors.Is(err, wall.ErrBatchLoading) {
			return c.sendToWall(c.getWallIdFromCtx(ctx), &Output{
				Type:    "WARNING",
				Payload: map[string]any{"message": "players are still loading"},
			})
		}
		return fmt.Errorf("failed to play: %w", err)
	}

	return c.broadcastPlayback(ctx, got)
}

func (c controller) handlePauseAll(ctx context.Context, conn *websocket.Conn, _ json.RawMessage) error {
	got, err := c.wallService.PauseAll(ctx, c.getWallIdFromCtx(ctx))
	if err != nil {
		return fmt.Errorf("failed to pause: %w", err)
	}

	return c.broadcastPlayback(ctx, got)
}

func (c controller) handleResetAll(ctx context.Context, conn *websocket.Conn, _ json.RawMessage) error {
	got, err := c.wallService.ResetAll(ctx, c.getWallIdFromCtx(ctx))
	if err != nil {
		return fmt.Errorf("failed to reset: %w", err)
	}

	return c.broadcastPlayback(ctx, got)
}

type StepFrameInput struct {
	Forward bool `json:"forward"`
}

func (c controller) handleStepFrame(ctx context.Context, conn *websocket.Conn, payload json.RawMessage) error {
	input, err := decodeInput[StepFrameInput](c.validate, payload)
	if err != nil {
		return err
	}

	got, err := c.wallService.StepFrame(ctx, &wall.StepFrameParams{
		WallId:  c.getWallIdFromCtx(ctx),
		Forward: input.Forward,
	})
	if err != nil {
		return fmt.Errorf("failed to step frame: %w", err)
	}

	return c.broadcastPlayback(ctx, got)
}

type JumpToFrameInput struct {
	Frame int `json:"frame" validate:"gte=0"`
}

func (c controller) handleJumpToFrame(ctx context.Context, conn *websocket.Conn, payload json.RawMessage) error {
	input, err := decodeInput[JumpToFrameInput](c.validate, payload)
	if err != nil {
		return err
	}

	got, err := c.wallService.JumpToFrame(ctx, &wall.JumpToFrameParams{
		WallId: c.getWallIdFromCtx(ctx),
		Frame:  input.Frame,
	})
	if err != nil {
		return fmt.Errorf("failed to jump to frame: %w", err)
	}

	return c.broadcastPlayback(ctx, got)
}

func (c controller) handleSyncToLeader(ctx context.Context, conn *websocket.Conn, _ json.RawMessage) error {
	got, err := c.wallService.SyncToLeader(ctx, c.getWallIdFromCtx(ctx))
	if err != nil {
		return fmt.Errorf("failed to sync to leader: %w", err)
	}

	return c.broadcastPlayback(ctx, got)
}

type SyncToTimeInput struct {
	Seconds float64 `json:"seconds" validate:"gte=0"`
}

func (c controller) handleSyncToTime(ctx context.Context, conn *websocket.Conn, payload json.RawMessage) error {
	input, err := decodeInput[SyncToTimeInput](c.validate, payload)
	if err != nil {
		return err
	}

	got, err := c.wallService.SyncToTime(ctx, &wall.SyncToTimeParams{
		WallId:  c.getWallIdFromCtx(ctx),
		Seconds: input.Seconds,
	})
	if err != nil {
		return fmt.Errorf("failed to sync to time: %w", err)
	}

	return c.broadcastPlayback(ctx, got)
}

type SaveConfigInput struct {
	Name string `json:"name" validate:"required,min=1,max=64"`
}

func (c controller) handleSaveConfig(ctx context.Context, conn *websocket.Conn, payload json.RawMessage) error {
	input, err := decodeInput[SaveConfigInput](c.validate, payload)
	if err != nil {
		return err
	}

	cfg, err := c.wallService.SaveConfig(ctx, &wall.SaveConfigParams{
		WallId: c.getWallIdFromCtx(ctx),
		Name:   input.Name,
	})
	if err != nil {
		return fmt.Errorf("failed to save view config: %w", err)
	}

	return c.sendToWall(c.getWallIdFromCtx(ctx), &Output{Type: "CONFIG_SAVED", Payload: cfg})
}

type LoadConfigInput struct {
	ConfigId string `json:"config_id" validate:"required"`
}

func (c controller) handleLoadConfig(ctx context.Context, conn *websocket.Conn, payload json.RawMessage) error {
	input, err := decodeInput[LoadConfigInput](c.validate, payload)
	if err != nil {
		return err
	}

	if _, err := c.wallService.LoadConfig(ctx, &wall.LoadConfigParams{
		WallId:   c.getWallIdFromCtx(ctx),
		ConfigId: input.ConfigId,
	}); err != nil {
		return fmt.Errorf("failed to load view config: %w", err)
	}

	return c.broadcastWallState(ctx)
}

type PlayerEventInput struct {
	SlotIndex int     `json:"slot_index" validate:"gte=0"`
	Kind      string  `json:"kind" validate:"required,oneof=loaded state_change time_report visibility"`
	State     int     `json:"state"`
	Time      float64 `json:"time"`
	Duration  float64 `json:"duration"`
	Visible   bool    `json:"visible"`
	Origin    string  `json:"origin"`
}

// handlePlayerEvent forwards embed signals relayed by the page. Events that
// carry a cross-frame origin are accepted only from the known embed domains.
func (c controller) handlePlayerEvent(ctx context.Context, conn *websocket.Conn, payload json.RawMessage) error {
	input, err := decodeInput[PlayerEventInput](c.validate, payload)
	if err != nil {
		return err
	}

	if input.Origin != "" && !player.IsDriveOrigin(input.Origin) && !player.IsYouTubeOrigin(input.Origin) {
		c.logger.DebugContext(ctx, "dropping player event from unknown origin",
			"origin", input.Origin, "slot", input.SlotIndex)
		return nil
	}

	return c.wallService.HandlePlayerEvent(ctx, &wall.PlayerEventParams{
		WallId:    c.getWallIdFromCtx(ctx),
		SlotIndex: input.SlotIndex,
		Event: player.Event{
			Kind:     player.EventKind(input.Kind),
			State:    player.PlaybackState(input.State),
			Time:     input.Time,
			Duration: input.Duration,
			Visible:  input.Visible,
		},
	})
}
