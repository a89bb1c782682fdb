package controller

import (
	"context"

	"github.com/gorilla/websocket"

	"github.com/videowall/server/pkg/wsrouter"
)

func (c controller) getWSRouter() *wsrouter.WSRouter {
	mux := wsrouter.New()

	mux.Handle("ALIVE", c.handleAlive)

	// slots
	mux.Handle("ASSIGN_SLOT", c.handleAssignSlot)
	mux.Handle("REMOVE_SLOT", c.handleRemoveSlot)
	mux.Handle("CHANGE_LAYOUT", c.handleChangeLayout)
	mux.Handle("SET_LEADER", c.handleSetLeader)
	mux.Handle("SELECT_PRESET", c.handleSelectPreset)

	// playback
	mux.Handle("PLAY_ALL", c.handlePlayAll)
	mux.Handle("PAUSE_ALL", c.handlePauseAll)
	mux.Handle("RESET_ALL", c.handleResetAll)
	mux.Handle("STEP_FRAME", c.handleStepFrame)
	mux.Handle("JUMP_TO_FRAME", c.handleJumpToFrame)
	mux.Handle("SYNC_TO_LEADER", c.handleSyncToLeader)
	mux.Handle("SYNC_TO_TIME", c.handleSyncToTime)

	// view configs
	mux.Handle("SAVE_CONFIG", c.handleSaveConfig)
	mux.Handle("LOAD_CONFIG", c.handleLoadConfig)

	// embed signals relayed by the page
	mux.Handle("PLAYER_EVENT", c.handlePlayerEvent)

	mux.OnError(func(ctx context.Context, conn *websocket.Conn, msgType string, err error) {
		c.logger.WarnContext(ctx, "websocket message failed", "message_type", msgType, "error", err)

		wallId := c.getWallIdFromCtx(ctx)
		if sendErr := c.sendToWall(wallId, &Output{
			Type:    "ERROR",
			Payload: map[string]any{"message_type": msgType, "message": err.Error()},
		}); sendErr != nil {
			c.logger.WarnContext(ctx, "failed to report websocket error", "error", sendErr)
		}
	})

	return mux
}
