package controller

import "context"

type contextKey int

const wallIdCtxKey contextKey = iota

func (c controller) getWallIdFromCtx(ctx context.Context) string {
	wallId, ok := ctx.Value(wallIdCtxKey).(string)
	if !ok {
		return ""
	}

	return wallId
}
