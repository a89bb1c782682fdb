package wsrouter

import (
	"context"
	"encoding/json"

	"github.com/gorilla/websocket"
)

type message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type HandlerFunc func(ctx context.Context, conn *websocket.Conn, payload json.RawMessage) error

// ErrorFunc is invoked when a handler returns an error or an unknown message
// type arrives. The connection stays open.
type ErrorFunc func(ctx context.Context, conn *websocket.Conn, msgType string, err error)

type WSRouter struct {
	routes  map[string]HandlerFunc
	onError ErrorFunc
}

func New() *WSRouter {
	return &WSRouter{routes: make(map[string]HandlerFunc)}
}

func (r *WSRouter) Handle(messageType string, handler HandlerFunc) {
	r.routes[messageType] = handler
}

func (r *WSRouter) OnError(f ErrorFunc) {
	r.onError = f
}

// ServeConn reads messages until the connection fails or ctx is done and
// dispatches each one by type. Handler errors are reported via OnError and do
// not terminate the loop.
func (r *WSRouter) ServeConn(ctx context.Context, conn *websocket.Conn) error {
	defer conn.Close()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		var msg message
		if err := conn.ReadJSON(&msg); err != nil {
			return err
		}

		msgCtx := withMessageType(ctx, msg.Type)

		handler, exists := r.routes[msg.Type]
		if !exists {
			if r.onError != nil {
				r.onError(msgCtx, conn, msg.Type, ErrUnknownMessageType)
			}
			continue
		}

		if err := handler(msgCtx, conn, msg.Payload); err != nil && r.onError != nil {
			r.onError(msgCtx, conn, msg.Type, err)
		}
	}
}
