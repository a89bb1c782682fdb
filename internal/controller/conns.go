package controller

import (
	"errors"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/videowall/server/internal/player"
)

var ErrWallNotConnected = errors.New("no page connected to wall")

// wallConn serializes writes to one page connection. Gorilla conns tolerate
// only a single concurrent writer.
type wallConn struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (wc *wallConn) writeJSON(v any) error {
	wc.mu.Lock()
	defer wc.mu.Unlock()
	return wc.conn.WriteJSON(v)
}

// Dispatcher maps wall ids to the browser page currently hosting the wall's
// embeds and routes player commands to it. One page per wall; a reconnect
// replaces the previous page. Created before the wall service so the service
// can push commands without depending on the controller.
type Dispatcher struct {
	mu    sync.Mutex
	walls map[string]*wallConn
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{walls: map[string]*wallConn{}}
}

type playerCommandPayload struct {
	SlotIndex int            `json:"slot_index"`
	Command   player.Command `json:"command"`
}

// DispatchCommand sends a player command to the wall's page, addressed by
// slot.
func (d *Dispatcher) DispatchCommand(wallId string, slotIndex int, cmd player.Command) error {
	wc, err := d.get(wallId)
	if err != nil {
		return err
	}

	return wc.writeJSON(&Output{
		Type:    "PLAYER_COMMAND",
		Payload: playerCommandPayload{SlotIndex: slotIndex, Command: cmd},
	})
}

func (d *Dispatcher) add(wallId string, conn *websocket.Conn) *wallConn {
	wc := &wallConn{conn: conn}

	d.mu.Lock()
	prev := d.walls[wallId]
	d.walls[wallId] = wc
	d.mu.Unlock()

	if prev != nil {
		prev.conn.Close()
	}
	return wc
}

// remove drops the mapping only if it still points at the given conn, so a
// replaced page cannot unregister its successor.
func (d *Dispatcher) remove(wallId string, conn *websocket.Conn) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if wc, ok := d.walls[wallId]; ok && wc.conn == conn {
		delete(d.walls, wallId)
	}
}

func (d *Dispatcher) get(wallId string) (*wallConn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	wc, ok := d.walls[wallId]
	if !ok {
		return nil, ErrWallNotConnected
	}
	return wc, nil
}
