// Copyright (C) 2008-2019 by Nicolas Piganeau and the TS2 TEAM
// (See AUTHORS file)
//
// This program is free software; you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation; either version 2 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program; if not, write to the
// Free Software Foundation, Inc.,
// 59 Temple Place - Suite 330, Boston, MA  02111-1307, USA.

package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 65536
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Request is a single JSON-RPC-ish call sent by a websocket client: act on
// Action against Object, with the call's own Params and an ID echoed back
// on the Response so the client can correlate replies to requests.
type Request struct {
	ID     string          `json:"id"`
	Object string          `json:"object"`
	Action string          `json:"action"`
	Params json.RawMessage `json:"params,omitempty"`
}

// Response answers a Request (Status "ok"/"error"), or — with an empty ID —
// is an unsolicited broadcast of simulation history to every connection.
type Response struct {
	ID      string          `json:"id,omitempty"`
	Status  string          `json:"status"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// RawJSON wraps an already-marshalled byte slice as json.RawMessage, so it
// composes into a Response.Data field without double-encoding.
func RawJSON(b []byte) json.RawMessage { return json.RawMessage(b) }

func NewOkResponse(id, message string) Response {
	return Response{ID: id, Status: "ok", Message: message}
}

func NewErrorResponse(id string, err error) Response {
	return Response{ID: id, Status: "error", Message: err.Error()}
}

func NewResponse(id string, data json.RawMessage) Response {
	return Response{ID: id, Status: "ok", Data: data}
}

// hubObject is a named, request-dispatchable facet of the running server.
// The only one registered is "simulation" (start/pause/restart the paced
// replay), added in init() by hub_simulation.go.
type hubObject interface {
	dispatch(h *Hub, req Request, conn *connection)
}

// connection wraps one websocket client: an outbound pushChan drained by
// writePump, fed either by this connection's own request dispatch or by
// Hub.broadcast.
type connection struct {
	ws       *websocket.Conn
	pushChan chan Response
	hub      *Hub
}

// Hub is the websocket session registry, grounded on gorilla/websocket's
// canonical hub pattern (register/unregister/broadcast channels drained by
// a single run loop) — the same shape hub_simulation.go dispatches through
// via the package-level hub variable.
type Hub struct {
	objects     map[string]hubObject
	connections map[*connection]bool
	register    chan *connection
	unregister  chan *connection
	broadcast   chan Response
}

func newHub() *Hub {
	return &Hub{
		objects:     make(map[string]hubObject),
		connections: make(map[*connection]bool),
		register:    make(chan *connection),
		unregister:  make(chan *connection),
		broadcast:   make(chan Response, 256),
	}
}

var hub = newHub()

// run is the Hub's single-goroutine event loop; it owns the connections
// map so no locking is needed around it. up is closed once the loop is
// ready to accept registrations, letting Run's caller bound hub startup.
func (h *Hub) run(up chan bool) {
	close(up)
	for {
		select {
		case c := <-h.register:
			h.connections[c] = true
		case c := <-h.unregister:
			if _, ok := h.connections[c]; ok {
				delete(h.connections, c)
				close(c.pushChan)
			}
		case resp := <-h.broadcast:
			for c := range h.connections {
				select {
				case c.pushChan <- resp:
				default:
					// slow consumer; drop rather than block the hub loop
				}
			}
		}
	}
}

// Broadcast pushes resp to every connected client. Used by the paced
// replay driver in replay.go to fan out history items.
func (h *Hub) Broadcast(resp Response) {
	select {
	case h.broadcast <- resp:
	default:
	}
}

// serveWs upgrades an HTTP request to a websocket connection and runs its
// read/write pumps until the client disconnects.
func serveWs(w http.ResponseWriter, r *http.Request) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("websocket upgrade failed", "submodule", "hub", "error", err)
		return
	}
	conn := &connection{ws: ws, pushChan: make(chan Response, 64), hub: hub}
	hub.register <- conn

	go conn.writePump()
	conn.readPump()
}

func (c *connection) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.ws.Close()
	}()
	c.ws.SetReadLimit(maxMessageSize)
	c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		c.ws.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		_, message, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Debug("websocket closed unexpectedly", "submodule", "hub", "error", err)
			}
			return
		}
		var req Request
		if err := json.Unmarshal(message, &req); err != nil {
			c.pushChan <- NewErrorResponse("", err)
			continue
		}
		obj, ok := hub.objects[req.Object]
		if !ok {
			c.pushChan <- NewErrorResponse(req.ID, fmt.Errorf("unknown object %q", req.Object))
			continue
		}
		obj.dispatch(hub, req, c)
	}
}

func (c *connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.ws.Close()
	}()
	for {
		select {
		case resp, ok := <-c.pushChan:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.ws.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.ws.WriteJSON(resp); err != nil {
				return
			}
		case <-ticker.C:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
