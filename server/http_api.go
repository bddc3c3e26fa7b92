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
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ts2/ts2trainsim/simulation"
)

func installHTTPAPI() {
	http.HandleFunc("/api/objects", serveObjects)
	http.HandleFunc("/api/routes", serveRoutes)
	http.HandleFunc("/api/routes/", serveRouteActivate)
	http.HandleFunc("/api/switches/", serveSwitchTurn)
	http.HandleFunc("/api/metrics", serveMetrics)
	http.HandleFunc("/api/audit/logs", serveAuditLogs)
	http.HandleFunc("/api/audit/stream", serveAuditStream)
}

type objectSummary struct {
	Name string `json:"name"`
	Kind string `json:"kind"`
}

// GET /api/objects
func serveObjects(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	out := make([]objectSummary, 0, len(world.Objects))
	for _, obj := range world.Objects {
		out = append(out, objectSummary{Name: obj.Name(), Kind: obj.Kind().String()})
	}
	writeJSON(w, out)
}

// GET /api/routes
func serveRoutes(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	names := make([]string, 0, len(world.Routes))
	for name := range world.Routes {
		names = append(names, name)
	}
	writeJSON(w, names)
}

// POST /api/routes/{name}/activate
func serveRouteActivate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	name, ok := pathSuffix(r.URL.Path, "/api/routes/", "/activate")
	if !ok {
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}
	route, ok := world.Routes[name]
	if !ok {
		http.Error(w, "Unknown route", http.StatusNotFound)
		return
	}
	route.Activate(world)
	writeJSON(w, map[string]string{"status": "activating", "route": name})
}

// POST /api/switches/{name}/turn?to=left|right
func serveSwitchTurn(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	name, ok := pathSuffix(r.URL.Path, "/api/switches/", "/turn")
	if !ok {
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}
	sw := findSwitch(name)
	if sw == nil {
		http.Error(w, "Unknown switch", http.StatusNotFound)
		return
	}
	target := strings.ToLower(r.URL.Query().Get("to"))
	var state simulation.SwitchState
	switch target {
	case "left":
		state = simulation.Left
	case "right":
		state = simulation.Right
	default:
		http.Error(w, "to must be left or right", http.StatusBadRequest)
		return
	}
	sw.Turn(world, state)
	writeJSON(w, map[string]string{"status": "turning", "switch": name, "target": target})
}

// GET /api/metrics
func serveMetrics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	snap := currentSnapshot()
	writeJSON(w, map[string]interface{}{
		"routeActivations": snap.routeActivations,
		"allocations":      snap.allocations,
		"switchTurns":      snap.switchTurns,
		"signalOpenings":   snap.signalOpenings,
	})
}

// GET /api/audit/logs?sinceId=&limit=
func serveAuditLogs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	q := r.URL.Query()
	var sinceID int64
	if s := q.Get("sinceId"); s != "" {
		var err error
		sinceID, err = strconv.ParseInt(s, 10, 64)
		if err != nil {
			http.Error(w, "Bad sinceId", http.StatusBadRequest)
			return
		}
	}
	limit := 200
	if l := q.Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 && n <= 1000 {
			limit = n
		}
	}
	writeJSON(w, map[string]interface{}{"items": audits.getSince(sinceID, limit)})
}

// GET /api/audit/stream (Server-Sent Events)
func serveAuditStream(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}
	ch := audits.subscribe()
	defer audits.unsubscribe(ch)
	w.Write([]byte(":ok\n\n"))
	flusher.Flush()
	ticker := time.NewTicker(25 * time.Second)
	defer ticker.Stop()
	enc := json.NewEncoder(w)
	for {
		select {
		case e, ok := <-ch:
			if !ok {
				return
			}
			w.Write([]byte("event: audit\ndata: "))
			enc.Encode(e)
			w.Write([]byte("\n"))
			flusher.Flush()
		case <-r.Context().Done():
			return
		case <-ticker.C:
			w.Write([]byte(":hb\n\n"))
			flusher.Flush()
		}
	}
}

// findSwitch linearly scans the World's objects for a Switch by name.
// World only indexes objects by ObjRef, not name, so a lookup from an HTTP
// path parameter has to search; this is the only place in the server that
// needs to, and the infrastructure graph is small enough it's not worth
// World growing a name index just for it.
func findSwitch(name string) *simulation.Switch {
	for _, obj := range world.Objects {
		if sw, ok := obj.(*simulation.Switch); ok && sw.Name() == name {
			return sw
		}
	}
	return nil
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	json.NewEncoder(w).Encode(v)
}

// pathSuffix strips prefix and suffix from path, reporting whether both
// were present and what's left between them is non-empty.
func pathSuffix(path, prefix, suffix string) (string, bool) {
	if !strings.HasPrefix(path, prefix) || !strings.HasSuffix(path, suffix) {
		return "", false
	}
	name := strings.TrimSuffix(strings.TrimPrefix(path, prefix), suffix)
	if name == "" {
		return "", false
	}
	return name, true
}
