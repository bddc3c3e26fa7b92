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
	"fmt"
	"html/template"
	"net/http"
	"os"
	"time"

	"github.com/ts2/ts2trainsim/simulation"
	log "gopkg.in/inconshreveable/log15.v2"
)

const (
	DefaultAddr       string = "0.0.0.0"
	DefaultPort       string = "22222"
	MaxHubStartupTime        = 3 * time.Second
)

var (
	// world is the already-simulated World this server replays live.
	// Unlike the teacher's sim (a mutable, wall-clock-driven simulation),
	// building and running a World is a one-shot, deterministic step that
	// happens before Run is ever called (SPEC_FULL.md §4.14); the server
	// only paces the already-recorded history out over wall-clock time.
	world  *simulation.World
	replay *Replay
	logger log.Logger
)

// InitializeLogger creates the logger for the server module.
func InitializeLogger(parentLogger log.Logger) {
	logger = parentLogger.New("module", "server")
}

// Run starts a HTTP server and websocket hub replaying w's recorded history
// (from sink, a *simulation.SliceSink populated by a prior
// simulation.Simulate call) at the given speed, on addr:port.
func Run(w *simulation.World, sink *simulation.SliceSink, speed float64, addr, port string) {
	logger.Info("Starting server")
	world = w
	replay = NewReplay(sink, speed)
	startMetricsTicker()

	hubUp := make(chan bool)
	timer := time.After(MaxHubStartupTime)
	go hub.run(hubUp)
	select {
	case <-hubUp:
		HttpdStart(addr, port)
		os.Exit(1)
	case <-timer:
		log.Crit("Hub did not start")
		os.Exit(1)
	}
}

// HttpdStart starts the server which serves on the following routes:
//
//	/     - a minimal HTML status page.
//	/ws   - WebSocket endpoint for live replay and control.
//	/api/ - REST endpoints, see http_api.go.
func HttpdStart(addr, port string) {
	homeTempl = template.Must(template.New("home").Parse(homeTemplateSource))
	http.HandleFunc("/", serveHome)
	http.HandleFunc("/ws", serveWs)
	installHTTPAPI()

	serverAddress := fmt.Sprintf("%s:%s", addr, port)
	logger.Info("Starting HTTP", "submodule", "http", "address", serverAddress)
	err := http.ListenAndServe(serverAddress, nil)
	logger.Crit("HTTP crashed", "submodule", "http", "error", err)
}

var homeTempl *template.Template

const homeTemplateSource = `<!DOCTYPE html>
<html>
<head><title>{{.Title}}</title></head>
<body>
<h1>{{.Title}}</h1>
<p>{{.ObjectCount}} infrastructure objects, {{.RouteCount}} routes, {{.ItemCount}} history items.</p>
<p>Connect to <code>{{.Host}}</code> for live replay.</p>
</body>
</html>
`

// serveHome serves a minimal status page describing the loaded World.
func serveHome(w http.ResponseWriter, r *http.Request) {
	logger.Debug("New HTTP connection", "submodule", "http", "remote", r.RemoteAddr)
	if r.URL.Path != "/" {
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	data := struct {
		Title       string
		ObjectCount int
		RouteCount  int
		ItemCount   int
		Host        string
	}{
		Title:       "ts2trainsim",
		ObjectCount: len(world.Objects),
		RouteCount:  len(world.Routes),
		ItemCount:   len(replay.sink.Items),
		Host:        "ws://" + r.Host + "/ws",
	}
	homeTempl.Execute(w, data)
}
