// Package debug serves read-only views of the running game over HTTP:
// lighting statistics, script state, full state dumps and a websocket stream.
package debug

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"chosenoffset.com/emberfall/internal/config"
	"chosenoffset.com/emberfall/internal/logging"
	"chosenoffset.com/emberfall/internal/quill"
	"chosenoffset.com/emberfall/internal/render/lighting"
)

const (
	writeWait = 10 * time.Second
	pongWait  = 60 * time.Second
)

// Source provides the published game state. Every method must be safe to
// call from the server goroutine.
type Source interface {
	LightingStats() lighting.Stats
	ScriptSnapshots() []quill.Snapshot
	DumpState() interface{}
}

// Server is the debug HTTP server.
type Server struct {
	src      Source
	cfg      config.DebugConfig
	log      *zap.Logger
	spew     *spew.ConfigState
	upgrader websocket.Upgrader
}

// NewServer creates a server over src.
func NewServer(src Source, cfg config.DebugConfig, log *zap.Logger) *Server {
	dump := spew.NewDefaultConfig()
	dump.DisableCapacities = true
	dump.DisablePointerAddresses = true
	if cfg.StreamInterval <= 0 {
		cfg.StreamInterval = config.Defaults().Debug.StreamInterval
	}
	return &Server{
		src:  src,
		cfg:  cfg,
		log:  logging.OrNop(log).Named("debug"),
		spew: dump,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// Handler returns the routed handler with request logging and panic recovery.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/debug/lighting", s.handleLighting).Methods(http.MethodGet)
	r.HandleFunc("/debug/script", s.handleScripts).Methods(http.MethodGet)
	r.HandleFunc("/debug/script/{name}", s.handleScript).Methods(http.MethodGet)
	r.HandleFunc("/debug/dump", s.handleDump).Methods(http.MethodGet)
	r.HandleFunc("/debug/stream", s.handleStream)

	access := zap.NewStdLog(s.log).Writer()
	h := handlers.RecoveryHandler(handlers.RecoveryLogger(zap.NewStdLog(s.log)))(r)
	return handlers.LoggingHandler(access, h)
}

// ListenAndServe runs the server until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{Addr: s.cfg.Addr, Handler: s.Handler()}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	s.log.Info("debug server listening", zap.String("addr", s.cfg.Addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// /debug/lighting - coordinator statistics
func (s *Server) handleLighting(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.src.LightingStats())
}

// /debug/script - every live script
func (s *Server) handleScripts(w http.ResponseWriter, r *http.Request) {
	snaps := s.src.ScriptSnapshots()
	if snaps == nil {
		snaps = []quill.Snapshot{}
	}
	writeJSON(w, snaps)
}

// /debug/script/{name} - one live script
func (s *Server) handleScript(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	for _, snap := range s.src.ScriptSnapshots() {
		if snap.Script == name {
			writeJSON(w, snap)
			return
		}
	}
	http.Error(w, "script not running", http.StatusNotFound)
}

// /debug/dump - human readable dump of the whole state
func (s *Server) handleDump(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	s.spew.Fdump(w, s.src.DumpState())
}

// /debug/stream - the state as JSON every stream interval
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(s.cfg.StreamInterval)
	defer ticker.Stop()
	for {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(s.src.DumpState()); err != nil {
			s.log.Debug("stream closed", zap.Error(err))
			return
		}
		select {
		case <-closed:
			return
		case <-r.Context().Done():
			return
		case <-ticker.C:
		}
	}
}

func writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
