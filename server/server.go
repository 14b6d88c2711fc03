package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"blocks/agent"
	"blocks/game"
	"blocks/utils"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
)

const shutdownGrace = 5 * time.Second

type MoveRequest struct {
	Grid       [][]bool   `json:"grid"`
	Tray       [][][]bool `json:"tray"`
	Score      int        `json:"score"`
	Difficulty int        `json:"difficulty"`
}

type MoveResponse struct {
	Action int  `json:"action"`
	Block  int  `json:"block"`
	Row    int  `json:"row"`
	Col    int  `json:"col"`
	Valid  bool `json:"valid"` // False when no tray shape fits anywhere
}

// Server answers move requests for an externally owned game. Requests are serialized since the
// agent and its environment are not safe for concurrent use.
type Server struct {
	mu    sync.Mutex
	agent agent.Agent
	env   *game.Environment
}

func New(a agent.Agent, env *game.Environment) *Server {
	a.SetMode(agent.Playing)
	return &Server{agent: a, env: env}
}

func (s *Server) Handler() http.Handler {
	router := mux.NewRouter()
	router.HandleFunc("/move", s.handleMove).Methods(http.MethodPost)
	router.HandleFunc("/stats", s.handleStats).Methods(http.MethodGet)
	return router
}

// Serve listens on addr until ctx is done.
func (s *Server) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info().Msgf("serving %s agent on %s", s.agent.Kind(), addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}

func (s *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	var payload MoveRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "bad request: "+err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	s.env.SetState(payload.Grid, payload.Tray, payload.Score, payload.Difficulty)
	valid := s.env.ValidActions()
	action := s.agent.SelectAction(s.env, valid)
	ok := action != game.NoAction && utils.FindIndex(valid, action) >= 0
	s.mu.Unlock()

	resp := MoveResponse{Action: int(action), Block: -1, Row: -1, Col: -1, Valid: ok}
	if ok {
		resp.Block, resp.Row, resp.Col = action.Decode()
	}
	log.Debug().Int("action", resp.Action).Bool("valid", ok).Msg("move served")
	writeJSON(w, resp)
}

func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	stats := s.agent.Stats()
	s.mu.Unlock()
	writeJSON(w, stats)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "failed to encode response: "+err.Error(), http.StatusInternalServerError)
	}
}
