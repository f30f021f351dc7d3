package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/wricardo/netbattle/game/battle"
	"github.com/wricardo/netbattle/game/config"
	"github.com/wricardo/netbattle/game/service"
	"github.com/wricardo/netbattle/game/session"
	"github.com/wricardo/netbattle/transport/websocket"
	"github.com/wricardo/netbattle/webclient"
)

// Server represents the REST API server
type Server struct {
	service  service.BattleService
	hub      *websocket.Hub
	accounts *webclient.Manager
	router   *mux.Router
}

// NewServer creates a new API server. hub and accounts may be nil.
func NewServer(battles service.BattleService, hub *websocket.Hub, accounts *webclient.Manager) *Server {
	s := &Server{
		service:  battles,
		hub:      hub,
		accounts: accounts,
		router:   mux.NewRouter(),
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()

	// Session management
	api.HandleFunc("/sessions", s.handleCreateSession).Methods("POST")
	api.HandleFunc("/sessions", s.handleListSessions).Methods("GET")
	api.HandleFunc("/sessions/{id}", s.handleGetSession).Methods("GET")
	api.HandleFunc("/sessions/{id}", s.handleDeleteSession).Methods("DELETE")

	// Field operations
	api.HandleFunc("/sessions/{id}/field", s.handleGetField).Methods("GET")
	api.HandleFunc("/sessions/{id}/entities", s.handlePlaceEntity).Methods("POST")
	api.HandleFunc("/sessions/{id}/entities/{entity:[0-9]+}", s.handleDeleteEntity).Methods("DELETE")
	api.HandleFunc("/sessions/{id}/moves", s.handleBeginMove).Methods("POST")
	api.HandleFunc("/sessions/{id}/moves/{entity:[0-9]+}/commit", s.handleCommitMove).Methods("POST")
	api.HandleFunc("/sessions/{id}/moves/{entity:[0-9]+}/cancel", s.handleCancelMove).Methods("POST")
	api.HandleFunc("/sessions/{id}/step", s.handleStep).Methods("POST")
	api.HandleFunc("/sessions/{id}/battle", s.handleSetBattleActive).Methods("POST")
	api.HandleFunc("/sessions/{id}/tiles/{x:-?[0-9]+}/{y:-?[0-9]+}", s.handleSetTile).Methods("PUT")

	// Configuration
	api.HandleFunc("/configs", s.handleListConfigs).Methods("GET")
	api.HandleFunc("/configs", s.handleCreateConfig).Methods("POST")
	api.HandleFunc("/configs/{name}", s.handleGetConfig).Methods("GET")

	// Overworld maps
	api.HandleFunc("/maps", s.handleListMaps).Methods("GET")
	api.HandleFunc("/maps/{name}", s.handleGetMap).Methods("GET")
	api.HandleFunc("/maps/{name}/query", s.handleMapQuery).Methods("GET")
	api.HandleFunc("/maps/{name}/elevation", s.handleMapElevation).Methods("GET")
	api.HandleFunc("/maps/{name}/concealed", s.handleMapConcealed).Methods("GET")
	api.HandleFunc("/maps/{name}/can-move", s.handleMapCanMove).Methods("GET")

	// Account client
	api.HandleFunc("/account", s.handleFetchAccount).Methods("GET")
	api.HandleFunc("/account/status", s.handleAccountStatus).Methods("GET")
	api.HandleFunc("/account/login", s.handleLogin).Methods("POST")
	api.HandleFunc("/account/logout", s.handleLogout).Methods("POST")

	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")

	// WebSocket
	s.router.HandleFunc("/ws", s.handleWebSocket)
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Response helpers
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondErr picks the status code from the error chain
func respondErr(w http.ResponseWriter, err error) {
	respondError(w, statusFor(err), err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, session.ErrSessionNotFound),
		errors.Is(err, config.ErrConfigNotFound),
		errors.Is(err, config.ErrMapNotFound),
		errors.Is(err, service.ErrEntityNotFound),
		errors.Is(err, service.ErrNoMove):
		return http.StatusNotFound
	case errors.Is(err, service.ErrInvalidRequest),
		errors.Is(err, config.ErrInvalidConfig),
		errors.Is(err, session.ErrInvalidSessionID),
		errors.Is(err, battle.ErrOutOfBounds),
		errors.Is(err, battle.ErrSameTile):
		return http.StatusBadRequest
	case errors.Is(err, battle.ErrTileReserved),
		errors.Is(err, battle.ErrTileOccupied),
		errors.Is(err, battle.ErrTileNotWalkable),
		errors.Is(err, battle.ErrWrongTeam),
		errors.Is(err, battle.ErrMoveInProgress),
		errors.Is(err, battle.ErrNotReserved),
		errors.Is(err, battle.ErrNotPlaced),
		errors.Is(err, battle.ErrEntityDeleted),
		errors.Is(err, battle.ErrEntityNotOnField),
		errors.Is(err, session.ErrSessionAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, webclient.ErrNoClient),
		errors.Is(err, webclient.ErrShutdown):
		return http.StatusServiceUnavailable
	case errors.Is(err, webclient.ErrNotLoggedIn):
		return http.StatusUnauthorized
	}
	return http.StatusInternalServerError
}

func decodeBody(r *http.Request, v interface{}) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: invalid request body: %v", service.ErrInvalidRequest, err)
	}
	return nil
}

func entityVar(r *http.Request) battle.EntityID {
	id, _ := strconv.ParseInt(mux.Vars(r)["entity"], 10, 64)
	return battle.EntityID(id)
}

// Session Handlers

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ConfigID   string `json:"config_id,omitempty"`
		ConfigName string `json:"config_name,omitempty"` // Deprecated, use config_id
	}
	if err := decodeBody(r, &req); err != nil {
		respondErr(w, err)
		return
	}

	configID := req.ConfigID
	if configID == "" {
		configID = req.ConfigName
	}

	info, err := s.service.CreateSession(r.Context(), configID)
	if err != nil {
		respondErr(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, info)
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.service.ListSessions(r.Context())
	if err != nil {
		respondErr(w, err)
		return
	}

	query := r.URL.Query()
	sortBy := query.Get("sort") // "created", "accessed" (default)
	order := query.Get("order") // "asc", "desc" (default)
	if sortBy == "" {
		sortBy = "accessed"
	}
	if order == "" {
		order = "desc"
	}

	sort.Slice(sessions, func(i, j int) bool {
		var ti, tj time.Time
		if sortBy == "created" {
			ti, tj = sessions[i].CreatedAt, sessions[j].CreatedAt
		} else {
			ti, tj = sessions[i].LastAccessedAt, sessions[j].LastAccessedAt
		}
		if order == "asc" {
			return ti.Before(tj)
		}
		return ti.After(tj)
	})

	total := len(sessions)
	if l, err := strconv.Atoi(query.Get("limit")); err == nil && l > 0 && l < len(sessions) {
		sessions = sessions[:l]
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count":    len(sessions),
		"total":    total,
		"sessions": sessions,
		"sort":     sortBy,
		"order":    order,
	})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	info, err := s.service.GetSession(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, info)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	if err := s.service.DeleteSession(r.Context(), sessionID); err != nil {
		respondErr(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Session %s deleted", sessionID),
	})
}

// Field Handlers

func (s *Server) handleGetField(w http.ResponseWriter, r *http.Request) {
	field, err := s.service.GetField(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, field)
}

func (s *Server) handlePlaceEntity(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	var req service.PlaceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := s.service.PlaceEntity(r.Context(), sessionID, req)
	if err != nil {
		respondErr(w, err)
		return
	}

	status := http.StatusOK
	if result.Placed {
		status = http.StatusCreated
		s.broadcastField(r, sessionID, nil)
	}
	respondJSON(w, status, result)
}

func (s *Server) handleDeleteEntity(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]
	entity := entityVar(r)

	if err := s.service.DeleteEntity(r.Context(), sessionID, entity); err != nil {
		respondErr(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Entity %d marked for deletion", entity),
	})
}

func (s *Server) handleBeginMove(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	var req service.MoveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := s.service.BeginMove(r.Context(), sessionID, req)
	s.respondMove(w, r, sessionID, "BEGIN", result, err)
}

func (s *Server) handleCommitMove(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]
	result, err := s.service.CommitMove(r.Context(), sessionID, entityVar(r))
	s.respondMove(w, r, sessionID, "COMMIT", result, err)
}

func (s *Server) handleCancelMove(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]
	result, err := s.service.CancelMove(r.Context(), sessionID, entityVar(r))
	s.respondMove(w, r, sessionID, "CANCEL", result, err)
}

// respondMove writes a move result. Rejected moves still carry the result
// next to the error.
func (s *Server) respondMove(w http.ResponseWriter, r *http.Request, sessionID, phase string, result *service.MoveResult, err error) {
	if result != nil {
		status := "OK"
		if err != nil {
			status = "FAIL"
		}
		fmt.Printf("[MOVE] session=%s %s entity=%d (%d,%d)->(%d,%d) state=%s status=%s\n",
			sessionID, phase, result.Entity, result.FromX, result.FromY, result.ToX, result.ToY, result.State, status)
	}

	if err != nil {
		if result == nil {
			respondErr(w, err)
			return
		}
		respondJSON(w, statusFor(err), map[string]interface{}{
			"error": err.Error(),
			"move":  result,
		})
		return
	}

	s.broadcastField(r, sessionID, nil)
	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleStep(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	var req service.StepRequest
	if err := decodeBody(r, &req); err != nil {
		respondErr(w, err)
		return
	}

	result, err := s.service.Step(r.Context(), sessionID, req)
	if err != nil {
		respondErr(w, err)
		return
	}

	if s.hub != nil {
		s.hub.BroadcastToSession(sessionID, result.Field, result.Events, result.Mob)
	}

	fmt.Printf("[STEP] session=%s steps=%d elapsed=%.3f events=%d finished=%v\n",
		sessionID, result.Steps, result.Elapsed, len(result.Events), result.Finished)

	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleSetBattleActive(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	var req struct {
		Active bool `json:"active"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	field, err := s.service.SetBattleActive(r.Context(), sessionID, req.Active)
	if err != nil {
		respondErr(w, err)
		return
	}

	if s.hub != nil {
		s.hub.BroadcastToSession(sessionID, field, nil, nil)
	}
	respondJSON(w, http.StatusOK, field)
}

func (s *Server) handleSetTile(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	sessionID := vars["id"]

	var req service.TileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.X, _ = strconv.Atoi(vars["x"])
	req.Y, _ = strconv.Atoi(vars["y"])

	tile, err := s.service.SetTile(r.Context(), sessionID, req)
	if err != nil {
		respondErr(w, err)
		return
	}

	s.broadcastField(r, sessionID, nil)
	respondJSON(w, http.StatusOK, tile)
}

// broadcastField pushes the current field to websocket clients of the session
func (s *Server) broadcastField(r *http.Request, sessionID string, events []service.BattleEvent) {
	if s.hub == nil {
		return
	}
	info, err := s.service.GetSession(r.Context(), sessionID)
	if err != nil {
		return
	}
	s.hub.BroadcastToSession(sessionID, info.Field, events, info.Mob)
}

// Configuration Handlers

func (s *Server) handleListConfigs(w http.ResponseWriter, r *http.Request) {
	configs, err := s.service.ListConfigs(r.Context())
	if err != nil {
		respondErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, configs)
}

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	configName := strings.TrimSuffix(mux.Vars(r)["name"], ".json")

	cfg, err := s.service.LoadConfig(r.Context(), configName)
	if err != nil {
		respondErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, cfg)
}

func (s *Server) handleCreateConfig(w http.ResponseWriter, r *http.Request) {
	var fieldConfig battle.FieldConfig
	if err := json.NewDecoder(r.Body).Decode(&fieldConfig); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if fieldConfig.Name == "" {
		respondError(w, http.StatusBadRequest, "Config name is required")
		return
	}

	configID := r.URL.Query().Get("id")
	if configID == "" {
		configID = strings.ToLower(strings.ReplaceAll(strings.TrimSpace(fieldConfig.Name), " ", "_"))
	}
	if strings.ContainsAny(configID, `/\`) || strings.Contains(configID, "..") {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("Invalid config id %q", configID))
		return
	}

	if err := s.service.SaveConfig(r.Context(), configID, &fieldConfig); err != nil {
		respondError(w, statusFor(err), fmt.Sprintf("Failed to save config: %v", err))
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"message":   "Configuration saved successfully",
		"config_id": configID,
	})
}

// Map Handlers

func (s *Server) handleListMaps(w http.ResponseWriter, r *http.Request) {
	maps, err := s.service.ListMaps(r.Context())
	if err != nil {
		respondErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, maps)
}

func (s *Server) handleGetMap(w http.ResponseWriter, r *http.Request) {
	info, err := s.service.GetMap(r.Context(), mux.Vars(r)["name"])
	if err != nil {
		respondErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, info)
}

// queryMap parses x, y, z and layer from the query string and runs the map query
func (s *Server) queryMap(w http.ResponseWriter, r *http.Request) (*service.MapQueryResult, bool) {
	values := r.URL.Query()

	var query service.MapQuery
	for _, p := range []struct {
		name     string
		dest     *float64
		required bool
	}{
		{"x", &query.X, true},
		{"y", &query.Y, true},
		{"z", &query.Z, false},
	} {
		raw := values.Get(p.name)
		if raw == "" {
			if p.required {
				respondError(w, http.StatusBadRequest, fmt.Sprintf("query parameter %s is required", p.name))
				return nil, false
			}
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			respondError(w, http.StatusBadRequest, fmt.Sprintf("query parameter %s must be a number", p.name))
			return nil, false
		}
		*p.dest = v
	}
	if raw := values.Get("layer"); raw != "" {
		layer, err := strconv.Atoi(raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "query parameter layer must be an integer")
			return nil, false
		}
		query.Layer = layer
	}

	result, err := s.service.QueryMap(r.Context(), mux.Vars(r)["name"], query)
	if err != nil {
		respondErr(w, err)
		return nil, false
	}
	return result, true
}

func (s *Server) handleMapQuery(w http.ResponseWriter, r *http.Request) {
	if result, ok := s.queryMap(w, r); ok {
		respondJSON(w, http.StatusOK, result)
	}
}

func (s *Server) handleMapElevation(w http.ResponseWriter, r *http.Request) {
	if result, ok := s.queryMap(w, r); ok {
		respondJSON(w, http.StatusOK, map[string]interface{}{
			"x": result.X, "y": result.Y, "layer": result.Layer,
			"elevation":    result.Elevation,
			"ignore_above": result.IgnoreAbove,
		})
	}
}

func (s *Server) handleMapConcealed(w http.ResponseWriter, r *http.Request) {
	if result, ok := s.queryMap(w, r); ok {
		respondJSON(w, http.StatusOK, map[string]interface{}{
			"x": result.X, "y": result.Y, "layer": result.Layer,
			"concealed": result.Concealed,
			"shadowed":  result.Shadowed,
		})
	}
}

func (s *Server) handleMapCanMove(w http.ResponseWriter, r *http.Request) {
	if result, ok := s.queryMap(w, r); ok {
		respondJSON(w, http.StatusOK, map[string]interface{}{
			"x": result.X, "y": result.Y, "layer": result.Layer,
			"can_move": result.CanMove,
		})
	}
}

// Account Handlers

func (s *Server) handleAccountStatus(w http.ResponseWriter, r *http.Request) {
	if s.accounts == nil {
		respondJSON(w, http.StatusOK, map[string]interface{}{"enabled": false})
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"enabled":       true,
		"connected":     s.accounts.IsConnectedToWebServer(),
		"logged_in":     s.accounts.IsLoggedIn(),
		"ping_interval": s.accounts.GetPingInterval().String(),
		"queued_tasks":  s.accounts.QueueLength(),
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if s.accounts == nil {
		respondErr(w, webclient.ErrNoClient)
		return
	}

	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	ok, err := s.accounts.SendLoginCommand(req.Username, req.Password).Get(r.Context())
	if err != nil {
		respondErr(w, err)
		return
	}
	if !ok {
		respondError(w, http.StatusUnauthorized, "login rejected")
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"logged_in": true})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if s.accounts == nil {
		respondErr(w, webclient.ErrNoClient)
		return
	}

	ok, err := s.accounts.SendLogoutCommand().Get(r.Context())
	if err != nil {
		respondErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"logged_out": ok})
}

func (s *Server) handleFetchAccount(w http.ResponseWriter, r *http.Request) {
	if s.accounts == nil {
		respondErr(w, webclient.ErrNoClient)
		return
	}

	account, err := s.accounts.SendFetchAccountCommand().Get(r.Context())
	if err != nil {
		respondErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, account)
}

// WebSocket Handler

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session")
	if sessionID == "" {
		http.Error(w, "session parameter required", http.StatusBadRequest)
		return
	}
	if s.hub == nil {
		http.Error(w, "WebSocket updates disabled", http.StatusServiceUnavailable)
		return
	}

	if _, err := s.service.GetSession(r.Context(), sessionID); err != nil {
		http.Error(w, "Invalid session", http.StatusNotFound)
		return
	}

	s.hub.ServeWS(w, r, sessionID)
}

// Health check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}
