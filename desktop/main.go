package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image/color"
	"io"
	"log"
	"math"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

const (
	cellWidth     = 96
	cellHeight    = 56
	headerHeight  = 80
	fieldOffsetX  = 20
	screenWidth   = 800
	screenHeight  = 600
	flashDuration = 300 * time.Millisecond
	stepElapsed   = 1.0 / 60.0
	maxEventLines = 8
)

// ScreenType represents different screens in the app
type ScreenType int

const (
	ScreenWelcome ScreenType = iota
	ScreenBattle
)

var (
	redPanel     = color.RGBA{200, 70, 70, 255}
	bluePanel    = color.RGBA{70, 90, 200, 255}
	neutralPanel = color.RGBA{110, 110, 110, 255}
)

// Tile mirrors the server's tile snapshot
type Tile struct {
	X         int     `json:"x"`
	Y         int     `json:"y"`
	State     string  `json:"state"`
	Team      string  `json:"team"`
	Occupants []int64 `json:"occupants,omitempty"`
	Reserved  []int64 `json:"reserved,omitempty"`
}

// Entity mirrors the server's entity snapshot
type Entity struct {
	ID        int64  `json:"id"`
	Category  string `json:"category"`
	Team      string `json:"team"`
	Name      string `json:"name"`
	X         int    `json:"x"`
	Y         int    `json:"y"`
	Health    int    `json:"health,omitempty"`
	MaxHealth int    `json:"max_health,omitempty"`
}

// Move is a reserved move still waiting for commit or cancel
type Move struct {
	Entity int64 `json:"entity"`
	FromX  int   `json:"from_x"`
	FromY  int   `json:"from_y"`
	ToX    int   `json:"to_x"`
	ToY    int   `json:"to_y"`
}

// Field represents the battlefield as served by the battle server
type Field struct {
	Width        int      `json:"width"`
	Height       int      `json:"height"`
	BattleActive bool     `json:"battle_active"`
	Tiles        []Tile   `json:"tiles"`
	Entities     []Entity `json:"entities"`
	Moves        []Move   `json:"moves,omitempty"`
}

// MobInfo summarises the enemy formation
type MobInfo struct {
	Name      string `json:"name"`
	Remaining int    `json:"remaining"`
	Cleared   bool   `json:"cleared"`
}

// BattleEvent is one change reported by a step
type BattleEvent struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// WSMessage represents WebSocket message wrapper
type WSMessage struct {
	SessionID string        `json:"session_id"`
	Field     *Field        `json:"field,omitempty"`
	Events    []BattleEvent `json:"events,omitempty"`
	Mob       *MobInfo      `json:"mob,omitempty"`
	Event     string        `json:"event,omitempty"`
}

// SessionListItem represents a session from the server
type SessionListItem struct {
	ID         string   `json:"id"`
	ConfigName string   `json:"config_name"`
	Steps      int      `json:"steps"`
	Elapsed    float64  `json:"elapsed"`
	Mob        *MobInfo `json:"mob,omitempty"`
	Field      *Field   `json:"field"`
}

// ConfigListItem represents a battle configuration
type ConfigListItem struct {
	ConfigID    string `json:"config_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Mob         string `json:"mob,omitempty"`
}

// SessionData holds data for a single session
type SessionData struct {
	sessionID  string
	configName string
	field      *Field
	mob        *MobInfo
	events     []string
	wsConn     *websocket.Conn
	lastUpdate time.Time
	selected   int64               // entity driven by the arrow keys
	flashes    map[int64]time.Time // entities that just lost health
}

// Game represents the desktop battle viewer
type Game struct {
	baseURL          string
	sessions         []*SessionData
	activeSession    int
	stateMutex       sync.RWMutex
	currentScreen    ScreenType
	welcomeScreen    *WelcomeScreen
	selectedSessions map[string]bool
	statusMsg        string
}

// WelcomeScreen manages the welcome screen state
type WelcomeScreen struct {
	availableSessions []SessionListItem
	availableConfigs  []ConfigListItem
	cursorPos         int
	loading           bool
	errorMsg          string
	newSessionConfig  string // config id for new session
}

// NewGame creates a new viewer, attaching to sessionIDs when given
func NewGame(baseURL string, sessionIDs []string) *Game {
	g := &Game{
		baseURL:          strings.TrimSuffix(baseURL, "/"),
		currentScreen:    ScreenWelcome,
		selectedSessions: make(map[string]bool),
		welcomeScreen:    &WelcomeScreen{},
	}

	if len(sessionIDs) > 0 {
		for _, sid := range sessionIDs {
			g.addSession(sid)
		}
		g.currentScreen = ScreenBattle
	} else {
		g.loadWelcomeData()
	}

	return g
}

// apiCall performs a JSON request against the battle server
func (g *Game) apiCall(method, path string, body interface{}, result interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, g.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode >= 400 {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("%s", apiErr.Error)
		}
		return fmt.Errorf("server returned %d", resp.StatusCode)
	}

	if result != nil {
		if err := json.Unmarshal(data, result); err != nil {
			return fmt.Errorf("failed to parse response: %v (body: %s)", err, string(data))
		}
	}
	return nil
}

// addSession attaches to an existing session, or creates one with the
// first session's config when sessionID is empty
func (g *Game) addSession(sessionID string) {
	session := &SessionData{
		sessionID:  sessionID,
		lastUpdate: time.Now(),
		flashes:    make(map[int64]time.Time),
	}

	if sessionID == "" {
		configID := ""
		if len(g.sessions) > 0 {
			configID = g.sessions[0].configName
		}
		id, err := g.createSession(configID)
		if err != nil {
			log.Printf("Failed to create session: %v", err)
			return
		}
		session.sessionID = id
	}

	g.sessions = append(g.sessions, session)

	if err := g.connectWebSocket(session); err != nil {
		log.Printf("Failed to connect WebSocket for %s: %v (falling back to polling)", session.sessionID, err)
	} else {
		go g.listenWebSocket(session)
	}

	if err := g.fetchSession(session); err != nil {
		log.Printf("Error fetching session %s: %v", session.sessionID, err)
	}
}

// createSession creates a battle session and returns its id
func (g *Game) createSession(configID string) (string, error) {
	var info SessionListItem
	if err := g.apiCall("POST", "/api/sessions", map[string]string{"config_id": configID}, &info); err != nil {
		return "", err
	}
	log.Printf("Created new session: %s (config: %s)", info.ID, info.ConfigName)
	return info.ID, nil
}

// connectWebSocket subscribes to field updates for the session
func (g *Game) connectWebSocket(session *SessionData) error {
	base, err := url.Parse(g.baseURL)
	if err != nil {
		return err
	}

	scheme := "ws"
	if base.Scheme == "https" {
		scheme = "wss"
	}
	wsURL := url.URL{Scheme: scheme, Host: base.Host, Path: "/ws"}
	q := wsURL.Query()
	q.Set("session", session.sessionID)
	wsURL.RawQuery = q.Encode()

	conn, _, err := websocket.DefaultDialer.Dial(wsURL.String(), nil)
	if err != nil {
		return err
	}

	session.wsConn = conn
	log.Printf("WebSocket connected for session %s", session.sessionID)
	return nil
}

// listenWebSocket applies field updates until the connection drops
func (g *Game) listenWebSocket(session *SessionData) {
	defer func() {
		g.stateMutex.Lock()
		if session.wsConn != nil {
			session.wsConn.Close()
			session.wsConn = nil
		}
		g.stateMutex.Unlock()
	}()

	for {
		_, message, err := session.wsConn.ReadMessage()
		if err != nil {
			log.Printf("WebSocket read error for %s: %v", session.sessionID, err)
			return
		}

		var wsMsg WSMessage
		if err := json.Unmarshal(message, &wsMsg); err != nil {
			log.Printf("WebSocket JSON parse error: %v", err)
			continue
		}
		if wsMsg.Field == nil {
			continue
		}

		g.stateMutex.Lock()
		session.applyField(wsMsg.Field)
		if wsMsg.Mob != nil {
			session.mob = wsMsg.Mob
		}
		for _, e := range wsMsg.Events {
			session.logEvent(fmt.Sprintf("[%s] %s", e.Type, e.Message))
		}
		g.stateMutex.Unlock()
	}
}

// fetchSession polls the full session state
func (g *Game) fetchSession(session *SessionData) error {
	if session.sessionID == "" {
		return fmt.Errorf("no session ID set")
	}

	var info SessionListItem
	if err := g.apiCall("GET", "/api/sessions/"+session.sessionID, nil, &info); err != nil {
		return err
	}

	g.stateMutex.Lock()
	session.configName = info.ConfigName
	session.mob = info.Mob
	session.applyField(info.Field)
	g.stateMutex.Unlock()
	return nil
}

// applyField swaps in a new field and flashes entities that lost health
func (s *SessionData) applyField(field *Field) {
	if field == nil {
		return
	}
	if s.field != nil {
		before := make(map[int64]int, len(s.field.Entities))
		for _, e := range s.field.Entities {
			before[e.ID] = e.Health
		}
		for _, e := range field.Entities {
			if hp, ok := before[e.ID]; ok && e.Health < hp {
				s.flashes[e.ID] = time.Now()
			}
		}
	}
	s.field = field
	s.lastUpdate = time.Now()

	if s.entity(s.selected) == nil {
		s.selected = 0
		for _, e := range field.Entities {
			if e.Category == "character" && e.Team == "red" {
				s.selected = e.ID
				break
			}
		}
	}
}

func (s *SessionData) entity(id int64) *Entity {
	if s.field == nil || id == 0 {
		return nil
	}
	for i := range s.field.Entities {
		if s.field.Entities[i].ID == id {
			return &s.field.Entities[i]
		}
	}
	return nil
}

func (s *SessionData) tile(x, y int) *Tile {
	if s.field == nil {
		return nil
	}
	for i := range s.field.Tiles {
		if s.field.Tiles[i].X == x && s.field.Tiles[i].Y == y {
			return &s.field.Tiles[i]
		}
	}
	return nil
}

func (s *SessionData) logEvent(line string) {
	s.events = append(s.events, line)
	if len(s.events) > maxEventLines {
		s.events = s.events[len(s.events)-maxEventLines:]
	}
}

// cycleSelection moves the arrow-key focus to the next red character
func (s *SessionData) cycleSelection() {
	if s.field == nil {
		return
	}
	var ids []int64
	for _, e := range s.field.Entities {
		if e.Category == "character" && e.Team == "red" {
			ids = append(ids, e.ID)
		}
	}
	if len(ids) == 0 {
		s.selected = 0
		return
	}
	for i, id := range ids {
		if id == s.selected {
			s.selected = ids[(i+1)%len(ids)]
			return
		}
	}
	s.selected = ids[0]
}

// loadWelcomeData fetches available sessions and configs from server
func (g *Game) loadWelcomeData() {
	ws := g.welcomeScreen
	ws.loading = true
	ws.errorMsg = ""
	defer func() { ws.loading = false }()

	var sessionsResp struct {
		Sessions []SessionListItem `json:"sessions"`
	}
	if err := g.apiCall("GET", "/api/sessions", nil, &sessionsResp); err != nil {
		ws.errorMsg = fmt.Sprintf("Error loading sessions: %v", err)
		return
	}
	ws.availableSessions = sessionsResp.Sessions

	var configs []ConfigListItem
	if err := g.apiCall("GET", "/api/configs", nil, &configs); err != nil {
		ws.errorMsg = fmt.Sprintf("Error loading configs: %v", err)
		return
	}
	ws.availableConfigs = configs
}

// startBattleWithSelectedSessions transitions to the battle screen
func (g *Game) startBattleWithSelectedSessions() {
	if len(g.selectedSessions) == 0 {
		g.welcomeScreen.errorMsg = "Please select at least one session"
		return
	}

	for sessionID := range g.selectedSessions {
		g.addSession(sessionID)
	}
	g.currentScreen = ScreenBattle
}

func (g *Game) active() *SessionData {
	if len(g.sessions) == 0 {
		return nil
	}
	return g.sessions[g.activeSession]
}

// sendMove reserves a move one panel away from the selected character and
// commits it straight away
func (g *Game) sendMove(dx, dy int) {
	session := g.active()
	if session == nil {
		return
	}

	g.stateMutex.RLock()
	e := session.entity(session.selected)
	g.stateMutex.RUnlock()
	if e == nil {
		g.statusMsg = "No character selected (P places one)"
		return
	}

	var reserved struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	move := map[string]interface{}{"entity": e.ID, "x": e.X + dx, "y": e.Y + dy}
	if err := g.apiCall("POST", "/api/sessions/"+session.sessionID+"/moves", move, &reserved); err != nil {
		g.statusMsg = fmt.Sprintf("Move refused: %v", err)
		return
	}

	path := fmt.Sprintf("/api/sessions/%s/moves/%d/commit", session.sessionID, e.ID)
	if err := g.apiCall("POST", path, nil, nil); err != nil {
		g.statusMsg = fmt.Sprintf("Commit failed: %v", err)
		return
	}
	g.statusMsg = ""
	g.refresh(session)
}

// placeCharacter puts a red character on the first free red panel
func (g *Game) placeCharacter() {
	session := g.active()
	if session == nil {
		return
	}

	g.stateMutex.RLock()
	var spot *Tile
	if session.field != nil {
		for i := range session.field.Tiles {
			t := &session.field.Tiles[i]
			if t.Team == "red" && len(t.Occupants) == 0 && walkable(t.State) {
				if spot == nil || t.X < spot.X || (t.X == spot.X && t.Y < spot.Y) {
					spot = t
				}
			}
		}
	}
	g.stateMutex.RUnlock()

	if spot == nil {
		g.statusMsg = "No free red panel"
		return
	}

	req := map[string]interface{}{
		"category": "character", "team": "red", "name": "Mega",
		"x": spot.X, "y": spot.Y, "health": 100,
	}
	if err := g.apiCall("POST", "/api/sessions/"+session.sessionID+"/entities", req, nil); err != nil {
		g.statusMsg = fmt.Sprintf("Place failed: %v", err)
		return
	}
	g.refresh(session)
}

// step advances the active session by one frame
func (g *Game) step() {
	session := g.active()
	if session == nil {
		return
	}

	var result struct {
		Events []BattleEvent `json:"events"`
	}
	if err := g.apiCall("POST", "/api/sessions/"+session.sessionID+"/step", map[string]float64{"elapsed": stepElapsed}, &result); err != nil {
		g.statusMsg = fmt.Sprintf("Step failed: %v", err)
		return
	}
	if session.wsConn == nil {
		g.stateMutex.Lock()
		for _, e := range result.Events {
			session.logEvent(fmt.Sprintf("[%s] %s", e.Type, e.Message))
		}
		g.stateMutex.Unlock()
	}
	g.refresh(session)
}

// toggleBattle flips the battle-active flag of the active session
func (g *Game) toggleBattle() {
	session := g.active()
	if session == nil {
		return
	}

	g.stateMutex.RLock()
	if session.field == nil {
		g.stateMutex.RUnlock()
		return
	}
	active := !session.field.BattleActive
	g.stateMutex.RUnlock()

	if err := g.apiCall("POST", "/api/sessions/"+session.sessionID+"/battle", map[string]bool{"active": active}, nil); err != nil {
		g.statusMsg = fmt.Sprintf("Toggle failed: %v", err)
		return
	}
	g.refresh(session)
}

// refresh re-reads state when no WebSocket pushes it
func (g *Game) refresh(session *SessionData) {
	if session.wsConn != nil {
		return
	}
	if err := g.fetchSession(session); err != nil {
		log.Printf("Error fetching session %s: %v", session.sessionID, err)
	}
}

// Update updates game logic
func (g *Game) Update() error {
	switch g.currentScreen {
	case ScreenWelcome:
		return g.updateWelcomeScreen()
	case ScreenBattle:
		return g.updateBattleScreen()
	}
	return nil
}

// updateWelcomeScreen handles welcome screen input
func (g *Game) updateWelcomeScreen() error {
	ws := g.welcomeScreen

	if inpututil.IsKeyJustPressed(ebiten.KeyF5) {
		g.loadWelcomeData()
	}

	totalItems := len(ws.availableSessions)
	if inpututil.IsKeyJustPressed(ebiten.KeyArrowDown) && ws.cursorPos < totalItems-1 {
		ws.cursorPos++
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyArrowUp) && ws.cursorPos > 0 {
		ws.cursorPos--
	}

	if inpututil.IsKeyJustPressed(ebiten.KeySpace) && ws.cursorPos < totalItems {
		sessionID := ws.availableSessions[ws.cursorPos].ID
		if g.selectedSessions[sessionID] {
			delete(g.selectedSessions, sessionID)
		} else {
			g.selectedSessions[sessionID] = true
		}
	}

	// Tab cycles configs, wrapping back to the server default
	if inpututil.IsKeyJustPressed(ebiten.KeyTab) && len(ws.availableConfigs) > 0 {
		next := 0
		for i, cfg := range ws.availableConfigs {
			if cfg.ConfigID == ws.newSessionConfig {
				next = i + 1
				break
			}
		}
		if next >= len(ws.availableConfigs) {
			ws.newSessionConfig = ""
		} else {
			ws.newSessionConfig = ws.availableConfigs[next].ConfigID
		}
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyN) {
		id, err := g.createSession(ws.newSessionConfig)
		if err != nil {
			ws.errorMsg = fmt.Sprintf("Failed to create session: %v", err)
		} else {
			g.selectedSessions[id] = true
			g.loadWelcomeData()
		}
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyEnter) {
		g.startBattleWithSelectedSessions()
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) && len(g.sessions) > 0 {
		g.currentScreen = ScreenBattle
	}

	return nil
}

// updateBattleScreen handles battle screen input
func (g *Game) updateBattleScreen() error {
	if len(g.sessions) == 0 {
		if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
			g.currentScreen = ScreenWelcome
			g.loadWelcomeData()
		}
		return nil
	}

	for _, session := range g.sessions {
		if session.wsConn == nil && time.Since(session.lastUpdate) > 500*time.Millisecond {
			if err := g.fetchSession(session); err != nil {
				log.Printf("Error fetching state for %s: %v", session.sessionID, err)
			}
		}
	}

	for i := ebiten.Key1; i <= ebiten.Key9; i++ {
		if inpututil.IsKeyJustPressed(i) {
			idx := int(i - ebiten.Key1)
			if idx < len(g.sessions) {
				g.activeSession = idx
				log.Printf("Switched to session %d: %s", idx+1, g.sessions[idx].sessionID)
			}
		}
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyN) && len(g.sessions) < 9 {
		g.addSession("")
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyTab) {
		g.stateMutex.Lock()
		g.active().cycleSelection()
		g.stateMutex.Unlock()
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyArrowUp) || inpututil.IsKeyJustPressed(ebiten.KeyW) {
		g.sendMove(0, -1)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyArrowDown) || inpututil.IsKeyJustPressed(ebiten.KeyS) {
		g.sendMove(0, 1)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyArrowLeft) || inpututil.IsKeyJustPressed(ebiten.KeyA) {
		g.sendMove(-1, 0)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyArrowRight) || inpututil.IsKeyJustPressed(ebiten.KeyD) {
		g.sendMove(1, 0)
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyP) {
		g.placeCharacter()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyB) {
		g.toggleBattle()
	}
	// Space steps once, holding it runs frames continuously
	if inpututil.IsKeyJustPressed(ebiten.KeySpace) || inpututil.KeyPressDuration(ebiten.KeySpace) > 30 {
		g.step()
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		g.currentScreen = ScreenWelcome
		g.loadWelcomeData()
	}

	return nil
}

// Draw renders the viewer
func (g *Game) Draw(screen *ebiten.Image) {
	switch g.currentScreen {
	case ScreenWelcome:
		g.drawWelcomeScreen(screen)
	case ScreenBattle:
		g.drawBattleScreen(screen)
	}
}

// drawWelcomeScreen renders the session selection screen
func (g *Game) drawWelcomeScreen(screen *ebiten.Image) {
	ws := g.welcomeScreen
	screen.Fill(color.RGBA{20, 20, 30, 255})

	y := 20
	ebitenutil.DebugPrintAt(screen, "=== NETBATTLE - SESSION SELECT ===", 240, y)
	y += 30

	if ws.loading {
		ebitenutil.DebugPrintAt(screen, "Loading sessions...", 20, y)
		return
	}

	if ws.errorMsg != "" {
		ebitenutil.DebugPrintAt(screen, fmt.Sprintf("ERROR: %s", ws.errorMsg), 20, y)
		y += 20
	}

	ebitenutil.DebugPrintAt(screen, "Available Sessions:", 20, y)
	y += 20

	if len(ws.availableSessions) == 0 {
		ebitenutil.DebugPrintAt(screen, "  No sessions found. Press N to create one.", 20, y)
		y += 20
	}
	for i, session := range ws.availableSessions {
		cursor := "  "
		if i == ws.cursorPos {
			cursor = "> "
		}
		checkbox := "[ ]"
		if g.selectedSessions[session.ID] {
			checkbox = "[X]"
		}

		status := ""
		if session.Mob != nil {
			status = fmt.Sprintf(" | %s x%d", session.Mob.Name, session.Mob.Remaining)
			if session.Mob.Cleared {
				status = fmt.Sprintf(" | %s CLEARED", session.Mob.Name)
			}
		}

		line := fmt.Sprintf("%s%s %s | %s | %d steps %.1fs%s",
			cursor, checkbox, session.ID, session.ConfigName, session.Steps, session.Elapsed, status)
		ebitenutil.DebugPrintAt(screen, line, 20, y)
		y += 15
	}

	y += 20
	ebitenutil.DebugPrintAt(screen, "Create New Session:", 20, y)
	y += 20

	configDisplay := "default"
	if ws.newSessionConfig != "" {
		configDisplay = ws.newSessionConfig
	}
	ebitenutil.DebugPrintAt(screen, fmt.Sprintf("  Selected Config: %s", configDisplay), 20, y)
	y += 15
	for _, cfg := range ws.availableConfigs {
		marker := "  "
		if cfg.ConfigID == ws.newSessionConfig {
			marker = "> "
		}
		ebitenutil.DebugPrintAt(screen, fmt.Sprintf("    %s%s - %s", marker, cfg.ConfigID, cfg.Description), 20, y)
		y += 15
	}

	y += 20
	ebitenutil.DebugPrintAt(screen, fmt.Sprintf("Selected: %d session(s)", len(g.selectedSessions)), 20, y)
	y += 30

	ebitenutil.DebugPrintAt(screen, "CONTROLS:", 20, y)
	y += 20
	for _, line := range []string{
		"  UP/DOWN  - Navigate sessions",
		"  SPACE    - Toggle session selection",
		"  TAB      - Cycle config for new session",
		"  N        - Create new session with selected config",
		"  ENTER    - Watch selected sessions",
		"  F5       - Refresh session list",
	} {
		ebitenutil.DebugPrintAt(screen, line, 20, y)
		y += 15
	}
	if len(g.sessions) > 0 {
		ebitenutil.DebugPrintAt(screen, "  ESC      - Back to battle", 20, y)
	}
}

// drawBattleScreen renders the active session's field
func (g *Game) drawBattleScreen(screen *ebiten.Image) {
	g.stateMutex.RLock()
	defer g.stateMutex.RUnlock()

	session := g.active()
	if session == nil {
		ebitenutil.DebugPrint(screen, "No sessions available. Press ESC to go to session select.")
		return
	}
	if session.field == nil {
		ebitenutil.DebugPrint(screen, "Loading...")
		return
	}

	g.drawSessionStats(screen)

	field := session.field
	reservedBy := make(map[[2]int]bool)
	for _, m := range field.Moves {
		reservedBy[[2]int{m.ToX, m.ToY}] = true
	}

	for _, t := range field.Tiles {
		px, py := tileOrigin(t.X, t.Y)
		ebitenutil.DrawRect(screen, px, py, cellWidth-2, cellHeight-2, panelColor(t.Team, t.State))
		if label := stateLabel(t.State); label != "" {
			ebitenutil.DebugPrintAt(screen, label, int(px)+4, int(py)+cellHeight-18)
		}
		if reservedBy[[2]int{t.X, t.Y}] || len(t.Reserved) > 0 {
			drawOutline(screen, px, py, cellWidth-2, cellHeight-2, color.RGBA{255, 255, 0, 255})
		}
	}

	for _, e := range field.Entities {
		px, py := tileOrigin(e.X, e.Y)
		c := entityColor(e)

		var shake float64
		if at, ok := session.flashes[e.ID]; ok && time.Since(at) < flashDuration {
			progress := time.Since(at).Seconds() / flashDuration.Seconds()
			shake = 3 * (1 - progress) * math.Sin(progress*40)
			c = color.RGBA{255, 255, 255, 255}
		}

		ebitenutil.DrawRect(screen, px+14+shake, py+6, cellWidth-30, cellHeight-30, c)
		label := e.Name
		if e.MaxHealth > 0 {
			label = fmt.Sprintf("%s %d", e.Name, e.Health)
		}
		ebitenutil.DebugPrintAt(screen, label, int(px)+16, int(py)+8)
		if e.ID == session.selected {
			drawOutline(screen, px+12, py+4, cellWidth-26, cellHeight-26, color.RGBA{255, 255, 255, 255})
		}
	}

	y := headerHeight + field.Height*cellHeight + 20
	ebitenutil.DebugPrintAt(screen, "Events:", fieldOffsetX, y)
	for i, line := range session.events {
		ebitenutil.DebugPrintAt(screen, line, fieldOffsetX, y+15*(i+1))
	}

	if g.statusMsg != "" {
		ebitenutil.DebugPrintAt(screen, g.statusMsg, fieldOffsetX, screenHeight-40)
	}
	ebitenutil.DebugPrintAt(screen, "1-9: Session | N: New | P: Place | TAB: Select | Arrows/WASD: Move | SPACE: Step | B: Battle | ESC: Menu", 10, screenHeight-20)
}

// drawSessionStats draws one line per session in the header
func (g *Game) drawSessionStats(screen *ebiten.Image) {
	for idx, session := range g.sessions {
		y := 5 + idx*15
		if y > headerHeight-15 {
			break
		}

		activeMarker := "   "
		if idx == g.activeSession {
			activeMarker = ">>>"
		}

		connStatus := "POLL"
		if session.wsConn != nil {
			connStatus = "WS"
		}

		state := "paused"
		if session.field != nil && session.field.BattleActive {
			state = "active"
		}

		info := fmt.Sprintf("%s [%d] %s [%s] %s %s", activeMarker, idx+1, session.sessionID, connStatus, session.configName, state)
		if session.mob != nil {
			if session.mob.Cleared {
				info += fmt.Sprintf(" | %s CLEARED!", session.mob.Name)
			} else {
				info += fmt.Sprintf(" | %s x%d", session.mob.Name, session.mob.Remaining)
			}
		}
		ebitenutil.DebugPrintAt(screen, info, 10, y)
	}
}

// Layout returns the viewer screen size
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return screenWidth, screenHeight
}

// tileOrigin maps 1-based field coordinates to screen pixels
func tileOrigin(x, y int) (float64, float64) {
	return float64(fieldOffsetX + (x-1)*cellWidth), float64(headerHeight + (y-1)*cellHeight)
}

func drawOutline(screen *ebiten.Image, x, y, w, h float64, c color.Color) {
	ebitenutil.DrawRect(screen, x, y, w, 2, c)
	ebitenutil.DrawRect(screen, x, y+h-2, w, 2, c)
	ebitenutil.DrawRect(screen, x, y, 2, h, c)
	ebitenutil.DrawRect(screen, x+w-2, y, 2, h, c)
}

func walkable(state string) bool {
	return state != "broken" && state != "empty" && state != "hidden"
}

// panelColor tints the team color by panel state
func panelColor(team, state string) color.Color {
	base := neutralPanel
	switch team {
	case "red":
		base = redPanel
	case "blue":
		base = bluePanel
	}

	switch state {
	case "broken", "empty", "hidden":
		return color.RGBA{20, 20, 20, 255}
	case "cracked":
		return blend(base, color.RGBA{60, 60, 60, 255}, 0.4)
	case "lava":
		return blend(base, color.RGBA{255, 120, 0, 255}, 0.6)
	case "poison":
		return blend(base, color.RGBA{150, 0, 170, 255}, 0.6)
	case "ice":
		return blend(base, color.RGBA{200, 240, 255, 255}, 0.6)
	case "grass":
		return blend(base, color.RGBA{40, 170, 40, 255}, 0.6)
	case "holy":
		return blend(base, color.RGBA{255, 240, 150, 255}, 0.6)
	}
	return base
}

func stateLabel(state string) string {
	switch state {
	case "normal", "":
		return ""
	case "direction_left":
		return "<<"
	case "direction_right":
		return ">>"
	case "direction_up":
		return "^^"
	case "direction_down":
		return "vv"
	}
	return state
}

func entityColor(e Entity) color.RGBA {
	switch e.Category {
	case "spell":
		return color.RGBA{255, 220, 0, 255}
	case "obstacle":
		return color.RGBA{140, 100, 60, 255}
	case "artifact":
		return color.RGBA{180, 180, 180, 255}
	}
	if e.Team == "red" {
		return color.RGBA{255, 160, 160, 255}
	}
	return color.RGBA{160, 180, 255, 255}
}

func blend(a, b color.RGBA, t float64) color.RGBA {
	mix := func(x, y uint8) uint8 {
		return uint8(float64(x)*(1-t) + float64(y)*t)
	}
	return color.RGBA{mix(a.R, b.R), mix(a.G, b.G), mix(a.B, b.B), 255}
}

func main() {
	baseURL := os.Getenv("NETBATTLE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}

	// Accept multiple session IDs as arguments
	game := NewGame(baseURL, os.Args[1:])

	ebiten.SetWindowSize(screenWidth, screenHeight)
	ebiten.SetWindowTitle("NetBattle - Multi-Session Battle Viewer")
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	if err := ebiten.RunGame(game); err != nil {
		log.Fatal(err)
	}
}
