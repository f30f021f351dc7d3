package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/wricardo/netbattle/game/battle"
	"github.com/wricardo/netbattle/game/service"
)

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

// initMCPServer initializes the MCP server with all tools
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"NetBattle",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`NetBattle - MCP Interface

This is a thin client that proxies all requests to the REST API server.

A battle field is a grid of panels (default 6x3). Columns on the left belong
to the red team, columns on the right to the blue team. Coordinates are
1-based: x in 1..width, y in 1..height.

Moves are two-phase: move_entity reserves the destination, then commit_move
or cancel_move resolves it. While reserved, no other entity can claim the
destination panel.

AVAILABLE TOOLS:
- create_session / get_session / list_sessions: manage battles
- field_state: render the field as a grid
- place_entity: add a character, spell, obstacle or artifact
- move_entity, commit_move, cancel_move: the move protocol
- delete_entity: mark an entity deleted
- step: advance time and report events
- set_tile: change a panel's state or team
- list_configs: available battle configurations
- list_maps / map_query: overworld elevation, collision and occlusion`),
	)

	c.registerTools()
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	sessionID := mcp.WithString("session_id", mcp.Required(), mcp.Description("Session ID"))

	// Session management
	c.mcpServer.AddTool(mcp.NewTool("create_session",
		mcp.WithDescription("Create a new battle session with optional config selection"),
		mcp.WithString("config_id", mcp.Description("Config to use, see list_configs (optional)")),
	), c.handleCreateSession)

	c.mcpServer.AddTool(mcp.NewTool("list_sessions",
		mcp.WithDescription("List all active battle sessions"),
	), c.handleListSessions)

	c.mcpServer.AddTool(mcp.NewTool("get_session",
		mcp.WithDescription("Get details of a specific session"),
		sessionID,
	), c.handleGetSession)

	// Field operations
	c.mcpServer.AddTool(mcp.NewTool("field_state",
		mcp.WithDescription("Render the current field: panels, teams, entities and reservations"),
		sessionID,
	), c.handleFieldState)

	c.mcpServer.AddTool(mcp.NewTool("place_entity",
		mcp.WithDescription("Place an entity on a panel. Out-of-bounds placements are dropped."),
		sessionID,
		mcp.WithString("category", mcp.Required(),
			mcp.Enum("character", "spell", "obstacle", "artifact"),
			mcp.Description("Entity category")),
		mcp.WithString("team", mcp.Enum("red", "blue", "unknown"), mcp.Description("Owning team")),
		mcp.WithString("name", mcp.Description("Display name")),
		mcp.WithNumber("x", mcp.Required(), mcp.Description("Column, 1-based")),
		mcp.WithNumber("y", mcp.Required(), mcp.Description("Row, 1-based")),
		mcp.WithNumber("health", mcp.Description("Health for characters and obstacles")),
		mcp.WithNumber("damage", mcp.Description("Damage for spells")),
		mcp.WithNumber("lifetime", mcp.Description("Seconds before a spell or artifact expires")),
	), c.handlePlaceEntity)

	c.mcpServer.AddTool(mcp.NewTool("move_entity",
		mcp.WithDescription("Reserve a destination panel for an entity. Resolve with commit_move or cancel_move."),
		sessionID,
		mcp.WithNumber("entity", mcp.Required(), mcp.Description("Entity ID")),
		mcp.WithNumber("x", mcp.Required(), mcp.Description("Destination column, 1-based")),
		mcp.WithNumber("y", mcp.Required(), mcp.Description("Destination row, 1-based")),
		mcp.WithBoolean("ignore_team", mcp.Description("Allow moving onto the other team's panels")),
		mcp.WithString("intent", mcp.Description("Brief explanation of the intent behind this move")),
	), c.handleMoveEntity)

	c.mcpServer.AddTool(mcp.NewTool("commit_move",
		mcp.WithDescription("Complete an entity's reserved move"),
		sessionID,
		mcp.WithNumber("entity", mcp.Required(), mcp.Description("Entity ID")),
	), c.handleCommitMove)

	c.mcpServer.AddTool(mcp.NewTool("cancel_move",
		mcp.WithDescription("Abort an entity's reserved move"),
		sessionID,
		mcp.WithNumber("entity", mcp.Required(), mcp.Description("Entity ID")),
	), c.handleCancelMove)

	c.mcpServer.AddTool(mcp.NewTool("delete_entity",
		mcp.WithDescription("Mark an entity deleted; it leaves the field on the next step"),
		sessionID,
		mcp.WithNumber("entity", mcp.Required(), mcp.Description("Entity ID")),
	), c.handleDeleteEntity)

	c.mcpServer.AddTool(mcp.NewTool("step",
		mcp.WithDescription("Advance the battle and report damage, deletions and tile changes"),
		sessionID,
		mcp.WithNumber("steps", mcp.Description("Number of updates (default 1)")),
		mcp.WithNumber("elapsed", mcp.Description("Seconds per update (default 1/60)")),
	), c.handleStep)

	c.mcpServer.AddTool(mcp.NewTool("set_tile",
		mcp.WithDescription("Change a panel's state (cracked, lava, ...) and/or team"),
		sessionID,
		mcp.WithNumber("x", mcp.Required(), mcp.Description("Column, 1-based")),
		mcp.WithNumber("y", mcp.Required(), mcp.Description("Row, 1-based")),
		mcp.WithString("state", mcp.Description("Tile state name or layout character")),
		mcp.WithString("team", mcp.Enum("red", "blue", "unknown"), mcp.Description("Panel owner")),
	), c.handleSetTile)

	// Configuration and maps
	c.mcpServer.AddTool(mcp.NewTool("list_configs",
		mcp.WithDescription("List available battle configurations"),
	), c.handleListConfigs)

	c.mcpServer.AddTool(mcp.NewTool("list_maps",
		mcp.WithDescription("List available overworld maps"),
	), c.handleListMaps)

	c.mcpServer.AddTool(mcp.NewTool("map_query",
		mcp.WithDescription("Query an overworld map at a tile-space position: elevation, collision, occlusion and shadow"),
		mcp.WithString("map", mcp.Required(), mcp.Description("Map ID, see list_maps")),
		mcp.WithNumber("x", mcp.Required(), mcp.Description("Tile-space x, fractional")),
		mcp.WithNumber("y", mcp.Required(), mcp.Description("Tile-space y, fractional")),
		mcp.WithNumber("z", mcp.Description("Height above the layer")),
		mcp.WithNumber("layer", mcp.Description("Layer index (default 0)")),
	), c.handleMapQuery)
}

// GetMCPServer returns the underlying MCP server for serving
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// Helper methods for API calls

func (c *Client) apiCall(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp struct {
			Error string `json:"error"`
		}
		json.NewDecoder(resp.Body).Decode(&errResp)
		if errResp.Error != "" {
			return fmt.Errorf("%s", errResp.Error)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}

	return nil
}

func sessionPath(request mcp.CallToolRequest, suffix string) string {
	return "/api/sessions/" + url.PathEscape(request.GetString("session_id", "")) + suffix
}

func entityArg(request mcp.CallToolRequest) battle.EntityID {
	return battle.EntityID(request.GetInt("entity", 0))
}

// Tool handlers

func (c *Client) handleCreateSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	body := map[string]string{}
	if configID := request.GetString("config_id", ""); configID != "" {
		body["config_id"] = configID
	}

	var session service.SessionInfo
	if err := c.apiCall(ctx, "POST", "/api/sessions", body, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Created session: %s\nConfig: %s\n\n%s",
		session.ID, session.ConfigName, formatField(session.Field))), nil
}

func (c *Client) handleListSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Count    int                   `json:"count"`
		Sessions []service.SessionInfo `json:"sessions"`
	}

	if err := c.apiCall(ctx, "GET", "/api/sessions", nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var result strings.Builder
	fmt.Fprintf(&result, "Active Sessions (%d):\n\n", response.Count)
	for _, s := range response.Sessions {
		fmt.Fprintf(&result, "- %s (Config: %s, Steps: %d, Created: %s)\n",
			s.ID, s.ConfigName, s.Steps, s.CreatedAt.Format("15:04:05"))
	}

	return mcp.NewToolResultText(result.String()), nil
}

func (c *Client) handleGetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var session service.SessionInfo
	if err := c.apiCall(ctx, "GET", sessionPath(request, ""), nil, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatSessionInfo(&session)), nil
}

func (c *Client) handleFieldState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var field battle.FieldSnapshot
	if err := c.apiCall(ctx, "GET", sessionPath(request, "/field"), nil, &field); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatField(&field)), nil
}

func (c *Client) handlePlaceEntity(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	body := service.PlaceRequest{
		Category: request.GetString("category", ""),
		Team:     request.GetString("team", ""),
		Name:     request.GetString("name", ""),
		X:        request.GetInt("x", 0),
		Y:        request.GetInt("y", 0),
		Health:   request.GetInt("health", 0),
		Damage:   request.GetInt("damage", 0),
		Lifetime: request.GetFloat("lifetime", 0),
	}

	var result service.PlaceResult
	if err := c.apiCall(ctx, "POST", sessionPath(request, "/entities"), body, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if !result.Placed {
		return mcp.NewToolResultText("❌ Not placed: " + result.Message), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("✅ %s\n%s", result.Message, formatEntity(*result.Entity))), nil
}

func (c *Client) handleMoveEntity(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	// intent is only there to make the caller explain itself
	_ = request.GetString("intent", "")

	body := service.MoveRequest{
		Entity:     entityArg(request),
		X:          request.GetInt("x", 0),
		Y:          request.GetInt("y", 0),
		IgnoreTeam: request.GetBool("ignore_team", false),
	}

	var result service.MoveResult
	if err := c.apiCall(ctx, "POST", sessionPath(request, "/moves"), body, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatMoveResult(&result)), nil
}

func (c *Client) handleCommitMove(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return c.resolveMove(ctx, request, "commit")
}

func (c *Client) handleCancelMove(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return c.resolveMove(ctx, request, "cancel")
}

func (c *Client) resolveMove(ctx context.Context, request mcp.CallToolRequest, action string) (*mcp.CallToolResult, error) {
	path := sessionPath(request, fmt.Sprintf("/moves/%d/%s", entityArg(request), action))

	var result service.MoveResult
	if err := c.apiCall(ctx, "POST", path, nil, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatMoveResult(&result)), nil
}

func (c *Client) handleDeleteEntity(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var result map[string]string
	path := sessionPath(request, fmt.Sprintf("/entities/%d", entityArg(request)))
	if err := c.apiCall(ctx, "DELETE", path, nil, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(result["message"]), nil
}

func (c *Client) handleStep(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	body := service.StepRequest{
		Steps:   request.GetInt("steps", 0),
		Elapsed: request.GetFloat("elapsed", 0),
	}

	var result service.StepResult
	if err := c.apiCall(ctx, "POST", sessionPath(request, "/step"), body, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatStepResult(&result)), nil
}

func (c *Client) handleSetTile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	body := service.TileRequest{
		State: request.GetString("state", ""),
		Team:  request.GetString("team", ""),
	}
	path := sessionPath(request, fmt.Sprintf("/tiles/%d/%d", request.GetInt("x", 0), request.GetInt("y", 0)))

	var tile battle.TileSnapshot
	if err := c.apiCall(ctx, "PUT", path, body, &tile); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Tile (%d,%d) is now %s, team %s", tile.X, tile.Y, tile.State, tile.Team)), nil
}

func (c *Client) handleListConfigs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var configs []service.ConfigInfo
	if err := c.apiCall(ctx, "GET", "/api/configs", nil, &configs); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var result strings.Builder
	result.WriteString("Available Configurations:\n\n")
	for _, cfg := range configs {
		fmt.Fprintf(&result, "- %s: %s (%dx%d)", cfg.ConfigID, cfg.Name, cfg.Width, cfg.Height)
		if cfg.Mob != "" {
			fmt.Fprintf(&result, " mob=%s", cfg.Mob)
		}
		if cfg.Description != "" {
			fmt.Fprintf(&result, "\n  %s", cfg.Description)
		}
		result.WriteString("\n")
	}

	return mcp.NewToolResultText(result.String()), nil
}

func (c *Client) handleListMaps(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var maps []service.MapInfo
	if err := c.apiCall(ctx, "GET", "/api/maps", nil, &maps); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var result strings.Builder
	result.WriteString("Available Maps:\n\n")
	for _, m := range maps {
		fmt.Fprintf(&result, "- %s: %s (%dx%d tiles of %dx%d px, %d layers)\n",
			m.MapID, m.Name, m.Cols, m.Rows, m.TileWidth, m.TileHeight, m.Layers)
	}
	return mcp.NewToolResultText(result.String()), nil
}

func (c *Client) handleMapQuery(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	mapName, err := request.RequireString("map")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	query := url.Values{}
	query.Set("x", strconv.FormatFloat(request.GetFloat("x", 0), 'f', -1, 64))
	query.Set("y", strconv.FormatFloat(request.GetFloat("y", 0), 'f', -1, 64))
	query.Set("z", strconv.FormatFloat(request.GetFloat("z", 0), 'f', -1, 64))
	query.Set("layer", strconv.Itoa(request.GetInt("layer", 0)))

	var result service.MapQueryResult
	path := "/api/maps/" + url.PathEscape(mapName) + "/query?" + query.Encode()
	if err := c.apiCall(ctx, "GET", path, nil, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatMapQuery(&result)), nil
}

// Formatting helpers

func formatSessionInfo(session *service.SessionInfo) string {
	var result strings.Builder
	fmt.Fprintf(&result, "Session: %s\nConfig: %s\nCreated: %s\nElapsed: %.2fs over %d steps\n",
		session.ID, session.ConfigName,
		session.CreatedAt.Format("2006-01-02 15:04:05"),
		session.Elapsed, session.Steps)
	if session.Mob != nil {
		fmt.Fprintf(&result, "Mob: %s (%d remaining)", session.Mob.Name, session.Mob.Remaining)
		if session.Mob.Cleared {
			result.WriteString(" 🏆 CLEARED")
		}
		result.WriteString("\n")
	}
	result.WriteString("\n")
	result.WriteString(formatField(session.Field))
	return result.String()
}

// formatField draws the panel grid with one cell per tile. Each cell shows the
// team (R/B/.), the layout character of the state and the first occupant.
func formatField(field *battle.FieldSnapshot) string {
	if field == nil {
		return "No field available"
	}

	tiles := make(map[[2]int]battle.TileSnapshot, len(field.Tiles))
	for _, t := range field.Tiles {
		tiles[[2]int{t.X, t.Y}] = t
	}

	var result strings.Builder
	status := "paused"
	if field.BattleActive {
		status = "active"
	}
	fmt.Fprintf(&result, "Field %dx%d (battle %s)\n\n", field.Width, field.Height, status)

	result.WriteString("   ")
	for x := 1; x <= field.Width; x++ {
		fmt.Fprintf(&result, " %-6d", x)
	}
	result.WriteString("\n")

	for y := 1; y <= field.Height; y++ {
		fmt.Fprintf(&result, "%2d ", y)
		for x := 1; x <= field.Width; x++ {
			result.WriteString(" " + formatCell(tiles[[2]int{x, y}]))
		}
		result.WriteString("\n")
	}

	if len(field.Entities) > 0 {
		result.WriteString("\nEntities:\n")
		for _, e := range field.Entities {
			result.WriteString("  " + formatEntity(e) + "\n")
		}
	}

	if len(field.Moves) > 0 {
		result.WriteString("\nReserved moves:\n")
		for _, m := range field.Moves {
			fmt.Fprintf(&result, "  %d: (%d,%d) -> (%d,%d)\n", m.Entity, m.FromX, m.FromY, m.ToX, m.ToY)
		}
	}

	result.WriteString("\nLegend: R/B team, state char (N normal, C cracked, B broken, L lava ...), #id occupant, * reserved\n")
	return result.String()
}

func formatCell(tile battle.TileSnapshot) string {
	team := "."
	switch tile.Team {
	case battle.TeamRed:
		team = "R"
	case battle.TeamBlue:
		team = "B"
	}

	cell := team + string(battle.CharFromTileState(tile.State))
	if len(tile.Occupants) > 0 {
		cell += fmt.Sprintf("#%d", tile.Occupants[0])
	}
	if len(tile.Reserved) > 0 {
		cell += "*"
	}
	return fmt.Sprintf("%-6s", cell)
}

func formatEntity(e battle.EntitySnapshot) string {
	line := fmt.Sprintf("#%d %s %q team=%s at (%d,%d)", e.ID, e.Category, e.Name, e.Team, e.X, e.Y)
	if e.MaxHealth > 0 {
		line += fmt.Sprintf(" hp=%d/%d", e.Health, e.MaxHealth)
	}
	if e.Damage > 0 {
		line += fmt.Sprintf(" dmg=%d", e.Damage)
	}
	if e.Lifetime > 0 {
		line += fmt.Sprintf(" age=%.2f/%.2f", e.Age, e.Lifetime)
	}
	return line
}

func formatMoveResult(result *service.MoveResult) string {
	icon := "✅"
	if !result.Success {
		icon = "❌"
	}
	return fmt.Sprintf("%s Entity %d (%d,%d) -> (%d,%d): %s\n%s",
		icon, result.Entity, result.FromX, result.FromY, result.ToX, result.ToY, result.State, result.Message)
}

func formatStepResult(result *service.StepResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Stepped %d updates, battle time %.2fs\n", result.Steps, result.Elapsed)

	if len(result.Events) == 0 {
		b.WriteString("No events\n")
	} else {
		b.WriteString("\nEvents:\n")
		for _, e := range result.Events {
			fmt.Fprintf(&b, "  [%s] %s\n", e.Type, e.Message)
		}
	}

	if result.Mob != nil {
		fmt.Fprintf(&b, "\nMob: %s (%d remaining)\n", result.Mob.Name, result.Mob.Remaining)
	}
	if result.Finished {
		b.WriteString("\n🏆 Battle finished!\n")
	}

	b.WriteString("\n")
	b.WriteString(formatField(result.Field))
	return b.String()
}

func formatMapQuery(result *service.MapQueryResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s at (%.2f, %.2f) layer %d\n", result.Map, result.X, result.Y, result.Layer)
	if result.GID == 0 {
		b.WriteString("  tile: empty\n")
	} else {
		fmt.Fprintf(&b, "  tile: gid %d", result.GID)
		if result.TileType != "" {
			fmt.Fprintf(&b, " (%s)", result.TileType)
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "  elevation: %.2f\n", result.Elevation)
	fmt.Fprintf(&b, "  can move: %v\n", result.CanMove)
	fmt.Fprintf(&b, "  concealed: %v\n", result.Concealed)
	fmt.Fprintf(&b, "  shadowed: %v\n", result.Shadowed)
	fmt.Fprintf(&b, "  screen: (%.1f, %.1f)\n", result.ScreenX, result.ScreenY)
	return b.String()
}
