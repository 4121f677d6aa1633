package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/wricardo/mcp-training/labyrinth/game/board"
	"github.com/wricardo/mcp-training/labyrinth/game/engine"
	"github.com/wricardo/mcp-training/labyrinth/game/service"
)

const Version = "1.0.0"

// Client is a thin MCP server that proxies every tool call to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
	logger     *slog.Logger
}

// NewClient creates a new MCP client that calls the REST API at baseURL
func NewClient(baseURL string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: logger,
	}

	c.initMCPServer()
	return c
}

// initMCPServer initializes the MCP server with all tools
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Labyrinth",
		Version,
		server.WithToolCapabilities(true),
		server.WithInstructions(`Labyrinth - MCP Interface

This is a thin client that proxies all requests to the REST API server.

GAME OBJECTIVE:
Find every treasure on your cards, one at a time, then walk back to your start square.

EACH TURN:
1. insert_tile: slide the spare tile into the board from an edge (odd row or column), choosing its rotation.
2. move_player: walk your token along open paths, or stay where you are.

AVAILABLE TOOLS:
- create_session, list_sessions, get_session: session management
- game_state: render the board as a player sees it
- insert_tile, move_player: play a turn
- reachable: list where a token can walk right now
- reset_game, move_history, list_configs, game_instructions

Always pass the player you are playing as. You only see your own current card.`),
	)

	c.registerTools()
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	sessionID := mcp.WithString("session_id", mcp.Required(), mcp.Description("Session ID"))
	player := func(required bool, desc string) mcp.ToolOption {
		opts := []mcp.PropertyOption{
			mcp.Enum("player1", "player2", "player3", "player4"),
			mcp.Description(desc),
		}
		if required {
			opts = append(opts, mcp.Required())
		}
		return mcp.WithString("player", opts...)
	}
	coordinate := func(name, desc string) mcp.ToolOption {
		return mcp.WithNumber(name, mcp.Required(), mcp.Min(0), mcp.Max(board.Size-1), mcp.Description(desc))
	}
	intent := mcp.WithString("intent",
		mcp.Description("Brief explanation of the intent behind this command (serves as a rubber duck to help explain your reasoning)"))

	// Session management
	c.mcpServer.AddTool(mcp.NewTool("create_session",
		mcp.WithDescription("Create a new game session with optional preset selection"),
		mcp.WithString("config_id", mcp.Description("ID of the preset to use (optional, see list_configs)")),
	), c.handleCreateSession)

	c.mcpServer.AddTool(mcp.NewTool("list_sessions",
		mcp.WithDescription("List all active game sessions"),
	), c.handleListSessions)

	c.mcpServer.AddTool(mcp.NewTool("get_session",
		mcp.WithDescription("Get details of a specific session"),
		sessionID,
	), c.handleGetSession)

	// Game operations
	c.mcpServer.AddTool(mcp.NewTool("game_state",
		mcp.WithDescription("Render the board, the spare tile and every player's progress"),
		sessionID,
		player(false, "Player to view the game as; omit to watch as a spectator"),
	), c.handleGameState)

	c.mcpServer.AddTool(mcp.NewTool("insert_tile",
		mcp.WithDescription("Slide the spare tile into the board at an edge location with an odd row or column, pushing the tile at the far end out"),
		sessionID,
		player(true, "Player whose turn it is"),
		coordinate("col", "Column of the edge location (0-6)"),
		coordinate("row", "Row of the edge location (0-6)"),
		mcp.WithNumber("orientation", mcp.Description("Clockwise rotation of the spare tile in degrees: 0, 90, 180 or 270")),
		intent,
	), c.handleInsertTile)

	c.mcpServer.AddTool(mcp.NewTool("move_player",
		mcp.WithDescription("Walk your token to any location joined to it by open paths; use your own location to stay put"),
		sessionID,
		player(true, "Player whose turn it is"),
		coordinate("col", "Destination column (0-6)"),
		coordinate("row", "Destination row (0-6)"),
		intent,
	), c.handleMovePlayer)

	c.mcpServer.AddTool(mcp.NewTool("reachable",
		mcp.WithDescription("List every location a player's token can walk to on the current board"),
		sessionID,
		player(true, "Player whose token to check"),
	), c.handleReachable)

	c.mcpServer.AddTool(mcp.NewTool("reset_game",
		mcp.WithDescription("Deal a new board and new cards in the same session"),
		sessionID,
	), c.handleReset)

	c.mcpServer.AddTool(mcp.NewTool("move_history",
		mcp.WithDescription("Get the command history for a session, rejected commands included"),
		sessionID,
		mcp.WithNumber("page", mcp.Description("Page number")),
		mcp.WithNumber("limit", mcp.Description("Items per page")),
	), c.handleMoveHistory)

	c.mcpServer.AddTool(mcp.NewTool("list_configs",
		mcp.WithDescription("List available game presets"),
	), c.handleListConfigs)

	c.mcpServer.AddTool(mcp.NewTool("game_instructions",
		mcp.WithDescription("Get comprehensive game instructions and rules"),
	), c.handleGameInstructions)
}

// GetMCPServer returns the underlying MCP server for serving
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// Helper methods for API calls

func (c *Client) apiCall(ctx context.Context, method, path string, body any, result any) error {
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
		var errResp map[string]string
		json.NewDecoder(resp.Body).Decode(&errResp)
		if msg, ok := errResp["error"]; ok {
			return fmt.Errorf("%s", msg)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}
	return nil
}

func sessionPath(sessionID string, suffix string) string {
	return "/api/sessions/" + url.PathEscape(sessionID) + suffix
}

// location reads the col and row arguments
func location(request mcp.CallToolRequest) (board.Location, error) {
	col, err := request.RequireInt("col")
	if err != nil {
		return board.Location{}, err
	}
	row, err := request.RequireInt("row")
	if err != nil {
		return board.Location{}, err
	}
	return board.Location{Col: col, Row: row}, nil
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

	result := fmt.Sprintf("Created session: %s\nConfig: %s\n", session.ID, session.ConfigName)
	if session.GameConfig != nil {
		result += fmt.Sprintf("Players: %s\n", joinPlayers(session.GameConfig.Players))
	}
	if session.GameState != nil {
		result += engine.SummarizeState(session.GameState) + "\n"
	}
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleListSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Count    int                   `json:"count"`
		Sessions []service.SessionInfo `json:"sessions"`
	}
	if err := c.apiCall(ctx, "GET", "/api/sessions", nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Active Sessions (%d):\n\n", response.Count)
	for _, s := range response.Sessions {
		fmt.Fprintf(&b, "- %s (Config: %s, Created: %s)", s.ID, s.ConfigName, s.CreatedAt.Format("15:04:05"))
		if s.GameState != nil {
			fmt.Fprintf(&b, " %s", engine.SummarizeState(s.GameState))
		}
		b.WriteString("\n")
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleGetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var session service.SessionInfo
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, ""), nil, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatSessionInfo(&session)), nil
}

func (c *Client) handleGameState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	path := sessionPath(sessionID, "/state")
	if player := request.GetString("player", ""); player != "" {
		path += "?player=" + url.QueryEscape(player)
	}

	var state engine.GameState
	if err := c.apiCall(ctx, "GET", path, nil, &state); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatGameState(&state)), nil
}

func (c *Client) handleInsertTile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	player, err := request.RequireString("player")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	at, err := location(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	// The intent argument only helps the caller reason, nothing reads it

	body := map[string]any{
		"player":      player,
		"location":    at,
		"orientation": request.GetInt("orientation", 0),
	}

	var result service.ActionResult
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "/insert"), body, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatActionResult(&result)), nil
}

func (c *Client) handleMovePlayer(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	player, err := request.RequireString("player")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	to, err := location(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	body := map[string]any{
		"player": player,
		"to":     to,
	}

	var result service.ActionResult
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "/move"), body, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatActionResult(&result)), nil
}

func (c *Client) handleReachable(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	player, err := request.RequireString("player")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var result service.ReachableResult
	path := sessionPath(sessionID, "/reachable?player="+url.QueryEscape(player))
	if err := c.apiCall(ctx, "GET", path, nil, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatReachable(&result)), nil
}

func (c *Client) handleReset(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var response struct {
		Message string            `json:"message"`
		State   *engine.GameState `json:"state"`
	}
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "/reset"), nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("%s\n\n%s", response.Message, formatGameState(response.State))
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleMoveHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	params := url.Values{}
	if page := request.GetInt("page", 0); page > 0 {
		params.Set("page", fmt.Sprint(page))
	}
	if limit := request.GetInt("limit", 0); limit > 0 {
		params.Set("limit", fmt.Sprint(limit))
	}
	path := sessionPath(sessionID, "/history")
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	var history service.HistoryResponse
	if err := c.apiCall(ctx, "GET", path, nil, &history); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatHistory(&history)), nil
}

func (c *Client) handleListConfigs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var configs []service.ConfigInfo
	if err := c.apiCall(ctx, "GET", "/api/configs", nil, &configs); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	b.WriteString("Available Configurations:\n\n")
	for _, config := range configs {
		fmt.Fprintf(&b, "• %s (%s)\n  %s\n  Players: %s, starting with %s\n\n",
			config.ConfigID, config.Name, config.Description, joinPlayers(config.Players), config.StartingPlayer)
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleGameInstructions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(instructions), nil
}

const instructions = `Labyrinth - Complete Instructions

THE BOARD:
A 7x7 grid of square tiles, columns and rows numbered 0-6 from the top left.
Each tile has paths opening up, right, down and/or left. Two neighbouring
tiles are connected only when both open towards each other. Tiles in even
rows and even columns never move; the other rows and columns can be shifted.
One tile is always left over: the spare.

YOUR CARDS:
You are dealt treasure cards face down. You hunt one treasure at a time and
only you can see which one. Step onto its tile and the card is found; the
next one is turned over.

A TURN:
1. insert_tile - pick an edge location whose row or column is odd and a
   rotation (0, 90, 180, 270 degrees clockwise). The spare slides in there,
   the row or column shifts one step, and the tile at the far end falls out
   to become the next spare. Tokens on the tile that falls out come back in
   on the inserted tile. A rotation that would leave a path opening off the
   board edge is rejected.
2. move_player - walk your token to any tile joined to yours by open paths.
   Your own location is always allowed, so you can stay put.
Then the turn passes to the next player.

WINNING:
Find every treasure on your cards, then return to your start square (S).

READING game_state:
Each tile is drawn as 3x3 characters: '#' is wall, ' ' is path. The centre
shows a token (1-4, '+' for several), 'S' for a start square or '*' for a
treasure; the item legend lists which treasure sits where.

TIPS:
• Call reachable before moving to see every tile your token can walk to.
• Insertions move your rivals too; push them away from their treasure.
• Rejected commands are recorded in move_history with the reason.`

// Formatting helpers

func joinPlayers(players []board.Player) string {
	names := make([]string, len(players))
	for i, p := range players {
		names[i] = p.String()
	}
	return strings.Join(names, ", ")
}

func formatSessionInfo(session *service.SessionInfo) string {
	result := fmt.Sprintf("Session ID: %s\nConfig: %s\nCreated: %s\nLast Accessed: %s\n",
		session.ID, session.ConfigName,
		session.CreatedAt.Format(time.RFC3339),
		session.LastAccessedAt.Format(time.RFC3339))
	if session.GameState != nil {
		result += "\n" + formatGameState(session.GameState)
	}
	return result
}

func formatGameState(state *engine.GameState) string {
	if state == nil {
		return "Game state unavailable"
	}
	var b strings.Builder
	b.WriteString(engine.SummarizeState(state))
	b.WriteString("\n\n")
	b.WriteString(engine.RenderBoard(state))
	if state.Viewer != board.NoPlayer {
		if ps, ok := state.Players[state.Viewer]; ok && ps.Current != nil {
			fmt.Fprintf(&b, "\nYou are %s and you are looking for the %s.\n", state.Viewer, *ps.Current)
		}
	}
	return b.String()
}

func formatActionResult(result *service.ActionResult) string {
	var b strings.Builder
	status := "✓"
	if !result.Success {
		status = "✗"
	}
	fmt.Fprintf(&b, "%s %s\n", status, result.Message)
	for _, event := range result.Events {
		fmt.Fprintf(&b, "  [%s] %s\n", event.Type, event.Message)
	}
	if result.GameState != nil {
		b.WriteString("\n")
		b.WriteString(formatGameState(result.GameState))
	}
	return b.String()
}

func formatReachable(result *service.ReachableResult) string {
	cells := make([]string, len(result.Locations))
	for i, l := range result.Locations {
		cells[i] = l.String()
	}
	return fmt.Sprintf("%s stands at %s and can reach %d locations:\n%s\n",
		result.Player, result.From, len(result.Locations), strings.Join(cells, " "))
}

func formatHistory(history *service.HistoryResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Move History (Page %d/%d), Total: %d\n\n",
		history.Page, history.TotalPages, history.TotalMoves)

	for _, move := range history.Moves {
		status := "✓"
		if !move.Success {
			status = "✗"
		}
		fmt.Fprintf(&b, "%d. %s %s %s at %s", move.MoveNumber, status, move.Player, move.Action, move.Location)
		if move.Orientation != nil {
			fmt.Fprintf(&b, " rotated %s", *move.Orientation)
		}
		if move.ItemFound != nil {
			fmt.Fprintf(&b, ", found the %s", *move.ItemFound)
		}
		if move.Error != "" {
			fmt.Fprintf(&b, " (%s)", move.Error)
		}
		b.WriteString("\n")
	}
	return b.String()
}
