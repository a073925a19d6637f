package mcp

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/hexcoop/hexcoop/client"
	"github.com/hexcoop/hexcoop/game/hexgrid"
	"github.com/hexcoop/hexcoop/game/messages"
)

const defaultJoinTimeout = 2 * time.Minute

// session is one live match seen through one player's client.
type session struct {
	id     string
	mu     sync.Mutex
	client *client.Client
	game   *client.Game
}

// Server bridges MCP tool calls to headless game clients. One Server can
// hold several sessions, so an agent may play both roles of a match.
type Server struct {
	serverURL string
	log       *zap.Logger
	mcpServer *server.MCPServer

	mu       sync.Mutex
	sessions map[string]*session
}

// NewServer builds an MCP server whose tools play games on the given
// WebSocket URL (ws://host:port/player_endpoint).
func NewServer(serverURL string, log *zap.Logger) *Server {
	s := &Server{
		serverURL: serverURL,
		log:       log.Named("mcp"),
		sessions:  make(map[string]*session),
	}
	s.initMCPServer()
	return s
}

func (s *Server) initMCPServer() {
	s.mcpServer = server.NewMCPServer(
		"Hexcoop Game",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Hexcoop - MCP Interface

A two-player cooperative game on a hex grid. A leader and a follower take
turns moving across the map to collect sets of three cards. A set scores when
its three cards differ in color, shape and count; any shared attribute voids
the selection (shown as a red outline).

ROLES:
- Leader: moves 5 steps per 60s turn, writes instructions for the follower,
  and may interrupt or send feedback during the follower's turn.
- Follower: moves 10 steps per 45s turn and works through the leader's
  instructions, marking each done.

TYPICAL FLOW:
1. join_game twice (once per role) or once to play alongside a human.
2. As leader: step around, send_instruction, end_turn.
3. As follower: wait_for_turn, read game_state instructions, step, then
   instruction_done and end_turn.

Cards toggle their selection when stepped on. Step onto three attribute-wise
distinct cards to score.`),
	)
	s.registerTools()
}

// MCPServer returns the underlying server for serving over stdio or HTTP.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

func (s *Server) registerTools() {
	sessionProp := map[string]interface{}{
		"type":        "string",
		"description": "Session ID returned by join_game",
	}

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "join_game",
		Description: "Connect to the game server, queue for a match and wait until it starts",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"queue": map[string]interface{}{
					"type":        "string",
					"enum":        []string{"any", "leader", "follower"},
					"description": "Which matchmaking queue to join (default any)",
				},
				"timeout_seconds": map[string]interface{}{
					"type":        "integer",
					"description": "How long to wait for a match (default 120)",
				},
			},
		},
	}, s.handleJoinGame)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "game_state",
		Description: "Get the current game state: turn, score, positions, cards and instructions",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{"session_id": sessionProp},
			Required:   []string{"session_id"},
		},
	}, s.handleGameState)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "step",
		Description: "Perform one action and wait until this player can act again",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProp,
				"action": map[string]interface{}{
					"type": "string",
					"enum": []string{
						"forward", "backward", "turn_left", "turn_right",
						"end_turn", "interrupt", "positive_feedback", "negative_feedback",
					},
					"description": "Action to perform",
				},
			},
			Required: []string{"session_id", "action"},
		},
	}, s.handleStep)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "bulk_step",
		Description: "Perform several movement actions in sequence",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProp,
				"actions": map[string]interface{}{
					"type": "array",
					"items": map[string]interface{}{
						"type": "string",
						"enum": []string{"forward", "backward", "turn_left", "turn_right", "end_turn"},
					},
					"description": "Actions to perform in order",
				},
			},
			Required: []string{"session_id", "actions"},
		},
	}, s.handleBulkStep)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "send_instruction",
		Description: "As leader, send a text instruction to the follower",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProp,
				"text": map[string]interface{}{
					"type":        "string",
					"description": "Instruction text for the follower",
				},
			},
			Required: []string{"session_id", "text"},
		},
	}, s.handleSendInstruction)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "instruction_done",
		Description: "As follower, mark an instruction complete. Without a UUID the oldest open instruction is used.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProp,
				"uuid": map[string]interface{}{
					"type":        "string",
					"description": "UUID of the instruction to complete (optional)",
				},
			},
			Required: []string{"session_id"},
		},
	}, s.handleInstructionDone)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "wait_for_turn",
		Description: "Block until it is this player's turn or the game ends",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{"session_id": sessionProp},
			Required:   []string{"session_id"},
		},
	}, s.handleWaitForTurn)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "leave_game",
		Description: "Disconnect from the match and discard the session",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{"session_id": sessionProp},
			Required:   []string{"session_id"},
		},
	}, s.handleLeaveGame)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "list_sessions",
		Description: "List all live game sessions",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, s.handleListSessions)
}

func (s *Server) lookup(args map[string]interface{}) (*session, error) {
	id, _ := args["session_id"].(string)
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("unknown session %q", id)
	}
	return sess, nil
}

// Tool handlers

func (s *Server) handleJoinGame(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, _ := request.Params.Arguments.(map[string]interface{})

	queue := client.QueueAny
	switch q, _ := args["queue"].(string); q {
	case "leader":
		queue = client.QueueLeaderOnly
	case "follower":
		queue = client.QueueFollowerOnly
	}
	timeout := defaultJoinTimeout
	if secs, ok := args["timeout_seconds"].(float64); ok && secs > 0 {
		timeout = time.Duration(secs) * time.Second
	}

	c := client.NewClient(s.serverURL, s.log)
	if err := c.Connect(); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	game, err := c.JoinGame(queue, timeout)
	if err != nil {
		c.Close()
		return mcp.NewToolResultError(err.Error()), nil
	}

	sess := &session{id: uuid.NewString()[:8], client: c, game: game}
	s.mu.Lock()
	s.sessions[sess.id] = sess
	s.mu.Unlock()
	s.log.Info("session joined", zap.String("session", sess.id), zap.String("role", game.Role().String()))

	result := fmt.Sprintf("Session: %s\nRole: %s\n\n%s", sess.id, game.Role(), formatGame(game))
	return mcp.NewToolResultText(result), nil
}

func (s *Server) handleGameState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, _ := request.Params.Arguments.(map[string]interface{})
	sess, err := s.lookup(args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return mcp.NewToolResultText(formatGame(sess.game)), nil
}

func (s *Server) handleStep(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, _ := request.Params.Arguments.(map[string]interface{})
	sess, err := s.lookup(args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	name, _ := args["action"].(string)
	code, ok := actionCodes[name]
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("unknown action %q", name)), nil
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if err := sess.game.Step(client.Action{Code: code}); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatGame(sess.game)), nil
}

func (s *Server) handleBulkStep(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, _ := request.Params.Arguments.(map[string]interface{})
	sess, err := s.lookup(args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	raw, _ := args["actions"].([]interface{})

	sess.mu.Lock()
	defer sess.mu.Unlock()
	executed := 0
	var stopped string
	for _, r := range raw {
		name, _ := r.(string)
		code, ok := actionCodes[name]
		if !ok {
			stopped = fmt.Sprintf("unknown action %q", name)
			break
		}
		if err := sess.game.Step(client.Action{Code: code}); err != nil {
			stopped = err.Error()
			break
		}
		executed++
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Executed %d/%d actions\n", executed, len(raw))
	if stopped != "" {
		fmt.Fprintf(&b, "Stopped: %s\n", stopped)
	}
	b.WriteString("\n")
	b.WriteString(formatGame(sess.game))
	return mcp.NewToolResultText(b.String()), nil
}

func (s *Server) handleSendInstruction(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, _ := request.Params.Arguments.(map[string]interface{})
	sess, err := s.lookup(args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	text, _ := args["text"].(string)
	if text == "" {
		return mcp.NewToolResultError("instruction text is required"), nil
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if err := sess.game.Step(client.Action{Code: client.ActionSendInstruction, Instruction: text}); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText("Instruction sent\n\n" + formatGame(sess.game)), nil
}

func (s *Server) handleInstructionDone(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, _ := request.Params.Arguments.(map[string]interface{})
	sess, err := s.lookup(args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	target, _ := args["uuid"].(string)

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if target == "" {
		for _, obj := range sess.game.Instructions() {
			if !obj.Completed && !obj.Cancelled {
				target = obj.UUID
				break
			}
		}
	}
	if target == "" {
		return mcp.NewToolResultError("no open instruction to complete"), nil
	}
	if err := sess.game.Step(client.Action{Code: client.ActionInstructionDone, InstructionUUID: target}); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText("Instruction completed\n\n" + formatGame(sess.game)), nil
}

func (s *Server) handleWaitForTurn(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, _ := request.Params.Arguments.(map[string]interface{})
	sess, err := s.lookup(args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if err := sess.game.WaitForTurn(); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatGame(sess.game)), nil
}

func (s *Server) handleLeaveGame(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, _ := request.Params.Arguments.(map[string]interface{})
	sess, err := s.lookup(args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	s.mu.Lock()
	delete(s.sessions, sess.id)
	s.mu.Unlock()
	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.client.Close()
	return mcp.NewToolResultText(fmt.Sprintf("Left session %s", sess.id)), nil
}

func (s *Server) handleListSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.mu.Lock()
	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	s.mu.Unlock()
	sort.Strings(ids)

	var b strings.Builder
	fmt.Fprintf(&b, "Live sessions (%d):\n", len(ids))
	for _, id := range ids {
		s.mu.Lock()
		sess := s.sessions[id]
		s.mu.Unlock()
		if sess == nil {
			continue
		}
		fmt.Fprintf(&b, "- %s (%s)\n", id, sess.game.Role())
	}
	return mcp.NewToolResultText(b.String()), nil
}

var actionCodes = map[string]client.ActionCode{
	"forward":           client.ActionForward,
	"backward":          client.ActionBackward,
	"turn_left":         client.ActionTurnLeft,
	"turn_right":        client.ActionTurnRight,
	"end_turn":          client.ActionEndTurn,
	"interrupt":         client.ActionInterrupt,
	"positive_feedback": client.ActionPositiveFeedback,
	"negative_feedback": client.ActionNegativeFeedback,
}

// Formatting helpers

var cardColorNames = map[messages.CardColor]string{
	messages.CardColorBlack:  "black",
	messages.CardColorBlue:   "blue",
	messages.CardColorGreen:  "green",
	messages.CardColorOrange: "orange",
	messages.CardColorPink:   "pink",
	messages.CardColorRed:    "red",
	messages.CardColorYellow: "yellow",
}

var cardShapeNames = map[messages.CardShape]string{
	messages.ShapePlus:     "plus",
	messages.ShapeTorus:    "torus",
	messages.ShapeHeart:    "heart",
	messages.ShapeDiamond:  "diamond",
	messages.ShapeSquare:   "square",
	messages.ShapeStar:     "star",
	messages.ShapeTriangle: "triangle",
}

// offsetOf converts a HECS coordinate to the (row, col) pair players see.
func offsetOf(h hexgrid.HecsCoord) (row, col int) {
	return 2*h.R + h.A, h.C
}

func formatGame(g *client.Game) string {
	var b strings.Builder

	ts := g.TurnState()
	if g.Over() {
		fmt.Fprintf(&b, "GAME OVER | Score: %d | Sets: %d\n", ts.Score, ts.SetsCollected)
	} else {
		fmt.Fprintf(&b, "Turn: %s | Moves left: %d | Turns left: %d | Score: %d | Sets: %d\n",
			ts.Turn, ts.MovesRemaining, ts.TurnsLeft, ts.Score, ts.SetsCollected)
	}

	loc, heading := g.Position()
	row, col := offsetOf(loc)
	fmt.Fprintf(&b, "You (%s): row %d col %d, heading %.0f°\n", g.Role(), row, col, heading)
	if partner, ok := g.PartnerPosition(); ok {
		prow, pcol := offsetOf(partner)
		fmt.Fprintf(&b, "Partner: row %d col %d\n", prow, pcol)
	}
	if m := g.Map(); m != nil {
		fmt.Fprintf(&b, "Map: %d rows x %d cols\n", m.Rows, m.Cols)
	}

	cards := cardsByDistance(g, loc)
	if len(cards) > 0 {
		b.WriteString("\nCards (nearest first):\n")
		for _, c := range cards {
			crow, ccol := offsetOf(c.prop.PropInfo.Location)
			sel := ""
			if c.prop.CardInit.Selected {
				sel = " [selected]"
			}
			fmt.Fprintf(&b, "- row %d col %d: %s %s x%d (dist %.1f)%s\n",
				crow, ccol,
				cardColorNames[c.prop.CardInit.Color],
				cardShapeNames[c.prop.CardInit.Shape],
				c.prop.CardInit.Count,
				c.dist, sel)
		}
	}

	if instructions := g.Instructions(); len(instructions) > 0 {
		b.WriteString("\nInstructions:\n")
		for _, obj := range instructions {
			status := "open"
			switch {
			case obj.Cancelled:
				status = "cancelled"
			case obj.Completed:
				status = "done"
			}
			fmt.Fprintf(&b, "- [%s] %s (uuid %s)\n", status, obj.Text, obj.UUID)
		}
	}

	return b.String()
}

type cardAt struct {
	prop messages.Prop
	dist float64
}

func cardsByDistance(g *client.Game, from hexgrid.HecsCoord) []cardAt {
	var cards []cardAt
	for _, p := range g.Props() {
		if p.PropType != messages.PropCard || p.CardInit == nil {
			continue
		}
		cards = append(cards, cardAt{prop: p, dist: from.DistanceTo(p.PropInfo.Location)})
	}
	sort.Slice(cards, func(i, j int) bool {
		if cards[i].dist != cards[j].dist {
			return cards[i].dist < cards[j].dist
		}
		return cards[i].prop.ID < cards[j].prop.ID
	})
	return cards
}
