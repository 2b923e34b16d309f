package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/unogo/unogo/internal/client"
	"github.com/unogo/unogo/internal/middleware"
	"github.com/unogo/unogo/internal/models"
	"github.com/unogo/unogo/internal/statestore"
	"github.com/unogo/unogo/internal/uno"
)

// GameMessage is one incoming WebSocket action from a browser.
type GameMessage struct {
	Type string `json:"type"`

	// CardID names the hand card for action_play.
	CardID string `json:"card_id,omitempty"`

	// Color is the chosen color when playing a wild.
	Color models.CardColor `json:"color,omitempty"`

	// Target is the seat accused by action_catch_uno.
	Target int `json:"target,omitempty"`
}

// stateMessage is the push sent to the browser after every record change.
type stateMessage struct {
	Type    string        `json:"type"`
	Seat    int           `json:"seat"`
	Version int64         `json:"version"`
	State   uno.GameState `json:"state"`
}

// GameWSHandler upgrades the HTTP connection to WebSocket for one seat of one
// game. The connection is that browser's client in the sync protocol: every
// accepted write anywhere pushes a fresh full state down, and every action the
// browser sends resolves against the mirror and writes back optimistically.
func GameWSHandler(logger *logrus.Logger, gs *GameServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// URL path: /game/ws/{game_id}
		pathParts := strings.Split(strings.TrimPrefix(r.URL.Path, "/game/ws/"), "/")
		if len(pathParts) < 1 || pathParts[0] == "" {
			http.Error(w, "Missing game_id in path (/game/ws/{game_id})", http.StatusBadRequest)
			return
		}
		gameID, err := uuid.Parse(pathParts[0])
		if err != nil {
			http.Error(w, "Invalid game_id format", http.StatusBadRequest)
			return
		}

		snap, err := gs.Store.Load(r.Context(), gameID)
		if err != nil {
			http.Error(w, "Game not found", http.StatusNotFound)
			return
		}

		// Authenticate before the upgrade; a guest cookie can only be set while
		// this is still a plain HTTP response.
		userID, err := EnsureEphemeralUser(w, r)
		if err != nil {
			logger.Warnf("User authentication failed for game %s: %v", gameID, err)
			http.Error(w, "authentication failed", http.StatusForbidden)
			return
		}

		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			Subprotocols:   []string{"game"},
			OriginPatterns: []string{"*"}, // Adjust for production security.
		})
		if err != nil {
			logger.Warnf("WebSocket accept error for game %s: %v", gameID, err)
			return
		}
		defer c.Close(websocket.StatusInternalError, "Internal server error during handler exit.")

		if c.Subprotocol() != "game" {
			c.Close(websocket.StatusPolicyViolation, "Client must use the 'game' subprotocol.")
			return
		}

		seatIndex := -1
		for _, s := range snap.Seats {
			if s.UserID == userID.String() {
				seatIndex = s.Seat
				break
			}
		}
		if seatIndex < 0 {
			logger.Warnf("User %s is not seated in game %s", userID, gameID)
			c.Close(websocket.StatusPolicyViolation, "You are not a player in this game.")
			return
		}

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		seat, err := client.Open(ctx, gs.Store, gameID, seatIndex, gs.newRng())
		if err != nil {
			logger.Warnf("Failed to open seat %d of game %s: %v", seatIndex, gameID, err)
			c.Close(websocket.StatusInternalError, "Failed to open seat.")
			return
		}
		middleware.LogWebSocketConnect(logger, r.RemoteAddr, r.URL.Path)
		logger.Infof("User %s connected to game %s at seat %d", userID, gameID, seatIndex)

		// Push every state change to the browser, starting with the current one.
		go func() {
			err := seat.Listen(ctx, func(st uno.GameState) {
				sendWsMessage(ctx, c, logger, stateMessage{
					Type:    "state",
					Seat:    seatIndex,
					Version: seat.Version(),
					State:   st,
				})
			})
			if err != nil && ctx.Err() == nil {
				logger.Warnf("Push loop for seat %d of game %s exited: %v", seatIndex, gameID, err)
				cancel()
			}
		}()

		readGameMessages(ctx, c, seat, logger)
		middleware.LogWebSocketDisconnect(logger, r.RemoteAddr, r.URL.Path, ctx.Err())
		c.Close(websocket.StatusNormalClosure, "bye")
	}
}

// readGameMessages is the per-connection read loop. Each action resolves via
// the seat client; rule rejections and lost write races go back to the
// browser as error messages while the connection stays up.
func readGameMessages(ctx context.Context, c *websocket.Conn, seat *client.Seat, logger *logrus.Logger) {
	for {
		msgType, data, err := c.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
				logger.Infof("WebSocket closed normally for seat %d of game %s", seat.Index(), seat.GameID())
			} else if ctx.Err() == nil {
				logger.Warnf("WebSocket read error for seat %d of game %s: %v", seat.Index(), seat.GameID(), err)
			}
			return
		}
		if msgType != websocket.MessageText {
			continue
		}

		var msg GameMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			sendWsError(ctx, c, logger, "Invalid JSON format.")
			continue
		}
		logger.Debugf("Received action '%s' for seat %d of game %s", msg.Type, seat.Index(), seat.GameID())

		switch msg.Type {
		case "action_play":
			err = seat.PlayCard(ctx, msg.CardID, msg.Color)
		case "action_draw":
			err = seat.Draw(ctx)
		case "action_declare_uno":
			err = seat.DeclareUno(ctx)
		case "action_catch_uno":
			err = seat.CatchUno(ctx, msg.Target)
		case "ping":
			sendWsMessage(ctx, c, logger, map[string]string{"type": "pong"})
			continue
		default:
			sendWsError(ctx, c, logger, fmt.Sprintf("Unknown action type: %s", msg.Type))
			continue
		}

		switch {
		case err == nil:
			// The accepted write notifies every subscriber, this seat included.
		case errors.Is(err, statestore.ErrStaleWrite):
			// Mirror already refreshed; the browser re-decides on the fresh state.
			sendWsError(ctx, c, logger, "State changed under you, try again.")
		default:
			sendWsError(ctx, c, logger, err.Error())
		}
	}
}

// sendWsMessage marshals a message and writes it with a timeout.
func sendWsMessage(ctx context.Context, c *websocket.Conn, logger *logrus.Logger, message interface{}) {
	msgBytes, err := json.Marshal(message)
	if err != nil {
		logger.Errorf("Failed to marshal WebSocket message: %v", err)
		return
	}
	writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := c.Write(writeCtx, websocket.MessageText, msgBytes); err != nil {
		status := websocket.CloseStatus(err)
		if status != websocket.StatusNormalClosure && status != websocket.StatusGoingAway && ctx.Err() == nil {
			logger.Warnf("Failed to write WebSocket message: %v", err)
		}
	}
}

// sendWsError sends a structured error message to the client.
func sendWsError(ctx context.Context, c *websocket.Conn, logger *logrus.Logger, errorMsg string) {
	sendWsMessage(ctx, c, logger, map[string]interface{}{
		"type":    "error",
		"message": errorMsg,
	})
}
