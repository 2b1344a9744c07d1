package handler

import (
	"net/http"

	"notes-api/internal/middleware"
	"notes-api/internal/websocket"
	"notes-api/pkg/logger"
	"notes-api/pkg/response"

	"github.com/google/uuid"
	ws "github.com/gorilla/websocket"
)

type WebSocketHandler struct {
	manager  *websocket.Manager
	verifier middleware.TokenVerifier
	upgrader ws.Upgrader
}

func NewWebSocketHandler(manager *websocket.Manager, verifier middleware.TokenVerifier, readBuffer, writeBuffer int, checkOrigin func(r *http.Request) bool) *WebSocketHandler {
	return &WebSocketHandler{
		manager:  manager,
		verifier: verifier,
		upgrader: ws.Upgrader{
			ReadBufferSize:  readBuffer,
			WriteBufferSize: writeBuffer,
			CheckOrigin:     checkOrigin,
		},
	}
}

// HandleConnection upgrades an authenticated request. Browsers cannot set
// headers on a websocket handshake, so the token may also come as ?token=.
func (h *WebSocketHandler) HandleConnection(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r)
	if userID == "" {
		if token := r.URL.Query().Get("token"); token != "" {
			userID, _ = middleware.Authenticate(r.Context(), h.verifier, token)
		}
	}

	if userID == "" {
		response.Unauthorized(w, "Unauthorized")
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Log.Warn().Err(err).Str("user_id", userID).Msg("websocket upgrade failed")
		return
	}

	client := websocket.NewClient(uuid.New().String(), userID, conn, h.manager)
	h.manager.Register(client)

	go client.WritePump()
	go client.ReadPump()
}

// WebSocketMessageHandler answers client pings. Note events only flow from
// the server.
type WebSocketMessageHandler struct{}

func NewWebSocketMessageHandler() *WebSocketMessageHandler {
	return &WebSocketMessageHandler{}
}

func (h *WebSocketMessageHandler) HandleWebSocketMessage(client *websocket.Client, msg *websocket.Message) error {
	switch msg.Type {
	case websocket.TypePing:
		pong, err := websocket.NewMessage(websocket.TypePong, nil)
		if err != nil {
			return err
		}
		return client.Manager.Send(client, pong)

	default:
		reply, err := websocket.NewMessage(websocket.TypeError, &websocket.ErrorPayload{
			Message: "unsupported message type: " + string(msg.Type),
		})
		if err != nil {
			return err
		}
		return client.Manager.Send(client, reply)
	}
}
