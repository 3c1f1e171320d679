package handlers

import (
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	authsvc "github.com/luckyyyj77-wq/pho-ma-sub000/internal/services/auth"
	"github.com/luckyyyj77-wq/pho-ma-sub000/internal/transport/ws"
)

// WSHandler upgrades the notification stream. Browsers cannot set an
// Authorization header on a websocket dial, so the token also rides in
// the ?token query parameter.
type WSHandler struct {
	auth *authsvc.Service
	hub  *ws.Hub
	log  *zap.Logger

	upgrader websocket.Upgrader
}

func NewWSHandler(auth *authsvc.Service, hub *ws.Hub, log *zap.Logger) *WSHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &WSHandler{
		auth: auth,
		hub:  hub,
		log:  log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

func (h *WSHandler) Serve(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		if parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2); len(parts) == 2 {
			token = parts[1]
		}
	}

	claims, err := h.auth.ValidateAccessToken(r.Context(), token)
	if err != nil {
		writeUnauthorized(w, "invalid access token")
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Debug("websocket upgrade failed", zap.Error(err))
		return
	}

	h.hub.Add(claims.UserID, conn)
	defer func() {
		h.hub.Remove(claims.UserID, conn)
		_ = conn.Close()
	}()

	// The stream is push-only. The read loop exists to notice the close
	// frame and to drop clients that send garbage.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
