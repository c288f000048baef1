package controller

import (
	"GreenSnapAPI/internal/helper"
	"GreenSnapAPI/internal/middleware"
	"GreenSnapAPI/internal/service"
	"GreenSnapAPI/internal/websocket"
	"log/slog"
	"net/http"

	ws "github.com/gorilla/websocket"
)

type WebSocketController struct {
	hub   *websocket.Hub
	authz service.SupervisorAuthorizer
}

func NewWebSocketController(hub *websocket.Hub, authz service.SupervisorAuthorizer) *WebSocketController {
	return &WebSocketController{
		hub:   hub,
		authz: authz,
	}
}

var upgrader = ws.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// ServeWS godoc
// @Summary      WebSocket Connection
// @Description  Upgrade to a websocket carrying report events. Supervisors receive report.created and report.resolved; owners receive report.resolved for their own reports.
// @Tags         websocket
// @Param        token  query  string  true  "Bearer token"
// @Success      101  {string}  string  "Switching Protocols"
// @Failure      401  {object}  helper.ResponseError
// @Router       /ws [get]
func (c *WebSocketController) ServeWS(w http.ResponseWriter, r *http.Request) {
	userContext, ok := middleware.UserFromContext(r.Context())
	if !ok {
		helper.WriteError(w, helper.NewUnauthorizedError(""))
		return
	}

	isSupervisor, err := c.authz.IsSupervisor(r.Context(), userContext.ID)
	if err != nil {
		slog.Error("Failed to resolve websocket role", "error", err, "userID", userContext.ID)
		helper.WriteError(w, helper.NewPersistenceError(""))
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("Failed to upgrade websocket", "error", err)
		return
	}

	client := &websocket.Client{
		Hub:          c.hub,
		Conn:         conn,
		Send:         make(chan []byte, 256),
		UserID:       userContext.ID,
		IsSupervisor: isSupervisor,
	}

	client.Hub.Register <- client

	go client.WritePump()
	go client.ReadPump()
}
