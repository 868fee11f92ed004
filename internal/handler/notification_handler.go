package handler

import (
	"lamdam-be/internal/entity"
	"lamdam-be/internal/pkg/apperror"
	"lamdam-be/internal/pkg/logger"
	"lamdam-be/internal/pkg/serverutils"
	"lamdam-be/internal/repository/specification"
	internalWS "lamdam-be/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

// NotificationHandler upgrades authenticated clients to the realtime feed.
type NotificationHandler struct {
	hub       *internalWS.Hub
	sessions  serverutils.SessionLoader
	jwtSecret string
	logger    logger.ILogger
}

func NewNotificationHandler(hub *internalWS.Hub, sessions serverutils.SessionLoader, jwtSecret string, log logger.ILogger) *NotificationHandler {
	return &NotificationHandler{
		hub:       hub,
		sessions:  sessions,
		jwtSecret: jwtSecret,
		logger:    log,
	}
}

// ServeWs handles websocket requests from the peer. Browsers cannot set
// headers on a websocket handshake, so the token is read from the query first.
func (h *NotificationHandler) ServeWs(c *fiber.Ctx) error {
	tokenStr := c.Query("token")
	if tokenStr == "" {
		tokenStr = serverutils.BearerToken(c)
	}
	if tokenStr == "" {
		return apperror.Unauthorized("Missing token (Query 'token' or Header 'Authorization')")
	}

	userID, _, err := serverutils.ParseToken(tokenStr, h.jwtSecret)
	if err != nil {
		h.logger.Warn("REALTIME", "Invalid token in handshake", map[string]interface{}{"ip": c.IP()})
		return err
	}

	session, err := h.sessions.LoadSession(c.UserContext(), userID)
	if err != nil {
		if apperror.Is(err, apperror.KindNotFound) {
			return apperror.Unauthorized("Unknown user")
		}
		return err
	}
	id, err := uuid.Parse(session.UserID)
	if err != nil {
		return apperror.Unauthorized("Invalid user ID format in token")
	}
	viewer := specification.Viewer{ID: id, Role: entity.UserRole(session.Role)}

	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}
	return websocket.New(func(conn *websocket.Conn) {
		h.logger.Info("REALTIME", "Starting WebSocket session", map[string]interface{}{"user_id": viewer.ID, "role": viewer.Role})
		internalWS.ServeWs(h.hub, conn, viewer)
		h.logger.Info("REALTIME", "WebSocket session ended", map[string]interface{}{"user_id": viewer.ID})
	})(c)
}

// RegisterRoutes registers the realtime route.
func (h *NotificationHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/ws", h.ServeWs)
}
