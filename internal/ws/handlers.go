package ws

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/zaqqye/questionnaire_backend/internal/middleware"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// Allow all origins; rely on JWT auth.
		return true
	},
}

// ActivityHandler streams every answer event. Mount behind
// RequireRoles("admin"). ?carnet= narrows the feed to one student.
func ActivityHandler(hub *ActivityHub) gin.HandlerFunc {
	return func(c *gin.Context) {
		if hub == nil {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"success": false, "message": "realtime not available"})
			return
		}
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			return
		}
		client := newActivityClient(hub, conn, strings.TrimSpace(c.Query("carnet")))
		hub.register <- client

		go client.writePump()
		client.readPump()
	}
}

// StudentHandler streams the caller's own answer events.
func StudentHandler(hub *StudentHub) gin.HandlerFunc {
	return func(c *gin.Context) {
		if hub == nil {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"success": false, "message": "realtime not available"})
			return
		}
		id, ok := middleware.CurrentIdentity(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "unauthorized"})
			return
		}
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			return
		}
		client := newStudentClient(hub, conn, id.Carnet)
		hub.register <- client

		go writePump(conn, client.send)
		client.readPump()
	}
}
