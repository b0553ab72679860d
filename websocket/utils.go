package websocket

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"disasterguardian/models"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// NewUpgrader accepts browser origins from the CORS allow list. Requests
// without an Origin header (native clients) are always accepted; "*"
// accepts everything.
func NewUpgrader(allowedOrigins []string) *websocket.Upgrader {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[strings.TrimRight(o, "/")] = true
	}

	return &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" || allowed["*"] {
				return true
			}
			if allowed[strings.TrimRight(origin, "/")] {
				return true
			}
			// same host as the API
			u, err := url.Parse(origin)
			return err == nil && strings.EqualFold(u.Host, r.Host)
		},
	}
}

func newFrame(event string, data interface{}) models.WSMessage {
	return models.WSMessage{
		Event:     event,
		Data:      data,
		Timestamp: time.Now().UTC(),
	}
}

func createErrorResponse(code, message string) models.WSMessage {
	return newFrame(models.EventError, models.WSError{Code: code, Message: message})
}

func logWebSocketError(client *Client, operation string, err error) {
	logrus.WithError(err).WithFields(logrus.Fields{
		"connection_id": client.connectionID,
		"user_id":       client.userID,
		"operation":     operation,
	}).Warn("WebSocket error")
}
