package websocket

import (
	"encoding/json"
	"strings"

	"disasterguardian/models"
)

// Client frame types
const (
	RequestPing = "ping"
)

// Error codes sent in error frames
const (
	ErrorInvalidMessage = "INVALID_MESSAGE"
	ErrorUnknownType    = "UNKNOWN_TYPE"
)

type pongData struct {
	RequestID string `json:"requestId,omitempty"`
}

// handleRequest answers a frame sent by the client. The channel is
// push-only apart from keepalive pings.
func (c *Client) handleRequest(raw []byte) {
	var req models.WSRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		// bare "ping" text frames are accepted too
		if strings.TrimSpace(string(raw)) == RequestPing {
			c.enqueue(newFrame(models.EventPong, pongData{}))
			return
		}
		c.enqueue(createErrorResponse(ErrorInvalidMessage, "Invalid message format"))
		return
	}

	switch req.Type {
	case RequestPing:
		c.enqueue(newFrame(models.EventPong, pongData{RequestID: req.RequestID}))
	default:
		c.enqueue(createErrorResponse(ErrorUnknownType, "Unknown message type"))
	}
}
