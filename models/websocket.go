// models/websocket.go
package models

import (
	"time"
)

// Event names pushed over the real-time channel.
const (
	EventNewIncident           = "new-incident"
	EventIncidentUpdated       = "incident-updated"
	EventVolunteerNotification = "volunteer_notification"
	EventConnected             = "connected"
	EventPong                  = "pong"
	EventError                 = "error"
)

// WSMessage is the frame written to clients.
type WSMessage struct {
	Event     string      `json:"event"`
	Data      interface{} `json:"data"`
	Timestamp time.Time   `json:"timestamp"`
}

// WSRequest is a frame sent by clients. Only ping is understood.
type WSRequest struct {
	Type      string `json:"type"`
	RequestID string `json:"requestId,omitempty"`
}

type WSConnected struct {
	ConnectionID        string `json:"connectionId"`
	UserID              string `json:"userId"`
	Role                Role   `json:"role"`
	PollIntervalSeconds int    `json:"pollIntervalSeconds"`
}

type WSError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// IncidentEvent is the payload of new-incident and incident-updated.
type IncidentEvent struct {
	Incident *Incident `json:"incident"`
	Action   string    `json:"action,omitempty"`
	ActorID  string    `json:"actorId,omitempty"`
}

// VolunteerNotification is the payload of volunteer_notification.
type VolunteerNotification struct {
	VolunteerIDs   []string  `json:"volunteerIds"`
	IncidentID     string    `json:"incidentId"`
	Message        string    `json:"message"`
	SafetyCautions string    `json:"safetyCautions"`
	RouteInfo      RouteInfo `json:"routeInfo"`
	SentBy         string    `json:"sentBy"`
	SentAt         time.Time `json:"sentAt"`
}

type HubStats struct {
	ActiveConnections int            `json:"activeConnections"`
	ConnectedUsers    int            `json:"connectedUsers"`
	ByRole            map[Role]int   `json:"byRole"`
	MessagesSent      int64          `json:"messagesSent"`
	MessagesDropped   int64          `json:"messagesDropped"`
	EventsRouted      map[string]int `json:"eventsRouted"`
	StartedAt         time.Time      `json:"startedAt"`
}
