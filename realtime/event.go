package realtime

import (
	"encoding/json"
	"time"
)

// Event types
const (
	EventSessionCreated = "session.created"
)

// Event is the envelope sent to SSE and WebSocket clients
type Event struct {
	Type    string      `json:"event"`
	Payload interface{} `json:"payload"`
}

// SessionCreated summarizes a newly stored analysis session
type SessionCreated struct {
	SessionID       string    `json:"session_id"`
	Ticker          string    `json:"ticker"`
	Period          string    `json:"period"`
	Interval        string    `json:"interval"`
	UserLevel       string    `json:"user_level"`
	PeriodReturnPct float64   `json:"period_return_pct"`
	RiskLevel       string    `json:"risk_level"`
	CreatedAt       time.Time `json:"created_at"`
}

// Encode marshals the event envelope
func (e Event) Encode() ([]byte, error) {
	return json.Marshal(e)
}
