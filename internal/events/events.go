package events

import (
	"encoding/json"
	"time"
)

// Event types the scanner publishes.
const (
	TypeScanStarted        = "scan_started"
	TypeScanFinished       = "scan_finished"
	TypeEmailProcessed     = "email_processed"
	TypeApplicationCreated = "application_created"
	TypeApplicationUpdated = "application_updated"
)

type Event struct {
	Type string          `json:"type"`
	At   time.Time       `json:"at"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Make serializes an event envelope for the hub.
func Make(typ string, data any) string {
	var raw json.RawMessage
	if data != nil {
		b, _ := json.Marshal(data)
		raw = b
	}
	b, _ := json.Marshal(Event{Type: typ, At: time.Now().UTC(), Data: raw})
	return string(b)
}
