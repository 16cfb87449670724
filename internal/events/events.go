// Package events fans run notifications out to server-sent-event clients.
package events

import (
	"encoding/json"
	"fmt"
	"time"
)

// Event types.
const (
	TypePing         = "ping"
	TypeRunStarted   = "run_started"
	TypeRunFinished  = "run_finished"
	TypeProfileSaved = "profile_saved"
)

const schemaVersion = 1

type Event struct {
	Type      string          `json:"type"`
	Version   int             `json:"v"`
	At        time.Time       `json:"at"`
	RequestID string          `json:"request_id,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// New wraps data, which must marshal to JSON, in an envelope stamped at.
func New(reqID, typ string, data any, at time.Time) (Event, error) {
	e := Event{Type: typ, Version: schemaVersion, At: at.UTC(), RequestID: reqID}
	if data == nil {
		return e, nil
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return Event{}, fmt.Errorf("encode %s payload: %w", typ, err)
	}
	e.Data = raw
	return e, nil
}

// Frame renders e as one server-sent-events message.
func (e Event) Frame() string {
	b, _ := json.Marshal(e)
	return fmt.Sprintf("event: %s\ndata: %s\n\n", e.Type, b)
}
