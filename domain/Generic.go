package domain

import "encoding/json"

// Generic represents a Generic model.
//
// Every websocket frame carries exactly one Generic envelope. Data is decoded
// lazily by the handler registered for Event.
type Generic struct {
	Event *Event          `json:"event"`
	MsgId string          `json:"msgId,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// HasData reports whether the envelope carries a non-null payload.
func (g Generic) HasData() bool {
	return len(g.Data) > 0 && string(g.Data) != "null"
}
