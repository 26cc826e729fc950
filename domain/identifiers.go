package domain

import (
	"strings"
	"time"
)

// SessionIdentifier identifies one websocket connection on the server.
type SessionIdentifier struct {
	SessionId      string
	RemoteAddr     string
	ClientName     string
	ClientVersion  string
	ConnectionTime time.Time
}

func (s SessionIdentifier) String() string {
	return strings.Join([]string{s.ClientName, s.RemoteAddr, s.SessionId}, "/")
}
