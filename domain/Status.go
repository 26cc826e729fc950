package domain

const StatusConnected = "connected"

// ConnectionStatus is the payload of the connection_status event.
type ConnectionStatus struct {
	Status string `json:"status"`
	Sid    string `json:"sid"`
}

// ErrorMessage is the payload of the error event.
type ErrorMessage struct {
	Event   string `json:"event"`
	Message string `json:"message"`
}
