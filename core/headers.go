package core

// These headers identify a client to the server
const (
	ClientNameHeader    = "X-Client-Name"
	ClientVersionHeader = "X-Client-Version"
)
