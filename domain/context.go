package domain

type contextKey string

const (
	ContextKeySessionIdentifier contextKey = "sessionIdentifier"
	ContextKeyMsgId             contextKey = "msgId"
)
