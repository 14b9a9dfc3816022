package domain

import "errors"

var (
	// Common domain errors
	ErrMalformedUpdate = errors.New("update is neither a message nor a callback query")
	ErrTokenNotFound   = errors.New("callback token not found")
	ErrCommandNotFound = errors.New("command not found")
	ErrChatNotFound    = errors.New("chat not found")
	ErrDelivery        = errors.New("message delivery failed")
)
