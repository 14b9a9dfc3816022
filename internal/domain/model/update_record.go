package model

import "time"

// UpdateRecord is one durable trace of an inbound webhook update.
// Processing failures are stored alongside the raw payload so operators can
// diagnose a command after the webhook already acknowledged the platform.
type UpdateRecord struct {
	ID        string
	ChatID    int64
	Payload   []byte
	Error     string
	CreatedAt time.Time
}
