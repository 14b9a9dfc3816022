package adapter

import "context"

// Button is one interactive option in an inline keyboard. Token is the opaque
// callback token activated when the button is pressed; raw application data
// never travels in the button payload.
type Button struct {
	Text  string
	Token string
}

// MessageSender is the outbound gateway to the bot messaging API.
type MessageSender interface {
	// Send delivers text to chatID. A non-zero messageID edits that message in
	// place instead of sending a new one. keyboard, when non-nil, renders a grid
	// of inline buttons. Failures surface as errors wrapping domain.ErrDelivery;
	// the gateway does not retry.
	Send(ctx context.Context, text string, chatID int64, keyboard [][]Button, messageID int) error
}
