package model

// WaitingForKey is the reserved chat-state key holding the token of a pending
// free-text continuation. At most one may be pending per chat; setting a new one
// supersedes the previous token without deleting it.
const WaitingForKey = "_waiting_for"

// ChatState is the durable per-chat key-value record surviving across webhook calls.
type ChatState struct {
	ChatID int64          `json:"chat_id"`
	Data   map[string]any `json:"data"`
}

func NewChatState(chatID int64) *ChatState {
	return &ChatState{
		ChatID: chatID,
		Data:   map[string]any{},
	}
}

// WaitingFor returns the pending continuation token, or "" when none is set.
func (s *ChatState) WaitingFor() string {
	if s.Data == nil {
		return ""
	}
	token, _ := s.Data[WaitingForKey].(string)
	return token
}

// Clear resets the state data to empty. Called whenever a command starts or finishes.
func (s *ChatState) Clear() {
	s.Data = map[string]any{}
}
