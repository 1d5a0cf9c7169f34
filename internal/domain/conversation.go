package domain

// TranscriptTurn is one exchange in a conversation transcript. Depending on
// the gateway product variant the text arrives in either Message or
// OriginalMessage.
type TranscriptTurn struct {
	Role            string `json:"role"`
	Message         string `json:"message,omitempty"`
	OriginalMessage string `json:"original_message,omitempty"`
}

// Text returns the spoken text of the turn, preferring Message.
func (t TranscriptTurn) Text() string {
	if t.Message != "" {
		return t.Message
	}
	return t.OriginalMessage
}

// ConversationMetadata holds call-level metadata reported by the gateway.
type ConversationMetadata struct {
	StartTimeUnix     int64  `json:"start_time_unix_secs,omitempty"`
	CallDurationSecs  int    `json:"call_duration_secs,omitempty"`
	TerminationReason string `json:"termination_reason,omitempty"`
}

// Conversation is a single call's record, including its transcript.
type Conversation struct {
	ConversationID string               `json:"conversation_id"`
	AgentID        string               `json:"agent_id,omitempty"`
	Status         string               `json:"status,omitempty"`
	Transcript     []TranscriptTurn     `json:"transcript,omitempty"`
	Metadata       ConversationMetadata `json:"metadata,omitempty"`
}

// ConversationSummary is the listing shape returned by the gateway, without
// the transcript.
type ConversationSummary struct {
	ConversationID   string `json:"conversation_id"`
	AgentID          string `json:"agent_id,omitempty"`
	AgentName        string `json:"agent_name,omitempty"`
	Status           string `json:"status,omitempty"`
	StartTimeUnix    int64  `json:"start_time_unix_secs,omitempty"`
	CallDurationSecs int    `json:"call_duration_secs,omitempty"`
}

// ConversationList is a paginated listing of conversations.
type ConversationList struct {
	Conversations []ConversationSummary `json:"conversations"`
	Cursor        string                `json:"cursor,omitempty"`
	HasMore       bool                  `json:"has_more,omitempty"`
}
