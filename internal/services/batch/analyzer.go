package batch

import (
	"context"
	"fmt"
	"strings"

	"github.com/ClareAI/astra-campaign-service/internal/domain"
)

// OutcomeAnalysis classifies how a call ended, for routing follow-up
// automation.
type OutcomeAnalysis struct {
	ConversationID  string  `json:"conversation_id"`
	Outcome         string  `json:"outcome"`
	Confidence      float64 `json:"confidence"`
	DurationSeconds int     `json:"duration_seconds,omitempty"`
	TranscriptTurns int     `json:"transcript_turns"`
	SuggestedAction string  `json:"suggested_action"`
}

var (
	interestedWords    = []string{"yes", "interested", "tell me more", "sounds good", "i want"}
	notInterestedWords = []string{"no", "not interested", "don't call", "stop"}
	callbackWords      = []string{"call back", "later", "busy", "another time"}
)

var suggestedActions = map[string]string{
	"interested":         "send_followup_email, schedule_meeting",
	"not_interested":     "update_crm_status, add_to_dnc_list",
	"callback_requested": "schedule_callback, send_reminder",
	"voicemail":          "send_sms, schedule_retry",
	"no_answer":          "schedule_retry, send_sms",
	"completed":          "update_crm_status",
	"unknown":            "manual_review",
}

// AnalyzeConversation fetches a conversation and classifies its outcome by
// keyword matching over the transcript.
func (p *Poller) AnalyzeConversation(ctx context.Context, conversationID string) (*OutcomeAnalysis, error) {
	conv, err := p.gateway.GetConversation(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("fetching conversation %s: %w", conversationID, err)
	}
	return AnalyzeTranscript(conv), nil
}

// AnalyzeTranscript classifies an already-fetched conversation.
func AnalyzeTranscript(conv *domain.Conversation) *OutcomeAnalysis {
	var parts []string
	for _, turn := range conv.Transcript {
		parts = append(parts, strings.ToLower(turn.Text()))
	}
	text := strings.Join(parts, " ")

	outcome, confidence := "completed", 0.5
	switch {
	case len(conv.Transcript) < 2:
		if conv.Metadata.TerminationReason == "voicemail" {
			outcome, confidence = "voicemail", 0.9
		} else {
			outcome, confidence = "no_answer", 0.8
		}
	case containsAny(text, interestedWords):
		outcome, confidence = "interested", 0.7
	case containsAny(text, notInterestedWords):
		outcome, confidence = "not_interested", 0.7
	case containsAny(text, callbackWords):
		outcome, confidence = "callback_requested", 0.7
	}

	return &OutcomeAnalysis{
		ConversationID:  conv.ConversationID,
		Outcome:         outcome,
		Confidence:      confidence,
		DurationSeconds: conv.Metadata.CallDurationSecs,
		TranscriptTurns: len(conv.Transcript),
		SuggestedAction: suggestedActions[outcome],
	}
}

func containsAny(text string, words []string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}
