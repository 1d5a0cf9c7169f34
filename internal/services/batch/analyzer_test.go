package batch

import (
	"context"
	"errors"
	"testing"

	"github.com/ClareAI/astra-campaign-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyzeTranscriptOutcomes(t *testing.T) {
	cases := []struct {
		name       string
		conv       *domain.Conversation
		outcome    string
		confidence float64
	}{
		{
			name: "voicemail",
			conv: &domain.Conversation{
				Transcript: turns([2]string{"agent", "Hi, this is a message for John."}),
				Metadata:   domain.ConversationMetadata{TerminationReason: "voicemail"},
			},
			outcome:    "voicemail",
			confidence: 0.9,
		},
		{
			name:       "no answer",
			conv:       &domain.Conversation{},
			outcome:    "no_answer",
			confidence: 0.8,
		},
		{
			name: "interested",
			conv: &domain.Conversation{
				Transcript: turns(
					[2]string{"agent", "Would this help your team?"},
					[2]string{"user", "Yes, I am very interested, tell me more."},
				),
			},
			outcome:    "interested",
			confidence: 0.7,
		},
		{
			name: "not interested",
			conv: &domain.Conversation{
				Transcript: turns(
					[2]string{"agent", "Do you have a minute?"},
					[2]string{"user", "Please stop calling this number."},
				),
			},
			outcome:    "not_interested",
			confidence: 0.7,
		},
		{
			name: "callback requested",
			conv: &domain.Conversation{
				Transcript: turns(
					[2]string{"agent", "Is this a good time?"},
					[2]string{"user", "Please call back tomorrow."},
				),
			},
			outcome:    "callback_requested",
			confidence: 0.7,
		},
		{
			name: "completed default",
			conv: &domain.Conversation{
				Transcript: turns(
					[2]string{"agent", "Hello."},
					[2]string{"user", "Goodbye."},
				),
			},
			outcome:    "completed",
			confidence: 0.5,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			analysis := AnalyzeTranscript(tc.conv)
			assert.Equal(t, tc.outcome, analysis.Outcome)
			assert.Equal(t, tc.confidence, analysis.Confidence)
			assert.NotEmpty(t, analysis.SuggestedAction)
			assert.Equal(t, suggestedActions[tc.outcome], analysis.SuggestedAction)
		})
	}
}

func TestAnalyzeConversationFetches(t *testing.T) {
	gateway := &fakeGateway{
		conversations: map[string]*domain.Conversation{
			"conv_1": {
				ConversationID: "conv_1",
				Transcript: turns(
					[2]string{"agent", "Hello."},
					[2]string{"user", "Goodbye."},
				),
				Metadata: domain.ConversationMetadata{CallDurationSecs: 17},
			},
		},
	}
	poller := NewPoller(gateway, nil)

	analysis, err := poller.AnalyzeConversation(context.Background(), "conv_1")
	require.NoError(t, err)
	assert.Equal(t, "conv_1", analysis.ConversationID)
	assert.Equal(t, "completed", analysis.Outcome)
	assert.Equal(t, 17, analysis.DurationSeconds)
	assert.Equal(t, 2, analysis.TranscriptTurns)
}

func TestAnalyzeConversationFetchError(t *testing.T) {
	gateway := &fakeGateway{
		convErrs: map[string]error{"conv_1": errors.New("gateway down")},
	}
	poller := NewPoller(gateway, nil)

	_, err := poller.AnalyzeConversation(context.Background(), "conv_1")
	assert.ErrorContains(t, err, "conv_1")
}
