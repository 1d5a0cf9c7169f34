package batch

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/ClareAI/astra-campaign-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func turns(pairs ...[2]string) []domain.TranscriptTurn {
	out := make([]domain.TranscriptTurn, 0, len(pairs))
	for _, p := range pairs {
		out = append(out, domain.TranscriptTurn{Role: p[0], Message: p[1]})
	}
	return out
}

func TestRuleExtractionFullAppointment(t *testing.T) {
	transcript := turns(
		[2]string{"agent", "Hello, would you like to book an appointment?"},
		[2]string{"user", "Yes, book me for the 2nd of february 2027 at 3:30 pm"},
		[2]string{"agent", "What is the purpose of your visit?"},
		[2]string{"user", "It's about my insurance policy"},
		[2]string{"agent", "Great, your appointment is confirmed."},
	)

	extractor := NewExtractor("", "")
	extraction := extractor.ExtractWithRules("conv_1", transcript)

	assert.Equal(t, "conv_1", extraction.ConversationID)
	assert.Equal(t, "appointment", extraction.ExtractionType)
	assert.Equal(t, "rules", extraction.Method)
	assert.Equal(t, 5, extraction.TranscriptTurns)

	data := extraction.ExtractedData
	assert.Equal(t, true, data["wants_appointment"])
	assert.Equal(t, "2027-02-02", data["appointment_date"])
	assert.Equal(t, "15:30", data["appointment_time"])
	assert.Equal(t, "It's about my insurance policy", data["purpose"])
	assert.Equal(t, true, data["appointment_confirmed"])
	assert.Equal(t, 0.6, data["confidence"])
}

func TestRuleExtractionNoIntent(t *testing.T) {
	transcript := turns(
		[2]string{"agent", "Hello there."},
		[2]string{"user", "Wrong number, goodbye."},
	)

	extraction := NewExtractor("", "").ExtractWithRules("conv_1", transcript)

	data := extraction.ExtractedData
	assert.Equal(t, false, data["wants_appointment"])
	assert.Nil(t, data["appointment_date"])
	assert.Nil(t, data["appointment_time"])
	assert.Equal(t, false, data["appointment_confirmed"])
	assert.Equal(t, 0.4, data["confidence"])
}

func TestExtractDateVariants(t *testing.T) {
	year := time.Now().Year()
	cases := []struct {
		text string
		want string
	}{
		{"see you on the 2nd of february 2027", "2027-02-02"},
		{"how about 14 march", fmt.Sprintf("%d-03-14", year)},
		{"february 14th, 2027 works", "2027-02-14"},
		{"december 1 is fine", fmt.Sprintf("%d-12-01", year)},
		// A day-first match against a non-month word must not mask a real
		// month-first date later in the text.
		{"14 people came, february 2 works", fmt.Sprintf("%d-02-02", year)},
		{"no date mentioned here", ""},
	}

	for _, tc := range cases {
		t.Run(tc.text, func(t *testing.T) {
			assert.Equal(t, tc.want, extractDate(tc.text))
		})
	}
}

func TestExtractTimeVariants(t *testing.T) {
	cases := []struct {
		text string
		want string
	}{
		{"3 pm works", "15:00"},
		{"3:30 p.m. works", "15:30"},
		{"12 pm sharp", "12:00"},
		{"9 am please", "09:00"},
		{"meet at 14:30 then", "14:30"},
		{"meet at 7", "07:00"},
		{"sometime soonish", ""},
	}

	for _, tc := range cases {
		t.Run(tc.text, func(t *testing.T) {
			assert.Equal(t, tc.want, extractTime(tc.text))
		})
	}
}

func TestExtractPurposeFallsBackToAgentQuestion(t *testing.T) {
	// The user answer carries no purpose keyword, so the agent-question
	// fallback has to find it.
	transcript := turns(
		[2]string{"agent", "May I ask the purpose of the appointment?"},
		[2]string{"user", "Dental checkup"},
	)
	assert.Equal(t, "Dental checkup", extractPurpose(transcript))

	assert.Equal(t, "", extractPurpose(turns([2]string{"agent", "Hello"})))
}

func TestExtractWithoutLLMUsesRules(t *testing.T) {
	extractor := NewExtractor("", "")
	require.Nil(t, extractor.llm)

	extraction := extractor.Extract(context.Background(), "conv_1", "lead", turns(
		[2]string{"user", "I want to schedule a meeting"},
	))
	assert.Equal(t, "rules", extraction.Method)
	assert.Equal(t, "lead", extraction.ExtractionType)
	assert.Equal(t, true, extraction.ExtractedData["wants_appointment"])
}

func TestTranscriptTextPrefersMessage(t *testing.T) {
	transcript := []domain.TranscriptTurn{
		{Role: "agent", Message: "Hi"},
		{Role: "user", OriginalMessage: "Hello back"},
		{Message: "no role"},
	}
	assert.Equal(t, "AGENT: Hi\nUSER: Hello back\nUNKNOWN: no role", transcriptText(transcript))
}
