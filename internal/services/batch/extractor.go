package batch

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/ClareAI/astra-campaign-service/internal/domain"
	"github.com/ClareAI/astra-campaign-service/pkg/logger"
	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// Extraction is structured data pulled out of a conversation transcript.
// Method reports whether an LLM or the rule fallback produced it.
type Extraction struct {
	ConversationID  string                 `json:"conversation_id"`
	ExtractionType  string                 `json:"extraction_type"`
	ExtractedData   map[string]interface{} `json:"extracted_data"`
	TranscriptTurns int                    `json:"transcript_turns"`
	Method          string                 `json:"method"`
}

// Extractor derives structured outcomes from transcripts. When an OpenAI
// client is configured it is tried first; rule-based extraction is the
// fallback and also the only path when no key is set.
type Extractor struct {
	llm   *openai.Client
	model string
}

// NewExtractor creates an extractor. apiKey may be empty, which disables the
// LLM path entirely.
func NewExtractor(apiKey, model string) *Extractor {
	e := &Extractor{model: model}
	if e.model == "" {
		e.model = openai.GPT4oMini
	}
	if apiKey != "" {
		e.llm = openai.NewClient(apiKey)
	}
	return e
}

// Extract runs LLM extraction when available, falling back to rules on any
// LLM failure.
func (e *Extractor) Extract(ctx context.Context, conversationID, extractionType string, transcript []domain.TranscriptTurn) Extraction {
	if e.llm == nil {
		return e.extractRules(conversationID, extractionType, transcript)
	}

	resp, err := e.llm.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: e.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: "You extract structured data from call transcripts. Respond only with valid JSON."},
			{Role: openai.ChatMessageRoleUser, Content: extractionPrompt(extractionType, transcriptText(transcript))},
		},
		Temperature: 0.1,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		logger.Base().Warn("llm extraction failed, falling back to rules",
			zap.String("conversation_id", conversationID), zap.Error(err))
		return e.extractRules(conversationID, extractionType, transcript)
	}

	var data map[string]interface{}
	if len(resp.Choices) == 0 || json.Unmarshal([]byte(resp.Choices[0].Message.Content), &data) != nil {
		logger.Base().Warn("llm extraction returned unparseable output, falling back to rules",
			zap.String("conversation_id", conversationID))
		return e.extractRules(conversationID, extractionType, transcript)
	}

	return Extraction{
		ConversationID:  conversationID,
		ExtractionType:  extractionType,
		ExtractedData:   data,
		TranscriptTurns: len(transcript),
		Method:          "llm",
	}
}

// ExtractWithRules runs appointment extraction without the LLM. Used by the
// aggregator where per-recipient LLM calls would be too slow.
func (e *Extractor) ExtractWithRules(conversationID string, transcript []domain.TranscriptTurn) Extraction {
	return e.extractRules(conversationID, "appointment", transcript)
}

func (e *Extractor) extractRules(conversationID, extractionType string, transcript []domain.TranscriptTurn) Extraction {
	// Only appointment rules exist; other types degrade to the same shape.
	data := extractAppointmentRules(transcript)
	return Extraction{
		ConversationID:  conversationID,
		ExtractionType:  extractionType,
		ExtractedData:   data,
		TranscriptTurns: len(transcript),
		Method:          "rules",
	}
}

// transcriptText renders a transcript as "ROLE: message" lines.
func transcriptText(transcript []domain.TranscriptTurn) string {
	lines := make([]string, 0, len(transcript))
	for _, turn := range transcript {
		role := turn.Role
		if role == "" {
			role = "unknown"
		}
		lines = append(lines, fmt.Sprintf("%s: %s", strings.ToUpper(role), turn.Text()))
	}
	return strings.Join(lines, "\n")
}

func extractionPrompt(extractionType, transcript string) string {
	switch extractionType {
	case "lead":
		return fmt.Sprintf(`Analyze this conversation transcript and extract lead/sales information.

TRANSCRIPT:
%s

Extract and return JSON with these fields:
{
    "is_interested": true/false,
    "interest_level": "high/medium/low/none",
    "customer_name": "string" or null,
    "email": "string" or null,
    "phone": "string" or null,
    "product_interest": ["list of products mentioned"],
    "objections": ["list of objections raised"],
    "follow_up_needed": true/false,
    "notes": "string",
    "confidence": 0.0-1.0
}`, transcript)
	case "support":
		return fmt.Sprintf(`Analyze this conversation transcript and extract support ticket information.

TRANSCRIPT:
%s

Extract and return JSON with these fields:
{
    "issue_type": "string",
    "issue_description": "string",
    "issue_resolved": true/false,
    "customer_name": "string" or null,
    "customer_sentiment": "positive/neutral/negative",
    "follow_up_needed": true/false,
    "notes": "string",
    "confidence": 0.0-1.0
}`, transcript)
	default:
		return fmt.Sprintf(`Analyze this conversation transcript and extract appointment booking information.

TRANSCRIPT:
%s

Extract and return JSON with these fields:
{
    "wants_appointment": true/false (did the user want to book an appointment?),
    "appointment_date": "YYYY-MM-DD" or null (the date mentioned, convert to ISO format),
    "appointment_time": "HH:MM" or null (the time in 24-hour format),
    "purpose": "string" or null (why they want the appointment),
    "customer_name": "string" or null (customer's name if mentioned),
    "appointment_confirmed": true/false (was the appointment confirmed by the agent?),
    "additional_notes": "string" or null (any other relevant details),
    "confidence": 0.0-1.0 (how confident you are in this extraction)
}

If a field cannot be determined, use null. Be precise with dates and times.`, transcript)
	}
}

var (
	// "2nd of february 2026" / "2 february"
	dayFirstDatePattern = regexp.MustCompile(`(\d{1,2})(?:st|nd|rd|th)?\s+(?:of\s+)?([a-z]+)(?:\s*,?\s*(\d{4}))?`)
	// "february 2nd, 2026" / "february 2"
	monthFirstDatePattern = regexp.MustCompile(`([a-z]+)\s+(\d{1,2})(?:st|nd|rd|th)?(?:\s*,?\s*(\d{4}))?`)
	// "3 pm" / "3:30 p.m."
	meridiemTimePattern = regexp.MustCompile(`(\d{1,2})(?::(\d{2}))?\s*(am|pm|a\.m\.|p\.m\.)`)
	// "at 3" / "at 14:30"
	atTimePattern = regexp.MustCompile(`at\s+(\d{1,2})(?::(\d{2}))?`)
)

var monthNumbers = map[string]int{
	"january": 1, "february": 2, "march": 3, "april": 4,
	"may": 5, "june": 6, "july": 7, "august": 8,
	"september": 9, "october": 10, "november": 11, "december": 12,
}

var appointmentIntentWords = []string{"book", "schedule", "appointment", "meeting", "yes"}

var purposeKeywords = []string{"purpose", "reason", "for", "about", "discuss", "query", "question"}

// extractAppointmentRules is the keyword/regex appointment extractor used
// when no LLM is available.
func extractAppointmentRules(transcript []domain.TranscriptTurn) map[string]interface{} {
	textLower := strings.ToLower(transcriptText(transcript))

	wantsAppointment := false
	for _, word := range appointmentIntentWords {
		if strings.Contains(textLower, word) {
			wantsAppointment = true
			break
		}
	}

	confidence := 0.4
	if wantsAppointment {
		confidence = 0.6
	}

	data := map[string]interface{}{
		"wants_appointment":     wantsAppointment,
		"appointment_date":      nil,
		"appointment_time":      nil,
		"purpose":               nil,
		"customer_name":         nil,
		"appointment_confirmed": strings.Contains(textLower, "confirmed") || strings.Contains(textLower, "scheduled"),
		"additional_notes":      nil,
		"confidence":            confidence,
	}

	if date := extractDate(textLower); date != "" {
		data["appointment_date"] = date
	}
	if t := extractTime(textLower); t != "" {
		data["appointment_time"] = t
	}
	if purpose := extractPurpose(transcript); purpose != "" {
		data["purpose"] = purpose
	}
	return data
}

// extractDate finds a spoken date and normalizes it to YYYY-MM-DD. Missing
// years default to the current year.
func extractDate(textLower string) string {
	if m := dayFirstDatePattern.FindStringSubmatch(textLower); m != nil {
		if month, ok := monthNumbers[m[2]]; ok {
			day, _ := strconv.Atoi(m[1])
			return formatDate(m[3], month, day)
		}
	}
	if m := monthFirstDatePattern.FindStringSubmatch(textLower); m != nil {
		if month, ok := monthNumbers[m[1]]; ok {
			day, _ := strconv.Atoi(m[2])
			return formatDate(m[3], month, day)
		}
	}
	return ""
}

func formatDate(yearStr string, month, day int) string {
	year := time.Now().Year()
	if yearStr != "" {
		if y, err := strconv.Atoi(yearStr); err == nil {
			year = y
		}
	}
	return fmt.Sprintf("%04d-%02d-%02d", year, month, day)
}

// extractTime finds a spoken time and normalizes it to HH:MM in 24-hour
// format. "3 pm" beats "at 3" when both appear.
func extractTime(textLower string) string {
	if m := meridiemTimePattern.FindStringSubmatch(textLower); m != nil {
		hour, _ := strconv.Atoi(m[1])
		minute := 0
		if m[2] != "" {
			minute, _ = strconv.Atoi(m[2])
		}
		if strings.Contains(strings.ToLower(m[3]), "p") && hour < 12 {
			hour += 12
		}
		return fmt.Sprintf("%02d:%02d", hour, minute)
	}
	if m := atTimePattern.FindStringSubmatch(textLower); m != nil {
		hour, _ := strconv.Atoi(m[1])
		minute := 0
		if m[2] != "" {
			minute, _ = strconv.Atoi(m[2])
		}
		return fmt.Sprintf("%02d:%02d", hour, minute)
	}
	return ""
}

// extractPurpose scans user turns newest-first for a purpose keyword; failing
// that, takes the user turn following an agent turn that asked about purpose.
func extractPurpose(transcript []domain.TranscriptTurn) string {
	for i := len(transcript) - 1; i >= 0; i-- {
		turn := transcript[i]
		if turn.Role != "user" {
			continue
		}
		msgLower := strings.ToLower(turn.Text())
		for _, kw := range purposeKeywords {
			if strings.Contains(msgLower, kw) {
				return turn.Text()
			}
		}
	}

	for i, turn := range transcript {
		if turn.Role == "agent" && strings.Contains(strings.ToLower(turn.Text()), "purpose") {
			if i+1 < len(transcript) && transcript[i+1].Role == "user" {
				return transcript[i+1].Text()
			}
		}
	}
	return ""
}
