// Package resolver answers "whose context is this?" for inbound webhook
// payloads, which arrive with inconsistent field naming and partial
// identifiers across the gateway's product variants.
package resolver

import (
	"fmt"
	"strconv"
	"strings"
)

// Alias lists for identifier extraction, in priority order. First non-empty
// match wins.
var (
	conversationIDKeys = []string{"conversation_id", "conversationId", "session_id", "call_id"}
	agentIDKeys        = []string{"agent_id", "agentId"}
	phoneNumberKeys    = []string{"called_number", "to_number", "phone_number", "recipient_phone"}
	emailKeys          = []string{"email", "customer_email", "user_email", "recipient_email"}
	nameKeys           = []string{"name", "customer_name", "user_name", "recipient_name"}
)

// firstString returns the first non-empty string value found under any of the
// given keys.
func firstString(payload map[string]interface{}, keys []string) string {
	for _, key := range keys {
		if v, ok := payload[key]; ok {
			if s, ok := v.(string); ok && s != "" {
				return s
			}
		}
	}
	return ""
}

// ExtractConversationID pulls a conversation identifier out of a payload.
func ExtractConversationID(payload map[string]interface{}) string {
	return firstString(payload, conversationIDKeys)
}

// ExtractAgentID pulls an agent identifier out of a payload.
func ExtractAgentID(payload map[string]interface{}) string {
	return firstString(payload, agentIDKeys)
}

// ExtractPhoneNumber pulls a destination phone number out of a payload.
// called_number wins because it is the gateway's canonical system variable.
func ExtractPhoneNumber(payload map[string]interface{}) string {
	return firstString(payload, phoneNumberKeys)
}

// ExtractEmail pulls a customer email out of a payload.
func ExtractEmail(payload map[string]interface{}) string {
	return firstString(payload, emailKeys)
}

// ExtractName pulls a customer name out of a payload.
func ExtractName(payload map[string]interface{}) string {
	return firstString(payload, nameKeys)
}

// ClampLimit coerces a caller-supplied result limit into [1, 20]. String
// values are parsed; anything unparseable falls back to the default of 5.
func ClampLimit(raw interface{}) int {
	limit := 5
	switch v := raw.(type) {
	case nil:
	case int:
		limit = v
	case int64:
		limit = int(v)
	case float64:
		limit = int(v)
	case string:
		if parsed, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			limit = parsed
		}
	}
	if limit < 1 {
		return 1
	}
	if limit > 20 {
		return 20
	}
	return limit
}

// LooksLikeEmail reports whether a value is a literal email address rather
// than a dynamic-variable name.
func LooksLikeEmail(value string) bool {
	return strings.Contains(value, "@")
}

// resolveDynamicEmail handles the gateway quirk where certain call-initiation
// paths substitute the variable NAME instead of its value into the email
// field. The name is looked up against the identity's dynamic_variables map.
func resolveDynamicEmail(value string, dynamicVariables map[string]interface{}) (string, error) {
	if LooksLikeEmail(value) {
		return value, nil
	}
	if dynamicVariables != nil {
		if resolved, ok := dynamicVariables[value].(string); ok && LooksLikeEmail(resolved) {
			return resolved, nil
		}
	}
	return "", fmt.Errorf("email field contains unresolved dynamic variable %q; pass the literal address or include it in dynamic_variables", value)
}

// dynamicVariablesOf digs the dynamic_variables sub-map out of an identity
// field set, if present.
func dynamicVariablesOf(fields map[string]interface{}) map[string]interface{} {
	if fields == nil {
		return nil
	}
	if dv, ok := fields["dynamic_variables"].(map[string]interface{}); ok {
		return dv
	}
	return nil
}
