package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractConversationIDAliases(t *testing.T) {
	cases := []struct {
		name    string
		payload map[string]interface{}
		want    string
	}{
		{"canonical", map[string]interface{}{"conversation_id": "conv_1"}, "conv_1"},
		{"camel case", map[string]interface{}{"conversationId": "conv_2"}, "conv_2"},
		{"session alias", map[string]interface{}{"session_id": "conv_3"}, "conv_3"},
		{"call alias", map[string]interface{}{"call_id": "conv_4"}, "conv_4"},
		{"canonical wins over alias", map[string]interface{}{"conversation_id": "conv_1", "call_id": "conv_4"}, "conv_1"},
		{"empty string skipped", map[string]interface{}{"conversation_id": "", "session_id": "conv_3"}, "conv_3"},
		{"non-string skipped", map[string]interface{}{"conversation_id": 42, "session_id": "conv_3"}, "conv_3"},
		{"missing", map[string]interface{}{}, ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ExtractConversationID(tc.payload))
		})
	}
}

func TestExtractPhoneNumberPriority(t *testing.T) {
	payload := map[string]interface{}{
		"phone_number":  "+300",
		"to_number":     "+200",
		"called_number": "+100",
	}
	assert.Equal(t, "+100", ExtractPhoneNumber(payload))

	delete(payload, "called_number")
	assert.Equal(t, "+200", ExtractPhoneNumber(payload))
}

func TestExtractEmailAndName(t *testing.T) {
	payload := map[string]interface{}{
		"customer_email": "a@example.com",
		"customer_name":  "Alice",
	}
	assert.Equal(t, "a@example.com", ExtractEmail(payload))
	assert.Equal(t, "Alice", ExtractName(payload))
}

func TestClampLimit(t *testing.T) {
	cases := []struct {
		name string
		raw  interface{}
		want int
	}{
		{"nil defaults to 5", nil, 5},
		{"zero clamps to 1", 0, 1},
		{"negative clamps to 1", -5, 1},
		{"in range", 7, 7},
		{"upper clamp", 999, 20},
		{"float from json", float64(15), 15},
		{"numeric string", "15", 15},
		{"padded string", " 5 ", 5},
		{"string over limit", "100", 20},
		{"garbage string defaults", "lots", 5},
		{"int64", int64(3), 3},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ClampLimit(tc.raw))
		})
	}
}

func TestResolveDynamicEmail(t *testing.T) {
	// Literal addresses pass through untouched.
	got, err := resolveDynamicEmail("a@example.com", nil)
	assert.NoError(t, err)
	assert.Equal(t, "a@example.com", got)

	// A variable name is looked up in dynamic_variables.
	got, err = resolveDynamicEmail("customer_email", map[string]interface{}{
		"customer_email": "resolved@example.com",
	})
	assert.NoError(t, err)
	assert.Equal(t, "resolved@example.com", got)

	// Lookup failure names the offending variable.
	_, err = resolveDynamicEmail("customer_email", map[string]interface{}{})
	assert.ErrorContains(t, err, `"customer_email"`)

	// A resolved value that is still not an address also fails.
	_, err = resolveDynamicEmail("customer_email", map[string]interface{}{
		"customer_email": "still_not_an_email",
	})
	assert.Error(t, err)
}
