// Package handler wires the HTTP surface: management API routes and the
// webhook tool callbacks invoked by the ConvAI gateway mid-conversation.
package handler

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/ClareAI/astra-campaign-service/pkg/logger"
	"go.uber.org/zap"
)

// apiResponse is the management API envelope.
type apiResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// writeJSON writes a JSON body with the given status code.
func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Base().Error("failed to encode response", zap.Error(err))
	}
}

// writeError writes a management-API error body. These carry real HTTP
// status codes, unlike webhook responses.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, apiResponse{Success: false, Error: message})
}

// writeWebhookResult always answers HTTP 200 with success carried in the
// body: the gateway does not treat HTTP error codes specially for tool
// callbacks, but the agent needs something it can speak.
func writeWebhookResult(w http.ResponseWriter, success bool, data interface{}, errMsg string) {
	writeJSON(w, http.StatusOK, apiResponse{Success: success, Data: data, Error: errMsg})
}

// readRequestBody reads the full request body, answering 400 on failure.
func readRequestBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		logger.Base().Error("failed to read request body", zap.Error(err))
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return nil, false
	}
	return body, true
}

// parseJSON decodes a request body into target, answering 400 on failure.
func parseJSON(w http.ResponseWriter, body []byte, target interface{}) bool {
	if err := json.Unmarshal(body, target); err != nil {
		logger.Base().Error("failed to parse request body", zap.Error(err))
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

// decodeBody reads and decodes a JSON request body in one step.
func decodeBody(w http.ResponseWriter, r *http.Request, target interface{}) bool {
	body, ok := readRequestBody(w, r)
	if !ok {
		return false
	}
	return parseJSON(w, body, target)
}
