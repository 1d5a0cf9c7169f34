package handler

import (
	"net/http"
	"strconv"

	"github.com/ClareAI/astra-campaign-service/internal/adapters/convai"
	"github.com/ClareAI/astra-campaign-service/internal/config"
	"github.com/ClareAI/astra-campaign-service/pkg/logger"
	"github.com/ClareAI/astra-campaign-service/pkg/twilio"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// PhoneNumberHandler manages gateway phone numbers. Twilio imports are
// verified against the Twilio account first when credentials are configured.
type PhoneNumberHandler struct {
	convaiClient *convai.Client
	verifier     *twilio.NumberVerifier
}

// NewPhoneNumberHandler creates a phone number management handler.
func NewPhoneNumberHandler(convaiClient *convai.Client, cfg *config.CampaignConfig) *PhoneNumberHandler {
	return &PhoneNumberHandler{
		convaiClient: convaiClient,
		verifier:     twilio.NewNumberVerifier(cfg.TwilioAccountSID, cfg.TwilioAuthToken),
	}
}

// SetupPhoneNumberRoutes registers phone number routes. The outbound-call
// routes live on CallHandler.
func (h *PhoneNumberHandler) SetupPhoneNumberRoutes(router *mux.Router) {
	sub := router.PathPrefix("/phone-numbers").Subrouter()
	sub.HandleFunc("/twilio", h.handleImportTwilio).Methods(http.MethodPost)
	sub.HandleFunc("/sip-trunk", h.handleImportSIPTrunk).Methods(http.MethodPost)
	sub.HandleFunc("", h.handleList).Methods(http.MethodGet)
	sub.HandleFunc("/{phone_number_id}", h.handleGet).Methods(http.MethodGet)
	sub.HandleFunc("/{phone_number_id}", h.handleUpdate).Methods(http.MethodPatch)
	sub.HandleFunc("/{phone_number_id}", h.handleDelete).Methods(http.MethodDelete)
}

type importTwilioRequest struct {
	PhoneNumber string `json:"phone_number"`
	Label       string `json:"label"`
	SID         string `json:"sid"`
	Token       string `json:"token"`
}

func (h *PhoneNumberHandler) handleImportTwilio(w http.ResponseWriter, r *http.Request) {
	var req importTwilioRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.PhoneNumber == "" || req.SID == "" || req.Token == "" {
		writeError(w, http.StatusBadRequest, "phone_number, sid and token are required")
		return
	}

	if err := h.verifier.VerifyNumber(req.PhoneNumber); err != nil {
		logger.Base().Warn("Twilio number verification failed",
			zap.String("phone_number", req.PhoneNumber), zap.Error(err))
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	phoneNumberID, err := h.convaiClient.ImportTwilioNumber(r.Context(), req.PhoneNumber, req.Label, req.SID, req.Token)
	if err != nil {
		writeGatewayError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"phone_number_id": phoneNumberID,
		"phone_number":    req.PhoneNumber,
	})
}

func (h *PhoneNumberHandler) handleImportSIPTrunk(w http.ResponseWriter, r *http.Request) {
	var payload map[string]interface{}
	if !decodeBody(w, r, &payload) {
		return
	}

	phoneNumberID, err := h.convaiClient.ImportSIPTrunkNumber(r.Context(), payload)
	if err != nil {
		writeGatewayError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"phone_number_id": phoneNumberID,
	})
}

func (h *PhoneNumberHandler) handleList(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	pageSize, _ := strconv.Atoi(query.Get("page_size"))

	numbers, err := h.convaiClient.ListPhoneNumbers(r.Context(), query.Get("cursor"), pageSize)
	if err != nil {
		writeGatewayError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, numbers)
}

func (h *PhoneNumberHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	phoneNumberID := mux.Vars(r)["phone_number_id"]

	number, err := h.convaiClient.GetPhoneNumber(r.Context(), phoneNumberID)
	if err != nil {
		writeGatewayError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, number)
}

func (h *PhoneNumberHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	phoneNumberID := mux.Vars(r)["phone_number_id"]

	var payload map[string]interface{}
	if !decodeBody(w, r, &payload) {
		return
	}

	number, err := h.convaiClient.UpdatePhoneNumber(r.Context(), phoneNumberID, payload)
	if err != nil {
		writeGatewayError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, number)
}

func (h *PhoneNumberHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	phoneNumberID := mux.Vars(r)["phone_number_id"]

	if err := h.convaiClient.DeletePhoneNumber(r.Context(), phoneNumberID); err != nil {
		writeGatewayError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, apiResponse{Success: true, Message: "phone number deleted"})
}
