package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"controlhub/internal/config"
	"controlhub/internal/models"
	"controlhub/internal/services"
)

type BillingHandler struct {
	Stripe  *services.StripeService
	Billing *services.BillingService
	Plans   []config.Plan
}

// maxWebhookBody bounds the payload read; Stripe events are small.
const maxWebhookBody = 1 << 20

func writeJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// StripeWebhook receives signed events from Stripe. The signature is
// verified over the raw body before anything else happens; an unsigned or
// tampered request never reaches the processor.
func (h *BillingHandler) StripeWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "could not read request body")
		return
	}

	sigHeader := r.Header.Get("Stripe-Signature")
	if sigHeader == "" {
		writeJSONError(w, http.StatusBadRequest, "missing Stripe signature")
		return
	}

	event, err := h.Stripe.VerifyWebhook(payload, sigHeader)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.Billing.ProcessEvent(r.Context(), event); err != nil {
		if errors.Is(err, services.ErrPurchaseInsert) {
			writeJSONError(w, http.StatusInternalServerError, services.ErrPurchaseInsert.Error())
			return
		}
		writeJSONError(w, http.StatusInternalServerError, "internal error")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]bool{"received": true})
}

func (h *BillingHandler) CreateCheckoutSession(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req models.CheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.PriceID == "" {
		http.Error(w, "Missing price ID", http.StatusBadRequest)
		return
	}

	url, err := h.Stripe.CreateCheckoutSession(r.Context(), userID, req.PriceID, req.Name)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(models.CheckoutResponse{URL: url})
}

func (h *BillingHandler) GetMyPurchases(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	purchases, err := h.Billing.GetPurchasesByUser(r.Context(), userID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(purchases)
}

func (h *BillingHandler) GetAllPurchases(w http.ResponseWriter, r *http.Request) {
	purchases, err := h.Billing.GetAllPurchases(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(purchases)
}

func (h *BillingHandler) GetPlans(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(h.Plans)
}
