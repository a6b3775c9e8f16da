package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/paymentintent"
	"github.com/stripe/stripe-go/v82/webhook"

	middleware "github.com/chajs226/smart-investor-api/middlewares"
	"github.com/chajs226/smart-investor-api/models"
	"github.com/chajs226/smart-investor-api/repository"
	"github.com/chajs226/smart-investor-api/utils"
)

// PaymentVerifier reports what the processor knows about a payment intent.
type PaymentVerifier interface {
	Verify(ctx context.Context, paymentIntentID string) (*models.PaymentVerification, error)
}

// StripeVerifier checks intents against the live Stripe API.
type StripeVerifier struct{}

func (StripeVerifier) Verify(ctx context.Context, paymentIntentID string) (*models.PaymentVerification, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx

	pi, err := paymentintent.Get(paymentIntentID, params)
	if err != nil {
		return nil, err
	}
	return &models.PaymentVerification{
		Status: string(pi.Status),
		Amount: pi.Amount,
	}, nil
}

type PaymentHandler struct {
	Users         UserStore
	Verifier      PaymentVerifier
	WebhookSecret string
}

// creditsForAmount maps a charged amount onto a recharge plan.
func creditsForAmount(amount int64) int {
	switch amount {
	case 500:
		return 20
	case 1000:
		return 50
	default:
		return 0
	}
}

// Confirm handles POST /api/payment/confirm, called by the payment widget's
// success redirect. The payment is verified against the processor before
// any credits are granted; the payments ledger makes replays a 409.
func (h *PaymentHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	email, ok := middleware.EmailFromContext(r.Context())
	if !ok {
		utils.RespondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req models.ConfirmPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	missing := []string{}
	if req.PaymentIntentID == "" {
		missing = append(missing, "payment_intent_id")
	}
	if req.OrderID == "" {
		missing = append(missing, "order_id")
	}
	if req.Amount <= 0 {
		missing = append(missing, "amount")
	}
	if len(missing) > 0 {
		utils.RespondValidationError(w, "Missing required fields", missing)
		return
	}

	credits := creditsForAmount(req.Amount)
	if credits == 0 {
		utils.RespondError(w, http.StatusBadRequest, "Unknown plan amount")
		return
	}

	verification, err := h.Verifier.Verify(r.Context(), req.PaymentIntentID)
	if err != nil {
		utils.RespondInternal(w, err, "Failed to verify payment")
		return
	}
	if verification.Status != string(stripe.PaymentIntentStatusSucceeded) {
		utils.RespondError(w, http.StatusBadRequest, "Payment not completed")
		return
	}
	if verification.Amount != req.Amount {
		utils.RespondError(w, http.StatusBadRequest, "Payment amount mismatch")
		return
	}

	user, err := h.Users.AddCredits(r.Context(), email, credits, req.PaymentIntentID, req.OrderID, req.Amount)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrPaymentProcessed):
			utils.RespondError(w, http.StatusConflict, "Payment already processed")
		case errors.Is(err, repository.ErrNotFound):
			utils.RespondError(w, http.StatusNotFound, "User not found")
		default:
			utils.RespondInternal(w, err, "Failed to credit account")
		}
		return
	}

	utils.RespondSuccess(w, http.StatusOK, map[string]interface{}{
		"analysis_count": user.AnalysisCount,
	})
}

// HandleWebhook processes Stripe events. Widget flows that never reach the
// success redirect are still credited via checkout.session.completed.
func (h *PaymentHandler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	const maxBodyBytes = int64(65536)
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		log.Printf("Error reading webhook body: %v", err)
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	var event stripe.Event
	if h.WebhookSecret != "" {
		event, err = webhook.ConstructEvent(payload, r.Header.Get("Stripe-Signature"), h.WebhookSecret)
		if err != nil {
			log.Printf("Webhook signature verification failed: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
	} else if err := json.Unmarshal(payload, &event); err != nil {
		log.Printf("Failed to parse webhook body: %v", err)
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	switch event.Type {
	case "checkout.session.completed":
		if err := h.handleCheckoutCompleted(r.Context(), event); err != nil {
			utils.RespondInternal(w, err, "Failed to credit account")
			return
		}
	default:
		log.Printf("Unhandled event type: %s", event.Type)
	}

	w.WriteHeader(http.StatusOK)
}

func (h *PaymentHandler) handleCheckoutCompleted(ctx context.Context, event stripe.Event) error {
	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return err
	}

	email := session.Metadata["email"]
	if email == "" {
		log.Printf("checkout.session.completed without email metadata: %s", session.ID)
		return nil
	}

	credits := creditsForAmount(session.AmountTotal)
	if credits == 0 {
		log.Printf("checkout.session.completed with unknown amount %d: %s", session.AmountTotal, session.ID)
		return nil
	}

	paymentIntentID := session.ID
	if session.PaymentIntent != nil {
		paymentIntentID = session.PaymentIntent.ID
	}

	_, err := h.Users.AddCredits(ctx, email, credits, paymentIntentID, session.ID, session.AmountTotal)
	if errors.Is(err, repository.ErrPaymentProcessed) {
		// Redirect flow already credited this payment.
		return nil
	}
	return err
}
