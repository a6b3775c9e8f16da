package models

import (
	"time"

	"github.com/google/uuid"
)

type Payment struct {
	ID              uuid.UUID `db:"id" json:"id"`
	UserID          uuid.UUID `db:"user_id" json:"user_id"`
	PaymentIntentID string    `db:"payment_intent_id" json:"payment_intent_id"`
	OrderID         string    `db:"order_id" json:"order_id"`
	Amount          int64     `db:"amount" json:"amount"`
	Credits         int       `db:"credits" json:"credits"`
	Status          string    `db:"status" json:"status"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}

// ConfirmPaymentRequest is the POST /api/payment/confirm body, sent by the
// payment widget's success redirect.
type ConfirmPaymentRequest struct {
	PaymentIntentID string `json:"payment_intent_id"`
	OrderID         string `json:"order_id"`
	Amount          int64  `json:"amount"`
}

// PaymentVerification is what the processor reports back for an intent.
type PaymentVerification struct {
	Status string
	Amount int64
}
