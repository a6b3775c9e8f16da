package repository

import "errors"

var (
	// ErrNotFound means the referenced user or resource does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrNoCredits means the user's analysis count is already zero.
	ErrNoCredits = errors.New("no analyses remaining")

	// ErrLastProvider means unlinking would leave the user with no way to
	// sign in.
	ErrLastProvider = errors.New("cannot remove last login method")

	// ErrPaymentProcessed means this payment key was already credited.
	ErrPaymentProcessed = errors.New("payment already processed")
)
