package models

import "errors"

// Error taxonomy of the gateway. Every provider or network failure is
// converted into one of these at a component boundary; raw transport errors
// never reach the customer-facing layer.
var (
	// ErrConfig means the gateway is disabled or its credentials are
	// missing. Checked before any outbound call is attempted.
	ErrConfig = errors.New("payment gateway not configured")

	// ErrSessionCreation covers transport failures and malformed responses
	// while creating a hosted payment session. The checkout flow surfaces a
	// generic notice; the order is never mutated.
	ErrSessionCreation = errors.New("payment session creation failed")

	// ErrVerifyTransport means the status verification call itself failed,
	// as opposed to a genuine payment decline.
	ErrVerifyTransport = errors.New("payment verification unavailable")

	// ErrCorrelation means a provider outcome could not be mapped back to a
	// local order (malformed tracking id or unknown order).
	ErrCorrelation = errors.New("payment does not correlate to an order")

	// ErrStateConflict means a notification tried to move an order from one
	// terminal status to the opposite one.
	ErrStateConflict = errors.New("conflicting terminal order state")

	ErrOrderNotFound = errors.New("order not found")
)
