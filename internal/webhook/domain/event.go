// Package domain defines the normalized webhook event model and the
// processing errors the transport layer maps to response codes.
package domain

import (
	"errors"

	"github.com/fanvault/fanvault/internal/processor"
)

var (
	// ErrInvalidSignature rejects a payload whose signature header does not
	// verify. This is the only processing error surfaced as a client error.
	ErrInvalidSignature = errors.New("webhook signature verification failed")

	// ErrInvalidPayload marks a verified payload that does not decode.
	ErrInvalidPayload = errors.New("webhook payload is not decodable")

	// ErrEventIgnored marks event types outside the reconciled set.
	ErrEventIgnored = errors.New("event type is not handled")

	// ErrEventAlreadyProcessed marks a redelivery of a completed event.
	ErrEventAlreadyProcessed = errors.New("event already processed")
)

// Kind discriminates the event union. Exactly one payload pointer on Event is
// populated per kind.
type Kind string

const (
	KindCheckoutCompleted   Kind = "checkout_completed"
	KindSubscriptionChange  Kind = "subscription_change"
	KindSubscriptionDeleted Kind = "subscription_deleted"
)

// CheckoutSession is the slice of the processor's checkout object the
// reconciler consumes.
type CheckoutSession struct {
	ID             string             `json:"id"`
	Mode           string             `json:"mode"`
	SubscriptionID processor.ObjectID `json:"subscription"`
	Metadata       map[string]string  `json:"metadata"`
}

// Event is a verified, decoded webhook delivery. Account is the connected
// account that emitted it, empty for platform-level events.
type Event struct {
	ID      string
	Type    string
	Created int64
	Account string

	Kind         Kind
	Checkout     *CheckoutSession
	Subscription *processor.Subscription
}
