// Package service implements the reconciliation pipeline behind the webhook
// endpoint: verify, decode, dedupe, resolve identities, normalize periods,
// and converge the stored records.
package service

import (
	"context"
	"errors"
)

// ErrPeriodUnavailable means every period-derivation fallback was exhausted
// for a subscription that requires one.
var ErrPeriodUnavailable = errors.New("billing period could not be derived")

// Service ingests one webhook delivery end to end.
//
// The error contract mirrors the endpoint's response policy: only
// domain.ErrInvalidSignature identifies a client fault. Ignored event types
// and redeliveries come back as domain.ErrEventIgnored and
// domain.ErrEventAlreadyProcessed so the transport can acknowledge them, and
// every other error means the delivery should be acknowledged and retried by
// the processor's own redelivery schedule.
type Service interface {
	IngestWebhook(ctx context.Context, payload []byte, signatureHeader string) error
}
