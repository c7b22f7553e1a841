// Package stripe adapts raw Stripe webhook deliveries into the normalized
// event model: it verifies the signed payload and decodes the handled event
// families.
package stripe

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fanvault/fanvault/internal/config"
	"github.com/fanvault/fanvault/internal/processor"
	"github.com/fanvault/fanvault/internal/webhook/domain"
)

// SignatureHeader is the header carrying the payload signature.
const SignatureHeader = "Stripe-Signature"

// Provider tags ledger rows written from this adapter.
const Provider = "stripe"

type Adapter struct {
	secret string
}

func New(cfg config.Config) *Adapter {
	return &Adapter{secret: strings.TrimSpace(cfg.StripeWebhookSecret)}
}

// parseSignatureHeader splits "t=...,v1=...,v1=..." into the timestamp and
// the candidate signatures. Elements in other schemes are skipped.
func parseSignatureHeader(header string) (timestamp string, signatures []string) {
	for _, part := range strings.Split(header, ",") {
		kv := strings.SplitN(strings.TrimSpace(part), "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch kv[0] {
		case "t":
			timestamp = kv[1]
		case "v1":
			signatures = append(signatures, kv[1])
		}
	}
	return timestamp, signatures
}

// Verify checks the payload signature against the endpoint secret. Every
// failure mode maps to ErrInvalidSignature so callers reject uniformly.
func (a *Adapter) Verify(payload []byte, header string) error {
	if a.secret == "" {
		return fmt.Errorf("%w: no endpoint secret configured", domain.ErrInvalidSignature)
	}

	timestamp, signatures := parseSignatureHeader(header)
	if timestamp == "" || len(signatures) == 0 {
		return fmt.Errorf("%w: malformed signature header", domain.ErrInvalidSignature)
	}

	mac := hmac.New(sha256.New, []byte(a.secret))
	mac.Write([]byte(timestamp))
	mac.Write([]byte("."))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))

	for _, sig := range signatures {
		if hmac.Equal([]byte(expected), []byte(strings.ToLower(sig))) {
			return nil
		}
	}
	return fmt.Errorf("%w: no matching signature", domain.ErrInvalidSignature)
}

type envelope struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	Created int64  `json:"created"`
	Account string `json:"account"`
	Data    struct {
		Object json.RawMessage `json:"object"`
	} `json:"data"`
}

// Parse decodes a verified payload into the event union. Event families the
// reconciler does not act on return ErrEventIgnored.
func (a *Adapter) Parse(payload []byte) (*domain.Event, error) {
	var env envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidPayload, err)
	}
	if env.ID == "" || env.Type == "" {
		return nil, fmt.Errorf("%w: missing event id or type", domain.ErrInvalidPayload)
	}

	ev := &domain.Event{
		ID:      env.ID,
		Type:    env.Type,
		Created: env.Created,
		Account: env.Account,
	}

	switch env.Type {
	case "checkout.session.completed":
		var sess domain.CheckoutSession
		if err := json.Unmarshal(env.Data.Object, &sess); err != nil {
			return nil, fmt.Errorf("%w: checkout session: %v", domain.ErrInvalidPayload, err)
		}
		if sess.Mode != "subscription" || sess.SubscriptionID == "" {
			return nil, domain.ErrEventIgnored
		}
		ev.Kind = domain.KindCheckoutCompleted
		ev.Checkout = &sess
		return ev, nil

	case "customer.subscription.created", "customer.subscription.updated":
		sub, err := decodeSubscription(env.Data.Object)
		if err != nil {
			return nil, err
		}
		ev.Kind = domain.KindSubscriptionChange
		ev.Subscription = sub
		return ev, nil

	case "customer.subscription.deleted":
		sub, err := decodeSubscription(env.Data.Object)
		if err != nil {
			return nil, err
		}
		ev.Kind = domain.KindSubscriptionDeleted
		ev.Subscription = sub
		return ev, nil

	default:
		return nil, domain.ErrEventIgnored
	}
}

func decodeSubscription(raw json.RawMessage) (*processor.Subscription, error) {
	var sub processor.Subscription
	if err := json.Unmarshal(raw, &sub); err != nil {
		return nil, fmt.Errorf("%w: subscription object: %v", domain.ErrInvalidPayload, err)
	}
	if sub.ID == "" {
		return nil, fmt.Errorf("%w: subscription object missing id", domain.ErrInvalidPayload)
	}
	return &sub, nil
}
