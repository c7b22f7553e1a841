package ratelimit

import (
	"context"

	"go.uber.org/zap"
)

const (
	webhookRate  = 50.0
	webhookBurst = 200
)

// WebhookLimiter throttles webhook deliveries per source address. A nil
// limiter admits everything, and so does a redis failure: dropping a signed
// delivery over a limiter outage would trade a throttling concern for lost
// state convergence.
type WebhookLimiter struct {
	bucket *TokenBucket
	log    *zap.Logger
}

func NewWebhookLimiter(bucket *TokenBucket, log *zap.Logger) *WebhookLimiter {
	if bucket == nil {
		return nil
	}
	return &WebhookLimiter{bucket: bucket, log: log.Named("ratelimit.webhook")}
}

func (l *WebhookLimiter) Allow(ctx context.Context, source string) bool {
	if l == nil || l.bucket == nil {
		return true
	}
	allowed, err := l.bucket.Allow(ctx, "ratelimit:webhook:"+source, webhookRate, webhookBurst)
	if err != nil {
		l.log.Warn("rate limiter unavailable, admitting delivery", zap.Error(err))
		return true
	}
	return allowed
}
