package server

import (
	"errors"
	"io"
	"net/http"

	webhookdomain "github.com/fanvault/fanvault/internal/webhook/domain"
	"github.com/fanvault/fanvault/internal/webhook/stripe"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// maxWebhookBody caps the raw payload read. The processor's events are far
// below this.
const maxWebhookBody = 256 << 10

// HandleStripeWebhook is the ingest endpoint for processor deliveries.
//
// Response policy: 400 only for signature failures, 429 when throttled, and
// 200 for everything else. Returning an error status for a processing
// failure would put the delivery on the processor's retry schedule forever,
// so downstream failures are logged and acknowledged instead.
func (s *Server) HandleStripeWebhook(c *gin.Context) {
	if !s.limiter.Allow(c.Request.Context(), c.ClientIP()) {
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "rate limited"})
		return
	}

	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		s.log.Warn("failed to read webhook body", zap.Error(err))
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
		return
	}

	err = s.webhookSvc.IngestWebhook(c.Request.Context(), payload, c.GetHeader(stripe.SignatureHeader))
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	case errors.Is(err, webhookdomain.ErrInvalidSignature):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid signature"})
	case errors.Is(err, webhookdomain.ErrEventIgnored),
		errors.Is(err, webhookdomain.ErrEventAlreadyProcessed):
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	default:
		s.log.Error("webhook processing failed", zap.Error(err))
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
