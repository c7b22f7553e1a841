package service

import (
	"context"
	"errors"
	"time"

	"github.com/fanvault/fanvault/internal/processor"
	"go.uber.org/zap"
)

// unixTime converts a processor epoch-seconds field, treating zero as absent.
func unixTime(sec int64) *time.Time {
	if sec <= 0 {
		return nil
	}
	t := time.Unix(sec, 0).UTC()
	return &t
}

// periodFromObject reads the billing window straight off a subscription
// object. The period may live at the subscription level or, on newer API
// versions, on the first item. Cancellation timestamps stand in for a missing
// period end.
func periodFromObject(sub *processor.Subscription) (start, end *time.Time) {
	start = unixTime(sub.CurrentPeriodStart)
	end = unixTime(sub.CurrentPeriodEnd)

	if len(sub.Items.Data) > 0 {
		item := sub.Items.Data[0]
		if start == nil {
			start = unixTime(item.CurrentPeriodStart)
		}
		if end == nil {
			end = unixTime(item.CurrentPeriodEnd)
		}
	}

	if end == nil {
		end = unixTime(sub.EndedAt)
	}
	if end == nil {
		end = unixTime(sub.CanceledAt)
	}
	return start, end
}

// periodFromInvoiceLines derives the period end as the maximum line period
// end across the latest invoice.
func periodFromInvoiceLines(sub *processor.Subscription) *time.Time {
	if sub.LatestInvoice == nil {
		return nil
	}
	var max *time.Time
	for _, line := range sub.LatestInvoice.Lines.Data {
		if t := unixTime(line.Period.End); t != nil && (max == nil || t.After(*max)) {
			max = t
		}
	}
	return max
}

// periodFromInterval projects the period end forward from a known start using
// the recurring price's interval.
func periodFromInterval(sub *processor.Subscription, start *time.Time) *time.Time {
	if start == nil || len(sub.Items.Data) == 0 {
		return nil
	}
	rec := sub.Items.Data[0].Price.Recurring
	if rec == nil {
		return nil
	}
	count := int(rec.IntervalCount)
	if count <= 0 {
		count = 1
	}

	var end time.Time
	switch rec.Interval {
	case "day":
		end = start.AddDate(0, 0, count)
	case "week":
		end = start.AddDate(0, 0, 7*count)
	case "month":
		end = start.AddDate(0, count, 0)
	case "year":
		end = start.AddDate(count, 0, 0)
	default:
		return nil
	}
	return &end
}

// repairPeriod enforces the strict start < end invariant. A missing or
// non-increasing start is re-synthesized just before the known end.
func repairPeriod(start, end *time.Time) (*time.Time, *time.Time) {
	if end == nil {
		return start, end
	}
	if start == nil || !end.After(*start) {
		s := end.Add(-60 * time.Second)
		start = &s
	}
	return start, end
}

// authoritative trades the event payload for the processor's current object.
// Deliveries arrive out of order, and even a payload that carries its own
// period can describe a state the processor has since moved past, so the
// re-fetch replaces it wholesale whenever a client is configured. When the
// fetch is unavailable the payload is all there is.
func (s *service) authoritative(ctx context.Context, sub *processor.Subscription, accountID string) *processor.Subscription {
	full, err := s.client.GetSubscription(ctx, sub.ID, accountID)
	switch {
	case err == nil:
		return full
	case errors.Is(err, processor.ErrNotConfigured):
	default:
		s.log.Warn("subscription re-fetch failed",
			zap.String("subscription_id", sub.ID),
			zap.Error(err))
	}
	return sub
}

// derivePeriod runs the fallback chain over a single object: direct fields,
// invoice line periods, then interval arithmetic. The returned pair always
// satisfies start < end; ErrPeriodUnavailable means no fallback produced an
// end.
func derivePeriod(sub *processor.Subscription) (*time.Time, *time.Time, error) {
	start, end := periodFromObject(sub)
	if end == nil {
		end = periodFromInvoiceLines(sub)
	}
	if end == nil {
		end = periodFromInterval(sub, start)
	}
	if end == nil {
		return nil, nil, ErrPeriodUnavailable
	}

	start, end = repairPeriod(start, end)
	return start, end, nil
}
