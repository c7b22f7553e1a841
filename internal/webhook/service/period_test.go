package service

import (
	"testing"
	"time"

	"github.com/fanvault/fanvault/internal/processor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	periodStart = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	periodEnd   = time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
)

func TestDerivePeriodFromDirectFields(t *testing.T) {
	sub := &processor.Subscription{
		ID:                 "sub_1",
		CurrentPeriodStart: periodStart.Unix(),
		CurrentPeriodEnd:   periodEnd.Unix(),
	}

	start, end, err := derivePeriod(sub)
	require.NoError(t, err)
	assert.Equal(t, periodStart, start.UTC())
	assert.Equal(t, periodEnd, end.UTC())
}

func TestDerivePeriodFromItemLevelFields(t *testing.T) {
	sub := &processor.Subscription{
		ID: "sub_1",
		Items: processor.ItemList{Data: []processor.SubscriptionItem{{
			CurrentPeriodStart: periodStart.Unix(),
			CurrentPeriodEnd:   periodEnd.Unix(),
		}}},
	}

	start, end, err := derivePeriod(sub)
	require.NoError(t, err)
	assert.Equal(t, periodStart, start.UTC())
	assert.Equal(t, periodEnd, end.UTC())
}

func TestDerivePeriodFromInvoiceLines(t *testing.T) {
	later := periodEnd.AddDate(0, 1, 0)
	sub := &processor.Subscription{
		ID:                 "sub_1",
		CurrentPeriodStart: periodStart.Unix(),
		LatestInvoice: &processor.Invoice{
			Lines: processor.InvoiceList{Data: []processor.InvoiceLine{
				{Period: processor.LinePeriod{End: periodEnd.Unix()}},
				{Period: processor.LinePeriod{End: later.Unix()}},
			}},
		},
	}

	_, end, err := derivePeriod(sub)
	require.NoError(t, err)
	assert.Equal(t, later, end.UTC(), "the maximum line period end wins")
}

func TestDerivePeriodFromRecurringInterval(t *testing.T) {
	cases := []struct {
		interval string
		count    int64
		want     time.Time
	}{
		{"month", 1, periodStart.AddDate(0, 1, 0)},
		{"month", 3, periodStart.AddDate(0, 3, 0)},
		{"day", 14, periodStart.AddDate(0, 0, 14)},
		{"week", 2, periodStart.AddDate(0, 0, 14)},
		{"year", 1, periodStart.AddDate(1, 0, 0)},
		{"month", 0, periodStart.AddDate(0, 1, 0)},
	}

	for _, tc := range cases {
		sub := &processor.Subscription{
			ID:                 "sub_1",
			CurrentPeriodStart: periodStart.Unix(),
			Items: processor.ItemList{Data: []processor.SubscriptionItem{{
				Price: processor.Price{
					ID:        "price_1",
					Recurring: &processor.Recurring{Interval: tc.interval, IntervalCount: tc.count},
				},
			}}},
		}

		_, end, err := derivePeriod(sub)
		require.NoError(t, err, "%s x %d", tc.interval, tc.count)
		assert.Equal(t, tc.want, end.UTC(), "%s x %d", tc.interval, tc.count)
	}
}

func TestDerivePeriodExhaustedFallbacks(t *testing.T) {
	sub := &processor.Subscription{ID: "sub_1", Status: "active"}
	_, _, err := derivePeriod(sub)
	assert.ErrorIs(t, err, ErrPeriodUnavailable)
}

func TestDerivePeriodUsesCancellationAsEnd(t *testing.T) {
	canceled := periodEnd.Add(12 * time.Hour)
	sub := &processor.Subscription{
		ID:                 "sub_1",
		CurrentPeriodStart: periodStart.Unix(),
		CanceledAt:         canceled.Unix(),
	}

	start, end, err := derivePeriod(sub)
	require.NoError(t, err)
	assert.Equal(t, periodStart, start.UTC())
	assert.Equal(t, canceled, end.UTC())
}

func TestRepairSynthesizesMissingStart(t *testing.T) {
	sub := &processor.Subscription{ID: "sub_1", CurrentPeriodEnd: periodEnd.Unix()}

	start, end, err := derivePeriod(sub)
	require.NoError(t, err)
	assert.Equal(t, periodEnd.Add(-60*time.Second), start.UTC())
	assert.Equal(t, periodEnd, end.UTC())
}

func TestRepairFixesInvertedPeriod(t *testing.T) {
	sub := &processor.Subscription{
		ID:                 "sub_1",
		CurrentPeriodStart: periodEnd.Unix(),
		CurrentPeriodEnd:   periodStart.Unix(),
	}

	start, end, err := derivePeriod(sub)
	require.NoError(t, err)
	assert.True(t, end.After(*start), "end must follow start strictly")
	assert.Equal(t, end.Add(-60*time.Second), *start)
}

func TestRepairFixesEqualPeriod(t *testing.T) {
	sub := &processor.Subscription{
		ID:                 "sub_1",
		CurrentPeriodStart: periodEnd.Unix(),
		CurrentPeriodEnd:   periodEnd.Unix(),
	}

	start, end, err := derivePeriod(sub)
	require.NoError(t, err)
	assert.True(t, end.After(*start))
}
