// Package processor models the payment processor's subscription objects and
// the API used to re-fetch them. Event payloads deserialize into the same
// types, so partial webhook payloads and full API responses are interchangeable.
package processor

import "encoding/json"

// ObjectID unmarshals fields the processor serializes either as a bare id
// string or as an expanded object with an "id" field.
type ObjectID string

func (o *ObjectID) UnmarshalJSON(data []byte) error {
	if len(data) == 0 || string(data) == "null" {
		*o = ""
		return nil
	}

	var id string
	if err := json.Unmarshal(data, &id); err == nil {
		*o = ObjectID(id)
		return nil
	}

	var obj struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	*o = ObjectID(obj.ID)
	return nil
}

func (o ObjectID) String() string { return string(o) }

// Subscription is the processor's subscription object. Fields the webhook
// payload omits stay zero; callers that need them re-fetch the full object.
type Subscription struct {
	ID                 string            `json:"id"`
	Status             string            `json:"status"`
	Customer           ObjectID          `json:"customer"`
	CancelAtPeriodEnd  bool              `json:"cancel_at_period_end"`
	CanceledAt         int64             `json:"canceled_at"`
	EndedAt            int64             `json:"ended_at"`
	CurrentPeriodStart int64             `json:"current_period_start"`
	CurrentPeriodEnd   int64             `json:"current_period_end"`
	Created            int64             `json:"created"`
	Metadata           map[string]string `json:"metadata"`
	Items              ItemList          `json:"items"`
	LatestInvoice      *Invoice          `json:"latest_invoice"`
}

type ItemList struct {
	Data []SubscriptionItem `json:"data"`
}

// SubscriptionItem carries the price and, on newer API versions, the
// item-level billing period.
type SubscriptionItem struct {
	Price              Price `json:"price"`
	CurrentPeriodStart int64 `json:"current_period_start"`
	CurrentPeriodEnd   int64 `json:"current_period_end"`
}

type Price struct {
	ID        string     `json:"id"`
	Recurring *Recurring `json:"recurring"`
}

type Recurring struct {
	Interval      string `json:"interval"`
	IntervalCount int64  `json:"interval_count"`
}

type Invoice struct {
	ID    string      `json:"id"`
	Lines InvoiceList `json:"lines"`
}

type InvoiceList struct {
	Data []InvoiceLine `json:"data"`
}

type InvoiceLine struct {
	Period LinePeriod `json:"period"`
}

type LinePeriod struct {
	Start int64 `json:"start"`
	End   int64 `json:"end"`
}

// Meta returns a metadata value, tolerating a nil map.
func (s *Subscription) Meta(key string) string {
	if s == nil || s.Metadata == nil {
		return ""
	}
	return s.Metadata[key]
}

// FirstPriceID returns the price id of the first line item, or "".
func (s *Subscription) FirstPriceID() string {
	if s == nil || len(s.Items.Data) == 0 {
		return ""
	}
	return s.Items.Data[0].Price.ID
}
