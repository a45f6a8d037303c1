// Package intake normalizes heterogeneous commerce events into a canonical
// Order Intake. Input is either an expandable checkout session (line items,
// price metadata) or a flat field map from an intake form; output is always
// the same Intake shape the rest of the pipeline consumes.
package intake

import (
	"time"
)

// Tier is the purchased service level.
type Tier string

const (
	TierMini Tier = "mini"
	TierLite Tier = "lite"
	TierFull Tier = "full"
)

// FulfillmentType describes how artifacts reach the customer.
type FulfillmentType string

const (
	FulfillmentDigital     FulfillmentType = "digital"
	FulfillmentPhysical    FulfillmentType = "physical"
	FulfillmentCricutReady FulfillmentType = "cricut-ready"
)

// Cohort is the age-bracket classification driving personalization defaults.
type Cohort string

const (
	CohortChild Cohort = "child"
	CohortTeen  Cohort = "teen"
	CohortAdult Cohort = "adult"
	CohortElder Cohort = "elder"
)

// Customer identifies the purchaser.
type Customer struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Handle    string `json:"handle,omitempty"` // direct-message handle, if known
}

// Intake is the canonical normalized order.
type Intake struct {
	OrderID     string            `json:"order_id"`
	Tier        Tier              `json:"tier"`
	AddOns      []string          `json:"add_ons"`
	Fulfillment FulfillmentType   `json:"fulfillment"`
	Customer    Customer          `json:"customer"`
	Cohort      Cohort            `json:"cohort"`
	BirthDate   string            `json:"birth_date,omitempty"`
	Preferences map[string]string `json:"preferences"`
	ReceivedAt  time.Time         `json:"received_at"`
}

// HasAddOn reports whether the named add-on was detected.
func (it *Intake) HasAddOn(name string) bool {
	for _, a := range it.AddOns {
		if a == name {
			return true
		}
	}
	return false
}

// Pref returns the first non-empty preference among the given keys.
func (it *Intake) Pref(keys ...string) string {
	for _, k := range keys {
		if v, ok := it.Preferences[k]; ok && v != "" {
			return v
		}
	}
	return ""
}

// LineItem is one purchased item in a checkout session.
type LineItem struct {
	SKU         string            `json:"sku"`
	Description string            `json:"description"`
	Quantity    int               `json:"quantity"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// Session is an expanded checkout session from the event source.
type Session struct {
	ID            string            `json:"id"`
	CustomerEmail string            `json:"customer_email"`
	CustomerName  string            `json:"customer_name"`
	LineItems     []LineItem        `json:"line_items"`
	Metadata      map[string]string `json:"metadata"`
}

// FieldMap is a flat intake-form submission.
type FieldMap map[string]string
