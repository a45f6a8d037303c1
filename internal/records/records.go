// Package records persists the terminal outputs of fulfillment runs: the
// write-once Fulfillment Record, per-order outcome summaries, and a
// fire-and-forget activity log.
package records

import (
	"time"

	"routineforge/internal/bundle"
	"routineforge/internal/delivery"
	"routineforge/internal/intake"
	"routineforge/internal/schedule"
)

// Record is the complete artifact and receipt set for one successfully
// fulfilled order. Written once, never mutated.
type Record struct {
	ID        string             `json:"id"`
	OrderID   string             `json:"order_id"`
	Intake    *intake.Intake     `json:"intake"`
	Narrative string             `json:"narrative"`
	Plan      bundle.Plan        `json:"plan"`
	Kit       schedule.Kit       `json:"kit"`
	Receipts  []delivery.Receipt `json:"receipts"`
	Links     []string           `json:"links"`
	CreatedAt time.Time          `json:"created_at"`
}

// Outcome is a per-run summary row, written for successes and failures
// alike.
type Outcome struct {
	OrderID   string    `json:"order_id"`
	Status    string    `json:"status"` // success, error
	Links     []string  `json:"links"`
	Detail    string    `json:"detail,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
