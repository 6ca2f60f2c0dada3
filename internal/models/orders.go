package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// SubmitMode selects between the exchange's validation-only endpoint and
// a real order. It is fixed before any order is submitted and applied
// uniformly to the whole batch.
type SubmitMode string

const (
	ModeTest SubmitMode = "test"
	ModeLive SubmitMode = "live"
)

// Outcome classifies the fate of a single order.
type Outcome string

const (
	// OutcomeSuccess: the exchange accepted the order.
	OutcomeSuccess Outcome = "SUCCESS"
	// OutcomeRejected: the order failed local validation against its
	// TradingRule and was never sent to the exchange.
	OutcomeRejected Outcome = "REJECTED"
	// OutcomeFailed: the remote call was attempted and failed.
	OutcomeFailed Outcome = "FAILED"
)

// OrderRequest is a fully rounded and validated buy order, ready for
// submission. Ephemeral: consumed by the executor and discarded.
type OrderRequest struct {
	Symbol        string          `json:"symbol"`
	Quantity      decimal.Decimal `json:"quantity"`
	Price         decimal.Decimal `json:"price"`
	ClientOrderID string          `json:"client_order_id"`
}

// Notional returns Price * Quantity in the quote currency.
func (r OrderRequest) Notional() decimal.Decimal {
	return r.Price.Mul(r.Quantity)
}

// OrderResponse is the exchange's acknowledgment of a submitted order.
type OrderResponse struct {
	OrderID       string `json:"order_id"`
	ClientOrderID string `json:"client_order_id"`
	Status        string `json:"status"`
}

// OrderResult records the fate of one candidate order. Exactly one is
// produced per candidate, regardless of outcome, and it is never
// mutated after creation.
type OrderResult struct {
	Symbol   string          `json:"symbol"`
	Quantity decimal.Decimal `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
	Notional decimal.Decimal `json:"notional"`
	Outcome  Outcome         `json:"outcome"`
	Reason   string          `json:"reason,omitempty"`
	Response *OrderResponse  `json:"response,omitempty"`
}

// BatchReport is the final, auditable outcome of a rebalancing run.
type BatchReport struct {
	Timestamp      time.Time       `json:"timestamp"`
	Mode           SubmitMode      `json:"mode"`
	InvestableCash decimal.Decimal `json:"investable_cash"`
	Results        []OrderResult   `json:"results"`
	TotalSpent     decimal.Decimal `json:"total_spent"` // successes only
	SuccessCount   int             `json:"success_count"`
	RejectedCount  int             `json:"rejected_count"`
	FailedCount    int             `json:"failed_count"`
}
