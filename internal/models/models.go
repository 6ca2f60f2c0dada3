package models

import "github.com/shopspring/decimal"

// Balance is a single asset balance as reported by the exchange.
// Free is the spendable quantity, Locked is tied up in open orders.
type Balance struct {
	Symbol string          `json:"symbol"`
	Free   decimal.Decimal `json:"free"`
	Locked decimal.Decimal `json:"locked"`
}

// Total returns the full held quantity (free + locked).
func (b Balance) Total() decimal.Decimal {
	return b.Free.Add(b.Locked)
}

// AssetPosition is one asset of the portfolio for the current run.
// It is rebuilt from live balances and prices on every invocation and
// never persisted.
type AssetPosition struct {
	Symbol   string          `json:"symbol"`
	Quantity decimal.Decimal `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
	Value    decimal.Decimal `json:"value"` // Quantity * Price, quote currency

	// AmountToInvest is the new cash assigned to this asset by the
	// balancer. Zero for assets not being bought this cycle.
	AmountToInvest decimal.Decimal `json:"amount_to_invest"`
}

// TradingRule holds the per-symbol constraints an order must satisfy.
// Populated once per run from the exchange's filter data and read-only
// afterwards.
type TradingRule struct {
	Symbol      string          `json:"symbol"`
	TickSize    decimal.Decimal `json:"tick_size"`
	MinPrice    decimal.Decimal `json:"min_price"`
	MaxPrice    decimal.Decimal `json:"max_price"`
	StepSize    decimal.Decimal `json:"step_size"`
	MinQty      decimal.Decimal `json:"min_qty"`
	MaxQty      decimal.Decimal `json:"max_qty"`
	MinNotional decimal.Decimal `json:"min_notional"`
}
