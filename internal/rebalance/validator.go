package rebalance

import (
	"fmt"

	"crypto_rebalancer/internal/models"

	"github.com/shopspring/decimal"
)

// RoundStep truncates value down onto the step grid: the largest
// multiple of step that does not exceed value. Rounding never goes up,
// so rounded quantities and prices never exceed the caller's budget,
// and re-rounding an already rounded value is a no-op. A zero step
// leaves the value untouched.
func RoundStep(value, step decimal.Decimal) decimal.Decimal {
	if step.IsZero() {
		return value
	}
	// QuoRem with precision 0 gives the exact integer quotient, which
	// avoids the round-half behavior of decimal division.
	q, _ := value.QuoRem(step, 0)
	return q.Mul(step)
}

// BuildOrder rounds a funded position into an order request and checks
// it against the symbol's trading rule.
//
// The checks run in a fixed priority order and the first violated
// bound wins, so a candidate is rejected for exactly one reason:
// price-low, price-high, qty-low, qty-high, then notional. A rejection
// is data, not an error: it produces an OrderResult with outcome
// Rejected and no remote call is ever made for it.
func BuildOrder(pos models.AssetPosition, price decimal.Decimal, rule *models.TradingRule) (*models.OrderRequest, *models.OrderResult) {
	limitPrice := RoundStep(price, rule.TickSize)

	// Price bounds come before the division: a degenerate zero quote
	// from a provider must reject like any other below-minimum price.
	if !limitPrice.IsPositive() || limitPrice.LessThan(rule.MinPrice) {
		return nil, rejected(pos.Symbol, decimal.Zero, limitPrice, decimal.Zero,
			fmt.Sprintf("price %s below minimum %s", limitPrice, rule.MinPrice))
	}
	if limitPrice.GreaterThan(rule.MaxPrice) {
		return nil, rejected(pos.Symbol, decimal.Zero, limitPrice, decimal.Zero,
			fmt.Sprintf("price %s above maximum %s", limitPrice, rule.MaxPrice))
	}

	quantity := RoundStep(pos.AmountToInvest.Div(price), rule.StepSize)
	notional := limitPrice.Mul(quantity)

	var reason string
	switch {
	case quantity.LessThan(rule.MinQty):
		reason = fmt.Sprintf("quantity %s below minimum %s", quantity, rule.MinQty)
	case quantity.GreaterThan(rule.MaxQty):
		reason = fmt.Sprintf("quantity %s above maximum %s", quantity, rule.MaxQty)
	case notional.LessThan(rule.MinNotional):
		reason = fmt.Sprintf("notional %s below minimum %s", notional, rule.MinNotional)
	}

	if reason != "" {
		return nil, rejected(pos.Symbol, quantity, limitPrice, notional, reason)
	}

	return &models.OrderRequest{
		Symbol:   pos.Symbol,
		Quantity: quantity,
		Price:    limitPrice,
	}, nil
}

func rejected(symbol string, quantity, price, notional decimal.Decimal, reason string) *models.OrderResult {
	return &models.OrderResult{
		Symbol:   symbol,
		Quantity: quantity,
		Price:    price,
		Notional: notional,
		Outcome:  models.OutcomeRejected,
		Reason:   reason,
	}
}
