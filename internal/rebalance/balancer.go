package rebalance

import (
	"crypto_rebalancer/internal/allocation"
	"crypto_rebalancer/internal/models"

	"github.com/shopspring/decimal"
)

// Allocate decides how to spend investableCash across the positions so
// the resulting portfolio (current value + new cash) moves toward the
// spec's target weights. Buy-only: nothing is ever sold to fund
// another asset, so allocations are never negative.
//
// Each underweight asset's deficit (target value minus current value,
// floored at zero) is satisfied pro rata:
//
//	amount = investableCash * deficit / sum(deficits)
//
// Amounts are truncated to cents, which keeps the sum of allocations
// at or below investableCash. A fully balanced (or overweight)
// portfolio produces no purchases; that is a normal outcome, not an
// error.
//
// The input slice is not modified; a copy with AmountToInvest filled
// in is returned.
func Allocate(positions []models.AssetPosition, spec *allocation.Spec, investableCash decimal.Decimal) []models.AssetPosition {
	out := make([]models.AssetPosition, len(positions))
	copy(out, positions)
	for i := range out {
		out[i].AmountToInvest = decimal.Zero
	}

	if !investableCash.IsPositive() {
		return out
	}

	// Total value of the resulting portfolio: everything currently
	// held plus the new cash being deployed.
	totalValue := investableCash
	for _, pos := range out {
		totalValue = totalValue.Add(pos.Value)
	}

	// Deficit per weighted asset.
	deficits := make([]decimal.Decimal, len(out))
	deficitSum := decimal.Zero
	for i, pos := range out {
		w, ok := spec.Weight(pos.Symbol)
		if !ok || w == 0 {
			deficits[i] = decimal.Zero
			continue
		}

		target := decimal.NewFromFloat(w).Mul(totalValue)
		deficit := target.Sub(pos.Value)
		if deficit.IsNegative() {
			deficit = decimal.Zero
		}
		deficits[i] = deficit
		deficitSum = deficitSum.Add(deficit)
	}

	// At or above target everywhere: nothing to buy.
	if deficitSum.IsZero() {
		return out
	}

	for i := range out {
		if deficits[i].IsZero() {
			continue
		}
		share := investableCash.Mul(deficits[i]).Div(deficitSum)
		// Truncate to cents so the batch never overspends.
		out[i].AmountToInvest = share.RoundDown(2)
	}
	return out
}
