package forecast

import (
	"fmt"
	"log"

	"crypto_rebalancer/internal/market"

	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/mat"
)

// TradeHistory supplies recent trade prices, oldest first. Both
// exchange providers implement it.
type TradeHistory interface {
	RecentTradePrices(symbol string, limit int) ([]decimal.Decimal, error)
}

const (
	defaultLimit  = 50
	defaultDegree = 5
)

// Forecaster is a market.PriceSource that extrapolates the short-term
// trade curve: it least-squares fits a polynomial through the last
// `limit` trade prices and evaluates it just past the window.
// It is a drop-in alternative to the order-book average price.
type Forecaster struct {
	history TradeHistory
	limit   int
	degree  int
}

var _ market.PriceSource = (*Forecaster)(nil)

func New(history TradeHistory) *Forecaster {
	return &Forecaster{
		history: history,
		limit:   defaultLimit,
		degree:  defaultDegree,
	}
}

// GetPrice returns the projected price for symbol.
func (f *Forecaster) GetPrice(symbol string) (decimal.Decimal, error) {
	prices, err := f.history.RecentTradePrices(symbol, f.limit)
	if err != nil {
		return decimal.Zero, err
	}
	if len(prices) < f.degree+1 {
		return decimal.Zero, fmt.Errorf("forecast: only %d trades for %s, need at least %d", len(prices), symbol, f.degree+1)
	}

	samples := make([]float64, len(prices))
	for i, p := range prices {
		samples[i], _ = p.Float64()
	}

	// Trades are indexed 0..n-1; the projection point is x = n+1.
	predicted, err := fitAndEval(samples, f.degree, float64(len(samples)+1))
	if err != nil {
		return decimal.Zero, fmt.Errorf("forecast: fit failed for %s: %w", symbol, err)
	}
	if predicted <= 0 {
		return decimal.Zero, fmt.Errorf("forecast: non-positive projection %.6f for %s", predicted, symbol)
	}

	log.Printf("Forecast %s: $%.4f (from %d trades)", symbol, predicted, len(samples))
	return decimal.NewFromFloat(predicted), nil
}

// fitAndEval solves the least-squares polynomial fit of the samples at
// x = 0..n-1 and evaluates the polynomial at x.
func fitAndEval(samples []float64, degree int, x float64) (float64, error) {
	n := len(samples)

	// Vandermonde matrix: row i is [1, i, i^2, ... i^degree].
	a := mat.NewDense(n, degree+1, nil)
	for i := 0; i < n; i++ {
		v := 1.0
		for j := 0; j <= degree; j++ {
			a.Set(i, j, v)
			v *= float64(i)
		}
	}
	y := mat.NewVecDense(n, samples)

	var qr mat.QR
	qr.Factorize(a)

	coeffs := mat.NewVecDense(degree+1, nil)
	if err := qr.SolveVecTo(coeffs, false, y); err != nil {
		return 0, err
	}

	// Horner evaluation at x.
	result := 0.0
	for j := degree; j >= 0; j-- {
		result = result*x + coeffs.AtVec(j)
	}
	return result, nil
}
