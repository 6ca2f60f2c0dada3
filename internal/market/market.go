package market

import (
	"fmt"

	"crypto_rebalancer/internal/models"

	"github.com/shopspring/decimal"
)

// ExchangeProvider defines the behavior the rebalancer needs from an
// exchange. Implementations translate exchange-specific records into
// the typed models at this boundary, so the core never sees tagged
// filter lists or string-encoded numbers. Having the interface here
// lets us swap Binance for Alpaca, or a spy for testing, without
// touching the pipeline.
type ExchangeProvider interface {
	// GetBalances returns every non-zero asset balance, including the
	// quote currency (cash).
	GetBalances() ([]models.Balance, error)

	// GetPrice returns the current price of one asset in the quote
	// currency.
	GetPrice(symbol string) (decimal.Decimal, error)

	// GetTradingRule returns the exchange's constraints for buying one
	// asset.
	GetTradingRule(symbol string) (*models.TradingRule, error)

	// SubmitOrder places a buy limit order. In test mode the exchange
	// validates the order without booking it.
	SubmitOrder(req models.OrderRequest, mode models.SubmitMode) (*models.OrderResponse, error)
}

// PriceSource is the pluggable pricing strategy. The exchange's own
// quote (order-book average) satisfies it, and so does the trade-curve
// forecaster.
type PriceSource interface {
	GetPrice(symbol string) (decimal.Decimal, error)
}

// APIError is an error the exchange itself returned, as opposed to a
// transport failure. Code and Message carry the exchange's own
// diagnostics verbatim.
type APIError struct {
	Code    int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("exchange error %d: %s", e.Code, e.Message)
}
