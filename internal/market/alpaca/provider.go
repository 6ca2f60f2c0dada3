package alpaca

import (
	"fmt"
	"strings"

	"crypto_rebalancer/internal/market"
	"crypto_rebalancer/internal/models"

	"github.com/alpacahq/alpaca-trade-api-go/v3/alpaca"
	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"
	"github.com/shopspring/decimal"
)

// Provider implements market.ExchangeProvider against Alpaca's crypto
// API. The clients read their API keys from the environment variables
// validated by the config package.
type Provider struct {
	mdClient    *marketdata.Client
	tradeClient *alpaca.Client
}

var _ market.ExchangeProvider = (*Provider)(nil)

func NewProvider() *Provider {
	return &Provider{
		mdClient:    marketdata.NewClient(marketdata.ClientOpts{}),
		tradeClient: alpaca.NewClient(alpaca.ClientOpts{}),
	}
}

// marketSymbol maps an asset symbol to Alpaca's pair notation,
// e.g. BTC -> BTC/USD.
func marketSymbol(symbol string) string {
	return symbol + "/USD"
}

// assetSymbol undoes marketSymbol for position records, which come back
// as either BTC/USD or BTCUSD depending on the endpoint.
func assetSymbol(s string) string {
	s = strings.TrimSuffix(s, "/USD")
	return strings.TrimSuffix(s, "USD")
}

// GetBalances reports account cash as a USD balance plus one balance
// per open position.
func (p *Provider) GetBalances() ([]models.Balance, error) {
	acct, err := p.tradeClient.GetAccount()
	if err != nil {
		return nil, err
	}

	balances := []models.Balance{
		{Symbol: "USD", Free: acct.Cash},
	}

	positions, err := p.tradeClient.GetPositions()
	if err != nil {
		return nil, err
	}
	for _, pos := range positions {
		if pos.Qty.IsPositive() {
			balances = append(balances, models.Balance{
				Symbol: assetSymbol(pos.Symbol),
				Free:   pos.Qty,
			})
		}
	}
	return balances, nil
}

// GetPrice returns the latest crypto trade price.
func (p *Provider) GetPrice(symbol string) (decimal.Decimal, error) {
	trade, err := p.mdClient.GetLatestCryptoTrade(marketSymbol(symbol), marketdata.GetLatestCryptoTradeRequest{})
	if err != nil {
		return decimal.Zero, err
	}
	if trade == nil {
		return decimal.Zero, fmt.Errorf("alpaca: no trade found for %s", symbol)
	}
	return decimal.NewFromFloat(trade.Price), nil
}

// GetTradingRule returns Alpaca's crypto order constraints. The SDK
// does not expose per-asset increments, so this uses the documented
// platform-wide bounds: $1 minimum order, nine decimal places of
// quantity precision, two of price.
func (p *Provider) GetTradingRule(symbol string) (*models.TradingRule, error) {
	return &models.TradingRule{
		Symbol:      symbol,
		TickSize:    decimal.New(1, -2), // 0.01
		MinPrice:    decimal.New(1, -2),
		MaxPrice:    decimal.New(1, 9),
		StepSize:    decimal.New(1, -9), // 0.000000001
		MinQty:      decimal.New(1, -9),
		MaxQty:      decimal.New(1, 9),
		MinNotional: decimal.NewFromInt(1),
	}, nil
}

// SubmitOrder places a GTC buy limit order. Alpaca has no
// validation-only endpoint, so test mode is a client-side dry run that
// returns a synthetic acknowledgment without touching the API.
func (p *Provider) SubmitOrder(req models.OrderRequest, mode models.SubmitMode) (*models.OrderResponse, error) {
	if mode == models.ModeTest {
		return &models.OrderResponse{
			ClientOrderID: req.ClientOrderID,
			Status:        "TEST",
		}, nil
	}

	qty := req.Quantity
	limit := req.Price
	order, err := p.tradeClient.PlaceOrder(alpaca.PlaceOrderRequest{
		Symbol:        marketSymbol(req.Symbol),
		Qty:           &qty,
		Side:          alpaca.Buy,
		Type:          alpaca.Limit,
		LimitPrice:    &limit,
		TimeInForce:   alpaca.GTC,
		ClientOrderID: req.ClientOrderID,
	})
	if err != nil {
		return nil, err
	}

	return &models.OrderResponse{
		OrderID:       order.ID,
		ClientOrderID: order.ClientOrderID,
		Status:        string(order.Status),
	}, nil
}

// RecentTradePrices returns the last n crypto trade prices, oldest
// first. Used by the forecast price source.
func (p *Provider) RecentTradePrices(symbol string, limit int) ([]decimal.Decimal, error) {
	trades, err := p.mdClient.GetCryptoTrades(marketSymbol(symbol), marketdata.GetCryptoTradesRequest{
		TotalLimit: limit,
	})
	if err != nil {
		return nil, err
	}

	prices := make([]decimal.Decimal, 0, len(trades))
	for _, t := range trades {
		prices = append(prices, decimal.NewFromFloat(t.Price))
	}
	return prices, nil
}
