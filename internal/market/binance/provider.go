package binance

import (
	"fmt"
	"net/url"
	"strconv"

	"crypto_rebalancer/internal/market"
	"crypto_rebalancer/internal/models"

	"github.com/shopspring/decimal"
)

// QuoteSymbol is the currency every purchase is priced in. All market
// symbols are derived as <asset><quote>, e.g. BTC -> BTCUSD.
const QuoteSymbol = "USD"

// depthLimit is how many top-of-book bids go into the price average.
const depthLimit = 15

// Provider implements market.ExchangeProvider against Binance.US.
type Provider struct {
	client *Client
}

var _ market.ExchangeProvider = (*Provider)(nil)

func NewProvider(apiKey, apiSecret string) *Provider {
	return &Provider{client: NewClient(apiKey, apiSecret)}
}

func marketSymbol(symbol string) string {
	return symbol + QuoteSymbol
}

// GetBalances returns every balance with a non-zero total, cash
// included.
func (p *Provider) GetBalances() ([]models.Balance, error) {
	acct, err := p.client.account()
	if err != nil {
		return nil, err
	}

	var balances []models.Balance
	for _, b := range acct.Balances {
		free, err := decimal.NewFromString(b.Free)
		if err != nil {
			return nil, fmt.Errorf("binance: bad free balance for %s: %w", b.Asset, err)
		}
		locked, err := decimal.NewFromString(b.Locked)
		if err != nil {
			return nil, fmt.Errorf("binance: bad locked balance for %s: %w", b.Asset, err)
		}

		bal := models.Balance{Symbol: b.Asset, Free: free, Locked: locked}
		if bal.Total().IsPositive() {
			balances = append(balances, bal)
		}
	}
	return balances, nil
}

// GetPrice averages the top bids of the order book. Buying at the bid
// average keeps limit orders close to where the market is actually
// willing to trade.
func (p *Provider) GetPrice(symbol string) (decimal.Decimal, error) {
	d, err := p.client.depth(marketSymbol(symbol), depthLimit)
	if err != nil {
		return decimal.Zero, err
	}
	if len(d.Bids) == 0 {
		return decimal.Zero, fmt.Errorf("binance: no bids in order book for %s", symbol)
	}

	sum := decimal.Zero
	for _, level := range d.Bids {
		price, err := decimal.NewFromString(level[0])
		if err != nil {
			return decimal.Zero, fmt.Errorf("binance: bad bid price for %s: %w", symbol, err)
		}
		sum = sum.Add(price)
	}
	return sum.Div(decimal.NewFromInt(int64(len(d.Bids)))), nil
}

// GetTradingRule fetches the symbol's filter list and translates the
// tagged records into a typed TradingRule once, at this boundary.
func (p *Provider) GetTradingRule(symbol string) (*models.TradingRule, error) {
	info, err := p.client.exchangeInfo(marketSymbol(symbol))
	if err != nil {
		return nil, err
	}
	if len(info.Symbols) == 0 {
		return nil, fmt.Errorf("binance: no exchange info for %s", symbol)
	}
	return ruleFromFilters(symbol, info.Symbols[0].Filters)
}

// ruleFromFilters translates Binance's tagged filter list into a
// TradingRule. PRICE_FILTER and LOT_SIZE are mandatory; the notional
// filter has appeared under two tags over the API's lifetime.
func ruleFromFilters(symbol string, filters []symbolFilter) (*models.TradingRule, error) {
	rule := &models.TradingRule{Symbol: symbol}

	var havePrice, haveLot bool
	for _, f := range filters {
		switch f.FilterType {
		case "PRICE_FILTER":
			var err error
			if rule.TickSize, err = decimal.NewFromString(f.TickSize); err != nil {
				return nil, fmt.Errorf("binance: bad tickSize for %s: %w", symbol, err)
			}
			if rule.MinPrice, err = decimal.NewFromString(f.MinPrice); err != nil {
				return nil, fmt.Errorf("binance: bad minPrice for %s: %w", symbol, err)
			}
			if rule.MaxPrice, err = decimal.NewFromString(f.MaxPrice); err != nil {
				return nil, fmt.Errorf("binance: bad maxPrice for %s: %w", symbol, err)
			}
			havePrice = true
		case "LOT_SIZE":
			var err error
			if rule.StepSize, err = decimal.NewFromString(f.StepSize); err != nil {
				return nil, fmt.Errorf("binance: bad stepSize for %s: %w", symbol, err)
			}
			if rule.MinQty, err = decimal.NewFromString(f.MinQty); err != nil {
				return nil, fmt.Errorf("binance: bad minQty for %s: %w", symbol, err)
			}
			if rule.MaxQty, err = decimal.NewFromString(f.MaxQty); err != nil {
				return nil, fmt.Errorf("binance: bad maxQty for %s: %w", symbol, err)
			}
			haveLot = true
		case "MIN_NOTIONAL", "NOTIONAL":
			if f.MinNotional != "" {
				var err error
				if rule.MinNotional, err = decimal.NewFromString(f.MinNotional); err != nil {
					return nil, fmt.Errorf("binance: bad minNotional for %s: %w", symbol, err)
				}
			}
		}
	}

	if !havePrice || !haveLot {
		return nil, fmt.Errorf("binance: incomplete filters for %s (PRICE_FILTER=%v LOT_SIZE=%v)", symbol, havePrice, haveLot)
	}
	return rule, nil
}

// SubmitOrder places a GTC buy limit order, or validates it against the
// test endpoint when mode is test.
func (p *Provider) SubmitOrder(req models.OrderRequest, mode models.SubmitMode) (*models.OrderResponse, error) {
	params := url.Values{}
	params.Set("symbol", marketSymbol(req.Symbol))
	params.Set("side", "BUY")
	params.Set("type", "LIMIT")
	params.Set("timeInForce", "GTC")
	params.Set("quantity", req.Quantity.String())
	params.Set("price", req.Price.String())
	if req.ClientOrderID != "" {
		params.Set("newClientOrderId", req.ClientOrderID)
	}

	ack, err := p.client.newOrder(params, mode == models.ModeTest)
	if err != nil {
		return nil, err
	}

	resp := &models.OrderResponse{
		ClientOrderID: ack.ClientOrderID,
		Status:        ack.Status,
	}
	if resp.ClientOrderID == "" {
		resp.ClientOrderID = req.ClientOrderID
	}
	if ack.OrderID != 0 {
		resp.OrderID = strconv.FormatInt(ack.OrderID, 10)
	}
	return resp, nil
}

// RecentTradePrices returns the last n trade prices, oldest first. Used
// by the forecast price source.
func (p *Provider) RecentTradePrices(symbol string, limit int) ([]decimal.Decimal, error) {
	trades, err := p.client.aggTrades(marketSymbol(symbol), limit)
	if err != nil {
		return nil, err
	}

	prices := make([]decimal.Decimal, 0, len(trades))
	for _, t := range trades {
		price, err := decimal.NewFromString(t.Price)
		if err != nil {
			return nil, fmt.Errorf("binance: bad trade price for %s: %w", symbol, err)
		}
		prices = append(prices, price)
	}
	return prices, nil
}
