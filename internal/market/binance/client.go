package binance

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"crypto_rebalancer/internal/market"
)

// DefaultBaseURL is the Binance.US REST endpoint. The .us TLD matters:
// the global API rejects US-domiciled accounts.
const DefaultBaseURL = "https://api.binance.us"

const recvWindow = "5000"

// Client is a minimal signed REST client for the handful of Binance.US
// endpoints the rebalancer needs. It is safe for concurrent use; every
// call is an independent request on a shared http.Client.
type Client struct {
	apiKey    string
	apiSecret string
	baseURL   string
	http      *http.Client
}

func NewClient(apiKey, apiSecret string) *Client {
	return &Client{
		apiKey:    apiKey,
		apiSecret: apiSecret,
		baseURL:   DefaultBaseURL,
		http:      &http.Client{Timeout: 15 * time.Second},
	}
}

// sign computes the HMAC-SHA256 signature Binance requires on account
// and order endpoints.
func (c *Client) sign(query string) string {
	mac := hmac.New(sha256.New, []byte(c.apiSecret))
	mac.Write([]byte(query))
	return hex.EncodeToString(mac.Sum(nil))
}

// do issues a request and returns the raw response body. Non-2xx
// responses are translated into *market.APIError when the body carries
// Binance's {"code":..., "msg":...} shape.
func (c *Client) do(method, path string, params url.Values, signed bool) ([]byte, error) {
	if params == nil {
		params = url.Values{}
	}

	query := params.Encode()
	if signed {
		params.Set("timestamp", strconv.FormatInt(time.Now().UnixMilli(), 10))
		params.Set("recvWindow", recvWindow)
		query = params.Encode()
		query += "&signature=" + c.sign(query)
	}

	req, err := http.NewRequest(method, c.baseURL+path+"?"+query, nil)
	if err != nil {
		return nil, err
	}
	if c.apiKey != "" {
		req.Header.Set("X-MBX-APIKEY", c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr struct {
			Code int    `json:"code"`
			Msg  string `json:"msg"`
		}
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Msg != "" {
			return nil, &market.APIError{Code: apiErr.Code, Message: apiErr.Msg}
		}
		return nil, fmt.Errorf("binance: %s %s returned status %s", method, path, resp.Status)
	}

	return body, nil
}

// Wire types. Binance encodes every number as a string; the provider
// parses them into decimals at this boundary.

type accountResponse struct {
	Balances []struct {
		Asset  string `json:"asset"`
		Free   string `json:"free"`
		Locked string `json:"locked"`
	} `json:"balances"`
}

type depthResponse struct {
	// Each level is ["price", "quantity"].
	Bids [][]string `json:"bids"`
	Asks [][]string `json:"asks"`
}

type symbolFilter struct {
	FilterType  string `json:"filterType"`
	TickSize    string `json:"tickSize"`
	MinPrice    string `json:"minPrice"`
	MaxPrice    string `json:"maxPrice"`
	StepSize    string `json:"stepSize"`
	MinQty      string `json:"minQty"`
	MaxQty      string `json:"maxQty"`
	MinNotional string `json:"minNotional"`
}

type exchangeInfoResponse struct {
	Symbols []struct {
		Symbol    string         `json:"symbol"`
		BaseAsset string         `json:"baseAsset"`
		Filters   []symbolFilter `json:"filters"`
	} `json:"symbols"`
}

type aggTrade struct {
	Price string `json:"p"`
}

type orderAck struct {
	OrderID       int64  `json:"orderId"`
	ClientOrderID string `json:"clientOrderId"`
	Status        string `json:"status"`
}

func (c *Client) account() (*accountResponse, error) {
	body, err := c.do(http.MethodGet, "/api/v3/account", nil, true)
	if err != nil {
		return nil, err
	}
	var acct accountResponse
	if err := json.Unmarshal(body, &acct); err != nil {
		return nil, fmt.Errorf("binance: parse account response: %w", err)
	}
	return &acct, nil
}

func (c *Client) depth(marketSymbol string, limit int) (*depthResponse, error) {
	params := url.Values{}
	params.Set("symbol", marketSymbol)
	params.Set("limit", strconv.Itoa(limit))

	body, err := c.do(http.MethodGet, "/api/v3/depth", params, false)
	if err != nil {
		return nil, err
	}
	var d depthResponse
	if err := json.Unmarshal(body, &d); err != nil {
		return nil, fmt.Errorf("binance: parse depth response: %w", err)
	}
	return &d, nil
}

func (c *Client) exchangeInfo(marketSymbol string) (*exchangeInfoResponse, error) {
	params := url.Values{}
	params.Set("symbol", marketSymbol)

	body, err := c.do(http.MethodGet, "/api/v3/exchangeInfo", params, false)
	if err != nil {
		return nil, err
	}
	var info exchangeInfoResponse
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, fmt.Errorf("binance: parse exchangeInfo response: %w", err)
	}
	return &info, nil
}

func (c *Client) aggTrades(marketSymbol string, limit int) ([]aggTrade, error) {
	params := url.Values{}
	params.Set("symbol", marketSymbol)
	params.Set("limit", strconv.Itoa(limit))

	body, err := c.do(http.MethodGet, "/api/v3/aggTrades", params, false)
	if err != nil {
		return nil, err
	}
	// Oldest trade is at index 0.
	var trades []aggTrade
	if err := json.Unmarshal(body, &trades); err != nil {
		return nil, fmt.Errorf("binance: parse aggTrades response: %w", err)
	}
	return trades, nil
}

// newOrder submits a limit order. With test=true it hits the
// validation-only endpoint, which books nothing and returns an empty
// body on success.
func (c *Client) newOrder(params url.Values, test bool) (*orderAck, error) {
	path := "/api/v3/order"
	if test {
		path = "/api/v3/order/test"
	}

	body, err := c.do(http.MethodPost, path, params, true)
	if err != nil {
		return nil, err
	}

	if test {
		return &orderAck{Status: "TEST"}, nil
	}

	var ack orderAck
	if err := json.Unmarshal(body, &ack); err != nil {
		return nil, fmt.Errorf("binance: parse order response: %w", err)
	}
	return &ack, nil
}
