package rebalance

import (
	"fmt"
	"log"
	"sync"

	"crypto_rebalancer/internal/allocation"
	"crypto_rebalancer/internal/market"
	"crypto_rebalancer/internal/models"

	"github.com/shopspring/decimal"
)

// CashSymbol is the quote currency balance everything is funded from.
const CashSymbol = "USD"

// FetchError means a required preflight lookup failed. It is fatal for
// the run: no order is placed when the portfolio picture is incomplete.
type FetchError struct {
	Stage  string // "balances", "price" or "rule"
	Symbol string // empty for balance fetches
	Err    error
}

func (e *FetchError) Error() string {
	if e.Symbol != "" {
		return fmt.Sprintf("fetch %s for %s: %v", e.Stage, e.Symbol, e.Err)
	}
	return fmt.Sprintf("fetch %s: %v", e.Stage, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// RunParams is the run-scoped configuration. It is fixed before any
// concurrent work starts and never mutated during the run, so the
// concurrent fetch and submit phases share it without locks.
type RunParams struct {
	// Mode is applied uniformly to every order in the batch.
	Mode models.SubmitMode

	// RequestedCash is the most the operator wants to invest this run.
	// The actual investable amount is capped by the available cash
	// balance minus CashReserve.
	RequestedCash decimal.Decimal

	// CashReserve is left untouched in the account.
	CashReserve decimal.Decimal
}

// Rebalancer wires the pipeline together: fetch, balance, validate,
// execute, aggregate. Stateless between runs; every input is
// re-fetched on each call to Run.
type Rebalancer struct {
	provider market.ExchangeProvider
	prices   market.PriceSource
	spec     *allocation.Spec
	executor *Executor
}

func New(provider market.ExchangeProvider, prices market.PriceSource, spec *allocation.Spec) *Rebalancer {
	return &Rebalancer{
		provider: provider,
		prices:   prices,
		spec:     spec,
		executor: NewExecutor(provider),
	}
}

// Run performs one full rebalancing cycle and returns the batch
// report. It returns an error only for preflight failures (balance,
// price or rule fetches); once submission starts, every order's fate
// is recorded in the report instead.
func (r *Rebalancer) Run(params RunParams) (*models.BatchReport, error) {
	symbols := r.spec.Symbols()

	balances, prices, rules, err := r.fetchInputs(symbols)
	if err != nil {
		return nil, err
	}

	investable := investableCash(balances, params)
	log.Printf("Investable cash: $%s (requested $%s, reserve $%s)",
		investable.StringFixed(2), params.RequestedCash.StringFixed(2), params.CashReserve.StringFixed(2))

	positions := buildPositions(symbols, balances, prices)
	positions = Allocate(positions, r.spec, investable)

	// Split funded positions into submittable requests and local
	// rejections, preserving spec declaration order in the results.
	var requests []models.OrderRequest
	var results []models.OrderResult
	requestSlot := make(map[string]int) // symbol -> index in results
	for _, pos := range positions {
		if !pos.AmountToInvest.IsPositive() {
			continue
		}

		req, rejection := BuildOrder(pos, prices[pos.Symbol], rules[pos.Symbol])
		if rejection != nil {
			log.Printf("Could not submit %s order: %s", pos.Symbol, rejection.Reason)
			results = append(results, *rejection)
			continue
		}
		requests = append(requests, *req)
		results = append(results, models.OrderResult{}) // placeholder
		requestSlot[req.Symbol] = len(results) - 1
	}

	for _, res := range r.executor.Submit(requests, params.Mode) {
		results[requestSlot[res.Symbol]] = res
	}

	return Summarize(results, params.Mode, investable), nil
}

// fetchInputs gathers balances plus per-symbol prices and trading
// rules concurrently and waits for the whole set. Any single failure
// fails the run, identified by stage and symbol.
func (r *Rebalancer) fetchInputs(symbols []string) ([]models.Balance, map[string]decimal.Decimal, map[string]*models.TradingRule, error) {
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		balances []models.Balance
		prices   = make(map[string]decimal.Decimal, len(symbols))
		rules    = make(map[string]*models.TradingRule, len(symbols))
		firstErr error
	)

	fail := func(err error) {
		mu.Lock()
		defer mu.Unlock()
		if firstErr == nil {
			firstErr = err
		}
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		b, err := r.provider.GetBalances()
		if err != nil {
			fail(&FetchError{Stage: "balances", Err: err})
			return
		}
		mu.Lock()
		balances = b
		mu.Unlock()
	}()

	for _, symbol := range symbols {
		wg.Add(2)
		go func(symbol string) {
			defer wg.Done()
			price, err := r.prices.GetPrice(symbol)
			if err != nil {
				fail(&FetchError{Stage: "price", Symbol: symbol, Err: err})
				return
			}
			mu.Lock()
			prices[symbol] = price
			mu.Unlock()
		}(symbol)

		go func(symbol string) {
			defer wg.Done()
			rule, err := r.provider.GetTradingRule(symbol)
			if err != nil {
				fail(&FetchError{Stage: "rule", Symbol: symbol, Err: err})
				return
			}
			mu.Lock()
			rules[symbol] = rule
			mu.Unlock()
		}(symbol)
	}

	wg.Wait()
	if firstErr != nil {
		return nil, nil, nil, firstErr
	}
	return balances, prices, rules, nil
}

// investableCash applies the original funding rule: spend at most the
// requested amount, and never dip into the reserve.
func investableCash(balances []models.Balance, params RunParams) decimal.Decimal {
	available := decimal.Zero
	for _, b := range balances {
		if b.Symbol == CashSymbol {
			available = b.Total()
			break
		}
	}

	investable := decimal.Min(params.RequestedCash, available.Sub(params.CashReserve))
	if investable.IsNegative() {
		return decimal.Zero
	}
	return investable
}

// buildPositions assembles the run's portfolio view: one position per
// spec symbol, zero quantity if not held. The cash being deployed is
// accounted for by the balancer itself, and held assets outside the
// spec are ignored for this run; the rebalancer only prices what it
// may buy.
func buildPositions(symbols []string, balances []models.Balance, prices map[string]decimal.Decimal) []models.AssetPosition {
	held := make(map[string]decimal.Decimal, len(balances))
	for _, b := range balances {
		held[b.Symbol] = b.Total()
	}

	positions := make([]models.AssetPosition, 0, len(symbols))
	for _, symbol := range symbols {
		qty := held[symbol] // zero value when absent
		price := prices[symbol]
		positions = append(positions, models.AssetPosition{
			Symbol:   symbol,
			Quantity: qty,
			Price:    price,
			Value:    price.Mul(qty),
		})
	}
	return positions
}
