package rebalance

import (
	"errors"
	"fmt"
	"log"
	"sync"

	"crypto_rebalancer/internal/market"
	"crypto_rebalancer/internal/models"

	"github.com/google/uuid"
)

// Executor submits validated orders. Each order is an independent unit
// of work: a failing remote call is captured as data in that order's
// result and can never abort or corrupt a sibling order.
type Executor struct {
	provider market.ExchangeProvider
}

func NewExecutor(provider market.ExchangeProvider) *Executor {
	return &Executor{provider: provider}
}

// Submit places every order concurrently and waits for all of them.
// It always returns exactly one result per request, in request order;
// there is no ordering guarantee between the submissions themselves,
// and no rollback of placed orders if later ones fail.
func (e *Executor) Submit(orders []models.OrderRequest, mode models.SubmitMode) []models.OrderResult {
	results := make([]models.OrderResult, len(orders))

	var wg sync.WaitGroup
	for i, req := range orders {
		if req.ClientOrderID == "" {
			req.ClientOrderID = newClientOrderID()
		}

		wg.Add(1)
		go func(i int, req models.OrderRequest) {
			defer wg.Done()
			results[i] = e.submitOne(req, mode)
		}(i, req)
	}
	wg.Wait()

	return results
}

func (e *Executor) submitOne(req models.OrderRequest, mode models.SubmitMode) models.OrderResult {
	result := models.OrderResult{
		Symbol:   req.Symbol,
		Quantity: req.Quantity,
		Price:    req.Price,
		Notional: req.Notional(),
	}

	resp, err := e.provider.SubmitOrder(req, mode)
	if err != nil {
		result.Outcome = models.OutcomeFailed
		result.Reason = classifyError(err)
		log.Printf("Order FAILED [%s] %s %s @ %s: %s", mode, req.Symbol, req.Quantity, req.Price, result.Reason)
		return result
	}

	result.Outcome = models.OutcomeSuccess
	result.Response = resp
	log.Printf("Ordered [%s] %s %s @ $%s (Total: $%s)", mode, req.Quantity, req.Symbol, req.Price, result.Notional.StringFixed(2))
	return result
}

// classifyError separates the exchange refusing the order from the
// request never getting through.
func classifyError(err error) string {
	var apiErr *market.APIError
	if errors.As(err, &apiErr) {
		return fmt.Sprintf("rejected by exchange (code %d): %s", apiErr.Code, apiErr.Message)
	}
	return fmt.Sprintf("submission failed: %v", err)
}

// newClientOrderID tags each submission so the order can be correlated
// with this run in the exchange's own records.
func newClientOrderID() string {
	return "rebal-" + uuid.NewString()
}
