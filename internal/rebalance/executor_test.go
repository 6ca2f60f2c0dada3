package rebalance

import (
	"errors"
	"strings"
	"sync"
	"testing"

	"crypto_rebalancer/internal/market"
	"crypto_rebalancer/internal/models"

	"github.com/shopspring/decimal"
)

// SpyExchange scripts per-symbol failures and records what was
// submitted.
type SpyExchange struct {
	mu        sync.Mutex
	failWith  map[string]error // symbol -> error to return
	submitted []models.OrderRequest
	modes     []models.SubmitMode
}

func (s *SpyExchange) GetBalances() ([]models.Balance, error)    { return nil, nil }
func (s *SpyExchange) GetPrice(string) (decimal.Decimal, error)  { return decimal.Zero, nil }
func (s *SpyExchange) GetTradingRule(string) (*models.TradingRule, error) {
	return nil, nil
}

func (s *SpyExchange) SubmitOrder(req models.OrderRequest, mode models.SubmitMode) (*models.OrderResponse, error) {
	s.mu.Lock()
	s.submitted = append(s.submitted, req)
	s.modes = append(s.modes, mode)
	s.mu.Unlock()

	if err, ok := s.failWith[req.Symbol]; ok {
		return nil, err
	}
	return &models.OrderResponse{OrderID: "1", ClientOrderID: req.ClientOrderID, Status: "NEW"}, nil
}

func order(symbol, qty, price string) models.OrderRequest {
	return models.OrderRequest{Symbol: symbol, Quantity: dec(qty), Price: dec(price)}
}

func TestSubmit_PartialFailure(t *testing.T) {
	// Concrete scenario: 3 valid orders, remote call fails for #2.
	spy := &SpyExchange{failWith: map[string]error{
		"ETH": errors.New("connection reset"),
	}}
	exec := NewExecutor(spy)

	orders := []models.OrderRequest{
		order("BTC", "0.005", "20000"), // notional 100
		order("ETH", "0.05", "1500"),   // notional 75, fails
		order("ADA", "100", "0.50"),    // notional 50
	}

	results := exec.Submit(orders, models.ModeLive)

	// Exactly N results, in request order.
	if len(results) != 3 {
		t.Fatalf("Expected 3 results, got %d", len(results))
	}
	if results[0].Outcome != models.OutcomeSuccess {
		t.Errorf("BTC: expected SUCCESS, got %s (%s)", results[0].Outcome, results[0].Reason)
	}
	if results[1].Outcome != models.OutcomeFailed {
		t.Errorf("ETH: expected FAILED, got %s", results[1].Outcome)
	}
	if results[2].Outcome != models.OutcomeSuccess {
		t.Errorf("ADA: expected SUCCESS, got %s (%s)", results[2].Outcome, results[2].Reason)
	}

	// One failure never aborts siblings: all three reached the spy.
	if len(spy.submitted) != 3 {
		t.Errorf("Expected 3 submissions, got %d", len(spy.submitted))
	}
}

func TestSubmit_CountsAddUp(t *testing.T) {
	spy := &SpyExchange{failWith: map[string]error{
		"B": errors.New("boom"),
		"D": errors.New("boom"),
	}}
	exec := NewExecutor(spy)

	var orders []models.OrderRequest
	for _, s := range []string{"A", "B", "C", "D", "E"} {
		orders = append(orders, order(s, "1", "10"))
	}

	results := exec.Submit(orders, models.ModeTest)

	success, failed := 0, 0
	for _, r := range results {
		switch r.Outcome {
		case models.OutcomeSuccess:
			success++
		case models.OutcomeFailed:
			failed++
		}
	}
	if success != 3 || failed != 2 {
		t.Errorf("Expected 3 success / 2 failed, got %d / %d", success, failed)
	}
	if success+failed != len(orders) {
		t.Errorf("Counts do not cover the batch: %d + %d != %d", success, failed, len(orders))
	}
}

func TestSubmit_ModeAppliedUniformly(t *testing.T) {
	spy := &SpyExchange{}
	exec := NewExecutor(spy)

	orders := []models.OrderRequest{order("BTC", "1", "10"), order("ETH", "1", "10")}
	exec.Submit(orders, models.ModeTest)

	for i, mode := range spy.modes {
		if mode != models.ModeTest {
			t.Errorf("Submission %d used mode %s, expected test", i, mode)
		}
	}
}

func TestSubmit_AssignsClientOrderIDs(t *testing.T) {
	spy := &SpyExchange{}
	exec := NewExecutor(spy)

	exec.Submit([]models.OrderRequest{order("BTC", "1", "10"), order("ETH", "1", "10")}, models.ModeTest)

	seen := make(map[string]bool)
	for _, req := range spy.submitted {
		if req.ClientOrderID == "" {
			t.Error("Expected a generated client order ID")
		}
		if seen[req.ClientOrderID] {
			t.Errorf("Duplicate client order ID %s", req.ClientOrderID)
		}
		seen[req.ClientOrderID] = true
	}
}

func TestSubmit_ClassifiesExchangeRejection(t *testing.T) {
	spy := &SpyExchange{failWith: map[string]error{
		"BTC": &market.APIError{Code: -1013, Message: "Filter failure: LOT_SIZE"},
	}}
	exec := NewExecutor(spy)

	results := exec.Submit([]models.OrderRequest{order("BTC", "1", "10")}, models.ModeLive)

	if results[0].Outcome != models.OutcomeFailed {
		t.Fatalf("Expected FAILED, got %s", results[0].Outcome)
	}
	if !strings.Contains(results[0].Reason, "rejected by exchange") || !strings.Contains(results[0].Reason, "-1013") {
		t.Errorf("Expected classified exchange rejection, got %q", results[0].Reason)
	}
}

func TestSubmit_EmptyBatch(t *testing.T) {
	exec := NewExecutor(&SpyExchange{})
	results := exec.Submit(nil, models.ModeLive)
	if len(results) != 0 {
		t.Errorf("Expected no results for empty batch, got %d", len(results))
	}
}
