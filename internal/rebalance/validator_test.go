package rebalance

import (
	"strings"
	"testing"

	"crypto_rebalancer/internal/models"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func btcRule() *models.TradingRule {
	return &models.TradingRule{
		Symbol:      "BTC",
		TickSize:    dec("0.01"),
		MinPrice:    dec("0.01"),
		MaxPrice:    dec("100000"),
		StepSize:    dec("0.000001"),
		MinQty:      dec("0.000001"),
		MaxQty:      dec("9000"),
		MinNotional: dec("10"),
	}
}

func TestRoundStep_Truncates(t *testing.T) {
	cases := []struct {
		value, step, want string
	}{
		{"123.456", "0.01", "123.45"},
		{"123.456", "0.1", "123.4"},
		{"0.0039", "0.001", "0.003"},
		{"100", "7", "98"},
		{"5", "0", "5"}, // zero step leaves value untouched
		{"0.999999", "1", "0"},
	}

	for _, tc := range cases {
		got := RoundStep(dec(tc.value), dec(tc.step))
		if !got.Equal(dec(tc.want)) {
			t.Errorf("RoundStep(%s, %s): expected %s, got %s", tc.value, tc.step, tc.want, got)
		}
		// Never rounds up.
		if got.GreaterThan(dec(tc.value)) {
			t.Errorf("RoundStep(%s, %s) = %s exceeds input", tc.value, tc.step, got)
		}
	}
}

func TestRoundStep_Idempotent(t *testing.T) {
	values := []string{"123.456", "0.0039", "99.999999", "0.1"}
	steps := []string{"0.01", "0.001", "0.000001", "0.5"}

	for _, v := range values {
		for _, s := range steps {
			once := RoundStep(dec(v), dec(s))
			twice := RoundStep(once, dec(s))
			if !twice.Equal(once) {
				t.Errorf("RoundStep not idempotent for (%s, %s): %s then %s", v, s, once, twice)
			}
		}
	}
}

func TestBuildOrder_Valid(t *testing.T) {
	pos := models.AssetPosition{Symbol: "BTC", AmountToInvest: dec("100")}
	price := dec("20000.123")

	req, rejection := BuildOrder(pos, price, btcRule())
	if rejection != nil {
		t.Fatalf("Unexpected rejection: %s", rejection.Reason)
	}

	// Price truncated to the tick grid.
	if !req.Price.Equal(dec("20000.12")) {
		t.Errorf("Price: expected 20000.12, got %s", req.Price)
	}
	// Quantity truncated to the step grid: 100/20000.123 = 0.004999...
	if !req.Quantity.Equal(dec("0.004999")) {
		t.Errorf("Quantity: expected 0.004999, got %s", req.Quantity)
	}
	// Rounded order never exceeds the budget.
	if req.Notional().GreaterThan(pos.AmountToInvest) {
		t.Errorf("Notional %s exceeds budget %s", req.Notional(), pos.AmountToInvest)
	}
}

func TestBuildOrder_RejectionPriority(t *testing.T) {
	// Each case violates the named bound first; earlier bounds pass.
	// The first violated bound must be the only reason reported.
	cases := []struct {
		name   string
		amount string
		price  string
		rule   models.TradingRule
		field  string // which bound the reason must name
		bound  string
	}{
		{
			name: "price below minimum", amount: "100", price: "0.005",
			rule:  models.TradingRule{TickSize: dec("0.001"), MinPrice: dec("0.01"), MaxPrice: dec("100"), StepSize: dec("1"), MinQty: dec("1"), MaxQty: dec("100000"), MinNotional: dec("0.01")},
			field: "price", bound: "below minimum",
		},
		{
			name: "price above maximum", amount: "100", price: "200",
			rule:  models.TradingRule{TickSize: dec("0.01"), MinPrice: dec("0.01"), MaxPrice: dec("100"), StepSize: dec("0.001"), MinQty: dec("0.001"), MaxQty: dec("100000"), MinNotional: dec("0.01")},
			field: "price", bound: "above maximum",
		},
		{
			name: "quantity below minimum", amount: "1", price: "50000",
			rule:  models.TradingRule{TickSize: dec("0.01"), MinPrice: dec("0.01"), MaxPrice: dec("100000"), StepSize: dec("0.001"), MinQty: dec("0.001"), MaxQty: dec("9000"), MinNotional: dec("0.01")},
			field: "quantity", bound: "below minimum",
		},
		{
			name: "quantity above maximum", amount: "100000", price: "0.02",
			rule:  models.TradingRule{TickSize: dec("0.01"), MinPrice: dec("0.01"), MaxPrice: dec("100000"), StepSize: dec("1"), MinQty: dec("1"), MaxQty: dec("1000"), MinNotional: dec("0.01")},
			field: "quantity", bound: "above maximum",
		},
		{
			name: "notional below minimum", amount: "8", price: "1",
			rule:  models.TradingRule{TickSize: dec("0.01"), MinPrice: dec("0.01"), MaxPrice: dec("100000"), StepSize: dec("0.001"), MinQty: dec("0.001"), MaxQty: dec("9000"), MinNotional: dec("10")},
			field: "notional", bound: "below minimum",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			pos := models.AssetPosition{Symbol: "XYZ", AmountToInvest: dec(tc.amount)}
			req, rejection := BuildOrder(pos, dec(tc.price), &tc.rule)
			if rejection == nil {
				t.Fatalf("Expected rejection, got request %+v", req)
			}
			if rejection.Outcome != models.OutcomeRejected {
				t.Errorf("Expected outcome REJECTED, got %s", rejection.Outcome)
			}
			if !strings.HasPrefix(rejection.Reason, tc.field) || !strings.Contains(rejection.Reason, tc.bound) {
				t.Errorf("Expected %q reason naming %q, got %q", tc.field, tc.bound, rejection.Reason)
			}
		})
	}
}

func TestBuildOrder_ZeroPriceRejected(t *testing.T) {
	// A provider can hand back a zero quote for a halted or unlisted
	// pair. That must reject as a below-minimum price, never reach the
	// quantity division.
	pos := models.AssetPosition{Symbol: "BTC", AmountToInvest: dec("60")}

	req, rejection := BuildOrder(pos, dec("0"), btcRule())
	if req != nil {
		t.Fatalf("Expected rejection for zero price, got request %+v", req)
	}
	if rejection == nil {
		t.Fatal("Expected rejection")
	}
	if rejection.Outcome != models.OutcomeRejected {
		t.Errorf("Expected outcome REJECTED, got %s", rejection.Outcome)
	}
	if !strings.HasPrefix(rejection.Reason, "price") || !strings.Contains(rejection.Reason, "below minimum") {
		t.Errorf("Expected price-below-minimum reason, got %q", rejection.Reason)
	}
}

func TestBuildOrder_MinNotionalScenario(t *testing.T) {
	// Concrete scenario: $8 notional against a $10 minimum. Rejected
	// locally; the executor never sees it, so no remote call is made.
	rule := btcRule()
	pos := models.AssetPosition{Symbol: "BTC", AmountToInvest: dec("8")}

	req, rejection := BuildOrder(pos, dec("20000"), rule)
	if req != nil {
		t.Fatal("Expected nil request for under-notional order")
	}
	if rejection == nil {
		t.Fatal("Expected rejection")
	}
	if !strings.Contains(rejection.Reason, "notional") || !strings.Contains(rejection.Reason, "below minimum") {
		t.Errorf("Unexpected reason: %s", rejection.Reason)
	}
}
