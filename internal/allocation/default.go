package allocation

// Default returns the built-in target allocation, used when no
// allocation file is configured.
func Default() (*Spec, error) {
	return New(
		Category{Name: "Large Cap", Assets: []Asset{
			{Symbol: "ETH", Weight: 0.23},
			{Symbol: "BTC", Weight: 0.18},
			{Symbol: "ADA", Weight: 0.14},
			{Symbol: "SOL", Weight: 0.05},
		}},
		Category{Name: "Mid Cap", Assets: []Asset{
			{Symbol: "LINK", Weight: 0.13},
			{Symbol: "MATIC", Weight: 0.13},
			{Symbol: "UNI", Weight: 0.09},
			{Symbol: "DOT", Weight: 0.05},
		}},
		// BNB is held for fee discounts but never bought by the
		// rebalancer, so it carries weight 0 and only contributes to
		// value accounting.
		Category{Name: "Other", Assets: []Asset{
			{Symbol: "BNB", Weight: 0},
		}},
	).Verify()
}
