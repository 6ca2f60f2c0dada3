package allocation

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

// Tolerance is how far the total weight may drift from 1.0 before the
// spec is considered invalid.
const Tolerance = 1e-6

// Asset is a single target holding: a symbol and its share of the total
// portfolio value. A weight of zero keeps the asset tracked for value
// accounting without ever buying it.
type Asset struct {
	Symbol string  `yaml:"symbol" json:"symbol"`
	Weight float64 `yaml:"weight" json:"weight"`
}

// Category groups assets for reporting purposes (e.g. "Large Cap").
// Weights are global across the whole spec, not per category.
type Category struct {
	Name   string  `yaml:"name" json:"name"`
	Assets []Asset `yaml:"assets" json:"assets"`
}

// Spec is the declared target allocation. Build it once at startup,
// call Verify, and treat it as immutable afterwards.
type Spec struct {
	Categories []Category `yaml:"categories" json:"categories"`
}

// InvalidAllocationError reports a spec that failed verification.
type InvalidAllocationError struct {
	Sum    float64
	Detail string
}

func (e *InvalidAllocationError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("invalid allocation: %s", e.Detail)
	}
	return fmt.Sprintf("invalid allocation: weights sum to %.8f, want 1.0 within %g", e.Sum, Tolerance)
}

// New builds a Spec from categories. Verify must be called before use.
func New(categories ...Category) *Spec {
	return &Spec{Categories: categories}
}

// Verify checks the spec invariants:
//   - every weight is >= 0
//   - no symbol appears twice across the whole spec
//   - all weights sum to 1.0 within Tolerance
//
// It returns the spec itself on success so construction can be chained,
// and fails fast before any network call otherwise.
func (s *Spec) Verify() (*Spec, error) {
	sum := 0.0
	seen := make(map[string]bool)

	for _, cat := range s.Categories {
		for _, a := range cat.Assets {
			if a.Symbol == "" {
				return nil, &InvalidAllocationError{Detail: fmt.Sprintf("empty symbol in category %q", cat.Name)}
			}
			if a.Weight < 0 {
				return nil, &InvalidAllocationError{Detail: fmt.Sprintf("negative weight %g for %s", a.Weight, a.Symbol)}
			}
			if seen[a.Symbol] {
				return nil, &InvalidAllocationError{Detail: fmt.Sprintf("duplicate symbol %s", a.Symbol)}
			}
			seen[a.Symbol] = true
			sum += a.Weight
		}
	}

	if math.Abs(sum-1.0) > Tolerance {
		return nil, &InvalidAllocationError{Sum: sum}
	}
	return s, nil
}

// Symbols returns every asset symbol in declaration order. The order is
// stable so that downstream fetches and reports line up run to run.
func (s *Spec) Symbols() []string {
	var symbols []string
	for _, cat := range s.Categories {
		for _, a := range cat.Assets {
			symbols = append(symbols, a.Symbol)
		}
	}
	return symbols
}

// Weight returns the target weight for a symbol, or false if the symbol
// is not part of the spec.
func (s *Spec) Weight(symbol string) (float64, bool) {
	for _, cat := range s.Categories {
		for _, a := range cat.Assets {
			if a.Symbol == symbol {
				return a.Weight, true
			}
		}
	}
	return 0, false
}

// CategoryOf returns the category name a symbol belongs to.
func (s *Spec) CategoryOf(symbol string) string {
	for _, cat := range s.Categories {
		for _, a := range cat.Assets {
			if a.Symbol == symbol {
				return cat.Name
			}
		}
	}
	return ""
}

// Load reads an allocation spec from a YAML file and verifies it.
func Load(path string) (*Spec, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read allocation file: %w", err)
	}

	var s Spec
	if err := yaml.Unmarshal(b, &s); err != nil {
		return nil, fmt.Errorf("parse allocation file: %w", err)
	}
	return s.Verify()
}
