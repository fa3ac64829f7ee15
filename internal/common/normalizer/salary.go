package normalizer

import (
	"github.com/project-tktt/salary-stats/internal/domain"
)

const (
	// Multipliers used when only one salary bound is published.
	// A listing with only a lower bound is assumed to top out ~20% higher,
	// one with only an upper bound to start ~20% lower.
	fromOnlyFactor = 1.2
	toOnlyFactor   = 0.8
)

// Normalizer estimates a monthly salary for listings paid in a single currency
type Normalizer struct {
	currency string
}

// NewNormalizer creates a normalizer that only accepts salaries in currency.
// Currency codes are compared as-is: hh uses "RUR", superjob uses "rub".
func NewNormalizer(currency string) *Normalizer {
	return &Normalizer{currency: currency}
}

// Currency returns the accepted currency code
func (n *Normalizer) Currency() string {
	return n.currency
}

// Normalize returns the estimated salary of a listing.
// Listings without salary data or paid in another currency yield false.
func (n *Normalizer) Normalize(v domain.Vacancy) (float64, bool) {
	bounds, ok := v.SalaryBounds()
	if !ok || bounds.Currency != n.currency {
		return 0, false
	}
	return PredictSalary(bounds.From, bounds.To)
}

// PredictSalary maps a pair of optional salary bounds to a single estimate:
// the mean when both are known, from*1.2 or to*0.8 when only one is known,
// and no estimate when neither is.
func PredictSalary(from, to *float64) (float64, bool) {
	switch {
	case from != nil && to != nil:
		return (*from + *to) / 2, true
	case from != nil:
		return *from * fromOnlyFactor, true
	case to != nil:
		return *to * toOnlyFactor, true
	default:
		return 0, false
	}
}

// Bound converts a raw salary figure into an optional bound.
// Job boards publish 0 or null for an unspecified bound, so both map to nil.
func Bound(v *float64) *float64 {
	if v == nil || *v <= 0 {
		return nil
	}
	out := *v
	return &out
}
