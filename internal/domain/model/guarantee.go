package model

import (
	"fmt"

	"github.com/bibbank/appraisal/internal/domain/valueobject"
	"github.com/bibbank/appraisal/pkg/money"
)

// Guarantee is an asset pledged against the loan. The retained value is
// what the institution accepts after its own haircut.
type Guarantee struct {
	Type          valueobject.GuaranteeType
	Description   string
	DeclaredValue money.Money
	RetainedValue money.Money
}

// NewGuarantee validates and builds a Guarantee.
func NewGuarantee(typ valueobject.GuaranteeType, description string, declared, retained money.Money) (Guarantee, error) {
	if typ.IsZero() {
		return Guarantee{}, valueobject.NewValidationError("guarantee type", "is required")
	}
	if declared.Amount().IsNegative() || retained.Amount().IsNegative() {
		return Guarantee{}, valueobject.NewValidationError("guarantee value", "must not be negative")
	}
	if declared.Currency() != retained.Currency() {
		return Guarantee{}, valueobject.NewValidationError("guarantee value",
			fmt.Sprintf("declared %s and retained %s currencies differ", declared.Currency(), retained.Currency()))
	}
	if retained.Amount().GreaterThan(declared.Amount()) {
		return Guarantee{}, valueobject.NewValidationError("guarantee value", "retained value exceeds declared value")
	}
	return Guarantee{Type: typ, Description: description, DeclaredValue: declared, RetainedValue: retained}, nil
}

// TotalRetained sums the retained value of guarantees in cur. Guarantees in
// another currency are an error.
func TotalRetained(cur money.Currency, guarantees []Guarantee) (money.Money, error) {
	total := money.Zero(cur)
	for _, g := range guarantees {
		next, err := total.Add(g.RetainedValue)
		if err != nil {
			return money.Money{}, fmt.Errorf("sum retained guarantees: %w", err)
		}
		total = next
	}
	return total, nil
}
