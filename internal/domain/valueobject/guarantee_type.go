package valueobject

import "fmt"

// GuaranteeType classifies a guarantee pledged against a loan.
type GuaranteeType struct {
	value string
}

const (
	guaranteeFinancialDeposit = "FINANCIAL_DEPOSIT"
	guaranteeEquipment        = "EQUIPMENT"
	guaranteePledge           = "PLEDGE"
	guaranteeCollateralPledge = "COLLATERAL_PLEDGE"
	guaranteeMortgage         = "MORTGAGE"
)

var (
	GuaranteeTypeFinancialDeposit = GuaranteeType{value: guaranteeFinancialDeposit}
	GuaranteeTypeEquipment        = GuaranteeType{value: guaranteeEquipment}
	GuaranteeTypePledge           = GuaranteeType{value: guaranteePledge}
	GuaranteeTypeCollateralPledge = GuaranteeType{value: guaranteeCollateralPledge}
	GuaranteeTypeMortgage         = GuaranteeType{value: guaranteeMortgage}
)

var validGuaranteeTypes = map[string]GuaranteeType{
	guaranteeFinancialDeposit: GuaranteeTypeFinancialDeposit,
	guaranteeEquipment:        GuaranteeTypeEquipment,
	guaranteePledge:           GuaranteeTypePledge,
	guaranteeCollateralPledge: GuaranteeTypeCollateralPledge,
	guaranteeMortgage:         GuaranteeTypeMortgage,
}

// NewGuaranteeType creates a GuaranteeType from a raw string.
func NewGuaranteeType(s string) (GuaranteeType, error) {
	v, ok := validGuaranteeTypes[normaliseLabel(s)]
	if !ok {
		return GuaranteeType{}, NewValidationError("guarantee type", fmt.Sprintf("unknown guarantee type %q", s))
	}
	return v, nil
}

func (g GuaranteeType) String() string            { return g.value }
func (g GuaranteeType) IsZero() bool              { return g.value == "" }
func (g GuaranteeType) Equal(o GuaranteeType) bool { return g.value == o.value }
