package valueobject

import (
	"strconv"
	"strings"
)

// ---------------------------------------------------------------------------
// Periodicity – repayment frequency
// ---------------------------------------------------------------------------

// Periodicity is the repayment frequency of a loan.
type Periodicity struct {
	value string
}

const (
	periodicityMonthly    = "MONTHLY"
	periodicityQuarterly  = "QUARTERLY"
	periodicitySemiAnnual = "SEMI_ANNUAL"
	periodicityAnnual     = "ANNUAL"
	periodicityBullet     = "BULLET"
)

var (
	PeriodicityMonthly    = Periodicity{value: periodicityMonthly}
	PeriodicityQuarterly  = Periodicity{value: periodicityQuarterly}
	PeriodicitySemiAnnual = Periodicity{value: periodicitySemiAnnual}
	PeriodicityAnnual     = Periodicity{value: periodicityAnnual}
	PeriodicityBullet     = Periodicity{value: periodicityBullet}
)

// periodsPerYear for each periodicity. A bullet loan pays interest once a year
// and the principal at maturity.
var periodsPerYear = map[string]int{
	periodicityMonthly:    12,
	periodicityQuarterly:  4,
	periodicitySemiAnnual: 2,
	periodicityAnnual:     1,
	periodicityBullet:     1,
}

var periodicityLabels = map[string]Periodicity{
	"monthly":     PeriodicityMonthly,
	"mensuel":     PeriodicityMonthly,
	"quarterly":   PeriodicityQuarterly,
	"trimestriel": PeriodicityQuarterly,
	"semi_annual": PeriodicitySemiAnnual,
	"semi-annual": PeriodicitySemiAnnual,
	"semiannual":  PeriodicitySemiAnnual,
	"semestriel":  PeriodicitySemiAnnual,
	"annual":      PeriodicityAnnual,
	"annuel":      PeriodicityAnnual,
	"bullet":      PeriodicityBullet,
	"in fine":     PeriodicityBullet,
	"in-fine":     PeriodicityBullet,
	"in_fine":     PeriodicityBullet,
	"infine":      PeriodicityBullet,
}

// Prefixes are checked in order; "sem" must win over "ann" for "semi-annual".
var periodicityPrefixes = []struct {
	prefix string
	p      Periodicity
}{
	{"mens", PeriodicityMonthly},
	{"month", PeriodicityMonthly},
	{"trim", PeriodicityQuarterly},
	{"quarter", PeriodicityQuarterly},
	{"sem", PeriodicitySemiAnnual},
	{"six", PeriodicitySemiAnnual},
	{"ann", PeriodicityAnnual},
	{"year", PeriodicityAnnual},
	{"in f", PeriodicityBullet},
	{"bullet", PeriodicityBullet},
}

// NewPeriodicity strictly parses a periodicity label. French and English
// labels are accepted case-insensitively.
func NewPeriodicity(s string) (Periodicity, error) {
	if p, ok := lookupPeriodicity(s); ok {
		return p, nil
	}
	return Periodicity{}, NewValidationError("periodicity", "unknown periodicity "+strconv.Quote(s))
}

// ParsePeriodicity resolves a label leniently: exact labels first, then
// known prefixes, then monthly. The boolean is false when the monthly
// fallback was used.
func ParsePeriodicity(s string) (Periodicity, bool) {
	if p, ok := lookupPeriodicity(s); ok {
		return p, true
	}
	key := strings.ToLower(strings.TrimSpace(s))
	for _, c := range periodicityPrefixes {
		if key != "" && strings.HasPrefix(key, c.prefix) {
			return c.p, true
		}
	}
	return PeriodicityMonthly, false
}

func lookupPeriodicity(s string) (Periodicity, bool) {
	key := strings.ToLower(strings.TrimSpace(s))
	if p, ok := periodicityLabels[key]; ok {
		return p, true
	}
	if _, ok := periodsPerYear[strings.ToUpper(key)]; ok {
		return Periodicity{value: strings.ToUpper(key)}, true
	}
	return Periodicity{}, false
}

// PeriodsPerYear returns the number of repayments per year.
func (p Periodicity) PeriodsPerYear() int {
	if n, ok := periodsPerYear[p.value]; ok {
		return n
	}
	return 12
}

// PeriodMonths returns the number of months covered by one period.
func (p Periodicity) PeriodMonths() int { return 12 / p.PeriodsPerYear() }

// Periods returns the number of repayment periods in durationMonths. The
// division truncates: 13 months at quarterly periodicity is 4 periods.
func (p Periodicity) Periods(durationMonths int) int {
	return durationMonths / p.PeriodMonths()
}

// IsBullet reports whether principal is repaid in full at maturity.
func (p Periodicity) IsBullet() bool { return p.value == periodicityBullet }

// String returns the string representation of the periodicity.
func (p Periodicity) String() string { return p.value }

// IsZero returns true if the periodicity has not been initialised.
func (p Periodicity) IsZero() bool { return p.value == "" }

// Equal returns true when both periodicities carry the same value.
func (p Periodicity) Equal(other Periodicity) bool { return p.value == other.value }
