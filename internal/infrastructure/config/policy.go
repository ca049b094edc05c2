package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"github.com/bibbank/appraisal/internal/domain/service"
)

// Policies are the ratio rubric and the scoring policy in force.
type Policies struct {
	Ratio   service.RatioPolicy
	Scoring service.ScoringPolicy
}

type bracketEntry struct {
	Min   string `mapstructure:"min"`
	Score string `mapstructure:"score"`
}

// LoadPolicies reads the policy file at path. Keys missing from the file
// keep their calibrated defaults, a missing file yields the defaults, and
// scalar keys can be overridden with POLICY_* variables such as
// POLICY_SCORING_APPROVE_AT.
func LoadPolicies(path string) (Policies, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix("POLICY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setPolicyDefaults(v, service.DefaultRatioPolicy(), service.DefaultScoringPolicy())

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return Policies{}, fmt.Errorf("read policy file %s: %w", path, err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return Policies{}, fmt.Errorf("stat policy file %s: %w", path, err)
		}
	}

	r := policyReader{v: v}
	ratio := service.RatioPolicy{
		ProfitMarginGood:      r.decimal("ratios.profit_margin.good"),
		ProfitMarginFair:      r.decimal("ratios.profit_margin.fair"),
		RepaymentCapacityGood: r.decimal("ratios.repayment_capacity.good"),
		RepaymentCapacityFair: r.decimal("ratios.repayment_capacity.fair"),
		CapitalizationGood:    r.decimal("ratios.capitalization.good"),
		CapitalizationFair:    r.decimal("ratios.capitalization.fair"),
		LiquidityGood:         r.decimal("ratios.liquidity.good"),
		LiquidityFair:         r.decimal("ratios.liquidity.fair"),
		ExcellentPoints:       v.GetInt("ratios.points.excellent"),
		GoodPoints:            v.GetInt("ratios.points.good"),
		ModeratePoints:        v.GetInt("ratios.points.moderate"),
	}
	scoring := service.ScoringPolicy{
		WeightDSCR:         r.decimal("scoring.weights.dscr"),
		WeightCollateral:   r.decimal("scoring.weights.collateral"),
		WeightStability:    r.decimal("scoring.weights.stability"),
		DSCRFloor:          r.decimal("scoring.dscr_floor"),
		CollateralFloor:    r.decimal("scoring.collateral_floor"),
		ApproveAt:          r.decimal("scoring.approve_at"),
		ReviewAt:           r.decimal("scoring.review_at"),
		DSCRBrackets:       r.brackets("scoring.dscr_brackets"),
		CollateralBrackets: r.brackets("scoring.collateral_brackets"),
		StabilityYears:     v.GetFloat64("scoring.stability_years"),
	}
	if r.err != nil {
		return Policies{}, r.err
	}
	if err := ratio.Validate(); err != nil {
		return Policies{}, fmt.Errorf("ratio policy: %w", err)
	}
	if err := scoring.Validate(); err != nil {
		return Policies{}, fmt.Errorf("scoring policy: %w", err)
	}
	return Policies{Ratio: ratio, Scoring: scoring}, nil
}

// policyReader keeps the first decoding error.
type policyReader struct {
	v   *viper.Viper
	err error
}

func (r *policyReader) decimal(key string) decimal.Decimal {
	d, err := decimal.NewFromString(r.v.GetString(key))
	if err != nil && r.err == nil {
		r.err = fmt.Errorf("policy key %s: %w", key, err)
	}
	return d
}

func (r *policyReader) brackets(key string) []service.Bracket {
	var entries []bracketEntry
	if err := r.v.UnmarshalKey(key, &entries); err != nil {
		if r.err == nil {
			r.err = fmt.Errorf("policy key %s: %w", key, err)
		}
		return nil
	}
	out := make([]service.Bracket, 0, len(entries))
	for i, e := range entries {
		lo, errMin := decimal.NewFromString(e.Min)
		score, errScore := decimal.NewFromString(e.Score)
		if err := errors.Join(errMin, errScore); err != nil {
			if r.err == nil {
				r.err = fmt.Errorf("policy key %s[%d]: %w", key, i, err)
			}
			return nil
		}
		out = append(out, service.Bracket{Min: lo, Score: score})
	}
	return out
}

func setPolicyDefaults(v *viper.Viper, ratio service.RatioPolicy, scoring service.ScoringPolicy) {
	v.SetDefault("ratios.profit_margin.good", ratio.ProfitMarginGood.String())
	v.SetDefault("ratios.profit_margin.fair", ratio.ProfitMarginFair.String())
	v.SetDefault("ratios.repayment_capacity.good", ratio.RepaymentCapacityGood.String())
	v.SetDefault("ratios.repayment_capacity.fair", ratio.RepaymentCapacityFair.String())
	v.SetDefault("ratios.capitalization.good", ratio.CapitalizationGood.String())
	v.SetDefault("ratios.capitalization.fair", ratio.CapitalizationFair.String())
	v.SetDefault("ratios.liquidity.good", ratio.LiquidityGood.String())
	v.SetDefault("ratios.liquidity.fair", ratio.LiquidityFair.String())
	v.SetDefault("ratios.points.excellent", ratio.ExcellentPoints)
	v.SetDefault("ratios.points.good", ratio.GoodPoints)
	v.SetDefault("ratios.points.moderate", ratio.ModeratePoints)

	v.SetDefault("scoring.weights.dscr", scoring.WeightDSCR.String())
	v.SetDefault("scoring.weights.collateral", scoring.WeightCollateral.String())
	v.SetDefault("scoring.weights.stability", scoring.WeightStability.String())
	v.SetDefault("scoring.dscr_floor", scoring.DSCRFloor.String())
	v.SetDefault("scoring.collateral_floor", scoring.CollateralFloor.String())
	v.SetDefault("scoring.approve_at", scoring.ApproveAt.String())
	v.SetDefault("scoring.review_at", scoring.ReviewAt.String())
	v.SetDefault("scoring.stability_years", scoring.StabilityYears)
	v.SetDefault("scoring.dscr_brackets", bracketDefaults(scoring.DSCRBrackets))
	v.SetDefault("scoring.collateral_brackets", bracketDefaults(scoring.CollateralBrackets))
}

func bracketDefaults(brackets []service.Bracket) []map[string]any {
	out := make([]map[string]any, 0, len(brackets))
	for _, b := range brackets {
		out = append(out, map[string]any{"min": b.Min.String(), "score": b.Score.String()})
	}
	return out
}
