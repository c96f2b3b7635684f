package domain

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

type TermComparisonInput struct {
	Principal                 decimal.Decimal
	AnnualInterestRatePercent decimal.Decimal
	TermYears                 []int
	MaxMonthlyPayment         decimal.Decimal // zero means no cap
	Preference                string          // "minimize_interest", "minimize_payment", "balanced"
}

type TermComparison struct {
	TermYears      int
	MonthlyPayment decimal.Decimal
	TotalPayment   decimal.Decimal
	TotalInterest  decimal.Decimal
	Score          float64
	Reason         string
}

func (c TermComparison) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		TermYears      int         `json:"termYears"`
		MonthlyPayment json.Number `json:"monthlyPayment"`
		TotalPayment   json.Number `json:"totalPayment"`
		TotalInterest  json.Number `json:"totalInterest"`
		Score          float64     `json:"score"`
		Reason         string      `json:"reason"`
	}{
		TermYears:      c.TermYears,
		MonthlyPayment: Money(c.MonthlyPayment),
		TotalPayment:   Money(c.TotalPayment),
		TotalInterest:  Money(c.TotalInterest),
		Score:          c.Score,
		Reason:         c.Reason,
	})
}

type TermComparisonResult struct {
	RecommendedTermYears int              `json:"recommendedTermYears"`
	Preference           string           `json:"preference"`
	Comparisons          []TermComparison `json:"comparisons"`
}
