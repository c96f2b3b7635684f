package service

import (
	"context"
	"fmt"
	"math"
	"sort"

	"cloud.google.com/go/civil"
	"go.uber.org/zap"

	"mortgage-calculator/domain"
	"mortgage-calculator/logger"
)

// roundTo2Decimals rounds a score to two decimals.
func roundTo2Decimals(value float64) float64 {
	return math.Round(value*100) / 100
}

type TermComparisonService struct {
	mortgageService *MortgageService
}

func NewTermComparisonService(mortgageService *MortgageService) *TermComparisonService {
	return &TermComparisonService{mortgageService: mortgageService}
}

var preferenceWeights = map[string]struct{ interest, payment, term float64 }{
	PreferenceMinimizeInterest: {0.6, 0.2, 0.2},
	PreferenceMinimizePayment:  {0.2, 0.6, 0.2},
	PreferenceBalanced:         {0.4, 0.4, 0.2},
}

// CompareTerms prices the loan over each requested term and ranks the terms
// by the caller's preference.
func (s *TermComparisonService) CompareTerms(
	ctx context.Context,
	input domain.TermComparisonInput,
) (domain.TermComparisonResult, error) {

	terms, err := normalizeTerms(input.TermYears)
	if err != nil {
		return domain.TermComparisonResult{}, err
	}

	preference := input.Preference
	if preference == "" {
		preference = PreferenceBalanced
	}
	if _, ok := preferenceWeights[preference]; !ok {
		return domain.TermComparisonResult{}, &domain.InvalidInputError{
			Field:  "preference",
			Reason: fmt.Sprintf("must be one of %s, %s, %s", PreferenceMinimizeInterest, PreferenceMinimizePayment, PreferenceBalanced),
		}
	}
	if input.MaxMonthlyPayment.IsNegative() {
		return domain.TermComparisonResult{}, &domain.InvalidInputError{
			Field:  "maxMonthlyPayment",
			Reason: "must not be negative",
		}
	}

	comparisons := []domain.TermComparison{}

	for _, years := range terms {
		req := domain.LoanRequest{
			Principal:                 input.Principal,
			AnnualInterestRatePercent: input.AnnualInterestRatePercent,
			TermYears:                 years,
		}

		result, err := s.mortgageService.Calculate(ctx, req, civil.Date{})
		if err != nil {
			return domain.TermComparisonResult{}, err
		}

		if input.MaxMonthlyPayment.IsPositive() && result.MonthlyPayment.GreaterThan(input.MaxMonthlyPayment) {
			logger.CtxDebug(ctx, "Term exceeds payment cap", zap.Int("term_years", years))
			continue
		}

		comparisons = append(comparisons, domain.TermComparison{
			TermYears:      years,
			MonthlyPayment: result.MonthlyPayment,
			TotalPayment:   result.Summary.TotalPayment,
			TotalInterest:  result.Summary.TotalInterest,
		})
	}

	if len(comparisons) == 0 {
		return domain.TermComparisonResult{}, domain.ErrNoTermFits
	}

	scoreComparisons(comparisons, preference)

	sort.SliceStable(comparisons, func(i, j int) bool {
		if comparisons[i].Score != comparisons[j].Score {
			return comparisons[i].Score > comparisons[j].Score
		}
		return comparisons[i].TermYears < comparisons[j].TermYears
	})
	comparisons[0].Reason = recommendationReason(preference)

	return domain.TermComparisonResult{
		RecommendedTermYears: comparisons[0].TermYears,
		Preference:           preference,
		Comparisons:          comparisons,
	}, nil
}

// normalizeTerms applies the default terms, drops duplicates and keeps the
// caller's order.
func normalizeTerms(terms []int) ([]int, error) {
	if len(terms) == 0 {
		return append([]int(nil), DefaultComparedTerms...), nil
	}

	seen := make(map[int]bool, len(terms))
	unique := make([]int, 0, len(terms))
	for _, years := range terms {
		if years <= 0 {
			return nil, &domain.InvalidInputError{Field: "termYears", Reason: "must be greater than 0"}
		}
		if seen[years] {
			continue
		}
		seen[years] = true
		unique = append(unique, years)
	}

	if len(unique) > MaxComparedTerms {
		return nil, &domain.InvalidInputError{
			Field:  "termYears",
			Reason: fmt.Sprintf("at most %d terms can be compared", MaxComparedTerms),
		}
	}
	return unique, nil
}

// scoreComparisons gives every term a 0-10 score. Interest, payment and
// term length are each normalized over the compared terms, lower being
// better, then weighted by preference.
func scoreComparisons(comparisons []domain.TermComparison, preference string) {
	weights := preferenceWeights[preference]

	minInterest, maxInterest := math.Inf(1), math.Inf(-1)
	minPayment, maxPayment := math.Inf(1), math.Inf(-1)
	minTerm, maxTerm := math.Inf(1), math.Inf(-1)
	for _, c := range comparisons {
		interest := c.TotalInterest.InexactFloat64()
		payment := c.MonthlyPayment.InexactFloat64()
		term := float64(c.TermYears)

		minInterest, maxInterest = math.Min(minInterest, interest), math.Max(maxInterest, interest)
		minPayment, maxPayment = math.Min(minPayment, payment), math.Max(maxPayment, payment)
		minTerm, maxTerm = math.Min(minTerm, term), math.Max(maxTerm, term)
	}

	for i := range comparisons {
		c := &comparisons[i]
		interestScore := normalizedScore(c.TotalInterest.InexactFloat64(), minInterest, maxInterest)
		paymentScore := normalizedScore(c.MonthlyPayment.InexactFloat64(), minPayment, maxPayment)
		termScore := normalizedScore(float64(c.TermYears), minTerm, maxTerm)

		c.Score = roundTo2Decimals(weights.interest*interestScore + weights.payment*paymentScore + weights.term*termScore)
		c.Reason = comparisonReason(*c, minInterest, minPayment)
	}
}

func normalizedScore(value, lo, hi float64) float64 {
	if hi <= lo {
		return 10
	}
	return 10 * (1 - (value-lo)/(hi-lo))
}

func comparisonReason(c domain.TermComparison, minInterest, minPayment float64) string {
	switch {
	case c.TotalInterest.InexactFloat64() == minInterest:
		return "Lowest total interest of the compared terms"
	case c.MonthlyPayment.InexactFloat64() == minPayment:
		return "Lowest monthly payment of the compared terms"
	}
	return "Between the cheapest and the most affordable term"
}

func recommendationReason(preference string) string {
	switch preference {
	case PreferenceMinimizeInterest:
		return "Term optimized to minimize total interest"
	case PreferenceMinimizePayment:
		return "Term optimized to minimize the monthly payment"
	case PreferenceBalanced:
		return "Best balance between monthly payment and total cost"
	}
	return "Recommendation based on the provided parameters"
}
