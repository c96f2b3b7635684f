package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"mortgage-calculator/domain"
	"mortgage-calculator/service"
)

type TermComparisonHandler struct {
	service *service.TermComparisonService
	limits  Limits
}

func NewTermComparisonHandler(service *service.TermComparisonService, limits Limits) *TermComparisonHandler {
	return &TermComparisonHandler{service: service, limits: limits}
}

type termComparisonQuery struct {
	Principal          string   `form:"principal"`
	AnnualInterestRate string   `form:"annualInterestRate"`
	Years              []string `form:"years"`
	MaxMonthlyPayment  string   `form:"maxMonthlyPayment"`
	Preference         string   `form:"preference"`
}

// CompareTerms handles GET /mortgage/compare-terms. years may be repeated
// or comma separated; without it the default terms are compared.
func (h *TermComparisonHandler) CompareTerms(c *gin.Context) {
	input, err := h.parseQuery(c)
	if err != nil {
		respondError(c, err)
		return
	}

	result, err := h.service.CompareTerms(c.Request.Context(), input)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *TermComparisonHandler) parseQuery(c *gin.Context) (domain.TermComparisonInput, error) {
	var q termComparisonQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		return domain.TermComparisonInput{}, &domain.InvalidInputError{Field: "query", Reason: err.Error()}
	}

	principal, err := parseAmount("principal", q.Principal)
	if err != nil {
		return domain.TermComparisonInput{}, err
	}
	rate, err := parseAmount("annualInterestRate", q.AnnualInterestRate)
	if err != nil {
		return domain.TermComparisonInput{}, err
	}

	var terms []int
	for _, raw := range q.Years {
		for _, part := range strings.Split(raw, ",") {
			years, err := parseYears(part)
			if err != nil {
				return domain.TermComparisonInput{}, err
			}
			terms = append(terms, years)
		}
	}

	maxPayment := decimal.Zero
	if strings.TrimSpace(q.MaxMonthlyPayment) != "" {
		if maxPayment, err = parseAmount("maxMonthlyPayment", q.MaxMonthlyPayment); err != nil {
			return domain.TermComparisonInput{}, err
		}
	}

	if err := h.limits.check(principal, terms); err != nil {
		return domain.TermComparisonInput{}, err
	}

	return domain.TermComparisonInput{
		Principal:                 principal,
		AnnualInterestRatePercent: rate,
		TermYears:                 terms,
		MaxMonthlyPayment:         maxPayment,
		Preference:                strings.TrimSpace(q.Preference),
	}, nil
}
