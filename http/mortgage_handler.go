package http

import (
	"net/http"
	"strconv"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"mortgage-calculator/domain"
	"mortgage-calculator/service"
)

// Limits are caller-side bounds on what the API accepts. They are not
// engine invariants.
type Limits struct {
	MaxPrincipal decimal.Decimal
	MaxTermYears int
}

type MortgageHandler struct {
	service *service.MortgageService
	limits  Limits
}

func NewMortgageHandler(service *service.MortgageService, limits Limits) *MortgageHandler {
	return &MortgageHandler{service: service, limits: limits}
}

// mortgageQuery uses the parameter names of the mortgage form.
type mortgageQuery struct {
	Principal          string `form:"principal"`
	AnnualInterestRate string `form:"annualInterestRate"`
	Years              string `form:"years"`
	StartDate          string `form:"startDate"`
}

// Calculate handles GET /mortgage/calculate.
func (h *MortgageHandler) Calculate(c *gin.Context) {
	req, startDate, err := h.parseQuery(c)
	if err != nil {
		respondError(c, err)
		return
	}

	result, err := h.service.Calculate(c.Request.Context(), req, startDate)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// AmortizationSchedule handles GET /mortgage/amortization-schedule.
func (h *MortgageHandler) AmortizationSchedule(c *gin.Context) {
	req, startDate, err := h.parseQuery(c)
	if err != nil {
		respondError(c, err)
		return
	}

	schedule, err := h.service.Schedule(c.Request.Context(), req, startDate)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, schedule)
}

func (h *MortgageHandler) parseQuery(c *gin.Context) (domain.LoanRequest, civil.Date, error) {
	var q mortgageQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		return domain.LoanRequest{}, civil.Date{}, &domain.InvalidInputError{Field: "query", Reason: err.Error()}
	}

	principal, err := parseAmount("principal", q.Principal)
	if err != nil {
		return domain.LoanRequest{}, civil.Date{}, err
	}
	rate, err := parseAmount("annualInterestRate", q.AnnualInterestRate)
	if err != nil {
		return domain.LoanRequest{}, civil.Date{}, err
	}
	years, err := parseYears(q.Years)
	if err != nil {
		return domain.LoanRequest{}, civil.Date{}, err
	}
	startDate, err := parseStartDate(q.StartDate)
	if err != nil {
		return domain.LoanRequest{}, civil.Date{}, err
	}

	if err := h.limits.check(principal, []int{years}); err != nil {
		return domain.LoanRequest{}, civil.Date{}, err
	}

	return domain.LoanRequest{
		Principal:                 principal,
		AnnualInterestRatePercent: rate,
		TermYears:                 years,
	}, startDate, nil
}

// check applies the limits. Zero values disable a limit.
func (l Limits) check(principal decimal.Decimal, terms []int) error {
	if l.MaxPrincipal.IsPositive() && principal.GreaterThan(l.MaxPrincipal) {
		return &domain.InvalidInputError{
			Field:  "principal",
			Reason: "must not exceed " + l.MaxPrincipal.String(),
		}
	}
	for _, years := range terms {
		if l.MaxTermYears > 0 && years > l.MaxTermYears {
			return &domain.InvalidInputError{
				Field:  "years",
				Reason: "must not exceed " + strconv.Itoa(l.MaxTermYears),
			}
		}
	}
	return nil
}

func parseAmount(field, raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, &domain.InvalidInputError{Field: field, Reason: "is required"}
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, &domain.InvalidInputError{Field: field, Reason: "must be a number"}
	}
	return d, nil
}

func parseYears(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, &domain.InvalidInputError{Field: "years", Reason: "is required"}
	}
	years, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &domain.InvalidInputError{Field: "years", Reason: "must be a whole number"}
	}
	return years, nil
}

func parseStartDate(raw string) (civil.Date, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return civil.Date{}, nil
	}
	date, err := civil.ParseDate(raw)
	if err != nil {
		return civil.Date{}, &domain.InvalidInputError{Field: "startDate", Reason: "must be a date in YYYY-MM-DD format"}
	}
	return date, nil
}
