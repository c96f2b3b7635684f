package service

import (
	"errors"
	"math"
	"reflect"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"mortgage-calculator/domain"
)

// Amounts are rounded half away from zero (half-up for positive amounts)
// to two decimal places.
const moneyPlaces = 2

var (
	monthlyRateDivisor = decimal.NewFromInt(100 * monthsPerYear)
	loanValidator      = newLoanValidator()
)

func newLoanValidator() *validator.Validate {
	v := validator.New()
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			return d.InexactFloat64()
		}
		return nil
	}, decimal.Decimal{})
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ValidateLoanRequest returns an *domain.InvalidInputError for the first
// field that breaks its constraint.
func ValidateLoanRequest(req domain.LoanRequest) error {
	err := loanValidator.Struct(req)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return err
	}
	fe := fieldErrs[0]
	return &domain.InvalidInputError{Field: fe.Field(), Reason: validationReason(fe)}
}

func validationReason(fe validator.FieldError) string {
	switch fe.Tag() {
	case "gt":
		return "must be greater than " + fe.Param()
	case "gte":
		if fe.Param() == "0" {
			return "must not be negative"
		}
		return "must be at least " + fe.Param()
	case "lte":
		return "must not exceed " + fe.Param()
	}
	return "failed " + fe.Tag() + " check"
}

// ComputeMonthlyPayment returns the fixed monthly payment of the loan,
// rounded to cents.
func ComputeMonthlyPayment(req domain.LoanRequest) (decimal.Decimal, error) {
	if err := ValidateLoanRequest(req); err != nil {
		return decimal.Zero, err
	}

	n := req.NumberOfPayments()
	if req.AnnualInterestRatePercent.IsZero() {
		return req.Principal.DivRound(decimal.NewFromInt(int64(n)), moneyPlaces), nil
	}

	r := req.AnnualInterestRatePercent.InexactFloat64() / 100 / monthsPerYear
	if r <= 0 {
		// below float64 resolution the loan prices as interest free
		return req.Principal.DivRound(decimal.NewFromInt(int64(n)), moneyPlaces), nil
	}

	factor, err := paymentFactor(r, n)
	if err != nil {
		return decimal.Zero, err
	}
	return req.Principal.Mul(factor).Round(moneyPlaces), nil
}

// paymentFactor is r / (1 - (1+r)^-n), the payment per unit of principal.
// Log1p and Expm1 keep it finite and accurate for rates near zero and for
// terms where (1+r)^n overflows.
func paymentFactor(r float64, n int) (decimal.Decimal, error) {
	factor := r / -math.Expm1(-float64(n)*math.Log1p(r))
	if math.IsNaN(factor) || math.IsInf(factor, 0) || factor <= 0 {
		return decimal.Zero, &domain.InvalidInputError{
			Field:  "annualInterestRatePercent",
			Reason: "cannot be priced over this term",
		}
	}
	return decimal.NewFromFloat(factor), nil
}

// BuildAmortizationSchedule returns one entry per month of the term. The
// first payment falls one month after startDate; a zero startDate means
// today. The last entry always ends at a zero balance.
func BuildAmortizationSchedule(
	req domain.LoanRequest,
	startDate civil.Date,
) ([]domain.PaymentScheduleEntry, error) {

	payment, err := ComputeMonthlyPayment(req)
	if err != nil {
		return nil, err
	}
	if startDate == (civil.Date{}) {
		startDate = civil.DateOf(time.Now())
	}

	n := req.NumberOfPayments()
	schedule := make([]domain.PaymentScheduleEntry, 0, n)
	balance := req.Principal

	for month := 1; month <= n; month++ {
		interest := balance.Mul(req.AnnualInterestRatePercent).DivRound(monthlyRateDivisor, moneyPlaces)
		scheduled := payment
		principal := scheduled.Sub(interest)

		// rounding the payment up can pay tiny loans off early
		if principal.GreaterThan(balance) {
			principal = balance
			scheduled = principal.Add(interest)
		}

		if month == n {
			principal, scheduled = settleFinalPayment(balance, interest)
		}

		ending := balance.Sub(principal)
		schedule = append(schedule, domain.PaymentScheduleEntry{
			Month:            month,
			PaymentDate:      addMonths(startDate, month),
			BeginningBalance: balance,
			ScheduledPayment: scheduled,
			PrincipalPayment: principal,
			InterestPayment:  interest,
			EndingBalance:    ending,
		})
		balance = ending
	}

	return schedule, nil
}

// settleFinalPayment pays off whatever balance is left, absorbing the
// rounding drift of every earlier month.
func settleFinalPayment(balance, interest decimal.Decimal) (principal, scheduled decimal.Decimal) {
	return balance, balance.Add(interest)
}

// SummarizeSchedule totals the payments of a schedule.
func SummarizeSchedule(schedule []domain.PaymentScheduleEntry) domain.ScheduleSummary {
	summary := domain.ScheduleSummary{
		NumberOfPayments: len(schedule),
		TotalPayment:     decimal.Zero,
		TotalPrincipal:   decimal.Zero,
		TotalInterest:    decimal.Zero,
	}
	if len(schedule) == 0 {
		return summary
	}

	for _, entry := range schedule {
		summary.TotalPayment = summary.TotalPayment.Add(entry.ScheduledPayment)
		summary.TotalPrincipal = summary.TotalPrincipal.Add(entry.PrincipalPayment)
		summary.TotalInterest = summary.TotalInterest.Add(entry.InterestPayment)
	}
	summary.FirstPaymentDate = schedule[0].PaymentDate
	summary.LastPaymentDate = schedule[len(schedule)-1].PaymentDate

	return summary
}

// addMonths moves date forward by whole calendar months, clamping the day
// to the end of shorter months.
func addMonths(date civil.Date, months int) civil.Date {
	total := int(date.Month) - 1 + months
	year := date.Year + total/monthsPerYear
	month := time.Month(total%monthsPerYear + 1)

	day := date.Day
	if last := daysIn(year, month); day > last {
		day = last
	}
	return civil.Date{Year: year, Month: month, Day: day}
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
