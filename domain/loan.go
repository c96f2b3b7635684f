package domain

import (
	"encoding/json"
	"fmt"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

// LoanRequest holds the inputs of a fixed-payment mortgage.
type LoanRequest struct {
	Principal                 decimal.Decimal `json:"principal" validate:"gt=0"`
	AnnualInterestRatePercent decimal.Decimal `json:"annualInterestRatePercent" validate:"gte=0,lte=100"`
	TermYears                 int             `json:"termYears" validate:"gt=0,lte=1200"`
}

// MaxTermYears caps the term so a schedule, which is built eagerly, stays
// allocatable. Callers usually apply a much tighter limit.
const MaxTermYears = 1200

// NumberOfPayments is the number of monthly payments over the term.
func (r LoanRequest) NumberOfPayments() int {
	return r.TermYears * 12
}

// PaymentScheduleEntry is one month of an amortization schedule.
type PaymentScheduleEntry struct {
	Month            int
	PaymentDate      civil.Date
	BeginningBalance decimal.Decimal
	ScheduledPayment decimal.Decimal
	PrincipalPayment decimal.Decimal
	InterestPayment  decimal.Decimal
	EndingBalance    decimal.Decimal
}

type paymentScheduleEntryJSON struct {
	Month            int         `json:"month"`
	PaymentDate      civil.Date  `json:"paymentDate"`
	BeginningBalance json.Number `json:"beginningBalance"`
	ScheduledPayment json.Number `json:"scheduledPayment"`
	PrincipalPayment json.Number `json:"principalPayment"`
	InterestPayment  json.Number `json:"interestPayment"`
	EndingBalance    json.Number `json:"endingBalance"`
}

// MarshalJSON writes amounts as numbers with two decimals.
func (e PaymentScheduleEntry) MarshalJSON() ([]byte, error) {
	return json.Marshal(paymentScheduleEntryJSON{
		Month:            e.Month,
		PaymentDate:      e.PaymentDate,
		BeginningBalance: Money(e.BeginningBalance),
		ScheduledPayment: Money(e.ScheduledPayment),
		PrincipalPayment: Money(e.PrincipalPayment),
		InterestPayment:  Money(e.InterestPayment),
		EndingBalance:    Money(e.EndingBalance),
	})
}

func (e *PaymentScheduleEntry) UnmarshalJSON(data []byte) error {
	var raw paymentScheduleEntryJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	amounts := []struct {
		dst *decimal.Decimal
		src json.Number
	}{
		{&e.BeginningBalance, raw.BeginningBalance},
		{&e.ScheduledPayment, raw.ScheduledPayment},
		{&e.PrincipalPayment, raw.PrincipalPayment},
		{&e.InterestPayment, raw.InterestPayment},
		{&e.EndingBalance, raw.EndingBalance},
	}
	for _, a := range amounts {
		d, err := decimal.NewFromString(a.src.String())
		if err != nil {
			return fmt.Errorf("invalid amount %q: %w", a.src, err)
		}
		*a.dst = d
	}

	e.Month = raw.Month
	e.PaymentDate = raw.PaymentDate
	return nil
}

// ScheduleSummary totals an amortization schedule.
type ScheduleSummary struct {
	NumberOfPayments int
	TotalPayment     decimal.Decimal
	TotalPrincipal   decimal.Decimal
	TotalInterest    decimal.Decimal
	FirstPaymentDate civil.Date
	LastPaymentDate  civil.Date
}

// MortgageResult is the answer to a calculate request.
type MortgageResult struct {
	MonthlyPayment decimal.Decimal
	Summary        ScheduleSummary
}

func (r MortgageResult) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		MonthlyPayment   json.Number `json:"monthlyPayment"`
		NumberOfPayments int         `json:"numberOfPayments"`
		TotalPayment     json.Number `json:"totalPayment"`
		TotalPrincipal   json.Number `json:"totalPrincipal"`
		TotalInterest    json.Number `json:"totalInterest"`
		FirstPaymentDate civil.Date  `json:"firstPaymentDate"`
		LastPaymentDate  civil.Date  `json:"lastPaymentDate"`
	}{
		MonthlyPayment:   Money(r.MonthlyPayment),
		NumberOfPayments: r.Summary.NumberOfPayments,
		TotalPayment:     Money(r.Summary.TotalPayment),
		TotalPrincipal:   Money(r.Summary.TotalPrincipal),
		TotalInterest:    Money(r.Summary.TotalInterest),
		FirstPaymentDate: r.Summary.FirstPaymentDate,
		LastPaymentDate:  r.Summary.LastPaymentDate,
	})
}

// Money renders an amount as a JSON number with exactly two decimals.
func Money(d decimal.Decimal) json.Number {
	return json.Number(d.StringFixed(2))
}
