// Package amortize computes declining-balance amortization schedules for
// fixed-installment credits. Amounts are decimal and rounded to cents; the
// final installment absorbs the rounding remainder so the balance lands on
// exactly zero.
package amortize

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/moneystack/moneystack-go/internal/schedule"
)

// ErrNonConvergent is returned when the monthly payment does not cover the
// interest accrued on the balance, so the schedule would never terminate.
var ErrNonConvergent = errors.New("monthly payment does not cover accrued interest")

// maxInstallments bounds schedule generation. A 50-year monthly credit fits
// comfortably; anything longer is treated as non-convergent input.
const maxInstallments = 600

var (
	hundred = decimal.NewFromInt(100)
	twelve  = decimal.NewFromInt(12)
)

// Installment is one line of an amortization schedule.
type Installment struct {
	Date      time.Time
	Amount    decimal.Decimal
	Principal decimal.Decimal
	Interest  decimal.Decimal
	Remaining decimal.Decimal // balance after this installment
}

// Params describe a credit to amortize.
type Params struct {
	Principal  decimal.Decimal // outstanding balance at start
	Payment    decimal.Decimal // fixed monthly installment
	AnnualRate decimal.Decimal // percent, e.g. 2.5
	Start      time.Time       // date of the first installment
	End        time.Time       // optional hard stop; zero runs to a zero balance
	PaymentDay int             // 1-31, clamped per month
}

// MonthlyRate converts an annual percentage rate to a monthly fraction.
func MonthlyRate(annual decimal.Decimal) decimal.Decimal {
	return annual.Div(hundred).Div(twelve)
}

// Schedule generates the full installment schedule for p, running the
// balance down to zero. Each installment's interest is the monthly rate
// applied to the balance before the installment; principal is the rest of
// the payment, capped at the remaining balance so the last installment can
// be smaller than the nominal payment.
func Schedule(p Params) ([]Installment, error) {
	if p.Principal.Sign() <= 0 {
		return nil, nil
	}
	rate := MonthlyRate(p.AnnualRate)
	remaining := p.Principal.Round(2)
	current := p.Start

	out := make([]Installment, 0, 64)
	for remaining.Sign() > 0 {
		if !p.End.IsZero() && current.After(p.End) {
			break
		}
		if len(out) >= maxInstallments {
			return nil, ErrNonConvergent
		}
		interest := remaining.Mul(rate).Round(2)
		principal := p.Payment.Sub(interest)
		if principal.Sign() <= 0 {
			return nil, ErrNonConvergent
		}
		if principal.GreaterThan(remaining) {
			principal = remaining
		}
		remaining = remaining.Sub(principal)
		out = append(out, Installment{
			Date:      current,
			Amount:    principal.Add(interest),
			Principal: principal,
			Interest:  interest,
			Remaining: remaining,
		})
		current = nextInstallmentDate(current, p.PaymentDay)
	}
	return out, nil
}

// RemainingAfter returns the balance left after applying every installment
// dated strictly before now. It is used to reconstruct the outstanding
// amount of a credit whose start date lies in the past.
func RemainingAfter(p Params, now time.Time) (decimal.Decimal, error) {
	installments, err := Schedule(p)
	if err != nil {
		return decimal.Zero, err
	}
	remaining := p.Principal.Round(2)
	for _, inst := range installments {
		if !inst.Date.Before(now) {
			break
		}
		remaining = inst.Remaining
	}
	return remaining, nil
}

func nextInstallmentDate(current time.Time, paymentDay int) time.Time {
	next := schedule.AddMonths(current, 1)
	if paymentDay < 1 {
		return next
	}
	day := schedule.ClampDay(next, paymentDay)
	return time.Date(next.Year(), next.Month(), day, next.Hour(), next.Minute(), next.Second(), 0, next.Location())
}
