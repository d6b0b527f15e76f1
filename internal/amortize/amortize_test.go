package amortize

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func baseParams() Params {
	return Params{
		Principal:  dec("200000"),
		Payment:    dec("1200"),
		AnnualRate: dec("2.5"),
		Start:      time.Date(2024, time.January, 15, 12, 0, 0, 0, time.UTC),
		PaymentDay: 15,
	}
}

func TestScheduleRunsBalanceToZero(t *testing.T) {
	installments, err := Schedule(baseParams())
	if err != nil {
		t.Fatalf("Schedule: %v", err)
	}
	if len(installments) == 0 {
		t.Fatal("empty schedule")
	}

	prev := dec("200000")
	for i, inst := range installments {
		if inst.Remaining.GreaterThan(prev) {
			t.Fatalf("installment %d: balance grew from %s to %s", i, prev, inst.Remaining)
		}
		if !inst.Amount.Equal(inst.Principal.Add(inst.Interest)) {
			t.Fatalf("installment %d: amount %s != principal %s + interest %s", i, inst.Amount, inst.Principal, inst.Interest)
		}
		if !prev.Sub(inst.Principal).Equal(inst.Remaining) {
			t.Fatalf("installment %d: principal %s does not reconcile %s -> %s", i, inst.Principal, prev, inst.Remaining)
		}
		prev = inst.Remaining
	}

	last := installments[len(installments)-1]
	if !last.Remaining.IsZero() {
		t.Fatalf("final balance = %s, want 0", last.Remaining)
	}
	if last.Amount.GreaterThan(dec("1200")) {
		t.Fatalf("final installment %s exceeds nominal payment", last.Amount)
	}
}

func TestScheduleFirstInstallmentInterest(t *testing.T) {
	installments, err := Schedule(baseParams())
	if err != nil {
		t.Fatalf("Schedule: %v", err)
	}
	// 200000 * (2.5/100/12) = 416.67 to the cent.
	first := installments[0]
	if !first.Interest.Equal(dec("416.67")) {
		t.Errorf("first interest = %s, want 416.67", first.Interest)
	}
	if !first.Principal.Equal(dec("783.33")) {
		t.Errorf("first principal = %s, want 783.33", first.Principal)
	}
	if !first.Remaining.Equal(dec("199216.67")) {
		t.Errorf("first remaining = %s, want 199216.67", first.Remaining)
	}
}

func TestScheduleDatesClampThroughShortMonths(t *testing.T) {
	p := Params{
		Principal:  dec("3000"),
		Payment:    dec("1010"),
		AnnualRate: dec("12"),
		Start:      time.Date(2024, time.January, 31, 12, 0, 0, 0, time.UTC),
		PaymentDay: 31,
	}
	installments, err := Schedule(p)
	if err != nil {
		t.Fatalf("Schedule: %v", err)
	}
	if len(installments) < 3 {
		t.Fatalf("schedule too short: %d", len(installments))
	}
	wantDates := []time.Time{
		time.Date(2024, time.January, 31, 12, 0, 0, 0, time.UTC),
		time.Date(2024, time.February, 29, 12, 0, 0, 0, time.UTC),
		time.Date(2024, time.March, 31, 12, 0, 0, 0, time.UTC),
	}
	for i, want := range wantDates {
		if !installments[i].Date.Equal(want) {
			t.Errorf("installment %d date = %v, want %v", i, installments[i].Date, want)
		}
	}
}

func TestScheduleNonConvergent(t *testing.T) {
	p := baseParams()
	p.Payment = dec("400") // below first month's interest of 416.67
	if _, err := Schedule(p); !errors.Is(err, ErrNonConvergent) {
		t.Fatalf("err = %v, want ErrNonConvergent", err)
	}
}

func TestScheduleZeroRate(t *testing.T) {
	p := Params{
		Principal:  dec("1000"),
		Payment:    dec("300"),
		AnnualRate: decimal.Zero,
		Start:      time.Date(2024, time.January, 1, 12, 0, 0, 0, time.UTC),
		PaymentDay: 1,
	}
	installments, err := Schedule(p)
	if err != nil {
		t.Fatalf("Schedule: %v", err)
	}
	if len(installments) != 4 {
		t.Fatalf("len = %d, want 4", len(installments))
	}
	if !installments[3].Amount.Equal(dec("100")) {
		t.Errorf("final installment = %s, want 100", installments[3].Amount)
	}
}

func TestScheduleEmptyForNonPositivePrincipal(t *testing.T) {
	p := baseParams()
	p.Principal = decimal.Zero
	installments, err := Schedule(p)
	if err != nil || installments != nil {
		t.Fatalf("got (%v, %v), want (nil, nil)", installments, err)
	}
}

func TestRemainingAfter(t *testing.T) {
	p := baseParams()

	// Before the first installment nothing has been paid.
	now := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	got, err := RemainingAfter(p, now)
	if err != nil {
		t.Fatalf("RemainingAfter: %v", err)
	}
	if !got.Equal(dec("200000")) {
		t.Errorf("remaining before start = %s, want 200000", got)
	}

	// Installments run on the 15th: Jan 2024 through Dec 2025 is 24 of them.
	now = time.Date(2026, time.January, 10, 0, 0, 0, 0, time.UTC)
	got, err = RemainingAfter(p, now)
	if err != nil {
		t.Fatalf("RemainingAfter: %v", err)
	}
	installments, _ := Schedule(p)
	if !got.Equal(installments[23].Remaining) {
		t.Errorf("remaining after 24 payments = %s, want %s", got, installments[23].Remaining)
	}
	if !got.LessThan(dec("200000")) {
		t.Error("remaining did not decrease")
	}

	// An installment dated exactly now has not settled yet.
	exact := installments[0].Date
	got, err = RemainingAfter(p, exact)
	if err != nil {
		t.Fatalf("RemainingAfter: %v", err)
	}
	if !got.Equal(dec("200000")) {
		t.Errorf("remaining at first due instant = %s, want 200000", got)
	}
}

func TestScheduleStopsAtEndDate(t *testing.T) {
	p := Params{
		Principal:  dec("1000"),
		Payment:    dec("100"),
		AnnualRate: dec("0"),
		Start:      time.Date(2026, time.January, 15, 12, 0, 0, 0, time.UTC),
		End:        time.Date(2026, time.June, 30, 0, 0, 0, 0, time.UTC),
		PaymentDay: 15,
	}
	installments, err := Schedule(p)
	if err != nil {
		t.Fatalf("Schedule: %v", err)
	}
	// Jan through Jun: six installments, balance not yet zero.
	if len(installments) != 6 {
		t.Fatalf("installments = %d, want 6", len(installments))
	}
	last := installments[len(installments)-1]
	if !last.Remaining.Equal(dec("400")) {
		t.Errorf("remaining at end date = %s, want 400", last.Remaining)
	}
}
