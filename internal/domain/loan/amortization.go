package loan

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Calculate quotes a flat-rate loan and builds its display schedule.
//
//	totalInterest  = principal * rate/100 * months
//	totalPayable   = principal + totalInterest
//	monthlyPayment = totalPayable / months
//
// The schedule charges interest on the running balance, so its columns do not add
// back up to the flat totals; the final balance goes negative and is shown as zero.
// months must be >= 1.
func Calculate(principal, monthlyRatePercent decimal.Decimal, months int) Calculation {
	if months < 1 {
		panic(fmt.Sprintf("loan.Calculate: months must be >= 1, got %d", months))
	}

	rate := monthlyRatePercent.Div(hundred)
	n := decimal.NewFromInt(int64(months))

	totalInterest := principal.Mul(rate).Mul(n)
	totalPayable := principal.Add(totalInterest)
	monthlyPayment := totalPayable.Div(n)

	schedule := make([]AmortizationEntry, 0, months)
	balance := principal
	for month := 1; month <= months; month++ {
		interest := balance.Mul(rate)
		principalPart := monthlyPayment.Sub(interest)
		balance = balance.Sub(principalPart)

		schedule = append(schedule, AmortizationEntry{
			Month:     month,
			Payment:   monthlyPayment,
			Principal: principalPart,
			Interest:  interest,
			Balance:   decimal.Max(balance, decimal.Zero),
		})
	}

	return Calculation{
		LoanAmount:           principal,
		InterestRate:         monthlyRatePercent,
		Months:               months,
		MonthlyPayment:       monthlyPayment,
		TotalPayable:         totalPayable,
		TotalInterest:        totalInterest,
		AmortizationSchedule: schedule,
	}
}

// DecimalFromFloat rejects NaN and infinities before they reach decimal arithmetic.
func DecimalFromFloat(field string, f float64) (decimal.Decimal, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Zero, fmt.Errorf("%w: %s must be a finite number", ErrValidation, field)
	}
	return decimal.NewFromFloat(f), nil
}
