package loan

import (
	"fmt"
	"strings"

	domain "makono-backend/internal/domain/loan"

	"github.com/shopspring/decimal"
)

func (u *Usecase) money(d decimal.Decimal) string {
	return u.catalog.Currency + " " + d.StringFixed(2)
}

// grouped renders whole amounts with thousands separators: 10000 -> "10,000".
func grouped(d decimal.Decimal) string {
	s := d.StringFixed(0)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}

func (u *Usecase) approvedMessage(l domain.Loan) string {
	return fmt.Sprintf("Your loan application of %s %s has been approved.", u.catalog.Currency, grouped(l.Amount))
}

func (u *Usecase) disbursedMessage(l domain.Loan) string {
	return fmt.Sprintf("Your loan of %s %s has been disbursed. Total repayment: %s due on %s.",
		u.catalog.Currency, grouped(l.Amount), u.money(l.TotalPayable), l.DueDate.Format("2006-01-02"))
}

func (u *Usecase) overdueMessage(penalty decimal.Decimal) string {
	return fmt.Sprintf("Your loan payment is overdue. A 2%% penalty (%s) has been added to your total payable amount.",
		u.money(penalty))
}

func (u *Usecase) reminderMessage(l domain.Loan, days int) string {
	if days == 3 {
		return fmt.Sprintf("Your loan payment is due in 3 days. Please ensure you have %s ready.", u.money(l.TotalPayable))
	}
	return fmt.Sprintf("Your loan payment is due in %d days. Please prepare %s for repayment.", days, u.money(l.TotalPayable))
}
