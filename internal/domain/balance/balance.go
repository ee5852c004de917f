package balance

import "github.com/shopspring/decimal"

// Snapshot is a computed, never persisted summary of a user's transactions.
// Amounts serialize as decimal strings.
//
// Percentages are each category's share of earnings+expenses+investments,
// rounded to the nearest integer, so they do not always add up to 100.
type Snapshot struct {
	Earnings    decimal.Decimal `json:"earnings"`
	Expenses    decimal.Decimal `json:"expenses"`
	Investments decimal.Decimal `json:"investments"`
	Balance     decimal.Decimal `json:"balance"`

	EarningsPercentage    int64 `json:"earningsPercentage"`
	ExpensesPercentage    int64 `json:"expensesPercentage"`
	InvestmentsPercentage int64 `json:"investmentsPercentage"`
}

var hundred = decimal.NewFromInt(100)

func NewSnapshot(earnings, expenses, investments decimal.Decimal) Snapshot {
	s := Snapshot{
		Earnings:    earnings,
		Expenses:    expenses,
		Investments: investments,
		Balance:     earnings.Sub(expenses).Sub(investments),
	}

	total := earnings.Add(expenses).Add(investments)
	if total.IsZero() {
		return s
	}

	s.EarningsPercentage = share(earnings, total)
	s.ExpensesPercentage = share(expenses, total)
	s.InvestmentsPercentage = share(investments, total)

	return s
}

func share(part, total decimal.Decimal) int64 {
	return part.Mul(hundred).Div(total).Round(0).IntPart()
}
