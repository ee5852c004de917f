package transaction

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

type Type string

const (
	TypeExpense    Type = "EXPENSE"
	TypeEarning    Type = "EARNING"
	TypeInvestment Type = "INVESTMENT"
)

func (t Type) IsValid() bool {
	switch t {
	case TypeExpense, TypeEarning, TypeInvestment:
		return true
	default:
		return false
	}
}

type Transaction struct {
	ID     string          `json:"id"`
	UserID string          `json:"user_id"`
	Name   string          `json:"name"`
	Date   time.Time       `json:"date"`
	Type   Type            `json:"type"`
	Amount decimal.Decimal `json:"amount"`
}

var (
	ErrNotFound      = errors.New("transaction not found")
	ErrInvalidAmount = errors.New("amount must be positive with at most 2 decimal places")
	ErrInvalidType   = errors.New("type must be one of EXPENSE, EARNING or INVESTMENT")
	ErrBlankName     = errors.New("name is required")
)

type CreateParams struct {
	UserID string          `json:"-"`
	Name   string          `json:"name" binding:"required,notblank"`
	Date   time.Time       `json:"date" binding:"required"`
	Type   Type            `json:"type" binding:"required,oneof=EXPENSE EARNING INVESTMENT"`
	Amount decimal.Decimal `json:"amount" binding:"money"`
}

// Patch is a partial update. Nil fields are left untouched.
type Patch struct {
	Name   *string          `json:"name" binding:"omitempty,notblank"`
	Date   *time.Time       `json:"date"`
	Type   *Type            `json:"type" binding:"omitempty,oneof=EXPENSE EARNING INVESTMENT"`
	Amount *decimal.Decimal `json:"amount" binding:"omitempty,money"`
}

func (p Patch) IsEmpty() bool {
	return p.Name == nil && p.Date == nil && p.Type == nil && p.Amount == nil
}

// Apply merges the present fields of p into t. The owner never changes.
func (p Patch) Apply(t Transaction) Transaction {
	if p.Name != nil {
		t.Name = *p.Name
	}
	if p.Date != nil {
		t.Date = *p.Date
	}
	if p.Type != nil {
		t.Type = *p.Type
	}
	if p.Amount != nil {
		t.Amount = *p.Amount
	}
	return t
}

// ValidAmount reports whether d is a positive currency amount with at most two
// fractional digits.
func ValidAmount(d decimal.Decimal) bool {
	return d.IsPositive() && d.Equal(d.Round(2))
}

// Check enforces the shape invariants a stored transaction must satisfy.
func Check(name string, typ Type, amount decimal.Decimal) error {
	if name == "" {
		return ErrBlankName
	}
	if !typ.IsValid() {
		return ErrInvalidType
	}
	if !ValidAmount(amount) {
		return ErrInvalidAmount
	}
	return nil
}
