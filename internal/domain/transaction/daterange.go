package transaction

import (
	"errors"
	"time"
)

var ErrInvalidRange = errors.New("from date must be earlier than or equal to to date")

// DateRange bounds a query by transaction date, inclusive on both ends.
// The zero value matches every date.
type DateRange struct {
	From *time.Time
	To   *time.Time
}

func NewDateRange(from, to time.Time) DateRange {
	return DateRange{From: &from, To: &to}
}

func (r DateRange) IsZero() bool {
	return r.From == nil && r.To == nil
}

func (r DateRange) Validate() error {
	if (r.From == nil) != (r.To == nil) {
		return errors.New("from and to must be provided together")
	}
	if r.From != nil && r.From.After(*r.To) {
		return ErrInvalidRange
	}
	return nil
}

func (r DateRange) Contains(t time.Time) bool {
	if r.From != nil && t.Before(*r.From) {
		return false
	}
	if r.To != nil && t.After(*r.To) {
		return false
	}
	return true
}
