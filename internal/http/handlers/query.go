package handlers

import (
	"errors"
	"fmt"
	"time"

	"github.com/geocoder89/finledger/internal/domain/transaction"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const dateOnly = "2006-01-02"

// dateRangeFromQuery reads ?from=&to=. Each accepts YYYY-MM-DD or RFC 3339; a
// date-only "to" covers that whole day.
func dateRangeFromQuery(ctx *gin.Context) (transaction.DateRange, error) {
	rawFrom, rawTo := ctx.Query("from"), ctx.Query("to")

	if rawFrom == "" && rawTo == "" {
		return transaction.DateRange{}, nil
	}
	if rawFrom == "" || rawTo == "" {
		return transaction.DateRange{}, errors.New("from and to must be provided together")
	}

	from, _, err := parseQueryTime(rawFrom)
	if err != nil {
		return transaction.DateRange{}, fmt.Errorf("from: %w", err)
	}

	to, dayOnly, err := parseQueryTime(rawTo)
	if err != nil {
		return transaction.DateRange{}, fmt.Errorf("to: %w", err)
	}
	if dayOnly {
		to = to.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}

	r := transaction.NewDateRange(from, to)
	if err := r.Validate(); err != nil {
		return transaction.DateRange{}, err
	}
	return r, nil
}

func parseQueryTime(raw string) (t time.Time, dayOnly bool, err error) {
	if t, err := time.Parse(dateOnly, raw); err == nil {
		return t, true, nil
	}
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return t, false, nil
	}
	return time.Time{}, false, fmt.Errorf("%q is not a date (YYYY-MM-DD) or RFC 3339 timestamp", raw)
}

// uuidParam returns the named path param, or writes a 400 when it is not a UUID.
func uuidParam(ctx *gin.Context, name string) (string, bool) {
	id := ctx.Param(name)
	if err := uuid.Validate(id); err != nil {
		RespondBadRequest(ctx, name+" must be a valid UUID", nil)
		return "", false
	}
	return id, true
}
