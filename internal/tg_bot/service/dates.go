package service

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the only accepted format of departure and arrival dates.
const DateLayout = "02.01.2006"

const dateTimeLayout = DateLayout + " 15:04"

// ParseDateDepart parses a date in dd.MM.yyyy strictly: two-digit day and month, existing calendar day.
func ParseDateDepart(value string) (time.Time, error) {
	date, err := time.Parse(DateLayout, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", value, err)
	}
	return date, nil
}

// FormatDate renders the date in dd.MM.yyyy.
func FormatDate(date time.Time) string {
	return date.Format(DateLayout)
}
