package calendar

import (
	"fmt"
	"time"
)

// IsLeapYear reports whether year is a Gregorian leap year.
func IsLeapYear(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

// DaysInMonth returns the number of days in month (1-12) of year.
func DaysInMonth(year, month int) int {
	switch month {
	case 2:
		if IsLeapYear(year) {
			return 29
		}
		return 28
	case 4, 6, 9, 11:
		return 30
	default:
		return 31
	}
}

// ValidateDate rejects negative years, months outside 1-12, and days that
// do not exist in the given month.
func ValidateDate(year, month, day int) error {
	if month < 1 || month > 12 || year < 0 || day < 1 || day > 31 {
		return fmt.Errorf("%w: invalid date %d-%d-%d, ensure the day, month and year exist", ErrInvalidValue, year, month, day)
	}

	if n := DaysInMonth(year, month); day > n {
		return fmt.Errorf("%w: invalid day %d, chosen month has %d days", ErrInvalidValue, day, n)
	}

	return nil
}

// dayBounds returns the first and last second of the given UTC day.
func dayBounds(year, month, day int) (time.Time, time.Time) {
	start := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	return start, start.Add(24*time.Hour - time.Second)
}
