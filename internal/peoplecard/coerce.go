package peoplecard

import (
	"strconv"
	"strings"
	"time"
)

// MinDate is the "unknown" date. It is the zero time.Time, so every
// default-constructed date field already holds it.
var MinDate = time.Time{}

const dateLayout = "02.01.2006"

// ParseDate parses a DD.MM.YYYY date. Anything that is not three non-empty
// numeric components forming a real calendar date yields MinDate.
func ParseDate(raw string) time.Time {
	parts := strings.Split(strings.TrimSpace(raw), ".")
	if len(parts) != 3 {
		return MinDate
	}

	nums := [3]int{}
	for i, p := range parts {
		if !isDigits(p) {
			return MinDate
		}
		n, err := strconv.Atoi(p)
		if err != nil {
			return MinDate
		}
		nums[i] = n
	}
	day, month, year := nums[0], nums[1], nums[2]
	if year < 1 || month < 1 || month > 12 || day < 1 {
		return MinDate
	}

	date := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	// time.Date normalizes 31.02 into March
	if date.Day() != day || int(date.Month()) != month || date.Year() != year {
		return MinDate
	}
	return date
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// FormatDate renders a date as DD.MM.YYYY, MinDate renders as 01.01.0001.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return MinDate.Format(dateLayout)
	}
	return t.Format(dateLayout)
}

// IsUnknownDate reports whether t is the MinDate sentinel.
func IsUnknownDate(t time.Time) bool {
	return t.Equal(MinDate)
}

func ParseGender(checked bool) Gender {
	if checked {
		return GENDER_MALE
	}
	return GENDER_FEMALE
}

// ParseChecked interprets the raw "checked" attribute of a radio input.
func ParseChecked(value string, present bool) bool {
	if !present {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "false", "0", "off":
		return false
	}
	return true
}
