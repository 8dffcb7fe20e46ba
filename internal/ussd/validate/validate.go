// Package validate holds the field validators for the USSD flows. Each
// validator is a pure predicate: nil on accept, a CodeValidation domain error
// carrying the canonical user-facing rejection message otherwise. Raw faults
// never reach the subscriber.
package validate

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	dErrors "ebirth/pkg/domain-errors"
)

const (
	// RegionMin and RegionMax bound the administrative region codes.
	RegionMin = 1
	RegionMax = 16

	// DOBWindowYears is how far back a registrable date of birth may fall.
	DOBWindowYears = 10
)

var (
	namePattern = regexp.MustCompile(`^[a-zA-Z\s'-]+$`)

	// Canonical national ID form: fixed prefix, nine digits, one trailing
	// alphanumeric check character. The plain 15-digit legacy form is not
	// accepted (see DESIGN.md).
	nationalIDPattern = regexp.MustCompile(`^GHA-\d{9}-[0-9A-Z]$`)

	ubrnPattern = regexp.MustCompile(`^GHA-\d{2}-\d{3}-\d{5}-\d{4}-[0-9X]$`)
)

// Region accepts integer region codes 1..16.
func Region(raw string) error {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < RegionMin || n > RegionMax {
		return dErrors.New(dErrors.CodeValidation, "Invalid region selection.")
	}
	return nil
}

// District accepts exactly three decimal digits.
func District(raw string) error {
	if len(raw) != 3 || !allDigits(raw) {
		return dErrors.New(dErrors.CodeValidation, "Invalid district code.")
	}
	return nil
}

// DateOfBirth accepts DDMMYYYY strings that form a real calendar date within
// the last DOBWindowYears years relative to now.
func DateOfBirth(raw string, now time.Time) error {
	reject := dErrors.New(dErrors.CodeValidation, "Invalid date of birth.")
	if len(raw) != 8 || !allDigits(raw) {
		return reject
	}
	day, _ := strconv.Atoi(raw[0:2])
	month, _ := strconv.Atoi(raw[2:4])
	year, _ := strconv.Atoi(raw[4:8])

	if day < 1 || day > 31 || month < 1 || month > 12 {
		return reject
	}
	if year < now.Year()-DOBWindowYears || year > now.Year() {
		return reject
	}
	// time.Date normalizes out-of-range days (Feb 30 becomes Mar 2), so a
	// round-trip comparison detects impossible calendar dates.
	d := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if d.Day() != day || d.Month() != time.Month(month) || d.Year() != year {
		return reject
	}
	return nil
}

// Sex accepts the menu selections "1" (male) and "2" (female).
func Sex(raw string) error {
	if raw != "1" && raw != "2" {
		return dErrors.New(dErrors.CodeValidation, "Invalid sex selection.")
	}
	return nil
}

// Name accepts trimmed names of 2..50 characters composed of letters, spaces,
// apostrophes and hyphens.
func Name(raw string) error {
	clean := strings.TrimSpace(raw)
	if len(clean) < 2 || len(clean) > 50 || !namePattern.MatchString(clean) {
		return dErrors.New(dErrors.CodeValidation, "Invalid name.")
	}
	return nil
}

// NationalID accepts the canonical Ghana Card form GHA-XXXXXXXXX-C,
// case-insensitively.
func NationalID(raw string) error {
	if !nationalIDPattern.MatchString(strings.ToUpper(strings.TrimSpace(raw))) {
		return dErrors.New(dErrors.CodeValidation, "Invalid Ghana Card number.")
	}
	return nil
}

// HealthWorkerID accepts exactly six decimal digits.
func HealthWorkerID(raw string) error {
	if len(raw) != 6 || !allDigits(raw) {
		return dErrors.New(dErrors.CodeValidation, "Invalid Health Worker ID.")
	}
	return nil
}

// Phone accepts numbers that reduce to exactly ten digits starting with "0"
// once separators are stripped.
func Phone(raw string) error {
	digits := stripNonDigits(raw)
	if len(digits) != 10 || digits[0] != '0' {
		return dErrors.New(dErrors.CodeValidation, "Invalid phone number.")
	}
	return nil
}

// UBRN accepts syntactically well-formed registration identifiers. Check
// digit correctness is verified separately at lookup time.
func UBRN(raw string) error {
	if !ubrnPattern.MatchString(strings.ToUpper(strings.TrimSpace(raw))) {
		return dErrors.New(dErrors.CodeValidation, "Invalid UBRN format.")
	}
	return nil
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func stripNonDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
