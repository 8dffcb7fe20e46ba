// Package ubrn generates and validates Unique Birth Registration Numbers.
//
// Format: PREFIX-RR-DDD-YYJJJ-SSSS-C where RR is the two-digit region code,
// DDD the district code, YY the two-digit year, JJJ the day of year, SSSS the
// daily sequence number for that district and C a Modulo-11 check character.
package ubrn

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	dErrors "ebirth/pkg/domain-errors"
)

var pattern = regexp.MustCompile(`^([A-Z]+)-(\d{2})-(\d{3})-(\d{5})-(\d{4})-([0-9X])$`)

// Sequencer allocates the next daily sequence number for a district. The
// allocation must be atomic and monotonically non-decreasing per
// (region, district, day) key.
type Sequencer interface {
	Next(ctx context.Context, region int, district string, day time.Time) (int, error)
}

// Generator produces UBRNs for finalized registrations.
type Generator struct {
	prefix string
	seq    Sequencer
	now    func() time.Time
}

// Option customizes a Generator.
type Option func(*Generator)

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) { g.now = now }
}

// NewGenerator constructs a Generator issuing identifiers under the given
// country prefix.
func NewGenerator(prefix string, seq Sequencer, opts ...Option) *Generator {
	g := &Generator{prefix: prefix, seq: seq, now: time.Now}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate allocates a sequence number and formats a checksummed UBRN for the
// given region and district at the current date.
func (g *Generator) Generate(ctx context.Context, region int, district string) (string, error) {
	now := g.now()
	seq, err := g.seq.Next(ctx, region, district, now)
	if err != nil {
		return "", fmt.Errorf("allocate sequence: %w", err)
	}
	return Format(g.prefix, region, district, now, seq), nil
}

// Format renders the identifier for the given components. Deterministic: the
// same inputs always yield the same identifier and check character.
func Format(prefix string, region int, district string, t time.Time, seq int) string {
	yy := t.Format("06")
	jjj := fmt.Sprintf("%03d", t.YearDay())
	body := fmt.Sprintf("%02d%s%s%s%04d", region, district, yy, jjj, seq)
	return fmt.Sprintf("%s-%02d-%s-%s%s-%04d-%c", prefix, region, district, yy, jjj, seq, CheckDigit(body))
}

// CheckDigit computes the Modulo-11 check character over a decimal digit
// string. Weights descend from the string length to 1; the check value is
// (11 - sum mod 11) mod 11, rendered as "X" when it equals 10. Detects
// single-digit substitutions and adjacent transpositions on manual re-entry.
func CheckDigit(digits string) byte {
	var ds []int
	for i := 0; i < len(digits); i++ {
		if d := digits[i]; d >= '0' && d <= '9' {
			ds = append(ds, int(d-'0'))
		}
	}
	sum := 0
	for i, d := range ds {
		sum += d * (len(ds) - i)
	}
	check := (11 - sum%11) % 11
	if check == 10 {
		return 'X'
	}
	return byte('0' + check)
}

// Normalize uppercases and trims a subscriber-entered identifier.
func Normalize(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}

// Validate checks both the syntactic form and the check character. A
// mismatched check character is rejected as malformed before any lookup is
// attempted.
func Validate(raw string) error {
	m := pattern.FindStringSubmatch(Normalize(raw))
	if m == nil {
		return dErrors.New(dErrors.CodeValidation, "Invalid UBRN format.")
	}
	body := m[2] + m[3] + m[4] + m[5]
	if CheckDigit(body) != m[6][0] {
		return dErrors.New(dErrors.CodeValidation, "Invalid UBRN check digit.")
	}
	return nil
}
