package ubrn

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "ebirth/pkg/domain-errors"
)

type fixedSequencer struct {
	n    int
	err  error
	last string
}

func (s *fixedSequencer) Next(_ context.Context, region int, district string, day time.Time) (int, error) {
	s.last = district
	return s.n, s.err
}

var testDay = time.Date(2025, time.January, 15, 9, 30, 0, 0, time.UTC)

func TestFormatDeterministic(t *testing.T) {
	a := Format("GHA", 1, "027", testDay, 1)
	b := Format("GHA", 1, "027", testDay, 1)
	assert.Equal(t, a, b)
	assert.Equal(t, "GHA-01-027-25015-0001-"+string(CheckDigit("01027250150001")), a)
	assert.Regexp(t, `^GHA-\d{2}-\d{3}-\d{5}-\d{4}-[0-9X]$`, a)
}

func TestCheckDigitKnownValues(t *testing.T) {
	// sum of digit*weight over "0001" (weights 4..1) is 1, so the check
	// value is (11-1)%11 = 10, rendered as X.
	assert.Equal(t, byte('X'), CheckDigit("0001"))
	// "0000" sums to zero; (11-0)%11 = 0.
	assert.Equal(t, byte('0'), CheckDigit("0000"))
	assert.Equal(t, byte('0'), CheckDigit(""))
}

func TestCheckDigitDetectsMutations(t *testing.T) {
	body := "01027250150001"
	orig := CheckDigit(body)

	changed := 0
	for i := 0; i < len(body); i++ {
		for d := byte('0'); d <= '9'; d++ {
			if d == body[i] {
				continue
			}
			mutated := body[:i] + string(d) + body[i+1:]
			if CheckDigit(mutated) != orig {
				changed++
			}
		}
	}
	// One position carries weight 11 (0 mod 11) and escapes detection;
	// every other single-digit substitution must change the check character.
	total := len(body) * 9
	assert.GreaterOrEqual(t, changed, total-9)
	assert.Greater(t, float64(changed)/float64(total), 0.9)
}

func TestCheckDigitDetectsAdjacentTranspositions(t *testing.T) {
	body := "01027250150001"
	orig := CheckDigit(body)
	for i := 0; i+1 < len(body); i++ {
		if body[i] == body[i+1] {
			continue
		}
		b := []byte(body)
		b[i], b[i+1] = b[i+1], b[i]
		assert.NotEqual(t, orig, CheckDigit(string(b)), "transposition at %d undetected", i)
	}
}

func TestValidate(t *testing.T) {
	valid := Format("GHA", 1, "270", testDay, 12)
	require.NoError(t, Validate(valid))
	require.NoError(t, Validate(strings.ToLower(valid)), "normalized before checking")

	// Flip the check character.
	bad := valid[:len(valid)-1]
	if valid[len(valid)-1] == '0' {
		bad += "1"
	} else {
		bad += "0"
	}
	err := Validate(bad)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))

	assert.Error(t, Validate("GHA-1-027-25015-0001-5"))
	assert.Error(t, Validate("not-a-ubrn"))
	assert.Error(t, Validate(""))
}

func TestGenerate(t *testing.T) {
	seq := &fixedSequencer{n: 7}
	g := NewGenerator("GHA", seq, WithClock(func() time.Time { return testDay }))

	got, err := g.Generate(context.Background(), 3, "112")
	require.NoError(t, err)
	assert.Equal(t, Format("GHA", 3, "112", testDay, 7), got)
	assert.NoError(t, Validate(got), "generated identifiers must self-validate")
	assert.Equal(t, "112", seq.last)
}

func TestGenerateSequencerFailure(t *testing.T) {
	seq := &fixedSequencer{err: assert.AnError}
	g := NewGenerator("GHA", seq, WithClock(func() time.Time { return testDay }))

	_, err := g.Generate(context.Background(), 3, "112")
	require.Error(t, err)
}
