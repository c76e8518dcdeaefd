package redact

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedactRemovesEmailPhoneAndCard(t *testing.T) {
	t.Parallel()

	const (
		email = "ada.obi@example.com"
		phone = "+234 803 123 4567"
		card  = "4111 1111 1111 1111"
	)
	in := "reach me at " + email + " or " + phone + ", card " + card + " thanks"

	out := New().Redact(in)

	assert.NotContains(t, out, email)
	assert.NotContains(t, out, phone)
	assert.NotContains(t, out, card)
	assert.NotContains(t, out, "4567")
	assert.Contains(t, out, PlaceholderEmail)
	assert.Contains(t, out, PlaceholderPhone)
	assert.Contains(t, out, PlaceholderCard)
}

func TestRedactIsIdempotent(t *testing.T) {
	t.Parallel()

	s := New()
	inputs := []string{
		"mail ada@example.com, call 08031234567, pay with 4111111111111111",
		"password: hunter2 and password=abc&next",
		"nothing sensitive here, just a question about shoes size 42",
	}
	for _, in := range inputs {
		once := s.Redact(in)
		require.Equal(t, once, s.Redact(once), "input=%q", in)
	}
}

func TestRedactLeavesPlainTextAlone(t *testing.T) {
	t.Parallel()

	in := "Do you have the red sneakers in size 42?"
	assert.Equal(t, in, Redact(in))
	assert.Empty(t, Default.Findings(in))
}

func TestRedactUnseparatedNumbers(t *testing.T) {
	t.Parallel()

	out := Redact("card 4111111111111111 phone 08031234567")
	assert.Equal(t, "card [CARD] phone [PHONE]", out)
}

func TestRedactPhoneShapes(t *testing.T) {
	t.Parallel()

	redacted := []string{
		"+234 803 123 4567",
		"+2348031234567",
		"08031234567",
		"0803-123-4567",
		"(0803) 123 4567",
		"803 123 4567",
	}
	for _, in := range redacted {
		assert.Equal(t, "call "+PlaceholderPhone+" now", Redact("call "+in+" now"), in)
	}

	kept := []string{
		`{"totalKobo":12500000}`,
		`{"totalKobo":450000000}`,
		"550e8400-e29b-41d4-a716-446655440000",
		"7c9e6679-7425-4123-8123-012345678901",
		"order 123456789012 confirmed",
	}
	for _, in := range kept {
		assert.Equal(t, in, Redact(in), in)
		assert.Empty(t, Default.Findings(in), in)
	}
}

func TestFindings(t *testing.T) {
	t.Parallel()

	got := Default.Findings("ada@example.com 4111111111111111")
	assert.Equal(t, []string{"card", "email"}, got)
}

func TestNilSanitizerPassesThrough(t *testing.T) {
	t.Parallel()

	var s *Sanitizer
	assert.Equal(t, "ada@example.com", s.Redact("ada@example.com"))
}
