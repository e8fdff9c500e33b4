package validator

import (
	"testing"

	playground "github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeSeatNumber(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"12A", "12A"},
		{" 12a ", "12A"},
		{"12-a", "12A"},
		{"3 k", "3K"},
		{"", ""},
	}

	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			assert.Equal(t, tc.expected, NormalizeSeatNumber(tc.input))
		})
	}
}

func TestIsSeatNumber(t *testing.T) {
	for _, seat := range []string{"1A", "12c", "123K", "40-AB"} {
		assert.True(t, IsSeatNumber(seat), seat)
	}
	for _, seat := range []string{"", "A12", "1234A", "12", "12ABC", "12_A"} {
		assert.False(t, IsSeatNumber(seat), seat)
	}
}

func TestIsClock(t *testing.T) {
	for _, s := range []string{"00:00", "09:30", "23:59"} {
		assert.True(t, IsClock(s), s)
	}
	for _, s := range []string{"24:00", "9:30", "09:60", "0930", "morning"} {
		assert.False(t, IsClock(s), s)
	}
}

func TestRegister(t *testing.T) {
	v := playground.New()
	require.NoError(t, Register(v))

	type query struct {
		From string `validate:"omitempty,clock_hhmm"`
		Kind string `validate:"required,location_type"`
		Seat string `validate:"omitempty,seat_number"`
	}

	assert.NoError(t, v.Struct(query{From: "08:15", Kind: "city", Seat: "14f"}))

	err := v.Struct(query{From: "8am", Kind: "station", Seat: "F14"})
	require.Error(t, err)

	var tags []string
	for _, fe := range err.(playground.ValidationErrors) {
		tags = append(tags, fe.Tag())
	}
	assert.ElementsMatch(t, []string{TagClock, TagLocationType, TagSeatNumber}, tags)
}
