package rut

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValid(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"12.345.678-5", true},
		{"123456785", true},
		{"12345678-4", false},
		{"11.111.111-1", true},
		{"10.000.013-k", true},
		{"10000013K", true},
		{"76.086.428-5", true},
		{"1-9", true},
		{"", false},
		{"K", false},
		{"12a45678-5", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Valid(tt.in), "rut %q", tt.in)
	}
}

func TestCheckDigit(t *testing.T) {
	dv, err := CheckDigit("12345678")
	require.NoError(t, err)
	assert.Equal(t, byte('5'), dv)

	dv, err = CheckDigit("10000013")
	require.NoError(t, err)
	assert.Equal(t, byte('K'), dv)

	_, err = CheckDigit("")
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestValidateNormalizes(t *testing.T) {
	got, err := Validate(" 12.345.678-5 ")
	require.NoError(t, err)
	assert.Equal(t, "123456785", got)

	_, err = Validate("12.345.678-9")
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "12.345.678-5", Format("123456785"))
	assert.Equal(t, "1.000.001-3", Format("1000001-3"))
	assert.Equal(t, "999-K", Format("999k"))
	assert.Equal(t, "x", Format("x"))
}
