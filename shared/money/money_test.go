package money_test

import (
	"resort/shared/money"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRound2(t *testing.T) {
	tests := []struct {
		name     string
		input    float64
		expected float64
	}{
		{name: "already two decimals", input: 2200.00, expected: 2200.00},
		{name: "rounds up", input: 12.346, expected: 12.35},
		{name: "rounds down", input: 12.344, expected: 12.34},
		{name: "quarter of odd total", input: 0.25 * 1999, expected: 499.75},
		{name: "zero", input: 0, expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, money.Round2(tt.input), 0.0001)
		})
	}
}

func TestToMinorUnits(t *testing.T) {
	tests := []struct {
		name     string
		input    float64
		expected int64
	}{
		{name: "whole amount", input: 2200, expected: 220000},
		{name: "fractional amount", input: 499.75, expected: 49975},
		{name: "float noise", input: 0.1 + 0.2, expected: 30},
		{name: "zero", input: 0, expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, money.ToMinorUnits(tt.input))
		})
	}
}

func TestFromMinorUnits(t *testing.T) {
	assert.InDelta(t, 2200.0, money.FromMinorUnits(220000), 0.0001)
	assert.InDelta(t, 0.05, money.FromMinorUnits(5), 0.0001)
}

func TestEqual(t *testing.T) {
	assert.True(t, money.Equal(0.1+0.2, 0.3))
	assert.False(t, money.Equal(10.01, 10.02))
}
