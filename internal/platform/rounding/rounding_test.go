package rounding

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHalfEven(t *testing.T) {
	cases := []struct {
		in     float64
		places int32
		want   float64
	}{
		{2.25, 1, 2.2},
		{0.25, 1, 0.2},
		{1.25, 1, 1.2},
		{0.75, 1, 0.8},
		{2.35, 1, 2.4},
		{3.35 * 0.3, 2, 1.0},
		{0.15 * 0.3, 2, 0.04},
		{1.15 * 0.3, 2, 0.34},
		{10.4999, 2, 10.5},
		{-2.25, 1, -2.2},
		{100, 2, 100},
		{0, 2, 0},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, HalfEven(tc.in, tc.places), "HalfEven(%v, %d)", tc.in, tc.places)
	}
}

func TestHalfEven_NonFinite(t *testing.T) {
	assert.True(t, math.IsNaN(HalfEven(math.NaN(), 2)))
	assert.True(t, math.IsInf(HalfEven(math.Inf(1), 2), 1))
	assert.True(t, math.IsInf(HalfEven(math.Inf(-1), 2), -1))
}
