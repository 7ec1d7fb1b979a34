package reembed

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeVector(t *testing.T) {
	invSqrt2 := float32(1 / math.Sqrt2)

	cases := map[string]struct {
		in   []float32
		want []float32
	}{
		"already unit":        {in: []float32{0, 1, 0}, want: []float32{0, 1, 0}},
		"pythagorean triple":  {in: []float32{3, 4}, want: []float32{0.6, 0.8}},
		"mixed signs":         {in: []float32{-2, 2}, want: []float32{-invSqrt2, invSqrt2}},
		"large components":    {in: []float32{3e18, 4e18}, want: []float32{0.6, 0.8}},
		"tiny components":     {in: []float32{3e-20, 4e-20}, want: []float32{0.6, 0.8}},
		"single negative dim": {in: []float32{-7}, want: []float32{-1}},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			got := NormalizeVector(tc.in)
			require.Len(t, got, len(tc.want))
			assert.InDeltaSlice(t, tc.want, got, 1e-6)
			assert.InDelta(t, 1.0, magnitude(got), 1e-6, "result should have unit length")
		})
	}
}

func TestNormalizeVector_DoesNotMutateInput(t *testing.T) {
	in := []float32{1, 2, 2}
	NormalizeVector(in)
	assert.Equal(t, []float32{1, 2, 2}, in)
}

func TestNormalizeVector_Degenerate(t *testing.T) {
	assert.Equal(t, []float32{0, 0, 0}, NormalizeVector([]float32{0, 0, 0}))
	assert.Empty(t, NormalizeVector(nil))
	assert.Empty(t, NormalizeVector([]float32{}))
}
