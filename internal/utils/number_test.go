package utils

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFloatMarshalNonFinite(t *testing.T) {
	tests := []struct {
		name string
		in   float64
		want string
	}{
		{"finite", 1.5, `1.5`},
		{"integer", 3, `3`},
		{"nan", math.NaN(), `"NaN"`},
		{"pos inf", math.Inf(1), `"+Inf"`},
		{"neg inf", math.Inf(-1), `"-Inf"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := json.Marshal(Float(tt.in))
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(b))
		})
	}
}

func TestFloatInsideDocument(t *testing.T) {
	doc := map[string]any{
		"skew": Float(math.NaN()),
		"mean": FloatPtr(2.25),
		"none": (*Float)(nil),
	}
	b, err := json.Marshal(doc)
	require.NoError(t, err)
	assert.JSONEq(t, `{"skew":"NaN","mean":2.25,"none":null}`, string(b))
}

func TestFloatUnmarshal(t *testing.T) {
	var got struct {
		A Float `json:"a"`
		B Float `json:"b"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":"NaN","b":4.5}`), &got))
	assert.True(t, math.IsNaN(float64(got.A)))
	assert.Equal(t, Float(4.5), got.B)
}

func TestRound(t *testing.T) {
	assert.Equal(t, 96.7, Round(96.666, 1))
	assert.Equal(t, 100.0, Round(100, 1))
	assert.Equal(t, 1.01, Round(1.005, 2))
	assert.Equal(t, -2.5, Round(-2.45, 1))
	assert.True(t, math.IsNaN(Round(math.NaN(), 1)))
}
