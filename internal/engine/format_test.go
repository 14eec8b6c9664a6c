package engine

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormat(t *testing.T) {
	f := NewFormatter(3)

	tests := []struct {
		value float64
		want  string
	}{
		{0, "0"},
		{3, "3"},
		{-3, "-3"},
		{1234567, "1,234,567"},
		{-1234.5, "-1,234.5"},
		{0.1 + 0.2, "0.3"},
		{1.0 / 3, "0.333"},
		{2.0 / 3, "0.667"},
		{1.5, "1.5"},
		{2.0004, "2"},
		{-0.0001, "0"},
		{math.Copysign(0, -1), "0"},
		{1e15, "1,000,000,000,000,000"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, f.Format(tt.value), "Format(%v)", tt.value)
	}
}

func TestFormatPrecision(t *testing.T) {
	assert.Equal(t, 3, NewFormatter(3).Precision())
	assert.Equal(t, 0, NewFormatter(-1).Precision())

	zero := NewFormatter(0)
	assert.Equal(t, "10", zero.Format(10.4))
	assert.Equal(t, "3", zero.Format(2.6))

	five := NewFormatter(5)
	assert.Equal(t, "3.14159", five.Format(math.Pi))
	assert.Equal(t, "0.1", five.Format(0.1))
}

func TestParseDisplay(t *testing.T) {
	v, err := ParseDisplay("1,234.5")
	require.NoError(t, err)
	assert.Equal(t, 1234.5, v)

	v, err = ParseDisplay("12 # note")
	require.NoError(t, err)
	assert.Equal(t, 12.0, v)

	_, err = ParseDisplay(ErrorDisplay)
	assert.Error(t, err)

	_, err = ParseDisplay(ImportPlaceholder)
	assert.Error(t, err)

	assert.Equal(t, "1234567.5", StripSeparators("1,234,567.5"))
}

func TestFormatRoundTrip(t *testing.T) {
	f := NewFormatter(3)
	for _, v := range []float64{0, 1, -1, 999.5, 1000, 123456.789, -98765.4321, 0.125} {
		display := f.Format(v)
		parsed, err := ParseDisplay(display)
		require.NoError(t, err, display)
		assert.InDelta(t, v, parsed, 0.0005, display)
		assert.Equal(t, display, f.Format(parsed), "formatting is stable for %v", v)
	}
}

func TestCollect(t *testing.T) {
	results := []Result{
		{Display: "1,000", Numeric: true},
		{Display: ""},
		{Display: ErrorDisplay, Err: NewCellError(CellErrorEval, "", nil)},
		{Display: ConstPlaceholder},
		{Display: "-0.5", Numeric: true},
		{Display: "99", Numeric: true},
	}

	agg := Collect(results, 5)
	assert.InDelta(t, 999.5, agg.Sum, 1e-9)
	assert.Equal(t, 2, agg.Count)
	assert.InDelta(t, 499.75, agg.Average(), 1e-9)

	assert.Equal(t, Aggregate{}, Collect(nil, 11))
}
