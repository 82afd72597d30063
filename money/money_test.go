package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSum_NoFloatDrift(t *testing.T) {
	total := Sum(MustParse("0.1"), MustParse("0.2"))

	assert.True(t, total.Equal(MustParse("0.3")), "got %s", total)
	assert.Equal(t, "0.30", Format(total))
	assert.Equal(t, int64(30), ToMinorUnits(total))
}

func TestLineTotal(t *testing.T) {
	tests := []struct {
		name string
		unit string
		qty  int
		want string
	}{
		{name: "Whole price", unit: "50", qty: 2, want: "100.00"},
		{name: "Cents", unit: "19.99", qty: 3, want: "59.97"},
		{name: "Zero price", unit: "0", qty: 7, want: "0.00"},
		{name: "Many small units", unit: "0.01", qty: 1000, want: "10.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := LineTotal(MustParse(tt.unit), tt.qty)
			assert.Equal(t, tt.want, Format(got))
		})
	}
}

func TestSum_ManyAdditions(t *testing.T) {
	amounts := make([]decimal.Decimal, 0, 1000)
	for i := 0; i < 1000; i++ {
		amounts = append(amounts, MustParse("0.1"))
	}

	assert.Equal(t, "100.00", Format(Sum(amounts...)))
	assert.True(t, Sum().IsZero())
}

func TestParse(t *testing.T) {
	d, err := Parse("3.00")
	require.NoError(t, err)
	assert.True(t, d.Equal(FromMinorUnits(300)))

	_, err = Parse("-1")
	assert.ErrorIs(t, err, ErrNegativeAmount)

	_, err = Parse("abc")
	assert.Error(t, err)
}

func TestMinorUnits(t *testing.T) {
	assert.Equal(t, "12.34", Format(FromMinorUnits(1234)))
	assert.Equal(t, int64(1235), ToMinorUnits(MustParse("12.345")))
}
