package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTruncateQuantity(t *testing.T) {
	assert.Equal(t, 10.0, TruncateQuantity(10.9, CategoryLocalEquity))
	assert.Equal(t, 3.0, TruncateQuantity(3.2, CategoryForeignEquity))
	assert.InDelta(t, 2.75, TruncateQuantity(2.75, CategoryPreciousMetal), Epsilon)
}

func TestNearlyEqual(t *testing.T) {
	assert.True(t, NearlyEqual(0.1+0.2, 0.3))
	assert.True(t, NearlyEqual(1e12, 1e12+1e-4))
	assert.False(t, NearlyEqual(100, 100.01))
}

func TestRoundMoney(t *testing.T) {
	assert.Equal(t, 10.13, RoundMoney(10.125, CurrencyUSD))
	assert.Equal(t, 99.99, RoundMoney(99.994, CurrencyTRY))
	assert.Equal(t, 1.235, Round(1.2345, 3))
}

func TestFormatMoney(t *testing.T) {
	assert.Equal(t, "$1,234.50", FormatMoney(1234.5, CurrencyUSD))
	assert.Contains(t, FormatMoney(1234.5, CurrencyTRY), "234")
	assert.Equal(t, "12.00 XYZ", FormatMoney(12, Currency("XYZ")))
}

func TestToLocal(t *testing.T) {
	assert.InDelta(t, 3500.0, ToLocal(100, CategoryForeignEquity, 35), Epsilon)
	assert.InDelta(t, 100.0, ToLocal(100, CategoryLocalEquity, 35), Epsilon)
	assert.InDelta(t, 3400.0, ToLocal(100, CategoryForeignEquity, 0), Epsilon)
}

func TestEffectiveRate(t *testing.T) {
	assert.Equal(t, 36.5, EffectiveRate(36.5))
	assert.Equal(t, DefaultUSDTRYRate, EffectiveRate(0))
	assert.Equal(t, DefaultUSDTRYRate, EffectiveRate(-1))
}
