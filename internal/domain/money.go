package domain

import (
	"math"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Epsilon is the tolerance used when comparing float amounts
const Epsilon = 1e-9

// FX constants for the USD/TRY pair
const (
	// FXSymbolUSDTRY is the market-data symbol of the USD/TRY rate
	FXSymbolUSDTRY = "TRY=X"
	// DefaultUSDTRYRate is used when no rate is available at all
	DefaultUSDTRYRate = 34.0
)

// NearlyEqual compares two amounts within Epsilon, scaled for large values
func NearlyEqual(a, b float64) bool {
	diff := math.Abs(a - b)
	if diff <= Epsilon {
		return true
	}
	return diff <= Epsilon*math.Max(math.Abs(a), math.Abs(b))
}

// TruncateQuantity floors whole-share categories and leaves metals untouched
func TruncateQuantity(quantity float64, c Category) float64 {
	if c.WholeShares() {
		return math.Floor(quantity)
	}
	return quantity
}

// Round rounds half away from zero to the given number of decimal places
func Round(value float64, places int32) float64 {
	return decimal.NewFromFloat(value).Round(places).InexactFloat64()
}

// RoundMoney rounds to the minor unit of the currency
func RoundMoney(value float64, cur Currency) float64 {
	return Round(value, fraction(cur))
}

// FormatMoney renders an amount with the currency's grapheme and separators
func FormatMoney(value float64, cur Currency) string {
	c := money.GetCurrency(string(cur))
	if c == nil {
		return decimal.NewFromFloat(value).StringFixed(2) + " " + string(cur)
	}
	minor := decimal.NewFromFloat(value).Round(int32(c.Fraction)).Shift(int32(c.Fraction))
	return c.Formatter().Format(minor.IntPart())
}

// ToLocal converts a native amount of the category to the local currency
func ToLocal(amount float64, c Category, usdTry float64) float64 {
	if c.Currency() == CurrencyUSD {
		return amount * EffectiveRate(usdTry)
	}
	return amount
}

// EffectiveRate returns rate, or DefaultUSDTRYRate when rate is not usable
func EffectiveRate(rate float64) float64 {
	if rate <= 0 || math.IsNaN(rate) || math.IsInf(rate, 0) {
		return DefaultUSDTRYRate
	}
	return rate
}

func fraction(cur Currency) int32 {
	if c := money.GetCurrency(string(cur)); c != nil {
		return int32(c.Fraction)
	}
	return 2
}
