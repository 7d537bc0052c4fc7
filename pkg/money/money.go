package money

import (
	"errors"
	"math"

	"github.com/shopspring/decimal"
)

// ErrInvalidAmount is returned for amounts that are not finite and strictly positive.
var ErrInvalidAmount = errors.New("amount must be a finite positive number")

var hundred = decimal.NewFromInt(100)

// FromFloat converts a major-unit amount received from a client into a decimal,
// rejecting NaN, infinities and non-positive values.
func FromFloat(amount float64) (decimal.Decimal, error) {
	if math.IsNaN(amount) || math.IsInf(amount, 0) || amount <= 0 {
		return decimal.Zero, ErrInvalidAmount
	}
	return decimal.NewFromFloat(amount), nil
}

// ToMinorUnits converts a major-unit amount to the gateway's minor units, rounding
// half away from zero (299.00 INR -> 29900 paise).
func ToMinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(hundred).Round(0).IntPart()
}

// FromMinorUnits converts gateway minor units back to a two-place decimal.
func FromMinorUnits(minor int64) decimal.Decimal {
	return decimal.NewFromInt(minor).Div(hundred).Round(2)
}
