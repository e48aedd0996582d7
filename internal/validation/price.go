package validation

import (
	"strings"

	"github.com/dukerupert/bakehouse/internal/domain"
	"github.com/shopspring/decimal"
)

// MaxPriceCents caps a single product price at $999,999.99.
const MaxPriceCents = 99_999_999

var (
	ErrPriceRequired = domain.Errorf(domain.EINVALID, "price.parse", "Price is required")
	ErrPriceNotNum   = domain.Errorf(domain.EINVALID, "price.parse", "Price must be a number, e.g. 22.00")
	ErrPriceNegative = domain.Errorf(domain.EINVALID, "price.parse", "Price cannot be negative")
	ErrPriceTooLarge = domain.Errorf(domain.EINVALID, "price.parse", "Price is too large")
)

var hundred = decimal.NewFromInt(100)

// ParsePrice converts a decimal major-unit string such as "22.00" into minor
// units. Fractions of a cent round half away from zero, so "22.005" is 2201.
// A leading "$" is tolerated.
func ParsePrice(raw string) (int64, error) {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return 0, ErrPriceRequired
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, ErrPriceNotNum
	}
	if d.IsNegative() {
		return 0, ErrPriceNegative
	}

	cents := d.Mul(hundred).Round(0)
	if cents.GreaterThan(decimal.NewFromInt(MaxPriceCents)) {
		return 0, ErrPriceTooLarge
	}

	return cents.IntPart(), nil
}

// FormatPrice renders minor units as a two-place decimal string without a
// currency symbol, the inverse of ParsePrice for form re-population.
func FormatPrice(cents int64) string {
	return decimal.New(cents, -2).StringFixed(2)
}
