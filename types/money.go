// Package types provides common types used across Patron.
package types

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Money represents a monetary value in the smallest unit of a payment asset.
// All arithmetic is integer-only — no floating point.
//
// The currency field carries either an ISO 4217 code ("usd", "eur") or the
// asset code of the payment source a contract settles in. Tier prices,
// allowances and transfer legs all use the same representation.
//
// Examples:
//   - USD(4900) = $49.00 (4900 cents)
//   - Token("credits", 100) = 100 units of the "credits" asset
type Money struct {
	Amount   int64  `json:"amount"`   // Smallest unit (cents, pence, token units)
	Currency string `json:"currency"` // Lowercase asset code: "usd", "eur", "credits"
}

// Common constructors

// USD creates a Money value in US Dollars (cents).
func USD(cents int64) Money { return Money{Amount: cents, Currency: "usd"} }

// EUR creates a Money value in Euros (cents).
func EUR(cents int64) Money { return Money{Amount: cents, Currency: "eur"} }

// GBP creates a Money value in British Pounds (pence).
func GBP(pence int64) Money { return Money{Amount: pence, Currency: "gbp"} }

// JPY creates a Money value in Japanese Yen (no decimal).
func JPY(yen int64) Money { return Money{Amount: yen, Currency: "jpy"} }

// Token creates a Money value denominated in an arbitrary payment-source
// asset. Use this for tier prices settled through a token ledger.
func Token(asset string, amount int64) Money {
	return Money{Amount: amount, Currency: strings.ToLower(asset)}
}

// Zero returns a zero Money value in the specified asset.
func Zero(asset string) Money { return Money{Amount: 0, Currency: strings.ToLower(asset)} }

// Arithmetic operations

// Add adds two Money values. Panics if assets don't match.
func (m Money) Add(other Money) Money {
	m.assertSameAsset(other)
	return Money{Amount: m.Amount + other.Amount, Currency: m.Currency}
}

// Subtract subtracts another Money value. Panics if assets don't match.
func (m Money) Subtract(other Money) Money {
	m.assertSameAsset(other)
	return Money{Amount: m.Amount - other.Amount, Currency: m.Currency}
}

// Multiply multiplies the Money by a quantity.
func (m Money) Multiply(qty int64) Money {
	return Money{Amount: m.Amount * qty, Currency: m.Currency}
}

// Divide divides the Money by a divisor. Uses integer division.
func (m Money) Divide(divisor int64) Money {
	if divisor == 0 {
		panic("money: division by zero")
	}
	return Money{Amount: m.Amount / divisor, Currency: m.Currency}
}

// Negate returns the negative of the Money value.
func (m Money) Negate() Money {
	return Money{Amount: -m.Amount, Currency: m.Currency}
}

// Abs returns the absolute value.
func (m Money) Abs() Money {
	if m.Amount < 0 {
		return Money{Amount: -m.Amount, Currency: m.Currency}
	}
	return m
}

// Comparison methods

// IsZero returns true if the amount is zero.
func (m Money) IsZero() bool { return m.Amount == 0 }

// IsPositive returns true if the amount is greater than zero.
func (m Money) IsPositive() bool { return m.Amount > 0 }

// IsNegative returns true if the amount is less than zero.
func (m Money) IsNegative() bool { return m.Amount < 0 }

// Equal returns true if both Money values are equal (same amount and asset).
func (m Money) Equal(other Money) bool {
	return m.Amount == other.Amount && m.Currency == other.Currency
}

// LessThan returns true if this Money is less than other. Panics if assets don't match.
func (m Money) LessThan(other Money) bool {
	m.assertSameAsset(other)
	return m.Amount < other.Amount
}

// GreaterThan returns true if this Money is greater than other. Panics if assets don't match.
func (m Money) GreaterThan(other Money) bool {
	m.assertSameAsset(other)
	return m.Amount > other.Amount
}

// Formatting methods

// FormatMajor returns the major unit string without a symbol.
// For assets with 2 decimal places: "49.00" for USD(4900).
// For assets with 0 decimal places (JPY, token units): "100".
func (m Money) FormatMajor() string {
	decimals := assetDecimals(m.Currency)
	if decimals == 0 {
		return fmt.Sprintf("%d", m.Amount)
	}

	divisor := int64(1)
	for i := 0; i < decimals; i++ {
		divisor *= 10
	}

	// Handle sign separately
	isNegative := m.Amount < 0
	absAmount := m.Amount
	if isNegative {
		absAmount = -absAmount
	}

	major := absAmount / divisor
	minor := absAmount % divisor

	format := fmt.Sprintf("%%d.%%0%dd", decimals)
	result := fmt.Sprintf(format, major, minor)

	if isNegative {
		return "-" + result
	}
	return result
}

// String returns a human-readable string with a symbol when one is known.
// Examples: "$49.00", "€199.00", "¥100", "CREDITS 100".
func (m Money) String() string {
	symbol := assetSymbol(m.Currency)
	return symbol + m.FormatMajor()
}

// MarshalJSON implements json.Marshaler.
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Amount   int64  `json:"amount"`
		Currency string `json:"currency"`
		Display  string `json:"display"`
	}{
		Amount:   m.Amount,
		Currency: m.Currency,
		Display:  m.String(),
	})
}

// Helper functions

// assertSameAsset panics if assets don't match.
func (m Money) assertSameAsset(other Money) {
	if m.Currency != other.Currency {
		panic(fmt.Sprintf("money: asset mismatch: %s != %s", m.Currency, other.Currency))
	}
}

// assetSymbol returns the symbol for a known currency code, or the
// upper-cased asset code for everything else.
func assetSymbol(asset string) string {
	symbols := map[string]string{
		"usd": "$",
		"eur": "€",
		"gbp": "£",
		"jpy": "¥",
		"cad": "C$",
		"aud": "A$",
	}
	if sym, ok := symbols[strings.ToLower(asset)]; ok {
		return sym
	}
	return strings.ToUpper(asset) + " "
}

// assetDecimals returns the number of decimal places for an asset.
// Fiat currencies default to 2; known zero-decimal currencies and
// non-ISO token assets use 0 (token ledgers deal in whole units).
func assetDecimals(asset string) int {
	switch strings.ToLower(asset) {
	case "jpy", "krw", "vnd", "clp", "idr":
		return 0
	case "usd", "eur", "gbp", "cad", "aud", "chf", "cny", "sek", "nzd":
		return 2
	}
	return 0
}

// Sum calculates the sum of multiple Money values. All must share one asset.
func Sum(values ...Money) Money {
	if len(values) == 0 {
		return Zero("usd")
	}

	result := values[0]
	for i := 1; i < len(values); i++ {
		result = result.Add(values[i])
	}
	return result
}
