// Package money provides the monetary value type used across the API.
// Amounts are arbitrary-precision decimals serialized as strings, both on
// the wire and in the database, so no float arithmetic ever touches them.
package money

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// Money is an immutable decimal amount.
// The zero value is usable and equal to Zero().
type Money struct {
	dec decimal.Decimal
}

// Parse converts a decimal string into a Money value.
func Parse(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, fmt.Errorf("invalid amount %q", s)
	}
	return Money{dec: d}, nil
}

// ParseNonNegative converts a decimal string into a Money value and
// rejects negative amounts.
func ParseNonNegative(s string) (Money, error) {
	m, err := Parse(s)
	if err != nil {
		return Money{}, err
	}
	if m.IsNegative() {
		return Money{}, fmt.Errorf("amount %q must not be negative", s)
	}
	return m, nil
}

// MustParse is Parse for test fixtures and constants; it panics on error.
func MustParse(s string) Money {
	m, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return m
}

// Zero returns the zero amount.
func Zero() Money {
	return Money{}
}

// Add returns m + o.
func (m Money) Add(o Money) Money {
	return Money{dec: m.dec.Add(o.dec)}
}

// Sub returns m - o.
func (m Money) Sub(o Money) Money {
	return Money{dec: m.dec.Sub(o.dec)}
}

// Neg returns -m.
func (m Money) Neg() Money {
	return Money{dec: m.dec.Neg()}
}

// Equal reports whether m and o represent the same amount,
// regardless of trailing zeros ("60", "60.0" and "60.00" are equal).
func (m Money) Equal(o Money) bool {
	return m.dec.Equal(o.dec)
}

// IsNegative reports whether m < 0.
func (m Money) IsNegative() bool {
	return m.dec.IsNegative()
}

// IsZero reports whether m == 0.
func (m Money) IsZero() bool {
	return m.dec.IsZero()
}

// String returns the canonical decimal string.
func (m Money) String() string {
	return m.dec.String()
}

// MarshalJSON encodes the amount as a JSON string.
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.dec.String())
}

// UnmarshalJSON accepts either a JSON string or a bare number.
func (m *Money) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		// Bare number literal.
		s = string(b)
	}
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Value implements driver.Valuer; amounts are stored as decimal strings.
func (m Money) Value() (driver.Value, error) {
	return m.dec.String(), nil
}

// Scan implements sql.Scanner. Postgres numeric columns arrive as strings
// or byte slices; the sqlite test driver may hand back int64 or float64.
func (m *Money) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*m = Money{}
		return nil
	case string:
		parsed, err := Parse(v)
		if err != nil {
			return err
		}
		*m = parsed
		return nil
	case []byte:
		parsed, err := Parse(string(v))
		if err != nil {
			return err
		}
		*m = parsed
		return nil
	case int64:
		*m = Money{dec: decimal.NewFromInt(v)}
		return nil
	case float64:
		*m = Money{dec: decimal.NewFromFloat(v)}
		return nil
	default:
		return fmt.Errorf("cannot scan %T into Money", src)
	}
}

// GormDataType tells GORM which column type to use.
func (Money) GormDataType() string {
	return "numeric"
}

// DistributeTotal splits total into two parts proportional to the share
// weights myShare and theirShare. The first part is total*myShare/(myShare+
// theirShare) rounded to cents; the second is the exact remainder, so the
// parts always sum to total and are never negative.
func DistributeTotal(total, myShare, theirShare Money) (Money, Money, error) {
	if total.IsNegative() {
		return Money{}, Money{}, fmt.Errorf("total must not be negative")
	}
	if myShare.IsNegative() || theirShare.IsNegative() {
		return Money{}, Money{}, fmt.Errorf("shares must not be negative")
	}
	weight := myShare.dec.Add(theirShare.dec)
	if weight.IsZero() {
		return Money{}, Money{}, fmt.Errorf("shares must not both be zero")
	}

	mine := total.dec.Mul(myShare.dec).Div(weight).Round(2)
	// Rounding a sub-cent total up could overshoot; clamp to keep the
	// remainder non-negative.
	if mine.GreaterThan(total.dec) {
		mine = total.dec
	}
	theirs := total.dec.Sub(mine)

	return Money{dec: mine}, Money{dec: theirs}, nil
}
