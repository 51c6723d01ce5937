// Package amount implements the exact, non-negative integer type used for every
// balance in the distribution pipeline. Values are immutable: each operation
// returns a new Amount and never mutates its receiver or arguments.
package amount

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"

	"github.com/holiman/uint256"
)

var (
	// ErrMalformedAmount is wrapped by every MalformedAmountError.
	ErrMalformedAmount = errors.New("malformed amount")

	// ErrUnderflow is returned when a subtraction would produce a negative amount.
	ErrUnderflow = errors.New("amount underflow")

	// ErrOverflow is returned when an amount does not fit in an unsigned 256-bit integer.
	ErrOverflow = errors.New("amount exceeds uint256")

	// ErrZeroFactor is returned by ScaleDown when asked to divide by zero.
	ErrZeroFactor = errors.New("scale factor must be positive")
)

// MalformedAmountError reports an input string that is not a non-negative base-10 integer.
type MalformedAmountError struct {
	Value string
}

func (e *MalformedAmountError) Error() string {
	return fmt.Sprintf("malformed amount %q: expected a non-negative base-10 integer", e.Value)
}

func (e *MalformedAmountError) Unwrap() error {
	return ErrMalformedAmount
}

// Amount is an arbitrary-precision unsigned integer.
// The zero value is not usable; construct with Parse, Zero, FromUint64 or FromBig.
type Amount struct {
	v *big.Int
}

// Zero returns an amount of 0.
func Zero() *Amount {
	return &Amount{v: new(big.Int)}
}

// FromUint64 returns an amount holding n.
func FromUint64(n uint64) *Amount {
	return &Amount{v: new(big.Int).SetUint64(n)}
}

// FromBig copies b into a new amount. Negative or nil values are rejected.
func FromBig(b *big.Int) (*Amount, error) {
	if b == nil {
		return nil, &MalformedAmountError{Value: "<nil>"}
	}
	if b.Sign() < 0 {
		return nil, &MalformedAmountError{Value: b.String()}
	}
	return &Amount{v: new(big.Int).Set(b)}, nil
}

// MustParse is Parse for constants and tests; it panics on malformed input.
func MustParse(s string) *Amount {
	a, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return a
}

// Parse reads a decimal string. Only the digits 0-9 are accepted: no sign, no
// whitespace, no hex prefix, no fraction. Leading zeros are allowed.
func Parse(s string) (*Amount, error) {
	if s == "" {
		return nil, &MalformedAmountError{Value: s}
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return nil, &MalformedAmountError{Value: s}
		}
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, &MalformedAmountError{Value: s}
	}
	return &Amount{v: v}, nil
}

// Add returns a + b.
func (a *Amount) Add(b *Amount) *Amount {
	return &Amount{v: new(big.Int).Add(a.v, b.v)}
}

// Sub returns a - b, or ErrUnderflow if b > a.
func (a *Amount) Sub(b *Amount) (*Amount, error) {
	if a.v.Cmp(b.v) < 0 {
		return nil, fmt.Errorf("%w: %s - %s", ErrUnderflow, a.v.String(), b.v.String())
	}
	return &Amount{v: new(big.Int).Sub(a.v, b.v)}, nil
}

// Cmp compares a and b and returns -1, 0 or +1.
func (a *Amount) Cmp(b *Amount) int {
	return a.v.Cmp(b.v)
}

// Equal reports whether a and b hold the same value.
func (a *Amount) Equal(b *Amount) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.v.Cmp(b.v) == 0
}

// IsZero reports whether a is 0.
func (a *Amount) IsZero() bool {
	return a.v.Sign() == 0
}

// String returns the base-10 representation.
func (a *Amount) String() string {
	if a == nil || a.v == nil {
		return "<nil>"
	}
	return a.v.String()
}

// Big returns a copy of the underlying integer.
func (a *Amount) Big() *big.Int {
	return new(big.Int).Set(a.v)
}

// Delta returns the signed difference to - from.
func Delta(from, to *Amount) *big.Int {
	return new(big.Int).Sub(to.v, from.v)
}

// ScaleDown divides a by factor, truncating toward zero. The remainder that the
// division discards is returned alongside the quotient so callers can account
// for it; nothing is rounded.
func (a *Amount) ScaleDown(factor *Amount) (quotient *Amount, remainder *Amount, err error) {
	if factor == nil || factor.IsZero() {
		return nil, nil, ErrZeroFactor
	}
	q, r := new(big.Int).QuoRem(a.v, factor.v, new(big.Int))
	return &Amount{v: q}, &Amount{v: r}, nil
}

// Pow10 returns 10^exp.
func Pow10(exp uint) *Amount {
	return &Amount{v: new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(exp)), nil)}
}

// ToUint256 converts a to a 256-bit unsigned integer, failing with ErrOverflow
// if it does not fit.
func (a *Amount) ToUint256() (*uint256.Int, error) {
	u, overflow := uint256.FromBig(a.v)
	if overflow {
		return nil, fmt.Errorf("%w: %s", ErrOverflow, a.v.String())
	}
	return u, nil
}

// MarshalJSON encodes the amount as a decimal string so that no JSON consumer
// ever sees it as a lossy float.
func (a *Amount) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

// UnmarshalJSON accepts only a JSON string holding a decimal integer.
func (a *Amount) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return &MalformedAmountError{Value: string(data)}
	}
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	a.v = parsed.v
	return nil
}

// Sum adds up all amounts. An empty input sums to zero.
func Sum(amounts ...*Amount) *Amount {
	total := new(big.Int)
	for _, a := range amounts {
		total.Add(total, a.v)
	}
	return &Amount{v: total}
}
