// Package money holds the exact decimal helpers used on the money path.
package money

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/apd/v3"
)

// ctx is shared read-only; apd contexts carry no per-call state.
var ctx = apd.BaseContext.WithPrecision(34)

var hundred = apd.New(100, 0)

// Parse reads an amount such as "$1,234.56". Currency symbol and thousands
// separators are dropped.
func Parse(s string) (*apd.Decimal, error) {
	clean := strings.TrimSpace(s)
	clean = strings.TrimPrefix(clean, "$")
	clean = strings.ReplaceAll(clean, ",", "")
	clean = strings.TrimSpace(clean)
	if clean == "" {
		return nil, fmt.Errorf("parse amount %q: empty", s)
	}
	d, _, err := apd.NewFromString(clean)
	if err != nil {
		return nil, fmt.Errorf("parse amount %q: %w", s, err)
	}
	if d.Form != apd.Finite {
		return nil, fmt.Errorf("parse amount %q: not a finite number", s)
	}
	return d, nil
}

// MustParse is Parse for literals known to be valid.
func MustParse(s string) *apd.Decimal {
	d, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Add returns x + y.
func Add(x, y *apd.Decimal) (*apd.Decimal, error) {
	d := new(apd.Decimal)
	if _, err := ctx.Add(d, x, y); err != nil {
		return nil, err
	}
	return d, nil
}

// Sum adds all values. An empty slice sums to 0.
func Sum(values []apd.Decimal) (*apd.Decimal, error) {
	acc := apd.New(0, 0)
	for i := range values {
		if _, err := ctx.Add(acc, acc, &values[i]); err != nil {
			return nil, err
		}
	}
	return acc, nil
}

// Mul returns x * y.
func Mul(x, y *apd.Decimal) (*apd.Decimal, error) {
	d := new(apd.Decimal)
	if _, err := ctx.Mul(d, x, y); err != nil {
		return nil, err
	}
	return d, nil
}

// DiffPercent returns |total-sum| / total * 100. A zero total yields 0 when
// sum is also zero and 100 otherwise.
func DiffPercent(total, sum *apd.Decimal) (*apd.Decimal, error) {
	if total.IsZero() {
		if sum.IsZero() {
			return apd.New(0, 0), nil
		}
		return apd.New(100, 0), nil
	}
	diff := new(apd.Decimal)
	if _, err := ctx.Sub(diff, total, sum); err != nil {
		return nil, err
	}
	diff.Abs(diff)

	abs := new(apd.Decimal).Abs(total)
	pct := new(apd.Decimal)
	if _, err := ctx.Quo(pct, diff, abs); err != nil {
		return nil, err
	}
	if _, err := ctx.Mul(pct, pct, hundred); err != nil {
		return nil, err
	}
	return pct, nil
}

// Round quantizes d to places decimals (half up).
func Round(d *apd.Decimal, places int32) (*apd.Decimal, error) {
	out := new(apd.Decimal)
	if _, err := ctx.Quantize(out, d, -places); err != nil {
		return nil, err
	}
	return out, nil
}

// Format renders d with exactly two decimals, e.g. "12.00".
func Format(d *apd.Decimal) string {
	if d == nil {
		return ""
	}
	r, err := Round(d, 2)
	if err != nil {
		return d.Text('f')
	}
	return r.Text('f')
}

// Float returns d as a float64 for reporting only. Never feed it back into money math.
func Float(d *apd.Decimal) float64 {
	if d == nil {
		return 0
	}
	f, err := d.Float64()
	if err != nil {
		return 0
	}
	return f
}
