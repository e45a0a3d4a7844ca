package ucum

import (
	"fmt"
	"strings"
)

// Quantity pairs a Decimal value with the unit it is expressed in.
type Quantity struct {
	Value Decimal
	Unit  string
}

// Validate reports whether unit is a well-formed, resolvable UCUM
// expression, returning nil if so.
func (r *Registry) Validate(unit string) error {
	t, err := Parse(unit)
	if err != nil {
		return err
	}
	_, err = r.Canonicalise(t)
	return err
}

// IsComparable reports whether two units share the same physical dimension,
// irrespective of any special (non-ratio) flag: isComparable(a,b) ⇔
// canonical(a).dim == canonical(b).dim, per spec §8.
func (r *Registry) IsComparable(a, b string) bool {
	ta, err := Parse(a)
	if err != nil {
		return false
	}
	tb, err := Parse(b)
	if err != nil {
		return false
	}
	ca, err := r.Canonicalise(ta)
	if err != nil {
		return false
	}
	cb, err := r.Canonicalise(tb)
	if err != nil {
		return false
	}
	return ca.Dim == cb.Dim
}

// GetCanonicalForm multiplies the quantity's value by its unit's canonical
// factor, returning the equivalent quantity expressed in base units.
func (r *Registry) GetCanonicalForm(q Quantity) (Quantity, error) {
	t, err := Parse(q.Unit)
	if err != nil {
		return Quantity{}, err
	}
	c, err := r.Canonicalise(t)
	if err != nil {
		return Quantity{}, err
	}
	if c.Special != nil {
		return Quantity{Value: c.Special.ToCanonical(q.Value), Unit: dimToCode(c.Dim)}, nil
	}
	return Quantity{Value: q.Value.Multiply(c.Factor), Unit: dimToCode(c.Dim)}, nil
}

// Convert converts a value from one unit to another. Both units must be
// comparable (same dimension) and ratio (non-offset) units; converting
// across a ratio/non-ratio boundary (e.g. Cel to K when going through the
// generic ratio path) fails with the stable message used by conformance
// suites, matching spec §4.8.4 / §7.
func (r *Registry) Convert(value Decimal, from, to string) (Decimal, error) {
	tf, err := Parse(from)
	if err != nil {
		return Decimal{}, err
	}
	tt, err := Parse(to)
	if err != nil {
		return Decimal{}, err
	}
	cf, err := r.Canonicalise(tf)
	if err != nil {
		return Decimal{}, err
	}
	ct, err := r.Canonicalise(tt)
	if err != nil {
		return Decimal{}, err
	}
	if cf.Dim != ct.Dim {
		return Decimal{}, fmt.Errorf("units %q and %q are not comparable", from, to)
	}
	if cf.Special != nil || ct.Special != nil {
		if cf.Special != nil && ct.Special != nil && cf.Special.Code == ct.Special.Code {
			return value, nil
		}
		return Decimal{}, fmt.Errorf("temperature conversions with offset not supported by this path")
	}
	canonicalValue := value.Multiply(cf.Factor)
	result, err := canonicalValue.Divide(ct.Factor, 34)
	if err != nil {
		return Decimal{}, err
	}
	return trimTrailingZeros(result), nil
}

// Multiply combines two quantities, canonicalising both and returning a
// quantity expressed in a normalised product/quotient unit string.
func (r *Registry) Multiply(a, b Quantity) (Quantity, error) {
	ca, err := r.canonicaliseUnit(a.Unit)
	if err != nil {
		return Quantity{}, err
	}
	cb, err := r.canonicaliseUnit(b.Unit)
	if err != nil {
		return Quantity{}, err
	}
	if ca.Special != nil || cb.Special != nil {
		return Quantity{}, fmt.Errorf("cannot multiply special (non-ratio) units")
	}
	var dim Dim
	for i := range dim {
		dim[i] = ca.Dim[i] + cb.Dim[i]
	}
	return Quantity{Value: a.Value.Multiply(b.Value), Unit: dimToCode(dim)}, nil
}

// DivideBy combines two quantities by division, as Multiply does by product.
func (r *Registry) DivideBy(a, b Quantity) (Quantity, error) {
	ca, err := r.canonicaliseUnit(a.Unit)
	if err != nil {
		return Quantity{}, err
	}
	cb, err := r.canonicaliseUnit(b.Unit)
	if err != nil {
		return Quantity{}, err
	}
	if ca.Special != nil || cb.Special != nil {
		return Quantity{}, fmt.Errorf("cannot divide special (non-ratio) units")
	}
	v, err := a.Value.Divide(b.Value, 34)
	if err != nil {
		return Quantity{}, err
	}
	var dim Dim
	for i := range dim {
		dim[i] = ca.Dim[i] - cb.Dim[i]
	}
	return Quantity{Value: trimTrailingZeros(v), Unit: dimToCode(dim)}, nil
}

func (r *Registry) canonicaliseUnit(unit string) (Canonical, error) {
	t, err := Parse(unit)
	if err != nil {
		return Canonical{}, err
	}
	return r.Canonicalise(t)
}

var dimCodes = [dimCount]string{"m", "s", "g", "rad", "K", "C", "cd"}

// dimToCode renders a dimension vector as a UCUM unit expression in terms of
// base units, e.g. {length:1, time:-1} -> "m/s".
func dimToCode(d Dim) string {
	var num, den []string
	for i, exp := range d {
		switch {
		case exp == 1:
			num = append(num, dimCodes[i])
		case exp > 1:
			num = append(num, fmt.Sprintf("%s%d", dimCodes[i], exp))
		case exp == -1:
			den = append(den, dimCodes[i])
		case exp < -1:
			den = append(den, fmt.Sprintf("%s%d", dimCodes[i], -exp))
		}
	}
	if len(num) == 0 && len(den) == 0 {
		return "1"
	}
	numStr := "1"
	if len(num) > 0 {
		numStr = strings.Join(num, ".")
	}
	if len(den) == 0 {
		return numStr
	}
	return numStr + "/" + strings.Join(den, ".")
}

// trimTrailingZeros rounds a conversion result to 12 decimal places (well
// below the noise floor of a single 34-place reciprocal rounding) and then
// strips trailing zeros, so that e.g. converting 15/min to /h yields the
// exact integer "900" rather than a value polluted by rounding dust from the
// underlying factor division.
func trimTrailingZeros(d Decimal) Decimal {
	rounded := d.value.Round(12)
	s := rounded.String()
	if !strings.Contains(s, ".") {
		return Decimal{value: rounded, precision: d.precision}
	}
	s = strings.TrimRight(s, "0")
	s = strings.TrimRight(s, ".")
	out, err := NewFromString(s)
	if err != nil {
		return d
	}
	return Decimal{value: out.value, precision: d.precision}
}
