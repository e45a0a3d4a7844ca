package ucum

import (
	"sort"
	"strings"
)

var dimNames = [dimCount]string{"meter", "second", "kilogram", "radian", "kelvin", "coulomb", "candela"}

// analyseOrder is the order in which Analyse names the dimensions.
var analyseOrder = [dimCount]int{dimMass, dimLength, dimTime, dimAngle, dimTemperature, dimCharge, dimLuminousIntensity}

// Analyse returns a human-readable factored description of a unit
// expression, e.g. "kg.m/s2" -> "kilogram · meter / (second · second)".
func (r *Registry) Analyse(unit string) (string, error) {
	t, err := Parse(unit)
	if err != nil {
		return "", err
	}
	c, err := r.Canonicalise(t)
	if err != nil {
		return "", err
	}
	if c.Special != nil {
		return c.Special.Name, nil
	}
	var num, den []string
	for _, i := range analyseOrder {
		exp := c.Dim[i]
		name := dimNames[i]
		for n := 0; n < abs(exp); n++ {
			if exp > 0 {
				num = append(num, name)
			} else if exp < 0 {
				den = append(den, name)
			}
		}
	}
	if len(num) == 0 && len(den) == 0 {
		return "(dimensionless)", nil
	}
	numStr := "1"
	if len(num) > 0 {
		numStr = strings.Join(num, " · ")
	}
	if len(den) == 0 {
		return numStr, nil
	}
	if len(den) == 1 {
		return numStr + " / " + den[0], nil
	}
	return numStr + " / (" + strings.Join(den, " · ") + ")", nil
}

func abs(i int) int {
	if i < 0 {
		return -i
	}
	return i
}

// Search scans registered unit codes, names and properties for a
// case-insensitive substring match against term. It does no regex
// matching; SearchFunc accepts any matcher, such as a compiled
// *regexp.Regexp's MatchString.
func (r *Registry) Search(term string) []string {
	return r.SearchFunc(func(candidate string) bool {
		return strings.Contains(strings.ToLower(candidate), strings.ToLower(term))
	})
}

// SearchFunc scans every registered unit's code, name and property against
// match, returning the matching unit codes in a stable order.
func (r *Registry) SearchFunc(match func(candidate string) bool) []string {
	var out []string
	for code, u := range r.Units {
		if match(code) || match(u.Name) || match(u.Property) {
			out = append(out, code)
		}
	}
	sort.Strings(out)
	return out
}
