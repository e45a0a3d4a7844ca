package ucum

// Dimension indices into a base-unit exponent vector. UCUM defines seven
// base units; the shipped Default registry registers all seven, and an
// essence.xml loaded via LoadEssenceXML supplies its own.
const (
	dimLength = iota
	dimTime
	dimMass
	dimAngle
	dimTemperature
	dimCharge
	dimLuminousIntensity
	dimCount
)

// Dim is a base-unit exponent vector identifying a physical dimension.
type Dim [dimCount]int

// Prefix is a UCUM metric prefix such as "k" (kilo) or "m" (milli).
type Prefix struct {
	Code   string
	Name   string
	Factor Decimal
}

// Unit is a single entry in the UCUM registry: either a base unit (Dim has
// exactly one non-zero entry, Factor 1) or a defined unit with a canonical
// dimension and conversion factor. Special (non-ratio) units such as Cel or
// [degF] carry ToCanonical/FromCanonical offset functions instead of being
// captured purely by Factor.
type Unit struct {
	Code      string
	Name      string
	Property  string
	IsMetric  bool
	IsSpecial bool
	Dim       Dim
	Factor    Decimal
	// ToCanonical/FromCanonical, set only when IsSpecial, convert a value in
	// this unit to/from its canonical (ratio) base unit, e.g. Cel -> K.
	ToCanonical   func(Decimal) Decimal
	FromCanonical func(Decimal) Decimal
}

// Registry is an immutable, loaded set of prefixes and units. It is safe
// for concurrent read access once built (spec §5 shared-resource policy).
type Registry struct {
	Prefixes map[string]Prefix
	Units    map[string]*Unit
}

func mustDecimal(s string) Decimal {
	d, err := NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func dim(which int) Dim {
	var d Dim
	d[which] = 1
	return d
}

// Default returns the built-in registry covering the base units and the
// common clinical/scientific derived units (mass, length, time, volume,
// temperature, and a handful of special/logarithmic units), sufficient for
// the conversion and compatibility scenarios in spec §8.
func Default() *Registry {
	r := &Registry{
		Prefixes: make(map[string]Prefix),
		Units:    make(map[string]*Unit),
	}
	for _, p := range []Prefix{
		{"Y", "yotta", mustDecimal("1000000000000000000000000")},
		{"Z", "zetta", mustDecimal("1000000000000000000000")},
		{"E", "exa", mustDecimal("1000000000000000000")},
		{"P", "peta", mustDecimal("1000000000000000")},
		{"T", "tera", mustDecimal("1000000000000")},
		{"G", "giga", mustDecimal("1000000000")},
		{"M", "mega", mustDecimal("1000000")},
		{"k", "kilo", mustDecimal("1000")},
		{"h", "hecto", mustDecimal("100")},
		{"da", "deka", mustDecimal("10")},
		{"d", "deci", mustDecimal("0.1")},
		{"c", "centi", mustDecimal("0.01")},
		{"m", "milli", mustDecimal("0.001")},
		{"u", "micro", mustDecimal("0.000001")},
		{"n", "nano", mustDecimal("0.000000001")},
		{"p", "pico", mustDecimal("0.000000000001")},
	} {
		r.Prefixes[p.Code] = p
	}

	add := func(u Unit) {
		r.Units[u.Code] = &u
	}

	// base units
	add(Unit{Code: "m", Name: "meter", Property: "length", IsMetric: true, Dim: dim(dimLength), Factor: mustDecimal("1")})
	add(Unit{Code: "s", Name: "second", Property: "time", IsMetric: true, Dim: dim(dimTime), Factor: mustDecimal("1")})
	add(Unit{Code: "g", Name: "gram", Property: "mass", IsMetric: true, Dim: dim(dimMass), Factor: mustDecimal("1")})
	add(Unit{Code: "rad", Name: "radian", Property: "plane angle", IsMetric: true, Dim: dim(dimAngle), Factor: mustDecimal("1")})
	add(Unit{Code: "K", Name: "kelvin", Property: "temperature", IsMetric: true, Dim: dim(dimTemperature), Factor: mustDecimal("1")})
	add(Unit{Code: "C", Name: "coulomb", Property: "charge", IsMetric: true, Dim: dim(dimCharge), Factor: mustDecimal("1")})
	add(Unit{Code: "cd", Name: "candela", Property: "luminous intensity", IsMetric: true, Dim: dim(dimLuminousIntensity), Factor: mustDecimal("1")})

	// dimensionless / identity
	add(Unit{Code: "1", Name: "unity", Property: "dimensionless", Factor: mustDecimal("1")})

	// non-metric time units (not prefixable)
	add(Unit{Code: "min", Name: "minute", Property: "time", Dim: dim(dimTime), Factor: mustDecimal("60")})
	add(Unit{Code: "h", Name: "hour", Property: "time", Dim: dim(dimTime), Factor: mustDecimal("3600")})
	add(Unit{Code: "d", Name: "day", Property: "time", Dim: dim(dimTime), Factor: mustDecimal("86400")})
	add(Unit{Code: "wk", Name: "week", Property: "time", Dim: dim(dimTime), Factor: mustDecimal("604800")})
	add(Unit{Code: "a", Name: "year", Property: "time", Dim: dim(dimTime), Factor: mustDecimal("31557600")})

	// volume
	add(Unit{Code: "L", Name: "liter", Property: "volume", IsMetric: true, Dim: Dim{dimLength: 3}, Factor: mustDecimal("0.001")})

	// non-ratio (special) temperature units
	add(Unit{
		Code: "Cel", Name: "degree Celsius", Property: "temperature", IsSpecial: true,
		Dim: dim(dimTemperature), Factor: mustDecimal("1"),
		ToCanonical:   func(v Decimal) Decimal { return v.Add(mustDecimal("273.15")) },
		FromCanonical: func(v Decimal) Decimal { return v.Subtract(mustDecimal("273.15")) },
	})
	add(Unit{
		Code: "[degF]", Name: "degree Fahrenheit", Property: "temperature", IsSpecial: true,
		Dim: dim(dimTemperature), Factor: mustDecimal("1"),
		ToCanonical: func(v Decimal) Decimal {
			celsius := v.Subtract(mustDecimal("32"))
			celsius = celsius.Multiply(mustDecimal("5"))
			celsius, _ = celsius.Divide(mustDecimal("9"), 10)
			return celsius.Add(mustDecimal("273.15"))
		},
		FromCanonical: func(v Decimal) Decimal {
			celsius := v.Subtract(mustDecimal("273.15"))
			f := celsius.Multiply(mustDecimal("9"))
			f, _ = f.Divide(mustDecimal("5"), 10)
			return f.Add(mustDecimal("32"))
		},
	})

	// logarithmic special units: conversion only supported to themselves.
	add(Unit{Code: "[pH]", Name: "pH", Property: "acidity", IsSpecial: true, Dim: Dim{}, Factor: mustDecimal("1")})
	add(Unit{Code: "dB", Name: "decibel", Property: "level", IsSpecial: true, Dim: Dim{}, Factor: mustDecimal("1")})

	return r
}

// Lookup resolves a bare unit token (no prefix, no exponent) to its
// registered Unit and, if the token is a prefixed metric unit, the matching
// Prefix. A token that exactly matches a registered (possibly non-metric)
// unit code always wins over a prefix decomposition, which is how "h"
// resolves to the hour unit rather than hecto-something.
func (r *Registry) Lookup(token string) (prefix *Prefix, unit *Unit, ok bool) {
	if u, exists := r.Units[token]; exists {
		return nil, u, true
	}
	for _, plen := range []int{2, 1} {
		if len(token) <= plen {
			continue
		}
		p, exists := r.Prefixes[token[:plen]]
		if !exists {
			continue
		}
		u, exists := r.Units[token[plen:]]
		if exists && u.IsMetric {
			pp := p
			return &pp, u, true
		}
	}
	return nil, nil, false
}
