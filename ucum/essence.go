package ucum

import (
	"encoding/xml"
	"fmt"
	"io"
)

// essenceDoc mirrors the subset of the UCUM essence.xml schema this loader
// understands: <prefix>, <base-unit> and <unit> elements, each carrying a
// <value> with the conversion factor and, for derived units, the canonical
// expression they are defined in terms of.
type essenceDoc struct {
	XMLName   xml.Name         `xml:"root"`
	Prefixes  []essencePrefix  `xml:"prefix"`
	BaseUnits []essenceBase    `xml:"base-unit"`
	Units     []essenceUnit    `xml:"unit"`
}

type essencePrefix struct {
	Code  string       `xml:"Code,attr"`
	Name  string       `xml:"name"`
	Value essenceValue `xml:"value"`
}

type essenceBase struct {
	Code     string `xml:"Code,attr"`
	Dim      string `xml:"dim,attr"`
	Name     string `xml:"name"`
	Property string `xml:"property"`
}

type essenceUnit struct {
	Code     string       `xml:"Code,attr"`
	IsMetric string       `xml:"isMetric,attr"`
	Class    string       `xml:"class,attr"`
	Name     string       `xml:"name"`
	Property string       `xml:"property"`
	Value    essenceValue `xml:"value"`
}

type essenceValue struct {
	Unit  string `xml:"Unit,attr"`
	UCUM  string `xml:"UCUM,attr"`
	Value string `xml:"value,attr"`
}

// LoadEssenceXML parses a UCUM essence.xml document (spec §6 "UCUM essence
// XML") into a Registry. Units are processed in document order, so a
// derived unit's canonical expression may reference any base unit or
// previously-declared unit, exactly as the real essence.xml is laid out.
func LoadEssenceXML(r io.Reader) (*Registry, error) {
	var doc essenceDoc
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decoding UCUM essence XML: %w", err)
	}
	reg := &Registry{Prefixes: make(map[string]Prefix), Units: make(map[string]*Unit)}
	for _, p := range doc.Prefixes {
		factor, err := NewFromString(p.Value.Value)
		if err != nil {
			return nil, fmt.Errorf("prefix %s: %w", p.Code, err)
		}
		reg.Prefixes[p.Code] = Prefix{Code: p.Code, Name: p.Name, Factor: factor}
	}
	for i, b := range doc.BaseUnits {
		d := dim(baseDimIndex(b.Dim, i))
		reg.Units[b.Code] = &Unit{Code: b.Code, Name: b.Name, Property: b.Property, IsMetric: true, Dim: d, Factor: mustDecimal("1")}
	}
	for _, u := range doc.Units {
		factor, err := NewFromString(orOne(u.Value.Value))
		if err != nil {
			return nil, fmt.Errorf("unit %s: %w", u.Code, err)
		}
		canonicalTerm, err := Parse(orOne(u.Value.UCUM))
		if err != nil {
			canonicalTerm, err = Parse(orOne(u.Value.Unit))
			if err != nil {
				return nil, fmt.Errorf("unit %s: canonical expression: %w", u.Code, err)
			}
		}
		c, err := reg.Canonicalise(canonicalTerm)
		if err != nil {
			return nil, fmt.Errorf("unit %s: %w", u.Code, err)
		}
		reg.Units[u.Code] = &Unit{
			Code:     u.Code,
			Name:     u.Name,
			Property: u.Property,
			IsMetric: u.IsMetric == "yes",
			Dim:      c.Dim,
			Factor:   c.Factor.Multiply(factor),
		}
	}
	return reg, nil
}

func orOne(s string) string {
	if s == "" {
		return "1"
	}
	return s
}

func baseDimIndex(code string, fallback int) int {
	for i, c := range dimCodes {
		if c == code {
			return i
		}
	}
	if fallback < dimCount {
		return fallback
	}
	return 0
}
