package fhircs

import (
	"encoding/json"
	"fmt"

	"github.com/buger/jsonparser"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// quickCheck does a cheap, allocation-light streaming scan of the three
// fields that decide whether data is even worth fully decoding, before
// the expensive recursive struct unmarshal below runs (spec §4.3.1). It
// mirrors the jsonparser pre-scan pattern used elsewhere in the pack for
// FHIR JSON (robertoAraneda-gofhir, gofhir-validator): reject a
// non-CodeSystem payload, or one missing its required url/content, with
// a handful of byte scans rather than building the whole concept tree
// first.
func quickCheck(data []byte) error {
	rt, err := jsonparser.GetString(data, "resourceType")
	if err != nil {
		return fmt.Errorf("fhircs: resourceType: %w", err)
	}
	if rt != "CodeSystem" {
		return fmt.Errorf("fhircs: expected resourceType CodeSystem, got %q", rt)
	}
	if _, err := jsonparser.GetString(data, "url"); err != nil {
		return fmt.Errorf("fhircs: missing required url: %w", err)
	}
	if _, err := jsonparser.GetString(data, "content"); err != nil {
		return fmt.Errorf("fhircs: missing required content: %w", err)
	}
	return nil
}

// wireDocument mirrors Document field-for-field except identifier, which
// R3 emits as a single object and R4/R5 emit as an array (spec §6 "R3 →
// R4/R5 conversion"); it is decoded separately by ParseJSON so both wire
// shapes land on Document.Identifier as a normalised []Identifier.
type wireDocument struct {
	Document
	Identifier json.RawMessage `json:"identifier,omitempty"`
}

// ParseJSON parses a FHIR CodeSystem resource, R3, R4 or R5, from JSON
// and builds its derived maps. Required-field validation (resourceType,
// url, content, well-formed concepts) is expressed as validator.v10
// struct tags checked by a single Validate() call after decoding.
func ParseJSON(data []byte) (*Document, error) {
	if err := quickCheck(data); err != nil {
		return nil, err
	}
	var w wireDocument
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("fhircs: decoding CodeSystem JSON: %w", err)
	}
	doc := w.Document
	if len(w.Identifier) > 0 {
		ids, err := normaliseIdentifier(w.Identifier)
		if err != nil {
			return nil, err
		}
		doc.Identifier = ids
	}
	if err := validate.Struct(&doc); err != nil {
		return nil, fmt.Errorf("fhircs: invalid CodeSystem: %w", err)
	}
	if err := doc.build(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// normaliseIdentifier accepts either R3's single identifier object or
// R4/R5's identifier array and always returns a slice, per spec §6.
func normaliseIdentifier(raw json.RawMessage) ([]Identifier, error) {
	trimmed := firstNonSpace(raw)
	if trimmed == '[' {
		var ids []Identifier
		if err := json.Unmarshal(raw, &ids); err != nil {
			return nil, fmt.Errorf("fhircs: decoding identifier array: %w", err)
		}
		return ids, nil
	}
	var one Identifier
	if err := json.Unmarshal(raw, &one); err != nil {
		return nil, fmt.Errorf("fhircs: decoding R3 identifier object: %w", err)
	}
	return []Identifier{one}, nil
}

func firstNonSpace(b []byte) byte {
	for _, c := range b {
		switch c {
		case ' ', '\t', '\n', '\r':
			continue
		default:
			return c
		}
	}
	return 0
}
