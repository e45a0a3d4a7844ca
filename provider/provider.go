// Package provider defines the uniform capability surface every code
// system implements (spec §4.1): metadata, concept resolution,
// designation/display resolution with language negotiation, iteration,
// filtering and subsumption. Upstream operations (value-set expansion,
// $validate-code, $lookup, $translate, $subsumes) drive any code system
// polymorphically through this one interface; the concrete variants are
// the packages under providers/.
package provider

import (
	"context"
	"errors"

	"github.com/wardle/terminology/lang"
)

// Context is an opaque handle returned by Locate, uniquely identifying one
// concept within the provider that produced it (spec §3 "Concept
// context"). Each provider defines its own concrete type underneath;
// passing a Context produced by one provider into a different provider's
// methods is a programmer error, not a normal "not found" outcome, and
// every method here that receives one validates its dynamic type and
// returns ErrWrongContextType rather than a zero value.
type Context any

// OpContext is the immutable, per-request operation context (spec §3): an
// ordered, quality-ranked list of requested display languages. Its
// lifetime is one operation; it carries no other mutable state.
type OpContext struct {
	Languages lang.Languages
}

// NewOpContext builds an OpContext from an already-parsed, quality-ranked
// Languages list.
func NewOpContext(languages lang.Languages) *OpContext {
	return &OpContext{Languages: languages}
}

// NewOpContextFromAcceptLanguage builds an OpContext directly from a raw
// HTTP Accept-Language header value, as named in spec §3 and §6.
func NewOpContextFromAcceptLanguage(header string) *OpContext {
	return &OpContext{Languages: lang.FromAcceptLanguage(header)}
}

// English is a ready-made OpContext with no requested languages, which
// lang.Languages treats as "English or nothing" throughout the display
// resolution algorithm.
var English = &OpContext{}

// Programmer/structural errors (spec §7.2): thrown for invalid argument
// shapes rather than returned as a normal not-found outcome.
var (
	ErrNilOpContext      = errors.New("provider: nil operation context")
	ErrWrongContextType  = errors.New("provider: context belongs to a different provider")
	ErrUnsupportedFilter = errors.New("provider: unsupported filter")
	ErrNoParent          = errors.New("provider: concept does not have parents")
	ErrInvalidRegex      = errors.New("provider: invalid regex pattern")
	ErrNotSupported      = errors.New("provider: not supported")
)

// Use is the coded "use" of a Designation: display, synonym, definition,
// or any other system-defined code. A nil *Use (or one with an empty
// Code) denotes a plain display (spec §3 "Designation").
type Use struct {
	System string
	Code   string
}

// IsDisplay reports whether this use denotes a display-kind designation,
// i.e. one that participates in display resolution (spec §4.1.1 step 2).
func (u *Use) IsDisplay() bool {
	return u == nil || u.Code == "" || u.Code == "display"
}

// Designation is an alternative textual form of a concept (spec §3).
type Designation struct {
	Language lang.Tag
	Use      *Use
	Value    string
}

// Property is a property or extension value attached to a concept.
type Property struct {
	Code  string
	URI   string
	Type  string
	Value string
}

// PropertyDefinition declares a property a CodeSystem's concepts may carry
// (spec §4.1 "propertyDefinitions").
type PropertyDefinition struct {
	Code string
	URI  string
	Type string
}

// Subsumption is the four-way outcome of SubsumesTest (spec §4.1
// "Hierarchy").
type Subsumption struct {
	Subsumes    bool
	SubsumedBy  bool
	Equivalent  bool
	NotSubsumed bool
}

// Iterator yields every Context reachable from a starting point: every
// concept exactly once when started from a nil Context, or direct
// children when started from one (spec §4.1 "Iteration"). Next is a
// suspension point for database-backed providers; in-memory providers
// ignore ctx.
type Iterator interface {
	Next(ctx context.Context) (Context, bool, error)
}

// FilterSet is one prepared, executable filter set produced by Filter,
// SearchFilter or SpecialFilter (spec §3 "Filter execution context").
type FilterSet interface {
	// Size returns the number of members, or -1 if the set is not closed
	// (grammar-based, e.g. BCP-47, UCUM, SNOMED post-coordination).
	Size() int
	// Next advances the forward iterator, suspension point for
	// database-backed providers.
	Next(ctx context.Context) (Context, bool, error)
	// Locate resolves a single code against this filter set's membership,
	// returning either a Context or a not-found message (spec §7, not an
	// error).
	Locate(ctx context.Context, code string) (Context, string, error)
	// Check reports whether ctx's concept is a member of this set.
	Check(ctx Context) bool
	// Finish releases any resources held by this filter set.
	Finish() error
}

// FilterContext is the mutable, per-request sequence of prepared filter
// sets accumulated by successive Filter/SearchFilter/SpecialFilter calls
// (spec §3). Sets are consumed in the order they were added.
type FilterContext struct {
	Iterate bool
	Sets    []FilterSet
}

// NewFilterContext starts a new filter execution context.
func NewFilterContext(iterate bool) *FilterContext {
	return &FilterContext{Iterate: iterate}
}

// Provider is the uniform capability surface every code system
// implements (spec §4.1). Operations taking a "code or context" accept a
// raw string, resolved internally via Locate, or an opaque Context
// previously returned by this same Provider.
type Provider interface {
	// Metadata (pure, synchronous).
	System() string
	Version() string
	Name() string
	Description() string
	DefLang() lang.Tag
	ContentMode() string
	TotalCount() int
	HasParents() bool
	PropertyDefinitions() []PropertyDefinition
	HasSupplement(url string) bool
	ListSupplements() []string
	VersionIsMoreDetailed(v1, v2 string) bool
	Status() string
	HasAnyDisplays(languages lang.Languages) bool

	// Concept resolution.
	Locate(ctx context.Context, code string) (Context, string, error)
	Code(c Context) (string, error)
	Display(ctx context.Context, op *OpContext, c Context) (string, error)
	Definition(c Context) (string, error)
	Designations(ctx context.Context, c Context) ([]Designation, error)
	Properties(c Context) ([]Property, error)
	Extensions(c Context) ([]Property, error)
	IsAbstract(c Context) (bool, error)
	IsInactive(c Context) (bool, error)
	IsDeprecated(c Context) (bool, error)
	Parent(c Context) (Context, error)
	SameConcept(a, b Context) bool
	ExtendLookup(c Context, requestedProperties []string) (map[string]string, error)

	// Hierarchy.
	LocateIsA(ctx context.Context, code, parent string, disallowSelf bool) (Context, string, error)
	SubsumesTest(ctx context.Context, a, b string) (Subsumption, error)

	// Iteration. A nil Context iterates the whole provider; a non-nil one
	// iterates its direct children.
	Iterator(c Context) Iterator

	// Filtering.
	DoesFilter(property, op, value string) bool
	GetPrepContext(iterate bool) *FilterContext
	Filter(fctx *FilterContext, property, op, value string) error
	SearchFilter(ctx context.Context, fctx *FilterContext, text string, sort bool) error
	SpecialFilter(fctx *FilterContext, value string) error
	ExecuteFilters(ctx context.Context, fctx *FilterContext) ([]FilterSet, error)
	FiltersNotClosed(fctx *FilterContext) bool

	// Close releases the provider's own resources (a database connection,
	// a borrowed cache view). Safe to call even if nothing was opened.
	Close() error
}
