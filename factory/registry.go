// Package factory implements the per-system factory/registry pattern of
// spec §2 row H and §5: each Factory owns immutable, shared, read-only
// data for one code system (a parsed CodeSystem document, an opened
// SNOMED cache, a loaded UCUM registry, an in-memory store fixture) and
// produces fresh, per-request provider.Provider instances from it on
// every New call. Registry is the process-wide table from code system
// URL to Factory.
package factory

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/wardle/terminology/provider"
)

// Factory owns one code system's shared immutable state and builds a
// fresh provider.Provider per request. UseCount is advisory only (spec
// §5 "The useCount counter on each factory is monotonic and may be
// updated concurrently; it is advisory only").
type Factory interface {
	// System is the code system URL this factory serves, used as the
	// Registry's lookup key.
	System() string
	// New builds a fresh provider.Provider instance over this factory's
	// shared state, with the given supplements applied (spec §9
	// "constructing a provider validates every supplement up front").
	New(supplements ...provider.Supplement) (provider.Provider, error)
	// UseCount returns the number of providers this factory has built so
	// far.
	UseCount() int64
}

// FuncFactory adapts a plain build function into a Factory, the shape
// every provider package under providers/ actually needs: a closure over
// that package's already-loaded shared store/document/cache.
type FuncFactory struct {
	system string
	build  func(supplements ...provider.Supplement) (provider.Provider, error)
	count  int64
}

// NewFuncFactory builds a Factory for systemURI whose New delegates to
// build, counting every call in UseCount.
func NewFuncFactory(systemURI string, build func(supplements ...provider.Supplement) (provider.Provider, error)) *FuncFactory {
	return &FuncFactory{system: systemURI, build: build}
}

func (f *FuncFactory) System() string { return f.system }

func (f *FuncFactory) New(supplements ...provider.Supplement) (provider.Provider, error) {
	atomic.AddInt64(&f.count, 1)
	return f.build(supplements...)
}

func (f *FuncFactory) UseCount() int64 { return atomic.LoadInt64(&f.count) }

// Registry is a sync.Map-backed table from code system URL to Factory
// (spec's SUPPLEMENTED FEATURES "a sync.Map-backed table from code
// system URL to Factory, with Register/Get/New"). Safe for concurrent
// use without external locking, matching spec §5's "no locking on read
// paths" for shared, immutable factory state.
type Registry struct {
	factories sync.Map // string -> Factory
}

// NewRegistry builds an empty Registry.
func NewRegistry() *Registry { return &Registry{} }

// Register adds f under its own System() URL, replacing any factory
// previously registered for that URL.
func (r *Registry) Register(f Factory) {
	r.factories.Store(f.System(), f)
}

// Get returns the Factory registered for systemURI, if any.
func (r *Registry) Get(systemURI string) (Factory, bool) {
	v, ok := r.factories.Load(systemURI)
	if !ok {
		return nil, false
	}
	return v.(Factory), true
}

// New locates the Factory for systemURI and builds a fresh provider
// instance from it, applying supplements.
func (r *Registry) New(systemURI string, supplements ...provider.Supplement) (provider.Provider, error) {
	f, ok := r.Get(systemURI)
	if !ok {
		return nil, fmt.Errorf("factory: no registered code system %q", systemURI)
	}
	return f.New(supplements...)
}

// Systems lists every registered code system URL.
func (r *Registry) Systems() []string {
	var out []string
	r.factories.Range(func(k, _ any) bool {
		out = append(out, k.(string))
		return true
	})
	return out
}
