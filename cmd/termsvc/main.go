// Terminology service command line utility: registers a factory for each
// fixture-backed code system (HGVS, SNOMED CT and FHIR CodeSystem
// documents need external resources and are not registered) and runs
// locate and display against whichever one the -system flag names, in
// the manner of the teacher's own goterm.go.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/wardle/terminology/factory"
	"github.com/wardle/terminology/provider"
	"github.com/wardle/terminology/providers/area"
	"github.com/wardle/terminology/providers/bcp47"
	"github.com/wardle/terminology/providers/country"
	"github.com/wardle/terminology/providers/cpt"
	"github.com/wardle/terminology/providers/loinc"
	"github.com/wardle/terminology/providers/mime"
	"github.com/wardle/terminology/providers/ndc"
	"github.com/wardle/terminology/providers/omop"
	"github.com/wardle/terminology/providers/unii"
	"github.com/wardle/terminology/providers/uri"
)

var (
	system   = flag.String("system", "urn:iso:std:iso:3166", "code system URL to query")
	code     = flag.String("code", "", "code to locate and display")
	langFlag = flag.String("lang", "en", "Accept-Language header value for display resolution")
	list     = flag.Bool("list", false, "list every registered code system")
)

// newRegistry builds a Registry with every in-repo provider factory
// registered, each built from its package's own DefaultFixture/New where
// applicable (spec §2 row H "Factory registry").
func newRegistry() *factory.Registry {
	r := factory.NewRegistry()
	r.Register(factory.NewFuncFactory("urn:iso:std:iso:3166", func(s ...provider.Supplement) (provider.Provider, error) {
		return country.New(s...), nil
	}))
	r.Register(factory.NewFuncFactory("http://unstats.un.org/unsd/methods/m49/m49.htm", func(s ...provider.Supplement) (provider.Provider, error) {
		return area.New(s...), nil
	}))
	r.Register(factory.NewFuncFactory("urn:ietf:bcp:13", func(s ...provider.Supplement) (provider.Provider, error) {
		return mime.New(s...), nil
	}))
	r.Register(factory.NewFuncFactory("urn:ietf:rfc:3986", func(s ...provider.Supplement) (provider.Provider, error) {
		return uri.New(s...), nil
	}))
	r.Register(factory.NewFuncFactory("urn:ietf:bcp:47", func(s ...provider.Supplement) (provider.Provider, error) {
		return bcp47.New(s...), nil
	}))
	loincStore := loinc.DefaultFixture()
	r.Register(factory.NewFuncFactory("http://loinc.org", func(s ...provider.Supplement) (provider.Provider, error) {
		return loinc.New(loincStore, s...), nil
	}))
	ndcStore := ndc.DefaultFixture()
	r.Register(factory.NewFuncFactory("http://hl7.org/fhir/sid/ndc", func(s ...provider.Supplement) (provider.Provider, error) {
		return ndc.New(ndcStore, s...), nil
	}))
	cptStore := cpt.DefaultFixture()
	r.Register(factory.NewFuncFactory("http://www.ama-assn.org/go/cpt", func(s ...provider.Supplement) (provider.Provider, error) {
		return cpt.New(cptStore, s...), nil
	}))
	uniiStore := unii.DefaultFixture()
	r.Register(factory.NewFuncFactory("http://fdasis.nlm.nih.gov", func(s ...provider.Supplement) (provider.Provider, error) {
		return unii.New(uniiStore, s...), nil
	}))
	omopStore := omop.DefaultFixture()
	r.Register(factory.NewFuncFactory("http://www.nlm.nih.gov/research/umls/rxnorm", func(s ...provider.Supplement) (provider.Provider, error) {
		return omop.New(omopStore, 1, s...), nil
	}))
	return r
}

func main() {
	flag.Parse()
	r := newRegistry()

	if *list {
		for _, sys := range r.Systems() {
			fmt.Println(sys)
		}
		return
	}

	if *code == "" {
		fmt.Fprintln(os.Stderr, "error: -code is required unless -list is given")
		flag.PrintDefaults()
		os.Exit(1)
	}

	p, err := r.New(*system)
	if err != nil {
		log.Fatalf("couldn't build provider for %s: %v", *system, err)
	}
	defer p.Close()

	ctx := context.Background()
	op := provider.NewOpContextFromAcceptLanguage(*langFlag)
	c, msg, err := p.Locate(ctx, *code)
	if err != nil {
		log.Fatalf("locate %q: %v", *code, err)
	}
	if c == nil {
		fmt.Println(msg)
		os.Exit(1)
	}
	display, err := p.Display(ctx, op, c)
	if err != nil {
		log.Fatalf("display %q: %v", *code, err)
	}
	fmt.Printf("%s: %s\n", *code, display)
}
