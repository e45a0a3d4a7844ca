package expression

import "testing"

var etests = []struct {
	name                string
	expression          string
	numFocusConcepts    int
	numRefinements      int
	numRefinementGroups int
	totalRefinements    int
	wantStatus          Status
}{
	{
		"Simple",
		"73211009 |Diabetes mellitus|",
		1, 0, 0, 0, EquivalentTo,
	},
	{
		"Simple refinement",
		"83152002 |oophorectomy|: 405815000|procedure device| = 122456005 |laser device|",
		1, 1, 0, 1, EquivalentTo,
	},
	{
		"Multiple attributes",
		"71388002 |procedure|:	405815000|procedure device| = 122456005 |laser device|, 260686004 |method| = 129304002 |excision - action|,405813007 |procedure site - direct| = 15497006 |ovarian structure|",
		1, 3, 0, 3, EquivalentTo,
	},
	{
		"Conjoined expression",
		"119189000 |ulna part| + 312845000 |epiphysis of upper limb|:272741003 |laterality| = 7771000 |left|",
		2, 1, 0, 1, EquivalentTo,
	},
	{
		"Complex expression",
		"3415004 |cyanosis| + 363696006 |neonatal cardiovascular disorder|:246454002 |occurrence| = 255407002 |neonatal|,	363698007 |finding site| = 113257007 |structure of cardiovascular system|",
		2, 2, 0, 2, EquivalentTo,
	},
	{
		"Attribute group 1",
		"71388002 |procedure|:{ 260686004 |method| = 129304002 |excision - action|,405813007 |procedure site - direct| = 15497006 |ovarian structure|} { 260686004 |method| = 129304002 |excision - action|,405813007 |procedure site - direct| = 31435000 |fallopian tube structure|}",
		1, 0, 2, 4, EquivalentTo,
	},
	{
		"Attribute group 2",
		"71388002 |procedure|:{ 260686004 |method| = 129304002 |excision - action|,405813007 |procedure site - direct| = 20837000 |structure of right ovary|,424226004 |using device| = 122456005 |laser device|} {260686004 |method| = 261519002 |diathermy excision - action|,405813007 |procedure site - direct| = 113293009 |structure of left fallopian tube|}",
		1, 0, 2, 5, EquivalentTo,
	},
	{
		"Nested expression",
		"397956004 |prosthetic arthroplasty of the hip|:363704007 |procedure site| = (24136001 |hip joint structure|:272741003 |laterality| = 7771000 |left|)",
		1, 1, 0, 1, EquivalentTo,
	},
	{
		"Test Equivalent To",
		"=== 46866001 |fracture of lower limb| + 428881005 |injury of tibia|: 116676008 |associated morphology| = 72704001 |fracture|, 363698007 |finding site| = 12611008 |bone structure of tibia|",
		2, 2, 0, 2, EquivalentTo,
	},
	{
		"Test Subtype of",
		"<<< 73211009 |diabetes mellitus|: 363698007 |finding site| = 113331007 |endocrine system|",
		1, 1, 0, 1, SubsumedBy,
	},
}

func TestExpressions(t *testing.T) {
	for _, test := range etests {
		e, err := Parse(test.expression)
		if err != nil {
			t.Errorf("%s: %s", test.name, err)
			continue
		}
		if test.numFocusConcepts != len(e.Concepts) {
			t.Errorf("%s: invalid number of focus concepts. expected %d, got %v", test.name, test.numFocusConcepts, e.Concepts)
		}
		if test.numRefinementGroups != len(e.RefinementGroups) {
			t.Errorf("%s: invalid number of refinement groups. expected %d, got %v", test.name, test.numRefinementGroups, e.RefinementGroups)
		}
		if test.numRefinements != len(e.Refinements) {
			t.Errorf("%s: invalid number of refinements. expected %d, got %v", test.name, test.numRefinements, e.Refinements)
		}
		total := len(e.Refinements)
		for _, g := range e.RefinementGroups {
			total += len(g.Refinements)
		}
		if test.totalRefinements != total {
			t.Errorf("%s: invalid total number of refinements. expected %d, got %d", test.name, test.totalRefinements, total)
		}
		if test.wantStatus != e.Status {
			t.Errorf("%s: status = %v, want %v", test.name, e.Status, test.wantStatus)
		}
	}
}

func TestFromReference(t *testing.T) {
	e := FromReference(73211009)
	if len(e.Concepts) != 1 || e.Concepts[0].Code != 73211009 {
		t.Errorf("FromReference produced unexpected expression: %+v", e)
	}
	if e.IsComplex() {
		t.Error("a bare reference should not be complex")
	}
}

func TestEquivalentIgnoresConceptOrderAndTerms(t *testing.T) {
	a, err := Parse("119189000 |ulna part| + 312845000 |epiphysis|")
	if err != nil {
		t.Fatal(err)
	}
	b, err := Parse("312845000 + 119189000")
	if err != nil {
		t.Fatal(err)
	}
	if !Equivalent(a, b) {
		t.Error("expressions differing only in concept order and cosmetic terms should be equivalent")
	}
}

func TestEquivalentDetectsDifference(t *testing.T) {
	a, err := Parse("73211009 |Diabetes mellitus|")
	if err != nil {
		t.Fatal(err)
	}
	b, err := Parse("195967001 |Asthma|")
	if err != nil {
		t.Fatal(err)
	}
	if Equivalent(a, b) {
		t.Error("different focus concepts should not be equivalent")
	}
}

func TestEquivalentGroupOrderInsensitive(t *testing.T) {
	a, err := Parse("71388002:{260686004=129304002} {260686004=261519002}")
	if err != nil {
		t.Fatal(err)
	}
	b, err := Parse("71388002:{260686004=261519002} {260686004=129304002}")
	if err != nil {
		t.Fatal(err)
	}
	if !Equivalent(a, b) {
		t.Error("refinement groups should compare order-insensitively")
	}
}

func TestParseRoundTrip(t *testing.T) {
	for _, test := range etests {
		e, err := Parse(test.expression)
		if err != nil {
			t.Fatalf("%s: %s", test.name, err)
		}
		rendered := Render(e)
		e2, err := Parse(rendered)
		if err != nil {
			t.Fatalf("%s: re-parsing rendered expression %q: %s", test.name, rendered, err)
		}
		if !Equivalent(e, e2) {
			t.Errorf("%s: round trip produced a non-equivalent expression: %q -> %q", test.name, test.expression, rendered)
		}
	}
}

func TestParseErrors(t *testing.T) {
	cases := []string{
		"",
		"not-a-code",
		"123|unterminated term",
		"123:456=",
		"123:{456=789",
	}
	for _, c := range cases {
		if _, err := Parse(c); err == nil {
			t.Errorf("Parse(%q) should have failed", c)
		}
	}
}
