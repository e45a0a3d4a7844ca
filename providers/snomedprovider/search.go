package snomedprovider

import (
	"strconv"
	"strings"

	"github.com/blevesearch/bleve"
	"github.com/blevesearch/bleve/analysis/analyzer/keyword"

	"github.com/wardle/terminology/snomed"
)

// searchIndex is an in-memory bleve full-text index over every active
// description's term, built once when a Provider is constructed. It mirrors
// the teacher's own terminology/bleve.go description index, but indexes a
// single field (the term) rather than the teacher's term-plus-keyword-facet
// documents, since SNOMED's uniform provider.SearchFilter has no facet
// parameters to encode.
type searchIndex struct {
	index bleve.Index
}

// searchDoc is the document bleve indexes for each active, non-FSN
// description.
type searchDoc struct {
	ConceptID string
	Term      string
}

func buildSearchIndex(reader *snomed.Reader) (*searchIndex, error) {
	mapping := bleve.NewIndexMapping()
	docMapping := bleve.NewDocumentMapping()
	mapping.AddDocumentMapping("document", docMapping)
	mapping.DefaultType = "document"

	termMapping := bleve.NewTextFieldMapping()
	termMapping.Analyzer = "en"
	termMapping.Store = false
	docMapping.AddFieldMappingsAt("Term", termMapping)

	conceptMapping := bleve.NewTextFieldMapping()
	conceptMapping.Analyzer = keyword.Name
	conceptMapping.Store = true
	conceptMapping.IncludeInAll = false
	docMapping.AddFieldMappingsAt("ConceptID", conceptMapping)

	idx, err := bleve.NewMemOnly(mapping)
	if err != nil {
		return nil, err
	}
	batch := idx.NewBatch()
	for _, d := range reader.AllActiveDescriptions() {
		if d.IsFullySpecifiedName() {
			continue
		}
		doc := searchDoc{ConceptID: strconv.FormatInt(d.ConceptID, 10), Term: d.Term}
		if err := batch.Index(strconv.FormatInt(d.ID, 10), &doc); err != nil {
			return nil, err
		}
	}
	if err := idx.Batch(batch); err != nil {
		return nil, err
	}
	return &searchIndex{index: idx}, nil
}

// search runs a conjunction of per-token match-or-prefix queries against
// Term, following the teacher's bleveService.Search token handling, and
// returns the distinct concept identifiers of the matching descriptions in
// bleve's relevance order.
func (si *searchIndex) search(text string, max int) ([]int64, error) {
	query := bleve.NewConjunctionQuery()
	for _, token := range strings.Fields(text) {
		tokenQuery := bleve.NewMatchQuery(token)
		tokenQuery.SetField("Term")
		if len(token) < 3 {
			query.AddQuery(tokenQuery)
			continue
		}
		prefixQuery := bleve.NewPrefixQuery(strings.ToLower(token))
		prefixQuery.SetField("Term")
		disjunction := bleve.NewDisjunctionQuery()
		disjunction.AddQuery(tokenQuery)
		disjunction.AddQuery(prefixQuery)
		query.AddQuery(disjunction)
	}
	req := bleve.NewSearchRequest(query)
	req.Size = max
	req.Fields = []string{"ConceptID"}
	result, err := si.index.Search(req)
	if err != nil {
		return nil, err
	}
	seen := make(map[int64]bool, len(result.Hits))
	ids := make([]int64, 0, len(result.Hits))
	for _, hit := range result.Hits {
		cidStr, _ := hit.Fields["ConceptID"].(string)
		id, err := strconv.ParseInt(cidStr, 10, 64)
		if err != nil || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids, nil
}

func (si *searchIndex) close() error { return si.index.Close() }
