package fhircs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseJSONBuildsMaps(t *testing.T) {
	data := []byte(`{
		"resourceType": "CodeSystem",
		"url": "http://example.org/fruit",
		"content": "complete",
		"language": "en",
		"identifier": {"system": "urn:test", "value": "1"},
		"concept": [
			{"code": "fruit", "display": "Fruit", "concept": [
				{"code": "apple", "display": "Apple"},
				{"code": "banana", "display": "Banana"}
			]}
		]
	}`)
	doc, err := ParseJSON(data)
	require.NoError(t, err)
	assert.Equal(t, 3, doc.TotalCount())
	require.Len(t, doc.Identifier, 1)
	assert.Equal(t, "1", doc.Identifier[0].Value)

	ancestors := doc.Ancestors("apple")
	require.Len(t, ancestors, 1)
	assert.Equal(t, "fruit", ancestors[0])

	assert.Len(t, doc.Descendants("fruit"), 2)
}

func TestParseJSONR4IdentifierArray(t *testing.T) {
	data := []byte(`{
		"resourceType": "CodeSystem",
		"url": "http://example.org/fruit",
		"content": "complete",
		"identifier": [{"system": "urn:test", "value": "1"}, {"system": "urn:test2", "value": "2"}],
		"concept": [{"code": "a", "display": "A"}]
	}`)
	doc, err := ParseJSON(data)
	require.NoError(t, err)
	assert.Len(t, doc.Identifier, 2)
}

func TestParseJSONRejectsWrongResourceType(t *testing.T) {
	_, err := ParseJSON([]byte(`{"resourceType": "ValueSet", "url": "x", "content": "complete"}`))
	assert.Error(t, err)
}

func TestParseJSONDetectsCycle(t *testing.T) {
	data := []byte(`{
		"resourceType": "CodeSystem",
		"url": "http://example.org/cyclic",
		"content": "complete",
		"concept": [
			{"code": "a", "display": "A", "property": [{"code": "parent", "valueCode": "b"}]},
			{"code": "b", "display": "B", "property": [{"code": "parent", "valueCode": "a"}]}
		]
	}`)
	_, err := ParseJSON(data)
	assert.Error(t, err)
}

func TestParseXMLMatchesJSON(t *testing.T) {
	xmlData := []byte(`<CodeSystem xmlns="http://hl7.org/fhir">
		<url value="http://example.org/fruit"/>
		<content value="complete"/>
		<concept>
			<code value="apple"/>
			<display value="Apple"/>
		</concept>
	</CodeSystem>`)
	doc, err := ParseXML(xmlData)
	require.NoError(t, err)
	assert.Equal(t, 1, doc.TotalCount())

	c, ok := doc.Lookup("apple")
	require.True(t, ok)
	assert.Equal(t, "Apple", c.Display)
}

func TestAsSupplementRejectsNonSupplement(t *testing.T) {
	doc := &Document{Content: ContentComplete}
	_, err := doc.AsSupplement()
	assert.Error(t, err)
}
