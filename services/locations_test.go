package services

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veritalent/veritalent-backend/models"
	"github.com/veritalent/veritalent-backend/pkg/logging"
)

const threeOfficeJSONLD = `<html><head>
<script type="application/ld+json">
{
  "@type": "Organization",
  "name": "Acme",
  "address": [
    {"addressLocality": "Boston", "addressCountry": "USA", "streetAddress": "200 Clarendon St"},
    {"addressLocality": "London", "addressCountry": {"@type": "Country", "name": "United Kingdom"}},
    {"addressLocality": "Mumbai", "addressCountry": "India", "addressStreet": "1 Marine Drive"}
  ]
}
</script>
</head><body></body></html>`

func TestExtractStructuredData(t *testing.T) {
	e := NewOfficeExtractor(nil, logging.Nop())

	offices := e.Extract(threeOfficeJSONLD, "https://acme.com")

	want := []models.OfficeLocation{
		{City: "Boston", Country: "USA", Address: "200 Clarendon St"},
		{City: "London", Country: "United Kingdom"},
		{City: "Mumbai", Country: "India", Address: "1 Marine Drive"},
	}
	if diff := cmp.Diff(want, offices); diff != "" {
		t.Errorf("offices mismatch (-want +got):\n%s", diff)
	}
}

func TestExtractStructuredDataGraphAndLocation(t *testing.T) {
	html := `<html><head><script type="application/ld+json">
	{"@graph": [
	  {"@type": "LocalBusiness",
	   "location": [
	     {"address": {"addressLocality": "Berlin", "addressCountry": "Germany"}},
	     {"address": {"addressLocality": "Paris", "addressCountry": "France"}}
	   ]},
	  {"@type": "WebSite", "address": {"addressLocality": "Nowhere"}}
	]}
	</script></head></html>`

	e := NewOfficeExtractor(nil, logging.Nop())
	layers := e.ExtractLayers(html, "https://acme.de")

	structured := layers[0]
	assert.Equal(t, LayerStructuredData, structured.Layer)
	assert.Equal(t, LayerFound, structured.Status)
	require.Len(t, structured.Offices, 2, "non-organization graph nodes must be ignored")
	assert.Equal(t, "Berlin", structured.Offices[0].City)
	assert.Equal(t, "Paris", structured.Offices[1].City)
}

func TestExtractMicrodata(t *testing.T) {
	html := `<html><body>
	<div itemprop="address">
	  <span itemprop="streetAddress">10 Downing St</span>
	  <span itemprop="addressLocality">London</span>
	  <span itemprop="addressCountry">United Kingdom</span>
	</div>
	<div itemprop="address"><span itemprop="addressLocality">Dublin</span></div>
	</body></html>`

	e := NewOfficeExtractor(nil, logging.Nop())
	layers := e.ExtractLayers(html, "https://acme.co.uk")

	micro := layers[1]
	assert.Equal(t, LayerMicrodata, micro.Layer)
	assert.Equal(t, LayerFound, micro.Status)
	require.Len(t, micro.Offices, 2)
	assert.Equal(t, "10 Downing St", micro.Offices[0].Address)
	assert.Equal(t, "Dublin", micro.Offices[1].City)
}

func TestExtractHeuristic(t *testing.T) {
	html := `<html><body>
	<div class="locations">
	  Our offices: New York, United States and Hong Kong, China
</div>
	<address>Sydney, Australia</address>
	</body></html>`

	e := NewOfficeExtractor(nil, logging.Nop())
	layers := e.ExtractLayers(html, "https://acme.com")

	heur := layers[2]
	assert.Equal(t, LayerHeuristic, heur.Layer)
	assert.Equal(t, LayerFound, heur.Status)

	got := map[string]bool{}
	for _, o := range heur.Offices {
		got[o.City+"/"+o.Country] = true
	}
	assert.True(t, got["New York/United States"])
	assert.True(t, got["Hong Kong/China"])
	assert.True(t, got["Sydney/Australia"])
}

func TestLLMLayerSkippedWhenEnoughOffices(t *testing.T) {
	completer := &fakeCompleter{reply: `{"offices":[]}`}
	e := NewOfficeExtractor(completer, logging.Nop())

	layers := e.ExtractLayers(threeOfficeJSONLD, "https://acme.com")

	assert.Equal(t, 0, completer.calls)
	require.Len(t, layers, 3, "LLM layer must not appear when it was not invoked")
}

func TestLLMLayerInvokedOnInsufficiency(t *testing.T) {
	html := `<html><head><script type="application/ld+json">
	{"@type": "Organization", "address": {"addressLocality": "Boston", "addressCountry": "USA"}}
	</script></head></html>`

	completer := &fakeCompleter{
		reply: "```json\n{\"offices\":[{\"city\":\"Tokyo\",\"country\":\"Japan\"},{\"city\":\"Boston\",\"country\":\"USA\"}]}\n```",
	}
	e := NewOfficeExtractor(completer, logging.Nop())

	offices := e.Extract(html, "https://acme.com")

	assert.Equal(t, 1, completer.calls)
	want := []models.OfficeLocation{
		{City: "Boston", Country: "USA"},
		{City: "Tokyo", Country: "Japan"},
	}
	if diff := cmp.Diff(want, offices); diff != "" {
		t.Errorf("merged offices mismatch (-want +got):\n%s", diff)
	}
}

func TestLLMLayerFailure(t *testing.T) {
	completer := &fakeCompleter{err: errors.New("provider down")}
	e := NewOfficeExtractor(completer, logging.Nop())

	layers := e.ExtractLayers("<html><body>nothing here</body></html>", "https://acme.com")

	require.Len(t, layers, 4)
	llm := layers[3]
	assert.Equal(t, LayerLLM, llm.Layer)
	assert.Equal(t, LayerFailed, llm.Status)
	assert.NotEmpty(t, llm.Err)
}

func TestLLMLayerUnparsableResponse(t *testing.T) {
	completer := &fakeCompleter{reply: "sorry, I cannot help with that"}
	e := NewOfficeExtractor(completer, logging.Nop())

	layers := e.ExtractLayers("<html></html>", "https://acme.com")

	llm := layers[len(layers)-1]
	assert.Equal(t, LayerFailed, llm.Status)
	assert.Empty(t, llm.Offices)
}

func TestMergeOfficeLocations(t *testing.T) {
	a := []models.OfficeLocation{
		{City: "Boston", Country: "USA", Address: "200 Clarendon St"},
		{City: "", Country: ""},
	}
	b := []models.OfficeLocation{
		{City: "boston", Country: "usa", Address: "different address"}, // duplicate key
		{City: "London", Country: "United Kingdom"},
	}

	merged := MergeOfficeLocations(a, b)

	require.Len(t, merged, 2)
	// First-seen wins, including its address.
	assert.Equal(t, "200 Clarendon St", merged[0].Address)
	assert.Equal(t, "London", merged[1].City)

	// Idempotent.
	again := MergeOfficeLocations(merged)
	if diff := cmp.Diff(merged, again); diff != "" {
		t.Errorf("merge not idempotent (-first +second):\n%s", diff)
	}
}

func TestMergeOfficeLocationsNeverNil(t *testing.T) {
	assert.NotNil(t, MergeOfficeLocations())
	assert.NotNil(t, MergeOfficeLocations(nil, nil))
}
