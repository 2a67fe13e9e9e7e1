package services

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/veritalent/veritalent-backend/models"
)

// minOfficesBeforeLLM is the cascade's sufficiency predicate: the LLM
// layer is invoked only when the cheaper layers together produced fewer
// candidates than this.
const minOfficesBeforeLLM = 3

// maxLLMMarkup bounds the markup prefix sent to the completion capability.
const maxLLMMarkup = 15000

// LayerStatus distinguishes "layer produced nothing" from "layer broke".
type LayerStatus string

const (
	LayerFound    LayerStatus = "found"
	LayerNotFound LayerStatus = "not_found"
	LayerFailed   LayerStatus = "failed"
)

// LayerResult is the tagged output of one extraction layer.
type LayerResult struct {
	Layer   string                  `json:"layer"`
	Status  LayerStatus             `json:"status"`
	Offices []models.OfficeLocation `json:"offices,omitempty"`
	Err     string                  `json:"error,omitempty"`
}

// Layer names, also persisted on OfficeRecord.Layer.
const (
	LayerStructuredData = "structured_data"
	LayerMicrodata      = "microdata"
	LayerHeuristic      = "heuristic"
	LayerLLM            = "llm"
)

// heuristicSelectors are common office/location/address containers,
// scanned in order by the third layer.
var heuristicSelectors = []string{
	".office", ".offices", ".location", ".locations",
	".address", ".addresses", "#office", "#offices", "#locations",
	".contact-info", ".contact", ".footer-address", "footer address",
	"address",
}

// cityCountryRe harvests "City, Country" shaped pairs from free text.
var cityCountryRe = regexp.MustCompile(`([A-Z][a-zA-Z.'\-]+(?: [A-Z][a-zA-Z.'\-]+)*),\s*([A-Z][a-zA-Z.'\-]+(?: [A-Z][a-zA-Z.'\-]+)*)`)

// OfficeExtractor pulls office locations out of raw page markup using
// four cascading strategies of increasing cost: embedded structured
// data, microdata attributes, heuristic selectors, and finally a
// completion-capability fallback gated on insufficiency.
type OfficeExtractor struct {
	complete Completer
	log      *zap.SugaredLogger
}

func NewOfficeExtractor(complete Completer, log *zap.SugaredLogger) *OfficeExtractor {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &OfficeExtractor{complete: complete, log: log}
}

// Extract runs the full cascade and returns the merged, deduplicated
// office list. An unparsable page yields an empty list, never an error.
func (e *OfficeExtractor) Extract(html, sourceURL string) []models.OfficeLocation {
	layers := e.ExtractLayers(html, sourceURL)
	var all [][]models.OfficeLocation
	for _, l := range layers {
		all = append(all, l.Offices)
	}
	return MergeOfficeLocations(all...)
}

// ExtractLayers runs the cascade and returns the per-layer audit. The
// LLM layer appears in the output only when it was actually invoked.
func (e *OfficeExtractor) ExtractLayers(html, sourceURL string) []LayerResult {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		e.log.Warnf("[Locations] unparsable markup from %s: %v", sourceURL, err)
		return []LayerResult{{Layer: LayerStructuredData, Status: LayerFailed, Err: err.Error()}}
	}

	results := []LayerResult{
		e.extractStructuredData(doc),
		e.extractMicrodata(doc),
		e.extractHeuristic(doc),
	}

	found := 0
	for _, r := range results {
		found += len(r.Offices)
	}

	if found < minOfficesBeforeLLM && e.complete != nil {
		results = append(results, e.extractWithLLM(html, sourceURL))
	}

	return results
}

// ─── Layer 1: embedded structured data (schema.org JSON-LD) ──────────────────

type ldAddress struct {
	Locality      string          `json:"addressLocality"`
	CountryRaw    json.RawMessage `json:"addressCountry"`
	StreetAddress string          `json:"streetAddress"`
	AddressStreet string          `json:"addressStreet"`
}

func (a ldAddress) country() string {
	return jsonNameOrString(a.CountryRaw)
}

func (a ldAddress) street() string {
	if a.StreetAddress != "" {
		return a.StreetAddress
	}
	return a.AddressStreet
}

type ldBlock struct {
	TypeRaw  json.RawMessage   `json:"@type"`
	Address  json.RawMessage   `json:"address"`
	Location json.RawMessage   `json:"location"`
	Graph    []json.RawMessage `json:"@graph"`
}

func (e *OfficeExtractor) extractStructuredData(doc *goquery.Document) LayerResult {
	res := LayerResult{Layer: LayerStructuredData, Status: LayerNotFound}

	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, s *goquery.Selection) {
		raw := strings.TrimSpace(s.Text())
		if raw == "" {
			return
		}
		for _, block := range parseLDBlocks([]byte(raw)) {
			res.Offices = append(res.Offices, officesFromLDBlock(block)...)
		}
	})

	if len(res.Offices) > 0 {
		res.Status = LayerFound
	}
	return res
}

// parseLDBlocks tolerates a top-level object, a top-level array, and
// @graph wrappers. Malformed JSON is skipped silently; this layer has
// three fallbacks behind it.
func parseLDBlocks(raw []byte) []ldBlock {
	var out []ldBlock

	var one ldBlock
	if err := json.Unmarshal(raw, &one); err == nil {
		if len(one.Graph) > 0 {
			for _, g := range one.Graph {
				out = append(out, parseLDBlocks(g)...)
			}
		} else {
			out = append(out, one)
		}
		return out
	}

	var many []json.RawMessage
	if err := json.Unmarshal(raw, &many); err == nil {
		for _, m := range many {
			out = append(out, parseLDBlocks(m)...)
		}
	}
	return out
}

func officesFromLDBlock(block ldBlock) []models.OfficeLocation {
	if !isOrganizationType(block.TypeRaw) {
		return nil
	}

	var out []models.OfficeLocation
	for _, addr := range collectLDAddresses(block.Address) {
		office := models.OfficeLocation{City: addr.Locality, Country: addr.country(), Address: addr.street()}
		if !office.Empty() {
			out = append(out, office)
		}
	}

	// location can be a single place, or an array of places, each with
	// its own nested address.
	for _, loc := range rawSlice(block.Location) {
		var place struct {
			Address json.RawMessage `json:"address"`
		}
		if err := json.Unmarshal(loc, &place); err != nil {
			continue
		}
		for _, addr := range collectLDAddresses(place.Address) {
			office := models.OfficeLocation{City: addr.Locality, Country: addr.country(), Address: addr.street()}
			if !office.Empty() {
				out = append(out, office)
			}
		}
	}
	return out
}

func collectLDAddresses(raw json.RawMessage) []ldAddress {
	var out []ldAddress
	for _, r := range rawSlice(raw) {
		var addr ldAddress
		if err := json.Unmarshal(r, &addr); err == nil {
			out = append(out, addr)
		}
	}
	return out
}

// rawSlice normalises a JSON value that may be an object or an array of
// objects into a slice.
func rawSlice(raw json.RawMessage) []json.RawMessage {
	if len(raw) == 0 {
		return nil
	}
	trimmed := strings.TrimSpace(string(raw))
	if strings.HasPrefix(trimmed, "[") {
		var many []json.RawMessage
		if err := json.Unmarshal(raw, &many); err == nil {
			return many
		}
		return nil
	}
	if strings.HasPrefix(trimmed, "{") {
		return []json.RawMessage{raw}
	}
	return nil
}

func isOrganizationType(raw json.RawMessage) bool {
	for _, t := range typeStrings(raw) {
		switch t {
		case "organization", "localbusiness", "corporation":
			return true
		}
	}
	return false
}

func typeStrings(raw json.RawMessage) []string {
	var one string
	if err := json.Unmarshal(raw, &one); err == nil {
		return []string{strings.ToLower(one)}
	}
	var many []string
	if err := json.Unmarshal(raw, &many); err == nil {
		for i := range many {
			many[i] = strings.ToLower(many[i])
		}
		return many
	}
	return nil
}

// jsonNameOrString handles schema.org fields that are either a bare
// string or an object with a name ({"@type":"Country","name":"UK"}).
func jsonNameOrString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var obj struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		return obj.Name
	}
	return ""
}

// ─── Layer 2: microdata item properties ──────────────────────────────────────

func (e *OfficeExtractor) extractMicrodata(doc *goquery.Document) LayerResult {
	res := LayerResult{Layer: LayerMicrodata, Status: LayerNotFound}

	doc.Find(`[itemprop="address"]`).Each(func(_ int, s *goquery.Selection) {
		office := models.OfficeLocation{
			City:    strings.TrimSpace(s.Find(`[itemprop="addressLocality"]`).First().Text()),
			Country: strings.TrimSpace(s.Find(`[itemprop="addressCountry"]`).First().Text()),
			Address: strings.TrimSpace(s.Find(`[itemprop="streetAddress"]`).First().Text()),
		}
		if !office.Empty() {
			res.Offices = append(res.Offices, office)
		}
	})

	if len(res.Offices) > 0 {
		res.Status = LayerFound
	}
	return res
}

// ─── Layer 3: heuristic selectors + City, Country regex ──────────────────────

func (e *OfficeExtractor) extractHeuristic(doc *goquery.Document) LayerResult {
	res := LayerResult{Layer: LayerHeuristic, Status: LayerNotFound}
	seen := map[string]bool{}

	for _, sel := range heuristicSelectors {
		doc.Find(sel).Each(func(_ int, s *goquery.Selection) {
			text := strings.TrimSpace(s.Text())
			if text == "" {
				return
			}
			for _, m := range cityCountryRe.FindAllStringSubmatch(text, -1) {
				office := models.OfficeLocation{
					City:    strings.TrimSpace(m[1]),
					Country: strings.TrimSpace(m[2]),
				}
				if office.Empty() || seen[office.Key()] {
					continue
				}
				seen[office.Key()] = true
				res.Offices = append(res.Offices, office)
			}
		})
	}

	if len(res.Offices) > 0 {
		res.Status = LayerFound
	}
	return res
}

// ─── Layer 4: completion-capability fallback ─────────────────────────────────

const officeExtractionSystemPrompt = `You extract office locations from raw website markup.
Return ONLY a JSON object of the form {"offices":[{"city":"...","country":"...","address":"..."}]}.
Include ONLY locations that literally appear in the markup. Never invent, infer or complete
locations that are not present. If none are present, return {"offices":[]}.`

type llmOfficePayload struct {
	Offices []models.OfficeLocation `json:"offices"`
}

func (e *OfficeExtractor) extractWithLLM(html, sourceURL string) LayerResult {
	res := LayerResult{Layer: LayerLLM, Status: LayerNotFound}

	prefix := html
	if len(prefix) > maxLLMMarkup {
		prefix = prefix[:maxLLMMarkup]
	}

	user := "Source URL: " + sourceURL + "\n\nMarkup:\n" + prefix
	raw, err := e.complete.Complete(officeExtractionSystemPrompt, user, true)
	if err != nil {
		e.log.Debugf("[Locations] LLM layer failed for %s: %v", sourceURL, err)
		res.Status = LayerFailed
		res.Err = err.Error()
		return res
	}

	var payload llmOfficePayload
	if err := json.Unmarshal([]byte(StripCodeFences(raw)), &payload); err != nil {
		res.Status = LayerFailed
		res.Err = "unparsable LLM response"
		return res
	}

	for _, o := range payload.Offices {
		if !o.Empty() {
			res.Offices = append(res.Offices, o)
		}
	}
	if len(res.Offices) > 0 {
		res.Status = LayerFound
	}
	return res
}

// ─── Merge ───────────────────────────────────────────────────────────────────

// MergeOfficeLocations unions layer outputs keyed by lower-cased
// (city, country). First-seen wins; entries lacking both fields are
// dropped. Idempotent: merging a merged list changes nothing.
func MergeOfficeLocations(layers ...[]models.OfficeLocation) []models.OfficeLocation {
	seen := map[string]bool{}
	out := []models.OfficeLocation{}
	for _, layer := range layers {
		for _, office := range layer {
			if office.Empty() || seen[office.Key()] {
				continue
			}
			seen[office.Key()] = true
			out = append(out, office)
		}
	}
	return out
}
