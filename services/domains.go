package services

import (
	"fmt"
	"net/url"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/veritalent/veritalent-backend/models"
)

// Email local-part conventions.
const (
	PatternFirstDotLast = "firstname.lastname"
	PatternFLast        = "f.lastname"
	PatternFirstLast    = "firstnamelastname"
)

// minDomainRelevance is the floor a candidate's relevance component
// (total score minus the rank bonus) must clear before it can be
// selected. Below it the researcher answers "unknown", never a guess.
const minDomainRelevance = 5

// DomainCandidate is one scored organic search hit. The ranked list is
// built once per search and never mutated afterwards.
type DomainCandidate struct {
	Hostname       string `json:"hostname"`
	RelevanceScore int    `json:"relevance_score"` // includes the rank bonus
	Rank           int    `json:"rank"`
}

// legal-entity stop words stripped before keyword extraction
var companyStopWords = map[string]bool{
	"inc": true, "llc": true, "ltd": true, "limited": true, "corp": true,
	"corporation": true, "company": true, "group": true, "partners": true,
	"holdings": true, "plc": true, "llp": true, "gmbh": true, "the": true,
	"and": true,
}

// domains that can never be a company's own site
var nonCompanyDomains = []string{
	"linkedin.com", "facebook.com", "twitter.com", "x.com", "instagram.com",
	"youtube.com", "wikipedia.org", "bloomberg.com", "crunchbase.com",
	"glassdoor.com", "indeed.com", "reuters.com", "forbes.com", "medium.com",
	"pitchbook.com", "zoominfo.com", "ft.com",
}

// leftmost labels that mark a non-primary entry point into a site
var nonPrimaryPrefixes = map[string]bool{
	"www2": true, "m": true, "en": true, "fr": true, "de": true, "es": true,
	"it": true, "pt": true, "ru": true, "zh": true, "ja": true, "jp": true,
	"kr": true, "uk": true, "us": true, "jobs": true, "careers": true,
	"investors": true, "investor": true, "blog": true, "news": true,
	"shop": true, "store": true, "support": true, "help": true, "mail": true,
	"docs": true, "app": true, "portal": true,
}

// multi-part TLDs whose second label must not be mistaken for the root
var multiPartTLDs = map[string]bool{
	"co.uk": true, "org.uk": true, "ac.uk": true, "com.cn": true,
	"com.au": true, "co.jp": true, "com.br": true, "co.in": true,
	"com.hk": true, "com.sg": true, "co.nz": true,
}

// email-format cues scanned in order; the first cue present in any
// snippet decides the pattern.
var emailPatternCues = []struct {
	cues    []string
	pattern string
}{
	{[]string{"first.last@", "firstname.lastname@"}, PatternFirstDotLast},
	{[]string{"f.last@", "flast@"}, PatternFLast},
	{[]string{"firstlast@", "no dot", "firstnamelastname@"}, PatternFirstLast},
}

// DomainResearcher resolves a company's web domain and email convention
// from scored search results. Each researcher owns its inference cache.
type DomainResearcher struct {
	search Searcher
	cache  *inferenceCache
	log    *zap.SugaredLogger
}

func NewDomainResearcher(search Searcher, log *zap.SugaredLogger) *DomainResearcher {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &DomainResearcher{
		search: search,
		cache:  newInferenceCache(inferenceTTL),
		log:    log,
	}
}

// CompanyKeywords strips legal-entity stop words and short tokens from a
// company name. An empty result means the name carries no usable signal.
func CompanyKeywords(company string) []string {
	var out []string
	for _, w := range strings.Fields(strings.ToLower(company)) {
		w = strings.Trim(w, ".,&()'\"")
		if len(w) <= 2 || companyStopWords[w] {
			continue
		}
		out = append(out, w)
	}
	return out
}

// rootLabel returns the registrable label of a hostname, honouring
// multi-part TLDs ("baincapital" for baincapital.co.uk).
func rootLabel(hostname string) string {
	labels := strings.Split(hostname, ".")
	if len(labels) < 2 {
		return hostname
	}
	tail := strings.Join(labels[len(labels)-2:], ".")
	if multiPartTLDs[tail] && len(labels) >= 3 {
		return labels[len(labels)-3]
	}
	return labels[len(labels)-2]
}

// hasSubdomainPrefix reports whether the leftmost label is a known
// non-primary prefix. Genuine multi-part TLDs are preserved: the prefix
// check never fires on the registrable part itself.
func hasSubdomainPrefix(hostname string) bool {
	labels := strings.Split(hostname, ".")
	if len(labels) < 3 {
		return false
	}
	tail := strings.Join(labels[len(labels)-2:], ".")
	if multiPartTLDs[tail] && len(labels) == 3 {
		return false // example.co.uk — three labels but no subdomain
	}
	return nonPrimaryPrefixes[labels[0]]
}

// ScoreDomainRelevance scores one hostname against the company keywords.
// Pure: fixed inputs always produce the same score. resultIndex feeds the
// rank bonus (10 − index).
func ScoreDomainRelevance(hostname string, keywords []string, resultIndex int) int {
	score := 0
	root := rootLabel(hostname)

	for _, kw := range keywords {
		if strings.Contains(hostname, kw) {
			score += 2 * len(kw)
			if root == kw {
				score += 20
			} else if len(root) <= len(kw)+3 {
				score += 10
			}
		} else if trigramOverlap(kw, hostname) {
			score++
		}
	}

	if len(root) > 20 {
		score -= 5
	}

	score += 10 - resultIndex

	if hasSubdomainPrefix(hostname) {
		score -= 15
	}

	return score
}

// trigramOverlap reports whether any 3-gram of kw appears in hostname.
// Catches partial stems when the keyword itself is absent.
func trigramOverlap(kw, hostname string) bool {
	if len(kw) < 3 {
		return false
	}
	for i := 0; i+3 <= len(kw); i++ {
		if strings.Contains(hostname, kw[i:i+3]) {
			return true
		}
	}
	return false
}

// RankDomainCandidates extracts, filters and scores hostnames from
// organic results. The returned slice is sorted by score descending with
// rank as the tiebreak and is not mutated afterwards.
func RankDomainCandidates(results []SerpResult, keywords []string) []DomainCandidate {
	seen := map[string]bool{}
	var out []DomainCandidate

	for i, r := range results {
		if i >= 10 {
			break
		}
		u, err := url.Parse(strings.TrimSpace(r.Link))
		if err != nil || u.Hostname() == "" {
			continue
		}
		host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
		if host == "" || seen[host] || isNonCompanyDomain(host) {
			continue
		}
		seen[host] = true
		out = append(out, DomainCandidate{
			Hostname:       host,
			RelevanceScore: ScoreDomainRelevance(host, keywords, i),
			Rank:           i,
		})
	}

	sort.SliceStable(out, func(a, b int) bool {
		if out[a].RelevanceScore != out[b].RelevanceScore {
			return out[a].RelevanceScore > out[b].RelevanceScore
		}
		return out[a].Rank < out[b].Rank
	})
	return out
}

func isNonCompanyDomain(host string) bool {
	for _, d := range nonCompanyDomains {
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}

// FindCompanyDomain resolves a company's most likely domain, or "" when
// the evidence is insufficient. It never substitutes a low-confidence
// guess: with extractable keywords, the winning candidate's relevance
// component (score minus rank bonus) must clear the floor.
func (r *DomainResearcher) FindCompanyDomain(company string) string {
	keywords := CompanyKeywords(company)

	results, err := r.search.Search(fmt.Sprintf("%s official website", company), 10)
	if err != nil || len(results) == 0 {
		r.log.Debugf("[Domains] search failed for %q: %v", company, err)
		return ""
	}

	candidates := RankDomainCandidates(results, keywords)
	if len(candidates) == 0 {
		return ""
	}

	top := candidates[0]
	if len(keywords) == 0 {
		// No usable signal in the name; accept the top hit at reduced
		// confidence rather than refusing outright.
		r.log.Infof("[Domains] %q has no keywords, accepting top hit %s", company, top.Hostname)
		return top.Hostname
	}

	relevance := top.RelevanceScore - (10 - top.Rank)
	if relevance < minDomainRelevance {
		r.log.Infof("[Domains] no candidate for %q clears the relevance floor (best %s at %d)", company, top.Hostname, relevance)
		return ""
	}

	r.log.Infof("[Domains] %q → %s (score %d)", company, top.Hostname, top.RelevanceScore)
	return top.Hostname
}

// InferEmailPattern classifies the organisation's email convention from
// search snippets. Defaults to firstname.lastname when no cue is found.
func (r *DomainResearcher) InferEmailPattern(company string) string {
	results, err := r.search.Search(fmt.Sprintf("%s email format contact", company), 10)
	if err != nil {
		r.log.Debugf("[Domains] email-format search failed for %q: %v", company, err)
		return PatternFirstDotLast
	}

	var corpus strings.Builder
	for _, res := range results {
		corpus.WriteString(strings.ToLower(res.Title))
		corpus.WriteString(" ")
		corpus.WriteString(strings.ToLower(res.Snippet))
		corpus.WriteString(" ")
	}
	text := corpus.String()

	for _, row := range emailPatternCues {
		for _, cue := range row.cues {
			if strings.Contains(text, cue) {
				return row.pattern
			}
		}
	}
	return PatternFirstDotLast
}

// Research runs both steps with caching. found is false when the domain
// could not be resolved; callers must treat that as "unknown", never
// fabricate one.
func (r *DomainResearcher) Research(company string) (models.EmailInference, bool) {
	if inf, found, ok := r.cache.get(company); ok {
		return inf, found
	}

	domain := r.FindCompanyDomain(company)
	if domain == "" {
		r.cache.set(company, models.EmailInference{}, false)
		return models.EmailInference{}, false
	}

	inf := models.EmailInference{
		Domain:  domain,
		Pattern: r.InferEmailPattern(company),
	}
	r.cache.set(company, inf, true)
	return inf, true
}

// GenerateEmailAddress deterministically builds an address from a name,
// domain and convention.
func GenerateEmailAddress(first, last, domain, pattern string) string {
	first = strings.ToLower(strings.ReplaceAll(strings.TrimSpace(first), " ", ""))
	last = strings.ToLower(strings.ReplaceAll(strings.TrimSpace(last), " ", ""))

	var local string
	switch pattern {
	case PatternFLast:
		if first != "" {
			local = first[:1] + "." + last
		} else {
			local = last
		}
	case PatternFirstLast:
		local = first + last
	default: // firstname.lastname
		local = first + "." + last
	}
	return local + "@" + domain
}
