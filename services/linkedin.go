package services

import (
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"
)

// MinProfileConfidence is the acceptance threshold for the best-scored
// profile candidate. 39 is rejected, 40 is accepted.
const MinProfileConfidence = 40

const profilePathMarker = "linkedin.com/in/"

// Reason strings recorded by the scorer. The CompanyMatch/TitleMatch
// booleans are derived from these, not re-computed, so the audit trail
// and the flags cannot drift apart.
const (
	reasonFullName      = "full name match"
	reasonFirstAndLast  = "first and last name present"
	reasonLastNameOnly  = "last name match"
	reasonCompanyFull   = "company match"
	reasonCompanyWord   = "company word match"
	reasonTitleMatch    = "title match"
	reasonPositionBonus = "position bonus"
)

// ProfileCandidate is one scored search hit for a person.
type ProfileCandidate struct {
	URL     string   `json:"url"`
	Score   int      `json:"score"`
	Reasons []string `json:"reasons"`
}

// CompanyMatch reports whether any company-derived reason was recorded.
func (p ProfileCandidate) CompanyMatch() bool {
	for _, r := range p.Reasons {
		if strings.HasPrefix(r, "company") {
			return true
		}
	}
	return false
}

// TitleMatch reports whether the title reason was recorded.
func (p ProfileCandidate) TitleMatch() bool {
	for _, r := range p.Reasons {
		if r == reasonTitleMatch {
			return true
		}
	}
	return false
}

// ProfileMatcher discovers and validates LinkedIn profiles for a target
// identity via web search.
type ProfileMatcher struct {
	search Searcher
	log    *zap.SugaredLogger
}

func NewProfileMatcher(search Searcher, log *zap.SugaredLogger) *ProfileMatcher {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &ProfileMatcher{search: search, log: log}
}

// FindProfile returns the best matching profile, or nil when nothing
// clears the confidence threshold. Search failures degrade to nil.
func (m *ProfileMatcher) FindProfile(firstName, lastName, company, title string) *ProfileCandidate {
	results := m.searchProfiles(firstName, lastName, company, title)
	if len(results) == 0 {
		return nil
	}

	candidates := ScoreProfileCandidates(results, firstName, lastName, company, title)
	if len(candidates) == 0 {
		return nil
	}

	top := candidates[0]
	if top.Score < MinProfileConfidence {
		m.log.Infof("[LinkedIn] best candidate for %s %s below threshold (%d < %d)", firstName, lastName, top.Score, MinProfileConfidence)
		return nil
	}
	m.log.Infof("[LinkedIn] matched %s %s → %s (score %d)", firstName, lastName, top.URL, top.Score)
	return &top
}

// searchProfiles runs the exact quoted query first and falls back to a
// loose unquoted one when it returns nothing.
func (m *ProfileMatcher) searchProfiles(firstName, lastName, company, title string) []SerpResult {
	exact := fmt.Sprintf(`"%s %s" "%s"`, firstName, lastName, company)
	if title != "" {
		exact += fmt.Sprintf(` "%s"`, title)
	}
	exact += " site:linkedin.com/in"

	results, err := m.search.Search(exact, 10)
	if err != nil {
		m.log.Debugf("[LinkedIn] exact search failed: %v", err)
		return nil
	}
	if len(results) > 0 {
		return results
	}

	loose := fmt.Sprintf("%s %s %s %s site:linkedin.com/in", firstName, lastName, company, title)
	results, err = m.search.Search(strings.TrimSpace(loose), 10)
	if err != nil {
		m.log.Debugf("[LinkedIn] loose search failed: %v", err)
		return nil
	}
	return results
}

// ScoreProfileCandidates scores every profile-path result against the
// target identity. Pure: fixed inputs give a fixed ordering. The returned
// list is sorted descending by score, rank breaking ties.
func ScoreProfileCandidates(results []SerpResult, firstName, lastName, company, title string) []ProfileCandidate {
	fullName := strings.ToLower(strings.TrimSpace(firstName + " " + lastName))
	first := strings.ToLower(strings.TrimSpace(firstName))
	last := strings.ToLower(strings.TrimSpace(lastName))
	companyLower := strings.ToLower(strings.TrimSpace(company))
	titleLower := strings.ToLower(strings.TrimSpace(title))

	type ranked struct {
		cand ProfileCandidate
		rank int
	}
	var out []ranked

	for i, r := range results {
		link := strings.TrimSpace(r.Link)
		if !strings.Contains(strings.ToLower(link), profilePathMarker) {
			continue
		}

		text := strings.ToLower(r.Title + " " + r.Snippet)
		cand := ProfileCandidate{URL: link}

		switch {
		case fullName != "" && strings.Contains(text, fullName):
			cand.Score += 50
			cand.Reasons = append(cand.Reasons, reasonFullName)
		case first != "" && last != "" && strings.Contains(text, first) && strings.Contains(text, last):
			cand.Score += 30
			cand.Reasons = append(cand.Reasons, reasonFirstAndLast)
		case last != "" && strings.Contains(text, last):
			cand.Score += 10
			cand.Reasons = append(cand.Reasons, reasonLastNameOnly)
		}

		if companyLower != "" && strings.Contains(text, companyLower) {
			cand.Score += 30
			cand.Reasons = append(cand.Reasons, reasonCompanyFull)
		} else {
			for _, w := range strings.Fields(companyLower) {
				if len(w) > 3 && strings.Contains(text, w) {
					cand.Score += 15
					cand.Reasons = append(cand.Reasons, fmt.Sprintf("%s: %s", reasonCompanyWord, w))
				}
			}
		}

		if titleLower != "" && strings.Contains(text, titleLower) {
			cand.Score += 20
			cand.Reasons = append(cand.Reasons, reasonTitleMatch)
		}

		if bonus := 5 - i; bonus > 0 {
			cand.Score += bonus
			cand.Reasons = append(cand.Reasons, fmt.Sprintf("%s: +%d", reasonPositionBonus, bonus))
		}

		out = append(out, ranked{cand: cand, rank: i})
	}

	sort.SliceStable(out, func(a, b int) bool {
		if out[a].cand.Score != out[b].cand.Score {
			return out[a].cand.Score > out[b].cand.Score
		}
		return out[a].rank < out[b].rank
	})

	final := make([]ProfileCandidate, 0, len(out))
	for _, r := range out {
		final = append(final, r.cand)
	}
	return final
}
