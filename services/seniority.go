package services

import (
	"strings"

	"go.uber.org/zap"

	"github.com/veritalent/veritalent-backend/models"
)

// SeniorityLevel is an ordinal rank derived from a job title. Higher is
// more senior; comparisons between levels are meaningful.
type SeniorityLevel int

const (
	SeniorityUnknown         SeniorityLevel = 0
	SeniorityIntern          SeniorityLevel = 1
	SeniorityAnalyst         SeniorityLevel = 2
	SeniorityAssociate       SeniorityLevel = 3
	SenioritySeniorAssociate SeniorityLevel = 4
	SeniorityManager         SeniorityLevel = 5
	SenioritySeniorManager   SeniorityLevel = 6
	SeniorityDirector        SeniorityLevel = 7
	SenioritySeniorDirector  SeniorityLevel = 8
	SeniorityVP              SeniorityLevel = 9
	SenioritySVP             SeniorityLevel = 10
	SeniorityEVP             SeniorityLevel = 11
	SeniorityCSuite          SeniorityLevel = 12
)

func (l SeniorityLevel) String() string {
	switch l {
	case SeniorityIntern:
		return "intern"
	case SeniorityAnalyst:
		return "analyst"
	case SeniorityAssociate:
		return "associate"
	case SenioritySeniorAssociate:
		return "senior associate"
	case SeniorityManager:
		return "manager"
	case SenioritySeniorManager:
		return "senior manager"
	case SeniorityDirector:
		return "director"
	case SenioritySeniorDirector:
		return "senior director"
	case SeniorityVP:
		return "vp"
	case SenioritySVP:
		return "svp"
	case SeniorityEVP:
		return "evp"
	case SeniorityCSuite:
		return "c-suite"
	default:
		return "unknown"
	}
}

// seniorityRule maps a keyword set onto a level. Rules are evaluated in
// order and the first hit wins, so compound titles like "Senior Vice
// President of Engineering" resolve to the most senior applicable level.
// Do not reorder: C-Suite/MD before EVP before SVP before VP before
// Director before Manager before the junior rungs.
type seniorityRule struct {
	keywords []string
	excludes []string // a title containing any of these skips the rule
	level    SeniorityLevel
}

var seniorityRules = []seniorityRule{
	// "president" alone is C-Suite, but never when it is part of a
	// "... vice president" title.
	{[]string{"chief ", "ceo", "cfo", "coo", "cto", "cio", "chro", "cmo", "managing director", "managing partner", "president", "founder", "co-founder", "chairman", "owner"}, []string{"vice president"}, SeniorityCSuite},
	{[]string{"executive vice president", "evp"}, nil, SeniorityEVP},
	{[]string{"senior vice president", "svp"}, nil, SenioritySVP},
	{[]string{"vice president", "vp"}, nil, SeniorityVP},
	{[]string{"senior director", "group director"}, nil, SenioritySeniorDirector},
	{[]string{"director", "head of"}, nil, SeniorityDirector},
	{[]string{"senior manager", "principal"}, nil, SenioritySeniorManager},
	{[]string{"manager", "team lead", "lead"}, nil, SeniorityManager},
	{[]string{"senior associate"}, nil, SenioritySeniorAssociate},
	{[]string{"associate"}, nil, SeniorityAssociate},
	{[]string{"analyst", "consultant", "specialist"}, nil, SeniorityAnalyst},
	{[]string{"intern", "trainee", "apprentice", "graduate"}, nil, SeniorityIntern},
}

// DetermineSeniorityLevel maps a free-text job title onto the ladder.
// Titles that hit no rule are SeniorityUnknown.
func DetermineSeniorityLevel(title string) SeniorityLevel {
	t := " " + strings.ToLower(strings.TrimSpace(title)) + " "
	if strings.TrimSpace(t) == "" {
		return SeniorityUnknown
	}
	for _, rule := range seniorityRules {
		if ruleExcluded(t, rule.excludes) {
			continue
		}
		for _, kw := range rule.keywords {
			if strings.Contains(kw, " ") {
				// Multi-word keywords (and "chief ") match as substrings.
				if strings.Contains(t, kw) {
					return rule.level
				}
			} else if containsWord(t, kw) {
				return rule.level
			}
		}
	}
	return SeniorityUnknown
}

// containsWord reports whether padded contains kw as a whole word.
// Acronyms like "vp" must not fire inside longer words.
func containsWord(padded, kw string) bool {
	idx := 0
	for {
		i := strings.Index(padded[idx:], kw)
		if i < 0 {
			return false
		}
		i += idx
		before := padded[i-1]
		afterIdx := i + len(kw)
		var after byte = ' '
		if afterIdx < len(padded) {
			after = padded[afterIdx]
		}
		if !isWordChar(before) && !isWordChar(after) {
			return true
		}
		idx = i + 1
	}
}

func ruleExcluded(padded string, excludes []string) bool {
	for _, ex := range excludes {
		if strings.Contains(padded, ex) {
			return true
		}
	}
	return false
}

func isWordChar(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= '0' && b <= '9')
}

// seniorityFloor encodes which candidate level is the lowest acceptable
// for a job at a given level. Executives one band down are allowed to
// step up (a C-Suite search accepts VPs; a VP search accepts Directors).
type seniorityFloor struct {
	jobMin SeniorityLevel // band lower bound, inclusive
	floor  SeniorityLevel
}

var seniorityFloors = []seniorityFloor{
	{SeniorityCSuite, SeniorityVP},
	{SeniorityVP, SeniorityDirector},      // VP, SVP, EVP jobs
	{SeniorityDirector, SeniorityManager}, // Director, Senior Director
	{SeniorityManager, SeniorityAssociate},
	{SeniorityIntern, SeniorityIntern},
}

// GetMinimumSeniorityForJob returns the lowest candidate level acceptable
// for the given job title. Unknown job levels accept everyone.
func GetMinimumSeniorityForJob(jobTitle string) SeniorityLevel {
	jobLevel := DetermineSeniorityLevel(jobTitle)
	for _, band := range seniorityFloors {
		if jobLevel >= band.jobMin {
			return band.floor
		}
	}
	return SeniorityUnknown
}

// IsSeniorityAcceptable reports whether a candidate's title clears the
// floor for the job.
func IsSeniorityAcceptable(candidateTitle, jobTitle string) bool {
	return DetermineSeniorityLevel(candidateTitle) >= GetMinimumSeniorityForJob(jobTitle)
}

// FilterCandidatesBySeniority applies the job's floor to a population and
// logs every accept/reject with the resolved levels, so an exclusion from
// an executive search is always explainable.
func FilterCandidatesBySeniority(candidates []models.CandidateRecord, jobTitle string, log *zap.SugaredLogger) []models.CandidateRecord {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	floor := GetMinimumSeniorityForJob(jobTitle)

	var out []models.CandidateRecord
	for _, c := range candidates {
		level := DetermineSeniorityLevel(c.CurrentTitle)
		if level >= floor {
			log.Infof("[Seniority] accept %s (%s → %s, floor %s)", c.FullName(), c.CurrentTitle, level, floor)
			out = append(out, c)
		} else {
			log.Infof("[Seniority] reject %s (%s → %s, floor %s)", c.FullName(), c.CurrentTitle, level, floor)
		}
	}
	return out
}
