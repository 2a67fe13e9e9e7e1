package services

import (
	"fmt"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/veritalent/veritalent-backend/models"
)

// Point values for the verification budget. The full budget is 100;
// contributions are applied in a fixed order that shapes the audit
// trail, not the sum.
const (
	pointsLinkedInExists   = 15
	pointsLinkedInCompany  = 10
	pointsLinkedInTitle    = 5
	pointsBioURLValid      = 5
	pointsBioURLReachable  = 10
	pointsEmailInference   = 20
	pointsUniqueness       = 15
	pointsDupExactCompany  = -20
	pointsDupExactName     = -10
	pointsDupFuzzy         = -15
	pointsEmployedLinkedIn = 10
	pointsEmployedBio      = 5
	pointsTitleConsistency = 10
)

// Status classification bands over the clamped confidence score.
const (
	verifiedFloor  = 0.85
	rejectedCeil   = 0.3
	pointBudget    = 100.0
	employLinkedIn = "current@linkedin"
	employBio      = "current@bio"
)

// Verifier composes the researcher, matcher, fetcher and duplicate
// detector into one weighted point system. Single pass, no retries at
// this level; sub-checks own their own backoff. A failing sub-check is a
// zero-point contribution, never an abort.
type Verifier struct {
	matcher    *ProfileMatcher
	researcher *DomainResearcher
	fetcher    Fetcher
	duplicates *DuplicateDetector
	log        *zap.SugaredLogger
}

func NewVerifier(matcher *ProfileMatcher, researcher *DomainResearcher, fetcher Fetcher, duplicates *DuplicateDetector, log *zap.SugaredLogger) *Verifier {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Verifier{
		matcher:    matcher,
		researcher: researcher,
		fetcher:    fetcher,
		duplicates: duplicates,
		log:        log,
	}
}

// Verify runs every sub-check, sums the contributions and classifies the
// candidate. The returned result is complete and never mutated again; a
// re-run produces a new result.
func (v *Verifier) Verify(req models.VerifyRequest, existing []models.CandidateRecord) models.VerificationResult {
	var (
		points int
		notes  []string
		res    models.VerificationResult
	)

	fullName := strings.TrimSpace(req.FirstName + " " + req.LastName)
	v.log.Infof("[Verify] starting verification for %s @ %s", fullName, req.CurrentCompany)

	// 1. LinkedIn discovery
	profile := v.matcher.FindProfile(req.FirstName, req.LastName, req.CurrentCompany, req.CurrentTitle)
	if profile != nil {
		res.LinkedInExists = true
		res.LinkedInURL = profile.URL
		points += pointsLinkedInExists
		notes = append(notes, fmt.Sprintf("LinkedIn profile found (score %d)", profile.Score))

		if profile.CompanyMatch() {
			res.LinkedInCompanyMatch = true
			points += pointsLinkedInCompany
			notes = append(notes, "LinkedIn profile confirms company")
		}
		if profile.TitleMatch() {
			res.LinkedInTitleMatch = true
			points += pointsLinkedInTitle
			notes = append(notes, "LinkedIn profile confirms title")
		}
	} else {
		notes = append(notes, "No LinkedIn profile found")
	}

	// 2. Bio URL
	if strings.TrimSpace(req.BioURL) != "" {
		if isValidHTTPURL(req.BioURL) {
			res.BioURLValid = true
			points += pointsBioURLValid
			notes = append(notes, "Bio URL format valid")

			if v.fetcher.Reachable(req.BioURL) {
				res.BioURLAccessible = true
				points += pointsBioURLReachable
				notes = append(notes, "Bio URL reachable")
			} else {
				notes = append(notes, "Bio URL unreachable")
			}
		} else {
			notes = append(notes, "Bio URL format invalid")
		}
	}

	// 3. Email-pattern inference
	if strings.TrimSpace(req.CurrentCompany) != "" {
		if inf, found := v.researcher.Research(req.CurrentCompany); found {
			res.EmailPatternMatch = true
			res.InferredEmail = GenerateEmailAddress(req.FirstName, req.LastName, inf.Domain, inf.Pattern)
			points += pointsEmailInference
			notes = append(notes, fmt.Sprintf("Email pattern inferred: %s via %s", inf.Pattern, inf.Domain))
		} else {
			notes = append(notes, "Company domain unresolved, no email inference")
		}
	}

	// 4. Duplicate check. The uniqueness bonus applies even against an
	// empty population.
	dup := v.duplicates.Check(fullName, req.CurrentCompany, existing)
	switch {
	case dup.IsDuplicate && dup.ExactName && dup.SameCompany:
		res.IsDuplicate = true
		points += pointsDupExactCompany
		notes = append(notes, fmt.Sprintf("Duplicate of %s (same company)", dup.MatchedName))
	case dup.IsDuplicate && dup.ExactName:
		res.IsDuplicate = true
		points += pointsDupExactName
		notes = append(notes, fmt.Sprintf("Same name as %s at a different company", dup.MatchedName))
	case dup.IsDuplicate:
		res.IsDuplicate = true
		points += pointsDupFuzzy
		notes = append(notes, fmt.Sprintf("Fuzzy duplicate of %s (%.2f)", dup.MatchedName, dup.MatchScore))
	default:
		points += pointsUniqueness
		notes = append(notes, "No duplicate found, uniqueness bonus")
	}

	// 5. Employment-status inference
	switch {
	case res.LinkedInExists:
		res.EmploymentStatus = employLinkedIn
		points += pointsEmployedLinkedIn
		notes = append(notes, "Employment current per LinkedIn")
	case res.BioURLAccessible:
		res.EmploymentStatus = employBio
		points += pointsEmployedBio
		notes = append(notes, "Employment current per bio page")
	}

	// 6. Title consistency
	if res.LinkedInTitleMatch || strings.TrimSpace(req.CurrentTitle) != "" {
		res.TitleConsistency = true
		points += pointsTitleConsistency
		notes = append(notes, "Title consistent")
	}

	res.ConfidenceScore = clampScore(float64(points) / pointBudget)
	res.VerificationStatus = classifyStatus(res.ConfidenceScore, res.IsDuplicate)
	res.VerificationNotes = strings.Join(notes, " | ")

	v.log.Infof("[Verify] %s → %s (%.2f)", fullName, res.VerificationStatus, res.ConfidenceScore)
	return res
}

// classifyStatus maps the clamped score onto a status. Duplicate takes
// precedence even when the raw score would qualify as verified.
func classifyStatus(score float64, isDuplicate bool) string {
	switch {
	case isDuplicate:
		return models.StatusDuplicate
	case score >= verifiedFloor:
		return models.StatusVerified
	case score < rejectedCeil:
		return models.StatusRejected
	default:
		return models.StatusPendingReview
	}
}

func clampScore(s float64) float64 {
	if s < 0 {
		return 0
	}
	if s > 1 {
		return 1
	}
	return s
}

func isValidHTTPURL(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
