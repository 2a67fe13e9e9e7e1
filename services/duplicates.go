package services

import (
	"go.uber.org/zap"

	"github.com/veritalent/veritalent-backend/models"
)

// fuzzyDuplicateThreshold is the Levenshtein-ratio similarity above
// which two non-identical full names are judged the same person.
const fuzzyDuplicateThreshold = 0.85

// DuplicateDetector compares a new candidate against an existing
// population with exact and fuzzy name matching.
type DuplicateDetector struct {
	log *zap.SugaredLogger
}

func NewDuplicateDetector(log *zap.SugaredLogger) *DuplicateDetector {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &DuplicateDetector{log: log}
}

// Check walks the population in order and stops at the first qualifying
// match (first-found semantics, not best-of-all):
//
//	exact name + same company  → duplicate, score 1.0
//	exact name, other company  → duplicate, score 0.7
//	similarity ratio > 0.85    → duplicate, score = ratio
func (d *DuplicateDetector) Check(fullName, company string, existing []models.CandidateRecord) models.DuplicateCheck {
	name := NormalizeName(fullName)
	if name == "" {
		return models.DuplicateCheck{}
	}
	companyNorm := NormalizeName(company)

	for _, rec := range existing {
		existingName := NormalizeName(rec.FullName())
		if existingName == "" {
			continue
		}

		if existingName == name {
			check := models.DuplicateCheck{
				IsDuplicate: true,
				MatchScore:  0.7,
				MatchedName: rec.FullName(),
				ExactName:   true,
			}
			if companyNorm != "" && NormalizeName(rec.CurrentCompany) == companyNorm {
				check.MatchScore = 1.0
				check.SameCompany = true
			}
			d.log.Infof("[Duplicates] exact match %q (company match: %v)", rec.FullName(), check.SameCompany)
			return check
		}

		if ratio := SimilarityRatio(name, existingName); ratio > fuzzyDuplicateThreshold {
			d.log.Infof("[Duplicates] fuzzy match %q ~ %q (%.2f)", fullName, rec.FullName(), ratio)
			return models.DuplicateCheck{
				IsDuplicate: true,
				MatchScore:  ratio,
				MatchedName: rec.FullName(),
			}
		}
	}

	return models.DuplicateCheck{}
}
