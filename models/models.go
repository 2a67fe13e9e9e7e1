package models

import (
	"strings"

	"gorm.io/gorm"
)

// ========================
// DATABASE RECORDS
// ========================

// CandidateRecord is a person in the pipeline, persisted after ingestion.
type CandidateRecord struct {
	gorm.Model
	FirstName      string  `json:"first_name"`
	LastName       string  `json:"last_name"`
	CurrentCompany string  `json:"current_company"`
	CurrentTitle   string  `json:"current_title"`
	LinkedInURL    string  `json:"linkedin_url" gorm:"uniqueIndex"`
	BioURL         string  `json:"bio_url"`
	Email          string  `json:"email"`
	Confidence     float64 `json:"confidence"`
	Status         string  `json:"status"`
	Source         string  `json:"source"`
}

// FullName returns "First Last" with single spacing.
func (c CandidateRecord) FullName() string {
	if c.FirstName == "" {
		return c.LastName
	}
	if c.LastName == "" {
		return c.FirstName
	}
	return c.FirstName + " " + c.LastName
}

// CompanyRecord is a resolved company, persisted after domain research.
type CompanyRecord struct {
	gorm.Model
	Name         string `json:"name" gorm:"uniqueIndex"`
	Domain       string `json:"domain"`
	EmailPattern string `json:"email_pattern"`
	SourceURL    string `json:"source_url"`
}

// OfficeRecord persists one extracted office for a company.
type OfficeRecord struct {
	gorm.Model
	CompanyID uint   `json:"-" gorm:"index"`
	City      string `json:"city"`
	Country   string `json:"country"`
	Address   string `json:"address"`
	Layer     string `json:"layer"` // extraction layer that produced it
}

// VerificationRecord persists the outcome of one verification run.
// A re-run inserts a new row; rows are never updated.
type VerificationRecord struct {
	gorm.Model
	CandidateID     uint    `json:"candidate_id" gorm:"index"`
	ConfidenceScore float64 `json:"confidence_score"`
	Status          string  `json:"status"`
	Notes           string  `json:"notes"`
}

// ========================
// ENGINE VALUE TYPES
// ========================

// OfficeLocation is one office extracted from a page. Identity is the
// lower-cased (city, country) pair; entries with neither field survive
// no merge step.
type OfficeLocation struct {
	City    string `json:"city"`
	Country string `json:"country,omitempty"`
	Address string `json:"address,omitempty"`
}

// Key returns the dedup identity for the location.
func (o OfficeLocation) Key() string {
	city := strings.ToLower(strings.TrimSpace(o.City))
	country := strings.ToLower(strings.TrimSpace(o.Country))
	return city + "|" + country
}

// Empty reports whether the location carries neither city nor country.
func (o OfficeLocation) Empty() bool {
	return strings.TrimSpace(o.City) == "" && strings.TrimSpace(o.Country) == ""
}

// EmailInference pairs a resolved domain with the organisation's
// email local-part convention.
type EmailInference struct {
	Domain  string `json:"domain"`
	Pattern string `json:"pattern"`
}

// DuplicateCheck is the outcome of comparing a new candidate against the
// existing population.
type DuplicateCheck struct {
	IsDuplicate bool    `json:"is_duplicate"`
	MatchScore  float64 `json:"match_score,omitempty"`
	MatchedName string  `json:"matched_name,omitempty"`
	ExactName   bool    `json:"exact_name,omitempty"`
	SameCompany bool    `json:"same_company,omitempty"`
}

// Verification statuses. Duplicate always wins over the score bands.
const (
	StatusVerified      = "verified"
	StatusDuplicate     = "duplicate"
	StatusRejected      = "rejected"
	StatusPendingReview = "pending_review"
)

// VerificationResult is the terminal artifact of the pipeline. It is built
// once per verification request and never mutated afterwards.
type VerificationResult struct {
	LinkedInExists       bool    `json:"linkedin_exists"`
	LinkedInURL          string  `json:"linkedin_url,omitempty"`
	LinkedInCompanyMatch bool    `json:"linkedin_company_match"`
	LinkedInTitleMatch   bool    `json:"linkedin_title_match"`
	BioURLValid          bool    `json:"bio_url_valid"`
	BioURLAccessible     bool    `json:"bio_url_accessible"`
	EmailPatternMatch    bool    `json:"email_pattern_match"`
	InferredEmail        string  `json:"inferred_email,omitempty"`
	IsDuplicate          bool    `json:"is_duplicate"`
	EmploymentStatus     string  `json:"employment_status,omitempty"` // "current@linkedin" | "current@bio"
	TitleConsistency     bool    `json:"title_consistency"`
	ConfidenceScore      float64 `json:"confidence_score"`
	VerificationNotes    string  `json:"verification_notes"`
	VerificationStatus   string  `json:"verification_status"`
}

// ========================
// API REQUEST PAYLOADS
// ========================

type VerifyRequest struct {
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	CurrentCompany string `json:"current_company"`
	CurrentTitle   string `json:"current_title"`
	BioURL         string `json:"bio_url"`
	Persist        bool   `json:"persist"`
}

type BatchVerifyRequest struct {
	Candidates []VerifyRequest `json:"candidates"`
}

type CompanyIntelRequest struct {
	CompanyName string `json:"company_name"`
	PageURL     string `json:"page_url,omitempty"`
	Persist     bool   `json:"persist"`
}

type CompanyIntelResponse struct {
	ResolvedDomain string           `json:"resolved_domain"`
	EmailPattern   string           `json:"email_pattern"`
	Offices        []OfficeLocation `json:"offices"`
	SourceLog      []string         `json:"source_log"`
}

type ExtractOfficesRequest struct {
	HTML      string `json:"html"`
	SourceURL string `json:"source_url"`
}
