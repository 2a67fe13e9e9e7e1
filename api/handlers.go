package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/veritalent/veritalent-backend/models"
	"github.com/veritalent/veritalent-backend/services"
)

func (h *Handlers) listCandidates(c *gin.Context) {
	candidates, err := h.Store.Candidates()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"candidates": candidates, "count": len(candidates)})
}

func (h *Handlers) listCompanies(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))
	companies, err := h.Store.Companies(c.Query("search"), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"companies": companies, "count": len(companies)})
}

func (h *Handlers) verifyCandidate(c *gin.Context) {
	var req models.VerifyRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	if req.FirstName == "" && req.LastName == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "first_name or last_name required"})
		return
	}

	existing, err := h.Store.Candidates()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	result := h.Verifier.Verify(req, existing)

	if req.Persist {
		rec := models.CandidateRecord{
			FirstName:      req.FirstName,
			LastName:       req.LastName,
			CurrentCompany: req.CurrentCompany,
			CurrentTitle:   req.CurrentTitle,
			LinkedInURL:    result.LinkedInURL,
			BioURL:         req.BioURL,
			Email:          result.InferredEmail,
			Confidence:     result.ConfidenceScore,
			Status:         result.VerificationStatus,
			Source:         "api",
		}
		if err := h.Store.CreateCandidate(&rec); err != nil {
			h.Log.Warnf("[API] persist candidate failed: %v", err)
		} else if err := h.Store.SaveVerification(rec.ID, result); err != nil {
			h.Log.Warnf("[API] persist verification failed: %v", err)
		}
	}

	c.JSON(http.StatusOK, result)
}

// verifyBatch enqueues one task per candidate and returns the task ids.
// Items settle independently; poll /api/tasks/:id for outcomes.
func (h *Handlers) verifyBatch(c *gin.Context) {
	var req models.BatchVerifyRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	if len(req.Candidates) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "candidates required"})
		return
	}

	ids := make([]string, 0, len(req.Candidates))
	for _, cand := range req.Candidates {
		cand := cand
		label := fmt.Sprintf("verify %s %s", cand.FirstName, cand.LastName)
		id, err := h.Queue.Submit(label, func() (interface{}, error) {
			existing, err := h.Store.Candidates()
			if err != nil {
				return nil, err
			}
			return h.Verifier.Verify(cand, existing), nil
		})
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
			return
		}
		ids = append(ids, id)
	}

	c.JSON(http.StatusAccepted, gin.H{"task_ids": ids})
}

func (h *Handlers) taskStatus(c *gin.Context) {
	task, ok := h.Queue.Task(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown task"})
		return
	}
	c.JSON(http.StatusOK, task)
}

// companyIntel resolves a company's domain and email convention, and
// extracts offices from its page when one is reachable.
func (h *Handlers) companyIntel(c *gin.Context) {
	var req models.CompanyIntelRequest
	if err := c.BindJSON(&req); err != nil || req.CompanyName == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "company_name required"})
		return
	}

	resp := models.CompanyIntelResponse{SourceLog: []string{}}
	resp.SourceLog = append(resp.SourceLog, fmt.Sprintf("Researching %s", req.CompanyName))

	inf, found := h.Researcher.Research(req.CompanyName)
	if found {
		resp.ResolvedDomain = inf.Domain
		resp.EmailPattern = inf.Pattern
		resp.SourceLog = append(resp.SourceLog, fmt.Sprintf("Resolved domain %s, email pattern %s", inf.Domain, inf.Pattern))
	} else {
		resp.SourceLog = append(resp.SourceLog, "Domain unresolved; no email inference")
	}

	pageURL := req.PageURL
	if pageURL == "" && resp.ResolvedDomain != "" {
		pageURL = "https://" + resp.ResolvedDomain
	}
	if pageURL != "" {
		if html := h.Fetcher.Fetch(pageURL); html != "" {
			resp.Offices = h.Extractor.Extract(html, pageURL)
			resp.SourceLog = append(resp.SourceLog, fmt.Sprintf("Extracted %d offices from %s", len(resp.Offices), pageURL))
		} else {
			resp.SourceLog = append(resp.SourceLog, fmt.Sprintf("Could not fetch %s", pageURL))
		}
	}

	if req.Persist && resp.ResolvedDomain != "" {
		company := models.CompanyRecord{
			Name:         req.CompanyName,
			Domain:       resp.ResolvedDomain,
			EmailPattern: resp.EmailPattern,
			SourceURL:    pageURL,
		}
		if err := h.Store.UpsertCompany(&company); err != nil {
			h.Log.Warnf("[API] persist company failed: %v", err)
		} else {
			offices := make([]models.OfficeRecord, 0, len(resp.Offices))
			for _, o := range resp.Offices {
				offices = append(offices, models.OfficeRecord{City: o.City, Country: o.Country, Address: o.Address})
			}
			if err := h.Store.ReplaceOffices(company.ID, offices); err != nil {
				h.Log.Warnf("[API] persist offices failed: %v", err)
			}
		}
	}

	c.JSON(http.StatusOK, resp)
}

func (h *Handlers) extractOffices(c *gin.Context) {
	var req models.ExtractOfficesRequest
	if err := c.BindJSON(&req); err != nil || req.HTML == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "html required"})
		return
	}

	layers := h.Extractor.ExtractLayers(req.HTML, req.SourceURL)
	var all [][]models.OfficeLocation
	for _, l := range layers {
		all = append(all, l.Offices)
	}

	c.JSON(http.StatusOK, gin.H{
		"offices": services.MergeOfficeLocations(all...),
		"layers":  layers,
	})
}
