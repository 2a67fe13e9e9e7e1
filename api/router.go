package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/veritalent/veritalent-backend/services"
)

// Handlers carries the engine components the API routes drive. The
// engine itself never imports gin; this package is a thin driver.
type Handlers struct {
	Store      *services.Store
	Verifier   *services.Verifier
	Researcher *services.DomainResearcher
	Extractor  *services.OfficeExtractor
	Fetcher    services.Fetcher
	Queue      *services.TaskQueue
	Log        *zap.SugaredLogger
}

func SetupRoutes(r *gin.Engine, h *Handlers) {
	apiGroup := r.Group("/api")
	{
		apiGroup.GET("/health", healthCheck)
		apiGroup.GET("/candidates", h.listCandidates)
		apiGroup.GET("/companies", h.listCompanies)
		apiGroup.POST("/verify", h.verifyCandidate)
		apiGroup.POST("/verify/batch", h.verifyBatch)
		apiGroup.GET("/tasks/:id", h.taskStatus)
		apiGroup.POST("/company-intel", h.companyIntel)
		apiGroup.POST("/extract-offices", h.extractOffices)
		apiGroup.GET("/model", getModelHandler)
		apiGroup.POST("/model", setModelHandler)
	}
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func getModelHandler(c *gin.Context) {
	provider, model := services.GetLLM()
	c.JSON(http.StatusOK, gin.H{"provider": provider, "model": model})
}

func setModelHandler(c *gin.Context) {
	var body struct {
		Provider string `json:"provider"`
		Model    string `json:"model"`
	}
	if err := c.BindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	services.SetLLM(body.Provider, body.Model)
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
