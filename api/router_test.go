package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veritalent/veritalent-backend/models"
	"github.com/veritalent/veritalent-backend/pkg/logging"
	"github.com/veritalent/veritalent-backend/services"
)

type stubSearcher struct {
	company string
	domain  string
}

func (s *stubSearcher) Search(query string, _ int) ([]services.SerpResult, error) {
	switch {
	case strings.Contains(query, "site:linkedin.com/in"):
		return []services.SerpResult{{
			Link:  "https://linkedin.com/in/jane-doe",
			Title: "Jane Doe - " + s.company + " | Managing Director",
		}}, nil
	case strings.Contains(query, "email format"):
		return []services.SerpResult{{Snippet: "emails: first.last@" + s.domain}}, nil
	default:
		return []services.SerpResult{{Link: "https://" + s.domain}}, nil
	}
}

type stubFetcher struct {
	body      string
	reachable bool
}

func (f *stubFetcher) Fetch(url string) string   { return f.body }
func (f *stubFetcher) Reachable(url string) bool { return f.reachable }

func newTestRouter(t *testing.T, searcher services.Searcher, fetcher services.Fetcher) (*gin.Engine, *Handlers) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log := logging.Nop()
	store, err := services.OpenStore(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)

	queue := services.NewTaskQueue(2, 16, log)
	t.Cleanup(queue.Close)

	h := &Handlers{
		Store:      store,
		Verifier:   services.NewVerifier(services.NewProfileMatcher(searcher, log), services.NewDomainResearcher(searcher, log), fetcher, services.NewDuplicateDetector(log), log),
		Researcher: services.NewDomainResearcher(searcher, log),
		Extractor:  services.NewOfficeExtractor(nil, log),
		Fetcher:    fetcher,
		Queue:      queue,
		Log:        log,
	}

	r := gin.New()
	r.Use(CORSMiddleware())
	SetupRoutes(r, h)
	return r, h
}

func doJSON(r *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHealthRoute(t *testing.T) {
	r, _ := newTestRouter(t, &stubSearcher{}, &stubFetcher{})

	w := doJSON(r, http.MethodGet, "/api/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"ok"`)
}

func TestVerifyRoutePersists(t *testing.T) {
	r, _ := newTestRouter(t,
		&stubSearcher{company: "Routeco Alpha", domain: "routecoalpha.com"},
		&stubFetcher{reachable: true},
	)

	w := doJSON(r, http.MethodPost, "/api/verify", models.VerifyRequest{
		FirstName:      "Jane",
		LastName:       "Doe",
		CurrentCompany: "Routeco Alpha",
		CurrentTitle:   "Managing Director",
		BioURL:         "https://janedoe.example.com",
		Persist:        true,
	})
	require.Equal(t, http.StatusOK, w.Code)

	var res models.VerificationResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, models.StatusVerified, res.VerificationStatus)
	assert.Equal(t, "jane.doe@routecoalpha.com", res.InferredEmail)

	list := doJSON(r, http.MethodGet, "/api/candidates", nil)
	require.Equal(t, http.StatusOK, list.Code)
	assert.Contains(t, list.Body.String(), `"count":1`)
	assert.Contains(t, list.Body.String(), "Jane")
}

func TestVerifyRouteRejectsEmptyName(t *testing.T) {
	r, _ := newTestRouter(t, &stubSearcher{}, &stubFetcher{})

	w := doJSON(r, http.MethodPost, "/api/verify", models.VerifyRequest{CurrentCompany: "Acme"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestVerifyBatchRoute(t *testing.T) {
	r, h := newTestRouter(t,
		&stubSearcher{company: "Routeco Beta", domain: "routecobeta.com"},
		&stubFetcher{reachable: true},
	)

	w := doJSON(r, http.MethodPost, "/api/verify/batch", models.BatchVerifyRequest{
		Candidates: []models.VerifyRequest{
			{FirstName: "Jane", LastName: "Doe", CurrentCompany: "Routeco Beta"},
			{FirstName: "John", LastName: "Smith", CurrentCompany: "Routeco Beta"},
		},
	})
	require.Equal(t, http.StatusAccepted, w.Code)

	var resp struct {
		TaskIDs []string `json:"task_ids"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.TaskIDs, 2)

	require.Eventually(t, func() bool {
		for _, id := range resp.TaskIDs {
			task, ok := h.Queue.Task(id)
			if !ok || task.State != services.TaskDone {
				return false
			}
		}
		return true
	}, 2*time.Second, 10*time.Millisecond)

	status := doJSON(r, http.MethodGet, "/api/tasks/"+resp.TaskIDs[0], nil)
	assert.Equal(t, http.StatusOK, status.Code)
	assert.Contains(t, status.Body.String(), `"done"`)
}

func TestTaskRouteUnknownID(t *testing.T) {
	r, _ := newTestRouter(t, &stubSearcher{}, &stubFetcher{})

	w := doJSON(r, http.MethodGet, "/api/tasks/nope", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestExtractOfficesRoute(t *testing.T) {
	r, _ := newTestRouter(t, &stubSearcher{}, &stubFetcher{})

	html := `<div itemprop="address">
	  <span itemprop="addressLocality">London</span>
	  <span itemprop="addressCountry">United Kingdom</span>
	</div>`

	w := doJSON(r, http.MethodPost, "/api/extract-offices", models.ExtractOfficesRequest{HTML: html})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "London")
	assert.Contains(t, w.Body.String(), services.LayerMicrodata)

	empty := doJSON(r, http.MethodPost, "/api/extract-offices", models.ExtractOfficesRequest{})
	assert.Equal(t, http.StatusBadRequest, empty.Code)
}

func TestCompanyIntelRoutePersists(t *testing.T) {
	page := `<html><head><script type="application/ld+json">
	{"@type":"Organization","address":{"addressLocality":"Boston","addressCountry":"USA"}}
	</script></head></html>`

	r, _ := newTestRouter(t,
		&stubSearcher{company: "Routeco Gamma", domain: "routecogamma.com"},
		&stubFetcher{body: page, reachable: true},
	)

	w := doJSON(r, http.MethodPost, "/api/company-intel", models.CompanyIntelRequest{
		CompanyName: "Routeco Gamma",
		Persist:     true,
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp models.CompanyIntelResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "routecogamma.com", resp.ResolvedDomain)
	assert.NotEmpty(t, resp.SourceLog)
	require.Len(t, resp.Offices, 1)
	assert.Equal(t, "Boston", resp.Offices[0].City)

	list := doJSON(r, http.MethodGet, "/api/companies?search=Routeco", nil)
	require.Equal(t, http.StatusOK, list.Code)
	assert.Contains(t, list.Body.String(), "routecogamma.com")
}

func TestModelRoutes(t *testing.T) {
	r, _ := newTestRouter(t, &stubSearcher{}, &stubFetcher{})

	w := doJSON(r, http.MethodPost, "/api/model", map[string]string{"provider": "anthropic", "model": "claude-3-haiku"})
	require.Equal(t, http.StatusOK, w.Code)

	get := doJSON(r, http.MethodGet, "/api/model", nil)
	require.Equal(t, http.StatusOK, get.Code)
	assert.Contains(t, get.Body.String(), "anthropic")
	assert.Contains(t, get.Body.String(), "claude-3-haiku")
}
