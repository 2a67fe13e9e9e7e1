package main

import (
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/veritalent/veritalent-backend/api"
	"github.com/veritalent/veritalent-backend/pkg/logging"
	"github.com/veritalent/veritalent-backend/services"
)

func main() {
	_ = godotenv.Load()

	log := logging.New(os.Getenv("LOG_LEVEL"))
	defer log.Sync()

	store, err := services.OpenStore(os.Getenv("DB_PATH"))
	if err != nil {
		log.Fatalf("[Server] database: %v", err)
	}

	searcher := services.NewSerpClient(log)
	fetcher := services.NewPageFetcher(log)
	router := services.NewLLMRouter(log)

	matcher := services.NewProfileMatcher(searcher, log)
	researcher := services.NewDomainResearcher(searcher, log)
	extractor := services.NewOfficeExtractor(router, log)
	duplicates := services.NewDuplicateDetector(log)
	verifier := services.NewVerifier(matcher, researcher, fetcher, duplicates, log)

	queue := services.NewTaskQueue(4, 128, log)
	defer queue.Close()

	r := gin.Default()
	r.Use(api.CORSMiddleware())

	api.SetupRoutes(r, &api.Handlers{
		Store:      store,
		Verifier:   verifier,
		Researcher: researcher,
		Extractor:  extractor,
		Fetcher:    fetcher,
		Queue:      queue,
		Log:        log,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8765"
	}

	log.Infof("[Server] starting VeriTalent backend on port %s", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatalf("[Server] %v", err)
	}
}
