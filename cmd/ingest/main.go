// cmd/ingest/main.go
// Candidate list ingester.
// Usage:
//   go run cmd/ingest/main.go --csv  /path/to/candidates.csv
//   go run cmd/ingest/main.go --xlsx /path/to/candidates.xlsx --verify
//
// Expected columns (header names are matched case-insensitively, extra
// columns are ignored): first_name, last_name, company, title,
// linkedin_url, bio_url.
//
// With --verify each ingested candidate is run through the verification
// pipeline in batches of ten; a failing row never aborts its batch.

package main

import (
	"encoding/csv"
	"flag"
	"io"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/xuri/excelize/v2"

	"github.com/veritalent/veritalent-backend/models"
	"github.com/veritalent/veritalent-backend/pkg/logging"
	"github.com/veritalent/veritalent-backend/services"
)

const verifyBatchSize = 10

type row struct {
	firstName string
	lastName  string
	company   string
	title     string
	linkedIn  string
	bioURL    string
}

func main() {
	csvPath := flag.String("csv", "", "Path to a candidate CSV file")
	xlsxPath := flag.String("xlsx", "", "Path to a candidate XLSX file (first sheet)")
	dbPath := flag.String("db", "", "Path to SQLite database file")
	verify := flag.Bool("verify", false, "Run verification on ingested candidates")
	flag.Parse()

	_ = godotenv.Load()
	log := logging.New(os.Getenv("LOG_LEVEL"))
	defer log.Sync()

	if (*csvPath == "") == (*xlsxPath == "") {
		log.Fatal("[Ingest] exactly one of --csv or --xlsx is required")
	}

	store, err := services.OpenStore(*dbPath)
	if err != nil {
		log.Fatalf("[Ingest] database: %v", err)
	}

	var rows []row
	var source string
	if *csvPath != "" {
		source = "csv"
		rows, err = readCSV(*csvPath)
	} else {
		source = "xlsx"
		rows, err = readXLSX(*xlsxPath)
	}
	if err != nil {
		log.Fatalf("[Ingest] read input: %v", err)
	}
	log.Infof("[Ingest] read %d rows", len(rows))

	var records []*models.CandidateRecord
	skipped := 0
	for _, r := range rows {
		if r.firstName == "" && r.lastName == "" {
			skipped++
			continue
		}
		rec := &models.CandidateRecord{
			FirstName:      r.firstName,
			LastName:       r.lastName,
			CurrentCompany: r.company,
			CurrentTitle:   r.title,
			LinkedInURL:    r.linkedIn,
			BioURL:         r.bioURL,
			Status:         models.StatusPendingReview,
			Source:         source,
		}
		if err := store.CreateCandidate(rec); err != nil {
			log.Warnf("[Ingest] skipping %s %s: %v", r.firstName, r.lastName, err)
			skipped++
			continue
		}
		records = append(records, rec)
	}
	log.Infof("[Ingest] inserted %d candidates, skipped %d", len(records), skipped)

	if !*verify || len(records) == 0 {
		return
	}

	searcher := services.NewSerpClient(log)
	fetcher := services.NewPageFetcher(log)
	matcher := services.NewProfileMatcher(searcher, log)
	researcher := services.NewDomainResearcher(searcher, log)
	duplicates := services.NewDuplicateDetector(log)
	verifier := services.NewVerifier(matcher, researcher, fetcher, duplicates, log)

	existing, err := store.Candidates()
	if err != nil {
		log.Fatalf("[Ingest] load population: %v", err)
	}

	errs := services.ForEachBatch(len(records), verifyBatchSize, func(i int) error {
		rec := records[i]
		res := verifier.Verify(models.VerifyRequest{
			FirstName:      rec.FirstName,
			LastName:       rec.LastName,
			CurrentCompany: rec.CurrentCompany,
			CurrentTitle:   rec.CurrentTitle,
			BioURL:         rec.BioURL,
		}, existing)
		return store.SaveVerification(rec.ID, res)
	})

	failed := 0
	for _, e := range errs {
		if e != nil {
			failed++
		}
	}
	log.Infof("[Ingest] verification complete: %d ok, %d failed", len(records)-failed, failed)
}

func readCSV(path string) ([]row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	headers, err := reader.Read()
	if err != nil {
		return nil, err
	}
	idx := headerIndex(headers)

	var out []row
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue
		}
		out = append(out, rowFrom(rec, idx))
	}
	return out, nil
}

func readXLSX(path string) ([]row, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	cells, err := f.GetRows(sheet)
	if err != nil {
		return nil, err
	}
	if len(cells) == 0 {
		return nil, nil
	}

	idx := headerIndex(cells[0])
	var out []row
	for _, rec := range cells[1:] {
		out = append(out, rowFrom(rec, idx))
	}
	return out, nil
}

func headerIndex(headers []string) map[string]int {
	idx := map[string]int{}
	for i, h := range headers {
		idx[strings.TrimSpace(strings.ToLower(h))] = i
	}
	return idx
}

func rowFrom(rec []string, idx map[string]int) row {
	get := func(names ...string) string {
		for _, n := range names {
			if i, ok := idx[n]; ok && i < len(rec) {
				return strings.TrimSpace(rec[i])
			}
		}
		return ""
	}
	return row{
		firstName: get("first_name", "firstname", "first name"),
		lastName:  get("last_name", "lastname", "last name"),
		company:   get("company", "current_company", "current company"),
		title:     get("title", "current_title", "current title"),
		linkedIn:  get("linkedin_url", "linkedin"),
		bioURL:    get("bio_url", "bio", "website"),
	}
}
