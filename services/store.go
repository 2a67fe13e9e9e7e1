package services

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/veritalent/veritalent-backend/models"
)

// Store is the record store consumed by the duplicate detector's
// population source and the orchestrator's persistence step.
type Store struct {
	db *gorm.DB
}

// OpenStore opens (or creates) the SQLite database and migrates the
// record schema. An empty path falls back to data/veritalent.db.
func OpenStore(dbPath string) (*Store, error) {
	if dbPath == "" {
		if err := os.MkdirAll("data", os.ModePerm); err != nil {
			return nil, err
		}
		dbPath = filepath.Join("data", "veritalent.db")
	}

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.AutoMigrate(
		&models.CandidateRecord{},
		&models.CompanyRecord{},
		&models.OfficeRecord{},
		&models.VerificationRecord{},
	); err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	return &Store{db: db}, nil
}

// CreateCandidate inserts a candidate record.
func (s *Store) CreateCandidate(c *models.CandidateRecord) error {
	return s.db.Create(c).Error
}

// Candidates returns the whole population, oldest first. The duplicate
// detector depends on a stable order for its first-found semantics.
func (s *Store) Candidates() ([]models.CandidateRecord, error) {
	var out []models.CandidateRecord
	err := s.db.Order("id ASC").Find(&out).Error
	return out, err
}

// UpsertCompany creates or updates a company by name.
func (s *Store) UpsertCompany(c *models.CompanyRecord) error {
	return s.db.Where(models.CompanyRecord{Name: c.Name}).
		Assign(*c).
		FirstOrCreate(c).Error
}

// Companies returns up to limit companies matching search. limit <= 0
// returns all.
func (s *Store) Companies(search string, limit int) ([]models.CompanyRecord, error) {
	q := s.db.Model(&models.CompanyRecord{})
	if search != "" {
		q = q.Where("name LIKE ?", "%"+search+"%")
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	var out []models.CompanyRecord
	err := q.Order("name ASC").Find(&out).Error
	return out, err
}

// ReplaceOffices swaps the stored office set for a company.
func (s *Store) ReplaceOffices(companyID uint, offices []models.OfficeRecord) error {
	if err := s.db.Where("company_id = ?", companyID).Delete(&models.OfficeRecord{}).Error; err != nil {
		return err
	}
	for i := range offices {
		offices[i].CompanyID = companyID
	}
	if len(offices) == 0 {
		return nil
	}
	return s.db.Create(&offices).Error
}

// SaveVerification appends one verification outcome for a candidate.
// Rows are insert-only; a re-run writes a new row.
func (s *Store) SaveVerification(candidateID uint, res models.VerificationResult) error {
	rec := models.VerificationRecord{
		CandidateID:     candidateID,
		ConfidenceScore: res.ConfidenceScore,
		Status:          res.VerificationStatus,
		Notes:           res.VerificationNotes,
	}
	return s.db.Create(&rec).Error
}
