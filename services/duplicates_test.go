package services

import (
	"strings"
	"testing"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"

	"github.com/veritalent/veritalent-backend/models"
	"github.com/veritalent/veritalent-backend/pkg/logging"
)

func population() []models.CandidateRecord {
	return []models.CandidateRecord{
		{FirstName: "Jane", LastName: "Doe", CurrentCompany: "Acme Corp"},
		{FirstName: "John", LastName: "Smith", CurrentCompany: "Globex"},
		{FirstName: "Maria", LastName: "Garcia", CurrentCompany: "Initech"},
	}
}

func TestCheckExactNameSameCompany(t *testing.T) {
	d := NewDuplicateDetector(logging.Nop())

	check := d.Check("Jane Doe", "Acme Corp", population())

	assert.True(t, check.IsDuplicate)
	assert.True(t, check.ExactName)
	assert.True(t, check.SameCompany)
	assert.Equal(t, 1.0, check.MatchScore)
	assert.Equal(t, "Jane Doe", check.MatchedName)
}

func TestCheckExactNameDifferentCompany(t *testing.T) {
	d := NewDuplicateDetector(logging.Nop())

	check := d.Check("jane  DOE", "Some Other Firm", population())

	assert.True(t, check.IsDuplicate)
	assert.True(t, check.ExactName)
	assert.False(t, check.SameCompany)
	assert.Equal(t, 0.7, check.MatchScore)
}

func TestCheckFuzzyMatch(t *testing.T) {
	d := NewDuplicateDetector(logging.Nop())

	// One edit in a 10-rune name: ratio 0.9, over the 0.85 threshold.
	check := d.Check("Jon Smith", "Globex", population())

	assert.True(t, check.IsDuplicate)
	assert.False(t, check.ExactName)
	assert.InDelta(t, 0.9, check.MatchScore, 1e-9)
	assert.Equal(t, "John Smith", check.MatchedName)
}

func TestCheckNoMatch(t *testing.T) {
	d := NewDuplicateDetector(logging.Nop())

	check := d.Check("Wei Zhang", "Acme Corp", population())

	assert.False(t, check.IsDuplicate)
	assert.Zero(t, check.MatchScore)
	assert.Empty(t, check.MatchedName)
}

func TestCheckEmptyInputs(t *testing.T) {
	d := NewDuplicateDetector(logging.Nop())

	assert.False(t, d.Check("", "Acme Corp", population()).IsDuplicate)
	assert.False(t, d.Check("Jane Doe", "Acme Corp", nil).IsDuplicate)
	// Records without a name never match anything.
	assert.False(t, d.Check("Jane Doe", "", []models.CandidateRecord{{CurrentCompany: "Acme Corp"}}).IsDuplicate)
}

func TestCheckFirstFoundSemantics(t *testing.T) {
	d := NewDuplicateDetector(logging.Nop())

	existing := []models.CandidateRecord{
		{FirstName: "Jane", LastName: "Doe", CurrentCompany: "First Firm"},
		{FirstName: "Jane", LastName: "Doe", CurrentCompany: "Acme Corp"},
	}

	// The walk stops at the first qualifying record even though a later
	// one would score higher.
	check := d.Check("Jane Doe", "Acme Corp", existing)

	assert.Equal(t, 0.7, check.MatchScore)
	assert.False(t, check.SameCompany)
}

// Swapping the new candidate with the population member must not change
// the verdict: the underlying comparisons are symmetric.
func TestCheckSymmetry(t *testing.T) {
	d := NewDuplicateDetector(logging.Nop())

	recordFor := func(fullName string) models.CandidateRecord {
		parts := strings.SplitN(fullName, " ", 2)
		return models.CandidateRecord{FirstName: parts[0], LastName: parts[1]}
	}

	pairs := [][2]string{
		{"Jane Doe", "Jane Doe"},    // exact
		{"Jon Smith", "John Smith"}, // fuzzy, over the threshold
		{"Wei Zhang", "John Smith"}, // unrelated
	}

	for _, p := range pairs {
		ab := d.Check(p[0], "", []models.CandidateRecord{recordFor(p[1])})
		ba := d.Check(p[1], "", []models.CandidateRecord{recordFor(p[0])})

		assert.Equal(t, ab.IsDuplicate, ba.IsDuplicate, "%q vs %q", p[0], p[1])
		assert.Equal(t, ab.ExactName, ba.ExactName, "%q vs %q", p[0], p[1])
		assert.InDelta(t, ab.MatchScore, ba.MatchScore, 1e-9, "%q vs %q", p[0], p[1])
	}
}

func TestCheckAgainstGeneratedPopulation(t *testing.T) {
	gofakeit.Seed(11)
	d := NewDuplicateDetector(logging.Nop())

	var existing []models.CandidateRecord
	for i := 0; i < 200; i++ {
		existing = append(existing, models.CandidateRecord{
			FirstName:      gofakeit.FirstName(),
			LastName:       gofakeit.LastName(),
			CurrentCompany: gofakeit.Company(),
		})
	}

	// A name far from anything plausible never collides with the herd.
	check := d.Check("Xqzuvio Blorptaggen", "Vandelay Industries", existing)
	assert.False(t, check.IsDuplicate)

	// Re-submitting a member of the population is always caught.
	target := existing[57]
	check = d.Check(target.FullName(), target.CurrentCompany, existing)
	assert.True(t, check.IsDuplicate)
}
