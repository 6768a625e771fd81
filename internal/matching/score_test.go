package matching

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func day(value string) time.Time {
	parsed, err := time.Parse("2006-01-02", value)
	if err != nil {
		panic(err)
	}
	return parsed
}

func TestDateDiffDays(t *testing.T) {
	assert.Equal(t, 0, DateDiffDays(day("2023-01-15"), day("2023-01-15")))
	assert.Equal(t, 3, DateDiffDays(day("2023-01-15"), day("2023-01-18")))
	assert.Equal(t, 3, DateDiffDays(day("2023-01-18"), day("2023-01-15")))
	// Time-of-day must not matter.
	late := time.Date(2023, 1, 15, 23, 30, 0, 0, time.UTC)
	assert.Equal(t, 1, DateDiffDays(late, day("2023-01-16")))
}

func TestScorePerfectMatch(t *testing.T) {
	tol := Tolerances{DateDays: 3, AmountMinor: 1}
	pair := Pair{
		LedgerDate:        day("2023-01-15"),
		LedgerAmountMinor: 50000,
		BankDate:          day("2023-01-15"),
		BankAmountMinor:   50000,
	}
	assert.InDelta(t, 1.0, tol.Score(pair), 1e-9)
}

func TestScoreDecaysWithDateDistance(t *testing.T) {
	tol := Tolerances{DateDays: 3, AmountMinor: 1}
	pair := Pair{
		LedgerDate:        day("2023-01-15"),
		LedgerAmountMinor: 50000,
		BankDate:          day("2023-01-18"),
		BankAmountMinor:   50000,
	}
	// date confidence 0, amount confidence 1 -> 0.4.
	assert.InDelta(t, 0.4, tol.Score(pair), 1e-9)
}

func TestScoreAmountConfidenceFloor(t *testing.T) {
	tol := Tolerances{DateDays: 3, AmountMinor: 1}
	pair := Pair{
		LedgerDate:        day("2023-01-15"),
		LedgerAmountMinor: 0,
		BankDate:          day("2023-01-15"),
		BankAmountMinor:   0,
	}
	// Zero amounts on both sides must not divide by zero.
	assert.InDelta(t, 1.0, tol.Score(pair), 1e-9)
}

func TestWithinTolerances(t *testing.T) {
	tol := Tolerances{DateDays: 3, AmountMinor: 1}
	base := Pair{
		LedgerDate:        day("2023-01-15"),
		LedgerAmountMinor: 50000,
		BankDate:          day("2023-01-17"),
		BankAmountMinor:   50001,
	}
	assert.True(t, tol.WithinTolerances(base))

	farDate := base
	farDate.BankDate = day("2023-01-19")
	assert.False(t, tol.WithinTolerances(farDate))

	farAmount := base
	farAmount.BankAmountMinor = 50002
	assert.False(t, tol.WithinTolerances(farAmount))
}

func TestExtendedScoreReferenceBonus(t *testing.T) {
	tol := Tolerances{DateDays: 3, AmountMinor: 1}
	pair := Pair{
		LedgerDate:        day("2023-01-15"),
		LedgerAmountMinor: 50000,
		LedgerID:          "TXN-001",
		LedgerDescription: "maintenance a101",
		BankDate:          day("2023-01-15"),
		BankAmountMinor:   50000,
		BankDescription:   "maintenance a101",
	}
	withoutRef := tol.ExtendedScore(pair)
	assert.InDelta(t, 1.0, withoutRef, 1e-9)

	pair.BankReference = "TXN-001"
	withRef := tol.ExtendedScore(pair)
	// Already at the ceiling; the bonus must stay clamped.
	assert.InDelta(t, 1.0, withRef, 1e-9)

	pair.BankDate = day("2023-01-18")
	clamped := tol.ExtendedScore(pair)
	noBonus := pair
	noBonus.BankReference = "UNRELATED"
	assert.Greater(t, clamped, tol.ExtendedScore(noBonus))
}

func TestReferenceSubstringOfDescription(t *testing.T) {
	pair := Pair{
		LedgerID:          "TXN-042",
		LedgerDescription: "Maintenance A101 ref CHQ991",
		BankReference:     "chq991",
	}
	assert.True(t, referenceMatches(pair))
}

func TestSimilarityRatio(t *testing.T) {
	assert.InDelta(t, 1.0, SimilarityRatio("Maintenance A101", "maintenance a101"), 1e-9)
	assert.InDelta(t, 1.0, SimilarityRatio("", ""), 1e-9)
	assert.InDelta(t, 0.0, SimilarityRatio("abc", ""), 1e-9)
	ratio := SimilarityRatio("water charges", "water chgs")
	assert.Greater(t, ratio, 0.8)
	assert.Less(t, ratio, 1.0)
	assert.InDelta(t, 0.0, SimilarityRatio("abc", "xyz"), 1e-9)
}
