// Package matching scores how likely a ledger transaction and a bank
// statement line describe the same cash movement. All amounts are minor
// units; scores are always clamped to [0, 1].
package matching

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Tolerances bound which pairs are worth scoring at all.
type Tolerances struct {
	DateDays    int
	AmountMinor int64
}

// Pair is one scoring input: the ledger side is expressed as the signed
// net amount (credit - debit) so it is directly comparable to the
// credit-positive bank amount.
type Pair struct {
	LedgerDate        time.Time
	LedgerAmountMinor int64
	LedgerID          string
	LedgerDescription string

	BankDate        time.Time
	BankAmountMinor int64
	BankReference   string
	BankDescription string
}

// DateDiffDays returns the absolute whole-day distance between two
// calendar dates, ignoring time-of-day.
func DateDiffDays(a, b time.Time) int {
	ad := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	bd := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	diff := int(ad.Sub(bd).Hours() / 24)
	if diff < 0 {
		return -diff
	}
	return diff
}

func AmountDiff(ledgerMinor, bankMinor int64) int64 {
	diff := ledgerMinor - bankMinor
	if diff < 0 {
		return -diff
	}
	return diff
}

// WithinTolerances reports whether a pair is eligible for scoring.
func (t Tolerances) WithinTolerances(p Pair) bool {
	return AmountDiff(p.LedgerAmountMinor, p.BankAmountMinor) <= t.AmountMinor &&
		DateDiffDays(p.LedgerDate, p.BankDate) <= t.DateDays
}

func dateConfidence(diffDays, toleranceDays int) float64 {
	if toleranceDays <= 0 {
		if diffDays == 0 {
			return 1
		}
		return 0
	}
	return clamp(1 - float64(diffDays)/float64(toleranceDays))
}

// amountConfidence is 1 - |la-ba| / max(|la|, |ba|, 0.01). The floor of
// one paisa keeps a pair of zero amounts from dividing by zero.
func amountConfidence(ledgerMinor, bankMinor int64) float64 {
	diff := decimal.NewFromInt(AmountDiff(ledgerMinor, bankMinor))
	denom := decimal.NewFromInt(maxInt64(absInt64(ledgerMinor), absInt64(bankMinor), 1))
	ratio, _ := diff.Div(denom).Float64()
	return clamp(1 - ratio)
}

// Score is the bulk formula used when sweeping a whole window:
// 60% date proximity, 40% amount proximity.
func (t Tolerances) Score(p Pair) float64 {
	date := dateConfidence(DateDiffDays(p.LedgerDate, p.BankDate), t.DateDays)
	amount := amountConfidence(p.LedgerAmountMinor, p.BankAmountMinor)
	return clamp(0.6*date + 0.4*amount)
}

// ExtendedScore additionally weighs description similarity and a
// reference-number bonus. Used for single-pair suggestion and
// auto-matching, where the extra signal is worth the extra work.
func (t Tolerances) ExtendedScore(p Pair) float64 {
	date := dateConfidence(DateDiffDays(p.LedgerDate, p.BankDate), t.DateDays)
	amount := amountConfidence(p.LedgerAmountMinor, p.BankAmountMinor)
	similarity := SimilarityRatio(p.LedgerDescription, p.BankDescription)
	score := 0.4*date + 0.4*amount + 0.2*similarity
	if referenceMatches(p) {
		score += 0.2
	}
	return clamp(score)
}

func referenceMatches(p Pair) bool {
	ref := strings.TrimSpace(p.BankReference)
	if ref == "" {
		return false
	}
	if strings.EqualFold(ref, p.LedgerID) {
		return true
	}
	return strings.Contains(strings.ToLower(p.LedgerDescription), strings.ToLower(ref))
}

// SimilarityRatio is a longest-common-subsequence ratio over lower-cased
// text: 2*LCS / (len(a)+len(b)), 1.0 when both strings are empty.
func SimilarityRatio(a, b string) float64 {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	if len(a) == 0 && len(b) == 0 {
		return 1
	}
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	ra := []rune(a)
	rb := []rune(b)
	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for i := 1; i <= len(ra); i++ {
		for j := 1; j <= len(rb); j++ {
			if ra[i-1] == rb[j-1] {
				curr[j] = prev[j-1] + 1
			} else if prev[j] >= curr[j-1] {
				curr[j] = prev[j]
			} else {
				curr[j] = curr[j-1]
			}
		}
		prev, curr = curr, prev
	}
	lcs := prev[len(rb)]
	return float64(2*lcs) / float64(len(ra)+len(rb))
}

func clamp(value float64) float64 {
	if value < 0 {
		return 0
	}
	if value > 1 {
		return 1
	}
	return value
}

func absInt64(value int64) int64 {
	if value < 0 {
		return -value
	}
	return value
}

func maxInt64(values ...int64) int64 {
	max := values[0]
	for _, value := range values[1:] {
		if value > max {
			max = value
		}
	}
	return max
}
