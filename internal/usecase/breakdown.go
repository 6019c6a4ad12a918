package usecase

import (
	"strings"

	"github.com/shopspring/decimal"

	"pillar-backend/internal/domain"
)

var hundred = decimal.NewFromInt(100)

// Breakdown lists the positive contributions with their share of the positive
// total, rounded to one decimal place. Zero and negative scores are left out.
func Breakdown(details []domain.ScoreDetail) []domain.Contribution {
	total := decimal.Zero
	for _, d := range details {
		if d.Score > 0 {
			total = total.Add(decimal.NewFromFloat(d.Score))
		}
	}

	out := make([]domain.Contribution, 0, len(details))
	if total.IsZero() {
		return out
	}

	for _, d := range details {
		if d.Score <= 0 {
			continue
		}
		share := decimal.NewFromFloat(d.Score).Div(total).Mul(hundred).Round(1)
		out = append(out, domain.Contribution{
			Category: shortCategory(d.Category),
			Score:    d.Score,
			Share:    share.InexactFloat64(),
		})
	}
	return out
}

// shortCategory drops the "N. " ordering prefix.
func shortCategory(category string) string {
	if _, after, ok := strings.Cut(category, "."); ok {
		return strings.TrimSpace(after)
	}
	return category
}
