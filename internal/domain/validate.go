package domain

import (
	"fmt"
	"math"
)

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// ValidatePrice rejects NaN, infinities and non-positive prices.
func ValidatePrice(name string, v float64) error {
	if !finite(v) {
		return fmt.Errorf("%s: %w", name, ErrNonFinite)
	}
	if v <= 0 {
		return fmt.Errorf("%s: %w", name, ErrNonPositive)
	}
	return nil
}

// ValidateLevels checks every level is a usable price and the set is strictly descending.
func ValidateLevels(p PivotLevels) error {
	levels := p.Levels()
	for _, l := range levels {
		if err := ValidatePrice(l.Label, l.Price); err != nil {
			return err
		}
	}
	for i := 1; i < len(levels); i++ {
		if levels[i-1].Price <= levels[i].Price {
			return fmt.Errorf("%s (%.2f) <= %s (%.2f): %w",
				levels[i-1].Label, levels[i-1].Price, levels[i].Label, levels[i].Price, ErrLevelOrder)
		}
	}
	return nil
}

// ValidateSnapshot checks the EMA values and price are finite.
// EMAs of option premiums may legitimately be zero, so only finiteness is enforced there.
func ValidateSnapshot(s IndicatorSnapshot) error {
	pairs := []struct {
		name string
		pair EMAPair
	}{
		{"spy", s.SPY},
		{"call", s.Call},
		{"put", s.Put},
	}
	for _, p := range pairs {
		if !finite(p.pair.EMA8) {
			return fmt.Errorf("%s.ema8: %w", p.name, ErrNonFinite)
		}
		if !finite(p.pair.EMA21) {
			return fmt.Errorf("%s.ema21: %w", p.name, ErrNonFinite)
		}
	}
	return ValidatePrice("price", s.Price)
}

// NewBrokenLevels resolves labels against the saved levels.
// Labels must be known and unique; prices come from the levels.
func NewBrokenLevels(levels PivotLevels, labels []string) ([]BrokenLevel, error) {
	seen := make(map[string]bool, len(labels))
	out := make([]BrokenLevel, 0, len(labels))
	for _, label := range labels {
		price, ok := levels.PriceOf(label)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownLevel, label)
		}
		if seen[label] {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateBroken, label)
		}
		seen[label] = true
		out = append(out, BrokenLevel{Label: label, Price: price})
	}
	return out, nil
}
