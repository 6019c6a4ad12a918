package usecase

import (
	"math"
	"strings"

	"pillar-backend/internal/domain"
)

const (
	// NearThresholdPct is the distance, as a fraction of price, that counts as "near" a level.
	NearThresholdPct = 0.003
	// fallbackDistance places a synthetic level when nothing lies on that side of price.
	fallbackDistance = 5.0
)

// FindNearestLevels splits the levels into resistances above price and
// supports below it and picks the closest of each. A level equal to price is
// neither. Ties go to the first level in R3..S3 order.
func FindNearestLevels(price float64, levels domain.PivotLevels) domain.NearestLevels {
	var resistance, support *domain.Level

	for _, l := range levels.Levels() {
		switch {
		case l.Price > price:
			if resistance == nil || math.Abs(l.Price-price) < math.Abs(resistance.Price-price) {
				resistance = &l
			}
		case l.Price < price:
			if support == nil || math.Abs(l.Price-price) < math.Abs(support.Price-price) {
				support = &l
			}
		}
	}

	out := domain.NearestLevels{
		Resistance: domain.Level{Label: domain.LabelNone, Price: price + fallbackDistance},
		Support:    domain.Level{Label: domain.LabelNone, Price: price - fallbackDistance},
	}
	if resistance != nil {
		out.Resistance = *resistance
	}
	if support != nil {
		out.Support = *support
	}
	return out
}

// ContextProvider resolves the pivot context for an evaluation.
type ContextProvider interface {
	Resolve(trend domain.Trend, price float64, cfg domain.PivotConfig, nearest domain.NearestLevels) domain.PivotContext
}

// ManualContext returns the context the user picked.
type ManualContext struct {
	Kind domain.ContextKind
}

func (m ManualContext) Resolve(_ domain.Trend, _ float64, _ domain.PivotConfig, _ domain.NearestLevels) domain.PivotContext {
	return domain.PivotContext{
		Kind:        m.Kind,
		Source:      domain.ContextSourceManual,
		Description: "Selected manually: " + m.Kind.Label(),
	}
}

// AutoContext derives the context from broken levels and the distance to the nearest levels.
type AutoContext struct{}

func (AutoContext) Resolve(trend domain.Trend, price float64, cfg domain.PivotConfig, nearest domain.NearestLevels) domain.PivotContext {
	// broken levels take priority over any distance check
	if len(cfg.Broken) > 0 {
		return domain.PivotContext{
			Kind:        domain.ContextBroken,
			Source:      domain.ContextSourceAuto,
			Description: "Broken levels: " + strings.Join(cfg.BrokenLabels(), ", "),
		}
	}

	threshold := price * NearThresholdPct
	distRes := nearest.Resistance.Price - price
	distSup := price - nearest.Support.Price
	nearRes := distRes < threshold
	nearSup := distSup < threshold

	var kind domain.ContextKind
	var desc string

	switch trend {
	case domain.Uptrend:
		if nearRes {
			kind, desc = domain.ContextBounceZone, "Price near resistance "+nearest.Resistance.Label+" in uptrend"
		} else if nearSup {
			kind, desc = domain.ContextFavorableEntry, "Price near support "+nearest.Support.Label+" in uptrend"
		} else {
			kind, desc = domain.ContextMidRange, "Price between "+nearest.Support.Label+" and "+nearest.Resistance.Label
		}
	case domain.Downtrend:
		if nearSup {
			kind, desc = domain.ContextBounceZone, "Price near support "+nearest.Support.Label+" in downtrend"
		} else if nearRes {
			kind, desc = domain.ContextFavorableEntry, "Price near resistance "+nearest.Resistance.Label+" in downtrend"
		} else {
			kind, desc = domain.ContextMidRange, "Price between "+nearest.Support.Label+" and "+nearest.Resistance.Label
		}
	default:
		if nearRes || nearSup {
			kind, desc = domain.ContextBounceZone, "Price near a pivot level with no trend"
		} else {
			kind, desc = domain.ContextMidRange, "Price between "+nearest.Support.Label+" and "+nearest.Resistance.Label
		}
	}

	return domain.PivotContext{Kind: kind, Source: domain.ContextSourceAuto, Description: desc}
}
