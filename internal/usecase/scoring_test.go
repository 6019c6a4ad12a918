package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"pillar-backend/internal/domain"
)

func pair(ema8, ema21 float64) domain.EMAPair {
	return domain.EMAPair{EMA8: ema8, EMA21: ema21}
}

func TestDetermineTrend(t *testing.T) {
	tests := map[string]struct {
		spy   domain.EMAPair
		trend domain.Trend
		score float64
	}{
		"up":            {spy: pair(531, 530), trend: domain.Uptrend, score: 25},
		"barely-up":     {spy: pair(530.0000001, 530), trend: domain.Uptrend, score: 25},
		"down":          {spy: pair(530.87, 531.40), trend: domain.Downtrend, score: 25},
		"equal-neutral": {spy: pair(530, 530), trend: domain.Neutral, score: 0},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			trend, score, msg := DetermineTrend(tt.spy)
			assert.Equal(t, tt.trend, trend)
			assert.Equal(t, tt.score, score)
			assert.NotEmpty(t, msg)
		})
	}
}

func TestScoreOptionConfirmation(t *testing.T) {
	up, down := pair(2, 1), pair(1, 2)

	tests := map[string]struct {
		trend domain.Trend
		call  domain.EMAPair
		put   domain.EMAPair
		score float64
	}{
		"uptrend-both":           {trend: domain.Uptrend, call: up, put: down, score: 25},
		"uptrend-call-only":      {trend: domain.Uptrend, call: up, put: up, score: 15},
		"uptrend-put-only":       {trend: domain.Uptrend, call: down, put: down, score: 0},
		"uptrend-neither":        {trend: domain.Uptrend, call: down, put: up, score: 0},
		"downtrend-both":         {trend: domain.Downtrend, call: down, put: up, score: 25},
		"downtrend-put-only":     {trend: domain.Downtrend, call: up, put: up, score: 15},
		"downtrend-call-only":    {trend: domain.Downtrend, call: down, put: down, score: 0},
		"downtrend-neither":      {trend: domain.Downtrend, call: up, put: down, score: 0},
		"uptrend-flat-legs":      {trend: domain.Uptrend, call: pair(1, 1), put: pair(1, 1), score: 0},
		"neutral-not-applicable": {trend: domain.Neutral, call: up, put: down, score: 0},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			score, msg := ScoreOptionConfirmation(tt.trend, tt.call, tt.put)
			assert.Equal(t, tt.score, score)
			assert.NotEmpty(t, msg)
		})
	}
}

func TestScoreOpposingOption(t *testing.T) {
	tests := map[string]struct {
		trend domain.Trend
		call  domain.EMAPair
		put   domain.EMAPair
		score float64
	}{
		"uptrend-put-weak":       {trend: domain.Uptrend, put: pair(1, 2), score: 15},
		"uptrend-put-flat":       {trend: domain.Uptrend, put: pair(1.5, 1.5), score: 7.5},
		"uptrend-put-strong":     {trend: domain.Uptrend, put: pair(2, 1), score: 0},
		"downtrend-call-weak":    {trend: domain.Downtrend, call: pair(6.27, 6.97), score: 15},
		"downtrend-call-flat":    {trend: domain.Downtrend, call: pair(6, 6), score: 7.5},
		"downtrend-call-strong":  {trend: domain.Downtrend, call: pair(7, 6), score: 0},
		"neutral-not-applicable": {trend: domain.Neutral, call: pair(1, 2), put: pair(1, 2), score: 0},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			score, _ := ScoreOpposingOption(tt.trend, tt.call, tt.put)
			assert.Equal(t, tt.score, score)
		})
	}
}

func TestScoreEMAGap_Boundaries(t *testing.T) {
	tests := map[string]struct {
		spy   domain.EMAPair
		score float64
	}{
		"gap-0.49":      {spy: pair(530.49, 530), score: -5},
		"gap-0.50":      {spy: pair(530.5, 530), score: 10},
		"gap-0.75":      {spy: pair(530, 530.75), score: 10},
		"gap-1.00":      {spy: pair(531, 530), score: 10},
		"gap-1.01":      {spy: pair(531.01, 530), score: -10},
		"gap-zero":      {spy: pair(530, 530), score: -5},
		"gap-negative":  {spy: pair(529, 530), score: 10},
		"gap-very-wide": {spy: pair(520, 530), score: -10},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			score, _ := ScoreEMAGap(tt.spy)
			assert.Equal(t, tt.score, score)
		})
	}
}

func TestScoreOptionAlignment(t *testing.T) {
	up, down, flat := pair(2, 1), pair(1, 2), pair(1, 1)

	tests := map[string]struct {
		trend domain.Trend
		call  domain.EMAPair
		put   domain.EMAPair
		score float64
	}{
		"uptrend-both":      {trend: domain.Uptrend, call: up, put: down, score: 10},
		"uptrend-call":      {trend: domain.Uptrend, call: up, put: flat, score: 5},
		"uptrend-put":       {trend: domain.Uptrend, call: flat, put: down, score: 5},
		"uptrend-neither":   {trend: domain.Uptrend, call: down, put: up, score: 0},
		"downtrend-both":    {trend: domain.Downtrend, call: down, put: up, score: 10},
		"downtrend-put":     {trend: domain.Downtrend, call: up, put: up, score: 5},
		"downtrend-neither": {trend: domain.Downtrend, call: flat, put: flat, score: 0},
		"neutral":           {trend: domain.Neutral, call: up, put: down, score: 0},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			score, _ := ScoreOptionAlignment(tt.trend, tt.call, tt.put)
			assert.Equal(t, tt.score, score)
		})
	}
}

func TestScorePivotZone(t *testing.T) {
	expected := map[domain.ContextKind]float64{
		domain.ContextFavorableEntry: 15,
		domain.ContextMidRange:       7.5,
		domain.ContextBounceZone:     -5,
		domain.ContextBroken:         15,
	}

	for _, trend := range []domain.Trend{domain.Uptrend, domain.Downtrend} {
		for kind, want := range expected {
			score, msg := ScorePivotZone(trend, kind)
			assert.Equal(t, want, score, "%s / %s", trend, kind)
			assert.NotEmpty(t, msg)
		}
	}

	for kind := range expected {
		score, _ := ScorePivotZone(domain.Neutral, kind)
		assert.Equal(t, 0.0, score)
	}

	score, _ := ScorePivotZone(domain.Uptrend, domain.ContextKind(0))
	assert.Equal(t, 0.0, score)
}

func TestNewDetailTone(t *testing.T) {
	assert.Equal(t, domain.TonePositive, newDetail(CategoryTrend, 25, "").Tone)
	assert.Equal(t, domain.ToneNegative, newDetail(CategoryEMAGap, -5, "").Tone)
	assert.Equal(t, domain.ToneNeutral, newDetail(CategoryPivotZone, 0, "").Tone)
	assert.Equal(t, "15%", newDetail(CategoryPivotZone, 0, "").Weight)
}
