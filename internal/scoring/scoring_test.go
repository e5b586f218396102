package scoring

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/vberk/incident_triage_api/config"
	"github.com/vberk/incident_triage_api/internal/model"
)

func defaultCalculator() *Calculator {
	return NewCalculator(&config.Config{
		ConfidenceBaseScore:  30,
		ConfidenceImageBonus: 20,
		ConfirmationBonus:    15,
		ReputationBonusMax:   20,
		GpsAccuracyBonusMax:  15,
	})
}

func strPtr(s string) *string     { return &s }
func floatPtr(f float64) *float64 { return &f }

func TestCalculateBareFreshReport(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	calc := defaultCalculator().WithClock(func() time.Time { return now })

	incident := model.Incident{CreatedAt: now.Add(-time.Minute)}

	// base 30 + freshness 5, nothing else
	assert.Equal(t, 35, calc.Calculate(incident, model.ReputationNew))
}

func TestCalculateImageAndConfirmations(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	calc := defaultCalculator().WithClock(func() time.Time { return now })

	incident := model.Incident{
		ImageURL:          strPtr("https://img.example/i.jpg"),
		ConfirmationCount: 2,
		CreatedAt:         now.Add(-time.Minute),
	}

	// 30 + 20 + 2*15 + 5
	assert.Equal(t, 85, calc.Calculate(incident, model.ReputationNew))
}

func TestCalculateConfirmationBonusCapped(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	calc := defaultCalculator().WithClock(func() time.Time { return now })

	three := calc.Calculate(model.Incident{ConfirmationCount: 3, CreatedAt: now.Add(-8 * time.Hour)}, model.ReputationNew)
	ten := calc.Calculate(model.Incident{ConfirmationCount: 10, CreatedAt: now.Add(-8 * time.Hour)}, model.ReputationNew)

	assert.Equal(t, 75, three)
	assert.Equal(t, three, ten)
}

func TestCalculateReputationBonus(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	calc := defaultCalculator().WithClock(func() time.Time { return now })
	stale := model.Incident{CreatedAt: now.Add(-24 * time.Hour)}

	testCases := []struct {
		reputation model.ReputationLevel
		expected   int
	}{
		{model.ReputationNew, 30},
		{model.ReputationReliable, 40},
		{model.ReputationTrusted, 50},
	}

	for _, tc := range testCases {
		t.Run(string(tc.reputation), func(t *testing.T) {
			assert.Equal(t, tc.expected, calc.Calculate(stale, tc.reputation))
		})
	}
}

func TestCalculateGpsAccuracyBands(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	calc := defaultCalculator().WithClock(func() time.Time { return now })

	testCases := []struct {
		name     string
		accuracy *float64
		expected int
	}{
		{"no accuracy", nil, 30},
		{"tight fix", floatPtr(5), 45},
		{"band boundary 10m", floatPtr(10), 45},
		{"medium fix", floatPtr(35), 37},
		{"band boundary 50m", floatPtr(50), 37},
		{"poor fix", floatPtr(120), 33},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			incident := model.Incident{
				GpsAccuracy: tc.accuracy,
				CreatedAt:   now.Add(-24 * time.Hour),
			}
			assert.Equal(t, tc.expected, calc.Calculate(incident, model.ReputationNew))
		})
	}
}

func TestCalculateFreshnessBands(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	calc := defaultCalculator().WithClock(func() time.Time { return now })

	testCases := []struct {
		name     string
		age      time.Duration
		expected int
	}{
		{"minutes old", 10 * time.Minute, 35},
		{"just under two hours", time.Hour + 59*time.Minute, 35},
		{"three hours old", 3 * time.Hour, 32},
		{"day old", 24 * time.Hour, 30},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			incident := model.Incident{CreatedAt: now.Add(-tc.age)}
			assert.Equal(t, tc.expected, calc.Calculate(incident, model.ReputationNew))
		})
	}
}

func TestCalculateCappedAt100(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	calc := defaultCalculator().WithClock(func() time.Time { return now })

	incident := model.Incident{
		ImageURL:          strPtr("https://img.example/i.jpg"),
		ConfirmationCount: 3,
		GpsAccuracy:       floatPtr(4),
		CreatedAt:         now.Add(-time.Minute),
	}

	// 30+20+45+20+15+5 = 135 uncapped
	assert.Equal(t, 100, calc.Calculate(incident, model.ReputationTrusted))
}

func TestCalculateAlwaysInRange(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	calc := defaultCalculator().WithClock(func() time.Time { return now })

	images := []*string{nil, strPtr("https://img.example/i.jpg")}
	accuracies := []*float64{nil, floatPtr(5), floatPtr(30), floatPtr(200)}
	reputations := []model.ReputationLevel{model.ReputationNew, model.ReputationReliable, model.ReputationTrusted}

	for _, img := range images {
		for _, acc := range accuracies {
			for _, rep := range reputations {
				for confirmations := 0; confirmations <= 5; confirmations++ {
					incident := model.Incident{
						ImageURL:          img,
						GpsAccuracy:       acc,
						ConfirmationCount: confirmations,
						CreatedAt:         now.Add(-30 * time.Minute),
					}
					score := calc.Calculate(incident, rep)
					assert.GreaterOrEqual(t, score, 0)
					assert.LessOrEqual(t, score, 100)
				}
			}
		}
	}
}

func TestConfidenceLevel(t *testing.T) {
	assert.Equal(t, "HIGH", ConfidenceLevel(70))
	assert.Equal(t, "HIGH", ConfidenceLevel(100))
	assert.Equal(t, "MEDIUM", ConfidenceLevel(40))
	assert.Equal(t, "MEDIUM", ConfidenceLevel(69))
	assert.Equal(t, "LOW", ConfidenceLevel(39))
	assert.Equal(t, "LOW", ConfidenceLevel(0))
}
