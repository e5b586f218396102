package scoring

import (
	"time"

	"github.com/vberk/incident_triage_api/config"
	"github.com/vberk/incident_triage_api/internal/model"
)

// Calculator turns an incident's trust signals into a 0-100 confidence
// score. All weights come from config so ops can tune them without a deploy.
type Calculator struct {
	BaseScore           int
	ImageBonus          int
	ConfirmationBonus   int
	ReputationBonusMax  int
	GpsAccuracyBonusMax int

	// now is swapped out in tests; the freshness bonus depends on the wall
	// clock, so the same incident can legitimately score differently later.
	now func() time.Time
}

const confirmationCap = 3

func NewCalculator(cfg *config.Config) *Calculator {
	return &Calculator{
		BaseScore:           cfg.ConfidenceBaseScore,
		ImageBonus:          cfg.ConfidenceImageBonus,
		ConfirmationBonus:   cfg.ConfirmationBonus,
		ReputationBonusMax:  cfg.ReputationBonusMax,
		GpsAccuracyBonusMax: cfg.GpsAccuracyBonusMax,
		now:                 time.Now,
	}
}

// WithClock returns a copy of the calculator pinned to the given clock.
func (c *Calculator) WithClock(now func() time.Time) *Calculator {
	clone := *c
	clone.now = now
	return &clone
}

// Calculate scores an incident against its reporter's reputation. The result
// is capped at 100 and never drops below the base score.
func (c *Calculator) Calculate(incident model.Incident, reputation model.ReputationLevel) int {
	score := c.BaseScore

	if incident.ImageURL != nil && *incident.ImageURL != "" {
		score += c.ImageBonus
	}

	confirmations := incident.ConfirmationCount
	if confirmations > confirmationCap {
		confirmations = confirmationCap
	}
	score += confirmations * c.ConfirmationBonus

	score += c.reputationBonus(reputation)

	if incident.GpsAccuracy != nil {
		score += c.gpsAccuracyBonus(*incident.GpsAccuracy)
	}

	score += c.freshnessBonus(incident.CreatedAt)

	if score > 100 {
		score = 100
	}
	return score
}

func (c *Calculator) reputationBonus(reputation model.ReputationLevel) int {
	switch reputation {
	case model.ReputationNew:
		return 0
	case model.ReputationReliable:
		return c.ReputationBonusMax / 2
	case model.ReputationTrusted:
		return c.ReputationBonusMax
	default:
		return 0
	}
}

// gpsAccuracyBonus rewards tighter fixes: <=10m full bonus, <=50m half,
// anything worse a quarter.
func (c *Calculator) gpsAccuracyBonus(accuracyMeters float64) int {
	switch {
	case accuracyMeters <= 10:
		return c.GpsAccuracyBonusMax
	case accuracyMeters <= 50:
		return c.GpsAccuracyBonusMax / 2
	default:
		return c.GpsAccuracyBonusMax / 4
	}
}

func (c *Calculator) freshnessBonus(createdAt time.Time) int {
	if createdAt.IsZero() {
		return 0
	}
	hoursAgo := int64(c.now().Sub(createdAt).Hours())
	if hoursAgo <= 1 {
		return 5
	}
	if hoursAgo <= 6 {
		return 2
	}
	return 0
}

// ConfidenceLevel buckets a score for dashboard display.
func ConfidenceLevel(score int) string {
	if score >= 70 {
		return "HIGH"
	}
	if score >= 40 {
		return "MEDIUM"
	}
	return "LOW"
}
