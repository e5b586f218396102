package rest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/vberk/incident_triage_api/internal/model"
)

func TestApplyReputationChange_PromotionToReliable(t *testing.T) {
	user := model.User{Reputation: model.ReputationNew, VerifiedReports: 2}

	applyReputationChange(&user, true)

	assert.Equal(t, 3, user.VerifiedReports)
	assert.Equal(t, model.ReputationReliable, user.Reputation)
}

func TestApplyReputationChange_NoPromotionBelowThreshold(t *testing.T) {
	user := model.User{Reputation: model.ReputationNew, VerifiedReports: 1}

	applyReputationChange(&user, true)

	assert.Equal(t, 2, user.VerifiedReports)
	assert.Equal(t, model.ReputationNew, user.Reputation)
}

func TestApplyReputationChange_PromotionToTrusted(t *testing.T) {
	user := model.User{Reputation: model.ReputationReliable, VerifiedReports: 9}

	applyReputationChange(&user, true)

	assert.Equal(t, 10, user.VerifiedReports)
	assert.Equal(t, model.ReputationTrusted, user.Reputation)
}

// A NEW reporter with a backlog of verified reports climbs one rung per
// update, not two: promotion only ever checks the current tier.
func TestApplyReputationChange_OneRungPerUpdate(t *testing.T) {
	user := model.User{Reputation: model.ReputationNew, VerifiedReports: 11}

	applyReputationChange(&user, true)

	assert.Equal(t, 12, user.VerifiedReports)
	assert.Equal(t, model.ReputationReliable, user.Reputation)

	applyReputationChange(&user, true)

	assert.Equal(t, model.ReputationTrusted, user.Reputation)
}

func TestApplyReputationChange_TrustedStaysTrusted(t *testing.T) {
	user := model.User{Reputation: model.ReputationTrusted, VerifiedReports: 20}

	applyReputationChange(&user, true)

	assert.Equal(t, model.ReputationTrusted, user.Reputation)
}

func TestApplyReputationChange_FalseReportsResetTier(t *testing.T) {
	user := model.User{Reputation: model.ReputationTrusted, VerifiedReports: 15, FalseReports: 2}

	applyReputationChange(&user, false)

	assert.Equal(t, 3, user.FalseReports)
	assert.Equal(t, model.ReputationNew, user.Reputation)
	assert.Equal(t, 15, user.VerifiedReports)
}

func TestApplyReputationChange_FalseBelowThresholdKeepsTier(t *testing.T) {
	user := model.User{Reputation: model.ReputationReliable, FalseReports: 1}

	applyReputationChange(&user, false)

	assert.Equal(t, 2, user.FalseReports)
	assert.Equal(t, model.ReputationReliable, user.Reputation)
}

// Once past the threshold, every further false verdict keeps the tier
// pinned at NEW even if verified reports would otherwise qualify.
func TestApplyReputationChange_ResetIsUnconditional(t *testing.T) {
	user := model.User{Reputation: model.ReputationReliable, VerifiedReports: 8, FalseReports: 5}

	applyReputationChange(&user, false)

	assert.Equal(t, model.ReputationNew, user.Reputation)
}

// The first timeline entry is system-generated; it must not be attributed
// to the reporter.
func TestCreationAuditEntryHasNoActingUser(t *testing.T) {
	note, actor := creationAuditEntry()

	assert.Equal(t, "Incident reported", note)
	assert.Nil(t, actor)
}

func TestStatusRequiresAdmin(t *testing.T) {
	tests := []struct {
		status model.IncidentStatus
		want   bool
	}{
		{model.StatusVerified, true},
		{model.StatusFalse, true},
		{model.StatusUnverified, false},
		{model.StatusInProgress, false},
		{model.StatusResolved, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.want, statusRequiresAdmin(tt.status))
		})
	}
}

func TestValidIncidentStatus(t *testing.T) {
	assert.True(t, model.ValidIncidentStatus("VERIFIED"))
	assert.True(t, model.ValidIncidentStatus("IN_PROGRESS"))
	assert.False(t, model.ValidIncidentStatus("verified"))
	assert.False(t, model.ValidIncidentStatus("ARCHIVED"))
	assert.False(t, model.ValidIncidentStatus(""))
}
