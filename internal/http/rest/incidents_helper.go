package rest

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/vberk/incident_triage_api/internal/model"
	"github.com/vberk/incident_triage_api/util"
	"github.com/vberk/incident_triage_api/util/values"
)

var ErrAdminRequired = errors.New("status change requires admin role")

const (
	defaultReporterUsername = "anonymous"
	maxCodeRetries          = 5

	promotionReliableAt = 3
	promotionTrustedAt  = 10
	demotionFalseAt     = 3
)

// creationAuditEntry describes the automatic first timeline entry. The
// system writes it, not the reporter, so it carries no acting user.
func creationAuditEntry() (string, *uuid.UUID) {
	return "Incident reported", nil
}

// CreateIncidentHelper persists a new report. The duplicate probe runs
// before the transaction so its results are purely advisory; the insert,
// scoring and timeline entry commit together.
func (api *API) CreateIncidentHelper(ctx context.Context, req model.CreateIncidentRequest, imageURL string) (model.CreateIncidentResponse, string, string, error) {
	cutoff := time.Now().Add(-time.Duration(api.Config.DuplicateTimeWindowMinutes) * time.Minute)
	duplicates, err := api.FindPotentialDuplicatesRepo(ctx, *req.Latitude, *req.Longitude,
		model.IncidentType(req.Type), cutoff, api.Config.DuplicateDistanceMeters)
	if err != nil {
		return model.CreateIncidentResponse{}, values.Error, "Failed to check for duplicates", err
	}
	if duplicates == nil {
		duplicates = []model.Incident{}
	}

	reporterUsername := req.ReporterUsername
	if !util.NotBlank(reporterUsername) {
		reporterUsername = defaultReporterUsername
	}

	incident := model.Incident{
		Type:        model.IncidentType(req.Type),
		Description: req.Description,
		Latitude:    *req.Latitude,
		Longitude:   *req.Longitude,
		GpsAccuracy: req.GpsAccuracy,
		Status:      model.StatusUnverified,
	}
	if util.NotBlank(req.Address) {
		incident.Address = &req.Address
	}
	if util.NotBlank(imageURL) {
		incident.ImageURL = &imageURL
	}

	var created model.Incident
	for attempt := 0; attempt < maxCodeRetries; attempt++ {
		incident.IncidentCode = util.GenerateIncidentCode()

		err = api.Deps.DB.RunInTx(ctx, func(tx pgx.Tx) error {
			reporter, txErr := api.GetOrCreateReporter(ctx, tx, reporterUsername)
			if txErr != nil {
				return txErr
			}
			incident.ReporterID = &reporter.ID

			created, txErr = api.CreateIncidentRepo(ctx, tx, incident)
			if txErr != nil {
				return txErr
			}
			created.ReporterUsername = &reporter.Username

			// created_at comes back from the insert, so the freshness
			// bonus always applies to a brand new report.
			created.ConfidenceScore = api.Deps.Scorer.Calculate(created, reporter.Reputation)
			if txErr = api.UpdateConfidenceScoreRepo(ctx, tx, created.ID, created.ConfidenceScore); txErr != nil {
				return txErr
			}

			note, actor := creationAuditEntry()
			return api.InsertTimelineRepo(ctx, tx, created.ID, created.Status, &note, actor)
		})
		if !errors.Is(err, ErrCodeCollision) {
			break
		}
	}
	if err != nil {
		return model.CreateIncidentResponse{}, values.Error, "Failed to create incident", err
	}

	api.Deps.WebSocket.PublishNearby(values.TopicIncidents, created,
		created.Latitude, created.Longitude, api.Config.BroadcastRadiusKm)

	return model.CreateIncidentResponse{
		Incident:            created,
		PotentialDuplicates: duplicates,
	}, values.Created, "Incident reported", nil
}

// ConfirmIncidentHelper records a sighting of an existing incident. The
// incident row lock serializes concurrent confirmations so the counter and
// the recomputed score stay consistent.
func (api *API) ConfirmIncidentHelper(ctx context.Context, req model.ConfirmIncidentRequest) (model.Incident, string, string, error) {
	username := req.Username
	if !util.NotBlank(username) {
		username = defaultReporterUsername
	}

	var incident model.Incident
	err := api.Deps.DB.RunInTx(ctx, func(tx pgx.Tx) error {
		var txErr error
		incident, txErr = api.LockIncidentForUpdate(ctx, tx, req.IncidentID)
		if txErr != nil {
			return txErr
		}

		confirmer, txErr := api.GetOrCreateReporter(ctx, tx, username)
		if txErr != nil {
			return txErr
		}

		txErr = api.InsertConfirmationRepo(ctx, tx, model.Confirmation{
			IncidentID: incident.ID,
			UserID:     confirmer.ID,
			Latitude:   *req.Latitude,
			Longitude:  *req.Longitude,
		})
		if txErr != nil {
			return txErr
		}

		incident.ConfirmationCount, txErr = api.IncrementConfirmationCountRepo(ctx, tx, incident.ID)
		if txErr != nil {
			return txErr
		}

		reputation := model.ReputationNew
		if incident.ReporterID != nil {
			reporter, repErr := api.GetUserByIDRepo(ctx, tx, *incident.ReporterID)
			if repErr != nil {
				return repErr
			}
			reputation = reporter.Reputation
		}

		incident.ConfidenceScore = api.Deps.Scorer.Calculate(incident, reputation)
		return api.UpdateConfidenceScoreRepo(ctx, tx, incident.ID, incident.ConfidenceScore)
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrIncidentNotFound):
			return model.Incident{}, values.NotFound, "Incident not found", err
		case errors.Is(err, ErrDuplicateConfirmation):
			return model.Incident{}, values.Conflict, "Incident already confirmed by this user", err
		}
		return model.Incident{}, values.Error, "Failed to confirm incident", err
	}

	api.Deps.WebSocket.PublishNearby(values.TopicIncidents, incident,
		incident.Latitude, incident.Longitude, api.Config.BroadcastRadiusKm)

	return incident, values.Success, "Incident confirmed", nil
}

// statusRequiresAdmin gates the two trust-bearing states. Responders can
// move incidents through the operational states freely.
func statusRequiresAdmin(status model.IncidentStatus) bool {
	return status == model.StatusVerified || status == model.StatusFalse
}

// applyReputationChange moves a reporter along the trust ladder after a
// verdict. Promotion checks the current tier only, so a reporter crossing
// both thresholds in one update still climbs one rung. Three false reports
// reset the tier outright.
func applyReputationChange(user *model.User, verified bool) {
	if verified {
		user.VerifiedReports++
		switch {
		case user.Reputation == model.ReputationNew && user.VerifiedReports >= promotionReliableAt:
			user.Reputation = model.ReputationReliable
		case user.Reputation == model.ReputationReliable && user.VerifiedReports >= promotionTrustedAt:
			user.Reputation = model.ReputationTrusted
		}
		return
	}

	user.FalseReports++
	if user.FalseReports >= demotionFalseAt {
		user.Reputation = model.ReputationNew
	}
}

// UpdateStatusHelper runs one lifecycle step: role gate, status write,
// timeline append and the reporter reputation side effect, all in one
// transaction.
func (api *API) UpdateStatusHelper(ctx context.Context, incidentID int64, req model.StatusUpdateRequest, actorUsername string) (model.Incident, string, string, error) {
	newStatus := model.IncidentStatus(req.Status)

	var incident model.Incident
	err := api.Deps.DB.RunInTx(ctx, func(tx pgx.Tx) error {
		actor, txErr := api.GetUserByUsernameTx(ctx, tx, actorUsername)
		if txErr != nil {
			return txErr
		}

		if statusRequiresAdmin(newStatus) && actor.Role != model.RoleAdmin {
			return ErrAdminRequired
		}

		incident, txErr = api.LockIncidentForUpdate(ctx, tx, incidentID)
		if txErr != nil {
			return txErr
		}

		var notes *string
		if util.NotBlank(req.Notes) {
			notes = &req.Notes
			incident.AdminNotes = notes
		}

		if txErr = api.UpdateIncidentStatusRepo(ctx, tx, incident.ID, newStatus, notes); txErr != nil {
			return txErr
		}
		incident.Status = newStatus

		if txErr = api.InsertTimelineRepo(ctx, tx, incident.ID, newStatus, notes, &actor.ID); txErr != nil {
			return txErr
		}

		if (newStatus == model.StatusVerified || newStatus == model.StatusFalse) && incident.ReporterID != nil {
			reporter, repErr := api.LockReporterForUpdate(ctx, tx, *incident.ReporterID)
			if repErr != nil {
				return repErr
			}
			applyReputationChange(&reporter, newStatus == model.StatusVerified)
			if repErr = api.SaveReputationRepo(ctx, tx, reporter); repErr != nil {
				return repErr
			}
		}
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrIncidentNotFound):
			return model.Incident{}, values.NotFound, "Incident not found", err
		case errors.Is(err, ErrUserNotFound):
			return model.Incident{}, values.NotFound, "Acting user not found", err
		case errors.Is(err, ErrAdminRequired):
			return model.Incident{}, values.NotAllowed, "Only admins can set this status", err
		}
		return model.Incident{}, values.Error, "Failed to update incident status", err
	}

	api.Deps.WebSocket.Publish(values.TopicIncidents, incident)

	return incident, values.Success, "Incident status updated", nil
}

func (api *API) QueryIncidentsHelper(ctx context.Context, params model.QueryIncidentsParams) ([]model.IncidentWithDistance, string, string, error) {
	incidents, err := api.QueryIncidentsRepo(ctx, params)
	if err != nil {
		return nil, values.Error, "Failed to query incidents", err
	}
	if incidents == nil {
		incidents = []model.IncidentWithDistance{}
	}
	return incidents, values.Success, "Incidents retrieved", nil
}

func (api *API) GetIncidentByCodeHelper(ctx context.Context, code string) (model.Incident, string, string, error) {
	incident, err := api.GetIncidentByCodeRepo(ctx, code)
	if err != nil {
		if errors.Is(err, ErrIncidentNotFound) {
			return model.Incident{}, values.NotFound, "Incident not found", err
		}
		return model.Incident{}, values.Error, "Failed to fetch incident", err
	}
	return incident, values.Success, "Incident retrieved", nil
}

func (api *API) GetIncidentByIDHelper(ctx context.Context, id int64) (model.Incident, string, string, error) {
	incident, err := api.GetIncidentByIDRepo(ctx, api.DB, id)
	if err != nil {
		if errors.Is(err, ErrIncidentNotFound) {
			return model.Incident{}, values.NotFound, "Incident not found", err
		}
		return model.Incident{}, values.Error, "Failed to fetch incident", err
	}
	return incident, values.Success, "Incident retrieved", nil
}

func (api *API) GetTimelineHelper(ctx context.Context, incidentID int64) ([]model.TimelineEntry, string, string, error) {
	// 404 on an unknown incident rather than an empty timeline.
	if _, err := api.GetIncidentByIDRepo(ctx, api.DB, incidentID); err != nil {
		if errors.Is(err, ErrIncidentNotFound) {
			return nil, values.NotFound, "Incident not found", err
		}
		return nil, values.Error, "Failed to fetch incident", err
	}

	entries, err := api.GetTimelineRepo(ctx, incidentID)
	if err != nil {
		return nil, values.Error, "Failed to fetch timeline", err
	}
	if entries == nil {
		entries = []model.TimelineEntry{}
	}
	return entries, values.Success, "Timeline retrieved", nil
}

func (api *API) ListIncidentsHelper(ctx context.Context, status string, limit, offset int) ([]model.Incident, string, string, error) {
	incidents, err := api.ListIncidentsRepo(ctx, status, limit, offset)
	if err != nil {
		return nil, values.Error, "Failed to list incidents", err
	}
	if incidents == nil {
		incidents = []model.Incident{}
	}
	return incidents, values.Success, "Incidents retrieved", nil
}

func (api *API) ListPrioritizedHelper(ctx context.Context, status string, limit int) ([]model.Incident, string, string, error) {
	incidents, err := api.ListIncidentsByPriorityRepo(ctx, status, limit)
	if err != nil {
		return nil, values.Error, "Failed to list incidents", err
	}
	if incidents == nil {
		incidents = []model.Incident{}
	}
	return incidents, values.Success, "Incidents retrieved", nil
}
