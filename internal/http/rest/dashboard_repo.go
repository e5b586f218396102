package rest

import (
	"context"

	"github.com/vberk/incident_triage_api/internal/model"
	"github.com/vberk/incident_triage_api/internal/scoring"
)

const recentIncidentsLimit = 10

func (api *API) GetDashboardStatsRepo(ctx context.Context) (model.DashboardStats, error) {
	var stats model.DashboardStats

	countsQuery := `
        SELECT
            COUNT(*),
            COUNT(*) FILTER (WHERE status = 'VERIFIED'),
            COUNT(*) FILTER (WHERE status = 'RESOLVED')
        FROM incidents
    `
	err := api.DB.QueryRow(ctx, countsQuery).Scan(
		&stats.TotalIncidents,
		&stats.VerifiedIncidents,
		&stats.ResolvedIncidents,
	)
	if err != nil {
		return model.DashboardStats{}, err
	}

	if stats.TotalIncidents > 0 {
		stats.AccuracyRate = 100.0 * float64(stats.VerifiedIncidents) / float64(stats.TotalIncidents)
	}

	// Resolution time runs from report to the first RESOLVED timeline entry;
	// incidents still IN_PROGRESS count against the clock up to now.
	resolutionQuery := `
        SELECT COALESCE(AVG(
            EXTRACT(EPOCH FROM (COALESCE(r.first_resolved, NOW()) - i.created_at)) / 3600.0
        ), 0)
        FROM incidents i
        LEFT JOIN (
            SELECT incident_id, MIN(created_at) AS first_resolved
            FROM incident_timeline
            WHERE status = 'RESOLVED'
            GROUP BY incident_id
        ) r ON r.incident_id = i.id
        WHERE i.status IN ('RESOLVED', 'IN_PROGRESS')
    `
	err = api.DB.QueryRow(ctx, resolutionQuery).Scan(&stats.AverageResolutionHours)
	if err != nil {
		return model.DashboardStats{}, err
	}

	recentQuery := `
        SELECT incident_code, type, status, confidence_score, created_at
        FROM incidents
        ORDER BY created_at DESC
        LIMIT $1
    `
	rows, err := api.DB.Query(ctx, recentQuery, recentIncidentsLimit)
	if err != nil {
		return model.DashboardStats{}, err
	}
	defer rows.Close()

	stats.RecentIncidents = []model.RecentIncident{}
	for rows.Next() {
		var recent model.RecentIncident
		err := rows.Scan(
			&recent.IncidentCode, &recent.Type, &recent.Status,
			&recent.ConfidenceScore, &recent.CreatedAt,
		)
		if err != nil {
			return model.DashboardStats{}, err
		}
		recent.ConfidenceLevel = scoring.ConfidenceLevel(recent.ConfidenceScore)
		stats.RecentIncidents = append(stats.RecentIncidents, recent)
	}
	return stats, rows.Err()
}
