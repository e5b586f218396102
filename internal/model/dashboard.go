package model

import "time"

type DashboardStats struct {
	TotalIncidents         int64            `json:"total_incidents"`
	VerifiedIncidents      int64            `json:"verified_incidents"`
	ResolvedIncidents      int64            `json:"resolved_incidents"`
	AccuracyRate           float64          `json:"accuracy_rate"`
	AverageResolutionHours float64          `json:"average_resolution_hours"`
	RecentIncidents        []RecentIncident `json:"recent_incidents"`
}

type RecentIncident struct {
	IncidentCode    string         `json:"incident_code"`
	Type            IncidentType   `json:"type"`
	Status          IncidentStatus `json:"status"`
	ConfidenceScore int            `json:"confidence_score"`
	ConfidenceLevel string         `json:"confidence_level"`
	CreatedAt       time.Time      `json:"created_at"`
}
