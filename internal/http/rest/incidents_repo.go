package rest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/vberk/incident_triage_api/internal/model"
	"github.com/vberk/incident_triage_api/util"
)

var (
	ErrIncidentNotFound      = errors.New("incident not found")
	ErrUserNotFound          = errors.New("user not found")
	ErrDuplicateConfirmation = errors.New("incident already confirmed by this user")
	ErrCodeCollision         = errors.New("incident code already taken")
	ErrUpdateFailed          = errors.New("failed to update incident")
)

// dbtx is satisfied by both *pgxpool.Pool and pgx.Tx so repo functions can
// run standalone or inside RunInTx.
type dbtx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const incidentColumns = `
        i.id, i.incident_code, i.type, i.description,
        ST_Y(i.position::geometry) as latitude,
        ST_X(i.position::geometry) as longitude,
        i.address, i.gps_accuracy, i.image_url, i.status,
        i.confidence_score, i.confirmation_count,
        i.reporter_id, u.username, i.admin_notes, i.created_at, i.updated_at`

func scanIncident(row pgx.Row) (model.Incident, error) {
	var incident model.Incident
	err := row.Scan(
		&incident.ID, &incident.IncidentCode, &incident.Type, &incident.Description,
		&incident.Latitude, &incident.Longitude,
		&incident.Address, &incident.GpsAccuracy, &incident.ImageURL, &incident.Status,
		&incident.ConfidenceScore, &incident.ConfirmationCount,
		&incident.ReporterID, &incident.ReporterUsername, &incident.AdminNotes,
		&incident.CreatedAt, &incident.UpdatedAt,
	)
	return incident, err
}

func mapUniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		switch pgErr.ConstraintName {
		case "confirmations_incident_id_user_id_key":
			return ErrDuplicateConfirmation
		case "incidents_incident_code_key":
			return ErrCodeCollision
		}
	}
	return err
}

// CreateIncidentRepo inserts a new incident. Returns ErrCodeCollision when
// the generated public code is already taken so the caller can regenerate.
func (api *API) CreateIncidentRepo(ctx context.Context, q dbtx, incident model.Incident) (model.Incident, error) {
	query := `
        INSERT INTO incidents (
            incident_code, type, description, position, address,
            gps_accuracy, image_url, status, reporter_id
        ) VALUES (
            $1, $2, $3, ST_SetSRID(ST_MakePoint($4, $5), 4326)::geography,
            $6, $7, $8, $9, $10
        ) RETURNING id, created_at, updated_at
    `
	err := q.QueryRow(ctx, query,
		incident.IncidentCode, incident.Type, incident.Description,
		incident.Longitude, incident.Latitude, incident.Address,
		incident.GpsAccuracy, incident.ImageURL, incident.Status, incident.ReporterID,
	).Scan(&incident.ID, &incident.CreatedAt, &incident.UpdatedAt)
	if err != nil {
		return model.Incident{}, mapUniqueViolation(err)
	}
	return incident, nil
}

// FindPotentialDuplicatesRepo returns recent same-type incidents within the
// distance threshold, newest first. FALSE reports are excluded; the distance
// boundary is inclusive.
func (api *API) FindPotentialDuplicatesRepo(ctx context.Context, lat, lon float64, incidentType model.IncidentType, cutoff time.Time, thresholdMeters float64) ([]model.Incident, error) {
	query := fmt.Sprintf(`
        SELECT %s
        FROM incidents i
        LEFT JOIN users u ON u.id = i.reporter_id
        WHERE i.type = $1
        AND i.status != 'FALSE'
        AND i.created_at >= $2
        AND ST_DWithin(
            i.position,
            ST_SetSRID(ST_MakePoint($3, $4), 4326)::geography,
            $5
        )
        ORDER BY i.created_at DESC
    `, incidentColumns)

	rows, err := api.DB.Query(ctx, query, incidentType, cutoff, lon, lat, thresholdMeters)
	if err != nil {
		return nil, fmt.Errorf("querying potential duplicates: %w", err)
	}
	defer rows.Close()

	var incidents []model.Incident
	for rows.Next() {
		incident, err := scanIncident(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning incident: %w", err)
		}
		incidents = append(incidents, incident)
	}
	return incidents, rows.Err()
}

func (api *API) GetIncidentByIDRepo(ctx context.Context, q dbtx, id int64) (model.Incident, error) {
	query := fmt.Sprintf(`
        SELECT %s
        FROM incidents i
        LEFT JOIN users u ON u.id = i.reporter_id
        WHERE i.id = $1
    `, incidentColumns)

	incident, err := scanIncident(q.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Incident{}, ErrIncidentNotFound
	}
	return incident, err
}

func (api *API) GetIncidentByCodeRepo(ctx context.Context, code string) (model.Incident, error) {
	query := fmt.Sprintf(`
        SELECT %s
        FROM incidents i
        LEFT JOIN users u ON u.id = i.reporter_id
        WHERE i.incident_code = $1
    `, incidentColumns)

	incident, err := scanIncident(api.DB.QueryRow(ctx, query, code))
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Incident{}, ErrIncidentNotFound
	}
	return incident, err
}

// LockIncidentForUpdate fetches an incident inside a transaction with a row
// lock, serializing concurrent confirmations and status updates on it.
func (api *API) LockIncidentForUpdate(ctx context.Context, tx pgx.Tx, id int64) (model.Incident, error) {
	query := fmt.Sprintf(`
        SELECT %s
        FROM incidents i
        LEFT JOIN users u ON u.id = i.reporter_id
        WHERE i.id = $1
        FOR UPDATE OF i
    `, incidentColumns)

	incident, err := scanIncident(tx.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Incident{}, ErrIncidentNotFound
	}
	return incident, err
}

func (api *API) InsertConfirmationRepo(ctx context.Context, q dbtx, confirmation model.Confirmation) error {
	query := `
        INSERT INTO confirmations (incident_id, user_id, latitude, longitude)
        VALUES ($1, $2, $3, $4)
    `
	_, err := q.Exec(ctx, query,
		confirmation.IncidentID, confirmation.UserID,
		confirmation.Latitude, confirmation.Longitude,
	)
	if err != nil {
		return mapUniqueViolation(err)
	}
	return nil
}

// IncrementConfirmationCountRepo bumps the counter atomically and returns
// the new value.
func (api *API) IncrementConfirmationCountRepo(ctx context.Context, q dbtx, id int64) (int, error) {
	query := `
        UPDATE incidents
        SET confirmation_count = confirmation_count + 1, updated_at = NOW()
        WHERE id = $1
        RETURNING confirmation_count
    `
	var count int
	err := q.QueryRow(ctx, query, id).Scan(&count)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrIncidentNotFound
	}
	return count, err
}

func (api *API) UpdateConfidenceScoreRepo(ctx context.Context, q dbtx, id int64, score int) error {
	query := `
        UPDATE incidents
        SET confidence_score = $2, updated_at = NOW()
        WHERE id = $1
    `
	result, err := q.Exec(ctx, query, id, score)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrUpdateFailed
	}
	return nil
}

func (api *API) UpdateIncidentStatusRepo(ctx context.Context, q dbtx, id int64, status model.IncidentStatus, notes *string) error {
	query := `
        UPDATE incidents
        SET status = $2,
            admin_notes = COALESCE($3, admin_notes),
            updated_at = NOW()
        WHERE id = $1
    `
	result, err := q.Exec(ctx, query, id, status, notes)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrUpdateFailed
	}
	return nil
}

func (api *API) InsertTimelineRepo(ctx context.Context, q dbtx, incidentID int64, status model.IncidentStatus, notes *string, updatedBy *uuid.UUID) error {
	query := `
        INSERT INTO incident_timeline (incident_id, status, notes, updated_by)
        VALUES ($1, $2, $3, $4)
    `
	_, err := q.Exec(ctx, query, incidentID, status, notes, updatedBy)
	return err
}

func (api *API) GetTimelineRepo(ctx context.Context, incidentID int64) ([]model.TimelineEntry, error) {
	query := `
        SELECT t.id, t.incident_id, t.status, t.notes, u.username, t.created_at
        FROM incident_timeline t
        LEFT JOIN users u ON u.id = t.updated_by
        WHERE t.incident_id = $1
        ORDER BY t.created_at ASC, t.id ASC
    `
	rows, err := api.DB.Query(ctx, query, incidentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []model.TimelineEntry
	for rows.Next() {
		var entry model.TimelineEntry
		err := rows.Scan(
			&entry.ID, &entry.IncidentID, &entry.Status,
			&entry.Notes, &entry.UpdatedBy, &entry.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// QueryIncidentsRepo runs the public radius query with optional filters,
// ordered by distance then recency.
func (api *API) QueryIncidentsRepo(ctx context.Context, params model.QueryIncidentsParams) ([]model.IncidentWithDistance, error) {
	baseQuery := fmt.Sprintf(`
        SELECT %s,
            ST_Distance(i.position, ST_SetSRID(ST_MakePoint($1, $2), 4326)::geography) as distance
        FROM incidents i
        LEFT JOIN users u ON u.id = i.reporter_id
        WHERE ST_DWithin(
            i.position,
            ST_SetSRID(ST_MakePoint($1, $2), 4326)::geography,
            $3
        )
    `, incidentColumns)

	args := []interface{}{
		params.Longitude,         // $1
		params.Latitude,          // $2
		params.RadiusKm * 1000.0, // $3, meters
	}
	argCount := 3

	whereClause := ""
	if params.Type != "" {
		argCount++
		whereClause += fmt.Sprintf(" AND i.type = $%d", argCount)
		args = append(args, params.Type)
	}
	if params.Status != "" {
		argCount++
		whereClause += fmt.Sprintf(" AND i.status = $%d", argCount)
		args = append(args, params.Status)
	}
	if params.MinConfidence != nil {
		argCount++
		whereClause += fmt.Sprintf(" AND i.confidence_score >= $%d", argCount)
		args = append(args, *params.MinConfidence)
	}

	query := fmt.Sprintf(`
        %s %s
        ORDER BY distance ASC, i.created_at DESC
        LIMIT $%d OFFSET $%d
    `, baseQuery, whereClause, argCount+1, argCount+2)

	args = append(args, params.Limit, params.Offset)

	rows, err := api.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying incidents: %w", err)
	}
	defer rows.Close()

	var incidents []model.IncidentWithDistance
	for rows.Next() {
		var incident model.IncidentWithDistance
		var distanceMeters float64

		err := rows.Scan(
			&incident.ID, &incident.IncidentCode, &incident.Type, &incident.Description,
			&incident.Latitude, &incident.Longitude,
			&incident.Address, &incident.GpsAccuracy, &incident.ImageURL, &incident.Status,
			&incident.ConfidenceScore, &incident.ConfirmationCount,
			&incident.ReporterID, &incident.ReporterUsername, &incident.AdminNotes,
			&incident.CreatedAt, &incident.UpdatedAt, &distanceMeters,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning incident: %w", err)
		}
		incident.DistanceKm = util.MetersToKm(distanceMeters)
		incidents = append(incidents, incident)
	}
	return incidents, rows.Err()
}

// ListIncidentsRepo returns the admin review list, newest first, optionally
// filtered by status.
func (api *API) ListIncidentsRepo(ctx context.Context, status string, limit, offset int) ([]model.Incident, error) {
	query := fmt.Sprintf(`
        SELECT %s
        FROM incidents i
        LEFT JOIN users u ON u.id = i.reporter_id
        WHERE ($1 = '' OR i.status = $1)
        ORDER BY i.created_at DESC
        LIMIT $2 OFFSET $3
    `, incidentColumns)

	rows, err := api.DB.Query(ctx, query, status, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var incidents []model.Incident
	for rows.Next() {
		incident, err := scanIncident(rows)
		if err != nil {
			return nil, err
		}
		incidents = append(incidents, incident)
	}
	return incidents, rows.Err()
}

// ListIncidentsByPriorityRepo orders the triage queue: highest confidence
// first, oldest first within a score.
func (api *API) ListIncidentsByPriorityRepo(ctx context.Context, status string, limit int) ([]model.Incident, error) {
	query := fmt.Sprintf(`
        SELECT %s
        FROM incidents i
        LEFT JOIN users u ON u.id = i.reporter_id
        WHERE ($1 = '' OR i.status = $1)
        ORDER BY i.confidence_score DESC, i.created_at ASC
        LIMIT $2
    `, incidentColumns)

	rows, err := api.DB.Query(ctx, query, status, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var incidents []model.Incident
	for rows.Next() {
		incident, err := scanIncident(rows)
		if err != nil {
			return nil, err
		}
		incidents = append(incidents, incident)
	}
	return incidents, rows.Err()
}
