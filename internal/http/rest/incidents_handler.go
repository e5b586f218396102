package rest

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/vberk/incident_triage_api/internal/model"
	"github.com/vberk/incident_triage_api/util"
	"github.com/vberk/incident_triage_api/util/tracing"
	"github.com/vberk/incident_triage_api/util/values"
)

const (
	defaultQueryRadiusKm = 5.0
	defaultQueryLimit    = 50
	maxQueryLimit        = 200
	defaultPriorityLimit = 20
	maxUploadBytes       = 10 << 20
)

func (api *API) IncidentRoutes() chi.Router {
	mux := chi.NewRouter()

	mux.Method(http.MethodPost, "/public/report", Handler(api.ReportIncident))
	mux.Method(http.MethodPost, "/public/confirm", Handler(api.ConfirmIncident))
	mux.Method(http.MethodGet, "/public/query", Handler(api.QueryIncidents))
	mux.Method(http.MethodGet, "/public/{incidentCode}", Handler(api.GetIncidentByCode))

	mux.Group(func(r chi.Router) {
		r.Use(api.RequireLogin)
		r.Method(http.MethodGet, "/admin/incidents", Handler(api.ListIncidents))
		r.Method(http.MethodGet, "/admin/prioritized", Handler(api.ListPrioritizedIncidents))
		r.Method(http.MethodGet, "/admin/{id}", Handler(api.GetIncidentByID))
		r.Method(http.MethodGet, "/admin/{id}/timeline", Handler(api.GetIncidentTimeline))
		r.Method(http.MethodPut, "/admin/{id}/status", Handler(api.UpdateIncidentStatus))
	})

	return mux
}

// ReportIncident accepts either a JSON body or a multipart form with an
// optional image part. The image goes to Cloudinary before the incident is
// persisted so the stored report carries the final URL.
func (api *API) ReportIncident(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	tc := r.Context().Value(values.ContextTracingKey).(tracing.Context)

	var req model.CreateIncidentRequest
	imageURL := ""

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			return respondWithError(err, "unable to parse multipart form", values.BadRequestBody, &tc)
		}

		parsed, err := parseIncidentForm(r)
		if err != nil {
			return respondWithError(err, "invalid form values", values.BadRequestBody, &tc)
		}
		req = parsed

		file, _, err := r.FormFile("image")
		if err == nil {
			defer file.Close()
			imageURL, err = api.Deps.Cloudinary.UploadIncidentImage(r.Context(), file, "incidents")
			if err != nil {
				return respondWithError(err, "failed to upload image", values.Error, &tc)
			}
		}
	} else {
		if decodeErr := util.DecodeJSONBody(&tc, r.Body, &req); decodeErr != nil {
			return respondWithError(decodeErr, "unable to decode request", values.BadRequestBody, &tc)
		}
		imageURL = req.ImageURL
	}

	if err := util.ValidateStruct(req); err != nil {
		return respondWithError(err, "invalid incident report", values.BadRequestBody, &tc)
	}

	resp, status, message, err := api.CreateIncidentHelper(r.Context(), req, imageURL)
	if err != nil {
		return respondWithError(err, message, status, &tc)
	}

	return &ServerResponse{
		Message:    message,
		Status:     status,
		StatusCode: util.StatusCode(status),
		Data:       resp,
	}
}

func parseIncidentForm(r *http.Request) (model.CreateIncidentRequest, error) {
	lat, err := strconv.ParseFloat(r.FormValue("latitude"), 64)
	if err != nil {
		return model.CreateIncidentRequest{}, err
	}
	lon, err := strconv.ParseFloat(r.FormValue("longitude"), 64)
	if err != nil {
		return model.CreateIncidentRequest{}, err
	}

	req := model.CreateIncidentRequest{
		Type:             r.FormValue("type"),
		Description:      r.FormValue("description"),
		Latitude:         &lat,
		Longitude:        &lon,
		Address:          r.FormValue("address"),
		ReporterUsername: r.FormValue("reporter_username"),
	}

	if raw := r.FormValue("gps_accuracy"); raw != "" {
		accuracy, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return model.CreateIncidentRequest{}, err
		}
		req.GpsAccuracy = &accuracy
	}
	return req, nil
}

func (api *API) ConfirmIncident(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	tc := r.Context().Value(values.ContextTracingKey).(tracing.Context)

	var req model.ConfirmIncidentRequest
	if decodeErr := util.DecodeJSONBody(&tc, r.Body, &req); decodeErr != nil {
		return respondWithError(decodeErr, "unable to decode request", values.BadRequestBody, &tc)
	}

	if err := util.ValidateStruct(req); err != nil {
		return respondWithError(err, "invalid confirmation", values.BadRequestBody, &tc)
	}

	incident, status, message, err := api.ConfirmIncidentHelper(r.Context(), req)
	if err != nil {
		return respondWithError(err, message, status, &tc)
	}

	return &ServerResponse{
		Message:    message,
		Status:     status,
		StatusCode: util.StatusCode(status),
		Data:       incident,
	}
}

func (api *API) QueryIncidents(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	tc := r.Context().Value(values.ContextTracingKey).(tracing.Context)

	// Without a position the query degrades to a plain paginated listing.
	if positionless(r.URL.Query()) {
		status := r.URL.Query().Get("status")
		if status != "" && !model.ValidIncidentStatus(status) {
			return respondWithError(nil, "invalid status filter", values.BadRequestBody, &tc)
		}
		limit, offset, err := parsePagination(r.URL.Query())
		if err != nil {
			return respondWithError(err, "invalid query parameters", values.BadRequestBody, &tc)
		}

		incidents, respStatus, message, err := api.ListIncidentsHelper(r.Context(), status, limit, offset)
		if err != nil {
			return respondWithError(err, message, respStatus, &tc)
		}
		return &ServerResponse{
			Message:    message,
			Status:     respStatus,
			StatusCode: util.StatusCode(respStatus),
			Data:       incidents,
		}
	}

	params, err := parseQueryParams(r)
	if err != nil {
		return respondWithError(err, "invalid query parameters", values.BadRequestBody, &tc)
	}

	incidents, status, message, err := api.QueryIncidentsHelper(r.Context(), params)
	if err != nil {
		return respondWithError(err, message, status, &tc)
	}

	return &ServerResponse{
		Message:    message,
		Status:     status,
		StatusCode: util.StatusCode(status),
		Data:       incidents,
	}
}

func positionless(q url.Values) bool {
	return q.Get("latitude") == "" && q.Get("longitude") == ""
}

func parsePagination(q url.Values) (int, int, error) {
	limit := defaultQueryLimit
	if raw := q.Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > maxQueryLimit {
			return 0, 0, fmt.Errorf("limit out of range: %q", raw)
		}
		limit = parsed
	}

	offset := 0
	if raw := q.Get("offset"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			return 0, 0, fmt.Errorf("invalid offset: %q", raw)
		}
		offset = parsed
	}
	return limit, offset, nil
}

func parseQueryParams(r *http.Request) (model.QueryIncidentsParams, error) {
	q := r.URL.Query()

	lat, err := strconv.ParseFloat(q.Get("latitude"), 64)
	if err != nil {
		return model.QueryIncidentsParams{}, err
	}
	lon, err := strconv.ParseFloat(q.Get("longitude"), 64)
	if err != nil {
		return model.QueryIncidentsParams{}, err
	}

	params := model.QueryIncidentsParams{
		Latitude:  lat,
		Longitude: lon,
		RadiusKm:  defaultQueryRadiusKm,
		Type:      q.Get("type"),
		Status:    q.Get("status"),
		Limit:     defaultQueryLimit,
	}

	if raw := q.Get("radius_km"); raw != "" {
		if params.RadiusKm, err = strconv.ParseFloat(raw, 64); err != nil {
			return model.QueryIncidentsParams{}, err
		}
	}
	if raw := q.Get("min_confidence"); raw != "" {
		minScore, err := strconv.Atoi(raw)
		if err != nil {
			return model.QueryIncidentsParams{}, err
		}
		params.MinConfidence = &minScore
	}
	if raw := q.Get("limit"); raw != "" {
		if params.Limit, err = strconv.Atoi(raw); err != nil {
			return model.QueryIncidentsParams{}, err
		}
	}
	if params.Limit <= 0 || params.Limit > maxQueryLimit {
		params.Limit = defaultQueryLimit
	}
	if raw := q.Get("offset"); raw != "" {
		if params.Offset, err = strconv.Atoi(raw); err != nil {
			return model.QueryIncidentsParams{}, err
		}
	}
	if params.Offset < 0 {
		params.Offset = 0
	}

	return params, nil
}

func (api *API) GetIncidentByCode(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	tc := r.Context().Value(values.ContextTracingKey).(tracing.Context)

	code := chi.URLParam(r, "incidentCode")

	incident, status, message, err := api.GetIncidentByCodeHelper(r.Context(), code)
	if err != nil {
		return respondWithError(err, message, status, &tc)
	}

	return &ServerResponse{
		Message:    message,
		Status:     status,
		StatusCode: util.StatusCode(status),
		Data:       incident,
	}
}

func (api *API) GetIncidentByID(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	tc := r.Context().Value(values.ContextTracingKey).(tracing.Context)

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		return respondWithError(err, "invalid incident id", values.BadRequestBody, &tc)
	}

	incident, status, message, err := api.GetIncidentByIDHelper(r.Context(), id)
	if err != nil {
		return respondWithError(err, message, status, &tc)
	}

	return &ServerResponse{
		Message:    message,
		Status:     status,
		StatusCode: util.StatusCode(status),
		Data:       incident,
	}
}

func (api *API) GetIncidentTimeline(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	tc := r.Context().Value(values.ContextTracingKey).(tracing.Context)

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		return respondWithError(err, "invalid incident id", values.BadRequestBody, &tc)
	}

	entries, status, message, err := api.GetTimelineHelper(r.Context(), id)
	if err != nil {
		return respondWithError(err, message, status, &tc)
	}

	return &ServerResponse{
		Message:    message,
		Status:     status,
		StatusCode: util.StatusCode(status),
		Data:       entries,
	}
}

func (api *API) ListIncidents(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	tc := r.Context().Value(values.ContextTracingKey).(tracing.Context)

	status := r.URL.Query().Get("status")
	if status != "" && !model.ValidIncidentStatus(status) {
		return respondWithError(nil, "invalid status filter", values.BadRequestBody, &tc)
	}

	limit, offset, err := parsePagination(r.URL.Query())
	if err != nil {
		return respondWithError(err, "invalid query parameters", values.BadRequestBody, &tc)
	}

	incidents, respStatus, message, err := api.ListIncidentsHelper(r.Context(), status, limit, offset)
	if err != nil {
		return respondWithError(err, message, respStatus, &tc)
	}

	return &ServerResponse{
		Message:    message,
		Status:     respStatus,
		StatusCode: util.StatusCode(respStatus),
		Data:       incidents,
	}
}

func (api *API) ListPrioritizedIncidents(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	tc := r.Context().Value(values.ContextTracingKey).(tracing.Context)

	status := r.URL.Query().Get("status")
	if status != "" && !model.ValidIncidentStatus(status) {
		return respondWithError(nil, "invalid status filter", values.BadRequestBody, &tc)
	}

	limit := defaultPriorityLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			return respondWithError(err, "invalid limit", values.BadRequestBody, &tc)
		}
		limit = parsed
	}

	incidents, respStatus, message, err := api.ListPrioritizedHelper(r.Context(), status, limit)
	if err != nil {
		return respondWithError(err, message, respStatus, &tc)
	}

	return &ServerResponse{
		Message:    message,
		Status:     respStatus,
		StatusCode: util.StatusCode(respStatus),
		Data:       incidents,
	}
}

func (api *API) UpdateIncidentStatus(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	tc := r.Context().Value(values.ContextTracingKey).(tracing.Context)

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		return respondWithError(err, "invalid incident id", values.BadRequestBody, &tc)
	}

	var req model.StatusUpdateRequest
	if decodeErr := util.DecodeJSONBody(&tc, r.Body, &req); decodeErr != nil {
		return respondWithError(decodeErr, "unable to decode request", values.BadRequestBody, &tc)
	}

	if err := util.ValidateStruct(req); err != nil {
		return respondWithError(err, "status is required", values.BadRequestBody, &tc)
	}
	if !model.ValidIncidentStatus(req.Status) {
		return respondWithError(nil, "unknown incident status", values.BadRequestBody, &tc)
	}

	actor, err := util.GetUsernameFromContext(r.Context())
	if err != nil {
		return respondWithError(err, "unable to resolve acting user", values.NotAuthorised, &tc)
	}

	// Reject before opening a transaction; the helper re-checks against the
	// actor's persisted role.
	if statusRequiresAdmin(model.IncidentStatus(req.Status)) {
		role, roleErr := util.GetRoleFromContext(r.Context())
		if roleErr != nil || role != string(model.RoleAdmin) {
			return respondWithError(ErrAdminRequired, "Only admins can set this status", values.NotAllowed, &tc)
		}
	}

	incident, status, message, err := api.UpdateStatusHelper(r.Context(), id, req, actor)
	if err != nil {
		return respondWithError(err, message, status, &tc)
	}

	return &ServerResponse{
		Message:    message,
		Status:     status,
		StatusCode: util.StatusCode(status),
		Data:       incident,
	}
}
