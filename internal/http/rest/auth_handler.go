package rest

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/vberk/incident_triage_api/internal/model"
	"github.com/vberk/incident_triage_api/util"
	"github.com/vberk/incident_triage_api/util/tracing"
	"github.com/vberk/incident_triage_api/util/values"
)

func (api *API) AuthRoutes() chi.Router {
	mux := chi.NewRouter()

	mux.Method(http.MethodPost, "/login", Handler(api.Login))

	return mux
}

func (api *API) Login(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	tc := r.Context().Value(values.ContextTracingKey).(tracing.Context)

	var req model.LoginRequest
	if decodeErr := util.DecodeJSONBody(&tc, r.Body, &req); decodeErr != nil {
		return respondWithError(decodeErr, "unable to decode request", values.BadRequestBody, &tc)
	}

	if err := util.ValidateStruct(req); err != nil {
		return respondWithError(err, "username and password are required", values.BadRequestBody, &tc)
	}

	resp, status, message, err := api.LoginHelper(r.Context(), req)
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
