package rest

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/vberk/incident_triage_api/util"
	"github.com/vberk/incident_triage_api/util/tracing"
	"github.com/vberk/incident_triage_api/util/values"
)

func (api *API) DashboardRoutes() chi.Router {
	mux := chi.NewRouter()

	mux.Group(func(r chi.Router) {
		r.Use(api.RequireLogin)
		r.Method(http.MethodGet, "/stats", Handler(api.GetDashboardStats))
	})

	return mux
}

func (api *API) GetDashboardStats(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	tc := r.Context().Value(values.ContextTracingKey).(tracing.Context)

	stats, err := api.GetDashboardStatsRepo(r.Context())
	if err != nil {
		return respondWithError(err, "Failed to compute dashboard stats", values.Error, &tc)
	}

	return &ServerResponse{
		Message:    "Dashboard stats retrieved",
		Status:     values.Success,
		StatusCode: util.StatusCode(values.Success),
		Data:       stats,
	}
}
