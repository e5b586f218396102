package rest

import (
	"log"
	"net/http"

	"github.com/vberk/incident_triage_api/util"
	"github.com/vberk/incident_triage_api/util/tracing"
)

type ServerResponse struct {
	Message    string      `json:"message"`
	Status     string      `json:"status"`
	StatusCode int         `json:"-"`
	Data       interface{} `json:"data,omitempty"`
}

func respondWithError(err error, message string, status string, tc *tracing.Context) *ServerResponse {
	if err != nil {
		log.Printf("[%s] %s: %v", tc.RequestID, message, err)
	}
	return &ServerResponse{
		Message:    message,
		Status:     status,
		StatusCode: util.StatusCode(status),
	}
}

func writeJSONResponse(w http.ResponseWriter, body []byte, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_, _ = w.Write(body)
}

func writeErrorResponse(w http.ResponseWriter, err error, status string, message string) {
	log.Printf("%s: %v", message, err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(util.StatusCode(status))
	_, _ = w.Write([]byte(`{"status":"` + status + `","message":"` + message + `"}`))
}
