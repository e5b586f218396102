package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vberk/incident_triage_api/util"
)

func TestCreateIncidentRequestRejectsMissingCoordinates(t *testing.T) {
	var req CreateIncidentRequest
	require.NoError(t, json.Unmarshal([]byte(`{"type":"FIRE","description":"smoke"}`), &req))

	assert.Error(t, util.ValidateStruct(req))
}

func TestCreateIncidentRequestAcceptsExplicitZeroCoordinates(t *testing.T) {
	var req CreateIncidentRequest
	body := `{"type":"FIRE","description":"smoke","latitude":0,"longitude":0}`
	require.NoError(t, json.Unmarshal([]byte(body), &req))

	assert.NoError(t, util.ValidateStruct(req))
}

func TestCreateIncidentRequestRejectsOutOfRangeCoordinates(t *testing.T) {
	var req CreateIncidentRequest
	body := `{"type":"FIRE","description":"smoke","latitude":91,"longitude":33}`
	require.NoError(t, json.Unmarshal([]byte(body), &req))

	assert.Error(t, util.ValidateStruct(req))
}

func TestConfirmIncidentRequestRejectsMissingCoordinates(t *testing.T) {
	var req ConfirmIncidentRequest
	require.NoError(t, json.Unmarshal([]byte(`{"incident_id":7}`), &req))

	assert.Error(t, util.ValidateStruct(req))
}

func TestConfirmIncidentRequestAcceptsFullBody(t *testing.T) {
	var req ConfirmIncidentRequest
	body := `{"incident_id":7,"latitude":35.1856,"longitude":33.3823,"username":"mira"}`
	require.NoError(t, json.Unmarshal([]byte(body), &req))

	assert.NoError(t, util.ValidateStruct(req))
}
