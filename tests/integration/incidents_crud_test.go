//go:build integration

package integration

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tracepoint-io/tracepoint/internal/domain"
	"github.com/tracepoint-io/tracepoint/internal/testutil"
)

func TestCreateIncident_RoundTrip(t *testing.T) {
	client := newTestClient(t)

	created := createTestIncident(t, client, createIncidentRequest{
		Title:    "Login failures spiking",
		Service:  "Auth",
		Severity: "SEV2",
	})

	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "Login failures spiking", created.Title)
	assert.Equal(t, "Auth", created.Service)
	assert.Equal(t, domain.SeveritySEV2, created.Severity)
	assert.Equal(t, domain.IncidentStatusOpen, created.Status, "status defaults to OPEN")
	assert.Nil(t, created.Owner)
	assert.Nil(t, created.Summary)
	assert.False(t, created.CreatedAt.IsZero())
	assert.Equal(t, created.CreatedAt, created.UpdatedAt)

	resp, err := client.GET("/api/incidents/" + created.ID)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var fetched incidentEnvelope
	testutil.DecodeJSON(t, resp, &fetched)
	assert.Equal(t, created, fetched.Incident)
}

func TestCreateIncident_OptionalFields(t *testing.T) {
	client := newTestClient(t)

	created := createTestIncident(t, client, createIncidentRequest{
		Title:    "Replication lag in Billing datastore",
		Service:  "Billing",
		Severity: "SEV3",
		Status:   "MITIGATED",
		Owner:    ptr("alice"),
		Summary:  ptr("Failover to replica completed."),
	})

	assert.Equal(t, domain.IncidentStatusMitigated, created.Status)
	require.NotNil(t, created.Owner)
	assert.Equal(t, "alice", *created.Owner)
	require.NotNil(t, created.Summary)
	assert.Equal(t, "Failover to replica completed.", *created.Summary)
}

func TestCreateIncident_ValidationErrors(t *testing.T) {
	client := newTestClient(t)

	tests := []struct {
		name string
		req  createIncidentRequest
	}{
		{"missing title", createIncidentRequest{Service: "Auth", Severity: "SEV1"}},
		{"missing service", createIncidentRequest{Title: "x", Severity: "SEV1"}},
		{"invalid severity", createIncidentRequest{Title: "x", Service: "Auth", Severity: "SEV9"}},
		{"invalid status", createIncidentRequest{Title: "x", Service: "Auth", Severity: "SEV1", Status: "CLOSED"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := client.POST("/api/incidents", tt.req)
			require.NoError(t, err)
			require.Equal(t, http.StatusBadRequest, resp.StatusCode)

			var errResp errorEnvelope
			testutil.DecodeJSON(t, resp, &errResp)
			assert.Equal(t, "error", errResp.Status)
			assert.Equal(t, "VALIDATION_ERROR", errResp.Code)
		})
	}
}

func TestCreateIncident_MalformedBody(t *testing.T) {
	client := newTestClientWithoutValidation()

	resp, err := client.POSTRaw("/api/incidents", `{"title": "broken`)
	require.NoError(t, err)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var errResp errorEnvelope
	testutil.DecodeJSON(t, resp, &errResp)
	assert.Equal(t, "error", errResp.Status)
	assert.Equal(t, "PARSE_ERROR", errResp.Code)
}

func TestGetIncident_NotFound(t *testing.T) {
	client := newTestClient(t)

	resp, err := client.GET("/api/incidents/" + uuid.NewString())
	require.NoError(t, err)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	var errResp errorEnvelope
	testutil.DecodeJSON(t, resp, &errResp)
	assert.Equal(t, "error", errResp.Status)
	assert.Equal(t, "NOT_FOUND", errResp.Code)
	assert.Equal(t, "Incident not found", errResp.Message)
}

func TestGetIncident_InvalidID(t *testing.T) {
	client := newTestClient(t)

	resp, err := client.GET("/api/incidents/not-a-uuid")
	require.NoError(t, err)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var errResp errorEnvelope
	testutil.DecodeJSON(t, resp, &errResp)
	assert.Equal(t, "VALIDATION_ERROR", errResp.Code)
}

func TestUpdateIncident_PartialUpdate(t *testing.T) {
	client := newTestClient(t)

	created := createTestIncident(t, client, createIncidentRequest{
		Title:    "Search latency above SLO",
		Service:  "Search",
		Severity: "SEV1",
		Owner:    ptr("bob"),
	})

	resp, err := client.PATCH("/api/incidents/"+created.ID, map[string]interface{}{
		"status": "RESOLVED",
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var updated incidentEnvelope
	testutil.DecodeJSON(t, resp, &updated)

	assert.Equal(t, domain.IncidentStatusResolved, updated.Incident.Status)

	// Untouched fields survive.
	assert.Equal(t, created.Title, updated.Incident.Title)
	assert.Equal(t, created.Service, updated.Incident.Service)
	assert.Equal(t, created.Severity, updated.Incident.Severity)
	require.NotNil(t, updated.Incident.Owner)
	assert.Equal(t, "bob", *updated.Incident.Owner)

	assert.Equal(t, created.CreatedAt, updated.Incident.CreatedAt)
	assert.True(t, updated.Incident.UpdatedAt.After(created.UpdatedAt),
		"updatedAt must advance on update")
}

func TestUpdateIncident_ClearsOwnerWithNull(t *testing.T) {
	client := newTestClient(t)

	created := createTestIncident(t, client, createIncidentRequest{
		Title:    "CDN cache hit rate dropped",
		Service:  "CDN",
		Severity: "SEV4",
		Owner:    ptr("carol"),
		Summary:  ptr("Investigating origin load."),
	})

	resp, err := client.PATCH("/api/incidents/"+created.ID, map[string]interface{}{
		"owner": nil,
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var updated incidentEnvelope
	testutil.DecodeJSON(t, resp, &updated)

	assert.Nil(t, updated.Incident.Owner, "explicit null clears owner")
	require.NotNil(t, updated.Incident.Summary, "absent summary stays untouched")
	assert.Equal(t, "Investigating origin load.", *updated.Incident.Summary)
}

func TestUpdateIncident_NotFound(t *testing.T) {
	client := newTestClient(t)

	resp, err := client.PATCH("/api/incidents/"+uuid.NewString(), map[string]interface{}{
		"status": "RESOLVED",
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	var errResp errorEnvelope
	testutil.DecodeJSON(t, resp, &errResp)
	assert.Equal(t, "NOT_FOUND", errResp.Code)
}

func TestUpdateIncident_InvalidEnum(t *testing.T) {
	client := newTestClient(t)

	created := createTestIncident(t, client, createIncidentRequest{
		Title:    "Queue backlog growing",
		Service:  "Notifications",
		Severity: "SEV3",
	})

	resp, err := client.PATCH("/api/incidents/"+created.ID, map[string]interface{}{
		"severity": "critical",
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var errResp errorEnvelope
	testutil.DecodeJSON(t, resp, &errResp)
	assert.Equal(t, "VALIDATION_ERROR", errResp.Code)
}
