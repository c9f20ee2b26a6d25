//go:build integration

package integration

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tracepoint-io/tracepoint/internal/domain"
	"github.com/tracepoint-io/tracepoint/internal/incidents"
	"github.com/tracepoint-io/tracepoint/internal/testutil"
)

// incidentEnvelope matches the single-incident response shape.
type incidentEnvelope struct {
	Incident domain.Incident `json:"incident"`
}

// listEnvelope matches the list response shape.
type listEnvelope struct {
	Incidents  []domain.Incident        `json:"incidents"`
	Pagination incidents.PaginationMeta `json:"pagination"`
}

// errorEnvelope matches the error response shape.
type errorEnvelope struct {
	Status  string `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// createIncidentRequest mirrors the create request body. Pointers keep
// optional fields out of the payload when nil.
type createIncidentRequest struct {
	Title    string  `json:"title"`
	Service  string  `json:"service"`
	Severity string  `json:"severity"`
	Status   string  `json:"status,omitempty"`
	Owner    *string `json:"owner,omitempty"`
	Summary  *string `json:"summary,omitempty"`
}

// resetIncidents truncates the incidents table so a test starts from a
// known-empty state.
func resetIncidents(t *testing.T) {
	t.Helper()
	_, err := testDB.Exec(context.Background(), "TRUNCATE incidents")
	require.NoError(t, err)
}

// createTestIncident creates an incident via the API and returns it.
func createTestIncident(t *testing.T, client *testutil.Client, req createIncidentRequest) domain.Incident {
	t.Helper()

	resp, err := client.POST("/api/incidents", req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode, "create incident: %s", req.Title)

	var envelope incidentEnvelope
	testutil.DecodeJSON(t, resp, &envelope)
	return envelope.Incident
}

func ptr(s string) *string { return &s }
