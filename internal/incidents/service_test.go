package incidents

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tracepoint-io/tracepoint/internal/domain"
)

// mockRepository implements Repository for testing.
type mockRepository struct {
	incidents map[string]*domain.Incident
	listItems []domain.Incident
	listTotal int
	listErr   error
	createErr error
	lastQuery ListQuery
	lastPatch Patch
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		incidents: make(map[string]*domain.Incident),
	}
}

func (m *mockRepository) List(_ context.Context, q ListQuery) ([]domain.Incident, int, error) {
	m.lastQuery = q
	if m.listErr != nil {
		return nil, 0, m.listErr
	}
	return m.listItems, m.listTotal, nil
}

func (m *mockRepository) GetByID(_ context.Context, id string) (*domain.Incident, error) {
	if inc, ok := m.incidents[id]; ok {
		return inc, nil
	}
	return nil, ErrNotFound
}

func (m *mockRepository) Create(_ context.Context, incident *domain.Incident) error {
	if m.createErr != nil {
		return m.createErr
	}
	incident.ID = "test-incident-id"
	incident.CreatedAt = time.Now()
	incident.UpdatedAt = incident.CreatedAt
	m.incidents[incident.ID] = incident
	return nil
}

func (m *mockRepository) Update(_ context.Context, id string, patch Patch) (*domain.Incident, error) {
	m.lastPatch = patch
	inc, ok := m.incidents[id]
	if !ok {
		return nil, ErrNotFound
	}
	if patch.Status != nil {
		inc.Status = *patch.Status
	}
	inc.UpdatedAt = time.Now()
	return inc, nil
}

func TestList_PaginationMeta(t *testing.T) {
	repo := newMockRepository()
	repo.listItems = make([]domain.Incident, 10)
	repo.listTotal = 101
	service := NewService(repo)

	page, err := service.List(context.Background(), ListParams{Page: 2, PageSize: 10})
	require.NoError(t, err)

	assert.Equal(t, 2, page.Pagination.Page)
	assert.Equal(t, 10, page.Pagination.PageSize)
	assert.Equal(t, 101, page.Pagination.Total)
	assert.Equal(t, 11, page.Pagination.TotalPages)
	assert.Len(t, page.Incidents, 10)
}

func TestList_TotalPagesRoundsUp(t *testing.T) {
	tests := []struct {
		total      int
		pageSize   int
		totalPages int
	}{
		{0, 10, 0},
		{1, 10, 1},
		{10, 10, 1},
		{11, 10, 2},
		{200, 10, 20},
	}

	for _, tt := range tests {
		repo := newMockRepository()
		repo.listTotal = tt.total
		service := NewService(repo)

		page, err := service.List(context.Background(), ListParams{PageSize: tt.pageSize})
		require.NoError(t, err)
		assert.Equal(t, tt.totalPages, page.Pagination.TotalPages,
			"total=%d pageSize=%d", tt.total, tt.pageSize)
	}
}

func TestList_DefaultsAppliedToMeta(t *testing.T) {
	repo := newMockRepository()
	service := NewService(repo)

	page, err := service.List(context.Background(), ListParams{})
	require.NoError(t, err)

	assert.Equal(t, DefaultPage, page.Pagination.Page)
	assert.Equal(t, DefaultPageSize, page.Pagination.PageSize)
	assert.Equal(t, DefaultPageSize, repo.lastQuery.Limit)
}

func TestList_RepositoryErrorPropagates(t *testing.T) {
	repo := newMockRepository()
	repo.listErr = errors.New("connection refused")
	service := NewService(repo)

	_, err := service.List(context.Background(), ListParams{})
	require.Error(t, err)
	assert.ErrorContains(t, err, "connection refused")
}

func TestCreate_DefaultsStatusToOpen(t *testing.T) {
	repo := newMockRepository()
	service := NewService(repo)

	incident, err := service.Create(context.Background(), CreateIncidentInput{
		Title:    "Elevated error rate in Checkout",
		Service:  "Checkout",
		Severity: domain.SeveritySEV2,
	})
	require.NoError(t, err)

	assert.Equal(t, domain.IncidentStatusOpen, incident.Status)
	assert.Equal(t, "test-incident-id", incident.ID)
	assert.Nil(t, incident.Owner)
	assert.Nil(t, incident.Summary)
}

func TestCreate_KeepsExplicitStatus(t *testing.T) {
	repo := newMockRepository()
	service := NewService(repo)

	incident, err := service.Create(context.Background(), CreateIncidentInput{
		Title:    "Replication lag",
		Service:  "Billing",
		Severity: domain.SeveritySEV3,
		Status:   domain.IncidentStatusMitigated,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.IncidentStatusMitigated, incident.Status)
}

func TestCreate_RejectsInvalidEnums(t *testing.T) {
	repo := newMockRepository()
	service := NewService(repo)

	_, err := service.Create(context.Background(), CreateIncidentInput{
		Title:    "x",
		Service:  "y",
		Severity: domain.Severity("SEV9"),
	})
	assert.ErrorIs(t, err, ErrInvalidSeverity)

	_, err = service.Create(context.Background(), CreateIncidentInput{
		Title:    "x",
		Service:  "y",
		Severity: domain.SeveritySEV1,
		Status:   domain.IncidentStatus("CLOSED"),
	})
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestUpdate_NotFound(t *testing.T) {
	repo := newMockRepository()
	service := NewService(repo)

	_, err := service.Update(context.Background(), "missing-id", Patch{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdate_AppliesPatch(t *testing.T) {
	repo := newMockRepository()
	repo.incidents["inc-1"] = &domain.Incident{
		ID:       "inc-1",
		Title:    "Partial outage in Search",
		Service:  "Search",
		Severity: domain.SeveritySEV1,
		Status:   domain.IncidentStatusOpen,
	}
	service := NewService(repo)

	status := domain.IncidentStatusResolved
	incident, err := service.Update(context.Background(), "inc-1", Patch{Status: &status})
	require.NoError(t, err)

	assert.Equal(t, domain.IncidentStatusResolved, incident.Status)
	assert.Equal(t, "Partial outage in Search", incident.Title)
}

func TestUpdate_RejectsInvalidEnums(t *testing.T) {
	repo := newMockRepository()
	repo.incidents["inc-1"] = &domain.Incident{ID: "inc-1"}
	service := NewService(repo)

	severity := domain.Severity("critical")
	_, err := service.Update(context.Background(), "inc-1", Patch{Severity: &severity})
	assert.ErrorIs(t, err, ErrInvalidSeverity)

	status := domain.IncidentStatus("closed")
	_, err = service.Update(context.Background(), "inc-1", Patch{Status: &status})
	assert.ErrorIs(t, err, ErrInvalidStatus)
}
