// Package incidents implements the incident tracking module: listing with
// pagination/filter/search/sort, creation, and partial updates.
package incidents

import (
	"context"
	"fmt"

	"github.com/tracepoint-io/tracepoint/internal/domain"
)

// Service implements incident business logic. It is stateless: no
// incident data is cached across requests.
type Service struct {
	repo Repository
}

// NewService creates a new incident service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// PaginationMeta describes the position of a page within the full
// filtered result set.
type PaginationMeta struct {
	Page       int `json:"page"`
	PageSize   int `json:"pageSize"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// IncidentPage is one page of incidents plus pagination metadata.
type IncidentPage struct {
	Incidents  []domain.Incident `json:"incidents"`
	Pagination PaginationMeta    `json:"pagination"`
}

// CreateIncidentInput holds data for creating an incident.
type CreateIncidentInput struct {
	Title    string
	Service  string
	Severity domain.Severity
	Status   domain.IncidentStatus // empty defaults to OPEN
	Owner    *string
	Summary  *string
}

// List returns the incidents matching params with pagination metadata.
func (s *Service) List(ctx context.Context, params ListParams) (*IncidentPage, error) {
	query := BuildListQuery(params)

	items, total, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list incidents: %w", err)
	}

	page := params.Page
	if page < 1 {
		page = DefaultPage
	}
	pageSize := params.PageSize
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}

	return &IncidentPage{
		Incidents: items,
		Pagination: PaginationMeta{
			Page:       page,
			PageSize:   pageSize,
			Total:      total,
			TotalPages: (total + pageSize - 1) / pageSize,
		},
	}, nil
}

// Get returns a single incident by id.
func (s *Service) Get(ctx context.Context, id string) (*domain.Incident, error) {
	return s.repo.GetByID(ctx, id)
}

// Create persists a new incident. The store assigns id and timestamps;
// status defaults to OPEN when omitted.
func (s *Service) Create(ctx context.Context, input CreateIncidentInput) (*domain.Incident, error) {
	if !input.Severity.IsValid() {
		return nil, ErrInvalidSeverity
	}

	status := input.Status
	if status == "" {
		status = domain.IncidentStatusOpen
	}
	if !status.IsValid() {
		return nil, ErrInvalidStatus
	}

	incident := &domain.Incident{
		Title:    input.Title,
		Service:  input.Service,
		Severity: input.Severity,
		Status:   status,
		Owner:    input.Owner,
		Summary:  input.Summary,
	}

	if err := s.repo.Create(ctx, incident); err != nil {
		return nil, fmt.Errorf("create incident: %w", err)
	}
	return incident, nil
}

// Update applies a partial update. Existence is checked first so callers
// get an unambiguous NotFound; the check-then-write pair is not atomic,
// and a deletion between the two surfaces as NotFound from the store.
func (s *Service) Update(ctx context.Context, id string, patch Patch) (*domain.Incident, error) {
	if patch.Severity != nil && !patch.Severity.IsValid() {
		return nil, ErrInvalidSeverity
	}
	if patch.Status != nil && !patch.Status.IsValid() {
		return nil, ErrInvalidStatus
	}

	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return nil, err
	}

	incident, err := s.repo.Update(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	return incident, nil
}
