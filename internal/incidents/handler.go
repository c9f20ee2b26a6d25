package incidents

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/tracepoint-io/tracepoint/internal/domain"
	"github.com/tracepoint-io/tracepoint/internal/pkg/httputil"
)

// Handler handles HTTP requests for the incidents module.
type Handler struct {
	service   *Service
	validator *validator.Validate
}

// NewHandler creates a new incidents handler.
func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: validator.New(),
	}
}

// RegisterRoutes registers all HTTP routes for the incidents module.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/incidents", func(r chi.Router) {
		r.Get("/", h.ListIncidents)
		r.Post("/", h.CreateIncident)
		r.Get("/{id}", h.GetIncident)
		r.Patch("/{id}", h.UpdateIncident)
	})
}

// CreateIncidentRequest represents the request body for creating an incident.
type CreateIncidentRequest struct {
	Title    string  `json:"title" validate:"required"`
	Service  string  `json:"service" validate:"required"`
	Severity string  `json:"severity" validate:"required,oneof=SEV1 SEV2 SEV3 SEV4"`
	Status   string  `json:"status" validate:"omitempty,oneof=OPEN MITIGATED RESOLVED"`
	Owner    *string `json:"owner"`
	Summary  *string `json:"summary"`
}

// ToInput converts the request to a service input.
func (r *CreateIncidentRequest) ToInput() CreateIncidentInput {
	return CreateIncidentInput{
		Title:    r.Title,
		Service:  r.Service,
		Severity: domain.Severity(r.Severity),
		Status:   domain.IncidentStatus(r.Status),
		Owner:    r.Owner,
		Summary:  r.Summary,
	}
}

// UpdateIncidentRequest represents the request body for a partial update.
// owner and summary accept an explicit null to clear the stored value.
type UpdateIncidentRequest struct {
	Title    *string        `json:"title" validate:"omitempty,min=1"`
	Service  *string        `json:"service" validate:"omitempty,min=1"`
	Severity *string        `json:"severity" validate:"omitempty,oneof=SEV1 SEV2 SEV3 SEV4"`
	Status   *string        `json:"status" validate:"omitempty,oneof=OPEN MITIGATED RESOLVED"`
	Owner    OptionalString `json:"owner"`
	Summary  OptionalString `json:"summary"`
}

// ToPatch converts the request to a store patch.
func (r *UpdateIncidentRequest) ToPatch() Patch {
	patch := Patch{
		Title:   r.Title,
		Service: r.Service,
		Owner:   r.Owner,
		Summary: r.Summary,
	}
	if r.Severity != nil {
		severity := domain.Severity(*r.Severity)
		patch.Severity = &severity
	}
	if r.Status != nil {
		status := domain.IncidentStatus(*r.Status)
		patch.Status = &status
	}
	return patch
}

// ListIncidents handles GET /incidents.
func (h *Handler) ListIncidents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	params := ListParams{
		Page:      DefaultPage,
		PageSize:  DefaultPageSize,
		Search:    q.Get("search"),
		Service:   q.Get("service"),
		SortBy:    q.Get("sortBy"),
		SortOrder: q.Get("sortOrder"),
	}

	if v := q.Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			httputil.Error(w, http.StatusBadRequest, httputil.CodeValidationError,
				"page must be an integer >= 1")
			return
		}
		params.Page = n
	}

	if v := q.Get("pageSize"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > MaxPageSize {
			httputil.Error(w, http.StatusBadRequest, httputil.CodeValidationError,
				"pageSize must be an integer between 1 and 100")
			return
		}
		params.PageSize = n
	}

	for _, v := range splitList(q.Get("severity")) {
		params.Severity = append(params.Severity, domain.Severity(v))
	}
	for _, v := range splitList(q.Get("status")) {
		params.Status = append(params.Status, domain.IncidentStatus(v))
	}

	result, err := h.service.List(r.Context(), params)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.JSON(w, http.StatusOK, result)
}

// GetIncident handles GET /incidents/{id}.
func (h *Handler) GetIncident(w http.ResponseWriter, r *http.Request) {
	id, ok := h.incidentID(w, r)
	if !ok {
		return
	}

	incident, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.JSON(w, http.StatusOK, map[string]interface{}{"incident": incident})
}

// CreateIncident handles POST /incidents.
func (h *Handler) CreateIncident(w http.ResponseWriter, r *http.Request) {
	var req CreateIncidentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, httputil.CodeParseError, "Invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		httputil.ValidationError(w, err)
		return
	}

	incident, err := h.service.Create(r.Context(), req.ToInput())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.JSON(w, http.StatusOK, map[string]interface{}{"incident": incident})
}

// UpdateIncident handles PATCH /incidents/{id}.
func (h *Handler) UpdateIncident(w http.ResponseWriter, r *http.Request) {
	id, ok := h.incidentID(w, r)
	if !ok {
		return
	}

	var req UpdateIncidentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, httputil.CodeParseError, "Invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		httputil.ValidationError(w, err)
		return
	}

	incident, err := h.service.Update(r.Context(), id, req.ToPatch())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.JSON(w, http.StatusOK, map[string]interface{}{"incident": incident})
}

// incidentID extracts and validates the id path parameter. A malformed
// id is rejected before it reaches the store.
func (h *Handler) incidentID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		httputil.Error(w, http.StatusBadRequest, httputil.CodeValidationError,
			"id must be a valid UUID")
		return "", false
	}
	return id, true
}

// splitList splits a comma-separated query value, dropping empty items.
func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (h *Handler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	httputil.HandleError(r.Context(), w, err, []httputil.ErrorMapping{
		{Error: ErrNotFound, Status: http.StatusNotFound, Code: httputil.CodeNotFound, Message: "Incident not found"},
		{Error: ErrInvalidSeverity, Status: http.StatusBadRequest, Code: httputil.CodeValidationError},
		{Error: ErrInvalidStatus, Status: http.StatusBadRequest, Code: httputil.CodeValidationError},
	})
}
