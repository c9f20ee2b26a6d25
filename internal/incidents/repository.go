package incidents

import (
	"context"
	"encoding/json"

	"github.com/tracepoint-io/tracepoint/internal/domain"
)

// Repository defines the interface for incident storage.
type Repository interface {
	// List returns the page of incidents matching the query plus the
	// total count matching the same filter, ignoring pagination.
	List(ctx context.Context, q ListQuery) ([]domain.Incident, int, error)
	GetByID(ctx context.Context, id string) (*domain.Incident, error)
	Create(ctx context.Context, incident *domain.Incident) error
	Update(ctx context.Context, id string, patch Patch) (*domain.Incident, error)
}

// Patch holds the fields of a partial update. Nil pointers and unset
// optionals leave the stored value untouched.
type Patch struct {
	Title    *string
	Service  *string
	Severity *domain.Severity
	Status   *domain.IncidentStatus
	Owner    OptionalString
	Summary  OptionalString
}

// IsZero reports whether the patch carries no field at all.
func (p Patch) IsZero() bool {
	return p.Title == nil && p.Service == nil && p.Severity == nil &&
		p.Status == nil && !p.Owner.Set && !p.Summary.Set
}

// OptionalString is a nullable text field in a partial update. It
// distinguishes "absent" (Set false) from "explicitly null" (Set true,
// Value nil).
type OptionalString struct {
	Set   bool
	Value *string
}

// UnmarshalJSON marks the field as present; a JSON null leaves Value nil.
func (o *OptionalString) UnmarshalJSON(data []byte) error {
	o.Set = true
	if string(data) == "null" {
		o.Value = nil
		return nil
	}
	return json.Unmarshal(data, &o.Value)
}
