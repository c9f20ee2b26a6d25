// Package domain contains the core domain types.
package domain

import "time"

// Severity is the impact level of an incident.
type Severity string

const (
	SeveritySEV1 Severity = "SEV1"
	SeveritySEV2 Severity = "SEV2"
	SeveritySEV3 Severity = "SEV3"
	SeveritySEV4 Severity = "SEV4"
)

// IsValid checks if the severity value is valid.
func (s Severity) IsValid() bool {
	switch s {
	case SeveritySEV1, SeveritySEV2, SeveritySEV3, SeveritySEV4:
		return true
	}
	return false
}

// IncidentStatus is the lifecycle state of an incident.
type IncidentStatus string

const (
	IncidentStatusOpen      IncidentStatus = "OPEN"
	IncidentStatusMitigated IncidentStatus = "MITIGATED"
	IncidentStatusResolved  IncidentStatus = "RESOLVED"
)

// IsValid checks if the status value is valid.
func (s IncidentStatus) IsValid() bool {
	switch s {
	case IncidentStatusOpen, IncidentStatusMitigated, IncidentStatusResolved:
		return true
	}
	return false
}

// Incident is a tracked production incident. Owner and Summary are
// optional and serialize as null when absent.
type Incident struct {
	ID        string         `json:"id"`
	Title     string         `json:"title"`
	Service   string         `json:"service"`
	Severity  Severity       `json:"severity"`
	Status    IncidentStatus `json:"status"`
	Owner     *string        `json:"owner"`
	Summary   *string        `json:"summary"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
}
