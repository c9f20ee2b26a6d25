// Package postgres provides the PostgreSQL implementation of the
// incidents repository.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tracepoint-io/tracepoint/internal/domain"
	"github.com/tracepoint-io/tracepoint/internal/incidents"
	pgutil "github.com/tracepoint-io/tracepoint/internal/pkg/postgres"
)

const incidentColumns = "id, title, service, severity, status, owner, summary, created_at, updated_at"

// Repository implements the incidents.Repository interface using
// PostgreSQL. Transient connectivity failures are retried at this
// boundary; all other errors propagate unmodified.
type Repository struct {
	db    *pgxpool.Pool
	retry pgutil.RetryPolicy
}

// NewRepository creates a new PostgreSQL repository with the default
// retry policy.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db, retry: pgutil.DefaultRetryPolicy()}
}

// NewRepositoryWithRetry creates a repository with a custom retry policy.
func NewRepositoryWithRetry(db *pgxpool.Pool, retry pgutil.RetryPolicy) *Repository {
	return &Repository{db: db, retry: retry}
}

// List returns one ordered page of incidents matching the query plus
// the total count matching the same filter. Count and page run over one
// read transaction so both see the same filter logic; minor staleness
// under concurrent writes is acceptable.
func (r *Repository) List(ctx context.Context, q incidents.ListQuery) ([]domain.Incident, int, error) {
	var (
		items []domain.Incident
		total int
	)

	err := r.retry.Do(ctx, "list_incidents", func(ctx context.Context) error {
		items, total = nil, 0

		tx, err := r.db.BeginTx(ctx, pgx.TxOptions{AccessMode: pgx.ReadOnly})
		if err != nil {
			return fmt.Errorf("begin list transaction: %w", err)
		}
		defer func() {
			if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
				slog.Error("failed to rollback transaction", "error", err)
			}
		}()

		where, args := buildWhere(q.Conditions)

		if err := tx.QueryRow(ctx, "SELECT COUNT(*) FROM incidents"+where, args...).Scan(&total); err != nil {
			return fmt.Errorf("count incidents: %w", err)
		}

		direction := "ASC"
		if q.Descending {
			direction = "DESC"
		}

		// q.OrderBy only ever holds a whitelisted column name.
		query := fmt.Sprintf(
			"SELECT %s FROM incidents%s ORDER BY %s %s, id LIMIT $%d OFFSET $%d",
			incidentColumns, where, q.OrderBy, direction, len(args)+1, len(args)+2,
		)
		listArgs := append(append([]interface{}{}, args...), q.Limit, q.Skip)

		rows, err := tx.Query(ctx, query, listArgs...)
		if err != nil {
			return fmt.Errorf("list incidents: %w", err)
		}
		defer rows.Close()

		items = make([]domain.Incident, 0, q.Limit)
		for rows.Next() {
			var inc domain.Incident
			if err := scanIncident(rows, &inc); err != nil {
				return fmt.Errorf("scan incident: %w", err)
			}
			items = append(items, inc)
		}
		if err := rows.Err(); err != nil {
			return fmt.Errorf("iterate incidents: %w", err)
		}

		return tx.Commit(ctx)
	})
	if err != nil {
		return nil, 0, err
	}

	return items, total, nil
}

// GetByID retrieves an incident by its id.
func (r *Repository) GetByID(ctx context.Context, id string) (*domain.Incident, error) {
	var inc domain.Incident

	err := r.retry.Do(ctx, "get_incident", func(ctx context.Context) error {
		row := r.db.QueryRow(ctx,
			"SELECT "+incidentColumns+" FROM incidents WHERE id = $1", id)
		if err := scanIncident(row, &inc); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return incidents.ErrNotFound
			}
			return fmt.Errorf("get incident by id: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &inc, nil
}

// Create persists a new incident. Identity and timestamps are assigned
// by the database and written back into the struct.
func (r *Repository) Create(ctx context.Context, incident *domain.Incident) error {
	query := `
		INSERT INTO incidents (title, service, severity, status, owner, summary)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`
	return r.retry.Do(ctx, "create_incident", func(ctx context.Context) error {
		err := r.db.QueryRow(ctx, query,
			incident.Title,
			incident.Service,
			incident.Severity,
			incident.Status,
			incident.Owner,
			incident.Summary,
		).Scan(&incident.ID, &incident.CreatedAt, &incident.UpdatedAt)
		if err != nil {
			return fmt.Errorf("create incident: %w", err)
		}
		return nil
	})
}

// Update applies only the fields present in the patch and refreshes
// updated_at, returning the full updated record.
func (r *Repository) Update(ctx context.Context, id string, patch incidents.Patch) (*domain.Incident, error) {
	set := []string{"updated_at = NOW()"}
	args := []interface{}{id}

	add := func(column string, value interface{}) {
		args = append(args, value)
		set = append(set, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.Title != nil {
		add("title", *patch.Title)
	}
	if patch.Service != nil {
		add("service", *patch.Service)
	}
	if patch.Severity != nil {
		add("severity", *patch.Severity)
	}
	if patch.Status != nil {
		add("status", *patch.Status)
	}
	if patch.Owner.Set {
		add("owner", patch.Owner.Value)
	}
	if patch.Summary.Set {
		add("summary", patch.Summary.Value)
	}

	query := fmt.Sprintf(
		"UPDATE incidents SET %s WHERE id = $1 RETURNING %s",
		strings.Join(set, ", "), incidentColumns,
	)

	var inc domain.Incident
	err := r.retry.Do(ctx, "update_incident", func(ctx context.Context) error {
		row := r.db.QueryRow(ctx, query, args...)
		if err := scanIncident(row, &inc); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return incidents.ErrNotFound
			}
			return fmt.Errorf("update incident: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &inc, nil
}

// DeleteAll wipes the incidents table. Administrative operation used by
// the seeder only; not part of the public HTTP contract.
func (r *Repository) DeleteAll(ctx context.Context) (int64, error) {
	var deleted int64
	err := r.retry.Do(ctx, "delete_all_incidents", func(ctx context.Context) error {
		result, err := r.db.Exec(ctx, "DELETE FROM incidents")
		if err != nil {
			return fmt.Errorf("delete incidents: %w", err)
		}
		deleted = result.RowsAffected()
		return nil
	})
	return deleted, err
}

func scanIncident(row pgx.Row, inc *domain.Incident) error {
	return row.Scan(
		&inc.ID,
		&inc.Title,
		&inc.Service,
		&inc.Severity,
		&inc.Status,
		&inc.Owner,
		&inc.Summary,
		&inc.CreatedAt,
		&inc.UpdatedAt,
	)
}

// buildWhere renders the condition conjunction as a parameterized WHERE
// clause. Column names in conditions come from the query builder and are
// never user input.
func buildWhere(conditions []incidents.Condition) (string, []interface{}) {
	if len(conditions) == 0 {
		return "", nil
	}

	clauses := make([]string, 0, len(conditions))
	args := make([]interface{}, 0, len(conditions))

	for _, c := range conditions {
		switch c := c.(type) {
		case incidents.SearchCondition:
			pattern := "%" + escapeLike(c.Term) + "%"
			args = append(args, pattern)
			clauses = append(clauses, fmt.Sprintf(
				"(title ILIKE $%d OR summary ILIKE $%d)", len(args), len(args)))
		case incidents.ExactCondition:
			args = append(args, c.Value)
			clauses = append(clauses, fmt.Sprintf("%s = $%d", c.Column, len(args)))
		case incidents.SetCondition:
			args = append(args, c.Values)
			clauses = append(clauses, fmt.Sprintf("%s = ANY($%d)", c.Column, len(args)))
		}
	}

	return " WHERE " + strings.Join(clauses, " AND "), args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike escapes LIKE metacharacters so the search term matches
// literally.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
