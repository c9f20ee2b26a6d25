// Command seed wipes the incidents table and fills it with generated
// sample data for local development and load testing.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/tracepoint-io/tracepoint/internal/config"
	incidentspostgres "github.com/tracepoint-io/tracepoint/internal/incidents/postgres"
	"github.com/tracepoint-io/tracepoint/internal/pkg/postgres"
)

var services = []string{
	"API Gateway", "Auth", "Billing", "Search", "Notifications",
	"Checkout", "Inventory", "Payments", "Reporting", "CDN",
}

var titleTemplates = []string{
	"Elevated error rate in {service}",
	"{service} latency above SLO",
	"{service} returning 5xx responses",
	"Database connection pool exhausted in {service}",
	"{service} deployment rollback required",
	"Memory leak detected in {service}",
	"{service} queue backlog growing",
	"Certificate expiry warning for {service}",
	"{service} intermittent timeouts",
	"Disk usage critical on {service} nodes",
	"{service} cache hit rate dropped",
	"Failed health checks in {service}",
	"{service} rate limiting upstream traffic",
	"Partial outage in {service}",
	"{service} configuration drift detected",
	"Replication lag in {service} datastore",
	"{service} circuit breaker tripping",
	"Unexpected restart loop in {service}",
	"{service} DNS resolution failures",
	"Thread pool saturation in {service}",
}

var qualifiers = []string{"", "", "", " (#%d)", " - %s region", " (recurring)"}

var owners = []*string{
	ptr("alice"), ptr("bob"), ptr("carol"), ptr("dmitri"), ptr("eve"),
	ptr("frank"), nil, nil,
}

var regions = []string{"us-east", "eu-west", "ap-south"}

func ptr(s string) *string { return &s }

// pickWeighted returns values[i] with probability weights[i]/sum(weights).
func pickWeighted[T any](rng *rand.Rand, values []T, weights []int) T {
	total := 0
	for _, w := range weights {
		total += w
	}
	n := rng.Intn(total)
	for i, w := range weights {
		if n < w {
			return values[i]
		}
		n -= w
	}
	return values[len(values)-1]
}

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	count := flag.Int("count", 200, "number of incidents to generate")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	db, err := postgres.Connect(ctx, postgres.Config{
		URL:             cfg.Database.URL,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
		ConnectAttempts: cfg.Database.ConnectAttempts,
	})
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	repo := incidentspostgres.NewRepository(db)
	deleted, err := repo.DeleteAll(ctx)
	if err != nil {
		slog.Error("failed to wipe incidents", "error", err)
		os.Exit(1)
	}
	slog.Info("wiped incidents table", "deleted", deleted)

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	rows := make([][]interface{}, 0, *count)
	now := time.Now()

	for i := 0; i < *count; i++ {
		service := services[rng.Intn(len(services))]
		title := strings.ReplaceAll(titleTemplates[rng.Intn(len(titleTemplates))], "{service}", service)

		switch q := qualifiers[rng.Intn(len(qualifiers))]; {
		case strings.Contains(q, "#"):
			title += fmt.Sprintf(q, rng.Intn(900)+100)
		case strings.Contains(q, "%s"):
			title += fmt.Sprintf(q, regions[rng.Intn(len(regions))])
		default:
			title += q
		}

		severity := pickWeighted(rng,
			[]string{"SEV1", "SEV2", "SEV3", "SEV4"},
			[]int{15, 20, 30, 35})
		status := pickWeighted(rng,
			[]string{"OPEN", "MITIGATED", "RESOLVED"},
			[]int{40, 25, 35})

		var summary *string
		if rng.Intn(100) >= 20 {
			summary = ptr(fmt.Sprintf(
				"Investigating impact on %s. Error budget burn observed, mitigation in progress.",
				service))
		}

		createdAt := now.Add(-time.Duration(rng.Int63n(int64(90 * 24 * time.Hour))))

		rows = append(rows, []interface{}{
			uuid.NewString(), title, service, severity, status,
			owners[rng.Intn(len(owners))], summary, createdAt, createdAt,
		})
	}

	inserted, err := db.CopyFrom(ctx,
		pgx.Identifier{"incidents"},
		[]string{"id", "title", "service", "severity", "status", "owner", "summary", "created_at", "updated_at"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		slog.Error("failed to insert incidents", "error", err)
		os.Exit(1)
	}

	slog.Info("seeded incidents", "count", inserted)
}
