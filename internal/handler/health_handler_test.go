package handler

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/kursadbilgin/bulk-submission-engine/internal/observability"
	"github.com/kursadbilgin/bulk-submission-engine/internal/transport"
)

func TestHealthIntegration_LivezAndReadyz(t *testing.T) {
	t.Parallel()

	newApp := func(t *testing.T, pgErr, redisErr error, broker BrokerChecker) *fiber.App {
		t.Helper()

		sqlDB := sql.OpenDB(stubConnector{pingErr: pgErr})
		t.Cleanup(func() { _ = sqlDB.Close() })

		rdb := newStubRedisClient(redisErr)
		t.Cleanup(func() { _ = rdb.Close() })

		app := fiber.New(fiber.Config{ErrorHandler: transport.ErrorHandler(zap.NewNop())})
		RegisterHealthRoutes(app, sqlDB, rdb, broker, nil)
		return app
	}

	t.Run("livez returns 200", func(t *testing.T) {
		t.Parallel()

		resp, body := performRequest(t, newApp(t, nil, nil, nil), http.MethodGet, "/livez", "")
		if resp.StatusCode != fiber.StatusOK {
			t.Fatalf("status = %d, want 200, body=%s", resp.StatusCode, string(body))
		}
	})

	tests := []struct {
		name       string
		pgErr      error
		redisErr   error
		broker     BrokerChecker
		wantStatus int
		wantChecks map[string]string
	}{
		{
			name:       "all healthy",
			broker:     stubBroker(true),
			wantStatus: fiber.StatusOK,
			wantChecks: map[string]string{"postgres": "ok", "redis": "ok", "rabbitmq": "ok"},
		},
		{
			name:       "broker not checked when absent",
			wantStatus: fiber.StatusOK,
			wantChecks: map[string]string{"postgres": "ok", "redis": "ok"},
		},
		{
			name:       "postgres and redis down",
			pgErr:      errors.New("postgres down"),
			redisErr:   errors.New("redis down"),
			broker:     stubBroker(true),
			wantStatus: fiber.StatusServiceUnavailable,
			wantChecks: map[string]string{"postgres": "down", "redis": "down", "rabbitmq": "ok"},
		},
		{
			name:       "broker disconnected",
			broker:     stubBroker(false),
			wantStatus: fiber.StatusServiceUnavailable,
			wantChecks: map[string]string{"postgres": "ok", "redis": "ok", "rabbitmq": "down"},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run("readyz "+tt.name, func(t *testing.T) {
			t.Parallel()

			resp, body := performRequest(t, newApp(t, tt.pgErr, tt.redisErr, tt.broker), http.MethodGet, "/readyz", "")
			if resp.StatusCode != tt.wantStatus {
				t.Fatalf("status = %d, want %d, body=%s", resp.StatusCode, tt.wantStatus, string(body))
			}

			var parsed struct {
				Checks map[string]string `json:"checks"`
			}
			if err := json.Unmarshal(body, &parsed); err != nil {
				t.Fatalf("json unmarshal error = %v", err)
			}
			if len(parsed.Checks) != len(tt.wantChecks) {
				t.Fatalf("checks = %v, want %v", parsed.Checks, tt.wantChecks)
			}
			for name, want := range tt.wantChecks {
				if parsed.Checks[name] != want {
					t.Fatalf("checks[%s] = %q, want %q", name, parsed.Checks[name], want)
				}
			}
		})
	}
}

func TestHealthIntegration_Metrics(t *testing.T) {
	t.Parallel()

	sqlDB := sql.OpenDB(stubConnector{})
	t.Cleanup(func() { _ = sqlDB.Close() })
	rdb := newStubRedisClient(nil)
	t.Cleanup(func() { _ = rdb.Close() })

	metrics := observability.NewMetrics()
	metrics.IncBatchTransition("Processing")

	app := fiber.New(fiber.Config{ErrorHandler: transport.ErrorHandler(zap.NewNop())})
	RegisterHealthRoutes(app, sqlDB, rdb, nil, metrics.Handler())

	resp, body := performRequest(t, app, http.MethodGet, "/metrics", "")
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if !strings.Contains(string(body), "bulk_submission_batch_transitions_total") {
		t.Fatalf("metrics body does not expose batch transitions:\n%s", string(body))
	}
}
