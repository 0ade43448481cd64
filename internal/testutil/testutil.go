// Package testutil holds helpers shared by integration tests.
package testutil

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/northbeam/leadsite/internal/migrate"
	"github.com/northbeam/leadsite/internal/model"
	"github.com/northbeam/leadsite/migrations"
)

// RequireEnv returns an environment variable or skips the test if missing.
func RequireEnv(t testing.TB, key string) string {
	t.Helper()
	value := os.Getenv(key)
	if value == "" {
		t.Skipf("%s not set", key)
	}
	return value
}

// DiscardLogger returns a logger that drops everything.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

const advisoryLockID int64 = 420420

// AcquireDBLock grabs a global advisory lock to serialize DB tests.
func AcquireDBLock(ctx context.Context, pool *pgxpool.Pool) (func() error, error) {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}

	if _, err := conn.Exec(ctx, "SELECT pg_advisory_lock($1)", advisoryLockID); err != nil {
		conn.Release()
		return nil, fmt.Errorf("acquire advisory lock: %w", err)
	}

	unlock := func() error {
		defer conn.Release()
		if _, err := conn.Exec(ctx, "SELECT pg_advisory_unlock($1)", advisoryLockID); err != nil {
			return fmt.Errorf("release advisory lock: %w", err)
		}
		return nil
	}

	return unlock, nil
}

// MigrateUp applies every embedded migration to the database at dsn.
func MigrateUp(ctx context.Context, dsn string) error {
	db, err := migrate.Open(ctx, dsn)
	if err != nil {
		return err
	}

	m, err := migrate.New(db, migrations.FS, DiscardLogger())
	if err != nil {
		_ = db.Close()
		return err
	}
	defer m.Close()

	return m.Up(ctx)
}

// TruncateAll empties every application table.
func TruncateAll(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, `
		TRUNCATE contacts, newsletter_subscriptions, tool_submissions, assessment_sessions, users
	`)
	if err != nil {
		return fmt.Errorf("truncate tables: %w", err)
	}
	return nil
}

// SetupTestDB connects to TEST_DATABASE_URL, migrates, takes the shared
// advisory lock and truncates all tables. Everything is released when the
// test ends. The test is skipped when the variable is unset or the
// database is unreachable.
func SetupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()

	dsn := RequireEnv(t, "TEST_DATABASE_URL")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Skipf("database unavailable: %v", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		t.Skipf("database unavailable: %v", err)
	}

	if err := MigrateUp(ctx, dsn); err != nil {
		pool.Close()
		t.Fatalf("migrate: %v", err)
	}

	unlock, err := AcquireDBLock(context.Background(), pool)
	if err != nil {
		pool.Close()
		t.Fatalf("lock: %v", err)
	}

	if err := TruncateAll(ctx, pool); err != nil {
		_ = unlock()
		pool.Close()
		t.Fatalf("truncate: %v", err)
	}

	t.Cleanup(func() {
		_ = unlock()
		pool.Close()
	})

	return pool
}

// SetupTestRedis connects to TEST_REDIS_URL (default localhost) and flushes
// the selected database. The test is skipped when Redis is unreachable.
func SetupTestRedis(t *testing.T) *redis.Client {
	t.Helper()

	url := os.Getenv("TEST_REDIS_URL")
	if url == "" {
		url = "redis://localhost:6379/15"
	}

	opt, err := redis.ParseURL(url)
	if err != nil {
		t.Fatalf("parse redis url: %v", err)
	}

	client := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		t.Skipf("redis unavailable: %v", err)
	}
	if err := FlushRedis(ctx, client); err != nil {
		t.Fatalf("flush redis: %v", err)
	}

	t.Cleanup(func() { _ = client.Close() })
	return client
}

// FlushRedis clears the current Redis database.
func FlushRedis(ctx context.Context, client *redis.Client) error {
	return client.FlushDB(ctx).Err()
}

// ============================================================================
// Test Data Factories
// ============================================================================

// NewTestContact creates a contact with sensible defaults.
func NewTestContact(t testing.TB) *model.Contact {
	t.Helper()
	return &model.Contact{
		ID:        model.NewID(),
		Name:      "Ada Lovelace",
		Email:     UniqueEmail("contact"),
		Company:   "Analytical Engines Ltd",
		Service:   "strategy",
		Message:   "We would like to talk about scaling our operations.",
		Locale:    "en",
		Consent:   true,
		IPHash:    "0123456789abcdef",
		CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
	}
}

// NewTestSubscription creates a pending subscription with sensible defaults.
func NewTestSubscription(t testing.TB) *model.NewsletterSubscription {
	t.Helper()
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &model.NewsletterSubscription{
		ID:                    model.NewID(),
		Email:                 UniqueEmail("reader"),
		Locale:                "en",
		Status:                model.SubscriptionPending,
		ConfirmToken:          UniqueToken("c"),
		ConfirmTokenExpiresAt: now.Add(48 * time.Hour),
		UnsubscribeToken:      UniqueToken("u"),
		CreatedAt:             now,
		UpdatedAt:             now,
	}
}

// NewTestSubmission creates a tool submission with sensible defaults.
func NewTestSubmission(t testing.TB, tool string) *model.ToolSubmission {
	t.Helper()
	return &model.ToolSubmission{
		ID:        model.NewID(),
		Tool:      tool,
		Locale:    "en",
		Input:     []byte(`{"investment_cost":1000}`),
		Result:    []byte(`{"roi_percent":10}`),
		CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
	}
}

// UniqueEmail generates a unique address for tests.
func UniqueEmail(prefix string) string {
	return fmt.Sprintf("%s-%d@example.com", prefix, time.Now().UnixNano())
}

// UniqueToken generates a unique 64 character token for tests.
func UniqueToken(prefix string) string {
	return fmt.Sprintf("%s%063d", prefix, time.Now().UnixNano())[:64]
}
