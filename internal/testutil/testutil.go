package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/val/markdown-notes/internal/api"
	"github.com/val/markdown-notes/internal/api/middleware"
	"github.com/val/markdown-notes/internal/config"
	"github.com/val/markdown-notes/internal/repository"
	repoPostgres "github.com/val/markdown-notes/internal/repository/postgres"
	"github.com/val/markdown-notes/internal/service"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// TestDB wraps an in-memory SQLite database with the production schema. Each
// call gets its own database, so tests stay isolated without a server.
type TestDB struct {
	DB *gorm.DB
}

func NewTestDB(t *testing.T) *TestDB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	// A single connection keeps the shared-cache database from reporting
	// busy tables under the test server's concurrent handlers.
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(1)
	}

	if err := repoPostgres.Migrate(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	return &TestDB{DB: db}
}

// Truncate clears all tables for test isolation.
func (tdb *TestDB) Truncate(t *testing.T) {
	t.Helper()

	for _, table := range []string{"notes", "users"} {
		if err := tdb.DB.Exec(fmt.Sprintf("DELETE FROM %s", table)).Error; err != nil {
			t.Logf("warning: failed to truncate %s: %v", table, err)
		}
	}
}

// RecordingNotifier captures verification codes instead of sending mail so
// tests can complete the verification flow.
type RecordingNotifier struct {
	mu    sync.Mutex
	codes map[string]string
	fail  error
}

func NewRecordingNotifier() *RecordingNotifier {
	return &RecordingNotifier{codes: make(map[string]string)}
}

func (n *RecordingNotifier) SendVerificationCode(_ context.Context, to, code string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.fail != nil {
		return n.fail
	}
	n.codes[to] = code
	return nil
}

// LastCode returns the most recent code sent to the address.
func (n *RecordingNotifier) LastCode(to string) (string, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	code, ok := n.codes[to]
	return code, ok
}

// FailWith makes every subsequent send return err.
func (n *RecordingNotifier) FailWith(err error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.fail = err
}

// TestConfig returns a configuration suitable for testing.
func TestConfig() *config.Config {
	return &config.Config{
		Port:        "0",
		Environment: "test",
		JWTSecret:   "test-jwt-secret-key-for-testing-only",
		ClientURL:   "http://localhost:5173",
	}
}

// TestPolicies returns a rate-limit table loose enough that tests never trip
// a limiter by accident.
func TestPolicies() middleware.PolicySet {
	loose := middleware.Policy{Requests: 10000, Window: time.Minute, Message: "Too many requests. Try again later"}
	return middleware.PolicySet{App: loose, Login: loose, CreateAccount: loose, Resend: loose}
}

// TestServer holds all components for integration testing.
type TestServer struct {
	Server   *httptest.Server
	DB       *TestDB
	Repos    *repository.Repositories
	Services *service.Services
	Notifier *RecordingNotifier
	Config   *config.Config
}

func NewTestServer(t *testing.T) *TestServer {
	t.Helper()

	testDB := NewTestDB(t)
	cfg := TestConfig()
	notifier := NewRecordingNotifier()

	repos := repoPostgres.NewRepositories(testDB.DB)
	services := service.NewServices(repos, notifier, cfg, slog.Default())
	router := api.NewRouter(services, cfg, TestPolicies())

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return &TestServer{
		Server:   server,
		DB:       testDB,
		Repos:    repos,
		Services: services,
		Notifier: notifier,
		Config:   cfg,
	}
}

// APIURL returns the full API URL for a given path.
func (ts *TestServer) APIURL(path string) string {
	return fmt.Sprintf("%s/api%s", ts.Server.URL, path)
}

// Request sends a JSON request to the API, optionally with a session cookie,
// and returns the response. The caller closes the body.
func (ts *TestServer) Request(t *testing.T, method, path string, body interface{}, cookie *http.Cookie) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal request body: %v", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequest(method, ts.APIURL(path), reader)
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	return resp
}

// RequestWithHeader sends a JSON request with one extra header set, for
// bearer-token routes that do not use the session cookie.
func (ts *TestServer) RequestWithHeader(t *testing.T, method, path string, body interface{}, header, value string) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal request body: %v", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequest(method, ts.APIURL(path), reader)
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set(header, value)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	return resp
}
