//go:build e2e

package e2e_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mkravets/valvecalc-backend/internal/adapter/postgres/audit"
	calcrepo "github.com/mkravets/valvecalc-backend/internal/adapter/postgres/calc"
	"github.com/mkravets/valvecalc-backend/internal/adapter/postgres/testhelper"
	userrepo "github.com/mkravets/valvecalc-backend/internal/adapter/postgres/user"
	authpkg "github.com/mkravets/valvecalc-backend/internal/auth"
	"github.com/mkravets/valvecalc-backend/internal/config"
	"github.com/mkravets/valvecalc-backend/internal/domain"
	authsvc "github.com/mkravets/valvecalc-backend/internal/service/auth"
	calcsvc "github.com/mkravets/valvecalc-backend/internal/service/calc"
	librarysvc "github.com/mkravets/valvecalc-backend/internal/service/library"
	"github.com/mkravets/valvecalc-backend/internal/transport/rest"
)

// ---------------------------------------------------------------------------
// testServer wraps the full-stack HTTP server for E2E tests.
// ---------------------------------------------------------------------------

type testServer struct {
	URL    string
	Client *http.Client
	Pool   *pgxpool.Pool
}

// testLogWriter adapts testing.T to io.Writer for slog.
type testLogWriter struct{ t *testing.T }

func (w testLogWriter) Write(p []byte) (int, error) {
	w.t.Helper()
	w.t.Log(string(p))
	return len(p), nil
}

// setupTestServer bootstraps the full application stack backed by
// a real PostgreSQL container (shared via testhelper).
func setupTestServer(t *testing.T) *testServer {
	t.Helper()

	pool := testhelper.SetupTestDB(t)
	logger := slog.New(slog.NewTextHandler(testLogWriter{t}, nil))

	cols := calcrepo.NewColumnCache()
	var calcRepos []calcsvc.Repo
	var libRepos []librarysvc.Repo
	for _, typ := range domain.CalcTypes {
		r := calcrepo.New(pool, typ, cols)
		calcRepos = append(calcRepos, r)
		libRepos = append(libRepos, r)
	}

	auditSink := audit.NewSink(pool, logger)
	users := userrepo.New(pool)

	jwtMgr := authpkg.NewJWTManager("test-secret-at-least-32-chars-long!!", "test-issuer", 15*time.Minute)

	libCfg := config.LibraryConfig{
		ListLimit:       200,
		AdminListLimit:  500,
		MaxPayloadBytes: 1 << 20,
	}

	calcService := calcsvc.NewService(logger, auditSink, libCfg, calcRepos...)
	libraryService := librarysvc.NewService(logger, users, auditSink, libCfg, libRepos...).
		WithAuditLog(auditSink)
	authService := authsvc.NewService(logger, users, jwtMgr)

	handlers := rest.Handlers{
		Auth:    rest.NewAuthHandler(authService, logger),
		Calc:    rest.NewCalcHandler(calcService, logger),
		Library: rest.NewLibraryHandler(libraryService, logger),
		Admin:   rest.NewAdminHandler(libraryService, logger),
		Health:  rest.NewHealthHandler(pool, "e2e-test"),
	}

	// Login rate limiting is left disabled so parallel tests sharing an IP
	// do not trip it.
	router := rest.NewRouter(logger, rest.RouterConfig{
		CORS: config.CORSConfig{AllowedOrigins: "*"},
	}, jwtMgr, handlers)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return &testServer{
		URL:    srv.URL,
		Client: srv.Client(),
		Pool:   pool,
	}
}

// ---------------------------------------------------------------------------
// Users and login
// ---------------------------------------------------------------------------

const testPassword = "correct horse battery staple"

// seedLoginUser creates a user whose password actually verifies, so the
// /auth/login endpoint can be exercised end to end.
func (ts *testServer) seedLoginUser(t *testing.T, role string) domain.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(t, err)

	u := domain.User{
		ID:           uuid.New(),
		Username:     "e2e-" + role + "-" + uuid.New().String()[:8],
		Role:         role,
		PasswordHash: string(hash),
	}
	_, err = ts.Pool.Exec(context.Background(),
		`INSERT INTO users (id, username, role, password_hash) VALUES ($1, $2, $3, $4)`,
		u.ID, u.Username, u.Role, u.PasswordHash,
	)
	require.NoError(t, err)
	return u
}

// login authenticates via the API and returns the access token.
func (ts *testServer) login(t *testing.T, username, password string) string {
	t.Helper()

	status, body := ts.doJSON(t, http.MethodPost, "/api/v1/auth/login", "", map[string]any{
		"username": username,
		"password": password,
	})
	require.Equal(t, http.StatusOK, status, "login failed: %v", body)

	token, ok := body["accessToken"].(string)
	require.True(t, ok, "expected accessToken in login response")
	require.NotEmpty(t, token)
	return token
}

// loginAs seeds a user with the given role and logs in, returning both.
func (ts *testServer) loginAs(t *testing.T, role string) (domain.User, string) {
	t.Helper()
	u := ts.seedLoginUser(t, role)
	return u, ts.login(t, u.Username, testPassword)
}

// ---------------------------------------------------------------------------
// HTTP helpers
// ---------------------------------------------------------------------------

// doJSON performs a request with an optional bearer token and JSON body,
// decoding the JSON response (if any) into a generic map.
func (ts *testServer) doJSON(t *testing.T, method, path, token string, payload any) (int, map[string]any) {
	t.Helper()

	var reqBody io.Reader
	if payload != nil {
		buf, err := json.Marshal(payload)
		require.NoError(t, err)
		reqBody = bytes.NewReader(buf)
	}

	req, err := http.NewRequest(method, ts.URL+path, reqBody)
	require.NoError(t, err)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := ts.Client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var body map[string]any
	if len(raw) > 0 {
		// Some endpoints return arrays; wrap them for uniform access.
		if raw[0] == '[' {
			var list []any
			require.NoError(t, json.Unmarshal(raw, &list))
			body = map[string]any{"items": list}
		} else {
			require.NoError(t, json.Unmarshal(raw, &body))
		}
	}

	return resp.StatusCode, body
}

// createCalc creates a calculation through the API and returns its id.
func (ts *testServer) createCalc(t *testing.T, token, entity, name string, payload map[string]any, designID *string) string {
	t.Helper()

	req := map[string]any{"name": name, "payload": payload}
	if designID != nil {
		req["designId"] = *designID
	}
	status, body := ts.doJSON(t, http.MethodPost, "/api/v1/calcs/"+entity, token, req)
	require.Equal(t, http.StatusCreated, status, "create %s failed: %v", entity, body)

	id, ok := body["id"].(string)
	require.True(t, ok, "expected id in create response")
	return id
}
