//go:build e2e

package e2e_test

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkravets/valvecalc-backend/internal/domain"
)

// TestE2E_Login verifies the password login flow returns a working token.
func TestE2E_Login(t *testing.T) {
	ts := setupTestServer(t)

	user := ts.seedLoginUser(t, domain.RoleUser)

	status, body := ts.doJSON(t, http.MethodPost, "/api/v1/auth/login", "", map[string]any{
		"username": user.Username,
		"password": testPassword,
	})
	require.Equal(t, http.StatusOK, status)

	token, _ := body["accessToken"].(string)
	require.NotEmpty(t, token)

	userObj, ok := body["user"].(map[string]any)
	require.True(t, ok, "expected user object in login response")
	assert.Equal(t, user.Username, userObj["username"])
	assert.Equal(t, domain.RoleUser, userObj["role"])

	// The token actually authenticates requests.
	status, _ = ts.doJSON(t, http.MethodGet, "/api/v1/library", token, nil)
	assert.Equal(t, http.StatusOK, status)
}

// TestE2E_Login_WrongPassword verifies a bad password is rejected without
// leaking whether the account exists.
func TestE2E_Login_WrongPassword(t *testing.T) {
	ts := setupTestServer(t)

	user := ts.seedLoginUser(t, domain.RoleUser)

	status, _ := ts.doJSON(t, http.MethodPost, "/api/v1/auth/login", "", map[string]any{
		"username": user.Username,
		"password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = ts.doJSON(t, http.MethodPost, "/api/v1/auth/login", "", map[string]any{
		"username": "no-such-user",
		"password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, status)
}

// TestE2E_RequestsWithoutToken verifies protected endpoints reject anonymous
// requests.
func TestE2E_RequestsWithoutToken(t *testing.T) {
	ts := setupTestServer(t)

	status, _ := ts.doJSON(t, http.MethodGet, "/api/v1/library", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = ts.doJSON(t, http.MethodPost, "/api/v1/calcs/dc001", "", map[string]any{
		"name": "x",
	})
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = ts.doJSON(t, http.MethodGet, "/api/v1/library", "garbage-token", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

// TestE2E_ProvisionUser verifies the admin user-provisioning endpoint.
func TestE2E_ProvisionUser(t *testing.T) {
	ts := setupTestServer(t)

	_, adminToken := ts.loginAs(t, domain.RoleAdmin)

	username := "provisioned-" + uuid.New().String()[:8]
	status, body := ts.doJSON(t, http.MethodPost, "/api/v1/admin/users", adminToken, map[string]any{
		"username": username,
		"password": "initial-password",
	})
	require.Equal(t, http.StatusCreated, status, "provision failed: %v", body)
	assert.Equal(t, username, body["username"])
	assert.Equal(t, domain.RoleUser, body["role"])

	// The freshly provisioned account can log in.
	token := ts.login(t, username, "initial-password")
	status, _ = ts.doJSON(t, http.MethodGet, "/api/v1/library", token, nil)
	assert.Equal(t, http.StatusOK, status)
}

// TestE2E_ProvisionUser_RoleRules verifies only superadmins may mint
// privileged accounts and plain users may not provision at all.
func TestE2E_ProvisionUser_RoleRules(t *testing.T) {
	ts := setupTestServer(t)

	_, userToken := ts.loginAs(t, domain.RoleUser)
	_, adminToken := ts.loginAs(t, domain.RoleAdmin)
	_, superToken := ts.loginAs(t, domain.RoleSuperadmin)

	// Plain user is blocked by the admin route guard.
	status, _ := ts.doJSON(t, http.MethodPost, "/api/v1/admin/users", userToken, map[string]any{
		"username": "blocked", "password": "some-password",
	})
	assert.Equal(t, http.StatusForbidden, status)

	// Admin cannot mint another admin.
	status, _ = ts.doJSON(t, http.MethodPost, "/api/v1/admin/users", adminToken, map[string]any{
		"username": "escalated-" + uuid.New().String()[:8],
		"password": "some-password",
		"role":     domain.RoleAdmin,
	})
	assert.Equal(t, http.StatusForbidden, status)

	// Superadmin can.
	status, body := ts.doJSON(t, http.MethodPost, "/api/v1/admin/users", superToken, map[string]any{
		"username": "minted-" + uuid.New().String()[:8],
		"password": "some-password",
		"role":     domain.RoleAdmin,
	})
	require.Equal(t, http.StatusCreated, status, "superadmin provision failed: %v", body)
	assert.Equal(t, domain.RoleAdmin, body["role"])
}

// TestE2E_ProvisionUser_DuplicateUsername verifies the unique constraint
// surfaces as 409.
func TestE2E_ProvisionUser_DuplicateUsername(t *testing.T) {
	ts := setupTestServer(t)

	existing, adminToken := ts.loginAs(t, domain.RoleAdmin)

	status, _ := ts.doJSON(t, http.MethodPost, "/api/v1/admin/users", adminToken, map[string]any{
		"username": existing.Username,
		"password": "some-password",
	})
	assert.Equal(t, http.StatusConflict, status)
}
