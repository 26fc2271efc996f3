package handler_test

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartfunds-ke/smartfunds-backend/internal/accounts/authz"
	"github.com/smartfunds-ke/smartfunds-backend/internal/accounts/domain"
	"github.com/smartfunds-ke/smartfunds-backend/internal/accounts/handler"
	"github.com/smartfunds-ke/smartfunds-backend/internal/accounts/service"
	"github.com/smartfunds-ke/smartfunds-backend/internal/mocks"
)

func newTestApp(t *testing.T) (*fiber.App, *mocks.MockUserRepository, *mocks.MockTokenGenerator) {
	t.Helper()

	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	mockRepo := mocks.NewMockUserRepository(ctrl)
	mockTokens := mocks.NewMockTokenGenerator(ctrl)

	authService := service.NewAuthService(mockRepo, mockTokens)
	userService := service.NewUserService(mockRepo)
	ev := authz.Default()

	authHandler := handler.NewAuthHandler(authService, userService)
	userHandler := handler.NewUserHandler(userService, ev)
	profileHandler := handler.NewProfileHandler(userService)

	app := fiber.New()
	handler.RegisterRoutes(app, ev, mockTokens, authHandler, userHandler, profileHandler)

	return app, mockRepo, mockTokens
}

func expectClaims(mockTokens *mocks.MockTokenGenerator, token, userID string, role domain.Role) {
	claims := &service.JWTCustomClaims{
		UserID: userID,
		Role:   role.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	mockTokens.EXPECT().VerifyAccessToken(token).Return(claims, nil)
}

// TestRegisterRoutes verifies the public routes are mounted.
func TestRegisterRoutes(t *testing.T) {
	app, _, _ := newTestApp(t)

	testCases := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/api/v1/auth/register"},
		{http.MethodPost, "/api/v1/auth/login"},
		{http.MethodPost, "/api/v1/auth/refresh"},
	}

	for _, tc := range testCases {
		t.Run(fmt.Sprintf("%s_%s_exists", tc.method, tc.path), func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, nil)
			resp, err := app.Test(req)
			require.NoError(t, err)

			// Existence check only; the handlers themselves reject the empty
			// body with other codes.
			assert.NotEqual(t, http.StatusNotFound, resp.StatusCode)
		})
	}
}

// TestRequireAuthMiddleware covers the bearer-token gate shared by all
// protected routes.
func TestRequireAuthMiddleware(t *testing.T) {
	t.Run("fails without auth header", func(t *testing.T) {
		app, _, _ := newTestApp(t)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil)
		resp, _ := app.Test(req)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("fails with malformed header", func(t *testing.T) {
		app, _, _ := newTestApp(t)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil)
		req.Header.Set("Authorization", "BearerInvalidToken") // No space
		resp, _ := app.Test(req)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("fails with rejected token", func(t *testing.T) {
		app, _, mockTokens := newTestApp(t)

		mockTokens.EXPECT().VerifyAccessToken("bad-token").Return(nil, fmt.Errorf("token expired"))

		req := httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil)
		req.Header.Set("Authorization", "Bearer bad-token")
		resp, _ := app.Test(req)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("valid token reaches the handler", func(t *testing.T) {
		app, mockRepo, mockTokens := newTestApp(t)

		expectClaims(mockTokens, "good-token", "user-123", domain.RoleCitizen)
		mockRepo.EXPECT().GetByID(gomock.Any(), "user-123").
			Return(&domain.User{ID: "user-123", Email: "wanjiku@example.com", Role: domain.RoleCitizen, IsActive: true}, nil)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil)
		req.Header.Set("Authorization", "Bearer good-token")
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})
}

// TestRequirePermissionMiddleware covers the per-route allow-set gate.
func TestRequirePermissionMiddleware(t *testing.T) {
	t.Run("citizen denied on admin route", func(t *testing.T) {
		app, _, mockTokens := newTestApp(t)

		expectClaims(mockTokens, "citizen-token", "user-123", domain.RoleCitizen)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/users/", nil)
		req.Header.Set("Authorization", "Bearer citizen-token")
		resp, _ := app.Test(req)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	t.Run("officer denied on bulk action", func(t *testing.T) {
		app, _, mockTokens := newTestApp(t)

		expectClaims(mockTokens, "officer-token", "officer-1", domain.RoleFundOfficer)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/users/bulk-action", nil)
		req.Header.Set("Authorization", "Bearer officer-token")
		resp, _ := app.Test(req)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	t.Run("officer allowed on role listing", func(t *testing.T) {
		app, mockRepo, mockTokens := newTestApp(t)

		expectClaims(mockTokens, "officer-token", "officer-1", domain.RoleFundOfficer)
		mockRepo.EXPECT().ListByRole(gomock.Any(), domain.RoleFundAdmin).Return(nil, nil)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/users/role/fund_admin", nil)
		req.Header.Set("Authorization", "Bearer officer-token")
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("fund admin allowed on stats", func(t *testing.T) {
		app, mockRepo, mockTokens := newTestApp(t)

		expectClaims(mockTokens, "admin-token", "admin-1", domain.RoleFundAdmin)
		mockRepo.EXPECT().Stats(gomock.Any()).Return(&domain.UserStats{TotalUsers: 3}, nil)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/users/stats", nil)
		req.Header.Set("Authorization", "Bearer admin-token")
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})
}

// TestOwnerOrAdminAccess covers the in-handler ownership checks on /users/:id.
func TestOwnerOrAdminAccess(t *testing.T) {
	user := &domain.User{ID: "user-123", Email: "wanjiku@example.com", Role: domain.RoleCitizen, IsActive: true}

	t.Run("owner reads own record", func(t *testing.T) {
		app, mockRepo, mockTokens := newTestApp(t)

		expectClaims(mockTokens, "owner-token", "user-123", domain.RoleCitizen)
		mockRepo.EXPECT().GetByID(gomock.Any(), "user-123").Return(user, nil)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/users/user-123", nil)
		req.Header.Set("Authorization", "Bearer owner-token")
		resp, _ := app.Test(req)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("stranger denied", func(t *testing.T) {
		app, _, mockTokens := newTestApp(t)

		expectClaims(mockTokens, "stranger-token", "user-456", domain.RoleCitizen)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/users/user-123", nil)
		req.Header.Set("Authorization", "Bearer stranger-token")
		resp, _ := app.Test(req)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	t.Run("admin bypasses ownership", func(t *testing.T) {
		app, mockRepo, mockTokens := newTestApp(t)

		expectClaims(mockTokens, "admin-token", "admin-1", domain.RoleFundAdmin)
		mockRepo.EXPECT().GetByID(gomock.Any(), "user-123").Return(user, nil)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/users/user-123", nil)
		req.Header.Set("Authorization", "Bearer admin-token")
		resp, _ := app.Test(req)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})
}
