package handler_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/smartfunds-ke/smartfunds-backend/internal/accounts/domain"
	"github.com/smartfunds-ke/smartfunds-backend/internal/accounts/dto"
	apperror "github.com/smartfunds-ke/smartfunds-backend/internal/errors"
)

func doPost(t *testing.T, app *fiber.App, path string, payload any) (int, map[string]any) {
	t.Helper()

	var reader io.Reader
	if payload != nil {
		body, err := json.Marshal(payload)
		require.NoError(t, err)
		reader = bytes.NewReader(body)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest("POST", path, reader)
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)

	var decoded map[string]any
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &decoded))
	}
	return resp.StatusCode, decoded
}

func TestRegisterEndpoint(t *testing.T) {
	input := dto.RegisterInput{
		Email:           "wanjiku@example.com",
		Password:        "password123",
		PasswordConfirm: "password123",
		PhoneNumber:     "+254700000001",
		FirstName:       "Wanjiku",
		LastName:        "Kamau",
	}

	t.Run("success", func(t *testing.T) {
		app, mockRepo, _ := newTestApp(t)

		mockRepo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)

		status, body := doPost(t, app, "/api/v1/auth/register", input)
		assert.Equal(t, fiber.StatusCreated, status)
		assert.Equal(t, "wanjiku@example.com", body["email"])
		assert.Equal(t, "citizen", body["role"])
		assert.NotContains(t, body, "password_hash")
	})

	t.Run("validation failure lists every field", func(t *testing.T) {
		app, _, _ := newTestApp(t)

		bad := dto.RegisterInput{Email: "nope", Password: "short", PasswordConfirm: "other"}
		status, body := doPost(t, app, "/api/v1/auth/register", bad)

		assert.Equal(t, fiber.StatusBadRequest, status)
		fields, ok := body["errors"].(map[string]any)
		require.True(t, ok)
		for _, f := range []string{"email", "password", "password_confirm", "phone_number", "first_name", "last_name"} {
			assert.Contains(t, fields, f)
		}
	})

	t.Run("duplicate email conflicts", func(t *testing.T) {
		app, mockRepo, _ := newTestApp(t)

		mockRepo.EXPECT().Create(gomock.Any(), gomock.Any()).
			Return(&apperror.ConflictError{Field: "email"})

		status, body := doPost(t, app, "/api/v1/auth/register", input)
		assert.Equal(t, fiber.StatusConflict, status)
		fields, ok := body["errors"].(map[string]any)
		require.True(t, ok)
		assert.Contains(t, fields, "email")
	})

	t.Run("malformed body", func(t *testing.T) {
		app, _, _ := newTestApp(t)

		req := httptest.NewRequest("POST", "/api/v1/auth/register", bytes.NewReader([]byte("{not-json")))
		req.Header.Set("Content-Type", "application/json")
		resp, _ := app.Test(req)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	})
}

func TestLoginEndpoint(t *testing.T) {
	password := "password123"
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)

	user := &domain.User{
		ID:           "user-123",
		Email:        "wanjiku@example.com",
		PasswordHash: string(hash),
		Role:         domain.RoleCitizen,
		IsActive:     true,
	}

	t.Run("success returns a token pair", func(t *testing.T) {
		app, mockRepo, mockTokens := newTestApp(t)

		mockRepo.EXPECT().GetByEmail(gomock.Any(), user.Email).Return(user, nil)
		mockRepo.EXPECT().RecordLoginAttempt(gomock.Any(), gomock.Any()).Return(nil)
		mockTokens.EXPECT().Generate(user.ID, user.Email, "citizen").
			Return("access-token", "refresh-token", time.Now().Add(time.Hour), nil)
		mockRepo.EXPECT().StoreRefreshToken(gomock.Any(), gomock.Any()).Return(nil)
		mockRepo.EXPECT().UpdateLastLogin(gomock.Any(), user.ID, domain.MethodWeb).Return(nil)

		status, body := doPost(t, app, "/api/v1/auth/login", dto.LoginInput{Email: user.Email, Password: password})
		assert.Equal(t, fiber.StatusOK, status)
		assert.Equal(t, "access-token", body["access_token"])
		assert.Equal(t, "refresh-token", body["refresh_token"])
	})

	t.Run("wrong password is opaque", func(t *testing.T) {
		app, mockRepo, _ := newTestApp(t)

		mockRepo.EXPECT().GetByEmail(gomock.Any(), user.Email).Return(user, nil)
		mockRepo.EXPECT().RecordLoginAttempt(gomock.Any(), gomock.Any()).Return(nil)

		status, body := doPost(t, app, "/api/v1/auth/login", dto.LoginInput{Email: user.Email, Password: "wrong"})
		assert.Equal(t, fiber.StatusUnauthorized, status)
		assert.Equal(t, "invalid credentials", body["error"])
	})

	t.Run("unknown email gets the same answer", func(t *testing.T) {
		app, mockRepo, _ := newTestApp(t)

		mockRepo.EXPECT().GetByEmail(gomock.Any(), "ghost@example.com").Return(nil, nil)
		mockRepo.EXPECT().RecordLoginAttempt(gomock.Any(), gomock.Any()).Return(nil)

		status, body := doPost(t, app, "/api/v1/auth/login", dto.LoginInput{Email: "ghost@example.com", Password: password})
		assert.Equal(t, fiber.StatusUnauthorized, status)
		assert.Equal(t, "invalid credentials", body["error"])
	})
}

func TestRefreshEndpoint(t *testing.T) {
	user := &domain.User{ID: "user-123", Email: "wanjiku@example.com", Role: domain.RoleCitizen, IsActive: true}

	t.Run("success rotates the token", func(t *testing.T) {
		app, mockRepo, mockTokens := newTestApp(t)

		stored := &domain.RefreshToken{
			ID:        "rt-1",
			UserID:    user.ID,
			Token:     "old-refresh",
			ExpiresAt: time.Now().Add(time.Hour),
		}

		mockRepo.EXPECT().GetRefreshToken(gomock.Any(), "old-refresh").Return(stored, nil)
		mockRepo.EXPECT().ConsumeRefreshToken(gomock.Any(), "rt-1").Return(true, nil)
		mockRepo.EXPECT().GetByID(gomock.Any(), user.ID).Return(user, nil)
		mockTokens.EXPECT().Generate(user.ID, user.Email, "citizen").
			Return("new-access", "new-refresh", time.Now().Add(time.Hour), nil)
		mockRepo.EXPECT().StoreRefreshToken(gomock.Any(), gomock.Any()).Return(nil)

		status, body := doPost(t, app, "/api/v1/auth/refresh", dto.RefreshInput{RefreshToken: "old-refresh"})
		assert.Equal(t, fiber.StatusOK, status)
		assert.Equal(t, "new-refresh", body["refresh_token"])
	})

	t.Run("reused token is rejected as unauthorized", func(t *testing.T) {
		app, mockRepo, _ := newTestApp(t)

		stored := &domain.RefreshToken{
			ID:        "rt-1",
			UserID:    user.ID,
			Token:     "stolen-refresh",
			ExpiresAt: time.Now().Add(time.Hour),
			Revoked:   true,
		}

		mockRepo.EXPECT().GetRefreshToken(gomock.Any(), "stolen-refresh").Return(stored, nil)
		mockRepo.EXPECT().RevokeAllRefreshTokensByUserID(gomock.Any(), user.ID).Return(int64(2), nil)

		status, _ := doPost(t, app, "/api/v1/auth/refresh", dto.RefreshInput{RefreshToken: "stolen-refresh"})
		assert.Equal(t, fiber.StatusUnauthorized, status)
	})

	t.Run("unknown token is unauthorized", func(t *testing.T) {
		app, mockRepo, _ := newTestApp(t)

		mockRepo.EXPECT().GetRefreshToken(gomock.Any(), "nope").Return(nil, nil)

		status, _ := doPost(t, app, "/api/v1/auth/refresh", dto.RefreshInput{RefreshToken: "nope"})
		assert.Equal(t, fiber.StatusUnauthorized, status)
	})
}

func TestVerifyEndpoint(t *testing.T) {
	app, _, mockTokens := newTestApp(t)

	expectClaims(mockTokens, "good-token", "user-123", domain.RoleFundOfficer)

	req := httptest.NewRequest("POST", "/api/v1/auth/verify", nil)
	req.Header.Set("Authorization", "Bearer good-token")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, true, body["valid"])
	assert.Equal(t, "user-123", body["user_id"])
	assert.Equal(t, "fund_officer", body["role"])
}
