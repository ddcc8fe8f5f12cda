package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alfredoptarigan/resume-analyzer/internal/auth"
	"alfredoptarigan/resume-analyzer/internal/models"
	"alfredoptarigan/resume-analyzer/internal/repositories"
)

type stubUserRepo struct {
	repositories.UserRepository
	user *models.User
	err  error
}

func (s stubUserRepo) FindByClerkID(context.Context, string) (*models.User, error) {
	return s.user, s.err
}

type userBody struct {
	User          map[string]any `json:"user"`
	AnalysisCount int            `json:"analysisCount"`
	IsPremium     bool           `json:"isPremium"`
	Remaining     int            `json:"remaining"`
}

func getUser(t *testing.T, repo repositories.UserRepository) userBody {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	app := fiber.New()
	app.Get("/api/user", auth.RequireAuth(auth.NewStaticAuthenticator(), logger), NewUserHandler(repo, 5, logger).HandleGetUser)

	status, body := doRequest(t, app, httptest.NewRequest(http.MethodGet, "/api/user", nil))
	require.Equal(t, fiber.StatusOK, status)

	var out userBody
	require.NoError(t, json.Unmarshal(body, &out))
	return out
}

func TestGetUser_Stored(t *testing.T) {
	tests := []struct {
		name          string
		user          models.User
		wantRemaining int
	}{
		{"free user within quota", models.User{AnalysisCount: 2}, 3},
		{"free user over quota", models.User{AnalysisCount: 9}, 0},
		{"premium user", models.User{AnalysisCount: 40, IsPremium: true}, 999},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user := tt.user
			user.ClerkID = auth.DevSubject
			user.Username = "jane"
			since := time.Now()
			if user.IsPremium {
				user.PremiumSince = &since
			}

			got := getUser(t, stubUserRepo{user: &user})

			assert.Equal(t, tt.user.AnalysisCount, got.AnalysisCount)
			assert.Equal(t, tt.user.IsPremium, got.IsPremium)
			assert.Equal(t, tt.wantRemaining, got.Remaining)
			assert.Equal(t, "jane", got.User["username"])
		})
	}
}

func TestGetUser_FallsBackToDefault(t *testing.T) {
	for _, err := range []error{
		repositories.ErrUserNotFound,
		repositories.ErrPersistenceUnavailable,
		errors.New("connection refused"),
	} {
		got := getUser(t, stubUserRepo{err: err})

		assert.Equal(t, map[string]any{"id": auth.DevSubject, "username": "user_" + auth.DevSubject}, got.User, err.Error())
		assert.Equal(t, 0, got.AnalysisCount)
		assert.False(t, got.IsPremium)
		assert.Equal(t, 5, got.Remaining)
	}
}

func TestGetUser_NopRepository(t *testing.T) {
	got := getUser(t, repositories.NewNopUserRepository())
	assert.Equal(t, 5, got.Remaining)
}

func TestHealth(t *testing.T) {
	app := fiber.New()
	app.Get("/api/health", HandleHealth)

	status, body := doRequest(t, app, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	require.Equal(t, fiber.StatusOK, status)

	var got models.HealthResponse
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, "ok", got.Status)
	_, err := time.Parse(time.RFC3339, got.Timestamp)
	assert.NoError(t, err)
}
