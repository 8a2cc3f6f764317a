package handlers

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/hostelhub/hostel-booking-backend/internal/config"
	"github.com/hostelhub/hostel-booking-backend/internal/database"
	"github.com/hostelhub/hostel-booking-backend/internal/models"
	"github.com/hostelhub/hostel-booking-backend/pkg/jwt"
	"github.com/hostelhub/hostel-booking-backend/pkg/validator"
)

func setupAuthTest(t *testing.T) (*gin.Engine, sqlmock.Sqlmock, func()) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	db := sqlx.NewDb(mockDB, "sqlmock")

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	jwtService := jwt.NewService("test-secret", "test-refresh-secret", time.Hour, 7*24*time.Hour)
	cfg := &config.Config{Security: config.SecurityConfig{BcryptCost: bcrypt.MinCost}}
	handler := NewAuthHandler(jwtService, validator.NewCredentialValidator(),
		database.NewUserRepository(db), database.NewBuildingRepository(db), cfg, logger)

	router := gin.New()
	router.POST("/api/v1/auth/signup", handler.Signup)
	router.POST("/api/v1/auth/login", handler.Login)
	router.GET("/api/v1/auth/profile", asUser(profileUserID, string(models.RoleStudent)), handler.GetProfile)

	return router, mock, func() { mockDB.Close() }
}

var profileUserID = uuid.MustParse("0c9a7b3e-5f0d-4f5c-9f6a-2b1d8e4c7a10")

func postJSON(router *gin.Engine, path string, body interface{}) *httptest.ResponseRecorder {
	payload, _ := json.Marshal(body)
	req := httptest.NewRequest("POST", path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func userRow(id uuid.UUID, email, passwordHash string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "name", "email", "password_hash", "role", "created_at", "updated_at",
	}).AddRow(id, "Student One", email, passwordHash, "student", now, now)
}

func TestSignup(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		router, mock, closeDB := setupAuthTest(t)
		defer closeDB()

		mock.ExpectQuery(`SELECT (.+) FROM users WHERE email = \$1`).
			WithArgs("student@example.com").
			WillReturnError(sql.ErrNoRows)
		mock.ExpectExec(`INSERT INTO users`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		w := postJSON(router, "/api/v1/auth/signup", models.SignupRequest{
			Name:     "Student One",
			Email:    "Student@Example.com",
			Password: "secret123",
		})

		assert.Equal(t, http.StatusCreated, w.Code)

		var resp models.AuthResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.True(t, resp.Success)
		assert.NotEmpty(t, resp.Token)
		assert.NotEmpty(t, resp.RefreshToken)
		require.NotNil(t, resp.User)
		assert.Equal(t, "student@example.com", resp.User.Email)
		assert.Equal(t, models.RoleStudent, resp.User.Role)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Duplicate Email", func(t *testing.T) {
		router, mock, closeDB := setupAuthTest(t)
		defer closeDB()

		mock.ExpectQuery(`SELECT (.+) FROM users WHERE email = \$1`).
			WithArgs("student@example.com").
			WillReturnRows(userRow(uuid.New(), "student@example.com", "hash"))

		w := postJSON(router, "/api/v1/auth/signup", models.SignupRequest{
			Name:     "Student One",
			Email:    "student@example.com",
			Password: "secret123",
		})

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Contains(t, w.Body.String(), "already exists")

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Invalid Email", func(t *testing.T) {
		router, _, closeDB := setupAuthTest(t)
		defer closeDB()

		w := postJSON(router, "/api/v1/auth/signup", models.SignupRequest{
			Name:     "Student One",
			Email:    "not-an-email",
			Password: "secret123",
		})

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Short Password", func(t *testing.T) {
		router, _, closeDB := setupAuthTest(t)
		defer closeDB()

		w := postJSON(router, "/api/v1/auth/signup", models.SignupRequest{
			Name:     "Student One",
			Email:    "student@example.com",
			Password: "abc",
		})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "at least 6 characters")
	})
}

func TestLogin(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.MinCost)
	require.NoError(t, err)

	t.Run("Success", func(t *testing.T) {
		router, mock, closeDB := setupAuthTest(t)
		defer closeDB()

		mock.ExpectQuery(`SELECT (.+) FROM users WHERE email = \$1`).
			WithArgs("student@example.com").
			WillReturnRows(userRow(uuid.New(), "student@example.com", string(hash)))

		w := postJSON(router, "/api/v1/auth/login", models.LoginRequest{
			Email:    "student@example.com",
			Password: "secret123",
		})

		assert.Equal(t, http.StatusOK, w.Code)

		var resp models.AuthResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.True(t, resp.Success)
		assert.NotEmpty(t, resp.Token)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Wrong Password", func(t *testing.T) {
		router, mock, closeDB := setupAuthTest(t)
		defer closeDB()

		mock.ExpectQuery(`SELECT (.+) FROM users WHERE email = \$1`).
			WithArgs("student@example.com").
			WillReturnRows(userRow(uuid.New(), "student@example.com", string(hash)))

		w := postJSON(router, "/api/v1/auth/login", models.LoginRequest{
			Email:    "student@example.com",
			Password: "wrong-password",
		})

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "Invalid email or password")

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Unknown Email", func(t *testing.T) {
		router, mock, closeDB := setupAuthTest(t)
		defer closeDB()

		mock.ExpectQuery(`SELECT (.+) FROM users WHERE email = \$1`).
			WithArgs("nobody@example.com").
			WillReturnError(sql.ErrNoRows)

		w := postJSON(router, "/api/v1/auth/login", models.LoginRequest{
			Email:    "nobody@example.com",
			Password: "secret123",
		})

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "Invalid email or password")

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGetProfile(t *testing.T) {
	t.Run("Includes Occupied Beds", func(t *testing.T) {
		router, mock, closeDB := setupAuthTest(t)
		defer closeDB()

		mock.ExpectQuery(`SELECT (.+) FROM users WHERE id = \$1`).
			WithArgs(profileUserID).
			WillReturnRows(userRow(profileUserID, "student@example.com", "hash"))
		mock.ExpectQuery(`SELECT (.+) FROM beds WHERE occupied_by = \$1`).
			WithArgs(profileUserID.String()).
			WillReturnRows(sqlmock.NewRows([]string{
				"id", "room_id", "number", "is_occupied", "occupied_by", "occupied_by_name",
			}).AddRow("bldg-1-room-001-bed-2", "bldg-1-room-001", 2, true, profileUserID.String(), "Student One"))

		req := httptest.NewRequest("GET", "/api/v1/auth/profile", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var resp models.AuthResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.True(t, resp.Success)
		require.NotNil(t, resp.User)
		assert.Equal(t, "student@example.com", resp.User.Email)
		require.Len(t, resp.Beds, 1)
		assert.Equal(t, "bldg-1-room-001-bed-2", resp.Beds[0].ID)
		assert.True(t, resp.Beds[0].IsOccupied)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("No Beds Held", func(t *testing.T) {
		router, mock, closeDB := setupAuthTest(t)
		defer closeDB()

		mock.ExpectQuery(`SELECT (.+) FROM users WHERE id = \$1`).
			WithArgs(profileUserID).
			WillReturnRows(userRow(profileUserID, "student@example.com", "hash"))
		mock.ExpectQuery(`SELECT (.+) FROM beds WHERE occupied_by = \$1`).
			WithArgs(profileUserID.String()).
			WillReturnRows(sqlmock.NewRows([]string{
				"id", "room_id", "number", "is_occupied", "occupied_by", "occupied_by_name",
			}))

		req := httptest.NewRequest("GET", "/api/v1/auth/profile", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, decodeBeds(t, w.Body.Bytes()))

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func decodeBeds(t *testing.T, body []byte) []models.Bed {
	t.Helper()
	var resp models.AuthResponse
	require.NoError(t, json.Unmarshal(body, &resp))
	return resp.Beds
}
