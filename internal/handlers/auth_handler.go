package handlers

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/hostelhub/hostel-booking-backend/internal/config"
	"github.com/hostelhub/hostel-booking-backend/internal/database"
	"github.com/hostelhub/hostel-booking-backend/internal/middleware"
	"github.com/hostelhub/hostel-booking-backend/internal/models"
	"github.com/hostelhub/hostel-booking-backend/pkg/jwt"
	"github.com/hostelhub/hostel-booking-backend/pkg/validator"
)

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	jwtService          *jwt.Service
	credentialValidator *validator.CredentialValidator
	userRepository      *database.UserRepository
	buildingRepository  *database.BuildingRepository
	config              *config.Config
	logger              *logrus.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(
	jwtService *jwt.Service,
	credentialValidator *validator.CredentialValidator,
	userRepository *database.UserRepository,
	buildingRepository *database.BuildingRepository,
	cfg *config.Config,
	logger *logrus.Logger,
) *AuthHandler {
	return &AuthHandler{
		jwtService:          jwtService,
		credentialValidator: credentialValidator,
		userRepository:      userRepository,
		buildingRepository:  buildingRepository,
		config:              cfg,
		logger:              logger,
	}
}

// Signup handles POST /api/v1/auth/signup
func (h *AuthHandler) Signup(c *gin.Context) {
	var req models.SignupRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.AuthResponse{
			Success: false,
			Error:   "Name, email and password are required",
		})
		return
	}

	email, err := h.credentialValidator.ValidateEmail(req.Email)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.AuthResponse{
			Success: false,
			Error:   err.Error(),
		})
		return
	}

	if err := h.credentialValidator.ValidatePassword(req.Password); err != nil {
		c.JSON(http.StatusBadRequest, models.AuthResponse{
			Success: false,
			Error:   err.Error(),
		})
		return
	}

	if existing, err := h.userRepository.GetByEmail(email); err == nil && existing != nil {
		c.JSON(http.StatusConflict, models.AuthResponse{
			Success: false,
			Error:   "An account with this email already exists",
		})
		return
	} else if err != nil && !errors.Is(err, sql.ErrNoRows) {
		h.logger.WithError(err).Error("Failed to check existing user")
		c.JSON(http.StatusInternalServerError, models.AuthResponse{
			Success: false,
			Error:   "Failed to create account",
		})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), h.config.Security.BcryptCost)
	if err != nil {
		h.logger.WithError(err).Error("Failed to hash password")
		c.JSON(http.StatusInternalServerError, models.AuthResponse{
			Success: false,
			Error:   "Failed to create account",
		})
		return
	}

	user, err := h.userRepository.CreateUser(req.Name, email, string(hash), models.RoleStudent)
	if err != nil {
		h.logger.WithError(err).Error("Failed to create user")
		c.JSON(http.StatusInternalServerError, models.AuthResponse{
			Success: false,
			Error:   "Failed to create account",
		})
		return
	}

	h.respondWithTokens(c, http.StatusCreated, "Account created successfully", user)
}

// Login handles POST /api/v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.AuthResponse{
			Success: false,
			Error:   "Email and password are required",
		})
		return
	}

	email, err := h.credentialValidator.ValidateEmail(req.Email)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.AuthResponse{
			Success: false,
			Error:   err.Error(),
		})
		return
	}

	user, err := h.userRepository.GetByEmail(email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusUnauthorized, models.AuthResponse{
				Success: false,
				Error:   "Invalid email or password",
			})
			return
		}
		h.logger.WithError(err).Error("Failed to look up user")
		c.JSON(http.StatusInternalServerError, models.AuthResponse{
			Success: false,
			Error:   "Failed to log in",
		})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		c.JSON(http.StatusUnauthorized, models.AuthResponse{
			Success: false,
			Error:   "Invalid email or password",
		})
		return
	}

	h.respondWithTokens(c, http.StatusOK, "Logged in successfully", user)
}

// GetProfile handles GET /api/v1/auth/profile
func (h *AuthHandler) GetProfile(c *gin.Context) {
	userCtx, ok := middleware.GetUserContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, models.AuthResponse{
			Success: false,
			Error:   "Authentication required",
		})
		return
	}

	user, err := h.userRepository.GetByID(userCtx.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, models.AuthResponse{
				Success: false,
				Error:   "User not found",
			})
			return
		}
		h.logger.WithError(err).Error("Failed to load profile")
		c.JSON(http.StatusInternalServerError, models.AuthResponse{
			Success: false,
			Error:   "Failed to load profile",
		})
		return
	}

	beds, err := h.buildingRepository.GetBedsByUserID(userCtx.UserID.String())
	if err != nil {
		h.logger.WithError(err).Error("Failed to load occupied beds for profile")
		c.JSON(http.StatusInternalServerError, models.AuthResponse{
			Success: false,
			Error:   "Failed to load profile",
		})
		return
	}

	c.JSON(http.StatusOK, models.AuthResponse{
		Success: true,
		User:    user,
		Beds:    beds,
	})
}

func (h *AuthHandler) respondWithTokens(c *gin.Context, status int, message string, user *models.User) {
	accessToken, err := h.jwtService.GenerateAccessToken(user.ID, user.Email, user.Name, string(user.Role))
	if err != nil {
		h.logger.WithError(err).Error("Failed to generate access token")
		c.JSON(http.StatusInternalServerError, models.AuthResponse{
			Success: false,
			Error:   "Failed to generate token",
		})
		return
	}

	refreshToken, err := h.jwtService.GenerateRefreshToken(user.ID, user.Email)
	if err != nil {
		h.logger.WithError(err).Error("Failed to generate refresh token")
		c.JSON(http.StatusInternalServerError, models.AuthResponse{
			Success: false,
			Error:   "Failed to generate token",
		})
		return
	}

	c.JSON(status, models.AuthResponse{
		Success:      true,
		Message:      message,
		Token:        accessToken,
		RefreshToken: refreshToken,
		User:         user,
	})
}
