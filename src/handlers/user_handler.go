package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/username/sixex/backend/src/database"
	"github.com/username/sixex/backend/src/logger"
	"github.com/username/sixex/backend/src/model"
	"github.com/username/sixex/backend/src/models"
	"github.com/username/sixex/backend/src/security"
	"github.com/username/sixex/backend/src/security/validation"
	"github.com/username/sixex/backend/src/services"
	"github.com/username/sixex/backend/src/utils"
)

// Custom context key type to avoid collisions with other packages.
type contextKey string

const userIDContextKey contextKey = "userID"

type UserHandler struct {
	authService       *security.AuthService
	investmentService services.InvestmentService
}

func NewUserHandler(authService *security.AuthService, investmentService services.InvestmentService) *UserHandler {
	return &UserHandler{
		authService:       authService,
		investmentService: investmentService,
	}
}

type credentialsPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userPayload struct {
	ID        int64                   `json:"id"`
	Email     string                  `json:"email"`
	CreatedAt time.Time               `json:"created_at"`
	Portfolio []models.PortfolioEntry `json:"portfolio"`
}

type authResponse struct {
	AccessToken  string      `json:"access_token"`
	TokenType    string      `json:"token_type"`
	RefreshToken string      `json:"refresh_token"`
	User         userPayload `json:"user"`
}

// issueTokens creates an access/refresh token pair and the backing session.
func (h *UserHandler) issueTokens(r *http.Request, user *model.User) (accessToken, refreshToken string, err error) {
	accessToken, err = h.authService.GenerateToken(fmt.Sprintf("%d", user.ID))
	if err != nil {
		return "", "", fmt.Errorf("generating access token: %w", err)
	}
	refreshToken, err = h.authService.GenerateRefreshToken()
	if err != nil {
		return "", "", fmt.Errorf("generating refresh token: %w", err)
	}

	session := &model.Session{
		UserID:       user.ID,
		Token:        accessToken,
		RefreshToken: refreshToken,
		UserAgent:    r.UserAgent(),
		ClientIP:     r.RemoteAddr,
		IsBlocked:    false,
		ExpiresAt:    time.Now().UTC().Add(h.authService.RefreshTokenExpiry()),
	}
	if err := model.CreateSession(database.DB, session); err != nil {
		return "", "", fmt.Errorf("creating session: %w", err)
	}
	return accessToken, refreshToken, nil
}

func (h *UserHandler) RegisterUserHandler(w http.ResponseWriter, r *http.Request) {
	var credentials credentialsPayload
	if err := json.NewDecoder(r.Body).Decode(&credentials); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	email := strings.ToLower(strings.TrimSpace(credentials.Email))
	if err := validation.ValidateEmail(email); err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := validation.ValidatePassword(credentials.Password); err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	hashedPassword, err := h.authService.HashPassword(credentials.Password)
	if err != nil {
		logger.L.Error("Failed to hash password during registration", "error", err)
		utils.SendJSONError(w, "Failed to register user", http.StatusInternalServerError)
		return
	}

	user := &model.User{
		Email:    email,
		Password: hashedPassword,
	}
	if err := user.CreateUser(database.DB); err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed: users.email") {
			utils.SendJSONError(w, "Email already registered", http.StatusConflict)
			return
		}
		logger.L.Error("Failed to create user", "error", err)
		utils.SendJSONError(w, "Failed to register user", http.StatusInternalServerError)
		return
	}

	accessToken, refreshToken, err := h.issueTokens(r, user)
	if err != nil {
		logger.L.Error("Failed to issue tokens after registration", "userID", user.ID, "error", err)
		utils.SendJSONError(w, "Failed to create session", http.StatusInternalServerError)
		return
	}

	logger.L.Info("User registered", "userID", user.ID)
	utils.WriteJSON(w, http.StatusCreated, authResponse{
		AccessToken:  accessToken,
		TokenType:    "bearer",
		RefreshToken: refreshToken,
		User: userPayload{
			ID:        user.ID,
			Email:     user.Email,
			CreatedAt: user.CreatedAt,
			Portfolio: []models.PortfolioEntry{},
		},
	})
}

func (h *UserHandler) LoginUserHandler(w http.ResponseWriter, r *http.Request) {
	var credentials credentialsPayload
	if err := json.NewDecoder(r.Body).Decode(&credentials); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	email := strings.ToLower(strings.TrimSpace(credentials.Email))
	user, err := model.GetUserByEmail(database.DB, email)
	if err != nil {
		logger.L.Debug("Login lookup failed", "email", email, "error", err)
		utils.SendJSONError(w, "Incorrect email or password", http.StatusUnauthorized)
		return
	}
	if err := user.CheckPassword(credentials.Password); err != nil {
		logger.L.Debug("Login password check failed", "userID", user.ID)
		utils.SendJSONError(w, "Incorrect email or password", http.StatusUnauthorized)
		return
	}

	accessToken, refreshToken, err := h.issueTokens(r, user)
	if err != nil {
		logger.L.Error("Failed to issue tokens on login", "userID", user.ID, "error", err)
		utils.SendJSONError(w, "Failed to create session", http.StatusInternalServerError)
		return
	}

	portfolio, err := h.investmentService.GetPortfolio(user.ID)
	if err != nil {
		logger.L.Error("Failed to load portfolio on login", "userID", user.ID, "error", err)
		utils.SendJSONError(w, "Failed to load portfolio", http.StatusInternalServerError)
		return
	}

	logger.L.Info("User logged in", "userID", user.ID)
	utils.WriteJSON(w, http.StatusOK, authResponse{
		AccessToken:  accessToken,
		TokenType:    "bearer",
		RefreshToken: refreshToken,
		User: userPayload{
			ID:        user.ID,
			Email:     user.Email,
			CreatedAt: user.CreatedAt,
			Portfolio: portfolio,
		},
	})
}

func (h *UserHandler) RefreshTokenHandler(w http.ResponseWriter, r *http.Request) {
	var requestBody struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&requestBody); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if requestBody.RefreshToken == "" {
		utils.SendJSONError(w, "Refresh token is required", http.StatusBadRequest)
		return
	}

	session, err := model.GetSessionByRefreshToken(database.DB, requestBody.RefreshToken)
	if err != nil {
		logger.L.Warn("Refresh token rejected", "error", err)
		utils.SendJSONError(w, "Invalid refresh token", http.StatusUnauthorized)
		return
	}

	user, err := model.GetUserByID(database.DB, session.UserID)
	if err != nil {
		logger.L.Error("Session references missing user", "userID", session.UserID, "error", err)
		utils.SendJSONError(w, "Invalid refresh token", http.StatusUnauthorized)
		return
	}

	// Rotate the session: the old pair stops working once the new one is issued.
	newAccessToken, newRefreshToken, err := h.issueTokens(r, user)
	if err != nil {
		logger.L.Error("Failed to issue tokens on refresh", "userID", user.ID, "error", err)
		utils.SendJSONError(w, "Failed to refresh session", http.StatusInternalServerError)
		return
	}
	if err := model.DeleteSessionByID(database.DB, session.ID); err != nil {
		logger.L.Warn("Failed to delete rotated session", "sessionID", session.ID, "error", err)
	}

	utils.WriteJSON(w, http.StatusOK, map[string]string{
		"access_token":  newAccessToken,
		"token_type":    "bearer",
		"refresh_token": newRefreshToken,
	})
}

func (h *UserHandler) LogoutUserHandler(w http.ResponseWriter, r *http.Request) {
	tokenString := bearerToken(r)
	if tokenString == "" {
		utils.SendJSONError(w, "Authorization header required", http.StatusUnauthorized)
		return
	}

	if err := model.DeleteSessionByToken(database.DB, tokenString); err != nil {
		logger.L.Warn("Logout: failed to delete session", "error", err)
	}
	w.WriteHeader(http.StatusNoContent)
}

// ProfileHandler returns the authenticated user's profile with the raw
// portfolio attached.
func (h *UserHandler) ProfileHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required or user ID not found in context", http.StatusUnauthorized)
		return
	}

	user, err := model.GetUserByID(database.DB, userID)
	if err != nil {
		logger.L.Error("Profile: user lookup failed", "userID", userID, "error", err)
		utils.SendJSONError(w, "User not found", http.StatusNotFound)
		return
	}

	portfolio, err := h.investmentService.GetPortfolio(userID)
	if err != nil {
		logger.L.Error("Profile: portfolio lookup failed", "userID", userID, "error", err)
		utils.SendJSONError(w, "Failed to load portfolio", http.StatusInternalServerError)
		return
	}

	utils.WriteJSON(w, http.StatusOK, userPayload{
		ID:        user.ID,
		Email:     user.Email,
		CreatedAt: user.CreatedAt,
		Portfolio: portfolio,
	})
}

// GetUserIDFromContext retrieves the authenticated user id placed by
// AuthMiddleware.
func GetUserIDFromContext(ctx context.Context) (int64, bool) {
	userID, ok := ctx.Value(userIDContextKey).(int64)
	return userID, ok
}

// bearerToken extracts the token from an Authorization header, tolerating
// a missing "Bearer " prefix.
func bearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	return authHeader
}
