package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/mecsentinel/internal/auth"
	"github.com/ukydev/mecsentinel/internal/db"
	"github.com/ukydev/mecsentinel/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AuthHandler handles sign-in, sessions and the user profile.
type AuthHandler struct {
	authService    *auth.Service
	userCollection db.UserCollection
}

// NewAuthHandler creates a new authentication handler
func NewAuthHandler(authService *auth.Service, userCollection db.UserCollection) *AuthHandler {
	return &AuthHandler{
		authService:    authService,
		userCollection: userCollection,
	}
}

// SignIn checks email and password and starts a session.
func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req models.SignInRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	user, err := h.userCollection.FindUserByEmail(r.Context(), models.NormalizeEmail(req.Email))
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	if err := h.authService.Authenticate(user, req.Password); err != nil {
		if errors.Is(err, auth.ErrUserInactive) {
			writeError(w, http.StatusUnauthorized, "Account is deactivated")
			return
		}
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	if err := h.userCollection.UpdateLastLogin(r.Context(), user.ID.Hex()); err != nil {
		log.WithError(err).WithField("user_id", user.ID.Hex()).Warn("Failed to update last login")
	}
	h.startSession(w, user, http.StatusOK)
}

// Register creates an account and starts a session.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	email := models.NormalizeEmail(req.Email)
	if err := h.authService.ValidateEmail(email); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.authService.ValidatePassword(req.Password); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.FullName) == "" {
		writeError(w, http.StatusBadRequest, "Full name is required")
		return
	}

	if _, err := h.userCollection.FindUserByEmail(r.Context(), email); err == nil {
		writeError(w, http.StatusConflict, "Email already exists")
		return
	}

	passwordHash, err := h.authService.HashPassword(req.Password)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to hash password")
		return
	}

	now := time.Now()
	user := models.User{
		ID:                 primitive.NewObjectID(),
		Email:              email,
		PasswordHash:       passwordHash,
		FullName:           strings.TrimSpace(req.FullName),
		Phone:              strings.TrimSpace(req.Phone),
		SubscriptionStatus: models.SubscriptionTrial,
		Plan:               models.PlanBasic,
		IsActive:           true,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := h.userCollection.InsertUser(r.Context(), user); err != nil {
		log.WithError(err).Error("Failed to create user")
		writeError(w, http.StatusInternalServerError, "Failed to create user")
		return
	}

	log.WithField("user_id", user.ID.Hex()).Info("User registered")
	h.startSession(w, &user, http.StatusCreated)
}

func (h *AuthHandler) startSession(w http.ResponseWriter, user *models.User, status int) {
	token, expiresAt, err := h.authService.GenerateToken(user)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to generate token")
		return
	}
	h.authService.SetSessionCookie(w, token, expiresAt)
	writeJSON(w, status, models.SessionResponse{Token: token, ExpiresAt: expiresAt, User: *user})
}

// SignOut clears the session cookie.
func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	h.authService.ClearSessionCookie(w)
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// Session returns the signed-in user and the session expiry.
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFrom(w, r)
	if !ok {
		return
	}
	user, err := h.userCollection.FindUserByID(r.Context(), claims.UserID)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Session user not found")
		return
	}
	writeJSON(w, http.StatusOK, models.SessionResponse{ExpiresAt: time.Unix(claims.Exp, 0).UTC(), User: *user})
}

// SetSession mirrors client-side auth state changes into the session cookie.
func (h *AuthHandler) SetSession(w http.ResponseWriter, r *http.Request) {
	var event models.SessionEvent
	if err := decodeJSON(r, &event); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{"ok": false, "error": "Invalid payload"})
		return
	}

	switch event.Event {
	case models.SessionSignedIn, models.SessionTokenRefreshed:
		if event.Session == nil || event.Session.AccessToken == "" {
			break
		}
		claims, err := h.authService.ValidateToken(event.Session.AccessToken)
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, map[string]interface{}{"ok": false, "error": "Invalid token"})
			return
		}
		h.authService.SetSessionCookie(w, event.Session.AccessToken, time.Unix(claims.Exp, 0))
	case models.SessionSignedOut:
		h.authService.ClearSessionCookie(w)
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// GetProfile returns the current user's profile
func (h *AuthHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFrom(w, r)
	if !ok {
		return
	}

	user, err := h.userCollection.FindUserByID(r.Context(), claims.UserID)
	if err != nil {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// UpdateProfile updates the current user's profile
func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFrom(w, r)
	if !ok {
		return
	}

	var req models.ProfileUpdate
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	user, err := h.userCollection.FindUserByID(r.Context(), claims.UserID)
	if err != nil {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}

	if name := strings.TrimSpace(req.FullName); name != "" {
		user.FullName = name
	}
	if phone := strings.TrimSpace(req.Phone); phone != "" {
		user.Phone = phone
	}
	if req.Email != "" {
		email := models.NormalizeEmail(req.Email)
		if err := h.authService.ValidateEmail(email); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		existing, err := h.userCollection.FindUserByEmail(r.Context(), email)
		if err == nil && existing.ID.Hex() != claims.UserID {
			writeError(w, http.StatusConflict, "Email already exists")
			return
		}
		user.Email = email
	}

	if err := h.userCollection.UpdateUser(r.Context(), claims.UserID, *user); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update user")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// ChangePassword changes the current user's password
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFrom(w, r)
	if !ok {
		return
	}

	var req models.PasswordChange
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.CurrentPassword == "" || req.NewPassword == "" {
		writeError(w, http.StatusBadRequest, "Current password and new password are required")
		return
	}
	if err := h.authService.ValidatePassword(req.NewPassword); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.userCollection.FindUserByID(r.Context(), claims.UserID)
	if err != nil {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	if !h.authService.CheckPassword(req.CurrentPassword, user.PasswordHash) {
		writeError(w, http.StatusUnauthorized, "Current password is incorrect")
		return
	}

	newHash, err := h.authService.HashPassword(req.NewPassword)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to hash password")
		return
	}
	user.PasswordHash = newHash
	if err := h.userCollection.UpdateUser(r.Context(), claims.UserID, *user); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update password")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Password changed successfully"})
}
