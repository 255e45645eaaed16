package handlers

import (
	"encoding/json"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/inkwell/inkwell-be/internal/auth"
	"github.com/inkwell/inkwell-be/internal/services"
	"github.com/inkwell/inkwell-be/internal/uploads"
)

// AuthHandler handles registration, login, and profile management.
type AuthHandler struct {
	users         services.UserServiceProvider
	sessions      services.SessionServiceProvider
	profileImages *uploads.Store
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(users services.UserServiceProvider, sessions services.SessionServiceProvider, profileImages *uploads.Store) *AuthHandler {
	return &AuthHandler{users: users, sessions: sessions, profileImages: profileImages}
}

// RegisterPayload defines the structure for registration requests.
type RegisterPayload struct {
	FirstName  string `json:"first_name"`
	MiddleName string `json:"middle_name"`
	LastName   string `json:"last_name"`
	Username   string `json:"username"`
	Email      string `json:"email"`
	Password   string `json:"password"`
	Role       string `json:"role"`
}

// LoginPayload defines the structure for login requests.
type LoginPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register handles new user registration.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var payload RegisterPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	_, err := h.users.Register(services.RegisterInput{
		FirstName:  payload.FirstName,
		MiddleName: payload.MiddleName,
		LastName:   payload.LastName,
		Username:   payload.Username,
		Email:      payload.Email,
		Password:   payload.Password,
		Role:       payload.Role,
	})
	if err != nil {
		log.Warn().Err(err).Str("email", payload.Email).Msg("Failed to register user")
		respondServiceError(w, err)
		return
	}

	respondSuccess(w, http.StatusCreated, envelope{"message": "User registered successfully"})
}

// Login handles user authentication and session creation.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var payload LoginPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := h.users.Authenticate(payload.Email, payload.Password)
	if err != nil {
		log.Warn().Str("email", payload.Email).Msg("Failed authentication attempt")
		respondServiceError(w, err)
		return
	}

	session, err := h.sessions.Create(user.ID)
	if err != nil {
		log.Error().Err(err).Int64("user_id", user.ID).Msg("Failed to create session")
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	// Set Secure flag based on environment.
	isProd := os.Getenv("APP_ENV") == "production"

	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookie,
		Value:    session.Token,
		Expires:  session.ExpiresAt,
		HttpOnly: true,
		Secure:   isProd,
		SameSite: http.SameSiteStrictMode,
		Path:     "/",
	})

	respondSuccess(w, http.StatusOK, envelope{"message": "Login successful", "user": user})
}

// Check answers whether the request carries a live session, and with whom.
func (h *AuthHandler) Check(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	user, err := h.users.GetByID(userID)
	if err != nil {
		log.Error().Err(err).Int64("user_id", userID).Msg("Session user not found in DB")
		respondError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	respondSuccess(w, http.StatusOK, envelope{"user": user})
}

// Logout destroys the session and clears the cookie.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if token, ok := auth.Token(r.Context()); ok {
		if err := h.sessions.Delete(token); err != nil {
			log.Error().Err(err).Msg("Failed to delete session")
			respondError(w, http.StatusInternalServerError, "Internal server error")
			return
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookie,
		Value:    "",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Path:     "/",
	})

	respondSuccess(w, http.StatusOK, envelope{"message": "Logged out"})
}

// UpdateProfile overwrites the profile fields of the session's own user.
// The target id always comes from the session, never from the client.
func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserID(r.Context())

	var payload struct {
		FirstName  string `json:"first_name"`
		MiddleName string `json:"middle_name"`
		LastName   string `json:"last_name"`
		Pronouns   string `json:"pronouns"`
		Bio        string `json:"bio"`
		Role       string `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	err := h.users.UpdateProfile(userID, services.ProfileInput{
		FirstName:  payload.FirstName,
		MiddleName: payload.MiddleName,
		LastName:   payload.LastName,
		Pronouns:   payload.Pronouns,
		Bio:        payload.Bio,
		Role:       payload.Role,
	})
	if err != nil {
		log.Error().Err(err).Int64("user_id", userID).Msg("Failed to update profile")
		respondServiceError(w, err)
		return
	}

	respondSuccess(w, http.StatusOK, envelope{"message": "Profile updated"})
}

// UploadImage validates and stores a profile image, then records its path
// on the user row.
func (h *AuthHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserID(r.Context())

	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid multipart request")
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		respondError(w, http.StatusBadRequest, "Image file is required")
		return
	}
	defer file.Close()

	path, err := h.profileImages.Save(header.Filename, header.Size, file)
	if err != nil {
		log.Warn().Err(err).Int64("user_id", userID).Str("file", header.Filename).Msg("Rejected profile image upload")
		respondServiceError(w, err)
		return
	}

	if err := h.users.SetProfileImage(userID, path); err != nil {
		log.Error().Err(err).Int64("user_id", userID).Msg("Failed to record profile image")
		// The row was never updated, so the saved file is an orphan.
		if rmErr := h.profileImages.Remove(path); rmErr != nil {
			log.Warn().Err(rmErr).Str("file", path).Msg("Failed to remove orphaned profile image")
		}
		respondServiceError(w, err)
		return
	}

	respondSuccess(w, http.StatusOK, envelope{"message": "Image uploaded", "path": path})
}
