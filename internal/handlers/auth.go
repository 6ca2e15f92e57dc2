package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/clipstream/apiserver/internal/services"
	"github.com/clipstream/apiserver/types"
)

const (
	accessTokenCookie  = "accessToken"
	refreshTokenCookie = "refreshToken"

	fieldAvatar     = "avatar"
	fieldCoverImage = "coverImage"
)

// AuthHandler provides the session lifecycle endpoints: register,
// login, token refresh, logout, and password change.
type AuthHandler struct {
	sessions *services.SessionService
	users    *services.UserService
	assets   *services.AssetService
	issuer   *services.TokenIssuer
}

// NewAuthHandler constructs an AuthHandler with the provided dependencies.
func NewAuthHandler(
	sessions *services.SessionService,
	users *services.UserService,
	assets *services.AssetService,
	issuer *services.TokenIssuer,
) *AuthHandler {
	return &AuthHandler{
		sessions: sessions,
		users:    users,
		assets:   assets,
		issuer:   issuer,
	}
}

// AuthRouter registers session routes on the given router.
func AuthRouter(r chi.Router, handler *AuthHandler) {
	r.Post("/register", handler.Register)
	r.Post("/login", handler.Login)
	r.Post("/refresh-token", handler.Refresh)
	r.With(handler.RequireAuth).Post("/logout", handler.Logout)
	r.With(handler.RequireAuth).Post("/change-password", handler.ChangePassword)
	r.With(handler.RequireAuth).Get("/current-user", handler.CurrentUser)
}

// RequireAuth verifies the access token from the accessToken cookie
// or Authorization header, resolves it to a live account, and
// injects the sanitized user into the request context. It never
// consults the stored refresh token, so a revoked session keeps
// working until the access token's short TTL elapses.
func (h *AuthHandler) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString := accessTokenFromRequest(r)
		if tokenString == "" {
			writeServiceError(w, services.ErrUnauthorized, "unauthorized")
			return
		}

		claims, err := h.issuer.Verify(tokenString, services.AccessToken)
		if err != nil {
			writeServiceError(w, err, "unauthorized")
			return
		}
		userID, err := claims.UserID()
		if err != nil {
			writeServiceError(w, err, "unauthorized")
			return
		}

		user, err := h.users.GetByID(r.Context(), userID)
		if err != nil {
			if errors.Is(err, services.ErrNotFound) {
				writeServiceError(w, services.ErrUnauthorized, "unauthorized")
				return
			}
			writeError(w, http.StatusInternalServerError, "failed to load user")
			return
		}

		ctx := context.WithValue(r.Context(), contextUserKey, user.Sanitized())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Register creates a new account. The request is multipart: identity
// fields plus a required avatar image and an optional cover image.
// A cover upload failure degrades to "no cover image"; an avatar
// failure fails the registration.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	input := services.RegisterInput{
		UserName: r.FormValue("userName"),
		Email:    r.FormValue("email"),
		FullName: r.FormValue("fullName"),
		Password: r.FormValue("password"),
	}

	avatarData, err := formImage(r, fieldAvatar)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if avatarData == nil {
		writeError(w, http.StatusBadRequest, "avatar image is required")
		return
	}

	avatarURL, err := h.assets.UploadAvatar(r.Context(), avatarData)
	if err != nil {
		writeServiceError(w, err, "failed to upload avatar")
		return
	}
	input.AvatarURL = avatarURL

	if coverData, err := formImage(r, fieldCoverImage); err == nil && coverData != nil {
		if coverURL, err := h.assets.UploadCoverImage(r.Context(), coverData); err == nil {
			input.CoverImageURL = coverURL
		}
	}

	user, err := h.users.Register(r.Context(), input)
	if err != nil {
		writeServiceError(w, err, "failed to create user")
		return
	}

	writeJSON(w, http.StatusCreated, user.Sanitized())
}

// Login verifies credentials, issues a token pair, sets the session
// cookies, and returns the tokens alongside the sanitized user.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	identifier := strings.TrimSpace(req.Identifier)
	if identifier == "" {
		identifier = strings.TrimSpace(req.UserName)
	}
	if identifier == "" {
		identifier = strings.TrimSpace(req.Email)
	}

	user, pair, err := h.sessions.Login(r.Context(), identifier, req.Password)
	if err != nil {
		writeServiceError(w, err, "failed to authenticate")
		return
	}

	setSessionCookies(w, pair)
	writeJSON(w, http.StatusOK, LoginResponse{User: user, TokenPair: pair})
}

// Refresh rotates the refresh token. The presented token comes from
// the refreshToken cookie or the request body.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	presented := ""
	if cookie, err := r.Cookie(refreshTokenCookie); err == nil {
		presented = cookie.Value
	}
	if presented == "" {
		var req RefreshRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err == nil {
			presented = strings.TrimSpace(req.RefreshToken)
		}
	}

	pair, err := h.sessions.Refresh(r.Context(), presented)
	if err != nil {
		writeServiceError(w, err, "failed to refresh session")
		return
	}

	setSessionCookies(w, pair)
	writeJSON(w, http.StatusOK, pair)
}

// Logout clears the server-side session slot and both cookies.
// Idempotent.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	user, err := userFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	if err := h.sessions.Logout(r.Context(), user.ID); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to log out")
		return
	}

	clearSessionCookies(w)
	writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// ChangePassword verifies the old password and replaces it. The
// active session is revoked; the client must log in again.
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	user, err := userFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	if err := h.sessions.ChangePassword(r.Context(), user.ID, req.OldPassword, req.NewPassword); err != nil {
		writeServiceError(w, err, "failed to change password")
		return
	}

	clearSessionCookies(w)
	writeJSON(w, http.StatusOK, map[string]string{"message": "password changed"})
}

// CurrentUser returns the authenticated user.
func (h *AuthHandler) CurrentUser(w http.ResponseWriter, r *http.Request) {
	user, err := userFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

type LoginRequest struct {
	Identifier string `json:"identifier"`
	UserName   string `json:"userName"`
	Email      string `json:"email"`
	Password   string `json:"password"`
}

type LoginResponse struct {
	User types.User `json:"user"`
	services.TokenPair
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type ChangePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

func accessTokenFromRequest(r *http.Request) string {
	if cookie, err := r.Cookie(accessTokenCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	auth := strings.TrimSpace(r.Header.Get("Authorization"))
	if auth == "" {
		return ""
	}
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func setSessionCookies(w http.ResponseWriter, pair services.TokenPair) {
	http.SetCookie(w, sessionCookie(accessTokenCookie, pair.AccessToken, 0))
	http.SetCookie(w, sessionCookie(refreshTokenCookie, pair.RefreshToken, 0))
}

func clearSessionCookies(w http.ResponseWriter) {
	http.SetCookie(w, sessionCookie(accessTokenCookie, "", -1))
	http.SetCookie(w, sessionCookie(refreshTokenCookie, "", -1))
}

func sessionCookie(name, value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	}
}
