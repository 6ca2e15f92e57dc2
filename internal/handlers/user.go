package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/clipstream/apiserver/internal/services"
	"github.com/clipstream/apiserver/types"
)

// UserHandler provides the profile, channel, and watch history
// endpoints. All routes require an authenticated user.
type UserHandler struct {
	users    *services.UserService
	assets   *services.AssetService
	channels *services.ChannelService
	watch    *services.WatchService
}

func NewUserHandler(
	users *services.UserService,
	assets *services.AssetService,
	channels *services.ChannelService,
	watch *services.WatchService,
) *UserHandler {
	return &UserHandler{
		users:    users,
		assets:   assets,
		channels: channels,
		watch:    watch,
	}
}

// UserRouter registers profile and channel routes on the given
// router behind the provided auth middleware.
func UserRouter(r chi.Router, handler *UserHandler, authMiddleware func(http.Handler) http.Handler) {
	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)

		r.Patch("/update-user", handler.UpdateProfile)
		r.Patch("/update-avatar", handler.UpdateAvatar)
		r.Patch("/update-cover-image", handler.UpdateCoverImage)

		r.Get("/channel/{userName}", handler.ChannelProfile)
		r.Post("/channel/{userName}/subscribe", handler.Subscribe)
		r.Delete("/channel/{userName}/subscribe", handler.Unsubscribe)

		r.Get("/watch-history", handler.WatchHistory)
		r.Post("/watch-history/{videoID}", handler.RecordWatch)
	})
}

// UpdateProfile changes fullName, email, and/or userName. Fields
// left blank keep their current value.
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	user, err := userFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	updated, err := h.users.UpdateProfile(r.Context(), user.ID, req.UserName, req.Email, req.FullName)
	if err != nil {
		writeServiceError(w, err, "failed to update user")
		return
	}

	writeJSON(w, http.StatusOK, updated.Sanitized())
}

// UpdateAvatar replaces the avatar image (multipart field "avatar").
func (h *UserHandler) UpdateAvatar(w http.ResponseWriter, r *http.Request) {
	h.updateImage(w, r, fieldAvatar)
}

// UpdateCoverImage replaces the cover image (multipart field "coverImage").
func (h *UserHandler) UpdateCoverImage(w http.ResponseWriter, r *http.Request) {
	h.updateImage(w, r, fieldCoverImage)
}

func (h *UserHandler) updateImage(w http.ResponseWriter, r *http.Request, field string) {
	user, err := userFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	data, err := formImage(r, field)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if data == nil {
		writeError(w, http.StatusBadRequest, field+" image is required")
		return
	}

	var updated types.User
	switch field {
	case fieldAvatar:
		url, err := h.assets.UploadAvatar(r.Context(), data)
		if err != nil {
			writeServiceError(w, err, "failed to upload avatar")
			return
		}
		updated, err = h.users.UpdateAvatar(r.Context(), user.ID, url)
		if err != nil {
			writeServiceError(w, err, "failed to update avatar")
			return
		}
	default:
		url, err := h.assets.UploadCoverImage(r.Context(), data)
		if err != nil {
			writeServiceError(w, err, "failed to upload cover image")
			return
		}
		updated, err = h.users.UpdateCoverImage(r.Context(), user.ID, url)
		if err != nil {
			writeServiceError(w, err, "failed to update cover image")
			return
		}
	}

	writeJSON(w, http.StatusOK, updated.Sanitized())
}

// ChannelProfile returns the named channel with subscription counts
// as seen by the authenticated user.
func (h *UserHandler) ChannelProfile(w http.ResponseWriter, r *http.Request) {
	user, err := userFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	userName := chi.URLParam(r, "userName")
	profile, err := h.channels.Profile(r.Context(), userName, user.ID)
	if err != nil {
		writeServiceError(w, err, "failed to load channel")
		return
	}

	writeJSON(w, http.StatusOK, profile)
}

func (h *UserHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	user, err := userFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	if err := h.channels.Subscribe(r.Context(), user.ID, chi.URLParam(r, "userName")); err != nil {
		writeServiceError(w, err, "failed to subscribe")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "subscribed"})
}

func (h *UserHandler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	user, err := userFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	if err := h.channels.Unsubscribe(r.Context(), user.ID, chi.URLParam(r, "userName")); err != nil {
		writeServiceError(w, err, "failed to unsubscribe")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "unsubscribed"})
}

// WatchHistory returns a newest-first page of watched videos.
func (h *UserHandler) WatchHistory(w http.ResponseWriter, r *http.Request) {
	user, err := userFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	page, limit, offset, err := parsePagination(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	entries, total, err := h.watch.History(r.Context(), user.ID, offset, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load watch history")
		return
	}

	writeJSON(w, http.StatusOK, WatchHistoryResponse{
		Items: entries,
		Page:  page,
		Limit: limit,
		Total: total,
	})
}

// RecordWatch appends a video to the user's watch history.
func (h *UserHandler) RecordWatch(w http.ResponseWriter, r *http.Request) {
	user, err := userFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	videoID, err := uuid.Parse(chi.URLParam(r, "videoID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid video id")
		return
	}

	if err := h.watch.Record(r.Context(), user.ID, videoID); err != nil {
		writeServiceError(w, err, "failed to record watch")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type UpdateProfileRequest struct {
	UserName string `json:"userName"`
	Email    string `json:"email"`
	FullName string `json:"fullName"`
}

// WatchHistoryResponse is the paginated watch history payload.
type WatchHistoryResponse struct {
	Items []types.WatchEntry `json:"items"`
	Page  int                `json:"page"`
	Limit int                `json:"limit"`
	Total int                `json:"total"`
}
