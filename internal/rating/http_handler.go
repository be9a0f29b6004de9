package rating

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"musicapi/internal/httpx"
)

type HTTPHandler struct {
	service *Service
}

func NewHTTPHandler(service *Service) *HTTPHandler {
	return &HTTPHandler{service: service}
}

type createRatingReq struct {
	Star int `json:"star" validate:"required,min=1,max=5"`
}

// CreateRating handles POST /v1/albums/{id}/rating
// @Summary Create or update album rating
// @Description Rate a saved album (1-5 stars)
// @Tags ratings
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "Album id"
// @Param request body createRatingReq true "Rating request"
// @Success 204 "No Content"
// @Failure 400 {object} httpx.ErrorResponse
// @Failure 401 {object} httpx.ErrorResponse
// @Failure 404 {object} httpx.ErrorResponse
// @Failure 500 {object} httpx.ErrorResponse
// @Router /v1/albums/{id}/rating [post]
func (h *HTTPHandler) CreateRating(w http.ResponseWriter, r *http.Request) {
	userID := httpx.UserIDFrom(r)
	if userID == "" {
		httpx.JSONError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized", nil)
		return
	}

	albumID, ok := albumIDFrom(w, r)
	if !ok {
		return
	}

	var req createRatingReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, r, http.StatusBadRequest, "BAD_REQUEST", "Invalid request body", nil)
		return
	}

	if validationErrors := httpx.ValidateStruct(req); len(validationErrors) > 0 {
		httpx.JSONError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid input", validationErrors)
		return
	}

	if err := h.service.Rate(r.Context(), userID, albumID, req.Star); err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			httpx.JSONError(w, r, http.StatusNotFound, "NOT_FOUND", "Album not found", nil)
		case errors.Is(err, ErrInvalidStar):
			httpx.JSONError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
		default:
			httpx.JSONError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
		}
		return
	}

	httpx.JSONSuccessNoContent(w)
}

// GetRating handles GET /v1/albums/{id}/rating
// @Summary Get album rating
// @Description Get average rating and total count for an album
// @Tags ratings
// @Produce json
// @Param id path int true "Album id"
// @Success 200 {object} httpx.SuccessResponse
// @Failure 400 {object} httpx.ErrorResponse
// @Failure 500 {object} httpx.ErrorResponse
// @Router /v1/albums/{id}/rating [get]
func (h *HTTPHandler) GetRating(w http.ResponseWriter, r *http.Request) {
	albumID, ok := albumIDFrom(w, r)
	if !ok {
		return
	}

	summary, err := h.service.GetAlbumSummary(r.Context(), albumID)
	if err != nil {
		httpx.JSONError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
		return
	}

	httpx.JSONSuccess(w, r, summary, nil)
}

// GetMyRating handles GET /v1/albums/{id}/rating/me
// @Summary Get the caller's rating of an album
// @Tags ratings
// @Produce json
// @Security Bearer
// @Param id path int true "Album id"
// @Success 200 {object} httpx.SuccessResponse
// @Failure 401 {object} httpx.ErrorResponse
// @Failure 404 {object} httpx.ErrorResponse
// @Router /v1/albums/{id}/rating/me [get]
func (h *HTTPHandler) GetMyRating(w http.ResponseWriter, r *http.Request) {
	userID := httpx.UserIDFrom(r)
	if userID == "" {
		httpx.JSONError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized", nil)
		return
	}
	albumID, ok := albumIDFrom(w, r)
	if !ok {
		return
	}

	star, err := h.service.GetUserRating(r.Context(), userID, albumID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.JSONError(w, r, http.StatusNotFound, "NOT_FOUND", "Rating not found", nil)
			return
		}
		httpx.JSONError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
		return
	}

	httpx.JSONSuccess(w, r, Rating{UserID: userID, AlbumID: albumID, Star: star}, nil)
}

// GetMyStats handles GET /v1/me/ratings
// @Summary Get the caller's rating statistics
// @Tags ratings
// @Produce json
// @Security Bearer
// @Success 200 {object} httpx.SuccessResponse
// @Failure 401 {object} httpx.ErrorResponse
// @Router /v1/me/ratings [get]
func (h *HTTPHandler) GetMyStats(w http.ResponseWriter, r *http.Request) {
	userID := httpx.UserIDFrom(r)
	if userID == "" {
		httpx.JSONError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized", nil)
		return
	}

	summary, err := h.service.GetUserSummary(r.Context(), userID)
	if err != nil {
		httpx.JSONError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
		return
	}

	httpx.JSONSuccess(w, r, summary, nil)
}

func albumIDFrom(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id < 0 {
		httpx.JSONError(w, r, http.StatusBadRequest, "BAD_REQUEST", "Invalid album id", nil)
		return 0, false
	}
	return id, true
}
