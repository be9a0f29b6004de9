package catalog

import (
	"errors"
	"net/http"
	"strconv"

	"musicapi/internal/httpx"
)

type HTTPHandler struct {
	svc *Service
}

func NewHTTPHandler(svc *Service) *HTTPHandler {
	return &HTTPHandler{svc: svc}
}

// ListAlbums handles GET /v1/albums
// @Summary List persisted albums
// @Description Browse albums that have been saved to the local catalog
// @Tags albums
// @Produce json
// @Param q query string false "Match album or artist name"
// @Param author_id query int false "Filter by artist id"
// @Param genre_id query int false "Filter by genre id"
// @Param page query int false "Page number" default(1)
// @Param page_size query int false "Items per page" default(20)
// @Success 200 {object} httpx.SuccessResponse
// @Failure 400 {object} httpx.ErrorResponse
// @Failure 500 {object} httpx.ErrorResponse
// @Router /v1/albums [get]
func (h *HTTPHandler) ListAlbums(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	page, _ := strconv.Atoi(query.Get("page"))
	pageSize, _ := strconv.Atoi(query.Get("page_size"))
	params := ListParams{Q: query.Get("q"), Page: page, PageSize: pageSize}

	var details []httpx.ErrorDetail
	if v := query.Get("author_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			details = append(details, httpx.ErrorDetail{Field: "author_id", Message: "must be an integer"})
		} else {
			params.AuthorID = &id
		}
	}
	if v := query.Get("genre_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			details = append(details, httpx.ErrorDetail{Field: "genre_id", Message: "must be an integer"})
		} else {
			params.GenreID = &id
		}
	}
	if len(details) > 0 {
		httpx.JSONError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid query parameters", details)
		return
	}

	res, err := h.svc.ListAlbums(r.Context(), params)
	if err != nil {
		httpx.JSONError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
		return
	}

	httpx.JSONSuccess(w, r, res.Albums, map[string]any{
		"page":        res.Page,
		"page_size":   res.PageSize,
		"total":       res.Total,
		"total_pages": res.TotalPages,
	})
}

// GetAlbum handles GET /v1/albums/{id}
// @Summary Get a persisted album
// @Description Retrieve a saved album with its artist, genre and songs
// @Tags albums
// @Produce json
// @Param id path int true "Album id"
// @Success 200 {object} httpx.SuccessResponse
// @Failure 400 {object} httpx.ErrorResponse
// @Failure 404 {object} httpx.ErrorResponse
// @Failure 500 {object} httpx.ErrorResponse
// @Router /v1/albums/{id} [get]
func (h *HTTPHandler) GetAlbum(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id < 0 {
		httpx.JSONError(w, r, http.StatusBadRequest, "BAD_REQUEST", "Album id must be a non-negative integer", nil)
		return
	}

	album, err := h.svc.GetAlbum(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.JSONError(w, r, http.StatusNotFound, "NOT_FOUND", "Album not found", nil)
			return
		}
		httpx.JSONError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
		return
	}

	httpx.JSONSuccess(w, r, album, nil)
}
