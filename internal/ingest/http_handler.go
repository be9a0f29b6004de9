package ingest

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

// Search handles GET /v1/search/albums
// @Summary Search albums
// @Description Search the music catalog. Results are kept briefly so an album can be selected.
// @Tags search
// @Produce json
// @Param q query string true "Search text"
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Results per page (1-50)" default(5)
// @Success 200 {object} httpx.SuccessResponse
// @Failure 400 {object} httpx.ErrorResponse
// @Router /v1/search/albums [get]
func (h *HTTPHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	q := SearchQuery{Q: query.Get("q"), Page: 1, Limit: DefaultSearchLimit}
	var details []httpx.ErrorDetail
	if v := query.Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			details = append(details, httpx.ErrorDetail{Field: "page", Message: "page must be an integer"})
		}
		q.Page = n
	}
	if v := query.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			details = append(details, httpx.ErrorDetail{Field: "limit", Message: "limit must be an integer"})
		}
		q.Limit = n
	}
	if len(details) == 0 {
		details = httpx.ValidateStruct(q)
	}
	if len(details) > 0 {
		httpx.JSONError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid search parameters", details)
		return
	}

	res, err := h.svc.Search(r.Context(), q)
	if err != nil {
		if errors.Is(err, ErrEmptyQuery) {
			httpx.JSONError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "Query parameter \"q\" is required", nil)
			return
		}
		httpx.JSONError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
		return
	}

	httpx.JSONSuccess(w, r, res, nil)
}

// Select handles GET /v1/albums/{id}/select
// @Summary Select an album from recent search results
// @Description Returns the album with its tracklist and saves it to the catalog
// @Tags search
// @Produce json
// @Param id path string true "Catalog album id"
// @Success 200 {object} httpx.SuccessResponse
// @Failure 404 {object} httpx.ErrorResponse
// @Failure 502 {object} httpx.ErrorResponse
// @Router /v1/albums/{id}/select [get]
func (h *HTTPHandler) Select(w http.ResponseWriter, r *http.Request) {
	albumID := r.PathValue("id")
	if albumID == "" {
		httpx.JSONError(w, r, http.StatusBadRequest, "BAD_REQUEST", "Album id is required", nil)
		return
	}

	rec, err := h.svc.Select(r.Context(), albumID)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotInCache):
			httpx.JSONError(w, r, http.StatusNotFound, "NOT_IN_CACHE", "Album not found in recent search results. Please search again.", nil)
		case errors.Is(err, ErrCatalogUnavailable):
			httpx.JSONError(w, r, http.StatusBadGateway, "CATALOG_UNAVAILABLE", "Failed to fetch album tracks from the catalog", nil)
		default:
			httpx.JSONError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
		}
		return
	}

	httpx.JSONSuccess(w, r, rec, nil)
}
