// internal/handlers/respond.go
package handlers

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/Degbogueur/stock-management/internal/core/domain"
	"github.com/Degbogueur/stock-management/internal/core/ports"
)

// respondJSON writes data as a JSON response with the given status code.
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if data == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response",
			slog.String("error", err.Error()))
	}
}

// respondError writes an error message as a JSON response.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondServiceError maps domain errors to HTTP status codes. Anything
// outside the domain taxonomy becomes an opaque 500.
func respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case domain.IsValidation(err):
		respondError(w, http.StatusBadRequest, err.Error())
	case domain.IsNotFound(err):
		respondError(w, http.StatusNotFound, err.Error())
	case domain.IsConflict(err):
		respondError(w, http.StatusConflict, err.Error())
	default:
		respondError(w, http.StatusInternalServerError, "internal server error")
	}
}

// parseListParams reads the shared data-grid parameters from the query
// string. Unknown values fall back to defaults.
func parseListParams(r *http.Request) ports.ListParams {
	params := ports.ListParams{
		Page:     1,
		PageSize: 25,
	}

	q := r.URL.Query()

	if page := q.Get("page"); page != "" {
		if p, err := strconv.Atoi(page); err == nil && p > 0 {
			params.Page = p
		}
	}

	if size := q.Get("page_size"); size != "" {
		if s, err := strconv.Atoi(size); err == nil && s > 0 {
			params.PageSize = s
		}
	}

	params.SearchTerm = q.Get("search")
	params.SortBy = q.Get("sort")
	params.SortDescending = q.Get("order") == "desc"

	params.Normalize()
	return params
}

// parseDateParam parses an optional yyyy-mm-dd query parameter. A missing
// parameter yields nil without error.
func parseDateParam(r *http.Request, name string) (*time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, fmt.Errorf("invalid %s: expected yyyy-mm-dd", name)
	}
	return &t, nil
}
