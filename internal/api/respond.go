package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/sells-group/shoe-curation/internal/aggregate"
	"github.com/sells-group/shoe-curation/internal/curation"
	"github.com/sells-group/shoe-curation/internal/model"
	"github.com/sells-group/shoe-curation/internal/scrape"
	"github.com/sells-group/shoe-curation/internal/store"
	"github.com/sells-group/shoe-curation/internal/summarize"
)

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("api: encode response", zap.Error(err))
	}
}

// writeError maps domain errors to status codes. Unknown errors are logged
// and reported as 500 without their message.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		verr  *model.ValidationError
		serr  *summarize.SummarizationError
		aerr  *aggregate.AggregationFailure
		scErr *scrape.ScrapeError
	)
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "validation failed", Details: verr.Fields})
	case errors.Is(err, store.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody{Error: "not found"})
	case errors.As(err, &serr):
		status := http.StatusUnprocessableEntity
		if serr.Precondition {
			status = http.StatusBadRequest
		}
		writeJSON(w, status, errorBody{Error: serr.Reason})
	case errors.As(err, &aerr):
		writeJSON(w, http.StatusBadGateway, errorBody{Error: "all sources failed", Details: aerr.Errors})
	case errors.As(err, &scErr):
		writeJSON(w, http.StatusBadGateway, errorBody{Error: scErr.Error()})
	case errors.Is(err, curation.ErrCollectorUnavailable):
		writeJSON(w, http.StatusServiceUnavailable, errorBody{Error: "collector not configured"})
	case errors.Is(err, context.DeadlineExceeded):
		writeJSON(w, http.StatusGatewayTimeout, errorBody{Error: "request timed out"})
	default:
		zap.L().Error("api: request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.Error(err),
		)
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
	}
}

func validationError(field, format string, args ...any) *model.ValidationError {
	v := &model.ValidationError{}
	v.Add(field, format, args...)
	return v
}

// decodeJSON reads a JSON body into dst. An empty body leaves dst as is, so
// callers pre-fill defaults.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	err := json.NewDecoder(r.Body).Decode(dst)
	switch {
	case err == nil, errors.Is(err, io.EOF):
		return nil
	default:
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return validationError("body", "must be at most %d bytes", maxJSONBody)
		}
		return validationError("body", "invalid JSON: %v", err)
	}
}
