package api

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/sells-group/shoe-curation/internal/curation"
	"github.com/sells-group/shoe-curation/internal/model"
	"github.com/sells-group/shoe-curation/internal/store"
	"github.com/sells-group/shoe-curation/internal/workbook"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func (s *Server) handleListSources(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var typ model.SourceType
	if raw := q.Get("type"); raw != "" {
		// An unknown name is passed through so List reports it.
		typ, _ = model.ParseSourceType(raw)
	}
	limit := 0
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, r, validationError("limit", "must be an integer"))
			return
		}
		limit = n
	}

	sources, err := s.curator.List(r.Context(), chi.URLParam(r, "shoeID"), typ, limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": sources})
}

func (s *Server) handleCreateSource(w http.ResponseWriter, r *http.Request) {
	var in curation.ManualInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	in.Type = model.SourceType(strings.ToUpper(strings.TrimSpace(string(in.Type))))

	src, err := s.curator.CreateManual(r.Context(), chi.URLParam(r, "shoeID"), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"data": src})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	opts := curation.DefaultRefreshOptions()
	if err := decodeJSON(w, r, &opts); err != nil {
		writeError(w, r, err)
		return
	}

	res, err := s.curator.Refresh(r.Context(), chi.URLParam(r, "shoeID"), opts)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleRescore(w http.ResponseWriter, r *http.Request) {
	res, err := s.curator.Rescore(r.Context(), chi.URLParam(r, "shoeID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleSetStatus(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Status string `json:"status"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	status := model.SourceStatus(strings.ToUpper(strings.TrimSpace(body.Status)))

	src, err := s.curator.SetStatus(r.Context(), chi.URLParam(r, "sourceID"), status)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": src})
}

// handleExport streams every stored source of a shoe, any status, as XLSX.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	shoe, err := s.catalog.GetShoe(r.Context(), chi.URLParam(r, "shoeID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	sources, err := s.catalog.ListSources(r.Context(), store.SourceFilter{ShoeID: shoe.ID, Limit: store.MaxListLimit})
	if err != nil {
		writeError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := workbook.WriteSources(&buf, *shoe, sources); err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s-curated-sources.xlsx"`, shoe.ID))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

type importFailure struct {
	Row     int                `json:"row"`
	Error   string             `json:"error"`
	Details []model.FieldError `json:"details,omitempty"`
}

// handleImport creates manual sources from an XLSX request body.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	shoe, err := s.catalog.GetShoe(r.Context(), chi.URLParam(r, "shoeID"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWorkbookBody))
	if err != nil {
		writeError(w, r, validationError("file", "must be at most %d bytes", maxWorkbookBody))
		return
	}
	rows, err := workbook.ParseManual(data)
	if err != nil {
		writeError(w, r, validationError("file", "%v", err))
		return
	}

	res, err := workbook.Import(r.Context(), s.curator, shoe.ID, rows)
	if err != nil {
		writeError(w, r, err)
		return
	}
	failed := make([]importFailure, 0, len(res.Failed))
	for _, f := range res.Failed {
		item := importFailure{Row: f.Row, Error: f.Err.Error()}
		var verr *model.ValidationError
		if errors.As(f.Err, &verr) {
			item.Error = "validation failed"
			item.Details = verr.Fields
		}
		failed = append(failed, item)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"created": res.Created,
		"failed":  failed,
	})
}
