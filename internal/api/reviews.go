package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/sells-group/shoe-curation/internal/curation"
)

func (s *Server) handleCollect(w http.ResponseWriter, r *http.Request) {
	var in curation.CollectInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	in.SourceType = curation.CollectKind(strings.ToUpper(strings.TrimSpace(string(in.SourceType))))

	res, err := s.curator.Collect(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	status := http.StatusOK
	if res.ReviewCreated {
		status = http.StatusCreated
	}
	writeJSON(w, status, res)
}

func (s *Server) handleGetReview(w http.ResponseWriter, r *http.Request) {
	review, err := s.catalog.GetReview(r.Context(), chi.URLParam(r, "reviewID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	sources, err := s.catalog.ListAttachedSources(r.Context(), review.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": review, "sources": sources})
}

func (s *Server) handleAttach(w http.ResponseWriter, r *http.Request) {
	var opts curation.AttachOptions
	if err := decodeJSON(w, r, &opts); err != nil {
		writeError(w, r, err)
		return
	}

	res, err := s.curator.AttachCurated(r.Context(), chi.URLParam(r, "reviewID"), opts)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleSummarize(w http.ResponseWriter, r *http.Request) {
	if s.summarizer == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorBody{Error: "summarizer not configured"})
		return
	}
	review, err := s.summarizer.Summarize(r.Context(), chi.URLParam(r, "reviewID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": review})
}
