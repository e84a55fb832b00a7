package api

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/sells-group/shoe-curation/internal/aggregate"
	"github.com/sells-group/shoe-curation/internal/model"
)

// aggregateRequest is the POST body. Source names are case-insensitive and
// IncludeImages defaults to true.
type aggregateRequest struct {
	Brand         string   `json:"brand"`
	ModelName     string   `json:"modelName"`
	MaxResults    int      `json:"maxResults"`
	Sources       []string `json:"sources"`
	Locale        string   `json:"locale"`
	IncludeImages *bool    `json:"includeImages"`
}

func (req aggregateRequest) params() (aggregate.Params, error) {
	p := aggregate.Params{
		Brand:         req.Brand,
		ModelName:     req.ModelName,
		MaxResults:    req.MaxResults,
		Locale:        req.Locale,
		IncludeImages: true,
	}
	if req.IncludeImages != nil {
		p.IncludeImages = *req.IncludeImages
	}
	var v model.ValidationError
	for _, name := range req.Sources {
		if strings.TrimSpace(name) == "" {
			continue
		}
		t, ok := model.ParseSourceType(name)
		if !ok {
			v.Add("sources", "unknown source kind %q", name)
			continue
		}
		p.Sources = append(p.Sources, t)
	}
	return p, v.Err()
}

// aggregateQuery reads the GET form: sources is a comma separated list.
func aggregateQuery(q url.Values) (aggregateRequest, error) {
	req := aggregateRequest{
		Brand:     q.Get("brand"),
		ModelName: q.Get("modelName"),
		Locale:    q.Get("locale"),
	}
	if s := q.Get("sources"); s != "" {
		req.Sources = strings.Split(s, ",")
	}
	if s := q.Get("maxResults"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return req, validationError("maxResults", "must be an integer")
		}
		req.MaxResults = n
	}
	if s := q.Get("includeImages"); s != "" {
		b, err := strconv.ParseBool(s)
		if err != nil {
			return req, validationError("includeImages", "must be a boolean")
		}
		req.IncludeImages = &b
	}
	return req, nil
}

func (s *Server) handleAggregateQuery(w http.ResponseWriter, r *http.Request) {
	req, err := aggregateQuery(r.URL.Query())
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.aggregate(w, r, req)
}

func (s *Server) handleAggregate(w http.ResponseWriter, r *http.Request) {
	var req aggregateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	s.aggregate(w, r, req)
}

func (s *Server) aggregate(w http.ResponseWriter, r *http.Request, req aggregateRequest) {
	p, err := req.params()
	if err != nil {
		writeError(w, r, err)
		return
	}
	out, err := s.agg.Aggregate(r.Context(), p)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := out.Err(); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}
