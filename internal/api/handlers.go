package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/prospect-cli/internal/location"
	"github.com/sells-group/prospect-cli/internal/model"
	"github.com/sells-group/prospect-cli/internal/store"
)

// SearchRequest is the body of POST /v1/search.
type SearchRequest struct {
	Owner         string   `json:"owner"`
	Title         string   `json:"title"`
	SimilarTitles []string `json:"similar_titles"`
	Company       string   `json:"company"`
	Location      string   `json:"location"`
	MaxContacts   int      `json:"max_contacts"`
}

// Query converts the request into a search query.
func (r SearchRequest) Query() model.SearchQuery {
	return model.SearchQuery{
		PrimaryTitle:  strings.TrimSpace(r.Title),
		SimilarTitles: r.SimilarTitles,
		Company:       strings.TrimSpace(r.Company),
		Location:      location.Resolve(r.Location),
		MaxContacts:   r.MaxContacts,
	}
}

// DraftInput is one draft in a POST /v1/drafts body.
type DraftInput struct {
	Contact     model.Contact      `json:"contact"`
	Subject     string             `json:"subject"`
	Body        string             `json:"body"`
	Attachments []model.Attachment `json:"attachments,omitempty"`
}

// DraftsRequest is the body of POST /v1/drafts.
type DraftsRequest struct {
	Owner  string       `json:"owner"`
	Drafts []DraftInput `json:"drafts"`
}

// Requests numbers the inputs by position.
func (r DraftsRequest) Requests() []model.DraftRequest {
	out := make([]model.DraftRequest, len(r.Drafts))
	for i, d := range r.Drafts {
		out[i] = model.DraftRequest{
			Index:       i,
			Contact:     d.Contact,
			Subject:     d.Subject,
			Body:        d.Body,
			Attachments: d.Attachments,
		}
	}
	return out
}

// DraftsResponse summarizes a draft batch.
type DraftsResponse struct {
	Created int                 `json:"created"`
	Failed  int                 `json:"failed"`
	Results []model.DraftResult `json:"results"`
}

func (s *Server) search(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxSearchBody)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Location) == "" {
		writeError(w, http.StatusBadRequest, "location is required")
		return
	}

	run, err := s.svc.Search(r.Context(), req.Owner, req.Query())
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, run)
	case eris.Is(err, model.ErrInvalidQuery):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		zap.L().Error("api: search failed", zap.Error(err))
		writeError(w, http.StatusBadGateway, err.Error())
	}
}

func (s *Server) drafts(w http.ResponseWriter, r *http.Request) {
	var req DraftsRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxDraftsBody)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Drafts) == 0 {
		writeError(w, http.StatusBadRequest, "drafts must not be empty")
		return
	}

	results, err := s.svc.Drafts(r.Context(), req.Owner, req.Requests())
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	resp := DraftsResponse{Results: results}
	for _, res := range results {
		if res.OK() {
			resp.Created++
		} else {
			resp.Failed++
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) listRuns(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := store.RunFilter{
		Status: model.RunStatus(q.Get("status")),
		Owner:  q.Get("owner"),
	}
	var err error
	if f.Limit, err = intParam(q.Get("limit")); err != nil {
		writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
		return
	}
	if f.Offset, err = intParam(q.Get("offset")); err != nil {
		writeError(w, http.StatusBadRequest, "offset must be a non-negative integer")
		return
	}

	runs, err := s.svc.Runs(r.Context(), f)
	if err != nil {
		zap.L().Error("api: list runs failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list runs")
		return
	}
	if runs == nil {
		runs = []model.SearchRun{}
	}
	writeJSON(w, http.StatusOK, runs)
}

func (s *Server) getRun(w http.ResponseWriter, r *http.Request) {
	run, err := s.svc.Run(r.Context(), chi.URLParam(r, "id"))
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, run)
	case eris.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "run not found")
	default:
		zap.L().Error("api: get run failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load run")
	}
}

func intParam(v string) (int, error) {
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, eris.Errorf("invalid integer %q", v)
	}
	return n, nil
}
