package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/sells-group/coworking-map/internal/dataset"
	"github.com/sells-group/coworking-map/internal/mapview"
	"github.com/sells-group/coworking-map/internal/model"
	"github.com/sells-group/coworking-map/internal/monitoring"
	"github.com/sells-group/coworking-map/internal/pipeline"
	"github.com/sells-group/coworking-map/internal/store"
)

// datasetResponse is a dataset as JSON: the header plus one object per row
// keyed by column.
type datasetResponse struct {
	Columns []string            `json:"columns"`
	Rows    []map[string]string `json:"rows"`
	Count   int                 `json:"count"`
}

func toResponse(ds *model.Dataset) datasetResponse {
	resp := datasetResponse{Columns: ds.Columns, Rows: make([]map[string]string, 0, ds.Len()), Count: ds.Len()}
	for _, l := range ds.Rows {
		row := make(map[string]string, len(ds.Columns))
		for _, c := range ds.Columns {
			row[c] = l.Cell(c)
		}
		resp.Rows = append(resp.Rows, row)
	}
	return resp
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleScrape(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ds, report, err := s.pipeline.Scrape(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	resp := map[string]any{"rows": ds.Len(), "report": report}
	if ds.Len() == 0 {
		resp["message"] = "no listing found"
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleClean(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ds, report, err := s.pipeline.Clean(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"rows": ds.Len(), "report": report})
}

func (s *Server) handleGeocode(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ds, report, err := s.pipeline.Geocode(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"rows": ds.Len(), "report": report})
}

type searchRequest struct {
	Query string `json:"query"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ds, err := s.pipeline.Search(r.Context(), req.Query, &s.state)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"query": req.Query, "results": toResponse(ds)})
}

func (s *Server) handleDataset(w http.ResponseWriter, r *http.Request) {
	paths := s.pipeline.Paths()
	var path string
	switch name := chi.URLParam(r, "name"); name {
	case "raw":
		path = paths.Raw
	case "clean":
		path = paths.Clean
	case "search":
		path = paths.Search
	default:
		writeError(w, http.StatusNotFound, "unknown dataset "+strconv.Quote(name))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ds, err := dataset.Read(path)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toResponse(ds))
}

func (s *Server) handleMap(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.pipeline.Paths().Clean
	ds, err := dataset.Read(path)
	if errors.Is(err, dataset.ErrNotFound) {
		err = &pipeline.PrerequisiteError{Path: path, Step: model.OperationClean}
	}
	if err != nil {
		fail(w, r, err)
		return
	}
	s.writeMap(w, r, ds)
}

// handleSearchMap maps the last search of this server, falling back to the
// search file left by an earlier process.
func (s *Server) handleSearchMap(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ds := s.state.LastSearch
	if ds == nil {
		path := s.pipeline.Paths().Search
		var err error
		ds, err = dataset.Read(path)
		if errors.Is(err, dataset.ErrNotFound) {
			err = &pipeline.PrerequisiteError{Path: path, Step: model.OperationSearch}
		}
		if err != nil {
			fail(w, r, err)
			return
		}
	}
	s.writeMap(w, r, ds)
}

func (s *Server) writeMap(w http.ResponseWriter, r *http.Request, ds *model.Dataset) {
	m, err := mapview.Build(ds)
	if err != nil {
		fail(w, r, err)
		return
	}
	if m.Empty() {
		zap.L().Info("api: no geocoded data", zap.String("path", r.URL.Path))
		w.Header().Set("X-Map-Notice", "no geocoded data")
	}
	writeJSON(w, http.StatusOK, m)
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	if s.runs == nil {
		writeError(w, http.StatusNotFound, "run log not configured")
		return
	}

	q := r.URL.Query()
	filter := store.RunFilter{
		Operation: model.Operation(q.Get("operation")),
		Status:    model.RunStatus(q.Get("status")),
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		filter.Limit = n
	}

	runs, err := s.runs.ListRuns(r.Context(), filter)
	if err != nil {
		fail(w, r, err)
		return
	}
	if runs == nil {
		runs = []model.Run{}
	}
	writeJSON(w, http.StatusOK, runs)
}

// handleStatus summarizes the run log over ?hours= (default 24, 0 for all).
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if s.runs == nil {
		writeError(w, http.StatusNotFound, "run log not configured")
		return
	}

	hours := 24
	if v := r.URL.Query().Get("hours"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid hours")
			return
		}
		hours = n
	}

	snap, err := monitoring.NewCollector(s.runs).Collect(r.Context(), hours)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}
