package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/swapfeed/swapfeed/pkg/pairing"
	"github.com/swapfeed/swapfeed/pkg/prefs"
	"github.com/swapfeed/swapfeed/pkg/reddit"
)

func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request) {
	json.NewEncoder(w).Encode(s.Engine.Snapshot())
}

type SubmitRequest struct {
	Targets    []string `json:"targets"`
	Sources    []string `json:"sources"`
	Sort       string   `json:"sort"`
	TimeFilter string   `json:"time_filter"`
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	err := s.Engine.Submit(r.Context(), pairing.SubmitRequest{
		Targets:    req.Targets,
		Sources:    req.Sources,
		Sort:       sortOrDefault(req.Sort),
		TimeFilter: reddit.TimeFilter(req.TimeFilter),
	})
	var noMedia *pairing.NoSourceMediaError
	switch {
	case errors.Is(err, pairing.ErrEmptyTargets), errors.Is(err, pairing.ErrEmptySources):
		w.WriteHeader(http.StatusBadRequest)
	case errors.Is(err, pairing.ErrSuperseded):
		w.WriteHeader(http.StatusConflict)
		return
	case errors.As(err, &noMedia) && noMedia.AllFailed:
		w.WriteHeader(http.StatusBadGateway)
	}
	// Non-validation failures still return the snapshot: the user-facing
	// message lives inside it.
	json.NewEncoder(w).Encode(s.Engine.Snapshot())
}

type MoreRequest struct {
	Sort       string `json:"sort"`
	TimeFilter string `json:"time_filter"`
}

func (s *Server) handleMore(w http.ResponseWriter, r *http.Request) {
	var req MoreRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	if err := s.Engine.LoadMore(r.Context(), sortOrDefault(req.Sort), reddit.TimeFilter(req.TimeFilter)); err != nil &&
		errors.Is(err, pairing.ErrSuperseded) {
		w.WriteHeader(http.StatusConflict)
		return
	}
	json.NewEncoder(w).Encode(s.Engine.Snapshot())
}

func (s *Server) handleSuggest(w http.ResponseWriter, r *http.Request) {
	names := s.Engine.Suggest(r.Context(), r.URL.Query().Get("q"))
	if names == nil {
		names = []string{}
	}
	json.NewEncoder(w).Encode(map[string][]string{"names": names})
}

func (s *Server) handleGetPrefs(w http.ResponseWriter, r *http.Request) {
	json.NewEncoder(w).Encode(s.Prefs.Load(r.Context()))
}

func (s *Server) handlePutPrefs(w http.ResponseWriter, r *http.Request) {
	p := prefs.Default()
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := s.Prefs.Save(r.Context(), p); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func sortOrDefault(s string) reddit.Sort {
	switch reddit.Sort(s) {
	case reddit.SortHot, reddit.SortNew, reddit.SortTop:
		return reddit.Sort(s)
	}
	return reddit.SortHot
}
