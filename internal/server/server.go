package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"fan_hub/internal/domain"
	"fan_hub/internal/ics"
)

// Snapshots is the read-only view the API serves. The refresher
// implements it; handlers never trigger fetches themselves.
type Snapshots interface {
	MatchesSnapshot() domain.Snapshot[domain.Match]
	NewsSnapshot() domain.Snapshot[domain.NewsItem]
	NextMatch(now time.Time) (domain.Match, bool)
	MatchByID(id string) (domain.Match, bool)
}

// Server exposes the normalised data over a small JSON API and routes
// everything else through the asset cache.
type Server struct {
	snapshots Snapshots
	assets    http.Handler
	clubName  string
	logger    *slog.Logger
}

func New(snapshots Snapshots, assets http.Handler, clubName string, logger *slog.Logger) *Server {
	return &Server{
		snapshots: snapshots,
		assets:    assets,
		clubName:  clubName,
		logger:    logger.With("component", "server"),
	}
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/matches", s.handleMatches)
	mux.HandleFunc("GET /api/matches/next", s.handleNextMatch)
	mux.HandleFunc("GET /api/matches/{id}/calendar.ics", s.handleCalendar)
	mux.HandleFunc("GET /api/news", s.handleNews)
	if s.assets != nil {
		mux.Handle("/", s.assets)
	}
	return mux
}

type meta struct {
	UpdatedAt *time.Time `json:"updatedAt"`
	Source    string     `json:"source"`
	State     string     `json:"state"`
}

type envelope[T any] struct {
	Data []T  `json:"data"`
	Meta meta `json:"meta"`
}

func (s *Server) handleMatches(w http.ResponseWriter, r *http.Request) {
	writeSnapshot(s, w, s.snapshots.MatchesSnapshot())
}

func (s *Server) handleNews(w http.ResponseWriter, r *http.Request) {
	writeSnapshot(s, w, s.snapshots.NewsSnapshot())
}

func (s *Server) handleNextMatch(w http.ResponseWriter, r *http.Request) {
	match, ok := s.snapshots.NextMatch(time.Now())
	if !ok {
		http.Error(w, "no upcoming match", http.StatusNotFound)
		return
	}
	s.writeJSON(w, match)
}

func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	match, ok := s.snapshots.MatchByID(r.PathValue("id"))
	if !ok {
		http.Error(w, "unknown match", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+match.ID+`.ics"`)
	w.Write(ics.Encode(match, s.clubName, time.Now()))
}

func writeSnapshot[T any](s *Server, w http.ResponseWriter, snap domain.Snapshot[T]) {
	data := snap.Data
	if data == nil {
		data = []T{}
	}

	m := meta{Source: snap.Source, State: snap.State}
	if !snap.UpdatedAt.IsZero() {
		updatedAt := snap.UpdatedAt
		m.UpdatedAt = &updatedAt
	}

	s.writeJSON(w, envelope[T]{Data: data, Meta: m})
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("could not encode response", "error", err)
	}
}
