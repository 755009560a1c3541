package server

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/magang-agent/internal/db"
)

// ListListingsResponse echoes the applied filters alongside the page of
// results, mirroring what consumers of the previous API version expect.
type ListListingsResponse struct {
	Query     map[string]any `json:"query"`
	Count     int            `json:"count"`
	TotalInDB int            `json:"total_in_db"`
	Data      []db.Listing   `json:"data"`
}

// TriggerScrapeResponse is the acknowledgement for a triggered run.
type TriggerScrapeResponse struct {
	RunID   string `json:"run_id"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// handleListListings lists listings with optional filters and pagination.
func (s *Server) handleListListings(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit := parseQueryInt(r, "limit", 20, 100)
	offset := parseQueryInt(r, "offset", 0, 0)

	opts := db.ListListingsOptions{
		Query:    q.Get("q"),
		Location: q.Get("lokasi"),
		Partner:  q.Get("mitra"),
		Category: q.Get("kategori"),
		Limit:    limit,
		Offset:   offset,
	}

	listings, total, err := s.db.ListListings(r.Context(), opts)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}
	if listings == nil {
		listings = []db.Listing{}
	}

	s.jsonResponse(w, http.StatusOK, ListListingsResponse{
		Query: map[string]any{
			"q":        opts.Query,
			"lokasi":   opts.Location,
			"mitra":    opts.Partner,
			"kategori": opts.Category,
			"limit":    limit,
			"offset":   offset,
		},
		Count:     len(listings),
		TotalInDB: total,
		Data:      listings,
	})
}

// handleGetListing returns the full row for one identifier.
func (s *Server) handleGetListing(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid listing ID")
		return
	}

	listing, err := s.db.GetListing(r.Context(), id)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}
	if listing == nil {
		s.errorResponse(w, http.StatusNotFound, "Listing not found")
		return
	}

	s.jsonResponse(w, http.StatusOK, listing)
}

// handleStats reports the row count and the latest run metadata.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.db.GetStats(r.Context())
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}
	s.jsonResponse(w, http.StatusOK, stats)
}

// handleCategories returns the distinct category values.
func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := s.db.Categories(r.Context())
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"categories": categories,
		"count":      len(categories),
	})
}

// handlePartners returns the distinct partner values.
func (s *Server) handlePartners(w http.ResponseWriter, r *http.Request) {
	partners, err := s.db.Partners(r.Context())
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"mitras": partners,
		"count":  len(partners),
	})
}

// handleTriggerScrape enqueues a background scrape run. Protected by a
// static API key header; the response only acknowledges the trigger.
func (s *Server) handleTriggerScrape(w http.ResponseWriter, r *http.Request) {
	if s.cfg.APIKey == "" {
		s.errorResponse(w, http.StatusServiceUnavailable, "Scrape trigger is not configured")
		return
	}
	key := r.Header.Get("X-API-Key")
	if subtle.ConstantTimeCompare([]byte(key), []byte(s.cfg.APIKey)) != 1 {
		s.errorResponse(w, http.StatusUnauthorized, "Invalid API key")
		return
	}

	id, err := s.runner.Trigger()
	if err != nil {
		if errors.Is(err, ErrRunInProgress) {
			s.errorResponse(w, http.StatusConflict, "A scrape run is already in progress")
			return
		}
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.jsonResponse(w, http.StatusAccepted, TriggerScrapeResponse{
		RunID:   id.String(),
		Status:  "triggered",
		Message: "Scraping has been triggered. Check /api/v1/stats for updated data.",
	})
}

// handleRunStatus reports the state of a triggered run.
func (s *Server) handleRunStatus(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid run ID format")
		return
	}

	status, ok := s.runner.Status(id)
	if !ok {
		s.errorResponse(w, http.StatusNotFound, "Run not found")
		return
	}
	s.jsonResponse(w, http.StatusOK, status)
}

// handleHealth is the liveness endpoint.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	dbStatus := "ok"
	if _, err := s.db.GetStats(r.Context()); err != nil {
		dbStatus = "unavailable"
	}
	s.jsonResponse(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"database":  dbStatus,
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

// parseQueryInt parses an integer query parameter with a default and an
// optional maximum (max of 0 means unbounded).
func parseQueryInt(r *http.Request, name string, def, max int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return def
	}
	if max > 0 && v > max {
		return max
	}
	return v
}
