package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"gdelttrends/internal/core"
	"gdelttrends/internal/persistence"
)

// trendsResponse is the shape of every read endpoint's body.
type trendsResponse struct {
	Date     string      `json:"date"`
	Category string      `json:"category"`
	Results  interface{} `json:"results"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		s.respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy"})
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleRealtime serves GET /trends/realtime?date=&category=.
func (s *Server) handleRealtime(w http.ResponseWriter, r *http.Request) {
	date := dateParam(r, "")
	category := categoryParam(r)

	trends, err := s.store.FindTrends(r.Context(), persistence.TrendQuery{
		Type:     core.TrendRealtime,
		Date:     date,
		Category: category,
		Limit:    20,
	})
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err)
		return
	}
	s.respondJSON(w, http.StatusOK, trendsResponse{Date: date, Category: string(category), Results: trends})
}

// handleDaily serves GET /trends/daily?date=&category=.
func (s *Server) handleDaily(w http.ResponseWriter, r *http.Request) {
	date := dateParam(r, "")
	category := categoryParam(r)

	if category != core.CategoryAll {
		trend, err := s.store.FindTrend(r.Context(), persistence.TrendQuery{Type: core.TrendDaily, Date: date, Category: category})
		if err != nil {
			s.respondError(w, http.StatusInternalServerError, err)
			return
		}
		s.respondJSON(w, http.StatusOK, trendsResponse{Date: date, Category: string(category), Results: trend})
		return
	}

	trends, err := s.store.FindTrends(r.Context(), persistence.TrendQuery{Type: core.TrendDaily, Date: date})
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err)
		return
	}
	s.respondJSON(w, http.StatusOK, trendsResponse{Date: date, Category: string(category), Results: trends})
}

// handleTop serves GET /trends/top?date=&category=&window=&limit=&nocache=,
// invoking the Scorer and shadowing the result in the cache for 600s.
func (s *Server) handleTop(w http.ResponseWriter, r *http.Request) {
	date := dateParam(r, "")
	category := categoryParam(r)
	if category == core.CategoryAll {
		category = core.CategoryThemes
	}
	windowDays := parseWindow(r.URL.Query().Get("window"))
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			limit = v
		}
	}
	nocache := r.URL.Query().Get("nocache") == "1"
	cacheKey := "top:" + date + ":" + string(category) + ":" + strconv.Itoa(windowDays) + "d"

	if !nocache && s.cache != nil {
		if cached, err := s.cache.Get(r.Context(), cacheKey); err == nil && cached != nil {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write(cached)
			return
		}
	}

	results, err := s.scorer.ScoreTrends(r.Context(), date, category, windowDays)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err)
		return
	}
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}

	body := trendsResponse{Date: date, Category: string(category), Results: results}
	if !nocache && s.cache != nil {
		if encoded, err := json.Marshal(body); err == nil {
			if err := s.cache.SetWithTTL(r.Context(), cacheKey, encoded, 600); err != nil {
				s.log.Warn("server: cache write failed", "key", cacheKey, "error", err)
			}
		}
	}
	s.respondJSON(w, http.StatusOK, body)
}

// handleDocuments serves GET /trends/documents?date=.
func (s *Server) handleDocuments(w http.ResponseWriter, r *http.Request) {
	date := dateParam(r, "")
	trend, err := s.store.FindTrend(r.Context(), persistence.TrendQuery{Type: core.TrendDaily, Date: date, Category: core.CategoryDocuments})
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err)
		return
	}

	ids := make([]string, 0)
	if trend != nil {
		for _, kw := range trend.Keywords {
			ids = append(ids, kw.Word)
		}
	}
	s.respondJSON(w, http.StatusOK, trendsResponse{Date: date, Category: string(core.CategoryDocuments), Results: ids})
}

// handleAdminFetchDaily serves POST /trends/admin/fetchDaily?date=,
// forcing a re-ingest and evicting the day's cached entries.
func (s *Server) handleAdminFetchDaily(w http.ResponseWriter, r *http.Request) {
	date := dateParam(r, "")
	day, err := time.Parse("2006-01-02", date)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err)
		return
	}

	if err := s.fetcher.FetchDailyAndAggregate(r.Context(), day); err != nil {
		s.respondError(w, http.StatusInternalServerError, err)
		return
	}

	if s.cache != nil {
		for _, cat := range []string{"all", "themes", "persons", "orgs", "locations", "documents"} {
			key := "daily:" + date + ":" + cat
			if err := s.cache.Del(r.Context(), key); err != nil {
				s.log.Warn("server: cache evict failed", "key", key, "error", err)
			}
		}
	}

	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok", "date": date})
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error("server: failed to encode JSON response", "error", err)
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, err error) {
	s.log.Error("server: request failed", "error", err)
	s.respondJSON(w, status, map[string]string{"error": err.Error()})
}

func dateParam(r *http.Request, fallback string) string {
	if v := r.URL.Query().Get("date"); v != "" {
		return v
	}
	if fallback != "" {
		return fallback
	}
	return time.Now().UTC().Format("2006-01-02")
}

func categoryParam(r *http.Request) core.Category {
	v := strings.ToLower(r.URL.Query().Get("category"))
	switch core.Category(v) {
	case core.CategoryThemes, core.CategoryPersons, core.CategoryOrgs, core.CategoryLocations, core.CategoryDocuments:
		return core.Category(v)
	default:
		return core.CategoryAll
	}
}

// parseWindow parses a window spec: a plain integer is days; Nd/Nm/Ny is
// N days / N*30 days / N*365 days; unrecognized input defaults to 7.
func parseWindow(raw string) int {
	if raw == "" {
		return 7
	}
	if days, err := strconv.Atoi(raw); err == nil {
		return days
	}

	unit := raw[len(raw)-1]
	numPart := raw[:len(raw)-1]
	n, err := strconv.Atoi(numPart)
	if err != nil {
		return 7
	}

	switch unit {
	case 'd', 'D':
		return n
	case 'm', 'M':
		return n * 30
	case 'y', 'Y':
		return n * 365
	default:
		return 7
	}
}
