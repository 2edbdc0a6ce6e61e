package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"blogpipe/internal/core"
	"blogpipe/internal/store"
)

// HealthResponse is the /health payload
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// ArticleSummary is the list view of an article
type ArticleSummary struct {
	URL          string           `json:"url"`
	Title        string           `json:"title"`
	Type         core.ArticleType `json:"type"`
	Category     string           `json:"category"`
	Image        string           `json:"image"`
	Excerpt      string           `json:"excerpt"`
	Tone         core.Tone        `json:"tone,omitempty"`
	Themes       []string         `json:"themes,omitempty"`
	IsFallback   bool             `json:"isFallback"`
	RelatedCount int              `json:"relatedCount"`
}

// ListResponse is the /api/articles payload
type ListResponse struct {
	Total                  int              `json:"total"`
	AnalyzedAt             core.Timestamp   `json:"analyzedAt"`
	ConnectionsGeneratedAt core.Timestamp   `json:"connectionsGeneratedAt"`
	EmbeddingsUsed         bool             `json:"embeddingsUsed"`
	Articles               []ArticleSummary `json:"articles"`
}

// RelatedResponse is the /api/articles/{url}/related payload
type RelatedResponse struct {
	URL     string            `json:"url"`
	Related []core.Connection `json:"related"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	checks := make(map[string]string)

	doc, err := s.source.LoadIntelligence()
	if err != nil {
		checks["intelligence"] = "error"
		if errors.Is(err, store.ErrNotFound) {
			checks["intelligence"] = "missing"
		}
		s.respondJSON(w, http.StatusServiceUnavailable, HealthResponse{Status: "unhealthy", Checks: checks})
		return
	}

	checks["intelligence"] = "ok"
	checks["articles"] = strconv.Itoa(len(doc.Articles))
	s.respondJSON(w, http.StatusOK, HealthResponse{Status: "ok", Checks: checks})
}

// handleListArticles lists articles, optionally filtered by ?category= and ?type=
func (s *Server) handleListArticles(w http.ResponseWriter, r *http.Request) {
	doc, ok := s.loadDocument(w)
	if !ok {
		return
	}

	category := strings.ToLower(r.URL.Query().Get("category"))
	articleType := core.ArticleType(r.URL.Query().Get("type"))

	summaries := []ArticleSummary{}
	for _, a := range doc.Articles {
		if category != "" && a.Category != category {
			continue
		}
		if articleType != "" && a.Type != articleType {
			continue
		}
		summaries = append(summaries, summarize(a))
	}

	s.respondJSON(w, http.StatusOK, ListResponse{
		Total:                  len(summaries),
		AnalyzedAt:             doc.AnalyzedAt,
		ConnectionsGeneratedAt: doc.ConnectionsGeneratedAt,
		EmbeddingsUsed:         doc.EmbeddingsUsed,
		Articles:               summaries,
	})
}

func (s *Server) handleGetArticle(w http.ResponseWriter, r *http.Request) {
	article, ok := s.findArticle(w, r)
	if !ok {
		return
	}
	s.respondJSON(w, http.StatusOK, article)
}

// handleRelated returns an article's connections, optionally capped by ?limit=
func (s *Server) handleRelated(w http.ResponseWriter, r *http.Request) {
	article, ok := s.findArticle(w, r)
	if !ok {
		return
	}

	related := article.Related
	if related == nil {
		related = []core.Connection{}
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			s.respondError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		if limit < len(related) {
			related = related[:limit]
		}
	}

	s.respondJSON(w, http.StatusOK, RelatedResponse{URL: article.URL, Related: related})
}

func (s *Server) loadDocument(w http.ResponseWriter) (*core.IntelligenceDocument, bool) {
	doc, err := s.source.LoadIntelligence()
	if errors.Is(err, store.ErrNotFound) {
		s.respondError(w, http.StatusServiceUnavailable, "intelligence document not generated yet")
		return nil, false
	}
	if err != nil {
		s.log.Error("Failed to load intelligence document", "error", err)
		s.respondError(w, http.StatusInternalServerError, "failed to load articles")
		return nil, false
	}
	return doc, true
}

// findArticle resolves {url}, accepting the url with or without .html.
func (s *Server) findArticle(w http.ResponseWriter, r *http.Request) (*core.Article, bool) {
	doc, ok := s.loadDocument(w)
	if !ok {
		return nil, false
	}

	key := chi.URLParam(r, "url")
	if !strings.HasSuffix(key, ".html") {
		key += ".html"
	}
	article, found := doc.Find(key)
	if !found {
		s.respondError(w, http.StatusNotFound, "article not found")
		return nil, false
	}
	return article, true
}

func summarize(a core.Article) ArticleSummary {
	sum := ArticleSummary{
		URL:          a.URL,
		Title:        a.Title,
		Type:         a.Type,
		Category:     a.Category,
		Image:        a.Image,
		Excerpt:      a.Excerpt,
		RelatedCount: len(a.Related),
	}
	if a.Analysis != nil {
		sum.Tone = a.Analysis.EmotionaleTonalitaet
		sum.Themes = a.Analysis.Tiefenthemen
		sum.IsFallback = a.Analysis.IsFallback
	}
	return sum
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error("Failed to encode JSON response", "error", err)
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]interface{}{
		"error": map[string]interface{}{
			"status":  status,
			"message": message,
		},
	})
}
