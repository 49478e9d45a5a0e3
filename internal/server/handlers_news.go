package server

import (
	"net/http"

	"github.com/benmercer/commodex/internal/services/news"
)

// handleMarketNews handles GET /api/market/news/{name}?limit=.
func (s *Server) handleMarketNews(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	name := PathParam(r, "/api/market/news/", "")
	if name == "" {
		WriteError(w, http.StatusBadRequest, "commodity name is required in path")
		return
	}
	if !s.app.Mapper.Known(name) {
		WriteError(w, http.StatusNotFound, "unknown commodity: "+name)
		return
	}

	limit := QueryInt(r, "limit", news.DefaultLimit)
	if limit < 1 || limit > 50 {
		WriteError(w, http.StatusBadRequest, "limit must be between 1 and 50")
		return
	}

	result, err := s.app.NewsService.GetNews(r.Context(), name, limit)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, result)
}
