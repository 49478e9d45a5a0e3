package server

import (
	"net/http"

	"github.com/benmercer/commodex/internal/models"
	"github.com/benmercer/commodex/internal/services/market"
)

// handleMarketQuote handles GET /api/market/quote/{name}.
func (s *Server) handleMarketQuote(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	name := PathParam(r, "/api/market/quote/", "")
	if name == "" {
		WriteError(w, http.StatusBadRequest, "commodity name is required in path")
		return
	}
	if !s.app.Mapper.Known(name) {
		WriteError(w, http.StatusNotFound, "unknown commodity: "+name)
		return
	}

	quote, err := s.app.MarketService.GetQuote(r.Context(), name)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, quote)
}

// handleMarketSeries handles GET /api/market/series/{name}?timeframe=&type=.
func (s *Server) handleMarketSeries(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	name := PathParam(r, "/api/market/series/", "")
	if name == "" {
		WriteError(w, http.StatusBadRequest, "commodity name is required in path")
		return
	}
	if !s.app.Mapper.Known(name) {
		WriteError(w, http.StatusNotFound, "unknown commodity: "+name)
		return
	}

	timeframe, ok := models.ParseTimeframe(r.URL.Query().Get("timeframe"))
	if !ok {
		WriteError(w, http.StatusBadRequest, "invalid timeframe: "+r.URL.Query().Get("timeframe"))
		return
	}
	chartType, ok := models.ParseChartType(r.URL.Query().Get("type"))
	if !ok {
		WriteError(w, http.StatusBadRequest, "invalid chart type: "+r.URL.Query().Get("type"))
		return
	}

	series, err := s.app.MarketService.GetSeries(r.Context(), name, timeframe, chartType)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, series)
}

// handleMarketCommodities handles GET /api/market/commodities?delay=.
func (s *Server) handleMarketCommodities(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	delayMode := r.URL.Query().Get("delay")
	if delayMode == "" {
		delayMode = s.app.Config.Market.DataDelay
	}
	if delayMode != market.DelayRealtime && delayMode != market.Delay15Min {
		WriteError(w, http.StatusBadRequest, "delay must be 'realtime' or '15min'")
		return
	}

	quotes, err := s.app.MarketService.GetAllQuotes(r.Context(), delayMode)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"delay":  delayMode,
		"count":  len(quotes),
		"quotes": quotes,
	})
}
