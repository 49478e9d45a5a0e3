package server

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/benmercer/commodex/internal/common"
)

// registerRoutes sets up all REST API routes on the mux.
func (s *Server) registerRoutes(mux *http.ServeMux) {
	// System
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/version", s.handleVersion)
	mux.HandleFunc("/api/config", s.handleConfig)

	// Market data
	mux.HandleFunc("/api/market/quote/", s.handleMarketQuote)
	mux.HandleFunc("/api/market/series/", s.handleMarketSeries)
	mux.HandleFunc("/api/market/commodities", s.handleMarketCommodities)

	// News
	mux.HandleFunc("/api/market/news/", s.handleMarketNews)

	// Prometheus exposition
	mux.Handle("/metrics", promhttp.HandlerFor(
		s.app.Market.Metrics().Registry,
		promhttp.HandlerOpts{},
	))
}

// --- System handlers ---

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodHead) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodHead) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{
		"version": common.GetVersion(),
		"build":   common.GetBuild(),
		"commit":  common.GetGitCommit(),
	})
}

func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	uptime := time.Since(s.app.StartupTime).Round(time.Second)

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"environment":               s.app.Config.Environment,
		"uptime":                    uptime.String(),
		"started_at":                s.app.StartupTime,
		"cache_ttl":                 s.app.Config.Cache.GetTTL().String(),
		"data_delay":                s.app.Config.Market.DataDelay,
		"commodities":               len(s.app.Mapper.Names()),
		"fmp_configured":            s.app.Config.Clients.FMP.HasKey(),
		"alphavantage_configured":   s.app.Config.Clients.AlphaVantage.HasKey(),
		"commodityprice_configured": s.app.Config.Clients.CommodityPrice.HasKey(),
		"marketaux_configured":      s.app.Config.Clients.Marketaux.HasKey(),
		"gemini_configured":         s.app.Config.Clients.Gemini.HasKey(),
	})
}
