// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/adxyz/boardroom/pkg/engine"
	"github.com/adxyz/boardroom/pkg/log"
	"github.com/adxyz/boardroom/pkg/metric"
)

// OpsServer is the operational endpoint surface: health, Prometheus
// metrics, and state maintenance. It binds separately from the service
// API so it can stay internal.
type OpsServer struct {
	engine  *engine.Engine
	metrics *metric.Metrics
	log     log.Logger
	started time.Time
}

// NewOpsServer creates the operational handler set.
func NewOpsServer(eng *engine.Engine, m *metric.Metrics, logger log.Logger) *OpsServer {
	return &OpsServer{
		engine:  eng,
		metrics: m,
		log:     logger,
		started: time.Now(),
	}
}

// Router builds the mux router for the operational server.
func (o *OpsServer) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/health", o.handleHealth).Methods("GET")
	r.HandleFunc("/info", o.handleInfo).Methods("GET")
	r.HandleFunc("/prune", o.handlePrune).Methods("POST")
	if o.metrics != nil {
		r.Handle("/metrics", promhttp.HandlerFor(o.metrics.GetGatherer(), promhttp.HandlerOpts{}))
	}
	return r
}

func (o *OpsServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "healthy",
		"uptime": time.Since(o.started).String(),
	})
}

func (o *OpsServer) handleInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"locations": len(o.engine.ListLocations()),
		"bookings":  len(o.engine.ListBookings()),
	})
}

// handlePrune drops terminal records last touched at or before the
// given unix timestamp. Defaults to everything older than 24h.
func (o *OpsServer) handlePrune(w http.ResponseWriter, r *http.Request) {
	olderThan := time.Now().Add(-24 * time.Hour).Unix()
	if raw := r.URL.Query().Get("older_than"); raw != "" {
		ts, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid older_than"})
			return
		}
		olderThan = ts
	}

	removed := o.engine.PruneTerminal(olderThan)
	o.log.Info("prune requested", log.Int("removed", removed))
	writeJSON(w, http.StatusOK, map[string]any{"removed": removed})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
