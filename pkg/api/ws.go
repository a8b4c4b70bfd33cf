// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/adxyz/boardroom/pkg/ids"
	"github.com/adxyz/boardroom/pkg/log"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// metricReport is one counter report pushed by a device over the feed.
// Views and impressions are deltas since the last report.
type metricReport struct {
	Authority       string `json:"authority"`
	OracleAuthority string `json:"oracle_authority"`
	Index           uint64 `json:"index"`
	Views           uint64 `json:"views"`
	Impressions     uint64 `json:"impressions"`
}

type metricAck struct {
	OK               bool   `json:"ok"`
	Error            string `json:"error,omitempty"`
	TotalViews       uint64 `json:"total_views,omitempty"`
	TotalImpressions uint64 `json:"total_impressions,omitempty"`
}

// deviceFeed upgrades the connection and applies a stream of device
// metric reports, acking each one. A malformed frame closes the feed; a
// rejected report only fails its ack.
func (s *Server) deviceFeed(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", log.Error(err))
		return
	}
	defer conn.Close()

	s.log.Info("device feed connected", log.String("remote", c.Request.RemoteAddr))

	for {
		var report metricReport
		if err := conn.ReadJSON(&report); err != nil {
			s.log.Info("device feed disconnected", log.Error(err))
			return
		}
		conn.WriteJSON(s.applyReport(report))
	}
}

func (s *Server) applyReport(report metricReport) metricAck {
	authority, err := ids.FromString(report.Authority)
	if err != nil {
		return metricAck{Error: "invalid authority"}
	}
	oracleAuthority, err := ids.FromString(report.OracleAuthority)
	if err != nil {
		return metricAck{Error: "invalid oracle authority"}
	}
	m, err := s.devices.ReportMetrics(authority, oracleAuthority, report.Index, report.Views, report.Impressions)
	if err != nil {
		return metricAck{Error: err.Error()}
	}
	return metricAck{
		OK:               true,
		TotalViews:       m.TotalViews,
		TotalImpressions: m.TotalImpressions,
	}
}
