// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/adxyz/boardroom/pkg/analytics"
	"github.com/adxyz/boardroom/pkg/engine"
	"github.com/adxyz/boardroom/pkg/ids"
	"github.com/adxyz/boardroom/pkg/log"
	"github.com/adxyz/boardroom/pkg/oracle"
	"github.com/adxyz/boardroom/pkg/store"
)

type apiHarness struct {
	router     *gin.Engine
	engine     *engine.Engine
	devices    *oracle.Registry
	admin      ids.ID
	treasury   ids.ID
	advertiser ids.ID
	provider   ids.ID
}

func newAPIHarness(t *testing.T) *apiHarness {
	gin.SetMode(gin.TestMode)

	devices := oracle.NewRegistry(log.NoOp())
	eng := engine.New(devices, store.NewMemory(), nil, log.NoOp())
	srv := NewServer(eng, devices, analytics.NewTracker(), nil, log.NoOp())

	h := &apiHarness{
		router:     srv.Router(false),
		engine:     eng,
		devices:    devices,
		admin:      ids.GenerateTestID(),
		treasury:   ids.GenerateTestID(),
		advertiser: ids.GenerateTestID(),
		provider:   ids.GenerateTestID(),
	}

	_, err := eng.InitializeConfig(h.admin, h.treasury, 250)
	require.NoError(t, err)
	return h
}

func (h *apiHarness) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, out any) {
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), out))
}

func TestHealth(t *testing.T) {
	require := require.New(t)
	h := newAPIHarness(t)

	w := h.do(t, http.MethodGet, "/health", nil)
	require.Equal(http.StatusOK, w.Code)
	require.NotEmpty(w.Header().Get("X-Request-ID"))

	var resp map[string]string
	decode(t, w, &resp)
	require.Equal("healthy", resp["status"])
}

func TestIdentityEndpoints(t *testing.T) {
	require := require.New(t)
	h := newAPIHarness(t)

	w := h.do(t, http.MethodPost, "/api/v1/advertisers", gin.H{"authority": h.advertiser.String()})
	require.Equal(http.StatusCreated, w.Code)

	// Duplicate registration conflicts.
	w = h.do(t, http.MethodPost, "/api/v1/advertisers", gin.H{"authority": h.advertiser.String()})
	require.Equal(http.StatusConflict, w.Code)

	w = h.do(t, http.MethodGet, "/api/v1/advertisers/"+h.advertiser.String(), nil)
	require.Equal(http.StatusOK, w.Code)

	w = h.do(t, http.MethodGet, "/api/v1/advertisers/"+ids.GenerateTestID().String(), nil)
	require.Equal(http.StatusNotFound, w.Code)

	// Malformed hex in the path is a 400, not a 404.
	w = h.do(t, http.MethodGet, "/api/v1/advertisers/not-hex", nil)
	require.Equal(http.StatusBadRequest, w.Code)

	w = h.do(t, http.MethodPost, "/api/v1/providers", gin.H{"authority": h.provider.String()})
	require.Equal(http.StatusCreated, w.Code)
}

func TestCampaignEndpoints(t *testing.T) {
	require := require.New(t)
	h := newAPIHarness(t)

	w := h.do(t, http.MethodPost, "/api/v1/advertisers", gin.H{"authority": h.advertiser.String()})
	require.Equal(http.StatusCreated, w.Code)

	w = h.do(t, http.MethodPost, "/api/v1/wallets/"+h.advertiser.String()+"/credit", gin.H{"amount": 1_000_000})
	require.Equal(http.StatusOK, w.Code)
	var balance map[string]uint64
	decode(t, w, &balance)
	require.Equal(uint64(1_000_000), balance["balance"])

	w = h.do(t, http.MethodPost, "/api/v1/campaigns", gin.H{
		"authority": h.advertiser.String(),
		"name":      "spring push",
		"budget":    500_000,
	})
	require.Equal(http.StatusCreated, w.Code)

	campaignPath := fmt.Sprintf("/api/v1/campaigns/%s/0", h.advertiser.String())

	w = h.do(t, http.MethodGet, campaignPath, nil)
	require.Equal(http.StatusOK, w.Code)

	w = h.do(t, http.MethodPost, campaignPath+"/budget", gin.H{"amount": 100_000})
	require.Equal(http.StatusOK, w.Code)

	// Wallet cannot cover another full campaign plus floor.
	w = h.do(t, http.MethodPost, "/api/v1/campaigns", gin.H{
		"authority": h.advertiser.String(),
		"name":      "overdrawn",
		"budget":    10_000_000,
	})
	require.Equal(http.StatusPaymentRequired, w.Code)

	// Closing drains the account; a second close hits the terminal status.
	w = h.do(t, http.MethodPost, campaignPath+"/close", nil)
	require.Equal(http.StatusOK, w.Code)
	w = h.do(t, http.MethodPost, campaignPath+"/close", nil)
	require.Equal(http.StatusUnprocessableEntity, w.Code)
}

func TestConfigEndpoints(t *testing.T) {
	require := require.New(t)
	h := newAPIHarness(t)

	// Harness already initialized config.
	w := h.do(t, http.MethodPost, "/api/v1/config", gin.H{
		"authority": h.admin.String(),
		"treasury":  h.treasury.String(),
		"fee_bps":   100,
	})
	require.Equal(http.StatusConflict, w.Code)

	w = h.do(t, http.MethodPatch, "/api/v1/config", gin.H{
		"authority": ids.GenerateTestID().String(),
		"fee_bps":   0,
	})
	require.Equal(http.StatusForbidden, w.Code)

	w = h.do(t, http.MethodGet, "/api/v1/config", nil)
	require.Equal(http.StatusOK, w.Code)
}

func TestDeviceEndpoints(t *testing.T) {
	require := require.New(t)
	h := newAPIHarness(t)

	operator := ids.GenerateTestID()
	oracleAuth := ids.GenerateTestID()
	location := ids.GenerateTestID()

	w := h.do(t, http.MethodPost, "/api/v1/devices", gin.H{
		"authority":        operator.String(),
		"location":         location.String(),
		"oracle_authority": oracleAuth.String(),
	})
	require.Equal(http.StatusCreated, w.Code)

	w = h.do(t, http.MethodPost, "/api/v1/devices/report", gin.H{
		"authority":        operator.String(),
		"oracle_authority": oracleAuth.String(),
		"index":            0,
		"views":            10,
		"impressions":      400,
	})
	require.Equal(http.StatusOK, w.Code)

	w = h.do(t, http.MethodGet, fmt.Sprintf("/api/v1/devices/%s/0", operator.String()), nil)
	require.Equal(http.StatusOK, w.Code)

	var device struct {
		Metrics struct {
			TotalViews       uint64 `json:"total_views"`
			TotalImpressions uint64 `json:"total_impressions"`
		} `json:"metrics"`
	}
	decode(t, w, &device)
	require.Equal(uint64(10), device.Metrics.TotalViews)
	require.Equal(uint64(400), device.Metrics.TotalImpressions)

	// Reports signed by the wrong oracle are rejected.
	w = h.do(t, http.MethodPost, "/api/v1/devices/report", gin.H{
		"authority":        operator.String(),
		"oracle_authority": ids.GenerateTestID().String(),
		"index":            0,
		"views":            1,
		"impressions":      1,
	})
	require.Equal(http.StatusForbidden, w.Code)
}

func TestBookingFlowOverHTTP(t *testing.T) {
	require := require.New(t)
	h := newAPIHarness(t)

	oracleAuth := ids.GenerateTestID()
	operator := ids.GenerateTestID()

	for _, r := range []struct {
		path string
		body gin.H
	}{
		{"/api/v1/advertisers", gin.H{"authority": h.advertiser.String()}},
		{"/api/v1/providers", gin.H{"authority": h.provider.String()}},
		{"/api/v1/wallets/" + h.advertiser.String() + "/credit", gin.H{"amount": 10_000_000}},
	} {
		w := h.do(t, http.MethodPost, r.path, r.body)
		require.Contains([]int{http.StatusOK, http.StatusCreated}, w.Code, r.path)
	}

	w := h.do(t, http.MethodPost, "/api/v1/locations", gin.H{
		"authority":        h.provider.String(),
		"name":             "times square east",
		"price":            500_000,
		"oracle_authority": oracleAuth.String(),
	})
	require.Equal(http.StatusCreated, w.Code)

	var location struct {
		ID string `json:"id"`
	}
	decode(t, w, &location)

	locationPath := fmt.Sprintf("/api/v1/locations/%s/0", h.provider.String())
	w = h.do(t, http.MethodPost, locationPath+"/schedule", gin.H{"max_slots": 10})
	require.Equal(http.StatusCreated, w.Code)

	start := time.Now().Unix() + 3600
	end := start + 3600
	w = h.do(t, http.MethodPost, locationPath+"/slots", gin.H{
		"start_ts": start,
		"end_ts":   end,
		"price":    100_000,
	})
	require.Equal(http.StatusCreated, w.Code)

	w = h.do(t, http.MethodPost, "/api/v1/devices", gin.H{
		"authority":        operator.String(),
		"location":         location.ID,
		"oracle_authority": oracleAuth.String(),
	})
	require.Equal(http.StatusCreated, w.Code)

	w = h.do(t, http.MethodPost, "/api/v1/campaigns", gin.H{
		"authority": h.advertiser.String(),
		"name":      "spring push",
		"budget":    1_000_000,
	})
	require.Equal(http.StatusCreated, w.Code)

	book := gin.H{
		"campaign_authority": h.advertiser.String(),
		"campaign_index":     0,
		"provider_authority": h.provider.String(),
		"location_index":     0,
		"range_start_ts":     start,
		"range_end_ts":       end,
		"device_authority":   operator.String(),
		"device_index":       0,
	}
	w = h.do(t, http.MethodPost, "/api/v1/bookings", book)
	require.Equal(http.StatusCreated, w.Code)

	// Same range cannot be booked twice while its slots are held.
	w = h.do(t, http.MethodPost, "/api/v1/bookings", book)
	require.Equal(http.StatusUnprocessableEntity, w.Code)

	w = h.do(t, http.MethodPost, "/api/v1/devices/report", gin.H{
		"authority":        operator.String(),
		"oracle_authority": oracleAuth.String(),
		"index":            0,
		"views":            50,
		"impressions":      5_000,
	})
	require.Equal(http.StatusOK, w.Code)

	w = h.do(t, http.MethodPost, "/api/v1/bookings/settle", gin.H{
		"campaign_authority": h.advertiser.String(),
		"campaign_index":     0,
		"provider_authority": h.provider.String(),
		"location_index":     0,
		"range_start_ts":     start,
		"range_end_ts":       end,
		"payout_authority":   h.provider.String(),
		"treasury":           h.treasury.String(),
		"oracle_authority":   oracleAuth.String(),
		"device_authority":   operator.String(),
	})
	require.Equal(http.StatusOK, w.Code)

	var booking struct {
		SettledAmount uint64 `json:"settled_amount"`
		FeeAmount     uint64 `json:"fee_amount"`
	}
	decode(t, w, &booking)
	// The full 100_000 escrow releases gross; the 2_500 fee is the
	// treasury's share of it.
	require.Equal(uint64(100_000), booking.SettledAmount)
	require.Equal(uint64(2_500), booking.FeeAmount)

	// Provider analytics reflect the payout.
	w = h.do(t, http.MethodGet, "/api/v1/analytics", nil)
	require.Equal(http.StatusOK, w.Code)
	var snap map[string]uint64
	decode(t, w, &snap)
	require.Equal(uint64(1), snap["settlements_total"])
	require.Equal(uint64(97_500), snap["settled_volume"])

	w = h.do(t, http.MethodGet, "/api/v1/analytics/providers/"+h.provider.String(), nil)
	require.Equal(http.StatusOK, w.Code)
}
