// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package api exposes the marketplace over HTTP: a JSON service API for
// advertisers, providers and oracles, a websocket feed for device
// metric reports, and a separate operational server for health and
// Prometheus metrics.
package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/adxyz/boardroom/pkg/analytics"
	"github.com/adxyz/boardroom/pkg/core"
	"github.com/adxyz/boardroom/pkg/engine"
	"github.com/adxyz/boardroom/pkg/ids"
	"github.com/adxyz/boardroom/pkg/ledger"
	"github.com/adxyz/boardroom/pkg/log"
	"github.com/adxyz/boardroom/pkg/metric"
	"github.com/adxyz/boardroom/pkg/oracle"
)

// Server is the JSON service API
type Server struct {
	engine  *engine.Engine
	devices *oracle.Registry
	tracker *analytics.Tracker
	metrics *metric.Metrics
	log     log.Logger
}

// NewServer wires the service API over an engine and device registry.
// Tracker and metrics may be nil.
func NewServer(eng *engine.Engine, devices *oracle.Registry, tracker *analytics.Tracker, m *metric.Metrics, logger log.Logger) *Server {
	return &Server{
		engine:  eng,
		devices: devices,
		tracker: tracker,
		metrics: m,
		log:     logger,
	}
}

// Router builds the gin router with every service route mounted.
func (s *Server) Router(production bool) *gin.Engine {
	if production {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery(), s.requestID(), s.countRequests())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowMethods = []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"}
	router.Use(cors.New(corsConfig))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	v1 := router.Group("/api/v1")
	{
		v1.POST("/advertisers", s.createAdvertiser)
		v1.GET("/advertisers/:authority", s.getAdvertiser)
		v1.POST("/providers", s.createProvider)
		v1.GET("/providers/:authority", s.getProvider)

		v1.POST("/campaigns", s.createCampaign)
		v1.GET("/campaigns/:authority/:index", s.getCampaign)
		v1.PATCH("/campaigns/:authority/:index", s.updateCampaign)
		v1.POST("/campaigns/:authority/:index/close", s.closeCampaign)
		v1.POST("/campaigns/:authority/:index/budget", s.addBudget)
		v1.POST("/campaigns/:authority/:index/withdraw", s.withdrawBudget)

		v1.POST("/locations", s.registerLocation)
		v1.GET("/locations", s.listLocations)
		v1.GET("/locations/:authority/:index", s.getLocation)
		v1.PATCH("/locations/:authority/:index", s.updateLocation)
		v1.POST("/locations/:authority/:index/price", s.updateLocationPrice)
		v1.POST("/locations/:authority/:index/status", s.setLocationStatus)
		v1.POST("/locations/:authority/:index/schedule", s.createSchedule)
		v1.GET("/locations/:authority/:index/schedule", s.getSchedule)
		v1.POST("/locations/:authority/:index/slots", s.addSlot)

		v1.POST("/bookings", s.bookRange)
		v1.GET("/bookings", s.listBookings)
		v1.POST("/bookings/cancel", s.cancelBooking)
		v1.POST("/bookings/settle", s.settleBooking)

		v1.POST("/campaign-locations", s.addCampaignLocation)
		v1.POST("/campaign-locations/release", s.removeCampaignLocation)
		v1.POST("/campaign-locations/settle", s.settleCampaignLocation)

		v1.POST("/config", s.initializeConfig)
		v1.PATCH("/config", s.updateConfig)
		v1.GET("/config", s.getConfig)

		v1.POST("/wallets/:authority/credit", s.creditWallet)
		v1.GET("/wallets/:authority", s.walletBalance)

		v1.POST("/devices", s.registerDevice)
		v1.GET("/devices/:authority/:index", s.getDevice)
		v1.POST("/devices/report", s.reportDeviceMetrics)
		v1.GET("/devices/feed", s.deviceFeed)

		v1.GET("/analytics", s.analyticsSnapshot)
		v1.GET("/analytics/providers/:authority", s.providerReport)
	}

	return router
}

// Middleware

func (s *Server) requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.New().String()
		}
		c.Set("request_id", id)
		c.Header("X-Request-ID", id)
		c.Next()
	}
}

func (s *Server) countRequests() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		if s.metrics != nil {
			s.metrics.RequestsProcessed.
				WithLabelValues(c.Request.Method, strconv.Itoa(c.Writer.Status())).
				Inc()
		}
	}
}

// Request decoding helpers

func parseID(c *gin.Context, raw string) (ids.ID, bool) {
	id, err := ids.FromString(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id: " + raw})
		return ids.Empty, false
	}
	return id, true
}

func pathID(c *gin.Context, name string) (ids.ID, bool) {
	return parseID(c, c.Param(name))
}

func pathIndex(c *gin.Context) (uint64, bool) {
	idx, err := strconv.ParseUint(c.Param("index"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid index"})
		return 0, false
	}
	return idx, true
}

func parsePricing(kind string, unitPrice uint64) (core.PricingModel, error) {
	switch kind {
	case "time_slot", "":
		return core.TimeSlotPricing(), nil
	case "per_impression":
		return core.PerImpressionPricing(unitPrice), nil
	case "cpm":
		return core.CPMPricing(unitPrice), nil
	}
	return core.PricingModel{}, core.ErrInvalidParameters
}

// fail maps engine sentinel errors onto HTTP statuses.
func (s *Server) fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, core.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, core.ErrAlreadyExists),
		errors.Is(err, core.ErrLocationAlreadyBooked),
		errors.Is(err, core.ErrSlotOverlap):
		status = http.StatusConflict
	case errors.Is(err, core.ErrUnauthorized),
		errors.Is(err, core.ErrInvalidAuthority),
		errors.Is(err, core.ErrInvalidOracleAuthority):
		status = http.StatusForbidden
	case errors.Is(err, core.ErrInsufficientBudget),
		errors.Is(err, ledger.ErrUnderflow),
		errors.Is(err, ledger.ErrInsufficientReserve):
		status = http.StatusPaymentRequired
	case errors.Is(err, core.ErrInvalidParameters),
		errors.Is(err, core.ErrInvalidTimeRange),
		errors.Is(err, core.ErrInvalidStringLength),
		errors.Is(err, core.ErrSlotInPast):
		status = http.StatusBadRequest
	case errors.Is(err, core.ErrSlotNotFound),
		errors.Is(err, core.ErrSlotUnavailable),
		errors.Is(err, core.ErrScheduleFull),
		errors.Is(err, core.ErrCampaignNotActive),
		errors.Is(err, core.ErrCampaignHasActiveBookings),
		errors.Is(err, core.ErrBookingNotActive),
		errors.Is(err, core.ErrLocationInactive),
		errors.Is(err, core.ErrLocationUnavailable),
		errors.Is(err, core.ErrSettlementTooHigh),
		errors.Is(err, core.ErrOracleNotConfigured),
		errors.Is(err, core.ErrInvalidOracleDevice),
		errors.Is(err, core.ErrOracleDeviceInactive):
		status = http.StatusUnprocessableEntity
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// Identity handlers

type authorityRequest struct {
	Authority string `json:"authority" binding:"required"`
}

func (s *Server) createAdvertiser(c *gin.Context) {
	var req authorityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	authority, ok := parseID(c, req.Authority)
	if !ok {
		return
	}
	adv, err := s.engine.CreateAdvertiser(authority)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, adv)
}

func (s *Server) getAdvertiser(c *gin.Context) {
	authority, ok := pathID(c, "authority")
	if !ok {
		return
	}
	adv, err := s.engine.GetAdvertiser(authority)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, adv)
}

func (s *Server) createProvider(c *gin.Context) {
	var req authorityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	authority, ok := parseID(c, req.Authority)
	if !ok {
		return
	}
	p, err := s.engine.CreateProvider(authority)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (s *Server) getProvider(c *gin.Context) {
	authority, ok := pathID(c, "authority")
	if !ok {
		return
	}
	p, err := s.engine.GetProvider(authority)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// Campaign handlers

type createCampaignRequest struct {
	Authority   string `json:"authority" binding:"required"`
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	ImageURL    string `json:"image_url"`
	Budget      uint64 `json:"budget"`
}

func (s *Server) createCampaign(c *gin.Context) {
	var req createCampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	authority, ok := parseID(c, req.Authority)
	if !ok {
		return
	}
	campaign, err := s.engine.CreateCampaign(authority, req.Name, req.Description, req.ImageURL, req.Budget)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, campaign)
}

func (s *Server) getCampaign(c *gin.Context) {
	authority, ok := pathID(c, "authority")
	if !ok {
		return
	}
	index, ok := pathIndex(c)
	if !ok {
		return
	}
	campaign, err := s.engine.GetCampaign(authority, index)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, campaign)
}

type updateCampaignRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	ImageURL    *string `json:"image_url"`
}

func (s *Server) updateCampaign(c *gin.Context) {
	authority, ok := pathID(c, "authority")
	if !ok {
		return
	}
	index, ok := pathIndex(c)
	if !ok {
		return
	}
	var req updateCampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	campaign, err := s.engine.UpdateCampaign(authority, index, req.Name, req.Description, req.ImageURL)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, campaign)
}

func (s *Server) closeCampaign(c *gin.Context) {
	authority, ok := pathID(c, "authority")
	if !ok {
		return
	}
	index, ok := pathIndex(c)
	if !ok {
		return
	}
	campaign, err := s.engine.CloseCampaign(authority, index)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, campaign)
}

type amountRequest struct {
	Amount uint64 `json:"amount" binding:"required"`
}

func (s *Server) addBudget(c *gin.Context) {
	authority, ok := pathID(c, "authority")
	if !ok {
		return
	}
	index, ok := pathIndex(c)
	if !ok {
		return
	}
	var req amountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	campaign, err := s.engine.AddBudget(authority, index, req.Amount)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, campaign)
}

func (s *Server) withdrawBudget(c *gin.Context) {
	authority, ok := pathID(c, "authority")
	if !ok {
		return
	}
	index, ok := pathIndex(c)
	if !ok {
		return
	}
	var req amountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	campaign, err := s.engine.WithdrawBudget(authority, index, req.Amount)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, campaign)
}

// Location handlers

type registerLocationRequest struct {
	Authority       string `json:"authority" binding:"required"`
	Name            string `json:"name" binding:"required"`
	Description     string `json:"description"`
	Price           uint64 `json:"price" binding:"required"`
	OracleAuthority string `json:"oracle_authority" binding:"required"`
}

func (s *Server) registerLocation(c *gin.Context) {
	var req registerLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	authority, ok := parseID(c, req.Authority)
	if !ok {
		return
	}
	oracleAuthority, ok := parseID(c, req.OracleAuthority)
	if !ok {
		return
	}
	location, err := s.engine.RegisterLocation(authority, req.Name, req.Description, req.Price, oracleAuthority)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, location)
}

func (s *Server) listLocations(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"locations": s.engine.ListLocations()})
}

func (s *Server) getLocation(c *gin.Context) {
	authority, ok := pathID(c, "authority")
	if !ok {
		return
	}
	index, ok := pathIndex(c)
	if !ok {
		return
	}
	location, err := s.engine.GetLocation(authority, index)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, location)
}

type updateLocationRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

func (s *Server) updateLocation(c *gin.Context) {
	authority, ok := pathID(c, "authority")
	if !ok {
		return
	}
	index, ok := pathIndex(c)
	if !ok {
		return
	}
	var req updateLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	location, err := s.engine.UpdateLocationDetails(authority, index, req.Name, req.Description)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, location)
}

type priceRequest struct {
	Price uint64 `json:"price" binding:"required"`
}

func (s *Server) updateLocationPrice(c *gin.Context) {
	authority, ok := pathID(c, "authority")
	if !ok {
		return
	}
	index, ok := pathIndex(c)
	if !ok {
		return
	}
	var req priceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	location, err := s.engine.UpdateLocationPrice(authority, index, req.Price)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, location)
}

type locationStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

func (s *Server) setLocationStatus(c *gin.Context) {
	authority, ok := pathID(c, "authority")
	if !ok {
		return
	}
	index, ok := pathIndex(c)
	if !ok {
		return
	}
	var req locationStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	var kind core.LocationStatusKind
	switch req.Status {
	case "available":
		kind = core.LocationAvailable
	case "inactive":
		kind = core.LocationInactive
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status: " + req.Status})
		return
	}
	location, err := s.engine.SetLocationStatus(authority, index, kind)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, location)
}

// Schedule handlers

type createScheduleRequest struct {
	MaxSlots uint32 `json:"max_slots" binding:"required"`
}

func (s *Server) createSchedule(c *gin.Context) {
	authority, ok := pathID(c, "authority")
	if !ok {
		return
	}
	index, ok := pathIndex(c)
	if !ok {
		return
	}
	var req createScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	schedule, err := s.engine.CreateSchedule(authority, index, req.MaxSlots)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, schedule)
}

func (s *Server) getSchedule(c *gin.Context) {
	authority, ok := pathID(c, "authority")
	if !ok {
		return
	}
	index, ok := pathIndex(c)
	if !ok {
		return
	}
	schedule, err := s.engine.GetSchedule(authority, index)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, schedule)
}

type addSlotRequest struct {
	StartTS int64  `json:"start_ts" binding:"required"`
	EndTS   int64  `json:"end_ts" binding:"required"`
	Price   uint64 `json:"price" binding:"required"`
}

func (s *Server) addSlot(c *gin.Context) {
	authority, ok := pathID(c, "authority")
	if !ok {
		return
	}
	index, ok := pathIndex(c)
	if !ok {
		return
	}
	var req addSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	schedule, err := s.engine.AddSlot(authority, index, req.StartTS, req.EndTS, req.Price)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, schedule)
}

// Booking handlers

type bookingKeyRequest struct {
	CampaignAuthority string `json:"campaign_authority" binding:"required"`
	CampaignIndex     uint64 `json:"campaign_index"`
	ProviderAuthority string `json:"provider_authority" binding:"required"`
	LocationIndex     uint64 `json:"location_index"`
	RangeStartTS      int64  `json:"range_start_ts" binding:"required"`
	RangeEndTS        int64  `json:"range_end_ts" binding:"required"`
}

type bookRangeRequest struct {
	bookingKeyRequest
	DeviceAuthority string `json:"device_authority" binding:"required"`
	DeviceIndex     uint64 `json:"device_index"`
	PricingKind     string `json:"pricing_kind"`
	UnitPrice       uint64 `json:"unit_price"`
}

func (s *Server) bookRange(c *gin.Context) {
	var req bookRangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	campaignAuthority, ok := parseID(c, req.CampaignAuthority)
	if !ok {
		return
	}
	providerAuthority, ok := parseID(c, req.ProviderAuthority)
	if !ok {
		return
	}
	deviceAuthority, ok := parseID(c, req.DeviceAuthority)
	if !ok {
		return
	}
	pricing, err := parsePricing(req.PricingKind, req.UnitPrice)
	if err != nil {
		s.fail(c, err)
		return
	}
	booking, err := s.engine.BookRange(
		campaignAuthority, req.CampaignIndex,
		providerAuthority, req.LocationIndex,
		req.RangeStartTS, req.RangeEndTS,
		deviceAuthority, req.DeviceIndex,
		pricing)
	if err != nil {
		s.fail(c, err)
		return
	}
	if s.tracker != nil {
		s.tracker.TrackBooking(booking.Campaign, booking.Provider, booking.Location, booking.TotalPrice)
	}
	c.JSON(http.StatusCreated, booking)
}

func (s *Server) listBookings(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"bookings": s.engine.ListBookings()})
}

func (s *Server) cancelBooking(c *gin.Context) {
	var req bookingKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	campaignAuthority, ok := parseID(c, req.CampaignAuthority)
	if !ok {
		return
	}
	providerAuthority, ok := parseID(c, req.ProviderAuthority)
	if !ok {
		return
	}
	booking, err := s.engine.CancelBooking(
		campaignAuthority, req.CampaignIndex,
		providerAuthority, req.LocationIndex,
		req.RangeStartTS, req.RangeEndTS)
	if err != nil {
		s.fail(c, err)
		return
	}
	if s.tracker != nil {
		s.tracker.TrackCancel(booking.Campaign, booking.Provider, booking.Location, booking.TotalPrice)
	}
	c.JSON(http.StatusOK, booking)
}

type settleBookingRequest struct {
	bookingKeyRequest
	PayoutAuthority string `json:"payout_authority" binding:"required"`
	Treasury        string `json:"treasury" binding:"required"`
	OracleAuthority string `json:"oracle_authority" binding:"required"`
	DeviceAuthority string `json:"device_authority" binding:"required"`
}

func (s *Server) settleBooking(c *gin.Context) {
	var req settleBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	campaignAuthority, ok := parseID(c, req.CampaignAuthority)
	if !ok {
		return
	}
	providerAuthority, ok := parseID(c, req.ProviderAuthority)
	if !ok {
		return
	}
	payoutAuthority, ok := parseID(c, req.PayoutAuthority)
	if !ok {
		return
	}
	treasury, ok := parseID(c, req.Treasury)
	if !ok {
		return
	}
	oracleAuthority, ok := parseID(c, req.OracleAuthority)
	if !ok {
		return
	}
	deviceAuthority, ok := parseID(c, req.DeviceAuthority)
	if !ok {
		return
	}
	booking, err := s.engine.SettleBooking(engine.SettleRequest{
		CampaignAuthority: campaignAuthority,
		CampaignIndex:     req.CampaignIndex,
		ProviderAuthority: providerAuthority,
		LocationIndex:     req.LocationIndex,
		RangeStartTS:      req.RangeStartTS,
		RangeEndTS:        req.RangeEndTS,
		PayoutAuthority:   payoutAuthority,
		Treasury:          treasury,
		OracleAuthority:   oracleAuthority,
		DeviceAuthority:   deviceAuthority,
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	if s.tracker != nil {
		// SettledAmount is the gross amount released from escrow; the
		// provider's take is gross minus fee.
		net := booking.SettledAmount - booking.FeeAmount
		refund := booking.TotalPrice - booking.SettledAmount
		s.tracker.TrackSettlement(booking.Campaign, booking.Provider, booking.Location,
			net, booking.FeeAmount, refund, booking.Impressions)
	}
	c.JSON(http.StatusOK, booking)
}

// Whole-location booking handlers

type campaignLocationRequest struct {
	CampaignAuthority string `json:"campaign_authority" binding:"required"`
	CampaignIndex     uint64 `json:"campaign_index"`
	ProviderAuthority string `json:"provider_authority" binding:"required"`
	LocationIndex     uint64 `json:"location_index"`
}

func (s *Server) addCampaignLocation(c *gin.Context) {
	var req campaignLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	campaignAuthority, ok := parseID(c, req.CampaignAuthority)
	if !ok {
		return
	}
	providerAuthority, ok := parseID(c, req.ProviderAuthority)
	if !ok {
		return
	}
	cl, err := s.engine.AddCampaignLocation(campaignAuthority, req.CampaignIndex, providerAuthority, req.LocationIndex)
	if err != nil {
		s.fail(c, err)
		return
	}
	if s.tracker != nil {
		s.tracker.TrackBooking(cl.Campaign, cl.Provider, cl.Location, cl.Price)
	}
	c.JSON(http.StatusCreated, cl)
}

func (s *Server) removeCampaignLocation(c *gin.Context) {
	var req campaignLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	campaignAuthority, ok := parseID(c, req.CampaignAuthority)
	if !ok {
		return
	}
	providerAuthority, ok := parseID(c, req.ProviderAuthority)
	if !ok {
		return
	}
	cl, err := s.engine.RemoveCampaignLocation(campaignAuthority, req.CampaignIndex, providerAuthority, req.LocationIndex)
	if err != nil {
		s.fail(c, err)
		return
	}
	if s.tracker != nil {
		s.tracker.TrackCancel(cl.Campaign, cl.Provider, cl.Location, cl.Price)
	}
	c.JSON(http.StatusOK, cl)
}

type settleCampaignLocationRequest struct {
	campaignLocationRequest
	OracleAuthority  string `json:"oracle_authority" binding:"required"`
	SettlementAmount uint64 `json:"settlement_amount"`
}

func (s *Server) settleCampaignLocation(c *gin.Context) {
	var req settleCampaignLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	campaignAuthority, ok := parseID(c, req.CampaignAuthority)
	if !ok {
		return
	}
	providerAuthority, ok := parseID(c, req.ProviderAuthority)
	if !ok {
		return
	}
	oracleAuthority, ok := parseID(c, req.OracleAuthority)
	if !ok {
		return
	}
	cl, err := s.engine.SettleCampaignLocation(oracleAuthority, campaignAuthority, req.CampaignIndex, providerAuthority, req.LocationIndex, req.SettlementAmount)
	if err != nil {
		s.fail(c, err)
		return
	}
	if s.tracker != nil {
		refund := cl.Price - cl.SettledAmount
		s.tracker.TrackSettlement(cl.Campaign, cl.Provider, cl.Location, cl.SettledAmount, 0, refund, 0)
	}
	c.JSON(http.StatusOK, cl)
}

// Config handlers

type initConfigRequest struct {
	Authority string `json:"authority" binding:"required"`
	Treasury  string `json:"treasury" binding:"required"`
	FeeBps    uint16 `json:"fee_bps"`
}

func (s *Server) initializeConfig(c *gin.Context) {
	var req initConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	authority, ok := parseID(c, req.Authority)
	if !ok {
		return
	}
	treasury, ok := parseID(c, req.Treasury)
	if !ok {
		return
	}
	config, err := s.engine.InitializeConfig(authority, treasury, req.FeeBps)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, config)
}

type updateConfigRequest struct {
	Authority string  `json:"authority" binding:"required"`
	Treasury  *string `json:"treasury"`
	FeeBps    *uint16 `json:"fee_bps"`
}

func (s *Server) updateConfig(c *gin.Context) {
	var req updateConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	authority, ok := parseID(c, req.Authority)
	if !ok {
		return
	}
	var treasury *ids.ID
	if req.Treasury != nil {
		t, ok := parseID(c, *req.Treasury)
		if !ok {
			return
		}
		treasury = &t
	}
	config, err := s.engine.UpdateConfig(authority, treasury, req.FeeBps)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, config)
}

func (s *Server) getConfig(c *gin.Context) {
	config, err := s.engine.GetConfig()
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, config)
}

// Wallet handlers

func (s *Server) creditWallet(c *gin.Context) {
	authority, ok := pathID(c, "authority")
	if !ok {
		return
	}
	var req amountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := s.engine.Credit(authority, req.Amount); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"balance": s.engine.WalletBalance(authority)})
}

func (s *Server) walletBalance(c *gin.Context) {
	authority, ok := pathID(c, "authority")
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"balance": s.engine.WalletBalance(authority)})
}

// Device handlers

type registerDeviceRequest struct {
	Authority       string `json:"authority" binding:"required"`
	Location        string `json:"location" binding:"required"`
	OracleAuthority string `json:"oracle_authority" binding:"required"`
}

func (s *Server) registerDevice(c *gin.Context) {
	var req registerDeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	authority, ok := parseID(c, req.Authority)
	if !ok {
		return
	}
	location, ok := parseID(c, req.Location)
	if !ok {
		return
	}
	oracleAuthority, ok := parseID(c, req.OracleAuthority)
	if !ok {
		return
	}
	device, err := s.devices.RegisterDevice(authority, location, oracleAuthority)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, device)
}

func (s *Server) getDevice(c *gin.Context) {
	authority, ok := pathID(c, "authority")
	if !ok {
		return
	}
	index, ok := pathIndex(c)
	if !ok {
		return
	}
	device, err := s.devices.GetDevice(authority, index)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, device)
}

type reportMetricsRequest struct {
	Authority       string `json:"authority" binding:"required"`
	OracleAuthority string `json:"oracle_authority" binding:"required"`
	Index           uint64 `json:"index"`
	Views           uint64 `json:"views"`
	Impressions     uint64 `json:"impressions"`
}

func (s *Server) reportDeviceMetrics(c *gin.Context) {
	var req reportMetricsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	authority, ok := parseID(c, req.Authority)
	if !ok {
		return
	}
	oracleAuthority, ok := parseID(c, req.OracleAuthority)
	if !ok {
		return
	}
	m, err := s.devices.ReportMetrics(authority, oracleAuthority, req.Index, req.Views, req.Impressions)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

// Analytics handlers

func (s *Server) analyticsSnapshot(c *gin.Context) {
	if s.tracker == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "analytics disabled"})
		return
	}
	c.JSON(http.StatusOK, s.tracker.Snapshot())
}

func (s *Server) providerReport(c *gin.Context) {
	if s.tracker == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "analytics disabled"})
		return
	}
	authority, ok := pathID(c, "authority")
	if !ok {
		return
	}
	report, found := s.tracker.ProviderReport(core.ProviderID(authority))
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "no settlements recorded"})
		return
	}
	c.JSON(http.StatusOK, report)
}
