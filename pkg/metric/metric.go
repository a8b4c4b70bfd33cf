// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package metric

import (
	metrics "github.com/luxfi/metric"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all engine metrics
type Metrics struct {
	metricsInstance metrics.Metrics

	// Booking metrics
	BookingsCreated   metrics.Counter
	BookingsCancelled metrics.Counter
	BookingsSettled   metrics.Counter
	SlotsAdded        metrics.Counter

	// Fund-flow metrics (base units)
	EscrowVolume     metrics.Counter
	SettlementVolume metrics.Counter
	FeeVolume        metrics.Counter
	RefundVolume     metrics.Counter

	// Campaign metrics
	CampaignsActive metrics.Gauge
	BudgetDeposits  metrics.Counter

	// API metrics
	RequestsProcessed metrics.CounterVec

	// Performance metrics
	BookingDuration    metrics.Histogram
	SettlementDuration metrics.Histogram
}

// NewMetrics creates a new metrics instance
func NewMetrics() (*Metrics, error) {
	factory := metrics.NewPrometheusFactory()
	metricsInstance := factory.New("boardroom")

	m := &Metrics{
		metricsInstance: metricsInstance,
	}

	m.BookingsCreated = metricsInstance.NewCounter("booking_created_total", "Total number of bookings created")
	m.BookingsCancelled = metricsInstance.NewCounter("booking_cancelled_total", "Total number of bookings cancelled")
	m.BookingsSettled = metricsInstance.NewCounter("booking_settled_total", "Total number of bookings settled")
	m.SlotsAdded = metricsInstance.NewCounter("schedule_slots_added_total", "Total number of schedule slots added")

	m.EscrowVolume = metricsInstance.NewCounter("escrow_volume_total", "Total base units escrowed into bookings")
	m.SettlementVolume = metricsInstance.NewCounter("settlement_volume_total", "Total base units paid to providers")
	m.FeeVolume = metricsInstance.NewCounter("fee_volume_total", "Total base units collected as platform fees")
	m.RefundVolume = metricsInstance.NewCounter("refund_volume_total", "Total base units refunded to campaigns")

	m.CampaignsActive = metricsInstance.NewGauge("campaigns_active", "Number of active campaigns")
	m.BudgetDeposits = metricsInstance.NewCounter("budget_deposits_total", "Total base units deposited into campaign budgets")

	m.RequestsProcessed = metricsInstance.NewCounterVec(
		"api_requests_processed_total",
		"Total number of API requests processed",
		[]string{"method", "status"},
	)

	m.BookingDuration = metricsInstance.NewHistogram(
		"booking_duration_seconds",
		"Time to process a booking",
		prometheus.DefBuckets,
	)

	m.SettlementDuration = metricsInstance.NewHistogram(
		"settlement_duration_seconds",
		"Time to process a settlement",
		prometheus.DefBuckets,
	)

	return m, nil
}

// GetGatherer returns the prometheus gatherer for metrics export
func (m *Metrics) GetGatherer() prometheus.Gatherer {
	if registry := m.metricsInstance.Registry(); registry != nil {
		return registry
	}
	return prometheus.DefaultGatherer
}

// GetRegisterer returns the prometheus registerer
func (m *Metrics) GetRegisterer() prometheus.Registerer {
	if registry := m.metricsInstance.Registry(); registry != nil {
		return registry
	}
	return prometheus.DefaultRegisterer
}
