// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package analytics aggregates marketplace activity into real-time
// counters, per-party rollups and time-bucketed series. It observes
// completed engine operations and never participates in them.
package analytics

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"

	"github.com/adxyz/boardroom/pkg/ids"
)

// Tracker accumulates marketplace metrics
type Tracker struct {
	// Real-time counters
	TotalBookings    atomic.Uint64
	TotalCancels     atomic.Uint64
	TotalSettlements atomic.Uint64
	TotalImpressions atomic.Uint64
	EscrowedVolume   atomic.Uint64 // base units
	SettledVolume    atomic.Uint64
	FeeVolume        atomic.Uint64
	RefundVolume     atomic.Uint64

	providers map[ids.ID]*ProviderStats
	campaigns map[ids.ID]*CampaignStats
	series    *TimeSeries
	mu        sync.RWMutex

	// Event stream for real-time consumers; full buffer drops.
	Events chan *Event
}

// ProviderStats is the per-provider earnings rollup
type ProviderStats struct {
	Provider         ids.ID
	Settlements      uint64
	TotalImpressions uint64
	TotalEarned      decimal.Decimal
	ECPM             decimal.Decimal
}

// CampaignStats is the per-campaign spend rollup
type CampaignStats struct {
	Campaign         ids.ID
	Bookings         uint64
	Settlements      uint64
	TotalEscrowed    decimal.Decimal
	TotalSpent       decimal.Decimal
	TotalRefunded    decimal.Decimal
	TotalImpressions uint64
}

// TimeSeries stores time-bucketed settlement activity
type TimeSeries struct {
	Buckets    map[int64]*Bucket
	BucketSize time.Duration
	mu         sync.Mutex
}

// Bucket holds one time window's activity
type Bucket struct {
	Timestamp   time.Time
	Bookings    uint64
	Settlements uint64
	Impressions uint64
	Volume      decimal.Decimal
}

// EventType tags a marketplace event
type EventType string

const (
	EventBooking    EventType = "booking"
	EventCancel     EventType = "cancel"
	EventSettlement EventType = "settlement"
)

// Event is one observed marketplace action
type Event struct {
	Type        EventType
	Timestamp   time.Time
	Campaign    ids.ID
	Provider    ids.ID
	Location    ids.ID
	Amount      uint64
	Fee         uint64
	Refund      uint64
	Impressions uint64
}

// NewTracker creates an empty tracker with minute-resolution buckets.
func NewTracker() *Tracker {
	return &Tracker{
		providers: make(map[ids.ID]*ProviderStats),
		campaigns: make(map[ids.ID]*CampaignStats),
		series: &TimeSeries{
			Buckets:    make(map[int64]*Bucket),
			BucketSize: time.Minute,
		},
		Events: make(chan *Event, 4096),
	}
}

// TrackBooking records a new escrowed booking.
func (t *Tracker) TrackBooking(campaign, provider, location ids.ID, escrowed uint64) {
	t.TotalBookings.Add(1)
	t.EscrowedVolume.Add(escrowed)

	t.mu.Lock()
	c := t.campaign(campaign)
	c.Bookings++
	c.TotalEscrowed = c.TotalEscrowed.Add(decimal.NewFromUint64(escrowed))
	t.mu.Unlock()

	t.emit(&Event{
		Type:      EventBooking,
		Timestamp: time.Now(),
		Campaign:  campaign,
		Provider:  provider,
		Location:  location,
		Amount:    escrowed,
	})
}

// TrackCancel records a released booking.
func (t *Tracker) TrackCancel(campaign, provider, location ids.ID, refunded uint64) {
	t.TotalCancels.Add(1)
	t.RefundVolume.Add(refunded)

	t.mu.Lock()
	c := t.campaign(campaign)
	c.TotalRefunded = c.TotalRefunded.Add(decimal.NewFromUint64(refunded))
	t.mu.Unlock()

	t.emit(&Event{
		Type:      EventCancel,
		Timestamp: time.Now(),
		Campaign:  campaign,
		Provider:  provider,
		Location:  location,
		Refund:    refunded,
	})
}

// TrackSettlement records a settled booking and refreshes the
// provider's effective CPM.
func (t *Tracker) TrackSettlement(campaign, provider, location ids.ID, net, fee, refund, impressions uint64) {
	t.TotalSettlements.Add(1)
	t.TotalImpressions.Add(impressions)
	t.SettledVolume.Add(net)
	t.FeeVolume.Add(fee)
	t.RefundVolume.Add(refund)

	t.mu.Lock()
	p := t.provider(provider)
	p.Settlements++
	p.TotalImpressions += impressions
	p.TotalEarned = p.TotalEarned.Add(decimal.NewFromUint64(net))
	if p.TotalImpressions > 0 {
		p.ECPM = p.TotalEarned.
			Mul(decimal.NewFromInt(1000)).
			Div(decimal.NewFromUint64(p.TotalImpressions))
	}
	c := t.campaign(campaign)
	c.Settlements++
	c.TotalImpressions += impressions
	c.TotalSpent = c.TotalSpent.Add(decimal.NewFromUint64(net + fee))
	c.TotalRefunded = c.TotalRefunded.Add(decimal.NewFromUint64(refund))
	t.mu.Unlock()

	t.emit(&Event{
		Type:        EventSettlement,
		Timestamp:   time.Now(),
		Campaign:    campaign,
		Provider:    provider,
		Location:    location,
		Amount:      net,
		Fee:         fee,
		Refund:      refund,
		Impressions: impressions,
	})
}

// ProviderReport returns a copy of one provider's rollup.
func (t *Tracker) ProviderReport(provider ids.ID) (ProviderStats, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	p, ok := t.providers[provider]
	if !ok {
		return ProviderStats{}, false
	}
	return *p, true
}

// CampaignReport returns a copy of one campaign's rollup.
func (t *Tracker) CampaignReport(campaign ids.ID) (CampaignStats, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	c, ok := t.campaigns[campaign]
	if !ok {
		return CampaignStats{}, false
	}
	return *c, true
}

// Snapshot returns the real-time counters as a flat map.
func (t *Tracker) Snapshot() map[string]uint64 {
	return map[string]uint64{
		"bookings_total":    t.TotalBookings.Load(),
		"cancels_total":     t.TotalCancels.Load(),
		"settlements_total": t.TotalSettlements.Load(),
		"impressions_total": t.TotalImpressions.Load(),
		"escrowed_volume":   t.EscrowedVolume.Load(),
		"settled_volume":    t.SettledVolume.Load(),
		"fee_volume":        t.FeeVolume.Load(),
		"refund_volume":     t.RefundVolume.Load(),
	}
}

// Series returns the buckets overlapping [start, end].
func (t *Tracker) Series(start, end time.Time) []Bucket {
	t.series.mu.Lock()
	defer t.series.mu.Unlock()

	out := make([]Bucket, 0)
	for _, b := range t.series.Buckets {
		if b.Timestamp.Before(start) || b.Timestamp.After(end) {
			continue
		}
		out = append(out, *b)
	}
	return out
}

func (t *Tracker) provider(id ids.ID) *ProviderStats {
	p, ok := t.providers[id]
	if !ok {
		p = &ProviderStats{Provider: id}
		t.providers[id] = p
	}
	return p
}

func (t *Tracker) campaign(id ids.ID) *CampaignStats {
	c, ok := t.campaigns[id]
	if !ok {
		c = &CampaignStats{Campaign: id}
		t.campaigns[id] = c
	}
	return c
}

func (t *Tracker) emit(e *Event) {
	t.bucket(e)
	select {
	case t.Events <- e:
	default:
		// buffer full, drop
	}
}

func (t *Tracker) bucket(e *Event) {
	size := int64(t.series.BucketSize.Seconds())
	key := e.Timestamp.Unix() / size

	t.series.mu.Lock()
	defer t.series.mu.Unlock()

	b, ok := t.series.Buckets[key]
	if !ok {
		b = &Bucket{Timestamp: time.Unix(key*size, 0)}
		t.series.Buckets[key] = b
	}
	switch e.Type {
	case EventBooking:
		b.Bookings++
	case EventSettlement:
		b.Settlements++
		b.Impressions += e.Impressions
		b.Volume = b.Volume.Add(decimal.NewFromUint64(e.Amount))
	}
}
