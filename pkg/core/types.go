// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package core holds the marketplace records: campaigns with escrowed
// budgets, display locations and their slot schedules, and the bookings
// that tie funds to slots until settlement.
package core

import (
	"github.com/adxyz/boardroom/pkg/ids"
	"github.com/adxyz/boardroom/pkg/ledger"
)

const (
	MaxSlotsPerSchedule uint32 = 1000

	BpsDenominator uint64 = 10_000
	DefaultFeeBps  uint16 = 250

	MaxCampaignNameLen     = 64
	MaxCampaignDescLen     = 256
	MaxCampaignImageURLLen = 256
	MaxLocationNameLen     = 64
	MaxLocationDescLen     = 256
)

// CampaignStatus is the campaign lifecycle state
type CampaignStatus uint8

const (
	CampaignActive CampaignStatus = iota
	CampaignClosed
)

func (s CampaignStatus) String() string {
	switch s {
	case CampaignActive:
		return "active"
	case CampaignClosed:
		return "closed"
	}
	return "unknown"
}

// SlotStatus is the lifecycle state of one schedule slot
type SlotStatus uint8

const (
	SlotAvailable SlotStatus = iota
	SlotBooked
	SlotCancelled
	SlotSettled
)

func (s SlotStatus) String() string {
	switch s {
	case SlotAvailable:
		return "available"
	case SlotBooked:
		return "booked"
	case SlotCancelled:
		return "cancelled"
	case SlotSettled:
		return "settled"
	}
	return "unknown"
}

// Live reports whether the slot still occupies its time range for
// overlap purposes.
func (s SlotStatus) Live() bool {
	return s == SlotAvailable || s == SlotBooked
}

// BookingStatus is the lifecycle state of a booking record
type BookingStatus uint8

const (
	BookingActive BookingStatus = iota
	BookingCancelled
	BookingSettled
)

func (s BookingStatus) String() string {
	switch s {
	case BookingActive:
		return "active"
	case BookingCancelled:
		return "cancelled"
	case BookingSettled:
		return "settled"
	}
	return "unknown"
}

// LocationStatusKind tags the location status variant
type LocationStatusKind uint8

const (
	LocationAvailable LocationStatusKind = iota
	LocationBooked
	LocationInactive
)

// LocationStatus is a tagged union: Booked carries the campaign holding
// the whole-location booking.
type LocationStatus struct {
	Kind     LocationStatusKind `json:"kind"`
	BookedBy ids.ID             `json:"booked_by,omitempty"`
}

func (s LocationStatus) String() string {
	switch s.Kind {
	case LocationAvailable:
		return "available"
	case LocationBooked:
		return "booked"
	case LocationInactive:
		return "inactive"
	}
	return "unknown"
}

// PricingKind tags the pricing model variant
type PricingKind uint8

const (
	PricingTimeSlot PricingKind = iota
	PricingPerImpression
	PricingCPM
)

func (k PricingKind) String() string {
	switch k {
	case PricingTimeSlot:
		return "time_slot"
	case PricingPerImpression:
		return "per_impression"
	case PricingCPM:
		return "cpm"
	}
	return "unknown"
}

// PricingModel is a tagged union: PerImpression and CPM carry a unit
// price, TimeSlot is flat.
type PricingModel struct {
	Kind      PricingKind `json:"kind"`
	UnitPrice uint64      `json:"unit_price,omitempty"`
}

// TimeSlotPricing is the flat model: gross equals the escrowed total.
func TimeSlotPricing() PricingModel {
	return PricingModel{Kind: PricingTimeSlot}
}

// PerImpressionPricing pays unit price per attested impression.
func PerImpressionPricing(price uint64) PricingModel {
	return PricingModel{Kind: PricingPerImpression, UnitPrice: price}
}

// CPMPricing pays unit price per thousand attested impressions.
func CPMPricing(price uint64) PricingModel {
	return PricingModel{Kind: PricingCPM, UnitPrice: price}
}

// Advertiser is the per-owner campaign registry record
type Advertiser struct {
	ID             ids.ID `json:"id"`
	Authority      ids.ID `json:"authority"`
	LastCampaignID uint64 `json:"last_campaign_id"`
	CampaignCount  uint64 `json:"campaign_count"`
}

// Provider is the per-owner location registry record
type Provider struct {
	ID             ids.ID `json:"id"`
	Authority      ids.ID `json:"authority"`
	LastLocationID uint64 `json:"last_location_id"`
	LocationCount  uint64 `json:"location_count"`
}

// Campaign holds an advertiser's prepaid budget. AvailableBudget and
// ReservedBudget track how much of the account balance is spendable vs
// escrowed into live bookings; their sum never exceeds net deposits.
type Campaign struct {
	ID          ids.ID         `json:"id"`
	Authority   ids.ID         `json:"authority"`
	Index       uint64         `json:"index"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	ImageURL    string         `json:"image_url"`
	Status      CampaignStatus `json:"status"`

	AvailableBudget uint64         `json:"available_budget"`
	ReservedBudget  uint64         `json:"reserved_budget"`
	Account         ledger.Account `json:"account"`
}

// Location is a physical advertising display registered by a provider.
// Price is the whole-location booking price; scheduled bookings price
// per slot instead.
type Location struct {
	ID              ids.ID         `json:"id"`
	Authority       ids.ID         `json:"authority"`
	Index           uint64         `json:"index"`
	Name            string         `json:"name"`
	Description     string         `json:"description"`
	Price           uint64         `json:"price"`
	OracleAuthority ids.ID         `json:"oracle_authority"`
	Status          LocationStatus `json:"status"`
}

// LocationSlot is one bookable time range on a schedule. The half-open
// interval [StartTS, EndTS) carries its own price and status, plus a
// back-reference to the booking that holds it.
type LocationSlot struct {
	StartTS int64      `json:"start_ts"`
	EndTS   int64      `json:"end_ts"`
	Price   uint64     `json:"price"`
	Status  SlotStatus `json:"status"`
	Booking ids.ID     `json:"booking"`
}

// LocationSchedule is the bounded ordered slot collection for one
// location.
type LocationSchedule struct {
	ID        ids.ID         `json:"id"`
	Location  ids.ID         `json:"location"`
	Authority ids.ID         `json:"authority"`
	MaxSlots  uint32         `json:"max_slots"`
	SlotCount uint32         `json:"slot_count"`
	Slots     []LocationSlot `json:"slots"`
}

// CampaignBooking reserves a set of slots and escrows their total price
// in its own account until cancellation or settlement.
type CampaignBooking struct {
	ID              ids.ID `json:"id"`
	Campaign        ids.ID `json:"campaign"`
	Location        ids.ID `json:"location"`
	Advertiser      ids.ID `json:"advertiser"`
	Provider        ids.ID `json:"provider"`
	OracleAuthority ids.ID `json:"oracle_authority"`
	Device          ids.ID `json:"device"`
	DeviceAuthority ids.ID `json:"device_authority"`
	DeviceIndex     uint64 `json:"device_index"`

	RangeStartTS int64        `json:"range_start_ts"`
	RangeEndTS   int64        `json:"range_end_ts"`
	SlotCount    uint32       `json:"slot_count"`
	TotalPrice   uint64       `json:"total_price"`
	Pricing      PricingModel `json:"pricing"`

	StartImpressions uint64        `json:"start_impressions"`
	Status           BookingStatus `json:"status"`
	CreatedAt        int64         `json:"created_at"`
	UpdatedAt        int64         `json:"updated_at"`

	Impressions   uint64 `json:"impressions"`
	SettledAmount uint64 `json:"settled_amount"`
	FeeAmount     uint64 `json:"fee_amount"`

	Account ledger.Account `json:"account"`
}

// CampaignLocation is the whole-location booking variant: one location,
// one flat price, same escrow lifecycle.
type CampaignLocation struct {
	ID              ids.ID        `json:"id"`
	Campaign        ids.ID        `json:"campaign"`
	Location        ids.ID        `json:"location"`
	Advertiser      ids.ID        `json:"advertiser"`
	Provider        ids.ID        `json:"provider"`
	OracleAuthority ids.ID        `json:"oracle_authority"`
	Price           uint64        `json:"price"`
	Status          BookingStatus `json:"status"`
	CreatedAt       int64         `json:"created_at"`
	UpdatedAt       int64         `json:"updated_at"`
	SettledAmount   uint64        `json:"settled_amount"`

	Account ledger.Account `json:"account"`
}

// Config is the versioned platform configuration record
type Config struct {
	Authority ids.ID `json:"authority"`
	Treasury  ids.ID `json:"treasury"`
	FeeBps    uint16 `json:"fee_bps"`
	Version   uint64 `json:"version"`
}

// Derived record identities. Every store is keyed by these, so any
// externally supplied reference can be re-derived and checked.

func AdvertiserID(authority ids.ID) ids.ID {
	return ids.Derive("advertiser", authority, 0)
}

func ProviderID(authority ids.ID) ids.ID {
	return ids.Derive("provider", authority, 0)
}

func CampaignID(authority ids.ID, index uint64) ids.ID {
	return ids.Derive("campaign", authority, index)
}

func LocationID(authority ids.ID, index uint64) ids.ID {
	return ids.Derive("location", authority, index)
}

func ScheduleID(location ids.ID) ids.ID {
	return ids.DeriveComposite("schedule", location.Bytes())
}

func BookingID(campaign, location ids.ID, rangeStart, rangeEnd int64) ids.ID {
	return ids.DeriveComposite("booking",
		campaign.Bytes(), location.Bytes(),
		ids.Int64Bytes(rangeStart), ids.Int64Bytes(rangeEnd))
}

func CampaignLocationID(campaign, location ids.ID) ids.ID {
	return ids.DeriveComposite("campaign_location", campaign.Bytes(), location.Bytes())
}

// EnsureStringLen rejects metadata strings over the record bound.
func EnsureStringLen(value string, maxLen int) error {
	if len(value) > maxLen {
		return ErrInvalidStringLength
	}
	return nil
}

// SetOptionalString applies an optional metadata update in place.
func SetOptionalString(target *string, value *string, maxLen int) error {
	if value == nil {
		return nil
	}
	if err := EnsureStringLen(*value, maxLen); err != nil {
		return err
	}
	*target = *value
	return nil
}

// Footprint returns the encoded data size charged against the campaign
// account's reserve floor.
func (c *Campaign) Footprint() int {
	// fixed fields plus variable-length metadata
	return 128 + len(c.Name) + len(c.Description) + len(c.ImageURL)
}

// Footprint returns the encoded data size charged against the booking
// account's reserve floor.
func (b *CampaignBooking) Footprint() int {
	return 320
}

// Footprint returns the encoded data size charged against the
// campaign-location account's reserve floor.
func (cl *CampaignLocation) Footprint() int {
	return 232
}

// Clone returns a deep copy safe to mutate without touching the stored
// record.
func (c *Campaign) Clone() *Campaign {
	cp := *c
	return &cp
}

func (l *Location) Clone() *Location {
	cp := *l
	return &cp
}

func (s *LocationSchedule) Clone() *LocationSchedule {
	cp := *s
	cp.Slots = make([]LocationSlot, len(s.Slots))
	copy(cp.Slots, s.Slots)
	return &cp
}

func (b *CampaignBooking) Clone() *CampaignBooking {
	cp := *b
	return &cp
}

func (cl *CampaignLocation) Clone() *CampaignLocation {
	cp := *cl
	return &cp
}

func (a *Advertiser) Clone() *Advertiser {
	cp := *a
	return &cp
}

func (p *Provider) Clone() *Provider {
	cp := *p
	return &cp
}

func (c *Config) Clone() *Config {
	cp := *c
	return &cp
}
