// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package engine

import (
	"time"

	"github.com/adxyz/boardroom/pkg/core"
	"github.com/adxyz/boardroom/pkg/ids"
	"github.com/adxyz/boardroom/pkg/ledger"
	"github.com/adxyz/boardroom/pkg/log"
)

// BookRange books every schedule slot fully contained in the requested
// range, escrowing the summed slot price plus the booking account's
// reserve floor. The device's current impression counter is snapshotted
// so settlement can bill only impressions delivered during the booking.
func (e *Engine) BookRange(
	campaignAuthority ids.ID, campaignIndex uint64,
	providerAuthority ids.ID, locationIndex uint64,
	rangeStart, rangeEnd int64,
	deviceAuthority ids.ID, deviceIndex uint64,
	pricing core.PricingModel,
) (*core.CampaignBooking, error) {
	if rangeStart >= rangeEnd {
		return nil, core.ErrInvalidTimeRange
	}
	switch pricing.Kind {
	case core.PricingPerImpression, core.PricingCPM:
		if pricing.UnitPrice == 0 {
			return nil, core.ErrInvalidParameters
		}
	case core.PricingTimeSlot:
	default:
		return nil, core.ErrInvalidParameters
	}

	start := time.Now()

	e.mu.Lock()
	defer e.mu.Unlock()

	campaign, ok := e.state.campaigns[core.CampaignID(campaignAuthority, campaignIndex)]
	if !ok {
		return nil, core.ErrNotFound
	}
	location, ok := e.state.locations[core.LocationID(providerAuthority, locationIndex)]
	if !ok {
		return nil, core.ErrNotFound
	}
	schedule, ok := e.state.schedules[core.ScheduleID(location.ID)]
	if !ok {
		return nil, core.ErrNotFound
	}

	device, err := e.verifyDevice(deviceAuthority, deviceIndex)
	if err != nil {
		return nil, err
	}
	if device.Location != location.ID {
		return nil, core.ErrInvalidOracleDevice
	}
	if device.OracleAuthority != location.OracleAuthority {
		return nil, core.ErrInvalidOracleAuthority
	}

	if campaign.Status != core.CampaignActive {
		return nil, core.ErrCampaignNotActive
	}
	if location.Status.Kind == core.LocationInactive {
		return nil, core.ErrLocationInactive
	}
	if schedule.Location != location.ID || schedule.Authority != location.Authority {
		return nil, core.ErrInvalidAuthority
	}
	if location.OracleAuthority.IsEmpty() {
		return nil, core.ErrOracleNotConfigured
	}

	scheduleClone := schedule.Clone()
	matched, totalPrice, err := scheduleClone.MatchRange(rangeStart, rangeEnd, e.now())
	if err != nil {
		return nil, err
	}

	// A live booking over the same range already holds its slots, so
	// MatchRange above rejects it as unavailable; an archived terminal
	// record under the same tuple is simply replaced.
	id := core.BookingID(campaign.ID, location.ID, rangeStart, rangeEnd)
	if campaign.AvailableBudget < totalPrice {
		return nil, core.ErrInsufficientBudget
	}
	if err := campaign.Account.EnsureReserveAfterWithdraw(totalPrice); err != nil {
		return nil, err
	}

	now := e.now()
	booking := &core.CampaignBooking{
		ID:               id,
		Campaign:         campaign.ID,
		Location:         location.ID,
		Advertiser:       core.AdvertiserID(campaignAuthority),
		Provider:         core.ProviderID(providerAuthority),
		OracleAuthority:  location.OracleAuthority,
		Device:           device.ID,
		DeviceAuthority:  deviceAuthority,
		DeviceIndex:      deviceIndex,
		RangeStartTS:     rangeStart,
		RangeEndTS:       rangeEnd,
		SlotCount:        uint32(len(matched)),
		TotalPrice:       totalPrice,
		Pricing:          pricing,
		StartImpressions: device.Metrics.TotalImpressions,
		Status:           core.BookingActive,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	booking.Account.DataSize = booking.Footprint()
	floor := booking.Account.MinReserve()

	campaignClone := campaign.Clone()
	wallet := *e.state.wallet(campaignAuthority)

	// The advertiser wallet funds the booking account's reserve floor;
	// the escrowed price comes out of the campaign budget.
	if err := ledger.Move(&wallet, &booking.Account, floor); err != nil {
		return nil, err
	}
	available, err := ledger.Sub(campaignClone.AvailableBudget, totalPrice)
	if err != nil {
		return nil, err
	}
	reserved, err := ledger.Add(campaignClone.ReservedBudget, totalPrice)
	if err != nil {
		return nil, err
	}
	campaignClone.AvailableBudget = available
	campaignClone.ReservedBudget = reserved
	if err := ledger.Move(&campaignClone.Account, &booking.Account, totalPrice); err != nil {
		return nil, err
	}
	scheduleClone.MarkBooked(matched, id)

	*e.state.wallet(campaignAuthority) = wallet
	e.state.campaigns[campaignClone.ID] = campaignClone
	e.state.schedules[scheduleClone.ID] = scheduleClone
	e.state.bookings[id] = booking

	if e.metrics != nil {
		e.metrics.BookingsCreated.Inc()
		e.metrics.EscrowVolume.Add(float64(totalPrice))
		e.metrics.BookingDuration.Observe(time.Since(start).Seconds())
	}
	e.log.Info("range booked",
		log.String("booking", id.String()),
		log.Int("slots", len(matched)),
		log.Uint64("total_price", totalPrice),
		log.String("pricing", booking.Pricing.Kind.String()))

	return booking.Clone(), nil
}

// CancelBooking releases the booking's slots, returns the escrowed
// price to the campaign budget, and drains the residual reserve floor
// back to the advertiser's wallet. Only the campaign owner may cancel.
func (e *Engine) CancelBooking(
	authority ids.ID, campaignIndex uint64,
	providerAuthority ids.ID, locationIndex uint64,
	rangeStart, rangeEnd int64,
) (*core.CampaignBooking, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	campaign, ok := e.state.campaigns[core.CampaignID(authority, campaignIndex)]
	if !ok {
		return nil, core.ErrNotFound
	}
	location, ok := e.state.locations[core.LocationID(providerAuthority, locationIndex)]
	if !ok {
		return nil, core.ErrNotFound
	}
	id := core.BookingID(campaign.ID, location.ID, rangeStart, rangeEnd)
	booking, ok := e.state.bookings[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	schedule, ok := e.state.schedules[core.ScheduleID(location.ID)]
	if !ok {
		return nil, core.ErrNotFound
	}

	if campaign.Authority != authority {
		return nil, core.ErrUnauthorized
	}
	if booking.Status != core.BookingActive {
		return nil, core.ErrBookingNotActive
	}
	if booking.Campaign != campaign.ID || booking.Location != location.ID {
		return nil, core.ErrInvalidParameters
	}

	campaignClone := campaign.Clone()
	bookingClone := booking.Clone()
	scheduleClone := schedule.Clone()
	wallet := *e.state.wallet(authority)

	if err := ledger.Move(&bookingClone.Account, &campaignClone.Account, bookingClone.TotalPrice); err != nil {
		return nil, err
	}
	reserved, err := ledger.Sub(campaignClone.ReservedBudget, bookingClone.TotalPrice)
	if err != nil {
		return nil, err
	}
	available, err := ledger.Add(campaignClone.AvailableBudget, bookingClone.TotalPrice)
	if err != nil {
		return nil, err
	}
	campaignClone.ReservedBudget = reserved
	campaignClone.AvailableBudget = available

	scheduleClone.ReleaseBooking(id)
	bookingClone.Status = core.BookingCancelled
	bookingClone.UpdatedAt = e.now()

	// Residual floor drains to the advertiser wallet on the terminal
	// transition.
	if err := ledger.Move(&bookingClone.Account, &wallet, bookingClone.Account.Balance); err != nil {
		return nil, err
	}

	*e.state.wallet(authority) = wallet
	e.state.campaigns[campaignClone.ID] = campaignClone
	e.state.schedules[scheduleClone.ID] = scheduleClone
	e.state.bookings[id] = bookingClone

	e.archiveBooking(bookingClone)
	if e.metrics != nil {
		e.metrics.BookingsCancelled.Inc()
	}
	e.log.Info("booking cancelled",
		log.String("booking", id.String()),
		log.Uint64("refunded", bookingClone.TotalPrice))

	return bookingClone.Clone(), nil
}

// archiveBooking persists a terminal booking record; archival is
// best-effort and never fails the operation that produced it.
func (e *Engine) archiveBooking(b *core.CampaignBooking) {
	if e.archive == nil {
		return
	}
	if err := e.archive.ArchiveBooking(b); err != nil {
		e.log.Warn("booking archive failed",
			log.String("booking", b.ID.String()),
			log.Error(err))
	}
}
