// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package engine

import (
	"time"

	"github.com/adxyz/boardroom/pkg/core"
	"github.com/adxyz/boardroom/pkg/ids"
	"github.com/adxyz/boardroom/pkg/ledger"
	"github.com/adxyz/boardroom/pkg/log"
	"github.com/adxyz/boardroom/pkg/store"
)

// SettleRequest names every party to a booking settlement. The engine
// re-derives and checks each one against the booking before any funds
// move; the device index comes from the booking itself.
type SettleRequest struct {
	CampaignAuthority ids.ID
	CampaignIndex     uint64
	ProviderAuthority ids.ID
	LocationIndex     uint64
	RangeStartTS      int64
	RangeEndTS        int64

	// PayoutAuthority receives the provider's net; it must be the
	// location owner. Treasury must match the configured treasury.
	PayoutAuthority ids.ID
	Treasury        ids.ID

	// OracleAuthority must have authorized the settlement and match
	// the one bound at booking time.
	OracleAuthority ids.ID
	DeviceAuthority ids.ID
}

// SettleBooking closes out an active booking against the device's
// attested impression counter. The provider is paid the gross earned
// under the booking's pricing model minus the platform fee, the fee
// goes to the treasury, and anything not earned refunds to the
// campaign budget. The payout never exceeds the escrowed total.
func (e *Engine) SettleBooking(req SettleRequest) (*core.CampaignBooking, error) {
	start := time.Now()

	e.mu.Lock()
	defer e.mu.Unlock()

	config := e.state.config
	if config == nil {
		return nil, core.ErrNotFound
	}
	campaign, ok := e.state.campaigns[core.CampaignID(req.CampaignAuthority, req.CampaignIndex)]
	if !ok {
		return nil, core.ErrNotFound
	}
	location, ok := e.state.locations[core.LocationID(req.ProviderAuthority, req.LocationIndex)]
	if !ok {
		return nil, core.ErrNotFound
	}
	id := core.BookingID(campaign.ID, location.ID, req.RangeStartTS, req.RangeEndTS)
	booking, ok := e.state.bookings[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	schedule, ok := e.state.schedules[core.ScheduleID(location.ID)]
	if !ok {
		return nil, core.ErrNotFound
	}

	if booking.Status != core.BookingActive {
		return nil, core.ErrBookingNotActive
	}
	if booking.Campaign != campaign.ID || booking.Location != location.ID {
		return nil, core.ErrInvalidParameters
	}
	if req.OracleAuthority != booking.OracleAuthority || req.OracleAuthority != location.OracleAuthority {
		return nil, core.ErrInvalidOracleAuthority
	}
	if req.PayoutAuthority != location.Authority {
		return nil, core.ErrUnauthorized
	}
	if req.Treasury != config.Treasury {
		return nil, core.ErrUnauthorized
	}
	if req.DeviceAuthority != booking.DeviceAuthority {
		return nil, core.ErrInvalidOracleDevice
	}

	device, err := e.verifyDevice(booking.DeviceAuthority, booking.DeviceIndex)
	if err != nil {
		return nil, err
	}
	if device.ID != booking.Device {
		return nil, core.ErrInvalidOracleDevice
	}
	if device.Location != location.ID {
		return nil, core.ErrInvalidOracleDevice
	}
	if device.OracleAuthority != booking.OracleAuthority {
		return nil, core.ErrInvalidOracleAuthority
	}

	// A counter below the booking-time snapshot means the device
	// regressed; settlement refuses rather than guessing.
	impressions, err := ledger.Sub(device.Metrics.TotalImpressions, booking.StartImpressions)
	if err != nil {
		return nil, err
	}

	gross, err := settlementGross(booking.Pricing, booking.TotalPrice, impressions)
	if err != nil {
		return nil, err
	}
	if gross > booking.TotalPrice {
		gross = booking.TotalPrice
	}
	fee, err := feeAmount(gross, config.FeeBps)
	if err != nil {
		return nil, err
	}
	net, err := ledger.Sub(gross, fee)
	if err != nil {
		return nil, err
	}
	refund, err := ledger.Sub(booking.TotalPrice, gross)
	if err != nil {
		return nil, err
	}

	campaignClone := campaign.Clone()
	bookingClone := booking.Clone()
	scheduleClone := schedule.Clone()
	providerWallet := *e.state.wallet(req.PayoutAuthority)
	treasuryWallet := *e.state.wallet(req.Treasury)
	advertiserWallet := *e.state.wallet(req.CampaignAuthority)

	// The escrow account must be able to release the full price and
	// still cover its own floor before any funds move.
	if err := bookingClone.Account.EnsureReserveAfterWithdraw(bookingClone.TotalPrice); err != nil {
		return nil, err
	}

	if err := ledger.Move(&bookingClone.Account, &providerWallet, net); err != nil {
		return nil, err
	}
	if fee > 0 {
		if err := ledger.Move(&bookingClone.Account, &treasuryWallet, fee); err != nil {
			return nil, err
		}
	}
	if refund > 0 {
		if err := ledger.Move(&bookingClone.Account, &campaignClone.Account, refund); err != nil {
			return nil, err
		}
		available, err := ledger.Add(campaignClone.AvailableBudget, refund)
		if err != nil {
			return nil, err
		}
		campaignClone.AvailableBudget = available
	}
	reserved, err := ledger.Sub(campaignClone.ReservedBudget, bookingClone.TotalPrice)
	if err != nil {
		return nil, err
	}
	campaignClone.ReservedBudget = reserved

	scheduleClone.SettleBooking(id)
	bookingClone.Status = core.BookingSettled
	bookingClone.Impressions = impressions
	bookingClone.SettledAmount = gross
	bookingClone.FeeAmount = fee
	bookingClone.UpdatedAt = e.now()

	// Residual floor drains to the advertiser wallet on the terminal
	// transition.
	if err := ledger.Move(&bookingClone.Account, &advertiserWallet, bookingClone.Account.Balance); err != nil {
		return nil, err
	}

	*e.state.wallet(req.PayoutAuthority) = providerWallet
	*e.state.wallet(req.Treasury) = treasuryWallet
	*e.state.wallet(req.CampaignAuthority) = advertiserWallet
	e.state.campaigns[campaignClone.ID] = campaignClone
	e.state.schedules[scheduleClone.ID] = scheduleClone
	e.state.bookings[id] = bookingClone

	e.archiveBooking(bookingClone)
	e.putReceipt(&store.SettlementReceipt{
		Booking:       id,
		Campaign:      campaignClone.ID,
		Location:      location.ID,
		Impressions:   impressions,
		SettledAmount: gross,
		FeeAmount:     fee,
		RefundAmount:  refund,
		SettledAt:     bookingClone.UpdatedAt,
	})

	if e.metrics != nil {
		e.metrics.BookingsSettled.Inc()
		e.metrics.SettlementVolume.Add(float64(net))
		e.metrics.FeeVolume.Add(float64(fee))
		e.metrics.RefundVolume.Add(float64(refund))
		e.metrics.SettlementDuration.Observe(time.Since(start).Seconds())
	}
	e.log.Info("booking settled",
		log.String("booking", id.String()),
		log.Uint64("impressions", impressions),
		log.Uint64("gross", gross),
		log.Uint64("net", net),
		log.Uint64("fee", fee),
		log.Uint64("refund", refund))

	return bookingClone.Clone(), nil
}

// settlementGross computes the pre-fee amount earned under the pricing
// model. TimeSlot earns the full escrow; PerImpression and CPM bill the
// attested impressions at the unit price, CPM per thousand with the
// remainder dropped.
func settlementGross(pricing core.PricingModel, totalPrice, impressions uint64) (uint64, error) {
	switch pricing.Kind {
	case core.PricingTimeSlot:
		return totalPrice, nil
	case core.PricingPerImpression:
		return ledger.Mul(pricing.UnitPrice, impressions)
	case core.PricingCPM:
		earned, err := ledger.Mul(pricing.UnitPrice, impressions)
		if err != nil {
			return 0, err
		}
		return ledger.Div(earned, 1000)
	}
	return 0, core.ErrInvalidParameters
}

// feeAmount computes the platform fee floor(gross * feeBps / 10000).
func feeAmount(gross uint64, feeBps uint16) (uint64, error) {
	scaled, err := ledger.Mul(gross, uint64(feeBps))
	if err != nil {
		return 0, err
	}
	return ledger.Div(scaled, core.BpsDenominator)
}

func (e *Engine) putReceipt(r *store.SettlementReceipt) {
	if e.archive == nil {
		return
	}
	if err := e.archive.PutReceipt(r); err != nil {
		e.log.Warn("receipt archive failed",
			log.String("booking", r.Booking.String()),
			log.Error(err))
	}
}
