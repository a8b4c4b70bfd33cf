// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package engine

import (
	"github.com/adxyz/boardroom/pkg/core"
	"github.com/adxyz/boardroom/pkg/ids"
	"github.com/adxyz/boardroom/pkg/ledger"
	"github.com/adxyz/boardroom/pkg/log"
)

// AddCampaignLocation books a whole location at its flat price,
// escrowing the price until release or settlement. The location flips
// to Booked and rejects any other booking while held.
func (e *Engine) AddCampaignLocation(authority ids.ID, campaignIndex uint64, providerAuthority ids.ID, locationIndex uint64) (*core.CampaignLocation, error) {
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

	if campaign.Authority != authority {
		return nil, core.ErrUnauthorized
	}
	if campaign.Status != core.CampaignActive {
		return nil, core.ErrCampaignNotActive
	}
	switch location.Status.Kind {
	case core.LocationBooked:
		return nil, core.ErrLocationAlreadyBooked
	case core.LocationInactive:
		return nil, core.ErrLocationInactive
	}
	if location.OracleAuthority.IsEmpty() {
		return nil, core.ErrOracleNotConfigured
	}

	// A live record implies the location is already Booked, caught
	// above; a terminal record under the same tuple is replaced.
	id := core.CampaignLocationID(campaign.ID, location.ID)
	if campaign.AvailableBudget < location.Price {
		return nil, core.ErrInsufficientBudget
	}
	if err := campaign.Account.EnsureReserveAfterWithdraw(location.Price); err != nil {
		return nil, err
	}

	now := e.now()
	cl := &core.CampaignLocation{
		ID:              id,
		Campaign:        campaign.ID,
		Location:        location.ID,
		Advertiser:      core.AdvertiserID(authority),
		Provider:        core.ProviderID(providerAuthority),
		OracleAuthority: location.OracleAuthority,
		Price:           location.Price,
		Status:          core.BookingActive,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	cl.Account.DataSize = cl.Footprint()
	floor := cl.Account.MinReserve()

	campaignClone := campaign.Clone()
	locationClone := location.Clone()
	wallet := *e.state.wallet(authority)

	if err := ledger.Move(&wallet, &cl.Account, floor); err != nil {
		return nil, err
	}
	available, err := ledger.Sub(campaignClone.AvailableBudget, cl.Price)
	if err != nil {
		return nil, err
	}
	reserved, err := ledger.Add(campaignClone.ReservedBudget, cl.Price)
	if err != nil {
		return nil, err
	}
	campaignClone.AvailableBudget = available
	campaignClone.ReservedBudget = reserved
	if err := ledger.Move(&campaignClone.Account, &cl.Account, cl.Price); err != nil {
		return nil, err
	}
	locationClone.Status = core.LocationStatus{Kind: core.LocationBooked, BookedBy: campaign.ID}

	*e.state.wallet(authority) = wallet
	e.state.campaigns[campaignClone.ID] = campaignClone
	e.state.locations[locationClone.ID] = locationClone
	e.state.campaignLocations[id] = cl

	if e.metrics != nil {
		e.metrics.BookingsCreated.Inc()
		e.metrics.EscrowVolume.Add(float64(cl.Price))
	}
	e.log.Info("location booked",
		log.String("campaign_location", id.String()),
		log.Uint64("price", cl.Price))

	return cl.Clone(), nil
}

// RemoveCampaignLocation releases a whole-location booking, refunding
// the escrowed price to the campaign budget. Only the campaign owner
// may release.
func (e *Engine) RemoveCampaignLocation(authority ids.ID, campaignIndex uint64, providerAuthority ids.ID, locationIndex uint64) (*core.CampaignLocation, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	campaign, location, cl, err := e.state.campaignLocationTuple(authority, campaignIndex, providerAuthority, locationIndex)
	if err != nil {
		return nil, err
	}
	if campaign.Authority != authority {
		return nil, core.ErrUnauthorized
	}
	if cl.Status != core.BookingActive {
		return nil, core.ErrBookingNotActive
	}

	campaignClone := campaign.Clone()
	locationClone := location.Clone()
	clClone := cl.Clone()
	wallet := *e.state.wallet(authority)

	if err := ledger.Move(&clClone.Account, &campaignClone.Account, clClone.Price); err != nil {
		return nil, err
	}
	reserved, err := ledger.Sub(campaignClone.ReservedBudget, clClone.Price)
	if err != nil {
		return nil, err
	}
	available, err := ledger.Add(campaignClone.AvailableBudget, clClone.Price)
	if err != nil {
		return nil, err
	}
	campaignClone.ReservedBudget = reserved
	campaignClone.AvailableBudget = available

	locationClone.Status = core.LocationStatus{Kind: core.LocationAvailable}
	clClone.Status = core.BookingCancelled
	clClone.UpdatedAt = e.now()

	if err := ledger.Move(&clClone.Account, &wallet, clClone.Account.Balance); err != nil {
		return nil, err
	}

	*e.state.wallet(authority) = wallet
	e.state.campaigns[campaignClone.ID] = campaignClone
	e.state.locations[locationClone.ID] = locationClone
	e.state.campaignLocations[clClone.ID] = clClone

	e.archiveCampaignLocation(clClone)
	if e.metrics != nil {
		e.metrics.BookingsCancelled.Inc()
	}
	e.log.Info("location booking released",
		log.String("campaign_location", clClone.ID.String()))

	return clClone.Clone(), nil
}

// SettleCampaignLocation pays the provider an oracle-attested amount
// out of a whole-location escrow and refunds the rest to the campaign.
// This variant carries no platform fee; the amount can never exceed the
// escrowed price.
func (e *Engine) SettleCampaignLocation(oracleAuthority ids.ID, campaignAuthority ids.ID, campaignIndex uint64, providerAuthority ids.ID, locationIndex uint64, settlementAmount uint64) (*core.CampaignLocation, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	campaign, location, cl, err := e.state.campaignLocationTuple(campaignAuthority, campaignIndex, providerAuthority, locationIndex)
	if err != nil {
		return nil, err
	}
	if cl.Status != core.BookingActive {
		return nil, core.ErrBookingNotActive
	}
	if oracleAuthority != cl.OracleAuthority || oracleAuthority != location.OracleAuthority {
		return nil, core.ErrInvalidOracleAuthority
	}
	if settlementAmount > cl.Price {
		return nil, core.ErrSettlementTooHigh
	}

	refund, err := ledger.Sub(cl.Price, settlementAmount)
	if err != nil {
		return nil, err
	}

	campaignClone := campaign.Clone()
	locationClone := location.Clone()
	clClone := cl.Clone()
	providerWallet := *e.state.wallet(providerAuthority)
	advertiserWallet := *e.state.wallet(campaignAuthority)

	if err := ledger.Move(&clClone.Account, &providerWallet, settlementAmount); err != nil {
		return nil, err
	}
	if refund > 0 {
		if err := ledger.Move(&clClone.Account, &campaignClone.Account, refund); err != nil {
			return nil, err
		}
		available, err := ledger.Add(campaignClone.AvailableBudget, refund)
		if err != nil {
			return nil, err
		}
		campaignClone.AvailableBudget = available
	}
	reserved, err := ledger.Sub(campaignClone.ReservedBudget, clClone.Price)
	if err != nil {
		return nil, err
	}
	campaignClone.ReservedBudget = reserved

	locationClone.Status = core.LocationStatus{Kind: core.LocationAvailable}
	clClone.Status = core.BookingSettled
	clClone.SettledAmount = settlementAmount
	clClone.UpdatedAt = e.now()

	if err := ledger.Move(&clClone.Account, &advertiserWallet, clClone.Account.Balance); err != nil {
		return nil, err
	}

	*e.state.wallet(providerAuthority) = providerWallet
	*e.state.wallet(campaignAuthority) = advertiserWallet
	e.state.campaigns[campaignClone.ID] = campaignClone
	e.state.locations[locationClone.ID] = locationClone
	e.state.campaignLocations[clClone.ID] = clClone

	e.archiveCampaignLocation(clClone)
	if e.metrics != nil {
		e.metrics.BookingsSettled.Inc()
		e.metrics.SettlementVolume.Add(float64(settlementAmount))
		e.metrics.RefundVolume.Add(float64(refund))
	}
	e.log.Info("location booking settled",
		log.String("campaign_location", clClone.ID.String()),
		log.Uint64("settled", settlementAmount),
		log.Uint64("refund", refund))

	return clClone.Clone(), nil
}

// campaignLocationTuple loads the three records a whole-location
// operation names. Callers hold the engine mutex.
func (s *state) campaignLocationTuple(campaignAuthority ids.ID, campaignIndex uint64, providerAuthority ids.ID, locationIndex uint64) (*core.Campaign, *core.Location, *core.CampaignLocation, error) {
	campaign, ok := s.campaigns[core.CampaignID(campaignAuthority, campaignIndex)]
	if !ok {
		return nil, nil, nil, core.ErrNotFound
	}
	location, ok := s.locations[core.LocationID(providerAuthority, locationIndex)]
	if !ok {
		return nil, nil, nil, core.ErrNotFound
	}
	cl, ok := s.campaignLocations[core.CampaignLocationID(campaign.ID, location.ID)]
	if !ok {
		return nil, nil, nil, core.ErrNotFound
	}
	if cl.Campaign != campaign.ID || cl.Location != location.ID {
		return nil, nil, nil, core.ErrInvalidParameters
	}
	return campaign, location, cl, nil
}

func (e *Engine) archiveCampaignLocation(cl *core.CampaignLocation) {
	if e.archive == nil {
		return
	}
	if err := e.archive.ArchiveCampaignLocation(cl); err != nil {
		e.log.Warn("campaign location archive failed",
			log.String("campaign_location", cl.ID.String()),
			log.Error(err))
	}
}
