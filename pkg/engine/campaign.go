// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package engine

import (
	"github.com/adxyz/boardroom/pkg/core"
	"github.com/adxyz/boardroom/pkg/ids"
	"github.com/adxyz/boardroom/pkg/ledger"
	"github.com/adxyz/boardroom/pkg/log"
)

// CreateAdvertiser registers an advertiser owner record.
func (e *Engine) CreateAdvertiser(authority ids.ID) (*core.Advertiser, error) {
	if authority.IsEmpty() {
		return nil, core.ErrInvalidParameters
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	id := core.AdvertiserID(authority)
	if _, ok := e.state.advertisers[id]; ok {
		return nil, core.ErrAlreadyExists
	}

	adv := &core.Advertiser{ID: id, Authority: authority}
	e.state.advertisers[id] = adv
	return adv.Clone(), nil
}

// CreateProvider registers a provider owner record.
func (e *Engine) CreateProvider(authority ids.ID) (*core.Provider, error) {
	if authority.IsEmpty() {
		return nil, core.ErrInvalidParameters
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	id := core.ProviderID(authority)
	if _, ok := e.state.providers[id]; ok {
		return nil, core.ErrAlreadyExists
	}

	p := &core.Provider{ID: id, Authority: authority}
	e.state.providers[id] = p
	return p.Clone(), nil
}

// CreateCampaign creates a campaign at the advertiser's next index. The
// campaign account is funded with its reserve floor plus the optional
// initial budget, both drawn from the owner's wallet.
func (e *Engine) CreateCampaign(authority ids.ID, name, description, imageURL string, budget uint64) (*core.Campaign, error) {
	if err := core.EnsureStringLen(name, core.MaxCampaignNameLen); err != nil {
		return nil, err
	}
	if err := core.EnsureStringLen(description, core.MaxCampaignDescLen); err != nil {
		return nil, err
	}
	if err := core.EnsureStringLen(imageURL, core.MaxCampaignImageURLLen); err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	adv, ok := e.state.advertisers[core.AdvertiserID(authority)]
	if !ok {
		return nil, core.ErrNotFound
	}

	id := core.CampaignID(authority, adv.LastCampaignID)
	if _, ok := e.state.campaigns[id]; ok {
		return nil, core.ErrAlreadyExists
	}

	campaign := &core.Campaign{
		ID:              id,
		Authority:       authority,
		Index:           adv.LastCampaignID,
		Name:            name,
		Description:     description,
		ImageURL:        imageURL,
		Status:          core.CampaignActive,
		AvailableBudget: budget,
	}
	campaign.Account.DataSize = campaign.Footprint()

	funding, err := ledger.Add(campaign.Account.MinReserve(), budget)
	if err != nil {
		return nil, err
	}
	if e.state.wallet(authority).Balance < funding {
		return nil, core.ErrInsufficientBudget
	}

	advClone := adv.Clone()
	nextID, err := ledger.Add(advClone.LastCampaignID, 1)
	if err != nil {
		return nil, err
	}
	count, err := ledger.Add(advClone.CampaignCount, 1)
	if err != nil {
		return nil, err
	}
	advClone.LastCampaignID = nextID
	advClone.CampaignCount = count

	wallet := *e.state.wallet(authority)
	if err := ledger.Move(&wallet, &campaign.Account, funding); err != nil {
		return nil, err
	}

	*e.state.wallet(authority) = wallet
	e.state.advertisers[advClone.ID] = advClone
	e.state.campaigns[id] = campaign

	if e.metrics != nil {
		e.metrics.CampaignsActive.Inc()
	}
	e.log.Info("campaign created",
		log.String("campaign", id.String()),
		log.Uint64("index", campaign.Index))

	return campaign.Clone(), nil
}

// UpdateCampaign applies optional metadata updates. The account's
// reserve floor tracks the new footprint.
func (e *Engine) UpdateCampaign(authority ids.ID, index uint64, name, description, imageURL *string) (*core.Campaign, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	campaign, ok := e.state.campaigns[core.CampaignID(authority, index)]
	if !ok {
		return nil, core.ErrNotFound
	}
	if campaign.Status != core.CampaignActive {
		return nil, core.ErrCampaignNotActive
	}

	clone := campaign.Clone()
	if err := core.SetOptionalString(&clone.Name, name, core.MaxCampaignNameLen); err != nil {
		return nil, err
	}
	if err := core.SetOptionalString(&clone.Description, description, core.MaxCampaignDescLen); err != nil {
		return nil, err
	}
	if err := core.SetOptionalString(&clone.ImageURL, imageURL, core.MaxCampaignImageURLLen); err != nil {
		return nil, err
	}
	clone.Account.DataSize = clone.Footprint()

	e.state.campaigns[clone.ID] = clone
	return clone.Clone(), nil
}

// AddBudget transfers funds from the owner's wallet into the campaign
// and credits the available budget. All-or-nothing.
func (e *Engine) AddBudget(authority ids.ID, index uint64, amount uint64) (*core.Campaign, error) {
	if amount == 0 {
		return nil, core.ErrInvalidParameters
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	campaign, ok := e.state.campaigns[core.CampaignID(authority, index)]
	if !ok {
		return nil, core.ErrNotFound
	}
	if campaign.Status != core.CampaignActive {
		return nil, core.ErrCampaignNotActive
	}

	clone := campaign.Clone()
	wallet := *e.state.wallet(authority)

	if err := ledger.Move(&wallet, &clone.Account, amount); err != nil {
		return nil, err
	}
	available, err := ledger.Add(clone.AvailableBudget, amount)
	if err != nil {
		return nil, err
	}
	clone.AvailableBudget = available

	*e.state.wallet(authority) = wallet
	e.state.campaigns[clone.ID] = clone

	if e.metrics != nil {
		e.metrics.BudgetDeposits.Add(float64(amount))
	}
	e.log.Info("budget added",
		log.String("campaign", clone.ID.String()),
		log.Uint64("amount", amount),
		log.Uint64("available", clone.AvailableBudget))

	return clone.Clone(), nil
}

// WithdrawBudget returns available funds to the owner's wallet. The
// campaign account keeps its reserve floor.
func (e *Engine) WithdrawBudget(authority ids.ID, index uint64, amount uint64) (*core.Campaign, error) {
	if amount == 0 {
		return nil, core.ErrInvalidParameters
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	campaign, ok := e.state.campaigns[core.CampaignID(authority, index)]
	if !ok {
		return nil, core.ErrNotFound
	}
	if campaign.Status != core.CampaignActive {
		return nil, core.ErrCampaignNotActive
	}
	if campaign.AvailableBudget < amount {
		return nil, core.ErrInsufficientBudget
	}
	if err := campaign.Account.EnsureReserveAfterWithdraw(amount); err != nil {
		return nil, err
	}

	clone := campaign.Clone()
	wallet := *e.state.wallet(authority)

	available, err := ledger.Sub(clone.AvailableBudget, amount)
	if err != nil {
		return nil, err
	}
	clone.AvailableBudget = available
	if err := ledger.Move(&clone.Account, &wallet, amount); err != nil {
		return nil, err
	}

	*e.state.wallet(authority) = wallet
	e.state.campaigns[clone.ID] = clone

	e.log.Info("budget withdrawn",
		log.String("campaign", clone.ID.String()),
		log.Uint64("amount", amount),
		log.Uint64("available", clone.AvailableBudget))

	return clone.Clone(), nil
}

// CloseCampaign moves a campaign to its terminal state. Closing is only
// allowed once no budget remains reserved by live bookings.
func (e *Engine) CloseCampaign(authority ids.ID, index uint64) (*core.Campaign, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	campaign, ok := e.state.campaigns[core.CampaignID(authority, index)]
	if !ok {
		return nil, core.ErrNotFound
	}
	adv, ok := e.state.advertisers[core.AdvertiserID(authority)]
	if !ok {
		return nil, core.ErrNotFound
	}
	if campaign.Status != core.CampaignActive {
		return nil, core.ErrCampaignNotActive
	}
	if campaign.ReservedBudget != 0 {
		return nil, core.ErrCampaignHasActiveBookings
	}

	clone := campaign.Clone()
	advClone := adv.Clone()
	wallet := *e.state.wallet(authority)

	count, err := ledger.Sub(advClone.CampaignCount, 1)
	if err != nil {
		return nil, err
	}
	advClone.CampaignCount = count
	clone.Status = core.CampaignClosed

	// The account drains entirely, floor included, on the terminal
	// transition.
	if err := ledger.Move(&clone.Account, &wallet, clone.Account.Balance); err != nil {
		return nil, err
	}
	clone.AvailableBudget = 0

	*e.state.wallet(authority) = wallet
	e.state.campaigns[clone.ID] = clone
	e.state.advertisers[advClone.ID] = advClone

	if e.metrics != nil {
		e.metrics.CampaignsActive.Dec()
	}
	e.log.Info("campaign closed", log.String("campaign", clone.ID.String()))

	return clone.Clone(), nil
}
