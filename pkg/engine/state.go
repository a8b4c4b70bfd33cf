// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package engine

import (
	"github.com/adxyz/boardroom/pkg/core"
	"github.com/adxyz/boardroom/pkg/ids"
	"github.com/adxyz/boardroom/pkg/ledger"
)

// state is the live record store. Every map is keyed by derived ID, so
// a supplied reference is always checkable against its expected owner
// and index. Access is serialized by the engine mutex.
type state struct {
	advertisers       map[ids.ID]*core.Advertiser
	providers         map[ids.ID]*core.Provider
	campaigns         map[ids.ID]*core.Campaign
	locations         map[ids.ID]*core.Location
	schedules         map[ids.ID]*core.LocationSchedule
	bookings          map[ids.ID]*core.CampaignBooking
	campaignLocations map[ids.ID]*core.CampaignLocation
	wallets           map[ids.ID]*ledger.Account
	config            *core.Config
}

func newState() *state {
	return &state{
		advertisers:       make(map[ids.ID]*core.Advertiser),
		providers:         make(map[ids.ID]*core.Provider),
		campaigns:         make(map[ids.ID]*core.Campaign),
		locations:         make(map[ids.ID]*core.Location),
		schedules:         make(map[ids.ID]*core.LocationSchedule),
		bookings:          make(map[ids.ID]*core.CampaignBooking),
		campaignLocations: make(map[ids.ID]*core.CampaignLocation),
		wallets:           make(map[ids.ID]*ledger.Account),
	}
}

// wallet returns the identity's wallet account, creating it empty on
// first touch.
func (s *state) wallet(authority ids.ID) *ledger.Account {
	w, ok := s.wallets[authority]
	if !ok {
		w = &ledger.Account{}
		s.wallets[authority] = w
	}
	return w
}

// Read accessors. Each returns a clone so callers can never mutate
// live state.

// GetAdvertiser returns the registry record for an advertiser owner.
func (e *Engine) GetAdvertiser(authority ids.ID) (*core.Advertiser, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	adv, ok := e.state.advertisers[core.AdvertiserID(authority)]
	if !ok {
		return nil, core.ErrNotFound
	}
	return adv.Clone(), nil
}

// GetProvider returns the registry record for a provider owner.
func (e *Engine) GetProvider(authority ids.ID) (*core.Provider, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	p, ok := e.state.providers[core.ProviderID(authority)]
	if !ok {
		return nil, core.ErrNotFound
	}
	return p.Clone(), nil
}

// GetCampaign returns one campaign by owner and index.
func (e *Engine) GetCampaign(authority ids.ID, index uint64) (*core.Campaign, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	c, ok := e.state.campaigns[core.CampaignID(authority, index)]
	if !ok {
		return nil, core.ErrNotFound
	}
	return c.Clone(), nil
}

// GetLocation returns one location by owner and index.
func (e *Engine) GetLocation(authority ids.ID, index uint64) (*core.Location, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	l, ok := e.state.locations[core.LocationID(authority, index)]
	if !ok {
		return nil, core.ErrNotFound
	}
	return l.Clone(), nil
}

// GetSchedule returns the slot schedule for a location.
func (e *Engine) GetSchedule(authority ids.ID, locationIndex uint64) (*core.LocationSchedule, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	s, ok := e.state.schedules[core.ScheduleID(core.LocationID(authority, locationIndex))]
	if !ok {
		return nil, core.ErrNotFound
	}
	return s.Clone(), nil
}

// GetBooking returns one booking by its identifying tuple.
func (e *Engine) GetBooking(campaignAuthority ids.ID, campaignIndex uint64, providerAuthority ids.ID, locationIndex uint64, rangeStart, rangeEnd int64) (*core.CampaignBooking, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	id := core.BookingID(
		core.CampaignID(campaignAuthority, campaignIndex),
		core.LocationID(providerAuthority, locationIndex),
		rangeStart, rangeEnd)
	b, ok := e.state.bookings[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	return b.Clone(), nil
}

// GetCampaignLocation returns one whole-location booking.
func (e *Engine) GetCampaignLocation(campaignAuthority ids.ID, campaignIndex uint64, providerAuthority ids.ID, locationIndex uint64) (*core.CampaignLocation, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	id := core.CampaignLocationID(
		core.CampaignID(campaignAuthority, campaignIndex),
		core.LocationID(providerAuthority, locationIndex))
	cl, ok := e.state.campaignLocations[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	return cl.Clone(), nil
}

// GetConfig returns the platform configuration.
func (e *Engine) GetConfig() (*core.Config, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state.config == nil {
		return nil, core.ErrNotFound
	}
	return e.state.config.Clone(), nil
}

// ListLocations returns every registered location.
func (e *Engine) ListLocations() []*core.Location {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]*core.Location, 0, len(e.state.locations))
	for _, l := range e.state.locations {
		out = append(out, l.Clone())
	}
	return out
}

// ListBookings returns every live booking.
func (e *Engine) ListBookings() []*core.CampaignBooking {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]*core.CampaignBooking, 0, len(e.state.bookings))
	for _, b := range e.state.bookings {
		out = append(out, b.Clone())
	}
	return out
}
