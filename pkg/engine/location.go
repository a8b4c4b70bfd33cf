// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package engine

import (
	"github.com/adxyz/boardroom/pkg/core"
	"github.com/adxyz/boardroom/pkg/ids"
	"github.com/adxyz/boardroom/pkg/ledger"
	"github.com/adxyz/boardroom/pkg/log"
)

// RegisterLocation creates a display location at the provider's next
// index. A location without an oracle authority can never settle, so an
// empty one is rejected up front.
func (e *Engine) RegisterLocation(authority ids.ID, name, description string, price uint64, oracleAuthority ids.ID) (*core.Location, error) {
	if err := core.EnsureStringLen(name, core.MaxLocationNameLen); err != nil {
		return nil, err
	}
	if err := core.EnsureStringLen(description, core.MaxLocationDescLen); err != nil {
		return nil, err
	}
	if price == 0 {
		return nil, core.ErrInvalidParameters
	}
	if oracleAuthority.IsEmpty() {
		return nil, core.ErrOracleNotConfigured
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	provider, ok := e.state.providers[core.ProviderID(authority)]
	if !ok {
		return nil, core.ErrNotFound
	}

	id := core.LocationID(authority, provider.LastLocationID)
	if _, ok := e.state.locations[id]; ok {
		return nil, core.ErrAlreadyExists
	}

	location := &core.Location{
		ID:              id,
		Authority:       authority,
		Index:           provider.LastLocationID,
		Name:            name,
		Description:     description,
		Price:           price,
		OracleAuthority: oracleAuthority,
		Status:          core.LocationStatus{Kind: core.LocationAvailable},
	}

	provClone := provider.Clone()
	nextID, err := ledger.Add(provClone.LastLocationID, 1)
	if err != nil {
		return nil, err
	}
	count, err := ledger.Add(provClone.LocationCount, 1)
	if err != nil {
		return nil, err
	}
	provClone.LastLocationID = nextID
	provClone.LocationCount = count

	e.state.providers[provClone.ID] = provClone
	e.state.locations[id] = location

	e.log.Info("location registered",
		log.String("location", id.String()),
		log.Uint64("index", location.Index),
		log.Uint64("price", price))

	return location.Clone(), nil
}

// UpdateLocationDetails applies optional metadata updates.
func (e *Engine) UpdateLocationDetails(authority ids.ID, index uint64, name, description *string) (*core.Location, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	location, ok := e.state.locations[core.LocationID(authority, index)]
	if !ok {
		return nil, core.ErrNotFound
	}

	clone := location.Clone()
	if err := core.SetOptionalString(&clone.Name, name, core.MaxLocationNameLen); err != nil {
		return nil, err
	}
	if err := core.SetOptionalString(&clone.Description, description, core.MaxLocationDescLen); err != nil {
		return nil, err
	}

	e.state.locations[clone.ID] = clone
	return clone.Clone(), nil
}

// UpdateLocationPrice changes the whole-location booking price. Slot
// prices are unaffected.
func (e *Engine) UpdateLocationPrice(authority ids.ID, index uint64, price uint64) (*core.Location, error) {
	if price == 0 {
		return nil, core.ErrInvalidParameters
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	location, ok := e.state.locations[core.LocationID(authority, index)]
	if !ok {
		return nil, core.ErrNotFound
	}

	clone := location.Clone()
	clone.Price = price
	e.state.locations[clone.ID] = clone
	return clone.Clone(), nil
}

// SetLocationStatus flips a location between Available and Inactive.
// The Booked variant is owned by the booking lifecycle and cannot be
// set or cleared here.
func (e *Engine) SetLocationStatus(authority ids.ID, index uint64, kind core.LocationStatusKind) (*core.Location, error) {
	if kind == core.LocationBooked {
		return nil, core.ErrInvalidParameters
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	location, ok := e.state.locations[core.LocationID(authority, index)]
	if !ok {
		return nil, core.ErrNotFound
	}
	if location.Status.Kind == core.LocationBooked {
		return nil, core.ErrLocationAlreadyBooked
	}

	clone := location.Clone()
	clone.Status = core.LocationStatus{Kind: kind}
	e.state.locations[clone.ID] = clone
	return clone.Clone(), nil
}

// CreateSchedule allocates the slot schedule for a location the caller
// owns. One schedule per location.
func (e *Engine) CreateSchedule(authority ids.ID, locationIndex uint64, maxSlots uint32) (*core.LocationSchedule, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	location, ok := e.state.locations[core.LocationID(authority, locationIndex)]
	if !ok {
		return nil, core.ErrNotFound
	}
	if location.Authority != authority {
		return nil, core.ErrInvalidAuthority
	}

	id := core.ScheduleID(location.ID)
	if _, ok := e.state.schedules[id]; ok {
		return nil, core.ErrAlreadyExists
	}

	schedule, err := core.NewSchedule(location.ID, authority, maxSlots)
	if err != nil {
		return nil, err
	}

	e.state.schedules[id] = schedule
	e.log.Info("schedule created",
		log.String("location", location.ID.String()),
		log.Uint64("max_slots", uint64(maxSlots)))

	return schedule.Clone(), nil
}

// AddSlot appends an available slot to the location's schedule.
func (e *Engine) AddSlot(authority ids.ID, locationIndex uint64, startTS, endTS int64, price uint64) (*core.LocationSchedule, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	schedule, ok := e.state.schedules[core.ScheduleID(core.LocationID(authority, locationIndex))]
	if !ok {
		return nil, core.ErrNotFound
	}
	if schedule.Authority != authority {
		return nil, core.ErrInvalidAuthority
	}

	clone := schedule.Clone()
	if err := clone.AddSlot(startTS, endTS, price); err != nil {
		return nil, err
	}

	e.state.schedules[clone.ID] = clone
	if e.metrics != nil {
		e.metrics.SlotsAdded.Inc()
	}
	return clone.Clone(), nil
}
