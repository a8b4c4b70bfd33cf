// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package engine

import (
	"github.com/adxyz/boardroom/pkg/core"
	"github.com/adxyz/boardroom/pkg/ids"
	"github.com/adxyz/boardroom/pkg/ledger"
	"github.com/adxyz/boardroom/pkg/log"
)

// InitializeConfig installs the platform configuration. One-shot; the
// installing authority becomes the config owner.
func (e *Engine) InitializeConfig(authority, treasury ids.ID, feeBps uint16) (*core.Config, error) {
	if authority.IsEmpty() || treasury.IsEmpty() {
		return nil, core.ErrInvalidParameters
	}
	if uint64(feeBps) > core.BpsDenominator {
		return nil, core.ErrInvalidParameters
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state.config != nil {
		return nil, core.ErrAlreadyExists
	}

	e.state.config = &core.Config{
		Authority: authority,
		Treasury:  treasury,
		FeeBps:    feeBps,
		Version:   1,
	}
	e.log.Info("config initialized",
		log.Uint64("fee_bps", uint64(feeBps)))

	return e.state.config.Clone(), nil
}

// UpdateConfig applies optional treasury and fee updates. Only the
// config owner may update; every successful update bumps the version.
func (e *Engine) UpdateConfig(authority ids.ID, treasury *ids.ID, feeBps *uint16) (*core.Config, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state.config == nil {
		return nil, core.ErrNotFound
	}
	if e.state.config.Authority != authority {
		return nil, core.ErrUnauthorized
	}

	clone := e.state.config.Clone()
	if treasury != nil {
		if treasury.IsEmpty() {
			return nil, core.ErrInvalidParameters
		}
		clone.Treasury = *treasury
	}
	if feeBps != nil {
		if uint64(*feeBps) > core.BpsDenominator {
			return nil, core.ErrInvalidParameters
		}
		clone.FeeBps = *feeBps
	}
	version, err := ledger.Add(clone.Version, 1)
	if err != nil {
		return nil, err
	}
	clone.Version = version

	e.state.config = clone
	e.log.Info("config updated", log.Uint64("version", clone.Version))

	return clone.Clone(), nil
}

// PruneTerminal drops cancelled and settled records last touched at or
// before the cutoff, and compacts settled slots out of schedules.
// Terminal records carry no funds, so pruning only trims live-state
// memory; archived copies remain in the store. Returns the number of
// records removed.
func (e *Engine) PruneTerminal(olderThan int64) int {
	e.mu.Lock()
	defer e.mu.Unlock()

	removed := 0
	for id, b := range e.state.bookings {
		if b.Status == core.BookingActive || b.UpdatedAt > olderThan {
			continue
		}
		delete(e.state.bookings, id)
		removed++
	}
	for id, cl := range e.state.campaignLocations {
		if cl.Status == core.BookingActive || cl.UpdatedAt > olderThan {
			continue
		}
		delete(e.state.campaignLocations, id)
		removed++
	}
	// Settled slots hold no funds and their airtime has passed; compact
	// them so schedules do not exhaust their capacity over time.
	for id, schedule := range e.state.schedules {
		clone := schedule.Clone()
		if clone.CompactSettled(olderThan) > 0 {
			e.state.schedules[id] = clone
		}
	}
	if removed > 0 {
		e.log.Info("terminal records pruned", log.Int("removed", removed))
	}
	return removed
}
