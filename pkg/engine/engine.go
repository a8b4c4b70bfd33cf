// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package engine is the booking, escrow and settlement core. Every
// operation runs as one atomic step over the records it names: all
// validation and arithmetic happens on cloned records, and state is
// only written back when the whole operation has succeeded. A rejected
// operation leaves every record untouched.
package engine

import (
	"sync"
	"time"

	"github.com/adxyz/boardroom/pkg/ids"
	"github.com/adxyz/boardroom/pkg/ledger"
	"github.com/adxyz/boardroom/pkg/log"
	"github.com/adxyz/boardroom/pkg/metric"
	"github.com/adxyz/boardroom/pkg/oracle"
	"github.com/adxyz/boardroom/pkg/store"
)

// DeviceReader supplies read-only oracle device records. Counters must
// be monotonic; the settlement engine trusts them.
type DeviceReader interface {
	GetDevice(authority ids.ID, index uint64) (oracle.Device, error)
}

// Engine owns the live marketplace state
type Engine struct {
	mu      sync.Mutex
	state   *state
	devices DeviceReader
	archive *store.Store    // optional, terminal-record archival
	metrics *metric.Metrics // optional
	log     log.Logger
	now     func() int64
}

// New creates an engine over the given device reader. Archive and
// metrics may be nil.
func New(devices DeviceReader, archive *store.Store, metrics *metric.Metrics, logger log.Logger) *Engine {
	return &Engine{
		state:   newState(),
		devices: devices,
		archive: archive,
		metrics: metrics,
		log:     logger,
		now:     func() int64 { return time.Now().Unix() },
	}
}

// SetClock overrides the engine clock, for tests.
func (e *Engine) SetClock(now func() int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.now = now
}

// Credit deposits external funds into an identity's wallet. This is the
// on-ramp; everything downstream moves value between engine-held
// accounts.
func (e *Engine) Credit(authority ids.ID, amount uint64) error {
	if amount == 0 {
		return ledger.ErrUnderflow
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	wallet := e.state.wallet(authority)
	balance, err := ledger.Add(wallet.Balance, amount)
	if err != nil {
		return err
	}
	wallet.Balance = balance
	return nil
}

// WalletBalance returns the free balance held by an identity's wallet.
func (e *Engine) WalletBalance(authority ids.ID) uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.wallet(authority).Balance
}
