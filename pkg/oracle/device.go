// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package oracle is the measurement-device registry. Devices are owned
// by independent operators, bound to one display location and one
// oracle authority, and accumulate monotonic impression/view counters
// the settlement engine trusts.
package oracle

import (
	"errors"
	"sync"
	"time"

	"github.com/adxyz/boardroom/pkg/ids"
	"github.com/adxyz/boardroom/pkg/ledger"
	"github.com/adxyz/boardroom/pkg/log"
)

var (
	ErrInvalidAuthority       = errors.New("invalid device authority")
	ErrInvalidOracleAuthority = errors.New("invalid oracle authority")
	ErrDeviceInactive         = errors.New("device inactive")
	ErrDeviceNotFound         = errors.New("device not found")
	ErrInvalidParameters      = errors.New("invalid parameters")
)

// DeviceStatus is the device lifecycle state
type DeviceStatus uint8

const (
	DeviceActive DeviceStatus = iota
	DeviceInactive
)

func (s DeviceStatus) String() string {
	switch s {
	case DeviceActive:
		return "active"
	case DeviceInactive:
		return "inactive"
	}
	return "unknown"
}

// DeviceMetrics are the device's lifetime counters. Counters only ever
// grow; settlement depends on that.
type DeviceMetrics struct {
	TotalViews       uint64 `json:"total_views"`
	TotalImpressions uint64 `json:"total_impressions"`
	LastReportedAt   int64  `json:"last_reported_at"`
}

// Device is one registered measurement device
type Device struct {
	ID              ids.ID        `json:"id"`
	Authority       ids.ID        `json:"authority"`
	Index           uint64        `json:"index"`
	Location        ids.ID        `json:"location"`
	OracleAuthority ids.ID        `json:"oracle_authority"`
	Status          DeviceStatus  `json:"status"`
	Metrics         DeviceMetrics `json:"metrics"`
}

// DeviceID is the derived identity for (authority, index)
func DeviceID(authority ids.ID, index uint64) ids.ID {
	return ids.Derive("device", authority, index)
}

// operatorRecord tracks per-operator device counters
type operatorRecord struct {
	authority    ids.ID
	lastDeviceID uint64
	deviceCount  uint64
}

// Registry holds every registered device, keyed by derived ID
type Registry struct {
	mu        sync.RWMutex
	devices   map[ids.ID]*Device
	operators map[ids.ID]*operatorRecord
	log       log.Logger
	now       func() int64
}

// NewRegistry creates an empty device registry
func NewRegistry(logger log.Logger) *Registry {
	return &Registry{
		devices:   make(map[ids.ID]*Device),
		operators: make(map[ids.ID]*operatorRecord),
		log:       logger,
		now:       func() int64 { return time.Now().Unix() },
	}
}

// SetClock overrides the registry clock, for tests.
func (r *Registry) SetClock(now func() int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.now = now
}

// RegisterDevice creates a device bound to a location and an oracle
// authority. The device index comes from the operator's counter.
func (r *Registry) RegisterDevice(authority, location, oracleAuthority ids.ID) (Device, error) {
	if authority.IsEmpty() || location.IsEmpty() || oracleAuthority.IsEmpty() {
		return Device{}, ErrInvalidParameters
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	op, ok := r.operators[authority]
	if !ok {
		op = &operatorRecord{authority: authority}
		r.operators[authority] = op
	}

	device := &Device{
		ID:              DeviceID(authority, op.lastDeviceID),
		Authority:       authority,
		Index:           op.lastDeviceID,
		Location:        location,
		OracleAuthority: oracleAuthority,
		Status:          DeviceActive,
	}
	r.devices[device.ID] = device

	nextID, err := ledger.Add(op.lastDeviceID, 1)
	if err != nil {
		delete(r.devices, device.ID)
		return Device{}, err
	}
	count, err := ledger.Add(op.deviceCount, 1)
	if err != nil {
		delete(r.devices, device.ID)
		return Device{}, err
	}
	op.lastDeviceID = nextID
	op.deviceCount = count

	r.log.Info("device registered",
		log.String("device", device.ID.String()),
		log.Uint64("index", device.Index))

	return *device, nil
}

// GetDevice returns a read-only copy of the device record.
func (r *Registry) GetDevice(authority ids.ID, index uint64) (Device, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	device, ok := r.devices[DeviceID(authority, index)]
	if !ok {
		return Device{}, ErrDeviceNotFound
	}
	return *device, nil
}

// ReportMetrics adds view/impression deltas to the device counters.
// Only the device operator may report, the bound oracle authority must
// match, and the device must be active.
func (r *Registry) ReportMetrics(authority, oracleAuthority ids.ID, index uint64, views, impressions uint64) (DeviceMetrics, error) {
	if views == 0 && impressions == 0 {
		return DeviceMetrics{}, ErrInvalidParameters
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	device, ok := r.devices[DeviceID(authority, index)]
	if !ok {
		return DeviceMetrics{}, ErrDeviceNotFound
	}
	if device.Status != DeviceActive {
		return DeviceMetrics{}, ErrDeviceInactive
	}
	if device.Authority != authority {
		return DeviceMetrics{}, ErrInvalidAuthority
	}
	if device.OracleAuthority != oracleAuthority {
		return DeviceMetrics{}, ErrInvalidOracleAuthority
	}

	totalViews, err := ledger.Add(device.Metrics.TotalViews, views)
	if err != nil {
		return DeviceMetrics{}, err
	}
	totalImprs, err := ledger.Add(device.Metrics.TotalImpressions, impressions)
	if err != nil {
		return DeviceMetrics{}, err
	}

	device.Metrics.TotalViews = totalViews
	device.Metrics.TotalImpressions = totalImprs
	device.Metrics.LastReportedAt = r.now()

	r.log.Debug("device metrics reported",
		log.String("device", device.ID.String()),
		log.Uint64("impressions", impressions),
		log.Uint64("views", views))

	return device.Metrics, nil
}

// SetDeviceStatus flips the device between Active and Inactive.
func (r *Registry) SetDeviceStatus(authority ids.ID, index uint64, status DeviceStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	device, ok := r.devices[DeviceID(authority, index)]
	if !ok {
		return ErrDeviceNotFound
	}
	device.Status = status
	return nil
}

// UpdateDeviceLocation rebinds the device to another location.
func (r *Registry) UpdateDeviceLocation(authority ids.ID, index uint64, location ids.ID) error {
	if location.IsEmpty() {
		return ErrInvalidParameters
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	device, ok := r.devices[DeviceID(authority, index)]
	if !ok {
		return ErrDeviceNotFound
	}
	device.Location = location
	return nil
}

// UpdateDeviceOracle rebinds the device to another oracle authority.
func (r *Registry) UpdateDeviceOracle(authority ids.ID, index uint64, oracleAuthority ids.ID) error {
	if oracleAuthority.IsEmpty() {
		return ErrInvalidParameters
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	device, ok := r.devices[DeviceID(authority, index)]
	if !ok {
		return ErrDeviceNotFound
	}
	device.OracleAuthority = oracleAuthority
	return nil
}
