// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package engine

import (
	"github.com/adxyz/boardroom/pkg/core"
	"github.com/adxyz/boardroom/pkg/ids"
	"github.com/adxyz/boardroom/pkg/oracle"
)

// VerifyDevice checks that the device record for (authority, index) can
// be trusted before its counter is read: the stored record's identity
// must re-derive to the expected ID, the record must be active, and its
// recorded authority and index must match the claimed ones. Returns a
// read-only copy.
func VerifyDevice(reader DeviceReader, authority ids.ID, index uint64) (oracle.Device, error) {
	device, err := reader.GetDevice(authority, index)
	if err != nil {
		return oracle.Device{}, core.ErrInvalidOracleDevice
	}
	if device.ID != oracle.DeviceID(authority, index) {
		return oracle.Device{}, core.ErrInvalidOracleDevice
	}
	if device.Status != oracle.DeviceActive {
		return oracle.Device{}, core.ErrOracleDeviceInactive
	}
	if device.Authority != authority || device.Index != index {
		return oracle.Device{}, core.ErrInvalidOracleDevice
	}
	return device, nil
}

func (e *Engine) verifyDevice(authority ids.ID, index uint64) (oracle.Device, error) {
	return VerifyDevice(e.devices, authority, index)
}
