// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package oracle

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/adxyz/boardroom/pkg/ids"
	"github.com/adxyz/boardroom/pkg/log"
)

func TestRegisterDevice(t *testing.T) {
	require := require.New(t)
	r := NewRegistry(log.NoOp())

	operator := ids.GenerateTestID()
	location := ids.GenerateTestID()
	oracleAuth := ids.GenerateTestID()

	device, err := r.RegisterDevice(operator, location, oracleAuth)
	require.NoError(err)
	require.Equal(DeviceID(operator, 0), device.ID)
	require.Equal(uint64(0), device.Index)
	require.Equal(DeviceActive, device.Status)
	require.Equal(location, device.Location)

	// Indexes are per-operator and monotonic.
	second, err := r.RegisterDevice(operator, location, oracleAuth)
	require.NoError(err)
	require.Equal(uint64(1), second.Index)
	require.Equal(DeviceID(operator, 1), second.ID)

	other, err := r.RegisterDevice(ids.GenerateTestID(), location, oracleAuth)
	require.NoError(err)
	require.Equal(uint64(0), other.Index)

	_, err = r.RegisterDevice(ids.Empty, location, oracleAuth)
	require.ErrorIs(err, ErrInvalidParameters)
}

func TestReportMetrics(t *testing.T) {
	require := require.New(t)
	r := NewRegistry(log.NoOp())
	r.SetClock(func() int64 { return 5000 })

	operator := ids.GenerateTestID()
	oracleAuth := ids.GenerateTestID()
	_, err := r.RegisterDevice(operator, ids.GenerateTestID(), oracleAuth)
	require.NoError(err)

	m, err := r.ReportMetrics(operator, oracleAuth, 0, 10, 100)
	require.NoError(err)
	require.Equal(uint64(100), m.TotalImpressions)
	require.Equal(uint64(10), m.TotalViews)
	require.Equal(int64(5000), m.LastReportedAt)

	// Reports accumulate, counters never reset.
	m, err = r.ReportMetrics(operator, oracleAuth, 0, 5, 50)
	require.NoError(err)
	require.Equal(uint64(150), m.TotalImpressions)
	require.Equal(uint64(15), m.TotalViews)

	// Empty reports are rejected.
	_, err = r.ReportMetrics(operator, oracleAuth, 0, 0, 0)
	require.ErrorIs(err, ErrInvalidParameters)

	// Wrong oracle authority.
	_, err = r.ReportMetrics(operator, ids.GenerateTestID(), 0, 1, 1)
	require.ErrorIs(err, ErrInvalidOracleAuthority)

	// Unknown device.
	_, err = r.ReportMetrics(operator, oracleAuth, 7, 1, 1)
	require.ErrorIs(err, ErrDeviceNotFound)
}

func TestReportMetricsInactiveDevice(t *testing.T) {
	require := require.New(t)
	r := NewRegistry(log.NoOp())

	operator := ids.GenerateTestID()
	oracleAuth := ids.GenerateTestID()
	_, err := r.RegisterDevice(operator, ids.GenerateTestID(), oracleAuth)
	require.NoError(err)

	require.NoError(r.SetDeviceStatus(operator, 0, DeviceInactive))

	_, err = r.ReportMetrics(operator, oracleAuth, 0, 1, 1)
	require.ErrorIs(err, ErrDeviceInactive)

	// Reactivation restores reporting.
	require.NoError(r.SetDeviceStatus(operator, 0, DeviceActive))
	_, err = r.ReportMetrics(operator, oracleAuth, 0, 1, 1)
	require.NoError(err)
}

func TestDeviceRebinding(t *testing.T) {
	require := require.New(t)
	r := NewRegistry(log.NoOp())

	operator := ids.GenerateTestID()
	_, err := r.RegisterDevice(operator, ids.GenerateTestID(), ids.GenerateTestID())
	require.NoError(err)

	newLocation := ids.GenerateTestID()
	require.NoError(r.UpdateDeviceLocation(operator, 0, newLocation))

	newOracle := ids.GenerateTestID()
	require.NoError(r.UpdateDeviceOracle(operator, 0, newOracle))

	device, err := r.GetDevice(operator, 0)
	require.NoError(err)
	require.Equal(newLocation, device.Location)
	require.Equal(newOracle, device.OracleAuthority)

	require.ErrorIs(r.UpdateDeviceLocation(operator, 0, ids.Empty), ErrInvalidParameters)

	// GetDevice returns a copy; mutating it never touches the record.
	device.Status = DeviceInactive
	fresh, err := r.GetDevice(operator, 0)
	require.NoError(err)
	require.Equal(DeviceActive, fresh.Status)
}
