// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package tests

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/adxyz/boardroom/pkg/analytics"
	"github.com/adxyz/boardroom/pkg/core"
	"github.com/adxyz/boardroom/pkg/engine"
	"github.com/adxyz/boardroom/pkg/ids"
	"github.com/adxyz/boardroom/pkg/log"
	"github.com/adxyz/boardroom/pkg/oracle"
	"github.com/adxyz/boardroom/pkg/store"
)

// TestWholeLocationFlow exercises the flat-price booking variant: a
// campaign takes a location outright, the oracle reports actual
// delivery, and the settlement splits escrow without a marketplace fee.
func TestWholeLocationFlow(t *testing.T) {
	require := require.New(t)
	logger := log.NoOp()

	devices := oracle.NewRegistry(logger)
	archive := store.NewMemory()
	eng := engine.New(devices, archive, nil, logger)
	tracker := analytics.NewTracker()

	now := int64(1000)
	eng.SetClock(func() int64 { return now })

	admin := ids.GenerateTestID()
	treasury := ids.GenerateTestID()
	advertiser := ids.GenerateTestID()
	provider := ids.GenerateTestID()
	oracleAuth := ids.GenerateTestID()

	_, err := eng.InitializeConfig(admin, treasury, 250)
	require.NoError(err)
	_, err = eng.CreateAdvertiser(advertiser)
	require.NoError(err)
	_, err = eng.CreateProvider(provider)
	require.NoError(err)
	require.NoError(eng.Credit(advertiser, 10_000_000))

	_, err = eng.RegisterLocation(provider, "harbor bridge south", "", 500_000, oracleAuth)
	require.NoError(err)
	_, err = eng.CreateCampaign(advertiser, "winter brand", "", "", 2_000_000)
	require.NoError(err)

	// Taking the whole location escrows its flat price and flips it to
	// booked, which blocks a second taker.
	cl, err := eng.AddCampaignLocation(advertiser, 0, provider, 0)
	require.NoError(err)
	require.Equal(uint64(500_000), cl.Price)

	location, err := eng.GetLocation(provider, 0)
	require.NoError(err)
	require.Equal(core.LocationBooked, location.Status.Kind)
	require.Equal(cl.Campaign, location.Status.BookedBy)

	_, err = eng.AddCampaignLocation(advertiser, 0, provider, 0)
	require.ErrorIs(err, core.ErrLocationAlreadyBooked)

	// Only the location's oracle settles, and never above the escrow.
	_, err = eng.SettleCampaignLocation(ids.GenerateTestID(), advertiser, 0, provider, 0, 300_000)
	require.ErrorIs(err, core.ErrInvalidOracleAuthority)
	_, err = eng.SettleCampaignLocation(oracleAuth, advertiser, 0, provider, 0, 600_000)
	require.ErrorIs(err, core.ErrSettlementTooHigh)

	now = 2000
	settled, err := eng.SettleCampaignLocation(oracleAuth, advertiser, 0, provider, 0, 300_000)
	require.NoError(err)
	require.Equal(core.BookingSettled, settled.Status)
	require.Equal(uint64(300_000), settled.SettledAmount)

	tracker.TrackSettlement(settled.Campaign, settled.Provider, settled.Location,
		settled.SettledAmount, 0, settled.Price-settled.SettledAmount, 0)

	// No fee on the flat-price path: provider gets the full amount and
	// the remainder returns to the campaign budget.
	require.Equal(uint64(300_000), eng.WalletBalance(provider))
	require.Zero(eng.WalletBalance(treasury))

	campaign, err := eng.GetCampaign(advertiser, 0)
	require.NoError(err)
	require.Equal(uint64(1_700_000), campaign.AvailableBudget)
	require.Zero(campaign.ReservedBudget)

	// The location is free again for the next campaign.
	location, err = eng.GetLocation(provider, 0)
	require.NoError(err)
	require.Equal(core.LocationAvailable, location.Status.Kind)

	report, ok := tracker.ProviderReport(settled.Provider)
	require.True(ok)
	require.Equal(uint64(1), report.Settlements)

	// Archive holds the terminal record after pruning.
	now = 100_000
	require.Equal(1, eng.PruneTerminal(now))
	archived, err := archive.GetCampaignLocation(settled.ID)
	require.NoError(err)
	require.Equal(core.BookingSettled, archived.Status)

	_, err = eng.CloseCampaign(advertiser, 0)
	require.NoError(err)
	total := eng.WalletBalance(advertiser) + eng.WalletBalance(provider) + eng.WalletBalance(treasury)
	require.Equal(uint64(10_000_000), total)
}
