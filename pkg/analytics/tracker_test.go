// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package analytics

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/adxyz/boardroom/pkg/ids"
)

func TestTrackerCounters(t *testing.T) {
	require := require.New(t)
	tr := NewTracker()

	campaign := ids.GenerateTestID()
	provider := ids.GenerateTestID()
	location := ids.GenerateTestID()

	tr.TrackBooking(campaign, provider, location, 250_000)
	tr.TrackSettlement(campaign, provider, location, 243_750, 6_250, 0, 5000)

	snap := tr.Snapshot()
	require.Equal(uint64(1), snap["bookings_total"])
	require.Equal(uint64(1), snap["settlements_total"])
	require.Equal(uint64(250_000), snap["escrowed_volume"])
	require.Equal(uint64(243_750), snap["settled_volume"])
	require.Equal(uint64(6_250), snap["fee_volume"])
	require.Equal(uint64(5000), snap["impressions_total"])
}

func TestProviderECPM(t *testing.T) {
	require := require.New(t)
	tr := NewTracker()

	campaign := ids.GenerateTestID()
	provider := ids.GenerateTestID()
	location := ids.GenerateTestID()

	// 40_000 earned over 16_000 impressions: eCPM 2500.
	tr.TrackSettlement(campaign, provider, location, 25_000, 0, 0, 10_000)
	tr.TrackSettlement(campaign, provider, location, 15_000, 0, 0, 6_000)

	report, ok := tr.ProviderReport(provider)
	require.True(ok)
	require.Equal(uint64(2), report.Settlements)
	require.Equal(uint64(16_000), report.TotalImpressions)
	require.True(report.TotalEarned.Equal(decimal.NewFromInt(40_000)))
	require.True(report.ECPM.Equal(decimal.NewFromInt(2_500)))

	_, ok = tr.ProviderReport(ids.GenerateTestID())
	require.False(ok)
}

func TestCampaignRollup(t *testing.T) {
	require := require.New(t)
	tr := NewTracker()

	campaign := ids.GenerateTestID()
	provider := ids.GenerateTestID()
	location := ids.GenerateTestID()

	tr.TrackBooking(campaign, provider, location, 100_000)
	tr.TrackCancel(campaign, provider, location, 100_000)
	tr.TrackBooking(campaign, provider, location, 100_000)
	tr.TrackSettlement(campaign, provider, location, 60_000, 2_000, 38_000, 4_000)

	report, ok := tr.CampaignReport(campaign)
	require.True(ok)
	require.Equal(uint64(2), report.Bookings)
	require.Equal(uint64(1), report.Settlements)
	require.True(report.TotalSpent.Equal(decimal.NewFromInt(62_000)))
	require.True(report.TotalRefunded.Equal(decimal.NewFromInt(138_000)))
}

func TestEventStreamAndSeries(t *testing.T) {
	require := require.New(t)
	tr := NewTracker()

	campaign := ids.GenerateTestID()
	provider := ids.GenerateTestID()
	location := ids.GenerateTestID()

	tr.TrackBooking(campaign, provider, location, 1000)
	tr.TrackSettlement(campaign, provider, location, 900, 100, 0, 50)

	// Both events were emitted on the stream.
	e := <-tr.Events
	require.Equal(EventBooking, e.Type)
	e = <-tr.Events
	require.Equal(EventSettlement, e.Type)
	require.Equal(uint64(900), e.Amount)

	buckets := tr.Series(time.Now().Add(-time.Hour), time.Now().Add(time.Hour))
	require.NotEmpty(buckets)
	var bookings, settlements, impressions uint64
	for _, b := range buckets {
		bookings += b.Bookings
		settlements += b.Settlements
		impressions += b.Impressions
	}
	require.Equal(uint64(1), bookings)
	require.Equal(uint64(1), settlements)
	require.Equal(uint64(50), impressions)
}
