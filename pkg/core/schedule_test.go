// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package core

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/adxyz/boardroom/pkg/ids"
)

func newTestSchedule(t *testing.T, maxSlots uint32) *LocationSchedule {
	t.Helper()
	s, err := NewSchedule(ids.GenerateTestID(), ids.GenerateTestID(), maxSlots)
	require.NoError(t, err)
	return s
}

func TestNewScheduleBounds(t *testing.T) {
	require := require.New(t)

	_, err := NewSchedule(ids.GenerateTestID(), ids.GenerateTestID(), 0)
	require.ErrorIs(err, ErrInvalidParameters)

	_, err = NewSchedule(ids.GenerateTestID(), ids.GenerateTestID(), MaxSlotsPerSchedule+1)
	require.ErrorIs(err, ErrInvalidParameters)

	s, err := NewSchedule(ids.GenerateTestID(), ids.GenerateTestID(), MaxSlotsPerSchedule)
	require.NoError(err)
	require.Equal(MaxSlotsPerSchedule, s.MaxSlots)
}

func TestAddSlotValidation(t *testing.T) {
	require := require.New(t)
	s := newTestSchedule(t, 10)

	require.ErrorIs(s.AddSlot(100, 100, 50), ErrInvalidTimeRange)
	require.ErrorIs(s.AddSlot(200, 100, 50), ErrInvalidTimeRange)
	require.ErrorIs(s.AddSlot(100, 200, 0), ErrInvalidParameters)

	require.NoError(s.AddSlot(100, 200, 50))
	require.Equal(uint32(1), s.SlotCount)
	require.Equal(SlotAvailable, s.Slots[0].Status)
}

func TestAddSlotOverlap(t *testing.T) {
	require := require.New(t)
	s := newTestSchedule(t, 10)

	require.NoError(s.AddSlot(100, 200, 50))

	// Any intersection with a live slot is rejected.
	require.ErrorIs(s.AddSlot(150, 250, 50), ErrSlotOverlap)
	require.ErrorIs(s.AddSlot(50, 150, 50), ErrSlotOverlap)
	require.ErrorIs(s.AddSlot(100, 200, 50), ErrSlotOverlap)
	require.ErrorIs(s.AddSlot(120, 180, 50), ErrSlotOverlap)

	// Touching endpoints do not intersect, the intervals are half-open.
	require.NoError(s.AddSlot(200, 300, 50))
	require.NoError(s.AddSlot(50, 100, 50))
	require.False(s.HasLiveOverlap())
}

func TestAddSlotOverCancelledRange(t *testing.T) {
	require := require.New(t)
	s := newTestSchedule(t, 10)

	require.NoError(s.AddSlot(100, 200, 50))
	s.Slots[0].Status = SlotCancelled

	// A dead slot no longer occupies its range.
	require.NoError(s.AddSlot(100, 200, 75))
}

func TestAddSlotCapacity(t *testing.T) {
	require := require.New(t)
	s := newTestSchedule(t, 2)

	require.NoError(s.AddSlot(100, 200, 50))
	require.NoError(s.AddSlot(200, 300, 50))
	require.ErrorIs(s.AddSlot(300, 400, 50), ErrScheduleFull)
}

func TestMatchRange(t *testing.T) {
	require := require.New(t)
	s := newTestSchedule(t, 10)

	require.NoError(s.AddSlot(100, 200, 50))
	require.NoError(s.AddSlot(200, 300, 60))
	require.NoError(s.AddSlot(300, 400, 70))

	// Only fully contained slots match.
	matched, total, err := s.MatchRange(100, 300, 0)
	require.NoError(err)
	require.Equal([]int{0, 1}, matched)
	require.Equal(uint64(110), total)

	// A partially covered slot is excluded, not an error.
	matched, total, err = s.MatchRange(150, 400, 0)
	require.NoError(err)
	require.Equal([]int{1, 2}, matched)
	require.Equal(uint64(130), total)

	// No contained slot at all.
	_, _, err = s.MatchRange(401, 500, 0)
	require.ErrorIs(err, ErrSlotNotFound)
}

func TestMatchRangeRejectsPastSlots(t *testing.T) {
	require := require.New(t)
	s := newTestSchedule(t, 10)

	require.NoError(s.AddSlot(100, 200, 50))

	// A slot starting at or before now cannot be booked.
	_, _, err := s.MatchRange(50, 250, 100)
	require.ErrorIs(err, ErrSlotInPast)

	_, _, err = s.MatchRange(50, 250, 150)
	require.ErrorIs(err, ErrSlotInPast)

	matched, _, err := s.MatchRange(50, 250, 99)
	require.NoError(err)
	require.Len(matched, 1)
}

func TestMatchRangeRejectsUnavailable(t *testing.T) {
	require := require.New(t)
	s := newTestSchedule(t, 10)

	require.NoError(s.AddSlot(100, 200, 50))
	s.MarkBooked([]int{0}, ids.GenerateTestID())

	_, _, err := s.MatchRange(100, 200, 0)
	require.ErrorIs(err, ErrSlotUnavailable)
}

func TestBookingSlotLifecycle(t *testing.T) {
	require := require.New(t)
	s := newTestSchedule(t, 10)
	booking := ids.GenerateTestID()

	require.NoError(s.AddSlot(100, 200, 50))
	require.NoError(s.AddSlot(200, 300, 60))
	require.NoError(s.AddSlot(300, 400, 70))

	s.MarkBooked([]int{0, 1}, booking)
	require.Equal(SlotBooked, s.Slots[0].Status)
	require.Equal(booking, s.Slots[0].Booking)
	require.Equal(SlotAvailable, s.Slots[2].Status)

	s.ReleaseBooking(booking)
	require.Equal(SlotAvailable, s.Slots[0].Status)
	require.Equal(ids.Empty, s.Slots[0].Booking)
	require.Equal(SlotAvailable, s.Slots[1].Status)

	s.MarkBooked([]int{0, 1}, booking)
	s.SettleBooking(booking)
	require.Equal(SlotSettled, s.Slots[0].Status)
	require.Equal(SlotSettled, s.Slots[1].Status)

	// Settled slots free their range for new inventory.
	require.NoError(s.AddSlot(100, 200, 80))
}
