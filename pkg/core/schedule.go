// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package core

import (
	"github.com/adxyz/boardroom/pkg/ids"
	"github.com/adxyz/boardroom/pkg/ledger"
)

// NewSchedule allocates an empty slot schedule for a location. Capacity
// is bounded so the linear overlap scan stays cheap.
func NewSchedule(location, authority ids.ID, maxSlots uint32) (*LocationSchedule, error) {
	if maxSlots == 0 || maxSlots > MaxSlotsPerSchedule {
		return nil, ErrInvalidParameters
	}
	return &LocationSchedule{
		ID:        ScheduleID(location),
		Location:  location,
		Authority: authority,
		MaxSlots:  maxSlots,
		SlotCount: 0,
		Slots:     make([]LocationSlot, 0, maxSlots),
	}, nil
}

// overlaps reports whether two half-open intervals intersect.
func overlaps(aStart, aEnd, bStart, bEnd int64) bool {
	return aStart < bEnd && aEnd > bStart
}

// AddSlot appends a new Available slot. The range must be valid, priced,
// within capacity, and must not overlap any live (Available or Booked)
// slot. O(n) per insertion, acceptable under the capacity bound.
func (s *LocationSchedule) AddSlot(startTS, endTS int64, price uint64) error {
	if startTS >= endTS {
		return ErrInvalidTimeRange
	}
	if price == 0 {
		return ErrInvalidParameters
	}
	if s.SlotCount >= s.MaxSlots {
		return ErrScheduleFull
	}

	for i := range s.Slots {
		if !s.Slots[i].Status.Live() {
			continue
		}
		if overlaps(startTS, endTS, s.Slots[i].StartTS, s.Slots[i].EndTS) {
			return ErrSlotOverlap
		}
	}

	s.Slots = append(s.Slots, LocationSlot{
		StartTS: startTS,
		EndTS:   endTS,
		Price:   price,
		Status:  SlotAvailable,
		Booking: ids.Empty,
	})

	count, err := ledgerAdd32(s.SlotCount, 1)
	if err != nil {
		return err
	}
	s.SlotCount = count
	return nil
}

// MatchRange selects every slot fully contained in [rangeStart,
// rangeEnd] and validates it is bookable: strictly in the future and
// currently Available. Returns the matched indexes and the summed
// price. Zero matches is ErrSlotNotFound.
func (s *LocationSchedule) MatchRange(rangeStart, rangeEnd, now int64) ([]int, uint64, error) {
	var (
		matched    []int
		totalPrice uint64
	)
	for i := range s.Slots {
		slot := &s.Slots[i]
		if slot.StartTS < rangeStart || slot.EndTS > rangeEnd {
			continue
		}
		if slot.StartTS <= now {
			return nil, 0, ErrSlotInPast
		}
		if slot.Status != SlotAvailable {
			return nil, 0, ErrSlotUnavailable
		}
		total, err := ledger.Add(totalPrice, slot.Price)
		if err != nil {
			return nil, 0, err
		}
		totalPrice = total
		matched = append(matched, i)
	}
	if len(matched) == 0 {
		return nil, 0, ErrSlotNotFound
	}
	return matched, totalPrice, nil
}

// MarkBooked flips the given slots to Booked with a back-reference to
// the holding booking.
func (s *LocationSchedule) MarkBooked(indexes []int, booking ids.ID) {
	for _, i := range indexes {
		s.Slots[i].Status = SlotBooked
		s.Slots[i].Booking = booking
	}
}

// ReleaseBooking reverts every slot held by the booking to Available.
func (s *LocationSchedule) ReleaseBooking(booking ids.ID) {
	for i := range s.Slots {
		if s.Slots[i].Booking == booking {
			s.Slots[i].Status = SlotAvailable
			s.Slots[i].Booking = ids.Empty
		}
	}
}

// SettleBooking flips every slot held by the booking to Settled.
func (s *LocationSchedule) SettleBooking(booking ids.ID) {
	for i := range s.Slots {
		if s.Slots[i].Booking == booking {
			s.Slots[i].Status = SlotSettled
		}
	}
}

// CompactSettled removes settled slots that ended at or before the
// cutoff, freeing their capacity. Returns the number of slots dropped.
func (s *LocationSchedule) CompactSettled(before int64) int {
	kept := s.Slots[:0]
	dropped := 0
	for i := range s.Slots {
		if s.Slots[i].Status == SlotSettled && s.Slots[i].EndTS <= before {
			dropped++
			continue
		}
		kept = append(kept, s.Slots[i])
	}
	s.Slots = kept
	s.SlotCount -= uint32(dropped)
	return dropped
}

// HasLiveOverlap reports whether any two live slots overlap; used by
// tests as the schedule's standing invariant.
func (s *LocationSchedule) HasLiveOverlap() bool {
	for i := range s.Slots {
		if !s.Slots[i].Status.Live() {
			continue
		}
		for j := i + 1; j < len(s.Slots); j++ {
			if !s.Slots[j].Status.Live() {
				continue
			}
			if overlaps(s.Slots[i].StartTS, s.Slots[i].EndTS, s.Slots[j].StartTS, s.Slots[j].EndTS) {
				return true
			}
		}
	}
	return false
}

func ledgerAdd32(a, b uint32) (uint32, error) {
	sum, err := ledger.Add(uint64(a), uint64(b))
	if err != nil {
		return 0, err
	}
	if sum > uint64(^uint32(0)) {
		return 0, ledger.ErrOverflow
	}
	return uint32(sum), nil
}
