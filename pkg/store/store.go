// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package store persists archived marketplace records. Terminal
// bookings are moved here out of live engine state; settlement receipts
// are appended for audit.
package store

import (
	"encoding/json"
	"fmt"

	"github.com/luxfi/database"
	"github.com/luxfi/database/badgerdb"
	"github.com/luxfi/database/memdb"

	"github.com/adxyz/boardroom/pkg/core"
	"github.com/adxyz/boardroom/pkg/ids"
)

var (
	bookingPrefix          = []byte("booking/")
	campaignLocationPrefix = []byte("campaign_location/")
	receiptPrefix          = []byte("receipt/")
)

// SettlementReceipt is the audit record written on every settlement
type SettlementReceipt struct {
	Booking       ids.ID `json:"booking"`
	Campaign      ids.ID `json:"campaign"`
	Location      ids.ID `json:"location"`
	Impressions   uint64 `json:"impressions"`
	SettledAmount uint64 `json:"settled_amount"`
	FeeAmount     uint64 `json:"fee_amount"`
	RefundAmount  uint64 `json:"refund_amount"`
	SettledAt     int64  `json:"settled_at"`
}

// Store wraps luxfi's database interface
type Store struct {
	db database.Database
}

// New creates a new store instance using luxfi/database
func New(dbType string, path string) (*Store, error) {
	var db database.Database
	var err error

	switch dbType {
	case "memory", "memdb":
		db = memdb.New()
	default:
		db, err = badgerdb.New(path, nil, "", nil)
		if err != nil {
			return nil, err
		}
	}

	return &Store{db: db}, nil
}

// NewMemory creates an in-memory store, for tests and dev mode
func NewMemory() *Store {
	return &Store{db: memdb.New()}
}

// ArchiveBooking writes a terminal booking record.
func (s *Store) ArchiveBooking(b *core.CampaignBooking) error {
	data, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("encode booking: %w", err)
	}
	return s.db.Put(append(bookingPrefix, b.ID.Bytes()...), data)
}

// GetBooking reads an archived booking by ID.
func (s *Store) GetBooking(id ids.ID) (*core.CampaignBooking, error) {
	data, err := s.db.Get(append(bookingPrefix, id.Bytes()...))
	if err != nil {
		return nil, err
	}
	var b core.CampaignBooking
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("decode booking: %w", err)
	}
	return &b, nil
}

// ListBookings iterates every archived booking.
func (s *Store) ListBookings() ([]*core.CampaignBooking, error) {
	iter := s.db.NewIteratorWithPrefix(bookingPrefix)
	defer iter.Release()

	var out []*core.CampaignBooking
	for iter.Next() {
		var b core.CampaignBooking
		if err := json.Unmarshal(iter.Value(), &b); err != nil {
			return nil, fmt.Errorf("decode booking: %w", err)
		}
		out = append(out, &b)
	}
	return out, iter.Error()
}

// ArchiveCampaignLocation writes a terminal whole-location booking.
func (s *Store) ArchiveCampaignLocation(cl *core.CampaignLocation) error {
	data, err := json.Marshal(cl)
	if err != nil {
		return fmt.Errorf("encode campaign location: %w", err)
	}
	return s.db.Put(append(campaignLocationPrefix, cl.ID.Bytes()...), data)
}

// GetCampaignLocation reads an archived whole-location booking by ID.
func (s *Store) GetCampaignLocation(id ids.ID) (*core.CampaignLocation, error) {
	data, err := s.db.Get(append(campaignLocationPrefix, id.Bytes()...))
	if err != nil {
		return nil, err
	}
	var cl core.CampaignLocation
	if err := json.Unmarshal(data, &cl); err != nil {
		return nil, fmt.Errorf("decode campaign location: %w", err)
	}
	return &cl, nil
}

// PutReceipt appends a settlement receipt.
func (s *Store) PutReceipt(r *SettlementReceipt) error {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode receipt: %w", err)
	}
	return s.db.Put(append(receiptPrefix, r.Booking.Bytes()...), data)
}

// GetReceipt reads the settlement receipt for a booking.
func (s *Store) GetReceipt(booking ids.ID) (*SettlementReceipt, error) {
	data, err := s.db.Get(append(receiptPrefix, booking.Bytes()...))
	if err != nil {
		return nil, err
	}
	var r SettlementReceipt
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("decode receipt: %w", err)
	}
	return &r, nil
}

// ListReceipts iterates every settlement receipt.
func (s *Store) ListReceipts() ([]*SettlementReceipt, error) {
	iter := s.db.NewIteratorWithPrefix(receiptPrefix)
	defer iter.Release()

	var out []*SettlementReceipt
	for iter.Next() {
		var r SettlementReceipt
		if err := json.Unmarshal(iter.Value(), &r); err != nil {
			return nil, fmt.Errorf("decode receipt: %w", err)
		}
		out = append(out, &r)
	}
	return out, iter.Error()
}

// Has checks whether a raw key exists
func (s *Store) Has(key []byte) (bool, error) {
	return s.db.Has(key)
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}
