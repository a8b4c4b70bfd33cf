// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package ledger provides the checked balance arithmetic every fund
// movement in the engine is built on. Amounts are unsigned base units;
// arithmetic never wraps silently and any account that stores data must
// retain a minimum reserve proportional to its footprint.
package ledger

import (
	"errors"
	"math"
)

var (
	ErrOverflow            = errors.New("arithmetic overflow")
	ErrUnderflow           = errors.New("arithmetic underflow")
	ErrDivideByZero        = errors.New("division by zero")
	ErrInsufficientReserve = errors.New("insufficient reserve balance")
)

// Reserve floor policy: an account must retain a base amount plus a
// per-byte charge for the record data it carries. Withdrawals that would
// breach the floor are rejected at the source.
const (
	ReserveBase    uint64 = 4096
	ReservePerByte uint64 = 8
)

// Add returns a+b, failing on wraparound.
func Add(a, b uint64) (uint64, error) {
	if a > math.MaxUint64-b {
		return 0, ErrOverflow
	}
	return a + b, nil
}

// Sub returns a-b, failing on wraparound.
func Sub(a, b uint64) (uint64, error) {
	if b > a {
		return 0, ErrUnderflow
	}
	return a - b, nil
}

// Mul returns a*b, failing on wraparound.
func Mul(a, b uint64) (uint64, error) {
	if a != 0 && b > math.MaxUint64/a {
		return 0, ErrOverflow
	}
	return a * b, nil
}

// Div returns a/b rounded toward zero.
func Div(a, b uint64) (uint64, error) {
	if b == 0 {
		return 0, ErrDivideByZero
	}
	return a / b, nil
}

// Account is the fund-holding side of a record. Balance counts base
// units held by the record itself; DataSize is the encoded footprint of
// the record's data, which sets the reserve floor.
type Account struct {
	Balance  uint64 `json:"balance"`
	DataSize int    `json:"data_size"`
}

// MinReserve returns the minimum balance the account must retain.
func (a *Account) MinReserve() uint64 {
	return ReserveBase + ReservePerByte*uint64(a.DataSize)
}

// EnsureReserveAfterWithdraw fails if withdrawing amount would leave the
// account below its reserve floor.
func (a *Account) EnsureReserveAfterWithdraw(amount uint64) error {
	remaining, err := Sub(a.Balance, amount)
	if err != nil {
		return err
	}
	if remaining < a.MinReserve() {
		return ErrInsufficientReserve
	}
	return nil
}

// Move transfers amount from one account to the other. Both sides use
// checked arithmetic; a failure on either side leaves both unchanged.
func Move(from, to *Account, amount uint64) error {
	newFrom, err := Sub(from.Balance, amount)
	if err != nil {
		return err
	}
	newTo, err := Add(to.Balance, amount)
	if err != nil {
		return err
	}
	from.Balance = newFrom
	to.Balance = newTo
	return nil
}
