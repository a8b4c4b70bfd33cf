// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ledger

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCheckedArithmetic(t *testing.T) {
	require := require.New(t)

	sum, err := Add(1, 2)
	require.NoError(err)
	require.Equal(uint64(3), sum)

	_, err = Add(math.MaxUint64, 1)
	require.ErrorIs(err, ErrOverflow)

	diff, err := Sub(10, 4)
	require.NoError(err)
	require.Equal(uint64(6), diff)

	_, err = Sub(4, 10)
	require.ErrorIs(err, ErrUnderflow)

	product, err := Mul(1000, 1000)
	require.NoError(err)
	require.Equal(uint64(1_000_000), product)

	_, err = Mul(math.MaxUint64, 2)
	require.ErrorIs(err, ErrOverflow)

	quot, err := Div(2500, 1000)
	require.NoError(err)
	require.Equal(uint64(2), quot)

	_, err = Div(1, 0)
	require.ErrorIs(err, ErrDivideByZero)
}

func TestMulZeroNeverOverflows(t *testing.T) {
	require := require.New(t)

	product, err := Mul(0, math.MaxUint64)
	require.NoError(err)
	require.Equal(uint64(0), product)
}

func TestMinReserve(t *testing.T) {
	require := require.New(t)

	empty := Account{}
	require.Equal(ReserveBase, empty.MinReserve())

	sized := Account{DataSize: 100}
	require.Equal(ReserveBase+ReservePerByte*100, sized.MinReserve())
}

func TestEnsureReserveAfterWithdraw(t *testing.T) {
	require := require.New(t)

	acct := Account{Balance: 5000, DataSize: 10}
	floor := acct.MinReserve() // 4176

	// Withdrawing down to the floor is allowed.
	require.NoError(acct.EnsureReserveAfterWithdraw(acct.Balance - floor))

	// One unit past the floor is not.
	err := acct.EnsureReserveAfterWithdraw(acct.Balance - floor + 1)
	require.ErrorIs(err, ErrInsufficientReserve)

	// Withdrawing more than the balance underflows before the floor
	// check.
	err = acct.EnsureReserveAfterWithdraw(acct.Balance + 1)
	require.ErrorIs(err, ErrUnderflow)
}

func TestMove(t *testing.T) {
	require := require.New(t)

	from := Account{Balance: 100}
	to := Account{Balance: 50}

	require.NoError(Move(&from, &to, 60))
	require.Equal(uint64(40), from.Balance)
	require.Equal(uint64(110), to.Balance)

	// A failed move leaves both sides untouched.
	err := Move(&from, &to, 1000)
	require.ErrorIs(err, ErrUnderflow)
	require.Equal(uint64(40), from.Balance)
	require.Equal(uint64(110), to.Balance)
}
