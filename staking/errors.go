package staking

import (
	"errors"
)

var (
	ErrPoolNotFound      = errors.New("PoolNotFound")
	ErrInvalidLockType   = errors.New("InvalidLockType")
	ErrBelowRequiredTier = errors.New("BelowRequiredTier")
	ErrStakeNotFound     = errors.New("StakeNotFound")
	ErrNoSharesInPool    = errors.New("NoSharesInPool")
	ErrNoRewardSurplus   = errors.New("NoRewardSurplus")
)
