package router

import (
	"errors"
	"fmt"
)

var (
	ErrTierSettingsNotSet    = errors.New("TierSettingsNotSet")
	ErrInvalidTierSettings   = errors.New("InvalidTierSettings")
	ErrStakeBelowZero        = errors.New("StakeBelowZero")
	ErrPoolAlreadyRegistered = errors.New("PoolAlreadyRegistered")
)

func ErrPoolNotRegistered(poolKey string) error {
	return fmt.Errorf("PoolNotRegistered: %s", poolKey)
}
