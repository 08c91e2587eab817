package vesting

import (
	"errors"
	"fmt"
)

var (
	ErrNoSchedules         = errors.New("NoVestingSchedules")
	ErrNothingToRelease    = errors.New("NothingToRelease")
	ErrInvalidDurationUnit = errors.New("InvalidDurationUnit")
	ErrInvalidBeneficiary  = errors.New("InvalidBeneficiary")
)

func ErrInvalidTokenAddress(tokenAddress string) error {
	return fmt.Errorf("InvalidTokenAddress: %s", tokenAddress)
}
