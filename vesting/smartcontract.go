package vesting

import (
	"fmt"
	"math/big"
	"net/http"

	"github.com/andreitoma8/pulsefinity-contracts/common"
	"github.com/andreitoma8/pulsefinity-contracts/token"
)

type SmartContract struct{}

// CreateVestingSchedule pulls totalAmount of the token from the caller and
// opens a vesting position for the beneficiary. A start timestamp in the
// past is clamped to the transaction time.
func (s *SmartContract) CreateVestingSchedule(
	ctx common.TransactionContextInterface,
	tokenAddress, beneficiary string,
	startTimestamp, duration, unit uint64,
	totalAmount string,
) error {
	caller, err := common.GetUserID(ctx)
	if err != nil {
		return common.NewCustomError(http.StatusBadRequest, "failed to get client id", err)
	}

	if !common.IsUserAddressValid(beneficiary) {
		return ErrInvalidBeneficiary
	}
	if !common.IsContractAddressValid(tokenAddress) {
		return ErrInvalidTokenAddress(tokenAddress)
	}
	if !IsValidDurationUnit(unit) {
		return ErrInvalidDurationUnit
	}

	amount, err := common.ParseAmount("vesting deposit", totalAmount)
	if err != nil {
		return err
	}

	if err := AddSchedule(ctx, tokenAddress, beneficiary, startTimestamp, duration, DurationUnit(unit), amount); err != nil {
		return err
	}

	return token.NewClient(tokenAddress).Deposit(ctx, caller, amount)
}

// Release pays out every schedule of the pair with a positive releasable
// amount. Rejects when the pair has no schedules or nothing has vested since
// the last call.
func (s *SmartContract) Release(ctx common.TransactionContextInterface, tokenAddress, beneficiary string) error {
	schedules, err := GetSchedules(ctx, tokenAddress, beneficiary)
	if err != nil {
		return err
	}
	if len(schedules) == 0 {
		return ErrNoSchedules
	}

	now, err := common.TxTime(ctx)
	if err != nil {
		return err
	}

	totalReleased := big.NewInt(0)
	for _, schedule := range schedules {
		releasable, err := releasableAmount(schedule, now)
		if err != nil {
			return err
		}
		if releasable.Sign() <= 0 {
			continue
		}

		released, err := common.ParseNonNegative("schedule released", schedule.Released)
		if err != nil {
			return err
		}
		schedule.Released = released.Add(released, releasable).String()

		totalReleased.Add(totalReleased, releasable)
	}

	if totalReleased.Sign() == 0 {
		return ErrNothingToRelease
	}

	if err := SetSchedules(ctx, tokenAddress, beneficiary, schedules); err != nil {
		return err
	}

	if err := EmitTokensReleased(ctx, beneficiary, tokenAddress, totalReleased.String()); err != nil {
		return err
	}

	return token.NewClient(tokenAddress).Payout(ctx, beneficiary, totalReleased)
}

// GetVestingSchedules returns the raw schedules of a (token, beneficiary)
// pair.
func (s *SmartContract) GetVestingSchedules(ctx common.TransactionContextInterface, tokenAddress, beneficiary string) ([]*Schedule, error) {
	return GetSchedules(ctx, tokenAddress, beneficiary)
}

// GetReleasableAmount sums the currently releasable amount across all
// schedules of the pair.
func (s *SmartContract) GetReleasableAmount(ctx common.TransactionContextInterface, tokenAddress, beneficiary string) (string, error) {
	schedules, err := GetSchedules(ctx, tokenAddress, beneficiary)
	if err != nil {
		return "0", err
	}
	if len(schedules) == 0 {
		return "0", fmt.Errorf("%w for %s and %s", ErrNoSchedules, tokenAddress, beneficiary)
	}

	now, err := common.TxTime(ctx)
	if err != nil {
		return "0", err
	}

	total := big.NewInt(0)
	for _, schedule := range schedules {
		releasable, err := releasableAmount(schedule, now)
		if err != nil {
			return "0", err
		}
		if releasable.Sign() > 0 {
			total.Add(total, releasable)
		}
	}

	return total.String(), nil
}
