package vesting

import (
	"math/big"
	"net/http"

	"github.com/andreitoma8/pulsefinity-contracts/common"
)

// AddSchedule appends a vesting position for tokens already held in custody.
// The launchpad uses this directly when settling vested sales and locking
// pair positions; CreateVestingSchedule pulls the deposit first and then
// lands here.
func AddSchedule(
	ctx common.TransactionContextInterface,
	tokenAddress, beneficiary string,
	startTimestamp, duration uint64,
	unit DurationUnit,
	amount *big.Int,
) error {
	if amount == nil || amount.Sign() <= 0 {
		return common.NewCustomError(http.StatusBadRequest, "vesting amount must be positive", nil)
	}

	now, err := common.TxTime(ctx)
	if err != nil {
		return err
	}
	if startTimestamp < now {
		startTimestamp = now
	}

	schedules, err := GetSchedules(ctx, tokenAddress, beneficiary)
	if err != nil {
		return err
	}

	schedule := &Schedule{
		StartTimestamp: startTimestamp,
		Duration:       duration,
		Unit:           unit,
		TotalAmount:    amount.String(),
		Released:       "0",
	}
	schedules = append(schedules, schedule)

	if err := SetSchedules(ctx, tokenAddress, beneficiary, schedules); err != nil {
		return err
	}

	return EmitVestingScheduleCreated(ctx, schedule, tokenAddress, beneficiary)
}

// vestedAmount is the step function of §vesting: nothing before start, the
// full amount once every slice has elapsed, and in between one step per
// whole slice.
func vestedAmount(schedule *Schedule, now uint64) (*big.Int, error) {
	total, err := common.ParseNonNegative("schedule total", schedule.TotalAmount)
	if err != nil {
		return nil, err
	}

	if now < schedule.StartTimestamp {
		return big.NewInt(0), nil
	}

	if schedule.Duration == 0 {
		return total, nil
	}

	slice := schedule.Unit.SliceSeconds()
	if now >= schedule.StartTimestamp+schedule.Duration*slice {
		return total, nil
	}

	elapsedSlices := (now - schedule.StartTimestamp) / slice
	vested := new(big.Int).Mul(total, new(big.Int).SetUint64(elapsedSlices))
	return vested.Div(vested, new(big.Int).SetUint64(schedule.Duration)), nil
}

func releasableAmount(schedule *Schedule, now uint64) (*big.Int, error) {
	vested, err := vestedAmount(schedule, now)
	if err != nil {
		return nil, err
	}

	released, err := common.ParseNonNegative("schedule released", schedule.Released)
	if err != nil {
		return nil, err
	}

	return vested.Sub(vested, released), nil
}
