package vesting

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/andreitoma8/pulsefinity-contracts/common"
)

// DurationUnit selects the slice size of the vesting step function. A month
// is the 30-day approximation.
type DurationUnit uint8

const (
	UnitDays DurationUnit = iota
	UnitWeeks
	UnitMonths
)

func (u DurationUnit) String() string {
	return [...]string{
		"Days",
		"Weeks",
		"Months",
	}[u]
}

func (u DurationUnit) SliceSeconds() uint64 {
	switch u {
	case UnitDays:
		return common.SecondsPerDay
	case UnitWeeks:
		return common.SecondsPerWeek
	default:
		return common.SecondsPerMonth
	}
}

func IsValidDurationUnit(unit uint64) bool {
	return unit <= uint64(UnitMonths)
}

// Schedule is one vesting position of a (token, beneficiary) pair. Schedules
// are created on deposit, mutated only by Release and never deleted.
type Schedule struct {
	StartTimestamp uint64       `json:"startTimestamp"`
	Duration       uint64       `json:"duration"`
	Unit           DurationUnit `json:"unit"`
	TotalAmount    string       `json:"totalAmount"`
	Released       string       `json:"released"`
}

func schedulesKey(tokenAddress, beneficiary string) string {
	return fmt.Sprintf("vestingschedules_%s_%s", tokenAddress, beneficiary)
}

func GetSchedules(ctx common.TransactionContextInterface, tokenAddress, beneficiary string) ([]*Schedule, error) {
	key := schedulesKey(tokenAddress, beneficiary)
	schedulesAsBytes, err := ctx.GetState(key)
	if err != nil {
		return nil, common.NewCustomError(http.StatusInternalServerError, fmt.Sprintf("failed to get vesting schedules with key %s", key), err)
	}
	if schedulesAsBytes == nil {
		return []*Schedule{}, nil
	}

	var schedules []*Schedule
	if err := json.Unmarshal(schedulesAsBytes, &schedules); err != nil {
		return nil, common.NewCustomError(http.StatusInternalServerError, "failed to unmarshal vesting schedules", err)
	}

	return schedules, nil
}

func SetSchedules(ctx common.TransactionContextInterface, tokenAddress, beneficiary string, schedules []*Schedule) error {
	schedulesAsBytes, err := json.Marshal(schedules)
	if err != nil {
		return common.NewCustomError(http.StatusInternalServerError, "failed to marshal vesting schedules", err)
	}

	if err := ctx.PutStateWithoutKYC(schedulesKey(tokenAddress, beneficiary), schedulesAsBytes); err != nil {
		return common.NewCustomError(http.StatusInternalServerError, "failed to set vesting schedules", err)
	}

	return nil
}
