package vesting

import (
	"encoding/json"
	"fmt"

	"github.com/andreitoma8/pulsefinity-contracts/common"
)

type VestingScheduleCreatedEvent struct {
	Token          string `json:"token"`
	Beneficiary    string `json:"beneficiary"`
	StartTimestamp uint64 `json:"startTimestamp"`
	Duration       uint64 `json:"duration"`
	Unit           string `json:"unit"`
	TotalAmount    string `json:"totalAmount"`
}

type TokensReleasedEvent struct {
	Beneficiary string `json:"beneficiary"`
	Token       string `json:"token"`
	Amount      string `json:"amount"`
}

func EmitVestingScheduleCreated(ctx common.TransactionContextInterface, schedule *Schedule, tokenAddress, beneficiary string) error {
	event := VestingScheduleCreatedEvent{
		Token:          tokenAddress,
		Beneficiary:    beneficiary,
		StartTimestamp: schedule.StartTimestamp,
		Duration:       schedule.Duration,
		Unit:           schedule.Unit.String(),
		TotalAmount:    schedule.TotalAmount,
	}

	eventJSON, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to obtain JSON encoding: %v", err)
	}

	if err := ctx.SetEvent("VestingScheduleCreated", eventJSON); err != nil {
		return fmt.Errorf("failed to set event: %v", err)
	}

	return nil
}

func EmitTokensReleased(ctx common.TransactionContextInterface, beneficiary, tokenAddress, amount string) error {
	event := TokensReleasedEvent{
		Beneficiary: beneficiary,
		Token:       tokenAddress,
		Amount:      amount,
	}

	eventJSON, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to obtain JSON encoding: %v", err)
	}

	if err := ctx.SetEvent("TokensReleased", eventJSON); err != nil {
		return fmt.Errorf("failed to set event: %v", err)
	}

	return nil
}
