package staking

import (
	"encoding/json"
	"fmt"

	"github.com/andreitoma8/pulsefinity-contracts/common"
)

type PoolCreatedEvent struct {
	PoolID       uint64 `json:"poolId"`
	StakedToken  string `json:"stakedToken"`
	RewardToken  string `json:"rewardToken"`
	RequiredTier string `json:"requiredTier"`
}

type StakedEvent struct {
	User   string `json:"user"`
	PoolID uint64 `json:"poolId"`
	Amount string `json:"amount"`
	Lock   string `json:"lock"`
}

type WithdrawnEvent struct {
	User       string `json:"user"`
	PoolID     uint64 `json:"poolId"`
	Amount     string `json:"amount"`
	RewardPaid string `json:"rewardPaid"`
}

type RewardAddedEvent struct {
	PoolID uint64 `json:"poolId"`
	Amount string `json:"amount"`
}

func emit(ctx common.TransactionContextInterface, name string, event interface{}) error {
	eventJSON, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to obtain JSON encoding: %v", err)
	}

	if err := ctx.SetEvent(name, eventJSON); err != nil {
		return fmt.Errorf("failed to set event: %v", err)
	}

	return nil
}

func EmitPoolCreated(ctx common.TransactionContextInterface, poolID uint64, pool *Pool) error {
	return emit(ctx, "PoolCreated", PoolCreatedEvent{
		PoolID:       poolID,
		StakedToken:  pool.StakedToken,
		RewardToken:  pool.RewardAsset.Address,
		RequiredTier: pool.RequiredTier.String(),
	})
}

func EmitStaked(ctx common.TransactionContextInterface, user string, poolID uint64, amount string, lock LockType) error {
	return emit(ctx, "Staked", StakedEvent{
		User:   user,
		PoolID: poolID,
		Amount: amount,
		Lock:   lock.String(),
	})
}

func EmitWithdrawn(ctx common.TransactionContextInterface, user string, poolID uint64, amount, rewardPaid string) error {
	return emit(ctx, "Withdrawn", WithdrawnEvent{
		User:       user,
		PoolID:     poolID,
		Amount:     amount,
		RewardPaid: rewardPaid,
	})
}

func EmitRewardAdded(ctx common.TransactionContextInterface, poolID uint64, amount string) error {
	return emit(ctx, "RewardAdded", RewardAddedEvent{
		PoolID: poolID,
		Amount: amount,
	})
}
