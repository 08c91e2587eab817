package router

import (
	"fmt"
	"math/big"
	"net/http"

	"github.com/andreitoma8/pulsefinity-contracts/common"
)

type SmartContract struct{}

// SetTierThresholds sets the six ascending stake thresholds. Admin only.
func (s *SmartContract) SetTierThresholds(ctx common.TransactionContextInterface, thresholds []string) error {
	if err := common.IsSignerAdmin(ctx); err != nil {
		return err
	}

	if len(thresholds) != TierCount {
		return fmt.Errorf("%w: expected %d thresholds, got %d", ErrInvalidTierSettings, TierCount, len(thresholds))
	}

	previous := big.NewInt(0)
	for i, value := range thresholds {
		threshold, err := common.ParseAmount(fmt.Sprintf("threshold %d", i), value)
		if err != nil {
			return err
		}
		if threshold.Cmp(previous) <= 0 {
			return fmt.Errorf("%w: thresholds must be strictly ascending", ErrInvalidTierSettings)
		}
		previous = threshold
	}

	settings, err := GetTierSettings(ctx)
	if err == ErrTierSettingsNotSet {
		settings = &TierSettings{Weights: defaultWeights()}
	} else if err != nil {
		return err
	}
	settings.Thresholds = thresholds

	return SetTierSettings(ctx, settings)
}

// SetTierWeights sets the six allocation weights. Admin only. Weights need
// not be monotonic with rank.
func (s *SmartContract) SetTierWeights(ctx common.TransactionContextInterface, weights []uint64) error {
	if err := common.IsSignerAdmin(ctx); err != nil {
		return err
	}

	if len(weights) != TierCount {
		return fmt.Errorf("%w: expected %d weights, got %d", ErrInvalidTierSettings, TierCount, len(weights))
	}
	for i, weight := range weights {
		if weight == 0 {
			return fmt.Errorf("%w: weight %d is zero", ErrInvalidTierSettings, i)
		}
	}

	settings, err := GetTierSettings(ctx)
	if err == ErrTierSettingsNotSet {
		return fmt.Errorf("%w: set thresholds first", ErrTierSettingsNotSet)
	} else if err != nil {
		return err
	}
	settings.Weights = weights

	return SetTierSettings(ctx, settings)
}

// AddStakingPool registers an externally managed pool key. Pools created
// through the staking contract register themselves; this covers the rest.
// Admin only.
func (s *SmartContract) AddStakingPool(ctx common.TransactionContextInterface, poolKey string) error {
	if err := common.IsSignerAdmin(ctx); err != nil {
		return err
	}
	if poolKey == "" {
		return common.NewCustomError(http.StatusBadRequest, "pool key must not be empty", nil)
	}

	return RegisterPool(ctx, poolKey)
}

// RemoveStakingPool drops a pool from the registry so it can no longer move
// tier counters. Admin only.
func (s *SmartContract) RemoveStakingPool(ctx common.TransactionContextInterface, poolKey string) error {
	if err := common.IsSignerAdmin(ctx); err != nil {
		return err
	}

	pools, err := GetRegisteredPools(ctx)
	if err != nil {
		return err
	}

	for i, registered := range pools {
		if registered == poolKey {
			pools[i] = pools[len(pools)-1]
			return setRegisteredPools(ctx, pools[:len(pools)-1])
		}
	}

	return common.NewCustomError(http.StatusNotFound, "pool not registered", ErrPoolNotRegistered(poolKey))
}

// GetUserTier returns the caller-independent tier of a user.
func (s *SmartContract) GetUserTier(ctx common.TransactionContextInterface, user string) (uint64, error) {
	tier, err := GetTier(ctx, user)
	return uint64(tier), err
}

// GetParticipantsPerTier returns the live per-tier participant counts keyed
// by tier name.
func (s *SmartContract) GetParticipantsPerTier(ctx common.TransactionContextInterface) (map[string]uint64, error) {
	counts := make(map[string]uint64, TierCount)
	for i := 0; i < TierCount; i++ {
		tier := Tier(i + 1)
		count, err := getTierCount(ctx, tier)
		if err != nil {
			return nil, err
		}
		counts[tier.String()] = count
	}

	return counts, nil
}

// GetTotalParticipants sums the per-tier counts. Users below the lowest
// threshold are not participants.
func (s *SmartContract) GetTotalParticipants(ctx common.TransactionContextInterface) (uint64, error) {
	total := uint64(0)
	for i := 0; i < TierCount; i++ {
		count, err := getTierCount(ctx, Tier(i+1))
		if err != nil {
			return 0, err
		}
		total += count
	}

	return total, nil
}

func defaultWeights() []uint64 {
	weights := make([]uint64, TierCount)
	for i := range weights {
		weights[i] = 1
	}
	return weights
}
