package router

import (
	"math/big"
	"net/http"

	"github.com/andreitoma8/pulsefinity-contracts/common"
)

func tierForAmount(settings *TierSettings, amount *big.Int) (Tier, error) {
	tier := TierNone
	for i := 0; i < TierCount; i++ {
		threshold, err := common.ParseNonNegative("tier threshold", settings.Thresholds[i])
		if err != nil {
			return TierNone, err
		}
		if amount.Cmp(threshold) < 0 {
			break
		}
		tier = Tier(i + 1)
	}

	return tier, nil
}

// RegisterPool adds a staking pool to the registry. Only registered pools
// may move the per-tier counters.
func RegisterPool(ctx common.TransactionContextInterface, poolKey string) error {
	pools, err := GetRegisteredPools(ctx)
	if err != nil {
		return err
	}

	for _, registered := range pools {
		if registered == poolKey {
			return ErrPoolAlreadyRegistered
		}
	}

	return setRegisteredPools(ctx, append(pools, poolKey))
}

// GetTier maps the user's current aggregate stake to a tier.
func GetTier(ctx common.TransactionContextInterface, user string) (Tier, error) {
	settings, err := GetTierSettings(ctx)
	if err != nil {
		return TierNone, err
	}

	stake, err := getAggregateStake(ctx, user)
	if err != nil {
		return TierNone, err
	}

	return tierForAmount(settings, stake)
}

// GetPredictedTier maps the tier the user would land in after adding or
// removing the given amount of stake.
func GetPredictedTier(ctx common.TransactionContextInterface, user string, amount *big.Int, add bool) (Tier, error) {
	settings, err := GetTierSettings(ctx)
	if err != nil {
		return TierNone, err
	}

	stake, err := getAggregateStake(ctx, user)
	if err != nil {
		return TierNone, err
	}

	predicted := new(big.Int).Set(stake)
	if add {
		predicted.Add(predicted, amount)
	} else {
		predicted.Sub(predicted, amount)
		if predicted.Sign() < 0 {
			return TierNone, ErrStakeBelowZero
		}
	}

	return tierForAmount(settings, predicted)
}

// RecordStakeChange updates the user's aggregate stake and moves the user
// between tier counters. Called by registered pools only, as part of the
// pool's own stake/withdraw transaction.
func RecordStakeChange(ctx common.TransactionContextInterface, poolKey, user string, amount *big.Int, add bool) error {
	registered, err := isPoolRegistered(ctx, poolKey)
	if err != nil {
		return err
	}
	if !registered {
		return common.NewCustomError(http.StatusUnauthorized, "stake change from unregistered pool", ErrPoolNotRegistered(poolKey))
	}

	settings, err := GetTierSettings(ctx)
	if err != nil {
		return err
	}

	stake, err := getAggregateStake(ctx, user)
	if err != nil {
		return err
	}

	oldTier, err := tierForAmount(settings, stake)
	if err != nil {
		return err
	}

	if add {
		stake.Add(stake, amount)
	} else {
		stake.Sub(stake, amount)
		if stake.Sign() < 0 {
			return ErrStakeBelowZero
		}
	}

	newTier, err := tierForAmount(settings, stake)
	if err != nil {
		return err
	}

	if err := setAggregateStake(ctx, user, stake); err != nil {
		return err
	}

	if oldTier == newTier {
		return nil
	}

	if oldTier != TierNone {
		count, err := getTierCount(ctx, oldTier)
		if err != nil {
			return err
		}
		if count == 0 {
			return common.NewCustomError(http.StatusInternalServerError, "tier counter underflow", nil)
		}
		if err := setTierCount(ctx, oldTier, count-1); err != nil {
			return err
		}
	}

	if newTier != TierNone {
		count, err := getTierCount(ctx, newTier)
		if err != nil {
			return err
		}
		if err := setTierCount(ctx, newTier, count+1); err != nil {
			return err
		}
	}

	return nil
}

// GetTierAllocation sizes one participant's slice of a sale hard cap:
// hardCap * weight[tier] / sum(count[t] * weight[t]). Zero when the tier is
// None or currently empty, which also rules out a zero divisor.
func GetTierAllocation(ctx common.TransactionContextInterface, hardCap *big.Int, tier Tier) (*big.Int, error) {
	if tier == TierNone {
		return big.NewInt(0), nil
	}

	settings, err := GetTierSettings(ctx)
	if err != nil {
		return nil, err
	}

	tierCount, err := getTierCount(ctx, tier)
	if err != nil {
		return nil, err
	}
	if tierCount == 0 {
		return big.NewInt(0), nil
	}

	totalWeightedUnits := new(big.Int)
	for i := 0; i < TierCount; i++ {
		count, err := getTierCount(ctx, Tier(i+1))
		if err != nil {
			return nil, err
		}

		weighted := new(big.Int).SetUint64(count)
		weighted.Mul(weighted, new(big.Int).SetUint64(settings.Weights[i]))
		totalWeightedUnits.Add(totalWeightedUnits, weighted)
	}

	weight := new(big.Int).SetUint64(settings.Weights[tier-1])
	return common.MulDiv(hardCap, weight, totalWeightedUnits), nil
}
