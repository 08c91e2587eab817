package router

import (
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"strconv"

	"github.com/andreitoma8/pulsefinity-contracts/common"
)

// Tier is the eligibility bucket derived from a participant's aggregate
// locked stake across all registered pools.
type Tier uint8

const (
	TierNone Tier = iota
	TierNano
	TierMicro
	TierMega
	TierGiga
	TierTera
	TierTeraPlus
)

// TierCount is the number of stakeable tiers (TierNone excluded).
const TierCount = 6

func (t Tier) String() string {
	return [...]string{
		"None",
		"Nano",
		"Micro",
		"Mega",
		"Giga",
		"Tera",
		"TeraPlus",
	}[t]
}

func IsValidTier(tier uint64) bool {
	return tier <= uint64(TierTeraPlus)
}

// TierSettings holds the ascending stake thresholds and the allocation
// weights, one entry per stakeable tier (index 0 is TierNano).
type TierSettings struct {
	Thresholds []string `json:"thresholds"`
	Weights    []uint64 `json:"weights"`
}

const (
	tierSettingsKey = "router_tiersettings"
	poolRegistryKey = "router_pools"
)

func aggregateStakeKey(user string) string {
	return fmt.Sprintf("router_stake_%s", user)
}

func tierCountKey(tier Tier) string {
	return fmt.Sprintf("router_tiercount_%d", tier)
}

func GetTierSettings(ctx common.TransactionContextInterface) (*TierSettings, error) {
	settingsAsBytes, err := ctx.GetState(tierSettingsKey)
	if err != nil {
		return nil, common.NewCustomError(http.StatusInternalServerError, "failed to get tier settings", err)
	}
	if settingsAsBytes == nil {
		return nil, ErrTierSettingsNotSet
	}

	var settings TierSettings
	if err := json.Unmarshal(settingsAsBytes, &settings); err != nil {
		return nil, common.NewCustomError(http.StatusInternalServerError, "failed to unmarshal tier settings", err)
	}

	return &settings, nil
}

func SetTierSettings(ctx common.TransactionContextInterface, settings *TierSettings) error {
	settingsAsBytes, err := json.Marshal(settings)
	if err != nil {
		return common.NewCustomError(http.StatusInternalServerError, "failed to marshal tier settings", err)
	}

	if err := ctx.PutStateWithoutKYC(tierSettingsKey, settingsAsBytes); err != nil {
		return common.NewCustomError(http.StatusInternalServerError, "failed to set tier settings", err)
	}

	return nil
}

func GetRegisteredPools(ctx common.TransactionContextInterface) ([]string, error) {
	registryAsBytes, err := ctx.GetState(poolRegistryKey)
	if err != nil {
		return nil, common.NewCustomError(http.StatusInternalServerError, "failed to get pool registry", err)
	}
	if registryAsBytes == nil {
		return []string{}, nil
	}

	var pools []string
	if err := json.Unmarshal(registryAsBytes, &pools); err != nil {
		return nil, common.NewCustomError(http.StatusInternalServerError, "failed to unmarshal pool registry", err)
	}

	return pools, nil
}

func setRegisteredPools(ctx common.TransactionContextInterface, pools []string) error {
	registryAsBytes, err := json.Marshal(pools)
	if err != nil {
		return common.NewCustomError(http.StatusInternalServerError, "failed to marshal pool registry", err)
	}

	if err := ctx.PutStateWithoutKYC(poolRegistryKey, registryAsBytes); err != nil {
		return common.NewCustomError(http.StatusInternalServerError, "failed to set pool registry", err)
	}

	return nil
}

func isPoolRegistered(ctx common.TransactionContextInterface, poolKey string) (bool, error) {
	pools, err := GetRegisteredPools(ctx)
	if err != nil {
		return false, err
	}

	for _, registered := range pools {
		if registered == poolKey {
			return true, nil
		}
	}

	return false, nil
}

func getAggregateStake(ctx common.TransactionContextInterface, user string) (*big.Int, error) {
	stakeAsBytes, err := ctx.GetState(aggregateStakeKey(user))
	if err != nil {
		return nil, common.NewCustomError(http.StatusInternalServerError, fmt.Sprintf("failed to get aggregate stake for %s", user), err)
	}

	return common.ParseNonNegative("aggregate stake", string(stakeAsBytes))
}

func setAggregateStake(ctx common.TransactionContextInterface, user string, stake *big.Int) error {
	if err := ctx.PutStateWithoutKYC(aggregateStakeKey(user), []byte(stake.String())); err != nil {
		return common.NewCustomError(http.StatusInternalServerError, fmt.Sprintf("failed to set aggregate stake for %s", user), err)
	}

	return nil
}

func getTierCount(ctx common.TransactionContextInterface, tier Tier) (uint64, error) {
	countAsBytes, err := ctx.GetState(tierCountKey(tier))
	if err != nil {
		return 0, common.NewCustomError(http.StatusInternalServerError, fmt.Sprintf("failed to get participant count for tier %s", tier), err)
	}
	if countAsBytes == nil {
		return 0, nil
	}

	count, err := strconv.ParseUint(string(countAsBytes), 10, 64)
	if err != nil {
		return 0, common.NewCustomError(http.StatusInternalServerError, fmt.Sprintf("failed to parse participant count for tier %s", tier), err)
	}

	return count, nil
}

func setTierCount(ctx common.TransactionContextInterface, tier Tier, count uint64) error {
	if err := ctx.PutStateWithoutKYC(tierCountKey(tier), []byte(strconv.FormatUint(count, 10))); err != nil {
		return common.NewCustomError(http.StatusInternalServerError, fmt.Sprintf("failed to set participant count for tier %s", tier), err)
	}

	return nil
}
