package staking

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/andreitoma8/pulsefinity-contracts/common"
	"github.com/andreitoma8/pulsefinity-contracts/router"
	"github.com/andreitoma8/pulsefinity-contracts/token"
)

// LockType selects one of the fixed lock durations and its bonus-share
// multiplier.
type LockType uint8

const (
	Lock15Days LockType = iota
	Lock30Days
	Lock60Days
	Lock90Days
	Lock180Days
	Lock360Days
)

var (
	lockDays     = [...]uint64{15, 30, 60, 90, 180, 360}
	lockBonusBps = [...]uint64{200, 500, 1200, 1800, 4000, 10000}
)

func (l LockType) String() string {
	return fmt.Sprintf("%dDays", lockDays[l])
}

func (l LockType) DurationSeconds() uint64 {
	return lockDays[l] * common.SecondsPerDay
}

func (l LockType) BonusBps() uint64 {
	return lockBonusBps[l]
}

func IsValidLockType(lockType uint64) bool {
	return lockType <= uint64(Lock360Days)
}

// Pool tracks one staking reward ledger. The reward index is 1e18-scaled
// cumulative reward-per-share and never decreases.
type Pool struct {
	StakedToken   string      `json:"stakedToken"`
	RewardAsset   token.Asset `json:"rewardAsset"`
	RequiredTier  router.Tier `json:"requiredTier"`
	TotalStaked   string      `json:"totalStaked"`
	TotalShares   string      `json:"totalShares"`
	RewardBalance string      `json:"rewardBalance"`
	RewardIndex   string      `json:"rewardIndex"`
}

// StakeRecord is one locked deposit. Owned exclusively by its staker and
// removed on withdrawal by swap-and-pop.
type StakeRecord struct {
	Amount              string   `json:"amount"`
	Shares              string   `json:"shares"`
	RewardIndexSnapshot string   `json:"rewardIndexSnapshot"`
	StartTimestamp      uint64   `json:"startTimestamp"`
	Lock                LockType `json:"lock"`
}

const poolCountKey = "stakingpoolcount"

// PoolKey doubles as the router registry handle for the pool.
func PoolKey(poolID uint64) string {
	return fmt.Sprintf("stakingpool_%d", poolID)
}

func stakesKey(poolID uint64, user string) string {
	return fmt.Sprintf("stakes_%d_%s", poolID, user)
}

func GetPoolCount(ctx common.TransactionContextInterface) (uint64, error) {
	countAsBytes, err := ctx.GetState(poolCountKey)
	if err != nil {
		return 0, common.NewCustomError(http.StatusInternalServerError, "failed to get pool count", err)
	}
	if countAsBytes == nil {
		return 0, nil
	}

	count, err := strconv.ParseUint(string(countAsBytes), 10, 64)
	if err != nil {
		return 0, common.NewCustomError(http.StatusInternalServerError, "failed to parse pool count", err)
	}

	return count, nil
}

func setPoolCount(ctx common.TransactionContextInterface, count uint64) error {
	if err := ctx.PutStateWithoutKYC(poolCountKey, []byte(strconv.FormatUint(count, 10))); err != nil {
		return common.NewCustomError(http.StatusInternalServerError, "failed to set pool count", err)
	}

	return nil
}

func GetPool(ctx common.TransactionContextInterface, poolID uint64) (*Pool, error) {
	poolAsBytes, err := ctx.GetState(PoolKey(poolID))
	if err != nil {
		return nil, common.NewCustomError(http.StatusInternalServerError, fmt.Sprintf("failed to get pool %d", poolID), err)
	}
	if poolAsBytes == nil {
		return nil, fmt.Errorf("%w: %d", ErrPoolNotFound, poolID)
	}

	var pool Pool
	if err := json.Unmarshal(poolAsBytes, &pool); err != nil {
		return nil, common.NewCustomError(http.StatusInternalServerError, fmt.Sprintf("failed to unmarshal pool %d", poolID), err)
	}

	return &pool, nil
}

func SetPool(ctx common.TransactionContextInterface, poolID uint64, pool *Pool) error {
	poolAsBytes, err := json.Marshal(pool)
	if err != nil {
		return common.NewCustomError(http.StatusInternalServerError, fmt.Sprintf("failed to marshal pool %d", poolID), err)
	}

	if err := ctx.PutStateWithoutKYC(PoolKey(poolID), poolAsBytes); err != nil {
		return common.NewCustomError(http.StatusInternalServerError, fmt.Sprintf("failed to set pool %d", poolID), err)
	}

	return nil
}

func GetStakeRecords(ctx common.TransactionContextInterface, poolID uint64, user string) ([]*StakeRecord, error) {
	recordsAsBytes, err := ctx.GetState(stakesKey(poolID, user))
	if err != nil {
		return nil, common.NewCustomError(http.StatusInternalServerError, fmt.Sprintf("failed to get stakes of %s in pool %d", user, poolID), err)
	}
	if recordsAsBytes == nil {
		return []*StakeRecord{}, nil
	}

	var records []*StakeRecord
	if err := json.Unmarshal(recordsAsBytes, &records); err != nil {
		return nil, common.NewCustomError(http.StatusInternalServerError, "failed to unmarshal stake records", err)
	}

	return records, nil
}

func SetStakeRecords(ctx common.TransactionContextInterface, poolID uint64, user string, records []*StakeRecord) error {
	recordsAsBytes, err := json.Marshal(records)
	if err != nil {
		return common.NewCustomError(http.StatusInternalServerError, "failed to marshal stake records", err)
	}

	if err := ctx.PutStateWithoutKYC(stakesKey(poolID, user), recordsAsBytes); err != nil {
		return common.NewCustomError(http.StatusInternalServerError, fmt.Sprintf("failed to set stakes of %s in pool %d", user, poolID), err)
	}

	return nil
}
