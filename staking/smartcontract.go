package staking

import (
	"fmt"
	"math/big"
	"net/http"

	"github.com/andreitoma8/pulsefinity-contracts/common"
	"github.com/andreitoma8/pulsefinity-contracts/router"
	"github.com/andreitoma8/pulsefinity-contracts/token"
)

// earlyExitPenaltyBps is kept by the pool administrator when a stake leaves
// before the midpoint of its lock.
const earlyExitPenaltyBps = 1000

type SmartContract struct{}

// CreatePool opens a staking reward ledger for a staked token, a reward
// asset (empty address = native base token) and a minimum entry tier, and
// registers it with the staking router. Admin only.
func (s *SmartContract) CreatePool(ctx common.TransactionContextInterface, stakedToken, rewardToken string, requiredTier uint64) (uint64, error) {
	if err := common.IsSignerAdmin(ctx); err != nil {
		return 0, err
	}

	if !common.IsContractAddressValid(stakedToken) {
		return 0, common.NewCustomError(http.StatusBadRequest, fmt.Sprintf("invalid staked token address: %s", stakedToken), nil)
	}
	if !router.IsValidTier(requiredTier) {
		return 0, common.NewCustomError(http.StatusBadRequest, fmt.Sprintf("invalid required tier: %d", requiredTier), nil)
	}

	rewardAsset, err := token.Resolve(ctx, rewardToken)
	if err != nil {
		return 0, err
	}

	count, err := GetPoolCount(ctx)
	if err != nil {
		return 0, err
	}
	poolID := count + 1

	pool := &Pool{
		StakedToken:   stakedToken,
		RewardAsset:   *rewardAsset,
		RequiredTier:  router.Tier(requiredTier),
		TotalStaked:   "0",
		TotalShares:   "0",
		RewardBalance: "0",
		RewardIndex:   "0",
	}

	if err := SetPool(ctx, poolID, pool); err != nil {
		return 0, err
	}
	if err := setPoolCount(ctx, poolID); err != nil {
		return 0, err
	}
	if err := router.RegisterPool(ctx, PoolKey(poolID)); err != nil {
		return 0, err
	}

	return poolID, EmitPoolCreated(ctx, poolID, pool)
}

// Stake locks `amount` of the pool's staked token for the chosen duration.
// Shares are principal plus the lock bonus; the record snapshots the current
// reward index so rewards injected before this deposit never accrue to it.
func (s *SmartContract) Stake(ctx common.TransactionContextInterface, poolID uint64, amount string, lockType uint64) error {
	caller, err := common.GetUserID(ctx)
	if err != nil {
		return common.NewCustomError(http.StatusBadRequest, "failed to get client id", err)
	}

	if !IsValidLockType(lockType) {
		return fmt.Errorf("%w: %d", ErrInvalidLockType, lockType)
	}
	lock := LockType(lockType)

	pool, err := GetPool(ctx, poolID)
	if err != nil {
		return err
	}

	stakeAmount, err := common.ParseAmount("stake", amount)
	if err != nil {
		return err
	}

	predictedTier, err := router.GetPredictedTier(ctx, caller, stakeAmount, true)
	if err != nil {
		return err
	}
	if predictedTier < pool.RequiredTier {
		return common.NewCustomError(http.StatusForbidden,
			fmt.Sprintf("predicted tier %s is below required tier %s", predictedTier, pool.RequiredTier), ErrBelowRequiredTier)
	}

	now, err := common.TxTime(ctx)
	if err != nil {
		return err
	}

	shares := new(big.Int).Add(stakeAmount, common.ApplyBps(stakeAmount, lock.BonusBps()))

	records, err := GetStakeRecords(ctx, poolID, caller)
	if err != nil {
		return err
	}
	records = append(records, &StakeRecord{
		Amount:              stakeAmount.String(),
		Shares:              shares.String(),
		RewardIndexSnapshot: pool.RewardIndex,
		StartTimestamp:      now,
		Lock:                lock,
	})
	if err := SetStakeRecords(ctx, poolID, caller, records); err != nil {
		return err
	}

	totalStaked, err := common.ParseNonNegative("total staked", pool.TotalStaked)
	if err != nil {
		return err
	}
	totalShares, err := common.ParseNonNegative("total shares", pool.TotalShares)
	if err != nil {
		return err
	}
	pool.TotalStaked = totalStaked.Add(totalStaked, stakeAmount).String()
	pool.TotalShares = totalShares.Add(totalShares, shares).String()
	if err := SetPool(ctx, poolID, pool); err != nil {
		return err
	}

	if err := router.RecordStakeChange(ctx, PoolKey(poolID), caller, stakeAmount, true); err != nil {
		return err
	}

	if err := token.NewClient(pool.StakedToken).Deposit(ctx, caller, stakeAmount); err != nil {
		return err
	}

	return EmitStaked(ctx, caller, poolID, stakeAmount.String(), lock)
}

// Withdraw closes the caller's stake record at `index`. A matured stake
// pays principal plus its index-accrued reward. Before the lock midpoint the
// caller gets 90% of the principal and the pool administrator the rest, with
// the reward forfeited; at or after the midpoint but before maturity the
// full principal comes back with no reward.
func (s *SmartContract) Withdraw(ctx common.TransactionContextInterface, poolID uint64, index uint64) error {
	caller, err := common.GetUserID(ctx)
	if err != nil {
		return common.NewCustomError(http.StatusBadRequest, "failed to get client id", err)
	}

	pool, err := GetPool(ctx, poolID)
	if err != nil {
		return err
	}

	records, err := GetStakeRecords(ctx, poolID, caller)
	if err != nil {
		return err
	}
	if index >= uint64(len(records)) {
		return fmt.Errorf("%w: index %d of %d records", ErrStakeNotFound, index, len(records))
	}
	record := records[index]

	principal, err := common.ParseAmount("record principal", record.Amount)
	if err != nil {
		return err
	}
	shares, err := common.ParseAmount("record shares", record.Shares)
	if err != nil {
		return err
	}

	if err := router.RecordStakeChange(ctx, PoolKey(poolID), caller, principal, false); err != nil {
		return err
	}

	now, err := common.TxTime(ctx)
	if err != nil {
		return err
	}

	callerPayout := new(big.Int).Set(principal)
	penalty := big.NewInt(0)
	reward := big.NewInt(0)

	lockDuration := record.Lock.DurationSeconds()
	unlockTime := record.StartTimestamp + lockDuration
	if now >= unlockTime {
		reward, err = accruedReward(pool, record, shares)
		if err != nil {
			return err
		}
	} else if (now-record.StartTimestamp)*2 < lockDuration {
		penalty = common.ApplyBps(principal, earlyExitPenaltyBps)
		callerPayout.Sub(callerPayout, penalty)
	}

	// Swap-and-pop keeps the remaining records' indexes dense.
	records[index] = records[len(records)-1]
	records = records[:len(records)-1]
	if err := SetStakeRecords(ctx, poolID, caller, records); err != nil {
		return err
	}

	totalStaked, err := common.ParseNonNegative("total staked", pool.TotalStaked)
	if err != nil {
		return err
	}
	totalShares, err := common.ParseNonNegative("total shares", pool.TotalShares)
	if err != nil {
		return err
	}
	pool.TotalStaked = totalStaked.Sub(totalStaked, principal).String()
	pool.TotalShares = totalShares.Sub(totalShares, shares).String()

	if reward.Sign() > 0 {
		rewardBalance, err := common.ParseNonNegative("reward balance", pool.RewardBalance)
		if err != nil {
			return err
		}
		if rewardBalance.Cmp(reward) < 0 {
			return common.NewCustomError(http.StatusInternalServerError, "reward balance underflow", nil)
		}
		pool.RewardBalance = rewardBalance.Sub(rewardBalance, reward).String()
	}

	if err := SetPool(ctx, poolID, pool); err != nil {
		return err
	}

	stakedClient := token.NewClient(pool.StakedToken)
	if err := stakedClient.Payout(ctx, caller, callerPayout); err != nil {
		return err
	}
	if penalty.Sign() > 0 {
		if err := stakedClient.Payout(ctx, common.AdminAddress, penalty); err != nil {
			return err
		}
	}
	if reward.Sign() > 0 {
		if err := pool.RewardAsset.Client().Payout(ctx, caller, reward); err != nil {
			return err
		}
	}

	return EmitWithdrawn(ctx, caller, poolID, callerPayout.String(), reward.String())
}

// AddRewards injects rewards into the pool and advances the reward index by
// amount * 1e18 / totalShares. Rejected on an empty pool, where the
// injection could never be claimed.
func (s *SmartContract) AddRewards(ctx common.TransactionContextInterface, poolID uint64, amount string) error {
	caller, err := common.GetUserID(ctx)
	if err != nil {
		return common.NewCustomError(http.StatusBadRequest, "failed to get client id", err)
	}

	pool, err := GetPool(ctx, poolID)
	if err != nil {
		return err
	}

	rewardAmount, err := common.ParseAmount("reward", amount)
	if err != nil {
		return err
	}

	totalShares, err := common.ParseNonNegative("total shares", pool.TotalShares)
	if err != nil {
		return err
	}
	if totalShares.Sign() == 0 {
		return fmt.Errorf("%w: pool %d", ErrNoSharesInPool, poolID)
	}

	rewardBalance, err := common.ParseNonNegative("reward balance", pool.RewardBalance)
	if err != nil {
		return err
	}
	rewardIndex, err := common.ParseNonNegative("reward index", pool.RewardIndex)
	if err != nil {
		return err
	}

	pool.RewardBalance = rewardBalance.Add(rewardBalance, rewardAmount).String()
	indexDelta := common.MulDiv(rewardAmount, common.Precision, totalShares)
	pool.RewardIndex = rewardIndex.Add(rewardIndex, indexDelta).String()

	if err := SetPool(ctx, poolID, pool); err != nil {
		return err
	}

	if err := pool.RewardAsset.Client().Deposit(ctx, caller, rewardAmount); err != nil {
		return err
	}

	return EmitRewardAdded(ctx, poolID, rewardAmount.String())
}

// WithdrawRewardSurplus sweeps reward-asset balance that arrived outside of
// AddRewards (mistaken direct transfers) to the administrator. Every pool
// and sale shares one custody address, so the balance is checked against the
// full per-token custody liability, never against this pool's books alone.
func (s *SmartContract) WithdrawRewardSurplus(ctx common.TransactionContextInterface, poolID uint64) (string, error) {
	if err := common.IsSignerAdmin(ctx); err != nil {
		return "0", err
	}

	pool, err := GetPool(ctx, poolID)
	if err != nil {
		return "0", err
	}

	config, err := common.GetConfig(ctx)
	if err != nil {
		return "0", err
	}

	balance, err := pool.RewardAsset.Client().BalanceOf(ctx, config.SelfAddress)
	if err != nil {
		return "0", err
	}

	liability, err := token.GetCustodyLiability(ctx, pool.RewardAsset.Address)
	if err != nil {
		return "0", err
	}

	surplus := new(big.Int).Sub(balance, liability)
	if surplus.Sign() <= 0 {
		return "0", fmt.Errorf("%w: pool %d", ErrNoRewardSurplus, poolID)
	}

	// The surplus was never booked, so the transfer bypasses the liability
	// counter.
	if err := pool.RewardAsset.Client().Transfer(ctx, common.AdminAddress, surplus); err != nil {
		return "0", err
	}

	return surplus.String(), nil
}

// GetPoolInfo returns the pool totals.
func (s *SmartContract) GetPoolInfo(ctx common.TransactionContextInterface, poolID uint64) (*Pool, error) {
	return GetPool(ctx, poolID)
}

// GetStakes returns a user's live stake records in a pool.
func (s *SmartContract) GetStakes(ctx common.TransactionContextInterface, poolID uint64, user string) ([]*StakeRecord, error) {
	if _, err := GetPool(ctx, poolID); err != nil {
		return nil, err
	}

	return GetStakeRecords(ctx, poolID, user)
}

func accruedReward(pool *Pool, record *StakeRecord, shares *big.Int) (*big.Int, error) {
	currentIndex, err := common.ParseNonNegative("reward index", pool.RewardIndex)
	if err != nil {
		return nil, err
	}
	snapshot, err := common.ParseNonNegative("reward index snapshot", record.RewardIndexSnapshot)
	if err != nil {
		return nil, err
	}

	delta := currentIndex.Sub(currentIndex, snapshot)
	if delta.Sign() <= 0 {
		return big.NewInt(0), nil
	}

	return common.MulDiv(shares, delta, common.Precision), nil
}
