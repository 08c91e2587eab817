package router_test

import (
	"encoding/base64"
	"fmt"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/timestamppb"

	"github.com/andreitoma8/pulsefinity-contracts/common"
	"github.com/andreitoma8/pulsefinity-contracts/common/mocks"
	"github.com/andreitoma8/pulsefinity-contracts/router"
)

const (
	userAddress  = "0b87970433b22494faff1cc7a819e71bddc7880c"
	otherAddress = "1a2b3c4d5e6f708192a3b4c5d6e7f8091a2b3c4d"
	poolKey      = "stakingpool_1"
)

func SetUserID(transactionContext *mocks.TransactionContext, userID string) {
	completeId := fmt.Sprintf("x509::CN=%s,O=Organization,L=City,ST=State,C=Country", userID)
	b64ID := base64.StdEncoding.EncodeToString([]byte(completeId))

	clientIdentity := &mocks.ClientIdentity{}
	clientIdentity.GetIDReturns(b64ID, nil)
	transactionContext.GetClientIdentityReturns(clientIdentity)
}

func newTestContext(t *testing.T, userID string) *mocks.TransactionContext {
	t.Helper()

	transactionContext := &mocks.TransactionContext{}
	worldState := map[string][]byte{}

	transactionContext.PutStateWithoutKYCStub = func(s string, b []byte) error {
		worldState[s] = b
		return nil
	}
	transactionContext.GetStateStub = func(s string) ([]byte, error) {
		data, found := worldState[s]
		if found {
			return data, nil
		}
		return nil, nil
	}
	transactionContext.GetTxTimestampReturns(&timestamppb.Timestamp{Seconds: 1_000_000}, nil)
	SetUserID(transactionContext, userID)

	return transactionContext
}

func defaultThresholds() []string {
	return []string{"100", "200", "400", "800", "1600", "3200"}
}

func TestSetTierThresholds(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		signer      string
		thresholds  []string
		errContains string
	}{
		{
			name:       "success",
			signer:     common.AdminAddress,
			thresholds: defaultThresholds(),
		},
		{
			name:        "non-admin rejected",
			signer:      userAddress,
			thresholds:  defaultThresholds(),
			errContains: "not the platform admin",
		},
		{
			name:        "wrong count",
			signer:      common.AdminAddress,
			thresholds:  []string{"100", "200"},
			errContains: "InvalidTierSettings",
		},
		{
			name:        "not ascending",
			signer:      common.AdminAddress,
			thresholds:  []string{"100", "200", "200", "800", "1600", "3200"},
			errContains: "strictly ascending",
		},
		{
			name:        "zero threshold",
			signer:      common.AdminAddress,
			thresholds:  []string{"0", "200", "400", "800", "1600", "3200"},
			errContains: "invalid amount",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			transactionContext := newTestContext(t, tt.signer)
			routerContract := router.SmartContract{}

			err := routerContract.SetTierThresholds(transactionContext, tt.thresholds)
			if tt.errContains != "" {
				require.Error(t, err)
				require.Contains(t, err.Error(), tt.errContains)
				return
			}
			require.NoError(t, err)

			settings, err := router.GetTierSettings(transactionContext)
			require.NoError(t, err)
			require.Equal(t, tt.thresholds, settings.Thresholds)
			// Weights default to uniform until set explicitly.
			require.Equal(t, []uint64{1, 1, 1, 1, 1, 1}, settings.Weights)
		})
	}
}

func TestSetTierWeights(t *testing.T) {
	t.Parallel()

	transactionContext := newTestContext(t, common.AdminAddress)
	routerContract := router.SmartContract{}

	err := routerContract.SetTierWeights(transactionContext, []uint64{1, 2, 4, 8, 16, 32})
	require.ErrorIs(t, err, router.ErrTierSettingsNotSet)

	require.NoError(t, routerContract.SetTierThresholds(transactionContext, defaultThresholds()))

	err = routerContract.SetTierWeights(transactionContext, []uint64{1, 2, 4, 8, 16, 0})
	require.ErrorIs(t, err, router.ErrInvalidTierSettings)

	err = routerContract.SetTierWeights(transactionContext, []uint64{1, 2, 4, 8, 16, 32})
	require.NoError(t, err)

	settings, err := router.GetTierSettings(transactionContext)
	require.NoError(t, err)
	require.Equal(t, []uint64{1, 2, 4, 8, 16, 32}, settings.Weights)
}

func TestTierMapping(t *testing.T) {
	t.Parallel()

	transactionContext := newTestContext(t, common.AdminAddress)
	routerContract := router.SmartContract{}
	require.NoError(t, routerContract.SetTierThresholds(transactionContext, defaultThresholds()))
	require.NoError(t, router.RegisterPool(transactionContext, poolKey))

	tests := []struct {
		stake    int64
		expected router.Tier
	}{
		{0, router.TierNone},
		{99, router.TierNone},
		{100, router.TierNano},
		{399, router.TierMicro},
		{400, router.TierMega},
		{800, router.TierGiga},
		{1600, router.TierTera},
		{3199, router.TierTera},
		{3200, router.TierTeraPlus},
		{1_000_000, router.TierTeraPlus},
	}

	previousStake := big.NewInt(0)
	for _, tt := range tests {
		stake := big.NewInt(tt.stake)
		delta := new(big.Int).Sub(stake, previousStake)
		if delta.Sign() > 0 {
			require.NoError(t, router.RecordStakeChange(transactionContext, poolKey, userAddress, delta, true))
		}
		previousStake = stake

		tier, err := routerContract.GetUserTier(transactionContext, userAddress)
		require.NoError(t, err)
		require.Equal(t, uint64(tt.expected), tier, "stake %d", tt.stake)
	}
}

func TestGetPredictedTier(t *testing.T) {
	t.Parallel()

	transactionContext := newTestContext(t, common.AdminAddress)
	routerContract := router.SmartContract{}
	require.NoError(t, routerContract.SetTierThresholds(transactionContext, defaultThresholds()))
	require.NoError(t, router.RegisterPool(transactionContext, poolKey))
	require.NoError(t, router.RecordStakeChange(transactionContext, poolKey, userAddress, big.NewInt(150), true))

	tier, err := router.GetPredictedTier(transactionContext, userAddress, big.NewInt(50), true)
	require.NoError(t, err)
	require.Equal(t, router.TierMicro, tier)

	tier, err = router.GetPredictedTier(transactionContext, userAddress, big.NewInt(100), false)
	require.NoError(t, err)
	require.Equal(t, router.TierNone, tier)

	_, err = router.GetPredictedTier(transactionContext, userAddress, big.NewInt(151), false)
	require.ErrorIs(t, err, router.ErrStakeBelowZero)

	// Prediction never mutates the recorded stake.
	current, err := routerContract.GetUserTier(transactionContext, userAddress)
	require.NoError(t, err)
	require.Equal(t, uint64(router.TierNano), current)
}

func TestRecordStakeChangeMovesCounters(t *testing.T) {
	t.Parallel()

	transactionContext := newTestContext(t, common.AdminAddress)
	routerContract := router.SmartContract{}
	require.NoError(t, routerContract.SetTierThresholds(transactionContext, defaultThresholds()))
	require.NoError(t, router.RegisterPool(transactionContext, poolKey))

	err := router.RecordStakeChange(transactionContext, "stakingpool_99", userAddress, big.NewInt(100), true)
	require.Error(t, err)
	require.Contains(t, err.Error(), "unregistered pool")

	require.NoError(t, router.RecordStakeChange(transactionContext, poolKey, userAddress, big.NewInt(100), true))
	require.NoError(t, router.RecordStakeChange(transactionContext, poolKey, otherAddress, big.NewInt(500), true))

	counts, err := routerContract.GetParticipantsPerTier(transactionContext)
	require.NoError(t, err)
	require.Equal(t, uint64(1), counts["Nano"])
	require.Equal(t, uint64(1), counts["Mega"])

	// Crossing a threshold moves the user between buckets.
	require.NoError(t, router.RecordStakeChange(transactionContext, poolKey, userAddress, big.NewInt(300), true))
	counts, err = routerContract.GetParticipantsPerTier(transactionContext)
	require.NoError(t, err)
	require.Equal(t, uint64(0), counts["Nano"])
	require.Equal(t, uint64(2), counts["Mega"])

	// Leaving entirely only decrements.
	require.NoError(t, router.RecordStakeChange(transactionContext, poolKey, userAddress, big.NewInt(400), false))
	counts, err = routerContract.GetParticipantsPerTier(transactionContext)
	require.NoError(t, err)
	require.Equal(t, uint64(1), counts["Mega"])
	require.Equal(t, uint64(0), counts["Nano"])

	total, err := routerContract.GetTotalParticipants(transactionContext)
	require.NoError(t, err)
	require.Equal(t, uint64(1), total)
}

func TestAddStakingPool(t *testing.T) {
	t.Parallel()

	transactionContext := newTestContext(t, userAddress)
	routerContract := router.SmartContract{}

	err := routerContract.AddStakingPool(transactionContext, poolKey)
	require.Error(t, err)
	require.Contains(t, err.Error(), "not the platform admin")

	SetUserID(transactionContext, common.AdminAddress)
	require.NoError(t, routerContract.AddStakingPool(transactionContext, poolKey))

	err = routerContract.AddStakingPool(transactionContext, poolKey)
	require.ErrorIs(t, err, router.ErrPoolAlreadyRegistered)
}

func TestGetTierAllocation(t *testing.T) {
	t.Parallel()

	transactionContext := newTestContext(t, common.AdminAddress)
	routerContract := router.SmartContract{}
	require.NoError(t, routerContract.SetTierThresholds(transactionContext, defaultThresholds()))
	require.NoError(t, routerContract.SetTierWeights(transactionContext, []uint64{1, 2, 4, 8, 16, 32}))
	require.NoError(t, router.RegisterPool(transactionContext, poolKey))

	hardCap := big.NewInt(10_000)

	allocation, err := router.GetTierAllocation(transactionContext, hardCap, router.TierNone)
	require.NoError(t, err)
	require.Equal(t, "0", allocation.String())

	// Empty tier allocates nothing, and cannot divide by zero either.
	allocation, err = router.GetTierAllocation(transactionContext, hardCap, router.TierNano)
	require.NoError(t, err)
	require.Equal(t, "0", allocation.String())

	// One Nano (weight 1) and two Mega (weight 4): 9 weighted units.
	require.NoError(t, router.RecordStakeChange(transactionContext, poolKey, userAddress, big.NewInt(100), true))
	require.NoError(t, router.RecordStakeChange(transactionContext, poolKey, otherAddress, big.NewInt(500), true))
	require.NoError(t, router.RecordStakeChange(transactionContext, poolKey, "ffffffffffffffffffffffffffffffffffffffff", big.NewInt(500), true))

	allocation, err = router.GetTierAllocation(transactionContext, hardCap, router.TierNano)
	require.NoError(t, err)
	require.Equal(t, big.NewInt(10_000/9).String(), allocation.String())

	allocation, err = router.GetTierAllocation(transactionContext, hardCap, router.TierMega)
	require.NoError(t, err)
	require.Equal(t, big.NewInt(10_000*4/9).String(), allocation.String())
}

func TestRemoveStakingPool(t *testing.T) {
	t.Parallel()

	transactionContext := newTestContext(t, common.AdminAddress)
	routerContract := router.SmartContract{}
	require.NoError(t, routerContract.SetTierThresholds(transactionContext, defaultThresholds()))
	require.NoError(t, router.RegisterPool(transactionContext, poolKey))

	err := router.RegisterPool(transactionContext, poolKey)
	require.ErrorIs(t, err, router.ErrPoolAlreadyRegistered)

	err = routerContract.RemoveStakingPool(transactionContext, "stakingpool_99")
	require.Error(t, err)
	require.Contains(t, err.Error(), "PoolNotRegistered")

	require.NoError(t, routerContract.RemoveStakingPool(transactionContext, poolKey))

	err = router.RecordStakeChange(transactionContext, poolKey, userAddress, big.NewInt(100), true)
	require.Error(t, err)
	require.Contains(t, err.Error(), "unregistered pool")
}
