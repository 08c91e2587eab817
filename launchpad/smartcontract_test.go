package launchpad_test

import (
	"encoding/base64"
	"fmt"
	"math/big"
	"net/http"
	"testing"

	"github.com/hyperledger/fabric-protos-go/peer"
	"github.com/p2eengineering/kalp-sdk-public/response"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/timestamppb"

	"github.com/andreitoma8/pulsefinity-contracts/common"
	"github.com/andreitoma8/pulsefinity-contracts/common/mocks"
	"github.com/andreitoma8/pulsefinity-contracts/launchpad"
	"github.com/andreitoma8/pulsefinity-contracts/router"
	"github.com/andreitoma8/pulsefinity-contracts/vesting"
)

const (
	ownerAddress     = "0b87970433b22494faff1cc7a819e71bddc7880c"
	userAddress      = "1a2b3c4d5e6f708192a3b4c5d6e7f8091a2b3c4d"
	noTierAddress    = "ffffffffffffffffffffffffffffffffffffffff"
	soldToken        = "klp-736f6c64-cc"
	paymentToken     = "klp-7061796d656e74-cc"
	pairAddress      = "klp-70616972-cc"
	selfAddress      = "klp-73656c66-cc"
	baseTokenAddress = "klp-62617365-cc"
	dexAddress       = "klp-646578-cc"

	oneToken = "1000000000000000000"
	twoPrice = "2000000000000000000"
)

type tokenCall struct {
	chaincode string
	args      []string
}

type testEnv struct {
	ctx       *mocks.TransactionContext
	now       *int64
	calls     *[]tokenCall
	balanceOf map[string]string
}

func SetUserID(transactionContext *mocks.TransactionContext, userID string) {
	completeId := fmt.Sprintf("x509::CN=%s,O=Organization,L=City,ST=State,C=Country", userID)
	b64ID := base64.StdEncoding.EncodeToString([]byte(completeId))

	clientIdentity := &mocks.ClientIdentity{}
	clientIdentity.GetIDReturns(b64ID, nil)
	transactionContext.GetClientIdentityReturns(clientIdentity)
}

// newTestEnv builds an initialized platform: config and settings written,
// tier thresholds set, the payment token allow-listed, and userAddress given
// a Nano stake through a registered pool.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	transactionContext := &mocks.TransactionContext{}
	worldState := map[string][]byte{}
	now := new(int64)
	*now = 1_000_000
	calls := &[]tokenCall{}

	env := &testEnv{
		ctx:       transactionContext,
		now:       now,
		calls:     calls,
		balanceOf: map[string]string{},
	}

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
	transactionContext.GetTxTimestampStub = func() (*timestamppb.Timestamp, error) {
		return &timestamppb.Timestamp{Seconds: *now}, nil
	}
	transactionContext.GetChannelIDReturns("kalptantra")
	transactionContext.InvokeChaincodeStub = func(chaincode string, rawArgs [][]byte, channel string) response.Response {
		args := make([]string, len(rawArgs))
		for i, raw := range rawArgs {
			args[i] = string(raw)
		}
		*calls = append(*calls, tokenCall{chaincode: chaincode, args: args})

		payload := []byte("true")
		switch args[0] {
		case "BalanceOf":
			balance, found := env.balanceOf[chaincode]
			if !found {
				balance = "0"
			}
			payload = []byte(balance)
		case "GetPair":
			payload = []byte(pairAddress)
		case "AddLiquidity":
			payload = []byte(fmt.Sprintf(`{"amountA":%q,"amountB":%q,"liquidity":"999"}`, args[3], args[4]))
		}
		return response.Response{Response: peer.Response{Status: http.StatusOK, Payload: payload}}
	}

	SetUserID(transactionContext, common.AdminAddress)
	launchpadContract := launchpad.SmartContract{}
	require.NoError(t, launchpadContract.Initialize(transactionContext, selfAddress, baseTokenAddress, dexAddress))
	require.NoError(t, launchpadContract.SetSupportedPaymentToken(transactionContext, paymentToken, true))

	routerContract := router.SmartContract{}
	require.NoError(t, routerContract.SetTierThresholds(transactionContext, []string{"100", "200", "400", "800", "1600", "3200"}))
	require.NoError(t, router.RegisterPool(transactionContext, "stakingpool_1"))
	require.NoError(t, router.RecordStakeChange(transactionContext, "stakingpool_1", userAddress, big.NewInt(100), true))

	return env
}

func (env *testEnv) transfersTo(recipient string) []tokenCall {
	var transfers []tokenCall
	for _, call := range *env.calls {
		if call.args[0] == "Transfer" && call.args[1] == recipient {
			transfers = append(transfers, call)
		}
	}
	return transfers
}

func (env *testEnv) presaleParams() launchpad.SaleParams {
	return launchpad.SaleParams{
		SoldToken:           soldToken,
		PaymentToken:        paymentToken,
		Owner:               ownerAddress,
		Price:               twoPrice,
		SoftCap:             "1000",
		HardCap:             "2000",
		LiquidityBps:        6000,
		ListingPrice:        twoPrice,
		LiquidityLockupDays: 30,
		StartTimestamp:      uint64(*env.now) + 100,
		EndTimestamp:        uint64(*env.now) + 1000,
		RefundOnUndersell:   true,
	}
}

func (env *testEnv) fairLaunchParams() launchpad.SaleParams {
	return launchpad.SaleParams{
		SoldToken:           soldToken,
		PaymentToken:        paymentToken,
		Owner:               ownerAddress,
		SaleAmount:          "5000",
		Price:               "0",
		SoftCap:             "1000",
		LiquidityBps:        5000,
		LiquidityLockupDays: 30,
		StartTimestamp:      uint64(*env.now) + 100,
		EndTimestamp:        uint64(*env.now) + 1000,
	}
}

func TestInitialize(t *testing.T) {
	t.Parallel()

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
	launchpadContract := launchpad.SmartContract{}

	SetUserID(transactionContext, userAddress)
	err := launchpadContract.Initialize(transactionContext, selfAddress, baseTokenAddress, dexAddress)
	require.Error(t, err)
	require.Contains(t, err.Error(), "not the platform admin")

	SetUserID(transactionContext, common.AdminAddress)
	require.NoError(t, launchpadContract.Initialize(transactionContext, selfAddress, baseTokenAddress, dexAddress))

	settings, err := launchpad.GetSettings(transactionContext)
	require.NoError(t, err)
	require.Equal(t, uint64(250), settings.FeeBps)
	require.Equal(t, uint64(5000), settings.MinLiquidityBps)

	err = launchpadContract.Initialize(transactionContext, selfAddress, baseTokenAddress, dexAddress)
	require.Error(t, err)
	require.Contains(t, err.Error(), "already initialized")
}

func TestCreateSaleValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		mutate      func(*launchpad.SaleParams)
		errContains string
	}{
		{
			name:   "presale success",
			mutate: func(p *launchpad.SaleParams) {},
		},
		{
			name:        "start in the past",
			mutate:      func(p *launchpad.SaleParams) { p.StartTimestamp = 1 },
			errContains: "start must be in the future",
		},
		{
			name:        "end before start",
			mutate:      func(p *launchpad.SaleParams) { p.EndTimestamp = p.StartTimestamp },
			errContains: "end must come after",
		},
		{
			name:        "hard cap below twice the soft cap",
			mutate:      func(p *launchpad.SaleParams) { p.HardCap = "1999" },
			errContains: "twice the soft cap",
		},
		{
			name:        "liquidity share below minimum",
			mutate:      func(p *launchpad.SaleParams) { p.LiquidityBps = 4000 },
			errContains: "liquidity share",
		},
		{
			name:        "lockup below minimum",
			mutate:      func(p *launchpad.SaleParams) { p.LiquidityLockupDays = 10 },
			errContains: "below the minimum",
		},
		{
			name:        "unsupported payment token",
			mutate:      func(p *launchpad.SaleParams) { p.PaymentToken = "klp-deadbeef-cc" },
			errContains: "not supported",
		},
		{
			name:        "presale without listing price",
			mutate:      func(p *launchpad.SaleParams) { p.ListingPrice = "0" },
			errContains: "invalid amount for listing price",
		},
		{
			name: "vested sale with bad unit",
			mutate: func(p *launchpad.SaleParams) {
				p.Vested = true
				p.VestingUnit = 9
				p.VestingDuration = 10
			},
			errContains: "invalid vesting duration unit",
		},
		{
			name: "vested sale without duration",
			mutate: func(p *launchpad.SaleParams) {
				p.Vested = true
				p.VestingDuration = 0
			},
			errContains: "vesting duration must be positive",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			env := newTestEnv(t)
			launchpadContract := launchpad.SmartContract{}
			SetUserID(env.ctx, ownerAddress)

			params := env.presaleParams()
			tt.mutate(&params)

			saleID, err := launchpadContract.CreateSale(env.ctx, params)
			if tt.errContains != "" {
				require.Error(t, err)
				require.Contains(t, err.Error(), tt.errContains)
				return
			}
			require.NoError(t, err)
			require.Equal(t, uint64(1), saleID)

			// hardCap * price / 1e18 plus the post-fee liquidity reserve.
			sale, err := launchpadContract.GetSaleInfo(env.ctx, saleID)
			require.NoError(t, err)
			require.Equal(t, "4000", sale.TotalTokensForSale)
			require.Equal(t, "2340", sale.TotalTokensForLiquidity)
			require.False(t, sale.Enabled)

			last := (*env.calls)[len(*env.calls)-1]
			require.Equal(t, soldToken, last.chaincode)
			require.Equal(t, []string{"TransferFrom", ownerAddress, selfAddress, "6340"}, last.args)
		})
	}
}

func TestContributeGates(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	launchpadContract := launchpad.SmartContract{}
	SetUserID(env.ctx, ownerAddress)
	params := env.presaleParams()
	saleID, err := launchpadContract.CreateSale(env.ctx, params)
	require.NoError(t, err)

	SetUserID(env.ctx, userAddress)
	err = launchpadContract.Contribute(env.ctx, saleID, "100")
	require.ErrorIs(t, err, launchpad.ErrSaleNotEnabled)

	SetUserID(env.ctx, common.AdminAddress)
	require.NoError(t, launchpadContract.EnableSale(env.ctx, saleID))
	err = launchpadContract.EnableSale(env.ctx, saleID)
	require.ErrorIs(t, err, launchpad.ErrSaleAlreadyEnabled)

	// Not open before the start timestamp.
	SetUserID(env.ctx, userAddress)
	err = launchpadContract.Contribute(env.ctx, saleID, "100")
	require.ErrorIs(t, err, launchpad.ErrSaleNotOpen)

	*env.now = int64(params.StartTimestamp)

	// Sole Nano participant owns the full hard cap allocation.
	err = launchpadContract.Contribute(env.ctx, saleID, "2001")
	require.ErrorIs(t, err, launchpad.ErrAllocationExceeded)

	// A user with no tier has a zero allocation.
	SetUserID(env.ctx, noTierAddress)
	err = launchpadContract.Contribute(env.ctx, saleID, "1")
	require.ErrorIs(t, err, launchpad.ErrAllocationExceeded)

	SetUserID(env.ctx, userAddress)
	require.NoError(t, launchpadContract.Contribute(env.ctx, saleID, "500"))

	contribution, err := launchpadContract.GetUserContribution(env.ctx, saleID, userAddress)
	require.NoError(t, err)
	require.Equal(t, "500", contribution)

	sale, err := launchpadContract.GetSaleInfo(env.ctx, saleID)
	require.NoError(t, err)
	require.Equal(t, "500", sale.TotalContributed)
	require.False(t, sale.SoftCapReached)

	require.NoError(t, launchpadContract.Contribute(env.ctx, saleID, "500"))
	sale, err = launchpadContract.GetSaleInfo(env.ctx, saleID)
	require.NoError(t, err)
	require.True(t, sale.SoftCapReached)

	// Closed at the end timestamp.
	*env.now = int64(params.EndTimestamp)
	err = launchpadContract.Contribute(env.ctx, saleID, "100")
	require.ErrorIs(t, err, launchpad.ErrSaleNotOpen)
}

func TestPresaleFullLifecycle(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	launchpadContract := launchpad.SmartContract{}
	SetUserID(env.ctx, ownerAddress)
	params := env.presaleParams()
	saleID, err := launchpadContract.CreateSale(env.ctx, params)
	require.NoError(t, err)

	SetUserID(env.ctx, common.AdminAddress)
	require.NoError(t, launchpadContract.EnableSale(env.ctx, saleID))

	*env.now = int64(params.StartTimestamp)
	SetUserID(env.ctx, userAddress)

	err = launchpadContract.EndSale(env.ctx, saleID)
	require.ErrorIs(t, err, launchpad.ErrSaleCannotEnd)

	require.NoError(t, launchpadContract.Contribute(env.ctx, saleID, "2000"))

	err = launchpadContract.Claim(env.ctx, saleID)
	require.ErrorIs(t, err, launchpad.ErrSaleNotEnded)

	// The hard cap is filled, so the sale may settle before its end time.
	env.balanceOf[pairAddress] = "999"
	require.NoError(t, launchpadContract.EndSale(env.ctx, saleID))

	err = launchpadContract.EndSale(env.ctx, saleID)
	require.ErrorIs(t, err, launchpad.ErrSaleEnded)

	// fee 2.5% of 2000 = 50, net 1950, liquidity 60% = 1170, owner 780.
	fees, err := launchpad.GetFeePool(env.ctx, paymentToken)
	require.NoError(t, err)
	require.Equal(t, "50", fees.String())

	ownerTransfers := env.transfersTo(ownerAddress)
	require.Len(t, ownerTransfers, 1)
	require.Equal(t, paymentToken, ownerTransfers[0].chaincode)
	require.Equal(t, "780", ownerTransfers[0].args[2])

	// The pair position is locked for the owner, not transferred.
	schedules, err := vesting.GetSchedules(env.ctx, pairAddress, ownerAddress)
	require.NoError(t, err)
	require.Len(t, schedules, 1)
	require.Equal(t, "999", schedules[0].TotalAmount)
	require.Equal(t, uint64(30), schedules[0].Duration)

	// Liquidity legs: 1170 * listingPrice = 2340 sold tokens matched.
	var addLiquidity *tokenCall
	for i := range *env.calls {
		if (*env.calls)[i].args[0] == "AddLiquidity" {
			addLiquidity = &(*env.calls)[i]
		}
	}
	require.NotNil(t, addLiquidity)
	require.Equal(t, dexAddress, addLiquidity.chaincode)
	require.Equal(t, soldToken, addLiquidity.args[1])
	require.Equal(t, paymentToken, addLiquidity.args[2])
	require.Equal(t, "2340", addLiquidity.args[3])
	require.Equal(t, "1170", addLiquidity.args[4])

	// Claim pays contribution * price / 1e18.
	require.NoError(t, launchpadContract.Claim(env.ctx, saleID))
	userTransfers := env.transfersTo(userAddress)
	require.Len(t, userTransfers, 1)
	require.Equal(t, soldToken, userTransfers[0].chaincode)
	require.Equal(t, "4000", userTransfers[0].args[2])

	err = launchpadContract.Claim(env.ctx, saleID)
	require.ErrorIs(t, err, launchpad.ErrNothingToClaim)
}

func TestPresaleUndersellBurnsLeftover(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	launchpadContract := launchpad.SmartContract{}
	SetUserID(env.ctx, ownerAddress)
	params := env.presaleParams()
	params.RefundOnUndersell = false
	saleID, err := launchpadContract.CreateSale(env.ctx, params)
	require.NoError(t, err)

	SetUserID(env.ctx, common.AdminAddress)
	require.NoError(t, launchpadContract.EnableSale(env.ctx, saleID))

	*env.now = int64(params.StartTimestamp)
	SetUserID(env.ctx, userAddress)
	require.NoError(t, launchpadContract.Contribute(env.ctx, saleID, "1200"))

	*env.now = int64(params.EndTimestamp)
	require.NoError(t, launchpadContract.EndSale(env.ctx, saleID))

	// Unsold 1600 plus unmatched liquidity reserve 936 are burned.
	burnTransfers := env.transfersTo(common.BurnAddress)
	require.Len(t, burnTransfers, 1)
	require.Equal(t, soldToken, burnTransfers[0].chaincode)
	require.Equal(t, "2536", burnTransfers[0].args[2])
}

func TestPresaleUndersellRefundsOwner(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	launchpadContract := launchpad.SmartContract{}
	SetUserID(env.ctx, ownerAddress)
	params := env.presaleParams()
	saleID, err := launchpadContract.CreateSale(env.ctx, params)
	require.NoError(t, err)

	SetUserID(env.ctx, common.AdminAddress)
	require.NoError(t, launchpadContract.EnableSale(env.ctx, saleID))

	*env.now = int64(params.StartTimestamp)
	SetUserID(env.ctx, userAddress)
	require.NoError(t, launchpadContract.Contribute(env.ctx, saleID, "1200"))

	*env.now = int64(params.EndTimestamp)
	require.NoError(t, launchpadContract.EndSale(env.ctx, saleID))

	require.Empty(t, env.transfersTo(common.BurnAddress))

	// Leftover sold tokens first, then the owner's share of the raise.
	ownerTransfers := env.transfersTo(ownerAddress)
	require.Len(t, ownerTransfers, 2)
	require.Equal(t, soldToken, ownerTransfers[0].chaincode)
	require.Equal(t, "2536", ownerTransfers[0].args[2])
	require.Equal(t, paymentToken, ownerTransfers[1].chaincode)
	require.Equal(t, "468", ownerTransfers[1].args[2])
}

func TestFailedSaleRefunds(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	launchpadContract := launchpad.SmartContract{}
	SetUserID(env.ctx, ownerAddress)
	params := env.presaleParams()
	saleID, err := launchpadContract.CreateSale(env.ctx, params)
	require.NoError(t, err)

	SetUserID(env.ctx, common.AdminAddress)
	require.NoError(t, launchpadContract.EnableSale(env.ctx, saleID))

	*env.now = int64(params.StartTimestamp)
	SetUserID(env.ctx, userAddress)
	require.NoError(t, launchpadContract.Contribute(env.ctx, saleID, "500"))

	*env.now = int64(params.EndTimestamp)
	require.NoError(t, launchpadContract.EndSale(env.ctx, saleID))

	// The whole deposit goes back to the owner; no fee is taken.
	ownerTransfers := env.transfersTo(ownerAddress)
	require.Len(t, ownerTransfers, 1)
	require.Equal(t, soldToken, ownerTransfers[0].chaincode)
	require.Equal(t, "6340", ownerTransfers[0].args[2])

	fees, err := launchpad.GetFeePool(env.ctx, paymentToken)
	require.NoError(t, err)
	require.Equal(t, "0", fees.String())

	// Contributors refund themselves.
	require.NoError(t, launchpadContract.Claim(env.ctx, saleID))
	userTransfers := env.transfersTo(userAddress)
	require.Len(t, userTransfers, 1)
	require.Equal(t, paymentToken, userTransfers[0].chaincode)
	require.Equal(t, "500", userTransfers[0].args[2])

	err = launchpadContract.Claim(env.ctx, saleID)
	require.ErrorIs(t, err, launchpad.ErrNothingToClaim)
}

func TestFairLaunchLifecycle(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	launchpadContract := launchpad.SmartContract{}
	SetUserID(env.ctx, ownerAddress)
	params := env.fairLaunchParams()
	saleID, err := launchpadContract.CreateSale(env.ctx, params)
	require.NoError(t, err)

	// The deposit is the sale amount plus the full liquidity share:
	// 5000 + 5000 / 2 = 7500.
	sale, err := launchpadContract.GetSaleInfo(env.ctx, saleID)
	require.NoError(t, err)
	require.Equal(t, "5000", sale.TotalTokensForSale)
	require.Equal(t, "2500", sale.TotalTokensForLiquidity)

	SetUserID(env.ctx, common.AdminAddress)
	require.NoError(t, launchpadContract.EnableSale(env.ctx, saleID))

	*env.now = int64(params.StartTimestamp)

	// Fair launches have no caps, but still demand a tier.
	SetUserID(env.ctx, noTierAddress)
	err = launchpadContract.Contribute(env.ctx, saleID, "100")
	require.ErrorIs(t, err, launchpad.ErrTierRequired)

	SetUserID(env.ctx, userAddress)
	require.NoError(t, launchpadContract.Contribute(env.ctx, saleID, "2000"))

	*env.now = int64(params.EndTimestamp)
	env.balanceOf[pairAddress] = "777"
	require.NoError(t, launchpadContract.EndSale(env.ctx, saleID))

	// fee 50, net 1950, liquidity 50% = 975, matched at the sale-wide rate:
	// 975 * 5000 / 1950 = 2500 sold tokens.
	var addLiquidity *tokenCall
	for i := range *env.calls {
		if (*env.calls)[i].args[0] == "AddLiquidity" {
			addLiquidity = &(*env.calls)[i]
		}
	}
	require.NotNil(t, addLiquidity)
	require.Equal(t, "2500", addLiquidity.args[3])
	require.Equal(t, "975", addLiquidity.args[4])

	ownerTransfers := env.transfersTo(ownerAddress)
	require.Len(t, ownerTransfers, 1)
	require.Equal(t, "975", ownerTransfers[0].args[2])

	// The sole contributor takes the whole sale amount.
	require.NoError(t, launchpadContract.Claim(env.ctx, saleID))
	userTransfers := env.transfersTo(userAddress)
	require.Len(t, userTransfers, 1)
	require.Equal(t, soldToken, userTransfers[0].chaincode)
	require.Equal(t, "5000", userTransfers[0].args[2])
}

func TestVestedClaimSplitsTge(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	launchpadContract := launchpad.SmartContract{}
	SetUserID(env.ctx, ownerAddress)
	params := env.fairLaunchParams()
	params.Vested = true
	params.TgeUnlockBps = 2500
	params.VestingDuration = 10
	params.VestingUnit = uint64(vesting.UnitDays)
	saleID, err := launchpadContract.CreateSale(env.ctx, params)
	require.NoError(t, err)

	SetUserID(env.ctx, common.AdminAddress)
	require.NoError(t, launchpadContract.EnableSale(env.ctx, saleID))

	*env.now = int64(params.StartTimestamp)
	SetUserID(env.ctx, userAddress)
	require.NoError(t, launchpadContract.Contribute(env.ctx, saleID, "2000"))

	*env.now = int64(params.EndTimestamp)
	require.NoError(t, launchpadContract.EndSale(env.ctx, saleID))

	require.NoError(t, launchpadContract.Claim(env.ctx, saleID))

	// 25% of 5000 unlocks now, the rest vests over ten days.
	userTransfers := env.transfersTo(userAddress)
	require.Len(t, userTransfers, 1)
	require.Equal(t, "1250", userTransfers[0].args[2])

	schedules, err := vesting.GetSchedules(env.ctx, soldToken, userAddress)
	require.NoError(t, err)
	require.Len(t, schedules, 1)
	require.Equal(t, "3750", schedules[0].TotalAmount)
	require.Equal(t, uint64(10), schedules[0].Duration)
	require.Equal(t, uint64(*env.now), schedules[0].StartTimestamp)
}

func TestVestedClaimReleasesByWeeks(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	launchpadContract := launchpad.SmartContract{}
	SetUserID(env.ctx, ownerAddress)
	params := env.fairLaunchParams()
	params.Vested = true
	params.TgeUnlockBps = 2000
	params.VestingDuration = 10
	params.VestingUnit = uint64(vesting.UnitWeeks)
	saleID, err := launchpadContract.CreateSale(env.ctx, params)
	require.NoError(t, err)

	SetUserID(env.ctx, common.AdminAddress)
	require.NoError(t, launchpadContract.EnableSale(env.ctx, saleID))

	*env.now = int64(params.StartTimestamp)
	SetUserID(env.ctx, userAddress)
	require.NoError(t, launchpadContract.Contribute(env.ctx, saleID, "2000"))

	*env.now = int64(params.EndTimestamp)
	require.NoError(t, launchpadContract.EndSale(env.ctx, saleID))
	require.NoError(t, launchpadContract.Claim(env.ctx, saleID))

	// 20% of 5000 unlocks now, the rest in weekly steps.
	userTransfers := env.transfersTo(userAddress)
	require.Len(t, userTransfers, 1)
	require.Equal(t, "1000", userTransfers[0].args[2])

	vestingContract := vesting.SmartContract{}
	claimTime := *env.now

	// Three whole weeks in: 3/10 of the remainder.
	*env.now = claimTime + 3*common.SecondsPerWeek
	releasable, err := vestingContract.GetReleasableAmount(env.ctx, soldToken, userAddress)
	require.NoError(t, err)
	require.Equal(t, "1200", releasable)

	// The whole vested remainder is out once ten weeks elapsed.
	*env.now = claimTime + 10*common.SecondsPerWeek
	releasable, err = vestingContract.GetReleasableAmount(env.ctx, soldToken, userAddress)
	require.NoError(t, err)
	require.Equal(t, "4000", releasable)

	require.NoError(t, vestingContract.Release(env.ctx, soldToken, userAddress))
	userTransfers = env.transfersTo(userAddress)
	require.Len(t, userTransfers, 2)
	require.Equal(t, soldToken, userTransfers[1].chaincode)
	require.Equal(t, "4000", userTransfers[1].args[2])
}

func TestEndSaleRequiresEnabled(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	launchpadContract := launchpad.SmartContract{}
	SetUserID(env.ctx, ownerAddress)
	params := env.presaleParams()
	saleID, err := launchpadContract.CreateSale(env.ctx, params)
	require.NoError(t, err)

	// A sale that never opened cannot be settled, even past its window.
	*env.now = int64(params.EndTimestamp)
	err = launchpadContract.EndSale(env.ctx, saleID)
	require.ErrorIs(t, err, launchpad.ErrSaleNotEnabled)

	// Enabling it late and ending on the failure path recovers the deposit.
	SetUserID(env.ctx, common.AdminAddress)
	require.NoError(t, launchpadContract.EnableSale(env.ctx, saleID))
	require.NoError(t, launchpadContract.EndSale(env.ctx, saleID))

	ownerTransfers := env.transfersTo(ownerAddress)
	require.Len(t, ownerTransfers, 1)
	require.Equal(t, soldToken, ownerTransfers[0].chaincode)
	require.Equal(t, "6340", ownerTransfers[0].args[2])
}

func TestWithdrawFees(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	launchpadContract := launchpad.SmartContract{}
	SetUserID(env.ctx, ownerAddress)
	params := env.presaleParams()
	saleID, err := launchpadContract.CreateSale(env.ctx, params)
	require.NoError(t, err)

	SetUserID(env.ctx, common.AdminAddress)
	require.NoError(t, launchpadContract.EnableSale(env.ctx, saleID))

	*env.now = int64(params.StartTimestamp)
	SetUserID(env.ctx, userAddress)
	require.NoError(t, launchpadContract.Contribute(env.ctx, saleID, "2000"))
	require.NoError(t, launchpadContract.EndSale(env.ctx, saleID))

	_, err = launchpadContract.WithdrawFees(env.ctx, paymentToken)
	require.Error(t, err)
	require.Contains(t, err.Error(), "not the platform admin")

	SetUserID(env.ctx, common.AdminAddress)
	fees, err := launchpadContract.WithdrawFees(env.ctx, paymentToken)
	require.NoError(t, err)
	require.Equal(t, "50", fees)

	adminTransfers := env.transfersTo(common.AdminAddress)
	require.Len(t, adminTransfers, 1)
	require.Equal(t, paymentToken, adminTransfers[0].chaincode)
	require.Equal(t, "50", adminTransfers[0].args[2])

	_, err = launchpadContract.WithdrawFees(env.ctx, paymentToken)
	require.ErrorIs(t, err, launchpad.ErrNoFeesToWithdraw)
}

func TestSetSupportedPaymentToken(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	launchpadContract := launchpad.SmartContract{}

	SetUserID(env.ctx, userAddress)
	err := launchpadContract.SetSupportedPaymentToken(env.ctx, paymentToken, true)
	require.Error(t, err)
	require.Contains(t, err.Error(), "not the platform admin")

	SetUserID(env.ctx, common.AdminAddress)
	err = launchpadContract.SetSupportedPaymentToken(env.ctx, "bogus", true)
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid token address")

	require.NoError(t, launchpadContract.SetSupportedPaymentToken(env.ctx, paymentToken, false))

	SetUserID(env.ctx, ownerAddress)
	_, err = launchpadContract.CreateSale(env.ctx, env.presaleParams())
	require.ErrorIs(t, err, launchpad.ErrPaymentTokenUnsupported)

	// The native base token needs no listing.
	params := env.presaleParams()
	params.PaymentToken = ""
	_, err = launchpadContract.CreateSale(env.ctx, params)
	require.NoError(t, err)
}
