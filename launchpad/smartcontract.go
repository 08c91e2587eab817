package launchpad

import (
	"fmt"
	"math/big"
	"net/http"

	"github.com/andreitoma8/pulsefinity-contracts/common"
	"github.com/andreitoma8/pulsefinity-contracts/dex"
	"github.com/andreitoma8/pulsefinity-contracts/router"
	"github.com/andreitoma8/pulsefinity-contracts/token"
	"github.com/andreitoma8/pulsefinity-contracts/vesting"
)

const (
	defaultFeeBps          = 250
	defaultMinLiquidityBps = 5000
	defaultMinLockupDays   = 30
)

type SmartContract struct{}

// Initialize writes the chaincode-wide wiring and the platform sale
// settings. Admin only, once.
func (s *SmartContract) Initialize(ctx common.TransactionContextInterface, selfAddress, baseTokenAddress, dexAddress string) error {
	if err := common.IsSignerAdmin(ctx); err != nil {
		return err
	}

	initialized, err := common.IsInitialized(ctx)
	if err != nil {
		return err
	}
	if initialized {
		return common.NewCustomError(http.StatusConflict, "contract is already initialized", nil)
	}

	if err := common.SetConfig(ctx, &common.Config{
		SelfAddress:      selfAddress,
		BaseTokenAddress: baseTokenAddress,
		DexAddress:       dexAddress,
	}); err != nil {
		return err
	}

	return SetSettings(ctx, &Settings{
		FeeBps:          defaultFeeBps,
		MinLiquidityBps: defaultMinLiquidityBps,
		MinLockupDays:   defaultMinLockupDays,
	})
}

// CreateSale validates the sale parameters, reserves the sale and liquidity
// token amounts from the caller, and stores the sale disabled. The caller
// funds the sale; the owner receives the proceeds.
func (s *SmartContract) CreateSale(ctx common.TransactionContextInterface, params SaleParams) (uint64, error) {
	caller, err := common.GetUserID(ctx)
	if err != nil {
		return 0, common.NewCustomError(http.StatusBadRequest, "failed to get client id", err)
	}

	settings, err := GetSettings(ctx)
	if err != nil {
		return 0, err
	}

	now, err := common.TxTime(ctx)
	if err != nil {
		return 0, err
	}

	totalForSale, err := validateParams(ctx, &params, settings, now)
	if err != nil {
		return 0, err
	}

	sale := &Sale{
		Params:             params,
		TotalContributed:   "0",
		TotalTokensForSale: totalForSale.String(),
	}

	// A presale matches liquidity at the listing rate out of the post-fee
	// raise. A fair launch matches at the sale-wide rate, so its reserve is
	// the full liquidity share of the sale amount and always covers the
	// settlement leg.
	var liquidityReserve *big.Int
	if sale.IsPresale() {
		liquidityReserve = common.ApplyBps(common.SubBps(totalForSale, settings.FeeBps), params.LiquidityBps)
	} else {
		liquidityReserve = common.ApplyBps(totalForSale, params.LiquidityBps)
	}
	sale.TotalTokensForLiquidity = liquidityReserve.String()

	count, err := GetSaleCount(ctx)
	if err != nil {
		return 0, err
	}
	saleID := count + 1

	if err := SetSale(ctx, saleID, sale); err != nil {
		return 0, err
	}
	if err := setSaleCount(ctx, saleID); err != nil {
		return 0, err
	}

	deposit := new(big.Int).Add(totalForSale, liquidityReserve)
	if err := token.NewClient(params.SoldToken).Deposit(ctx, caller, deposit); err != nil {
		return 0, err
	}

	return saleID, EmitSaleCreated(ctx, saleID, params.Owner, params.SoldToken)
}

// EnableSale opens the sale for contributions. Admin only.
func (s *SmartContract) EnableSale(ctx common.TransactionContextInterface, saleID uint64) error {
	if err := common.IsSignerAdmin(ctx); err != nil {
		return err
	}

	sale, err := GetSale(ctx, saleID)
	if err != nil {
		return err
	}
	if sale.Enabled {
		return common.NewCustomError(http.StatusConflict, fmt.Sprintf("sale %d is already enabled", saleID), ErrSaleAlreadyEnabled)
	}
	if sale.Ended {
		return common.NewCustomError(http.StatusConflict, fmt.Sprintf("sale %d has ended", saleID), ErrSaleEnded)
	}

	sale.Enabled = true
	if err := SetSale(ctx, saleID, sale); err != nil {
		return err
	}

	return EmitSaleEnabled(ctx, saleID)
}

// Contribute records a payment-token contribution. Presales cap each user at
// their tier allocation of the hard cap; fair launches only require a tier.
// The soft-cap flag is sticky once set.
func (s *SmartContract) Contribute(ctx common.TransactionContextInterface, saleID uint64, amount string) error {
	caller, err := common.GetUserID(ctx)
	if err != nil {
		return common.NewCustomError(http.StatusBadRequest, "failed to get client id", err)
	}

	sale, err := GetSale(ctx, saleID)
	if err != nil {
		return err
	}
	if !sale.Enabled {
		return common.NewCustomError(http.StatusConflict, fmt.Sprintf("sale %d is not enabled", saleID), ErrSaleNotEnabled)
	}
	if sale.Ended {
		return common.NewCustomError(http.StatusConflict, fmt.Sprintf("sale %d has ended", saleID), ErrSaleEnded)
	}

	now, err := common.TxTime(ctx)
	if err != nil {
		return err
	}
	if now < sale.Params.StartTimestamp || now >= sale.Params.EndTimestamp {
		return common.NewCustomError(http.StatusConflict, fmt.Sprintf("sale %d is not open at %d", saleID, now), ErrSaleNotOpen)
	}

	contributionAmount, err := common.ParseAmount("contribution", amount)
	if err != nil {
		return err
	}

	tier, err := router.GetTier(ctx, caller)
	if err != nil {
		return err
	}

	contribution, err := GetContribution(ctx, saleID, caller)
	if err != nil {
		return err
	}
	totalContributed, err := common.ParseNonNegative("total contributed", sale.TotalContributed)
	if err != nil {
		return err
	}

	if sale.IsPresale() {
		hardCap, err := common.ParseAmount("hard cap", sale.Params.HardCap)
		if err != nil {
			return err
		}

		allocation, err := router.GetTierAllocation(ctx, hardCap, tier)
		if err != nil {
			return err
		}
		if new(big.Int).Add(contribution, contributionAmount).Cmp(allocation) > 0 {
			return common.NewCustomError(http.StatusForbidden,
				fmt.Sprintf("contribution exceeds tier allocation %s", allocation), ErrAllocationExceeded)
		}
		if new(big.Int).Add(totalContributed, contributionAmount).Cmp(hardCap) > 0 {
			return common.NewCustomError(http.StatusConflict, "contribution exceeds the hard cap", ErrHardCapExceeded)
		}
	} else if tier == router.TierNone {
		return common.NewCustomError(http.StatusForbidden, "fair launch requires a staking tier", ErrTierRequired)
	}

	contribution.Add(contribution, contributionAmount)
	totalContributed.Add(totalContributed, contributionAmount)
	sale.TotalContributed = totalContributed.String()

	if !sale.SoftCapReached {
		softCap, err := common.ParseAmount("soft cap", sale.Params.SoftCap)
		if err != nil {
			return err
		}
		if totalContributed.Cmp(softCap) >= 0 {
			sale.SoftCapReached = true
		}
	}

	if err := setContribution(ctx, saleID, caller, contribution); err != nil {
		return err
	}
	if err := SetSale(ctx, saleID, sale); err != nil {
		return err
	}

	paymentAsset, err := token.Resolve(ctx, sale.Params.PaymentToken)
	if err != nil {
		return err
	}
	if err := paymentAsset.Client().Deposit(ctx, caller, contributionAmount); err != nil {
		return err
	}

	return EmitContributionMade(ctx, saleID, caller, contributionAmount.String())
}

// EndSale settles the sale once its end time passed, or early when a presale
// fills its hard cap. On success the raise is split into fee, liquidity and
// owner payout; on failure the sold tokens go back to the owner and
// contributors refund themselves through Claim.
func (s *SmartContract) EndSale(ctx common.TransactionContextInterface, saleID uint64) error {
	sale, err := GetSale(ctx, saleID)
	if err != nil {
		return err
	}
	if sale.Ended {
		return common.NewCustomError(http.StatusConflict, fmt.Sprintf("sale %d has already ended", saleID), ErrSaleEnded)
	}
	if !sale.Enabled {
		return common.NewCustomError(http.StatusConflict, fmt.Sprintf("sale %d was never enabled", saleID), ErrSaleNotEnabled)
	}

	now, err := common.TxTime(ctx)
	if err != nil {
		return err
	}

	totalContributed, err := common.ParseNonNegative("total contributed", sale.TotalContributed)
	if err != nil {
		return err
	}

	hardCapFilled := false
	if sale.IsPresale() {
		hardCap, err := common.ParseAmount("hard cap", sale.Params.HardCap)
		if err != nil {
			return err
		}
		hardCapFilled = totalContributed.Cmp(hardCap) == 0
	}
	if now < sale.Params.EndTimestamp && !hardCapFilled {
		return common.NewCustomError(http.StatusConflict, fmt.Sprintf("sale %d cannot end yet", saleID), ErrSaleCannotEnd)
	}

	sale.Ended = true

	if !sale.SoftCapReached {
		return settleFailedSale(ctx, saleID, sale)
	}

	return settleSuccessfulSale(ctx, saleID, sale, totalContributed, now)
}

func settleFailedSale(ctx common.TransactionContextInterface, saleID uint64, sale *Sale) error {
	if err := SetSale(ctx, saleID, sale); err != nil {
		return err
	}

	totalForSale, err := common.ParseNonNegative("tokens for sale", sale.TotalTokensForSale)
	if err != nil {
		return err
	}
	liquidityReserve, err := common.ParseNonNegative("liquidity reserve", sale.TotalTokensForLiquidity)
	if err != nil {
		return err
	}

	deposit := new(big.Int).Add(totalForSale, liquidityReserve)
	if deposit.Sign() > 0 {
		if err := token.NewClient(sale.Params.SoldToken).Payout(ctx, sale.Params.Owner, deposit); err != nil {
			return err
		}
	}

	return EmitSaleEnded(ctx, saleID, false, sale.TotalContributed)
}

func settleSuccessfulSale(ctx common.TransactionContextInterface, saleID uint64, sale *Sale, totalContributed *big.Int, now uint64) error {
	settings, err := GetSettings(ctx)
	if err != nil {
		return err
	}
	config, err := common.GetConfig(ctx)
	if err != nil {
		return err
	}
	paymentAsset, err := token.Resolve(ctx, sale.Params.PaymentToken)
	if err != nil {
		return err
	}

	fee := common.ApplyBps(totalContributed, settings.FeeBps)
	netRaised := new(big.Int).Sub(totalContributed, fee)
	liquidityPayment := common.ApplyBps(netRaised, sale.Params.LiquidityBps)
	ownerPayout := new(big.Int).Sub(netRaised, liquidityPayment)

	var tokensForLiquidity *big.Int
	if sale.IsPresale() {
		listingPrice, err := common.ParseAmount("listing price", sale.Params.ListingPrice)
		if err != nil {
			return err
		}
		tokensForLiquidity = common.MulDiv(liquidityPayment, listingPrice, common.Precision)
	} else {
		saleAmount, err := common.ParseAmount("sale amount", sale.Params.SaleAmount)
		if err != nil {
			return err
		}
		tokensForLiquidity = common.MulDiv(liquidityPayment, saleAmount, netRaised)
	}

	sale.LiquidityUnlockTimestamp = now + sale.Params.LiquidityLockupDays*common.SecondsPerDay
	if err := SetSale(ctx, saleID, sale); err != nil {
		return err
	}

	feePool, err := GetFeePool(ctx, paymentAsset.Address)
	if err != nil {
		return err
	}
	if err := setFeePool(ctx, paymentAsset.Address, feePool.Add(feePool, fee)); err != nil {
		return err
	}

	// State is final before the external legs so a mid-settlement failure
	// aborts the whole transaction instead of double-spending. The dex pulls
	// both legs out of custody; the pair position is booked back below.
	if err := token.SubCustodyLiability(ctx, sale.Params.SoldToken, tokensForLiquidity); err != nil {
		return err
	}
	if err := token.SubCustodyLiability(ctx, paymentAsset.Address, liquidityPayment); err != nil {
		return err
	}

	soldClient := token.NewClient(sale.Params.SoldToken)
	if err := soldClient.Approve(ctx, config.DexAddress, tokensForLiquidity); err != nil {
		return err
	}
	if err := paymentAsset.Client().Approve(ctx, config.DexAddress, liquidityPayment); err != nil {
		return err
	}

	venue := dex.NewClient(config.DexAddress)
	if _, err := venue.AddLiquidity(ctx,
		sale.Params.SoldToken, paymentAsset.Address,
		tokensForLiquidity, liquidityPayment,
		tokensForLiquidity, liquidityPayment,
		config.SelfAddress, now,
	); err != nil {
		return err
	}

	pair, err := venue.GetPair(ctx, sale.Params.SoldToken, paymentAsset.Address)
	if err != nil {
		return err
	}
	pairBalance, err := token.NewClient(pair).BalanceOf(ctx, config.SelfAddress)
	if err != nil {
		return err
	}
	if pairBalance.Sign() > 0 {
		if err := token.AddCustodyLiability(ctx, pair, pairBalance); err != nil {
			return err
		}
		if err := vesting.AddSchedule(ctx, pair, sale.Params.Owner, now, sale.Params.LiquidityLockupDays, vesting.UnitDays, pairBalance); err != nil {
			return err
		}
	}

	if sale.IsPresale() {
		if err := settleUnsoldTokens(ctx, sale, totalContributed, tokensForLiquidity, soldClient); err != nil {
			return err
		}
	}

	if ownerPayout.Sign() > 0 {
		if err := paymentAsset.Client().Payout(ctx, sale.Params.Owner, ownerPayout); err != nil {
			return err
		}
	}

	return EmitSaleEnded(ctx, saleID, true, sale.TotalContributed)
}

// settleUnsoldTokens returns (or burns) the presale deposit that neither
// contributors nor the liquidity pairing will consume.
func settleUnsoldTokens(ctx common.TransactionContextInterface, sale *Sale, totalContributed, tokensForLiquidity *big.Int, soldClient *token.Client) error {
	price, err := common.ParseAmount("price", sale.Params.Price)
	if err != nil {
		return err
	}
	totalForSale, err := common.ParseNonNegative("tokens for sale", sale.TotalTokensForSale)
	if err != nil {
		return err
	}
	liquidityReserve, err := common.ParseNonNegative("liquidity reserve", sale.TotalTokensForLiquidity)
	if err != nil {
		return err
	}

	tokensSold := common.MulDiv(totalContributed, price, common.Precision)
	leftover := new(big.Int).Sub(totalForSale, tokensSold)
	leftover.Add(leftover, new(big.Int).Sub(liquidityReserve, tokensForLiquidity))
	if leftover.Sign() <= 0 {
		return nil
	}

	recipient := common.BurnAddress
	if sale.Params.RefundOnUndersell {
		recipient = sale.Params.Owner
	}

	return soldClient.Payout(ctx, recipient, leftover)
}

// Claim pays out the caller's position after the sale ended: the bought
// tokens (optionally TGE slice plus vesting schedule) on success, the full
// contribution back on failure. The position is zeroed before any transfer,
// so a second claim finds nothing.
func (s *SmartContract) Claim(ctx common.TransactionContextInterface, saleID uint64) error {
	caller, err := common.GetUserID(ctx)
	if err != nil {
		return common.NewCustomError(http.StatusBadRequest, "failed to get client id", err)
	}

	sale, err := GetSale(ctx, saleID)
	if err != nil {
		return err
	}
	if !sale.Ended {
		return common.NewCustomError(http.StatusConflict, fmt.Sprintf("sale %d has not ended", saleID), ErrSaleNotEnded)
	}

	contribution, err := GetContribution(ctx, saleID, caller)
	if err != nil {
		return err
	}
	if contribution.Sign() == 0 {
		return fmt.Errorf("%w: sale %d", ErrNothingToClaim, saleID)
	}

	if err := setContribution(ctx, saleID, caller, big.NewInt(0)); err != nil {
		return err
	}

	if !sale.SoftCapReached {
		paymentAsset, err := token.Resolve(ctx, sale.Params.PaymentToken)
		if err != nil {
			return err
		}
		if err := paymentAsset.Client().Payout(ctx, caller, contribution); err != nil {
			return err
		}

		return EmitTokensRefunded(ctx, saleID, caller, contribution.String())
	}

	var tokensBought *big.Int
	if sale.IsPresale() {
		price, err := common.ParseAmount("price", sale.Params.Price)
		if err != nil {
			return err
		}
		tokensBought = common.MulDiv(contribution, price, common.Precision)
	} else {
		saleAmount, err := common.ParseAmount("sale amount", sale.Params.SaleAmount)
		if err != nil {
			return err
		}
		totalContributed, err := common.ParseAmount("total contributed", sale.TotalContributed)
		if err != nil {
			return err
		}
		tokensBought = common.MulDiv(contribution, saleAmount, totalContributed)
	}
	if tokensBought.Sign() == 0 {
		return fmt.Errorf("%w: sale %d", ErrNothingToClaim, saleID)
	}

	soldClient := token.NewClient(sale.Params.SoldToken)
	if !sale.Params.Vested {
		if err := soldClient.Payout(ctx, caller, tokensBought); err != nil {
			return err
		}

		return EmitTokensClaimed(ctx, saleID, caller, tokensBought.String())
	}

	now, err := common.TxTime(ctx)
	if err != nil {
		return err
	}

	tgeAmount := common.ApplyBps(tokensBought, sale.Params.TgeUnlockBps)
	vestedAmount := new(big.Int).Sub(tokensBought, tgeAmount)

	if vestedAmount.Sign() > 0 {
		vestingStart := sale.Params.VestingStart
		if vestingStart < now {
			vestingStart = now
		}
		if err := vesting.AddSchedule(ctx, sale.Params.SoldToken, caller, vestingStart, sale.Params.VestingDuration, sale.VestingUnit(), vestedAmount); err != nil {
			return err
		}
	}
	if tgeAmount.Sign() > 0 {
		if err := soldClient.Payout(ctx, caller, tgeAmount); err != nil {
			return err
		}
	}

	return EmitTokensClaimed(ctx, saleID, caller, tokensBought.String())
}

// WithdrawFees sweeps the accumulated platform fees for one token to the
// administrator. Admin only.
func (s *SmartContract) WithdrawFees(ctx common.TransactionContextInterface, tokenAddress string) (string, error) {
	if err := common.IsSignerAdmin(ctx); err != nil {
		return "0", err
	}

	asset, err := token.Resolve(ctx, tokenAddress)
	if err != nil {
		return "0", err
	}

	fees, err := GetFeePool(ctx, asset.Address)
	if err != nil {
		return "0", err
	}
	if fees.Sign() == 0 {
		return "0", fmt.Errorf("%w: %s", ErrNoFeesToWithdraw, asset.Address)
	}

	if err := setFeePool(ctx, asset.Address, big.NewInt(0)); err != nil {
		return "0", err
	}

	if err := asset.Client().Payout(ctx, common.AdminAddress, fees); err != nil {
		return "0", err
	}

	return fees.String(), nil
}

// SetSupportedPaymentToken allow-lists (or delists) a payment token for
// future sales. Admin only; the native base token needs no listing.
func (s *SmartContract) SetSupportedPaymentToken(ctx common.TransactionContextInterface, tokenAddress string, supported bool) error {
	if err := common.IsSignerAdmin(ctx); err != nil {
		return err
	}

	if !common.IsContractAddressValid(tokenAddress) {
		return common.NewCustomError(http.StatusBadRequest, fmt.Sprintf("invalid token address: %s", tokenAddress), nil)
	}

	return setPaymentTokenSupported(ctx, tokenAddress, supported)
}

// GetSaleInfo returns the full sale state.
func (s *SmartContract) GetSaleInfo(ctx common.TransactionContextInterface, saleID uint64) (*Sale, error) {
	return GetSale(ctx, saleID)
}

// GetUserContribution returns a user's open contribution to a sale.
func (s *SmartContract) GetUserContribution(ctx common.TransactionContextInterface, saleID uint64, user string) (string, error) {
	if _, err := GetSale(ctx, saleID); err != nil {
		return "0", err
	}

	contribution, err := GetContribution(ctx, saleID, user)
	if err != nil {
		return "0", err
	}

	return contribution.String(), nil
}

// validateParams enforces the creation rules and returns the sale-token
// amount to reserve for buyers.
func validateParams(ctx common.TransactionContextInterface, params *SaleParams, settings *Settings, now uint64) (*big.Int, error) {
	if !common.IsContractAddressValid(params.SoldToken) {
		return nil, common.NewCustomError(http.StatusBadRequest, fmt.Sprintf("invalid sold token address: %s", params.SoldToken), nil)
	}
	if !common.IsUserAddressValid(params.Owner) {
		return nil, common.NewCustomError(http.StatusBadRequest, fmt.Sprintf("invalid sale owner address: %s", params.Owner), nil)
	}

	supported, err := isPaymentTokenSupported(ctx, params.PaymentToken)
	if err != nil {
		return nil, err
	}
	if !supported {
		return nil, common.NewCustomError(http.StatusBadRequest,
			fmt.Sprintf("payment token %s is not supported", params.PaymentToken), ErrPaymentTokenUnsupported)
	}

	if params.LiquidityBps < settings.MinLiquidityBps || params.LiquidityBps > common.BpsDenominator {
		return nil, common.NewCustomError(http.StatusBadRequest,
			fmt.Sprintf("liquidity share %d out of range [%d, %d]", params.LiquidityBps, settings.MinLiquidityBps, common.BpsDenominator), nil)
	}
	if params.LiquidityLockupDays < settings.MinLockupDays {
		return nil, common.NewCustomError(http.StatusBadRequest,
			fmt.Sprintf("liquidity lockup %d is below the minimum %d days", params.LiquidityLockupDays, settings.MinLockupDays), nil)
	}

	if params.StartTimestamp <= now {
		return nil, common.NewCustomError(http.StatusBadRequest, "sale start must be in the future", nil)
	}
	if params.EndTimestamp <= params.StartTimestamp {
		return nil, common.NewCustomError(http.StatusBadRequest, "sale end must come after its start", nil)
	}

	softCap, err := common.ParseAmount("soft cap", params.SoftCap)
	if err != nil {
		return nil, err
	}

	if params.Vested {
		if params.TgeUnlockBps > common.BpsDenominator {
			return nil, common.NewCustomError(http.StatusBadRequest, fmt.Sprintf("invalid TGE unlock share: %d", params.TgeUnlockBps), nil)
		}
		if !vesting.IsValidDurationUnit(params.VestingUnit) {
			return nil, common.NewCustomError(http.StatusBadRequest, fmt.Sprintf("invalid vesting duration unit: %d", params.VestingUnit), nil)
		}
		if params.VestingDuration == 0 {
			return nil, common.NewCustomError(http.StatusBadRequest, "vesting duration must be positive", nil)
		}
	}

	price, err := common.ParseNonNegative("price", params.Price)
	if err != nil {
		return nil, err
	}

	if price.Sign() > 0 {
		hardCap, err := common.ParseAmount("hard cap", params.HardCap)
		if err != nil {
			return nil, err
		}
		if hardCap.Cmp(new(big.Int).Mul(softCap, big.NewInt(2))) < 0 {
			return nil, common.NewCustomError(http.StatusBadRequest, "hard cap must be at least twice the soft cap", nil)
		}
		if _, err := common.ParseAmount("listing price", params.ListingPrice); err != nil {
			return nil, err
		}

		return common.MulDiv(hardCap, price, common.Precision), nil
	}

	return common.ParseAmount("sale amount", params.SaleAmount)
}
