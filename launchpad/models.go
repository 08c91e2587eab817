package launchpad

import (
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"strconv"

	"github.com/andreitoma8/pulsefinity-contracts/common"
	"github.com/andreitoma8/pulsefinity-contracts/vesting"
)

// SaleParams are the immutable parameters supplied at creation. Price "0"
// is the fair-launch sentinel; a positive price selects presale mode. An
// empty payment token selects the native base token.
type SaleParams struct {
	SoldToken           string `json:"soldToken"`
	PaymentToken        string `json:"paymentToken"`
	Owner               string `json:"owner"`
	SaleAmount          string `json:"saleAmount"`
	Price               string `json:"price"`
	SoftCap             string `json:"softCap"`
	HardCap             string `json:"hardCap"`
	LiquidityBps        uint64 `json:"liquidityBps"`
	ListingPrice        string `json:"listingPrice"`
	LiquidityLockupDays uint64 `json:"liquidityLockupDays"`
	StartTimestamp      uint64 `json:"startTimestamp"`
	EndTimestamp        uint64 `json:"endTimestamp"`
	RefundOnUndersell   bool   `json:"refundOnUndersell"`
	Vested              bool   `json:"vested"`
	TgeUnlockBps        uint64 `json:"tgeUnlockBps"`
	VestingStart        uint64 `json:"vestingStart"`
	VestingDuration     uint64 `json:"vestingDuration"`
	VestingUnit         uint64 `json:"vestingUnit"`
}

// Sale is the full lifecycle state. Params never change after creation;
// the mutable block is written by Contribute and finalized by EndSale.
type Sale struct {
	Params SaleParams `json:"params"`

	Enabled        bool `json:"enabled"`
	SoftCapReached bool `json:"softCapReached"`
	Ended          bool `json:"ended"`

	TotalContributed         string `json:"totalContributed"`
	TotalTokensForSale       string `json:"totalTokensForSale"`
	TotalTokensForLiquidity  string `json:"totalTokensForLiquidity"`
	LiquidityUnlockTimestamp uint64 `json:"liquidityUnlockTimestamp"`
}

// IsPresale reports presale mode (explicit price) vs fair launch.
func (s *Sale) IsPresale() bool {
	return s.Params.Price != "" && s.Params.Price != "0"
}

func (s *Sale) VestingUnit() vesting.DurationUnit {
	return vesting.DurationUnit(s.Params.VestingUnit)
}

// Settings are the platform-level sale parameters written at Initialize.
type Settings struct {
	FeeBps          uint64 `json:"feeBps"`
	MinLiquidityBps uint64 `json:"minLiquidityBps"`
	MinLockupDays   uint64 `json:"minLockupDays"`
}

const (
	saleCountKey = "salecount"
	settingsKey  = "launchpad_settings"
)

func saleKey(saleID uint64) string {
	return fmt.Sprintf("sale_%d", saleID)
}

func contributionKey(saleID uint64, user string) string {
	return fmt.Sprintf("contribution_%d_%s", saleID, user)
}

func feePoolKey(tokenAddress string) string {
	return fmt.Sprintf("feepool_%s", tokenAddress)
}

func paymentTokenKey(tokenAddress string) string {
	return fmt.Sprintf("paymenttoken_%s", tokenAddress)
}

func GetSettings(ctx common.TransactionContextInterface) (*Settings, error) {
	settingsAsBytes, err := ctx.GetState(settingsKey)
	if err != nil {
		return nil, common.NewCustomError(http.StatusInternalServerError, "failed to get launchpad settings", err)
	}
	if settingsAsBytes == nil {
		return nil, common.NewCustomError(http.StatusConflict, "launchpad is not initialized", nil)
	}

	var settings Settings
	if err := json.Unmarshal(settingsAsBytes, &settings); err != nil {
		return nil, common.NewCustomError(http.StatusInternalServerError, "failed to unmarshal launchpad settings", err)
	}

	return &settings, nil
}

func SetSettings(ctx common.TransactionContextInterface, settings *Settings) error {
	settingsAsBytes, err := json.Marshal(settings)
	if err != nil {
		return common.NewCustomError(http.StatusInternalServerError, "failed to marshal launchpad settings", err)
	}

	if err := ctx.PutStateWithoutKYC(settingsKey, settingsAsBytes); err != nil {
		return common.NewCustomError(http.StatusInternalServerError, "failed to set launchpad settings", err)
	}

	return nil
}

func GetSaleCount(ctx common.TransactionContextInterface) (uint64, error) {
	countAsBytes, err := ctx.GetState(saleCountKey)
	if err != nil {
		return 0, common.NewCustomError(http.StatusInternalServerError, "failed to get sale count", err)
	}
	if countAsBytes == nil {
		return 0, nil
	}

	count, err := strconv.ParseUint(string(countAsBytes), 10, 64)
	if err != nil {
		return 0, common.NewCustomError(http.StatusInternalServerError, "failed to parse sale count", err)
	}

	return count, nil
}

func setSaleCount(ctx common.TransactionContextInterface, count uint64) error {
	if err := ctx.PutStateWithoutKYC(saleCountKey, []byte(strconv.FormatUint(count, 10))); err != nil {
		return common.NewCustomError(http.StatusInternalServerError, "failed to set sale count", err)
	}

	return nil
}

func GetSale(ctx common.TransactionContextInterface, saleID uint64) (*Sale, error) {
	saleAsBytes, err := ctx.GetState(saleKey(saleID))
	if err != nil {
		return nil, common.NewCustomError(http.StatusInternalServerError, fmt.Sprintf("failed to get sale %d", saleID), err)
	}
	if saleAsBytes == nil {
		return nil, fmt.Errorf("%w: %d", ErrSaleNotFound, saleID)
	}

	var sale Sale
	if err := json.Unmarshal(saleAsBytes, &sale); err != nil {
		return nil, common.NewCustomError(http.StatusInternalServerError, fmt.Sprintf("failed to unmarshal sale %d", saleID), err)
	}

	return &sale, nil
}

func SetSale(ctx common.TransactionContextInterface, saleID uint64, sale *Sale) error {
	saleAsBytes, err := json.Marshal(sale)
	if err != nil {
		return common.NewCustomError(http.StatusInternalServerError, fmt.Sprintf("failed to marshal sale %d", saleID), err)
	}

	if err := ctx.PutStateWithoutKYC(saleKey(saleID), saleAsBytes); err != nil {
		return common.NewCustomError(http.StatusInternalServerError, fmt.Sprintf("failed to set sale %d", saleID), err)
	}

	return nil
}

func GetContribution(ctx common.TransactionContextInterface, saleID uint64, user string) (*big.Int, error) {
	contributionAsBytes, err := ctx.GetState(contributionKey(saleID, user))
	if err != nil {
		return nil, common.NewCustomError(http.StatusInternalServerError, fmt.Sprintf("failed to get contribution of %s to sale %d", user, saleID), err)
	}

	return common.ParseNonNegative("contribution", string(contributionAsBytes))
}

func setContribution(ctx common.TransactionContextInterface, saleID uint64, user string, amount *big.Int) error {
	if err := ctx.PutStateWithoutKYC(contributionKey(saleID, user), []byte(amount.String())); err != nil {
		return common.NewCustomError(http.StatusInternalServerError, fmt.Sprintf("failed to set contribution of %s to sale %d", user, saleID), err)
	}

	return nil
}

func GetFeePool(ctx common.TransactionContextInterface, tokenAddress string) (*big.Int, error) {
	feeAsBytes, err := ctx.GetState(feePoolKey(tokenAddress))
	if err != nil {
		return nil, common.NewCustomError(http.StatusInternalServerError, fmt.Sprintf("failed to get fee pool for %s", tokenAddress), err)
	}

	return common.ParseNonNegative("fee pool", string(feeAsBytes))
}

func setFeePool(ctx common.TransactionContextInterface, tokenAddress string, amount *big.Int) error {
	if err := ctx.PutStateWithoutKYC(feePoolKey(tokenAddress), []byte(amount.String())); err != nil {
		return common.NewCustomError(http.StatusInternalServerError, fmt.Sprintf("failed to set fee pool for %s", tokenAddress), err)
	}

	return nil
}

// isPaymentTokenSupported: the native base token (empty address) is always
// accepted; ledger tokens must be allow-listed by the admin.
func isPaymentTokenSupported(ctx common.TransactionContextInterface, tokenAddress string) (bool, error) {
	if tokenAddress == "" {
		return true, nil
	}

	supportedAsBytes, err := ctx.GetState(paymentTokenKey(tokenAddress))
	if err != nil {
		return false, common.NewCustomError(http.StatusInternalServerError, fmt.Sprintf("failed to get payment token flag for %s", tokenAddress), err)
	}

	return string(supportedAsBytes) == "1", nil
}

func setPaymentTokenSupported(ctx common.TransactionContextInterface, tokenAddress string, supported bool) error {
	value := "0"
	if supported {
		value = "1"
	}

	if err := ctx.PutStateWithoutKYC(paymentTokenKey(tokenAddress), []byte(value)); err != nil {
		return common.NewCustomError(http.StatusInternalServerError, fmt.Sprintf("failed to set payment token flag for %s", tokenAddress), err)
	}

	return nil
}
