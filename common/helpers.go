package common

import (
	"encoding/base64"
	"fmt"
	"math/big"
	"net/http"
	"regexp"
	"strings"
)

const (
	// AdminAddress is the platform operator allowed to enable sales, manage
	// pools and tier settings, and sweep fees.
	AdminAddress = "7f2b9d4a6e8c135079bdf2468ace13579bdf2460"

	// BurnAddress is the non-recoverable sink used for unsold tokens when a
	// sale is configured to burn instead of refund.
	BurnAddress = "0000000000000000000000000000000000000000"

	contractAddressRegex = `^klp-[a-fA-F0-9]+-cc$`
	hexAddressRegex      = `^[0-9a-fA-F]{40}$`

	BpsDenominator = 10000

	SecondsPerDay   = 24 * 60 * 60
	SecondsPerWeek  = 7 * SecondsPerDay
	SecondsPerMonth = 30 * SecondsPerDay
)

// Precision is the fixed-point scale shared by prices and the staking reward
// index.
var Precision = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)

func GetUserID(ctx TransactionContextInterface) (string, error) {
	b64ID, err := ctx.GetClientIdentity().GetID()
	if err != nil {
		return "", fmt.Errorf("failed to read clientID: %v", err)
	}

	decodeID, err := base64.StdEncoding.DecodeString(b64ID)
	if err != nil {
		return "", fmt.Errorf("failed to base64 decode clientID: %v", err)
	}

	completeID := string(decodeID)
	start := strings.Index(completeID, "x509::CN=")
	end := strings.Index(completeID, ",")
	if start == -1 || end == -1 || end <= start+9 {
		return "", NewCustomError(http.StatusBadRequest, fmt.Sprintf("unexpected client identity format: %s", completeID), nil)
	}

	userID := completeID[start+9 : end]
	if !IsUserAddressValid(userID) {
		return "", NewCustomError(http.StatusBadRequest, fmt.Sprintf("invalid user address: %s", userID), nil)
	}

	return userID, nil
}

func IsUserAddressValid(address string) bool {
	if address == "" {
		return false
	}

	isValid, _ := regexp.MatchString(hexAddressRegex, address)
	return isValid
}

func IsContractAddressValid(address string) bool {
	if address == "" {
		return false
	}

	isValid, _ := regexp.MatchString(contractAddressRegex, address)
	return isValid
}

// IsSignerAdmin rejects unless the transaction signer is the platform
// operator.
func IsSignerAdmin(ctx TransactionContextInterface) error {
	signer, err := GetUserID(ctx)
	if err != nil {
		return NewCustomError(http.StatusInternalServerError, "failed to get client id", err)
	}

	if signer != AdminAddress {
		return NewCustomError(http.StatusUnauthorized, "signer is not the platform admin", nil)
	}

	return nil
}

// TxTime returns the transaction timestamp in unix seconds. All time checks
// use the tx timestamp, never the wall clock, to keep endorsement
// deterministic.
func TxTime(ctx TransactionContextInterface) (uint64, error) {
	ts, err := ctx.GetTxTimestamp()
	if err != nil {
		return 0, NewCustomError(http.StatusInternalServerError, "failed to get transaction timestamp", err)
	}

	return uint64(ts.Seconds), nil
}

// ParseAmount parses a strictly positive decimal amount.
func ParseAmount(entity, value string) (*big.Int, error) {
	amount, ok := new(big.Int).SetString(value, 10)
	if !ok || amount.Sign() <= 0 {
		return nil, NewCustomError(http.StatusBadRequest, fmt.Sprintf("invalid amount for %s: %s", entity, value), nil)
	}

	return amount, nil
}

// ParseNonNegative parses a zero-or-positive decimal amount. Empty strings
// parse as zero so fresh state reads stay convenient.
func ParseNonNegative(entity, value string) (*big.Int, error) {
	if value == "" {
		return big.NewInt(0), nil
	}

	amount, ok := new(big.Int).SetString(value, 10)
	if !ok || amount.Sign() < 0 {
		return nil, NewCustomError(http.StatusBadRequest, fmt.Sprintf("invalid amount for %s: %s", entity, value), nil)
	}

	return amount, nil
}

// ApplyBps returns amount * bps / 10000, flooring.
func ApplyBps(amount *big.Int, bps uint64) *big.Int {
	result := new(big.Int).Mul(amount, new(big.Int).SetUint64(bps))
	return result.Div(result, big.NewInt(BpsDenominator))
}

// SubBps returns amount minus its bps share.
func SubBps(amount *big.Int, bps uint64) *big.Int {
	return new(big.Int).Sub(amount, ApplyBps(amount, bps))
}

// MulDiv returns a * b / denominator, flooring.
func MulDiv(a, b, denominator *big.Int) *big.Int {
	result := new(big.Int).Mul(a, b)
	return result.Div(result, denominator)
}
