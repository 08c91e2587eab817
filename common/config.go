package common

import (
	"encoding/json"
	"fmt"
	"net/http"
)

const configKey = "contract_config"

// Config is the chaincode-wide wiring written once at Initialize: the
// contract's own custody address, the base (native) token chaincode and the
// liquidity venue chaincode.
type Config struct {
	SelfAddress      string `json:"selfAddress"`
	BaseTokenAddress string `json:"baseTokenAddress"`
	DexAddress       string `json:"dexAddress"`
}

func GetConfig(ctx TransactionContextInterface) (*Config, error) {
	configAsBytes, err := ctx.GetState(configKey)
	if err != nil {
		return nil, NewCustomError(http.StatusInternalServerError, "failed to get contract config", err)
	}
	if configAsBytes == nil {
		return nil, NewCustomError(http.StatusConflict, "contract is not initialized", nil)
	}

	var config Config
	if err := json.Unmarshal(configAsBytes, &config); err != nil {
		return nil, NewCustomError(http.StatusInternalServerError, "failed to unmarshal contract config", err)
	}

	return &config, nil
}

func SetConfig(ctx TransactionContextInterface, config *Config) error {
	if !IsContractAddressValid(config.SelfAddress) {
		return NewCustomError(http.StatusBadRequest, fmt.Sprintf("invalid contract address: %s", config.SelfAddress), nil)
	}
	if !IsContractAddressValid(config.BaseTokenAddress) {
		return NewCustomError(http.StatusBadRequest, fmt.Sprintf("invalid base token address: %s", config.BaseTokenAddress), nil)
	}
	if !IsContractAddressValid(config.DexAddress) {
		return NewCustomError(http.StatusBadRequest, fmt.Sprintf("invalid dex address: %s", config.DexAddress), nil)
	}

	configAsBytes, err := json.Marshal(config)
	if err != nil {
		return NewCustomError(http.StatusInternalServerError, "failed to marshal contract config", err)
	}

	if err := ctx.PutStateWithoutKYC(configKey, configAsBytes); err != nil {
		return NewCustomError(http.StatusInternalServerError, "failed to set contract config", err)
	}

	return nil
}

// IsInitialized reports whether Initialize has run.
func IsInitialized(ctx TransactionContextInterface) (bool, error) {
	configAsBytes, err := ctx.GetState(configKey)
	if err != nil {
		return false, NewCustomError(http.StatusInternalServerError, "failed to get contract config", err)
	}

	return configAsBytes != nil, nil
}
