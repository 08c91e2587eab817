package token

import (
	"fmt"
	"net/http"

	"github.com/andreitoma8/pulsefinity-contracts/common"
)

// Kind tags whether an asset is the platform's base token or an arbitrary
// ledger token. The tag is resolved once when the owning object (pool, sale)
// is created; downstream logic only branches on the tag.
type Kind uint8

const (
	Ledger Kind = iota
	Native
)

type Asset struct {
	Kind    Kind   `json:"kind"`
	Address string `json:"address"`
}

// Resolve maps a caller-supplied token address onto an Asset. The empty
// address is the native tag and resolves to the configured base token
// chaincode, so both kinds move through the same client.
func Resolve(ctx common.TransactionContextInterface, address string) (*Asset, error) {
	if address == "" {
		config, err := common.GetConfig(ctx)
		if err != nil {
			return nil, err
		}

		return &Asset{Kind: Native, Address: config.BaseTokenAddress}, nil
	}

	if !common.IsContractAddressValid(address) {
		return nil, common.NewCustomError(http.StatusBadRequest, fmt.Sprintf("invalid token address: %s", address), nil)
	}

	return &Asset{Kind: Ledger, Address: address}, nil
}

func (a *Asset) Client() *Client {
	return NewClient(a.Address)
}

func (a *Asset) IsNative() bool {
	return a.Kind == Native
}
