// Package dex is the client side of the external liquidity venue chaincode.
// The venue turns two token balances into a tradable pair position; only its
// AddLiquidity and GetPair surface is consumed here.
package dex

import (
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"

	"github.com/andreitoma8/pulsefinity-contracts/common"
)

type Client struct {
	Address string
}

func NewClient(address string) *Client {
	return &Client{Address: address}
}

// AddLiquidityResult mirrors the venue's return: the amounts actually taken
// and the pool-position units minted to `to`.
type AddLiquidityResult struct {
	AmountA   string `json:"amountA"`
	AmountB   string `json:"amountB"`
	Liquidity string `json:"liquidity"`
}

func (c *Client) invoke(ctx common.TransactionContextInterface, args ...string) ([]byte, error) {
	invokeArgs := make([][]byte, len(args))
	for i, arg := range args {
		invokeArgs[i] = []byte(arg)
	}

	resp := ctx.InvokeChaincode(c.Address, invokeArgs, ctx.GetChannelID())
	if resp.Response.Status != http.StatusOK {
		return nil, common.NewCustomError(int(resp.Response.Status),
			fmt.Sprintf("liquidity venue %s rejected %s: %s", c.Address, args[0], resp.Response.Message), nil)
	}

	return resp.Response.Payload, nil
}

func (c *Client) AddLiquidity(
	ctx common.TransactionContextInterface,
	tokenA, tokenB string,
	amountADesired, amountBDesired *big.Int,
	amountAMin, amountBMin *big.Int,
	to string,
	deadline uint64,
) (*AddLiquidityResult, error) {
	payload, err := c.invoke(ctx, "AddLiquidity",
		tokenA, tokenB,
		amountADesired.String(), amountBDesired.String(),
		amountAMin.String(), amountBMin.String(),
		to, fmt.Sprintf("%d", deadline),
	)
	if err != nil {
		return nil, err
	}

	var result AddLiquidityResult
	if err := json.Unmarshal(payload, &result); err != nil {
		return nil, common.NewCustomError(http.StatusInternalServerError, "failed to unmarshal AddLiquidity result", err)
	}

	return &result, nil
}

// GetPair returns the pair token address for the two assets. The pair itself
// is a fungible token chaincode, so its position can be custodied and vested
// like any other balance.
func (c *Client) GetPair(ctx common.TransactionContextInterface, tokenA, tokenB string) (string, error) {
	payload, err := c.invoke(ctx, "GetPair", tokenA, tokenB)
	if err != nil {
		return "", err
	}

	pair := string(payload)
	if !common.IsContractAddressValid(pair) {
		return "", common.NewCustomError(http.StatusInternalServerError,
			fmt.Sprintf("liquidity venue returned a malformed pair address: %s", pair), nil)
	}

	return pair, nil
}
