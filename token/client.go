// Package token is the client side of the external fungible-token
// chaincodes. The launchpad never holds balances itself; every movement is a
// cross-chaincode Transfer/TransferFrom against a token contract address.
package token

import (
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

func (c *Client) invoke(ctx common.TransactionContextInterface, args ...string) ([]byte, error) {
	invokeArgs := make([][]byte, len(args))
	for i, arg := range args {
		invokeArgs[i] = []byte(arg)
	}

	resp := ctx.InvokeChaincode(c.Address, invokeArgs, ctx.GetChannelID())
	if resp.Response.Status != http.StatusOK {
		return nil, common.NewCustomError(int(resp.Response.Status),
			fmt.Sprintf("token chaincode %s rejected %s: %s", c.Address, args[0], resp.Response.Message), nil)
	}

	return resp.Response.Payload, nil
}

func (c *Client) Transfer(ctx common.TransactionContextInterface, to string, amount *big.Int) error {
	_, err := c.invoke(ctx, "Transfer", to, amount.String())
	return err
}

func (c *Client) TransferFrom(ctx common.TransactionContextInterface, from, to string, amount *big.Int) error {
	_, err := c.invoke(ctx, "TransferFrom", from, to, amount.String())
	return err
}

func (c *Client) Approve(ctx common.TransactionContextInterface, spender string, amount *big.Int) error {
	_, err := c.invoke(ctx, "Approve", spender, amount.String())
	return err
}

func (c *Client) BalanceOf(ctx common.TransactionContextInterface, account string) (*big.Int, error) {
	payload, err := c.invoke(ctx, "BalanceOf", account)
	if err != nil {
		return nil, err
	}

	balance, ok := new(big.Int).SetString(string(payload), 10)
	if !ok {
		return nil, common.NewCustomError(http.StatusInternalServerError,
			fmt.Sprintf("token chaincode %s returned a malformed balance: %s", c.Address, payload), nil)
	}

	return balance, nil
}
