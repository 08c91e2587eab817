package token

import (
	"fmt"
	"math/big"
	"net/http"

	"github.com/andreitoma8/pulsefinity-contracts/common"
)

// The custody liability of a token is the total the contract still owes out
// of the shared custody address: staked principal, unpaid rewards, fee
// pools, open contributions and vesting positions. Deposit and Payout keep
// the counter in step with the transfers; only balance above the counter may
// ever be swept as surplus.

const custodyLiabilityKey = "custodyliability_%s"

func GetCustodyLiability(ctx common.TransactionContextInterface, tokenAddress string) (*big.Int, error) {
	key := fmt.Sprintf(custodyLiabilityKey, tokenAddress)
	data, err := ctx.GetState(key)
	if err != nil {
		return nil, common.NewCustomError(http.StatusInternalServerError, fmt.Sprintf("failed to get custody liability with key %s", key), err)
	}

	return common.ParseNonNegative("custody liability", string(data))
}

func setCustodyLiability(ctx common.TransactionContextInterface, tokenAddress string, liability *big.Int) error {
	if err := ctx.PutStateWithoutKYC(fmt.Sprintf(custodyLiabilityKey, tokenAddress), []byte(liability.String())); err != nil {
		return common.NewCustomError(http.StatusInternalServerError, "failed to set custody liability", err)
	}

	return nil
}

// AddCustodyLiability books amount as owed out of custody. Called directly
// only for balances that arrive without a deposit leg, like liquidity pair
// tokens minted straight to the custody address.
func AddCustodyLiability(ctx common.TransactionContextInterface, tokenAddress string, amount *big.Int) error {
	liability, err := GetCustodyLiability(ctx, tokenAddress)
	if err != nil {
		return err
	}

	return setCustodyLiability(ctx, tokenAddress, liability.Add(liability, amount))
}

// SubCustodyLiability releases amount of the obligation. The books can never
// owe less than zero; going below means a settlement is paying out more than
// was ever deposited.
func SubCustodyLiability(ctx common.TransactionContextInterface, tokenAddress string, amount *big.Int) error {
	liability, err := GetCustodyLiability(ctx, tokenAddress)
	if err != nil {
		return err
	}
	if liability.Cmp(amount) < 0 {
		return common.NewCustomError(http.StatusInternalServerError, fmt.Sprintf("custody liability underflow for %s", tokenAddress), nil)
	}

	return setCustodyLiability(ctx, tokenAddress, liability.Sub(liability, amount))
}

// Deposit pulls amount from the payer into the custody address and books the
// matching liability.
func (c *Client) Deposit(ctx common.TransactionContextInterface, from string, amount *big.Int) error {
	config, err := common.GetConfig(ctx)
	if err != nil {
		return err
	}

	if err := AddCustodyLiability(ctx, c.Address, amount); err != nil {
		return err
	}

	return c.TransferFrom(ctx, from, config.SelfAddress, amount)
}

// Payout releases amount of the liability and transfers it out of custody.
func (c *Client) Payout(ctx common.TransactionContextInterface, to string, amount *big.Int) error {
	if err := SubCustodyLiability(ctx, c.Address, amount); err != nil {
		return err
	}

	return c.Transfer(ctx, to, amount)
}
