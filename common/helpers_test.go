package common_test

import (
	"encoding/base64"
	"fmt"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/andreitoma8/pulsefinity-contracts/common"
	"github.com/andreitoma8/pulsefinity-contracts/common/mocks"
)

const userAddress = "0b87970433b22494faff1cc7a819e71bddc7880c"

func TestGetUserID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		completeID  string
		expected    string
		errContains string
	}{
		{
			name:       "success",
			completeID: fmt.Sprintf("x509::CN=%s,O=Organization,L=City,ST=State,C=Country", userAddress),
			expected:   userAddress,
		},
		{
			name:        "missing CN marker",
			completeID:  "subject=foo,O=Organization",
			errContains: "unexpected client identity format",
		},
		{
			name:        "CN is not an address",
			completeID:  "x509::CN=bob,O=Organization",
			errContains: "invalid user address",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			transactionContext := &mocks.TransactionContext{}
			clientIdentity := &mocks.ClientIdentity{}
			clientIdentity.GetIDReturns(base64.StdEncoding.EncodeToString([]byte(tt.completeID)), nil)
			transactionContext.GetClientIdentityReturns(clientIdentity)

			userID, err := common.GetUserID(transactionContext)
			if tt.errContains != "" {
				require.Error(t, err)
				require.Contains(t, err.Error(), tt.errContains)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.expected, userID)
		})
	}
}

func TestAddressValidation(t *testing.T) {
	t.Parallel()

	require.True(t, common.IsUserAddressValid(userAddress))
	require.False(t, common.IsUserAddressValid(""))
	require.False(t, common.IsUserAddressValid("0x"+userAddress))
	require.False(t, common.IsUserAddressValid(userAddress[:39]))

	require.True(t, common.IsContractAddressValid("klp-746f6b656e-cc"))
	require.False(t, common.IsContractAddressValid("klp--cc"))
	require.False(t, common.IsContractAddressValid("746f6b656e"))
	require.False(t, common.IsContractAddressValid(""))
}

func TestParseAmount(t *testing.T) {
	t.Parallel()

	amount, err := common.ParseAmount("test", "12345")
	require.NoError(t, err)
	require.Equal(t, "12345", amount.String())

	_, err = common.ParseAmount("test", "0")
	require.Error(t, err)
	_, err = common.ParseAmount("test", "-5")
	require.Error(t, err)
	_, err = common.ParseAmount("test", "12.5")
	require.Error(t, err)

	zero, err := common.ParseNonNegative("test", "")
	require.NoError(t, err)
	require.Equal(t, "0", zero.String())

	_, err = common.ParseNonNegative("test", "-1")
	require.Error(t, err)
}

func TestBpsMath(t *testing.T) {
	t.Parallel()

	require.Equal(t, "250", common.ApplyBps(big.NewInt(10_000), 250).String())
	require.Equal(t, "0", common.ApplyBps(big.NewInt(3), 250).String())
	require.Equal(t, "10000", common.ApplyBps(big.NewInt(10_000), 10_000).String())

	// Floors toward zero.
	result := common.MulDiv(big.NewInt(10), big.NewInt(10), big.NewInt(3))
	require.Equal(t, "33", result.String())
}
