package common

import (
	"github.com/hyperledger/fabric-chaincode-go/pkg/cid"
	"github.com/p2eengineering/kalp-sdk-public/kalpsdk"
	"github.com/p2eengineering/kalp-sdk-public/response"
	"google.golang.org/protobuf/types/known/timestamppb"
)

// TransactionContextInterface is the subset of the kalpsdk transaction
// context the launchpad contracts actually use. Contract methods take this
// interface instead of the full SDK one so the test doubles stay small.
type TransactionContextInterface interface {
	GetState(key string) ([]byte, error)
	PutStateWithoutKYC(key string, value []byte) error
	GetTxTimestamp() (*timestamppb.Timestamp, error)
	SetEvent(name string, payload []byte) error
	InvokeChaincode(chaincodeName string, args [][]byte, channel string) response.Response
	GetClientIdentity() cid.ClientIdentity
	GetChannelID() string
}

// The kalpsdk context must keep satisfying the subset.
var _ TransactionContextInterface = kalpsdk.TransactionContextInterface(nil)
