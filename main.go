/*
SPDX-License-Identifier: Apache-2.0
*/

package main

import (
	"log"

	"github.com/andreitoma8/pulsefinity-contracts/launchpad"
	"github.com/andreitoma8/pulsefinity-contracts/router"
	"github.com/andreitoma8/pulsefinity-contracts/staking"
	"github.com/andreitoma8/pulsefinity-contracts/vesting"
	"github.com/p2eengineering/kalp-sdk-public/kalpsdk"
)

// Aliases give the embedded contracts distinct field names so their method
// sets promote without clashing.
type (
	LaunchpadOps = launchpad.SmartContract
	StakingOps   = staking.SmartContract
	RouterOps    = router.SmartContract
	VestingOps   = vesting.SmartContract
)

// SmartContract mounts every launchpad operation on one chaincode. All four
// areas share the same world state, so cross-calls stay in-process.
type SmartContract struct {
	kalpsdk.Contract
	LaunchpadOps
	StakingOps
	RouterOps
	VestingOps
}

func main() {
	contract := kalpsdk.Contract{IsPayableContract: false}
	contract.Logger = kalpsdk.NewLogger()
	launchpadChaincode, err := kalpsdk.NewChaincode(&SmartContract{Contract: contract})
	if err != nil {
		log.Panicf("Error creating launchpad chaincode: %v", err)
	}

	if err := launchpadChaincode.Start(); err != nil {
		log.Panicf("Error starting launchpad chaincode: %v", err)
	}
}
