package launchpad

import (
	"encoding/json"
	"fmt"

	"github.com/andreitoma8/pulsefinity-contracts/common"
)

type SaleCreatedEvent struct {
	SaleID    uint64 `json:"saleId"`
	Owner     string `json:"owner"`
	SoldToken string `json:"soldToken"`
}

type SaleEnabledEvent struct {
	SaleID uint64 `json:"saleId"`
}

type ContributionMadeEvent struct {
	SaleID uint64 `json:"saleId"`
	User   string `json:"user"`
	Amount string `json:"amount"`
}

type SaleEndedEvent struct {
	SaleID         uint64 `json:"saleId"`
	SoftCapReached bool   `json:"softCapReached"`
	TotalRaised    string `json:"totalRaised"`
}

type TokensClaimedEvent struct {
	SaleID uint64 `json:"saleId"`
	User   string `json:"user"`
	Amount string `json:"amount"`
}

type TokensRefundedEvent struct {
	SaleID uint64 `json:"saleId"`
	User   string `json:"user"`
	Amount string `json:"amount"`
}

func emit(ctx common.TransactionContextInterface, name string, event interface{}) error {
	eventJSON, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to obtain JSON encoding: %v", err)
	}

	if err := ctx.SetEvent(name, eventJSON); err != nil {
		return fmt.Errorf("failed to set event: %v", err)
	}

	return nil
}

func EmitSaleCreated(ctx common.TransactionContextInterface, saleID uint64, owner, soldToken string) error {
	return emit(ctx, "SaleCreated", SaleCreatedEvent{SaleID: saleID, Owner: owner, SoldToken: soldToken})
}

func EmitSaleEnabled(ctx common.TransactionContextInterface, saleID uint64) error {
	return emit(ctx, "SaleEnabled", SaleEnabledEvent{SaleID: saleID})
}

func EmitContributionMade(ctx common.TransactionContextInterface, saleID uint64, user, amount string) error {
	return emit(ctx, "ContributionMade", ContributionMadeEvent{SaleID: saleID, User: user, Amount: amount})
}

func EmitSaleEnded(ctx common.TransactionContextInterface, saleID uint64, softCapReached bool, totalRaised string) error {
	return emit(ctx, "SaleEnded", SaleEndedEvent{SaleID: saleID, SoftCapReached: softCapReached, TotalRaised: totalRaised})
}

func EmitTokensClaimed(ctx common.TransactionContextInterface, saleID uint64, user, amount string) error {
	return emit(ctx, "TokensClaimed", TokensClaimedEvent{SaleID: saleID, User: user, Amount: amount})
}

func EmitTokensRefunded(ctx common.TransactionContextInterface, saleID uint64, user, amount string) error {
	return emit(ctx, "TokensRefunded", TokensRefundedEvent{SaleID: saleID, User: user, Amount: amount})
}
