package launchpad

import (
	"errors"
)

var (
	ErrSaleNotFound            = errors.New("SaleNotFound")
	ErrSaleNotEnabled          = errors.New("SaleNotEnabled")
	ErrSaleAlreadyEnabled      = errors.New("SaleAlreadyEnabled")
	ErrSaleEnded               = errors.New("SaleEnded")
	ErrSaleNotEnded            = errors.New("SaleNotEnded")
	ErrSaleNotOpen             = errors.New("SaleNotOpen")
	ErrSaleCannotEnd           = errors.New("SaleCannotEnd")
	ErrTierRequired            = errors.New("TierRequired")
	ErrAllocationExceeded      = errors.New("AllocationExceeded")
	ErrHardCapExceeded         = errors.New("HardCapExceeded")
	ErrNothingToClaim          = errors.New("NothingToClaim")
	ErrNoFeesToWithdraw        = errors.New("NoFeesToWithdraw")
	ErrPaymentTokenUnsupported = errors.New("PaymentTokenUnsupported")
)
