package models

import "errors"

var (
	ErrInsufficientFunds      = errors.New("insufficient funds")
	ErrWalletNotFound         = errors.New("wallet not found")
	ErrEscrowNotFound         = errors.New("escrow transaction not found")
	ErrInvalidStateTransition = errors.New("invalid escrow state transition")
	ErrProviderUnavailable    = errors.New("purchase provider unavailable")
	ErrPlanNotFound           = errors.New("data plan not found")
	ErrScheduleNotFound       = errors.New("schedule not found")
	ErrInvalidScheduleConfig  = errors.New("invalid schedule configuration")
	ErrNetworkDetectionFailed = errors.New("could not detect network from phone number")
)
