package biz

import "github.com/google/wire"

// ProviderSet is biz providers.
var ProviderSet = wire.NewSet(
	NewLedgerConfig,
	NewBalanceUseCase,
	NewTransactionUseCase,
	NewConsumptionRecordUseCase,
	NewLedgerUseCase, // 组合 UseCase
)
