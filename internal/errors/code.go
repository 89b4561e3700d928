package errors

import (
	pkgErrors "github.com/gaoyong06/go-pkg/errors"
	i18nPkg "github.com/gaoyong06/go-pkg/middleware/i18n"
)

func init() {
	// 初始化全局错误管理器（使用项目特定的配置）
	pkgErrors.InitGlobalErrorManager("i18n", i18nPkg.Language)
}

// Credit Service 错误码定义
// 错误码格式：SSMMEE (6位数字)
//   SS: 服务标识，Credit 固定为 21
//   MM: 模块标识，按业务划分
//   EE: 模块内错误序号
//
// 模块划分：
//   00: 通用模块（复用 go-pkg 通用错误码）
//   01: 余额模块
//   02: 消费模块
//   03: 充值退款模块
//   04: 流水模块
//   05: 重置模块
//   06-99: 预留扩展

// 余额模块错误码 (210100-210199)
const (
	// ErrCodeBalanceNotFound 余额记录不存在
	ErrCodeBalanceNotFound = 210101
	// ErrCodeBalanceGetFailed 获取余额失败
	ErrCodeBalanceGetFailed = 210102
	// ErrCodeBalanceCreateFailed 创建余额记录失败
	ErrCodeBalanceCreateFailed = 210103
	// ErrCodeBalanceUpdateFailed 更新余额失败
	ErrCodeBalanceUpdateFailed = 210104
)

// 消费模块错误码 (210200-210299)
const (
	// ErrCodeInsufficientBalance 积分余额不足
	ErrCodeInsufficientBalance = 210201
	// ErrCodeModelNotFound 模型不存在或未上架
	ErrCodeModelNotFound = 210202
	// ErrCodeConsumeLockFailed 获取消费锁失败（可整体重试）
	ErrCodeConsumeLockFailed = 210203
	// ErrCodeConsumeFailed 消费扣减失败
	ErrCodeConsumeFailed = 210204
	// ErrCodeNoCreditAccount 零费率模型要求账户已有积分
	ErrCodeNoCreditAccount = 210205
)

// 充值退款模块错误码 (210300-210399)
const (
	// ErrCodeInvalidAmount 金额必须为正数
	ErrCodeInvalidAmount = 210301
	// ErrCodeRechargeFailed 充值失败
	ErrCodeRechargeFailed = 210302
	// ErrCodeRefundFailed 退款入账失败
	ErrCodeRefundFailed = 210303
)

// 流水模块错误码 (210400-210499)
const (
	// ErrCodeTransactionCreateFailed 流水写入失败
	ErrCodeTransactionCreateFailed = 210401
	// ErrCodeTransactionListFailed 流水查询失败
	ErrCodeTransactionListFailed = 210402
	// ErrCodeConsumptionRecordCreateFailed 消费明细写入失败
	ErrCodeConsumptionRecordCreateFailed = 210403
	// ErrCodeConsumptionRecordListFailed 消费明细查询失败
	ErrCodeConsumptionRecordListFailed = 210404
	// ErrCodeStatsFailed 消费统计查询失败
	ErrCodeStatsFailed = 210405
)

// 重置模块错误码 (210500-210599)
const (
	// ErrCodeQuotaResetFailed 每日额度重置失败
	ErrCodeQuotaResetFailed = 210501
	// ErrCodeResetLockFailed 获取重置任务锁失败
	ErrCodeResetLockFailed = 210502
)
