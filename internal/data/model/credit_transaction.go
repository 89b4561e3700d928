package model

import (
	"time"
)

// CreditTransaction 积分流水表（追加写入，永不更新或删除）
// Amount 带符号；BalanceBefore/After 为扣减前后的 TotalCredits 快照
type CreditTransaction struct {
	TransactionID string    `gorm:"primaryKey;type:varchar(36)"`
	UID           string    `gorm:"type:varchar(36);not null;index:idx_uid_date,priority:1;column:uid"`
	Type          string    `gorm:"type:enum('recharge','consume','refund','expire','gift');not null"`
	Amount        int64     `gorm:"not null"`
	BalanceBefore int64     `gorm:"not null"`
	BalanceAfter  int64     `gorm:"not null"`
	Source        string    `gorm:"type:varchar(64);not null"`
	RelatedID     string    `gorm:"type:varchar(64)"`
	ModelName     string    `gorm:"type:varchar(64)"`
	Remark        string    `gorm:"type:varchar(255)"`
	CreatedAt     time.Time `gorm:"autoCreateTime;index:idx_uid_date,priority:2"`
}

// TableName 指定表名
func (CreditTransaction) TableName() string {
	return "credit_transaction"
}
