package model

import (
	"time"
)

// UserCreditBalance 账户积分余额表（每用户一行，首次访问时懒创建）
type UserCreditBalance struct {
	BalanceID      string    `gorm:"primaryKey;type:varchar(36)"`
	UID            string    `gorm:"uniqueIndex;type:varchar(36);not null;column:uid"`
	TotalCredits   int64     `gorm:"not null;default:0"`
	UsedCredits    int64     `gorm:"not null;default:0"`
	GiftCredits    int64     `gorm:"not null;default:0"`
	FrozenCredits  int64     `gorm:"not null;default:0"`
	DailyFreeQuota int64     `gorm:"not null;default:0"`
	DailyUsedQuota int64     `gorm:"not null;default:0"`
	QuotaResetDate time.Time `gorm:"type:date;not null"`
	CreatedAt      time.Time `gorm:"autoCreateTime"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime"`
}

// TableName 指定表名
func (UserCreditBalance) TableName() string {
	return "user_credit_balance"
}
