package model

import (
	"time"
)

// UserMembership 用户会员表（membership 模块维护，本服务只读）
type UserMembership struct {
	MembershipID string    `gorm:"primaryKey;type:varchar(36)"`
	UID          string    `gorm:"type:varchar(36);not null;index;column:uid"`
	PlanID       string    `gorm:"type:varchar(36);not null"`
	Status       string    `gorm:"type:enum('active','expired','cancelled');not null;default:'active'"`
	StartAt      time.Time `gorm:"not null"`
	ExpireAt     time.Time `gorm:"not null"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`
}

// TableName 指定表名
func (UserMembership) TableName() string {
	return "user_membership"
}

// MembershipPlan 会员套餐表（含消费侧权益字段）
type MembershipPlan struct {
	PlanID          string    `gorm:"primaryKey;type:varchar(36)"`
	Name            string    `gorm:"type:varchar(64);not null"`
	OutputFree      bool      `gorm:"not null;default:false"`
	FreeInputChars  int64     `gorm:"not null;default:0"`
	DailyTokenLimit int64     `gorm:"not null;default:0"`
	Status          int8      `gorm:"type:tinyint;not null;default:1"`
	CreatedAt       time.Time `gorm:"autoCreateTime"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime"`
}

// TableName 指定表名
func (MembershipPlan) TableName() string {
	return "membership_plan"
}
