package data

import (
	"database/sql/driver"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestData 基于 sqlmock 构造 Data（无 Redis / MQ，走降级路径）
func newTestData(t *testing.T) (*Data, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	return &Data{db: db}, mock
}

// balanceColumns user_credit_balance 全列（按模型字段顺序）
func balanceColumns() []string {
	return []string{
		"balance_id", "uid", "total_credits", "used_credits", "gift_credits",
		"frozen_credits", "daily_free_quota", "daily_used_quota",
		"quota_reset_date", "created_at", "updated_at",
	}
}

func balanceRow(uid string, total, used, gift, frozen, quota, usedQuota int64, resetDate time.Time) []driver.Value {
	now := time.Now()
	return []driver.Value{
		"bal-" + uid, uid, total, used, gift, frozen, quota, usedQuota, resetDate, now, now,
	}
}
