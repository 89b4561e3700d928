package data

import (
	"context"
	"testing"
	"time"

	"credit-service/internal/biz"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBalanceRepo(t *testing.T) (biz.BalanceRepo, sqlmock.Sqlmock) {
	data, mock := newTestData(t)
	conf := &biz.LedgerConfig{DefaultDailyFreeQuota: 500, BalanceLowThreshold: 100}
	return NewBalanceRepo(data, conf, log.DefaultLogger), mock
}

func TestGetOrCreateBalance_Existing(t *testing.T) {
	repo, mock := newTestBalanceRepo(t)
	resetDate := biz.Midnight(time.Now())

	mock.ExpectQuery("SELECT \\* FROM `user_credit_balance` WHERE uid = .+").
		WithArgs("u1", 1).
		WillReturnRows(sqlmock.NewRows(balanceColumns()).
			AddRow(balanceRow("u1", 1000, 50, 200, 0, 500, 120, resetDate)...))

	balance, err := repo.GetOrCreateBalance(context.Background(), "u1")
	require.NoError(t, err)

	assert.Equal(t, "u1", balance.UID)
	assert.Equal(t, int64(1000), balance.TotalCredits)
	assert.Equal(t, int64(200), balance.GiftCredits)
	assert.Equal(t, int64(120), balance.DailyUsedQuota)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetOrCreateBalance_CreatesOnFirstAccess(t *testing.T) {
	// 首次访问：查询空，插入零值行（每日免费额度取默认策略）
	repo, mock := newTestBalanceRepo(t)

	mock.ExpectQuery("SELECT \\* FROM `user_credit_balance` WHERE uid = .+").
		WithArgs("new-user", 1).
		WillReturnRows(sqlmock.NewRows(balanceColumns()))

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `user_credit_balance`").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	balance, err := repo.GetOrCreateBalance(context.Background(), "new-user")
	require.NoError(t, err)

	assert.Equal(t, "new-user", balance.UID)
	assert.Equal(t, int64(0), balance.TotalCredits)
	assert.Equal(t, int64(500), balance.DailyFreeQuota)
	assert.Equal(t, int64(0), balance.DailyUsedQuota)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetOrCreateBalance_EmptyUserID(t *testing.T) {
	repo, _ := newTestBalanceRepo(t)

	_, err := repo.GetOrCreateBalance(context.Background(), "")
	assert.Error(t, err)
}
