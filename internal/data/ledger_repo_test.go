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

func newTestLedgerRepo(t *testing.T) (biz.LedgerRepo, sqlmock.Sqlmock) {
	data, mock := newTestData(t)
	conf := &biz.LedgerConfig{DefaultDailyFreeQuota: 500, BalanceLowThreshold: 100}
	logger := log.DefaultLogger
	balanceRepo := NewBalanceRepo(data, conf, logger)
	recordRepo := NewConsumptionRecordRepo(data, logger)
	return NewLedgerRepo(data, conf, nil, logger, balanceRepo, recordRepo), mock
}

func testConsumptionRecord(uid string) *biz.ConsumptionRecord {
	return &biz.ConsumptionRecord{
		UID:         uid,
		ModelID:     "gpt-4",
		ModelName:   "GPT-4",
		InputChars:  1000,
		OutputChars: 500,
		InputRatio:  100,
		OutputRatio: 50,
		InputCost:   10,
		OutputCost:  10,
		TotalCost:   20,
		Source:      "chat",
	}
}

func TestConsumeCredits_Success(t *testing.T) {
	repo, mock := newTestLedgerRepo(t)
	today := biz.Midnight(time.Now())

	mock.ExpectBegin()
	// 行锁读取余额
	mock.ExpectQuery("SELECT \\* FROM `user_credit_balance` WHERE uid = .+ FOR UPDATE").
		WillReturnRows(sqlmock.NewRows(balanceColumns()).
			AddRow(balanceRow("u1", 1000, 0, 200, 0, 500, 490, today)...))
	// 整行回写余额
	mock.ExpectExec("UPDATE `user_credit_balance` SET").
		WillReturnResult(sqlmock.NewResult(0, 1))
	// 消费明细 + 流水
	mock.ExpectExec("INSERT INTO `consumption_record`").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO `credit_transaction`").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	record := testConsumptionRecord("u1")
	// 免费额度只剩 10，赠送补足剩余 10
	balance, alloc, err := repo.ConsumeCredits(context.Background(), "u1", 20, record, today)
	require.NoError(t, err)

	assert.Equal(t, int64(10), alloc.UsedDailyFree)
	assert.Equal(t, int64(10), alloc.UsedGift)
	assert.Equal(t, int64(0), alloc.UsedPaid)
	assert.Equal(t, int64(990), balance.TotalCredits)
	assert.Equal(t, int64(190), balance.GiftCredits)
	assert.Equal(t, int64(500), balance.DailyUsedQuota)

	// 明细里的档位由分摊结果回填
	assert.Equal(t, int64(10), record.UsedDailyFree)
	assert.Equal(t, int64(10), record.UsedPaid)
	assert.NotEmpty(t, record.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConsumeCredits_InsufficientRollsBack(t *testing.T) {
	// 积分不足：事务回滚，无任何写入
	repo, mock := newTestLedgerRepo(t)
	today := biz.Midnight(time.Now())

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT \\* FROM `user_credit_balance` WHERE uid = .+ FOR UPDATE").
		WillReturnRows(sqlmock.NewRows(balanceColumns()).
			AddRow(balanceRow("u1", 5, 0, 0, 0, 10, 10, today)...))
	mock.ExpectRollback()

	_, _, err := repo.ConsumeCredits(context.Background(), "u1", 100, testConsumptionRecord("u1"), today)

	var insufficient *biz.InsufficientBalanceError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, int64(100), insufficient.Required)
	assert.Equal(t, int64(0), insufficient.AvailableDailyFree)
	assert.Equal(t, int64(5), insufficient.AvailablePaid)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConsumeCredits_StaleQuotaResetInLock(t *testing.T) {
	// 跨天未重置的行在锁内先归零再分摊
	repo, mock := newTestLedgerRepo(t)
	today := biz.Midnight(time.Now())
	yesterday := today.AddDate(0, 0, -1)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT \\* FROM `user_credit_balance` WHERE uid = .+ FOR UPDATE").
		WillReturnRows(sqlmock.NewRows(balanceColumns()).
			AddRow(balanceRow("u1", 0, 0, 0, 0, 100, 100, yesterday)...))
	mock.ExpectExec("UPDATE `user_credit_balance` SET").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO `consumption_record`").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO `credit_transaction`").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	balance, alloc, err := repo.ConsumeCredits(context.Background(), "u1", 50, testConsumptionRecord("u1"), today)
	require.NoError(t, err)

	assert.Equal(t, int64(50), alloc.UsedDailyFree)
	assert.Equal(t, today, balance.QuotaResetDate)
	assert.Equal(t, int64(50), balance.DailyUsedQuota)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConsumeCredits_CreatesBalanceRowInTransaction(t *testing.T) {
	// 无余额行的用户在事务内懒创建后按零余额分摊
	repo, mock := newTestLedgerRepo(t)
	today := biz.Midnight(time.Now())

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT \\* FROM `user_credit_balance` WHERE uid = .+ FOR UPDATE").
		WillReturnRows(sqlmock.NewRows(balanceColumns()))
	mock.ExpectExec("INSERT INTO `user_credit_balance`").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("UPDATE `user_credit_balance` SET").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO `consumption_record`").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO `credit_transaction`").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	// 新账户默认免费额度 500，足够覆盖
	balance, alloc, err := repo.ConsumeCredits(context.Background(), "fresh", 100, testConsumptionRecord("fresh"), today)
	require.NoError(t, err)

	assert.Equal(t, int64(100), alloc.UsedDailyFree)
	assert.Equal(t, int64(0), balance.TotalCredits)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecharge_Paid(t *testing.T) {
	repo, mock := newTestLedgerRepo(t)
	today := biz.Midnight(time.Now())

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT \\* FROM `user_credit_balance` WHERE uid = .+ FOR UPDATE").
		WillReturnRows(sqlmock.NewRows(balanceColumns()).
			AddRow(balanceRow("u1", 100, 0, 0, 0, 500, 0, today)...))
	mock.ExpectExec("UPDATE `user_credit_balance` SET").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO `credit_transaction`").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	balance, err := repo.Recharge(context.Background(), "u1", 500, false, "order", "o1", "")
	require.NoError(t, err)

	assert.Equal(t, int64(600), balance.TotalCredits)
	assert.Equal(t, int64(0), balance.GiftCredits)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecharge_GiftAddsGiftCredits(t *testing.T) {
	repo, mock := newTestLedgerRepo(t)
	today := biz.Midnight(time.Now())

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT \\* FROM `user_credit_balance` WHERE uid = .+ FOR UPDATE").
		WillReturnRows(sqlmock.NewRows(balanceColumns()).
			AddRow(balanceRow("u1", 100, 0, 20, 0, 500, 0, today)...))
	mock.ExpectExec("UPDATE `user_credit_balance` SET").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO `credit_transaction`").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	balance, err := repo.Recharge(context.Background(), "u1", 200, true, "activity", "", "新人礼包")
	require.NoError(t, err)

	assert.Equal(t, int64(300), balance.TotalCredits)
	assert.Equal(t, int64(220), balance.GiftCredits)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRefund_UsedCreditsFloorsAtZero(t *testing.T) {
	// 退款金额超过已用时 UsedCredits 归零而不是变负
	repo, mock := newTestLedgerRepo(t)
	today := biz.Midnight(time.Now())

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT \\* FROM `user_credit_balance` WHERE uid = .+ FOR UPDATE").
		WillReturnRows(sqlmock.NewRows(balanceColumns()).
			AddRow(balanceRow("u1", 100, 30, 0, 0, 500, 0, today)...))
	mock.ExpectExec("UPDATE `user_credit_balance` SET").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO `credit_transaction`").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	balance, err := repo.Refund(context.Background(), "u1", 50, "order", "o1", "")
	require.NoError(t, err)

	assert.Equal(t, int64(150), balance.TotalCredits)
	assert.Equal(t, int64(0), balance.UsedCredits)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResetDailyQuotas(t *testing.T) {
	repo, mock := newTestLedgerRepo(t)
	today := biz.Midnight(time.Now())

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `user_credit_balance` SET").
		WillReturnResult(sqlmock.NewResult(0, 42))
	mock.ExpectCommit()

	rows, err := repo.ResetDailyQuotas(context.Background(), today)
	require.NoError(t, err)
	assert.Equal(t, int64(42), rows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResetDailyQuotas_Idempotent(t *testing.T) {
	// 二次执行没有过期行，受影响行数为 0
	repo, mock := newTestLedgerRepo(t)
	today := biz.Midnight(time.Now())

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `user_credit_balance` SET").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	rows, err := repo.ResetDailyQuotas(context.Background(), today)
	require.NoError(t, err)
	assert.Equal(t, int64(0), rows)
	assert.NoError(t, mock.ExpectationsWereMet())
}
