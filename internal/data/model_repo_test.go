package data

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func modelColumns() []string {
	return []string{
		"model_id", "name", "input_ratio", "output_ratio",
		"min_input_chars", "is_free", "status", "created_at", "updated_at",
	}
}

func TestGetModel_Found(t *testing.T) {
	data, mock := newTestData(t)
	repo := NewModelRepo(data, log.DefaultLogger)
	now := time.Now()

	mock.ExpectQuery("SELECT \\* FROM `ai_model` WHERE model_id = .+ AND status = .+").
		WillReturnRows(sqlmock.NewRows(modelColumns()).
			AddRow("gpt-4", "GPT-4", 100.0, 50.0, 0, false, 1, now, now))

	pricing, err := repo.GetModel(context.Background(), "gpt-4")
	require.NoError(t, err)
	require.NotNil(t, pricing)

	assert.Equal(t, "GPT-4", pricing.Name)
	assert.Equal(t, 100.0, pricing.InputRatio)
	assert.Equal(t, 50.0, pricing.OutputRatio)
	assert.False(t, pricing.IsFree)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetModel_NotFoundReturnsNil(t *testing.T) {
	// 不存在或未上架的模型返回 nil 而不是错误，由调用方转业务错误
	data, mock := newTestData(t)
	repo := NewModelRepo(data, log.DefaultLogger)

	mock.ExpectQuery("SELECT \\* FROM `ai_model` WHERE model_id = .+ AND status = .+").
		WillReturnRows(sqlmock.NewRows(modelColumns()))

	pricing, err := repo.GetModel(context.Background(), "unknown")
	require.NoError(t, err)
	assert.Nil(t, pricing)
	assert.NoError(t, mock.ExpectationsWereMet())
}
