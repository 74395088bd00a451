package adapters

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"forecast_backend/internal/feature/candles/domain/entity"
)

// setupTestDB はテスト用のインメモリSQLiteデータベースを準備します。
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err, "failed to initialize test database")
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// :memory: は接続ごとに別DBになるため1接続に固定
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&CandleModel{}), "failed to migrate table")
	return db
}

var day0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func dailyCandles(symbol string, n int) []entity.Candle {
	out := make([]entity.Candle, n)
	for i := range out {
		p := 100 + float64(i)
		out[i] = entity.Candle{
			Symbol: symbol, Interval: "1d", Time: day0.AddDate(0, 0, i),
			Open: p, High: p + 1, Low: p - 1, Close: p + 0.5, Volume: 10.25,
		}
	}
	return out
}

func TestCandleGorm_UpsertBatchAndFind(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	repo := NewCandleRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.UpsertBatch(ctx, dailyCandles("BTC", 5)))
	require.NoError(t, repo.UpsertBatch(ctx, dailyCandles("ETH", 2)))

	got, err := repo.Find(ctx, "BTC", "1d", 3)
	require.NoError(t, err)
	require.Len(t, got, 3)
	// 新しい順
	assert.Equal(t, day0.AddDate(0, 0, 4), got[0].Time)
	assert.Equal(t, day0.AddDate(0, 0, 2), got[2].Time)
	assert.Equal(t, "BTC", got[0].Symbol)
	assert.InDelta(t, 10.25, got[0].Volume, 1e-9)

	all, err := repo.Find(ctx, "BTC", "1d", 0)
	require.NoError(t, err)
	assert.Len(t, all, 5)

	none, err := repo.Find(ctx, "BTC", "1w", 10)
	require.NoError(t, err)
	assert.Empty(t, none)
}

// TestCandleGorm_UpsertBatch_Overwrites は同一キーの行が更新されることを検証します。
func TestCandleGorm_UpsertBatch_Overwrites(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	repo := NewCandleRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.UpsertBatch(ctx, dailyCandles("BTC", 2)))

	updated := dailyCandles("BTC", 1)
	updated[0].Close = 999
	updated[0].Volume = 42
	require.NoError(t, repo.UpsertBatch(ctx, updated))

	var count int64
	require.NoError(t, db.Model(&CandleModel{}).Count(&count).Error)
	assert.EqualValues(t, 2, count)

	got, err := repo.Find(ctx, "BTC", "1d", 0)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 999.0, got[1].Close)
	assert.Equal(t, 42.0, got[1].Volume)
}

func TestCandleGorm_UpsertBatch_Empty(t *testing.T) {
	t.Parallel()

	repo := NewCandleRepository(setupTestDB(t))
	assert.NoError(t, repo.UpsertBatch(context.Background(), nil))
}
