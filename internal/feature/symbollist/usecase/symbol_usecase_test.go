package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"forecast_backend/internal/feature/symbollist/domain/entity"
	"forecast_backend/internal/feature/symbollist/usecase"
)

// mockSymbolRepository はSymbolRepositoryインターフェースのモック実装です。
type mockSymbolRepository struct {
	ListActiveFunc      func(ctx context.Context) ([]entity.Symbol, error)
	ListActiveCodesFunc func(ctx context.Context) ([]string, error)
	EnsureSymbolsFunc   func(ctx context.Context, symbols []entity.Symbol) error
}

func (m *mockSymbolRepository) ListActive(ctx context.Context) ([]entity.Symbol, error) {
	if m.ListActiveFunc != nil {
		return m.ListActiveFunc(ctx)
	}
	return nil, nil
}

func (m *mockSymbolRepository) ListActiveCodes(ctx context.Context) ([]string, error) {
	if m.ListActiveCodesFunc != nil {
		return m.ListActiveCodesFunc(ctx)
	}
	return nil, nil
}

func (m *mockSymbolRepository) EnsureSymbols(ctx context.Context, symbols []entity.Symbol) error {
	if m.EnsureSymbolsFunc != nil {
		return m.EnsureSymbolsFunc(ctx, symbols)
	}
	return nil
}

// TestSymbolUsecase_ListActiveSymbols はListActiveSymbolsの各種シナリオをテーブル駆動テストで検証します。
func TestSymbolUsecase_ListActiveSymbols(t *testing.T) {
	t.Parallel()

	btc := entity.Symbol{ID: 1, Code: "BTC", Name: "Bitcoin", Quote: "USDT", IsActive: true, SortKey: 1}
	eth := entity.Symbol{ID: 2, Code: "ETH", Name: "Ethereum", Quote: "USDT", IsActive: true, SortKey: 2}

	tests := []struct {
		name            string
		mockListActive  func(ctx context.Context) ([]entity.Symbol, error)
		expectedSymbols []entity.Symbol
		errMsg          string
	}{
		{
			name: "success: returns list of active symbols",
			mockListActive: func(ctx context.Context) ([]entity.Symbol, error) {
				return []entity.Symbol{btc, eth}, nil
			},
			expectedSymbols: []entity.Symbol{btc, eth},
		},
		{
			name: "success: returns empty list when no active symbols",
			mockListActive: func(ctx context.Context) ([]entity.Symbol, error) {
				return []entity.Symbol{}, nil
			},
			expectedSymbols: []entity.Symbol{},
		},
		{
			name: "failure: repository returns error",
			mockListActive: func(ctx context.Context) ([]entity.Symbol, error) {
				return nil, errors.New("database connection failed")
			},
			errMsg: "database connection failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			uc := usecase.NewSymbolUsecase(&mockSymbolRepository{ListActiveFunc: tt.mockListActive})
			symbols, err := uc.ListActiveSymbols(context.Background())

			if tt.errMsg != "" {
				assert.EqualError(t, err, tt.errMsg)
				assert.Nil(t, symbols)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.expectedSymbols, symbols)
		})
	}
}

// TestSymbolUsecase_ListActiveCodes はコードが正規化され、空白と重複が除かれることを検証します。
func TestSymbolUsecase_ListActiveCodes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		stored   []string
		repoErr  error
		expected []string
	}{
		{name: "success: codes in display order", stored: []string{"BTC", "ETH"}, expected: []string{"BTC", "ETH"}},
		{name: "success: normalizes case and spaces", stored: []string{" btc", "Eth "}, expected: []string{"BTC", "ETH"}},
		{name: "success: drops blanks and duplicates", stored: []string{"BTC", "", "  ", "btc", "SOL"}, expected: []string{"BTC", "SOL"}},
		{name: "success: empty", stored: nil, expected: []string{}},
		{name: "failure: repository error", repoErr: errors.New("database connection failed")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			uc := usecase.NewSymbolUsecase(&mockSymbolRepository{
				ListActiveCodesFunc: func(ctx context.Context) ([]string, error) {
					return tt.stored, tt.repoErr
				},
			})
			codes, err := uc.ListActiveCodes(context.Background())
			if tt.repoErr != nil {
				assert.ErrorIs(t, err, tt.repoErr)
				assert.Nil(t, codes)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.expected, codes)
		})
	}
}

func TestSymbolUsecase_SeedDefaults(t *testing.T) {
	t.Parallel()

	var seeded []entity.Symbol
	uc := usecase.NewSymbolUsecase(&mockSymbolRepository{
		EnsureSymbolsFunc: func(ctx context.Context, symbols []entity.Symbol) error {
			seeded = symbols
			return nil
		},
	})
	assert.NoError(t, uc.SeedDefaults(context.Background()))
	assert.Equal(t, entity.DefaultSymbols, seeded)

	dbErr := errors.New("read-only database")
	failing := usecase.NewSymbolUsecase(&mockSymbolRepository{
		EnsureSymbolsFunc: func(context.Context, []entity.Symbol) error { return dbErr },
	})
	assert.ErrorIs(t, failing.SeedDefaults(context.Background()), dbErr)
}

// TestSymbolUsecase_ListActiveSymbols_ContextCancellation はキャンセル済みコンテキストのエラーが伝播することを検証します。
func TestSymbolUsecase_ListActiveSymbols_ContextCancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	uc := usecase.NewSymbolUsecase(&mockSymbolRepository{
		ListActiveFunc: func(ctx context.Context) ([]entity.Symbol, error) {
			return nil, ctx.Err()
		},
	})
	symbols, err := uc.ListActiveSymbols(ctx)

	assert.Nil(t, symbols)
	assert.ErrorIs(t, err, context.Canceled)
}
