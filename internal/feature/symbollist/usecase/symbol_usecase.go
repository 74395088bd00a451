// Package usecase implements the business logic for symbol-related operations.
package usecase

import (
	"context"
	"fmt"
	"strings"

	"forecast_backend/internal/feature/symbollist/domain/entity"
)

// SymbolRepository abstracts the persistence layer for tracked assets.
// Following Go convention: interfaces are defined by the consumer (usecase), not the provider (adapters).
type SymbolRepository interface {
	ListActive(ctx context.Context) ([]entity.Symbol, error)
	ListActiveCodes(ctx context.Context) ([]string, error)
	EnsureSymbols(ctx context.Context, symbols []entity.Symbol) error
}

// SymbolUsecase provides business logic for symbol operations.
type SymbolUsecase struct {
	repo SymbolRepository
}

// NewSymbolUsecase creates a new SymbolUsecase with the given repository.
func NewSymbolUsecase(r SymbolRepository) *SymbolUsecase {
	return &SymbolUsecase{repo: r}
}

// ListActiveSymbols returns all active symbols from the repository.
func (u *SymbolUsecase) ListActiveSymbols(ctx context.Context) ([]entity.Symbol, error) {
	return u.repo.ListActive(ctx)
}

// ListActiveCodes returns the base-asset codes of all active symbols in display
// order, upper-cased, without blanks or duplicates, ready to be paired with
// the quote asset by the market client.
func (u *SymbolUsecase) ListActiveCodes(ctx context.Context) ([]string, error) {
	codes, err := u.repo.ListActiveCodes(ctx)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{}, len(codes))
	out := make([]string, 0, len(codes))
	for _, c := range codes {
		c = strings.ToUpper(strings.TrimSpace(c))
		if c == "" {
			continue
		}
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out, nil
}

// SeedDefaults inserts entity.DefaultSymbols that are not stored yet.
// Existing rows, including deactivated ones, are left untouched.
func (u *SymbolUsecase) SeedDefaults(ctx context.Context) error {
	if err := u.repo.EnsureSymbols(ctx, entity.DefaultSymbols); err != nil {
		return fmt.Errorf("seed symbols: %w", err)
	}
	return nil
}
