package usecase

import (
	"context"
	"log/slog"

	"forecast_backend/internal/feature/candles/domain/entity"
	"forecast_backend/internal/shared/ratelimiter"
)

// ingestOutputSize は1回のリクエストで取得する件数です（Binanceの既定値）。
const ingestOutputSize = 500

// IngestIntervals はデータ取得の対象となる時間足です（日足, 週足, 月足）。
var IngestIntervals = []string{"1d", "1w", "1M"}

// MarketRepository は取引所からローソク足を取得するリポジトリのインターフェースです。
// Following Go convention: interfaces are defined by the consumer (usecase), not the provider (adapters).
type MarketRepository interface {
	GetTimeSeries(ctx context.Context, symbol, interval string, outputsize int) ([]entity.Candle, error)
}

// IngestSummary は一括取得の結果です。
type IngestSummary struct {
	Succeeded int
	Failed    int
	Candles   int
}

// IngestUsecase は外部APIからデータを取得し、データベースに永続化するユースケースです。
type IngestUsecase struct {
	market      MarketRepository
	candle      CandleRepository
	rateLimiter ratelimiter.RateLimiterInterface
}

// NewIngestUsecase は新しい IngestUsecase を作成します。
func NewIngestUsecase(market MarketRepository, candle CandleRepository, rateLimiter ratelimiter.RateLimiterInterface) *IngestUsecase {
	return &IngestUsecase{market: market, candle: candle, rateLimiter: rateLimiter}
}

// ingestOne は1銘柄・1時間足のデータを取得して保存し、保存件数を返します。
func (iu *IngestUsecase) ingestOne(ctx context.Context, symbol, interval string, outputsize int) (int, error) {
	cs, err := iu.market.GetTimeSeries(ctx, symbol, interval, outputsize)
	if err != nil {
		return 0, err
	}
	for i := range cs {
		cs[i].Symbol = symbol
		cs[i].Interval = interval
	}
	if err := iu.candle.UpsertBatch(ctx, cs); err != nil {
		return 0, err
	}
	return len(cs), nil
}

// IngestAll は全銘柄 × IngestIntervals のデータを取得して保存します。
// 個別の失敗はログに出力して処理を続け、ctxの終了時のみエラーを返します。
func (iu *IngestUsecase) IngestAll(ctx context.Context, symbols []string) (IngestSummary, error) {
	var sum IngestSummary
	for _, s := range symbols {
		for _, interval := range IngestIntervals {
			if err := iu.rateLimiter.Wait(ctx); err != nil {
				return sum, err
			}
			n, err := iu.ingestOne(ctx, s, interval, ingestOutputSize)
			if err != nil {
				if ctx.Err() != nil {
					return sum, ctx.Err()
				}
				slog.Error("failed to ingest data", "symbol", s, "interval", interval, "error", err)
				sum.Failed++
				continue
			}
			sum.Succeeded++
			sum.Candles += n
		}
	}
	return sum, nil
}
