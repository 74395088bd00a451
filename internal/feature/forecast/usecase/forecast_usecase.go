// Package usecase はフォーキャストパイプライン（取得→指標→正規化→学習→推論→組み立て）を実装します。
package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	candle "forecast_backend/internal/feature/candles/domain/entity"
	"forecast_backend/internal/feature/forecast/assembler"
	"forecast_backend/internal/feature/forecast/dataset"
	"forecast_backend/internal/feature/forecast/domain"
	"forecast_backend/internal/feature/forecast/domain/entity"
	"forecast_backend/internal/feature/forecast/indicator"
	"forecast_backend/internal/feature/forecast/model"
	"forecast_backend/internal/feature/forecast/normalize"
	"forecast_backend/internal/shared/worker"
)

// MarketRepository はローソク足の取得元です。
// Goの慣例に従い、インターフェースは利用者（usecase）側で定義します。
type MarketRepository interface {
	GetTimeSeries(ctx context.Context, symbol, interval string, outputsize int) ([]candle.Candle, error)
}

// ResultCache はパイプライン結果をキー単位でメモ化します。
type ResultCache interface {
	Get(ctx context.Context, key string, compute func(context.Context) (entity.ForecastResult, error)) (entity.ForecastResult, error)
}

// Publisher は新しく計算された結果を外部へ通知します。
type Publisher interface {
	PublishForecast(ctx context.Context, runID string, res entity.ForecastResult) error
}

// Recorder はパイプラインのメトリクスを記録します。
type Recorder interface {
	ObservePipeline(interval, outcome string, d time.Duration)
	ObserveTraining(d time.Duration, lossHistory []float64)
	ObserveDegenerate()
}

// Model は学習・推論を行う予測モデルです。
type Model interface {
	Train(ctx context.Context, windows []entity.Window) (entity.TrainingRun, error)
	Predict(window []entity.FeatureVector) (float64, error)
	PredictBatch(windows [][]entity.FeatureVector) ([]float64, error)
}

const publishTimeout = 10 * time.Second

// Pipeline outcomes reported to the Recorder.
const (
	outcomeSuccess      = "success"
	outcomeInsufficient = "insufficient_data"
	outcomeError        = "error"
)

// Prepared は学習前までの中間データです。
type Prepared struct {
	Candles  []candle.Candle
	Enriched []entity.EnrichedCandle
	Scales   entity.Scales
	Dataset  entity.Dataset
}

// ForecastUsecase はフォーキャストパイプラインを実行します。
type ForecastUsecase struct {
	cfg       Config
	market    MarketRepository
	cache     ResultCache
	pool      *worker.Pool
	engine    *indicator.Engine
	builder   *dataset.Builder
	assembler *assembler.Assembler
	scaling   normalize.Mode
	publisher Publisher
	recorder  Recorder
	newModel  func(model.Config) (Model, error)
}

// Option はForecastUsecaseの任意の依存を設定します。
type Option func(*ForecastUsecase)

// WithPublisher は計算結果の通知先を設定します。
func WithPublisher(p Publisher) Option {
	return func(u *ForecastUsecase) { u.publisher = p }
}

// WithRecorder はメトリクスの記録先を設定します。
func WithRecorder(r Recorder) Option {
	return func(u *ForecastUsecase) { u.recorder = r }
}

// NewForecastUsecase はForecastUsecaseを生成します。
func NewForecastUsecase(cfg Config, market MarketRepository, cache ResultCache, pool *worker.Pool, opts ...Option) (*ForecastUsecase, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	scaling, err := normalize.ParseMode(cfg.Scaling)
	if err != nil {
		return nil, err
	}
	futureDate, err := assembler.ParseFutureDateMode(cfg.FutureDate)
	if err != nil {
		return nil, err
	}
	if pool == nil {
		pool = worker.NewPool(cfg.Workers)
	}
	u := &ForecastUsecase{
		cfg:       cfg,
		market:    market,
		cache:     cache,
		pool:      pool,
		engine:    indicator.NewEngine(),
		builder:   dataset.NewBuilder(cfg.InputSize, cfg.MinRecords),
		assembler: assembler.New(futureDate),
		scaling:   scaling,
		recorder:  nopRecorder{},
		newModel: func(c model.Config) (Model, error) {
			return model.New(c)
		},
	}
	for _, o := range opts {
		o(u)
	}
	return u, nil
}

// Forecast は指定された銘柄と時間足の予測結果を返します。
// 空の引数にはデフォルト値を使い、TTL内の結果はキャッシュから返します。
func (u *ForecastUsecase) Forecast(ctx context.Context, symbol, interval string) (entity.ForecastResult, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	interval = strings.TrimSpace(interval)
	if symbol == "" {
		symbol = u.cfg.DefaultSymbol
	}
	if interval == "" {
		interval = u.cfg.DefaultInterval
	}

	compute := func(ctx context.Context) (entity.ForecastResult, error) {
		return u.run(ctx, symbol, interval)
	}
	if u.cache == nil {
		return compute(ctx)
	}
	return u.cache.Get(ctx, resultKey(symbol, interval), compute)
}

func resultKey(symbol, interval string) string {
	return "forecast:" + symbol + ":" + interval
}

// run executes one uncached pipeline. Training runs on the worker pool under
// a context detached from ctx, so an aborted request stops waiting while the
// shared computation continues.
func (u *ForecastUsecase) run(ctx context.Context, symbol, interval string) (entity.ForecastResult, error) {
	start := time.Now()
	runID := uuid.NewString()
	log := slog.With("run_id", runID, "symbol", symbol, "interval", interval)

	res, err := u.execute(ctx, symbol, interval, log)
	took := time.Since(start)
	switch {
	case err == nil:
		u.recorder.ObservePipeline(interval, outcomeSuccess, took)
	case errors.Is(err, domain.ErrInsufficientData):
		u.recorder.ObservePipeline(interval, outcomeInsufficient, took)
		log.Warn("forecast skipped", "error", err)
		return entity.ForecastResult{}, err
	default:
		u.recorder.ObservePipeline(interval, outcomeError, took)
		log.Error("forecast failed", "error", err)
		return entity.ForecastResult{}, err
	}

	if res.Degenerate {
		u.recorder.ObserveDegenerate()
	}
	if u.publisher != nil {
		pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
		if err := u.publisher.PublishForecast(pubCtx, runID, res); err != nil {
			log.Warn("failed to publish forecast", "error", err)
		}
		cancel()
	}
	log.Info("forecast computed",
		"duration", took,
		"future_prediction", res.FuturePrediction,
		"percentage_difference", res.PercentageDifference,
		"epochs", len(res.LossHistory),
	)
	return res, nil
}

type trained struct {
	run    entity.TrainingRun
	test   []float64
	future float64
}

func (u *ForecastUsecase) execute(ctx context.Context, symbol, interval string, log *slog.Logger) (entity.ForecastResult, error) {
	runCtx, cancel := u.detach(ctx)
	candles, err := u.market.GetTimeSeries(runCtx, symbol, interval, u.cfg.CandleLimit)
	if err != nil {
		// 取得失敗は空の系列として扱い、データ不足エラーとして報告する
		log.Warn("candle fetch failed, continuing with no data", "error", err)
		candles = nil
	}

	prep, err := u.Prepare(candles)
	if err != nil {
		cancel()
		return entity.ForecastResult{}, err
	}

	mcfg := u.cfg.ModelConfig(entity.NumFeatures)
	future := worker.Submit(runCtx, u.pool, func(ctx context.Context) (trained, error) {
		defer cancel()
		return u.train(ctx, mcfg, prep.Dataset)
	})
	out, err := future.Await(ctx)
	if err != nil {
		return entity.ForecastResult{}, err
	}

	return u.assembler.Assemble(assembler.Input{
		Symbol:           symbol,
		Interval:         interval,
		Candles:          prep.Candles,
		Dataset:          prep.Dataset,
		Scales:           prep.Scales,
		TestPredictions:  out.test,
		FuturePrediction: out.future,
		LossHistory:      out.run.LossHistory,
	})
}

// detach returns a context that outlives ctx, bounded by TrainTimeout when set.
func (u *ForecastUsecase) detach(ctx context.Context) (context.Context, context.CancelFunc) {
	base := context.WithoutCancel(ctx)
	if u.cfg.TrainTimeout > 0 {
		return context.WithTimeout(base, u.cfg.TrainTimeout)
	}
	return context.WithCancel(base)
}

// Prepare は系列の整列・十分性チェック・指標計算・正規化・データセット構築を行います。
// データが不足する場合はモデルを生成する前に *domain.InsufficientDataError を返します。
func (u *ForecastUsecase) Prepare(candles []candle.Candle) (*Prepared, error) {
	candles = sortUnique(candles)
	if err := u.builder.CheckSufficient(len(candles)); err != nil {
		return nil, err
	}

	enriched := u.engine.Enrich(candles)
	fitOn := enriched
	if u.scaling == normalize.ScaleTrainingOnly {
		fitOn = enriched[:dataset.SplitIndex(len(enriched))]
	}
	scales, err := normalize.Fit(fitOn)
	if err != nil {
		return nil, err
	}
	ds, err := u.builder.Build(normalize.Normalize(enriched, scales))
	if err != nil {
		return nil, err
	}
	return &Prepared{Candles: candles, Enriched: enriched, Scales: scales, Dataset: ds}, nil
}

func (u *ForecastUsecase) train(ctx context.Context, mcfg model.Config, ds entity.Dataset) (trained, error) {
	m, err := u.newModel(mcfg)
	if err != nil {
		return trained{}, fmt.Errorf("build model: %w", err)
	}

	start := time.Now()
	run, err := m.Train(ctx, ds.Train)
	if err != nil {
		return trained{}, fmt.Errorf("train: %w", err)
	}
	u.recorder.ObserveTraining(time.Since(start), run.LossHistory)

	inputs := make([][]entity.FeatureVector, len(ds.Test))
	for i, w := range ds.Test {
		inputs[i] = w.Inputs
	}
	test, err := m.PredictBatch(inputs)
	if err != nil {
		return trained{}, fmt.Errorf("predict test windows: %w", err)
	}
	future, err := m.Predict(dataset.FutureWindow(ds))
	if err != nil {
		return trained{}, fmt.Errorf("predict future window: %w", err)
	}
	return trained{run: run, test: test, future: future}, nil
}

// sortUnique returns candles in ascending time order with one candle per
// timestamp; the later occurrence wins.
func sortUnique(candles []candle.Candle) []candle.Candle {
	if len(candles) == 0 {
		return nil
	}
	out := slices.Clone(candles)
	slices.SortStableFunc(out, func(a, b candle.Candle) int { return a.Time.Compare(b.Time) })
	n := 0
	for i := range out {
		if n > 0 && out[n-1].Time.Equal(out[i].Time) {
			out[n-1] = out[i]
			continue
		}
		out[n] = out[i]
		n++
	}
	return out[:n]
}

type nopRecorder struct{}

func (nopRecorder) ObservePipeline(string, string, time.Duration) {}
func (nopRecorder) ObserveTraining(time.Duration, []float64)      {}
func (nopRecorder) ObserveDegenerate()                            {}
