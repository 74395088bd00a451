package usecase

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"

	"forecast_backend/internal/feature/forecast/model"
)

// Config はフォーキャストパイプラインの設定です。
// デフォルト値はstructタグで定義し、環境変数で上書きします。
type Config struct {
	InputSize    int           `default:"7" validate:"min=1"`
	MinRecords   int           `default:"30" validate:"min=1"`
	Epochs       int           `default:"30" validate:"min=1"`
	BatchSize    int           `default:"32" validate:"min=1"`
	HiddenUnits  []int         `default:"[50]" validate:"min=1,max=2,dive,min=1"`
	LearningRate float64       `default:"0.001" validate:"gt=0"`
	Seed         int64         // 0 = 時刻ベース
	Shuffle      bool          `default:"true"`
	Scaling      string        `default:"dataset" validate:"oneof=dataset train"`
	FutureDate   string        `default:"last" validate:"oneof=last next"`
	CacheTTL     time.Duration `default:"5m" validate:"min=0"`
	Workers      int           `default:"2" validate:"min=1"`
	TrainTimeout time.Duration `default:"10m" validate:"min=0"` // 0 = 無制限

	DefaultSymbol   string `default:"BTC" validate:"required"`
	DefaultInterval string `default:"1d" validate:"required"`
	CandleLimit     int    `default:"500" validate:"min=0,max=1000"`
}

// DefaultConfig はstructタグのデフォルト値を適用したConfigを返します。
func DefaultConfig() Config {
	var cfg Config
	// タグはパッケージ内で固定なので失敗しない
	_ = defaults.Set(&cfg)
	return cfg
}

// LoadConfig は環境変数 FORECAST_* から設定を読み込み、検証します。
func LoadConfig() (Config, error) {
	cfg := DefaultConfig()

	var errs []string
	setInt := func(key string, dst *int) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Sprintf("%s: %v", key, err))
				return
			}
			*dst = n
		}
	}
	setDuration := func(key string, dst *time.Duration) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Sprintf("%s: %v", key, err))
				return
			}
			*dst = d
		}
	}
	setString := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}

	setInt("FORECAST_INPUT_SIZE", &cfg.InputSize)
	setInt("FORECAST_MIN_RECORDS", &cfg.MinRecords)
	setInt("FORECAST_EPOCHS", &cfg.Epochs)
	setInt("FORECAST_BATCH_SIZE", &cfg.BatchSize)
	setInt("FORECAST_WORKERS", &cfg.Workers)
	setInt("FORECAST_CANDLE_LIMIT", &cfg.CandleLimit)
	setDuration("FORECAST_CACHE_TTL", &cfg.CacheTTL)
	setDuration("FORECAST_TRAIN_TIMEOUT", &cfg.TrainTimeout)
	setString("FORECAST_SCALING", &cfg.Scaling)
	setString("FORECAST_FUTURE_DATE", &cfg.FutureDate)
	setString("FORECAST_DEFAULT_SYMBOL", &cfg.DefaultSymbol)
	setString("FORECAST_DEFAULT_INTERVAL", &cfg.DefaultInterval)

	if v := os.Getenv("FORECAST_HIDDEN_UNITS"); v != "" {
		units, err := parseInts(v)
		if err != nil {
			errs = append(errs, fmt.Sprintf("FORECAST_HIDDEN_UNITS: %v", err))
		} else {
			cfg.HiddenUnits = units
		}
	}
	if v := os.Getenv("FORECAST_LEARNING_RATE"); v != "" {
		lr, err := strconv.ParseFloat(v, 64)
		if err != nil {
			errs = append(errs, fmt.Sprintf("FORECAST_LEARNING_RATE: %v", err))
		} else {
			cfg.LearningRate = lr
		}
	}
	if v := os.Getenv("FORECAST_SEED"); v != "" {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			errs = append(errs, fmt.Sprintf("FORECAST_SEED: %v", err))
		} else {
			cfg.Seed = seed
		}
	}
	if v := os.Getenv("FORECAST_SHUFFLE"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Sprintf("FORECAST_SHUFFLE: %v", err))
		} else {
			cfg.Shuffle = b
		}
	}

	if len(errs) > 0 {
		return Config{}, fmt.Errorf("invalid forecast config: %s", strings.Join(errs, "; "))
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

var validate = validator.New()

// Validate はstructタグの制約を検証します。
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid forecast config: %w", err)
	}
	return nil
}

// ModelConfig はモデルのハイパーパラメータを組み立てます。
func (c Config) ModelConfig(features int) model.Config {
	return model.Config{
		Timesteps:    c.InputSize,
		Features:     features,
		HiddenUnits:  append([]int(nil), c.HiddenUnits...),
		Epochs:       c.Epochs,
		BatchSize:    c.BatchSize,
		LearningRate: c.LearningRate,
		Seed:         c.Seed,
		Shuffle:      c.Shuffle,
	}
}

func parseInts(s string) ([]int, error) {
	parts := strings.Split(s, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}
