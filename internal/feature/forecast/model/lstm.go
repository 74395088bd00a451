package model

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"forecast_backend/internal/feature/forecast/domain"
	"forecast_backend/internal/feature/forecast/domain/entity"
)

// State is the lifecycle of a model. It only moves from Untrained to Trained.
type State int

const (
	Untrained State = iota
	Trained
)

func (s State) String() string {
	if s == Trained {
		return "trained"
	}
	return "untrained"
}

// LSTM is a stacked LSTM regressor predicting the next normalized close.
// Train must not run concurrently with other calls; Predict is read-only once trained.
type LSTM struct {
	cfg    Config
	layers []*lstmLayer
	denseW *param
	denseB *param
	opt    *adam
	rng    *rand.Rand
	state  State
}

// New creates an untrained model with freshly initialized weights.
func New(cfg Config) (*LSTM, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("model config: %w", err)
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	m := &LSTM{cfg: cfg, rng: rng, opt: newAdam(cfg.LearningRate)}
	in := cfg.Features
	for _, h := range cfg.HiddenUnits {
		m.layers = append(m.layers, newLSTMLayer(in, h, rng))
		in = h
	}
	m.denseW = newParam(in)
	m.denseB = newParam(1)
	glorot(m.denseW.w, in, 1, rng)
	return m, nil
}

// State reports whether the model has been trained.
func (m *LSTM) State() State { return m.state }

func (m *LSTM) params() []*param {
	var ps []*param
	for _, l := range m.layers {
		ps = append(ps, l.params()...)
	}
	return append(ps, m.denseW, m.denseB)
}

// Train fits the model on windows and returns the mean squared error of every
// epoch in order. Cancelling ctx aborts between mini-batches and leaves the
// model untrained.
func (m *LSTM) Train(ctx context.Context, windows []entity.Window) (entity.TrainingRun, error) {
	if m.state == Trained {
		return entity.TrainingRun{}, domain.ErrAlreadyTrained
	}
	if len(windows) == 0 {
		return entity.TrainingRun{}, &domain.InsufficientDataError{Stage: "training windows", Have: 0, Need: 1}
	}
	for i, w := range windows {
		if err := m.checkInputs(w.Inputs); err != nil {
			return entity.TrainingRun{}, fmt.Errorf("window %d: %w", i, err)
		}
	}

	order := make([]int, len(windows))
	for i := range order {
		order[i] = i
	}
	batch := make([]entity.Window, 0, m.cfg.BatchSize)
	params := m.params()
	history := make([]float64, 0, m.cfg.Epochs)

	for epoch := 0; epoch < m.cfg.Epochs; epoch++ {
		if m.cfg.Shuffle {
			m.rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
		}
		total := 0.0
		for start := 0; start < len(order); start += m.cfg.BatchSize {
			if err := ctx.Err(); err != nil {
				return entity.TrainingRun{}, err
			}
			end := min(start+m.cfg.BatchSize, len(order))
			batch = batch[:0]
			for _, idx := range order[start:end] {
				batch = append(batch, windows[idx])
			}
			total += m.accumulate(batch) * float64(len(batch))
			m.opt.step(params)
		}
		history = append(history, total/float64(len(windows)))
	}

	m.state = Trained
	return entity.TrainingRun{LossHistory: history}, nil
}

// Predict runs one window through the trained model.
func (m *LSTM) Predict(window []entity.FeatureVector) (float64, error) {
	if m.state != Trained {
		return 0, domain.ErrNotTrained
	}
	if err := m.checkInputs(window); err != nil {
		return 0, err
	}
	y, _, _ := m.forward(window)
	return y, nil
}

// PredictBatch runs every window through the trained model.
func (m *LSTM) PredictBatch(windows [][]entity.FeatureVector) ([]float64, error) {
	out := make([]float64, len(windows))
	for i, w := range windows {
		y, err := m.Predict(w)
		if err != nil {
			return nil, fmt.Errorf("window %d: %w", i, err)
		}
		out[i] = y
	}
	return out, nil
}

func (m *LSTM) checkInputs(inputs []entity.FeatureVector) error {
	if len(inputs) != m.cfg.Timesteps {
		return fmt.Errorf("expected %d timesteps, got %d", m.cfg.Timesteps, len(inputs))
	}
	if m.cfg.Features > entity.NumFeatures {
		return fmt.Errorf("model expects %d features, vectors carry %d", m.cfg.Features, entity.NumFeatures)
	}
	return nil
}

func (m *LSTM) forward(inputs []entity.FeatureVector) (float64, []*lstmCache, []float64) {
	xs := make([][]float64, len(inputs))
	for t, v := range inputs {
		xs[t] = append([]float64(nil), v[:m.cfg.Features]...)
	}
	caches := make([]*lstmCache, len(m.layers))
	for i, l := range m.layers {
		xs, caches[i] = l.forward(xs)
	}
	last := xs[len(xs)-1]
	y := m.denseB.w[0]
	for j, h := range last {
		y += m.denseW.w[j] * h
	}
	return y, caches, last
}

// accumulate adds the MSE gradients of batch to every param and returns the batch loss.
func (m *LSTM) accumulate(batch []entity.Window) float64 {
	n := float64(len(batch))
	loss := 0.0
	for _, w := range batch {
		y, caches, last := m.forward(w.Inputs)
		diff := y - w.Label
		loss += diff * diff

		dy := 2 * diff / n
		m.denseB.g[0] += dy
		dhs := make([][]float64, m.cfg.Timesteps)
		for t := range dhs {
			dhs[t] = make([]float64, len(last))
		}
		for j, h := range last {
			m.denseW.g[j] += dy * h
			dhs[len(dhs)-1][j] = dy * m.denseW.w[j]
		}
		for i := len(m.layers) - 1; i >= 0; i-- {
			dhs = m.layers[i].backward(caches[i], dhs)
		}
	}
	return loss / n
}
