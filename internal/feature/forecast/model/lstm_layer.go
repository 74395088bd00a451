package model

import (
	"math"
	"math/rand"
)

// lstmLayer holds the weights of one LSTM layer. Gate rows are laid out as
// input, forget, cell, output blocks of hidden rows each.
type lstmLayer struct {
	in, hidden int
	wx         *param // 4*hidden x in
	wh         *param // 4*hidden x hidden
	b          *param // 4*hidden
}

// lstmCache keeps the forward activations of one sequence for backprop.
type lstmCache struct {
	xs    [][]float64
	hs    [][]float64 // len T+1, hs[0] is the zero state
	cs    [][]float64 // len T+1, cs[0] is the zero state
	gates [][]float64 // activated i, f, g, o per step
}

func newLSTMLayer(in, hidden int, rng *rand.Rand) *lstmLayer {
	l := &lstmLayer{
		in:     in,
		hidden: hidden,
		wx:     newParam(4 * hidden * in),
		wh:     newParam(4 * hidden * hidden),
		b:      newParam(4 * hidden),
	}
	glorot(l.wx.w, in, 4*hidden, rng)
	glorot(l.wh.w, hidden, 4*hidden, rng)
	for j := hidden; j < 2*hidden; j++ {
		l.b.w[j] = 1 // unit forget bias
	}
	return l
}

func glorot(w []float64, fanIn, fanOut int, rng *rand.Rand) {
	limit := math.Sqrt(6 / float64(fanIn+fanOut))
	for i := range w {
		w[i] = (rng.Float64()*2 - 1) * limit
	}
}

func (l *lstmLayer) params() []*param { return []*param{l.wx, l.wh, l.b} }

// forward runs the sequence and returns the hidden state of every step.
func (l *lstmLayer) forward(xs [][]float64) ([][]float64, *lstmCache) {
	T, H := len(xs), l.hidden
	c := &lstmCache{
		xs:    xs,
		hs:    make([][]float64, T+1),
		cs:    make([][]float64, T+1),
		gates: make([][]float64, T),
	}
	c.hs[0] = make([]float64, H)
	c.cs[0] = make([]float64, H)

	for t := 0; t < T; t++ {
		x, hPrev, cPrev := xs[t], c.hs[t], c.cs[t]
		z := make([]float64, 4*H)
		for r := range z {
			s := l.b.w[r]
			row := l.wx.w[r*l.in : (r+1)*l.in]
			for k, xk := range x {
				s += row[k] * xk
			}
			row = l.wh.w[r*H : (r+1)*H]
			for k, hk := range hPrev {
				s += row[k] * hk
			}
			z[r] = s
		}
		for j := 0; j < H; j++ {
			z[j] = sigmoid(z[j])
			z[H+j] = sigmoid(z[H+j])
			z[2*H+j] = math.Tanh(z[2*H+j])
			z[3*H+j] = sigmoid(z[3*H+j])
		}
		h := make([]float64, H)
		cell := make([]float64, H)
		for j := 0; j < H; j++ {
			cell[j] = z[H+j]*cPrev[j] + z[j]*z[2*H+j]
			h[j] = z[3*H+j] * math.Tanh(cell[j])
		}
		c.gates[t] = z
		c.hs[t+1] = h
		c.cs[t+1] = cell
	}
	return c.hs[1:], c
}

// backward accumulates weight gradients given dL/dh for every step and
// returns dL/dx for every step.
func (l *lstmLayer) backward(c *lstmCache, dhs [][]float64) [][]float64 {
	T, H := len(c.xs), l.hidden
	dxs := make([][]float64, T)
	dhNext := make([]float64, H)
	dcNext := make([]float64, H)
	dz := make([]float64, 4*H)

	for t := T - 1; t >= 0; t-- {
		z := c.gates[t]
		cPrev, cell, hPrev, x := c.cs[t], c.cs[t+1], c.hs[t], c.xs[t]
		for j := 0; j < H; j++ {
			i, f, g, o := z[j], z[H+j], z[2*H+j], z[3*H+j]
			tc := math.Tanh(cell[j])
			dh := dhs[t][j] + dhNext[j]
			do := dh * tc
			dc := dh*o*(1-tc*tc) + dcNext[j]

			dz[j] = dc * g * i * (1 - i)
			dz[H+j] = dc * cPrev[j] * f * (1 - f)
			dz[2*H+j] = dc * i * (1 - g*g)
			dz[3*H+j] = do * o * (1 - o)
			dcNext[j] = dc * f
		}

		dx := make([]float64, l.in)
		for k := range dhNext {
			dhNext[k] = 0
		}
		for r, d := range dz {
			if d == 0 {
				continue
			}
			l.b.g[r] += d
			wxRow := l.wx.w[r*l.in : (r+1)*l.in]
			gxRow := l.wx.g[r*l.in : (r+1)*l.in]
			for k, xk := range x {
				gxRow[k] += d * xk
				dx[k] += d * wxRow[k]
			}
			whRow := l.wh.w[r*H : (r+1)*H]
			ghRow := l.wh.g[r*H : (r+1)*H]
			for k, hk := range hPrev {
				ghRow[k] += d * hk
				dhNext[k] += d * whRow[k]
			}
		}
		dxs[t] = dx
	}
	return dxs
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}
