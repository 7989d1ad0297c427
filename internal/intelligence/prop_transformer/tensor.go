// Package prop_transformer implements inference for the QM9 property
// regressor: checkpoint decoding, feature/target scaling, and a pure-Go
// forward pass over dense float64 matrices.
package prop_transformer

import (
	"fmt"
	"math"
)

// ---------------------------------------------------------------------------
// Tensor
// ---------------------------------------------------------------------------

// Tensor is a dense row-major array.
type Tensor struct {
	Shape []int
	Data  []float64
}

// NewTensor checks that data matches shape.
func NewTensor(shape []int, data []float64) (*Tensor, error) {
	n := 1
	for _, d := range shape {
		if d < 0 {
			return nil, fmt.Errorf("tensor: negative dimension in shape %v", shape)
		}
		n *= d
	}
	if n != len(data) {
		return nil, fmt.Errorf("tensor: shape %v needs %d values, got %d", shape, n, len(data))
	}
	return &Tensor{Shape: append([]int(nil), shape...), Data: data}, nil
}

// Zeros allocates a zero tensor.
func Zeros(shape ...int) *Tensor {
	n := 1
	for _, d := range shape {
		n *= d
	}
	return &Tensor{Shape: append([]int(nil), shape...), Data: make([]float64, n)}
}

// Rank is the number of dimensions.
func (t *Tensor) Rank() int { return len(t.Shape) }

// Dim returns dimension i or 0 when out of range.
func (t *Tensor) Dim(i int) int {
	if i < 0 || i >= len(t.Shape) {
		return 0
	}
	return t.Shape[i]
}

// Size is the element count.
func (t *Tensor) Size() int { return len(t.Data) }

// Weights is a named collection of tensors, keyed by PyTorch state-dict name.
type Weights map[string]*Tensor

// ---------------------------------------------------------------------------
// Dense kernels
// ---------------------------------------------------------------------------

// linear computes y = x·Wᵀ + b for rows×in input x and an out×in weight
// (PyTorch nn.Linear layout). bias may be nil.
func linear(x []float64, rows, in int, w, bias []float64, out int) []float64 {
	y := make([]float64, rows*out)
	for r := 0; r < rows; r++ {
		xr := x[r*in : (r+1)*in]
		yr := y[r*out : (r+1)*out]
		for o := 0; o < out; o++ {
			wo := w[o*in : (o+1)*in]
			var s float64
			for k, v := range xr {
				s += v * wo[k]
			}
			if bias != nil {
				s += bias[o]
			}
			yr[o] = s
		}
	}
	return y
}

// matMulT returns a·bᵀ for a (n×k) and b (m×k).
func matMulT(a []float64, n, k int, b []float64, m int) []float64 {
	return linear(a, n, k, b, nil, m)
}

// matMul returns a·b for a (n×k) and b (k×m).
func matMul(a []float64, n, k int, b []float64, m int) []float64 {
	y := make([]float64, n*m)
	for i := 0; i < n; i++ {
		yi := y[i*m : (i+1)*m]
		for p := 0; p < k; p++ {
			av := a[i*k+p]
			if av == 0 {
				continue
			}
			bp := b[p*m : (p+1)*m]
			for j := range yi {
				yi[j] += av * bp[j]
			}
		}
	}
	return y
}

func reluInPlace(x []float64) {
	for i, v := range x {
		if v < 0 {
			x[i] = 0
		}
	}
}

func addInPlace(dst, src []float64) {
	for i := range dst {
		dst[i] += src[i]
	}
}

// softmaxRows normalizes each row of a rows×cols matrix in place, shifting by
// the row maximum for stability.
func softmaxRows(x []float64, rows, cols int) {
	for r := 0; r < rows; r++ {
		row := x[r*cols : (r+1)*cols]
		peak := math.Inf(-1)
		for _, v := range row {
			if v > peak {
				peak = v
			}
		}
		var sum float64
		for i, v := range row {
			e := math.Exp(v - peak)
			row[i] = e
			sum += e
		}
		for i := range row {
			row[i] /= sum
		}
	}
}

// layerNormEps matches torch.nn.LayerNorm's default.
const layerNormEps = 1e-5

// layerNorm normalizes each row to zero mean and unit (biased) variance,
// then applies gamma and beta, in place.
func layerNorm(x []float64, rows, d int, gamma, beta []float64) {
	for r := 0; r < rows; r++ {
		row := x[r*d : (r+1)*d]
		var mean float64
		for _, v := range row {
			mean += v
		}
		mean /= float64(d)
		var variance float64
		for _, v := range row {
			diff := v - mean
			variance += diff * diff
		}
		variance /= float64(d)
		inv := 1 / math.Sqrt(variance+layerNormEps)
		for i, v := range row {
			row[i] = (v-mean)*inv*gamma[i] + beta[i]
		}
	}
}

//Personal.AI order the ending
