package prop_transformer

import "math"

// AttentionWeights are the parameters of one multi-head self-attention block
// in PyTorch nn.MultiheadAttention layout: a packed [3d, d] input projection
// (query, key, value stacked) and a [d, d] output projection.
type AttentionWeights struct {
	InProj  []float64
	InBias  []float64
	OutProj []float64
	OutBias []float64
	Heads   int
}

// SelfAttention maps a seq×d matrix to a seq×d matrix:
//
//	Q, K, V = x·Wqᵀ+bq, x·Wkᵀ+bk, x·Wvᵀ+bv
//	head_h  = softmax(Q_h·K_hᵀ / √(d/H))·V_h
//	out     = concat(head_1..head_H)·Woᵀ + bo
//
// It has no state and allocates only request-local buffers.
func SelfAttention(x []float64, seq, d int, w AttentionWeights) []float64 {
	qkv := linear(x, seq, d, w.InProj, w.InBias, 3*d)

	heads := w.Heads
	dh := d / heads
	scale := 1 / math.Sqrt(float64(dh))
	concat := make([]float64, seq*d)

	q := make([]float64, seq*dh)
	k := make([]float64, seq*dh)
	v := make([]float64, seq*dh)
	for h := 0; h < heads; h++ {
		off := h * dh
		for s := 0; s < seq; s++ {
			row := qkv[s*3*d : (s+1)*3*d]
			copy(q[s*dh:(s+1)*dh], row[off:off+dh])
			copy(k[s*dh:(s+1)*dh], row[d+off:d+off+dh])
			copy(v[s*dh:(s+1)*dh], row[2*d+off:2*d+off+dh])
		}
		scores := matMulT(q, seq, dh, k, seq)
		for i := range scores {
			scores[i] *= scale
		}
		softmaxRows(scores, seq, seq)
		ctx := matMul(scores, seq, seq, v, dh)
		for s := 0; s < seq; s++ {
			copy(concat[s*d+off:s*d+off+dh], ctx[s*dh:(s+1)*dh])
		}
	}
	return linear(concat, seq, d, w.OutProj, w.OutBias, d)
}

//Personal.AI order the ending
