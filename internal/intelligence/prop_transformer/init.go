package prop_transformer

import (
	"math"
	"math/rand"
)

// QM9Architecture is the shape of the published QM9 checkpoint.
var QM9Architecture = ArtifactDescriptor{
	InputWidth:       2048,
	OutputWidth:      19,
	LayerCount:       4,
	ModelWidth:       256,
	FeedForwardWidth: 1024,
	HeadWidth:        512,
	Heads:            8,
}

// InitWeights builds a complete, deterministic state dict for arch using
// uniform(-1/√fan_in, 1/√fan_in) initialization and unit layer norms. It
// backs `molprop artifacts demo` and test fixtures; it is not a trained
// model.
func InitWeights(arch ArtifactDescriptor, seed int64) Weights {
	rng := rand.New(rand.NewSource(seed))
	uniform := func(fanIn int, shape ...int) *Tensor {
		t := Zeros(shape...)
		bound := 1 / math.Sqrt(float64(fanIn))
		for i := range t.Data {
			t.Data[i] = (rng.Float64()*2 - 1) * bound
		}
		return t
	}
	fill := func(v float64, n int) *Tensor {
		t := Zeros(n)
		for i := range t.Data {
			t.Data[i] = v
		}
		return t
	}

	d, ff, hw := arch.ModelWidth, arch.FeedForwardWidth, arch.HeadWidth
	if hw == 0 {
		hw = 2 * d
	}
	w := Weights{
		KeyInputWeight: uniform(arch.InputWidth, d, arch.InputWidth),
		KeyInputBias:   uniform(arch.InputWidth, d),
		KeyPosition:    uniform(d, 1, 1, d),
		KeyHead0Weight: uniform(d, hw, d),
		KeyHead0Bias:   uniform(d, hw),
		KeyHead1Weight: uniform(hw, d, hw),
		KeyHead1Bias:   uniform(hw, d),
		KeyHead2Weight: uniform(d, arch.OutputWidth, d),
		KeyHead2Bias:   uniform(d, arch.OutputWidth),
	}
	for i := 0; i < arch.LayerCount; i++ {
		w[LayerKey(i, "self_attn.in_proj_weight")] = uniform(d, 3*d, d)
		w[LayerKey(i, "self_attn.in_proj_bias")] = Zeros(3 * d)
		w[LayerKey(i, "self_attn.out_proj.weight")] = uniform(d, d, d)
		w[LayerKey(i, "self_attn.out_proj.bias")] = Zeros(d)
		w[LayerKey(i, "linear1.weight")] = uniform(d, ff, d)
		w[LayerKey(i, "linear1.bias")] = uniform(d, ff)
		w[LayerKey(i, "linear2.weight")] = uniform(ff, d, ff)
		w[LayerKey(i, "linear2.bias")] = uniform(ff, d)
		w[LayerKey(i, "norm1.weight")] = fill(1, d)
		w[LayerKey(i, "norm1.bias")] = Zeros(d)
		w[LayerKey(i, "norm2.weight")] = fill(1, d)
		w[LayerKey(i, "norm2.bias")] = Zeros(d)
	}
	return w
}

//Personal.AI order the ending
