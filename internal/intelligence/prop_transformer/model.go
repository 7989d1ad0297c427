package prop_transformer

import (
	"fmt"
	"math"

	"github.com/turtacn/MolProp-Intelligence/pkg/errors"
)

// ---------------------------------------------------------------------------
// State-dict keys
// ---------------------------------------------------------------------------

const (
	KeyInputWeight = "input_projection.weight"
	KeyInputBias   = "input_projection.bias"
	KeyPosition    = "pos_embedding"

	layerPrefix = "transformer_encoder.layers.%d."

	KeyHead0Weight = "output_head.0.weight"
	KeyHead0Bias   = "output_head.0.bias"
	KeyHead1Weight = "output_head.3.weight"
	KeyHead1Bias   = "output_head.3.bias"
	KeyHead2Weight = "output_head.6.weight"
	KeyHead2Bias   = "output_head.6.bias"
)

// LayerKey returns the full state-dict key of a parameter in encoder layer i,
// e.g. LayerKey(0, "linear1.weight").
func LayerKey(i int, name string) string {
	return fmt.Sprintf(layerPrefix, i) + name
}

// ---------------------------------------------------------------------------
// Artifact descriptor
// ---------------------------------------------------------------------------

// ArtifactDescriptor captures the architecture dimensions read from the
// checkpoint's tensor shapes. It is computed and validated once at load.
type ArtifactDescriptor struct {
	InputWidth       int `json:"input_width"`
	OutputWidth      int `json:"output_width"`
	LayerCount       int `json:"layer_count"`
	ModelWidth       int `json:"model_width"`
	FeedForwardWidth int `json:"feed_forward_width"`
	HeadWidth        int `json:"head_width"`
	Heads            int `json:"heads"`
}

func (d ArtifactDescriptor) String() string {
	return fmt.Sprintf("in=%d d=%d heads=%d ff=%d layers=%d head=%d out=%d",
		d.InputWidth, d.ModelWidth, d.Heads, d.FeedForwardWidth, d.LayerCount, d.HeadWidth, d.OutputWidth)
}

// DescribeWeights derives the descriptor from tensor shapes. heads comes from
// configuration since it is not recoverable from the weights; it must divide
// the model width.
func DescribeWeights(w Weights, heads int) (ArtifactDescriptor, error) {
	var d ArtifactDescriptor
	in, err := require2D(w, KeyInputWeight)
	if err != nil {
		return d, err
	}
	d.ModelWidth, d.InputWidth = in.Dim(0), in.Dim(1)

	out, err := require2D(w, KeyHead2Weight)
	if err != nil {
		return d, err
	}
	d.OutputWidth = out.Dim(0)

	h0, err := require2D(w, KeyHead0Weight)
	if err != nil {
		return d, err
	}
	d.HeadWidth = h0.Dim(0)

	for {
		if _, ok := w[LayerKey(d.LayerCount, "self_attn.in_proj_weight")]; !ok {
			break
		}
		d.LayerCount++
	}
	if d.LayerCount == 0 {
		return d, artifactErr("checkpoint has no encoder layers")
	}
	ff, err := require2D(w, LayerKey(0, "linear1.weight"))
	if err != nil {
		return d, err
	}
	d.FeedForwardWidth = ff.Dim(0)

	if heads < 1 || d.ModelWidth%heads != 0 {
		return d, artifactErr(fmt.Sprintf("heads=%d does not divide model width %d", heads, d.ModelWidth))
	}
	d.Heads = heads
	if d.InputWidth == 0 || d.OutputWidth == 0 || d.ModelWidth == 0 {
		return d, artifactErr("checkpoint has a zero-width layer")
	}
	return d, nil
}

func require2D(w Weights, key string) (*Tensor, error) {
	t, ok := w[key]
	if !ok {
		return nil, artifactErr("missing tensor " + key)
	}
	if t.Rank() != 2 {
		return nil, artifactErr(fmt.Sprintf("tensor %s: expected rank 2, got shape %v", key, t.Shape))
	}
	return t, nil
}

func artifactErr(detail string) error {
	return errors.New(errors.ErrCodeArtifactInvalid, "").WithDetail(detail)
}

// ---------------------------------------------------------------------------
// Model
// ---------------------------------------------------------------------------

type denseLayer struct {
	w, b    []float64
	in, out int
}

func (l denseLayer) apply(x []float64, rows int) []float64 {
	return linear(x, rows, l.in, l.w, l.b, l.out)
}

type encoderLayer struct {
	attn         AttentionWeights
	ff1, ff2     denseLayer
	norm1, norm2 [2][]float64 // gamma, beta
}

// Model is an immutable, loaded regressor. It is safe for concurrent use.
type Model struct {
	desc    ArtifactDescriptor
	project denseLayer
	pos     []float64
	layers  []encoderLayer
	head    [3]denseLayer
}

// NewModel validates every tensor shape against the derived descriptor and
// builds the model. Any disagreement is a DimensionMismatch or
// ArtifactInvalid error; nothing is truncated or padded.
func NewModel(w Weights, heads int) (*Model, error) {
	desc, err := DescribeWeights(w, heads)
	if err != nil {
		return nil, err
	}
	d, ff, hw := desc.ModelWidth, desc.FeedForwardWidth, desc.HeadWidth
	b := &builder{w: w}

	m := &Model{desc: desc}
	m.project = b.dense(KeyInputWeight, KeyInputBias, desc.InputWidth, d)
	m.pos = b.vector(KeyPosition, d)
	for i := 0; i < desc.LayerCount; i++ {
		l := encoderLayer{
			attn: AttentionWeights{
				InProj:  b.matrix(LayerKey(i, "self_attn.in_proj_weight"), 3*d, d),
				InBias:  b.vector(LayerKey(i, "self_attn.in_proj_bias"), 3*d),
				OutProj: b.matrix(LayerKey(i, "self_attn.out_proj.weight"), d, d),
				OutBias: b.vector(LayerKey(i, "self_attn.out_proj.bias"), d),
				Heads:   heads,
			},
			ff1:   b.dense(LayerKey(i, "linear1.weight"), LayerKey(i, "linear1.bias"), d, ff),
			ff2:   b.dense(LayerKey(i, "linear2.weight"), LayerKey(i, "linear2.bias"), ff, d),
			norm1: [2][]float64{b.vector(LayerKey(i, "norm1.weight"), d), b.vector(LayerKey(i, "norm1.bias"), d)},
			norm2: [2][]float64{b.vector(LayerKey(i, "norm2.weight"), d), b.vector(LayerKey(i, "norm2.bias"), d)},
		}
		m.layers = append(m.layers, l)
	}
	m.head[0] = b.dense(KeyHead0Weight, KeyHead0Bias, d, hw)
	m.head[1] = b.dense(KeyHead1Weight, KeyHead1Bias, hw, b.rows(KeyHead1Weight))
	m.head[2] = b.dense(KeyHead2Weight, KeyHead2Bias, m.head[1].out, desc.OutputWidth)
	if b.err != nil {
		return nil, b.err
	}
	return m, nil
}

// builder collects the first shape error so NewModel reads linearly.
type builder struct {
	w   Weights
	err error
}

func (b *builder) tensor(key string) *Tensor {
	if b.err != nil {
		return nil
	}
	t, ok := b.w[key]
	if !ok {
		b.err = artifactErr("missing tensor " + key)
		return nil
	}
	return t
}

func (b *builder) rows(key string) int {
	if t := b.tensor(key); t != nil {
		return t.Dim(0)
	}
	return 0
}

func (b *builder) matrix(key string, rows, cols int) []float64 {
	t := b.tensor(key)
	if t == nil {
		return nil
	}
	if t.Rank() != 2 || t.Dim(0) != rows || t.Dim(1) != cols {
		b.err = errors.Newf(errors.ErrCodeDimensionMismatch,
			"tensor %s: expected shape [%d %d], got %v", key, rows, cols, t.Shape)
		return nil
	}
	return t.Data
}

// vector accepts any shape whose element count is n, so the [1,1,d]
// positional embedding reads as a d-vector.
func (b *builder) vector(key string, n int) []float64 {
	t := b.tensor(key)
	if t == nil {
		return nil
	}
	if t.Size() != n {
		b.err = errors.DimensionMismatch("tensor "+key, n, t.Size())
		return nil
	}
	return t.Data
}

func (b *builder) dense(wKey, bKey string, in, out int) denseLayer {
	return denseLayer{w: b.matrix(wKey, out, in), b: b.vector(bKey, out), in: in, out: out}
}

// Descriptor returns the validated architecture dimensions.
func (m *Model) Descriptor() ArtifactDescriptor { return m.desc }

// Forward runs one scaled feature vector through the network and returns the
// raw (still target-scaled) outputs. Each molecule is a single-token
// sequence.
func (m *Model) Forward(x []float64) ([]float64, error) {
	if m == nil {
		return nil, errors.ErrModelNotLoaded
	}
	if len(x) != m.desc.InputWidth {
		return nil, errors.DimensionMismatch("model input", m.desc.InputWidth, len(x))
	}
	return m.forwardSequence(x, 1), nil
}

// ForwardSequence treats x as seq tokens of InputWidth features each and
// returns seq×OutputWidth values. It exists for golden tests of the encoder
// on sequences longer than one.
func (m *Model) ForwardSequence(x []float64, seq int) ([]float64, error) {
	if m == nil {
		return nil, errors.ErrModelNotLoaded
	}
	if seq < 1 || len(x) != seq*m.desc.InputWidth {
		return nil, errors.DimensionMismatch("model input", seq*m.desc.InputWidth, len(x))
	}
	return m.forwardSequence(x, seq), nil
}

func (m *Model) forwardSequence(x []float64, seq int) []float64 {
	d := m.desc.ModelWidth
	h := m.project.apply(x, seq)
	for s := 0; s < seq; s++ {
		addInPlace(h[s*d:(s+1)*d], m.pos)
	}

	// post-norm encoder: x = norm1(x + attn(x)); x = norm2(x + ff(x))
	for _, l := range m.layers {
		attn := SelfAttention(h, seq, d, l.attn)
		addInPlace(h, attn)
		layerNorm(h, seq, d, l.norm1[0], l.norm1[1])

		ff := l.ff1.apply(h, seq)
		reluInPlace(ff)
		ff = l.ff2.apply(ff, seq)
		addInPlace(h, ff)
		layerNorm(h, seq, d, l.norm2[0], l.norm2[1])
	}

	y := m.head[0].apply(h, seq)
	reluInPlace(y)
	y = m.head[1].apply(y, seq)
	reluInPlace(y)
	return m.head[2].apply(y, seq)
}

// HasNonFinite reports whether any value is NaN or infinite.
func HasNonFinite(values []float64) bool {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return true
		}
	}
	return false
}

//Personal.AI order the ending
