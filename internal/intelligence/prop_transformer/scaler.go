package prop_transformer

import (
	"encoding/json"
	"fmt"
	"io"
	"math"

	"github.com/turtacn/MolProp-Intelligence/pkg/errors"
)

// ScalerParams is a fitted per-feature affine transform (StandardScaler).
type ScalerParams struct {
	Mean  []float64 `json:"mean"`
	Scale []float64 `json:"scale"`
}

// NewScalerParams validates widths and values. Zero scale entries become 1,
// the convention StandardScaler uses for constant features.
func NewScalerParams(mean, scale []float64) (*ScalerParams, error) {
	if len(mean) == 0 {
		return nil, artifactErr("scaler has no entries")
	}
	if len(mean) != len(scale) {
		return nil, errors.DimensionMismatch("scaler scale", len(mean), len(scale))
	}
	p := &ScalerParams{Mean: append([]float64(nil), mean...), Scale: make([]float64, len(scale))}
	for i, s := range scale {
		if math.IsNaN(s) || math.IsInf(s, 0) || math.IsNaN(mean[i]) || math.IsInf(mean[i], 0) {
			return nil, artifactErr(fmt.Sprintf("scaler entry %d is not finite", i))
		}
		if s == 0 {
			s = 1
		}
		p.Scale[i] = s
	}
	return p, nil
}

// Width is the number of features.
func (p *ScalerParams) Width() int { return len(p.Mean) }

// Transform returns (x - mean) / scale.
func (p *ScalerParams) Transform(x []float64) ([]float64, error) {
	if len(x) != len(p.Mean) {
		return nil, errors.DimensionMismatch("scaler input", len(p.Mean), len(x))
	}
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = (v - p.Mean[i]) / p.Scale[i]
	}
	return out, nil
}

// InverseTransform returns x * scale + mean.
func (p *ScalerParams) InverseTransform(x []float64) ([]float64, error) {
	if len(x) != len(p.Mean) {
		return nil, errors.DimensionMismatch("scaler input", len(p.Mean), len(x))
	}
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = v*p.Scale[i] + p.Mean[i]
	}
	return out, nil
}

// scalerFile accepts both plain keys and the sklearn attribute names
// (mean_, scale_) so exports from either side load.
type scalerFile struct {
	Mean     []float64 `json:"mean"`
	Scale    []float64 `json:"scale"`
	SKMean   []float64 `json:"mean_"`
	SKScale  []float64 `json:"scale_"`
	Features int       `json:"n_features_in_"`
}

// ReadScaler decodes a JSON scaler export.
func ReadScaler(r io.Reader) (*ScalerParams, error) {
	var f scalerFile
	if err := json.NewDecoder(r).Decode(&f); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeArtifactInvalid, "decode scaler")
	}
	mean, scale := f.Mean, f.Scale
	if mean == nil {
		mean = f.SKMean
	}
	if scale == nil {
		scale = f.SKScale
	}
	p, err := NewScalerParams(mean, scale)
	if err != nil {
		return nil, err
	}
	if f.Features > 0 && f.Features != p.Width() {
		return nil, errors.DimensionMismatch("scaler n_features_in_", f.Features, p.Width())
	}
	return p, nil
}

// WriteScaler encodes p as JSON.
func WriteScaler(w io.Writer, p *ScalerParams) error {
	return json.NewEncoder(w).Encode(p)
}

//Personal.AI order the ending
