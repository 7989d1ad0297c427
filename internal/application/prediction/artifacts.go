package prediction

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/turtacn/MolProp-Intelligence/internal/domain/property"
	pt "github.com/turtacn/MolProp-Intelligence/internal/intelligence/prop_transformer"
)

// ArtifactSet is an in-memory copy of everything LoadContext reads.
type ArtifactSet struct {
	Weights       pt.Weights
	FeatureScaler *pt.ScalerParams
	TargetScaler  *pt.ScalerParams
	Targets       []string
	Metadata      map[string]string
}

// typicalTargets centres the demo target scaler on QM9-like magnitudes so
// untrained outputs land inside the plausibility ranges.
var typicalTargets = map[string][2]float64{
	"mu":    {2.7, 0.05},
	"alpha": {75, 0.5},
	"homo":  {-6.5, 0.05},
	"lumo":  {0.3, 0.05},
	"gap":   {6.8, 0.05},
	"r2":    {1190, 1},
	"zpve":  {4.05, 0.01},
	"cv":    {31.6, 0.1},
	"A":     {9.8, 0.1},
	"B":     {1.4, 0.01},
	"C":     {1.1, 0.01},
}

// NewDemoArtifactSet builds a deterministic, untrained artifact set for arch.
// The property list is the QM9 order when arch has 19 outputs and t0..tN-1
// otherwise.
func NewDemoArtifactSet(arch pt.ArtifactDescriptor, seed int64) (*ArtifactSet, error) {
	targets := make([]string, arch.OutputWidth)
	for i := range targets {
		if arch.OutputWidth == len(property.DefaultCodes) {
			targets[i] = property.DefaultCodes[i]
		} else {
			targets[i] = "t" + strconv.Itoa(i)
		}
	}

	// fingerprints are sparse 0/1 vectors
	xMean := make([]float64, arch.InputWidth)
	xScale := make([]float64, arch.InputWidth)
	for i := range xMean {
		xMean[i] = 0.05
		xScale[i] = 0.25
	}
	fx, err := pt.NewScalerParams(xMean, xScale)
	if err != nil {
		return nil, err
	}

	yMean := make([]float64, arch.OutputWidth)
	yScale := make([]float64, arch.OutputWidth)
	for i, code := range targets {
		yMean[i], yScale[i] = 0, 1
		if t, ok := typicalTargets[code]; ok {
			yMean[i], yScale[i] = t[0], t[1]
		}
	}
	fy, err := pt.NewScalerParams(yMean, yScale)
	if err != nil {
		return nil, err
	}

	return &ArtifactSet{
		Weights:       pt.InitWeights(arch, seed),
		FeatureScaler: fx,
		TargetScaler:  fy,
		Targets:       targets,
		Metadata: map[string]string{
			MetaHeads:   strconv.Itoa(arch.Heads),
			MetaVersion: fmt.Sprintf("demo-%d", seed),
		},
	}, nil
}

// Files encodes the set under names, one byte slice per artifact. The
// checkpoint is written in float64 so a reload reproduces the weights
// exactly.
func (a *ArtifactSet) Files(names ArtifactNames) (map[string][]byte, error) {
	var weights, fx, fy, targets bytes.Buffer
	if err := pt.WriteCheckpoint(&weights, a.Weights, a.Metadata, pt.DTypeF64); err != nil {
		return nil, err
	}
	if err := pt.WriteScaler(&fx, a.FeatureScaler); err != nil {
		return nil, err
	}
	if err := pt.WriteScaler(&fy, a.TargetScaler); err != nil {
		return nil, err
	}
	if err := WriteTargets(&targets, a.Targets); err != nil {
		return nil, err
	}
	return map[string][]byte{
		names.Weights:       weights.Bytes(),
		names.FeatureScaler: fx.Bytes(),
		names.TargetScaler:  fy.Bytes(),
		names.Targets:       targets.Bytes(),
	}, nil
}

// WriteDir writes the set into dir, creating it if needed.
func (a *ArtifactSet) WriteDir(dir string, names ArtifactNames) ([]string, error) {
	files, err := a.Files(names)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	written := make([]string, 0, len(files))
	for _, name := range []string{names.Weights, names.FeatureScaler, names.TargetScaler, names.Targets} {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, files[name], 0o644); err != nil {
			return written, err
		}
		written = append(written, path)
	}
	return written, nil
}

//Personal.AI order the ending
